package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/mmcdole/arrdeck/internal/domain"
)

// Bucket names
var (
	bucketCollections = []byte("collections")
	bucketMetadata    = []byte("metadata")
	bucketRefresh     = []byte("refresh")

	allBuckets = [][]byte{bucketCollections, bucketMetadata, bucketRefresh}
)

const dbFile = "arrdeck.db"

// SnapshotStore implements domain.Store using BoltDB.
// Keys are prefixed "inst:{id}" so an instance's data is removed with one prefix scan.
type SnapshotStore struct {
	db     *bolt.DB
	logger *slog.Logger
	mu     sync.RWMutex // Protects memory cache

	// In-memory cache for hot-path reads (promoted on access)
	cache map[string][]byte
}

var _ domain.Store = (*SnapshotStore)(nil)

// NewSnapshotStore opens the database in dir. An empty dir runs memory-only.
func NewSnapshotStore(dir string, logger *slog.Logger) (*SnapshotStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir == "" {
		return &SnapshotStore{logger: logger, cache: make(map[string][]byte)}, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := bolt.Open(filepath.Join(dir, dbFile), 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &SnapshotStore{db: db, logger: logger, cache: make(map[string][]byte)}, nil
}

func (s *SnapshotStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func instanceKey(instanceID string) string {
	return "inst:" + instanceID
}

// === Generic helpers ===

func (s *SnapshotStore) get(bucket []byte, key string, dest any) bool {
	cacheKey := string(bucket) + ":" + key

	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return json.Unmarshal(data, dest) == nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false
	}

	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		// bolt values are only valid inside the transaction
		if v := b.Get([]byte(key)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("snapshot read failed", "key", key, "error", err)
		return false
	}
	if data == nil {
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		s.logger.Warn("discarding unreadable snapshot", "key", key, "error", err)
		return false
	}

	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()
	return true
}

func (s *SnapshotStore) set(bucket []byte, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cache[string(bucket)+":"+key] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), data)
	})
}

func (s *SnapshotStore) deletePrefix(bucket []byte, prefix string) {
	s.mu.Lock()
	cachePrefix := string(bucket) + ":" + prefix
	for k := range s.cache {
		if strings.HasPrefix(k, cachePrefix) {
			delete(s.cache, k)
		}
	}
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		p := []byte(prefix)
		// Deleting while iterating skips keys; collect first
		var keys [][]byte
		for k, _ := c.Seek(p); k != nil && strings.HasPrefix(string(k), prefix); k, _ = c.Next() {
			keys = append(keys, append([]byte(nil), k...))
		}
		for _, k := range keys {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("snapshot invalidation failed", "prefix", prefix, "error", err)
	}
}

// === Collections (key: inst:{id}:movies / inst:{id}:series) ===

func (s *SnapshotStore) GetMovies(instanceID string) ([]domain.Movie, bool) {
	var movies []domain.Movie
	ok := s.get(bucketCollections, instanceKey(instanceID)+":movies", &movies)
	return movies, ok
}

func (s *SnapshotStore) SaveMovies(instanceID string, movies []domain.Movie) error {
	return s.set(bucketCollections, instanceKey(instanceID)+":movies", movies)
}

func (s *SnapshotStore) GetSeries(instanceID string) ([]domain.Series, bool) {
	var series []domain.Series
	ok := s.get(bucketCollections, instanceKey(instanceID)+":series", &series)
	return series, ok
}

func (s *SnapshotStore) SaveSeries(instanceID string, series []domain.Series) error {
	return s.set(bucketCollections, instanceKey(instanceID)+":series", series)
}

// === Instance metadata (key: inst:{id}:meta) ===

func (s *SnapshotStore) GetMetadata(instanceID string) (domain.InstanceMetadata, bool) {
	var meta domain.InstanceMetadata
	ok := s.get(bucketMetadata, instanceKey(instanceID)+":meta", &meta)
	return meta, ok
}

func (s *SnapshotStore) SaveMetadata(instanceID string, meta domain.InstanceMetadata) error {
	return s.set(bucketMetadata, instanceKey(instanceID)+":meta", meta)
}

// === Refresh throttle (key: inst:{id}) ===

func (s *SnapshotStore) LastRefresh(instanceID string) (time.Time, bool) {
	var unix int64
	if !s.get(bucketRefresh, instanceKey(instanceID), &unix) {
		return time.Time{}, false
	}
	return time.UnixMilli(unix), true
}

func (s *SnapshotStore) MarkRefreshed(instanceID string, at time.Time) error {
	return s.set(bucketRefresh, instanceKey(instanceID), at.UnixMilli())
}

// === Invalidation ===

// InvalidateInstance wipes every key of an instance in all buckets
func (s *SnapshotStore) InvalidateInstance(instanceID string) {
	key := instanceKey(instanceID)
	for _, bucket := range allBuckets {
		// exact key (refresh bucket) and children ("inst:{id}:...")
		s.deletePrefix(bucket, key+":")
		s.deleteKey(bucket, key)
	}
}

func (s *SnapshotStore) deleteKey(bucket []byte, key string) {
	s.mu.Lock()
	delete(s.cache, string(bucket)+":"+key)
	s.mu.Unlock()

	if s.db == nil {
		return
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Delete([]byte(key))
	})
	if err != nil {
		s.logger.Warn("snapshot delete failed", "key", key, "error", err)
	}
}

func (s *SnapshotStore) InvalidateAll() {
	s.mu.Lock()
	s.cache = make(map[string][]byte)
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range allBuckets {
			if err := tx.DeleteBucket(bucket); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
				return err
			}
			if _, err := tx.CreateBucket(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("snapshot wipe failed", "error", err)
	}
}
