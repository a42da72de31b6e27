package store

import (
	"testing"
	"time"

	"github.com/mmcdole/arrdeck/internal/domain"
)

func openStores(t *testing.T) map[string]*SnapshotStore {
	t.Helper()
	disk, err := NewSnapshotStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("NewSnapshotStore: %v", err)
	}
	t.Cleanup(func() { disk.Close() })

	mem, err := NewSnapshotStore("", nil)
	if err != nil {
		t.Fatalf("memory store: %v", err)
	}
	return map[string]*SnapshotStore{"disk": disk, "memory": mem}
}

func TestCollectionsRoundTrip(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			movies := []domain.Movie{{ID: 1, Title: "Alien"}, {ID: 2, Title: "Aliens"}}
			if err := s.SaveMovies("a", movies); err != nil {
				t.Fatalf("SaveMovies: %v", err)
			}
			got, ok := s.GetMovies("a")
			if !ok || len(got) != 2 || got[1].Title != "Aliens" {
				t.Fatalf("GetMovies = %+v, %v", got, ok)
			}
			if _, ok := s.GetMovies("b"); ok {
				t.Error("unknown instance should miss")
			}
			if _, ok := s.GetSeries("a"); ok {
				t.Error("series should miss when only movies were saved")
			}
		})
	}
}

func TestRefreshTimestamps(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
			if err := s.MarkRefreshed("a", at); err != nil {
				t.Fatalf("MarkRefreshed: %v", err)
			}
			got, ok := s.LastRefresh("a")
			if !ok || !got.Equal(at) {
				t.Errorf("LastRefresh = %v, %v; want %v", got, ok, at)
			}
		})
	}
}

func TestInvalidateInstance(t *testing.T) {
	for name, s := range openStores(t) {
		t.Run(name, func(t *testing.T) {
			s.SaveMovies("a", []domain.Movie{{ID: 1}})
			s.SaveMetadata("a", domain.InstanceMetadata{Tags: []domain.Tag{{ID: 1, Label: "x"}}})
			s.MarkRefreshed("a", time.Now())
			s.SaveSeries("ab", []domain.Series{{ID: 9}})

			s.InvalidateInstance("a")

			if _, ok := s.GetMovies("a"); ok {
				t.Error("movies survived invalidation")
			}
			if _, ok := s.GetMetadata("a"); ok {
				t.Error("metadata survived invalidation")
			}
			if _, ok := s.LastRefresh("a"); ok {
				t.Error("refresh timestamp survived invalidation")
			}
			if _, ok := s.GetSeries("ab"); !ok {
				t.Error("instance sharing a prefix was wiped")
			}
		})
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSnapshotStore(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	s.SaveSeries("x", []domain.Series{{ID: 4, Title: "Severance"}})
	s.Close()

	s, err = NewSnapshotStore(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	got, ok := s.GetSeries("x")
	if !ok || len(got) != 1 || got[0].Title != "Severance" {
		t.Fatalf("GetSeries after reopen = %+v, %v", got, ok)
	}

	s.InvalidateAll()
	if _, ok := s.GetSeries("x"); ok {
		t.Error("InvalidateAll left data behind")
	}
}
