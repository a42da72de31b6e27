// Package refresh keeps per-instance metadata (quality profiles, root folders,
// tags) current in the background, at most once per window per instance.
package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/mmcdole/arrdeck/internal/domain"
)

// DefaultInterval is the throttle window per instance
const DefaultInterval = 30 * time.Second

// Instances lists every configured instance
type Instances interface {
	All() []domain.Instance
}

// Refresher fetches instance metadata on a schedule and persists it
type Refresher struct {
	client    domain.InstanceRepository
	store     domain.Store
	instances Instances
	interval  time.Duration
	now       func() time.Time

	cron *cron.Cron

	mu       sync.Mutex
	inFlight map[string]bool
	cache    map[string]domain.InstanceMetadata

	notifier *domain.Notifier
	logger   *slog.Logger
}

// New creates a refresher. interval <= 0 uses DefaultInterval.
func New(client domain.InstanceRepository, store domain.Store, instances Instances, interval time.Duration, notifier *domain.Notifier, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Refresher{
		client:    client,
		store:     store,
		instances: instances,
		interval:  interval,
		now:       time.Now,
		cron:      cron.New(),
		inFlight:  make(map[string]bool),
		cache:     make(map[string]domain.InstanceMetadata),
		notifier:  notifier,
		logger:    logger,
	}
}

// Start schedules the periodic refresh and runs one immediately
func (r *Refresher) Start(ctx context.Context) error {
	spec := fmt.Sprintf("@every %s", r.interval)
	if _, err := r.cron.AddFunc(spec, func() { r.RefreshAll(ctx) }); err != nil {
		return fmt.Errorf("failed to add metadata refresh job: %w", err)
	}
	r.cron.Start()
	r.logger.Info("metadata refresh started", "interval", r.interval)

	go r.RefreshAll(ctx)
	return nil
}

// Stop halts the schedule and waits for a running job to finish
func (r *Refresher) Stop() {
	<-r.cron.Stop().Done()
	r.logger.Info("metadata refresh stopped")
}

// RefreshAll refreshes every instance whose window has elapsed. Instances are
// refreshed concurrently; the first failure is returned.
func (r *Refresher) RefreshAll(ctx context.Context) error {
	var g errgroup.Group
	for _, inst := range r.instances.All() {
		g.Go(func() error {
			_, err := r.Refresh(ctx, inst, false)
			return err
		})
	}
	return g.Wait()
}

// Refresh fetches metadata for one instance unless it was fetched within the
// window. force bypasses the window. Reports whether a fetch happened.
func (r *Refresher) Refresh(ctx context.Context, inst domain.Instance, force bool) (bool, error) {
	if inst.IsVoid() {
		return false, nil
	}
	if !force && r.store != nil {
		if last, ok := r.store.LastRefresh(inst.ID); ok && r.now().Sub(last) < r.interval {
			return false, nil
		}
	}

	r.mu.Lock()
	if r.inFlight[inst.ID] {
		r.mu.Unlock()
		return false, nil
	}
	r.inFlight[inst.ID] = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.inFlight, inst.ID)
		r.mu.Unlock()
	}()

	meta, err := r.client.FetchMetadata(ctx, inst)
	if err != nil {
		if !domain.IsCancelled(err) {
			r.logger.Warn("failed to fetch instance metadata", "instance", inst.ID, "error", err)
			r.notifier.Publish(domain.TopicProfiles, err)
		}
		return true, err
	}

	r.mu.Lock()
	r.cache[inst.ID] = meta
	r.mu.Unlock()

	if r.store != nil {
		if err := r.store.SaveMetadata(inst.ID, meta); err != nil {
			r.logger.Error("failed to save instance metadata", "instance", inst.ID, "error", err)
		}
		if err := r.store.MarkRefreshed(inst.ID, r.now()); err != nil {
			r.logger.Error("failed to mark refresh", "instance", inst.ID, "error", err)
		}
	}

	r.logger.Debug("refreshed instance metadata", "instance", inst.ID,
		"profiles", len(meta.QualityProfiles), "root_folders", len(meta.RootFolders), "tags", len(meta.Tags))
	r.notifier.Publish(domain.TopicProfiles, nil)
	return true, nil
}

// Metadata returns the last fetched metadata, falling back to the store
func (r *Refresher) Metadata(instanceID string) (domain.InstanceMetadata, bool) {
	r.mu.Lock()
	meta, ok := r.cache[instanceID]
	r.mu.Unlock()
	if ok {
		return meta, true
	}
	if r.store == nil {
		return domain.InstanceMetadata{}, false
	}
	meta, ok = r.store.GetMetadata(instanceID)
	if ok {
		r.mu.Lock()
		r.cache[instanceID] = meta
		r.mu.Unlock()
	}
	return meta, ok
}

// Forget drops cached metadata of a removed instance
func (r *Refresher) Forget(instanceID string) {
	r.mu.Lock()
	delete(r.cache, instanceID)
	r.mu.Unlock()
}
