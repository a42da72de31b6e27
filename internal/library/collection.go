package library

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/mmcdole/arrdeck/internal/domain"
)

// schema describes how one entity type is keyed, sorted and filtered
type schema[K comparable, T any] struct {
	key     func(T) K
	compare func(SortField, T, T) int
	text    func(T) []string     // title first, then extra searchable fields
	match   func(Filter, T) bool // scope and type-specific filters
}

// Collection is the authoritative list of one entity type for one instance.
// Network calls run outside the lock; results are applied under it.
type Collection[K comparable, T any] struct {
	mu    sync.RWMutex
	inst  domain.Instance
	gen   uint64 // bumped when the bound instance changes
	items []T
	index map[K]int
	view  []T

	sort   SortSpec
	filter Filter

	working int
	err     error

	schema   schema[K, T]
	topic    domain.Topic
	notifier *domain.Notifier
	logger   *slog.Logger
}

func newCollection[K comparable, T any](s schema[K, T], sort SortSpec, topic domain.Topic, notifier *domain.Notifier, logger *slog.Logger) *Collection[K, T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Collection[K, T]{
		index:    make(map[K]int),
		sort:     sort,
		schema:   s,
		topic:    topic,
		notifier: notifier,
		logger:   logger,
	}
}

// SetInstance binds the collection to inst. A different instance resets all state
// and causes in-flight results for the old instance to be discarded.
func (c *Collection[K, T]) SetInstance(inst domain.Instance) bool {
	c.mu.Lock()
	if c.inst.ID == inst.ID && c.inst.URL == inst.URL && c.inst.APIKey == inst.APIKey {
		c.inst = inst.Clone()
		c.mu.Unlock()
		return false
	}
	c.inst = inst.Clone()
	c.resetLocked()
	c.mu.Unlock()

	c.notifier.Publish(c.topic, nil)
	return true
}

// reset drops all records and detaches in-flight requests
func (c *Collection[K, T]) reset() {
	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()

	c.notifier.Publish(c.topic, nil)
}

func (c *Collection[K, T]) resetLocked() {
	c.gen++
	c.items = nil
	c.index = make(map[K]int)
	c.view = nil
	c.err = nil
}

// Instance returns the bound instance
func (c *Collection[K, T]) Instance() domain.Instance {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.inst.Clone()
}

// Items returns the sorted and filtered view
func (c *Collection[K, T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.view)
}

// All returns every record in fetch order
func (c *Collection[K, T]) All() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

// Len returns the number of records in the full collection
func (c *Collection[K, T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// ByID returns the record with the given key
func (c *Collection[K, T]) ByID(id K) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i, ok := c.index[id]; ok {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

// Working reports whether a request is in flight
func (c *Collection[K, T]) Working() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.working > 0
}

// Err returns the error of the last attempt, or nil
func (c *Collection[K, T]) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Sort returns the active sort
func (c *Collection[K, T]) Sort() SortSpec {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sort
}

// Filter returns the active filter
func (c *Collection[K, T]) Filter() Filter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filter
}

// SortAndFilter recomputes the derived view. The full collection is not modified.
func (c *Collection[K, T]) SortAndFilter(sort SortSpec, filter Filter) []T {
	c.mu.Lock()
	c.sort = sort
	c.filter = filter
	c.rebuildLocked()
	view := slices.Clone(c.view)
	c.mu.Unlock()

	c.notifier.Publish(c.topic, nil)
	return view
}

func (c *Collection[K, T]) rebuildLocked() {
	var out []T
	for _, item := range c.items {
		if c.schema.match == nil || c.schema.match(c.filter, item) {
			out = append(out, item)
		}
	}

	if c.filter.Fuzzy && strings.TrimSpace(c.filter.Query) != "" {
		// fuzzy rank is the order
		c.view = queryFilter(out, c.filter.Query, true, c.schema.text)
		return
	}
	out = queryFilter(out, c.filter.Query, false, c.schema.text)

	if c.sort.Field != SortDefault && c.schema.compare != nil {
		field, desc := c.sort.Field, c.sort.Direction == SortDesc
		slices.SortStableFunc(out, func(a, b T) int {
			r := c.schema.compare(field, a, b)
			if desc {
				return -r
			}
			return r
		})
	}
	c.view = out
}

// replaceLocked swaps in a fresh result. Duplicate keys keep the first position
// and the last value.
func (c *Collection[K, T]) replaceLocked(items []T) {
	c.items = make([]T, 0, len(items))
	c.index = make(map[K]int, len(items))
	for _, item := range items {
		c.upsertLocked(item)
	}
}

func (c *Collection[K, T]) upsertLocked(item T) {
	k := c.schema.key(item)
	if i, ok := c.index[k]; ok {
		c.items[i] = item
		return
	}
	c.index[k] = len(c.items)
	c.items = append(c.items, item)
}

func (c *Collection[K, T]) removeLocked(k K) {
	i, ok := c.index[k]
	if !ok {
		return
	}
	c.items = slices.Delete(c.items, i, i+1)
	delete(c.index, k)
	for j := i; j < len(c.items); j++ {
		c.index[c.schema.key(c.items[j])] = j
	}
}

// begin marks a request in flight and clears the error slot
func (c *Collection[K, T]) begin() (domain.Instance, uint64, bool) {
	c.mu.Lock()
	if c.inst.IsVoid() {
		c.mu.Unlock()
		return domain.Instance{}, 0, false
	}
	inst, gen := c.inst.Clone(), c.gen
	c.working++
	c.err = nil
	c.mu.Unlock()

	c.notifier.Publish(c.topic, nil)
	return inst, gen, true
}

// finish applies a result if the instance is unchanged. Cancellation is never recorded.
func (c *Collection[K, T]) finish(gen uint64, err error, apply func()) (stale bool) {
	c.mu.Lock()
	c.working--
	stale = gen != c.gen
	if !stale {
		if err != nil {
			if !domain.IsCancelled(err) {
				c.err = err
			}
		} else if apply != nil {
			apply()
			c.rebuildLocked()
		}
	}
	notifyErr := c.err
	c.mu.Unlock()

	c.notifier.Publish(c.topic, notifyErr)
	return stale
}

// fetch replaces the collection with load's result. A failure keeps the previous
// records. Results for an instance that was replaced meanwhile are dropped.
func (c *Collection[K, T]) fetch(ctx context.Context, op string, load func(context.Context, domain.Instance) ([]T, error)) ([]T, error) {
	inst, gen, ok := c.begin()
	if !ok {
		return nil, nil
	}

	items, err := load(ctx, inst)
	stale := c.finish(gen, err, func() { c.replaceLocked(items) })
	if stale {
		c.logger.Debug("discarding stale result", "op", op, "instance", inst.ID)
		return nil, nil
	}
	if err != nil {
		if !domain.IsCancelled(err) {
			c.logger.Error("failed to "+op, "instance", inst.ID, "error", err)
		}
		return nil, err
	}
	c.logger.Debug(op, "instance", inst.ID, "count", len(items))
	return items, nil
}

// mutate runs a targeted request; apply updates affected records only on success
func (c *Collection[K, T]) mutate(ctx context.Context, op string, call func(context.Context, domain.Instance) error, apply func()) error {
	inst, gen, ok := c.begin()
	if !ok {
		return domain.ErrNoInstance
	}

	err := call(ctx, inst)
	c.finish(gen, err, apply)
	if err != nil {
		if !domain.IsCancelled(err) {
			c.logger.Error("failed to "+op, "instance", inst.ID, "error", err)
		}
		return err
	}
	c.logger.Info(op, "instance", inst.ID)
	return nil
}

// seed fills an empty collection from a cached snapshot
func (c *Collection[K, T]) seed(instanceID string, items []T) bool {
	c.mu.Lock()
	if c.inst.ID != instanceID || len(c.items) > 0 {
		c.mu.Unlock()
		return false
	}
	c.replaceLocked(items)
	c.rebuildLocked()
	c.mu.Unlock()

	c.notifier.Publish(c.topic, nil)
	return true
}
