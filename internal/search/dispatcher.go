// Package search runs debounced, latest-wins lookups against the metadata
// providers behind the selected instances.
package search

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/arrdeck/internal/domain"
)

// DefaultDebounce is the quiet period after the last keystroke before a lookup
const DefaultDebounce = 750 * time.Millisecond

// State is the dispatcher's position in the lookup cycle
type State int

const (
	StateIdle State = iota
	StateDebouncing
	StateInFlight
	StateError
)

// String returns the display name for the state
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateDebouncing:
		return "Debouncing"
	case StateInFlight:
		return "Searching"
	case StateError:
		return "Error"
	default:
		return "Unknown"
	}
}

// LookupFunc performs one lookup for a query
type LookupFunc[T any] func(ctx context.Context, query string) ([]T, error)

// Dispatcher turns a stream of query edits into lookups. Only the latest query is
// ever dispatched and only its response is applied.
type Dispatcher[T any] struct {
	mu      sync.Mutex
	query   string
	results []T
	state   State
	err     error

	gen    uint64 // bumped on every edit and dispatch
	timer  *time.Timer
	cancel context.CancelFunc

	base     context.Context
	stop     context.CancelFunc
	debounce time.Duration
	lookup   LookupFunc[T]
	notifier *domain.Notifier
	logger   *slog.Logger
}

// NewDispatcher creates an idle dispatcher. debounce <= 0 uses DefaultDebounce.
func NewDispatcher[T any](lookup LookupFunc[T], debounce time.Duration, notifier *domain.Notifier, logger *slog.Logger) *Dispatcher[T] {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	base, stop := context.WithCancel(context.Background())
	return &Dispatcher[T]{
		base:     base,
		stop:     stop,
		debounce: debounce,
		lookup:   lookup,
		notifier: notifier,
		logger:   logger,
	}
}

// SetQuery records an edit. An empty query clears the results and cancels any
// pending or in-flight lookup. A query equal to the current one is dispatched
// immediately; a changed query restarts the debounce window.
func (d *Dispatcher[T]) SetQuery(query string) {
	d.mu.Lock()
	old := d.query
	d.query = query

	if strings.TrimSpace(query) == "" {
		d.stopLocked()
		d.gen++
		d.results = nil
		d.err = nil
		d.state = StateIdle
		d.mu.Unlock()
		d.notifier.Publish(domain.TopicSearch, nil)
		return
	}

	if old == query {
		d.dispatchLocked()
		d.mu.Unlock()
		d.notifier.Publish(domain.TopicSearch, nil)
		return
	}

	d.stopLocked()
	d.gen++
	gen := d.gen
	d.state = StateDebouncing
	d.timer = time.AfterFunc(d.debounce, func() { d.expire(gen) })
	d.mu.Unlock()
	d.notifier.Publish(domain.TopicSearch, nil)
}

// Submit dispatches the query now, skipping the debounce window
func (d *Dispatcher[T]) Submit(query string) {
	d.mu.Lock()
	d.query = query
	if strings.TrimSpace(query) == "" {
		d.mu.Unlock()
		d.SetQuery(query)
		return
	}
	d.dispatchLocked()
	d.mu.Unlock()
	d.notifier.Publish(domain.TopicSearch, nil)
}

func (d *Dispatcher[T]) expire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.dispatchLocked()
	d.mu.Unlock()
	d.notifier.Publish(domain.TopicSearch, nil)
}

// stopLocked cancels the debounce timer and the in-flight lookup
func (d *Dispatcher[T]) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

func (d *Dispatcher[T]) dispatchLocked() {
	d.stopLocked()
	d.gen++
	gen, query := d.gen, d.query

	ctx, cancel := context.WithCancel(d.base)
	d.cancel = cancel
	d.state = StateInFlight
	d.err = nil

	go d.run(ctx, gen, query)
}

func (d *Dispatcher[T]) run(ctx context.Context, gen uint64, query string) {
	results, err := d.lookup(ctx, query)

	d.mu.Lock()
	if gen != d.gen || query != d.query {
		d.mu.Unlock()
		d.logger.Debug("discarding superseded lookup", "query", query)
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	switch {
	case err == nil:
		d.results = results
		d.state = StateIdle
	case domain.IsCancelled(err):
		d.state = StateIdle
	default:
		d.err = err
		d.state = StateError
	}
	notifyErr := d.err
	d.mu.Unlock()

	if notifyErr != nil {
		d.logger.Error("failed to look up", "query", query, "error", notifyErr)
	} else {
		d.logger.Debug("lookup complete", "query", query, "count", len(results))
	}
	d.notifier.Publish(domain.TopicSearch, notifyErr)
}

// Query returns the current query
func (d *Dispatcher[T]) Query() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.query
}

// Results returns the results of the latest completed lookup
func (d *Dispatcher[T]) Results() []T {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.results)
}

// State returns the current state
func (d *Dispatcher[T]) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Searching reports whether a lookup is in flight
func (d *Dispatcher[T]) Searching() bool {
	return d.State() == StateInFlight
}

// Err returns the error of the latest lookup, or nil
func (d *Dispatcher[T]) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

// Close cancels pending work. The dispatcher must not be used afterwards.
func (d *Dispatcher[T]) Close() {
	d.mu.Lock()
	d.stopLocked()
	d.gen++
	d.mu.Unlock()
	d.stop()
}
