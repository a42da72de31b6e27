// Package calendar aggregates movie releases and episode air dates from every
// configured instance into UTC day buckets, loaded incrementally by date range.
package calendar

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/singleflight"

	"github.com/mmcdole/arrdeck/internal/domain"
)

// Client is the adapter surface the calendar reads from
type Client interface {
	domain.CalendarRepository
	FetchSeries(ctx context.Context, inst domain.Instance) ([]domain.Series, error)
}

// Instances lists the configured instances of a type
type Instances interface {
	Instances(t domain.InstanceType) []domain.Instance
}

// Options configures the date windows
type Options struct {
	PastDays         int // initial window before today
	FutureDays       int // window size of each load
	LookAhead        int // distance from the end of known dates that triggers a load
	FutureCutoffDays int // no loads beyond today plus this many days
	Now              func() time.Time
}

func (o Options) withDefaults() Options {
	if o.PastDays <= 0 {
		o.PastDays = 60
	}
	if o.FutureDays <= 0 {
		o.FutureDays = 30
	}
	if o.LookAhead <= 0 {
		o.LookAhead = 7
	}
	if o.FutureCutoffDays <= 0 {
		o.FutureCutoffDays = 365
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type seriesKey struct {
	instanceID string
	seriesID   int
}

// Calendar is the cross-instance day-bucket model
type Calendar struct {
	mu      sync.RWMutex
	gen     uint64
	buckets map[time.Time][]Entry
	known   map[time.Time]bool
	dates   []time.Time // sorted known days
	series  map[seriesKey]domain.Series
	err     error

	loading       int
	loadingFuture bool
	triggeredAt   time.Time // last known day when a future load was last triggered

	client    Client
	instances Instances
	opts      Options
	group     singleflight.Group
	notifier  *domain.Notifier
	logger    *slog.Logger
}

// New creates an empty calendar
func New(client Client, instances Instances, opts Options, notifier *domain.Notifier, logger *slog.Logger) *Calendar {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Calendar{
		client:    client,
		instances: instances,
		opts:      opts.withDefaults(),
		notifier:  notifier,
		logger:    logger,
	}
	c.resetLocked()
	return c
}

func (c *Calendar) resetLocked() {
	c.gen++
	c.buckets = make(map[time.Time][]Entry)
	c.known = make(map[time.Time]bool)
	c.dates = nil
	c.series = make(map[seriesKey]domain.Series)
	c.err = nil
	c.triggeredAt = time.Time{}
}

// Reset drops every bucket and known date. In-flight loads are discarded.
func (c *Calendar) Reset() {
	c.mu.Lock()
	c.resetLocked()
	c.loadingFuture = false
	c.mu.Unlock()

	c.notifier.Publish(domain.TopicCalendar, nil)
}

// cutoff is the last day future loads may reach
func (c *Calendar) cutoff() time.Time {
	return AddDays(Day(c.opts.Now()), c.opts.FutureCutoffDays)
}

// Initialize loads the window around today
func (c *Calendar) Initialize(ctx context.Context) error {
	today := Day(c.opts.Now())

	c.mu.Lock()
	c.loading++
	c.mu.Unlock()
	c.notifier.Publish(domain.TopicCalendar, nil)

	defer func() {
		c.mu.Lock()
		c.loading--
		c.mu.Unlock()
		c.notifier.Publish(domain.TopicCalendar, c.Err())
	}()

	return c.Fetch(ctx, AddDays(today, -c.opts.PastDays), AddDays(today, c.opts.FutureDays))
}

// LoadFutureDates loads the window after ref, capped at the cutoff
func (c *Calendar) LoadFutureDates(ctx context.Context, ref time.Time) error {
	c.mu.Lock()
	if c.loadingFuture {
		c.mu.Unlock()
		return nil
	}
	c.loadingFuture = true
	c.mu.Unlock()

	return c.loadFuture(ctx, ref)
}

// loadFuture expects loadingFuture to be set by the caller
func (c *Calendar) loadFuture(ctx context.Context, ref time.Time) error {
	c.mu.RLock()
	tail := c.lastKnownLocked()
	c.mu.RUnlock()

	c.notifier.Publish(domain.TopicCalendar, nil)
	defer func() {
		c.mu.Lock()
		c.loadingFuture = false
		// an abandoned load must not block the next trigger at this end
		if c.lastKnownLocked().Equal(tail) {
			c.triggeredAt = time.Time{}
		}
		c.mu.Unlock()
		c.notifier.Publish(domain.TopicCalendar, c.Err())
	}()

	start := AddDays(Day(ref), 1)
	end := AddDays(Day(ref), c.opts.FutureDays)
	cutoff := c.cutoff()
	if start.After(cutoff) {
		return nil
	}
	if end.After(cutoff) {
		end = cutoff
	}
	return c.Fetch(ctx, start, end)
}

type instanceResult struct {
	order   int
	inst    domain.Instance
	entries []Entry
	series  []domain.Series
	err     error
}

// Fetch loads [start, end] from every instance concurrently and applies the
// results once all complete. One instance failing does not stop the others;
// the last failure is retained.
func (c *Calendar) Fetch(ctx context.Context, start, end time.Time) error {
	start, end = Day(start), Day(end)
	if end.Before(start) {
		return fmt.Errorf("calendar range %s..%s is empty", start.Format(time.DateOnly), end.Format(time.DateOnly))
	}

	c.mu.Lock()
	gen := c.gen
	c.err = nil
	c.mu.Unlock()

	movieInstances := c.instances.Instances(domain.InstanceRadarr)
	seriesInstances := c.instances.Instances(domain.InstanceSonarr)

	p := pool.NewWithResults[instanceResult]()
	order := 0
	for _, inst := range movieInstances {
		n := order
		p.Go(func() instanceResult {
			r := c.fetchMovies(ctx, inst, start, end)
			r.order = n
			return r
		})
		order++
	}
	for _, inst := range seriesInstances {
		n := order
		p.Go(func() instanceResult {
			r := c.fetchEpisodes(ctx, inst, start, end)
			r.order = n
			return r
		})
		order++
	}
	results := p.Wait()
	slices.SortFunc(results, func(a, b instanceResult) int { return cmp.Compare(a.order, b.order) })

	// a deadline still applies what completed; only cancellation abandons
	if errors.Is(ctx.Err(), context.Canceled) {
		c.logger.Debug("calendar fetch abandoned", "start", start, "end", end)
		return ctx.Err()
	}

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		c.logger.Debug("discarding stale result", "op", "fetch calendar")
		return nil
	}
	var lastErr error
	touched := make(map[time.Time]bool)
	for _, r := range results {
		for _, s := range r.series {
			c.series[seriesKey{r.inst.ID, s.ID}] = s
		}
		for _, e := range r.entries {
			day := Day(e.At)
			if e.Episode != nil && e.Episode.Series == nil {
				if s, ok := c.series[seriesKey{r.inst.ID, e.Episode.SeriesID}]; ok {
					ep := *e.Episode
					ep.Series = &s
					e.Episode = &ep
				}
			}
			c.buckets[day] = insert(c.buckets[day], e)
			touched[day] = true
		}
		if r.err != nil && !domain.IsCancelled(r.err) {
			lastErr = r.err
			c.logger.Error("failed to fetch calendar", "instance", r.inst.ID, "error", r.err)
		}
	}
	for day := range touched {
		sortBucket(c.buckets[day])
	}
	c.addKnownLocked(start, end)
	if lastErr != nil {
		c.err = lastErr
	}
	c.mu.Unlock()

	c.notifier.Publish(domain.TopicCalendar, lastErr)
	return lastErr
}

func (c *Calendar) fetchMovies(ctx context.Context, inst domain.Instance, start, end time.Time) instanceResult {
	r := instanceResult{inst: inst}
	movies, err := c.client.MovieCalendar(ctx, inst, start, AddDays(end, 1))
	if err != nil {
		r.err = err
		return r
	}
	for i := range movies {
		movie := movies[i]
		for kind, at := range movie.ReleaseDates() {
			day := Day(at)
			if day.Before(start) || day.After(end) {
				continue
			}
			r.entries = append(r.entries, Entry{
				InstanceID: inst.ID,
				Kind:       domain.KindMovie,
				At:         day,
				Movie:      &movie,
				Releases:   []domain.ReleaseKind{kind},
			})
		}
	}
	return r
}

func (c *Calendar) fetchEpisodes(ctx context.Context, inst domain.Instance, start, end time.Time) instanceResult {
	r := instanceResult{inst: inst}

	// concurrent loads share one series-list request per instance; the
	// shared request outlives any single caller's context
	ch := c.group.DoChan(inst.ID, func() (any, error) {
		return c.client.FetchSeries(context.WithoutCancel(ctx), inst)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			r.err = res.Err
		} else {
			r.series = res.Val.([]domain.Series)
		}
	case <-ctx.Done():
		r.err = ctx.Err()
	}

	episodes, err := c.client.EpisodeCalendar(ctx, inst, start, AddDays(end, 1))
	if err != nil {
		r.err = err
		return r
	}
	for i := range episodes {
		ep := episodes[i]
		at, ok := airTime(ep)
		if !ok {
			continue
		}
		if day := Day(at); day.Before(start) || day.After(end) {
			continue
		}
		r.entries = append(r.entries, Entry{
			InstanceID: inst.ID,
			Kind:       domain.KindEpisode,
			At:         at,
			Episode:    &ep,
		})
	}
	return r
}

// airTime prefers the UTC air time and falls back to the local air date
func airTime(ep domain.Episode) (time.Time, bool) {
	if ep.AirDateUtc != nil {
		return ep.AirDateUtc.UTC(), true
	}
	if ep.AirDate == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.DateOnly, ep.AirDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func (c *Calendar) lastKnownLocked() time.Time {
	if len(c.dates) == 0 {
		return time.Time{}
	}
	return c.dates[len(c.dates)-1]
}

func (c *Calendar) addKnownLocked(start, end time.Time) {
	added := false
	for day := start; !day.After(end); day = AddDays(day, 1) {
		if !c.known[day] {
			c.known[day] = true
			c.dates = append(c.dates, day)
			added = true
		}
	}
	if added {
		slices.SortFunc(c.dates, func(a, b time.Time) int { return a.Compare(b) })
	}
}

// MaybeLoadMoreDates starts a background future load when position is within
// LookAhead entries of the last known date. It triggers at most once per end of
// known dates and never past the cutoff.
func (c *Calendar) MaybeLoadMoreDates(ctx context.Context, position int) bool {
	c.mu.Lock()
	if c.loadingFuture || len(c.dates) == 0 {
		c.mu.Unlock()
		return false
	}
	position = min(max(position, 0), len(c.dates)-1)
	cutoff := c.cutoff()
	last := c.dates[len(c.dates)-1]
	if c.dates[position].After(cutoff) || !last.Before(cutoff) {
		c.mu.Unlock()
		return false
	}
	if len(c.dates)-1-position > c.opts.LookAhead || last.Equal(c.triggeredAt) {
		c.mu.Unlock()
		return false
	}
	c.loadingFuture = true
	c.triggeredAt = last
	c.mu.Unlock()

	c.logger.Debug("loading more calendar dates", "after", last.Format(time.DateOnly))
	go c.loadFuture(ctx, last)
	return true
}

// Dates returns the known days in order
func (c *Calendar) Dates() []time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.dates)
}

// Bucket returns the entries of one day
func (c *Calendar) Bucket(day time.Time) []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.buckets[Day(day)])
}

// Series returns the display metadata of a series seen by the calendar
func (c *Calendar) Series(instanceID string, seriesID int) (domain.Series, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.series[seriesKey{instanceID, seriesID}]
	return s, ok
}

// Err returns the last retained error, or nil
func (c *Calendar) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Loading reports whether the initial window is loading
func (c *Calendar) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading > 0
}

// LoadingFuture reports whether a future window is loading
func (c *Calendar) LoadingFuture() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loadingFuture
}
