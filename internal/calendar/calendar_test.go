package calendar

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mmcdole/arrdeck/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr(t time.Time) *time.Time { return &t }

type fakeInstances map[domain.InstanceType][]domain.Instance

func (f fakeInstances) Instances(t domain.InstanceType) []domain.Instance { return f[t] }

type fakeClient struct {
	mu          sync.Mutex
	movies      map[string][]domain.Movie
	episodes    map[string][]domain.Episode
	series      map[string][]domain.Series
	errs        map[string]error
	hang        map[string]bool // calendar calls block until ctx is done
	seriesGate  chan struct{}
	movieCalls  atomic.Int32
	seriesCalls atomic.Int32
	ranges      [][2]time.Time
}

func (f *fakeClient) MovieCalendar(ctx context.Context, inst domain.Instance, start, end time.Time) ([]domain.Movie, error) {
	f.movieCalls.Add(1)
	f.mu.Lock()
	f.ranges = append(f.ranges, [2]time.Time{start, end})
	f.mu.Unlock()
	if f.hang[inst.ID] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := f.errs[inst.ID]; err != nil {
		return nil, err
	}
	return f.movies[inst.ID], nil
}

func (f *fakeClient) EpisodeCalendar(ctx context.Context, inst domain.Instance, start, end time.Time) ([]domain.Episode, error) {
	if f.hang[inst.ID] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := f.errs[inst.ID]; err != nil {
		return nil, err
	}
	return f.episodes[inst.ID], nil
}

func (f *fakeClient) FetchSeries(ctx context.Context, inst domain.Instance) ([]domain.Series, error) {
	f.seriesCalls.Add(1)
	if f.seriesGate != nil {
		select {
		case <-f.seriesGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.series[inst.ID], nil
}

var (
	radarr = domain.Instance{ID: "r1", URL: "http://radarr", Type: domain.InstanceRadarr}
	sonarr = domain.Instance{ID: "s1", URL: "http://sonarr", Type: domain.InstanceSonarr}
)

func fixedNow(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestCoincidingReleaseDatesMerge(t *testing.T) {
	jan2 := date(2025, 1, 2)
	client := &fakeClient{movies: map[string][]domain.Movie{
		"r1": {{ID: 7, Title: "Heat", DigitalRelease: ptr(jan2), PhysicalRelease: ptr(jan2.Add(5 * time.Hour))}},
	}}
	c := New(client, fakeInstances{domain.InstanceRadarr: {radarr}}, Options{Now: fixedNow(date(2025, 1, 1))}, nil, nil)

	if err := c.Fetch(context.Background(), date(2025, 1, 1), date(2025, 1, 3)); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	dates := c.Dates()
	if len(dates) != 3 || !dates[0].Equal(date(2025, 1, 1)) || !dates[2].Equal(date(2025, 1, 3)) {
		t.Fatalf("Dates() = %v, want Jan 1..3", dates)
	}
	bucket := c.Bucket(jan2)
	if len(bucket) != 1 {
		t.Fatalf("Bucket(Jan 2) has %d entries, want 1", len(bucket))
	}
	if got := bucket[0].Releases; len(got) != 2 || got[0] != domain.ReleaseDigital || got[1] != domain.ReleasePhysical {
		t.Errorf("Releases = %v, want [digital physical]", got)
	}
	if len(c.Bucket(date(2025, 1, 1))) != 0 || len(c.Bucket(date(2025, 1, 3))) != 0 {
		t.Error("movie leaked into other days")
	}
}

func TestDistinctReleaseDatesGiveThreeBuckets(t *testing.T) {
	client := &fakeClient{movies: map[string][]domain.Movie{
		"r1": {{
			ID: 7, Title: "Heat",
			InCinemas:       ptr(date(2025, 3, 1)),
			DigitalRelease:  ptr(date(2025, 3, 10)),
			PhysicalRelease: ptr(date(2025, 3, 20)),
		}},
	}}
	c := New(client, fakeInstances{domain.InstanceRadarr: {radarr}}, Options{}, nil, nil)
	c.Fetch(context.Background(), date(2025, 3, 1), date(2025, 3, 31))

	for _, day := range []time.Time{date(2025, 3, 1), date(2025, 3, 10), date(2025, 3, 20)} {
		if b := c.Bucket(day); len(b) != 1 || b[0].Movie.ID != 7 {
			t.Errorf("Bucket(%s) = %+v", day.Format(time.DateOnly), b)
		}
	}

	// dates outside the range are not inserted
	c2 := New(client, fakeInstances{domain.InstanceRadarr: {radarr}}, Options{}, nil, nil)
	c2.Fetch(context.Background(), date(2025, 3, 5), date(2025, 3, 15))
	if len(c2.Bucket(date(2025, 3, 1))) != 0 || len(c2.Bucket(date(2025, 3, 10))) != 1 {
		t.Error("range filter not applied")
	}
}

func TestFetchIsIdempotent(t *testing.T) {
	client := &fakeClient{
		movies: map[string][]domain.Movie{"r1": {{ID: 7, Title: "Heat", DigitalRelease: ptr(date(2025, 1, 2))}}},
		episodes: map[string][]domain.Episode{"s1": {
			{ID: 40, SeriesID: 4, SeasonNumber: 1, EpisodeNumber: 2, AirDateUtc: ptr(date(2025, 1, 2).Add(21 * time.Hour))},
		}},
		series: map[string][]domain.Series{"s1": {{ID: 4, Title: "Severance"}}},
	}
	c := New(client, fakeInstances{
		domain.InstanceRadarr: {radarr},
		domain.InstanceSonarr: {sonarr},
	}, Options{}, nil, nil)

	ctx := context.Background()
	c.Fetch(ctx, date(2025, 1, 1), date(2025, 1, 3))
	c.Fetch(ctx, date(2025, 1, 2), date(2025, 1, 4))

	bucket := c.Bucket(date(2025, 1, 2))
	if len(bucket) != 2 {
		t.Fatalf("Bucket(Jan 2) has %d entries, want 2", len(bucket))
	}
	if bucket[0].Kind != domain.KindMovie || bucket[1].Kind != domain.KindEpisode {
		t.Errorf("bucket order = %v, %v", bucket[0].Kind, bucket[1].Kind)
	}
	if ep := bucket[1].Episode; ep.Series == nil || ep.Series.Title != "Severance" {
		t.Error("episode missing series metadata")
	}
	if s, ok := c.Series("s1", 4); !ok || s.Title != "Severance" {
		t.Errorf("Series() = %+v, %v", s, ok)
	}
	if got := len(c.Dates()); got != 4 {
		t.Errorf("Dates() has %d days, want 4", got)
	}
}

func TestOneInstanceFailingKeepsOthers(t *testing.T) {
	broken := domain.Instance{ID: "r2", URL: "http://broken", Type: domain.InstanceRadarr}
	offline := &domain.APIError{Kind: domain.ErrorNotConnected, Err: errors.New("connection refused")}
	client := &fakeClient{
		movies: map[string][]domain.Movie{"r1": {{ID: 7, Title: "Heat", DigitalRelease: ptr(date(2025, 1, 2))}}},
		errs:   map[string]error{"r2": offline},
	}
	c := New(client, fakeInstances{domain.InstanceRadarr: {radarr, broken}}, Options{}, nil, nil)

	err := c.Fetch(context.Background(), date(2025, 1, 1), date(2025, 1, 3))
	if !errors.Is(err, domain.ErrServerOffline) {
		t.Fatalf("Fetch() error = %v, want offline", err)
	}
	if !errors.Is(c.Err(), domain.ErrServerOffline) {
		t.Errorf("Err() = %v", c.Err())
	}
	if len(c.Bucket(date(2025, 1, 2))) != 1 {
		t.Error("healthy instance results were dropped")
	}
}

func TestDeadlineKeepsHealthyResults(t *testing.T) {
	client := &fakeClient{
		movies: map[string][]domain.Movie{"r1": {{ID: 7, Title: "Dune", DigitalRelease: ptr(date(2025, 1, 2))}}},
		hang:   map[string]bool{"s1": true},
	}
	c := New(client, fakeInstances{
		domain.InstanceRadarr: {radarr},
		domain.InstanceSonarr: {sonarr},
	}, Options{}, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := c.Fetch(ctx, date(2025, 1, 1), date(2025, 1, 3))

	if domain.KindOf(err) != domain.ErrorTimeout {
		t.Errorf("Fetch() error = %v, want timeout", err)
	}
	if domain.KindOf(c.Err()) != domain.ErrorTimeout {
		t.Errorf("Err() = %v, want timeout retained", c.Err())
	}
	if b := c.Bucket(date(2025, 1, 2)); len(b) != 1 || b[0].Movie.Title != "Dune" {
		t.Errorf("Bucket(Jan 2) = %+v, want the healthy movie", b)
	}
	if got := len(c.Dates()); got != 3 {
		t.Errorf("Dates() has %d days, want 3", got)
	}
}

func TestCancelledFetchIsAbandoned(t *testing.T) {
	client := &fakeClient{movies: map[string][]domain.Movie{"r1": {{ID: 7, DigitalRelease: ptr(date(2025, 1, 2))}}}}
	c := New(client, fakeInstances{domain.InstanceRadarr: {radarr}}, Options{}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Fetch(ctx, date(2025, 1, 1), date(2025, 1, 3)); !errors.Is(err, context.Canceled) {
		t.Errorf("Fetch() error = %v, want canceled", err)
	}
	if len(c.Dates()) != 0 || c.Err() != nil {
		t.Errorf("cancelled fetch applied state: dates=%d err=%v", len(c.Dates()), c.Err())
	}
}

func TestCancellationIsNotRetained(t *testing.T) {
	cancelled := &domain.APIError{Kind: domain.ErrorCancelled, Err: context.Canceled}
	client := &fakeClient{errs: map[string]error{"r1": cancelled}}
	c := New(client, fakeInstances{domain.InstanceRadarr: {radarr}}, Options{}, nil, nil)

	if err := c.Fetch(context.Background(), date(2025, 1, 1), date(2025, 1, 3)); err != nil {
		t.Errorf("Fetch() error = %v, want nil", err)
	}
	if c.Err() != nil {
		t.Errorf("Err() = %v, cancellation retained", c.Err())
	}
}

func TestInitializeWindow(t *testing.T) {
	now := time.Date(2025, 6, 15, 13, 30, 0, 0, time.UTC)
	client := &fakeClient{}
	c := New(client, fakeInstances{domain.InstanceRadarr: {radarr}}, Options{Now: fixedNow(now)}, nil, nil)

	if err := c.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	dates := c.Dates()
	if first, want := dates[0], date(2025, 4, 16); !first.Equal(want) {
		t.Errorf("first date = %s, want %s", first.Format(time.DateOnly), want.Format(time.DateOnly))
	}
	if last, want := dates[len(dates)-1], date(2025, 7, 15); !last.Equal(want) {
		t.Errorf("last date = %s, want %s", last.Format(time.DateOnly), want.Format(time.DateOnly))
	}
	if c.Loading() {
		t.Error("Loading() = true after Initialize returned")
	}
}

func TestLoadFutureDatesStopsAtCutoff(t *testing.T) {
	now := date(2025, 1, 1)
	client := &fakeClient{}
	c := New(client, fakeInstances{domain.InstanceRadarr: {radarr}}, Options{Now: fixedNow(now), FutureCutoffDays: 40}, nil, nil)
	ctx := context.Background()

	if err := c.LoadFutureDates(ctx, date(2025, 1, 20)); err != nil {
		t.Fatalf("LoadFutureDates() error = %v", err)
	}
	dates := c.Dates()
	if first, last := dates[0], dates[len(dates)-1]; !first.Equal(date(2025, 1, 21)) || !last.Equal(date(2025, 2, 10)) {
		t.Errorf("window = %s..%s, want 2025-01-21..2025-02-10", first.Format(time.DateOnly), last.Format(time.DateOnly))
	}

	calls := client.movieCalls.Load()
	c.LoadFutureDates(ctx, date(2025, 2, 10))
	if client.movieCalls.Load() != calls {
		t.Error("load past the cutoff made a request")
	}
	if c.LoadingFuture() {
		t.Error("LoadingFuture() = true after return")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestMaybeLoadMoreDatesTriggersOncePerCrossing(t *testing.T) {
	now := date(2025, 1, 1)
	client := &fakeClient{}
	c := New(client, fakeInstances{domain.InstanceRadarr: {radarr}},
		Options{Now: fixedNow(now), PastDays: 1, FutureDays: 10, LookAhead: 3, FutureCutoffDays: 25}, nil, nil)
	ctx := context.Background()

	if c.MaybeLoadMoreDates(ctx, 0) {
		t.Error("triggered with no known dates")
	}

	c.Initialize(ctx) // Dec 31 .. Jan 11, 12 days
	if c.MaybeLoadMoreDates(ctx, 2) {
		t.Error("triggered far from the end")
	}
	if !c.MaybeLoadMoreDates(ctx, 9) {
		t.Fatal("did not trigger near the end")
	}
	if c.MaybeLoadMoreDates(ctx, 10) {
		t.Error("triggered twice while loading")
	}
	waitFor(t, func() bool { return !c.LoadingFuture() })

	dates := c.Dates()
	if last := dates[len(dates)-1]; !last.Equal(date(2025, 1, 21)) {
		t.Fatalf("last date = %s, want 2025-01-21", last.Format(time.DateOnly))
	}

	// next crossing loads up to the cutoff
	if !c.MaybeLoadMoreDates(ctx, len(dates)-1) {
		t.Fatal("did not trigger on the next crossing")
	}
	waitFor(t, func() bool { return !c.LoadingFuture() })
	dates = c.Dates()
	if last := dates[len(dates)-1]; !last.Equal(date(2025, 1, 26)) {
		t.Fatalf("last date = %s, want cutoff 2025-01-26", last.Format(time.DateOnly))
	}

	if c.MaybeLoadMoreDates(ctx, len(dates)-1) {
		t.Error("triggered past the cutoff")
	}
}

func TestMaybeLoadMoreDatesRetriesAfterCancelledLoad(t *testing.T) {
	now := date(2025, 1, 1)
	client := &fakeClient{}
	c := New(client, fakeInstances{domain.InstanceRadarr: {radarr}},
		Options{Now: fixedNow(now), PastDays: 1, FutureDays: 10, LookAhead: 3, FutureCutoffDays: 25}, nil, nil)
	c.Initialize(context.Background()) // 12 days

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if !c.MaybeLoadMoreDates(ctx, 11) {
		t.Fatal("did not trigger near the end")
	}
	waitFor(t, func() bool { return !c.LoadingFuture() })
	if got := len(c.Dates()); got != 12 {
		t.Fatalf("Dates() has %d days after cancelled load, want 12", got)
	}

	if !c.MaybeLoadMoreDates(context.Background(), 11) {
		t.Fatal("did not trigger again after the cancelled load")
	}
	waitFor(t, func() bool { return !c.LoadingFuture() })
	if got := len(c.Dates()); got != 22 {
		t.Errorf("Dates() has %d days, want 22", got)
	}
}

func TestSeriesListSurvivesFirstCallerCancel(t *testing.T) {
	gate := make(chan struct{})
	client := &fakeClient{
		series:     map[string][]domain.Series{"s1": {{ID: 4, Title: "Severance"}}},
		seriesGate: gate,
	}
	c := New(client, fakeInstances{domain.InstanceSonarr: {sonarr}}, Options{}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan instanceResult, 1)
	go func() { first <- c.fetchEpisodes(ctx, sonarr, date(2025, 1, 1), date(2025, 1, 2)) }()
	waitFor(t, func() bool { return client.seriesCalls.Load() == 1 })

	cancel()
	if r := <-first; !domain.IsCancelled(r.err) {
		t.Errorf("cancelled caller err = %v, want cancellation", r.err)
	}

	second := make(chan instanceResult, 1)
	go func() { second <- c.fetchEpisodes(context.Background(), sonarr, date(2025, 1, 1), date(2025, 1, 2)) }()
	time.Sleep(20 * time.Millisecond)
	close(gate)

	r := <-second
	if r.err != nil {
		t.Fatalf("second caller err = %v", r.err)
	}
	if len(r.series) != 1 || r.series[0].Title != "Severance" {
		t.Errorf("series = %+v", r.series)
	}
}

func TestSeriesListCoalescedAcrossConcurrentFetches(t *testing.T) {
	client := &fakeClient{series: map[string][]domain.Series{"s1": {{ID: 4, Title: "Severance"}}}}
	c := New(client, fakeInstances{domain.InstanceSonarr: {sonarr}}, Options{}, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Fetch(context.Background(), date(2025, 1, 1+i), date(2025, 1, 2+i))
		}(i)
	}
	wg.Wait()

	if n := client.seriesCalls.Load(); n < 1 || n > 4 {
		t.Errorf("series fetched %d times", n)
	}
	if _, ok := c.Series("s1", 4); !ok {
		t.Error("series metadata missing")
	}
}

func TestResetDiscardsBuckets(t *testing.T) {
	client := &fakeClient{movies: map[string][]domain.Movie{"r1": {{ID: 7, DigitalRelease: ptr(date(2025, 1, 2))}}}}
	c := New(client, fakeInstances{domain.InstanceRadarr: {radarr}}, Options{}, nil, nil)
	c.Fetch(context.Background(), date(2025, 1, 1), date(2025, 1, 3))

	c.Reset()
	if len(c.Dates()) != 0 || len(c.Bucket(date(2025, 1, 2))) != 0 {
		t.Error("Reset() kept data")
	}
}
