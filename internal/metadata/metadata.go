// Package metadata holds the detail collections of the selected movie:
// its files, extra files and history.
package metadata

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mmcdole/arrdeck/internal/domain"
)

// Section identifies one detail collection
type Section int

const (
	SectionFiles Section = iota
	SectionExtraFiles
	SectionHistory
)

// String returns the display name for the section
func (s Section) String() string {
	switch s {
	case SectionFiles:
		return "Files"
	case SectionExtraFiles:
		return "Extra Files"
	case SectionHistory:
		return "History"
	default:
		return "Unknown"
	}
}

// State is the fetch state of one section
type State struct {
	Loading bool
	Failed  bool
}

type section[T any] struct {
	items []T
	State
}

func (s *section[T]) clear() {
	s.items = nil
	s.State = State{}
}

// Model caches the detail collections of one movie until the selection changes
type Model struct {
	mu      sync.Mutex
	inst    domain.Instance
	movieID int
	gen     uint64

	files   section[domain.MovieFile]
	extras  section[domain.ExtraFile]
	history section[domain.HistoryEvent]
	err     error

	client   domain.MovieMetadataRepository
	notifier *domain.Notifier
	logger   *slog.Logger
}

// New creates an empty model
func New(client domain.MovieMetadataRepository, notifier *domain.Notifier, logger *slog.Logger) *Model {
	if logger == nil {
		logger = slog.Default()
	}
	return &Model{client: client, notifier: notifier, logger: logger}
}

// SetInstance binds the model to a movie-manager instance. A different instance
// clears the selection.
func (m *Model) SetInstance(inst domain.Instance) {
	m.mu.Lock()
	if m.inst.ID == inst.ID && m.inst.URL == inst.URL {
		m.inst = inst.Clone()
		m.mu.Unlock()
		return
	}
	m.inst = inst.Clone()
	m.movieID = 0
	m.clearLocked()
	m.mu.Unlock()

	m.notifier.Publish(domain.TopicMetadata, nil)
}

// SetMovie selects the movie. Selecting the current movie keeps the cache.
func (m *Model) SetMovie(movie domain.Movie) {
	m.mu.Lock()
	if m.movieID == movie.ID {
		m.mu.Unlock()
		return
	}
	m.movieID = movie.ID
	m.clearLocked()
	m.mu.Unlock()

	m.notifier.Publish(domain.TopicMetadata, nil)
}

func (m *Model) clearLocked() {
	m.gen++
	m.files.clear()
	m.extras.clear()
	m.history.clear()
	m.err = nil
}

// MovieID returns the selected movie id, or 0
func (m *Model) MovieID() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.movieID
}

// Files returns the movie's files
func (m *Model) Files() []domain.MovieFile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.files.items)
}

// ExtraFiles returns subtitles, nfo and other extra files
func (m *Model) ExtraFiles() []domain.ExtraFile {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.extras.items)
}

// History returns the movie's history, newest first
func (m *Model) History() []domain.HistoryEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.history.items)
}

// State returns the fetch state of a section
func (m *Model) State(s Section) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch s {
	case SectionFiles:
		return m.files.State
	case SectionExtraFiles:
		return m.extras.State
	case SectionHistory:
		return m.history.State
	}
	return State{}
}

// Err returns the error of the last attempt, or nil
func (m *Model) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// FetchFiles loads the movie's files unless they are cached
func (m *Model) FetchFiles(ctx context.Context) error {
	return fetchSection(ctx, m, "fetch movie files", func(m *Model) *section[domain.MovieFile] { return &m.files }, m.client.GetMovieFiles)
}

// FetchExtraFiles loads the movie's extra files unless they are cached
func (m *Model) FetchExtraFiles(ctx context.Context) error {
	return fetchSection(ctx, m, "fetch extra files", func(m *Model) *section[domain.ExtraFile] { return &m.extras }, m.client.GetMovieExtraFiles)
}

// FetchHistory loads the movie's history unless it is cached
func (m *Model) FetchHistory(ctx context.Context) error {
	return fetchSection(ctx, m, "fetch movie history", func(m *Model) *section[domain.HistoryEvent] { return &m.history }, m.loadHistory)
}

func (m *Model) loadHistory(ctx context.Context, inst domain.Instance, movieID int) ([]domain.HistoryEvent, error) {
	events, err := m.client.GetMovieHistory(ctx, inst, movieID)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(events, func(a, b domain.HistoryEvent) int {
		return b.Date.Compare(a.Date)
	})
	return events, nil
}

// target returns what to fetch for, or ok=false when nothing is selected
func (m *Model) target() (inst domain.Instance, movieID int, gen uint64, ok bool) {
	if m.inst.IsVoid() || m.movieID == 0 {
		return domain.Instance{}, 0, 0, false
	}
	return m.inst.Clone(), m.movieID, m.gen, true
}

func fetchSection[T any](ctx context.Context, m *Model, op string, pick func(*Model) *section[T],
	load func(context.Context, domain.Instance, int) ([]T, error)) error {
	m.mu.Lock()
	s := pick(m)
	inst, movieID, gen, ok := m.target()
	if !ok || len(s.items) > 0 {
		m.mu.Unlock()
		return nil
	}
	s.Loading = true
	s.Failed = false
	m.err = nil
	m.mu.Unlock()
	m.notifier.Publish(domain.TopicMetadata, nil)

	items, err := load(ctx, inst, movieID)

	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		m.logger.Debug("discarding stale result", "op", op, "movie", movieID)
		return nil
	}
	s = pick(m)
	s.Loading = false
	switch {
	case err == nil:
		s.items = items
	case domain.IsCancelled(err):
	default:
		s.Failed = true
		m.err = err
	}
	notifyErr := m.err
	m.mu.Unlock()
	m.notifier.Publish(domain.TopicMetadata, notifyErr)

	if err != nil && !domain.IsCancelled(err) {
		m.logger.Error("failed to "+op, "instance", inst.ID, "movie", movieID, "error", err)
	}
	return err
}

// Refresh reloads all three sections concurrently. The results are applied
// together and only when every request succeeded.
func (m *Model) Refresh(ctx context.Context) error {
	m.mu.Lock()
	inst, movieID, gen, ok := m.target()
	if !ok {
		m.mu.Unlock()
		return nil
	}
	m.setLoadingLocked(true)
	m.err = nil
	m.mu.Unlock()
	m.notifier.Publish(domain.TopicMetadata, nil)

	var (
		files   []domain.MovieFile
		extras  []domain.ExtraFile
		history []domain.HistoryEvent
		errs    [3]error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		files, errs[SectionFiles] = m.client.GetMovieFiles(gctx, inst, movieID)
		return errs[SectionFiles]
	})
	g.Go(func() error {
		extras, errs[SectionExtraFiles] = m.client.GetMovieExtraFiles(gctx, inst, movieID)
		return errs[SectionExtraFiles]
	})
	g.Go(func() error {
		history, errs[SectionHistory] = m.loadHistory(gctx, inst, movieID)
		return errs[SectionHistory]
	})
	err := g.Wait()

	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		m.logger.Debug("discarding stale result", "op", "refresh metadata", "movie", movieID)
		return nil
	}
	m.setLoadingLocked(false)
	switch {
	case err == nil:
		m.files.items = files
		m.extras.items = extras
		m.history.items = history
	case domain.IsCancelled(err):
	default:
		// siblings cancelled by the group did not fail on their own
		m.files.Failed = failedOnOwn(errs[SectionFiles])
		m.extras.Failed = failedOnOwn(errs[SectionExtraFiles])
		m.history.Failed = failedOnOwn(errs[SectionHistory])
		m.err = err
	}
	notifyErr := m.err
	m.mu.Unlock()
	m.notifier.Publish(domain.TopicMetadata, notifyErr)

	if err != nil && !domain.IsCancelled(err) {
		m.logger.Error("failed to refresh metadata", "instance", inst.ID, "movie", movieID, "error", err)
	}
	return err
}

func (m *Model) setLoadingLocked(loading bool) {
	m.files.Loading = loading
	m.extras.Loading = loading
	m.history.Loading = loading
	if loading {
		m.files.Failed = false
		m.extras.Failed = false
		m.history.Failed = false
	}
}

func failedOnOwn(err error) bool {
	return err != nil && !domain.IsCancelled(err)
}
