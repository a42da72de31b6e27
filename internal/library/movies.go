package library

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/mmcdole/arrdeck/internal/domain"
)

const (
	defaultAwaitInterval = 500 * time.Millisecond
	defaultAwaitTimeout  = 5 * time.Second
)

var movieSchema = schema[int, domain.Movie]{
	key:     domain.Movie.GetID,
	compare: compareMovies,
	text: func(m domain.Movie) []string {
		fields := []string{m.Title, m.OriginalTitle, m.Studio}
		for _, alt := range m.AlternateTitles {
			fields = append(fields, alt.Title)
		}
		return fields
	},
	match: func(f Filter, m domain.Movie) bool {
		switch f.Scope {
		case ScopeMonitored:
			return m.Monitored
		case ScopeUnmonitored:
			return !m.Monitored
		case ScopeMissing:
			return m.Monitored && !m.IsDownloaded()
		case ScopeDownloaded:
			return m.IsDownloaded()
		case ScopeWanted:
			return m.IsWanted()
		default:
			return true
		}
	},
}

// Movies is the movie collection of one movie-manager instance
type Movies struct {
	*Collection[int, domain.Movie]
	client domain.MovieRepository
	store  domain.Store

	awaitInterval time.Duration
	awaitTimeout  time.Duration
}

// NewMovies creates an empty movie collection. store may be nil.
func NewMovies(client domain.MovieRepository, store domain.Store, notifier *domain.Notifier, logger *slog.Logger) *Movies {
	return &Movies{
		Collection:    newCollection(movieSchema, NewSort(SortTitle), domain.TopicMovies, notifier, logger),
		client:        client,
		store:         store,
		awaitInterval: defaultAwaitInterval,
		awaitTimeout:  defaultAwaitTimeout,
	}
}

// LoadSnapshot fills an empty collection with the last cached fetch
func (m *Movies) LoadSnapshot() bool {
	if m.store == nil {
		return false
	}
	inst := m.Instance()
	if inst.IsVoid() {
		return false
	}
	movies, ok := m.store.GetMovies(inst.ID)
	if !ok {
		return false
	}
	return m.seed(inst.ID, movies)
}

// Fetch replaces the collection with the server's movie list
func (m *Movies) Fetch(ctx context.Context) error {
	var inst domain.Instance
	movies, err := m.fetch(ctx, "fetch movies", func(ctx context.Context, i domain.Instance) ([]domain.Movie, error) {
		inst = i
		return m.client.FetchMovies(ctx, i)
	})
	if err != nil || movies == nil || m.store == nil {
		return err
	}
	if err := m.store.SaveMovies(inst.ID, movies); err != nil {
		m.logger.Error("failed to save movies", "instance", inst.ID, "error", err)
	}
	return nil
}

// ByTmdbID finds a library movie by its TMDb id
func (m *Movies) ByTmdbID(tmdbID int) (domain.Movie, bool) {
	for _, movie := range m.All() {
		if movie.TmdbID == tmdbID {
			return movie, true
		}
	}
	return domain.Movie{}, false
}

// Add adds a lookup result to the library
func (m *Movies) Add(ctx context.Context, movie domain.Movie) (domain.Movie, error) {
	var added domain.Movie
	err := m.mutate(ctx, "add movie", func(ctx context.Context, inst domain.Instance) error {
		var err error
		added, err = m.client.AddMovie(ctx, inst, movie)
		return err
	}, func() {
		m.upsertLocked(added)
	})
	return added, err
}

// Update saves an edited movie and replaces it in place
func (m *Movies) Update(ctx context.Context, movie domain.Movie, moveFiles bool) (domain.Movie, error) {
	var updated domain.Movie
	err := m.mutate(ctx, "update movie", func(ctx context.Context, inst domain.Instance) error {
		var err error
		updated, err = m.client.UpdateMovie(ctx, inst, movie, moveFiles)
		return err
	}, func() {
		m.upsertLocked(updated)
	})
	return updated, err
}

// Delete removes a movie from the library
func (m *Movies) Delete(ctx context.Context, id int, opts domain.DeleteOptions) error {
	return m.mutate(ctx, "delete movie", func(ctx context.Context, inst domain.Instance) error {
		return m.client.DeleteMovie(ctx, inst, id, opts)
	}, func() {
		m.removeLocked(id)
	})
}

// Monitor sets the monitored flag on the given movies
func (m *Movies) Monitor(ctx context.Context, ids []int, monitored bool) error {
	var returned []domain.Movie
	return m.mutate(ctx, "monitor movies", func(ctx context.Context, inst domain.Instance) error {
		var err error
		returned, err = m.client.MonitorMovies(ctx, inst, ids, monitored)
		return err
	}, func() {
		for _, movie := range returned {
			if _, ok := m.index[movie.ID]; ok && movie.ID != 0 {
				m.upsertLocked(movie)
			}
		}
		for _, id := range ids {
			if i, ok := m.index[id]; ok && !slices.ContainsFunc(returned, func(r domain.Movie) bool { return r.ID == id }) {
				m.items[i].Monitored = monitored
			}
		}
	})
}

// AwaitMovie re-fetches until a movie with tmdbID is in the collection or the
// await timeout elapses.
func (m *Movies) AwaitMovie(ctx context.Context, tmdbID int) (domain.Movie, error) {
	var found domain.Movie
	err := await(ctx, m.awaitInterval, m.awaitTimeout, func() (bool, error) {
		if err := m.Fetch(ctx); err != nil {
			return false, err
		}
		movie, ok := m.ByTmdbID(tmdbID)
		found = movie
		return ok, nil
	})
	if err != nil {
		return domain.Movie{}, fmt.Errorf("await movie %d: %w", tmdbID, err)
	}
	return found, nil
}

// errNotYet keeps the poll loop going
var errNotYet = fmt.Errorf("not present yet: %w", domain.ErrNotFound)

// await polls check at a fixed interval until it reports true or timeout elapses.
// Cancellation stops immediately. Other errors are retried and the last one is returned.
func await(ctx context.Context, interval, timeout time.Duration, check func() (bool, error)) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = interval
	b.Multiplier = 1
	b.RandomizationFactor = 0
	b.MaxInterval = interval
	b.MaxElapsedTime = timeout

	return backoff.Retry(func() error {
		ok, err := check()
		switch {
		case domain.IsCancelled(err):
			return backoff.Permanent(err)
		case err != nil:
			return err
		case !ok:
			return errNotYet
		}
		return nil
	}, backoff.WithContext(b, ctx))
}
