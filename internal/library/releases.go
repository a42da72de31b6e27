package library

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/mmcdole/arrdeck/internal/domain"
)

var releaseSchema = schema[string, domain.Release]{
	key:     func(r domain.Release) string { return r.GUID },
	compare: compareReleases,
	text: func(r domain.Release) []string {
		return []string{r.Title, r.Indexer, r.Quality.Name()}
	},
	match: func(f Filter, r domain.Release) bool {
		if f.Indexer != "" && !strings.EqualFold(f.Indexer, r.Indexer) {
			return false
		}
		switch f.Scope {
		case ScopeApproved:
			return !r.Rejected
		case ScopeTorrent:
			return r.Protocol == "torrent"
		case ScopeUsenet:
			return r.Protocol == "usenet"
		default:
			return true
		}
	},
}

// Releases holds interactive search results for one movie, episode or season
type Releases struct {
	*Collection[string, domain.Release]
	client domain.ReleaseRepository

	targetMu sync.Mutex
	target   domain.ReleaseQuery
	grabbed  map[string]bool
}

// NewReleases creates an empty release collection
func NewReleases(client domain.ReleaseRepository, notifier *domain.Notifier, logger *slog.Logger) *Releases {
	return &Releases{
		Collection: newCollection(releaseSchema, SortSpec{Field: SortDefault}, domain.TopicReleases, notifier, logger),
		client:     client,
		grabbed:    make(map[string]bool),
	}
}

// SetTarget selects what to search releases for. A different target clears the results.
func (r *Releases) SetTarget(q domain.ReleaseQuery) {
	r.targetMu.Lock()
	changed := !sameQuery(r.target, q)
	r.target = q
	if changed {
		r.grabbed = make(map[string]bool)
	}
	r.targetMu.Unlock()

	if changed {
		r.reset()
	}
}

func sameQuery(a, b domain.ReleaseQuery) bool {
	if a.MovieID != b.MovieID || a.SeriesID != b.SeriesID || a.EpisodeID != b.EpisodeID {
		return false
	}
	if (a.SeasonNumber == nil) != (b.SeasonNumber == nil) {
		return false
	}
	return a.SeasonNumber == nil || *a.SeasonNumber == *b.SeasonNumber
}

// Target returns the current search target
func (r *Releases) Target() domain.ReleaseQuery {
	r.targetMu.Lock()
	defer r.targetMu.Unlock()
	return r.target
}

// Fetch runs the indexer search. Searches can take tens of seconds.
func (r *Releases) Fetch(ctx context.Context) error {
	q := r.Target()
	if q == (domain.ReleaseQuery{}) {
		return nil
	}
	_, err := r.fetch(ctx, "search releases", func(ctx context.Context, inst domain.Instance) ([]domain.Release, error) {
		if q.MovieID != 0 {
			return r.client.MovieReleases(ctx, inst, q.MovieID)
		}
		return r.client.EpisodeReleases(ctx, inst, q)
	})
	return err
}

// Download sends a release to the download client
func (r *Releases) Download(ctx context.Context, release domain.Release) error {
	err := r.mutate(ctx, "download release", func(ctx context.Context, inst domain.Instance) error {
		return r.client.DownloadRelease(ctx, inst, release)
	}, nil)
	if err != nil {
		return err
	}

	r.targetMu.Lock()
	r.grabbed[release.GUID] = true
	r.targetMu.Unlock()
	return nil
}

// Grabbed reports whether a release was sent to the download client
func (r *Releases) Grabbed(guid string) bool {
	r.targetMu.Lock()
	defer r.targetMu.Unlock()
	return r.grabbed[guid]
}

// Indexers returns the distinct indexer names in the results
func (r *Releases) Indexers() []string {
	seen := make(map[string]bool)
	var out []string
	for _, rel := range r.All() {
		if rel.Indexer != "" && !seen[rel.Indexer] {
			seen[rel.Indexer] = true
			out = append(out, rel.Indexer)
		}
	}
	return out
}
