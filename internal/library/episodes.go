package library

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/arrdeck/internal/domain"
)

var episodeSchema = schema[int, domain.Episode]{
	key:     domain.Episode.GetID,
	compare: compareEpisodes,
	text: func(e domain.Episode) []string {
		return []string{e.Title, e.EpisodeCode()}
	},
	match: func(f Filter, e domain.Episode) bool {
		switch f.Scope {
		case ScopeMonitored:
			return e.Monitored
		case ScopeUnmonitored:
			return !e.Monitored
		case ScopeMissing, ScopeWanted:
			return e.Monitored && !e.HasFile && e.HasAired(time.Now())
		case ScopeDownloaded:
			return e.HasFile
		default:
			return true
		}
	},
}

// Episodes is the episode list of one series
type Episodes struct {
	*Collection[int, domain.Episode]
	client domain.SeriesRepository

	seriesMu sync.Mutex
	seriesID int
}

// NewEpisodes creates an empty episode collection
func NewEpisodes(client domain.SeriesRepository, notifier *domain.Notifier, logger *slog.Logger) *Episodes {
	return &Episodes{
		Collection: newCollection(episodeSchema, NewSort(SortEpisode), domain.TopicEpisodes, notifier, logger),
		client:     client,
	}
}

// SetSeries scopes the collection to a series. A different id clears it.
func (e *Episodes) SetSeries(seriesID int) {
	e.seriesMu.Lock()
	changed := e.seriesID != seriesID
	e.seriesID = seriesID
	e.seriesMu.Unlock()

	if changed {
		e.reset()
	}
}

// SeriesID returns the series the collection is scoped to
func (e *Episodes) SeriesID() int {
	e.seriesMu.Lock()
	defer e.seriesMu.Unlock()
	return e.seriesID
}

// Fetch replaces the collection with all episodes of the series
func (e *Episodes) Fetch(ctx context.Context) error {
	seriesID := e.SeriesID()
	if seriesID == 0 {
		return nil
	}
	_, err := e.fetch(ctx, "fetch episodes", func(ctx context.Context, inst domain.Instance) ([]domain.Episode, error) {
		return e.client.FetchEpisodes(ctx, inst, seriesID)
	})
	return err
}

// Season returns the episodes of one season in episode order
func (e *Episodes) Season(number int) []domain.Episode {
	var out []domain.Episode
	for _, ep := range e.Items() {
		if ep.SeasonNumber == number {
			out = append(out, ep)
		}
	}
	return out
}

// Monitor sets the monitored flag on the given episodes
func (e *Episodes) Monitor(ctx context.Context, ids []int, monitored bool) error {
	var returned []domain.Episode
	return e.mutate(ctx, "monitor episodes", func(ctx context.Context, inst domain.Instance) error {
		var err error
		returned, err = e.client.MonitorEpisodes(ctx, inst, ids, monitored)
		return err
	}, func() {
		for _, id := range ids {
			if i, ok := e.index[id]; ok {
				e.items[i].Monitored = monitored
			}
		}
		for _, ep := range returned {
			if i, ok := e.index[ep.ID]; ok {
				// the response omits the embedded series
				ep.Series = e.items[i].Series
				e.items[i] = ep
			}
		}
	})
}
