package library

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mmcdole/arrdeck/internal/domain"
)

var seriesSchema = schema[int, domain.Series]{
	key:     domain.Series.GetID,
	compare: compareSeries,
	text: func(s domain.Series) []string {
		fields := []string{s.Title, s.Network}
		for _, alt := range s.AlternateTitles {
			fields = append(fields, alt.Title)
		}
		return fields
	},
	match: func(f Filter, s domain.Series) bool {
		switch f.Scope {
		case ScopeMonitored:
			return s.Monitored
		case ScopeUnmonitored:
			return !s.Monitored
		case ScopeMissing:
			return s.IsMissingEpisodes()
		case ScopeDownloaded:
			return s.Statistics != nil && s.Statistics.EpisodeCount > 0 && !s.IsMissingEpisodes()
		case ScopeWanted:
			return s.Monitored && s.IsMissingEpisodes()
		case ScopeContinuing:
			return s.Status == "continuing"
		case ScopeEnded:
			return s.Status == "ended"
		default:
			return true
		}
	},
}

// SeriesList is the series collection of one series-manager instance
type SeriesList struct {
	*Collection[int, domain.Series]
	client domain.SeriesRepository
	store  domain.Store

	awaitInterval time.Duration
	awaitTimeout  time.Duration
}

// NewSeriesList creates an empty series collection. store may be nil.
func NewSeriesList(client domain.SeriesRepository, store domain.Store, notifier *domain.Notifier, logger *slog.Logger) *SeriesList {
	return &SeriesList{
		Collection:    newCollection(seriesSchema, NewSort(SortTitle), domain.TopicSeries, notifier, logger),
		client:        client,
		store:         store,
		awaitInterval: defaultAwaitInterval,
		awaitTimeout:  defaultAwaitTimeout,
	}
}

// LoadSnapshot fills an empty collection with the last cached fetch
func (s *SeriesList) LoadSnapshot() bool {
	if s.store == nil {
		return false
	}
	inst := s.Instance()
	if inst.IsVoid() {
		return false
	}
	series, ok := s.store.GetSeries(inst.ID)
	if !ok {
		return false
	}
	return s.seed(inst.ID, series)
}

// Fetch replaces the collection with the server's series list
func (s *SeriesList) Fetch(ctx context.Context) error {
	var inst domain.Instance
	series, err := s.fetch(ctx, "fetch series", func(ctx context.Context, i domain.Instance) ([]domain.Series, error) {
		inst = i
		return s.client.FetchSeries(ctx, i)
	})
	if err != nil || series == nil || s.store == nil {
		return err
	}
	if err := s.store.SaveSeries(inst.ID, series); err != nil {
		s.logger.Error("failed to save series", "instance", inst.ID, "error", err)
	}
	return nil
}

// ByTvdbID finds a library series by its TVDB id
func (s *SeriesList) ByTvdbID(tvdbID int) (domain.Series, bool) {
	for _, series := range s.All() {
		if series.TvdbID == tvdbID {
			return series, true
		}
	}
	return domain.Series{}, false
}

// Add adds a lookup result to the library
func (s *SeriesList) Add(ctx context.Context, series domain.Series) (domain.Series, error) {
	var added domain.Series
	err := s.mutate(ctx, "add series", func(ctx context.Context, inst domain.Instance) error {
		var err error
		added, err = s.client.AddSeries(ctx, inst, series)
		return err
	}, func() {
		s.upsertLocked(added)
	})
	return added, err
}

// Update saves an edited series and replaces it in place
func (s *SeriesList) Update(ctx context.Context, series domain.Series, moveFiles bool) (domain.Series, error) {
	var updated domain.Series
	err := s.mutate(ctx, "update series", func(ctx context.Context, inst domain.Instance) error {
		var err error
		updated, err = s.client.UpdateSeries(ctx, inst, series, moveFiles)
		return err
	}, func() {
		s.upsertLocked(updated)
	})
	return updated, err
}

// Monitor toggles the monitored flag of one series through a full update
func (s *SeriesList) Monitor(ctx context.Context, id int, monitored bool) error {
	series, ok := s.ByID(id)
	if !ok {
		return fmt.Errorf("monitor series %d: %w", id, domain.ErrNotFound)
	}
	series.Monitored = monitored
	_, err := s.Update(ctx, series, false)
	return err
}

// Delete removes a series from the library
func (s *SeriesList) Delete(ctx context.Context, id int, opts domain.DeleteOptions) error {
	return s.mutate(ctx, "delete series", func(ctx context.Context, inst domain.Instance) error {
		return s.client.DeleteSeries(ctx, inst, id, opts)
	}, func() {
		s.removeLocked(id)
	})
}

// AwaitSeries re-fetches until a series with tvdbID is in the collection or the
// await timeout elapses.
func (s *SeriesList) AwaitSeries(ctx context.Context, tvdbID int) (domain.Series, error) {
	var found domain.Series
	err := await(ctx, s.awaitInterval, s.awaitTimeout, func() (bool, error) {
		if err := s.Fetch(ctx); err != nil {
			return false, err
		}
		series, ok := s.ByTvdbID(tvdbID)
		found = series
		return ok, nil
	})
	if err != nil {
		return domain.Series{}, fmt.Errorf("await series %d: %w", tvdbID, err)
	}
	return found, nil
}
