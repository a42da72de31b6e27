package search

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmcdole/arrdeck/internal/domain"
)

// Selector resolves the instance a lookup runs against
type Selector interface {
	Selected(t domain.InstanceType) domain.Instance
}

// MovieSearch looks up movies on the selected movie-manager instance
type MovieSearch = Dispatcher[domain.Movie]

// SeriesSearch looks up series on the selected series-manager instance
type SeriesSearch = Dispatcher[domain.Series]

// NewMovieSearch binds a dispatcher to the selected movie-manager instance
func NewMovieSearch(client domain.MovieRepository, sel Selector, debounce time.Duration, notifier *domain.Notifier, logger *slog.Logger) *MovieSearch {
	return NewDispatcher(func(ctx context.Context, query string) ([]domain.Movie, error) {
		inst := sel.Selected(domain.InstanceRadarr)
		if inst.IsVoid() {
			return nil, nil
		}
		movies, err := client.LookupMovies(ctx, inst, query)
		if err != nil {
			return nil, err
		}
		return RankMovies(query, movies), nil
	}, debounce, notifier, logger)
}

// NewSeriesSearch binds a dispatcher to the selected series-manager instance
func NewSeriesSearch(client domain.SeriesRepository, sel Selector, debounce time.Duration, notifier *domain.Notifier, logger *slog.Logger) *SeriesSearch {
	return NewDispatcher(func(ctx context.Context, query string) ([]domain.Series, error) {
		inst := sel.Selected(domain.InstanceSonarr)
		if inst.IsVoid() {
			return nil, nil
		}
		series, err := client.LookupSeries(ctx, inst, query)
		if err != nil {
			return nil, err
		}
		return RankSeries(query, series), nil
	}, debounce, notifier, logger)
}
