package domain

import (
	"context"
	"time"
)

// MovieRepository provides access to a movie manager's library
type MovieRepository interface {
	// FetchMovies returns every movie in the library
	FetchMovies(ctx context.Context, inst Instance) ([]Movie, error)

	// LookupMovies searches the metadata provider; results not in the library have ID 0
	LookupMovies(ctx context.Context, inst Instance, term string) ([]Movie, error)

	AddMovie(ctx context.Context, inst Instance, movie Movie) (Movie, error)
	UpdateMovie(ctx context.Context, inst Instance, movie Movie, moveFiles bool) (Movie, error)
	DeleteMovie(ctx context.Context, inst Instance, id int, opts DeleteOptions) error

	// MonitorMovies sets the monitored flag on several movies in one request
	MonitorMovies(ctx context.Context, inst Instance, ids []int, monitored bool) ([]Movie, error)
}

// MovieMetadataRepository provides per-movie detail collections
type MovieMetadataRepository interface {
	GetMovieFiles(ctx context.Context, inst Instance, movieID int) ([]MovieFile, error)
	GetMovieExtraFiles(ctx context.Context, inst Instance, movieID int) ([]ExtraFile, error)
	GetMovieHistory(ctx context.Context, inst Instance, movieID int) ([]HistoryEvent, error)
}

// SeriesRepository provides access to a series manager's library
type SeriesRepository interface {
	FetchSeries(ctx context.Context, inst Instance) ([]Series, error)
	FetchEpisodes(ctx context.Context, inst Instance, seriesID int) ([]Episode, error)

	// LookupSeries searches the metadata provider; results not in the library have ID 0
	LookupSeries(ctx context.Context, inst Instance, term string) ([]Series, error)

	AddSeries(ctx context.Context, inst Instance, series Series) (Series, error)
	UpdateSeries(ctx context.Context, inst Instance, series Series, moveFiles bool) (Series, error)
	DeleteSeries(ctx context.Context, inst Instance, id int, opts DeleteOptions) error

	// MonitorEpisodes sets the monitored flag on the given episodes
	MonitorEpisodes(ctx context.Context, inst Instance, ids []int, monitored bool) ([]Episode, error)
}

// CalendarRepository provides date-ranged release data
type CalendarRepository interface {
	// MovieCalendar returns movies with any release date in [start, end]
	MovieCalendar(ctx context.Context, inst Instance, start, end time.Time) ([]Movie, error)

	// EpisodeCalendar returns episodes airing in [start, end]
	EpisodeCalendar(ctx context.Context, inst Instance, start, end time.Time) ([]Episode, error)
}

// ReleaseQuery selects what an interactive release search is for.
// Exactly one of MovieID, EpisodeID or SeriesID (with SeasonNumber) is set.
type ReleaseQuery struct {
	MovieID      int
	SeriesID     int
	SeasonNumber *int
	EpisodeID    int
}

// ReleaseRepository provides interactive indexer search
type ReleaseRepository interface {
	MovieReleases(ctx context.Context, inst Instance, movieID int) ([]Release, error)
	EpisodeReleases(ctx context.Context, inst Instance, q ReleaseQuery) ([]Release, error)
	DownloadRelease(ctx context.Context, inst Instance, release Release) error
}

// InstanceRepository provides instance-level endpoints
type InstanceRepository interface {
	SystemStatus(ctx context.Context, inst Instance) (InstanceStatus, error)
	FetchMetadata(ctx context.Context, inst Instance) (InstanceMetadata, error)
	SendCommand(ctx context.Context, inst Instance, cmd Command) error
}

// Client is the full adapter surface implemented by the HTTP client
type Client interface {
	MovieRepository
	MovieMetadataRepository
	SeriesRepository
	CalendarRepository
	ReleaseRepository
	InstanceRepository
}
