package library

import (
	"context"
	"sync"

	"github.com/mmcdole/arrdeck/internal/domain"
)

// fakeClient implements the repository interfaces with canned data
type fakeClient struct {
	mu sync.Mutex

	movies      []domain.Movie
	moviesErr   error
	moviesCalls int
	moviesGate  chan struct{} // when set, FetchMovies blocks until closed

	series   []domain.Series
	episodes map[int][]domain.Episode
	releases []domain.Release

	mutateErr error
	commands  []domain.Command
	grabbed   []string
}

func (f *fakeClient) FetchMovies(ctx context.Context, inst domain.Instance) ([]domain.Movie, error) {
	f.mu.Lock()
	f.moviesCalls++
	gate := f.moviesGate
	movies, err := append([]domain.Movie(nil), f.movies...), f.moviesErr
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, &domain.APIError{Kind: domain.ErrorCancelled, Err: ctx.Err()}
		}
	}
	return movies, err
}

func (f *fakeClient) setMovies(movies []domain.Movie, err error) {
	f.mu.Lock()
	f.movies, f.moviesErr = movies, err
	f.mu.Unlock()
}

func (f *fakeClient) LookupMovies(ctx context.Context, inst domain.Instance, term string) ([]domain.Movie, error) {
	return nil, nil
}

func (f *fakeClient) AddMovie(ctx context.Context, inst domain.Instance, movie domain.Movie) (domain.Movie, error) {
	if f.mutateErr != nil {
		return domain.Movie{}, f.mutateErr
	}
	movie.ID = 100 + movie.TmdbID
	return movie, nil
}

func (f *fakeClient) UpdateMovie(ctx context.Context, inst domain.Instance, movie domain.Movie, moveFiles bool) (domain.Movie, error) {
	return movie, f.mutateErr
}

func (f *fakeClient) DeleteMovie(ctx context.Context, inst domain.Instance, id int, opts domain.DeleteOptions) error {
	return f.mutateErr
}

func (f *fakeClient) MonitorMovies(ctx context.Context, inst domain.Instance, ids []int, monitored bool) ([]domain.Movie, error) {
	return nil, f.mutateErr
}

func (f *fakeClient) FetchSeries(ctx context.Context, inst domain.Instance) ([]domain.Series, error) {
	return f.series, nil
}

func (f *fakeClient) FetchEpisodes(ctx context.Context, inst domain.Instance, seriesID int) ([]domain.Episode, error) {
	return f.episodes[seriesID], nil
}

func (f *fakeClient) LookupSeries(ctx context.Context, inst domain.Instance, term string) ([]domain.Series, error) {
	return nil, nil
}

func (f *fakeClient) AddSeries(ctx context.Context, inst domain.Instance, series domain.Series) (domain.Series, error) {
	series.ID = 200 + series.TvdbID
	return series, f.mutateErr
}

func (f *fakeClient) UpdateSeries(ctx context.Context, inst domain.Instance, series domain.Series, moveFiles bool) (domain.Series, error) {
	return series, f.mutateErr
}

func (f *fakeClient) DeleteSeries(ctx context.Context, inst domain.Instance, id int, opts domain.DeleteOptions) error {
	return f.mutateErr
}

func (f *fakeClient) MonitorEpisodes(ctx context.Context, inst domain.Instance, ids []int, monitored bool) ([]domain.Episode, error) {
	return nil, f.mutateErr
}

func (f *fakeClient) MovieReleases(ctx context.Context, inst domain.Instance, movieID int) ([]domain.Release, error) {
	return f.releases, nil
}

func (f *fakeClient) EpisodeReleases(ctx context.Context, inst domain.Instance, q domain.ReleaseQuery) ([]domain.Release, error) {
	return f.releases, nil
}

func (f *fakeClient) DownloadRelease(ctx context.Context, inst domain.Instance, release domain.Release) error {
	if f.mutateErr != nil {
		return f.mutateErr
	}
	f.grabbed = append(f.grabbed, release.GUID)
	return nil
}

func (f *fakeClient) SystemStatus(ctx context.Context, inst domain.Instance) (domain.InstanceStatus, error) {
	return domain.InstanceStatus{}, nil
}

func (f *fakeClient) FetchMetadata(ctx context.Context, inst domain.Instance) (domain.InstanceMetadata, error) {
	return domain.InstanceMetadata{}, nil
}

func (f *fakeClient) SendCommand(ctx context.Context, inst domain.Instance, cmd domain.Command) error {
	f.commands = append(f.commands, cmd)
	return f.mutateErr
}

var testInstance = domain.Instance{ID: "r1", URL: "http://radarr", Type: domain.InstanceRadarr}
