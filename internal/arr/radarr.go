package arr

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mmcdole/arrdeck/internal/domain"
)

// FetchMovies returns every movie in the library
func (c *Client) FetchMovies(ctx context.Context, inst domain.Instance) ([]domain.Movie, error) {
	return get[[]domain.Movie](ctx, c, inst, "/movie", nil)
}

// LookupMovies searches the metadata provider
func (c *Client) LookupMovies(ctx context.Context, inst domain.Instance, term string) ([]domain.Movie, error) {
	return get[[]domain.Movie](ctx, c, inst, "/movie/lookup", url.Values{"term": {term}})
}

// AddMovie adds a lookup result to the library
func (c *Client) AddMovie(ctx context.Context, inst domain.Instance, movie domain.Movie) (domain.Movie, error) {
	var out domain.Movie
	err := c.doRequest(ctx, inst, http.MethodPost, "/movie", nil, movie, &out)
	return out, err
}

// UpdateMovie saves an edited movie; moveFiles relocates files when the path changed
func (c *Client) UpdateMovie(ctx context.Context, inst domain.Instance, movie domain.Movie, moveFiles bool) (domain.Movie, error) {
	var out domain.Movie
	path := fmt.Sprintf("/movie/%d", movie.ID)
	query := url.Values{"moveFiles": {strconv.FormatBool(moveFiles)}}
	err := c.doRequest(ctx, inst, http.MethodPut, path, query, movie, &out)
	return out, err
}

// DeleteMovie removes a movie from the library
func (c *Client) DeleteMovie(ctx context.Context, inst domain.Instance, id int, opts domain.DeleteOptions) error {
	path := fmt.Sprintf("/movie/%d", id)
	query := url.Values{
		"deleteFiles":        {strconv.FormatBool(opts.DeleteFiles)},
		"addImportExclusion": {strconv.FormatBool(opts.AddImportExclusion)},
	}
	return c.doRequest(ctx, inst, http.MethodDelete, path, query, nil, nil)
}

// movieEditor is the body of PUT /movie/editor
type movieEditor struct {
	MovieIDs  []int `json:"movieIds"`
	Monitored *bool `json:"monitored,omitempty"`
}

// MonitorMovies sets the monitored flag on several movies
func (c *Client) MonitorMovies(ctx context.Context, inst domain.Instance, ids []int, monitored bool) ([]domain.Movie, error) {
	var out []domain.Movie
	body := movieEditor{MovieIDs: ids, Monitored: &monitored}
	err := c.doRequest(ctx, inst, http.MethodPut, "/movie/editor", nil, body, &out)
	return out, err
}

// MovieCalendar returns movies with a release date in [start, end]
func (c *Client) MovieCalendar(ctx context.Context, inst domain.Instance, start, end time.Time) ([]domain.Movie, error) {
	query := url.Values{
		"start":       {apiDate(start)},
		"end":         {apiDate(end)},
		"unmonitored": {"true"},
	}
	return get[[]domain.Movie](ctx, c, inst, "/calendar", query)
}

// GetMovieFiles returns the files of a movie
func (c *Client) GetMovieFiles(ctx context.Context, inst domain.Instance, movieID int) ([]domain.MovieFile, error) {
	return get[[]domain.MovieFile](ctx, c, inst, "/moviefile", url.Values{"movieId": {strconv.Itoa(movieID)}})
}

// GetMovieExtraFiles returns the sidecar files of a movie
func (c *Client) GetMovieExtraFiles(ctx context.Context, inst domain.Instance, movieID int) ([]domain.ExtraFile, error) {
	return get[[]domain.ExtraFile](ctx, c, inst, "/extrafile", url.Values{"movieId": {strconv.Itoa(movieID)}})
}

// GetMovieHistory returns the history of a movie, newest first
func (c *Client) GetMovieHistory(ctx context.Context, inst domain.Instance, movieID int) ([]domain.HistoryEvent, error) {
	return get[[]domain.HistoryEvent](ctx, c, inst, "/history/movie", url.Values{"movieId": {strconv.Itoa(movieID)}})
}

// MovieReleases runs an interactive indexer search for a movie
func (c *Client) MovieReleases(ctx context.Context, inst domain.Instance, movieID int) ([]domain.Release, error) {
	return get[[]domain.Release](ctx, c, inst, "/release", url.Values{"movieId": {strconv.Itoa(movieID)}})
}
