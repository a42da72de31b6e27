package arr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mmcdole/arrdeck/internal/domain"
)

// FetchSeries returns every series in the library
func (c *Client) FetchSeries(ctx context.Context, inst domain.Instance) ([]domain.Series, error) {
	return get[[]domain.Series](ctx, c, inst, "/series", nil)
}

// FetchEpisodes returns all episodes of a series
func (c *Client) FetchEpisodes(ctx context.Context, inst domain.Instance, seriesID int) ([]domain.Episode, error) {
	return get[[]domain.Episode](ctx, c, inst, "/episode", url.Values{"seriesId": {strconv.Itoa(seriesID)}})
}

// LookupSeries searches the metadata provider
func (c *Client) LookupSeries(ctx context.Context, inst domain.Instance, term string) ([]domain.Series, error) {
	return get[[]domain.Series](ctx, c, inst, "/series/lookup", url.Values{"term": {term}})
}

// AddSeries adds a lookup result to the library
func (c *Client) AddSeries(ctx context.Context, inst domain.Instance, series domain.Series) (domain.Series, error) {
	var out domain.Series
	err := c.doRequest(ctx, inst, http.MethodPost, "/series", nil, series, &out)
	return out, err
}

// UpdateSeries saves an edited series
func (c *Client) UpdateSeries(ctx context.Context, inst domain.Instance, series domain.Series, moveFiles bool) (domain.Series, error) {
	var out domain.Series
	path := fmt.Sprintf("/series/%d", series.ID)
	query := url.Values{"moveFiles": {strconv.FormatBool(moveFiles)}}
	err := c.doRequest(ctx, inst, http.MethodPut, path, query, series, &out)
	return out, err
}

// DeleteSeries removes a series from the library
func (c *Client) DeleteSeries(ctx context.Context, inst domain.Instance, id int, opts domain.DeleteOptions) error {
	path := fmt.Sprintf("/series/%d", id)
	query := url.Values{
		"deleteFiles":            {strconv.FormatBool(opts.DeleteFiles)},
		"addImportListExclusion": {strconv.FormatBool(opts.AddImportExclusion)},
	}
	return c.doRequest(ctx, inst, http.MethodDelete, path, query, nil, nil)
}

// episodeMonitor is the body of PUT /episode/monitor
type episodeMonitor struct {
	EpisodeIDs []int `json:"episodeIds"`
	Monitored  bool  `json:"monitored"`
}

// MonitorEpisodes sets the monitored flag on the given episodes
func (c *Client) MonitorEpisodes(ctx context.Context, inst domain.Instance, ids []int, monitored bool) ([]domain.Episode, error) {
	var out []domain.Episode
	body := episodeMonitor{EpisodeIDs: ids, Monitored: monitored}
	err := c.doRequest(ctx, inst, http.MethodPut, "/episode/monitor", nil, body, &out)
	return out, err
}

// EpisodeCalendar returns episodes airing in [start, end] with their series embedded
func (c *Client) EpisodeCalendar(ctx context.Context, inst domain.Instance, start, end time.Time) ([]domain.Episode, error) {
	query := url.Values{
		"start":         {apiDate(start)},
		"end":           {apiDate(end)},
		"unmonitored":   {"true"},
		"includeSeries": {"true"},
	}
	return get[[]domain.Episode](ctx, c, inst, "/calendar", query)
}

// EpisodeReleases runs an interactive indexer search for an episode or a season
func (c *Client) EpisodeReleases(ctx context.Context, inst domain.Instance, q domain.ReleaseQuery) ([]domain.Release, error) {
	query := url.Values{}
	switch {
	case q.EpisodeID != 0:
		query.Set("episodeId", strconv.Itoa(q.EpisodeID))
	case q.SeriesID != 0 && q.SeasonNumber != nil:
		query.Set("seriesId", strconv.Itoa(q.SeriesID))
		query.Set("seasonNumber", strconv.Itoa(*q.SeasonNumber))
	default:
		return nil, errors.New("release query needs an episode or a series season")
	}
	return get[[]domain.Release](ctx, c, inst, "/release", query)
}
