package library

import (
	"context"
	"log/slog"

	"github.com/mmcdole/arrdeck/internal/domain"
)

// Commands triggers server-side tasks (searches, refreshes, renames)
type Commands struct {
	client domain.InstanceRepository
	logger *slog.Logger
}

// NewCommands creates a new Commands instance.
func NewCommands(client domain.InstanceRepository, logger *slog.Logger) *Commands {
	if logger == nil {
		logger = slog.Default()
	}
	return &Commands{client: client, logger: logger}
}

func (c *Commands) send(ctx context.Context, inst domain.Instance, cmd domain.Command) error {
	if inst.IsVoid() {
		return domain.ErrNoInstance
	}
	if err := c.client.SendCommand(ctx, inst, cmd); err != nil {
		c.logger.Error("failed to send command", "instance", inst.ID, "command", cmd.Name, "error", err)
		return err
	}
	c.logger.Info("command sent", "instance", inst.ID, "command", cmd.Name)
	return nil
}

// SearchMovies asks the server to search indexers for the movies
func (c *Commands) SearchMovies(ctx context.Context, inst domain.Instance, ids ...int) error {
	return c.send(ctx, inst, domain.Command{Name: domain.CommandMoviesSearch, MovieIDs: ids})
}

// RefreshMovies rescans metadata and disk for the movies
func (c *Commands) RefreshMovies(ctx context.Context, inst domain.Instance, ids ...int) error {
	return c.send(ctx, inst, domain.Command{Name: domain.CommandRefreshMovie, MovieIDs: ids})
}

// RenameMovies renames movie files to the configured naming scheme
func (c *Commands) RenameMovies(ctx context.Context, inst domain.Instance, ids ...int) error {
	return c.send(ctx, inst, domain.Command{Name: domain.CommandRenameMovie, MovieIDs: ids})
}

// SearchSeries searches for all missing episodes of a series
func (c *Commands) SearchSeries(ctx context.Context, inst domain.Instance, seriesID int) error {
	return c.send(ctx, inst, domain.Command{Name: domain.CommandSeriesSearch, SeriesID: seriesID})
}

// SearchSeason searches for a season pack or its missing episodes
func (c *Commands) SearchSeason(ctx context.Context, inst domain.Instance, seriesID, season int) error {
	return c.send(ctx, inst, domain.Command{Name: domain.CommandSeasonSearch, SeriesID: seriesID, SeasonNum: &season})
}

// SearchEpisodes searches for specific episodes
func (c *Commands) SearchEpisodes(ctx context.Context, inst domain.Instance, ids ...int) error {
	return c.send(ctx, inst, domain.Command{Name: domain.CommandEpisodeSearch, EpisodeIDs: ids})
}

// RefreshSeries rescans metadata and disk for a series
func (c *Commands) RefreshSeries(ctx context.Context, inst domain.Instance, seriesID int) error {
	return c.send(ctx, inst, domain.Command{Name: domain.CommandRefreshSeries, SeriesID: seriesID})
}
