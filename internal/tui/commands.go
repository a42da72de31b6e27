package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/arrdeck/internal/calendar"
	"github.com/mmcdole/arrdeck/internal/domain"
	"github.com/mmcdole/arrdeck/internal/library"
	"github.com/mmcdole/arrdeck/internal/metadata"
	"github.com/mmcdole/arrdeck/internal/refresh"
)

// Command factories for async operations. Fetches report failures through the
// model's change notification, so they return no message of their own.

const (
	fetchTimeout   = 60 * time.Second
	releaseTimeout = 2 * time.Minute
	actionTimeout  = 15 * time.Second
	statusTTL      = 3 * time.Second
)

var errNoAddDefaults = errors.New("no quality profile or root folder available")

// fetchMoviesCmd replaces the movie collection with the server's list
func fetchMoviesCmd(ctx context.Context, movies *library.Movies) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
		defer cancel()
		movies.Fetch(ctx)
		return nil
	}
}

// fetchSeriesCmd replaces the series collection with the server's list
func fetchSeriesCmd(ctx context.Context, series *library.SeriesList) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
		defer cancel()
		series.Fetch(ctx)
		return nil
	}
}

// fetchEpisodesCmd loads the episodes of the scoped series
func fetchEpisodesCmd(ctx context.Context, episodes *library.Episodes) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
		defer cancel()
		episodes.Fetch(ctx)
		return nil
	}
}

// fetchReleasesCmd runs an interactive indexer search for the release target
func fetchReleasesCmd(ctx context.Context, releases *library.Releases) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, releaseTimeout)
		defer cancel()
		releases.Fetch(ctx)
		return nil
	}
}

// loadMetadataCmd loads files, extra files and history of the selected movie.
// Sections already loaded are kept unless force is set.
func loadMetadataCmd(ctx context.Context, meta *metadata.Model, force bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
		defer cancel()

		if force {
			meta.Refresh(ctx)
			return nil
		}
		meta.FetchFiles(ctx)
		meta.FetchExtraFiles(ctx)
		meta.FetchHistory(ctx)
		return nil
	}
}

// initCalendarCmd loads the initial calendar window
func initCalendarCmd(ctx context.Context, cal *calendar.Calendar) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
		defer cancel()
		cal.Initialize(ctx)
		return nil
	}
}

// refreshMetadataCmd forces an instance metadata refresh
func refreshMetadataCmd(ctx context.Context, r *refresh.Refresher, inst domain.Instance) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()
		r.Refresh(ctx, inst, true)
		return nil
	}
}

// monitorMovieCmd flips the monitored flag of a movie
func monitorMovieCmd(ctx context.Context, movies *library.Movies, movie domain.Movie) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()

		if err := movies.Monitor(ctx, []int{movie.ID}, !movie.Monitored); err != nil {
			return ErrMsg{Err: err, Context: "updating " + movie.Title}
		}
		return StatusMsg{Message: monitorStatus(movie.Title, !movie.Monitored)}
	}
}

// monitorSeriesCmd flips the monitored flag of a series
func monitorSeriesCmd(ctx context.Context, list *library.SeriesList, series domain.Series) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()

		if err := list.Monitor(ctx, series.ID, !series.Monitored); err != nil {
			return ErrMsg{Err: err, Context: "updating " + series.Title}
		}
		return StatusMsg{Message: monitorStatus(series.Title, !series.Monitored)}
	}
}

// monitorEpisodeCmd flips the monitored flag of an episode
func monitorEpisodeCmd(ctx context.Context, episodes *library.Episodes, ep domain.Episode) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()

		if err := episodes.Monitor(ctx, []int{ep.ID}, !ep.Monitored); err != nil {
			return ErrMsg{Err: err, Context: "updating " + ep.EpisodeCode()}
		}
		return StatusMsg{Message: monitorStatus(ep.EpisodeCode(), !ep.Monitored)}
	}
}

// updateMovieCmd saves an edited movie
func updateMovieCmd(ctx context.Context, movies *library.Movies, movie domain.Movie, profile string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()

		if _, err := movies.Update(ctx, movie, false); err != nil {
			return ErrMsg{Err: err, Context: "updating " + movie.Title}
		}
		return StatusMsg{Message: "Set " + movie.Title + " to " + profile}
	}
}

// updateSeriesCmd saves an edited series
func updateSeriesCmd(ctx context.Context, list *library.SeriesList, series domain.Series, profile string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()

		if _, err := list.Update(ctx, series, false); err != nil {
			return ErrMsg{Err: err, Context: "updating " + series.Title}
		}
		return StatusMsg{Message: "Set " + series.Title + " to " + profile}
	}
}

// deleteMovieCmd removes a movie with the confirmed options
func deleteMovieCmd(ctx context.Context, movies *library.Movies, req deleteRequest) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()

		if err := movies.Delete(ctx, req.id, req.opts); err != nil {
			return ErrMsg{Err: err, Context: "deleting " + req.title}
		}
		return StatusMsg{Message: "Deleted " + req.title}
	}
}

// deleteSeriesCmd removes a series with the confirmed options
func deleteSeriesCmd(ctx context.Context, list *library.SeriesList, req deleteRequest) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()

		if err := list.Delete(ctx, req.id, req.opts); err != nil {
			return ErrMsg{Err: err, Context: "deleting " + req.title}
		}
		return StatusMsg{Message: "Deleted " + req.title}
	}
}

func monitorStatus(title string, monitored bool) string {
	if monitored {
		return "Monitoring " + title
	}
	return "Stopped monitoring " + title
}

// searchMovieCmd asks the server to search indexers for a movie
func searchMovieCmd(ctx context.Context, cmds *library.Commands, inst domain.Instance, movie domain.Movie) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()

		if err := cmds.SearchMovies(ctx, inst, movie.ID); err != nil {
			return ErrMsg{Err: err, Context: "searching for " + movie.Title}
		}
		return StatusMsg{Message: "Search started for " + movie.Title}
	}
}

// searchSeriesCmd asks the server to search indexers for a series
func searchSeriesCmd(ctx context.Context, cmds *library.Commands, inst domain.Instance, series domain.Series) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()

		if err := cmds.SearchSeries(ctx, inst, series.ID); err != nil {
			return ErrMsg{Err: err, Context: "searching for " + series.Title}
		}
		return StatusMsg{Message: "Search started for " + series.Title}
	}
}

// downloadReleaseCmd sends a release to the download client
func downloadReleaseCmd(ctx context.Context, releases *library.Releases, release domain.Release) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, actionTimeout)
		defer cancel()

		if err := releases.Download(ctx, release); err != nil {
			return ErrMsg{Err: err, Context: "grabbing " + release.Title}
		}
		return StatusMsg{Message: "Grabbed " + release.Title}
	}
}

// addMovieCmd adds a lookup result with the instance's first quality profile
// and root folder, then waits until the library lists it
func addMovieCmd(ctx context.Context, movies *library.Movies, meta domain.InstanceMetadata, movie domain.Movie) tea.Cmd {
	return func() tea.Msg {
		if len(meta.QualityProfiles) == 0 || len(meta.RootFolders) == 0 {
			return ErrMsg{Err: errNoAddDefaults, Context: "adding " + movie.Title}
		}
		movie.QualityProfileID = meta.QualityProfiles[0].ID
		movie.RootFolderPath = meta.RootFolders[0].Path
		movie.Monitored = true
		movie.AddOptions = &domain.AddOptions{SearchForMovie: true}

		ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
		defer cancel()

		if _, err := movies.Add(ctx, movie); err != nil {
			return ErrMsg{Err: err, Context: "adding " + movie.Title}
		}
		if _, err := movies.AwaitMovie(ctx, movie.TmdbID); err != nil {
			return ErrMsg{Err: err, Context: "waiting for " + movie.Title}
		}
		return AddedMsg{Title: movie.Title, Kind: domain.KindMovie}
	}
}

// addSeriesCmd adds a lookup result the same way as addMovieCmd
func addSeriesCmd(ctx context.Context, list *library.SeriesList, meta domain.InstanceMetadata, series domain.Series) tea.Cmd {
	return func() tea.Msg {
		if len(meta.QualityProfiles) == 0 || len(meta.RootFolders) == 0 {
			return ErrMsg{Err: errNoAddDefaults, Context: "adding " + series.Title}
		}
		series.QualityProfileID = meta.QualityProfiles[0].ID
		series.RootFolderPath = meta.RootFolders[0].Path
		series.Monitored = true
		series.SeasonFolder = true
		series.AddOptions = &domain.AddOptions{SearchForMissingEpisodes: true, Monitor: "all"}

		ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
		defer cancel()

		if _, err := list.Add(ctx, series); err != nil {
			return ErrMsg{Err: err, Context: "adding " + series.Title}
		}
		if _, err := list.AwaitSeries(ctx, series.TvdbID); err != nil {
			return ErrMsg{Err: err, Context: "waiting for " + series.Title}
		}
		return AddedMsg{Title: series.Title, Kind: domain.KindSeries}
	}
}

// clearStatusCmd clears the status line after statusTTL unless a newer one replaced it
func clearStatusCmd(id int) tea.Cmd {
	return tea.Tick(statusTTL, func(time.Time) tea.Msg {
		return ClearStatusMsg{ID: id}
	})
}
