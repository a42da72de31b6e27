package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// EntityKind distinguishes record types that share a calendar or a list
type EntityKind int

const (
	KindMovie EntityKind = iota
	KindSeries
	KindEpisode
)

// String returns the lowercase kind name
func (k EntityKind) String() string {
	switch k {
	case KindMovie:
		return "movie"
	case KindSeries:
		return "series"
	case KindEpisode:
		return "episode"
	default:
		return "unknown"
	}
}

// Quality is the nested quality descriptor used by files, releases and history
type Quality struct {
	Quality struct {
		ID         int    `json:"id"`
		Name       string `json:"name"`
		Source     string `json:"source,omitempty"`
		Resolution int    `json:"resolution,omitempty"`
	} `json:"quality"`
}

// Name returns the quality label (e.g. "Bluray-1080p")
func (q Quality) Name() string { return q.Quality.Name }

// Language is a spoken-language descriptor
type Language struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Image is a poster/fanart reference. Images are loaded by an external pipeline.
type Image struct {
	CoverType string `json:"coverType"`
	URL       string `json:"url,omitempty"`
	RemoteURL string `json:"remoteUrl,omitempty"`
}

// Ratings holds per-source community ratings (0-10 scale)
type Ratings struct {
	IMDB *RatingValue `json:"imdb,omitempty"`
	TMDB *RatingValue `json:"tmdb,omitempty"`
}

// RatingValue is one rating source
type RatingValue struct {
	Votes int     `json:"votes"`
	Value float64 `json:"value"`
}

// Movie is a movie-manager record. ID 0 means a lookup result not yet in the library.
type Movie struct {
	ID                  int          `json:"id,omitempty"`
	TmdbID              int          `json:"tmdbId"`
	ImdbID              string       `json:"imdbId,omitempty"`
	Title               string       `json:"title"`
	SortTitle           string       `json:"sortTitle,omitempty"`
	OriginalTitle       string       `json:"originalTitle,omitempty"`
	AlternateTitles     []AltTitle   `json:"alternateTitles,omitempty"`
	Year                int          `json:"year"`
	Studio              string       `json:"studio,omitempty"`
	Overview            string       `json:"overview,omitempty"`
	Status              string       `json:"status,omitempty"` // tba, announced, inCinemas, released, deleted
	Certification       string       `json:"certification,omitempty"`
	Genres              []string     `json:"genres,omitempty"`
	Runtime             int          `json:"runtime,omitempty"` // minutes
	Ratings             Ratings      `json:"ratings,omitempty"`
	Images              []Image      `json:"images,omitempty"`
	Monitored           bool         `json:"monitored"`
	MinimumAvailability string       `json:"minimumAvailability,omitempty"`
	IsAvailable         bool         `json:"isAvailable,omitempty"`
	HasFile             bool         `json:"hasFile,omitempty"`
	SizeOnDisk          int64        `json:"sizeOnDisk,omitempty"`
	Path                string       `json:"path,omitempty"`
	RootFolderPath      string       `json:"rootFolderPath,omitempty"`
	QualityProfileID    int          `json:"qualityProfileId"`
	Tags                []int        `json:"tags,omitempty"`
	Added               *time.Time   `json:"added,omitempty"`
	InCinemas           *time.Time   `json:"inCinemas,omitempty"`
	PhysicalRelease     *time.Time   `json:"physicalRelease,omitempty"`
	DigitalRelease      *time.Time   `json:"digitalRelease,omitempty"`
	MovieFile           *MovieFile   `json:"movieFile,omitempty"`
	AddOptions          *AddOptions  `json:"addOptions,omitempty"`
	Collection          *MovieSeries `json:"collection,omitempty"`
}

// AltTitle is an alternate (localized) title
type AltTitle struct {
	Title string `json:"title"`
}

// MovieSeries is the collection a movie belongs to
type MovieSeries struct {
	Title  string `json:"title"`
	TmdbID int    `json:"tmdbId"`
}

// AddOptions controls what the server does right after adding a title
type AddOptions struct {
	SearchForMovie           bool   `json:"searchForMovie,omitempty"`
	SearchForMissingEpisodes bool   `json:"searchForMissingEpisodes,omitempty"`
	Monitor                  string `json:"monitor,omitempty"`
}

// Exists reports whether the movie is part of the library
func (m Movie) Exists() bool { return m.ID != 0 }

// GetID returns the server identifier
func (m Movie) GetID() int { return m.ID }

// GetTitle returns the display title
func (m Movie) GetTitle() string { return m.Title }

// GetSortTitle returns the title used for sorting
func (m Movie) GetSortTitle() string {
	if m.SortTitle != "" {
		return m.SortTitle
	}
	return strings.ToLower(m.Title)
}

// IsDownloaded reports whether a file exists on disk
func (m Movie) IsDownloaded() bool { return m.HasFile || m.MovieFile != nil }

// IsWanted reports a monitored, available movie without a file
func (m Movie) IsWanted() bool { return m.Monitored && m.IsAvailable && !m.IsDownloaded() }

// ReleaseDates returns the non-nil release dates keyed by release kind
func (m Movie) ReleaseDates() map[ReleaseKind]time.Time {
	dates := make(map[ReleaseKind]time.Time, 3)
	if m.DigitalRelease != nil {
		dates[ReleaseDigital] = *m.DigitalRelease
	}
	if m.PhysicalRelease != nil {
		dates[ReleasePhysical] = *m.PhysicalRelease
	}
	if m.InCinemas != nil {
		dates[ReleaseCinemas] = *m.InCinemas
	}
	return dates
}

// Rating returns the best available community rating
func (m Movie) Rating() float64 {
	if m.Ratings.IMDB != nil {
		return m.Ratings.IMDB.Value
	}
	if m.Ratings.TMDB != nil {
		return m.Ratings.TMDB.Value
	}
	return 0
}

// FormattedRuntime returns the runtime as "2h 14m"
func (m Movie) FormattedRuntime() string {
	if m.Runtime <= 0 {
		return ""
	}
	h := m.Runtime / 60
	mins := m.Runtime % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, mins)
	}
	return fmt.Sprintf("%dm", mins)
}

// FormattedSize returns the on-disk size in a human-readable format
func (m Movie) FormattedSize() string {
	if m.SizeOnDisk <= 0 {
		return ""
	}
	return humanize.IBytes(uint64(m.SizeOnDisk))
}

// ReleaseKind names which date field placed a movie on a calendar day
type ReleaseKind string

const (
	ReleaseDigital  ReleaseKind = "digital"
	ReleasePhysical ReleaseKind = "physical"
	ReleaseCinemas  ReleaseKind = "cinemas"
)

// Series is a series-manager record. ID 0 means a lookup result not yet in the library.
type Series struct {
	ID               int               `json:"id,omitempty"`
	TvdbID           int               `json:"tvdbId"`
	TmdbID           int               `json:"tmdbId,omitempty"`
	ImdbID           string            `json:"imdbId,omitempty"`
	Title            string            `json:"title"`
	SortTitle        string            `json:"sortTitle,omitempty"`
	AlternateTitles  []AltTitle        `json:"alternateTitles,omitempty"`
	Year             int               `json:"year"`
	Network          string            `json:"network,omitempty"`
	Overview         string            `json:"overview,omitempty"`
	Status           string            `json:"status,omitempty"` // continuing, ended, upcoming, deleted
	SeriesType       string            `json:"seriesType,omitempty"`
	Genres           []string          `json:"genres,omitempty"`
	Runtime          int               `json:"runtime,omitempty"`
	Certification    string            `json:"certification,omitempty"`
	Images           []Image           `json:"images,omitempty"`
	Seasons          []Season          `json:"seasons,omitempty"`
	Monitored        bool              `json:"monitored"`
	SeasonFolder     bool              `json:"seasonFolder"`
	Path             string            `json:"path,omitempty"`
	RootFolderPath   string            `json:"rootFolderPath,omitempty"`
	QualityProfileID int               `json:"qualityProfileId"`
	Tags             []int             `json:"tags,omitempty"`
	Added            *time.Time        `json:"added,omitempty"`
	FirstAired       *time.Time        `json:"firstAired,omitempty"`
	NextAiring       *time.Time        `json:"nextAiring,omitempty"`
	PreviousAiring   *time.Time        `json:"previousAiring,omitempty"`
	Statistics       *SeriesStatistics `json:"statistics,omitempty"`
	AddOptions       *AddOptions       `json:"addOptions,omitempty"`
}

// Season is a season summary embedded in a series
type Season struct {
	SeasonNumber int               `json:"seasonNumber"`
	Monitored    bool              `json:"monitored"`
	Statistics   *SeriesStatistics `json:"statistics,omitempty"`
}

// SeriesStatistics aggregates episode and file counts
type SeriesStatistics struct {
	SeasonCount       int     `json:"seasonCount,omitempty"`
	EpisodeFileCount  int     `json:"episodeFileCount"`
	EpisodeCount      int     `json:"episodeCount"`
	TotalEpisodeCount int     `json:"totalEpisodeCount"`
	SizeOnDisk        int64   `json:"sizeOnDisk"`
	PercentOfEpisodes float64 `json:"percentOfEpisodes"`
}

// Exists reports whether the series is part of the library
func (s Series) Exists() bool { return s.ID != 0 }

// GetID returns the server identifier
func (s Series) GetID() int { return s.ID }

// GetTitle returns the display title
func (s Series) GetTitle() string { return s.Title }

// GetSortTitle returns the title used for sorting
func (s Series) GetSortTitle() string {
	if s.SortTitle != "" {
		return s.SortTitle
	}
	return strings.ToLower(s.Title)
}

// SizeOnDisk returns the total size of all episode files
func (s Series) SizeOnDisk() int64 {
	if s.Statistics == nil {
		return 0
	}
	return s.Statistics.SizeOnDisk
}

// IsMissingEpisodes reports whether aired episodes lack files
func (s Series) IsMissingEpisodes() bool {
	if s.Statistics == nil {
		return false
	}
	return s.Statistics.EpisodeFileCount < s.Statistics.EpisodeCount
}

// SeasonCountLabel returns "1 Season" / "N Seasons", ignoring specials
func (s Series) SeasonCountLabel() string {
	n := 0
	for _, season := range s.Seasons {
		if season.SeasonNumber > 0 {
			n++
		}
	}
	if n == 1 {
		return "1 Season"
	}
	return fmt.Sprintf("%d Seasons", n)
}

// Episode is one series episode
type Episode struct {
	ID                    int        `json:"id"`
	SeriesID              int        `json:"seriesId"`
	TvdbID                int        `json:"tvdbId,omitempty"`
	EpisodeFileID         int        `json:"episodeFileId,omitempty"`
	SeasonNumber          int        `json:"seasonNumber"`
	EpisodeNumber         int        `json:"episodeNumber"`
	AbsoluteEpisodeNumber *int       `json:"absoluteEpisodeNumber,omitempty"`
	Title                 string     `json:"title"`
	Overview              string     `json:"overview,omitempty"`
	AirDate               string     `json:"airDate,omitempty"` // local YYYY-MM-DD
	AirDateUtc            *time.Time `json:"airDateUtc,omitempty"`
	Runtime               int        `json:"runtime,omitempty"`
	HasFile               bool       `json:"hasFile"`
	Monitored             bool       `json:"monitored"`
	Series                *Series    `json:"series,omitempty"`
}

// GetID returns the server identifier
func (e Episode) GetID() int { return e.ID }

// GetTitle returns the episode title
func (e Episode) GetTitle() string { return e.Title }

// GetSortTitle orders episodes by season and number
func (e Episode) GetSortTitle() string {
	return fmt.Sprintf("%04d-%05d", e.SeasonNumber, e.EpisodeNumber)
}

// EpisodeCode returns the formatted episode code (e.g., "S01E05")
func (e Episode) EpisodeCode() string {
	return fmt.Sprintf("S%02dE%02d", e.SeasonNumber, e.EpisodeNumber)
}

// IsSpecial reports whether the episode belongs to season 0
func (e Episode) IsSpecial() bool { return e.SeasonNumber == 0 }

// HasAired reports whether the air date has passed at the given time
func (e Episode) HasAired(now time.Time) bool {
	return e.AirDateUtc != nil && !e.AirDateUtc.After(now)
}

// MovieFile is a movie's primary file on disk
type MovieFile struct {
	ID           int        `json:"id"`
	MovieID      int        `json:"movieId"`
	RelativePath string     `json:"relativePath,omitempty"`
	Path         string     `json:"path,omitempty"`
	Size         int64      `json:"size"`
	DateAdded    *time.Time `json:"dateAdded,omitempty"`
	ReleaseGroup string     `json:"releaseGroup,omitempty"`
	Quality      Quality    `json:"quality"`
	Languages    []Language `json:"languages,omitempty"`
	MediaInfo    *MediaInfo `json:"mediaInfo,omitempty"`
}

// GetID returns the server identifier
func (f MovieFile) GetID() int { return f.ID }

// FormattedSize returns the file size in a human-readable format
func (f MovieFile) FormattedSize() string {
	if f.Size <= 0 {
		return ""
	}
	return humanize.IBytes(uint64(f.Size))
}

// MediaInfo is the technical stream metadata of a file
type MediaInfo struct {
	AudioCodec    string  `json:"audioCodec,omitempty"`
	AudioChannels float64 `json:"audioChannels,omitempty"`
	VideoCodec    string  `json:"videoCodec,omitempty"`
	Resolution    string  `json:"resolution,omitempty"`
	RunTime       string  `json:"runTime,omitempty"`
	Subtitles     string  `json:"subtitles,omitempty"`
}

// ExtraFile is a sidecar file (subtitle, nfo, artwork) belonging to a movie
type ExtraFile struct {
	ID           int    `json:"id"`
	MovieID      int    `json:"movieId"`
	MovieFileID  int    `json:"movieFileId,omitempty"`
	RelativePath string `json:"relativePath"`
	Extension    string `json:"extension"`
	Type         string `json:"type"` // subtitle, metadata, other
}

// GetID returns the server identifier
func (f ExtraFile) GetID() int { return f.ID }

// Release is one indexer search result. Releases are keyed by GUID, not ID.
type Release struct {
	GUID              string     `json:"guid"`
	Title             string     `json:"title"`
	IndexerID         int        `json:"indexerId"`
	Indexer           string     `json:"indexer"`
	Protocol          string     `json:"protocol"` // torrent, usenet
	Size              int64      `json:"size"`
	Age               int        `json:"age"` // days
	AgeHours          float64    `json:"ageHours"`
	PublishDate       *time.Time `json:"publishDate,omitempty"`
	Seeders           *int       `json:"seeders,omitempty"`
	Leechers          *int       `json:"leechers,omitempty"`
	Quality           Quality    `json:"quality"`
	Languages         []Language `json:"languages,omitempty"`
	CustomFormatScore int        `json:"customFormatScore"`
	Rejected          bool       `json:"rejected"`
	Rejections        []string   `json:"rejections,omitempty"`
	DownloadAllowed   bool       `json:"downloadAllowed"`
	InfoURL           string     `json:"infoUrl,omitempty"`
	IndexerFlags      []string   `json:"indexerFlags,omitempty"`
	MovieID           int        `json:"movieId,omitempty"`
	SeriesID          int        `json:"seriesId,omitempty"`
	EpisodeIDs        []int      `json:"episodeIds,omitempty"`
}

// IsTorrent reports whether the release uses the torrent protocol
func (r Release) IsTorrent() bool { return r.Protocol == "torrent" }

// FormattedSize returns the release size in a human-readable format
func (r Release) FormattedSize() string {
	if r.Size <= 0 {
		return ""
	}
	return humanize.IBytes(uint64(r.Size))
}

// FormattedAge returns a relative publish age ("3 days ago")
func (r Release) FormattedAge(now time.Time) string {
	if r.PublishDate == nil {
		return ""
	}
	return humanize.RelTime(*r.PublishDate, now, "ago", "from now")
}

// SeederCount returns 0 for usenet releases
func (r Release) SeederCount() int {
	if r.Seeders == nil {
		return 0
	}
	return *r.Seeders
}

// QualityProfile is a server-side quality profile
type QualityProfile struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// RootFolder is a server-side library root
type RootFolder struct {
	ID         int    `json:"id"`
	Path       string `json:"path"`
	Accessible bool   `json:"accessible"`
	FreeSpace  int64  `json:"freeSpace"`
}

// FormattedFreeSpace returns the free space label
func (r RootFolder) FormattedFreeSpace() string {
	return humanize.IBytes(uint64(max(r.FreeSpace, 0)))
}

// Tag is a server-side label
type Tag struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

// InstanceMetadata is the auxiliary per-instance data needed to add or edit titles
type InstanceMetadata struct {
	QualityProfiles []QualityProfile `json:"qualityProfiles"`
	RootFolders     []RootFolder     `json:"rootFolders"`
	Tags            []Tag            `json:"tags"`
	FetchedAt       time.Time        `json:"fetchedAt"`
}

// InstanceStatus is the server's /system/status response
type InstanceStatus struct {
	AppName      string `json:"appName"`
	InstanceName string `json:"instanceName"`
	Version      string `json:"version"`
	IsDebug      bool   `json:"isDebug,omitempty"`
}

// DeleteOptions controls what the server does when a title is removed
type DeleteOptions struct {
	DeleteFiles        bool
	AddImportExclusion bool
}

// Command is a server task trigger (search, refresh, rename)
type Command struct {
	Name       string `json:"name"`
	MovieIDs   []int  `json:"movieIds,omitempty"`
	SeriesID   int    `json:"seriesId,omitempty"`
	SeasonNum  *int   `json:"seasonNumber,omitempty"`
	EpisodeIDs []int  `json:"episodeIds,omitempty"`
}

// Well-known command names
const (
	CommandMoviesSearch  = "MoviesSearch"
	CommandRefreshMovie  = "RefreshMovie"
	CommandRenameMovie   = "RenameMovie"
	CommandSeriesSearch  = "SeriesSearch"
	CommandSeasonSearch  = "SeasonSearch"
	CommandEpisodeSearch = "EpisodeSearch"
	CommandRefreshSeries = "RefreshSeries"
)
