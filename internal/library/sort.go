package library

import (
	"cmp"
	"strings"
	"time"

	"github.com/mmcdole/arrdeck/internal/domain"
)

// SortField represents a field to sort by
type SortField int

const (
	SortDefault SortField = iota // fetch order
	SortTitle
	SortYear
	SortDateAdded
	SortSize
	SortReleased
	SortRating
	SortNextAiring
	SortEpisode
	SortSeeders
	SortAge
	SortQuality
	SortCustomFormat
)

// String returns the display name for the sort field
func (f SortField) String() string {
	switch f {
	case SortDefault:
		return "Default"
	case SortTitle:
		return "Title"
	case SortYear:
		return "Year"
	case SortDateAdded:
		return "Date Added"
	case SortSize:
		return "Size"
	case SortReleased:
		return "Release Date"
	case SortRating:
		return "Rating"
	case SortNextAiring:
		return "Next Airing"
	case SortEpisode:
		return "Episode"
	case SortSeeders:
		return "Seeders"
	case SortAge:
		return "Age"
	case SortQuality:
		return "Quality"
	case SortCustomFormat:
		return "Custom Format Score"
	default:
		return "Unknown"
	}
}

// SortDirection represents sort direction
type SortDirection int

const (
	SortAsc SortDirection = iota
	SortDesc
)

// DefaultDirection returns the default sort direction for a field
func DefaultDirection(field SortField) SortDirection {
	switch field {
	case SortTitle, SortEpisode, SortAge, SortNextAiring, SortDefault:
		return SortAsc
	default:
		return SortDesc // biggest / newest first
	}
}

// SortSpec is a field plus direction
type SortSpec struct {
	Field     SortField
	Direction SortDirection
}

// NewSort returns a spec using the field's default direction
func NewSort(field SortField) SortSpec {
	return SortSpec{Field: field, Direction: DefaultDirection(field)}
}

// MovieSortOptions returns the available sort options for movies
func MovieSortOptions() []SortField {
	return []SortField{SortTitle, SortYear, SortDateAdded, SortSize, SortReleased, SortRating}
}

// SeriesSortOptions returns the available sort options for series
func SeriesSortOptions() []SortField {
	return []SortField{SortTitle, SortYear, SortDateAdded, SortSize, SortNextAiring}
}

// EpisodeSortOptions returns the available sort options for episodes
func EpisodeSortOptions() []SortField {
	return []SortField{SortEpisode, SortReleased, SortTitle}
}

// ReleaseSortOptions returns the available sort options for releases
func ReleaseSortOptions() []SortField {
	return []SortField{SortDefault, SortSeeders, SortSize, SortAge, SortQuality, SortCustomFormat}
}

// compareTimes orders nil after any set time
func compareTimes(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return a.Compare(*b)
	}
}

func compareTitles(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

// latestRelease returns the latest of a movie's release dates
func latestRelease(m domain.Movie) *time.Time {
	var latest *time.Time
	for _, t := range []*time.Time{m.InCinemas, m.PhysicalRelease, m.DigitalRelease} {
		if t != nil && (latest == nil || t.After(*latest)) {
			latest = t
		}
	}
	return latest
}

func compareMovies(field SortField, a, b domain.Movie) int {
	switch field {
	case SortTitle:
		return compareTitles(a.GetSortTitle(), b.GetSortTitle())
	case SortYear:
		return cmp.Compare(a.Year, b.Year)
	case SortDateAdded:
		return compareTimes(a.Added, b.Added)
	case SortSize:
		return cmp.Compare(a.SizeOnDisk, b.SizeOnDisk)
	case SortReleased:
		return compareTimes(latestRelease(a), latestRelease(b))
	case SortRating:
		return cmp.Compare(a.Rating(), b.Rating())
	default:
		return 0
	}
}

func compareSeries(field SortField, a, b domain.Series) int {
	switch field {
	case SortTitle:
		return compareTitles(a.GetSortTitle(), b.GetSortTitle())
	case SortYear:
		return cmp.Compare(a.Year, b.Year)
	case SortDateAdded:
		return compareTimes(a.Added, b.Added)
	case SortSize:
		return cmp.Compare(a.SizeOnDisk(), b.SizeOnDisk())
	case SortNextAiring, SortReleased:
		return compareTimes(a.NextAiring, b.NextAiring)
	default:
		return 0
	}
}

func compareEpisodes(field SortField, a, b domain.Episode) int {
	switch field {
	case SortEpisode:
		return strings.Compare(a.GetSortTitle(), b.GetSortTitle())
	case SortReleased:
		return compareTimes(a.AirDateUtc, b.AirDateUtc)
	case SortTitle:
		return compareTitles(a.Title, b.Title)
	default:
		return 0
	}
}

func compareReleases(field SortField, a, b domain.Release) int {
	switch field {
	case SortSeeders:
		return cmp.Compare(a.SeederCount(), b.SeederCount())
	case SortSize:
		return cmp.Compare(a.Size, b.Size)
	case SortAge:
		return cmp.Compare(a.AgeHours, b.AgeHours)
	case SortQuality:
		return cmp.Compare(a.Quality.Quality.Resolution, b.Quality.Quality.Resolution)
	case SortCustomFormat:
		return cmp.Compare(a.CustomFormatScore, b.CustomFormatScore)
	default:
		return 0
	}
}
