package calendar

import (
	"cmp"
	"slices"
	"time"

	"github.com/mmcdole/arrdeck/internal/domain"
)

// Day truncates t to the start of its UTC day
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AddDays moves a day key by n days
func AddDays(day time.Time, n int) time.Time {
	return day.AddDate(0, 0, n)
}

// Entry is one calendar event: a movie release or an episode airing
type Entry struct {
	InstanceID string
	Kind       domain.EntityKind
	At         time.Time // exact time when known, otherwise the day

	Movie    *domain.Movie
	Releases []domain.ReleaseKind // movie release kinds landing on this day

	Episode *domain.Episode
}

type entryKey struct {
	instanceID string
	kind       domain.EntityKind
	id         int
}

func (e Entry) key() entryKey {
	k := entryKey{instanceID: e.InstanceID, kind: e.Kind}
	switch {
	case e.Movie != nil:
		k.id = e.Movie.ID
	case e.Episode != nil:
		k.id = e.Episode.ID
	}
	return k
}

// Title returns the display title of the entry
func (e Entry) Title() string {
	switch {
	case e.Movie != nil:
		return e.Movie.Title
	case e.Episode != nil:
		if e.Episode.Series != nil {
			return e.Episode.Series.Title + " " + e.Episode.EpisodeCode()
		}
		return e.Episode.EpisodeCode() + " " + e.Episode.Title
	}
	return ""
}

// IsDownloaded reports whether the entry's file is on disk
func (e Entry) IsDownloaded() bool {
	switch {
	case e.Movie != nil:
		return e.Movie.IsDownloaded()
	case e.Episode != nil:
		return e.Episode.HasFile
	}
	return false
}

var releaseOrder = map[domain.ReleaseKind]int{
	domain.ReleaseCinemas:  0,
	domain.ReleaseDigital:  1,
	domain.ReleasePhysical: 2,
}

// insert adds e to the bucket or merges it into the entry with the same key
func insert(bucket []Entry, e Entry) []Entry {
	k := e.key()
	i := slices.IndexFunc(bucket, func(x Entry) bool { return x.key() == k })
	if i < 0 {
		return append(bucket, e)
	}

	existing := bucket[i]
	for _, r := range existing.Releases {
		if !slices.Contains(e.Releases, r) {
			e.Releases = append(e.Releases, r)
		}
	}
	slices.SortFunc(e.Releases, func(a, b domain.ReleaseKind) int {
		return cmp.Compare(releaseOrder[a], releaseOrder[b])
	})
	if e.At.IsZero() || (!existing.At.IsZero() && existing.At.Before(e.At)) {
		e.At = existing.At
	}
	bucket[i] = e
	return bucket
}

// sortBucket orders entries by time, then title
func sortBucket(bucket []Entry) {
	slices.SortStableFunc(bucket, func(a, b Entry) int {
		if c := a.At.Compare(b.At); c != 0 {
			return c
		}
		return cmp.Compare(a.Title(), b.Title())
	})
}
