package search

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/mmcdole/arrdeck/internal/domain"
)

// Rank orders items by fuzzy closeness of their title to query. Items whose
// title does not contain the query as a subsequence keep their server order
// after the matches.
func Rank[T any](query string, items []T, title func(T) string) []T {
	query = strings.TrimSpace(query)
	if query == "" || len(items) < 2 {
		return items
	}

	titles := make([]string, len(items))
	for i, item := range items {
		titles[i] = title(item)
	}
	ranks := fuzzy.RankFindNormalizedFold(query, titles)
	sort.Stable(ranks)

	out := make([]T, 0, len(items))
	matched := make([]bool, len(items))
	for _, r := range ranks {
		out = append(out, items[r.OriginalIndex])
		matched[r.OriginalIndex] = true
	}
	for i, item := range items {
		if !matched[i] {
			out = append(out, item)
		}
	}
	return out
}

// RankMovies orders movie lookup results by title closeness
func RankMovies(query string, movies []domain.Movie) []domain.Movie {
	return Rank(query, movies, domain.Movie.GetTitle)
}

// RankSeries orders series lookup results by title closeness
func RankSeries(query string, series []domain.Series) []domain.Series {
	return Rank(query, series, domain.Series.GetTitle)
}
