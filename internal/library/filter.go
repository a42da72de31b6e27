package library

import (
	"strings"
	"unicode"

	"github.com/sahilm/fuzzy"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Scope narrows a collection by state
type Scope int

const (
	ScopeAll Scope = iota
	ScopeMonitored
	ScopeUnmonitored
	ScopeMissing
	ScopeDownloaded
	ScopeWanted
	ScopeContinuing
	ScopeEnded
	ScopeApproved // releases
	ScopeTorrent  // releases
	ScopeUsenet   // releases
)

// String returns the display name for the scope
func (s Scope) String() string {
	switch s {
	case ScopeAll:
		return "All"
	case ScopeMonitored:
		return "Monitored"
	case ScopeUnmonitored:
		return "Unmonitored"
	case ScopeMissing:
		return "Missing"
	case ScopeDownloaded:
		return "Downloaded"
	case ScopeWanted:
		return "Wanted"
	case ScopeContinuing:
		return "Continuing"
	case ScopeEnded:
		return "Ended"
	case ScopeApproved:
		return "Approved"
	case ScopeTorrent:
		return "Torrent"
	case ScopeUsenet:
		return "Usenet"
	default:
		return "Unknown"
	}
}

// Filter selects which records appear in the derived view
type Filter struct {
	Query   string
	Fuzzy   bool   // subsequence match ranked by score instead of substring
	Scope   Scope
	Indexer string // releases only
}

// IsZero reports whether the filter passes every record
func (f Filter) IsZero() bool {
	return strings.TrimSpace(f.Query) == "" && f.Scope == ScopeAll && f.Indexer == ""
}

// normalize case-folds s and strips diacritics ("Amélie" -> "amelie")
func normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return cases.Fold().String(out)
}

// containsAny reports whether any field contains the normalized needle
func containsAny(fields []string, needle string) bool {
	for _, f := range fields {
		if strings.Contains(normalize(f), needle) {
			return true
		}
	}
	return false
}

// fuzzyFields implements fuzzy.Source over the first searchable field of each record
type fuzzyFields []string

func (f fuzzyFields) String(i int) string { return f[i] }
func (f fuzzyFields) Len() int            { return len(f) }

// queryFilter applies the text query to items. Substring mode keeps input order;
// fuzzy mode returns matches best score first.
func queryFilter[T any](items []T, query string, fuzzyMode bool, text func(T) []string) []T {
	needle := normalize(strings.TrimSpace(query))
	if needle == "" {
		return items
	}

	if !fuzzyMode {
		out := make([]T, 0, len(items))
		for _, item := range items {
			if containsAny(text(item), needle) {
				out = append(out, item)
			}
		}
		return out
	}

	src := make(fuzzyFields, len(items))
	for i, item := range items {
		src[i] = normalize(strings.Join(text(item), " "))
	}
	matches := fuzzy.FindFrom(needle, src)
	out := make([]T, len(matches))
	for i, m := range matches {
		out[i] = items[m.Index]
	}
	return out
}
