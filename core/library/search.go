package library

import (
	"strings"

	"Zenith/model"

	"github.com/samber/lo"
)

// DefaultSearchLimit is the number of results shown in the quick search dropdown.
const DefaultSearchLimit = 8

// Search returns the tracks whose title, artist or album contains query,
// case-insensitively. A blank query yields no results.
func Search(query string, tracks []model.Track, limit int) []model.Track {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	matches := lo.Filter(tracks, func(t model.Track, _ int) bool {
		return strings.Contains(strings.ToLower(t.Title), q) ||
			strings.Contains(strings.ToLower(t.Artist), q) ||
			strings.Contains(strings.ToLower(t.Album), q)
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
