package library

import (
	"strconv"
	"strings"

	"Zenith/model"
)

// AlbumPrefix marks selectors that resolve through the album index.
const AlbumPrefix = "album-"

// AlbumID derives the collection id of an album from its name.
// Whitespace runs collapse to a single '-', the rest is lowercased.
func AlbumID(album string) string {
	return AlbumPrefix + strings.ToLower(strings.Join(strings.Fields(album), "-"))
}

type albumKey struct {
	album  string
	artist string
}

// BuildAlbumIndex groups every track of the given sources by (album, artist).
// Groups and the tracks inside them keep first-seen order, a track appears at
// most once per group and the first track seen provides the cover.
// The first group of an album name gets AlbumID, later groups sharing that
// name get the artist appended so every group stays selectable.
func BuildAlbumIndex(sources ...[]model.Track) []model.Collection {
	var order []albumKey
	groups := make(map[albumKey]*model.Collection)
	seen := make(map[albumKey]map[string]struct{})
	taken := make(map[string]struct{})

	for _, tracks := range sources {
		for _, t := range tracks {
			key := albumKey{album: t.Album, artist: t.Artist}
			group, ok := groups[key]
			if !ok {
				group = &model.Collection{
					ID:          uniqueAlbumID(taken, t.Album, t.Artist),
					Name:        t.Album,
					Description: "Album • " + t.Artist,
					CoverURL:    t.CoverURL,
					Type:        model.CollectionPlaylist,
				}
				groups[key] = group
				seen[key] = make(map[string]struct{})
				order = append(order, key)
			}
			if _, dup := seen[key][t.ID]; dup {
				continue
			}
			seen[key][t.ID] = struct{}{}
			group.Tracks = append(group.Tracks, t)
		}
	}

	albums := make([]model.Collection, 0, len(order))
	for _, key := range order {
		albums = append(albums, *groups[key])
	}
	return albums
}

func uniqueAlbumID(taken map[string]struct{}, album, artist string) string {
	id := AlbumID(album)
	if _, ok := taken[id]; ok {
		id = AlbumID(album + " " + artist)
	}
	for base, n := id, 2; ; n++ {
		if _, ok := taken[id]; !ok {
			break
		}
		id = base + "-" + strconv.Itoa(n)
	}
	taken[id] = struct{}{}
	return id
}
