package library

import (
	"errors"
	"strings"

	"Zenith/model"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// PlaylistPrefix marks the ids of user-created playlists.
const PlaylistPrefix = "playlist-"

var ErrPlaylistNotFound = errors.New("playlist not found")

// NewPlaylist creates an empty user playlist with a fresh id.
func NewPlaylist(name, description string) model.Collection {
	return model.Collection{
		ID:          PlaylistPrefix + uuid.NewString(),
		Name:        strings.TrimSpace(name),
		Description: description,
		Type:        model.CollectionPlaylist,
	}
}

// AddToPlaylist appends t to the playlist with the given id.
// It reports false when the playlist already holds t.
func (a *Aggregator) AddToPlaylist(id string, t model.Track) (bool, error) {
	var added bool
	var err error
	a.mutate(func(src *Sources) {
		i := lo.IndexOf(lo.Map(src.Playlists, func(p model.Collection, _ int) string { return p.ID }), id)
		if i < 0 {
			err = ErrPlaylistNotFound
			return
		}
		p := &src.Playlists[i]
		if lo.ContainsBy(p.Tracks, func(x model.Track) bool { return x.ID == t.ID }) {
			return
		}
		p.Tracks = append(copyTracks(p.Tracks), t)
		added = true
	})
	return added, err
}

// Playlists returns a copy of the user-created playlists.
func (a *Aggregator) Playlists() []model.Collection {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return lo.Map(a.src.Playlists, func(p model.Collection, _ int) model.Collection {
		p.Tracks = copyTracks(p.Tracks)
		return p
	})
}
