package library

import (
	"strings"
	"testing"

	"Zenith/model"

	"github.com/stretchr/testify/require"
)

func TestPlaylistsResolveAndGrow(t *testing.T) {
	a := NewAggregator()
	mix := NewPlaylist("  Road Trip ", "")
	require.True(t, strings.HasPrefix(mix.ID, PlaylistPrefix))
	require.Equal(t, "Road Trip", mix.Name)
	require.Equal(t, model.CollectionPlaylist, mix.Type)

	a.AddPlaylist(mix)
	a.Select(mix.ID)
	require.Equal(t, mix.ID, a.ActiveCollection().ID)
	require.Zero(t, a.ActiveCollection().Len())

	added, err := a.AddToPlaylist(mix.ID, tr("1", "A", "P"))
	require.NoError(t, err)
	require.True(t, added)
	added, err = a.AddToPlaylist(mix.ID, tr("1", "A", "P"))
	require.NoError(t, err)
	require.False(t, added, "a track is added once")
	require.Equal(t, []string{"1"}, ids(a.ActiveCollection().Tracks))

	_, err = a.AddToPlaylist("playlist-missing", tr("2", "A", "P"))
	require.ErrorIs(t, err, ErrPlaylistNotFound)
}

func TestPlaylistsCopyIsDetached(t *testing.T) {
	a := NewAggregator()
	a.SetPlaylists([]model.Collection{{ID: "p1", Name: "One", Tracks: []model.Track{tr("1", "A", "P")}}})

	out := a.Playlists()
	out[0].Tracks[0].Title = "mutated"
	require.Equal(t, "T1", a.Playlists()[0].Tracks[0].Title)

	// unknown ids fall back to the first playlist
	a.Select("nope")
	require.Equal(t, "p1", a.ActiveCollection().ID)
}
