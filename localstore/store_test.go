package localstore

import (
	"context"
	"path/filepath"
	"testing"

	"Zenith/model"

	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "zenith.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecentRoundTrip(t *testing.T) {
	s := openTemp(t)
	require.Empty(t, s.LoadRecent())

	want := []model.Track{{ID: "c", Title: "C"}, {ID: "a", Title: "A"}}
	require.NoError(t, s.SaveRecent(want))
	require.Equal(t, want, s.LoadRecent())
}

func TestCorruptBlobFallsBackToDefaults(t *testing.T) {
	s := openTemp(t)
	require.NoError(t, s.PutRaw(RecentKey, []byte("{not json")))
	require.NoError(t, s.PutRaw(SessionKey, []byte(`{"shuffle": "yes"}`)))
	require.NoError(t, s.PutRaw(SnapshotKey, []byte(`[]`)))

	require.Empty(t, s.LoadRecent())

	st := s.LoadSession()
	require.False(t, st.Shuffle)
	require.Equal(t, model.RepeatOff, st.Repeat)
	require.Equal(t, 0.7, st.Volume)

	snap, err := s.LoadSnapshot(context.Background())
	require.NoError(t, err)
	require.Nil(t, snap.CurrentTrack)
}

func TestSessionRoundTrip(t *testing.T) {
	s := openTemp(t)
	st := SessionState{
		Current:  &model.Track{ID: "x", Title: "X"},
		Shuffle:  true,
		Repeat:   model.RepeatOne,
		Volume:   0.3,
		Selected: "album-blue",
	}
	require.NoError(t, s.SaveSession(st))
	require.Equal(t, st, s.LoadSession())

	// unknown repeat modes are reset
	require.NoError(t, s.PutRaw(SessionKey, []byte(`{"repeat":"forever","volume":0.5}`)))
	got := s.LoadSession()
	require.Equal(t, model.RepeatOff, got.Repeat)
	require.Equal(t, 0.5, got.Volume)
}

func TestSnapshotStore(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	snap := model.Snapshot{CurrentTrack: &model.Track{ID: "x"}, IsPlaying: true}
	require.NoError(t, s.SaveSnapshot(ctx, snap))
	got, err := s.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, snap, got)

	require.NoError(t, s.Delete(SnapshotKey))
	got, err = s.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, model.Snapshot{}, got)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zenith.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.PutJSON(SettingsKey, map[string]string{"theme": "light"}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	var got map[string]string
	require.True(t, s.GetJSON(SettingsKey, &got))
	require.Equal(t, "light", got["theme"])
}

func TestPlaylistsRoundTrip(t *testing.T) {
	s := openTemp(t)
	require.Empty(t, s.LoadPlaylists())

	want := []model.Collection{{
		ID:     "playlist-1",
		Name:   "Road Trip",
		Type:   model.CollectionPlaylist,
		Tracks: []model.Track{{ID: "a", Title: "A"}},
	}}
	require.NoError(t, s.SavePlaylists(want))
	require.Equal(t, want, s.LoadPlaylists())

	require.NoError(t, s.PutRaw(PlaylistKey, []byte("{")))
	require.Empty(t, s.LoadPlaylists())
}
