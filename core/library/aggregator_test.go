package library

import (
	"testing"

	"Zenith/model"

	"github.com/stretchr/testify/require"
)

func TestResolveActive(t *testing.T) {
	src := Sources{
		Cloud:  []model.Track{tr("c1", "Up", "Me")},
		Local:  []model.Track{tr("l1", "Local Files", "Local Artist")},
		Liked:  []model.Track{tr("k1", "Fav", "Them")},
		Public: []model.Track{tr("p1", "Pub", "Anyone")},
		Recent: []model.Track{tr("r1", "Old", "Someone")},
		Playlists: []model.Collection{
			{ID: "pl-1", Name: "Road trip"},
			{ID: "pl-2", Name: "Focus"},
		},
	}
	albums := BuildAlbumIndex(src.Cloud, src.Local, src.Public, src.Recent, src.Liked)

	tests := []struct {
		selector string
		wantID   string
		wantLen  int
	}{
		{selector: SelectLiked, wantID: SelectLiked, wantLen: 1},
		{selector: SelectLocal, wantID: SelectLocal, wantLen: 1},
		{selector: SelectCloud, wantID: SelectCloud, wantLen: 1},
		{selector: SelectDiscover, wantID: SelectDiscover, wantLen: 1},
		{selector: SelectRecent, wantID: SelectRecent, wantLen: 1},
		{selector: "album-fav", wantID: "album-fav", wantLen: 1},
		{selector: "pl-2", wantID: "pl-2"},
		{selector: "unknown", wantID: "pl-1"},
		{selector: "album-missing", wantID: "pl-1"},
	}
	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			got := ResolveActive(tt.selector, src, albums)
			require.Equal(t, tt.wantID, got.ID)
			require.Len(t, got.Tracks, tt.wantLen)
		})
	}
}

func TestResolveActiveEmptyPlaceholder(t *testing.T) {
	got := ResolveActive("whatever", Sources{}, nil)
	require.Equal(t, EmptyCollectionID, got.ID)
	require.Equal(t, "No Playlist", got.Name)
	require.Empty(t, got.Tracks)
}

func TestAggregatorMemoizesUntilSourcesChange(t *testing.T) {
	a := NewAggregator()
	a.SetCloud([]model.Track{tr("1", "A", "P")})

	first := a.Albums()
	require.Len(t, first, 1)
	require.Same(t, &first[0], &a.Albums()[0], "no recompute without a source change")

	a.SetLiked([]model.Track{tr("2", "B", "Q")})
	require.Len(t, a.Albums(), 2)
}

func TestAggregatorActiveFollowsSelection(t *testing.T) {
	a := NewAggregator()
	require.Equal(t, SelectCloud, a.Selected())

	a.SetCloud([]model.Track{tr("1", "A", "P")})
	require.Equal(t, []string{"1"}, ids(a.ActiveCollection().Tracks))

	a.PrependCloud(tr("0", "A", "P"))
	require.Equal(t, []string{"0", "1"}, ids(a.ActiveCollection().Tracks))

	a.Select(AlbumID("A"))
	require.Equal(t, "album-a", a.ActiveCollection().ID)
}

func TestAggregatorSelectsSameNamedAlbums(t *testing.T) {
	a := NewAggregator()
	a.SetCloud([]model.Track{tr("1", "X", "Y"), tr("2", "X", "Z")})

	a.Select("album-x")
	require.Equal(t, []string{"1"}, ids(a.ActiveCollection().Tracks))
	a.Select("album-x-z")
	require.Equal(t, []string{"2"}, ids(a.ActiveCollection().Tracks))
}

func TestAggregatorInputIsCopied(t *testing.T) {
	a := NewAggregator()
	in := []model.Track{tr("1", "A", "P")}
	a.SetCloud(in)
	in[0].Title = "mutated"
	require.Equal(t, "T1", a.ActiveCollection().Tracks[0].Title)
}

func TestAggregatorImportLocalSkipsKnown(t *testing.T) {
	a := NewAggregator()
	added := a.ImportLocal([]model.Track{tr("l1", "Local Files", "Local Artist")})
	require.Len(t, added, 1)

	added = a.ImportLocal([]model.Track{tr("l1", "Local Files", "Local Artist"), tr("l2", "Local Files", "Local Artist")})
	require.Equal(t, []string{"l2"}, ids(added))
	require.Equal(t, []string{"l2", "l1"}, ids(a.Sources().Local))
}

func TestAggregatorRemoveAndUpdate(t *testing.T) {
	a := NewAggregator()
	a.SetCloud([]model.Track{tr("1", "A", "P"), tr("2", "A", "P")})
	a.SetLiked([]model.Track{tr("1", "A", "P")})
	a.AddPlaylist(model.Collection{ID: "pl", Tracks: []model.Track{tr("1", "A", "P")}})

	a.RemoveTrack("1")
	src := a.Sources()
	require.Equal(t, []string{"2"}, ids(src.Cloud))
	require.Empty(t, src.Liked)
	require.Empty(t, src.Playlists[0].Tracks)

	a.UpdateTracks(
		func(t model.Track) bool { return t.Album == "A" },
		func(t model.Track) model.Track { t.CoverURL = "new"; return t },
	)
	got, ok := a.FindTrack("2")
	require.True(t, ok)
	require.Equal(t, "new", got.CoverURL)
	require.Equal(t, "new", a.Albums()[0].CoverURL)

	_, ok = a.FindTrack("1")
	require.False(t, ok)
}

func TestAggregatorAllTracks(t *testing.T) {
	a := NewAggregator()
	a.SetCloud([]model.Track{tr("c", "A", "P")})
	a.SetLocal([]model.Track{tr("l", "B", "Q")})
	a.SetPublic([]model.Track{tr("p", "C", "R")})
	require.Equal(t, []string{"c", "l"}, ids(a.AllTracks()))
}
