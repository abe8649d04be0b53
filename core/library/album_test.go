package library

import (
	"testing"

	"Zenith/model"

	"github.com/stretchr/testify/require"
)

func tr(id, album, artist string) model.Track {
	return model.Track{ID: id, Title: "T" + id, Album: album, Artist: artist, CoverURL: "cover-" + id}
}

func TestAlbumID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{in: "Abbey Road", want: "album-abbey-road"},
		{in: "  Kind   of\tBlue ", want: "album-kind-of-blue"},
		{in: "Local Files", want: "album-local-files"},
		{in: "", want: "album-"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, AlbumID(tt.in))
	}
}

func TestBuildAlbumIndexGroupsByAlbumAndArtist(t *testing.T) {
	albums := BuildAlbumIndex([]model.Track{
		tr("1", "X", "Y"),
		tr("2", "X", "Y"),
		tr("3", "X", "Z"),
	})

	require.Len(t, albums, 2)
	require.Equal(t, "album-x", albums[0].ID)
	require.Equal(t, "album-x-z", albums[1].ID)
	require.Equal(t, "Album • Y", albums[0].Description)
	require.Len(t, albums[0].Tracks, 2)
	require.Equal(t, "cover-1", albums[0].CoverURL)
	require.Equal(t, "Album • Z", albums[1].Description)
	require.Len(t, albums[1].Tracks, 1)
}

func TestBuildAlbumIndexKeepsIDsUnique(t *testing.T) {
	albums := BuildAlbumIndex([]model.Track{
		tr("1", "X", "Y"),
		tr("2", "X Z", "W"),
		tr("3", "X", "Z"),
		tr("4", "x", "z"),
	})

	require.Equal(t, []string{"album-x", "album-x-z", "album-x-z-2", "album-x-z-3"},
		[]string{albums[0].ID, albums[1].ID, albums[2].ID, albums[3].ID})
}

func TestBuildAlbumIndexDedupesAcrossSources(t *testing.T) {
	cloud := []model.Track{tr("1", "A", "P"), tr("2", "A", "P")}
	liked := []model.Track{tr("2", "A", "P"), tr("9", "B", "Q")}

	albums := BuildAlbumIndex(cloud, liked)

	require.Len(t, albums, 2)
	require.Equal(t, []string{"1", "2"}, ids(albums[0].Tracks))
	require.Equal(t, "album-b", albums[1].ID, "liked-only tracks still form an album")
}

func TestBuildAlbumIndexDeterministic(t *testing.T) {
	src := []model.Track{tr("3", "C", "R"), tr("1", "A", "P"), tr("2", "C", "R")}
	first := BuildAlbumIndex(src)
	for i := 0; i < 10; i++ {
		require.Equal(t, first, BuildAlbumIndex(src))
	}
	require.Equal(t, []string{"3", "2"}, ids(first[0].Tracks))
}

func ids(tracks []model.Track) []string {
	out := make([]string, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, t.ID)
	}
	return out
}
