package cache

import (
	"testing"
	"time"

	"Zenith/model"

	"github.com/stretchr/testify/require"
)

func TestSnapshotHashRoundTrip(t *testing.T) {
	in := model.Snapshot{
		CurrentTrack: &model.Track{ID: "t1", Title: "Blue", Artist: "A", AudioURL: "https://cdn/t1.mp3"},
		IsPlaying:    true,
	}
	fields, err := snapshotFields(in, time.UnixMilli(42))
	require.NoError(t, err)
	require.Equal(t, int64(42), fields["updated_at"])

	// redis hands every value back as a string
	hash := map[string]string{}
	for k, v := range fields {
		switch v := v.(type) {
		case string:
			hash[k] = v
		default:
			hash[k] = "42"
		}
	}
	out, err := snapshotFromHash(hash)
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestSnapshotFromHashDefaults(t *testing.T) {
	s, err := snapshotFromHash(nil)
	require.NoError(t, err)
	require.Nil(t, s.CurrentTrack)

	s, err = snapshotFromHash(map[string]string{"current_track": "", "is_playing": "true"})
	require.NoError(t, err)
	require.False(t, s.IsPlaying)

	_, err = snapshotFromHash(map[string]string{"current_track": "{broken"})
	require.Error(t, err)
}
