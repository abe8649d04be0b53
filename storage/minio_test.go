package storage

import (
	"testing"

	"Zenith/config"

	"github.com/stretchr/testify/require"
)

func TestInferContentType(t *testing.T) {
	tests := map[string]string{
		"u1/song.MP3":      "audio/mpeg",
		"u1/song.wav":      "audio/wav",
		"u1/covers/a.jpeg": "image/jpeg",
		"noext":            "application/octet-stream",
	}
	for in, want := range tests {
		require.Equal(t, want, InferContentType(in), in)
	}
}

func TestFormatSize(t *testing.T) {
	require.Equal(t, "512 B", FormatSize(512))
	require.Equal(t, "1.5 KB", FormatSize(1536))
	require.Equal(t, "3.0 MB", FormatSize(3<<20))
}

func TestPublicURLRoundTrip(t *testing.T) {
	s, err := NewMinioStore(&config.Config{
		MinioEndpoint: "127.0.0.1:9000",
		MinioBucket:   "music",
		MinioRegion:   "us-east-1",
	})
	require.NoError(t, err)

	u := s.PublicURL("/u1/song.mp3")
	require.Equal(t, "http://127.0.0.1:9000/music/u1/song.mp3", u)

	key, ok := s.KeyFromURL(u)
	require.True(t, ok)
	require.Equal(t, "u1/song.mp3", key)

	_, ok = s.KeyFromURL("https://picsum.photos/seed/x/300/300")
	require.False(t, ok)
}
