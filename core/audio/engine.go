package audio

import (
	"errors"
	"path/filepath"
	"strings"
)

var (
	ErrNoSource          = errors.New("no source loaded")
	ErrUnsupportedFormat = errors.New("unsupported audio format: must be mp3 or wav")
)

// Listener receives engine events. Every event carries the token passed to the
// Load that produced it, so callers can drop events of superseded loads.
type Listener interface {
	OnTimeUpdate(token uint64, seconds float64)
	OnLoadedMetadata(token uint64, duration float64)
	OnEnded(token uint64)
}

// Engine is the audio output device boundary.
// Load is asynchronous: metadata arrives through the listener.
// Seek on a source that already ended makes it playable again.
type Engine interface {
	Load(token uint64, source string) error
	Play() error
	Pause() error
	Seek(seconds float64) error
	SetVolume(volume float64) error
	SetListener(l Listener)
	Close() error
}

// Format 音频格式
type Format string

const (
	FormatMP3 Format = "mp3"
	FormatWAV Format = "wav"
)

// DetectFormat guesses the container from the file extension of a path or URL.
func DetectFormat(source string) (Format, error) {
	if i := strings.IndexAny(source, "?#"); i >= 0 {
		source = source[:i]
	}
	switch strings.ToLower(filepath.Ext(source)) {
	case ".mp3":
		return FormatMP3, nil
	case ".wav", ".wave":
		return FormatWAV, nil
	}
	return "", ErrUnsupportedFormat
}

// ClampVolume keeps v inside 0..1.
func ClampVolume(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

type nopListener struct{}

func (nopListener) OnTimeUpdate(uint64, float64)     {}
func (nopListener) OnLoadedMetadata(uint64, float64) {}
func (nopListener) OnEnded(uint64)                   {}
