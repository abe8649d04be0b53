package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/wav"
)

// maxSourceBytes 单个音频文件读入内存的上限
const maxSourceBytes = 200 << 20

// ReadSource reads a local path or an http(s) URL fully into memory.
func ReadSource(ctx context.Context, source string) ([]byte, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", source, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("failed to fetch %s: status %d", source, resp.StatusCode)
		}
		return io.ReadAll(io.LimitReader(resp.Body, maxSourceBytes))
	}

	f, err := os.Open(strings.TrimPrefix(source, "file://"))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxSourceBytes))
}

// Decode decodes in-memory audio data of the given format.
func Decode(data []byte, format Format) (beep.StreamSeekCloser, beep.Format, error) {
	rc := nopCloser{bytes.NewReader(data)}
	switch format {
	case FormatMP3:
		return mp3.Decode(rc)
	case FormatWAV:
		return wav.Decode(rc)
	}
	return nil, beep.Format{}, ErrUnsupportedFormat
}

// ProbeDuration returns the playing time of an mp3 or wav payload.
func ProbeDuration(data []byte, format Format) (time.Duration, error) {
	streamer, f, err := Decode(data, format)
	if err != nil {
		return 0, fmt.Errorf("failed to decode audio: %w", err)
	}
	defer streamer.Close()
	return f.SampleRate.D(streamer.Len()), nil
}

// nopCloser wraps a bytes.Reader to implement io.ReadCloser.
type nopCloser struct {
	*bytes.Reader
}

func (nopCloser) Close() error { return nil }
