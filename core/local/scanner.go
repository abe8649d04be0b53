package local

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"Zenith/core/audio"
	"Zenith/logger"
	"Zenith/model"

	"github.com/google/uuid"
)

const (
	LocalArtist = "Local Artist"
	LocalAlbum  = "Local Files"
)

// Probe returns the duration in whole seconds of the file at path, 0 if unknown.
type Probe func(path string) int

// ProbeFile decodes the file to measure it.
func ProbeFile(path string) int {
	format, err := audio.DetectFormat(path)
	if err != nil {
		return 0
	}
	data, err := audio.ReadSource(context.Background(), path)
	if err != nil {
		logger.Warn("读取本地文件失败", logger.String("path", path), logger.ErrorField(err))
		return 0
	}
	d, err := audio.ProbeDuration(data, format)
	if err != nil {
		logger.Warn("解析音频时长失败", logger.String("path", path), logger.ErrorField(err))
		return 0
	}
	return int(d.Seconds())
}

// Supported reports whether path has an extension the engine can play.
func Supported(path string) bool {
	_, err := audio.DetectFormat(path)
	return err == nil
}

// TrackID derives a stable ID from the absolute path, so rescans find the same tracks.
func TrackID(path string) string {
	return "local-" + uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+path)).String()
}

// FromFile describes the file at path as a local track.
func FromFile(path string, probe Probe) model.Track {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	id := TrackID(path)
	name := filepath.Base(path)
	t := model.Track{
		ID:       id,
		Title:    strings.TrimSuffix(name, filepath.Ext(name)),
		Artist:   LocalArtist,
		Album:    LocalAlbum,
		CoverURL: fmt.Sprintf("https://picsum.photos/seed/%s/300/300", id[:14]),
		AudioURL: path,
		IsLocal:  true,
	}
	if probe != nil {
		t.Duration = probe(path)
	}
	return t
}

// Scanner finds playable files under a folder.
type Scanner struct {
	Probe   Probe
	Workers int
}

// NewScanner creates a Scanner that decodes every file to read its duration.
func NewScanner() *Scanner {
	return &Scanner{Probe: ProbeFile, Workers: runtime.NumCPU()}
}

// Scan walks dir recursively and returns its tracks ordered by path.
func (s *Scanner) Scan(ctx context.Context, dir string) ([]model.Track, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !d.IsDir() && Supported(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("扫描目录失败: %w", err)
	}
	sort.Strings(paths)
	return s.Describe(ctx, paths)
}

// Describe builds tracks for paths on a small worker pool, keeping their order.
func (s *Scanner) Describe(ctx context.Context, paths []string) ([]model.Track, error) {
	workers := s.Workers
	if workers < 1 {
		workers = 1
	}
	out := make([]model.Track, len(paths))
	tasks := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range tasks {
				out[idx] = FromFile(paths[idx], s.Probe)
			}
		}()
	}

	var err error
feed:
	for i := range paths {
		select {
		case tasks <- i:
		case <-ctx.Done():
			err = ctx.Err()
			break feed
		}
	}
	close(tasks)
	wg.Wait()
	if err != nil {
		return nil, err
	}
	return out, nil
}
