package local

import (
	"context"
	"fmt"
	"sort"
	"time"

	"Zenith/logger"
	"Zenith/model"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports audio files appearing in or leaving a folder.
type Watcher struct {
	Dir     string
	Scanner *Scanner
	// Settle is how long a file must stay unchanged before it is imported.
	Settle time.Duration

	OnAdded   func([]model.Track)
	OnRemoved func(id string)
}

// NewWatcher creates a watcher for dir.
func NewWatcher(dir string, scanner *Scanner, onAdded func([]model.Track), onRemoved func(string)) *Watcher {
	return &Watcher{
		Dir:       dir,
		Scanner:   scanner,
		Settle:    500 * time.Millisecond,
		OnAdded:   onAdded,
		OnRemoved: onRemoved,
	}
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("创建文件监听器失败: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.Dir); err != nil {
		return fmt.Errorf("监听目录失败: %w", err)
	}
	logger.Info("watching local music folder", logger.String("dir", w.Dir))

	// 文件稳定性检查的延迟队列
	pending := make(map[string]time.Time)
	tick := w.Settle / 4
	if tick <= 0 {
		tick = 10 * time.Millisecond
	}
	checkTicker := time.NewTicker(tick)
	defer checkTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !Supported(event.Name) {
				continue
			}
			switch {
			case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
				pending[event.Name] = time.Now()
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				delete(pending, event.Name)
				if w.OnRemoved != nil {
					w.OnRemoved(FromFile(event.Name, nil).ID)
				}
			}

		case <-checkTicker.C:
			now := time.Now()
			var ready []string
			for path, last := range pending {
				if now.Sub(last) < w.Settle {
					continue // 文件可能还在写入
				}
				ready = append(ready, path)
				delete(pending, path)
			}
			if len(ready) == 0 {
				continue
			}
			sort.Strings(ready)
			tracks, err := w.Scanner.Describe(ctx, ready)
			if err != nil {
				return nil
			}
			logger.Debug("检测到新文件", logger.Int("count", len(tracks)))
			if w.OnAdded != nil {
				w.OnAdded(tracks)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("文件监听错误", logger.ErrorField(err))
		}
	}
}
