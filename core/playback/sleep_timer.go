package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"Zenith/logger"
	"Zenith/model"
)

// MaxSleepMinutes 自定义定时上限（8小时）
const MaxSleepMinutes = 480

// SleepPresets are the durations offered without typing, in minutes.
var SleepPresets = []int{15, 30, 45, 60, 90, 120}

var ErrInvalidDuration = errors.New("sleep timer duration must be between 1 and 480 minutes")

// SleepTimer pauses the session once it has counted down.
// It only counts while the session is playing.
type SleepTimer struct {
	mu        sync.Mutex
	session   *Session
	notifier  model.Notifier
	remaining int // seconds, 0 = inactive
}

// NewSleepTimer creates an inactive timer for session.
func NewSleepTimer(session *Session, notifier model.Notifier) *SleepTimer {
	return &SleepTimer{session: session, notifier: notifier}
}

// Start arms the timer for minutes, replacing any running countdown.
func (t *SleepTimer) Start(minutes int) error {
	if minutes < 1 || minutes > MaxSleepMinutes {
		return ErrInvalidDuration
	}
	t.mu.Lock()
	t.remaining = minutes * 60
	t.mu.Unlock()
	logger.Info("睡眠定时已启动", logger.Int("minutes", minutes))
	return nil
}

// Cancel disarms the timer.
func (t *SleepTimer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.remaining = 0
}

// Active reports whether a countdown is armed.
func (t *SleepTimer) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remaining > 0
}

// Remaining returns the time left.
func (t *SleepTimer) Remaining() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return time.Duration(t.remaining) * time.Second
}

// Tick counts down one second if the session is playing and fires on expiry.
func (t *SleepTimer) Tick() {
	if !t.session.IsPlaying() {
		return
	}
	t.mu.Lock()
	if t.remaining <= 0 {
		t.mu.Unlock()
		return
	}
	t.remaining--
	expired := t.remaining == 0
	t.mu.Unlock()

	if expired {
		t.session.Pause()
		t.notifier.Notify(model.NoticeInfo, "Sleep timer ended. Playback stopped.")
		logger.Info("睡眠定时结束，已暂停播放")
	}
}

// Run calls Tick every interval until ctx is done.
func (t *SleepTimer) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.Tick()
		}
	}
}

// FormatRemaining renders d as m:ss or h:mm:ss.
func FormatRemaining(d time.Duration) string {
	secs := int(d / time.Second)
	h, m, s := secs/3600, (secs%3600)/60, secs%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
