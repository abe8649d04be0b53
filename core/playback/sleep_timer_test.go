package playback

import (
	"testing"
	"time"

	"Zenith/model"

	"github.com/stretchr/testify/require"
)

func TestSleepTimerRejectsInvalidDurations(t *testing.T) {
	s, _, _ := newTestSession(t, "a")
	timer := NewSleepTimer(s, nil)

	for _, m := range []int{0, -5, MaxSleepMinutes + 1} {
		require.ErrorIs(t, timer.Start(m), ErrInvalidDuration)
	}
	for _, m := range append([]int{1, MaxSleepMinutes}, SleepPresets...) {
		require.NoError(t, timer.Start(m))
	}
}

func TestSleepTimerCountsOnlyWhilePlaying(t *testing.T) {
	s, _, _ := newTestSession(t, "a")
	var notices []model.Notice
	timer := NewSleepTimer(s, func(n model.Notice) { notices = append(notices, n) })
	require.NoError(t, timer.Start(1))

	timer.Tick()
	require.Equal(t, time.Minute, timer.Remaining(), "idle session does not count down")

	s.Play(track("a"))
	for i := 0; i < 59; i++ {
		timer.Tick()
	}
	require.Equal(t, time.Second, timer.Remaining())
	require.True(t, s.IsPlaying())

	timer.Tick()
	require.False(t, timer.Active())
	require.False(t, s.IsPlaying())
	require.Equal(t, StatePaused, s.State())
	require.Len(t, notices, 1)
	require.Equal(t, "Sleep timer ended. Playback stopped.", notices[0].Message)
}

func TestSleepTimerCancel(t *testing.T) {
	s, _, _ := newTestSession(t, "a")
	s.Play(track("a"))
	timer := NewSleepTimer(s, nil)
	require.NoError(t, timer.Start(1))

	timer.Cancel()
	for i := 0; i < 120; i++ {
		timer.Tick()
	}
	require.True(t, s.IsPlaying())
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{in: 59 * time.Second, want: "0:59"},
		{in: 15 * time.Minute, want: "15:00"},
		{in: 90*time.Minute + 5*time.Second, want: "1:30:05"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, FormatRemaining(tt.in))
	}
}
