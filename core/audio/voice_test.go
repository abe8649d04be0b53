package audio

import (
	"testing"

	"github.com/gopxl/beep/v2"
	"github.com/stretchr/testify/require"
)

// tone is a constant-level source of n frames.
type tone struct {
	pos, n int
}

func (t *tone) Stream(samples [][2]float64) (int, bool) {
	if t.pos >= t.n {
		return 0, false
	}
	k := min(len(samples), t.n-t.pos)
	for i := range samples[:k] {
		samples[i] = [2]float64{0.5, 0.5}
	}
	t.pos += k
	return k, true
}

func (t *tone) Err() error    { return nil }
func (t *tone) Len() int      { return t.n }
func (t *tone) Position() int { return t.pos }
func (t *tone) Close() error  { return nil }

func (t *tone) Seek(p int) error {
	t.pos = p
	return nil
}

var toneFormat = beep.Format{SampleRate: 44100, NumChannels: 2, Precision: 2}

// pull streams n frames from m and counts the audible ones.
func pull(m *beep.Mixer, n int) int {
	buf := make([][2]float64, 512)
	audible := 0
	for n > 0 {
		k := min(n, len(buf))
		m.Stream(buf[:k])
		for _, s := range buf[:k] {
			if s[0] != 0 || s[1] != 0 {
				audible++
			}
		}
		n -= k
	}
	return audible
}

func TestVoicePlaysAgainAfterDrain(t *testing.T) {
	v := newVoice(&tone{n: 2000}, toneFormat, toneFormat.SampleRate, 1, false)
	var mixer beep.Mixer
	ended := 0
	onEnd := func() { ended++ }

	mixer.Add(v.stream(onEnd))
	require.NotZero(t, pull(&mixer, 8000))
	require.Equal(t, 1, ended)
	require.Zero(t, mixer.Len())

	rearm, err := v.seek(0)
	require.NoError(t, err)
	require.True(t, rearm)
	require.Zero(t, v.position())

	mixer.Add(v.stream(onEnd))
	require.NotZero(t, pull(&mixer, 1000), "rewound voice is audible")
	pull(&mixer, 8000)
	require.Equal(t, 2, ended)
}

func TestVoiceSeekWhileStreaming(t *testing.T) {
	v := newVoice(&tone{n: 44100}, toneFormat, toneFormat.SampleRate, 1, false)
	var mixer beep.Mixer
	mixer.Add(v.stream(func() {}))
	pull(&mixer, 1000)

	rearm, err := v.seek(0.5)
	require.NoError(t, err)
	require.False(t, rearm)
	require.Equal(t, 1, mixer.Len())
	require.InDelta(t, 0.5, v.position(), 0.001)

	// past the end clamps to the last frame
	_, err = v.seek(10)
	require.NoError(t, err)
	require.Equal(t, 44099, v.source.Position())
}

func TestVoiceKeepsPauseAndLevelAcrossRebuild(t *testing.T) {
	v := newVoice(&tone{n: 100}, toneFormat, toneFormat.SampleRate, 0, false)
	var mixer beep.Mixer
	mixer.Add(v.stream(func() {}))
	require.Zero(t, pull(&mixer, 1000), "zero level is silent")

	v.setPaused(true)
	rearm, err := v.seek(0)
	require.NoError(t, err)
	require.True(t, rearm)
	require.True(t, v.ctrl.Paused)
	require.True(t, v.volume.Silent)
}
