package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
)

// voice is one decoded source and the effect chain feeding the mixer.
// Except for newVoice, methods must run with the mixer locked.
type voice struct {
	source beep.StreamSeekCloser
	format beep.Format
	rate   beep.SampleRate

	ctrl    *beep.Ctrl
	volume  *effects.Volume
	level   float64
	drained bool // the mixer has dropped the stream
}

func newVoice(source beep.StreamSeekCloser, format beep.Format, rate beep.SampleRate, level float64, paused bool) *voice {
	v := &voice{source: source, format: format, rate: rate, level: level}
	v.build(paused)
	return v
}

// build wraps the source in a fresh chain. The resampler reads ahead and
// remembers where its input ended, so a seek needs a new one.
func (v *voice) build(paused bool) {
	v.ctrl = &beep.Ctrl{Streamer: beep.Resample(4, v.format.SampleRate, v.rate, v.source), Paused: paused}
	v.volume = &effects.Volume{Streamer: v.ctrl, Base: 2}
	v.setLevel(v.level)
}

// stream returns what goes into the mixer. onEnd runs inside the mixer once
// the source has drained, so it must not block.
func (v *voice) stream(onEnd func()) beep.Streamer {
	v.drained = false
	chain := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		return v.volume.Stream(samples)
	})
	return beep.Seq(chain, beep.Callback(func() {
		v.drained = true
		onEnd()
	}))
}

// seek moves the source to seconds. It reports true when the voice had
// drained and its new stream must be handed to the mixer again.
func (v *voice) seek(seconds float64) (bool, error) {
	if seconds < 0 {
		seconds = 0
	}
	n := v.format.SampleRate.N(time.Duration(seconds * float64(time.Second)))
	if n >= v.source.Len() {
		n = v.source.Len() - 1
	}
	if n < 0 {
		n = 0
	}
	if err := v.source.Seek(n); err != nil {
		return false, err
	}
	v.build(v.ctrl.Paused)
	return v.drained, nil
}

func (v *voice) setPaused(paused bool) {
	v.ctrl.Paused = paused
}

// setLevel maps the linear 0..1 level to beep's base-2 gain.
func (v *voice) setLevel(level float64) {
	v.level = level
	if level <= 0 {
		v.volume.Silent = true
		return
	}
	v.volume.Silent = false
	v.volume.Volume = math.Log2(level)
}

func (v *voice) position() float64 {
	return v.format.SampleRate.D(v.source.Position()).Seconds()
}

func (v *voice) duration() float64 {
	return v.format.SampleRate.D(v.source.Len()).Seconds()
}

func (v *voice) close() error {
	return v.source.Close()
}
