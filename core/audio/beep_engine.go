//go:build (linux && cgo) || windows || darwin

package audio

import (
	"context"
	"sync"
	"time"

	"Zenith/logger"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// AudioAvailable indicates whether a real output device is compiled in.
const AudioAvailable = true

// BeepEngine plays mp3 and wav sources on the system speaker.
type BeepEngine struct {
	mu sync.Mutex

	sampleRate  beep.SampleRate
	initialized bool

	listener Listener
	token    uint64 // token of the most recent Load
	cancel   context.CancelFunc

	voice   *voice
	level   float64
	playing bool // requested state, applied once the source is decoded

	tickEvery time.Duration
	stopTick  chan struct{}
}

// NewBeepEngine creates an engine with a 44.1kHz speaker.
func NewBeepEngine() *BeepEngine {
	return &BeepEngine{
		sampleRate: beep.SampleRate(44100),
		listener:   nopListener{},
		level:      1,
		tickEvery:  250 * time.Millisecond,
	}
}

// NewEngine returns the best engine available in this build.
func NewEngine() Engine {
	return NewBeepEngine()
}

// SetListener implements Engine.
func (e *BeepEngine) SetListener(l Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if l == nil {
		l = nopListener{}
	}
	e.listener = l
}

// Load implements Engine. Decoding happens in the background.
func (e *BeepEngine) Load(token uint64, source string) error {
	format, err := DetectFormat(source)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.stopLocked()
	if e.cancel != nil {
		e.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.token = token
	e.cancel = cancel
	e.mu.Unlock()

	go e.decode(ctx, token, source, format)
	return nil
}

func (e *BeepEngine) decode(ctx context.Context, token uint64, source string, format Format) {
	data, err := ReadSource(ctx, source)
	if err != nil {
		logger.Warn("读取音频源失败", logger.String("source", source), logger.ErrorField(err))
		return
	}
	streamer, f, err := Decode(data, format)
	if err != nil {
		logger.Warn("解码音频失败", logger.String("source", source), logger.ErrorField(err))
		return
	}

	if err := e.initSpeaker(); err != nil {
		streamer.Close()
		logger.Error("初始化扬声器失败", logger.ErrorField(err))
		return
	}

	e.mu.Lock()
	if ctx.Err() != nil || token != e.token {
		e.mu.Unlock()
		streamer.Close()
		return
	}
	e.voice = newVoice(streamer, f, e.sampleRate, e.level, !e.playing)
	listener := e.listener
	duration := e.voice.duration()
	stream := e.voice.stream(e.onEnd(token))
	e.mu.Unlock()

	listener.OnLoadedMetadata(token, duration)

	speaker.Play(stream)

	e.mu.Lock()
	if e.playing {
		e.startTickerLocked(token)
	}
	e.mu.Unlock()
}

// onEnd is called by the mixer, which must not block.
func (e *BeepEngine) onEnd(token uint64) func() {
	return func() { go e.ended(token) }
}

func (e *BeepEngine) ended(token uint64) {
	e.mu.Lock()
	if token != e.token {
		e.mu.Unlock()
		return
	}
	e.stopTickerLocked()
	listener := e.listener
	e.mu.Unlock()
	listener.OnEnded(token)
}

func (e *BeepEngine) initSpeaker() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.initialized {
		return nil
	}
	if err := speaker.Init(e.sampleRate, e.sampleRate.N(time.Second/10)); err != nil {
		return err
	}
	e.initialized = true
	return nil
}

// Play implements Engine.
func (e *BeepEngine) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playing = true
	if e.voice == nil {
		return nil
	}
	speaker.Lock()
	e.voice.setPaused(false)
	speaker.Unlock()
	e.startTickerLocked(e.token)
	return nil
}

// Pause implements Engine.
func (e *BeepEngine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playing = false
	e.stopTickerLocked()
	if e.voice == nil {
		return nil
	}
	speaker.Lock()
	e.voice.setPaused(true)
	speaker.Unlock()
	return nil
}

// Seek implements Engine. Seeking a source that already played to the end
// hands it back to the speaker.
func (e *BeepEngine) Seek(seconds float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.voice == nil {
		return ErrNoSource
	}
	speaker.Lock()
	rearm, err := e.voice.seek(seconds)
	var stream beep.Streamer
	if err == nil && rearm {
		stream = e.voice.stream(e.onEnd(e.token))
	}
	speaker.Unlock()
	if err != nil {
		return err
	}
	if stream != nil {
		speaker.Play(stream)
		if e.playing {
			e.startTickerLocked(e.token)
		}
	}
	return nil
}

// SetVolume implements Engine.
func (e *BeepEngine) SetVolume(volume float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.level = ClampVolume(volume)
	if e.voice == nil {
		return nil
	}
	speaker.Lock()
	e.voice.setLevel(e.level)
	speaker.Unlock()
	return nil
}

// Close implements Engine.
func (e *BeepEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancel != nil {
		e.cancel()
	}
	e.stopLocked()
	return nil
}

func (e *BeepEngine) stopLocked() {
	e.stopTickerLocked()
	if e.voice != nil {
		speaker.Lock()
		e.voice.setPaused(true)
		speaker.Unlock()
	}
	if e.initialized {
		speaker.Clear()
	}
	if e.voice != nil {
		e.voice.close()
		e.voice = nil
	}
}

func (e *BeepEngine) startTickerLocked(token uint64) {
	if e.stopTick != nil || e.voice == nil {
		return
	}
	stop := make(chan struct{})
	e.stopTick = stop
	go func() {
		t := time.NewTicker(e.tickEvery)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				e.mu.Lock()
				if e.voice == nil || token != e.token {
					e.mu.Unlock()
					return
				}
				speaker.Lock()
				pos := e.voice.position()
				speaker.Unlock()
				listener := e.listener
				e.mu.Unlock()
				listener.OnTimeUpdate(token, pos)
			}
		}
	}()
}

func (e *BeepEngine) stopTickerLocked() {
	if e.stopTick != nil {
		close(e.stopTick)
		e.stopTick = nil
	}
}
