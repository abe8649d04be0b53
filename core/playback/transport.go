package playback

import (
	"sync"

	"Zenith/core/audio"
	"Zenith/logger"
)

// SeekStep 快进/快退步长（秒）
const SeekStep = 10

// Transport drives an audio engine from session changes and feeds
// engine events back into the session.
type Transport struct {
	session *Session
	engine  audio.Engine

	// engineMu serializes engine calls, mu guards the fields below.
	engineMu sync.Mutex
	mu       sync.Mutex

	token    uint64 // token of the load currently requested
	loadedID string
	position float64
	duration float64
	volume   float64
	muted    bool
}

// NewTransport binds engine to session.
func NewTransport(session *Session, engine audio.Engine) *Transport {
	t := &Transport{session: session, engine: engine, volume: 1}
	engine.SetListener(t)
	session.Subscribe(t.handle)
	return t
}

func (t *Transport) handle(ch Change) {
	t.engineMu.Lock()
	defer t.engineMu.Unlock()

	track := ch.Snapshot.CurrentTrack
	if track == nil {
		t.mu.Lock()
		t.loadedID = ""
		t.token++ // drop events of whatever was loaded
		t.position, t.duration = 0, 0
		t.mu.Unlock()
		t.call("pause", t.engine.Pause)
		return
	}

	t.mu.Lock()
	load := track.ID != t.loadedID
	var token uint64
	if load {
		t.token++
		token = t.token
		t.loadedID = track.ID
		t.position = 0
		t.duration = float64(track.Duration)
	} else if ch.Restart {
		t.position = 0
	}
	t.mu.Unlock()

	if load {
		if err := t.engine.Load(token, track.AudioURL); err != nil {
			logger.Warn("加载音频失败", logger.String("trackId", track.ID), logger.ErrorField(err))
		}
	} else if ch.Restart {
		t.call("seek", func() error { return t.engine.Seek(0) })
	}

	if ch.Snapshot.IsPlaying {
		t.call("play", t.engine.Play)
	} else {
		t.call("pause", t.engine.Pause)
	}
}

// call runs an engine operation. Failures are logged and never reach the session.
func (t *Transport) call(op string, fn func() error) {
	if err := fn(); err != nil {
		logger.Warn("音频引擎调用失败", logger.String("op", op), logger.ErrorField(err))
	}
}

func (t *Transport) current(token uint64) bool {
	return token == t.token && t.loadedID != ""
}

// OnLoadedMetadata implements audio.Listener.
func (t *Transport) OnLoadedMetadata(token uint64, duration float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.current(token) {
		logger.Debug("忽略过期的元数据", logger.Uint64("token", token))
		return
	}
	if duration > 0 {
		t.duration = duration
	}
}

// OnTimeUpdate implements audio.Listener.
func (t *Transport) OnTimeUpdate(token uint64, seconds float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current(token) {
		t.position = seconds
	}
}

// OnEnded implements audio.Listener.
func (t *Transport) OnEnded(token uint64) {
	t.mu.Lock()
	ok := t.current(token)
	t.mu.Unlock()
	if ok {
		t.session.TrackEnded()
	}
}

// Seek moves the playhead, clamped to the known duration.
func (t *Transport) Seek(seconds float64) {
	t.mu.Lock()
	if seconds < 0 {
		seconds = 0
	}
	if t.duration > 0 && seconds > t.duration {
		seconds = t.duration
	}
	t.position = seconds
	t.mu.Unlock()

	t.engineMu.Lock()
	defer t.engineMu.Unlock()
	t.call("seek", func() error { return t.engine.Seek(seconds) })
}

// SeekBy moves the playhead relative to the current position.
func (t *Transport) SeekBy(delta float64) {
	t.Seek(t.Position() + delta)
}

// SetVolume sets the output level (0..1) and unmutes.
func (t *Transport) SetVolume(v float64) {
	t.mu.Lock()
	t.volume = audio.ClampVolume(v)
	t.muted = false
	level := t.volume
	t.mu.Unlock()
	t.applyVolume(level)
}

// ToggleMute silences output without losing the volume level.
func (t *Transport) ToggleMute() {
	t.mu.Lock()
	t.muted = !t.muted
	level := t.volume
	if t.muted {
		level = 0
	}
	t.mu.Unlock()
	t.applyVolume(level)
}

func (t *Transport) applyVolume(level float64) {
	t.engineMu.Lock()
	defer t.engineMu.Unlock()
	t.call("volume", func() error { return t.engine.SetVolume(level) })
}

// Position returns the last reported playhead in seconds.
func (t *Transport) Position() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.position
}

// Duration returns the duration of the loaded track in seconds, 0 if unknown.
func (t *Transport) Duration() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.duration
}

// Volume returns the configured level and whether output is muted.
func (t *Transport) Volume() (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.volume, t.muted
}

// Token returns the token of the current load request.
func (t *Transport) Token() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.token
}

// Close releases the engine.
func (t *Transport) Close() error {
	t.engineMu.Lock()
	defer t.engineMu.Unlock()
	return t.engine.Close()
}

var _ audio.Listener = (*Transport)(nil)
