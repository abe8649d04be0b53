package audio

import (
	"sync"
)

// SilentEngine tracks transport state without an output device.
// Loads complete immediately with the duration passed to NewSilentEngine's probe.
type SilentEngine struct {
	mu       sync.Mutex
	listener Listener
	token    uint64
	loaded   bool
	playing  bool
	position float64
	volume   float64
	probe    func(source string) float64
}

// NewSilentEngine creates a silent engine. probe may be nil, durations are then unknown.
func NewSilentEngine(probe func(source string) float64) *SilentEngine {
	return &SilentEngine{listener: nopListener{}, volume: 1, probe: probe}
}

// SetListener implements Engine.
func (e *SilentEngine) SetListener(l Listener) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if l == nil {
		l = nopListener{}
	}
	e.listener = l
}

// Load implements Engine.
func (e *SilentEngine) Load(token uint64, source string) error {
	e.mu.Lock()
	e.token = token
	e.loaded = true
	e.position = 0
	listener, probe := e.listener, e.probe
	e.mu.Unlock()

	var duration float64
	if probe != nil {
		duration = probe(source)
	}
	listener.OnLoadedMetadata(token, duration)
	return nil
}

// Play implements Engine.
func (e *SilentEngine) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return ErrNoSource
	}
	e.playing = true
	return nil
}

// Pause implements Engine.
func (e *SilentEngine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playing = false
	return nil
}

// Seek implements Engine.
func (e *SilentEngine) Seek(seconds float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.loaded {
		return ErrNoSource
	}
	if seconds < 0 {
		seconds = 0
	}
	e.position = seconds
	return nil
}

// SetVolume implements Engine.
func (e *SilentEngine) SetVolume(volume float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.volume = ClampVolume(volume)
	return nil
}

// Close implements Engine.
func (e *SilentEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loaded = false
	e.playing = false
	return nil
}

// Playing reports whether Play was the last transport call.
func (e *SilentEngine) Playing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

// Position returns the last seek target.
func (e *SilentEngine) Position() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position
}

// Finish simulates the end of the loaded source.
func (e *SilentEngine) Finish() {
	e.mu.Lock()
	token, listener := e.token, e.listener
	e.playing = false
	e.mu.Unlock()
	listener.OnEnded(token)
}
