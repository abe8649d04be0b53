package playback

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"Zenith/core/audio"
	"Zenith/model"

	"github.com/stretchr/testify/require"
)

// fakeEngine records transport calls and lets tests fire events by hand.
type fakeEngine struct {
	mu       sync.Mutex
	listener audio.Listener
	calls    []string
	loads    []uint64
	sources  []string
	volume   float64
	playErr  error
}

func (f *fakeEngine) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeEngine) Load(token uint64, source string) error {
	f.mu.Lock()
	f.loads = append(f.loads, token)
	f.sources = append(f.sources, source)
	f.mu.Unlock()
	f.record("load")
	return nil
}

func (f *fakeEngine) Play() error {
	f.record("play")
	return f.playErr
}

func (f *fakeEngine) Pause() error {
	f.record("pause")
	return nil
}

func (f *fakeEngine) Seek(seconds float64) error {
	if seconds == 0 {
		f.record("seek0")
	} else {
		f.record("seek")
	}
	return nil
}

func (f *fakeEngine) SetVolume(v float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volume = v
	return nil
}

func (f *fakeEngine) SetListener(l audio.Listener) { f.listener = l }
func (f *fakeEngine) Close() error                 { return nil }

func (f *fakeEngine) lastCalls(n int) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) < n {
		n = len(f.calls)
	}
	return append([]string{}, f.calls[len(f.calls)-n:]...)
}

func (f *fakeEngine) tokens() []uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint64{}, f.loads...)
}

func newTestTransport(t *testing.T, ids ...string) (*Session, *Transport, *fakeEngine) {
	t.Helper()
	s, _, _ := newTestSession(t, ids...)
	eng := &fakeEngine{}
	tr := NewTransport(s, eng)
	return s, tr, eng
}

func TestTransportLoadsAndPlays(t *testing.T) {
	s, tr, eng := newTestTransport(t, "a", "b")

	s.Play(track("a"))
	require.Equal(t, []string{"load", "play"}, eng.lastCalls(2))
	require.Equal(t, []string{"a.mp3"}, eng.sources)

	s.TogglePlay()
	require.Equal(t, []string{"pause"}, eng.lastCalls(1))
	require.Len(t, eng.tokens(), 1, "toggling does not reload")
	require.Equal(t, tr.Token(), eng.tokens()[0])
}

func TestTransportIgnoresStaleMetadata(t *testing.T) {
	s, tr, eng := newTestTransport(t, "a", "b")

	s.Play(track("a"))
	stale := eng.tokens()[0]
	s.Play(track("b"))
	fresh := eng.tokens()[1]
	require.NotEqual(t, stale, fresh)

	eng.listener.OnLoadedMetadata(stale, 999)
	require.Zero(t, tr.Duration())

	eng.listener.OnLoadedMetadata(fresh, 180)
	require.Equal(t, 180.0, tr.Duration())

	eng.listener.OnTimeUpdate(stale, 50)
	require.Zero(t, tr.Position())
	eng.listener.OnTimeUpdate(fresh, 12)
	require.Equal(t, 12.0, tr.Position())
}

func TestTransportEndedAdvancesSession(t *testing.T) {
	s, _, eng := newTestTransport(t, "a", "b")
	s.Play(track("a"))
	stale := eng.tokens()[0]

	eng.listener.OnEnded(stale)
	require.Equal(t, "b", currentID(s))

	// the end of "a" arriving late must not skip "b"
	eng.listener.OnEnded(stale)
	require.Equal(t, "b", currentID(s))
}

func TestTransportRepeatOneSeeksToZero(t *testing.T) {
	s, _, eng := newTestTransport(t, "a")
	s.SetRepeat("one")
	s.Play(track("a"))

	eng.listener.OnEnded(eng.tokens()[0])
	require.Equal(t, []string{"seek0", "play"}, eng.lastCalls(2))
	require.Len(t, eng.tokens(), 1)
}

func TestTransportStopPausesAndDropsEvents(t *testing.T) {
	s, tr, eng := newTestTransport(t, "a")
	s.Play(track("a"))
	tok := eng.tokens()[0]

	s.Stop()
	require.Equal(t, []string{"pause"}, eng.lastCalls(1))

	eng.listener.OnEnded(tok)
	require.Equal(t, StateIdle, s.State())
	require.Zero(t, tr.Duration())
}

func TestTransportEngineErrorKeepsRequestedState(t *testing.T) {
	s, _, eng := newTestTransport(t, "a")
	eng.playErr = errors.New("autoplay blocked")

	s.Play(track("a"))
	require.True(t, s.IsPlaying())
}

func TestTransportVolumeAndSeek(t *testing.T) {
	s, tr, eng := newTestTransport(t, "a")
	a := track("a")
	a.Duration = 100
	s.Play(a)

	tr.SetVolume(1.5)
	v, muted := tr.Volume()
	require.Equal(t, 1.0, v)
	require.False(t, muted)

	tr.ToggleMute()
	require.Zero(t, eng.volume)
	tr.ToggleMute()
	require.Equal(t, 1.0, eng.volume)

	tr.Seek(95)
	tr.SeekBy(SeekStep)
	require.Equal(t, 100.0, tr.Position())
	tr.SeekBy(-200)
	require.Zero(t, tr.Position())
}

func TestTransportWithSilentEngine(t *testing.T) {
	s, _, _ := newTestSession(t, "a", "b")
	eng := audio.NewSilentEngine(func(string) float64 { return 42 })
	tr := NewTransport(s, eng)

	s.Play(track("a"))
	require.Equal(t, 42.0, tr.Duration())
	require.True(t, eng.Playing())

	eng.Finish()
	require.Equal(t, "b", currentID(s))
}

func TestTransportRepeatAllSingleTrackRewinds(t *testing.T) {
	for _, shuffle := range []bool{false, true} {
		t.Run(fmt.Sprintf("shuffle=%v", shuffle), func(t *testing.T) {
			s, _, eng := newTestTransport(t, "a")
			s.SetRepeat(model.RepeatAll)
			s.SetShuffle(shuffle)
			s.Play(track("a"))

			eng.listener.OnEnded(eng.tokens()[0])
			require.True(t, s.IsPlaying())
			require.Equal(t, []string{"seek0", "play"}, eng.lastCalls(2))
			require.Len(t, eng.tokens(), 1)
		})
	}
}
