package playback

import (
	"math/rand"
	"sync"
	"time"

	"Zenith/logger"
	"Zenith/model"

	"github.com/samber/lo"
)

// State 播放会话状态
type State string

const (
	StateIdle    State = "idle"
	StatePlaying State = "playing"
	StatePaused  State = "paused"
)

// CollectionSource yields the collection the session advances through.
type CollectionSource interface {
	ActiveCollection() model.Collection
}

// Change is delivered to subscribers after every observable session mutation.
type Change struct {
	Snapshot model.Snapshot
	Shuffle  bool
	Repeat   model.RepeatMode
	// Restart asks the audio side to rewind the current track to zero.
	Restart bool
	// Remote is set when the change came from another surface.
	Remote bool
}

// Option configures a Session.
type Option func(*Session)

// WithRand sets the random source used by shuffle.
func WithRand(r *rand.Rand) Option {
	return func(s *Session) { s.rng = r }
}

// WithNotifier sets the receiver of user-facing notices.
func WithNotifier(n model.Notifier) Option {
	return func(s *Session) { s.notifier = n }
}

// WithQueue replaces the default empty queue.
func WithQueue(q *Queue) Option {
	return func(s *Session) { s.queue = q }
}

// WithRecent sets the recently played history.
func WithRecent(r *Recent) Option {
	return func(s *Session) { s.recent = r }
}

// Session is the playback state machine of one surface.
// Mutations are serialized by mu. Subscribers run after it is released, one
// change at a time and in the order the mutations happened.
type Session struct {
	mu sync.Mutex

	collections CollectionSource
	queue       *Queue
	recent      *Recent
	notifier    model.Notifier
	rng         *rand.Rand

	current *model.Track
	playing bool
	shuffle bool
	repeat  model.RepeatMode

	listeners []func(Change)

	// dispatchMu guards the fields below. Lock order is mu, then dispatchMu.
	dispatchMu  sync.Mutex
	pending     []delivery
	dispatching bool
}

type delivery struct {
	change    Change
	listeners []func(Change)
}

// effect collects what an operation needs done once the lock is released.
type effect struct {
	restart bool
	record  *model.Track
	force   bool // emit even if the snapshot is unchanged
	remote  bool
	notice  string
}

// NewSession creates an idle session advancing through collections.
func NewSession(collections CollectionSource, opts ...Option) *Session {
	s := &Session{
		collections: collections,
		repeat:      model.RepeatOff,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.queue == nil {
		s.queue = NewQueue(s.notifier)
	}
	if s.recent == nil {
		s.recent = NewRecent(nil)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s
}

// Queue returns the session's queue.
func (s *Session) Queue() *Queue { return s.queue }

// Recent returns the recently played history.
func (s *Session) Recent() *Recent { return s.recent }

// Subscribe registers fn for every subsequent change.
func (s *Session) Subscribe(fn func(Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Session) snapshotLocked() model.Snapshot {
	return model.Snapshot{CurrentTrack: s.current.Clone(), IsPlaying: s.playing}
}

func (s *Session) changeLocked(eff effect) Change {
	return Change{
		Snapshot: s.snapshotLocked(),
		Shuffle:  s.shuffle,
		Repeat:   s.repeat,
		Restart:  eff.restart,
		Remote:   eff.remote,
	}
}

// update runs fn under the lock and then performs its deferred effects.
// The change is queued while mu is still held so deliveries keep the order
// of the mutations. If another goroutine is delivering, it delivers this one
// too and update returns without waiting.
func (s *Session) update(fn func() effect) {
	s.mu.Lock()
	before := s.snapshotLocked()
	eff := fn()
	if s.current == nil {
		s.playing = false
	}
	ch := s.changeLocked(eff)
	emit := eff.force || eff.restart || ch.Snapshot.Differs(before)
	if emit {
		s.dispatchMu.Lock()
		s.pending = append(s.pending, delivery{change: ch, listeners: append([]func(Change){}, s.listeners...)})
		s.dispatchMu.Unlock()
	}
	s.mu.Unlock()

	if eff.record != nil {
		s.recent.Record(*eff.record)
	}
	if eff.notice != "" {
		s.notifier.Notify(model.NoticeInfo, eff.notice)
	}
	if emit {
		s.deliver()
	}
}

// deliver drains pending changes. A listener that mutates the session queues
// its change behind the current one instead of running it re-entrantly.
func (s *Session) deliver() {
	s.dispatchMu.Lock()
	if s.dispatching {
		s.dispatchMu.Unlock()
		return
	}
	s.dispatching = true
	for len(s.pending) > 0 {
		d := s.pending[0]
		s.pending = s.pending[1:]
		s.dispatchMu.Unlock()
		for _, fn := range d.listeners {
			fn(d.change)
		}
		s.dispatchMu.Lock()
	}
	s.dispatching = false
	s.dispatchMu.Unlock()
}

// startLocked makes t current and playing.
func (s *Session) startLocked(t model.Track, record bool) effect {
	eff := effect{restart: s.current.SameAs(&t)}
	s.current = t.Clone()
	s.playing = true
	if record {
		rec := t
		eff.record = &rec
	}
	return eff
}

// Play starts t, or toggles playing if t is already current.
func (s *Session) Play(t model.Track) {
	s.update(func() effect {
		if s.current.SameAs(&t) {
			s.playing = !s.playing
			return effect{}
		}
		return s.startLocked(t, true)
	})
}

// TogglePlay flips the playing flag. No-op without a current track.
func (s *Session) TogglePlay() {
	s.update(func() effect {
		if s.current != nil {
			s.playing = !s.playing
		}
		return effect{}
	})
}

// Pause stops playing without clearing the current track.
func (s *Session) Pause() {
	s.update(func() effect {
		s.playing = false
		return effect{}
	})
}

// Resume sets playing if a track is loaded.
func (s *Session) Resume() {
	s.update(func() effect {
		if s.current != nil {
			s.playing = true
		}
		return effect{}
	})
}

// Stop returns to Idle.
func (s *Session) Stop() {
	s.update(func() effect {
		s.current = nil
		s.playing = false
		return effect{}
	})
}

// Next advances: queue head first, then shuffle or collection order.
func (s *Session) Next() {
	s.update(s.nextLocked)
}

func (s *Session) nextLocked() effect {
	if t, ok := s.queue.Pop(); ok {
		return s.startLocked(t, true)
	}

	tracks := s.collections.ActiveCollection().Tracks
	if len(tracks) == 0 {
		return effect{}
	}

	if s.shuffle {
		others := lo.Filter(tracks, func(t model.Track, _ int) bool { return !s.current.SameAs(&t) })
		if len(others) > 0 {
			return s.startLocked(others[s.rng.Intn(len(others))], true)
		}
		if s.repeat == model.RepeatAll && s.current != nil {
			return s.startLocked(*s.current, false)
		}
		return effect{}
	}

	i := indexOf(tracks, s.current)
	if i < 0 {
		return s.startLocked(tracks[0], true)
	}
	next := (i + 1) % len(tracks)
	if next == 0 && s.repeat == model.RepeatOff {
		s.playing = false
		return effect{}
	}
	return s.startLocked(tracks[next], true)
}

// Previous moves back one track in collection order. The queue is not consulted.
func (s *Session) Previous() {
	s.update(func() effect {
		tracks := s.collections.ActiveCollection().Tracks
		i := indexOf(tracks, s.current)
		if i < 0 {
			return effect{}
		}
		prev := (i - 1 + len(tracks)) % len(tracks)
		return s.startLocked(tracks[prev], false)
	})
}

// TrackEnded handles the end-of-track signal of the audio engine.
func (s *Session) TrackEnded() {
	s.update(func() effect {
		if s.repeat == model.RepeatOne && s.current != nil {
			s.playing = true
			return effect{restart: true}
		}
		return s.nextLocked()
	})
}

// TrackRemoved forgets a deleted track. Removing the current track returns to Idle.
func (s *Session) TrackRemoved(id string) {
	s.queue.RemoveTrack(id)
	s.recent.Remove(id)
	s.update(func() effect {
		if s.current != nil && s.current.ID == id {
			s.current = nil
			s.playing = false
		}
		return effect{}
	})
}

// RefreshCurrent replaces the metadata of the current track if t has its id.
func (s *Session) RefreshCurrent(t model.Track) {
	s.update(func() effect {
		if !s.current.SameAs(&t) {
			return effect{}
		}
		s.current = t.Clone()
		return effect{force: true}
	})
}

// SetShuffle sets the shuffle flag.
func (s *Session) SetShuffle(on bool) {
	s.update(func() effect {
		s.shuffle = on
		msg := "Shuffle off"
		if on {
			msg = "Shuffle on"
		}
		return effect{force: true, notice: msg}
	})
}

// ToggleShuffle flips the shuffle flag.
func (s *Session) ToggleShuffle() {
	s.mu.Lock()
	on := !s.shuffle
	s.mu.Unlock()
	s.SetShuffle(on)
}

// CycleRepeat moves off → all → one → off.
func (s *Session) CycleRepeat() {
	s.mu.Lock()
	mode := s.repeat.Next()
	s.mu.Unlock()
	s.SetRepeat(mode)
}

// SetRepeat sets the repeat mode. Unknown modes are ignored.
func (s *Session) SetRepeat(mode model.RepeatMode) {
	if !mode.Valid() {
		return
	}
	s.update(func() effect {
		s.repeat = mode
		return effect{force: true, notice: "Repeat " + string(mode)}
	})
}

// ApplyRemote adopts a snapshot received from another surface when it differs
// from local state on track identity or playing flag.
func (s *Session) ApplyRemote(snap model.Snapshot) bool {
	applied := false
	s.update(func() effect {
		if !snap.Differs(s.snapshotLocked()) {
			return effect{}
		}
		applied = true
		s.current = snap.CurrentTrack.Clone()
		s.playing = snap.IsPlaying && s.current != nil
		return effect{remote: true}
	})
	return applied
}

// Restore loads a persisted state without starting playback.
func (s *Session) Restore(current *model.Track, shuffle bool, repeat model.RepeatMode) {
	s.update(func() effect {
		s.current = current.Clone()
		s.playing = false
		s.shuffle = shuffle
		if repeat.Valid() {
			s.repeat = repeat
		}
		return effect{force: true}
	})
}

// Snapshot returns the shareable part of the state.
func (s *Session) Snapshot() model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Current returns a copy of the current track, nil when idle.
func (s *Session) Current() *model.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// IsPlaying reports the playing flag.
func (s *Session) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Shuffle reports the shuffle flag.
func (s *Session) Shuffle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shuffle
}

// Repeat returns the repeat mode.
func (s *Session) Repeat() model.RepeatMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repeat
}

// State derives the state machine position.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.current == nil:
		return StateIdle
	case s.playing:
		return StatePlaying
	default:
		return StatePaused
	}
}

func indexOf(tracks []model.Track, t *model.Track) int {
	if t == nil {
		return -1
	}
	_, i, ok := lo.FindIndexOf(tracks, func(x model.Track) bool { return x.ID == t.ID })
	if !ok {
		return -1
	}
	return i
}

func logSaveError(what string, err error) {
	logger.Warn("保存本地数据失败", logger.String("key", what), logger.ErrorField(err))
}
