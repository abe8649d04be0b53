package playback

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"

	"Zenith/model"

	"github.com/stretchr/testify/require"
)

type staticCollection struct {
	mu     sync.Mutex
	tracks []model.Track
}

func (c *staticCollection) ActiveCollection() model.Collection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.Collection{ID: "test", Tracks: c.tracks}
}

func (c *staticCollection) set(tracks ...model.Track) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tracks = tracks
}

func track(id string) model.Track {
	return model.Track{ID: id, Title: "Song " + id, Artist: "Artist", Album: "Album", AudioURL: id + ".mp3"}
}

func tracks(ids ...string) []model.Track {
	out := make([]model.Track, len(ids))
	for i, id := range ids {
		out[i] = track(id)
	}
	return out
}

func newTestSession(t *testing.T, ids ...string) (*Session, *staticCollection, *[]model.Notice) {
	t.Helper()
	coll := &staticCollection{tracks: tracks(ids...)}
	var notices []model.Notice
	s := NewSession(coll,
		WithRand(rand.New(rand.NewSource(1))),
		WithNotifier(func(n model.Notice) { notices = append(notices, n) }),
	)
	return s, coll, &notices
}

func currentID(s *Session) string {
	if c := s.Current(); c != nil {
		return c.ID
	}
	return ""
}

func recentIDs(r *Recent) []string {
	var ids []string
	for _, t := range r.Tracks() {
		ids = append(ids, t.ID)
	}
	return ids
}

func TestPlayNewTrackStartsAndRecords(t *testing.T) {
	s, _, _ := newTestSession(t, "a", "b")

	s.Play(track("a"))

	require.Equal(t, "a", currentID(s))
	require.True(t, s.IsPlaying())
	require.Equal(t, StatePlaying, s.State())
	require.Equal(t, []string{"a"}, recentIDs(s.Recent()))
}

func TestPlayCurrentTrackTogglesWithoutRecording(t *testing.T) {
	s, _, _ := newTestSession(t, "a")
	s.Play(track("a"))

	s.Play(track("a"))
	require.False(t, s.IsPlaying())
	require.Equal(t, StatePaused, s.State())

	s.Play(track("a"))
	require.True(t, s.IsPlaying())
	require.Equal(t, []string{"a"}, recentIDs(s.Recent()))
}

func TestTogglePlayWithoutTrackIsNoop(t *testing.T) {
	s, _, _ := newTestSession(t, "a")
	s.TogglePlay()
	require.False(t, s.IsPlaying())
	require.Equal(t, StateIdle, s.State())
}

func TestNextStopsAtEndWithRepeatOff(t *testing.T) {
	for _, n := range []int{1, 2, 5} {
		t.Run(fmt.Sprintf("len=%d", n), func(t *testing.T) {
			ids := make([]string, n)
			for i := range ids {
				ids[i] = fmt.Sprintf("t%d", i)
			}
			s, _, _ := newTestSession(t, ids...)
			s.Play(track(ids[0]))

			for i := 1; i < n; i++ {
				s.Next()
				require.Equal(t, ids[i], currentID(s))
				require.True(t, s.IsPlaying())
			}

			s.Next()
			require.False(t, s.IsPlaying())
			require.Equal(t, ids[n-1], currentID(s), "wrap with repeat off keeps the last track")
		})
	}
}

func TestNextRepeatAllCycles(t *testing.T) {
	s, _, _ := newTestSession(t, "a", "b", "c")
	s.SetRepeat(model.RepeatAll)
	s.Play(track("a"))

	var seen []string
	for i := 0; i < 6; i++ {
		s.Next()
		seen = append(seen, currentID(s))
		require.True(t, s.IsPlaying())
	}
	require.Equal(t, []string{"b", "c", "a", "b", "c", "a"}, seen)
}

func TestNextWithUnknownCurrentJumpsToFirst(t *testing.T) {
	s, _, _ := newTestSession(t, "a", "b")
	s.Play(track("zz"))

	s.Next()
	require.Equal(t, "a", currentID(s))
	require.True(t, s.IsPlaying())
}

func TestNextOnEmptyCollectionIsNoop(t *testing.T) {
	s, _, _ := newTestSession(t)
	s.Next()
	require.Equal(t, StateIdle, s.State())
}

func TestQueueTakesPriority(t *testing.T) {
	s, _, _ := newTestSession(t, "a", "x", "y")
	s.SetShuffle(true)
	s.SetRepeat(model.RepeatOne)
	s.Play(track("a"))
	s.Queue().Add(track("b"))
	s.Queue().Add(track("c"))

	s.Next()
	require.Equal(t, "b", currentID(s))
	require.True(t, s.IsPlaying())

	s.Next()
	require.Equal(t, "c", currentID(s))
	require.Equal(t, 0, s.Queue().Len())
	require.Equal(t, []string{"c", "b", "a"}, recentIDs(s.Recent()))
}

func TestShuffleNeverRepeatsCurrent(t *testing.T) {
	s, _, _ := newTestSession(t, "a", "b", "c", "d")
	s.SetShuffle(true)
	s.Play(track("a"))

	for i := 0; i < 50; i++ {
		before := currentID(s)
		s.Next()
		require.NotEqual(t, before, currentID(s))
		require.True(t, s.IsPlaying())
	}
}

func TestShuffleSingleTrack(t *testing.T) {
	tests := []struct {
		name        string
		repeat      model.RepeatMode
		wantPlaying bool
		wantRestart bool
	}{
		{name: "repeat all replays", repeat: model.RepeatAll, wantPlaying: true, wantRestart: true},
		{name: "repeat off is a no-op", repeat: model.RepeatOff, wantPlaying: false, wantRestart: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, _ := newTestSession(t, "a")
			s.SetShuffle(true)
			s.SetRepeat(tt.repeat)
			s.Play(track("a"))
			s.Pause()

			var changes []Change
			s.Subscribe(func(c Change) { changes = append(changes, c) })
			s.Next()

			require.Equal(t, "a", currentID(s))
			require.Equal(t, tt.wantPlaying, s.IsPlaying())
			if tt.wantRestart {
				require.Len(t, changes, 1)
				require.True(t, changes[0].Restart)
			} else {
				require.Empty(t, changes)
			}
		})
	}
}

func TestPreviousWrapsAndSkipsQueue(t *testing.T) {
	s, _, _ := newTestSession(t, "a", "b", "c")
	s.Play(track("a"))
	s.Queue().Add(track("q"))

	s.Previous()
	require.Equal(t, "c", currentID(s))
	require.True(t, s.IsPlaying())
	require.Equal(t, 1, s.Queue().Len())
	require.Equal(t, []string{"a"}, recentIDs(s.Recent()), "previous does not record")
}

func TestPreviousUnknownCurrentIsNoop(t *testing.T) {
	s, _, _ := newTestSession(t, "a", "b")
	s.Previous()
	require.Equal(t, StateIdle, s.State())
}

func TestTrackEndedRepeatOneRestarts(t *testing.T) {
	s, _, _ := newTestSession(t, "a", "b")
	s.SetRepeat(model.RepeatOne)
	s.Play(track("a"))

	var changes []Change
	s.Subscribe(func(c Change) { changes = append(changes, c) })
	s.TrackEnded()

	require.Equal(t, "a", currentID(s))
	require.True(t, s.IsPlaying())
	require.Len(t, changes, 1)
	require.True(t, changes[0].Restart)
}

func TestTrackEndedAdvances(t *testing.T) {
	s, _, _ := newTestSession(t, "a", "b")
	s.Play(track("a"))
	s.TrackEnded()
	require.Equal(t, "b", currentID(s))
}

func TestTrackRemovedCurrentReturnsToIdle(t *testing.T) {
	s, _, _ := newTestSession(t, "a", "b")
	s.Play(track("a"))
	s.Queue().Add(track("a"))
	s.Queue().Add(track("b"))

	s.TrackRemoved("a")

	require.Equal(t, StateIdle, s.State())
	require.Nil(t, s.Current())
	require.False(t, s.IsPlaying())
	require.Equal(t, []model.Track{track("b")}, s.Queue().Tracks())
	require.Empty(t, s.Recent().Tracks())
}

func TestTrackRemovedOtherKeepsPlaying(t *testing.T) {
	s, _, _ := newTestSession(t, "a", "b")
	s.Play(track("a"))
	s.TrackRemoved("b")
	require.Equal(t, StatePlaying, s.State())
}

func TestFlagNotifications(t *testing.T) {
	s, _, notices := newTestSession(t, "a")

	s.SetShuffle(true)
	s.SetShuffle(false)
	s.CycleRepeat()
	s.CycleRepeat()
	s.CycleRepeat()

	var msgs []string
	for _, n := range *notices {
		msgs = append(msgs, n.Message)
	}
	require.Equal(t, []string{"Shuffle on", "Shuffle off", "Repeat all", "Repeat one", "Repeat off"}, msgs)
	require.Equal(t, model.RepeatOff, s.Repeat())
}

func TestApplyRemoteOnlyWhenDifferent(t *testing.T) {
	s, _, _ := newTestSession(t, "a")
	a := track("a")

	var changes []Change
	s.Subscribe(func(c Change) { changes = append(changes, c) })

	require.True(t, s.ApplyRemote(model.Snapshot{CurrentTrack: &a, IsPlaying: true}))
	require.False(t, s.ApplyRemote(model.Snapshot{CurrentTrack: &a, IsPlaying: true}))
	require.Len(t, changes, 1)
	require.True(t, changes[0].Remote)

	require.True(t, s.ApplyRemote(model.Snapshot{}))
	require.Equal(t, StateIdle, s.State())
	require.Empty(t, s.Recent().Tracks(), "remote updates are not recorded")
}

func TestApplyRemotePlayingWithoutTrack(t *testing.T) {
	s, _, _ := newTestSession(t, "a")
	s.ApplyRemote(model.Snapshot{IsPlaying: true})
	require.False(t, s.IsPlaying())
}

func TestRefreshCurrent(t *testing.T) {
	s, _, _ := newTestSession(t, "a")
	s.Play(track("a"))

	edited := track("a")
	edited.CoverURL = "new.jpg"
	s.RefreshCurrent(edited)
	require.Equal(t, "new.jpg", s.Current().CoverURL)

	s.RefreshCurrent(track("b"))
	require.Equal(t, "a", currentID(s))
}

func TestListenerMayReenterSession(t *testing.T) {
	s, _, _ := newTestSession(t, "a", "b")
	s.Subscribe(func(c Change) {
		_ = s.Snapshot()
	})
	s.Play(track("a"))
	require.True(t, s.IsPlaying())
}

func TestListenerMutationIsDeliveredAfterCurrentChange(t *testing.T) {
	s, _, _ := newTestSession(t, "a", "b")
	var seen []string
	s.Subscribe(func(c Change) {
		seen = append(seen, fmt.Sprintf("%s:%v", c.Snapshot.CurrentTrack.ID, c.Snapshot.IsPlaying))
		if c.Snapshot.IsPlaying && c.Snapshot.CurrentTrack.ID == "a" {
			s.Next()
		}
	})
	s.Subscribe(func(c Change) {
		seen = append(seen, "second:"+c.Snapshot.CurrentTrack.ID)
	})

	s.Play(track("a"))
	require.Equal(t, []string{"a:true", "second:a", "b:true", "second:b"}, seen)
}

func TestChangesAreDeliveredInMutationOrder(t *testing.T) {
	s, _, _ := newTestSession(t, "a", "b")
	gate := make(chan struct{})
	entered := make(chan struct{})
	var once sync.Once
	var mu sync.Mutex
	var seen []bool
	s.Subscribe(func(c Change) {
		once.Do(func() {
			close(entered)
			<-gate
		})
		mu.Lock()
		seen = append(seen, c.Snapshot.IsPlaying)
		mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		s.Play(track("a"))
		close(done)
	}()
	<-entered

	// the pause is queued behind the play that is still being delivered
	s.Pause()
	close(gate)
	<-done

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []bool{true, false}, seen)
	require.False(t, s.IsPlaying())
}
