package bridge

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"Zenith/core/playback"
	"Zenith/model"

	"github.com/stretchr/testify/require"
)

type fixedCollection []model.Track

func (c fixedCollection) ActiveCollection() model.Collection {
	return model.Collection{ID: "test", Tracks: c}
}

var library = fixedCollection{*song("a"), *song("b"), *song("c")}

func newSession() *playback.Session {
	return playback.NewSession(library, playback.WithRand(rand.New(rand.NewSource(1))))
}

func connectSurface(t *testing.T, h *Hub, opts ...SurfaceOption) (*Surface, *playback.Session) {
	t.Helper()
	p, err := Connect(h)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	s := newSession()
	return NewSurface(s, p, opts...), s
}

func trackID(s *playback.Session) string {
	if cur := s.Current(); cur != nil {
		return cur.ID
	}
	return ""
}

// converged waits until both sessions and the hub agree on want.
func converged(t *testing.T, h *Hub, want string, playing bool, sessions ...*playback.Session) {
	t.Helper()
	require.Eventually(t, func() bool {
		snap := h.Snapshot()
		if snap.CurrentTrack == nil || snap.CurrentTrack.ID != want || snap.IsPlaying != playing {
			return false
		}
		for _, s := range sessions {
			if trackID(s) != want || s.IsPlaying() != playing {
				return false
			}
		}
		return true
	}, waitFor, 10*time.Millisecond)
}

func TestSurfaceMirrorsPlayerIntoMini(t *testing.T) {
	h := startHub(t, nil)
	_, player := connectSurface(t, h, AcceptCommands())
	_, mini := connectSurface(t, h)

	player.Play(*song("a"))
	converged(t, h, "a", true, player, mini)

	// pausing from the mini window reaches the player
	mini.TogglePlay()
	converged(t, h, "a", false, player, mini)
}

func TestSurfaceCommandsRunOnThePlayerOnly(t *testing.T) {
	h := startHub(t, nil)
	_, player := connectSurface(t, h, AcceptCommands())
	miniSurface, mini := connectSurface(t, h)

	player.Play(*song("a"))
	converged(t, h, "a", true, player, mini)

	miniSurface.Command(CmdNext)
	converged(t, h, "b", true, player, mini)

	miniSurface.Command(CmdPrev)
	converged(t, h, "a", true, player, mini)

	miniSurface.Command(CmdTogglePlay)
	converged(t, h, "a", false, player, mini)

	// the mini session only ever learned about b through the bridge
	require.Empty(t, mini.Recent().Tracks())
	require.Len(t, player.Recent().Tracks(), 2)
}

func TestSurfaceConvergesAfterConcurrentChanges(t *testing.T) {
	h := startHub(t, nil)
	_, one := connectSurface(t, h)
	_, two := connectSurface(t, h)

	for i := 0; i < 20; i++ {
		one.Play(*song("a"))
		two.Play(*song("b"))
		one.Next()
		two.TogglePlay()
	}

	require.Eventually(t, func() bool {
		snap := h.Snapshot()
		return !snap.Differs(one.Snapshot()) && !snap.Differs(two.Snapshot())
	}, waitFor, 10*time.Millisecond)
}

func TestSurfacePullAdoptsSharedState(t *testing.T) {
	h := startHub(t, nil)
	_, player := connectSurface(t, h, AcceptCommands())
	player.Play(*song("c"))
	converged(t, h, "c", true, player)

	late, mini := connectSurface(t, h)
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()

	snap, err := late.Pull(ctx)
	require.NoError(t, err)
	require.Equal(t, "c", snap.CurrentTrack.ID)
	require.Equal(t, "c", trackID(mini))
	require.True(t, mini.IsPlaying())
}

func TestSurfaceWithoutPortIsLocalOnly(t *testing.T) {
	session := newSession()
	s := NewSurface(session, nil, AcceptCommands())
	require.False(t, s.Connected())

	session.Play(*song("a"))
	s.Command(CmdNext)
	require.Equal(t, "a", trackID(session))

	snap, err := s.Pull(context.Background())
	require.NoError(t, err)
	require.Equal(t, "a", snap.CurrentTrack.ID)
}

func TestSurfaceSkipsPushWhenHubAlreadyAgrees(t *testing.T) {
	h := startHub(t, nil)
	spy := connectRecorder(t, h)
	_, player := connectSurface(t, h)

	player.Play(*song("a"))
	require.Equal(t, MsgBroadcastSnapshot, spy.next(t).Type)

	// repeat-one restarts re-emit the same snapshot
	player.SetRepeat(model.RepeatOne)
	player.TrackEnded()
	spy.quiet(t)
}

func TestSurfacePushesInMutationOrder(t *testing.T) {
	h := startHub(t, nil)
	p, err := Connect(h)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })

	player := newSession()
	gate := make(chan struct{})
	entered := make(chan struct{})
	var once sync.Once
	player.Subscribe(func(playback.Change) {
		once.Do(func() {
			close(entered)
			<-gate
		})
	})
	NewSurface(player, p, AcceptCommands())

	done := make(chan struct{})
	go func() {
		player.Play(*song("a"))
		close(done)
	}()
	<-entered
	player.Pause()
	close(gate)
	<-done

	converged(t, h, "a", false, player)
	// the echo of the older play must not revert the pause
	require.Never(t, func() bool {
		return player.IsPlaying() || h.Snapshot().IsPlaying
	}, 200*time.Millisecond, 10*time.Millisecond)
}
