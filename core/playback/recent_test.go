package playback

import (
	"errors"
	"fmt"
	"testing"

	"Zenith/model"

	"github.com/stretchr/testify/require"
)

type memRecentStore struct {
	loaded []model.Track
	saved  [][]model.Track
	err    error
}

func (m *memRecentStore) LoadRecent() []model.Track { return m.loaded }

func (m *memRecentStore) SaveRecent(tracks []model.Track) error {
	m.saved = append(m.saved, tracks)
	return m.err
}

func TestRecentDedupesMostRecentFirst(t *testing.T) {
	r := NewRecent(nil)
	for _, id := range []string{"a", "b", "a", "c"} {
		r.Record(track(id))
	}
	require.Equal(t, []string{"c", "a", "b"}, recentIDs(r))
}

func TestRecentCap(t *testing.T) {
	r := NewRecent(nil)
	for i := 0; i < MaxRecent+10; i++ {
		r.Record(track(fmt.Sprintf("t%d", i)))
	}
	got := r.Tracks()
	require.Len(t, got, MaxRecent)
	require.Equal(t, fmt.Sprintf("t%d", MaxRecent+9), got[0].ID)
}

func TestRecentPersists(t *testing.T) {
	store := &memRecentStore{loaded: tracks("x", "y", "x")}
	r := NewRecent(store)
	require.Equal(t, []string{"x", "y"}, recentIDs(r))

	r.Record(track("y"))
	require.Len(t, store.saved, 1)
	require.Equal(t, "y", store.saved[0][0].ID)
}

func TestRecentSaveErrorIsNotFatal(t *testing.T) {
	store := &memRecentStore{err: errors.New("disk full")}
	r := NewRecent(store)
	r.Record(track("a"))
	require.Equal(t, []string{"a"}, recentIDs(r))
}

func TestRecentRemove(t *testing.T) {
	r := NewRecent(nil)
	var calls int
	r.OnChange(func([]model.Track) { calls++ })
	r.Record(track("a"))
	r.Record(track("b"))

	r.Remove("a")
	r.Remove("missing")
	require.Equal(t, []string{"b"}, recentIDs(r))
	require.Equal(t, 3, calls)
}
