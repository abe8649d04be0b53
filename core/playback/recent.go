package playback

import (
	"sync"

	"Zenith/model"

	"github.com/samber/lo"
)

// MaxRecent 最近播放保留条数
const MaxRecent = 50

// RecentStore persists the recently played list.
type RecentStore interface {
	LoadRecent() []model.Track
	SaveRecent(tracks []model.Track) error
}

// Recent is the most-recent-first, de-duplicated listening history.
type Recent struct {
	mu       sync.Mutex
	tracks   []model.Track
	store    RecentStore
	onChange func([]model.Track)
}

// NewRecent loads the history from store. store may be nil.
func NewRecent(store RecentStore) *Recent {
	r := &Recent{store: store}
	if store != nil {
		r.tracks = trimRecent(store.LoadRecent())
	}
	return r
}

// OnChange registers a callback invoked with a copy of the list after every change.
func (r *Recent) OnChange(fn func([]model.Track)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = fn
}

// Record moves t to the front of the history.
func (r *Recent) Record(t model.Track) {
	r.mu.Lock()
	rest := lo.Filter(r.tracks, func(x model.Track, _ int) bool { return x.ID != t.ID })
	r.tracks = trimRecent(append([]model.Track{t}, rest...))
	out := r.snapshotLocked()
	store, cb := r.store, r.onChange
	r.mu.Unlock()

	if store != nil {
		if err := store.SaveRecent(out); err != nil {
			logSaveError("recently played", err)
		}
	}
	if cb != nil {
		cb(out)
	}
}

// Remove drops a track from the history.
func (r *Recent) Remove(id string) {
	r.mu.Lock()
	n := len(r.tracks)
	r.tracks = lo.Filter(r.tracks, func(x model.Track, _ int) bool { return x.ID != id })
	if len(r.tracks) == n {
		r.mu.Unlock()
		return
	}
	out := r.snapshotLocked()
	store, cb := r.store, r.onChange
	r.mu.Unlock()

	if store != nil {
		if err := store.SaveRecent(out); err != nil {
			logSaveError("recently played", err)
		}
	}
	if cb != nil {
		cb(out)
	}
}

// Tracks returns a copy of the history.
func (r *Recent) Tracks() []model.Track {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

func (r *Recent) snapshotLocked() []model.Track {
	out := make([]model.Track, len(r.tracks))
	copy(out, r.tracks)
	return out
}

// trimRecent dedupes by id keeping the first occurrence and caps the length.
func trimRecent(tracks []model.Track) []model.Track {
	out := lo.UniqBy(tracks, func(t model.Track) string { return t.ID })
	if len(out) > MaxRecent {
		out = out[:MaxRecent]
	}
	return out
}
