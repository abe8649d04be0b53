package playback

import (
	"fmt"
	"sync"

	"Zenith/model"

	"github.com/samber/lo"
)

// Queue holds the tracks the user forced ahead of the collection order.
// Entries are consumed strictly FIFO.
type Queue struct {
	mu       sync.Mutex
	tracks   []model.Track
	notifier model.Notifier
}

// NewQueue creates an empty queue reporting confirmations to notifier.
func NewQueue(notifier model.Notifier) *Queue {
	return &Queue{notifier: notifier}
}

// Add appends t at the end ("play later").
func (q *Queue) Add(t model.Track) {
	q.mu.Lock()
	q.tracks = append(q.tracks, t)
	q.mu.Unlock()
	q.notifier.Notify(model.NoticeSuccess, fmt.Sprintf("Added %q to queue", t.Title))
}

// PlayNext inserts t at the front, so the latest "play next" plays soonest.
func (q *Queue) PlayNext(t model.Track) {
	q.mu.Lock()
	q.tracks = append([]model.Track{t}, q.tracks...)
	q.mu.Unlock()
	q.notifier.Notify(model.NoticeSuccess, fmt.Sprintf("%q will play next", t.Title))
}

// Remove deletes the entry at index i. Out-of-range indices are ignored.
func (q *Queue) Remove(i int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if i < 0 || i >= len(q.tracks) {
		return
	}
	q.tracks = append(q.tracks[:i:i], q.tracks[i+1:]...)
}

// RemoveTrack drops every entry with the given track id.
func (q *Queue) RemoveTrack(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tracks = lo.Filter(q.tracks, func(t model.Track, _ int) bool { return t.ID != id })
}

// Clear empties the queue.
func (q *Queue) Clear() {
	q.mu.Lock()
	q.tracks = nil
	q.mu.Unlock()
	q.notifier.Notify(model.NoticeInfo, "Queue cleared")
}

// Reorder removes the entry at from and reinserts it at to.
// The relative order of every other entry is preserved.
func (q *Queue) Reorder(from, to int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.tracks)
	if from < 0 || from >= n || to < 0 || to >= n || from == to {
		return
	}
	moved := q.tracks[from]
	rest := append(q.tracks[:from:from], q.tracks[from+1:]...)
	out := make([]model.Track, 0, n)
	out = append(out, rest[:to]...)
	out = append(out, moved)
	q.tracks = append(out, rest[to:]...)
}

// Pop removes and returns the head of the queue.
func (q *Queue) Pop() (model.Track, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tracks) == 0 {
		return model.Track{}, false
	}
	head := q.tracks[0]
	q.tracks = q.tracks[1:]
	return head, true
}

// Tracks returns a copy of the pending entries.
func (q *Queue) Tracks() []model.Track {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]model.Track, len(q.tracks))
	copy(out, q.tracks)
	return out
}

// Len returns the number of pending entries.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tracks)
}
