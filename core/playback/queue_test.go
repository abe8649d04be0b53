package playback

import (
	"testing"

	"Zenith/model"

	"github.com/stretchr/testify/require"
)

func queueIDs(q *Queue) []string {
	var ids []string
	for _, t := range q.Tracks() {
		ids = append(ids, t.ID)
	}
	return ids
}

func TestQueueAddAndPlayNext(t *testing.T) {
	var msgs []string
	q := NewQueue(func(n model.Notice) { msgs = append(msgs, n.Message) })

	q.Add(track("a"))
	q.PlayNext(track("b"))
	q.PlayNext(track("c"))

	require.Equal(t, []string{"c", "b", "a"}, queueIDs(q))
	require.Equal(t, []string{
		`Added "Song a" to queue`,
		`"Song b" will play next`,
		`"Song c" will play next`,
	}, msgs)
}

func TestQueueReorder(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		want     []string
	}{
		{name: "front to back", from: 0, to: 2, want: []string{"b", "c", "a"}},
		{name: "back to front", from: 2, to: 0, want: []string{"c", "a", "b"}},
		{name: "middle", from: 1, to: 2, want: []string{"a", "c", "b"}},
		{name: "same index", from: 1, to: 1, want: []string{"a", "b", "c"}},
		{name: "out of range", from: 3, to: 0, want: []string{"a", "b", "c"}},
		{name: "negative", from: -1, to: 0, want: []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var notices int
			q := NewQueue(func(model.Notice) { notices++ })
			for _, tr := range tracks("a", "b", "c") {
				q.Add(tr)
			}
			notices = 0

			q.Reorder(tt.from, tt.to)
			require.Equal(t, tt.want, queueIDs(q))
			require.Zero(t, notices)
		})
	}
}

func TestQueueRemoveAndClear(t *testing.T) {
	var msgs []string
	q := NewQueue(func(n model.Notice) { msgs = append(msgs, n.Message) })
	for _, tr := range tracks("a", "b", "c") {
		q.Add(tr)
	}
	msgs = nil

	q.Remove(1)
	q.Remove(7)
	require.Equal(t, []string{"a", "c"}, queueIDs(q))
	require.Empty(t, msgs)

	q.Clear()
	require.Zero(t, q.Len())
	require.Equal(t, []string{"Queue cleared"}, msgs)
}

func TestQueuePopFIFO(t *testing.T) {
	q := NewQueue(nil)
	q.Add(track("a"))
	q.Add(track("b"))

	head, ok := q.Pop()
	require.True(t, ok)
	require.Equal(t, "a", head.ID)

	head, ok = q.Pop()
	require.True(t, ok)
	require.Equal(t, "b", head.ID)

	_, ok = q.Pop()
	require.False(t, ok)
}
