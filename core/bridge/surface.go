package bridge

import (
	"context"
	"sync"

	"Zenith/core/playback"
	"Zenith/logger"
	"Zenith/model"

	"github.com/google/uuid"
)

// Surface keeps one session in step with the shared snapshot held by the hub.
type Surface struct {
	id       string
	session  *playback.Session
	port     Port
	commands bool

	mu      sync.Mutex
	shared  model.Snapshot // what the hub holds once our pushes are processed
	known   bool
	pushSeq uint64
	pending map[string]chan model.Snapshot
}

// SurfaceOption configures a Surface.
type SurfaceOption func(*Surface)

// AcceptCommands makes the surface execute transport commands.
// Only the surface that owns audio output should.
func AcceptCommands() SurfaceOption {
	return func(s *Surface) { s.commands = true }
}

// NewSurface binds session to port. A nil port gives a surface whose calls do nothing.
func NewSurface(session *playback.Session, port Port, opts ...SurfaceOption) *Surface {
	s := &Surface{
		id:      uuid.NewString(),
		session: session,
		port:    port,
		pending: make(map[string]chan model.Snapshot),
	}
	for _, opt := range opts {
		opt(s)
	}
	if port == nil {
		return s
	}
	port.OnMessage(s.handle)
	session.Subscribe(s.onChange)
	return s
}

// ID identifies this surface in bridge messages.
func (s *Surface) ID() string { return s.id }

// Connected reports whether the surface has an intermediary.
func (s *Surface) Connected() bool { return s.port != nil }

func (s *Surface) onChange(c playback.Change) {
	if c.Remote {
		return
	}
	s.Push(c.Snapshot)
}

// Push reports snap to the hub unless the hub already holds the same state.
func (s *Surface) Push(snap model.Snapshot) {
	if s.port == nil {
		return
	}
	s.mu.Lock()
	if s.known && !snap.Differs(s.shared) {
		s.mu.Unlock()
		return
	}
	s.pushSeq++
	seq := s.pushSeq
	s.shared, s.known = snap, true
	s.mu.Unlock()

	patch := model.PatchFrom(snap)
	if err := s.port.Send(&Message{Type: MsgPushSnapshot, From: s.id, Seq: seq, Patch: &patch}); err != nil {
		logger.Warn("push snapshot failed", logger.ErrorField(err))
	}
}

// Command asks the surface that owns playback to run cmd.
func (s *Surface) Command(cmd Command) {
	if s.port == nil {
		return
	}
	if err := s.port.Send(&Message{Type: MsgTransportCommand, From: s.id, Command: cmd}); err != nil {
		logger.Warn("send transport command failed", logger.ErrorField(err), logger.String("command", string(cmd)))
	}
}

// Pull fetches the shared snapshot and applies it to the session.
// Without a port it returns the local snapshot.
func (s *Surface) Pull(ctx context.Context) (model.Snapshot, error) {
	if s.port == nil {
		return s.session.Snapshot(), nil
	}
	reqID := uuid.NewString()
	reply := make(chan model.Snapshot, 1)
	s.mu.Lock()
	s.pending[reqID] = reply
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.pending, reqID)
		s.mu.Unlock()
	}()

	if err := s.port.Send(&Message{Type: MsgGetSnapshot, From: s.id, RequestID: reqID}); err != nil {
		return model.Snapshot{}, err
	}
	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return model.Snapshot{}, ctx.Err()
	}
}

func (s *Surface) handle(msg *Message) {
	switch msg.Type {
	case MsgSnapshot:
		s.mu.Lock()
		reply, ok := s.pending[msg.RequestID]
		// once we have pushed, our own broadcasts carry the newer state
		adopt := ok && s.pushSeq == 0
		if adopt {
			s.shared, s.known = *msg.Snapshot, true
		}
		s.mu.Unlock()
		if !ok {
			return
		}
		if adopt {
			s.session.ApplyRemote(*msg.Snapshot)
		}
		reply <- *msg.Snapshot

	case MsgBroadcastSnapshot:
		s.mu.Lock()
		// a newer push of ours is still on its way and will overwrite this one
		if msg.From == s.id && msg.Seq < s.pushSeq {
			s.mu.Unlock()
			return
		}
		s.shared, s.known = *msg.Snapshot, true
		s.mu.Unlock()
		s.session.ApplyRemote(*msg.Snapshot)

	case MsgTransportCommand:
		if !s.commands {
			return
		}
		switch msg.Command {
		case CmdTogglePlay:
			s.session.TogglePlay()
		case CmdNext:
			s.session.Next()
		case CmdPrev:
			s.session.Previous()
		}
	}
}
