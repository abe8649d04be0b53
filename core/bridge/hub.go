package bridge

import (
	"context"
	"sync"

	"Zenith/logger"
	"Zenith/model"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const sendBufferSize = 64

// Client 是 hub 侧的一个 surface 连接
type Client struct {
	ID   string
	Hub  *Hub
	Conn *websocket.Conn // nil for in-process ports
	Send chan []byte
}

// NewClient creates a client with a fresh ID; it still has to be registered.
func NewClient(h *Hub, conn *websocket.Conn) *Client {
	return &Client{
		ID:   uuid.NewString(),
		Hub:  h,
		Conn: conn,
		Send: make(chan []byte, sendBufferSize),
	}
}

type inbound struct {
	client *Client
	msg    *Message
}

// Hub is the intermediary every surface talks to. It owns the authoritative
// snapshot and handles one message at a time on its Run goroutine.
type Hub struct {
	clients map[*Client]bool

	// 注册/注销通道
	register   chan *Client
	unregister chan *Client

	inbound chan inbound

	store SnapshotStore

	// snapshot is written only by Run; mu lets other goroutines read it
	mu       sync.RWMutex
	snapshot model.Snapshot

	done     chan struct{}
	stopOnce sync.Once
}

// NewHub creates a hub persisting through store; a nil store keeps the snapshot in memory.
func NewHub(store SnapshotStore) *Hub {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inbound, 256),
		store:      store,
		done:       make(chan struct{}),
	}
}

// Run loads the persisted snapshot and processes messages until ctx ends or Stop is called.
func (h *Hub) Run(ctx context.Context) {
	if snap, err := h.store.LoadSnapshot(ctx); err != nil {
		logger.Warn("加载共享播放状态失败", logger.ErrorField(err))
	} else {
		h.setSnapshot(snap)
	}

	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
			logger.Debug("surface registered", logger.String("client", client.ID))

		case client := <-h.unregister:
			h.removeClient(client)

		case in := <-h.inbound:
			if h.clients[in.client] {
				h.handle(ctx, in.client, in.msg)
			}

		case <-ctx.Done():
			h.Stop()
			h.cleanup()
			return

		case <-h.done:
			h.cleanup()
			return
		}
	}
}

// Stop ends Run. Safe to call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *Hub) stopped() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// Register adds a client. It returns false if the hub has stopped.
func (h *Hub) Register(c *Client) bool {
	if h.stopped() {
		return false
	}
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client and closes its Send channel.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Deliver queues a message from c for the hub loop.
func (h *Hub) Deliver(c *Client, msg *Message) error {
	if h.stopped() {
		return ErrPortClosed
	}
	select {
	case h.inbound <- inbound{client: c, msg: msg}:
		return nil
	case <-h.done:
		return ErrPortClosed
	}
}

// Snapshot returns the authoritative snapshot.
func (h *Hub) Snapshot() model.Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return model.Snapshot{CurrentTrack: h.snapshot.CurrentTrack.Clone(), IsPlaying: h.snapshot.IsPlaying}
}

func (h *Hub) setSnapshot(s model.Snapshot) {
	h.mu.Lock()
	h.snapshot = s
	h.mu.Unlock()
}

func (h *Hub) handle(ctx context.Context, from *Client, msg *Message) {
	switch msg.Type {
	case MsgGetSnapshot:
		snap := h.Snapshot()
		h.sendTo(from, &Message{Type: MsgSnapshot, RequestID: msg.RequestID, Snapshot: &snap})

	case MsgPushSnapshot:
		merged := h.Snapshot().Merge(*msg.Patch)
		h.setSnapshot(merged)
		if err := h.store.SaveSnapshot(ctx, merged); err != nil {
			logger.Warn("保存共享播放状态失败", logger.ErrorField(err))
		}
		h.broadcast(&Message{Type: MsgBroadcastSnapshot, From: msg.From, Seq: msg.Seq, Snapshot: &merged})

	case MsgTransportCommand:
		h.broadcast(&Message{Type: MsgTransportCommand, From: msg.From, Command: msg.Command})

	default:
		logger.Warn("unexpected message at hub", logger.String("type", string(msg.Type)))
	}
}

func (h *Hub) sendTo(c *Client, msg *Message) {
	data, err := msg.Encode()
	if err != nil {
		logger.Error("encode bridge message", logger.ErrorField(err))
		return
	}
	select {
	case c.Send <- data:
	default:
		// 发送缓冲区满，移除客户端
		h.removeClient(c)
	}
}

// broadcast sends to every client, the originator included.
func (h *Hub) broadcast(msg *Message) {
	data, err := msg.Encode()
	if err != nil {
		logger.Error("encode bridge message", logger.ErrorField(err))
		return
	}
	for c := range h.clients {
		select {
		case c.Send <- data:
		default:
			h.removeClient(c)
		}
	}
}

func (h *Hub) removeClient(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.Send)
	logger.Debug("surface unregistered", logger.String("client", c.ID))
}

// cleanup 清理所有连接
func (h *Hub) cleanup() {
	for c := range h.clients {
		close(c.Send)
	}
	h.clients = make(map[*Client]bool)
}

// SnapshotStore persists the authoritative snapshot between hub restarts.
type SnapshotStore interface {
	LoadSnapshot(ctx context.Context) (model.Snapshot, error)
	SaveSnapshot(ctx context.Context, s model.Snapshot) error
}

// MemoryStore keeps the snapshot in process memory.
type MemoryStore struct {
	mu   sync.Mutex
	snap model.Snapshot
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// LoadSnapshot implements SnapshotStore.
func (m *MemoryStore) LoadSnapshot(context.Context) (model.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap, nil
}

// SaveSnapshot implements SnapshotStore.
func (m *MemoryStore) SaveSnapshot(_ context.Context, s model.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = s
	return nil
}
