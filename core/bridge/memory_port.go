package bridge

import (
	"sync"

	"Zenith/logger"
)

// MemoryPort connects a surface living in the same process as the hub.
type MemoryPort struct {
	hub    *Hub
	client *Client

	mu      sync.RWMutex
	handler func(*Message)

	closeOnce sync.Once
	closed    chan struct{}
}

// Connect registers a new in-process client on h.
func Connect(h *Hub) (*MemoryPort, error) {
	c := NewClient(h, nil)
	if !h.Register(c) {
		return nil, ErrPortClosed
	}
	p := &MemoryPort{
		hub:    h,
		client: c,
		closed: make(chan struct{}),
	}
	go p.readLoop()
	return p, nil
}

func (p *MemoryPort) readLoop() {
	for data := range p.client.Send {
		msg, err := DecodeMessage(data)
		if err != nil {
			logger.Warn("invalid bridge message", logger.ErrorField(err))
			continue
		}
		p.mu.RLock()
		h := p.handler
		p.mu.RUnlock()
		if h != nil {
			h(msg)
		}
	}
}

// Send implements Port.
func (p *MemoryPort) Send(msg *Message) error {
	select {
	case <-p.closed:
		return ErrPortClosed
	default:
	}
	return p.hub.Deliver(p.client, msg)
}

// OnMessage implements Port.
func (p *MemoryPort) OnMessage(handler func(*Message)) {
	p.mu.Lock()
	p.handler = handler
	p.mu.Unlock()
}

// Close implements Port.
func (p *MemoryPort) Close() error {
	p.closeOnce.Do(func() {
		close(p.closed)
		p.hub.Unregister(p.client)
	})
	return nil
}

// ID returns the hub-side client ID.
func (p *MemoryPort) ID() string { return p.client.ID }
