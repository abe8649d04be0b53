package bridge

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"Zenith/logger"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 64 * 1024 // a snapshot carries one full track
)

// ========== hub 侧 ==========

// ReadPump 读取 surface 发来的消息，直到连接断开
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if ctx.Err() != nil {
			return
		}
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket read error", logger.ErrorField(err), logger.String("client", c.ID))
			}
			return
		}
		msg, err := DecodeMessage(data)
		if err != nil {
			logger.Warn("invalid message format", logger.ErrorField(err), logger.String("client", c.ID))
			continue
		}
		if err := c.Hub.Deliver(c, msg); err != nil {
			return
		}
	}
}

// WritePump 写入消息循环，一帧一条消息
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub 关闭了通道
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWS registers conn on the hub and blocks until it disconnects.
func (h *Hub) ServeWS(ctx context.Context, conn *websocket.Conn) {
	c := NewClient(h, conn)
	if !h.Register(c) {
		conn.Close()
		return
	}
	go c.WritePump()
	c.ReadPump(ctx)
}

// ========== surface 侧 ==========

// WSPort is a Port over a websocket connection to a remote hub.
type WSPort struct {
	conn *websocket.Conn
	send chan []byte

	mu      sync.RWMutex
	handler func(*Message)

	closeOnce sync.Once
	done      chan struct{}
}

// Dial connects to the hub's websocket endpoint.
func Dial(ctx context.Context, url string) (*WSPort, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial bridge %s: %w", url, err)
	}
	return NewWSPort(conn), nil
}

// NewWSPort wraps an established connection and starts its pumps.
func NewWSPort(conn *websocket.Conn) *WSPort {
	p := &WSPort{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
	go p.writeLoop()
	go p.readLoop()
	return p
}

func (p *WSPort) readLoop() {
	defer p.Close()

	p.conn.SetReadLimit(maxMessageSize)
	p.conn.SetReadDeadline(time.Now().Add(pongWait))
	// the hub pings every pingPeriod, each ping extends the deadline
	p.conn.SetPingHandler(func(appData string) error {
		p.conn.SetReadDeadline(time.Now().Add(pongWait))
		return p.conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
	})

	for {
		_, data, err := p.conn.ReadMessage()
		if err != nil {
			select {
			case <-p.done:
			default:
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Warn("bridge connection lost", logger.ErrorField(err))
				}
			}
			return
		}
		p.conn.SetReadDeadline(time.Now().Add(pongWait))
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

func (p *WSPort) writeLoop() {
	for {
		select {
		case data := <-p.send:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Warn("bridge write failed", logger.ErrorField(err))
				p.Close()
				return
			}
		case <-p.done:
			p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			p.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			p.conn.Close()
			return
		}
	}
}

// Send implements Port. It blocks while the write buffer is full.
func (p *WSPort) Send(msg *Message) error {
	data, err := msg.Encode()
	if err != nil {
		return err
	}
	select {
	case <-p.done:
		return ErrPortClosed
	default:
	}
	select {
	case p.send <- data:
		return nil
	case <-p.done:
		return ErrPortClosed
	}
}

// OnMessage implements Port.
func (p *WSPort) OnMessage(handler func(*Message)) {
	p.mu.Lock()
	p.handler = handler
	p.mu.Unlock()
}

// Close implements Port.
func (p *WSPort) Close() error {
	p.closeOnce.Do(func() { close(p.done) })
	return nil
}

// Done is closed once the port is closed or the connection dropped.
func (p *WSPort) Done() <-chan struct{} { return p.done }
