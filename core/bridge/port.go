package bridge

import "errors"

// ErrPortClosed is returned by Send after Close.
var ErrPortClosed = errors.New("bridge port closed")

// Port is one surface's connection to the hub.
// Messages from one sender are delivered in the order they were sent.
type Port interface {
	Send(msg *Message) error
	// OnMessage sets the handler for inbound messages. It runs on the port's
	// reader goroutine, one message at a time.
	OnMessage(handler func(*Message))
	Close() error
}
