package pushchan

import (
	"context"
	"encoding/json"
)

// State is the observable connection state of a Channel.
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	}
	return "unknown"
}

// Handler receives channel lifecycle notifications and events.
// Calls are made from the goroutine running Channel.Run, one at a time.
type Handler interface {
	// OnConnecting is called before every dial, including reconnects.
	OnConnecting()
	OnConnect()
	OnDisconnect(err error)
	OnEvent(name string, payload json.RawMessage)
}

// Channel is a long-lived push subscription.
type Channel interface {
	// Run connects and dispatches events to h until ctx is done or Close is
	// called, reconnecting in between. It returns nil on a clean stop.
	Run(ctx context.Context, h Handler) error
	State() State
	// Close stops Run and releases the connection. Safe to call more than once.
	Close() error
}
