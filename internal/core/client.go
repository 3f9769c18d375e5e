package core

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Client is a connection as seen by the core layer. Its pointer is its identity;
// the transport owns the underlying socket.
type Client struct {
	ID     string
	Events chan *Event

	open    atomic.Bool
	expired atomic.Bool
	// detached is set by the hub goroutine once the client is torn down.
	detached bool
}

// NewClient constructs an open client with a buffered outbound queue.
func NewClient(buffer int) *Client {
	if buffer <= 0 {
		buffer = 1
	}
	c := &Client{
		ID:     uuid.NewString(),
		Events: make(chan *Event, buffer),
	}
	c.open.Store(true)
	return c
}

// Open reports whether the transport still considers the connection usable.
func (c *Client) Open() bool {
	return c.open.Load()
}

// MarkClosed flips the client to closed. It returns true only for the first caller,
// which owns the teardown.
func (c *Client) MarkClosed() bool {
	return c.open.CompareAndSwap(true, false)
}

// Expire marks a connection that stopped answering keepalives. It is closed, and
// the rooms it publishes are left for the liveness sweep to reclaim.
func (c *Client) Expire() {
	c.expired.Store(true)
	c.open.Store(false)
}

// Expired reports whether Expire was called.
func (c *Client) Expired() bool {
	return c.expired.Load()
}

// deliver queues ev if the client is open and has room in its queue.
// It never blocks. Must be called from the hub goroutine.
func (c *Client) deliver(ev *Event) bool {
	if c.detached || !c.Open() {
		return false
	}
	select {
	case c.Events <- ev:
		return true
	default:
		return false
	}
}

// detach closes the outbound queue. Must be called from the hub goroutine, once.
func (c *Client) detach() {
	if c.detached {
		return
	}
	c.detached = true
	close(c.Events)
}
