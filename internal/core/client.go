package core

import (
	"sync/atomic"
	"time"
)

// eventBuffer bounds the per-client outbound queue; slow consumers drop.
const eventBuffer = 16

// Client is an ephemeral connection participant. Identity and room are
// assigned on join and never change afterwards. Not persisted.
type Client struct {
	ID   string
	Name string
	Room string

	// canWrite is flipped by the permission engine from other clients'
	// goroutines, hence atomic.
	canWrite atomic.Bool

	// LastMessageAt is touched only by the owning session goroutine.
	LastMessageAt time.Time

	events chan any
}

// NewClient constructs a client with an initialized event queue.
// Identity fields are filled in when the client joins a room.
func NewClient() *Client {
	return &Client{
		events: make(chan any, eventBuffer),
	}
}

// CanWrite reports whether the client currently holds write permission.
func (c *Client) CanWrite() bool {
	return c.canWrite.Load()
}

// SetCanWrite updates the client's write permission.
func (c *Client) SetCanWrite(v bool) {
	c.canWrite.Store(v)
}

// Send queues an event for delivery. Returns false when the queue is
// full and the event was dropped.
func (c *Client) Send(event any) bool {
	select {
	case c.events <- event:
		return true
	default:
		return false
	}
}

// Events exposes the outbound event queue to the transport's write loop.
func (c *Client) Events() <-chan any {
	return c.events
}
