// Package client implements the consumer side of the live-sync protocol:
// a per-tab session identity and the synchronization controller that
// keeps local collections converged with foreign edits.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Delivery is one event received from the subscription gateway.
type Delivery struct {
	Record         any
	SourceClientID string
}

// Stream is a live, non-terminating sequence of deliveries. The channel
// closes when the underlying connection does.
type Stream interface {
	Events() <-chan Delivery
	Close() error
}

// Dialer opens a stream of change events for one entity kind and owner.
type Dialer interface {
	Dial(ctx context.Context, kind, owner string) (Stream, error)
}

// State of the synchronization controller.
type State int

const (
	// StateIdle means no subscription is attached, because the owner id
	// is not yet known.
	StateIdle State = iota
	// StateSubscribed means the controller is consuming the live stream.
	StateSubscribed
)

// Controller reacts to foreign change events with a full re-fetch.
// Concurrent foreign edits always win locally; there is no field-level
// merge. Self-originated events are discarded by client id.
type Controller struct {
	session Session
	dialer  Dialer
	kind    string

	// refetch reloads the affected collection and replaces local state.
	// Re-fetching is idempotent; the last fetch wins.
	refetch func(ctx context.Context) error
	// notifyUser surfaces "data changed remotely" to the UI.
	notifyUser func(msg string)

	mu     sync.Mutex
	state  State
	stream Stream
	done   chan struct{}
}

// NewController creates a controller in the Idle state. notifyUser may be
// nil.
func NewController(session Session, dialer Dialer, kind string, refetch func(ctx context.Context) error, notifyUser func(msg string)) *Controller {
	if notifyUser == nil {
		notifyUser = func(string) {}
	}
	return &Controller{
		session:    session,
		dialer:     dialer,
		kind:       kind,
		refetch:    refetch,
		notifyUser: notifyUser,
		state:      StateIdle,
	}
}

// State reports the current controller state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetOwner transitions Idle -> Subscribed once the owner identity becomes
// available. Calling it while already subscribed is an error; close first.
func (c *Controller) SetOwner(ctx context.Context, owner string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateSubscribed {
		return fmt.Errorf("already subscribed for kind %q", c.kind)
	}

	stream, err := c.dialer.Dial(ctx, c.kind, owner)
	if err != nil {
		return fmt.Errorf("failed to open sync stream: %w", err)
	}

	c.stream = stream
	c.state = StateSubscribed
	c.done = make(chan struct{})
	go c.consume(ctx, stream, c.done)
	return nil
}

func (c *Controller) consume(ctx context.Context, stream Stream, done chan struct{}) {
	defer close(done)
	for delivery := range stream.Events() {
		if delivery.SourceClientID != "" && delivery.SourceClientID == c.session.ClientID {
			// Self-echo from our own write.
			continue
		}
		if err := c.refetch(ctx); err != nil {
			slog.Warn("re-fetch after foreign event failed", "kind", c.kind, "error", err)
			continue
		}
		c.notifyUser(fmt.Sprintf("%s changed remotely; local data reloaded", c.kind))
	}

	c.mu.Lock()
	if c.stream == stream {
		c.state = StateIdle
		c.stream = nil
	}
	c.mu.Unlock()
}

// Close detaches the subscription and waits for the consume loop to stop.
func (c *Controller) Close() error {
	c.mu.Lock()
	stream := c.stream
	done := c.done
	c.stream = nil
	c.state = StateIdle
	c.mu.Unlock()

	if stream == nil {
		return nil
	}
	err := stream.Close()
	if done != nil {
		<-done
	}
	return err
}
