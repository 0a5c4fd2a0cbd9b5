// Package notify implements the in-process change notification bus.
//
// Topics are opaque strings; there is no wildcard matching and no replay.
// Events published while a topic has zero subscribers are dropped silently.
package notify

import (
	"log/slog"
	"sync"
)

// Event is a change notification in transit between publish and delivery.
// It is never persisted.
type Event struct {
	Topic          string
	Payload        any
	OriginClientID string
}

// Stats receives bus counters. Implementations must not block.
type Stats interface {
	Count(counter, topic string)
}

// Counter names reported to Stats.
const (
	CounterPublished = "published"
	CounterDelivered = "delivered"
	CounterDropped   = "dropped"
	CounterSkipped   = "skipped"
)

// Each subscriber owns a buffered channel. A subscriber that stops
// draining loses events once the buffer fills; it never blocks the
// publisher or its peers.
const subscriberBuffer = 16

// Notifier is a topic-keyed publish/subscribe bus.
type Notifier struct {
	mu    sync.RWMutex
	subs  map[string]map[*Subscription]struct{}
	stats Stats
}

// New creates an empty Notifier. stats may be nil.
func New(stats Stats) *Notifier {
	return &Notifier{
		subs:  make(map[string]map[*Subscription]struct{}),
		stats: stats,
	}
}

// Subscription is a live attachment to one topic. Events arrive on the
// channel returned by Events until Close is called.
type Subscription struct {
	topic    string
	ch       chan Event
	notifier *Notifier
	once     sync.Once
}

// Events returns the live event channel. It is closed by Close.
func (s *Subscription) Events() <-chan Event { return s.ch }

// Topic returns the topic this subscription is attached to.
func (s *Subscription) Topic() string { return s.topic }

// Close detaches the subscription and closes its channel. Safe to call
// more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.notifier.remove(s)
		close(s.ch)
	})
}

// Subscribe attaches a new subscriber to topic.
func (n *Notifier) Subscribe(topic string) *Subscription {
	sub := &Subscription{
		topic:    topic,
		ch:       make(chan Event, subscriberBuffer),
		notifier: n,
	}
	n.mu.Lock()
	set, ok := n.subs[topic]
	if !ok {
		set = make(map[*Subscription]struct{})
		n.subs[topic] = set
	}
	set[sub] = struct{}{}
	n.mu.Unlock()
	return sub
}

// Publish delivers ev to every current subscriber of its topic, at most
// once each, in publish order per subscriber. Publishing to a topic with
// zero subscribers is a no-op.
func (n *Notifier) Publish(ev Event) {
	n.count(CounterPublished, ev.Topic)

	n.mu.RLock()
	defer n.mu.RUnlock()
	for sub := range n.subs[ev.Topic] {
		select {
		case sub.ch <- ev:
			n.count(CounterDelivered, ev.Topic)
		default:
			// Subscriber buffer full. At-most-once with no replay, so drop.
			slog.Warn("dropping event for slow subscriber", "topic", ev.Topic)
			n.count(CounterDropped, ev.Topic)
		}
	}
}

// CountSkipped records a publish that was skipped before reaching the
// bus, keyed by event name since no topic could be built.
func (n *Notifier) CountSkipped(event string) {
	n.count(CounterSkipped, event)
}

// SubscriberCount reports how many subscribers a topic currently has.
func (n *Notifier) SubscriberCount(topic string) int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs[topic])
}

func (n *Notifier) remove(sub *Subscription) {
	n.mu.Lock()
	defer n.mu.Unlock()
	set := n.subs[sub.topic]
	delete(set, sub)
	if len(set) == 0 {
		delete(n.subs, sub.topic)
	}
}

func (n *Notifier) count(counter, topic string) {
	if n.stats != nil {
		n.stats.Count(counter, topic)
	}
}
