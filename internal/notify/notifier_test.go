package notify

import (
	"sync"
	"testing"
	"time"
)

func TestPublishDeliversToSubscribers(t *testing.T) {
	n := New(nil)

	subA := n.Subscribe("mealPlanUpdated.u1")
	subB := n.Subscribe("mealPlanUpdated.u1")
	defer subA.Close()
	defer subB.Close()

	n.Publish(Event{Topic: "mealPlanUpdated.u1", Payload: "p1", OriginClientID: "c1"})

	for name, sub := range map[string]*Subscription{"A": subA, "B": subB} {
		select {
		case ev := <-sub.Events():
			if ev.Payload != "p1" || ev.OriginClientID != "c1" {
				t.Errorf("Subscriber %s got unexpected event %+v", name, ev)
			}
		case <-time.After(time.Second):
			t.Fatalf("Subscriber %s did not receive event", name)
		}
	}
}

func TestPublishWithZeroSubscribersIsNoOp(t *testing.T) {
	n := New(nil)
	// Must not panic or error.
	n.Publish(Event{Topic: "ingredientUpdated.nobody", Payload: "p"})

	// A later subscriber must not see the earlier event.
	sub := n.Subscribe("ingredientUpdated.nobody")
	defer sub.Close()
	select {
	case ev := <-sub.Events():
		t.Fatalf("Expected no replay, got %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTopicsAreIsolated(t *testing.T) {
	n := New(nil)
	sub := n.Subscribe("mealUpdated.u1")
	defer sub.Close()

	n.Publish(Event{Topic: "mealUpdated.u2", Payload: "other"})

	select {
	case ev := <-sub.Events():
		t.Fatalf("Expected no cross-topic delivery, got %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestFIFOPerSubscriber(t *testing.T) {
	n := New(nil)
	sub := n.Subscribe("t")
	defer sub.Close()

	for i := 0; i < 10; i++ {
		n.Publish(Event{Topic: "t", Payload: i})
	}

	for i := 0; i < 10; i++ {
		select {
		case ev := <-sub.Events():
			if ev.Payload != i {
				t.Fatalf("Expected event %d in order, got %v", i, ev.Payload)
			}
		case <-time.After(time.Second):
			t.Fatalf("Timed out waiting for event %d", i)
		}
	}
}

func TestSlowSubscriberDoesNotBlockPeers(t *testing.T) {
	n := New(nil)

	slow := n.Subscribe("t") // never drained
	fast := n.Subscribe("t")
	defer slow.Close()
	defer fast.Close()

	// Publish well past the slow subscriber's buffer.
	total := subscriberBuffer * 3
	done := make(chan struct{})
	go func() {
		for i := 0; i < total; i++ {
			n.Publish(Event{Topic: "t", Payload: i})
		}
		close(done)
	}()

	received := 0
	for received < total {
		select {
		case <-fast.Events():
			received++
		case <-time.After(time.Second):
			t.Fatalf("Fast subscriber stalled after %d events", received)
		}
	}
	<-done
}

func TestCloseDetachesSubscriber(t *testing.T) {
	n := New(nil)
	sub := n.Subscribe("t")
	if got := n.SubscriberCount("t"); got != 1 {
		t.Fatalf("Expected 1 subscriber, got %d", got)
	}
	sub.Close()
	sub.Close() // idempotent
	if got := n.SubscriberCount("t"); got != 0 {
		t.Fatalf("Expected 0 subscribers after close, got %d", got)
	}
	if _, ok := <-sub.Events(); ok {
		t.Error("Expected events channel to be closed")
	}
}

type countingStats struct {
	mu     sync.Mutex
	counts map[string]int
}

func (c *countingStats) Count(counter, topic string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	c.counts[counter]++
}

func (c *countingStats) get(counter string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[counter]
}

func TestStatsCounters(t *testing.T) {
	stats := &countingStats{}
	n := New(stats)

	sub := n.Subscribe("t")
	defer sub.Close()

	n.Publish(Event{Topic: "t", Payload: 1})
	n.Publish(Event{Topic: "empty", Payload: 2})

	if got := stats.get(CounterPublished); got != 2 {
		t.Errorf("Expected 2 published, got %d", got)
	}
	if got := stats.get(CounterDelivered); got != 1 {
		t.Errorf("Expected 1 delivered, got %d", got)
	}
}
