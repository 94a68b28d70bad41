package events

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestPublishOrdering(t *testing.T) {
	b := NewBroadcaster()
	sub := b.Subscribe("match:abc")
	defer b.Unsubscribe(sub)

	for i := 0; i < 10; i++ {
		b.Publish("match:abc", Event{Type: KindMoveMade, Payload: i})
	}

	for i := 0; i < 10; i++ {
		ev, ok := sub.TryNext()
		if !ok {
			t.Fatalf("expected event %d, queue empty", i)
		}
		if ev.Payload.(int) != i {
			t.Fatalf("event %d out of order: got %v", i, ev.Payload)
		}
	}
}

func TestTopicsAreIsolated(t *testing.T) {
	b := NewBroadcaster()
	dash := b.Subscribe(TopicDashboard)
	match := b.Subscribe(MatchTopic("m1"))
	defer b.Unsubscribe(dash)
	defer b.Unsubscribe(match)

	b.Publish(MatchTopic("m1"), Event{Type: KindGameStart})

	if _, ok := dash.TryNext(); ok {
		t.Error("dashboard received a match-topic event")
	}
	if ev, ok := match.TryNext(); !ok || ev.Type != KindGameStart {
		t.Errorf("match subscriber got %v, %v", ev, ok)
	}
}

func TestOverflowEnqueuesResync(t *testing.T) {
	b := NewBroadcaster()
	sub := b.Subscribe("t")
	defer b.Unsubscribe(sub)

	total := subscriberBuffer + 10
	for i := 0; i < total; i++ {
		b.Publish("t", Event{Type: KindMoveMade, Payload: i})
	}

	var seen []Event
	for {
		ev, ok := sub.TryNext()
		if !ok {
			break
		}
		seen = append(seen, ev)
	}

	if len(seen) > subscriberBuffer {
		t.Fatalf("subscriber held %d events, buffer is %d", len(seen), subscriberBuffer)
	}

	resyncs := 0
	for _, ev := range seen {
		if ev.Type == KindResync {
			resyncs++
		}
	}
	if resyncs != 1 {
		t.Fatalf("got %d resync markers, want exactly 1", resyncs)
	}

	// The newest event must survive the overflow.
	last := seen[len(seen)-1]
	if last.Payload.(int) != total-1 {
		t.Errorf("last event payload = %v, want %d", last.Payload, total-1)
	}
}

func TestSustainedOverflowKeepsResync(t *testing.T) {
	b := NewBroadcaster()
	sub := b.Subscribe("t")
	defer b.Unsubscribe(sub)

	// Far past the buffer: the resync marker migrates to the queue
	// front and must survive every later eviction.
	total := subscriberBuffer * 3
	for i := 0; i < total; i++ {
		b.Publish("t", Event{Type: KindMoveMade, Payload: i})
	}

	var seen []Event
	for {
		ev, ok := sub.TryNext()
		if !ok {
			break
		}
		seen = append(seen, ev)
	}

	resyncs := 0
	for _, ev := range seen {
		if ev.Type == KindResync {
			resyncs++
		}
	}
	if resyncs != 1 {
		t.Fatalf("missed %d events but drained %d resync markers, want exactly 1",
			total-len(seen), resyncs)
	}
	if last := seen[len(seen)-1]; last.Payload.(int) != total-1 {
		t.Errorf("last event payload = %v, want %d", last.Payload, total-1)
	}

	// Once the marker is consumed the subscriber is whole again: the
	// next overflow queues a fresh one.
	for i := 0; i < subscriberBuffer+2; i++ {
		b.Publish("t", Event{Type: KindMoveMade, Payload: i})
	}
	resyncs = 0
	for {
		ev, ok := sub.TryNext()
		if !ok {
			break
		}
		if ev.Type == KindResync {
			resyncs++
		}
	}
	if resyncs != 1 {
		t.Fatalf("second overflow drained %d resync markers, want exactly 1", resyncs)
	}
}

func TestPublishDoesNotBlockOnSlowSubscriber(t *testing.T) {
	b := NewBroadcaster()
	sub := b.Subscribe("t")
	defer b.Unsubscribe(sub)

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*10; i++ {
			b.Publish("t", Event{Type: KindStatusUpdate, Payload: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a subscriber that never reads")
	}
}

func TestSnapshotOnSubscribe(t *testing.T) {
	b := NewBroadcaster()
	b.SetSnapshotFunc(func(topic string) []Event {
		return []Event{{Type: KindInitialState, Payload: topic}}
	})

	sub := b.Subscribe(TopicDashboard)
	defer b.Unsubscribe(sub)

	ev, ok := sub.TryNext()
	if !ok || ev.Type != KindInitialState {
		t.Fatalf("first event = %v, %v; want initial_state", ev, ok)
	}
	if ev.Payload.(string) != TopicDashboard {
		t.Errorf("snapshot computed for topic %v", ev.Payload)
	}
}

func TestNextBlocksUntilPublish(t *testing.T) {
	b := NewBroadcaster()
	sub := b.Subscribe("t")
	defer b.Unsubscribe(sub)

	go func() {
		time.Sleep(20 * time.Millisecond)
		b.Publish("t", Event{Type: KindRoundStart})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ev, ok := sub.Next(ctx)
	if !ok || ev.Type != KindRoundStart {
		t.Fatalf("Next() = %v, %v", ev, ok)
	}
}

func TestNextReturnsOnUnsubscribe(t *testing.T) {
	b := NewBroadcaster()
	sub := b.Subscribe("t")

	go func() {
		time.Sleep(10 * time.Millisecond)
		b.Unsubscribe(sub)
	}()

	if _, ok := sub.Next(context.Background()); ok {
		t.Error("Next should report closed after unsubscribe")
	}
}

func TestSubscriberCount(t *testing.T) {
	b := NewBroadcaster()
	topic := MatchTopic("m2")

	var subs []*Subscriber
	for i := 0; i < 3; i++ {
		subs = append(subs, b.Subscribe(topic))
	}
	if got := b.SubscriberCount(topic); got != 3 {
		t.Errorf("SubscriberCount = %d, want 3", got)
	}
	for i, sub := range subs {
		b.Unsubscribe(sub)
		if got := b.SubscriberCount(topic); got != 2-i {
			t.Errorf("after unsubscribe %d: count = %d", i, got)
		}
	}
}

func TestConcurrentPublishers(t *testing.T) {
	b := NewBroadcaster()
	sub := b.Subscribe("t")
	defer b.Unsubscribe(sub)

	const publishers = 8
	done := make(chan struct{}, publishers)
	for p := 0; p < publishers; p++ {
		go func(p int) {
			for i := 0; i < 100; i++ {
				b.Publish("t", Event{Type: KindMatchUpdate, Payload: fmt.Sprintf("%d-%d", p, i)})
			}
			done <- struct{}{}
		}(p)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	received := 0
	for received < 50 {
		if _, ok := sub.Next(ctx); !ok {
			t.Fatal("Next failed while publishers active")
		}
		received++
	}
	for p := 0; p < publishers; p++ {
		<-done
	}
}
