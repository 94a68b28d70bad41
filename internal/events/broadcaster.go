package events

import (
	"context"
	"sync"
)

// subscriberBuffer is the bounded per-subscriber queue size. On
// overflow the oldest unread event is dropped and a resync marker takes
// its place at the front of the queue.
const subscriberBuffer = 64

// SnapshotFunc computes the initial events a new subscriber receives,
// called under the topic lock so no published event can slip between
// the snapshot and the subscription.
type SnapshotFunc func(topic string) []Event

// RelayFunc forwards locally published events to other instances.
type RelayFunc func(topic string, ev Event)

// Broadcaster is a topic-based pub/sub hub. Publishing never blocks:
// each subscriber owns a bounded queue and slow consumers lose their
// oldest events in exchange for a resync marker.
type Broadcaster struct {
	mu       sync.Mutex
	topics   map[string]map[*Subscriber]struct{}
	snapshot SnapshotFunc
	relay    RelayFunc
}

// NewBroadcaster returns an empty hub.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{topics: make(map[string]map[*Subscriber]struct{})}
}

// SetSnapshotFunc installs the provider for initial-subscribe events.
func (b *Broadcaster) SetSnapshotFunc(fn SnapshotFunc) {
	b.mu.Lock()
	b.snapshot = fn
	b.mu.Unlock()
}

// Subscribe attaches a new subscriber to topic. The subscriber's queue
// is pre-seeded with the topic snapshot when a provider is installed.
func (b *Broadcaster) Subscribe(topic string) *Subscriber {
	sub := &Subscriber{
		topic:  topic,
		notify: make(chan struct{}, 1),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.topics[topic]
	if !ok {
		subs = make(map[*Subscriber]struct{})
		b.topics[topic] = subs
	}
	if b.snapshot != nil {
		for _, ev := range b.snapshot(topic) {
			sub.push(ev)
		}
	}
	subs[sub] = struct{}{}
	return sub
}

// Unsubscribe detaches sub and closes its queue.
func (b *Broadcaster) Unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	if subs, ok := b.topics[sub.topic]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(b.topics, sub.topic)
		}
	}
	b.mu.Unlock()
	sub.close()
}

// SetRelay installs a forwarder for locally published events, used to
// mirror them to other server instances.
func (b *Broadcaster) SetRelay(fn RelayFunc) {
	b.mu.Lock()
	b.relay = fn
	b.mu.Unlock()
}

// Publish delivers ev to every subscriber of topic without blocking,
// and forwards it through the relay when one is installed.
func (b *Broadcaster) Publish(topic string, ev Event) {
	relay := b.deliver(topic, ev)
	if relay != nil {
		relay(topic, ev)
	}
}

// PublishLocal delivers ev to local subscribers only. Relay receivers
// use it to re-publish remote events without echoing them back.
func (b *Broadcaster) PublishLocal(topic string, ev Event) {
	b.deliver(topic, ev)
}

func (b *Broadcaster) deliver(topic string, ev Event) RelayFunc {
	b.mu.Lock()
	subs := b.topics[topic]
	targets := make([]*Subscriber, 0, len(subs))
	for sub := range subs {
		targets = append(targets, sub)
	}
	relay := b.relay
	b.mu.Unlock()

	for _, sub := range targets {
		sub.push(ev)
	}
	return relay
}

// SubscriberCount returns the number of live subscribers on topic.
func (b *Broadcaster) SubscriberCount(topic string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.topics[topic])
}

// Subscriber is one spectator attachment. Next is the only consumer
// entry point; it is safe for a single reader.
type Subscriber struct {
	topic string

	mu     sync.Mutex
	queue  []Event
	lossy  bool // resync already queued, don't queue another
	closed bool
	notify chan struct{}
}

// Topic returns the topic this subscriber is attached to.
func (s *Subscriber) Topic() string { return s.topic }

func (s *Subscriber) push(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	// On overflow the oldest unread events make room; a single resync
	// marker tells the consumer to refetch a snapshot. The marker itself
	// is never evicted, or a steadily lagging consumer would drain a
	// full queue without ever learning it lost events.
	if len(s.queue) >= subscriberBuffer {
		switch {
		case !s.lossy:
			s.queue = append(s.queue[2:], Event{Type: KindResync})
			s.lossy = true
		case s.queue[0].Type == KindResync:
			s.queue = append(s.queue[:1], s.queue[2:]...)
		default:
			s.queue = s.queue[1:]
		}
	}
	s.queue = append(s.queue, ev)
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Subscriber) close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.notify)
	}
	s.mu.Unlock()
}

// Next blocks until an event is available, the context is done, or the
// subscriber is closed. It returns false when no further events will
// arrive.
func (s *Subscriber) Next(ctx context.Context) (Event, bool) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			ev := s.queue[0]
			s.queue = s.queue[1:]
			if ev.Type == KindResync {
				s.lossy = false
			}
			s.mu.Unlock()
			return ev, true
		}
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return Event{}, false
		}

		select {
		case <-ctx.Done():
			return Event{}, false
		case _, ok := <-s.notify:
			if !ok {
				// Closed; drain anything pushed before close.
				s.mu.Lock()
				if len(s.queue) > 0 {
					ev := s.queue[0]
					s.queue = s.queue[1:]
					s.mu.Unlock()
					return ev, true
				}
				s.mu.Unlock()
				return Event{}, false
			}
		}
	}
}

// TryNext pops an event without blocking.
func (s *Subscriber) TryNext() (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return Event{}, false
	}
	ev := s.queue[0]
	s.queue = s.queue[1:]
	if ev.Type == KindResync {
		s.lossy = false
	}
	return ev, true
}
