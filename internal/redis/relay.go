package redis

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/quyk67uet/deeprl-connect4-agent-platform/internal/events"
)

// relayChannel carries every cross-instance spectator event.
const relayChannel = "championship_events"

// envelope wraps an event with its topic and the publishing instance,
// so receivers can drop their own echoes.
type envelope struct {
	Origin  string          `json:"origin"`
	Topic   string          `json:"topic"`
	Type    events.Kind     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Relay mirrors broadcaster events across server instances through a
// Redis pub/sub channel.
type Relay struct {
	client      *Client
	broadcaster *events.Broadcaster
	instanceID  string
}

// NewRelay wires the relay into the broadcaster: local publishes are
// forwarded to Redis, and Start feeds remote ones back in.
func NewRelay(client *Client, b *events.Broadcaster) *Relay {
	r := &Relay{
		client:      client,
		broadcaster: b,
		instanceID:  uuid.New().String(),
	}
	b.SetRelay(r.forward)
	return r
}

func (r *Relay) forward(topic string, ev events.Event) {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		log.Printf("[REDIS] drop unmarshalable event %s on %s: %v", ev.Type, topic, err)
		return
	}
	data, err := json.Marshal(envelope{
		Origin:  r.instanceID,
		Topic:   topic,
		Type:    ev.Type,
		Payload: payload,
	})
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.client.Publish(ctx, relayChannel, data).Err(); err != nil {
		log.Printf("[REDIS] relay publish failed: %v", err)
	}
}

// Start consumes the relay channel until ctx is done. Remote events
// re-enter the local broadcaster without being forwarded again.
func (r *Relay) Start(ctx context.Context) {
	pubsub := r.client.Subscribe(ctx, relayChannel)
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		log.Printf("[REDIS] relay subscriber started on %s", relayChannel)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var env envelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					log.Printf("[REDIS] invalid relay payload: %v", err)
					continue
				}
				if env.Origin == r.instanceID {
					continue
				}
				r.broadcaster.PublishLocal(env.Topic, events.Event{
					Type:    env.Type,
					Payload: env.Payload,
				})
			}
		}
	}()
}
