// Package realtime carries change notifications between the backend
// adapters and the live reconciliation loop over redis pub/sub. Every
// mutation publishes an event on the table's channel; subscribers re-fetch
// rather than applying deltas.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

type Event struct {
	Table  string          `json:"table"`
	Type   EventType       `json:"type"`
	UserID string          `json:"user_id,omitempty"`
	Old    json.RawMessage `json:"old,omitempty"`
	New    json.RawMessage `json:"new,omitempty"`
}

// Filter narrows a subscription. Zero values match everything.
type Filter struct {
	Types  []EventType
	UserID string
}

func (f Filter) matches(ev Event) bool {
	if f.UserID != "" && ev.UserID != f.UserID {
		return false
	}
	if len(f.Types) == 0 {
		return true
	}
	for _, t := range f.Types {
		if ev.Type == t {
			return true
		}
	}
	return false
}

func channelName(table string) string {
	return "geoshop:changes:" + table
}

type Publisher struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewPublisher(client *redis.Client, log zerolog.Logger) *Publisher {
	return &Publisher{client: client, log: log}
}

func (p *Publisher) Publish(ctx context.Context, ev Event) error {
	if p == nil || p.client == nil {
		return nil
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode change event: %w", err)
	}
	if err := p.client.Publish(ctx, channelName(ev.Table), payload).Err(); err != nil {
		return fmt.Errorf("publish change event: %w", err)
	}
	return nil
}

// Feed opens standing subscriptions to table change channels.
type Feed struct {
	client *redis.Client
	log    zerolog.Logger
}

func NewFeed(client *redis.Client, log zerolog.Logger) *Feed {
	return &Feed{client: client, log: log}
}

// Subscription delivers matching events on Events until Close is called.
// Slow consumers lose intermediate events; the latest state is recovered
// by the re-fetch the next event triggers.
type Subscription struct {
	Events <-chan Event

	pubsub *redis.PubSub
	once   sync.Once
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		if s.pubsub != nil {
			_ = s.pubsub.Close()
		}
	})
}

func (f *Feed) Subscribe(ctx context.Context, table string, filter Filter) (*Subscription, error) {
	pubsub := f.client.Subscribe(ctx, channelName(table))

	// Force the SUBSCRIBE round trip so a broken connection fails here,
	// not silently in the receive loop.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", table, err)
	}

	events := make(chan Event, 16)
	sub := &Subscription{Events: events, pubsub: pubsub}

	go func() {
		defer close(events)
		for msg := range pubsub.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				f.log.Warn().Err(err).Str("table", table).Msg("bad change payload")
				continue
			}
			if !filter.matches(ev) {
				continue
			}
			select {
			case events <- ev:
			default:
				f.log.Debug().Str("table", table).Msg("change event dropped, consumer behind")
			}
		}
	}()

	return sub, nil
}
