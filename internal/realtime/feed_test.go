package realtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterMatches(t *testing.T) {
	everything := Filter{}
	assert.True(t, everything.matches(Event{Table: "products", Type: EventInsert}))
	assert.True(t, everything.matches(Event{Table: "orders", Type: EventDelete, UserID: "u1"}))

	updatesOnly := Filter{Types: []EventType{EventUpdate}}
	assert.True(t, updatesOnly.matches(Event{Type: EventUpdate}))
	assert.False(t, updatesOnly.matches(Event{Type: EventInsert}))

	mine := Filter{Types: []EventType{EventUpdate}, UserID: "u1"}
	assert.True(t, mine.matches(Event{Type: EventUpdate, UserID: "u1"}))
	assert.False(t, mine.matches(Event{Type: EventUpdate, UserID: "u2"}))
	assert.False(t, mine.matches(Event{Type: EventInsert, UserID: "u1"}))
}

func TestChannelNamePerTable(t *testing.T) {
	assert.Equal(t, "geoshop:changes:products", channelName("products"))
	assert.Equal(t, "geoshop:changes:orders", channelName("orders"))
}

func TestNilPublisherIsNoop(t *testing.T) {
	var p *Publisher
	assert.NoError(t, p.Publish(context.Background(), Event{Table: "products", Type: EventInsert}))

	assert.NoError(t, (&Publisher{}).Publish(context.Background(), Event{Table: "products"}))
}

func TestSubscriptionCloseIsIdempotent(t *testing.T) {
	events := make(chan Event)
	sub := &Subscription{Events: events}
	sub.Close()
	sub.Close()
}
