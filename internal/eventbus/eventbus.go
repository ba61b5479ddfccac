// Package eventbus provides the in-process, token-keyed publish/subscribe
// channel the WebSocket adapter uses to push session events (token
// invalidation, session completion) to the connections subscribed under a
// token. It has no durability and no replay: a subscriber
// that is not listening at publish time simply misses the event, which is
// acceptable since every event also has a durable counterpart reachable by
// polling the session API.
package eventbus

import "sync"

// Event is one notification published against a session.
type Event struct {
	Topic string
	Kind  string
	Data  any
}

// subscriberBuffer bounds how many undelivered events a slow subscriber can
// accumulate before new events are dropped rather than blocking the publisher.
const subscriberBuffer = 16

// Bus is a topic-keyed, in-process pub/sub hub. The zero value is not usable;
// construct with New. Safe for concurrent use.
type Bus struct {
	mu   sync.RWMutex
	subs map[string]map[chan Event]struct{}
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[string]map[chan Event]struct{})}
}

// Subscribe registers a new listener for topic and returns a channel of
// events plus an unsubscribe function the caller must call exactly once when
// done listening (typically via defer).
func (b *Bus) Subscribe(topic string) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[chan Event]struct{})
	}
	b.subs[topic][ch] = struct{}{}
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if set, ok := b.subs[topic]; ok {
			if _, present := set[ch]; present {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(b.subs, topic)
			}
		}
	}

	return ch, unsubscribe
}

// Publish fans an event out to every current subscriber of topic. It never
// blocks: a subscriber whose buffer is full simply does not receive this
// event.
func (b *Bus) Publish(topic string, kind string, data any) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	event := Event{Topic: topic, Kind: kind, Data: data}
	for ch := range b.subs[topic] {
		select {
		case ch <- event:
		default:
		}
	}
}

// SubscriberCount reports how many listeners currently hold topic, mostly
// useful for tests and diagnostics.
func (b *Bus) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}
