// Package notify provides the process-wide change notification hub.
//
// Producers (the object store and the clipboard store) publish a tag after
// each successful mutation; consumers (live update streams) subscribe for the
// lifetime of their connection. Delivery is fire-and-forget: an event fired
// with no subscriber is lost, and consumers re-fetch full state on receipt.
package notify

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Event is a change notification tag.
type Event string

// The closed set of event tags.
const (
	// EventFiles signals that the object store changed.
	EventFiles Event = "files"
	// EventClipboard signals that the clipboard list changed.
	EventClipboard Event = "clipboard"
	// EventPing is the keep-alive marker emitted by live update streams.
	EventPing Event = "ping"
)

// subscriberBuffer is the per-subscriber channel capacity. A slow consumer
// that falls more than this many events behind starts dropping; consumers
// re-fetch full state per event, so a drop only delays convergence.
const subscriberBuffer = 64

// Subscriber is one registration on a Hub. Events arrive on the channel
// returned by Events until Unsubscribe closes it.
type Subscriber struct {
	events chan Event
	tags   map[Event]struct{}
}

// Events returns the channel on which subscribed events are delivered.
// The channel is closed by Hub.Unsubscribe.
func (s *Subscriber) Events() <-chan Event {
	return s.events
}

// wants reports whether the subscriber registered for the given tag.
func (s *Subscriber) wants(ev Event) bool {
	_, ok := s.tags[ev]
	return ok
}

// Hub is a many-producer/many-consumer event channel. Construct one per
// process with NewHub and pass it to the components that need it; tests
// construct isolated instances.
type Hub struct {
	subs map[*Subscriber]struct{}
	mu   sync.RWMutex
}

// NewHub creates an empty notification hub.
func NewHub() *Hub {
	return &Hub{
		subs: make(map[*Subscriber]struct{}),
	}
}

// Subscribe registers a new subscriber for the given tags and returns it.
// The caller must call Unsubscribe when done; failing to do so leaks the
// registration for the life of the process.
func (h *Hub) Subscribe(tags ...Event) *Subscriber {
	sub := &Subscriber{
		events: make(chan Event, subscriberBuffer),
		tags:   make(map[Event]struct{}, len(tags)),
	}
	for _, tag := range tags {
		sub.tags[tag] = struct{}{}
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[sub] = struct{}{}
	log.Debug().Int("subscribers", len(h.subs)).Msg("notify subscriber registered")
	return sub
}

// Unsubscribe removes a subscriber and closes its event channel.
// Safe to call more than once.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.events)
		log.Debug().Int("subscribers", len(h.subs)).Msg("notify subscriber removed")
	}
}

// Publish delivers the event to every subscriber registered for its tag,
// in registration-independent order. The send never blocks: a subscriber
// whose buffer is full misses the event.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs {
		if !sub.wants(ev) {
			continue
		}
		select {
		case sub.events <- ev:
		default:
			log.Debug().Str("event", string(ev)).Msg("subscriber buffer full, dropping event")
		}
	}
}

// SubscriberCount returns the number of registered subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
