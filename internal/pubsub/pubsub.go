// Package pubsub fans out change notifications (ledger writes, match and championship state
// changes) to in-process subscribers such as the live websocket feed, optionally bridged
// through NATS so several API instances see each other's events.
package pubsub

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Event types.
const (
	TypeEventApplied          = "event.applied"
	TypeEventRetracted        = "event.retracted"
	TypeMatchCreated          = "match.created"
	TypeMatchFinalized        = "match.finalized"
	TypeChampionshipFinalized = "championship.finalized"
	TypeChampionshipReset     = "championship.reset"
	TypeLedgerRebuilt         = "ledger.rebuilt"
)

// subscriberBuffer is the channel capacity of each local subscriber.
const subscriberBuffer = 64

// Event is a notification about something that changed in a championship.
type Event struct {
	Type           string     `json:"type"`
	ChampionshipID uuid.UUID  `json:"championship_id"`
	MatchID        *uuid.UUID `json:"match_id,omitempty"`
	Payload        any        `json:"payload,omitempty"`
	At             time.Time  `json:"at"`
}

// Publisher is anything events can be handed to. Publishing never fails from the caller's
// point of view: delivery is best-effort and errors are logged.
type Publisher interface {
	Publish(Event)
}

// Upstream is a remote transport the Bus can bridge to (NATS).
type Upstream interface {
	Publisher
	Subscribe() chan Event
	Unsubscribe(chan Event)
}

// Bus is an in-process publish-subscribe hub.
type Bus struct {
	mu          sync.RWMutex
	subscribers []chan Event
	upstream    Upstream
}

// NewBus creates a Bus that only delivers to local subscribers.
func NewBus() *Bus {
	return &Bus{subscribers: []chan Event{}}
}

// NewBusWithUpstream creates a Bus that sends every event to upstream and delivers whatever
// upstream relays back (including this instance's own events) to local subscribers.
func NewBusWithUpstream(upstream Upstream) *Bus {
	b := &Bus{subscribers: []chan Event{}, upstream: upstream}

	ch := upstream.Subscribe()
	go func() {
		for e := range ch {
			b.publishLocal(e)
		}
		log.Debug().Msg("pubsub: upstream channel closed")
	}()

	return b
}

// Subscribe registers a new subscriber. Events are dropped for subscribers whose buffer is
// full.
func (b *Bus) Subscribe() chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (b *Bus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subscribers {
		if sub == ch {
			close(ch)
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			return
		}
	}
}

// SubscriberCount returns the number of local subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// Publish delivers e to every subscriber, through upstream when one is configured.
func (b *Bus) Publish(e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	if b.upstream != nil {
		b.upstream.Publish(e)
		return
	}
	b.publishLocal(e)
}

func (b *Bus) publishLocal(e Event) {
	// Sends never block, so holding the read lock keeps Unsubscribe from closing a channel
	// mid-send.
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- e:
		default:
			log.Warn().Str("type", e.Type).Msg("pubsub: dropping event for slow subscriber")
		}
	}
}

// Close closes every subscriber channel.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subscribers {
		close(ch)
	}
	b.subscribers = nil
}

// Discard is a Publisher that drops every event.
type Discard struct{}

// Publish implements Publisher.
func (Discard) Publish(Event) {}
