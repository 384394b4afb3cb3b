package pubsub

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// NATSPublisher publishes events as JSON on "<subject>.<event type>" and relays every
// message received under "<subject>.>" to its local subscribers.
type NATSPublisher struct {
	nc          *nats.Conn
	sub         *nats.Subscription
	subject     string
	ownsConn    bool
	mu          sync.RWMutex
	subscribers []chan Event
}

// NewNATSPublisher connects to the NATS server at url.
func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("championship-league"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	p, err := NewNATSPublisherWithConn(nc, subject)
	if err != nil {
		nc.Close()
		return nil, err
	}
	p.ownsConn = true
	return p, nil
}

// NewNATSPublisherWithConn uses an existing connection. The caller keeps ownership of nc.
func NewNATSPublisherWithConn(nc *nats.Conn, subject string) (*NATSPublisher, error) {
	p := &NATSPublisher{
		nc:          nc,
		subject:     subject,
		subscribers: []chan Event{},
	}

	sub, err := nc.Subscribe(subject+".>", p.relay)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s.>: %w", subject, err)
	}
	// Make sure the server has registered the subscription before anything is published.
	if err := nc.Flush(); err != nil {
		_ = sub.Unsubscribe()
		return nil, fmt.Errorf("failed to flush NATS subscription: %w", err)
	}
	p.sub = sub
	return p, nil
}

func (p *NATSPublisher) relay(msg *nats.Msg) {
	var e Event
	if err := json.Unmarshal(msg.Data, &e); err != nil {
		log.Error().Err(err).Str("subject", msg.Subject).Msg("pubsub: failed to decode NATS message")
		return
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, ch := range p.subscribers {
		select {
		case ch <- e:
		default:
			log.Warn().Str("type", e.Type).Msg("pubsub: dropping NATS event for slow subscriber")
		}
	}
}

// Publish sends e to NATS. Failures are logged.
func (p *NATSPublisher) Publish(e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		log.Error().Err(err).Str("type", e.Type).Msg("pubsub: failed to encode event")
		return
	}
	subject := p.subject + "." + e.Type
	if err := p.nc.Publish(subject, data); err != nil {
		log.Error().Err(err).Str("subject", subject).Msg("pubsub: failed to publish to NATS")
		return
	}
	log.Debug().Str("subject", subject).Msg("pubsub: published to NATS")
}

// Subscribe returns a channel receiving every event seen on the NATS subject tree.
func (p *NATSPublisher) Subscribe() chan Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	p.subscribers = append(p.subscribers, ch)
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (p *NATSPublisher) Unsubscribe(ch chan Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, sub := range p.subscribers {
		if sub == ch {
			close(ch)
			p.subscribers = append(p.subscribers[:i], p.subscribers[i+1:]...)
			return
		}
	}
}

// Close drops the NATS subscription, closes local subscribers and, when the publisher
// opened the connection itself, the connection.
func (p *NATSPublisher) Close() {
	if p.sub != nil {
		_ = p.sub.Unsubscribe()
	}

	p.mu.Lock()
	for _, ch := range p.subscribers {
		close(ch)
	}
	p.subscribers = nil
	p.mu.Unlock()

	if p.ownsConn {
		p.nc.Close()
	}
}
