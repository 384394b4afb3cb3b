// Package websocket implements a WebSocket Hub for broadcasting live match updates.
// WebSockets are persistent two-way connections between the server and clients: unlike
// regular HTTP where the client always initiates the request, WebSockets let the server
// push data to clients instantly. This is used so people following a match see goals and
// assists the moment they're recorded, without polling the API repeatedly.
package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/trentd187/championship-league/internal/pubsub"
)

// clientBuffer is how many outgoing messages a client may have queued before it is
// considered too slow and dropped.
const clientBuffer = 32

// Client represents a single connected WebSocket client.
// Each browser tab following a live match has one Client instance on the server.
type Client struct {
	MatchID string      // Which match this client is following; used to route messages
	Send    chan []byte // Buffered channel of outgoing messages; the Hub writes here, the connection drains it
}

// NewClient creates a client following the given match.
func NewClient(matchID string) *Client {
	return &Client{MatchID: matchID, Send: make(chan []byte, clientBuffer)}
}

// Message is a unit of data to broadcast to all clients following a specific match.
type Message struct {
	MatchID string
	Data    []byte // Raw bytes to send, JSON-encoded pubsub.Event
}

// Hub manages all active WebSocket connections, grouped by match ID.
// It runs in its own goroutine and processes registration, unregistration and broadcast
// events through channels, which keeps all writes to the clients map on one goroutine.
type Hub struct {
	// clients is a nested map: matchID -> set of Client pointers.
	// map[*Client]bool is the usual Go "set" since Go has no built-in set type.
	clients map[string]map[*Client]bool

	broadcast  chan *Message // Incoming messages to be sent to all clients following a match
	register   chan *Client  // A new client has connected and should be tracked
	unregister chan *Client  // A client has disconnected and should be removed
	done       chan struct{} // Closed when Run returns

	// mu protects clients for readers outside the Run loop (ClientCount).
	mu sync.RWMutex
}

// NewHub creates and initializes a Hub with empty channels and maps.
// The broadcast channel has a buffer of 256 so writers don't block immediately if the Hub
// goroutine is briefly busy.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run is the Hub's main event loop. It must be called in a goroutine ("go hub.Run(ctx)")
// and returns when ctx is cancelled, closing every remaining client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for matchID, clients := range h.clients {
				for client := range clients {
					close(client.Send)
				}
				delete(h.clients, matchID)
			}
			h.mu.Unlock()
			close(h.done)
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.MatchID] == nil {
				h.clients[client.MatchID] = make(map[*Client]bool)
			}
			h.clients[client.MatchID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.remove(client)

		case msg := <-h.broadcast:
			h.mu.RLock()
			var slow []*Client
			for client := range h.clients[msg.MatchID] {
				select {
				case client.Send <- msg.Data:
				// A full buffer means the client stopped reading: drop it rather than block
				// every other client of the match.
				default:
					slow = append(slow, client)
				}
			}
			h.mu.RUnlock()

			for _, client := range slow {
				log.Debug().Str("match_id", client.MatchID).Msg("websocket: dropping slow client")
				h.remove(client)
			}
		}
	}
}

// remove deletes the client and closes its Send channel. Removing a client twice is a no-op.
func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.MatchID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.Send) // signals the connection's writer goroutine to stop
	if len(clients) == 0 {
		delete(h.clients, client.MatchID)
	}
}

// BroadcastToMatch sends data to all clients currently following the given match.
func (h *Hub) BroadcastToMatch(matchID string, data []byte) {
	select {
	case h.broadcast <- &Message{MatchID: matchID, Data: data}:
	case <-h.done:
	}
}

// Register adds a client to the Hub so it starts receiving broadcasts for its match.
// After the Hub has stopped the client's Send channel is closed immediately.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

// Unregister removes a client from the Hub when its WebSocket connection closes.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount returns how many clients follow the given match.
func (h *Hub) ClientCount(matchID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[matchID])
}

// Relay forwards every match-scoped event from the bus subscription to the clients of that
// match. It returns when ctx is cancelled or the subscription is closed.
func (h *Hub) Relay(ctx context.Context, events <-chan pubsub.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			if e.MatchID == nil {
				continue
			}
			data, err := json.Marshal(e)
			if err != nil {
				log.Error().Err(err).Str("type", e.Type).Msg("websocket: failed to encode event")
				continue
			}
			select {
			case h.broadcast <- &Message{MatchID: e.MatchID.String(), Data: data}:
			case <-ctx.Done():
				return
			case <-h.done:
				return
			}
		}
	}
}
