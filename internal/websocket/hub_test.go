package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/trentd187/championship-league/internal/pubsub"
)

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub()
	go h.Run(ctx)
	t.Cleanup(cancel)
	return h, cancel
}

func recv(t *testing.T, c *Client) ([]byte, bool) {
	t.Helper()
	select {
	case msg, ok := <-c.Send:
		return msg, ok
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	return nil, false
}

func TestHubBroadcastIsScopedToMatch(t *testing.T) {
	h, _ := startHub(t)

	watcher := NewClient("m1")
	other := NewClient("m2")
	h.Register(watcher)
	h.Register(other)

	h.BroadcastToMatch("m1", []byte("goal"))

	msg, ok := recv(t, watcher)
	if !ok || string(msg) != "goal" {
		t.Fatalf("expected goal message, got %q (open=%v)", msg, ok)
	}
	if len(other.Send) != 0 {
		t.Error("client of another match should not receive the message")
	}
	if n := h.ClientCount("m1"); n != 1 {
		t.Errorf("expected 1 client on m1, got %d", n)
	}
}

func TestHubUnregisterClosesSend(t *testing.T) {
	h, _ := startHub(t)

	c := NewClient("m1")
	h.Register(c)
	h.Unregister(c)

	if _, ok := recv(t, c); ok {
		t.Error("expected Send to be closed")
	}
	// A second unregister must not panic on a closed channel.
	h.Unregister(c)
}

func TestHubDropsSlowClient(t *testing.T) {
	h, _ := startHub(t)

	c := NewClient("m1")
	h.Register(c)
	for i := 0; i < clientBuffer+1; i++ {
		h.BroadcastToMatch("m1", []byte("x"))
	}

	deadline := time.After(2 * time.Second)
	for h.ClientCount("m1") != 0 {
		select {
		case <-deadline:
			t.Fatal("slow client was never dropped")
		case <-time.After(10 * time.Millisecond):
		}
	}

	// Drain the buffer; the channel must then be closed.
	for {
		select {
		case _, ok := <-c.Send:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("slow client was never dropped")
		}
	}
}

func TestHubStopClosesClients(t *testing.T) {
	h, cancel := startHub(t)

	c := NewClient("m1")
	h.Register(c)
	cancel()

	if _, ok := recv(t, c); ok {
		t.Error("expected Send closed on shutdown")
	}

	late := NewClient("m1")
	h.Register(late)
	if _, ok := <-late.Send; ok {
		t.Error("registering after shutdown should close Send immediately")
	}
}

func TestRelayForwardsMatchEvents(t *testing.T) {
	h, _ := startHub(t)

	bus := pubsub.NewBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Relay(ctx, bus.Subscribe())

	matchID := uuid.New()
	c := NewClient(matchID.String())
	h.Register(c)

	bus.Publish(pubsub.Event{Type: pubsub.TypeChampionshipReset, ChampionshipID: uuid.New()}) // no match, skipped
	bus.Publish(pubsub.Event{Type: pubsub.TypeEventApplied, ChampionshipID: uuid.New(), MatchID: &matchID})

	msg, ok := recv(t, c)
	if !ok {
		t.Fatal("client channel closed")
	}
	var e pubsub.Event
	if err := json.Unmarshal(msg, &e); err != nil {
		t.Fatalf("failed to decode relayed event: %v", err)
	}
	if e.Type != pubsub.TypeEventApplied {
		t.Errorf("expected %s, got %s", pubsub.TypeEventApplied, e.Type)
	}
}
