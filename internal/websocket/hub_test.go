package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func TestHubBroadcastEnvelope(t *testing.T) {
	h := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	client := &Client{hub: h, send: make(chan []byte, 4)}
	h.register <- client
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	h.Broadcast(MessageAnalysis, map[string]string{"symbol": "BTCUSDT"})

	select {
	case raw := <-client.send:
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("bad payload: %v", err)
		}
		if env.Type != MessageAnalysis {
			t.Fatalf("type %q, want %q", env.Type, MessageAnalysis)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("no message delivered")
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	h := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	// zero-capacity channel with no reader simulates a stuck client
	slow := &Client{hub: h, send: make(chan []byte)}
	h.register <- slow
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	h.Broadcast(MessageExecution, "x")
	waitFor(t, func() bool { return h.ClientCount() == 0 })
}

func TestHubShutdownClosesClients(t *testing.T) {
	h := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	client := &Client{hub: h, send: make(chan []byte, 1)}
	h.register <- client
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	cancel()
	waitFor(t, func() bool {
		select {
		case _, ok := <-client.send:
			return !ok
		default:
			return false
		}
	})
}
