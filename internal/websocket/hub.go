package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"TradePilot/internal/service/tracker"
	xlogger "TradePilot/pkg/logger"
)

// Message types pushed to dashboard clients.
const (
	MessagePerformance = "performance"
	MessageAnalysis    = "analysis"
	MessageExecution   = "execution"
)

type envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub fans out snapshot and event messages to every connected dashboard
// client. Slow clients are dropped rather than allowed to block the
// broadcast loop.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	logger     *xlogger.Logger

	mu sync.RWMutex
}

func NewHub(logger *xlogger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

// Run processes registrations and broadcasts until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			if h.logger != nil {
				h.logger.Debug("ws client connected", xlogger.Int("total", total))
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			var slow []*Client
			for _, client := range clients {
				select {
				case client.send <- message:
				default:
					slow = append(slow, client)
				}
			}
			if len(slow) > 0 {
				h.mu.Lock()
				for _, client := range slow {
					if _, ok := h.clients[client]; ok {
						delete(h.clients, client)
						close(client.send)
					}
				}
				h.mu.Unlock()
				if h.logger != nil {
					h.logger.Warn("dropped slow ws clients", xlogger.Int("count", len(slow)))
				}
			}
		}
	}
}

// Broadcast marshals v into a typed envelope and queues it for every client.
func (h *Hub) Broadcast(messageType string, v interface{}) {
	data, err := json.Marshal(envelope{Type: messageType, Data: v})
	if err != nil {
		if h.logger != nil {
			h.logger.Warn("ws marshal failed", xlogger.Error(err))
		}
		return
	}
	select {
	case h.broadcast <- data:
	default:
		// broadcast buffer full, drop
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

// Snapshots holds anything that can produce a performance snapshot.
type Snapshots interface {
	Performance() tracker.Snapshot
}

// PushSnapshots broadcasts the performance snapshot every interval until ctx
// is cancelled. Intended to run as a goroutine next to Run.
func (h *Hub) PushSnapshots(ctx context.Context, src Snapshots, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if h.ClientCount() == 0 {
				continue
			}
			h.Broadcast(MessagePerformance, src.Performance())
		}
	}
}
