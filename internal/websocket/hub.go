package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/abndnt/paris-night-sub001/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// Message is the envelope pushed to subscribed clients.
type Message struct {
	Type      string                `json:"type"`
	SearchID  string                `json:"search_id"`
	Progress  models.SearchProgress `json:"progress"`
	Timestamp int64                 `json:"timestamp"`
}

// Client is one subscriber watching one search.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	searchID string
}

// Hub relays search progress to WebSocket subscribers, keyed by search id.
// It implements the orchestrator's progress observer.
type Hub struct {
	mu         sync.RWMutex
	clients    map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan models.SearchProgress
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan models.SearchProgress, 256),
	}
}

// Run drives the hub's event loop until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.searchID] == nil {
				h.clients[client.searchID] = make(map[*Client]bool)
			}
			h.clients[client.searchID][client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.searchID]; ok {
				if _, ok := clients[client]; ok {
					delete(clients, client)
					close(client.send)
					if len(clients) == 0 {
						delete(h.clients, client.searchID)
					}
				}
			}
			h.mu.Unlock()

		case progress := <-h.broadcast:
			h.deliver(progress)

		case <-ctx.Done():
			return
		}
	}
}

// ProgressUpdated queues a snapshot for delivery. Never blocks the
// orchestrator; under backpressure updates are dropped, and the next
// snapshot supersedes them anyway.
func (h *Hub) ProgressUpdated(p models.SearchProgress) {
	select {
	case h.broadcast <- p:
	default:
	}
}

func (h *Hub) deliver(p models.SearchProgress) {
	h.mu.RLock()
	clients := h.clients[p.SearchID]
	h.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	data, err := json.Marshal(Message{
		Type:      "search_progress",
		SearchID:  p.SearchID,
		Progress:  p,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		log.Printf("websocket: failed to marshal progress for %s: %v", p.SearchID, err)
		return
	}

	for client := range clients {
		select {
		case client.send <- data:
		default:
			// Slow consumer; drop this frame rather than stall the hub.
		}
	}
}

// Subscribe attaches an upgraded connection to a search's update feed and
// blocks until the peer disconnects.
func (h *Hub) Subscribe(conn *websocket.Conn, searchID string) {
	client := &Client{
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, 16),
		searchID: searchID,
	}
	h.register <- client

	go client.writePump()
	client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
