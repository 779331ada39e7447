package hub

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"lanwatch/internal/domain"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 45 * time.Second
)

// Event is the frame pushed to every subscriber
type Event struct {
	Kind string `json:"kind"`
	Data any    `json:"data"`
}

// SnapshotSource supplies the device list for the initial event. Satisfied
// by *store.Store.
type SnapshotSource interface {
	List() []domain.Device
}

// Client represents a connected websocket subscriber
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub manages websocket subscribers. All membership changes and broadcasts
// flow through the single Run loop, so a client's initial snapshot is always
// enqueued before any later broadcast reaches it.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan Event

	snapshot SnapshotSource
	upgrader websocket.Upgrader
}

// New creates a new Hub
func New(snapshot SnapshotSource) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, 256),
		snapshot:   snapshot,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("Subscriber connected: %s (total: %d)", client.id, total)

			if h.snapshot != nil {
				h.deliver(client, Event{Kind: "initial", Data: h.snapshot.List()})
			}

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			log.Printf("Subscriber disconnected: %s (total: %d)", client.id, total)

		case event := <-h.broadcast:
			data, err := json.Marshal(event)
			if err != nil {
				log.Printf("Failed to marshal %s event: %v", event.Kind, err)
				continue
			}

			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					// Client is slow, skip this message
					log.Printf("Subscriber %s is slow, skipping %s event", client.id, event.Kind)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// deliver marshals and enqueues an event for a single client
func (h *Hub) deliver(client *Client, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal %s event: %v", event.Kind, err)
		return
	}
	select {
	case client.send <- data:
	default:
		log.Printf("Subscriber %s is slow, skipping %s event", client.id, event.Kind)
	}
}

// Broadcast sends an event to all connected subscribers
func (h *Hub) Broadcast(kind string, data any) {
	select {
	case h.broadcast <- Event{Kind: kind, Data: data}:
	default:
		log.Println("Broadcast channel full, dropping event")
	}
}

// ClientCount returns the number of connected subscribers
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the connection and attaches it as a subscriber
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Websocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		id:   fmt.Sprintf("%d", time.Now().UnixNano()),
		conn: conn,
		send: make(chan []byte, 64),
	}
	h.register <- client

	go client.writePump()
	client.readPump(h)
}

// readPump drains inbound frames so pong handlers run and connection close
// is detected. The channel is push-only, inbound payloads are discarded.
func (c *Client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump flushes the send queue to the socket and keeps the connection
// alive with pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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
