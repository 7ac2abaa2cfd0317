// Package live streams order events to connected admin dashboards over WebSocket.
package live

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/01moynul/storefront-golang/internal/events"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

type Message struct {
	Type      string            `json:"type"`
	Data      events.OrderEvent `json:"data"`
	Timestamp string            `json:"timestamp"`
}

type client struct {
	conn   *websocket.Conn
	send   chan Message
	hub    *Hub
	logger *logrus.Logger
}

// Hub fans published order events out to every connected client. It also
// satisfies events.Publisher.
type Hub struct {
	clients    map[*client]bool
	broadcast  chan Message
	register   chan *client
	unregister chan *client
	// done is closed when Run returns.
	done     chan struct{}
	mutex    sync.RWMutex
	upgrader websocket.Upgrader
	logger   *logrus.Logger
}

// NewHub builds a hub accepting upgrades only from allowedOrigin (any origin when empty).
func NewHub(allowedOrigin string, logger *logrus.Logger) *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowedOrigin == "" || origin == "" || origin == allowedOrigin
			},
		},
		logger: logger,
	}
}

// Run serves the hub until ctx is cancelled, then closes every client.
// Connections arriving afterwards are closed straight away.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mutex.Unlock()
			return

		case c := <-h.register:
			h.mutex.Lock()
			h.clients[c] = true
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.WithField("client_count", count).Info("Live feed client connected")

		case c := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.WithField("client_count", count).Info("Live feed client disconnected")

		case message := <-h.broadcast:
			h.mutex.Lock()
			for c := range h.clients {
				select {
				case c.send <- message:
				default:
					// Slow consumer; drop it rather than block the hub.
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Publish queues e for every connected client. A full queue drops the event.
func (h *Hub) Publish(_ context.Context, e events.OrderEvent) error {
	message := Message{
		Type:      e.Type,
		Data:      e,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("Broadcast channel full, dropping message")
	}
	return nil
}

// ServeHTTP upgrades the request and attaches the connection to the hub.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Error("Failed to upgrade to WebSocket")
		return
	}

	c := &client{
		conn:   conn,
		send:   make(chan Message, 256),
		hub:    h,
		logger: h.logger,
	}
	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func (h *Hub) ClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// readPump only services control frames; admins never send data.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.WithError(err).Error("WebSocket error")
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(message)
			if err != nil {
				c.logger.WithError(err).Error("Failed to marshal WebSocket message")
				continue
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
