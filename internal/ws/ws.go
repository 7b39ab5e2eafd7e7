package ws

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/huddle-im/huddle/internal/metrics"
	"github.com/huddle-im/huddle/internal/session"
)

// Hub fans session events out to every connected presentation client.
// Clients are render mirrors of the same session, so there is no per-user
// routing: everyone gets every event and refetches the snapshot.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan RenderEvent
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

type Client struct {
	conn *websocket.Conn
	hub  *Hub
	send chan RenderEvent
}

// RenderEvent tells a presentation client why it should re-render.
type RenderEvent struct {
	Type      string    `json:"type"` // "connected", "render"
	Kind      string    `json:"kind,omitempty"`
	UserID    string    `json:"user_id,omitempty"`
	MessageID string    `json:"message_id,omitempty"`
	At        time.Time `json:"at"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// In production, validate origin
		return true
	},
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan RenderEvent, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// ClientCount reports how many render clients are connected.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastEvent feeds a session mutation into the render stream.
func (h *Hub) BroadcastEvent(ev session.Event) {
	h.broadcast <- RenderEvent{
		Type:      "render",
		Kind:      string(ev.Kind),
		UserID:    ev.UserID,
		MessageID: ev.MessageID,
		At:        time.Now(),
	}
}

// Run dispatches until ctx is cancelled, then drops every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			metrics.WSClients.Set(0)
			log.Printf("ws: hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			metrics.WSClients.Set(float64(total))
			log.Printf("ws: client connected (total: %d)", total)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			metrics.WSClients.Set(float64(total))
			log.Printf("ws: client disconnected (total: %d)", total)

		case ev := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- ev:
				default:
					log.Printf("ws: render channel full, dropping event %q", ev.Kind)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// HandleWebSocket upgrades the request and attaches the client to the hub.
func (h *Hub) HandleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws: upgrade error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "websocket upgrade failed"})
		return
	}

	client := &Client{
		conn: conn,
		hub:  h,
		send: make(chan RenderEvent, 256),
	}

	// Queue the welcome before the pumps start so it is the first frame out.
	client.send <- RenderEvent{Type: "connected", At: time.Now()}

	h.register <- client

	go client.readPump()
	go client.writePump()
}

// readPump discards inbound frames; the render stream is one-way. It keeps
// the read side alive for pong handling and notices disconnects.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("ws: read error: %v", err)
			}
			break
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
