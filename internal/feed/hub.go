// Package feed broadcasts projected dashboard frames to WebSocket clients.
package feed

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"DashSync/internal/view"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
	sendBuffer = 8
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan view.Frame
}

// Hub keeps the latest frame and fans every new one out to connected clients.
// A client that falls behind by more than its buffer is disconnected.
type Hub struct {
	mu      sync.Mutex
	clients map[string]*client
	latest  *view.Frame
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*client)}
}

// Publish implements dashboard.Publisher.
func (h *Hub) Publish(f view.Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = &f
	for id, c := range h.clients {
		select {
		case c.send <- f:
		default:
			log.Printf("[WARN] feed client %s too slow, dropping", id)
			delete(h.clients, id)
			close(c.send)
		}
	}
}

// Latest returns the most recent frame.
func (h *Hub) Latest() (view.Frame, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.latest == nil {
		return view.Frame{}, false
	}
	return *h.latest, true
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the connection and streams frames, starting with the latest one.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WARN] feed upgrade: %v", err)
		return
	}
	c := &client{id: uuid.NewString(), conn: conn, send: make(chan view.Frame, sendBuffer)}

	h.mu.Lock()
	if h.latest != nil {
		c.send <- *h.latest
	}
	h.clients[c.id] = c
	h.mu.Unlock()
	log.Printf("[INFO] feed client %s connected from %s", c.id, r.RemoteAddr)

	go h.writePump(c)
	h.readPump(c)
}

// readPump discards inbound messages and notices when the client goes away.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.remove(c)
		c.conn.Close()
		log.Printf("[INFO] feed client %s disconnected", c.id)
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

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case f, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(f); err != nil {
				log.Printf("[WARN] feed write to %s: %v", c.id, err)
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

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cur, ok := h.clients[c.id]; ok && cur == c {
		delete(h.clients, c.id)
		close(c.send)
	}
}

// Handler serves the WebSocket feed at /ws and the latest frame as JSON at /frame.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", h)
	mux.HandleFunc("/frame", func(w http.ResponseWriter, r *http.Request) {
		f, ok := h.Latest()
		if !ok {
			http.Error(w, `{"error":"no frame yet"}`, http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(f)
	})
	return mux
}
