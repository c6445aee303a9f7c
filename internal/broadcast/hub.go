// Package broadcast implements the Drop-scoped WebSocket fan-out hub.
//
// Each live connection subscribes to exactly one Drop at a time (the
// default Drop at connect). The Hub tracks a per-Drop subscriber
// refcount so the ingest pipeline can skip staging broadcast work
// entirely when nobody is listening to a Drop.
package broadcast

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/raphael-dev/raphael/internal/logger"
)

const (
	sendBuffer   = 256
	writeTimeout = 10 * time.Second
	pingPeriod   = 30 * time.Second
	pongWait     = 60 * time.Second
)

// Session is the minimal identity carried by an authenticated socket,
// supplied by the HTTP surface after resolving the AuthContext.
type Session struct {
	UserID  string
	Role    string
	Disable bool
}

// Resolver looks up a drop by name or id and checks query capability,
// implemented by internal/drops and internal/auth respectively so this
// package stays free of a direct dependency on either.
type Resolver interface {
	ResolveDrop(nameOrID string, allowCreate bool) (dropID string, err error)
	CanQuery(sess *Session, dropID string) bool
	DefaultDropID() string
}

// Hub maintains all live connections and the per-Drop subscriber counts.
type Hub struct {
	mu          sync.RWMutex
	clients     map[*Client]bool
	subscribers map[string]int // dropID -> refcount

	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastMsg

	resolver Resolver
}

type broadcastMsg struct {
	dropID  string // "" means all sockets
	payload []byte
}

// Close codes used when rejecting a connection per spec.
const (
	CloseUnauthorized = 4401
	CloseDisabled     = 4403
)

// NewHub creates an empty hub. Call Run in its own goroutine before
// serving connections.
func NewHub(resolver Resolver) *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		subscribers: make(map[string]int),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		broadcast:   make(chan broadcastMsg, 256),
		resolver:    resolver,
	}
}

// Client represents one live WebSocket connection.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	sess   *Session
	dropID string
	mu     sync.Mutex
}

// Run processes registration, unregistration, and broadcast requests on
// a single goroutine so the subscriber map never needs external locking
// beyond what Hub.mu already provides for read-only lookups.
func (h *Hub) Run() {
	log := logger.WebSocket()
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.subscribers[c.dropID]++
			h.mu.Unlock()
			log.Debug().Str("drop_id", c.dropID).Msg("client registered")

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				h.decrRefLocked(c.dropID)
				close(c.send)
			}
			h.mu.Unlock()

		case m := <-h.broadcast:
			h.deliver(m)
		}
	}
}

func (h *Hub) decrRefLocked(dropID string) {
	if dropID == "" {
		return
	}
	if n := h.subscribers[dropID]; n <= 1 {
		delete(h.subscribers, dropID)
	} else {
		h.subscribers[dropID] = n - 1
	}
}

func (h *Hub) deliver(m broadcastMsg) {
	h.mu.RLock()
	var stale []*Client
	for c := range h.clients {
		if m.dropID != "" && c.dropID != m.dropID {
			continue
		}
		select {
		case c.send <- m.payload:
		default:
			stale = append(stale, c)
		}
	}
	h.mu.RUnlock()

	if len(stale) == 0 {
		return
	}
	h.mu.Lock()
	for _, c := range stale {
		if _, ok := h.clients[c]; ok {
			delete(h.clients, c)
			h.decrRefLocked(c.dropID)
			close(c.send)
		}
	}
	h.mu.Unlock()
}

// HasSubscribers reports whether any connection currently subscribes to
// dropID. Used by the ingest pipeline to skip staging work entirely.
func (h *Hub) HasSubscribers(dropID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.subscribers[dropID] > 0
}

// Broadcast sends payload to every socket subscribed to dropID, or to
// every socket if dropID is empty (legacy all-socket fan-out, kept per
// spec.md §9 design note (c)).
func (h *Hub) Broadcast(payload []byte, dropID string) {
	h.broadcast <- broadcastMsg{dropID: dropID, payload: payload}
}

// ClientCount returns the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Serve upgrades conn into a registered Client subscribed to the
// default Drop, then starts its read/write pumps. sess is nil when auth
// is disabled.
func (h *Hub) Serve(conn *websocket.Conn, sess *Session) {
	c := &Client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		sess:   sess,
		dropID: h.resolver.DefaultDropID(),
	}
	h.register <- c
	c.writeJSON(map[string]any{"type": "connected"})

	go c.writePump()
	c.readPump()
}

type subscribeRequest struct {
	Type   string `json:"type"`
	Drop   string `json:"drop"`
	DropID string `json:"dropId"`
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	log := logger.WebSocket()
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Msg("websocket read error")
			}
			return
		}
		c.handleMessage(raw)
	}
}

func (c *Client) handleMessage(raw []byte) {
	var req subscribeRequest
	if err := json.Unmarshal(raw, &req); err != nil || req.Type != "subscribe" {
		c.writeJSON(map[string]any{"type": "error", "error": "unrecognized message"})
		return
	}

	name := req.DropID
	if name == "" {
		name = req.Drop
	}

	allowCreate := c.sess == nil || c.sess.Role == "admin"
	dropID, err := c.hub.resolver.ResolveDrop(name, allowCreate)
	if err != nil {
		c.writeJSON(map[string]any{"type": "error", "error": "drop not found"})
		return
	}
	if !c.hub.resolver.CanQuery(c.sess, dropID) {
		c.writeJSON(map[string]any{"type": "error", "error": "forbidden"})
		return
	}

	c.hub.mu.Lock()
	c.hub.decrRefLocked(c.dropID)
	c.dropID = dropID
	c.hub.subscribers[dropID]++
	c.hub.mu.Unlock()

	c.writeJSON(map[string]any{"type": "subscribed", "drop_id": dropID})
}

func (c *Client) writeJSON(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case c.send <- b:
	default:
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
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
