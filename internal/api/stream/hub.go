package stream

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/slgirgis/horizonscale/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 16
)

// Event is one progress message pushed to connected clients.
type Event struct {
	Type    string      `json:"type"`
	RunID   string      `json:"run_id,omitempty"`
	Done    int         `json:"done,omitempty"`
	Total   int         `json:"total,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

// Hub fans run-progress events out to websocket subscribers.
// 느린 클라이언트는 끊는다: run 진행을 블로킹하지 않기 위해
// ⭐ SSOT: 진행 스트림 브로드캐스트는 이 허브에서만
type Hub struct {
	upgrader websocket.Upgrader
	logger   *logger.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewHub creates a new hub
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Dashboard origins are enforced upstream
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:  log.Component("stream"),
		clients: map[*client]struct{}{},
	}
}

// ServeWS upgrades the request and subscribes the connection
// GET /ws/progress
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBufferSize)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.WithField("clients", count).Info("Progress subscriber connected")

	go h.writeLoop(c)
	go h.readLoop(c)
}

// Broadcast pushes an event to every subscriber. Subscribers whose
// buffer is full are dropped rather than awaited.
func (h *Hub) Broadcast(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.WithError(err).Error("Failed to marshal progress event")
		return
	}

	h.mu.RLock()
	var stale []*client
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			stale = append(stale, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stale {
		h.drop(c)
	}
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.drop(c)
			return
		}
	}
}

// readLoop drains the connection so close frames are processed.
func (h *Hub) readLoop(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.drop(c)
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()

	if ok {
		c.conn.Close()
		h.logger.Debug("Progress subscriber dropped")
	}
}
