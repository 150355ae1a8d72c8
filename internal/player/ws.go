package player

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"harmonia/internal/eventbus"
)

// WSHub pushes player and media events to connected websocket clients,
// the push half of the control surface boundary: one writer goroutine per
// connection fed by a buffered channel, slow clients dropped.
type WSHub struct {
	upgrader websocket.Upgrader
	logger   *zap.Logger

	mu    sync.Mutex
	conns map[*wsConn]struct{}

	unsubscribe func()
}

type wsConn struct {
	ws   *websocket.Conn
	send chan []byte
}

type wsEnvelope struct {
	Topic   eventbus.Topic `json:"topic"`
	Payload interface{}    `json:"payload"`
}

// NewWSHub builds the hub and subscribes it to every bus topic.
func NewWSHub(bus eventbus.Bus, logger *zap.Logger) *WSHub {
	h := &WSHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger,
		conns:  make(map[*wsConn]struct{}),
	}
	h.unsubscribe = bus.SubscribeAll(h.broadcast)
	return h
}

// Close unsubscribes from the bus and closes every connection.
func (h *WSHub) Close() {
	if h.unsubscribe != nil {
		h.unsubscribe()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		close(c.send)
		delete(h.conns, c)
	}
}

// ServeHTTP upgrades the request and streams events until the client
// disconnects.
func (h *WSHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	conn := &wsConn{ws: ws, send: make(chan []byte, 64)}
	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(conn)
	h.readLoop(conn)
}

func (h *WSHub) broadcast(e eventbus.Event) {
	data, err := json.Marshal(wsEnvelope{Topic: e.Topic, Payload: e.Payload})
	if err != nil {
		h.logger.Warn("event marshal failed", zap.String("topic", string(e.Topic)), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		select {
		case c.send <- data:
		default:
			// Slow consumer; drop the connection rather than block the bus.
			close(c.send)
			delete(h.conns, c)
		}
	}
}

func (h *WSHub) writeLoop(c *wsConn) {
	defer c.ws.Close()
	for data := range c.send {
		if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

func (h *WSHub) readLoop(c *wsConn) {
	defer func() {
		h.mu.Lock()
		if _, ok := h.conns[c]; ok {
			close(c.send)
			delete(h.conns, c)
		}
		h.mu.Unlock()
		c.ws.Close()
	}()
	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			return
		}
	}
}
