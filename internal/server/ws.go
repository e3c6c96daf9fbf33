package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ayusman/abhinaya/internal/app"
	"github.com/ayusman/abhinaya/internal/interaction"
	"github.com/ayusman/abhinaya/internal/logger"
	"github.com/ayusman/abhinaya/internal/metrics"
	"github.com/ayusman/abhinaya/internal/store"
)

const (
	// maxMessageBytes bounds one inbound message; recording chunks are the
	// largest.
	maxMessageBytes = 8 << 20
	clientBuffer    = 64
	writeWait       = 5 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// EventSource is the app side of the event hub.
type EventSource interface {
	Dispatch(ctx context.Context, ev interaction.Event) error
	View() interaction.View
	CameraRunning() bool
	Subscribe() (<-chan app.Notification, func())
}

// Message types sent to clients.
const (
	MsgHello    = "hello"
	MsgView     = "view"
	MsgEffect   = "effect"
	MsgArtifact = "artifact"
	MsgCamera   = "camera"
	MsgError    = "error"
)

// outMessage is the JSON form of everything sent to clients.
type outMessage struct {
	Type     string                 `json:"type"`
	ClientID string                 `json:"client_id,omitempty"`
	View     *interaction.View      `json:"view,omitempty"`
	Effect   interaction.EffectKind `json:"effect,omitempty"`
	Source   interaction.Source     `json:"source,omitempty"`
	Handled  bool                   `json:"handled,omitempty"`
	Artifact *store.Artifact        `json:"artifact,omitempty"`
	Camera   *bool                  `json:"camera,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

func notificationMessage(n app.Notification) outMessage {
	switch n.Kind {
	case app.NotifyView:
		v := n.View
		return outMessage{Type: MsgView, View: &v}
	case app.NotifyEffect:
		return outMessage{Type: MsgEffect, Effect: n.Effect.Kind, Source: n.Effect.Source, Handled: n.Handled}
	case app.NotifyArtifact:
		return outMessage{Type: MsgArtifact, Artifact: n.Artifact}
	default:
		cam := n.Camera
		return outMessage{Type: MsgCamera, Camera: &cam}
	}
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// EventsHandler exchanges events with browser clients over WebSocket.
// Inbound text messages are event envelopes and binary messages are
// recording chunks; app notifications are broadcast to every client.
type EventsHandler struct {
	source      EventSource
	metrics     *metrics.Metrics
	unsubscribe func()

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
}

// NewEventsHandler creates an EventsHandler and starts broadcasting the
// source's notifications. m may be nil.
func NewEventsHandler(src EventSource, m *metrics.Metrics) *EventsHandler {
	if m == nil {
		m = metrics.New()
	}
	ch, unsubscribe := src.Subscribe()
	h := &EventsHandler{
		source:      src,
		metrics:     m,
		unsubscribe: unsubscribe,
		clients:     make(map[*client]struct{}),
	}
	go h.broadcast(ch)
	return h
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("Events", "websocket upgrade error: %v", err)
		return
	}

	c := &client{id: uuid.NewString(), conn: conn, send: make(chan []byte, clientBuffer)}
	if !h.register(c) {
		conn.Close()
		return
	}
	defer h.unregister(c)

	go h.writePump(c)

	view := h.source.View()
	cam := h.source.CameraRunning()
	h.sendTo(c, outMessage{Type: MsgHello, ClientID: c.id, View: &view, Camera: &cam})

	h.readPump(r.Context(), c)
}

// Clients returns the number of connected clients.
func (h *EventsHandler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close stops broadcasting and disconnects every client.
func (h *EventsHandler) Close() {
	h.unsubscribe()

	h.mu.Lock()
	h.closed = true
	for c := range h.clients {
		c.conn.Close()
	}
	h.mu.Unlock()
}

func (h *EventsHandler) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	h.metrics.ActiveClients.Add(1)
	logger.Info("Events", "Client %s connected (%d total)", c.id, len(h.clients))
	return true
}

func (h *EventsHandler) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.metrics.ActiveClients.Add(-1)
	logger.Info("Events", "Client %s disconnected (%d total)", c.id, len(h.clients))
}

func (h *EventsHandler) readPump(ctx context.Context, c *client) {
	c.conn.SetReadLimit(maxMessageBytes)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Debug("Events", "Client %s read error: %v", c.id, err)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		var ev interaction.Event
		switch kind {
		case websocket.BinaryMessage:
			ev = interaction.RecordingChunk{Data: data}
		case websocket.TextMessage:
			ev, err = interaction.DecodeEvent(data, time.Now())
			if err != nil {
				h.metrics.EventsRejected.Add(1)
				h.sendTo(c, outMessage{Type: MsgError, Error: err.Error()})
				continue
			}
		default:
			continue
		}

		if err := h.source.Dispatch(ctx, ev); err != nil {
			h.sendTo(c, outMessage{Type: MsgError, Error: err.Error()})
			return
		}
	}
}

// writePump is the only writer on c.conn.
func (h *EventsHandler) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
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

// broadcast forwards app notifications until the subscription closes.
func (h *EventsHandler) broadcast(ch <-chan app.Notification) {
	for n := range ch {
		msg, err := json.Marshal(notificationMessage(n))
		if err != nil {
			logger.Error("Events", "encode notification: %v", err)
			continue
		}

		h.mu.RLock()
		for c := range h.clients {
			select {
			case c.send <- msg:
			default:
				logger.Debug("Events", "Client %s is slow, dropping %s", c.id, n.Kind)
			}
		}
		h.mu.RUnlock()
	}
}

func (h *EventsHandler) sendTo(c *client, m outMessage) {
	msg, err := json.Marshal(m)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}
