package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nerrad567/device-inventory/internal/auth"
	"github.com/nerrad567/device-inventory/internal/history"
	"github.com/nerrad567/device-inventory/internal/infrastructure/config"
	"github.com/nerrad567/device-inventory/internal/infrastructure/logging"
)

const (
	// streamSendBuffer is the per-client outbound queue. Events that do not
	// fit are dropped for that client only.
	streamSendBuffer = 256

	defaultPingInterval = 30 * time.Second
	defaultPongTimeout  = 10 * time.Second
)

// StreamEvent is one frame on the /ws history stream.
type StreamEvent struct {
	Action history.Action `json:"action"`
	Record history.Record `json:"record"`
}

// Hub fans history records out to connected /ws clients. The stream is
// one-way: clients choose their actions when connecting and never send
// anything but control frames.
type Hub struct {
	logger *logging.Logger

	mu      sync.RWMutex
	clients map[*streamClient]struct{}
}

type streamClient struct {
	conn    *websocket.Conn
	send    chan []byte
	actions map[history.Action]struct{} // empty means every action
}

func (c *streamClient) wants(a history.Action) bool {
	if len(c.actions) == 0 {
		return true
	}
	_, ok := c.actions[a]
	return ok
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		// Origin checking is handled by CORS middleware
		return true
	},
}

// NewHub creates an empty hub.
func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*streamClient]struct{}),
	}
}

// Run blocks until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Notify implements history.Notifier.
func (h *Hub) Notify(_ context.Context, rec history.Record) {
	data, err := json.Marshal(StreamEvent{Action: rec.Action, Record: rec})
	if err != nil {
		h.logger.Error("failed to marshal stream event", "error", err)
		return
	}

	// send is only closed under the write lock, so it stays open here.
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if !c.wants(rec.Action) {
			continue
		}
		select {
		case c.send <- data:
		default:
			h.logger.Warn("websocket client lagging, event dropped", "action", string(rec.Action))
		}
	}
}

func (h *Hub) add(c *streamClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "clients", h.ClientCount())
}

// remove unregisters c and closes its queue, once.
func (h *Hub) remove(c *streamClient) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	if ok {
		h.logger.Debug("websocket client disconnected", "clients", h.ClientCount())
	}
}

// parseActions reads the comma-separated actions query parameter.
func parseActions(raw string) (map[history.Action]struct{}, error) {
	actions := make(map[history.Action]struct{})
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" || part == "*" {
			continue
		}
		a := history.Action(part)
		if !a.Valid() {
			return nil, fmt.Errorf("unknown action %q", part)
		}
		actions[a] = struct{}{}
	}
	return actions, nil
}

// handleWebSocket streams history records to the client.
//
// Query parameters:
//   - actions: comma-separated actions to receive, default all
//   - token: bearer token, required when auth is enabled (browsers cannot
//     set headers on a WebSocket handshake)
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if s.authEnabled() {
		token := q.Get("token")
		if token == "" {
			writeUnauthorized(w, "token query parameter is required")
			return
		}
		if _, err := auth.ParseToken(token, s.secCfg.JWT.Secret); err != nil {
			writeUnauthorized(w, "invalid or expired token")
			return
		}
	}

	actions, err := parseActions(q.Get("actions"))
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	// Registered before the handshake completes so no event committed after
	// the client sees the upgrade is missed.
	c := &streamClient{send: make(chan []byte, streamSendBuffer), actions: actions}
	s.hub.add(c)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.hub.remove(c)
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	c.conn = conn

	ping, pong := keepalive(s.wsCfg)
	go c.writeLoop(ping, pong)
	go s.hub.readLoop(c, s.wsCfg.MaxMessageSize, ping+pong)
}

func keepalive(cfg config.WebSocketConfig) (ping, pong time.Duration) {
	ping, pong = defaultPingInterval, defaultPongTimeout
	if cfg.PingInterval > 0 {
		ping = time.Duration(cfg.PingInterval) * time.Second
	}
	if cfg.PongTimeout > 0 {
		pong = time.Duration(cfg.PongTimeout) * time.Second
	}
	return ping, pong
}

// readLoop discards inbound data; it only keeps the read deadline moving
// and notices when the peer goes away.
func (h *Hub) readLoop(c *streamClient, maxSize int, wait time.Duration) {
	defer func() {
		h.remove(c)
		c.conn.Close()
	}()

	if maxSize > 0 {
		c.conn.SetReadLimit(int64(maxSize))
	}
	extend := func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wait))
	}
	extend("") //nolint:errcheck // best-effort initial deadline
	c.conn.SetPongHandler(extend)

	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket read error", "error", err)
			}
			return
		}
		extend("") //nolint:errcheck // any frame counts as liveness
	}
}

// writeLoop is the connection's only writer.
func (c *streamClient) writeLoop(ping, writeWait time.Duration) {
	ticker := time.NewTicker(ping)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck // write error caught below
			if !ok {
				//nolint:errcheck // best-effort close frame
				c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck // write error caught below
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
