package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/vytor/boxhunt/internal/logger"
	"github.com/vytor/boxhunt/internal/widget"
)

// WebSocketConfig holds configuration for event stream connections
type WebSocketConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBuffer      int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultWebSocketConfig returns default event stream configuration
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBuffer:      256,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}
}

func (c WebSocketConfig) withDefaults() WebSocketConfig {
	d := DefaultWebSocketConfig()
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.PingInterval <= 0 {
		c.PingInterval = d.PingInterval
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = d.MaxMessageSize
	}
	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = d.ReadBufferSize
	}
	if c.WriteBufferSize <= 0 {
		c.WriteBufferSize = d.WriteBufferSize
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = d.SendBuffer
	}
	if c.CheckOrigin == nil {
		c.CheckOrigin = d.CheckOrigin
	}
	return c
}

// snapshotMessage is the first message on every stream.
type snapshotMessage struct {
	Type  string       `json:"type"`
	State widget.State `json:"state"`
}

// handleEvents streams widget events over a websocket. The stream starts with
// a snapshot and ends when the client goes away or the widget is deleted.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	id := chi.URLParam(r, "id")
	cfg := s.WebSocket.withDefaults()

	st, err := s.WidgetService.GetWidget(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	events, unsubscribe, err := s.WidgetService.Subscribe(r.Context(), id, cfg.SendBuffer)
	if err != nil {
		handleError(w, r, err)
		return
	}
	defer unsubscribe()

	upgrader := websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     cfg.CheckOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied to the client.
		log.Warn("failed to upgrade event stream: %v", err)
		return
	}
	defer conn.Close()
	log.Info("event stream opened for widget %s", id)

	gone := make(chan struct{})
	go readPump(conn, cfg, gone)

	if err := writeMessage(conn, cfg, snapshotMessage{Type: "snapshot", State: *st}); err != nil {
		log.Warn("failed to send snapshot: %v", err)
		return
	}

	ticker := time.NewTicker(cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "widget closed"))
				log.Info("event stream closed: widget gone")
				return
			}
			if err := writeMessage(conn, cfg, ev); err != nil {
				log.Warn("failed to write event: %v", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug("failed to send ping: %v", err)
				return
			}
		case <-gone:
			log.Info("event stream closed by client")
			return
		}
	}
}

func writeMessage(conn *websocket.Conn, cfg WebSocketConfig, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(cfg.WriteTimeout))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// readPump discards client messages and closes gone when the client disconnects.
func readPump(conn *websocket.Conn, cfg WebSocketConfig, gone chan<- struct{}) {
	defer close(gone)
	conn.SetReadLimit(cfg.MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))
	}
}
