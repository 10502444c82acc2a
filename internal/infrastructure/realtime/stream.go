package realtime

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	defaultHeartbeat = 25 * time.Second
	writeWait        = 10 * time.Second
	maxClientFrame   = 4096
)

// StreamConfig configures the SSE and websocket endpoints
type StreamConfig struct {
	Heartbeat      time.Duration
	AllowedOrigins []string
}

// Streamer serves a hub subscription over SSE or a websocket
type Streamer struct {
	hub       *Hub
	heartbeat time.Duration
	upgrader  websocket.Upgrader
	logger    *zap.Logger
}

// NewStreamer creates a streamer. An empty origin list accepts any origin.
func NewStreamer(hub *Hub, cfg StreamConfig, logger *zap.Logger) *Streamer {
	heartbeat := cfg.Heartbeat
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	origins := make(map[string]bool, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		origins[o] = true
	}
	return &Streamer{
		hub:       hub,
		heartbeat: heartbeat,
		logger:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(origins) == 0 || origin == "" || origins[origin] || origins["*"]
			},
		},
	}
}

// SSE streams the tenant feed as server-sent events until the client goes away
func (s *Streamer) SSE(w http.ResponseWriter, r *http.Request, tenantID, userID uuid.UUID) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return errors.New("realtime: response writer does not support flushing")
	}
	sub, unsubscribe, err := s.hub.Subscribe(tenantID, userID)
	if err != nil {
		return err
	}
	defer unsubscribe()

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "event: connected\ndata: {\"client_id\":%q}\n\n", sub.ID)
	flusher.Flush()

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			fmt.Fprintf(w, ": heartbeat %d\n\n", time.Now().Unix())
			flusher.Flush()
		case msg, ok := <-sub.C:
			if !ok {
				return nil
			}
			fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", msg.ID, msg.Topic, msg.Data)
			flusher.Flush()
		}
	}
}

// WebSocket upgrades the request and streams the tenant feed as JSON frames.
// Text frames from the client are passed to onMessage, which may be nil.
func (s *Streamer) WebSocket(w http.ResponseWriter, r *http.Request, tenantID, userID uuid.UUID, onMessage func(context.Context, []byte)) error {
	sub, unsubscribe, err := s.hub.Subscribe(tenantID, userID)
	if err != nil {
		return err
	}
	defer unsubscribe()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("websocket upgrade: %w", err)
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	pongWait := 2 * s.heartbeat
	conn.SetReadLimit(maxClientFrame)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		defer cancel()
		for {
			kind, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					s.logger.Debug("Websocket read failed", zap.String("client_id", sub.ID), zap.Error(err))
				}
				return
			}
			if kind == websocket.TextMessage && onMessage != nil {
				onMessage(ctx, data)
			}
		}
	}()
	defer func() {
		_ = conn.Close()
		<-readerDone
	}()

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return nil
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return nil
			}
		case msg, ok := <-sub.C:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"), time.Now().Add(writeWait))
				return nil
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				return nil
			}
		}
	}
}
