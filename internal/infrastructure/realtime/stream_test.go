package realtime

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Clients() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestStreamer_SSE(t *testing.T) {
	hub := NewHub(zap.NewNop())
	streamer := NewStreamer(hub, StreamConfig{Heartbeat: time.Minute}, zap.NewNop())
	tenantID := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = streamer.SSE(w, r, tenantID, uuid.New())
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: connected\n", line)

	waitForClients(t, hub, 1)
	require.NoError(t, hub.Broadcast(context.Background(), tenantID, "pos.sale_created", map[string]int{"total": 12}))

	var event []string
	for len(event) < 3 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimSuffix(line, "\n")
		if strings.HasPrefix(line, "id: ") || strings.HasPrefix(line, "event: ") || strings.HasPrefix(line, "data: ") {
			if strings.HasPrefix(line, "data: {\"client_id\"") {
				continue
			}
			event = append(event, line)
		}
	}
	assert.Equal(t, "event: pos.sale_created", event[1])
	assert.Equal(t, `data: {"total":12}`, event[2])

	cancel()
	waitForClients(t, hub, 0)
}

func TestStreamer_WebSocket(t *testing.T) {
	hub := NewHub(zap.NewNop())
	streamer := NewStreamer(hub, StreamConfig{Heartbeat: time.Minute}, zap.NewNop())
	tenantID := uuid.New()
	received := make(chan string, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = streamer.WebSocket(w, r, tenantID, uuid.New(), func(_ context.Context, data []byte) {
			received <- string(data)
		})
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	waitForClients(t, hub, 1)

	require.NoError(t, hub.Broadcast(context.Background(), tenantID, "sync.conflict_detected", map[string]string{"doc": "d1"}))
	var msg Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "sync.conflict_detected", msg.Topic)
	assert.JSONEq(t, `{"doc":"d1"}`, string(msg.Data))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"heartbeat"}`)))
	select {
	case got := <-received:
		assert.Equal(t, `{"type":"heartbeat"}`, got)
	case <-time.After(2 * time.Second):
		t.Fatal("client frame not delivered")
	}

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	waitForClients(t, hub, 0)
}

func TestStreamer_OriginCheck(t *testing.T) {
	hub := NewHub(zap.NewNop())
	streamer := NewStreamer(hub, StreamConfig{AllowedOrigins: []string{"https://app.coretrack.io"}}, zap.NewNop())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = streamer.WebSocket(w, r, uuid.New(), uuid.New(), nil)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	header := http.Header{"Origin": []string{"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	waitForClients(t, hub, 0)
}
