package api

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motion-console/backend/internal/models"
)

// wsEnvelope mirrors WSMessage with a concrete payload slot per test.
type wsEnvelope struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

func newStateStreamServer(t *testing.T) (*WebSocketHandler, string) {
	t.Helper()
	ws := NewWebSocketHandler()
	e := echo.New()
	e.GET("/api/ws/state", ws.HandleStateStream)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return ws, "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/state"
}

func dialStateStream(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	return conn
}

// waitForClients polls ClientCount until it reaches want; registration
// and cleanup happen on the handler goroutine.
func waitForClients(t *testing.T, ws *WebSocketHandler, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for ws.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("client count = %d, want %d", ws.ClientCount(), want)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestStateStream_TelemetryEnvelope(t *testing.T) {
	ws, url := newStateStreamServer(t)
	conn := dialStateStream(t, url)
	waitForClients(t, ws, 1)

	ws.BroadcastTelemetry(&models.MachineSnapshot{
		Current: models.CurrentState{Position: models.AxisTriple{X: 7}},
	})

	var msg struct {
		wsEnvelope
		Payload models.MachineSnapshot `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MsgTypeTelemetry, msg.Type)
	assert.Equal(t, 7.0, msg.Payload.Current.Position.X)
	assert.NotZero(t, msg.Timestamp)
}

func TestStateStream_RunStateEnvelope(t *testing.T) {
	ws, url := newStateStreamServer(t)
	conn := dialStateStream(t, url)
	waitForClients(t, ws, 1)

	ws.BroadcastRunState(models.RunState{Running: true, Route: "r1", Index: 3, Total: 10})

	var msg struct {
		wsEnvelope
		Payload models.RunState `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MsgTypeAutorun, msg.Type)
	assert.Equal(t, "r1", msg.Payload.Route)
	assert.Equal(t, 3, msg.Payload.Index)
	assert.NotZero(t, msg.Timestamp)
}

func TestStateStream_FanOut(t *testing.T) {
	ws, url := newStateStreamServer(t)
	first := dialStateStream(t, url)
	second := dialStateStream(t, url)
	waitForClients(t, ws, 2)

	ws.BroadcastRunState(models.RunState{Running: true, Route: "field-a"})

	for _, conn := range []*websocket.Conn{first, second} {
		var msg struct {
			wsEnvelope
			Payload models.RunState `json:"payload"`
		}
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, "field-a", msg.Payload.Route)
	}
}

func TestStateStream_PingPong(t *testing.T) {
	ws, url := newStateStreamServer(t)
	conn := dialStateStream(t, url)
	waitForClients(t, ws, 1)

	require.NoError(t, conn.WriteJSON(WSMessage{Type: MsgTypePing}))

	var msg wsEnvelope
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, MsgTypePong, msg.Type)
	assert.NotZero(t, msg.Timestamp)
}

func TestStateStream_DisconnectCleanup(t *testing.T) {
	ws, url := newStateStreamServer(t)
	conn := dialStateStream(t, url)
	waitForClients(t, ws, 1)

	require.NoError(t, conn.Close())
	waitForClients(t, ws, 0)

	// Broadcasting into an empty client set must be harmless.
	ws.BroadcastRunState(models.RunState{Running: false})
	assert.Equal(t, 0, ws.ClientCount())
}
