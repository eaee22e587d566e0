// websocket.go - Live state push stream for connected consoles
package api

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/motion-console/backend/internal/models"
)

// WebSocket message types for the state stream
const (
	// Server -> Client messages
	MsgTypeTelemetry = "telemetry"
	MsgTypeAutorun   = "autorun"
	MsgTypePong      = "pong"

	// Client -> Server messages
	MsgTypePing = "ping"
)

// WSMessage is the envelope for every frame on the state stream.
type WSMessage struct {
	Type      string `json:"type"`
	Payload   any    `json:"payload,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// clientSendBuffer bounds the per-client queue; a consumer that cannot
// keep up with 1 Hz snapshots just misses frames, the pull endpoints
// stay authoritative.
const clientSendBuffer = 16

// WebSocketHandler pushes each fresh telemetry and autorun snapshot to
// connected UIs. It is a supplement to the polling endpoints, never a
// replacement.
type WebSocketHandler struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]chan WSMessage
}

// NewWebSocketHandler creates the state stream handler.
func NewWebSocketHandler() *WebSocketHandler {
	return &WebSocketHandler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true // CORS is enforced by the HTTP middleware
			},
		},
		clients: make(map[*websocket.Conn]chan WSMessage),
	}
}

// HandleStateStream upgrades the connection and streams snapshots until
// the client goes away.
func (ws *WebSocketHandler) HandleStateStream(c echo.Context) error {
	conn, err := ws.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return fmt.Errorf("websocket upgrade failed: %w", err)
	}

	send := make(chan WSMessage, clientSendBuffer)
	ws.mu.Lock()
	ws.clients[conn] = send
	ws.mu.Unlock()
	fmt.Printf("[ws] client connected (%d active)\n", ws.ClientCount())

	// Writer: drains the send queue onto the wire.
	go func() {
		for msg := range send {
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(msg); err != nil {
				conn.Close()
				return
			}
		}
	}()

	// Reader: answers pings and detects disconnects.
	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		if msg.Type == MsgTypePing {
			ws.enqueue(send, WSMessage{Type: MsgTypePong, Timestamp: time.Now().UnixMilli()})
		}
	}

	ws.mu.Lock()
	delete(ws.clients, conn)
	ws.mu.Unlock()
	close(send)
	conn.Close()
	fmt.Printf("[ws] client disconnected (%d active)\n", ws.ClientCount())
	return nil
}

// BroadcastTelemetry pushes a telemetry snapshot to every client.
// Wired as a poller sink.
func (ws *WebSocketHandler) BroadcastTelemetry(snap *models.MachineSnapshot) {
	ws.broadcast(WSMessage{Type: MsgTypeTelemetry, Payload: snap, Timestamp: time.Now().UnixMilli()})
}

// BroadcastRunState pushes an observed run state to every client.
// Wired as an autorun poll sink.
func (ws *WebSocketHandler) BroadcastRunState(state models.RunState) {
	ws.broadcast(WSMessage{Type: MsgTypeAutorun, Payload: state, Timestamp: time.Now().UnixMilli()})
}

// ClientCount returns the number of connected clients.
func (ws *WebSocketHandler) ClientCount() int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return len(ws.clients)
}

func (ws *WebSocketHandler) broadcast(msg WSMessage) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	for _, send := range ws.clients {
		ws.enqueue(send, msg)
	}
}

// enqueue drops the frame when the client's queue is full.
func (ws *WebSocketHandler) enqueue(send chan WSMessage, msg WSMessage) {
	select {
	case send <- msg:
	default:
	}
}
