// Package ws provides a lightweight WebSocket pub/sub hub. Flyby's
// scheduler and single-track controller broadcast events — tracked-
// satellite snapshots, Doppler-corrected tick state, rotator/rig
// connection transitions — through the hub, and every connected client
// (terminal or browser front end) receives them in real time. The
// Broadcast* methods wrap internal/telemetry's typed event structs so
// callers don't hand-assemble the wire schema; Broadcast itself stays
// available for payloads telemetry doesn't model (scheduler.Snapshot).
// The hub also handles ping/pong keepalives so stale connections get
// cleaned up automatically.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/la1k/flyby/internal/telemetry"
)

// Hub manages WebSocket client connections and fans out broadcast messages
// to all of them. It is safe for concurrent use; register, unregister, and
// broadcast all go through channels.
type Hub struct {
	clients    map[*websocket.Conn]struct{}
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan []byte
	upgrader   websocket.Upgrader
}

// NewHub allocates a hub with buffered channels.
// Call Run in a goroutine to start the event loop.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]struct{}),
		register:   make(chan *websocket.Conn, 16),
		unregister: make(chan *websocket.Conn, 16),
		broadcast:  make(chan []byte, 256),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// Run processes registrations, unregistrations, broadcasts, and keepalive
// pings in a single select loop. It closes all clients when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	ping := time.NewTicker(20 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				_ = c.Close()
			}
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}

		case c := <-h.unregister:
			delete(h.clients, c)
			_ = c.Close()

		case msg := <-h.broadcast:
			for c := range h.clients {
				_ = c.SetWriteDeadline(time.Now().Add(3 * time.Second))
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					delete(h.clients, c)
					_ = c.Close()
				}
			}

		case <-ping.C:
			for c := range h.clients {
				_ = c.SetWriteDeadline(time.Now().Add(2 * time.Second))
				if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
					delete(h.clients, c)
					_ = c.Close()
				}
			}
		}
	}
}

// Handler returns an http.Handler that upgrades incoming requests to
// WebSocket connections and registers them with the hub.
func (h *Hub) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			http.Error(w, "websocket upgrade failed", http.StatusBadRequest)
			return
		}
		h.register <- conn

		go func() {
			defer func() { h.unregister <- conn }()
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			conn.SetPongHandler(func(string) error {
				_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
				return nil
			})

			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	})
}

// Broadcast marshals v to JSON — a scheduler Snapshot, a single-track tick,
// or a rotator/rig state transition — and queues it for delivery to all
// connected clients. If the broadcast channel is full the message is
// silently dropped to avoid blocking the caller. The typed Broadcast*
// helpers below cover internal/telemetry's event schema; Broadcast itself
// stays exported for scheduler.Snapshot and other payloads telemetry
// doesn't model.
func (h *Hub) Broadcast(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case h.broadcast <- b:
	default:
	}
}

// BroadcastHeartbeat sends a telemetry.Heartbeat event (app.heartbeatLoop).
func (h *Hub) BroadcastHeartbeat(state string, uptime time.Duration) {
	h.Broadcast(telemetry.Heartbeat{
		Event:         telemetry.Event{Type: telemetry.EventHeartbeat, TS: telemetry.NowTS()},
		State:         state,
		UptimeSeconds: int64(uptime.Seconds()),
	})
}

// BroadcastStateTransition sends a telemetry.StateTransition event
// (app.transition).
func (h *Hub) BroadcastStateTransition(from, to string) {
	h.Broadcast(telemetry.StateTransition{
		Event: telemetry.Event{Type: telemetry.EventState, TS: telemetry.NowTS()},
		From:  from,
		To:    to,
	})
}

// BroadcastLog sends a telemetry.LogLine event.
func (h *Hub) BroadcastLog(level, message string) {
	h.Broadcast(telemetry.LogLine{
		Event:   telemetry.Event{Type: telemetry.EventLog, TS: telemetry.NowTS()},
		Level:   level,
		Message: message,
	})
}

// BroadcastControllerTick sends a telemetry.ControllerTick event (spec.md
// §4.8), one per single-track controller tick.
func (h *Hub) BroadcastControllerTick(tick telemetry.ControllerTick) {
	tick.Event = telemetry.Event{Type: telemetry.EventControllerTick, TS: telemetry.NowTS()}
	h.Broadcast(tick)
}

// BroadcastRotatorState sends a telemetry.RotatorState event (spec.md
// §4.6 connection transitions).
func (h *Hub) BroadcastRotatorState(state string) {
	h.Broadcast(telemetry.RotatorState{
		Event: telemetry.Event{Type: telemetry.EventRotatorState, TS: telemetry.NowTS()},
		State: state,
	})
}

// BroadcastRigState sends a telemetry.RigState event (spec.md §4.7
// connection transitions). endpoint distinguishes the uplink rig from the
// downlink rig when a session drives both.
func (h *Hub) BroadcastRigState(endpoint, state string) {
	h.Broadcast(telemetry.RigState{
		Event:    telemetry.Event{Type: telemetry.EventRigState, TS: telemetry.NowTS()},
		Endpoint: endpoint,
		State:    state,
	})
}
