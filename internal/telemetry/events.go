// Package telemetry defines the typed event structs that flow over the
// WebSocket connection between flybyd and its clients. internal/ws.Hub's
// Broadcast* methods wrap these types so callers never hand-assemble the
// wire schema; scheduler.Snapshot is the one payload still sent through
// Hub.Broadcast directly, since it already owns its own JSON shape.
package telemetry

import "time"

// EventType identifies the kind of WebSocket event.
type EventType string

const (
	EventHeartbeat      EventType = "heartbeat"
	EventState          EventType = "state"
	EventLog            EventType = "log"
	EventSchedulerTick  EventType = "scheduler_tick"
	EventControllerTick EventType = "controller_tick"
	EventRotatorState   EventType = "rotator_state"
	EventRigState       EventType = "rig_state"
)

// Event is the base envelope shared by every event type.
type Event struct {
	Type EventType `json:"type"`
	TS   string    `json:"ts"`
}

// NowTS returns the current UTC time as an RFC 3339 nano string, matching the
// timestamp format used across all events.
func NowTS() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// Heartbeat is sent periodically so clients can detect connectivity and
// monitor daemon uptime.
type Heartbeat struct {
	Event
	State         string `json:"state"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// StateTransition is emitted whenever the daemon moves between operating
// states (e.g. IDLE -> TRACKING).
type StateTransition struct {
	Event
	From string `json:"from"`
	To   string `json:"to"`
}

// LogLine carries a human-readable log message at a severity level.
type LogLine struct {
	Event
	Level   string `json:"level"`
	Message string `json:"message"`
}

// ControllerTick carries one single-track controller tick's Doppler-
// corrected frequencies and link budget, published alongside the
// scheduler's own snapshot broadcasts (spec.md §4.8).
type ControllerTick struct {
	Event
	Satellite      string  `json:"satellite"`
	AzimuthDeg     float64 `json:"azimuth_deg"`
	ElevationDeg   float64 `json:"elevation_deg"`
	UplinkMHz      float64 `json:"uplink_mhz"`   // Doppler-corrected transmit frequency
	DownlinkMHz    float64 `json:"downlink_mhz"` // Doppler-corrected receive frequency
	SquintDeg      float64 `json:"squint_deg"`
	PathLossDB     float64 `json:"path_loss_db"`
	OneWayDelayMS  float64 `json:"one_way_delay_ms"`
	EchoMS         float64 `json:"echo_ms"`
	RotatorTracked bool    `json:"rotator_tracked"`
}

// RotatorState reports a RotatorClient connection-state transition
// (spec.md §4.6).
type RotatorState struct {
	Event
	State string `json:"state"`
}

// RigState reports a RigClient connection-state transition (spec.md
// §4.7). Endpoint distinguishes the uplink rig from the downlink rig
// when a single controller session drives both.
type RigState struct {
	Event
	Endpoint string `json:"endpoint"`
	State    string `json:"state"`
}
