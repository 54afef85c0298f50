// Package hamlib implements Flyby's rotctld and rigctld clients (spec.md
// §4.6, §4.7): line-oriented TCP protocols for commanding an antenna
// rotator and a radio's VFO. Grounded on original_source/src/hamlib.c,
// generalized from its single-threaded blocking-socket design to
// net.Conn plus bufio.Reader/Writer in the teacher's plain-wrapped-error
// idiom (internal/flyerr).
package hamlib

// ConnState is a client's connection lifecycle state (spec.md §4.6/§4.7:
// DISCONNECTED -> CONNECTING -> CONNECTED -> DISCONNECTED on any
// send/recv error).
type ConnState int

const (
	Disconnected ConnState = iota
	Connecting
	Connected
)

func (s ConnState) String() string {
	switch s {
	case Disconnected:
		return "DISCONNECTED"
	case Connecting:
		return "CONNECTING"
	case Connected:
		return "CONNECTED"
	default:
		return "UNKNOWN"
	}
}
