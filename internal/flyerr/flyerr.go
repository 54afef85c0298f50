// Package flyerr defines the error kinds used throughout Flyby (spec §7):
// parse errors from malformed on-disk records, path errors from missing
// files/directories, protocol errors from rotctld/rigctld error replies,
// and transport errors from socket failures. Kinds are identified with
// errors.Is against sentinel values, not custom types, matching the plain
// wrapped-error idiom used throughout the rest of this module.
package flyerr

import "errors"

// Sentinel kinds. Wrap these with fmt.Errorf("...: %w", ErrX) to attach
// context while keeping errors.Is(err, ErrX) working.
var (
	// ErrParse marks a malformed on-disk record (bad TLE checksum, bad
	// transponder-db line, bad QTH file). The offending record is skipped;
	// parsing of the remaining file continues.
	ErrParse = errors.New("parse error")

	// ErrPath marks a missing file or directory that was silently treated
	// as empty rather than surfaced.
	ErrPath = errors.New("path error")

	// ErrProtocol marks an RPRT <negative> reply from rotctld/rigctld.
	// The connection is kept; only the one command failed.
	ErrProtocol = errors.New("protocol error")

	// ErrTransport marks a send/recv/connect failure. The endpoint
	// transitions to disconnected.
	ErrTransport = errors.New("transport error")

	// ErrBounds names the kind for a silently-truncated collection
	// (MAX_SATS, MAX_TRANSPONDERS), a non-fatal condition. The TLE and
	// transponder database loaders truncate without returning it.
	ErrBounds = errors.New("bounds exceeded")
)
