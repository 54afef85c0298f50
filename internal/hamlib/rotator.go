package hamlib

import (
	"bufio"
	"fmt"
	"math"
	"net"
	"time"

	"github.com/la1k/flyby/internal/flyerr"
)

// RotatorClient drives an antenna rotator through rotctld (spec.md §4.6).
// It holds two independent sockets to the same endpoint: one for position
// reads, one for track commands, matching the original's read_socket/
// track_socket split so a slow or queued track command never blocks a
// position poll.
type RotatorClient struct {
	host, port string
	horizonDeg float64

	readConn  net.Conn
	readR     *bufio.Reader
	trackConn net.Conn
	trackR    *bufio.Reader

	state ConnState

	lastAzSent, lastElSent int
	haveLastSent           bool
	replyPending           bool
}

// NewRotatorClient creates a disconnected client. Call Connect before
// Track or ReadPosition.
func NewRotatorClient(host, port string, trackingHorizonDeg float64) *RotatorClient {
	return &RotatorClient{host: host, port: port, horizonDeg: trackingHorizonDeg}
}

// State reports the client's current connection state.
func (c *RotatorClient) State() ConnState { return c.state }

// Connect opens both sockets and primes the track socket's reply buffer
// by issuing a position query whose reply is consumed before the first
// track command is sent ("bootstrap reply" in the original).
func (c *RotatorClient) Connect() error {
	c.state = Connecting

	readConn, err := net.DialTimeout("tcp", net.JoinHostPort(c.host, c.port), 5*time.Second)
	if err != nil {
		c.state = Disconnected
		return fmt.Errorf("rotctld %s: %w: %w", net.JoinHostPort(c.host, c.port), flyerr.ErrTransport, err)
	}
	trackConn, err := net.DialTimeout("tcp", net.JoinHostPort(c.host, c.port), 5*time.Second)
	if err != nil {
		_ = readConn.Close()
		c.state = Disconnected
		return fmt.Errorf("rotctld %s: %w: %w", net.JoinHostPort(c.host, c.port), flyerr.ErrTransport, err)
	}

	c.readConn, c.readR = readConn, bufio.NewReader(readConn)
	c.trackConn, c.trackR = trackConn, bufio.NewReader(trackConn)

	if _, err := c.trackConn.Write([]byte("p\n")); err != nil {
		c.fail()
		return fmt.Errorf("rotctld bootstrap: %w: %w", flyerr.ErrTransport, err)
	}
	if err := consumeLines(c.trackR, 2); err != nil {
		c.fail()
		return fmt.Errorf("rotctld bootstrap: %w: %w", flyerr.ErrTransport, err)
	}

	c.state = Connected
	return nil
}

// Close tears down both sockets.
func (c *RotatorClient) Close() {
	if c.readConn != nil {
		_ = c.readConn.Close()
	}
	if c.trackConn != nil {
		_ = c.trackConn.Close()
	}
	c.state = Disconnected
}

func (c *RotatorClient) fail() {
	c.Close()
}

// Track sends a "P az el" command, subject to spec.md §4.6's three
// gates: connection state, duplicate-order coalescing, and backpressure
// on the previous reply. Elevations below the tracking horizon suppress
// the command entirely (rotator standing by).
func (c *RotatorClient) Track(azimuthDeg, elevationDeg float64) error {
	if c.state != Connected {
		return nil
	}
	if elevationDeg < c.horizonDeg {
		return nil
	}

	c.drainPendingReply()

	az, el := int(math.Round(azimuthDeg)), int(math.Round(elevationDeg))
	if c.haveLastSent && az == c.lastAzSent && el == c.lastElSent && !c.replyPending {
		return nil
	}
	if c.replyPending {
		// Previous command's reply hasn't arrived yet; do not send another.
		return nil
	}

	if _, err := fmt.Fprintf(c.trackConn, "P %d %d\n", az, el); err != nil {
		c.fail()
		return fmt.Errorf("rotctld track: %w: %w", flyerr.ErrTransport, err)
	}

	c.lastAzSent, c.lastElSent, c.haveLastSent = az, el, true
	c.replyPending = true
	return nil
}

// drainPendingReply performs a short non-blocking check for the track
// socket's pending reply line, clearing replyPending if one is found.
func (c *RotatorClient) drainPendingReply() {
	if !c.replyPending {
		return
	}
	_ = c.trackConn.SetReadDeadline(time.Now().Add(time.Millisecond))
	if line, err := c.trackR.ReadString('\n'); err == nil && line != "" {
		c.replyPending = false
	}
	_ = c.trackConn.SetReadDeadline(time.Time{})
}

// ReadPosition sends "p\n" on the read socket and parses the two-line
// az/el reply. An "RPRT <negative>" reply is reported as a protocol
// error without changing connection state.
func (c *RotatorClient) ReadPosition() (azimuthDeg, elevationDeg float64, err error) {
	if c.state != Connected {
		return 0, 0, fmt.Errorf("rotctld: %w", flyerr.ErrTransport)
	}

	if _, err := c.readConn.Write([]byte("p\n")); err != nil {
		c.fail()
		return 0, 0, fmt.Errorf("rotctld position request: %w: %w", flyerr.ErrTransport, err)
	}

	line1, err := c.readR.ReadString('\n')
	if err != nil {
		c.fail()
		return 0, 0, fmt.Errorf("rotctld position reply: %w: %w", flyerr.ErrTransport, err)
	}
	if neg, rprtErr := parseNegativeRPRT(line1); neg {
		return 0, 0, rprtErr
	}

	line2, err := c.readR.ReadString('\n')
	if err != nil {
		c.fail()
		return 0, 0, fmt.Errorf("rotctld position reply: %w: %w", flyerr.ErrTransport, err)
	}

	az, el, perr := parseTwoFloatLines(line1, line2)
	if perr != nil {
		return 0, 0, fmt.Errorf("rotctld position reply: %w: %w", flyerr.ErrParse, perr)
	}
	return az, el, nil
}
