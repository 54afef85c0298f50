package hamlib

import (
	"bufio"
	"fmt"
	"math"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/la1k/flyby/internal/flyerr"
)

// RigClient drives a radio's VFO through rigctld (spec.md §4.7). Every
// command begins by draining the previous command's pending reply line —
// rigctld queues and lags behind if commands are sent faster than it
// replies — so exactly one reply is always in flight (pipeline depth 1).
// Connect primes this by issuing the first "f\n" whose reply the first
// real command drains.
type RigClient struct {
	host, port string
	vfoName    string

	conn  net.Conn
	r     *bufio.Reader
	state ConnState
}

// NewRigClient creates a disconnected client. vfoName is sent as a "V
// <name>" command before every frequency command when non-empty; when a
// single rigctld instance serves both uplink and downlink rigs, the two
// RigClients must use distinct non-empty VFO names.
func NewRigClient(host, port, vfoName string) *RigClient {
	return &RigClient{host: host, port: port, vfoName: vfoName}
}

// State reports the client's current connection state.
func (c *RigClient) State() ConnState { return c.state }

// Connect dials the endpoint and issues the bootstrap "f\n" whose reply
// the first SetFrequencyMHz/ReadFrequencyMHz call will drain.
func (c *RigClient) Connect() error {
	c.state = Connecting

	conn, err := net.DialTimeout("tcp", net.JoinHostPort(c.host, c.port), 5*time.Second)
	if err != nil {
		c.state = Disconnected
		return fmt.Errorf("rigctld %s: %w: %w", net.JoinHostPort(c.host, c.port), flyerr.ErrTransport, err)
	}
	c.conn, c.r = conn, bufio.NewReader(conn)

	if _, err := c.conn.Write([]byte("f\n")); err != nil {
		c.fail()
		return fmt.Errorf("rigctld bootstrap: %w: %w", flyerr.ErrTransport, err)
	}

	c.state = Connected
	return nil
}

// Close sends the rigctld quit command and closes the socket.
func (c *RigClient) Close() {
	if c.conn != nil {
		_, _ = c.conn.Write([]byte("q\n"))
		_ = c.conn.Close()
	}
	c.state = Disconnected
}

func (c *RigClient) fail() {
	c.Close()
}

// drainPending blocks for the one reply line owed by the previous
// command.
func (c *RigClient) drainPending() error {
	_, err := c.r.ReadString('\n')
	return err
}

// sendVFO issues "V <name>\n" ahead of a frequency command when a VFO
// name is configured, preceded by a short pause to avoid a VFO-selection
// race in rigctld, and drains its reply.
func (c *RigClient) sendVFO() error {
	if c.vfoName == "" {
		return nil
	}
	time.Sleep(100 * time.Microsecond)
	if _, err := fmt.Fprintf(c.conn, "V %s\n", c.vfoName); err != nil {
		return err
	}
	_, err := c.r.ReadString('\n')
	return err
}

// SetFrequencyMHz sets the rig's frequency, in MHz.
func (c *RigClient) SetFrequencyMHz(mhz float64) error {
	if c.state != Connected {
		return fmt.Errorf("rigctld: %w", flyerr.ErrTransport)
	}

	if err := c.drainPending(); err != nil {
		c.fail()
		return fmt.Errorf("rigctld set frequency: %w: %w", flyerr.ErrTransport, err)
	}
	if err := c.sendVFO(); err != nil {
		c.fail()
		return fmt.Errorf("rigctld set frequency: %w: %w", flyerr.ErrTransport, err)
	}

	hz := math.Round(mhz * 1e6)
	if _, err := fmt.Fprintf(c.conn, "F %.0f\n", hz); err != nil {
		c.fail()
		return fmt.Errorf("rigctld set frequency: %w: %w", flyerr.ErrTransport, err)
	}
	return nil
}

// ReadFrequencyMHz reads the rig's current frequency, in MHz, then
// immediately pre-queues another "f\n" so the next call has a pending
// reply ready.
func (c *RigClient) ReadFrequencyMHz() (float64, error) {
	if c.state != Connected {
		return 0, fmt.Errorf("rigctld: %w", flyerr.ErrTransport)
	}

	if err := c.drainPending(); err != nil {
		c.fail()
		return 0, fmt.Errorf("rigctld read frequency: %w: %w", flyerr.ErrTransport, err)
	}
	if err := c.sendVFO(); err != nil {
		c.fail()
		return 0, fmt.Errorf("rigctld read frequency: %w: %w", flyerr.ErrTransport, err)
	}

	if _, err := c.conn.Write([]byte("f\n")); err != nil {
		c.fail()
		return 0, fmt.Errorf("rigctld read frequency: %w: %w", flyerr.ErrTransport, err)
	}
	line, err := c.r.ReadString('\n')
	if err != nil {
		c.fail()
		return 0, fmt.Errorf("rigctld read frequency: %w: %w", flyerr.ErrTransport, err)
	}
	hz, err := strconv.ParseFloat(strings.TrimSpace(line), 64)
	if err != nil {
		return 0, fmt.Errorf("rigctld read frequency: %w: parse %q: %w", flyerr.ErrParse, line, err)
	}

	if _, err := c.conn.Write([]byte("f\n")); err != nil {
		c.fail()
		return 0, fmt.Errorf("rigctld read frequency: %w: %w", flyerr.ErrTransport, err)
	}

	return hz / 1.0e6, nil
}
