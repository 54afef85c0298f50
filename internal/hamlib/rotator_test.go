package hamlib

import (
	"bufio"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// fakeRotctld accepts exactly two connections (read + track sockets) and
// answers "p\n" with a two-line az/el reply, echoing the last commanded
// position back on subsequent position requests. trackCommands counts
// every "P az el" command received, across both connections.
func fakeRotctld(t *testing.T, ln net.Listener, trackCommands *int64) {
	t.Helper()
	az, el := "0.000000", "0.000000"

	for i := 0; i < 2; i++ {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		go func(c net.Conn) {
			r := bufio.NewReader(c)
			for {
				line, err := r.ReadString('\n')
				if err != nil {
					return
				}
				line = strings.TrimSpace(line)
				switch {
				case line == "p":
					_, _ = c.Write([]byte(az + "\n" + el + "\n"))
				case strings.HasPrefix(line, "P "):
					fields := strings.Fields(line)
					if len(fields) == 3 {
						az, el = fields[1], fields[2]
					}
					if trackCommands != nil {
						atomic.AddInt64(trackCommands, 1)
					}
					_, _ = c.Write([]byte("RPRT 0\n"))
				}
			}
		}(conn)
	}
}

func listenLocal(t *testing.T) (net.Listener, string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	_, port, _ := net.SplitHostPort(ln.Addr().String())
	return ln, port
}

func TestRotatorClientConnectAndTrack(t *testing.T) {
	ln, port := listenLocal(t)
	defer ln.Close()
	go fakeRotctld(t, ln, nil)

	c := NewRotatorClient("127.0.0.1", port, 0)
	if err := c.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()

	if c.State() != Connected {
		t.Fatalf("State() = %v, want Connected", c.State())
	}

	if err := c.Track(180, 45); err != nil {
		t.Fatalf("Track: %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	az, el, err := c.ReadPosition()
	if err != nil {
		t.Fatalf("ReadPosition: %v", err)
	}
	if az != 180 || el != 45 {
		t.Fatalf("ReadPosition() = (%v, %v), want (180, 45)", az, el)
	}
}

func TestRotatorClientSuppressesBelowHorizon(t *testing.T) {
	ln, port := listenLocal(t)
	defer ln.Close()
	go fakeRotctld(t, ln, nil)

	c := NewRotatorClient("127.0.0.1", port, 10)
	if err := c.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()

	if err := c.Track(90, 5); err != nil {
		t.Fatalf("Track: %v", err)
	}
	if c.haveLastSent {
		t.Fatal("Track below tracking horizon should not have sent a command")
	}
}

func TestRotatorClientCoalescesDuplicateOrders(t *testing.T) {
	ln, port := listenLocal(t)
	defer ln.Close()
	var trackCommands int64
	go fakeRotctld(t, ln, &trackCommands)

	c := NewRotatorClient("127.0.0.1", port, 0)
	if err := c.Connect(); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()

	if err := c.Track(100, 20); err != nil {
		t.Fatalf("Track: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	c.drainPendingReply()

	if err := c.Track(100, 20); err != nil {
		t.Fatalf("Track (duplicate): %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	if got := atomic.LoadInt64(&trackCommands); got != 1 {
		t.Fatalf("server received %d track commands, want 1 (duplicate should be coalesced)", got)
	}
}
