package hamlib

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/la1k/flyby/internal/flyerr"
)

// consumeLines reads and discards n complete lines, used to drain a
// bootstrap reply before the first real command is sent.
func consumeLines(r *bufio.Reader, n int) error {
	for i := 0; i < n; i++ {
		if _, err := r.ReadString('\n'); err != nil {
			return err
		}
	}
	return nil
}

// parseNegativeRPRT reports whether line is an "RPRT <n>" reply with a
// negative n, the rotctld/rigctld convention for a command-level error
// that does not itself indicate a transport failure.
func parseNegativeRPRT(line string) (bool, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "RPRT") {
		return false, nil
	}
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return false, nil
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return false, nil
	}
	if n < 0 {
		return true, fmt.Errorf("%w: RPRT %d", flyerr.ErrProtocol, n)
	}
	return false, nil
}

// parseTwoFloatLines parses two lines as successive floats (rotctld's
// "p\n" reply: azimuth then elevation).
func parseTwoFloatLines(line1, line2 string) (a, b float64, err error) {
	a, err = strconv.ParseFloat(strings.TrimSpace(line1), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse first field %q: %w", line1, err)
	}
	b, err = strconv.ParseFloat(strings.TrimSpace(line2), 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse second field %q: %w", line2, err)
	}
	return a, b, nil
}
