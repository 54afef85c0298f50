package ctl

import (
	"fmt"
	"strings"
	"time"
)

// StatusResponse mirrors the JSON returned by GET /api/status.
type StatusResponse struct {
	Name          string `json:"name"`
	State         string `json:"state"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Satellites    int    `json:"satellites"`
	Tracking      string `json:"tracking"`
}

// Status fetches the daemon status and prints a formatted summary, or raw
// JSON when jsonOut is set.
func Status(baseURL string, jsonOut bool) error {
	var s StatusResponse
	if err := getJSON(baseURL, "/api/status", &s); err != nil {
		return err
	}
	if jsonOut {
		return printJSON(s)
	}

	uptime := formatDuration(time.Duration(s.UptimeSeconds) * time.Second)
	stateStr := colorize(stateColor(s.State), s.State)
	tracking := s.Tracking
	if tracking == "" {
		tracking = colorize(dim, "none")
	}

	fmt.Println()
	fmt.Println(header("  FLYBY STATUS"))
	fmt.Println(colorize(dim, "  "+strings.Repeat("─", 38)))
	fmt.Printf("  %-12s %s\n", colorize(dim, "Daemon:"), s.Name)
	fmt.Printf("  %-12s %s\n", colorize(dim, "State:"), stateStr)
	fmt.Printf("  %-12s %s\n", colorize(dim, "Uptime:"), uptime)
	fmt.Printf("  %-12s %d\n", colorize(dim, "Satellites:"), s.Satellites)
	fmt.Printf("  %-12s %s\n", colorize(dim, "Tracking:"), tracking)
	fmt.Printf("  %-12s %s\n", colorize(dim, "Host:"), strings.TrimRight(baseURL, "/"))
	fmt.Println()

	return nil
}
