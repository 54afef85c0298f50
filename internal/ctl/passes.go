package ctl

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// PassView mirrors one entry of GET /api/passes.
type PassView struct {
	Satellite   string  `json:"satellite"`
	NoradID     int64   `json:"norad_id"`
	AOS         string  `json:"aos"`
	LOS         string  `json:"los"`
	MaxElevDeg  float64 `json:"max_elevation_deg"`
	MaxElevTime string  `json:"max_elevation_time"`
	DurationS   int     `json:"duration_s"`
	Visible     bool    `json:"visible"`
}

// Passes fetches and prints upcoming passes, optionally filtered to one
// satellite name and capped to count results.
func Passes(baseURL, satellite string, count int, jsonOut bool) error {
	q := url.Values{}
	if satellite != "" {
		q.Set("satellite", satellite)
	}
	if count > 0 {
		q.Set("count", strconv.Itoa(count))
	}
	path := "/api/passes"
	if enc := q.Encode(); enc != "" {
		path += "?" + enc
	}

	var resp struct {
		Passes []PassView `json:"passes"`
	}
	if err := getJSON(baseURL, path, &resp); err != nil {
		return err
	}
	if jsonOut {
		return printJSON(resp.Passes)
	}

	fmt.Println()
	fmt.Println(header("  UPCOMING PASSES"))
	fmt.Println(colorize(dim, "  "+strings.Repeat("─", 60)))
	for _, p := range resp.Passes {
		aos, _ := time.Parse(time.RFC3339, p.AOS)
		los, _ := time.Parse(time.RFC3339, p.LOS)
		vis := colorize(dim, "faint")
		if p.Visible {
			vis = colorize(green, "visible")
		}
		fmt.Printf("  %-16s  AOS %s  LOS %s  max %5.1f°  %s  %s\n",
			padRight(p.Satellite, 16),
			aos.Local().Format("15:04:05"),
			los.Local().Format("15:04:05"),
			p.MaxElevDeg,
			colorize(dim, formatDuration(time.Duration(p.DurationS)*time.Second)),
			vis,
		)
	}
	fmt.Println()
	return nil
}
