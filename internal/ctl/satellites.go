package ctl

import (
	"fmt"
	"strings"
)

// SatelliteView mirrors one entry of GET /api/satellites.
type SatelliteView struct {
	Name           string `json:"name"`
	NoradID        int64  `json:"norad_id"`
	Enabled        bool   `json:"enabled"`
	Classification string `json:"classification"`
}

// Satellites fetches and prints the satellite list.
func Satellites(baseURL string, jsonOut bool) error {
	var resp struct {
		Satellites []SatelliteView `json:"satellites"`
	}
	if err := getJSON(baseURL, "/api/satellites", &resp); err != nil {
		return err
	}
	if jsonOut {
		return printJSON(resp.Satellites)
	}

	fmt.Println()
	fmt.Println(header("  SATELLITES"))
	fmt.Println(colorize(dim, "  "+strings.Repeat("─", 50)))
	for _, s := range resp.Satellites {
		enabled := colorize(green, "on ")
		if !s.Enabled {
			enabled = colorize(dim, "off")
		}
		fmt.Printf("  %s  %-6d %-24s %s\n",
			enabled, s.NoradID, padRight(s.Name, 24),
			colorize(classColor(s.Classification), s.Classification))
	}
	fmt.Println()
	return nil
}

// SetWhitelist enables or disables a satellite by NORAD catalog number.
func SetWhitelist(baseURL string, noradID int64, enabled bool) error {
	req := struct {
		NoradID int64 `json:"norad_id"`
		Enabled bool  `json:"enabled"`
	}{noradID, enabled}

	var resp struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := postJSON(baseURL, "/api/tle/whitelist", req, &resp); err != nil {
		return err
	}
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	fmt.Printf("  %s %d %s\n", colorize(green, "ok"), noradID, state)
	return nil
}

// UpdateTLE requests a merge of filename into the running TLE database.
func UpdateTLE(baseURL, filename string) error {
	req := struct {
		Filename string `json:"filename"`
	}{filename}

	var resp struct {
		OK      bool `json:"ok"`
		Updates []struct {
			Updated     bool `json:"Updated"`
			FileUpdated bool `json:"FileUpdated"`
			InNewFile   bool `json:"InNewFile"`
		} `json:"updates"`
	}
	if err := postJSON(baseURL, "/api/tle/update", req, &resp); err != nil {
		return err
	}
	touched := 0
	for _, u := range resp.Updates {
		if u.Updated {
			touched++
		}
	}
	fmt.Printf("  %s merged %s (%d entries touched)\n", colorize(green, "ok"), filename, touched)
	return nil
}
