package ctl

import (
	"fmt"
	"strings"
	"time"
)

// ProfileView mirrors config.ProfileInfo as returned by
// GET /api/config/profiles.
type ProfileView struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	ModTime time.Time `json:"mod_time"`
}

// Profiles fetches and prints the config profiles available alongside the
// daemon's running config file.
func Profiles(baseURL string, jsonOut bool) error {
	var resp struct {
		Dir      string        `json:"dir"`
		Profiles []ProfileView `json:"profiles"`
	}
	if err := getJSON(baseURL, "/api/config/profiles", &resp); err != nil {
		return err
	}
	if jsonOut {
		return printJSON(resp)
	}

	fmt.Println()
	fmt.Println(header("  CONFIG PROFILES"))
	fmt.Printf("  %s\n", colorize(dim, resp.Dir))
	fmt.Println(colorize(dim, "  "+strings.Repeat("─", 50)))
	if len(resp.Profiles) == 0 {
		fmt.Println(colorize(dim, "  (none found)"))
	}
	for _, p := range resp.Profiles {
		fmt.Printf("  %-20s %s\n", p.Name, colorize(dim, p.ModTime.Local().Format("2006-01-02 15:04")))
	}
	fmt.Println()
	return nil
}
