package ctl

import "fmt"

// Track requests flybyd start a single-track session on satellite,
// identified either by name or NORAD catalog number (noradID == 0 means
// "use name").
func Track(baseURL, satellite string, noradID int64) error {
	req := struct {
		Satellite string `json:"satellite"`
		NoradID   int64  `json:"norad_id"`
	}{satellite, noradID}

	var resp struct {
		OK       bool   `json:"ok"`
		Tracking string `json:"tracking"`
		Error    string `json:"error"`
	}
	if err := postJSON(baseURL, "/api/track", req, &resp); err != nil {
		return err
	}
	fmt.Printf("  %s tracking %s\n", colorize(green, "ok"), resp.Tracking)
	return nil
}
