package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/la1k/flyby/internal/config"
	"github.com/la1k/flyby/internal/hamlib"
	"github.com/la1k/flyby/internal/predict"
	"github.com/la1k/flyby/internal/propagator"
	"github.com/la1k/flyby/internal/singletrack"
	"github.com/la1k/flyby/internal/telemetry"
	"github.com/la1k/flyby/internal/tledb"
	"github.com/la1k/flyby/internal/xdg"
)

func (a *App) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (a *App) handleStatus(w http.ResponseWriter, _ *http.Request) {
	a.trackMu.Lock()
	tracking := a.trackHandle
	a.trackMu.Unlock()

	resp := map[string]any{
		"name":           "flybyd",
		"state":          a.currentState(),
		"uptime_seconds": int64(time.Since(a.startedAt).Seconds()),
		"satellites":     len(a.tleDB.Entries),
		"tracking":       tracking,
	}
	writeJSON(w, http.StatusOK, resp)
}

type satelliteView struct {
	Name           string `json:"name"`
	NoradID        int64  `json:"norad_id"`
	Enabled        bool   `json:"enabled"`
	Classification string `json:"classification"`
}

func (a *App) handleSatellites(w http.ResponseWriter, _ *http.Request) {
	out := make([]satelliteView, 0, len(a.tleDB.Entries))
	for _, e := range a.tleDB.Entries {
		view := satelliteView{Name: e.Name, NoradID: e.SatelliteNumber, Enabled: e.Enabled}
		if sat, err := propagator.Parse(e.Name, e.Line1, e.Line2); err == nil {
			view.Classification = predict.Classify(sat, a.observer.LatDeg).String()
		} else {
			view.Classification = "unparseable"
		}
		out = append(out, view)
	}
	writeJSON(w, http.StatusOK, map[string]any{"satellites": out})
}

type passView struct {
	Satellite   string  `json:"satellite"`
	NoradID     int64   `json:"norad_id"`
	AOS         string  `json:"aos"`
	LOS         string  `json:"los"`
	MaxElevDeg  float64 `json:"max_elevation_deg"`
	MaxElevTime string  `json:"max_elevation_time"`
	DurationS   int     `json:"duration_s"`
	Visible     bool    `json:"visible"`
}

// handlePasses computes one upcoming pass per enabled, predictable
// satellite (spec.md §4.4), optionally filtered by the "satellite" query
// parameter and capped by "count".
func (a *App) handlePasses(w http.ResponseWriter, r *http.Request) {
	satFilter := strings.ToUpper(r.URL.Query().Get("satellite"))
	count := 0
	if c := r.URL.Query().Get("count"); c != "" {
		if n, err := strconv.Atoi(c); err == nil && n > 0 {
			count = n
		}
	}

	now := time.Now().UTC()
	var out []passView
	for _, e := range a.tleDB.Entries {
		if !e.Enabled {
			continue
		}
		if satFilter != "" && strings.ToUpper(e.Name) != satFilter {
			continue
		}
		sat, err := propagator.Parse(e.Name, e.Line1, e.Line2)
		if err != nil {
			continue
		}
		sched, reason, err := predict.Pass(a.observer, sat, now)
		if err != nil || reason != predict.Predictable {
			continue
		}
		maxElT, err := predict.MaxElevation(a.observer, sat, sched.AOS, sched.LOS)
		if err != nil {
			maxElT = sched.AOS
		}
		maxElObs, _ := a.observer.Observe(sat, maxElT)

		out = append(out, passView{
			Satellite:   e.Name,
			NoradID:     e.SatelliteNumber,
			AOS:         sched.AOS.Format(time.RFC3339),
			LOS:         sched.LOS.Format(time.RFC3339),
			MaxElevDeg:  maxElObs.ElevationDeg,
			MaxElevTime: maxElT.Format(time.RFC3339),
			DurationS:   int(sched.LOS.Sub(sched.AOS).Seconds()),
			Visible:     predict.Visible(sched.Rows),
		})
		if count > 0 && len(out) >= count {
			break
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"passes": out})
}

type trackRequest struct {
	Satellite string `json:"satellite"`
	NoradID   int64  `json:"norad_id"`
}

// handleTrack selects one satellite for single-track control (spec.md
// §4.8), tearing down any previous tracking session first. Rotator and
// rig clients are connected according to the running config.
func (a *App) handleTrack(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req trackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": err.Error()})
		return
	}

	idx := -1
	if req.NoradID != 0 {
		idx = tledb.FindEntry(a.tleDB, req.NoradID)
	} else if req.Satellite != "" {
		for i, e := range a.tleDB.Entries {
			if strings.EqualFold(e.Name, req.Satellite) {
				idx = i
				break
			}
		}
	}
	if idx == -1 {
		writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "error": "unknown satellite"})
		return
	}

	te := a.tleDB.Entries[idx]
	sat, err := propagator.Parse(te.Name, te.Line1, te.Line2)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"ok": false, "error": err.Error()})
		return
	}

	transponderEntry := a.transponderDB.Entries[idx]

	a.cfgMu.Lock()
	cfg := a.cfg
	a.cfgMu.Unlock()

	a.stopTracking()

	var rotator *hamlib.RotatorClient
	if cfg.Rotator.Enabled {
		r := hamlib.NewRotatorClient(cfg.Rotator.Host, cfg.Rotator.Port, cfg.Predict.TrackingHorizonDeg)
		if err := r.Connect(); err != nil {
			a.log.Printf("track: rotator connect: %v", err)
		} else {
			rotator = r
		}
		a.wsHub.BroadcastRotatorState(r.State().String())
	}
	var uplinkRig, downlinkRig *hamlib.RigClient
	if cfg.Uplink.Enabled {
		r := hamlib.NewRigClient(cfg.Uplink.Host, cfg.Uplink.Port, cfg.Uplink.VFO)
		if err := r.Connect(); err != nil {
			a.log.Printf("track: uplink rig connect: %v", err)
		} else {
			uplinkRig = r
		}
		a.wsHub.BroadcastRigState("uplink", r.State().String())
	}
	if cfg.Downlink.Enabled {
		r := hamlib.NewRigClient(cfg.Downlink.Host, cfg.Downlink.Port, cfg.Downlink.VFO)
		if err := r.Connect(); err != nil {
			a.log.Printf("track: downlink rig connect: %v", err)
		} else {
			downlinkRig = r
		}
		a.wsHub.BroadcastRigState("downlink", r.State().String())
	}

	controller, err := singletrack.NewController(a.observer, sat, transponderEntry, cfg.Predict.TrackingHorizonDeg, rotator, uplinkRig, downlinkRig)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	controller.UplinkUpdate = uplinkRig != nil
	controller.DownlinkUpdate = downlinkRig != nil

	ctx, cancel := context.WithCancel(context.Background())
	a.trackMu.Lock()
	a.track = controller
	a.trackHandle = te.Name
	a.trackCancel = cancel
	a.rotatorConn = rotator
	a.uplinkConn = uplinkRig
	a.downlinkConn = downlinkRig
	a.trackMu.Unlock()

	go a.runTrackLoop(ctx, sat, controller, te.Name)

	a.transition("TRACKING")
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "tracking": te.Name})
}

// runTrackLoop drives one singletrack.Controller at a 1-second cadence,
// broadcasting each tick's link budget over the WebSocket hub.
func (a *App) runTrackLoop(ctx context.Context, sat *propagator.Satellite, c *singletrack.Controller, handle string) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			obs, err := a.observer.Observe(sat, time.Now())
			if err != nil {
				continue
			}
			status := c.Tick(obs)
			a.wsHub.BroadcastControllerTick(telemetry.ControllerTick{
				Satellite:      handle,
				AzimuthDeg:     obs.AzimuthDeg,
				ElevationDeg:   obs.ElevationDeg,
				UplinkMHz:      status.UplinkDopplerMHz,
				DownlinkMHz:    status.DownlinkDopplerMHz,
				PathLossDB:     status.DownlinkLossDB,
				OneWayDelayMS:  status.DelayMS,
				EchoMS:         status.EchoMS,
				SquintDeg:      status.SquintDeg,
				RotatorTracked: c.Rotator != nil,
			})
		}
	}
}

// stopTracking cancels any in-flight single-track session and closes its
// rotator/rig connections.
func (a *App) stopTracking() {
	a.trackMu.Lock()
	defer a.trackMu.Unlock()
	if a.trackCancel != nil {
		a.trackCancel()
		a.trackCancel = nil
	}
	if a.rotatorConn != nil {
		a.rotatorConn.Close()
		a.rotatorConn = nil
	}
	if a.uplinkConn != nil {
		a.uplinkConn.Close()
		a.uplinkConn = nil
	}
	if a.downlinkConn != nil {
		a.downlinkConn.Close()
		a.downlinkConn = nil
	}
	a.track = nil
	a.trackHandle = ""
}

type whitelistRequest struct {
	NoradID int64 `json:"norad_id"`
	Enabled bool  `json:"enabled"`
}

// handleTLEWhitelist enables or disables one satellite and persists the
// whitelist file (spec.md §4.1).
func (a *App) handleTLEWhitelist(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req whitelistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	idx := tledb.FindEntry(a.tleDB, req.NoradID)
	if idx == -1 {
		writeJSON(w, http.StatusNotFound, map[string]any{"ok": false, "error": "unknown satellite"})
		return
	}
	tledb.SetEnabled(a.tleDB, idx, req.Enabled)
	if err := tledb.WriteWhitelistToDefault(a.tleDB); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	a.scheduler.SetEntries(a.buildSchedulerEntries())
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type tleUpdateRequest struct {
	Filename string `json:"filename"`
}

// handleTLEUpdate merges a newer TLE source file into the running
// database (spec.md §4.1 tle_db_update).
func (a *App) handleTLEUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req tleUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Filename == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false, "error": "filename required"})
		return
	}
	statuses, err := tledb.Update(req.Filename, a.tleDB)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	a.scheduler.SetEntries(a.buildSchedulerEntries())
	a.wsHub.BroadcastLog("info", fmt.Sprintf("TLE database updated from %s", req.Filename))
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "updates": statuses})
}

// handleConfigProfiles lists the .toml profiles available alongside the
// daemon's running config file, letting an operator see what's available
// to switch to without shelling into the host.
func (a *App) handleConfigProfiles(w http.ResponseWriter, _ *http.Request) {
	dir := a.configDir()
	profiles, err := config.ListProfiles(dir)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"dir": dir, "profiles": profiles})
}

// configDir returns the directory the running config file lives in, or
// the default flyby config directory when flybyd started without one.
func (a *App) configDir() string {
	if a.configPath != "" {
		return filepath.Dir(a.configPath)
	}
	return filepath.Join(xdg.ConfigHome(), "flyby")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
