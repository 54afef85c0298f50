// Package app wires together the HTTP server, WebSocket hub, multi-track
// scheduler, and single-track controller session into one daemon process.
// It owns flybyd's lifecycle and is the single source of truth for the
// current operating state, replacing the global mutable state the
// original C daemon kept in file-scope statics.
package app

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/la1k/flyby/internal/clock"
	"github.com/la1k/flyby/internal/config"
	"github.com/la1k/flyby/internal/hamlib"
	"github.com/la1k/flyby/internal/propagator"
	"github.com/la1k/flyby/internal/qth"
	"github.com/la1k/flyby/internal/scheduler"
	"github.com/la1k/flyby/internal/singletrack"
	"github.com/la1k/flyby/internal/tledb"
	"github.com/la1k/flyby/internal/transponderdb"
	"github.com/la1k/flyby/internal/ws"
)

// Options holds everything the App needs from the caller.
type Options struct {
	Logger     *log.Logger
	Cfg        config.Config
	Bind       string
	ConfigPath string
}

// App is the top-level daemon process: HTTP server, WebSocket hub,
// multi-track scheduler, and (at most one, at a time) single-track
// controller session.
type App struct {
	log        *log.Logger
	bind       string
	configPath string
	server     *http.Server

	startedAt time.Time
	state     atomic.Value // current state string (BOOTING, IDLE, TRACKING, ...)

	wsHub    *ws.Hub
	observer propagator.Observer

	cfgMu sync.Mutex
	cfg   config.Config

	tleDB         *tledb.Database
	transponderDB *transponderdb.Database

	scheduler *scheduler.Runner

	trackMu      sync.Mutex
	track        *singletrack.Controller
	trackHandle  string
	trackCancel  context.CancelFunc
	rotatorConn  *hamlib.RotatorClient
	uplinkConn   *hamlib.RigClient
	downlinkConn *hamlib.RigClient
}

// New resolves the ground station location, loads the TLE and transponder
// databases, and creates an App in the BOOTING state. Call Run to start
// serving.
func New(opts Options) (*App, error) {
	observer, err := resolveObserver(opts.Cfg)
	if err != nil {
		return nil, fmt.Errorf("app: resolve observer: %w", err)
	}

	tleDB, err := loadTLEDatabase(opts.Cfg)
	if err != nil {
		return nil, fmt.Errorf("app: load TLE database: %w", err)
	}
	_ = tledb.LoadWhitelistFromSearchPaths(tleDB)

	transponderDB := transponderdb.NewDatabase(len(tleDB.Entries))
	if loaded, err := transponderdb.FromSearchPaths(tleDB); err == nil {
		transponderDB = loaded
	}

	a := &App{
		log:           opts.Logger,
		bind:          opts.Bind,
		configPath:    opts.ConfigPath,
		cfg:           opts.Cfg,
		startedAt:     time.Now(),
		wsHub:         ws.NewHub(),
		observer:      observer,
		tleDB:         tleDB,
		transponderDB: transponderDB,
	}
	a.state.Store("BOOTING")
	return a, nil
}

// resolveObserver builds the ground-station Observer from, in order: an
// explicit --qth-file override, the config's station lat/lon/alt override,
// or the on-disk QTH file search path (spec.md §4.9).
func resolveObserver(cfg config.Config) (propagator.Observer, error) {
	st := cfg.Station
	if st.QTHFile != "" {
		q, err := qth.FromFile(st.QTHFile)
		if err != nil {
			return propagator.Observer{}, err
		}
		return propagator.Observer{LatDeg: q.LatitudeDeg, LonDeg: q.LongitudeDeg, AltM: float64(q.AltitudeM)}, nil
	}
	if st.Latitude != 0 || st.Longitude != 0 || st.Altitude != 0 {
		return propagator.Observer{LatDeg: st.Latitude, LonDeg: st.Longitude, AltM: st.Altitude}, nil
	}

	q, _, err := qth.FromSearchPaths()
	if err != nil {
		return propagator.Observer{}, err
	}
	return propagator.Observer{LatDeg: q.LatitudeDeg, LonDeg: q.LongitudeDeg, AltM: float64(q.AltitudeM)}, nil
}

// loadTLEDatabase loads the XDG search-path TLE set and merges in any
// configured extra source files (spec.md §4.1, generalized for
// config.TLEConfig.ExtraPaths).
func loadTLEDatabase(cfg config.Config) (*tledb.Database, error) {
	db, err := tledb.FromSearchPaths()
	if err != nil {
		return nil, err
	}
	for _, p := range cfg.TLE.ExtraPaths {
		extra, err := tledb.ParseFile(p)
		if err != nil {
			continue
		}
		tledb.Merge(extra, db, tledb.MergeKeep)
	}
	return db, nil
}

// Run starts the HTTP server, WebSocket hub, heartbeat loop, and the
// multi-track scheduler. It blocks until the context is cancelled or the
// server returns an error.
func (a *App) Run(ctx context.Context) error {
	bind := a.bind
	if bind == "" {
		bind = a.cfg.Server.Bind
	}
	if bind == "" {
		bind = "0.0.0.0:8080"
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", a.handleHealthz)
	mux.HandleFunc("/api/status", a.handleStatus)
	mux.HandleFunc("/api/satellites", a.handleSatellites)
	mux.HandleFunc("/api/passes", a.handlePasses)
	mux.HandleFunc("/api/track", a.handleTrack)
	mux.HandleFunc("/api/tle/whitelist", a.handleTLEWhitelist)
	mux.HandleFunc("/api/tle/update", a.handleTLEUpdate)
	mux.HandleFunc("/api/config/profiles", a.handleConfigProfiles)
	mux.Handle("/ws", a.wsHub.Handler())

	a.server = &http.Server{
		Addr:              bind,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", bind)
	if err != nil {
		return err
	}
	a.log.Printf("listening on http://%s", bind)

	go a.wsHub.Run(ctx)
	a.transition("IDLE")
	go a.heartbeatLoop(ctx)

	a.scheduler = scheduler.New(a.wsHub, a.observer, a.log, clock.Real{})
	a.scheduler.SetEntries(a.buildSchedulerEntries())
	go a.scheduler.Run(ctx)

	go func() {
		<-ctx.Done()
		a.log.Printf("shutdown requested")
		a.stopTracking()
		_ = a.server.Shutdown(context.Background())
	}()

	return a.server.Serve(ln)
}

// buildSchedulerEntries parses every enabled TLE entry into a scheduler
// Entry, skipping any that fail to parse (malformed or stale enough to
// confuse the propagator library).
func (a *App) buildSchedulerEntries() []*scheduler.Entry {
	var entries []*scheduler.Entry
	for _, te := range a.tleDB.Entries {
		if !te.Enabled {
			continue
		}
		sat, err := propagator.Parse(te.Name, te.Line1, te.Line2)
		if err != nil {
			a.log.Printf("scheduler: skip %s: %v", te.Name, err)
			continue
		}
		entries = append(entries, &scheduler.Entry{Handle: te.Name, Satellite: sat})
	}
	return entries
}

// transition atomically updates the daemon state and broadcasts the
// change to all connected WebSocket clients.
func (a *App) transition(newState string) {
	old, _ := a.state.Load().(string)
	if old == newState {
		return
	}
	a.state.Store(newState)
	a.wsHub.BroadcastStateTransition(old, newState)
}

// heartbeatLoop sends a periodic heartbeat event so clients can detect
// connectivity and track uptime without polling.
func (a *App) heartbeatLoop(ctx context.Context) {
	t := time.NewTicker(10 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			a.wsHub.BroadcastHeartbeat(a.currentState(), time.Since(a.startedAt))
		}
	}
}

func (a *App) currentState() string {
	s, _ := a.state.Load().(string)
	return s
}
