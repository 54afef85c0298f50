// Package scheduler implements Flyby's multi-track scheduler (spec.md
// §4.5): a cooperative, single-threaded control loop that samples every
// enabled satellite at a fixed cadence, classifies it, maintains a stable
// sort order, and publishes a snapshot for display. It replaces the
// teacher's capture-cycle Runner with a classify-and-sort tick loop, but
// keeps its Command/CommandResult channel pattern and broadcast() helper
// for external control and WebSocket publication.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/la1k/flyby/internal/clock"
	"github.com/la1k/flyby/internal/predict"
	"github.com/la1k/flyby/internal/propagator"
	"github.com/la1k/flyby/internal/ws"
)

// Classification is a satellite entry's scheduling state (spec.md §4.5
// step 4).
type Classification int

const (
	Above Classification = iota
	WillRiseSoon
	WillRiseLater
	NeverRises
	Decayed
)

func (c Classification) String() string {
	switch c {
	case Above:
		return "ABOVE"
	case WillRiseSoon:
		return "WILL_RISE_SOON"
	case WillRiseLater:
		return "WILL_RISE_LATER"
	case NeverRises:
		return "NEVER_RISES"
	case Decayed:
		return "DECAYED"
	default:
		return "UNKNOWN"
	}
}

// willRiseSoonThreshold is spec.md's 10-minute (0.00694-day) cutoff.
const willRiseSoonThreshold = 10 * time.Minute

// Entry is one satellite's scheduler state, mirroring one enabled TLE.
type Entry struct {
	Handle    string // satellite name/catalog handle
	Satellite *propagator.Satellite

	Observation    propagator.Observation
	NextAOS        time.Time
	NextLOS        time.Time
	MaxElevation   time.Time
	Classification Classification

	hasNextAOS, hasNextLOS bool
}

// Snapshot is the per-tick published state: every entry, in the scheduler's
// current sort order.
type Snapshot struct {
	Time    time.Time `json:"time"`
	Entries []EntryView `json:"entries"`
}

// EntryView is the JSON-friendly projection of an Entry for publication.
type EntryView struct {
	Handle         string  `json:"handle"`
	AzimuthDeg     float64 `json:"azimuth_deg"`
	ElevationDeg   float64 `json:"elevation_deg"`
	RangeKm        float64 `json:"range_km"`
	Classification string  `json:"classification"`
	NextAOS        string  `json:"next_aos,omitempty"`
	NextLOS        string  `json:"next_los,omitempty"`
}

// Command represents an external command sent to the scheduler via its
// Commands channel. The Reply channel receives exactly one result.
type Command struct {
	Type    string
	Payload json.RawMessage
	Reply   chan<- CommandResult
}

// CommandResult is the response sent back through a Command's Reply
// channel.
type CommandResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Runner owns the scheduler's tick loop.
type Runner struct {
	Hub      *ws.Hub
	Log      *log.Logger
	Observer propagator.Observer
	Clock    clock.Clock

	// TickPeriod is the nominal cadence (spec.md §4.5: 0.5s).
	TickPeriod time.Duration

	// Commands receives external commands from HTTP handlers. The
	// scheduler checks this channel between ticks.
	Commands chan Command

	mu      sync.Mutex
	entries []*Entry
	frozen  bool
}

// New creates a Runner over the given observer, publishing snapshots to
// hub and logging to logger.
func New(hub *ws.Hub, observer propagator.Observer, logger *log.Logger, c clock.Clock) *Runner {
	return &Runner{
		Hub:        hub,
		Log:        logger,
		Observer:   observer,
		Clock:      c,
		TickPeriod: 500 * time.Millisecond,
		Commands:   make(chan Command, 4),
	}
}

// SetEntries replaces the scheduler's tracked satellite set.
func (r *Runner) SetEntries(entries []*Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = entries
}

// FreezeSort latches the current sort order so row identity stays stable
// while a presentation-layer overlay (option menu, search field) is
// active, per spec.md §4.5.
func (r *Runner) FreezeSort() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// UnfreezeSort releases the sort latch.
func (r *Runner) UnfreezeSort() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = false
}

// Run drives the tick loop until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	if r.Hub != nil {
		r.Hub.BroadcastLog("info", "scheduler started")
	}

	for {
		if ctx.Err() != nil {
			return
		}

		r.tick()

		done := ctx.Done()
		select {
		case <-done:
			return
		case cmd := <-r.Commands:
			r.handleCommand(cmd)
		default:
		}

		if r.Clock.Sleep(r.TickPeriod, done) {
			return
		}
	}
}

// tick executes one scheduling cycle (spec.md §4.5 steps 1-6).
func (r *Runner) tick() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.Clock.Now()
	for _, e := range r.entries {
		r.updateEntry(e, now)
	}

	if !r.frozen {
		sortEntries(r.entries)
	}

	r.broadcast(r.snapshotLocked(now))
}

// updateEntry mirrors multitrack_update_entry: refresh the cached
// Observation, recompute next_aos/next_los when stale, and classify.
func (r *Runner) updateEntry(e *Entry, now time.Time) {
	obs, err := r.Observer.Observe(e.Satellite, now)
	if err != nil {
		r.Log.Printf("scheduler: observe %s: %v", e.Handle, err)
		return
	}
	e.Observation = obs

	reason := predict.Classify(e.Satellite, r.Observer.LatDeg)
	canPredict := reason == predict.Predictable

	if canPredict && obs.ElevationDeg >= 0 && (!e.hasNextLOS || now.After(e.NextLOS)) {
		if los, err := predict.NextLOS(r.Observer, e.Satellite, now); err == nil {
			e.NextLOS = los
			e.hasNextLOS = true
			if maxEl, err := predict.MaxElevation(r.Observer, e.Satellite, now, los); err == nil {
				e.MaxElevation = maxEl
			}
		}
	}

	if canPredict && obs.ElevationDeg < 0 && (!e.hasNextAOS || now.After(e.NextAOS)) {
		if aos, err := predict.NextAOS(r.Observer, e.Satellite, now); err == nil {
			e.NextAOS = aos
			e.hasNextAOS = true
		}
	}

	e.Classification = classify(e, reason, now)
}

// classify implements spec.md §4.5 step 4.
func classify(e *Entry, reason predict.Reason, now time.Time) Classification {
	if reason == predict.ReasonDecayed {
		return Decayed
	}
	if reason == predict.ReasonNeverRises {
		return NeverRises
	}
	if reason == predict.ReasonGeostationary && e.Observation.ElevationDeg < 0 {
		return NeverRises
	}
	if e.Observation.ElevationDeg >= 0 {
		return Above
	}
	if e.hasNextAOS && e.NextAOS.Sub(now) < willRiseSoonThreshold {
		return WillRiseSoon
	}
	return WillRiseLater
}

// sortEntries implements spec.md §4.5 step 5: ABOVE first, then the
// rise-pending group (WILL_RISE_SOON+WILL_RISE_LATER) sorted by next_aos
// ascending, then NEVER_RISES, then DECAYED. Groups preserve input order
// except the rise-pending group.
func sortEntries(entries []*Entry) {
	rank := func(c Classification) int {
		switch c {
		case Above:
			return 0
		case WillRiseSoon, WillRiseLater:
			return 1
		case NeverRises:
			return 2
		default: // Decayed
			return 3
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		ri, rj := rank(entries[i].Classification), rank(entries[j].Classification)
		if ri != rj {
			return ri < rj
		}
		if ri == 1 {
			return entries[i].NextAOS.Before(entries[j].NextAOS)
		}
		return false
	})
}

func (r *Runner) snapshotLocked(now time.Time) Snapshot {
	views := make([]EntryView, 0, len(r.entries))
	for _, e := range r.entries {
		v := EntryView{
			Handle:         e.Handle,
			AzimuthDeg:     e.Observation.AzimuthDeg,
			ElevationDeg:   e.Observation.ElevationDeg,
			RangeKm:        e.Observation.RangeKm,
			Classification: e.Classification.String(),
		}
		if e.hasNextAOS {
			v.NextAOS = e.NextAOS.Format(time.RFC3339)
		}
		if e.hasNextLOS {
			v.NextLOS = e.NextLOS.Format(time.RFC3339)
		}
		views = append(views, v)
	}
	return Snapshot{Time: now, Entries: views}
}

// Snapshot returns the current sorted snapshot without advancing a tick.
func (r *Runner) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked(r.Clock.Now())
}

func (r *Runner) handleCommand(cmd Command) {
	switch cmd.Type {
	case "freeze_sort":
		r.FreezeSort()
		cmd.Reply <- CommandResult{OK: true}
	case "unfreeze_sort":
		r.UnfreezeSort()
		cmd.Reply <- CommandResult{OK: true}
	default:
		cmd.Reply <- CommandResult{OK: false, Error: fmt.Sprintf("unknown command: %s", cmd.Type)}
	}
}

func (r *Runner) broadcast(v any) {
	if r.Hub == nil {
		return
	}
	r.Hub.Broadcast(v)
}
