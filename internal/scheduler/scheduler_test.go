package scheduler

import (
	"testing"
	"time"

	"github.com/la1k/flyby/internal/predict"
	"github.com/la1k/flyby/internal/propagator"
)

// TestClassifyTotality exercises every branch of classify, confirming each
// (reason, elevation, AOS-proximity) combination spec.md §4.5 step 4 names
// maps to exactly one Classification. If a future edit adds a reachable
// path that falls through to an unintended default, one of these cases
// catches it.
func TestClassifyTotality(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		entry  Entry
		reason predict.Reason
		want   Classification
	}{
		{
			name:   "decayed overrides everything",
			entry:  Entry{Observation: obsAt(45), hasNextAOS: true, NextAOS: now.Add(time.Second)},
			reason: predict.ReasonDecayed,
			want:   Decayed,
		},
		{
			name:   "never rises reason",
			entry:  Entry{Observation: obsAt(-10)},
			reason: predict.ReasonNeverRises,
			want:   NeverRises,
		},
		{
			name:   "geostationary below horizon",
			entry:  Entry{Observation: obsAt(-1)},
			reason: predict.ReasonGeostationary,
			want:   NeverRises,
		},
		{
			name:   "geostationary above horizon",
			entry:  Entry{Observation: obsAt(0)},
			reason: predict.ReasonGeostationary,
			want:   Above,
		},
		{
			name:   "predictable, above horizon",
			entry:  Entry{Observation: obsAt(12.5)},
			reason: predict.Predictable,
			want:   Above,
		},
		{
			name:   "predictable, rising within 10 minutes",
			entry:  Entry{Observation: obsAt(-5), hasNextAOS: true, NextAOS: now.Add(5 * time.Minute)},
			reason: predict.Predictable,
			want:   WillRiseSoon,
		},
		{
			name:   "predictable, rising after 10 minutes",
			entry:  Entry{Observation: obsAt(-5), hasNextAOS: true, NextAOS: now.Add(11 * time.Minute)},
			reason: predict.Predictable,
			want:   WillRiseLater,
		},
		{
			name:   "predictable, no AOS computed yet",
			entry:  Entry{Observation: obsAt(-5), hasNextAOS: false},
			reason: predict.Predictable,
			want:   WillRiseLater,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := classify(&c.entry, c.reason, now)
			if got != c.want {
				t.Fatalf("classify() = %v, want %v", got, c.want)
			}
		})
	}
}

// TestClassifyThresholdBoundary pins the willRiseSoonThreshold edge: spec.md
// §4.5's 10-minute cutoff is exclusive, so an AOS exactly 10 minutes out is
// WILL_RISE_LATER, not WILL_RISE_SOON.
func TestClassifyThresholdBoundary(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	e := Entry{Observation: obsAt(-5), hasNextAOS: true, NextAOS: now.Add(willRiseSoonThreshold)}
	if got := classify(&e, predict.Predictable, now); got != WillRiseLater {
		t.Fatalf("classify() at exact threshold = %v, want WillRiseLater", got)
	}
}

func obsAt(elevationDeg float64) propagator.Observation {
	return propagator.Observation{ElevationDeg: elevationDeg}
}

// TestSortEntriesGroupOrder confirms the rank ordering from spec.md §4.5
// step 5: ABOVE, then the rise-pending group, then NEVER_RISES, then
// DECAYED.
func TestSortEntriesGroupOrder(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	entries := []*Entry{
		{Handle: "DECAYED-1", Classification: Decayed},
		{Handle: "NEVER-1", Classification: NeverRises},
		{Handle: "SOON-1", Classification: WillRiseSoon, NextAOS: now.Add(2 * time.Minute)},
		{Handle: "ABOVE-1", Classification: Above},
	}

	sortEntries(entries)

	want := []string{"ABOVE-1", "SOON-1", "NEVER-1", "DECAYED-1"}
	for i, h := range want {
		if entries[i].Handle != h {
			t.Fatalf("entries[%d] = %s, want %s (got order %v)", i, entries[i].Handle, h, handles(entries))
		}
	}
}

// TestSortEntriesRisePendingOrderedByNextAOS confirms the rise-pending
// group (WILL_RISE_SOON + WILL_RISE_LATER) is sorted by NextAOS ascending,
// independent of classification within that group.
func TestSortEntriesRisePendingOrderedByNextAOS(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	entries := []*Entry{
		{Handle: "LATER", Classification: WillRiseLater, NextAOS: now.Add(30 * time.Minute)},
		{Handle: "SOONEST", Classification: WillRiseSoon, NextAOS: now.Add(1 * time.Minute)},
		{Handle: "MIDDLE", Classification: WillRiseSoon, NextAOS: now.Add(5 * time.Minute)},
	}

	sortEntries(entries)

	want := []string{"SOONEST", "MIDDLE", "LATER"}
	for i, h := range want {
		if entries[i].Handle != h {
			t.Fatalf("entries[%d] = %s, want %s (got order %v)", i, entries[i].Handle, h, handles(entries))
		}
	}
}

// TestSortEntriesStableWithinEqualRank confirms sortEntries is a stable
// sort: entries whose rank ties and whose rank isn't the rise-pending
// group (which breaks ties by NextAOS) keep their original relative order
// across repeated calls.
func TestSortEntriesStableWithinEqualRank(t *testing.T) {
	entries := []*Entry{
		{Handle: "NEVER-A", Classification: NeverRises},
		{Handle: "NEVER-B", Classification: NeverRises},
		{Handle: "NEVER-C", Classification: NeverRises},
	}

	sortEntries(entries)

	want := []string{"NEVER-A", "NEVER-B", "NEVER-C"}
	for i, h := range want {
		if entries[i].Handle != h {
			t.Fatalf("entries[%d] = %s, want %s (got order %v)", i, entries[i].Handle, h, handles(entries))
		}
	}

	// Sorting an already-sorted slice must be idempotent.
	sortEntries(entries)
	for i, h := range want {
		if entries[i].Handle != h {
			t.Fatalf("second sortEntries() call: entries[%d] = %s, want %s", i, entries[i].Handle, h)
		}
	}
}

func handles(entries []*Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Handle
	}
	return out
}
