// Package predict implements Flyby's pass-prediction engine: next-AOS/
// next-LOS/max-elevation search, the schedule-sampling loop behind pass and
// visible-pass listings, the solar-illumination scan, and sun/moon passes.
// It runs entirely on top of internal/propagator's Observer/Satellite
// adapter — everything here is time-stepping and root-finding over that
// adapter's Observation values, grounded on original_source's
// prediction_schedules.c (the step formulas and rise/set refinement) minus
// its ncurses display plumbing.
package predict

import (
	"errors"
	"time"

	"github.com/la1k/flyby/internal/propagator"
)

// Reason classifies why a satellite cannot be scheduled for prediction.
// Per spec these are first-class outcomes, not errors: a caller asking
// "when does GEOSAT-1 next rise" is answered with ReasonGeostationary, not
// a failure.
type Reason int

const (
	Predictable Reason = iota
	ReasonNeverRises
	ReasonGeostationary
	ReasonDecayed
)

func (r Reason) String() string {
	switch r {
	case Predictable:
		return "predictable"
	case ReasonNeverRises:
		return "never_rises"
	case ReasonGeostationary:
		return "geostationary"
	case ReasonDecayed:
		return "decayed"
	default:
		return "unknown"
	}
}

// Classify reports why sat cannot be scheduled for an observer at
// observerLatDeg, or Predictable if AOS/LOS search is meaningful for it.
func Classify(sat *propagator.Satellite, observerLatDeg float64) Reason {
	if sat.Decayed() {
		return ReasonDecayed
	}
	if sat.Geostationary() {
		return ReasonGeostationary
	}
	if !sat.AosHappens(observerLatDeg) {
		return ReasonNeverRises
	}
	return Predictable
}

// ErrNotPredictable is returned by NextAOS/NextLOS/Schedule when the
// satellite's classification is not Predictable, or when no crossing is
// found within the search window (a TLE too stale to be self-consistent).
var ErrNotPredictable = errors.New("predict: satellite is not predictable for this observer")

const (
	coarseStep       = 30 * time.Second
	maxSearchWindow  = 7 * 24 * time.Hour
	bisectIterations = 30
)

// NextAOS returns the next time at or after t0 that sat rises above the
// horizon for o. It steps forward in coarseStep increments looking for an
// elevation sign change, then bisects to refine the crossing.
func NextAOS(o propagator.Observer, sat *propagator.Satellite, t0 time.Time) (time.Time, error) {
	if Classify(sat, o.LatDeg) != Predictable {
		return time.Time{}, ErrNotPredictable
	}

	obs, err := o.Observe(sat, t0)
	if err != nil {
		return time.Time{}, err
	}
	if obs.ElevationDeg >= 0 {
		// Already mid-pass: find this pass's LOS first, then search for
		// the following AOS from there.
		los, err := NextLOS(o, sat, t0)
		if err != nil {
			return time.Time{}, err
		}
		t0 = los.Add(coarseStep)
		obs, err = o.Observe(sat, t0)
		if err != nil {
			return time.Time{}, err
		}
	}

	prevT, prevEl := t0, obs.ElevationDeg
	for t := t0.Add(coarseStep); t.Sub(t0) < maxSearchWindow; t = t.Add(coarseStep) {
		next, err := o.Observe(sat, t)
		if err != nil {
			return time.Time{}, err
		}
		if prevEl < 0 && next.ElevationDeg >= 0 {
			return bisectZeroCrossing(o, sat, prevT, t)
		}
		prevT, prevEl = t, next.ElevationDeg
	}
	return time.Time{}, ErrNotPredictable
}

// NextLOS returns the next time at or after tAfterAOS that sat's elevation
// drops back below the horizon.
func NextLOS(o propagator.Observer, sat *propagator.Satellite, tAfterAOS time.Time) (time.Time, error) {
	if Classify(sat, o.LatDeg) != Predictable {
		return time.Time{}, ErrNotPredictable
	}

	prevObs, err := o.Observe(sat, tAfterAOS)
	if err != nil {
		return time.Time{}, err
	}

	prevT, prevEl := tAfterAOS, prevObs.ElevationDeg
	for t := tAfterAOS.Add(coarseStep); t.Sub(tAfterAOS) < maxSearchWindow; t = t.Add(coarseStep) {
		obs, err := o.Observe(sat, t)
		if err != nil {
			return time.Time{}, err
		}
		if prevEl >= 0 && obs.ElevationDeg < 0 {
			return bisectZeroCrossing(o, sat, prevT, t)
		}
		prevT, prevEl = t, obs.ElevationDeg
	}
	return time.Time{}, ErrNotPredictable
}

// bisectZeroCrossing narrows [lo, hi] — known to straddle an elevation
// zero-crossing — down to hi, the first sample on the far side of it, via
// binary search. Works for both rising (AOS) and falling (LOS) crossings.
func bisectZeroCrossing(o propagator.Observer, sat *propagator.Satellite, lo, hi time.Time) (time.Time, error) {
	loObs, err := o.Observe(sat, lo)
	if err != nil {
		return time.Time{}, err
	}
	loAbove := loObs.ElevationDeg >= 0

	for i := 0; i < bisectIterations; i++ {
		mid := lo.Add(hi.Sub(lo) / 2)
		obs, err := o.Observe(sat, mid)
		if err != nil {
			return time.Time{}, err
		}
		if (obs.ElevationDeg >= 0) == loAbove {
			lo = mid
		} else {
			hi = mid
		}
	}
	return hi, nil
}

// MaxElevation returns the time of peak elevation between aos and los, via
// golden-section search. A single pass's elevation curve rises then falls
// exactly once, so it is unimodal over [aos, los] and golden-section
// search converges without needing a derivative.
func MaxElevation(o propagator.Observer, sat *propagator.Satellite, aos, los time.Time) (time.Time, error) {
	const invPhi = 0.6180339887498949 // (sqrt(5)-1)/2

	lo, hi := aos, los
	elAt := func(t time.Time) (float64, error) {
		obs, err := o.Observe(sat, t)
		return obs.ElevationDeg, err
	}

	span := hi.Sub(lo)
	x1 := lo.Add(time.Duration(float64(span) * (1 - invPhi)))
	x2 := lo.Add(time.Duration(float64(span) * invPhi))
	f1, err := elAt(x1)
	if err != nil {
		return time.Time{}, err
	}
	f2, err := elAt(x2)
	if err != nil {
		return time.Time{}, err
	}

	for i := 0; i < 60 && hi.Sub(lo) > time.Second; i++ {
		if f1 < f2 {
			lo = x1
			x1, f1 = x2, f2
			span = hi.Sub(lo)
			x2 = lo.Add(time.Duration(float64(span) * invPhi))
			if f2, err = elAt(x2); err != nil {
				return time.Time{}, err
			}
		} else {
			hi = x2
			x2, f2 = x1, f1
			span = hi.Sub(lo)
			x1 = lo.Add(time.Duration(float64(span) * (1 - invPhi)))
			if f1, err = elAt(x1); err != nil {
				return time.Time{}, err
			}
		}
	}
	return lo.Add(hi.Sub(lo) / 2), nil
}
