package predict

import (
	"math"
	"testing"
	"time"

	"github.com/la1k/flyby/internal/propagator"
)

// ISS (ZARYA), epoch near 2023-01-01.
const issLine1 = "1 25544U 98067A   23001.50000000  .00016717  00000-0  10270-3 0  9005"
const issLine2 = "2 25544  51.6416 339.8873 0005502  69.1293 102.6616 15.49875532370123"

// A synthetic geostationary TLE.
const geoLine1 = "1 99999U 23001A   23001.50000000  .00000000  00000-0  00000-0 0  9000"
const geoLine2 = "2 99999   0.0500 100.0000 0001000  90.0000 270.0000  1.00273000123456"

func mustParse(t *testing.T, name, l1, l2 string) *propagator.Satellite {
	t.Helper()
	sat, err := propagator.Parse(name, l1, l2)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return sat
}

func TestClassifyGeostationary(t *testing.T) {
	sat := mustParse(t, "GEOSAT", geoLine1, geoLine2)
	if got := Classify(sat, 63.4); got != ReasonGeostationary {
		t.Fatalf("Classify() = %v, want ReasonGeostationary", got)
	}
}

func TestClassifyNeverRises(t *testing.T) {
	// 10-degree-inclination LEO orbit, observer at 70N.
	const lowIncLine1 = "1 88888U 23001A   23001.50000000  .00000000  00000-0  00000-0 0  9000"
	const lowIncLine2 = "2 88888  10.0000 100.0000 0001000  90.0000 270.0000 14.50000000123456"
	sat := mustParse(t, "LOWINC", lowIncLine1, lowIncLine2)
	if got := Classify(sat, 70.0); got != ReasonNeverRises {
		t.Fatalf("Classify() = %v, want ReasonNeverRises", got)
	}
}

func TestClassifyPredictableISS(t *testing.T) {
	sat := mustParse(t, "ISS", issLine1, issLine2)
	if got := Classify(sat, 63.4); got != Predictable {
		t.Fatalf("Classify() = %v, want Predictable", got)
	}
}

// TestAOSPredictionSmoke mirrors the scenario in spec.md §8.1: observer at
// (63.422N, 10.39E, 100m), t0 = epoch + 0.5 days. Expect next_aos within
// the next 90 minutes, elevation at max_elevation >= 10 deg, next_los -
// next_aos between 5 and 15 minutes.
func TestAOSPredictionSmoke(t *testing.T) {
	sat := mustParse(t, "ISS", issLine1, issLine2)
	o := propagator.Observer{LatDeg: 63.422, LonDeg: 10.39, AltM: 100}

	epoch, err := propagator.EpochTime(issLine1)
	if err != nil {
		t.Fatalf("EpochTime: %v", err)
	}
	t0 := epoch.Add(12 * time.Hour)

	aos, err := NextAOS(o, sat, t0)
	if err != nil {
		t.Fatalf("NextAOS: %v", err)
	}
	if aos.Sub(t0) > 90*time.Minute {
		t.Fatalf("next_aos is %v after t0, want within 90 minutes", aos.Sub(t0))
	}
	if aos.Before(t0) {
		t.Fatalf("next_aos %v is before t0 %v", aos, t0)
	}

	los, err := NextLOS(o, sat, aos)
	if err != nil {
		t.Fatalf("NextLOS: %v", err)
	}
	if los.Before(aos) {
		t.Fatalf("next_los %v is before next_aos %v", los, aos)
	}
	dur := los.Sub(aos)
	if dur < 5*time.Minute || dur > 15*time.Minute {
		t.Fatalf("pass duration = %v, want between 5 and 15 minutes", dur)
	}

	maxElTime, err := MaxElevation(o, sat, aos, los)
	if err != nil {
		t.Fatalf("MaxElevation: %v", err)
	}
	if maxElTime.Before(aos) || maxElTime.After(los) {
		t.Fatalf("max elevation time %v outside [aos, los] = [%v, %v]", maxElTime, aos, los)
	}

	peakObs, err := o.Observe(sat, maxElTime)
	if err != nil {
		t.Fatalf("Observe at max elevation: %v", err)
	}
	aosObs, err := o.Observe(sat, aos)
	if err != nil {
		t.Fatalf("Observe at aos: %v", err)
	}
	losObs, err := o.Observe(sat, los)
	if err != nil {
		t.Fatalf("Observe at los: %v", err)
	}

	if peakObs.ElevationDeg < 10 {
		t.Fatalf("elevation at max elevation = %v deg, want >= 10", peakObs.ElevationDeg)
	}
	if peakObs.ElevationDeg < aosObs.ElevationDeg-1e-6 {
		t.Fatalf("max elevation %v deg < elevation at aos %v deg", peakObs.ElevationDeg, aosObs.ElevationDeg)
	}
	if peakObs.ElevationDeg < losObs.ElevationDeg-1e-6 {
		t.Fatalf("max elevation %v deg < elevation at los %v deg", peakObs.ElevationDeg, losObs.ElevationDeg)
	}
	if math.Abs(aosObs.ElevationDeg) > 1.0 {
		t.Fatalf("elevation at aos = %v deg, want ~0", aosObs.ElevationDeg)
	}
	if math.Abs(losObs.ElevationDeg) > 1.0 {
		t.Fatalf("elevation at los = %v deg, want ~0", losObs.ElevationDeg)
	}
}

func TestNextAOSAlreadyAbovePass(t *testing.T) {
	sat := mustParse(t, "ISS", issLine1, issLine2)
	o := propagator.Observer{LatDeg: 63.422, LonDeg: 10.39, AltM: 100}

	epoch, _ := propagator.EpochTime(issLine1)
	aos, err := NextAOS(o, sat, epoch.Add(12*time.Hour))
	if err != nil {
		t.Fatalf("NextAOS: %v", err)
	}

	// Calling NextAOS from mid-pass should return the *following* AOS, not
	// the current one.
	midPass := aos.Add(2 * time.Minute)
	nextAOS, err := NextAOS(o, sat, midPass)
	if err != nil {
		t.Fatalf("NextAOS from mid-pass: %v", err)
	}
	if !nextAOS.After(midPass) {
		t.Fatalf("NextAOS from mid-pass returned %v, want strictly after %v", nextAOS, midPass)
	}
}
