package propagator

import (
	"math"
	"testing"
	"time"
)

func TestApproximateSunDeclinationBounded(t *testing.T) {
	times := []time.Time{
		time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.July, 30, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, tm := range times {
		dec, ra := approximateSunGeocentric(tm)
		decDeg := dec * 180 / math.Pi
		if decDeg < -23.5 || decDeg > 23.5 {
			t.Fatalf("sun declination out of bounds at %v: %v deg", tm, decDeg)
		}
		if ra < -math.Pi || ra > math.Pi {
			t.Fatalf("sun right ascension out of atan2 range at %v: %v rad", tm, ra)
		}
	}
}

func TestObserveSunAzimuthElevationBounded(t *testing.T) {
	o := Observer{LatDeg: 63.42, LonDeg: 10.39, AltM: 130}
	now := time.Date(2026, time.July, 30, 12, 0, 0, 0, time.UTC)

	az, el := o.ObserveSun(now)
	if az < 0 || az >= 360 {
		t.Fatalf("ObserveSun azimuth out of range: %v", az)
	}
	if el < -90 || el > 90 {
		t.Fatalf("ObserveSun elevation out of range: %v", el)
	}
}

func TestObserveMoonAzimuthElevationBounded(t *testing.T) {
	o := Observer{LatDeg: -33.87, LonDeg: 151.21, AltM: 58}
	now := time.Date(2026, time.July, 30, 3, 0, 0, 0, time.UTC)

	az, el := o.ObserveMoon(now)
	if az < 0 || az >= 360 {
		t.Fatalf("ObserveMoon azimuth out of range: %v", az)
	}
	if el < -90 || el > 90 {
		t.Fatalf("ObserveMoon elevation out of range: %v", el)
	}
}

func TestIlluminatedSunwardSideAlwaysLit(t *testing.T) {
	now := time.Date(2026, time.July, 30, 12, 0, 0, 0, time.UTC)
	sunDir := approximateSunECIDirection(now)

	// A point far along the sun direction vector is always on the lit side.
	sunwardPoint := scale(sunDir, 42000) // geostationary-ish range, km
	if !illuminated(sunwardPoint, now) {
		t.Fatal("a point on the sunward side should always be illuminated")
	}
}

func TestIlluminatedAntisolarSideCanBeShadowed(t *testing.T) {
	now := time.Date(2026, time.July, 30, 12, 0, 0, 0, time.UTC)
	sunDir := approximateSunECIDirection(now)

	// A low-orbit point directly behind Earth from the Sun, within Earth's
	// cylindrical shadow radius, should be eclipsed.
	antisolarPoint := scale(sunDir, -earthRadiusKm-400)
	if illuminated(antisolarPoint, now) {
		t.Fatal("a low-orbit point directly antisolar of Earth's center should be eclipsed")
	}
}
