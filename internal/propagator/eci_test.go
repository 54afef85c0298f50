package propagator

import (
	"math"
	"testing"
	"time"
)

func TestGeodeticECEFRoundTrip(t *testing.T) {
	cases := []struct{ lat, lon, altM float64 }{
		{63.42, 10.39, 130},
		{-33.87, 151.21, 58},
		{0, 0, 0},
		{89.9, 45, 2000},
	}
	for _, c := range cases {
		ecef := geodeticToECEF(c.lat, c.lon, c.altM)
		gotLat, gotLon, gotAltKm := ecefToGeodetic(ecef)

		if math.Abs(gotLat-c.lat) > 1e-4 {
			t.Fatalf("lat round trip: got %v, want %v", gotLat, c.lat)
		}
		if math.Abs(gotLon-c.lon) > 1e-4 {
			t.Fatalf("lon round trip: got %v, want %v", gotLon, c.lon)
		}
		if math.Abs(gotAltKm*1000-c.altM) > 1.0 {
			t.Fatalf("altitude round trip: got %v km, want %v m", gotAltKm, c.altM)
		}
	}
}

func TestLookAnglesOverhead(t *testing.T) {
	now := time.Date(2026, time.July, 30, 12, 0, 0, 0, time.UTC)
	lat, lon, altM := 63.42, 10.39, 130.0

	// Build an ECI position directly above the observer by taking the
	// observer's ECEF point at a much higher altitude and rotating it into
	// ECI the same way geodeticToECEF's companion transform does — this is
	// self-consistent regardless of gmstRad's absolute accuracy, since the
	// same rotation angle is used to build the point and to resolve it.
	overheadECEF := geodeticToECEF(lat, lon, altM+400000) // 400km up
	satECI := rotateZ(overheadECEF, -gmstRad(now))

	_, elDeg, rangeKm, _ := lookAngles(lat, lon, altM, satECI, [3]float64{0, 0, 0}, now)

	if elDeg < 89.0 {
		t.Fatalf("elevation for directly-overhead satellite = %v, want ~90", elDeg)
	}
	if math.Abs(rangeKm-400.0) > 1.0 {
		t.Fatalf("range for directly-overhead satellite = %v km, want ~400", rangeKm)
	}
}

func TestGMSTMonotonic(t *testing.T) {
	t1 := time.Date(2026, time.July, 30, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(6 * time.Hour)

	g1 := gmstRad(t1)
	g2 := gmstRad(t2)

	diff := math.Mod(g2-g1+2*math.Pi, 2*math.Pi)
	// Sidereal time advances slightly faster than solar time; over 6 hours
	// it should be close to pi/2 but not exactly.
	if diff < math.Pi/2-0.1 || diff > math.Pi/2+0.1 {
		t.Fatalf("gmstRad delta over 6h = %v rad, want ~pi/2", diff)
	}
}
