// Package propagator adapts github.com/akhenakh/sgp4's SGP4 orbit
// propagation into the richer per-instant Observation the scheduler and
// single-track controller need: look angles, sub-satellite point, eclipse
// state, orbital phase, and simple classification predicates
// (geostationary, ever-rises). The look-angle and classification math is
// the library's own domain (spec.md names "libpredict" as the original's
// equivalent); akhenakh/sgp4 is assumed to expose TLE parsing and raw ECI
// propagation only, so this package derives everything past that itself,
// grounded on the well-known formulas original_source's libpredict
// dependency implements (GMST-based topocentric transform, apogee/
// inclination visibility test, 1 rev/day geostationary test).
package propagator

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	earthRadiusKm = 6378.135
	earthFlat     = 1.0 / 298.26
	secondsPerDay = 86400.0

	// earthMuKm3PerS2 is the Earth's standard gravitational parameter, used
	// to recover semi-major axis from mean motion via Kepler's third law.
	earthMuKm3PerS2 = 398600.4418
)

// InclinationDeg parses a TLE line 2's inclination field (columns 9-16).
func InclinationDeg(line2 string) (float64, error) {
	return parseField(line2, 8, 16)
}

// Eccentricity parses a TLE line 2's eccentricity field (columns 27-33),
// which is stored without an assumed decimal point.
func Eccentricity(line2 string) (float64, error) {
	if len(line2) < 33 {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseFloat("0."+strings.TrimSpace(line2[26:33]), 64)
}

// MeanMotionRevPerDay parses a TLE line 2's mean motion field (columns
// 53-63), in revolutions per day.
func MeanMotionRevPerDay(line2 string) (float64, error) {
	return parseField(line2, 52, 63)
}

func parseField(line string, start, end int) (float64, error) {
	if len(line) < end {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseFloat(strings.TrimSpace(line[start:end]), 64)
}

// EpochTime parses a TLE line 1's epoch fields (columns 19-32: 2-digit
// year, fractional day of year) into an absolute UTC time, applying the
// same 1957-pivot rule internal/tledb uses for epoch comparisons.
func EpochTime(line1 string) (time.Time, error) {
	if len(line1) < 32 {
		return time.Time{}, strconv.ErrSyntax
	}
	yy, err := strconv.Atoi(strings.TrimSpace(line1[18:20]))
	if err != nil {
		return time.Time{}, err
	}
	day, err := strconv.ParseFloat(strings.TrimSpace(line1[20:32]), 64)
	if err != nil {
		return time.Time{}, err
	}
	year := 1900 + yy
	if yy < 57 {
		year = 2000 + yy
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return start.Add(time.Duration((day - 1) * 24 * float64(time.Hour))), nil
}

// PerigeeAltitudeKm returns the orbit's perigee altitude above Earth's
// mean radius, in kilometres, recovered from mean motion and eccentricity
// via Kepler's third law.
func PerigeeAltitudeKm(line2 string) (float64, error) {
	mm, err := MeanMotionRevPerDay(line2)
	if err != nil || mm <= 0 {
		return 0, strconv.ErrRange
	}
	ecc, err := Eccentricity(line2)
	if err != nil {
		return 0, err
	}
	periodSec := secondsPerDay / mm
	smaKm := math.Cbrt(earthMuKm3PerS2 * (periodSec / (2 * math.Pi)) * (periodSec / (2 * math.Pi)))
	return smaKm*(1.0-ecc) - earthRadiusKm, nil
}

// Decayed reports whether the orbit described by line2 has effectively
// re-entered: its perigee lies below Earth's surface, which only happens
// for TLEs describing satellites that have already decayed (a valid
// in-orbit TLE always has a perigee altitude comfortably above zero).
func Decayed(line2 string) bool {
	alt, err := PerigeeAltitudeKm(line2)
	if err != nil {
		return false
	}
	return alt < 0
}

// IsGeostationary reports whether the TLE's mean motion is within
// libpredict's tolerance of one revolution per day.
func IsGeostationary(line2 string) bool {
	mm, err := MeanMotionRevPerDay(line2)
	if err != nil {
		return false
	}
	return math.Abs(mm-1.0027) < 0.0002
}

// AosHappens reports whether a satellite on this orbit can ever rise
// above the horizon for an observer at observerLatDeg. It compares the
// half-angle subtended by the satellite's apogee horizon to the
// observer's latitude offset by the orbit's inclination — an orbit whose
// inclination plus horizon half-angle doesn't reach the observer's
// latitude never rises there.
func AosHappens(line2 string, observerLatDeg float64) bool {
	mm, err := MeanMotionRevPerDay(line2)
	if err != nil || mm <= 0 {
		return false
	}
	periodHours := 24.0 / mm
	if periodHours >= 24.0 {
		// Effectively geostationary/geosynchronous; visibility depends on
		// longitude alignment, not this inclination test.
		return true
	}

	inc, err := InclinationDeg(line2)
	if err != nil {
		return false
	}
	if inc >= 90.0 {
		inc = 180.0 - inc
	}

	ecc, err := Eccentricity(line2)
	if err != nil {
		return false
	}

	periodSec := secondsPerDay / mm
	smaKm := math.Cbrt(earthMuKm3PerS2 * (periodSec / (2 * math.Pi)) * (periodSec / (2 * math.Pi)))
	apogeeKm := smaKm*(1.0+ecc) - earthRadiusKm

	horizonHalfAngle := math.Acos(earthRadiusKm / (apogeeKm + earthRadiusKm))
	reach := horizonHalfAngle + inc*math.Pi/180.0

	return reach > math.Abs(observerLatDeg*math.Pi/180.0)
}
