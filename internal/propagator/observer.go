package propagator

import (
	"fmt"
	"math"
	"time"

	"github.com/akhenakh/sgp4"

	"github.com/la1k/flyby/internal/flyerr"
)

// Satellite wraps a parsed TLE together with the raw lines needed for the
// classification helpers in elements.go (inclination, eccentricity, mean
// motion), which are read directly off the text rather than through the
// library's parsed struct, since the database's validity gate (internal/
// tledb) already operates on the raw lines and this keeps the two
// independent of the external library's field names.
type Satellite struct {
	Name  string
	Line1 string
	Line2 string
	tle   *sgp4.TLE
}

// Parse parses a three-line TLE record into a Satellite.
func Parse(name, line1, line2 string) (*Satellite, error) {
	tle, err := sgp4.ParseTLE(name + "\n" + line1 + "\n" + line2)
	if err != nil {
		return nil, fmt.Errorf("propagator: %w: %v", flyerr.ErrParse, err)
	}
	return &Satellite{Name: name, Line1: line1, Line2: line2, tle: tle}, nil
}

// Geostationary reports whether this satellite's mean motion is within
// libpredict's tolerance of one revolution per day.
func (s *Satellite) Geostationary() bool {
	return IsGeostationary(s.Line2)
}

// AosHappens reports whether this orbit can ever rise above the horizon
// for an observer at observerLatDeg.
func (s *Satellite) AosHappens(observerLatDeg float64) bool {
	return AosHappens(s.Line2, observerLatDeg)
}

// Decayed reports whether this orbit's perigee lies below Earth's
// surface, the signature of a TLE describing a satellite that has
// already re-entered.
func (s *Satellite) Decayed() bool {
	return Decayed(s.Line2)
}

// Observer is a ground station location used to compute look angles.
type Observer struct {
	LatDeg float64
	LonDeg float64
	AltM   float64
}

// Observation is the per-instant state of a satellite as seen by an
// Observer (spec.md §4.3).
type Observation struct {
	Time time.Time

	AzimuthDeg   float64
	ElevationDeg float64
	RangeKm      float64
	RangeRateKmS float64 // positive: receding: negative: approaching

	SubSatLatDeg float64
	SubSatLonDeg float64
	AltitudeKm   float64

	Illuminated bool // false when the satellite is in Earth's shadow
	Visible     bool // above horizon, sunlit, and observer's sky dark enough to see it
	PhaseFrac   float64
	OrbitNumber int64
}

// civilTwilightSunElevationDeg is the Sun elevation below which an
// observer's sky is considered dark enough for a visual satellite pass.
const civilTwilightSunElevationDeg = -6.0

// Observe computes the full Observation of sat from o at time t. The
// library is relied on only for the raw ECI state vector (sat.tle.State);
// everything past that — look angles, sub-satellite point, eclipse,
// phase — is this package's own derivation, grounded on the formulas
// original_source's libpredict dependency implements for the same
// purpose.
func (o Observer) Observe(sat *Satellite, t time.Time) (Observation, error) {
	state, err := sat.tle.State(t)
	if err != nil {
		return Observation{}, fmt.Errorf("propagator: %w: %v", flyerr.ErrTransport, err)
	}

	azDeg, elDeg, rangeKm, rangeRateKmS := lookAngles(o.LatDeg, o.LonDeg, o.AltM, state.PositionKm, state.VelocityKmS, t)
	subLat, subLon, altKm := ecefToGeodetic(rotateZ(state.PositionKm, gmstRad(t)))

	epoch, err := EpochTime(sat.Line1)
	if err != nil {
		epoch = t
	}

	lit := illuminated(state.PositionKm, t)
	_, sunElDeg := o.ObserveSun(t)

	return Observation{
		Time:         t,
		AzimuthDeg:   azDeg,
		ElevationDeg: elDeg,
		RangeKm:      rangeKm,
		RangeRateKmS: rangeRateKmS,
		SubSatLatDeg: subLat,
		SubSatLonDeg: subLon,
		AltitudeKm:   altKm,
		Illuminated:  lit,
		Visible:      elDeg >= 0 && lit && sunElDeg < civilTwilightSunElevationDeg,
		PhaseFrac:    orbitalPhase(sat.Line2, t, epoch),
		OrbitNumber:  revolutionsSinceEpoch(sat.Line2, t, epoch),
	}, nil
}

// ecefToGeodetic converts an ECEF position (km) to geodetic latitude,
// longitude (degrees) and altitude (km) via Bowring's iterative method.
func ecefToGeodetic(posECEF [3]float64) (latDeg, lonDeg, altKm float64) {
	x, y, z := posECEF[0], posECEF[1], posECEF[2]
	lon := math.Atan2(y, x)
	p := math.Hypot(x, y)
	e2 := earthFlat * (2 - earthFlat)

	lat := math.Atan2(z, p*(1-e2))
	var alt float64
	for i := 0; i < 5; i++ {
		sinLat := math.Sin(lat)
		n := earthRadiusKm / math.Sqrt(1-e2*sinLat*sinLat)
		alt = p/math.Cos(lat) - n
		lat = math.Atan2(z, p*(1-e2*n/(n+alt)))
	}

	return lat * 180.0 / math.Pi, lon * 180.0 / math.Pi, alt
}

// illuminated applies a simple cylindrical-shadow eclipse test: the
// satellite is in Earth's shadow when it lies on the night side of the
// terminator plane and its distance from the Earth-Sun axis is less than
// Earth's radius.
func illuminated(posECIKm [3]float64, t time.Time) bool {
	sun := approximateSunECIDirection(t)

	dot := posECIKm[0]*sun[0] + posECIKm[1]*sun[1] + posECIKm[2]*sun[2]
	if dot > 0 {
		// sunward side of Earth: always lit.
		return true
	}

	perp := sub(posECIKm, scale(sun, dot))
	return magnitude(perp) > earthRadiusKm
}

func scale(v [3]float64, s float64) [3]float64 {
	return [3]float64{v[0] * s, v[1] * s, v[2] * s}
}

// approximateSunECIDirection returns a unit vector toward the Sun in the
// ECI-equatorial frame, via the low-precision solar position model also
// used by Observer.ObserveSun (Meeus-style, a few arcminutes of error —
// more than sufficient for an eclipse boolean).
func approximateSunECIDirection(t time.Time) [3]float64 {
	dec, ra := approximateSunGeocentric(t)
	return directionECIFromRADec(dec, ra)
}

// orbitalPhase returns the satellite's position in its orbit as a
// fraction in [0, 1), derived from the elapsed time since the TLE epoch
// and its mean motion — 0 at the satellite's position at the TLE epoch,
// wrapping every revolution.
func orbitalPhase(line2 string, t, epoch time.Time) float64 {
	mm, err := MeanMotionRevPerDay(line2)
	if err != nil || mm <= 0 {
		return 0
	}
	days := t.Sub(epoch).Hours() / 24.0
	revs := days * mm
	frac := revs - math.Floor(revs)
	if frac < 0 {
		frac++
	}
	return frac
}

// revolutionsSinceEpoch returns the integer orbit number at time t,
// relative to the TLE epoch (not an absolute catalog revolution count,
// which would require the epoch revolution number from the TLE itself).
func revolutionsSinceEpoch(line2 string, t, epoch time.Time) int64 {
	mm, err := MeanMotionRevPerDay(line2)
	if err != nil || mm <= 0 {
		return 0
	}
	days := t.Sub(epoch).Hours() / 24.0
	return int64(math.Floor(days * mm))
}
