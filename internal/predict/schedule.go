package predict

import (
	"math"
	"time"

	"github.com/la1k/flyby/internal/propagator"
)

// Row is one sample of a satellite pass schedule.
type Row struct {
	Time         time.Time
	ElevationDeg float64
	AzimuthDeg   float64
	Phase256     int // orbit phase quantized to 0-255, as original printouts show it
	SubSatLatDeg float64
	SubSatLonDeg float64
	RangeKm      float64
	OrbitNumber  int64

	// Visibility is '+' when the satellite is visible to the observer,
	// '*' when sunlit but not visible (too low, or observer's sky too
	// bright), or ' ' when eclipsed.
	Visibility byte
}

// Schedule is one satellite pass, sampled from AOS to LOS.
type Schedule struct {
	AOS, LOS time.Time
	Rows     []Row
}

// Pass samples one full pass of sat starting at the next AOS at or after
// t0, following the exact step formula spec.md §4.4 requires:
//
//	Δt = cos((el·180/π − 1)·π/180) · √(altitude_km) / 25000   (days)
//
// which samples densely near the horizon and coarsely overhead. Stepping
// continues while elevation ≥ 0 or t ≤ LOS; once elevation first drops
// below 0 past max elevation, one extra row is emitted at the exact LOS
// time for cosmetic endpoint alignment.
func Pass(o propagator.Observer, sat *propagator.Satellite, t0 time.Time) (Schedule, Reason, error) {
	reason := Classify(sat, o.LatDeg)
	if reason != Predictable {
		return Schedule{}, reason, nil
	}

	aos, err := NextAOS(o, sat, t0)
	if err != nil {
		return Schedule{}, Predictable, err
	}
	los, err := NextLOS(o, sat, aos)
	if err != nil {
		return Schedule{}, Predictable, err
	}

	rows, err := sampleSchedule(o, sat, aos, los)
	if err != nil {
		return Schedule{}, Predictable, err
	}
	return Schedule{AOS: aos, LOS: los, Rows: rows}, Predictable, nil
}

func sampleSchedule(o propagator.Observer, sat *propagator.Satellite, aos, los time.Time) ([]Row, error) {
	var rows []Row
	curr := aos
	emittedLOSEndpoint := false

	for {
		obs, err := o.Observe(sat, curr)
		if err != nil {
			return nil, err
		}
		rows = append(rows, rowFromObservation(obs))

		if obs.ElevationDeg < 0 && !emittedLOSEndpoint {
			emittedLOSEndpoint = true
			losObs, err := o.Observe(sat, los)
			if err != nil {
				return nil, err
			}
			rows = append(rows, rowFromObservation(losObs))
			break
		}
		if obs.ElevationDeg >= 0 && curr.After(los) {
			break
		}

		deltaDays := math.Cos((obs.ElevationDeg-1.0)*math.Pi/180.0) * math.Sqrt(obs.AltitudeKm) / 25000.0
		curr = curr.Add(time.Duration(deltaDays * 86400.0 * float64(time.Second)))
	}

	return rows, nil
}

func rowFromObservation(obs propagator.Observation) Row {
	visibility := byte(' ')
	switch {
	case obs.Visible:
		visibility = '+'
	case obs.Illuminated:
		visibility = '*'
	}

	return Row{
		Time:         obs.Time,
		ElevationDeg: obs.ElevationDeg,
		AzimuthDeg:   obs.AzimuthDeg,
		Phase256:     int(math.Round(256.0 * obs.PhaseFrac)),
		SubSatLatDeg: obs.SubSatLatDeg,
		SubSatLonDeg: obs.SubSatLonDeg,
		RangeKm:      obs.RangeKm,
		OrbitNumber:  obs.OrbitNumber,
		Visibility:   visibility,
	}
}

// Visible reports whether a pass is worth surfacing in a visible-pass
// listing: at least 3 visible ('+') rows, or at least 2 visible rows
// together with at least 2 sunlit-but-not-visible ('*') rows.
func Visible(rows []Row) bool {
	var plus, asterisk int
	for _, r := range rows {
		switch r.Visibility {
		case '+':
			plus++
		case '*':
			asterisk++
		}
	}
	return plus >= 3 || (plus >= 2 && asterisk >= 2)
}
