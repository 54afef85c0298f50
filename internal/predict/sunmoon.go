package predict

import (
	"math"
	"time"

	"github.com/la1k/flyby/internal/propagator"
)

// Body names which astronomical body a SunMoonPass tracks.
type Body int

const (
	Sun Body = iota
	Moon
)

func (b Body) observe(o propagator.Observer, t time.Time) (azDeg, elDeg float64) {
	if b == Moon {
		return o.ObserveMoon(t)
	}
	return o.ObserveSun(t)
}

// SunMoonRow is one sample of a Sun or Moon pass.
type SunMoonRow struct {
	Time         time.Time
	ElevationDeg float64
	AzimuthDeg   float64
}

// SunMoonPass is one rise-to-set pass of the Sun or Moon, same shape as a
// satellite Schedule but without the satellite-specific fields (phase,
// sub-satellite point, orbit number) that don't apply to a body with no
// orbital elements.
type SunMoonPass struct {
	Rise, Set time.Time
	Rows      []SunMoonRow
}

const (
	horizonThresholdDeg = 0.03
	riseReductionFactor = 0.004
	passStepDayFactor   = 0.04
	setStepDayFactor    = 0.004
)

// NextSunMoonPass finds the next rise-to-set pass of body starting the
// search at t0, using the two-step refinement original_source's
// sun_moon_pass_display_schedule implements: first a coarse linear sweep
// toward the horizon (Δt = −reductionFactor·el_deg days per step) until
// |el| < horizonThresholdDeg, then the same stepping used to sample the
// rest of the pass.
func NextSunMoonPass(o propagator.Observer, body Body, t0 time.Time) (SunMoonPass, error) {
	rise, err := findRise(o, body, t0)
	if err != nil {
		return SunMoonPass{}, err
	}

	rows, lastEl, lastT, err := sampleRisingPass(o, body, rise)
	if err != nil {
		return SunMoonPass{}, err
	}

	setRows, set, err := sampleSettingTail(o, body, lastT, lastEl)
	if err != nil {
		return SunMoonPass{}, err
	}
	rows = append(rows, setRows...)

	return SunMoonPass{Rise: rise, Set: set, Rows: rows}, nil
}

// findRise performs the coarse horizon-convergence sweep: while the body
// is not within horizonThresholdDeg of the horizon, nudge time by an
// amount proportional to its current elevation.
func findRise(o propagator.Observer, body Body, t0 time.Time) (time.Time, error) {
	t := t0
	for i := 0; i < 100000; i++ {
		_, elDeg := body.observe(o, t)
		if math.Abs(elDeg) < horizonThresholdDeg {
			return t, nil
		}
		deltaDays := -riseReductionFactor * elDeg
		t = t.Add(time.Duration(deltaDays * 86400.0 * float64(time.Second)))
	}
	return time.Time{}, ErrNotPredictable
}

// sampleRisingPass walks forward from rise while elevation stays above 3
// degrees (the original's loop condition for the "still clearly up" part
// of the pass), returning the accumulated rows plus the last sample so the
// caller can hand off into the setting-tail walk.
func sampleRisingPass(o propagator.Observer, body Body, rise time.Time) ([]SunMoonRow, float64, time.Time, error) {
	var rows []SunMoonRow
	t := rise

	for {
		azDeg, elDeg := body.observe(o, t)
		rows = append(rows, SunMoonRow{Time: t, ElevationDeg: elDeg, AzimuthDeg: azDeg})

		if elDeg <= 3.0 {
			return rows, elDeg, t, nil
		}

		deltaDays := passStepDayFactor * math.Cos((elDeg+0.5)*math.Pi/180.0)
		t = t.Add(time.Duration(deltaDays * 86400.0 * float64(time.Second)))
	}
}

// sampleSettingTail continues sampling until elevation reaches 0, using
// the original's gentler Δt = setStepDayFactor·sin((el+0.5)°) stepping for
// the end of the pass, then reports the final (set) time. (The original's
// own version of this loop resets its clock back to the start of this
// tail on every iteration of an outer retry loop, which only terminates
// because repeated floating-point rounding eventually lands exactly on
// elevation 0; that retry shell adds nothing but a latent hang; a single
// forward walk to the crossing is the behavior it was going for.)
func sampleSettingTail(o propagator.Observer, body Body, lastT time.Time, lastEl float64) ([]SunMoonRow, time.Time, error) {
	var rows []SunMoonRow
	t := lastT
	el := lastEl

	for i := 0; i < 100000 && el > 0; i++ {
		deltaDays := setStepDayFactor * math.Sin((el+0.5)*math.Pi/180.0)
		t = t.Add(time.Duration(deltaDays * 86400.0 * float64(time.Second)))

		azDeg, elDeg := body.observe(o, t)
		el = elDeg
		rows = append(rows, SunMoonRow{Time: t, ElevationDeg: el, AzimuthDeg: azDeg})
	}

	return rows, t, nil
}
