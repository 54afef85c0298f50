package predict

import (
	"time"

	"github.com/la1k/flyby/internal/propagator"
)

const minutesPerDay = 1440

// DayIllumination reports how much of one UTC day a satellite spent
// sunlit.
type DayIllumination struct {
	Date            time.Time // midnight UTC
	SunlitMinutes   int
	EclipsedMinutes int
	SunlitPercent   float64
}

// SolarIllumination samples sat once per minute across days consecutive
// days starting at d0 (floored to midnight UTC), counting eclipsed
// minutes per day.
func SolarIllumination(o propagator.Observer, sat *propagator.Satellite, d0 time.Time, days int) ([]DayIllumination, error) {
	results := make([]DayIllumination, 0, days)
	start := time.Date(d0.Year(), d0.Month(), d0.Day(), 0, 0, 0, 0, time.UTC)

	for d := 0; d < days; d++ {
		dayStart := start.AddDate(0, 0, d)
		eclipsed := 0
		for m := 0; m < minutesPerDay; m++ {
			obs, err := o.Observe(sat, dayStart.Add(time.Duration(m)*time.Minute))
			if err != nil {
				return nil, err
			}
			if !obs.Illuminated {
				eclipsed++
			}
		}
		sunlit := minutesPerDay - eclipsed
		results = append(results, DayIllumination{
			Date:            dayStart,
			SunlitMinutes:   sunlit,
			EclipsedMinutes: eclipsed,
			SunlitPercent:   100.0 * float64(sunlit) / float64(minutesPerDay),
		})
	}

	return results, nil
}
