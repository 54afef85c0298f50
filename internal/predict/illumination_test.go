package predict

import (
	"testing"
	"time"

	"github.com/la1k/flyby/internal/propagator"
)

func TestSolarIlluminationWithinBounds(t *testing.T) {
	sat := mustParse(t, "ISS", issLine1, issLine2)
	o := propagator.Observer{LatDeg: 63.422, LonDeg: 10.39, AltM: 100}

	epoch, _ := propagator.EpochTime(issLine1)
	days, err := SolarIllumination(o, sat, epoch, 2)
	if err != nil {
		t.Fatalf("SolarIllumination: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("len(days) = %d, want 2", len(days))
	}

	for _, d := range days {
		if d.SunlitMinutes+d.EclipsedMinutes != minutesPerDay {
			t.Fatalf("sunlit+eclipsed minutes = %d, want %d", d.SunlitMinutes+d.EclipsedMinutes, minutesPerDay)
		}
		if d.SunlitPercent < 0 || d.SunlitPercent > 100 {
			t.Fatalf("sunlit percent out of range: %v", d.SunlitPercent)
		}
		if d.Date.Hour() != 0 || d.Date.Minute() != 0 {
			t.Fatalf("day start %v is not floored to midnight", d.Date)
		}
	}

	if !days[1].Date.Equal(days[0].Date.AddDate(0, 0, 1)) {
		t.Fatalf("day 2 (%v) is not exactly one day after day 1 (%v)", days[1].Date, days[0].Date)
	}
}

func TestSolarIlluminationGeostationaryRarelyFullyEclipsed(t *testing.T) {
	// A geostationary orbit is eclipsed only around its own equinox
	// seasons for a short window per day; most days should be fully or
	// almost-fully sunlit, never near-zero percent.
	sat := mustParse(t, "GEOSAT", geoLine1, geoLine2)
	o := propagator.Observer{LatDeg: 0, LonDeg: 100, AltM: 0}

	days, err := SolarIllumination(o, sat, time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC), 1)
	if err != nil {
		t.Fatalf("SolarIllumination: %v", err)
	}
	if days[0].SunlitPercent < 50 {
		t.Fatalf("geostationary satellite in July sunlit percent = %v, want a majority of the day lit", days[0].SunlitPercent)
	}
}
