// Package singletrack implements Flyby's single-track controller
// (spec.md §4.8): the per-tick logic that drives a rotator and a pair of
// rigs (uplink/downlink) for one actively-tracked satellite, cycling
// through its transponders and Doppler-correcting their center
// frequencies. Grounded on original_source/src/singletrack.c's
// singletrack_handle_transponder_key/singletrack_update_link_information,
// replacing its ncurses key handling with plain setter methods.
package singletrack

import (
	"fmt"
	"math"

	"github.com/la1k/flyby/internal/hamlib"
	"github.com/la1k/flyby/internal/propagator"
	"github.com/la1k/flyby/internal/transponderdb"
)

// Frequency increment sizes (spec.md §4.8: ±1 kHz / ±100 Hz), in MHz.
const (
	StepKHz       = 0.001
	StepHundredHz = 0.0001
)

// Controller holds one single-track session's state.
type Controller struct {
	Observer           propagator.Observer
	Satellite          *propagator.Satellite
	Transponders       []transponderdb.Transponder
	AttitudeLatDeg     float64
	AttitudeLonDeg     float64
	SquintEnabled      bool
	TrackingHorizonDeg float64

	Rotator     *hamlib.RotatorClient
	UplinkRig   *hamlib.RigClient
	DownlinkRig *hamlib.RigClient

	currentIndex int
	polarity     int

	UplinkCenterMHz   float64
	DownlinkCenterMHz float64

	UplinkUpdate   bool
	DownlinkUpdate bool
	ReadFreq       bool
}

// NewController creates a controller over the satellite's first defined
// transponder.
func NewController(observer propagator.Observer, sat *propagator.Satellite, entry transponderdb.Entry, trackingHorizonDeg float64, rotator *hamlib.RotatorClient, uplinkRig, downlinkRig *hamlib.RigClient) (*Controller, error) {
	if len(entry.Transponders) == 0 {
		return nil, fmt.Errorf("singletrack: satellite has no transponders defined")
	}

	c := &Controller{
		Observer:           observer,
		Satellite:          sat,
		Transponders:       entry.Transponders,
		AttitudeLatDeg:     entry.AttitudeLatitude * 180.0 / math.Pi,
		AttitudeLonDeg:     entry.AttitudeLongitude * 180.0 / math.Pi,
		SquintEnabled:      entry.SquintEnabled,
		TrackingHorizonDeg: trackingHorizonDeg,
		Rotator:            rotator,
		UplinkRig:          uplinkRig,
		DownlinkRig:        downlinkRig,
	}
	c.selectTransponder(0)
	return c, nil
}

// CurrentTransponderIndex returns the index of the transponder currently
// selected (cycled via CycleTransponder).
func (c *Controller) CurrentTransponderIndex() int { return c.currentIndex }

// Polarity returns the sign of (downlink_end - downlink_start) for the
// currently selected transponder (spec.md §4.8).
func (c *Controller) Polarity() int { return c.polarity }

func (c *Controller) selectTransponder(i int) {
	t := c.Transponders[i]
	c.currentIndex = i
	c.DownlinkCenterMHz = 0.5 * (t.DownlinkStart + t.DownlinkEnd)
	c.UplinkCenterMHz = 0.5 * (t.UplinkStart + t.UplinkEnd)
	c.polarity = polarityOf(t)
}

func polarityOf(t transponderdb.Transponder) int {
	switch {
	case t.DownlinkEnd > t.DownlinkStart:
		return 1
	case t.DownlinkEnd < t.DownlinkStart:
		return -1
	default:
		return 0
	}
}

// CycleTransponder advances to the next transponder, wrapping around.
func (c *Controller) CycleTransponder() {
	c.selectTransponder((c.currentIndex + 1) % len(c.Transponders))
}

// AdjustFrequency applies |polarity|*deltaMHz to the uplink center, and
// polarity*deltaMHz to the downlink center. Once the uplink center runs
// outside the uplink band, both centers wrap to the opposite band edge
// (spec.md §4.8 polarity rule).
func (c *Controller) AdjustFrequency(deltaMHz float64) {
	t := c.Transponders[c.currentIndex]
	absPolarity := c.polarity
	if absPolarity < 0 {
		absPolarity = -absPolarity
	}

	c.UplinkCenterMHz += deltaMHz * float64(absPolarity)
	c.DownlinkCenterMHz += deltaMHz * float64(c.polarity)

	if c.UplinkCenterMHz < t.UplinkStart {
		c.UplinkCenterMHz = t.UplinkEnd
		c.DownlinkCenterMHz = t.DownlinkEnd
	}
	if c.UplinkCenterMHz > t.UplinkEnd {
		c.UplinkCenterMHz = t.UplinkStart
		c.DownlinkCenterMHz = t.DownlinkStart
	}
}

// Tick runs one controller cycle against obs (spec.md §4.8 steps 1-4):
// optional reverse-Doppler frequency reads, Doppler-shifted frequency
// sends to the rigs and rotator tracking command, and the link-budget
// figures for display.
func (c *Controller) Tick(obs propagator.Observation) LinkStatus {
	if c.ReadFreq {
		c.readFreqFromRigs(obs.RangeRateKmS)
	}

	shiftedDownlink := dopplerShiftedMHz(c.DownlinkCenterMHz, obs.RangeRateKmS, false)
	shiftedUplink := dopplerShiftedMHz(c.UplinkCenterMHz, obs.RangeRateKmS, true)

	if obs.ElevationDeg >= c.TrackingHorizonDeg {
		if c.DownlinkRig != nil && c.DownlinkUpdate && c.DownlinkCenterMHz != 0 {
			_ = c.DownlinkRig.SetFrequencyMHz(shiftedDownlink)
		}
		if c.UplinkRig != nil && c.UplinkUpdate && c.UplinkCenterMHz != 0 {
			_ = c.UplinkRig.SetFrequencyMHz(shiftedUplink)
		}
	}
	if c.Rotator != nil {
		_ = c.Rotator.Track(obs.AzimuthDeg, obs.ElevationDeg)
	}

	status := LinkStatus{
		InRange:            obs.ElevationDeg >= 0,
		Status:             rangeRateStatus(obs.RangeRateKmS),
		DelayMS:            oneWayDelayMS(obs.RangeKm),
		DownlinkDopplerMHz: shiftedDownlink,
		UplinkDopplerMHz:   shiftedUplink,
		DownlinkLossDB:     pathLossDB(c.DownlinkCenterMHz, obs.RangeKm),
		UplinkLossDB:       pathLossDB(c.UplinkCenterMHz, obs.RangeKm),
	}
	if c.UplinkCenterMHz != 0 && c.DownlinkCenterMHz != 0 {
		status.EchoMS = 2.0 * status.DelayMS
	}
	if c.SquintEnabled {
		status.HasSquint = true
		status.SquintDeg = squintAngleDeg(obs.SubSatLatDeg, obs.SubSatLonDeg, c.AttitudeLatDeg, c.AttitudeLonDeg)
	}

	return status
}

func (c *Controller) readFreqFromRigs(rangeRateKmS float64) {
	if c.DownlinkRig != nil && c.DownlinkRig.State() == hamlib.Connected {
		if f, err := c.DownlinkRig.ReadFrequencyMHz(); err == nil {
			c.DownlinkCenterMHz = inverseDopplerMHz(f, rangeRateKmS, false)
		}
	}
	if c.UplinkRig != nil && c.UplinkRig.State() == hamlib.Connected {
		if f, err := c.UplinkRig.ReadFrequencyMHz(); err == nil {
			c.UplinkCenterMHz = inverseDopplerMHz(f, rangeRateKmS, true)
		}
	}
}
