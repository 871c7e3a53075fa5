package move

import (
	"context"
	"fmt"
	"time"

	"github.com/openfluidics/dropctl/internal/device"
)

// Reservoir load defaults.
const (
	// DefaultLoadThreshold is the default minimum median capacitance
	// (50 pF) for a reservoir load to count as complete.
	DefaultLoadThreshold = 50e-12

	// DefaultLoadDuration is the default settle window for the load
	// phase.
	DefaultLoadDuration = 250 * time.Millisecond

	// DefaultDetachDuration is the default settle window for the detach
	// phase. Detachment dynamics are physically slower than loading, so
	// the detach window is longer.
	DefaultDetachDuration = 2 * time.Second

	// loadThresholdScale raises the load-phase threshold above nominal so
	// enough liquid is pulled on before the edge electrode is released.
	loadThresholdScale = 1.1
)

// LoadOptions configures a reservoir load. The zero value selects the
// package defaults.
type LoadOptions struct {
	// Threshold is the nominal minimum median capacitance in Farads.
	Threshold float64

	// LoadDuration is the load-phase settle window.
	LoadDuration time.Duration

	// DetachDuration is the detach-phase settle window.
	DetachDuration time.Duration

	// StdErrorRatio overrides the steady-state noise tolerance for both
	// phases. Zero selects the package default.
	StdErrorRatio float64
}

func (o LoadOptions) withDefaults() LoadOptions {
	if o.Threshold == 0 {
		o.Threshold = DefaultLoadThreshold
	}
	if o.LoadDuration == 0 {
		o.LoadDuration = DefaultLoadDuration
	}
	if o.DetachDuration == 0 {
		o.DetachDuration = DefaultDetachDuration
	}
	return o
}

// Load pulls liquid from a reservoir onto the route in two phases:
//
//  1. Load: actuate all but the last channel and wait for steady state at a
//     scaled-up threshold with the shorter load settle window.
//  2. Detach: drop the original edge electrode (actuate all but the first
//     channel) and wait for steady state at the nominal threshold with the
//     longer detach settle window.
//
// channels is ordered from the reservoir edge electrode inward; it needs at
// least two channels. Only the detach-phase samples are returned.
func (c *Controller) Load(ctx context.Context, channels []int, opts LoadOptions) ([]device.FeedbackSample, error) {
	opts = opts.withDefaults()

	if len(channels) < 2 {
		return nil, fmt.Errorf("move: load requires at least two channels, got %d", len(channels))
	}

	loadChannels := channels[:len(channels)-1]
	c.logInfo("loading reservoir", "channels", loadChannels)
	loadSteady := SteadyStateConfig{
		StdErrorRatio: opts.StdErrorRatio,
		MinDuration:   opts.LoadDuration,
		Threshold:     loadThresholdScale * opts.Threshold,
	}
	if _, err := c.Actuate(ctx, loadChannels, loadSteady.Evaluate); err != nil {
		return nil, fmt.Errorf("loading reservoir on %v: %w", loadChannels, err)
	}

	detachChannels := channels[1:]
	c.logInfo("detaching from edge electrode",
		"edge", channels[0],
		"channels", detachChannels)
	detachSteady := SteadyStateConfig{
		StdErrorRatio: opts.StdErrorRatio,
		MinDuration:   opts.DetachDuration,
		Threshold:     opts.Threshold,
	}
	samples, err := c.Actuate(ctx, detachChannels, detachSteady.Evaluate)
	if err != nil {
		return nil, fmt.Errorf("detaching from edge electrode %d: %w", channels[0], err)
	}
	return samples, nil
}
