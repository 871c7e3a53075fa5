package move

import (
	"math"
	"sort"
	"time"

	"github.com/openfluidics/dropctl/internal/device"
)

// Steady-state defaults, matching the device's characterised settling
// behaviour.
const (
	// DefaultStdErrorRatio is the default noise tolerance: steady state
	// requires std/median below this ratio over the settle window.
	DefaultStdErrorRatio = 0.02

	// DefaultMinDuration is the default minimum settle window.
	DefaultMinDuration = 300 * time.Millisecond

	// DefaultSteadyThreshold is the default minimum median capacitance
	// (10 pF) for a droplet to count as present on the actuated window.
	DefaultSteadyThreshold = 10e-12

	// maxWindowSamples bounds the trailing sample window considered by
	// the detector. Evaluation is O(window) per sample; the feedback rate
	// is capped by the reporting interval, so this stays cheap.
	maxWindowSamples = 100
)

// SteadyStateConfig parameterises the capacitance steady-state predicate.
//
// The predicate is pure: all state lives in this value and in the sample
// list passed to Evaluate, so the same configuration can be reused across
// steps without hidden coupling.
type SteadyStateConfig struct {
	// StdErrorRatio is the maximum ratio of standard deviation to median
	// over the settle window. Steady state requires a strictly smaller
	// ratio. Zero selects DefaultStdErrorRatio.
	StdErrorRatio float64

	// MinDuration is the minimum elapsed device time, and the width of
	// the settle window, before steady state can be declared. Zero
	// selects DefaultMinDuration.
	MinDuration time.Duration

	// Threshold is the minimum median capacitance in Farads over the
	// settle window. Zero selects DefaultSteadyThreshold.
	Threshold float64
}

// withDefaults fills zero fields with package defaults.
func (c SteadyStateConfig) withDefaults() SteadyStateConfig {
	if c.StdErrorRatio == 0 {
		c.StdErrorRatio = DefaultStdErrorRatio
	}
	if c.MinDuration == 0 {
		c.MinDuration = DefaultMinDuration
	}
	if c.Threshold == 0 {
		c.Threshold = DefaultSteadyThreshold
	}
	return c
}

// Evaluate reports whether the capacitance in samples has stabilised.
//
// Only the most recent maxWindowSamples samples are considered. Timestamps
// are taken relative to the first considered sample (wrap-safe on the
// 32-bit device counter). The sequence is steady when:
//
//   - the considered samples span at least MinDuration of device time, and
//   - over the sub-window covering the final MinDuration, the sample
//     standard deviation divided by the median is strictly below
//     StdErrorRatio, and the median is at least Threshold.
//
// A zero median makes the noise ratio undefined and is treated as not
// steady. Evaluate satisfies StopFunc.
func (c SteadyStateConfig) Evaluate(samples []device.FeedbackSample) (bool, error) {
	c = c.withDefaults()

	if len(samples) == 0 {
		return false, ErrNoSamples
	}
	if len(samples) > maxWindowSamples {
		samples = samples[len(samples)-maxWindowSamples:]
	}

	times := relativeSeconds(samples)
	elapsed := times[len(times)-1]
	if elapsed < c.MinDuration.Seconds() {
		return false, nil
	}

	// Restrict to the sub-window covering the final MinDuration.
	start := elapsed - c.MinDuration.Seconds()
	var window []float64
	for i, t := range times {
		if t >= start {
			window = append(window, samples[i].Capacitance)
		}
	}
	if len(window) < 2 {
		// Not enough samples in the settle window to estimate noise.
		return false, nil
	}

	med := median(window)
	if med == 0 {
		return false, nil
	}
	sd := sampleStdDev(window)

	return sd/med < c.StdErrorRatio && med >= c.Threshold, nil
}

// relativeSeconds converts device microsecond timestamps to seconds since
// the first sample. The device counter is 32-bit and wraps; uint32
// subtraction keeps deltas correct across a single wrap.
func relativeSeconds(samples []device.FeedbackSample) []float64 {
	origin := samples[0].TimeUS
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = float64(s.TimeUS-origin) * 1e-6
	}
	return out
}

// median returns the middle value of vs (mean of the two middle values for
// even lengths). vs is not modified.
func median(vs []float64) float64 {
	sorted := make([]float64, len(vs))
	copy(sorted, vs)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// sampleStdDev returns the sample standard deviation (n-1 denominator).
func sampleStdDev(vs []float64) float64 {
	n := float64(len(vs))
	var sum float64
	for _, v := range vs {
		sum += v
	}
	mean := sum / n

	var sq float64
	for _, v := range vs {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / (n - 1))
}
