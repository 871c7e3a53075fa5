package move

// SeriesPoint is one sample of a flattened move result, keyed by the step
// window that produced it.
type SeriesPoint struct {
	// Step is the index of the sub-step within the move.
	Step int `json:"step"`

	// ActuationID identifies the actuation the sample belongs to.
	ActuationID string `json:"actuation_id"`

	// Channels is the channel window actuated during the sample.
	Channels []int `json:"channels"`

	// Time is seconds since the first sample of the whole series.
	Time float64 `json:"time_s"`

	// Capacitance is the measured capacitance in Farads.
	Capacitance float64 `json:"capacitance"`

	// SampleCount is the number of measurements averaged into the sample.
	SampleCount int `json:"n_samples"`

	// ActuationVoltage is the measured actuation voltage in volts.
	ActuationVoltage float64 `json:"actuation_voltage"`
}

// FlattenResults concatenates per-step sample sequences into a single
// time-indexed series. Device timestamps are re-based so the series starts
// at zero: the origin is the first sample of the first non-empty step, and
// relative times are computed with wrap-safe 32-bit subtraction.
//
// The flat form serialises directly and suits tabular analysis of a whole
// move (per-window capacitance traces over one shared time axis).
func FlattenResults(results []StepResult) []SeriesPoint {
	var points []SeriesPoint

	haveOrigin := false
	var origin uint32
	for i, step := range results {
		for _, sample := range step.Samples {
			if !haveOrigin {
				origin = sample.TimeUS
				haveOrigin = true
			}
			points = append(points, SeriesPoint{
				Step:             i,
				ActuationID:      step.ActuationID,
				Channels:         step.Channels,
				Time:             float64(sample.TimeUS-origin) * 1e-6,
				Capacitance:      sample.Capacitance,
				SampleCount:      sample.SampleCount,
				ActuationVoltage: sample.ActuationVoltage,
			})
		}
	}
	return points
}
