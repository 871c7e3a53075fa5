package move

import (
	"math"
	"testing"
	"time"
)

func TestEvaluateNotEnoughHistory(t *testing.T) {
	cfg := SteadyStateConfig{MinDuration: 300 * time.Millisecond}

	tests := []struct {
		name  string
		times []float64
	}{
		{name: "single sample", times: []float64{0}},
		{name: "span below min duration", times: []float64{0, 0.1, 0.2}},
		{name: "span just below min duration", times: []float64{0, 0.15, 0.299}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := make([]float64, len(tt.times))
			for i := range values {
				values[i] = 100e-12
			}
			steady, err := cfg.Evaluate(samplesAt(0, tt.times, values))
			if err != nil {
				t.Fatalf("Evaluate() unexpected error: %v", err)
			}
			if steady {
				t.Errorf("Evaluate() = true for %v of history, want false", tt.times)
			}
		})
	}
}

func TestEvaluateConstantValueIsSteady(t *testing.T) {
	// A constant value at or above threshold spanning at least MinDuration
	// is steady for any positive noise ratio.
	times := []float64{0, 0.1, 0.2, 0.3, 0.4}
	values := []float64{100e-12, 100e-12, 100e-12, 100e-12, 100e-12}

	for _, ratio := range []float64{0.0001, 0.02, 0.5} {
		cfg := SteadyStateConfig{
			StdErrorRatio: ratio,
			MinDuration:   300 * time.Millisecond,
			Threshold:     100e-12,
		}
		steady, err := cfg.Evaluate(samplesAt(0, times, values))
		if err != nil {
			t.Fatalf("Evaluate() unexpected error: %v", err)
		}
		if !steady {
			t.Errorf("Evaluate() = false with ratio %g, want true", ratio)
		}
	}
}

func TestEvaluateBoundaryRatioIsNotSteady(t *testing.T) {
	// The noise comparison is a strict inequality: a window whose relative
	// standard deviation equals the configured ratio exactly is not steady.
	window := []float64{98e-12, 102e-12}
	ratio := sampleStdDev(window) / median(window)

	// First sample falls outside the settle window, leaving exactly the
	// two-value window above.
	times := []float64{0, 0.2, 0.5}
	values := []float64{100e-12, window[0], window[1]}

	cfg := SteadyStateConfig{
		StdErrorRatio: ratio,
		MinDuration:   300 * time.Millisecond,
		Threshold:     10e-12,
	}
	steady, err := cfg.Evaluate(samplesAt(0, times, values))
	if err != nil {
		t.Fatalf("Evaluate() unexpected error: %v", err)
	}
	if steady {
		t.Error("Evaluate() = true at exact ratio boundary, want false (strict inequality)")
	}
}

func TestEvaluateBelowThresholdIsNotSteady(t *testing.T) {
	times := []float64{0, 0.1, 0.2, 0.3, 0.4}
	values := []float64{5e-12, 5e-12, 5e-12, 5e-12, 5e-12}

	cfg := SteadyStateConfig{Threshold: 10e-12}
	steady, err := cfg.Evaluate(samplesAt(0, times, values))
	if err != nil {
		t.Fatalf("Evaluate() unexpected error: %v", err)
	}
	if steady {
		t.Error("Evaluate() = true below capacitance threshold, want false")
	}
}

func TestEvaluateZeroMedianIsNotSteady(t *testing.T) {
	// A zero median makes the noise ratio undefined.
	times := []float64{0, 0.2, 0.4}
	values := []float64{0, 0, 0}

	steady, err := SteadyStateConfig{}.Evaluate(samplesAt(0, times, values))
	if err != nil {
		t.Fatalf("Evaluate() unexpected error: %v", err)
	}
	if steady {
		t.Error("Evaluate() = true with zero median, want false")
	}
}

func TestEvaluateEmptySamples(t *testing.T) {
	if _, err := (SteadyStateConfig{}).Evaluate(nil); err == nil {
		t.Error("Evaluate(nil) expected error, got nil")
	}
}

func TestEvaluateTimestampWrap(t *testing.T) {
	// The device counter wraps at 32 bits; samples spanning the wrap must
	// still produce correct relative times.
	origin := uint32(math.MaxUint32 - 200_000) // 0.2 s before wrap
	times := []float64{0, 0.1, 0.2, 0.3, 0.4}  // wraps between 0.2 and 0.3
	values := []float64{100e-12, 100e-12, 100e-12, 100e-12, 100e-12}

	cfg := SteadyStateConfig{Threshold: 50e-12}
	steady, err := cfg.Evaluate(samplesAt(origin, times, values))
	if err != nil {
		t.Fatalf("Evaluate() unexpected error: %v", err)
	}
	if !steady {
		t.Error("Evaluate() = false across counter wrap, want true")
	}
}

func TestEvaluateUsesTrailingWindowOnly(t *testing.T) {
	// Wild values outside the final MinDuration must not affect the
	// verdict once the settle window itself is quiet.
	times := []float64{0, 0.1, 0.5, 0.6, 0.7, 0.8}
	values := []float64{500e-12, 1e-12, 100e-12, 100e-12, 100e-12, 100e-12}

	cfg := SteadyStateConfig{MinDuration: 300 * time.Millisecond, Threshold: 50e-12}
	steady, err := cfg.Evaluate(samplesAt(0, times, values))
	if err != nil {
		t.Fatalf("Evaluate() unexpected error: %v", err)
	}
	if !steady {
		t.Error("Evaluate() = false with noisy history outside settle window, want true")
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name string
		vs   []float64
		want float64
	}{
		{name: "odd length", vs: []float64{3, 1, 2}, want: 2},
		{name: "even length", vs: []float64{4, 1, 3, 2}, want: 2.5},
		{name: "single", vs: []float64{7}, want: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := median(tt.vs); got != tt.want {
				t.Errorf("median(%v) = %g, want %g", tt.vs, got, tt.want)
			}
		})
	}
}

func TestSampleStdDev(t *testing.T) {
	got := sampleStdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	want := math.Sqrt(32.0 / 7.0)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("sampleStdDev() = %g, want %g", got, want)
	}
}
