package move

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/openfluidics/dropctl/internal/device"
)

// moveSteady is a settle configuration that the test pump (constant
// 100 pF, 50 ms sample spacing) satisfies quickly.
var moveSteady = SteadyStateConfig{
	MinDuration: 300 * time.Millisecond,
	Threshold:   50e-12,
}

func TestMoveLiquidWindowSequence(t *testing.T) {
	proxy := newFakeProxy()
	ctrl := New(proxy)
	startPump(t, proxy, 100e-12)

	results, err := ctrl.MoveLiquid(context.Background(), []int{10, 20, 30}, MoveOptions{
		TrailLength: 1,
		Steady:      moveSteady,
	})
	if err != nil {
		t.Fatalf("MoveLiquid() error: %v", err)
	}

	// Two windows, two sub-steps each: overlap then settle-forward.
	want := [][]int{{10, 20}, {20}, {20, 30}, {30}}
	if len(results) != len(want) {
		t.Fatalf("MoveLiquid() returned %d sub-steps, want %d", len(results), len(want))
	}
	for i, step := range results {
		if !equalInts(step.Channels, want[i]) {
			t.Errorf("sub-step %d channels = %v, want %v", i, step.Channels, want[i])
		}
		if len(step.Samples) == 0 {
			t.Errorf("sub-step %d collected no samples", i)
		}
		if step.ActuationID == "" {
			t.Errorf("sub-step %d has no actuation ID", i)
		}
	}

	// The device must have been asked to actuate exactly the same windows.
	if got := proxy.actuationLog(); len(got) != len(want) {
		t.Errorf("device saw %d actuations, want %d", len(got), len(want))
	} else {
		for i := range want {
			if !equalInts(got[i], want[i]) {
				t.Errorf("actuation %d = %v, want %v", i, got[i], want[i])
			}
		}
	}
}

func TestMoveLiquidTrailLengthTwo(t *testing.T) {
	proxy := newFakeProxy()
	ctrl := New(proxy)
	startPump(t, proxy, 100e-12)

	results, err := ctrl.MoveLiquid(context.Background(), []int{1, 2, 3, 4}, MoveOptions{
		TrailLength: 2,
		Steady:      moveSteady,
	})
	if err != nil {
		t.Fatalf("MoveLiquid() error: %v", err)
	}

	want := [][]int{{1, 2, 3}, {2, 3}, {2, 3, 4}, {3, 4}}
	if len(results) != len(want) {
		t.Fatalf("MoveLiquid() returned %d sub-steps, want %d", len(results), len(want))
	}
	for i, step := range results {
		if !equalInts(step.Channels, want[i]) {
			t.Errorf("sub-step %d channels = %v, want %v", i, step.Channels, want[i])
		}
	}
}

func TestMoveLiquidRouteTooShort(t *testing.T) {
	ctrl := New(newFakeProxy())

	_, err := ctrl.MoveLiquid(context.Background(), []int{42}, MoveOptions{TrailLength: 1})
	if !errors.Is(err, ErrRouteTooShort) {
		t.Fatalf("MoveLiquid() error = %v, want ErrRouteTooShort", err)
	}
}

func TestMoveLiquidCancelledMidRoute(t *testing.T) {
	proxy := newFakeProxy()
	ctrl := New(proxy)
	startPump(t, proxy, 100e-12)

	route := []int{10, 20, 30}

	// Cancel on the third sub-step: the full-window actuation of (20,30).
	calls := 0
	wrapper := func(ctx context.Context, step StepFunc) ([]device.FeedbackSample, error) {
		calls++
		if calls == 3 {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			return step(cancelled)
		}
		return step(ctx)
	}

	_, err := ctrl.MoveLiquid(context.Background(), route, MoveOptions{
		TrailLength: 1,
		Steady:      moveSteady,
		Wrapper:     wrapper,
	})

	var routeErr *RouteError
	if !errors.As(err, &routeErr) {
		t.Fatalf("MoveLiquid() error = %v, want *RouteError", err)
	}
	if !equalInts(routeErr.Route, route) {
		t.Errorf("RouteError.Route = %v, want %v", routeErr.Route, route)
	}
	if !equalInts(routeErr.Window, []int{20, 30}) {
		t.Errorf("RouteError.Window = %v, want [20 30]", routeErr.Window)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("RouteError cause = %v, want context.Canceled", routeErr.Err)
	}
}

func TestMoveLiquidStepTimeout(t *testing.T) {
	proxy := newFakeProxy()
	ctrl := New(proxy)
	// Capacitance stays below threshold: steady state is never reached.
	startPump(t, proxy, 1e-12)

	route := []int{10, 20, 30}
	_, err := ctrl.MoveLiquid(context.Background(), route, MoveOptions{
		TrailLength: 1,
		Steady:      moveSteady,
		Wrapper:     WithTimeout(50 * time.Millisecond),
	})

	var routeErr *RouteError
	if !errors.As(err, &routeErr) {
		t.Fatalf("MoveLiquid() error = %v, want *RouteError", err)
	}
	if !equalInts(routeErr.Window, []int{10, 20}) {
		t.Errorf("RouteError.Window = %v, want [10 20]", routeErr.Window)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("RouteError cause = %v, want context.DeadlineExceeded", routeErr.Err)
	}
}

func TestMoveLiquidMismatchAbortsRoute(t *testing.T) {
	proxy := newFakeProxy()
	// The device reports a channel that was never requested.
	proxy.confirm = func(channels []int) []int {
		return append(append([]int{}, channels...), 99)
	}
	ctrl := New(proxy)
	startPump(t, proxy, 100e-12)

	_, err := ctrl.MoveLiquid(context.Background(), []int{10, 20, 30}, MoveOptions{
		TrailLength: 1,
		Steady:      moveSteady,
	})

	if !errors.Is(err, ErrActuationMismatch) {
		t.Fatalf("MoveLiquid() error = %v, want actuation mismatch", err)
	}
	var routeErr *RouteError
	if !errors.As(err, &routeErr) {
		t.Fatal("mismatch is not annotated with the failing route window")
	}
	if !equalInts(routeErr.Window, []int{10, 20}) {
		t.Errorf("RouteError.Window = %v, want [10 20]", routeErr.Window)
	}
}

func TestWindows(t *testing.T) {
	tests := []struct {
		name string
		seq  []int
		n    int
		want [][]int
	}{
		{name: "width two", seq: []int{1, 2, 3}, n: 2, want: [][]int{{1, 2}, {2, 3}}},
		{name: "width equals length", seq: []int{1, 2}, n: 2, want: [][]int{{1, 2}}},
		{name: "too short", seq: []int{1}, n: 2, want: nil},
		{name: "zero width", seq: []int{1, 2}, n: 0, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := windows(tt.seq, tt.n)
			if len(got) != len(tt.want) {
				t.Fatalf("windows(%v, %d) returned %d windows, want %d", tt.seq, tt.n, len(got), len(tt.want))
			}
			for i := range got {
				if !equalInts(got[i], tt.want[i]) {
					t.Errorf("window %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
