package move

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/openfluidics/dropctl/internal/device"
)

// DefaultTrailLength is the default number of trailing electrodes kept
// actuated while stepping a route.
const DefaultTrailLength = 1

// StepFunc is one actuate-and-settle sub-step of a route.
type StepFunc func(ctx context.Context) ([]device.FeedbackSample, error)

// StepWrapper decorates each sub-step of a route, typically to apply a
// per-step deadline. The wrapper must call step and return its result;
// returning a context error marks the step as timed out or cancelled.
type StepWrapper func(ctx context.Context, step StepFunc) ([]device.FeedbackSample, error)

// WithTimeout returns a StepWrapper applying a hard deadline to each
// sub-step.
func WithTimeout(d time.Duration) StepWrapper {
	return func(ctx context.Context, step StepFunc) ([]device.FeedbackSample, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return step(ctx)
	}
}

// passthroughWrapper runs the step with no decoration.
func passthroughWrapper(ctx context.Context, step StepFunc) ([]device.FeedbackSample, error) {
	return step(ctx)
}

// MoveOptions configures a MoveLiquid operation. The zero value selects the
// package defaults.
type MoveOptions struct {
	// TrailLength is the number of simultaneously actuated trailing
	// electrodes (>= 1). Zero selects DefaultTrailLength.
	TrailLength int

	// Steady parameterises the per-step steady-state predicate.
	Steady SteadyStateConfig

	// Wrapper decorates every sub-step; nil runs steps undecorated.
	Wrapper StepWrapper
}

func (o MoveOptions) withDefaults() MoveOptions {
	if o.TrailLength <= 0 {
		o.TrailLength = DefaultTrailLength
	}
	if o.Wrapper == nil {
		o.Wrapper = passthroughWrapper
	}
	return o
}

// StepResult records one channel actuation of a route and the feedback
// samples collected while waiting for it to settle.
type StepResult struct {
	// ActuationID uniquely identifies this actuation for downstream
	// analysis and serialisation.
	ActuationID string `json:"actuation_id"`

	// Channels is the actuated channel window.
	Channels []int `json:"channels"`

	// Samples holds the capacitance-updated samples received during the
	// actuation, in delivery order.
	Samples []device.FeedbackSample `json:"messages"`
}

// MoveLiquid moves liquid along route, one sliding window at a time.
//
// With trail length T, a window of width T+1 slides over the route. At each
// position the controller first actuates the full window and waits for
// steady state (droplet spans the overlap), then actuates only the trailing
// T channels and waits again (droplet settles forward, releasing the lead
// electrode). Each wait measures settle time from the moment that wait
// began, not from route start.
//
// Every sub-step runs inside opts.Wrapper. If a step times out or is
// cancelled, the whole route is aborted and a *RouteError identifies the
// failing window; no part of the route is retried.
//
// The returned results hold one StepResult per sub-step, in order.
func (c *Controller) MoveLiquid(ctx context.Context, route []int, opts MoveOptions) ([]StepResult, error) {
	opts = opts.withDefaults()

	width := opts.TrailLength + 1
	if len(route) < width {
		return nil, &RouteError{Route: route, Window: route, Err: ErrRouteTooShort}
	}

	var results []StepResult
	for _, win := range windows(route, width) {
		c.logInfo("waiting for steady state", "channels", win)
		samples, err := opts.Wrapper(ctx, func(ctx context.Context) ([]device.FeedbackSample, error) {
			return c.Actuate(ctx, win, opts.Steady.Evaluate)
		})
		if err != nil {
			return nil, routeFailure(route, win, err)
		}
		results = append(results, newStepResult(win, samples))

		trail := win[len(win)-opts.TrailLength:]
		c.logInfo("waiting for steady state", "channels", trail)
		samples, err = opts.Wrapper(ctx, func(ctx context.Context) ([]device.FeedbackSample, error) {
			return c.Actuate(ctx, trail, opts.Steady.Evaluate)
		})
		if err != nil {
			return nil, routeFailure(route, win, err)
		}
		results = append(results, newStepResult(trail, samples))
	}

	return results, nil
}

// routeFailure wraps a sub-step failure in a RouteError identifying the
// failing window. Timeouts, cancellations, and actuation mismatches are all
// route-fatal; the cause stays reachable through errors.Is/As.
func routeFailure(route, window []int, err error) error {
	var routeErr *RouteError
	if errors.As(err, &routeErr) {
		// Already route-annotated (nested moves); keep the inner window.
		return err
	}
	return &RouteError{Route: route, Window: window, Err: err}
}

func newStepResult(channels []int, samples []device.FeedbackSample) StepResult {
	window := make([]int, len(channels))
	copy(window, channels)
	return StepResult{
		ActuationID: uuid.NewString(),
		Channels:    window,
		Samples:     samples,
	}
}

// windows returns successive sliding windows of width n over seq. Each
// window is an independent copy.
func windows(seq []int, n int) [][]int {
	if n <= 0 || len(seq) < n {
		return nil
	}
	out := make([][]int, 0, len(seq)-n+1)
	for i := 0; i+n <= len(seq); i++ {
		win := make([]int, n)
		copy(win, seq[i:i+n])
		out = append(out, win)
	}
	return out
}
