package move

import (
	"context"
	"fmt"
	"time"
)

// Gather defaults.
const (
	// DefaultUpdateInterval is the capacitance feedback reporting
	// interval applied for the duration of a gather operation.
	DefaultUpdateInterval = 25 * time.Millisecond

	// DefaultStepTimeout is the per-step deadline applied when
	// GatherOptions supplies no wrapper.
	DefaultStepTimeout = 4 * time.Second

	// restoreTimeout bounds the interval-restore command issued on the
	// way out of a gather, including after cancellation.
	restoreTimeout = 5 * time.Second
)

// PathFinder computes routes over the electrode connectivity graph. It is
// an injected capability: the controller core carries no dependency on a
// specific graph implementation.
type PathFinder interface {
	// ShortestPath returns the channels along a shortest route from
	// source to target, inclusive of both endpoints.
	ShortestPath(source, target int) ([]int, error)
}

// GatherOptions configures a Gather operation. The zero value selects the
// package defaults.
type GatherOptions struct {
	// Move configures each per-source route traversal. A nil Move.Wrapper
	// gets a DefaultStepTimeout deadline per sub-step.
	Move MoveOptions

	// UpdateInterval is the device-wide capacitance reporting interval
	// held for the whole operation. Zero selects DefaultUpdateInterval.
	UpdateInterval time.Duration
}

// Gather sequentially moves liquid from each source to the shared target.
//
// The capacitance reporting interval is set once for the whole operation
// and restored to its previous value on every exit path, including failure
// and cancellation. Sources are processed strictly in order; the first
// route failure propagates immediately and aborts the remaining sources.
func (c *Controller) Gather(ctx context.Context, paths PathFinder, sources []int, target int, opts GatherOptions) error {
	if paths == nil {
		return fmt.Errorf("move: gather requires a path finder")
	}
	if opts.UpdateInterval <= 0 {
		opts.UpdateInterval = DefaultUpdateInterval
	}
	if opts.Move.Wrapper == nil {
		opts.Move.Wrapper = WithTimeout(DefaultStepTimeout)
	}

	prev, err := c.proxy.SetCapacitanceUpdateInterval(ctx, int(opts.UpdateInterval.Milliseconds()))
	if err != nil {
		return fmt.Errorf("setting capacitance update interval: %w", err)
	}
	defer func() {
		// ctx may already be cancelled; the restore still has to reach
		// the device, so it gets its own deadline.
		restoreCtx, cancel := context.WithTimeout(context.Background(), restoreTimeout)
		defer cancel()
		if _, restoreErr := c.proxy.SetCapacitanceUpdateInterval(restoreCtx, prev); restoreErr != nil {
			c.logError("restoring capacitance update interval",
				"interval_ms", prev,
				"error", restoreErr)
		}
	}()

	for _, source := range sources {
		route, err := paths.ShortestPath(source, target)
		if err != nil {
			return fmt.Errorf("routing source %d to target %d: %w", source, target, err)
		}
		c.logInfo("gathering liquid",
			"source", source,
			"target", target,
			"route", route)
		if _, err := c.MoveLiquid(ctx, route, opts.Move); err != nil {
			return err
		}
	}
	return nil
}
