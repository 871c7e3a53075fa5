package move

import (
	"context"

	"github.com/openfluidics/dropctl/internal/device"
)

// WaitOnCapacitance subscribes to the capacitance feedback stream and
// collects samples until stop reports completion. It returns every sample
// collected during the wait, not just the window the predicate examined.
//
// The subscription is released on every exit path. Samples are appended and
// evaluated one at a time in delivery order, so stop is never evaluated
// concurrently with itself.
//
// WaitOnCapacitance has no internal timeout; callers bound it through ctx.
func (c *Controller) WaitOnCapacitance(ctx context.Context, stop StopFunc) ([]device.FeedbackSample, error) {
	sub := c.proxy.Capacitance().Subscribe(0)
	defer sub.Close()

	var samples []device.FeedbackSample
	for {
		// Cancellation wins over buffered samples.
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case sample := <-sub.C:
			samples = append(samples, sample)

			done, err := stop(samples)
			if err != nil {
				// Transient predicate faults must not abort a
				// physical operation in progress.
				c.logDebug("stop predicate fault, continuing",
					"error", err,
					"samples", len(samples))
				continue
			}
			if done {
				return samples, nil
			}
		}
	}
}
