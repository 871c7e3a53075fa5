package move

import (
	"context"
	"fmt"
	"sort"

	"github.com/openfluidics/dropctl/internal/device"
)

// ActuateChannels requests actuation of exactly the given channels
// (replacing any previously actuated set) and waits for the device's
// asynchronous channels-updated confirmation.
//
// Validation of the confirmed set:
//
//   - allowDisabled false: the confirmed set must equal the requested set
//     exactly; any difference is an actuation mismatch.
//   - allowDisabled true: the confirmed set may be a proper subset of the
//     requested set (disabled channels are silently skipped by the device
//     and tolerated), but a confirmed channel that was never requested
//     still fails: the device actuating something unasked-for means its
//     channel state has desynchronised from ours.
//
// The confirmed channel list is returned as reported by the device.
func (c *Controller) ActuateChannels(ctx context.Context, channels []int, allowDisabled bool) ([]int, error) {
	// Subscribe before issuing the command so the confirmation for this
	// request cannot be missed.
	sub := c.proxy.ChannelsUpdated().Subscribe(0)
	defer sub.Close()

	if err := c.proxy.EnableEvent(ctx, device.EventChannelsUpdated); err != nil {
		return nil, fmt.Errorf("enabling channels-updated event: %w", err)
	}
	if err := c.proxy.SetActuatedChannels(ctx, channels, true); err != nil {
		return nil, fmt.Errorf("requesting actuation of %v: %w", channels, err)
	}

	var actuated []int
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case actuated = <-sub.C:
	}

	requested := channelSet(channels)
	confirmed := channelSet(actuated)

	if unrequested := missingFrom(confirmed, requested); len(unrequested) > 0 {
		return nil, &MismatchError{
			Requested:   channels,
			Actuated:    actuated,
			Unrequested: unrequested,
		}
	}
	if !allowDisabled {
		if missing := missingFrom(requested, confirmed); len(missing) > 0 {
			return nil, &MismatchError{Requested: channels, Actuated: actuated}
		}
	}

	c.logDebug("actuation confirmed", "requested", channels, "actuated", actuated)
	return actuated, nil
}

// Actuate actuates the given channels and then collects capacitance
// feedback until stop reports completion. Disabled channels are tolerated
// (allow-disabled policy).
func (c *Controller) Actuate(ctx context.Context, channels []int, stop StopFunc) ([]device.FeedbackSample, error) {
	if _, err := c.ActuateChannels(ctx, channels, true); err != nil {
		return nil, err
	}
	return c.WaitOnCapacitance(ctx, stop)
}

// channelSet converts a channel list to a set.
func channelSet(channels []int) map[int]struct{} {
	set := make(map[int]struct{}, len(channels))
	for _, ch := range channels {
		set[ch] = struct{}{}
	}
	return set
}

// missingFrom returns the channels of a that are absent from b, sorted.
func missingFrom(a, b map[int]struct{}) []int {
	var out []int
	for ch := range a {
		if _, ok := b[ch]; !ok {
			out = append(out, ch)
		}
	}
	sort.Ints(out)
	return out
}
