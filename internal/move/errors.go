package move

import (
	"errors"
	"fmt"
)

// Domain errors for the move package.
var (
	// ErrActuationMismatch is returned when the device confirms a channel
	// set that violates the requested-set policy. Match with errors.Is;
	// the concrete *MismatchError carries both sets.
	ErrActuationMismatch = errors.New("move: actuated channels do not match request")

	// ErrRouteTooShort is returned when a route has fewer channels than
	// the actuation window requires.
	ErrRouteTooShort = errors.New("move: route shorter than actuation window")

	// ErrNoSamples is returned by predicate evaluation when called with an
	// empty sample list.
	ErrNoSamples = errors.New("move: no feedback samples")
)

// MismatchError reports an actuation confirmation that violates the
// validation policy: either the confirmed set differs from the request in
// strict mode, or the device confirmed a channel that was never requested.
type MismatchError struct {
	// Requested is the channel set the controller asked for.
	Requested []int

	// Actuated is the channel set the device confirmed.
	Actuated []int

	// Unrequested holds confirmed channels outside the requested set, if
	// any. A non-empty value indicates desynchronised device state and is
	// an error regardless of the allow-disabled policy.
	Unrequested []int
}

func (e *MismatchError) Error() string {
	if len(e.Unrequested) > 0 {
		return fmt.Sprintf("move: actuated channels %v include unrequested channels %v (requested %v)",
			e.Actuated, e.Unrequested, e.Requested)
	}
	return fmt.Sprintf("move: actuated channels %v do not match requested channels %v",
		e.Actuated, e.Requested)
}

// Is reports that a MismatchError matches ErrActuationMismatch.
func (e *MismatchError) Is(target error) bool {
	return target == ErrActuationMismatch
}

// RouteError reports a failed move along a route. It carries enough context
// (the full route and the failing window) for the caller to resume or
// replan externally.
type RouteError struct {
	// Route is the full planned route.
	Route []int

	// Window is the channel window whose step failed.
	Window []int

	// Err is the underlying cause: context.DeadlineExceeded,
	// context.Canceled, or an actuation mismatch.
	Err error
}

func (e *RouteError) Error() string {
	return fmt.Sprintf("move: route %v failed at window %v: %v", e.Route, e.Window, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is/errors.As.
func (e *RouteError) Unwrap() error {
	return e.Err
}
