// Package move implements the liquid-movement automation core for a
// digital-microfluidics actuator array.
//
// The Controller drives a planned route of electrode channels, using live
// capacitance feedback from the device to decide when each actuation has
// reached steady state before advancing:
//
//	┌────────────┐  actuate   ┌──────────┐  events   ┌─────────┐
//	│ Controller │───────────►│  device  │──────────►│ signals │
//	│  (route)   │◄───────────│  Proxy   │           └─────────┘
//	└────────────┘  feedback  └──────────┘
//
// # Operations
//
//   - ActuateChannels: replace the actuated channel set and verify the
//     device's asynchronous confirmation against the request.
//   - WaitOnCapacitance: collect feedback samples until a stopping
//     predicate is satisfied.
//   - MoveLiquid: walk a droplet along a route with a trailing contact
//     window, waiting for capacitance steady state at every sub-step.
//   - Load: two-phase reservoir load/detach.
//   - Gather: route liquid from several sources to one shared target over
//     an injected connectivity path finder.
//
// # Concurrency
//
// The controller supports one operation in flight per device proxy.
// Feedback samples are processed in device-delivery order and the stopping
// predicate is evaluated once per new sample, never concurrently.
// Timeouts are composed by the caller, either through ctx or through a
// StepWrapper such as WithTimeout.
//
// # Failure model
//
// A failed route step aborts the whole route and surfaces a *RouteError
// carrying the full route, the failing channel window, and the cause
// (timeout, cancellation, or actuation mismatch). The controller never
// retries; retry policy belongs to the caller via the step wrapper.
package move
