// Package dynamo provides core simulation primitives for dynamical systems.
//
// The package defines the fundamental interfaces and types shared by the
// model, the integrators and the trajectory simulator:
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Observable]: output readout y = h(X)
//   - [Controller]: input applied at time t
//   - [IntervalIntegrator]: advances a state across one grid interval
//
// # Errors
//
// Integration failures are reported as [*SimulationError] wrapping one of the
// sentinel errors ([ErrInvalidState], [ErrUnstable], [ErrStepTooSmall],
// [ErrMaxSteps]), so
// callers can use errors.Is to tell them apart from precondition failures.
//
// # Thread Safety
//
// The types here hold no shared mutable state. Integrators may keep scratch
// buffers and must not be shared between goroutines.
package dynamo
