// Package control provides the input side of the cable cart: recorded
// command signals replayed on a time grid, and synthetic profiles for
// open-loop experiments.
//
//   - [InputSignal]: two command channels aligned with a time grid
//   - [Step], [Ramp], [Constant]: profiles sampled with [Sample]
//
// # Usage
//
//	grid := control.Linspace(0, 10, 1000)
//	cart := control.Sample(control.Step{At: 1, After: 0.1}, grid)
//	cable := control.Sample(control.Step{At: 1, After: -0.1}, grid)
//	in, err := control.NewInputSignal(grid, cart, cable)
//
// InputSignal implements [dynamo.Controller].
package control
