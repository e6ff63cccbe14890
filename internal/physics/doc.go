// Package physics holds the nonlinear model of the cable-suspended pendulum
// on a driven cart.
//
// [CableCart] implements [dynamo.System], [dynamo.Observable] and
// [dynamo.Hamiltonian]. The free functions
// [Derivative] and [Observe] evaluate the same equations for an explicit
// [Params] value and are safe for concurrent use.
//
// # States and outputs
//
//	x = (L, X, l, phi, varphi, x)   cable rate, cart rate, cable, angle rate, angle, cart
//	u = (v_x, v_l)                  raw commands, scaled by k_vx and k_vl
//	y = (x, l, k_phi * deg(varphi))
//
// Commands are zeroed while the corresponding axis is outside its travel
// limits; this is expected during recordings and is not an error.
package physics
