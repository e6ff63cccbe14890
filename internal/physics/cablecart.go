package physics

import (
	"math"

	"github.com/san-kum/pendulab/internal/dynamo"
)

// State layout of the cable cart.
const (
	IdxCableRate = iota // L, rate of the controlled cable length
	IdxCartRate         // X, cart velocity
	IdxCable            // l, controlled cable length
	IdxAngleRate        // phi, pendulum angular rate
	IdxAngle            // varphi, pendulum angle (rad)
	IdxCart             // x, cart position

	NumStates = 6
)

// Input layout: raw velocity command and raw cable-rate command.
const (
	InCart = iota
	InCable

	NumInputs = 2
)

// Output layout of Observe.
const (
	OutCart = iota
	OutCable
	OutAngle

	NumOutputs = 3
)

var OutputNames = []string{"x", "l", "varphi"}

// CableCart is a cart driven along x carrying a winch, with a bob suspended on
// a cable of length l + l_0 swinging at angle varphi. Both axes are velocity
// loops with stiffness k_x and k_l.
//
// The equations come from the Lagrangian
//
//	T = 1/2 (m_x+m_y) X^2
//	  + 1/2 m_y (L sin(varphi) - X + (l+l_0) phi cos(varphi))^2
//	  + 1/2 m_y (-L cos(varphi) + (l+l_0) phi sin(varphi))^2
//
// with generalised forces k_x (v_x - X), k_l (v_l - L) and
// -m_y g sin(varphi) (l+l_0) - c_varphi phi, solved for the accelerations.
type CableCart struct {
	Params Params
}

func NewCableCart(p Params) *CableCart {
	return &CableCart{Params: p}
}

func (c *CableCart) StateDim() int   { return NumStates }
func (c *CableCart) ControlDim() int { return NumInputs }
func (c *CableCart) OutputDim() int  { return NumOutputs }

func (c *CableCart) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return Derivative(t, x, u, c.Params)
}

func (c *CableCart) Observe(x dynamo.State) []float64 {
	return Observe(0, x, c.Params)
}

// Commands scales the raw inputs by the drive gains and applies the travel
// clamp: an axis outside its limits gets a zero command.
func Commands(x dynamo.State, u dynamo.Control, p Params) (vx, vl float64) {
	if len(u) > InCart {
		vx = p.KVX * u[InCart]
	}
	if len(u) > InCable {
		vl = p.KVL * u[InCable]
	}

	if pos := x[IdxCart]; pos < p.XMin || pos > p.XMax {
		vx = 0
	}
	if l := x[IdxCable]; l < p.LMin || l > p.LMax {
		vl = 0
	}
	return vx, vl
}

// Derivative evaluates the state derivative. It has no side effects; a
// degenerate parameter set (vanishing denominator) yields non-finite values
// which the integrators report as dynamo.ErrInvalidState.
func Derivative(t float64, x dynamo.State, u dynamo.Control, p Params) dynamo.State {
	vx, vl := Commands(x, u, p)

	L := x[IdxCableRate]
	X := x[IdxCartRate]
	l := x[IdxCable]
	phi := x[IdxAngleRate]
	sin, cos := math.Sincos(x[IdxAngle])

	mx, my, g := p.MX, p.MY, p.G
	ls := l + p.L0
	sin2, cos2 := sin*sin, cos*cos

	// Common factor of all denominators.
	k := my*sin2 + my*cos2 - mx - 2*my

	cable := p.KL * (L - vl)
	cart := p.KX * (X - vx)

	dL := (cable*ls*(mx-my*cos2+2*my) +
		cart*ls*my*sin +
		p.CVarphi*my*phi*sin*cos +
		g*ls*my*my*sin2*cos +
		ls*ls*my*phi*phi*k) / (ls * my * k)

	dX := (cable*ls*sin +
		cart*ls +
		p.CVarphi*phi*cos +
		g*ls*my*sin*cos) / (ls * k)

	dPhi := (cable*ls*my*sin*cos +
		cart*ls*my*cos -
		2*L*ls*my*phi*k +
		(p.CVarphi*phi+g*ls*my*sin)*(mx-my*sin2+2*my)) / (ls * ls * my * k)

	return dynamo.State{dL, dX, L, dPhi, phi, X}
}

// Observe returns (cart position, cable length, scaled angle in degrees).
func Observe(t float64, x dynamo.State, p Params) []float64 {
	return []float64{
		x[IdxCart],
		x[IdxCable],
		p.KPhi * x[IdxAngle] * 180 / math.Pi,
	}
}

// Energy is the kinetic energy T of the Lagrangian.
func (c *CableCart) Energy(x dynamo.State) float64 {
	p := c.Params
	L := x[IdxCableRate]
	X := x[IdxCartRate]
	ls := x[IdxCable] + p.L0
	phi := x[IdxAngleRate]
	sin, cos := math.Sincos(x[IdxAngle])

	horizontal := L*sin - X + ls*phi*cos
	vertical := -L*cos + ls*phi*sin
	return 0.5*(p.MX+p.MY)*X*X + 0.5*p.MY*(horizontal*horizontal+vertical*vertical)
}
