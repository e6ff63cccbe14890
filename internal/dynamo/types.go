package dynamo

import (
	"math"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

type Control []float64

// System is an ODE right-hand side dX/dt = f(X, u, t).
type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

// Observable systems map a state to a measurable output vector.
type Observable interface {
	Observe(x State) []float64
	OutputDim() int
}

// Controller supplies the input vector applied at time t.
type Controller interface {
	Compute(x State, t float64) Control
}

type Hamiltonian interface {
	Energy(x State) float64
}

// IntervalIntegrator advances a state from t0 to exactly t1. dt is the
// suggested first step; the returned float is the suggestion for the next call.
type IntervalIntegrator interface {
	Integrate(dyn System, x State, u Control, t0, t1, dt float64) (State, float64, error)
}
