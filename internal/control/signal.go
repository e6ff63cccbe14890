package control

import (
	"fmt"
	"sort"

	"github.com/san-kum/pendulab/internal/dynamo"
)

// InputSignal holds the raw cart-velocity and cable-rate commands sampled at
// the simulation grid. Between grid points the commands are linearly
// interpolated; outside the grid the end values are held.
type InputSignal struct {
	Times []float64
	Cart  []float64
	Cable []float64
}

func NewInputSignal(times, cart, cable []float64) (*InputSignal, error) {
	if len(times) == 0 {
		return nil, fmt.Errorf("input signal: empty time axis")
	}
	if len(cart) != len(times) || len(cable) != len(times) {
		return nil, fmt.Errorf("input signal: %d timestamps but %d cart and %d cable samples: %w",
			len(times), len(cart), len(cable), dynamo.ErrDimensionMismatch)
	}
	for i := 1; i < len(times); i++ {
		if times[i] <= times[i-1] {
			return nil, fmt.Errorf("input signal: time axis not strictly ascending at index %d", i)
		}
	}
	return &InputSignal{Times: times, Cart: cart, Cable: cable}, nil
}

func (s *InputSignal) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Times)
}

// At returns the command vector at time t.
func (s *InputSignal) At(t float64) dynamo.Control {
	return dynamo.Control{interp(s.Times, s.Cart, t), interp(s.Times, s.Cable, t)}
}

// Compute ignores the state: recorded inputs are open loop.
func (s *InputSignal) Compute(x dynamo.State, t float64) dynamo.Control {
	return s.At(t)
}

func interp(ts, vs []float64, t float64) float64 {
	n := len(ts)
	if t <= ts[0] {
		return vs[0]
	}
	if t >= ts[n-1] {
		return vs[n-1]
	}

	i := sort.SearchFloat64s(ts, t)
	if ts[i] == t {
		return vs[i]
	}
	t0, t1 := ts[i-1], ts[i]
	w := (t - t0) / (t1 - t0)
	return vs[i-1] + w*(vs[i]-vs[i-1])
}
