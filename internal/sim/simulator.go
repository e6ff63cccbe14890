package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/pendulab/internal/dynamo"
)

// DefaultStateLimit bounds the state norm before a run counts as diverged.
const DefaultStateLimit = 1e6

// Observer is notified after every grid point.
type Observer interface {
	OnSample(i int, t float64, x dynamo.State)
}

type Simulator struct {
	dyn        dynamo.System
	integrator dynamo.IntervalIntegrator
	observers  []Observer
	limit      float64
}

func New(dyn dynamo.System, integrator dynamo.IntervalIntegrator) *Simulator {
	return &Simulator{
		dyn:        dyn,
		integrator: integrator,
		observers:  make([]Observer, 0),
		limit:      DefaultStateLimit,
	}
}

// SetStateLimit sets the largest state norm a run may reach; beyond it
// Simulate fails with dynamo.ErrUnstable. A limit <= 0 disables the check.
func (s *Simulator) SetStateLimit(limit float64) { s.limit = limit }

func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// driven closes the system over a controller so the integrator sees the
// command at every internal stage.
type driven struct {
	dynamo.System
	ctrl dynamo.Controller
}

func (d driven) Derive(x dynamo.State, _ dynamo.Control, t float64) dynamo.State {
	return d.System.Derive(x, d.ctrl.Compute(x, t), t)
}

// sampled controllers carry one command per grid point.
type sampled interface {
	Len() int
}

// Simulate integrates from x0 across grid, which must be strictly ascending.
// A sampled controller such as control.InputSignal must match the grid
// sample for sample. Integration failures and divergence past the state
// limit are returned as *dynamo.SimulationError together with the samples
// computed so far.
func (s *Simulator) Simulate(ctx context.Context, grid []float64, x0 dynamo.State, ctrl dynamo.Controller) (*Result, error) {
	if err := s.validate(grid, x0, ctrl); err != nil {
		return nil, err
	}

	n := len(grid)
	result := &Result{
		Times:   make([]float64, 0, n),
		States:  make([]dynamo.State, 0, n),
		Outputs: make([][]float64, 0, n),
	}
	ham, hasEnergy := s.dyn.(dynamo.Hamiltonian)
	if hasEnergy {
		result.Energy = make([]float64, 0, n)
	}

	sys := driven{System: s.dyn, ctrl: ctrl}
	x := x0.Clone()
	dt := 0.0

	s.record(result, 0, grid[0], x, ham)
	for i := 1; i < n; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		var err error
		x, dt, err = s.integrator.Integrate(sys, x, nil, grid[i-1], grid[i], dt)
		if err != nil {
			return result, err
		}
		if s.limit > 0 && x.Norm() > s.limit {
			return result, &dynamo.SimulationError{Step: i, Time: grid[i], State: x, Wrapped: dynamo.ErrUnstable}
		}
		s.record(result, i, grid[i], x, ham)
	}

	if hasEnergy && len(result.Energy) > 1 {
		e0, e1 := result.Energy[0], result.Energy[len(result.Energy)-1]
		if e0 != 0 {
			result.EnergyDrift = math.Abs(e1-e0) / math.Abs(e0)
		}
	}

	return result, nil
}

func (s *Simulator) record(r *Result, i int, t float64, x dynamo.State, ham dynamo.Hamiltonian) {
	r.Times = append(r.Times, t)
	r.States = append(r.States, x.Clone())
	if obs, ok := s.dyn.(dynamo.Observable); ok {
		r.Outputs = append(r.Outputs, obs.Observe(x))
	} else {
		r.Outputs = append(r.Outputs, x.Clone())
	}
	if ham != nil {
		r.Energy = append(r.Energy, ham.Energy(x))
	}
	for _, o := range s.observers {
		o.OnSample(i, t, x)
	}
}

func (s *Simulator) validate(grid []float64, x0 dynamo.State, ctrl dynamo.Controller) error {
	if len(grid) == 0 {
		return fmt.Errorf("empty time grid")
	}
	for i := 1; i < len(grid); i++ {
		if !(grid[i] > grid[i-1]) {
			return fmt.Errorf("time grid not strictly ascending at index %d (%g after %g)", i, grid[i], grid[i-1])
		}
	}
	if len(x0) != s.dyn.StateDim() {
		return fmt.Errorf("initial state has %d components, system needs %d: %w", len(x0), s.dyn.StateDim(), dynamo.ErrDimensionMismatch)
	}
	if !x0.IsValid() {
		return fmt.Errorf("initial state: %w", dynamo.ErrInvalidState)
	}
	if ctrl == nil {
		return fmt.Errorf("nil controller")
	}
	if in, ok := ctrl.(sampled); ok && in.Len() != len(grid) {
		return fmt.Errorf("input signal has %d samples for %d grid points: %w", in.Len(), len(grid), dynamo.ErrDimensionMismatch)
	}
	return nil
}
