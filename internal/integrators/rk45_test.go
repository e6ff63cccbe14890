package integrators

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/pendulab/internal/dynamo"
)

type harmonicOscillator struct{}

func (h *harmonicOscillator) StateDim() int   { return 2 }
func (h *harmonicOscillator) ControlDim() int { return 0 }

func (h *harmonicOscillator) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func (h *harmonicOscillator) Energy(x dynamo.State) float64 {
	return 0.5 * (x[0]*x[0] + x[1]*x[1])
}

// blowUp is x' = x^2, which escapes to infinity at t = 1 for x(0) = 1.
type blowUp struct{}

func (b *blowUp) StateDim() int   { return 1 }
func (b *blowUp) ControlDim() int { return 0 }
func (b *blowUp) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{x[0] * x[0]}
}

type nanSystem struct{}

func (n *nanSystem) StateDim() int   { return 1 }
func (n *nanSystem) ControlDim() int { return 0 }
func (n *nanSystem) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{math.NaN()}
}

func TestRK45_IntegratePeriod(t *testing.T) {
	integrator := NewRK45()
	integrator.RTol = 1e-9
	integrator.ATol = 1e-12

	x, next, err := integrator.Integrate(&harmonicOscillator{}, dynamo.State{1, 0}, nil, 0, 2*math.Pi, 0.01)
	if err != nil {
		t.Fatalf("Integrate returned error: %v", err)
	}

	if math.Abs(x[0]-1) > 1e-6 || math.Abs(x[1]) > 1e-6 {
		t.Errorf("expected to return to (1, 0), got %v", x)
	}
	if next <= 0 {
		t.Errorf("expected positive next dt, got %v", next)
	}
}

func TestRK45_IntegrateGrid(t *testing.T) {
	integrator := NewRK45()
	dyn := &harmonicOscillator{}

	x := dynamo.State{1, 0}
	dt := 0.0
	var err error
	grid := []float64{0, 0.05, 0.3, 0.31, 1.0, 2.5}
	for i := 1; i < len(grid); i++ {
		x, dt, err = integrator.Integrate(dyn, x, nil, grid[i-1], grid[i], dt)
		if err != nil {
			t.Fatalf("interval %d: %v", i, err)
		}
		want := math.Cos(grid[i])
		if math.Abs(x[0]-want) > 1e-4 {
			t.Errorf("t=%v: got %.6f, want %.6f", grid[i], x[0], want)
		}
	}
}

func TestRK45_EmptyInterval(t *testing.T) {
	integrator := NewRK45()
	x0 := dynamo.State{1, 0}

	x, _, err := integrator.Integrate(&harmonicOscillator{}, x0, nil, 1, 1, 0.1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if x[0] != 1 || x[1] != 0 {
		t.Errorf("expected unchanged state, got %v", x)
	}
	x[0] = 5
	if x0[0] != 1 {
		t.Error("Integrate returned the caller's slice")
	}
}

func TestRK45_NonFiniteDerivative(t *testing.T) {
	_, _, err := NewRK45().Integrate(&nanSystem{}, dynamo.State{1}, nil, 0, 1, 0.1)

	var simErr *dynamo.SimulationError
	if !errors.As(err, &simErr) {
		t.Fatalf("expected SimulationError, got %v", err)
	}
	if !errors.Is(err, dynamo.ErrInvalidState) {
		t.Errorf("expected ErrInvalidState, got %v", err)
	}
}

func TestRK45_Divergence(t *testing.T) {
	_, _, err := NewRK45().Integrate(&blowUp{}, dynamo.State{1}, nil, 0, 2, 0.01)
	if err == nil {
		t.Fatal("expected integration failure past the singularity")
	}
	if !errors.Is(err, dynamo.ErrStepTooSmall) && !errors.Is(err, dynamo.ErrMaxSteps) && !errors.Is(err, dynamo.ErrInvalidState) {
		t.Errorf("unexpected error kind: %v", err)
	}
}

func TestRK45_StepBudget(t *testing.T) {
	integrator := NewRK45()
	integrator.MaxDt = 0.001
	integrator.MaxSteps = 10

	_, _, err := integrator.Integrate(&harmonicOscillator{}, dynamo.State{1, 0}, nil, 0, 1, 0.001)
	if !errors.Is(err, dynamo.ErrMaxSteps) {
		t.Errorf("expected ErrMaxSteps, got %v", err)
	}
}

func TestRK45_EnergyConservation(t *testing.T) {
	integrator := NewRK45()
	dyn := &harmonicOscillator{}
	x0 := dynamo.State{1.0, 0.0}

	integrator.RTol = 1e-9
	integrator.ATol = 1e-12

	initialEnergy := dyn.Energy(x0)
	x := x0.Clone()
	dt := 0.0

	var err error
	for i := 0; i < 100; i++ {
		x, dt, err = integrator.Integrate(dyn, x, nil, float64(i), float64(i+1), dt)
		if err != nil {
			t.Fatalf("interval %d: %v", i, err)
		}
	}

	finalEnergy := dyn.Energy(x)
	drift := math.Abs(finalEnergy-initialEnergy) / initialEnergy

	if drift > 1e-6 {
		t.Errorf("RK45 energy drift too high: %e", drift)
	}
}
