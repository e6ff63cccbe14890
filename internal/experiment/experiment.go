// Package experiment wires configuration, data and the numerical core
// into the runs offered by the command line.
package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/pendulab/internal/config"
	"github.com/san-kum/pendulab/internal/control"
	"github.com/san-kum/pendulab/internal/dynamo"
	"github.com/san-kum/pendulab/internal/episode"
	"github.com/san-kum/pendulab/internal/logger"
	"github.com/san-kum/pendulab/internal/objective"
	"github.com/san-kum/pendulab/internal/optim"
	"github.com/san-kum/pendulab/internal/physics"
	"github.com/san-kum/pendulab/internal/segment"
	"github.com/san-kum/pendulab/internal/sim"
)

type Experiment struct {
	cfg      *config.Config
	registry *Registry
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{
		cfg:      cfg,
		registry: NewRegistry(),
	}
}

func (e *Experiment) Config() *config.Config { return e.cfg }

func (e *Experiment) Segment(s segment.Session) ([]episode.Episode, error) {
	eps, err := segment.Segment(s, e.cfg.Segment)
	if err != nil {
		return nil, err
	}
	logger.Info("segmented %d samples into %d episodes", len(s.Timestamps), len(eps))
	return eps, nil
}

// Inputs builds the open-loop command profiles on grid.
func (e *Experiment) Inputs(grid []float64) (*control.InputSignal, error) {
	sc := e.cfg.Simulate

	var cart, cable control.Profile
	if sc.RampTime > 0 {
		cart = control.Ramp{Start: sc.StepAt, Stop: sc.StepAt + sc.RampTime, To: sc.CartStep}
		cable = control.Ramp{Start: sc.StepAt, Stop: sc.StepAt + sc.RampTime, To: sc.CableStep}
	} else {
		cart = control.Step{At: sc.StepAt, After: sc.CartStep}
		cable = control.Step{At: sc.StepAt, After: sc.CableStep}
	}
	return control.NewInputSignal(grid, control.Sample(cart, grid), control.Sample(cable, grid))
}

// Simulate runs the configured step experiment with the configured params.
func (e *Experiment) Simulate(ctx context.Context) (*sim.Result, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	p, err := e.cfg.PhysicalParams()
	if err != nil {
		return nil, err
	}
	integ, err := e.registry.GetIntegrator(e.cfg.Simulator)
	if err != nil {
		return nil, err
	}

	sc := e.cfg.Simulate
	grid := control.Linspace(0, sc.Duration, sc.Samples)
	in, err := e.Inputs(grid)
	if err != nil {
		return nil, err
	}

	logger.Info("simulating %.2fs on %d samples with %s", sc.Duration, sc.Samples, e.cfg.Simulator.Method)
	s := sim.New(physics.NewCableCart(p), integ)
	s.SetStateLimit(e.cfg.Simulator.StateLimit)
	return s.Simulate(ctx, grid, dynamo.State(sc.InitState), in)
}

// Objective builds the objective over episodes from the configuration.
func (e *Experiment) Objective(episodes []episode.Episode) (*objective.Objective, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	p, err := e.cfg.PhysicalParams()
	if err != nil {
		return nil, err
	}
	factory, err := e.registry.IntegratorFactory(e.cfg.Simulator)
	if err != nil {
		return nil, err
	}

	obj := objective.New(episodes, e.cfg.Binding, p)
	obj.NewIntegrator = factory
	obj.Penalty = e.cfg.Penalty
	obj.StateLimit = e.cfg.Simulator.StateLimit
	obj.Workers = e.cfg.Workers
	return obj, nil
}

// Evaluate scores the configured parameters against episodes.
func (e *Experiment) Evaluate(ctx context.Context, episodes []episode.Episode) (float64, []objective.Record, error) {
	obj, err := e.Objective(episodes)
	if err != nil {
		return 0, nil, err
	}
	if err := obj.Validate(); err != nil {
		return 0, nil, err
	}

	v, records, err := obj.EvaluateRecords(ctx, nil)
	if err != nil {
		return 0, nil, err
	}
	if records == nil {
		logger.Error("simulation failed, objective is the penalty %g", v)
	}
	return v, records, nil
}

// Fit minimizes the objective starting from the configured initial vector,
// or from the best point of grid when it is given.
func (e *Experiment) Fit(ctx context.Context, episodes []episode.Episode, grid [][]float64) (*optim.FitResult, error) {
	obj, err := e.Objective(episodes)
	if err != nil {
		return nil, err
	}

	x0 := e.cfg.Initial
	if len(grid) > 0 {
		g := optim.NewGridSearch(grid)
		logger.Info("grid search over %d candidates", g.Size())
		best, score, err := g.Search(ctx, obj)
		if err != nil {
			return nil, fmt.Errorf("grid search: %w", err)
		}
		logger.Info("grid search best %v (objective %.4f)", best, score)
		x0 = best
	}

	logger.Info("fitting %v from %v on %d episodes", e.cfg.Binding.ParamNames, x0, len(episodes))
	res, err := optim.Minimize(ctx, obj, x0, e.cfg.Optimizer)
	if err != nil {
		return nil, err
	}
	logger.Info("fit finished after %d iterations (%s), objective %.4f", res.Iterations, res.Status, res.Objective)
	return res, nil
}
