package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/pendulab/internal/dynamo"
	"github.com/san-kum/pendulab/internal/integrators"
	"github.com/san-kum/pendulab/internal/sim"
)

type Registry struct {
	integrators map[string]func(sim.Config) dynamo.IntervalIntegrator
}

func NewRegistry() *Registry {
	r := &Registry{
		integrators: make(map[string]func(sim.Config) dynamo.IntervalIntegrator),
	}

	r.integrators["rk45"] = func(cfg sim.Config) dynamo.IntervalIntegrator {
		rk := integrators.NewRK45()
		rk.RTol = cfg.RTol
		rk.ATol = cfg.ATol
		rk.MinDt = cfg.MinDt
		rk.MaxDt = cfg.MaxDt
		rk.MaxSteps = cfg.MaxSteps
		return rk
	}
	r.integrators["rk4"] = func(cfg sim.Config) dynamo.IntervalIntegrator {
		rk := integrators.NewRK4()
		rk.MaxDt = cfg.MaxDt
		return rk
	}

	return r
}

func (r *Registry) GetIntegrator(cfg sim.Config) (dynamo.IntervalIntegrator, error) {
	fn, err := r.IntegratorFactory(cfg)
	if err != nil {
		return nil, err
	}
	return fn(), nil
}

// IntegratorFactory returns a constructor for fresh integrators of the
// configured method; integrators keep scratch state and are not shared.
func (r *Registry) IntegratorFactory(cfg sim.Config) (func() dynamo.IntervalIntegrator, error) {
	fn, ok := r.integrators[cfg.Method]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s (available: %v)", cfg.Method, r.ListIntegrators())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return func() dynamo.IntervalIntegrator { return fn(cfg) }, nil
}

func (r *Registry) ListIntegrators() []string {
	names := make([]string, 0, len(r.integrators))
	for name := range r.integrators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
