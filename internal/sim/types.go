package sim

import (
	"fmt"

	"github.com/san-kum/pendulab/internal/dynamo"
)

// Config tunes the integrator used by a simulation. Method names are
// resolved by the experiment registry.
type Config struct {
	Method   string  `yaml:"method" json:"method"`
	RTol     float64 `yaml:"rtol" json:"rtol"`
	ATol     float64 `yaml:"atol" json:"atol"`
	MinDt    float64 `yaml:"min_dt" json:"min_dt"`
	MaxDt    float64 `yaml:"max_dt" json:"max_dt"`
	MaxSteps int     `yaml:"max_steps" json:"max_steps"`

	// StateLimit is the state norm past which a run is reported unstable.
	StateLimit float64 `yaml:"state_limit" json:"state_limit"`
}

func DefaultConfig() Config {
	return Config{
		Method:   "rk45",
		RTol:     1e-3,
		ATol:     1e-6,
		MinDt:    1e-10,
		MaxDt:    0.05,
		MaxSteps: 20000,

		StateLimit: DefaultStateLimit,
	}
}

func (c Config) Validate() error {
	if c.RTol <= 0 || c.ATol <= 0 {
		return fmt.Errorf("tolerances must be positive, got rtol=%g atol=%g", c.RTol, c.ATol)
	}
	if c.MaxDt <= 0 {
		return fmt.Errorf("max_dt must be positive, got %g", c.MaxDt)
	}
	if c.MinDt < 0 || c.MinDt >= c.MaxDt {
		return fmt.Errorf("min_dt must be in [0, max_dt), got %g", c.MinDt)
	}
	if c.MaxSteps <= 0 {
		return fmt.Errorf("max_steps must be positive, got %d", c.MaxSteps)
	}
	if !(c.StateLimit > 0) {
		return fmt.Errorf("state_limit must be positive, got %g", c.StateLimit)
	}
	return nil
}

// Result holds one sample per grid point.
type Result struct {
	Times   []float64
	States  []dynamo.State
	Outputs [][]float64

	// Energy is only filled for systems implementing dynamo.Hamiltonian.
	Energy      []float64
	EnergyDrift float64
}

// Output returns the time series of output channel i.
func (r *Result) Output(i int) []float64 {
	out := make([]float64, len(r.Outputs))
	for k, y := range r.Outputs {
		out[k] = y[i]
	}
	return out
}
