package optim

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"

	"github.com/san-kum/pendulab/internal/objective"
	"github.com/san-kum/pendulab/internal/physics"
)

type Settings struct {
	MaxIterations  int     `yaml:"max_iterations" json:"max_iterations"`
	MaxEvaluations int     `yaml:"max_evaluations" json:"max_evaluations"`
	XTolerance     float64 `yaml:"x_tolerance" json:"x_tolerance"`
	FTolerance     float64 `yaml:"f_tolerance" json:"f_tolerance"`

	// SimplexSize is the relative offset of the initial vertices from x0.
	SimplexSize float64 `yaml:"simplex_size" json:"simplex_size"`
	KeepRecords bool    `yaml:"keep_records" json:"keep_records"`
}

func DefaultSettings() Settings {
	return Settings{
		MaxIterations: 10,
		XTolerance:    1e-2,
		FTolerance:    1e-4,
		SimplexSize:   0.05,
		KeepRecords:   true,
	}
}

// FitResult is the outcome of one optimization run.
type FitResult struct {
	Names       []string           `json:"names"`
	Initial     []float64          `json:"initial"`
	Values      []float64          `json:"values"`
	Params      physics.Params     `json:"params"`
	Objective   float64            `json:"objective"`
	Iterations  int                `json:"iterations"`
	Evaluations int                `json:"evaluations"`
	Converged   bool               `json:"converged"`
	Status      string             `json:"status"`
	Records     []objective.Record `json:"records,omitempty"`
}

// Map returns the fitted values keyed by parameter name.
func (r *FitResult) Map() map[string]float64 {
	m := make(map[string]float64, len(r.Names))
	for i, n := range r.Names {
		m[n] = r.Values[i]
	}
	return m
}

// Minimize runs Nelder-Mead on obj starting at x0, ordered like
// obj.Binding.ParamNames. The objective is validated first so malformed
// data fails before any simulation.
func Minimize(ctx context.Context, obj *objective.Objective, x0 []float64, s Settings) (*FitResult, error) {
	if err := obj.Validate(); err != nil {
		return nil, err
	}
	if len(x0) != len(obj.Binding.ParamNames) {
		return nil, fmt.Errorf("x0 has %d values for %d parameters", len(x0), len(obj.Binding.ParamNames))
	}
	if len(x0) == 0 {
		return nil, fmt.Errorf("no parameters to fit")
	}

	var evalErr error
	evaluations := 0
	f := func(x []float64) float64 {
		evaluations++
		v, err := obj.Evaluate(ctx, x)
		if err != nil {
			if evalErr == nil {
				evalErr = err
			}
			return math.Inf(1)
		}
		return v
	}

	vertices, values := initialSimplex(f, x0, s.SimplexSize)
	if evalErr != nil {
		return nil, evalErr
	}

	method := &optimize.NelderMead{
		InitialVertices: vertices,
		InitialValues:   values,
	}
	settings := &optimize.Settings{
		MajorIterations: s.MaxIterations,
		FuncEvaluations: s.MaxEvaluations,
		Converger:       newConverger(s),
	}

	res, err := optimize.Minimize(optimize.Problem{Func: f}, x0, settings, method)
	if evalErr != nil {
		return nil, evalErr
	}
	if res == nil {
		return nil, fmt.Errorf("nelder-mead: %w", err)
	}

	best := append([]float64(nil), res.X...)
	p, perr := obj.Params(best)
	if perr != nil {
		return nil, perr
	}

	result := &FitResult{
		Names:       append([]string(nil), obj.Binding.ParamNames...),
		Initial:     append([]float64(nil), x0...),
		Values:      best,
		Params:      p,
		Objective:   res.F,
		Iterations:  res.MajorIterations,
		Evaluations: evaluations,
		Converged:   converged(res.Status),
		Status:      res.Status.String(),
	}
	if err != nil {
		result.Status = fmt.Sprintf("%s (%v)", result.Status, err)
	}

	if s.KeepRecords {
		_, records, err := obj.EvaluateRecords(ctx, best)
		if err != nil {
			return nil, err
		}
		result.Records = records
	}
	return result, nil
}

func converged(s optimize.Status) bool {
	switch s {
	case optimize.Success, optimize.FunctionConvergence, optimize.StepConvergence, optimize.MethodConverge:
		return true
	}
	return false
}

// initialSimplex perturbs each coordinate of x0 by a relative step, or by a
// small absolute one where the coordinate is zero.
func initialSimplex(f func([]float64) float64, x0 []float64, size float64) ([][]float64, []float64) {
	if size <= 0 {
		size = 0.05
	}
	n := len(x0)
	vertices := make([][]float64, n+1)
	values := make([]float64, n+1)

	vertices[0] = append([]float64(nil), x0...)
	values[0] = f(vertices[0])
	for i := 0; i < n; i++ {
		v := append([]float64(nil), x0...)
		if v[i] != 0 {
			v[i] *= 1 + size
		} else {
			v[i] = 0.00025
		}
		vertices[i+1] = v
		values[i+1] = f(v)
	}
	return vertices, values
}

// stepConverge reports StepConvergence once the best location has moved by
// less than tol in every coordinate for the given number of iterations.
type stepConverge struct {
	tol        float64
	iterations int

	last   []float64
	stalls int
}

func (c *stepConverge) Init(dim int) {
	c.last = nil
	c.stalls = 0
}

func (c *stepConverge) Converged(loc *optimize.Location) optimize.Status {
	if c.last == nil {
		c.last = append([]float64(nil), loc.X...)
		return optimize.NotTerminated
	}
	if floats.Distance(loc.X, c.last, math.Inf(1)) < c.tol {
		c.stalls++
	} else {
		c.stalls = 0
	}
	copy(c.last, loc.X)
	if c.stalls >= c.iterations {
		return optimize.StepConvergence
	}
	return optimize.NotTerminated
}

type convergers []optimize.Converger

func (cs convergers) Init(dim int) {
	for _, c := range cs {
		c.Init(dim)
	}
}

func (cs convergers) Converged(loc *optimize.Location) optimize.Status {
	for _, c := range cs {
		if s := c.Converged(loc); s != optimize.NotTerminated {
			return s
		}
	}
	return optimize.NotTerminated
}

func newConverger(s Settings) optimize.Converger {
	cs := convergers{}
	if s.FTolerance > 0 {
		cs = append(cs, &optimize.FunctionConverge{Absolute: s.FTolerance, Iterations: 5})
	}
	if s.XTolerance > 0 {
		cs = append(cs, &stepConverge{tol: s.XTolerance, iterations: 5})
	}
	return cs
}
