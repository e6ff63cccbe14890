// Package objective scores a candidate parameter vector by simulating every
// measurement episode under its recorded inputs and comparing the outputs.
package objective

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/pendulab/internal/control"
	"github.com/san-kum/pendulab/internal/dynamo"
	"github.com/san-kum/pendulab/internal/episode"
	"github.com/san-kum/pendulab/internal/integrators"
	"github.com/san-kum/pendulab/internal/metrics"
	"github.com/san-kum/pendulab/internal/physics"
	"github.com/san-kum/pendulab/internal/sim"
)

const DefaultPenalty = 1000.0

// DataError reports a malformed episode.
type DataError struct {
	Episode int
	Channel string
	Reason  string
}

func (e *DataError) Error() string {
	if e.Channel == "" {
		return fmt.Sprintf("episode %d: %s", e.Episode, e.Reason)
	}
	return fmt.Sprintf("episode %d: channel %q: %s", e.Episode, e.Channel, e.Reason)
}

// Record pairs the measured and simulated outputs of one episode.
type Record struct {
	Index      int         `json:"index"`
	Timestamps []float64   `json:"timestamps"`
	Channels   []string    `json:"channels"`
	Measured   [][]float64 `json:"measured"`
	Simulated  [][]float64 `json:"simulated"`
	Error      float64     `json:"error"`
}

type Objective struct {
	Binding  Binding
	Base     physics.Params
	Episodes []episode.Episode

	// NewIntegrator is called once per episode simulation.
	NewIntegrator func() dynamo.IntervalIntegrator

	// Penalty replaces the whole evaluation when any episode fails to
	// integrate or its state norm passes StateLimit.
	Penalty    float64
	StateLimit float64
	Workers    int
}

func New(episodes []episode.Episode, binding Binding, base physics.Params) *Objective {
	return &Objective{
		Binding:       binding,
		Base:          base,
		Episodes:      episodes,
		NewIntegrator: func() dynamo.IntervalIntegrator { return integrators.NewRK45() },
		Penalty:       DefaultPenalty,
		StateLimit:    sim.DefaultStateLimit,
		Workers:       1,
	}
}

// Validate checks the binding and that every episode carries the bound
// channels with one finite sample per timestamp.
func (o *Objective) Validate() error {
	if err := o.Binding.Validate(); err != nil {
		return err
	}
	if err := o.Base.Validate(); err != nil {
		return err
	}
	if len(o.Episodes) == 0 {
		return fmt.Errorf("no episodes to evaluate")
	}

	for i, ep := range o.Episodes {
		n := ep.Len()
		if n <= o.Binding.InitialIndex {
			return &DataError{Episode: i, Reason: fmt.Sprintf("%d samples, initial state needs index %d", n, o.Binding.InitialIndex)}
		}
		for k := 1; k < n; k++ {
			if !(ep.Timestamps[k] > ep.Timestamps[k-1]) {
				return &DataError{Episode: i, Channel: episode.TimestampsKey, Reason: fmt.Sprintf("not strictly ascending at index %d", k)}
			}
		}

		for _, name := range o.Binding.channels() {
			v, err := ep.Channel(name)
			if err != nil {
				return &DataError{Episode: i, Channel: name, Reason: "missing"}
			}
			if len(v) != n {
				return &DataError{Episode: i, Channel: name, Reason: fmt.Sprintf("%d samples for %d timestamps", len(v), n)}
			}
			for k, x := range v {
				if math.IsNaN(x) || math.IsInf(x, 0) {
					return &DataError{Episode: i, Channel: name, Reason: fmt.Sprintf("non-finite sample at index %d", k)}
				}
			}
		}
	}
	return nil
}

// Params applies values to the base parameters by position of
// Binding.ParamNames. nil keeps the base parameters.
func (o *Objective) Params(values []float64) (physics.Params, error) {
	if values == nil {
		return o.Base, nil
	}
	return o.Base.Override(o.Binding.ParamNames, values)
}

func (o *Objective) Evaluate(ctx context.Context, values []float64) (float64, error) {
	total, _, err := o.evaluate(ctx, values, false)
	return total, err
}

// EvaluateRecords is Evaluate plus per-episode trajectories. Records are
// nil when the penalty was returned.
func (o *Objective) EvaluateRecords(ctx context.Context, values []float64) (float64, []Record, error) {
	return o.evaluate(ctx, values, true)
}

type outcome struct {
	value  float64
	record *Record
	err    error
}

func (o *Objective) evaluate(ctx context.Context, values []float64, keep bool) (float64, []Record, error) {
	p, err := o.Params(values)
	if err != nil {
		return 0, nil, err
	}
	if len(o.Episodes) == 0 {
		return 0, nil, fmt.Errorf("no episodes to evaluate")
	}

	results := make([]outcome, len(o.Episodes))
	if o.Workers > 1 {
		dynamo.ParallelFor(len(o.Episodes), o.Workers, func(start, end int) {
			for i := start; i < end; i++ {
				results[i] = o.episode(ctx, p, i, keep)
			}
		})
	} else {
		for i := range o.Episodes {
			results[i] = o.episode(ctx, p, i, keep)
			if results[i].err != nil {
				results = results[:i+1]
				break
			}
		}
	}

	failed := false
	for _, r := range results {
		var simErr *dynamo.SimulationError
		switch {
		case r.err == nil:
		case errors.As(r.err, &simErr):
			failed = true
		default:
			return 0, nil, r.err
		}
	}
	if failed {
		return o.Penalty, nil, nil
	}

	// summed in episode order so the result does not depend on Workers
	total := 0.0
	var records []Record
	for _, r := range results {
		total += r.value
		if keep {
			records = append(records, *r.record)
		}
	}
	return total, records, nil
}

func (o *Objective) episode(ctx context.Context, p physics.Params, idx int, keep bool) outcome {
	b := o.Binding
	ep := o.Episodes[idx]
	ts := ep.Timestamps

	inputs := make([][]float64, len(b.InputChannels))
	for k, name := range b.InputChannels {
		raw, err := ep.Channel(name)
		if err != nil {
			return outcome{err: &DataError{Episode: idx, Channel: name, Reason: "missing"}}
		}
		if len(raw) != len(ts) {
			return outcome{err: &DataError{Episode: idx, Channel: name, Reason: fmt.Sprintf("%d samples for %d timestamps", len(raw), len(ts))}}
		}
		inputs[k] = delayed(ts, raw, b.InputDelays[k])
	}
	in, err := control.NewInputSignal(ts, inputs[physics.InCart], inputs[physics.InCable])
	if err != nil {
		return outcome{err: fmt.Errorf("episode %d: %w", idx, err)}
	}

	x0, err := o.initialState(ep, idx)
	if err != nil {
		return outcome{err: err}
	}

	simulator := sim.New(physics.NewCableCart(p), o.NewIntegrator())
	simulator.SetStateLimit(o.StateLimit)
	res, err := simulator.Simulate(ctx, ts, x0, in)
	if err != nil {
		return outcome{err: fmt.Errorf("episode %d: %w", idx, err)}
	}

	out := outcome{}
	if keep {
		out.record = &Record{Index: idx, Timestamps: ts, Channels: b.OutputChannels}
	}
	for k, name := range b.OutputChannels {
		measured, err := ep.Channel(name)
		if err != nil {
			return outcome{err: &DataError{Episode: idx, Channel: name, Reason: "missing"}}
		}
		if len(measured) != len(ts) {
			return outcome{err: &DataError{Episode: idx, Channel: name, Reason: fmt.Sprintf("%d samples for %d timestamps", len(measured), len(ts))}}
		}
		simulated := res.Output(k)
		out.value += b.OutputWeights[k] * metrics.MAE(measured, simulated)
		if keep {
			out.record.Measured = append(out.record.Measured, measured)
			out.record.Simulated = append(out.record.Simulated, simulated)
		}
	}
	if keep {
		out.record.Error = out.value
	}
	return out
}

// delayed zeroes the samples recorded before the actuator dead time.
func delayed(ts, raw []float64, delay float64) []float64 {
	out := make([]float64, len(ts))
	for i, t := range ts {
		if t >= delay {
			out[i] = raw[i]
		}
	}
	return out
}

func (o *Objective) initialState(ep episode.Episode, idx int) (dynamo.State, error) {
	b := o.Binding
	x0 := make(dynamo.State, physics.NumStates)
	for j, name := range b.StateChannels {
		if name == "" {
			continue
		}
		v, err := ep.Channel(name)
		if err != nil {
			return nil, &DataError{Episode: idx, Channel: name, Reason: "missing"}
		}
		if len(v) != len(ep.Timestamps) {
			return nil, &DataError{Episode: idx, Channel: name, Reason: fmt.Sprintf("%d samples for %d timestamps", len(v), len(ep.Timestamps))}
		}
		if b.InitialIndex >= len(v) {
			return nil, &DataError{Episode: idx, Channel: name, Reason: fmt.Sprintf("no sample at index %d", b.InitialIndex)}
		}
		x0[j] = v[b.InitialIndex]
	}
	x0[b.AngleState] = x0[b.AngleState] * math.Pi / 180
	return x0, nil
}
