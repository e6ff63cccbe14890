package experiment

import (
	"fmt"

	"github.com/san-kum/pendulab/internal/analysis"
	"github.com/san-kum/pendulab/internal/metrics"
	"github.com/san-kum/pendulab/internal/objective"
	"github.com/san-kum/pendulab/internal/physics"
	"github.com/san-kum/pendulab/internal/sim"
	"github.com/san-kum/pendulab/internal/storage"
)

// RecordTrajectories lays out each record as a table of measured and
// simulated columns per output channel.
func RecordTrajectories(records []objective.Record) []storage.Trajectory {
	out := make([]storage.Trajectory, 0, len(records))
	for _, r := range records {
		tr := storage.Trajectory{
			Name:  fmt.Sprintf("episode_%03d", r.Index),
			Times: r.Timestamps,
		}
		for k, ch := range r.Channels {
			tr.Columns = append(tr.Columns, ch+"_measured", ch+"_simulated")
			tr.Values = append(tr.Values, r.Measured[k], r.Simulated[k])
		}
		out = append(out, tr)
	}
	return out
}

// ResultTrajectory lays out a simulation as state and output columns.
func ResultTrajectory(name string, res *sim.Result) storage.Trajectory {
	stateNames := []string{"L", "X", "l", "phi", "varphi_rad", "x"}
	tr := storage.Trajectory{Name: name, Times: res.Times}

	for i, n := range stateNames {
		col := make([]float64, len(res.States))
		for k, x := range res.States {
			col[k] = x[i]
		}
		tr.Columns = append(tr.Columns, n)
		tr.Values = append(tr.Values, col)
	}
	for i, n := range physics.OutputNames {
		tr.Columns = append(tr.Columns, "y_"+n)
		tr.Values = append(tr.Values, res.Output(i))
	}
	return tr
}

// Summaries computes residual statistics per episode and channel.
func Summaries(records []objective.Record) [][]metrics.Summary {
	out := make([][]metrics.Summary, len(records))
	for i, r := range records {
		for k, ch := range r.Channels {
			out[i] = append(out[i], metrics.Summarize(ch, r.Measured[k], r.Simulated[k]))
		}
	}
	return out
}

// ChannelMAE averages the per-episode MAE of every channel, keyed
// "<channel>.mae" for run metadata.
func ChannelMAE(records []objective.Record) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, eps := range Summaries(records) {
		for _, s := range eps {
			sums[s.Channel] += s.MAE
			counts[s.Channel]++
		}
	}

	m := make(map[string]float64, len(sums))
	for ch, sum := range sums {
		m[ch+".mae"] = sum / float64(counts[ch])
	}
	return m
}

// SimulationMetrics summarizes a simulation on a uniform grid: energy
// drift, the dominant swing frequency of the angle output and the final
// value of every output.
func SimulationMetrics(res *sim.Result) map[string]float64 {
	m := map[string]float64{"energy_drift": res.EnergyDrift}
	if n := len(res.Times); n > 1 {
		dt := (res.Times[n-1] - res.Times[0]) / float64(n-1)
		m["swing_frequency"] = analysis.DominantFrequency(res.Output(physics.OutAngle), dt)
	}
	if n := len(res.Outputs); n > 0 {
		for i, name := range physics.OutputNames {
			m["final_"+name] = res.Outputs[n-1][i]
		}
	}
	return m
}
