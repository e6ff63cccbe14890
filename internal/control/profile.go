package control

// Profile is a scalar command as a function of time.
type Profile interface {
	Value(t float64) float64
}

type Constant float64

func (c Constant) Value(t float64) float64 { return float64(c) }

// Step switches from Before to After at time At; t == At already reads After.
type Step struct {
	At     float64
	Before float64
	After  float64
}

func (s Step) Value(t float64) float64 {
	if t < s.At {
		return s.Before
	}
	return s.After
}

// Ramp moves linearly from From to To between Start and Stop. Both bounds
// are inclusive: t <= Start reads From and t >= Stop reads To.
type Ramp struct {
	Start float64
	Stop  float64
	From  float64
	To    float64
}

func (r Ramp) Value(t float64) float64 {
	switch {
	case t <= r.Start:
		return r.From
	case t >= r.Stop:
		return r.To
	default:
		return r.From + (r.To-r.From)*(t-r.Start)/(r.Stop-r.Start)
	}
}

// Sample evaluates p at every grid point.
func Sample(p Profile, grid []float64) []float64 {
	out := make([]float64, len(grid))
	for i, t := range grid {
		out[i] = p.Value(t)
	}
	return out
}

// Linspace returns n evenly spaced points over [start, stop], both included.
func Linspace(start, stop float64, n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{start}
	}
	out := make([]float64, n)
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[n-1] = stop
	return out
}
