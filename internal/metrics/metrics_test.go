package metrics

import (
	"math"
	"testing"
)

func TestErrors(t *testing.T) {
	measured := []float64{1, 2, 3, 4}
	simulated := []float64{1, 3, 1, 4}

	tests := []struct {
		name string
		fn   func(a, b []float64) float64
		want float64
	}{
		{"mae", MAE, 0.75},
		{"rmse", RMSE, math.Sqrt(5.0 / 4)},
		{"max abs", MaxAbs, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(measured, simulated); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if got := tt.fn(nil, nil); !math.IsNaN(got) {
				t.Errorf("expected NaN for empty series, got %v", got)
			}
		})
	}
}

func TestMAEIdentical(t *testing.T) {
	x := []float64{0.1, -0.2, 3}
	if got := MAE(x, x); got != 0 {
		t.Errorf("expected 0 for identical series, got %v", got)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize("x", []float64{0, 0, 0, 0}, []float64{1, 1, 3, 3})

	if s.Channel != "x" || s.MAE != 2 || s.MaxAbs != 3 {
		t.Errorf("unexpected summary %+v", s)
	}
	if math.Abs(s.Bias-2) > 1e-12 {
		t.Errorf("expected bias 2, got %v", s.Bias)
	}
	// sample standard deviation of {1, 1, 3, 3}
	if want := math.Sqrt(4.0 / 3); math.Abs(s.StdDev-want) > 1e-12 {
		t.Errorf("expected std dev %v, got %v", want, s.StdDev)
	}

	empty := Summarize("y", nil, nil)
	if !math.IsNaN(empty.Bias) || !math.IsNaN(empty.MAE) {
		t.Errorf("expected NaN summary for empty series, got %+v", empty)
	}
}
