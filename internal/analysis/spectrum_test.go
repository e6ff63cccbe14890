package analysis

import (
	"math"
	"testing"
)

func sampled(n int, dt float64, fn func(t float64) float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = fn(float64(i) * dt)
	}
	return out
}

func TestDominantFrequency(t *testing.T) {
	tests := []struct {
		name string
		data []float64
		dt   float64
		want float64
	}{
		{
			name: "pure sine",
			data: sampled(1000, 0.01, func(t float64) float64 { return math.Sin(2 * math.Pi * 0.5 * t) }),
			dt:   0.01,
			want: 0.5,
		},
		{
			name: "offset and harmonic",
			data: sampled(1000, 0.01, func(t float64) float64 {
				return 3 + math.Sin(2*math.Pi*1.2*t) + 0.2*math.Sin(2*math.Pi*3.6*t)
			}),
			dt:   0.01,
			want: 1.2,
		},
		{
			name: "flat",
			data: sampled(64, 0.1, func(t float64) float64 { return 2 }),
			dt:   0.1,
			want: 0,
		},
		{
			name: "too short",
			data: []float64{1},
			dt:   0.1,
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DominantFrequency(tt.data, tt.dt); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("DominantFrequency() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPowerSpectrumLength(t *testing.T) {
	ps := PowerSpectrum(make([]float64, 100))
	if len(ps) != 51 {
		t.Errorf("expected 51 bins, got %d", len(ps))
	}
	if PowerSpectrum(nil) != nil {
		t.Error("expected nil spectrum for empty input")
	}
}

func TestSwingPeriod(t *testing.T) {
	data := sampled(1000, 0.01, func(t float64) float64 { return math.Cos(2 * math.Pi * 0.25 * t) })
	if p := SwingPeriod(data, 0.01); math.Abs(p-4) > 1e-9 {
		t.Errorf("expected period 4s, got %v", p)
	}
	if p := SwingPeriod(make([]float64, 10), 0.01); !math.IsInf(p, 1) {
		t.Errorf("expected +Inf for a flat signal, got %v", p)
	}
}
