// Package analysis estimates spectral properties of sampled outputs.
package analysis

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// PowerSpectrum returns the magnitude of the real FFT of data with its
// mean removed, one value per frequency bin from 0 to n/2.
func PowerSpectrum(data []float64) []float64 {
	if len(data) < 2 {
		return nil
	}

	mean := stat.Mean(data, nil)
	centered := make([]float64, len(data))
	for i, v := range data {
		centered[i] = v - mean
	}

	coeffs := fourier.NewFFT(len(data)).Coefficients(nil, centered)
	ps := make([]float64, len(coeffs))
	for i, c := range coeffs {
		ps[i] = cmplx.Abs(c)
	}
	return ps
}

// DominantFrequency returns the frequency in Hz of the strongest non-DC
// component of data sampled every dt seconds, or 0 for a flat signal.
func DominantFrequency(data []float64, dt float64) float64 {
	ps := PowerSpectrum(data)
	if len(ps) < 2 || dt <= 0 {
		return 0
	}

	best := 1
	for k := 2; k < len(ps); k++ {
		if ps[k] > ps[best] {
			best = k
		}
	}
	if ps[best] <= 1e-12*float64(len(data)) {
		return 0
	}
	return float64(best) / (float64(len(data)) * dt)
}

// SwingPeriod is 1 / DominantFrequency, or +Inf when nothing oscillates.
func SwingPeriod(data []float64, dt float64) float64 {
	f := DominantFrequency(data, dt)
	if f == 0 {
		return math.Inf(1)
	}
	return 1 / f
}
