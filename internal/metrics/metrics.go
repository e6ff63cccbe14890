// Package metrics compares simulated and measured channels.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MAE is the mean absolute difference of two equally long series. It
// returns NaN for empty input and panics on a length mismatch.
func MAE(measured, simulated []float64) float64 {
	if len(measured) == 0 {
		return math.NaN()
	}
	return floats.Distance(measured, simulated, 1) / float64(len(measured))
}

func RMSE(measured, simulated []float64) float64 {
	if len(measured) == 0 {
		return math.NaN()
	}
	d := floats.Distance(measured, simulated, 2)
	return d / math.Sqrt(float64(len(measured)))
}

func MaxAbs(measured, simulated []float64) float64 {
	if len(measured) == 0 {
		return math.NaN()
	}
	return floats.Distance(measured, simulated, math.Inf(1))
}

// Summary describes the residual of one channel.
type Summary struct {
	Channel string  `json:"channel"`
	MAE     float64 `json:"mae"`
	RMSE    float64 `json:"rmse"`
	MaxAbs  float64 `json:"max_abs"`
	Bias    float64 `json:"bias"`
	StdDev  float64 `json:"std_dev"`
}

func Summarize(channel string, measured, simulated []float64) Summary {
	s := Summary{
		Channel: channel,
		MAE:     MAE(measured, simulated),
		RMSE:    RMSE(measured, simulated),
		MaxAbs:  MaxAbs(measured, simulated),
	}
	if len(measured) == 0 {
		s.Bias, s.StdDev = math.NaN(), math.NaN()
		return s
	}

	residual := make([]float64, len(measured))
	floats.SubTo(residual, simulated, measured)
	s.Bias, s.StdDev = stat.MeanStdDev(residual, nil)
	return s
}
