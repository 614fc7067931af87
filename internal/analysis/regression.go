package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Predictor is an ordinary least-squares fit of output per setter against
// crew size.
type Predictor struct {
	Intercept float64 `json:"intercept"`
	Slope     float64 `json:"slope"`
	N         int     `json:"n"`
}

// Fit computes a predictor. Fewer than two points give the zero function;
// points that all share one crew size give a flat line at their mean.
func Fit(crew, output []float64) Predictor {
	n := len(crew)
	if n < 2 || len(output) != n {
		return Predictor{N: n}
	}
	if stat.Variance(crew, nil) == 0 {
		return Predictor{Intercept: stat.Mean(output, nil), N: n}
	}
	alpha, beta := stat.LinearRegression(crew, output, nil, false)
	if math.IsNaN(alpha) || math.IsNaN(beta) {
		return Predictor{N: n}
	}
	return Predictor{Intercept: alpha, Slope: beta, N: n}
}

// Predict returns expected output per setter for a crew size, never negative.
func (p Predictor) Predict(crew float64) float64 {
	if p.N < 2 {
		return 0
	}
	return math.Max(0, p.Intercept+p.Slope*crew)
}

// Pearson returns the correlation coefficient of x and y, or 0 when either
// side has no variance or there are fewer than two points.
func Pearson(x, y []float64) float64 {
	if len(x) < 2 || len(x) != len(y) {
		return 0
	}
	if stat.Variance(x, nil) == 0 || stat.Variance(y, nil) == 0 {
		return 0
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) {
		return 0
	}
	return r
}

// Summary describes a distribution of per-setter outputs.
type Summary struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Median float64 `json:"median"`
	P90    float64 `json:"p90"`
}

// Summarize computes a Summary. xs is sorted in place.
func Summarize(xs []float64) Summary {
	if len(xs) == 0 {
		return Summary{}
	}
	sort.Float64s(xs)
	s := Summary{
		N:      len(xs),
		Median: stat.Quantile(0.5, stat.Empirical, xs, nil),
		P90:    stat.Quantile(0.9, stat.Empirical, xs, nil),
	}
	if len(xs) > 1 {
		s.Mean, s.StdDev = stat.MeanStdDev(xs, nil)
	} else {
		s.Mean = xs[0]
	}
	return s
}
