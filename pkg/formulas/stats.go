package formulas

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return math.NaN()
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation (n-1 denominator).
// Fewer than two observations yield NaN.
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return math.NaN()
	}
	return stat.StdDev(data, nil)
}

// LinearRegression fits y = alpha + beta*x by ordinary least squares.
// Pairs where either side is NaN are dropped; fewer than two remaining pairs yield NaN.
func LinearRegression(x, y []float64) (alpha, beta float64) {
	xs, ys := pairwise(x, y)
	if len(xs) < 2 || stat.Variance(xs, nil) == 0 {
		return math.NaN(), math.NaN()
	}
	return stat.LinearRegression(xs, ys, nil, false)
}

// TrackingError is the sample standard deviation of y-x over the pairs where both are defined
func TrackingError(x, y []float64) float64 {
	xs, ys := pairwise(x, y)
	if len(xs) < 2 {
		return math.NaN()
	}
	diff := make([]float64, len(xs))
	floats.SubTo(diff, ys, xs)
	return stat.StdDev(diff, nil)
}

// MaxDrawdown returns the deepest fall from a running peak as a fraction (<= 0).
// NaN values are skipped; a series without values yields NaN.
func MaxDrawdown(values []float64) float64 {
	peak := math.NaN()
	worst := math.NaN()
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(peak) || v > peak {
			peak = v
		}
		dd := v/peak - 1
		if math.IsNaN(worst) || dd < worst {
			worst = dd
		}
	}
	return worst
}

func pairwise(x, y []float64) ([]float64, []float64) {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	return xs, ys
}
