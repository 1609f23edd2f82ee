// Package formulas holds the numeric building blocks shared by series construction,
// hedging, composites, statistics and reporting.
package formulas

import "math"

// MonthsPerYear is the annualization base of the monthly grid
const MonthsPerYear = 12

// CalculateReturns converts index levels to simple period returns.
// Returns[i] = Levels[i+1]/Levels[i] - 1; a zero or missing level yields NaN.
func CalculateReturns(levels []float64) []float64 {
	if len(levels) < 2 {
		return []float64{}
	}

	returns := make([]float64, len(levels)-1)
	for i := 1; i < len(levels); i++ {
		returns[i-1] = SimpleReturn(levels[i-1], levels[i])
	}
	return returns
}

// SimpleReturn is end/start - 1, NaN when start is zero or either side is missing
func SimpleReturn(start, end float64) float64 {
	if start == 0 || math.IsNaN(start) || math.IsNaN(end) {
		return math.NaN()
	}
	return end/start - 1
}

// Compound turns period returns into levels: out[i] = base * (1+r[0]) * ... * (1+r[i]).
// A NaN return contributes no growth.
func Compound(base float64, returns []float64) []float64 {
	out := make([]float64, len(returns))
	level := base
	for i, r := range returns {
		if !math.IsNaN(r) {
			level *= 1 + r
		}
		out[i] = level
	}
	return out
}

// CompoundReturn is the total return of a run of period returns, NaN when none is defined
func CompoundReturn(returns []float64) float64 {
	growth := 1.0
	defined := false
	for _, r := range returns {
		if math.IsNaN(r) {
			continue
		}
		growth *= 1 + r
		defined = true
	}
	if !defined {
		return math.NaN()
	}
	return growth - 1
}

// MonthlyEquivalent converts an annual rate (fraction) to the equivalent monthly rate:
// (1 + annual)^(1/12) - 1
func MonthlyEquivalent(annual float64) float64 {
	return math.Pow(1+annual, 1.0/MonthsPerYear) - 1
}

// Annualize raises a total return to the given exponent: (1 + ret)^exponent - 1
func Annualize(ret, exponent float64) float64 {
	if math.IsNaN(ret) || math.IsNaN(exponent) || math.IsInf(exponent, 0) {
		return math.NaN()
	}
	return math.Pow(1+ret, exponent) - 1
}
