package formulas

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculateReturns(t *testing.T) {
	tests := []struct {
		name     string
		levels   []float64
		expected []float64
	}{
		{
			name:     "too short",
			levels:   []float64{100},
			expected: []float64{},
		},
		{
			name:     "rising",
			levels:   []float64{100, 110, 121},
			expected: []float64{0.10, 0.10},
		},
		{
			name:     "falling",
			levels:   []float64{100, 90},
			expected: []float64{-0.10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateReturns(tt.levels)
			assert.InDeltaSlice(t, tt.expected, result, 1e-12)
		})
	}
}

func TestCalculateReturns_ZeroLevelIsNaN(t *testing.T) {
	result := CalculateReturns([]float64{0, 10})
	assert.True(t, math.IsNaN(result[0]))
}

func TestCompound_RoundTrip(t *testing.T) {
	levels := []float64{100, 101, 102.5, 99.8, 104.2, 110}
	returns := append([]float64{0}, CalculateReturns(levels)...)

	rebuilt := Compound(levels[0], returns)

	assert.InDeltaSlice(t, levels, rebuilt, 1e-9)
}

func TestCompound_NaNContributesNoGrowth(t *testing.T) {
	rebuilt := Compound(100, []float64{0, math.NaN(), 0.1})
	assert.InDeltaSlice(t, []float64{100, 100, 110}, rebuilt, 1e-12)
}

func TestCompoundReturn(t *testing.T) {
	assert.InDelta(t, 0.21, CompoundReturn([]float64{0.1, 0.1}), 1e-12)
	assert.InDelta(t, 0.1, CompoundReturn([]float64{math.NaN(), 0.1}), 1e-12)
	assert.True(t, math.IsNaN(CompoundReturn([]float64{math.NaN()})))
	assert.True(t, math.IsNaN(CompoundReturn(nil)))
}

func TestMonthlyEquivalent(t *testing.T) {
	monthly := MonthlyEquivalent(0.12)
	assert.InDelta(t, 0.12, math.Pow(1+monthly, 12)-1, 1e-12)
	assert.Equal(t, 0.0, MonthlyEquivalent(0))
}

func TestAnnualize(t *testing.T) {
	tests := []struct {
		name     string
		ret      float64
		exponent float64
		expected float64
	}{
		{"identity exponent", 0.10, 1, 0.10},
		{"three years", 0.331, 1.0 / 3, 0.10},
		{"half year doubles up", 0.05, 2, 0.1025},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Annualize(tt.ret, tt.exponent), 1e-9)
		})
	}

	assert.True(t, math.IsNaN(Annualize(math.NaN(), 1)))
	assert.True(t, math.IsNaN(Annualize(0.1, math.Inf(1))))
}

func TestStdDev(t *testing.T) {
	assert.True(t, math.IsNaN(StdDev(nil)))
	assert.True(t, math.IsNaN(StdDev([]float64{0.01})))
	// Sample standard deviation of {1,2,3,4} = sqrt(5/3)
	assert.InDelta(t, math.Sqrt(5.0/3.0), StdDev([]float64{1, 2, 3, 4}), 1e-12)
}

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"monotonic", []float64{100, 100, 101, 105}, 0},
		{"single dip", []float64{100, 120, 90, 130}, 90.0/120.0 - 1},
		{"falls from start", []float64{100, 80, 60}, -0.4},
		{"skips missing", []float64{math.NaN(), 100, 50, 100}, -0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MaxDrawdown(tt.values)
			assert.InDelta(t, tt.expected, result, 1e-12)
			assert.LessOrEqual(t, result, 0.0)
		})
	}

	assert.True(t, math.IsNaN(MaxDrawdown(nil)))
}

func TestLinearRegression(t *testing.T) {
	x := []float64{0.01, -0.02, 0.03, 0.00, 0.015}
	y := make([]float64, len(x))
	for i := range x {
		y[i] = 0.002 + 1.5*x[i]
	}

	alpha, beta := LinearRegression(x, y)
	assert.InDelta(t, 0.002, alpha, 1e-12)
	assert.InDelta(t, 1.5, beta, 1e-12)
}

func TestLinearRegression_InsufficientData(t *testing.T) {
	alpha, beta := LinearRegression([]float64{0.01}, []float64{0.02})
	assert.True(t, math.IsNaN(alpha))
	assert.True(t, math.IsNaN(beta))

	alpha, beta = LinearRegression([]float64{math.NaN(), 0.01, 0.02}, []float64{0.1, math.NaN(), 0.03})
	assert.True(t, math.IsNaN(alpha))
	assert.True(t, math.IsNaN(beta))
}

func TestTrackingError(t *testing.T) {
	x := []float64{0.01, 0.02, 0.03}
	assert.InDelta(t, 0, TrackingError(x, x), 1e-15)

	y := []float64{0.02, 0.02, 0.04}
	// differences 0.01, 0, 0.01 -> sample std = sqrt(1/3)*0.01
	assert.InDelta(t, 0.01*math.Sqrt(1.0/3.0), TrackingError(x, y), 1e-12)

	assert.True(t, math.IsNaN(TrackingError([]float64{0.1}, []float64{0.2})))
}
