package statistics

import (
	"math"
	"testing"
	"time"

	"github.com/aristath/navstats/internal/domain"
	testingpkg "github.com/aristath/navstats/internal/testing"
	"github.com/aristath/navstats/pkg/formulas"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var silent = zerolog.New(nil).Level(zerolog.Disabled)

var start = testingpkg.Date(2020, 1, 1)

// levels compounds returns from 100 with an inception row
func levels(returns ...float64) []float64 {
	return formulas.Compound(100, append([]float64{0}, returns...))
}

func tableWith(t *testing.T, columns map[string][]float64) *domain.ValueTable {
	t.Helper()
	table := domain.NewValueTable()
	for name, values := range columns {
		table.SetSeries(domain.Series{
			Name:   name,
			Dates:  testingpkg.MonthEnds(start, len(values)),
			Values: values,
		})
	}
	return table
}

func TestCalculate_ThirteenMonthSeries(t *testing.T) {
	values := []float64{100, 101, 102.5, 103, 104, 103.5, 105, 106, 107, 106.5, 108, 109, 110}
	table := tableWith(t, map[string][]float64{"FUNDA": values})
	calc := NewCalculator(silent)

	rows, err := calc.Calculate(table, "FUNDA", []string{"FUNDA"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	row := rows[0]

	assert.Equal(t, "FUNDA", row.Entity)
	assert.InDelta(t, (110.0/100-1)*100, row.Return1Y, 1e-9)
	assert.InDelta(t, (110.0/109-1)*100, row.Return1M, 1e-9)
	assert.InDelta(t, 10.0, row.ReturnSI, 1e-9)
	assert.InDelta(t, 10.0, row.ReturnSIAnnualized, 1e-9, "12 returns annualize with exponent 1")
	assert.True(t, math.IsNaN(row.Return3Y))
	assert.True(t, math.IsNaN(row.Return5Y))
	assert.True(t, math.IsNaN(row.Return10Y))
	assert.True(t, math.IsNaN(row.Alpha), "no self-regression")
	assert.True(t, math.IsNaN(row.Beta))
	assert.True(t, math.IsNaN(row.TrackingError))
	assert.True(t, math.IsNaN(row.Sharpe), "no risk-free column")
}

func TestTrailingReturn_Boundary(t *testing.T) {
	tests := []struct {
		name     string
		n        int
		lookback int
		defined  bool
	}{
		{"1M exact", 2, Lookback1M, true},
		{"1M short", 1, Lookback1M, false},
		{"1Y exact", 13, Lookback1Y, true},
		{"1Y short", 12, Lookback1Y, false},
		{"3Y exact", 37, Lookback3Y, true},
		{"3Y short", 36, Lookback3Y, false},
		{"5Y exact", 61, Lookback5Y, true},
		{"10Y short", 120, Lookback10Y, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := make([]float64, tt.n)
			for i := range values {
				values[i] = 100 + float64(i)
			}
			got := TrailingReturn(values, tt.lookback)
			assert.Equal(t, tt.defined, !math.IsNaN(got))
		})
	}
}

func TestYTDLookback(t *testing.T) {
	tests := []struct {
		name  string
		dates []time.Time
		want  int
	}{
		{
			name:  "spans the year end",
			dates: testingpkg.MonthEnds(testingpkg.Date(2020, 1, 1), 15),
			want:  4,
		},
		{
			name:  "latest date is a year end",
			dates: testingpkg.MonthEnds(testingpkg.Date(2019, 6, 1), 19),
			want:  13,
		},
		{
			name:  "inception after the prior year end",
			dates: testingpkg.MonthEnds(testingpkg.Date(2021, 1, 1), 3),
			want:  3,
		},
		{
			name:  "inception on the prior year end",
			dates: testingpkg.MonthEnds(testingpkg.Date(2020, 12, 1), 4),
			want:  4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, YTDLookback(tt.dates))
		})
	}
}

func TestCalculate_YTD(t *testing.T) {
	values := levels(0.01, 0.01, 0.01, 0.01, 0.01, 0.01, 0.01, 0.01, 0.01, 0.01, 0.01, 0.02, 0.03, -0.01)
	table := tableWith(t, map[string][]float64{"FUNDA": values})

	rows, err := NewCalculator(silent).Calculate(table, "FUNDA", []string{"FUNDA"})
	require.NoError(t, err)

	// Dec 2020 -> Mar 2021
	want := ((1.02 * 1.03 * 0.99) - 1) * 100
	assert.InDelta(t, want, rows[0].ReturnYTD, 1e-9)
}

func TestCalculate_Volatility(t *testing.T) {
	returns := []float64{0.01, -0.02, 0.03, 0.005, -0.01}
	table := tableWith(t, map[string][]float64{"FUNDA": levels(returns...)})

	rows, err := NewCalculator(silent).Calculate(table, "FUNDA", []string{"FUNDA"})
	require.NoError(t, err)

	std := formulas.StdDev(returns)
	assert.InDelta(t, std*math.Sqrt(5)*100, rows[0].Volatility, 1e-9)
	assert.InDelta(t, std*math.Sqrt(12)*100, rows[0].VolatilityAnnualized, 1e-9)
}

func TestCalculate_Sharpe(t *testing.T) {
	fundReturns := []float64{0.01, -0.02, 0.03, 0.005, -0.01}
	rf := levels(0.001, 0.001, 0.001, 0.001, 0.001)
	table := tableWith(t, map[string][]float64{
		"FUNDA":               levels(fundReturns...),
		domain.RiskFreeColumn: rf,
	})

	rows, err := NewCalculator(silent).Calculate(table, "FUNDA", []string{"FUNDA"})
	require.NoError(t, err)
	row := rows[0]

	rfReturn := (math.Pow(1.001, 5) - 1) * 100
	rfAnnualized := (math.Pow(1+rfReturn/100, 12.0/5) - 1) * 100
	assert.InDelta(t, (row.ReturnSI-rfReturn)/row.Volatility, row.Sharpe, 1e-9)
	assert.InDelta(t, (row.ReturnSIAnnualized-rfAnnualized)/row.VolatilityAnnualized, row.SharpeAnnualized, 1e-9)
}

func TestCalculate_SharpeUndefinedForZeroVolatility(t *testing.T) {
	table := tableWith(t, map[string][]float64{
		"FLAT":                {100, 100, 100},
		domain.RiskFreeColumn: {100, 100.1, 100.2},
	})

	rows, err := NewCalculator(silent).Calculate(table, "FLAT", []string{"FLAT"})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(rows[0].Sharpe))
	assert.True(t, math.IsNaN(rows[0].SharpeAnnualized))
}

func TestCalculate_MaxDrawdown(t *testing.T) {
	table := tableWith(t, map[string][]float64{
		"FUNDA":  {100, 120, 90, 130},
		"RISING": {100, 100, 101, 105},
	})

	rows, err := NewCalculator(silent).Calculate(table, "FUNDA", []string{"FUNDA", "RISING"})
	require.NoError(t, err)

	assert.InDelta(t, -25.0, rows[0].MaxDrawdown, 1e-9)
	assert.Equal(t, 0.0, rows[1].MaxDrawdown)
	for _, row := range rows {
		assert.LessOrEqual(t, row.MaxDrawdown, 0.0)
	}
}

func TestCalculate_RegressionAgainstBenchmark(t *testing.T) {
	benchmark := []float64{0.01, -0.02, 0.03, 0.005, -0.01}
	fund := make([]float64, len(benchmark))
	for i, r := range benchmark {
		fund[i] = 0.001 + 2*r
	}
	table := tableWith(t, map[string][]float64{
		"FUNDA": levels(fund...),
		"IDX":   levels(benchmark...),
	})

	rows, err := NewCalculator(silent).Calculate(table, "FUNDA", []string{"FUNDA", "IDX"})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.True(t, math.IsNaN(rows[0].Beta))
	assert.InDelta(t, 2.0, rows[1].Beta, 1e-9)
	assert.InDelta(t, 0.1, rows[1].Alpha, 1e-9)
	diffStd := formulas.StdDev(benchmark)
	assert.InDelta(t, diffStd*math.Sqrt(12)*100, rows[1].TrackingError, 1e-9)
}

func TestCalculate_LateInceptionUsesOwnWindow(t *testing.T) {
	nan := math.NaN()
	table := tableWith(t, map[string][]float64{
		"FUNDA": {100, 101, 102, 103, 104},
		"LATE":  {nan, nan, 100, 105, 110},
	})

	rows, err := NewCalculator(silent).Calculate(table, "FUNDA", []string{"LATE"})
	require.NoError(t, err)

	assert.InDelta(t, 10.0, rows[0].ReturnSI, 1e-9)
	assert.InDelta(t, (110.0/105-1)*100, rows[0].Return1M, 1e-9)
	assert.False(t, math.IsNaN(rows[0].Beta))
}

func TestCalculate_MissingColumn(t *testing.T) {
	table := tableWith(t, map[string][]float64{"FUNDA": {100, 101}})

	_, err := NewCalculator(silent).Calculate(table, "FUNDA", []string{"NOPE"})

	var gapErr *domain.DataGapError
	require.ErrorAs(t, err, &gapErr)
	assert.Equal(t, []string{"NOPE"}, gapErr.Columns)
}
