package reporting

import (
	"encoding/json"
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

func twoYearTable(t *testing.T) *domain.ValueTable {
	t.Helper()
	// Dec 2019 inception, then 15 months of 1% growth
	table := domain.NewValueTable()
	table.SetSeries(domain.NewSeries("FUNDA",
		testingpkg.GrowingObservations(testingpkg.Date(2019, 12, 1), 16, 100, 0.01)))
	return table
}

func TestFormatter_Round(t *testing.T) {
	f := NewFormatter(2, silent)

	assert.Equal(t, 1.24, f.Round(1.235))
	assert.Equal(t, -1.24, f.Round(-1.235))
	assert.True(t, math.IsNaN(f.Round(math.NaN())))
	assert.True(t, math.IsInf(f.Round(math.Inf(1)), 1))
}

func TestFormatter_NegativePrecisionUsesDefault(t *testing.T) {
	f := NewFormatter(-1, silent)
	assert.Equal(t, 0.1235, f.Round(0.123456))
}

func TestFormatter_Cumulative(t *testing.T) {
	table := domain.NewValueTable()
	nan := math.NaN()
	table.SetSeries(domain.Series{
		Name:   "FUNDA",
		Dates:  testingpkg.MonthEnds(testingpkg.Date(2020, 1, 1), 3),
		Values: []float64{100, 110, 99},
	})
	table.SetSeries(domain.Series{
		Name:   "LATE",
		Dates:  testingpkg.MonthEnds(testingpkg.Date(2020, 1, 1), 3),
		Values: []float64{nan, 50, 55},
	})
	f := NewFormatter(DefaultPrecision, silent)

	curve, err := f.Cumulative(table, []string{"FUNDA", "LATE"})
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 10, -1}, curve.Series["FUNDA"])
	assert.True(t, math.IsNaN(curve.Series["LATE"][0]))
	assert.Equal(t, []float64{0, 10}, curve.Series["LATE"][1:])

	raw, err := json.Marshal(curve)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"LATE":[null,0,10]`)
	assert.Contains(t, string(raw), `"2020-02-29"`)
}

func TestFormatter_Pivot(t *testing.T) {
	f := NewFormatter(6, silent)

	pivot, err := f.Pivot(twoYearTable(t), "FUNDA")
	require.NoError(t, err)
	require.Len(t, pivot.Rows, 2)

	full := pivot.Rows[0]
	assert.Equal(t, 2020, full.Year)
	for _, m := range full.Months {
		assert.InDelta(t, 1.0, m, 1e-6)
	}
	quarter := (math.Pow(1.01, 3) - 1) * 100
	for _, q := range full.Quarters {
		assert.InDelta(t, quarter, q, 1e-6)
	}
	year := (math.Pow(1.01, 12) - 1) * 100
	assert.InDelta(t, year, full.Annual, 1e-6)
	assert.InDelta(t, year, full.YTD, 1e-6)

	partial := pivot.Rows[1]
	assert.Equal(t, 2021, partial.Year)
	assert.InDelta(t, 1.0, partial.Months[2], 1e-6)
	assert.True(t, math.IsNaN(partial.Months[3]))
	assert.True(t, math.IsNaN(partial.Annual), "incomplete year has no annual figure")
	assert.True(t, math.IsNaN(partial.Quarters[1]))
	assert.InDelta(t, quarter, partial.YTD, 1e-6)
}

func TestFormatter_PivotUsesSameCompounding(t *testing.T) {
	table := twoYearTable(t)
	col, _ := table.Column("FUNDA")
	f := NewFormatter(10, silent)

	pivot, err := f.Pivot(table, "FUNDA")
	require.NoError(t, err)

	// a full year of pivot months compounds to the index's own 12-month change
	var months []float64
	for _, m := range pivot.Rows[0].Months {
		months = append(months, m/100)
	}
	want := formulas.SimpleReturn(col.Values[0], col.Values[12]) * 100
	assert.InDelta(t, want, formulas.CompoundReturn(months)*100, 1e-6)
}

func TestFormatter_CurrentYear(t *testing.T) {
	table := twoYearTable(t)
	f := NewFormatter(DefaultPrecision, silent)
	stats := []domain.StatisticsRow{{Entity: "FUNDA", ReturnYTD: 3.030101}}

	detail, err := f.CurrentYear(table, []string{"FUNDA"}, stats)
	require.NoError(t, err)

	assert.Equal(t, 2021, detail.Year)
	require.Len(t, detail.Rows, 1)
	row := detail.Rows[0]
	assert.Equal(t, 1.0, row.Months[0])
	assert.True(t, math.IsNaN(row.Months[11]))
	assert.Equal(t, 3.0301, row.YTD)

	raw, err := json.Marshal(detail)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"ytd":3.0301`)
}

func TestFormatter_MissingEntity(t *testing.T) {
	f := NewFormatter(DefaultPrecision, silent)

	_, err := f.Pivot(twoYearTable(t), "NOPE")

	var gapErr *domain.DataGapError
	assert.ErrorAs(t, err, &gapErr)
}

func TestMonthlyReturns_SkipsInceptionRow(t *testing.T) {
	s := domain.Series{
		Name: "FUNDA",
		Dates: append(
			[]time.Time{testingpkg.Date(2019, 12, 16)},
			testingpkg.MonthEnds(testingpkg.Date(2019, 12, 1), 2)...,
		),
		Values: []float64{100, 102, 103.02},
	}

	months := MonthlyReturns(s)

	dec, ok := months.get(2019, time.December)
	require.True(t, ok)
	assert.InDelta(t, 0.02, dec, 1e-12)
	jan, ok := months.get(2020, time.January)
	require.True(t, ok)
	assert.InDelta(t, 0.01, jan, 1e-12)
}
