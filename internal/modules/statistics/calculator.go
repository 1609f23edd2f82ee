// Package statistics computes the per-entity performance and risk panel from a finished value table.
package statistics

import (
	"math"
	"time"

	"github.com/aristath/navstats/internal/domain"
	"github.com/aristath/navstats/pkg/formulas"
	"github.com/rs/zerolog"
)

// Trailing lookbacks are observation counts on the monthly grid: a 1-year return needs the
// value 12 months back plus the latest one.
const (
	Lookback1M  = 2
	Lookback1Y  = 13
	Lookback3Y  = 37
	Lookback5Y  = 61
	Lookback10Y = 121
)

// Calculator computes StatisticsRow values
type Calculator struct {
	log zerolog.Logger
}

// NewCalculator creates a new statistics calculator
func NewCalculator(log zerolog.Logger) *Calculator {
	return &Calculator{
		log: log.With().Str("component", "statistics_calculator").Logger(),
	}
}

// Calculate returns one row per entity, in the given order. Alpha, beta and tracking error
// regress the fund's monthly returns on each entity's; they stay NaN for the fund itself.
// The risk-free column is optional: without it both Sharpe ratios are NaN.
func (c *Calculator) Calculate(table *domain.ValueTable, fund string, entities []string) ([]domain.StatisticsRow, error) {
	fundCol, ok := table.Column(fund)
	if !ok {
		return nil, &domain.DataGapError{Columns: []string{fund}}
	}
	fundReturns := formulas.CalculateReturns(fundCol.Values)

	riskFree, hasRiskFree := table.Column(domain.RiskFreeColumn)

	rows := make([]domain.StatisticsRow, 0, len(entities))
	for _, entity := range entities {
		col, ok := table.Column(entity)
		if !ok {
			return nil, &domain.DataGapError{Columns: []string{entity}}
		}

		row := c.row(col)
		if hasRiskFree {
			first := col.FirstValid()
			if first >= 0 {
				rf := riskFree.Values[first:]
				rfReturn, rfAnnualized := sinceInception(rf)
				row.Sharpe = sharpe(row.ReturnSI, rfReturn, row.Volatility)
				row.SharpeAnnualized = sharpe(row.ReturnSIAnnualized, rfAnnualized, row.VolatilityAnnualized)
			}
		}

		if entity != fund {
			entityReturns := formulas.CalculateReturns(col.Values)
			alpha, beta := formulas.LinearRegression(entityReturns, fundReturns)
			row.Alpha = alpha * 100
			row.Beta = beta
			row.TrackingError = formulas.TrackingError(entityReturns, fundReturns) * math.Sqrt(formulas.MonthsPerYear) * 100
		}

		c.log.Debug().
			Str("entity", entity).
			Float64("return_si", row.ReturnSI).
			Float64("volatility_annualized", row.VolatilityAnnualized).
			Msg("Calculated statistics")
		rows = append(rows, row)
	}
	return rows, nil
}

// row fills every field that depends on the entity's own history only
func (c *Calculator) row(col domain.Series) domain.StatisticsRow {
	nan := math.NaN()
	row := domain.StatisticsRow{
		Entity:           col.Name,
		Sharpe:           nan,
		SharpeAnnualized: nan,
		TrackingError:    nan,
		Alpha:            nan,
		Beta:             nan,
	}

	s := col.Valid()
	values := s.Values

	row.Return1M = TrailingReturn(values, Lookback1M)
	row.ReturnYTD = TrailingReturn(values, YTDLookback(s.Dates))
	row.Return1Y = TrailingReturn(values, Lookback1Y)
	row.Return3Y = annualizedTrailing(values, Lookback3Y, 3)
	row.Return5Y = annualizedTrailing(values, Lookback5Y, 5)
	row.Return10Y = annualizedTrailing(values, Lookback10Y, 10)
	row.ReturnSI, row.ReturnSIAnnualized = sinceInception(values)

	returns := formulas.CalculateReturns(values)
	std := formulas.StdDev(returns)
	row.Volatility = std * math.Sqrt(float64(len(returns))) * 100
	row.VolatilityAnnualized = std * math.Sqrt(formulas.MonthsPerYear) * 100

	row.MaxDrawdown = formulas.MaxDrawdown(values) * 100
	return row
}

// TrailingReturn is the simple return in percent between the value n-1 rows back and the
// latest value. Fewer than n observations yield NaN.
func TrailingReturn(values []float64, n int) float64 {
	if n < 2 || len(values) < n {
		return math.NaN()
	}
	return formulas.SimpleReturn(values[len(values)-n], values[len(values)-1]) * 100
}

// YTDLookback returns the observation count covering the current year: the months from the
// prior 31 December to the latest date plus one. A series that starts after that
// 31 December uses its whole length.
func YTDLookback(dates []time.Time) int {
	if len(dates) == 0 {
		return 0
	}
	last := dates[len(dates)-1]
	yearEnd := time.Date(last.Year()-1, time.December, 31, 0, 0, 0, 0, time.UTC)
	if dates[0].After(yearEnd) {
		return len(dates)
	}
	months := (last.Year()-yearEnd.Year())*12 + int(last.Month()) - int(yearEnd.Month())
	return months + 1
}

func annualizedTrailing(values []float64, n int, years float64) float64 {
	ret := TrailingReturn(values, n)
	return formulas.Annualize(ret/100, 1/years) * 100
}

// sinceInception returns the total and annualized return in percent over the whole slice.
// The annualization exponent is 12/(n-1).
func sinceInception(values []float64) (float64, float64) {
	n := len(values)
	if n < 2 {
		return math.NaN(), math.NaN()
	}
	ret := formulas.SimpleReturn(values[0], values[n-1])
	annualized := formulas.Annualize(ret, formulas.MonthsPerYear/float64(n-1))
	return ret * 100, annualized * 100
}

func sharpe(ret, riskFree, vol float64) float64 {
	if vol == 0 || math.IsNaN(vol) {
		return math.NaN()
	}
	return (ret - riskFree) / vol
}
