// Package reporting reshapes a finished value table and its statistics into presentation views:
// cumulative return curves, year/quarter/month pivots and the current-year detail table.
package reporting

import (
	"math"
	"sort"
	"time"

	"github.com/aristath/navstats/internal/domain"
	"github.com/aristath/navstats/pkg/formulas"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultPrecision is the number of decimals kept in presentation tables
const DefaultPrecision = 4

// Formatter builds the presentation views
type Formatter struct {
	precision int32
	log       zerolog.Logger
}

// NewFormatter creates a formatter rounding to precision decimals
func NewFormatter(precision int, log zerolog.Logger) *Formatter {
	if precision < 0 {
		precision = DefaultPrecision
	}
	return &Formatter{
		precision: int32(precision),
		log:       log.With().Str("component", "output_formatter").Logger(),
	}
}

// Round rounds half away from zero to the configured precision. NaN and infinities pass through.
func (f *Formatter) Round(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	rounded, _ := decimal.NewFromFloat(v).Round(f.precision).Float64()
	return rounded
}

// Cumulative returns each entity's cumulative return curve in percent, zero on its inception row
func (f *Formatter) Cumulative(table *domain.ValueTable, entities []string) (*Cumulative, error) {
	out := &Cumulative{
		Dates:    table.Dates(),
		Entities: append([]string(nil), entities...),
		Series:   make(map[string][]float64, len(entities)),
	}
	for _, entity := range entities {
		col, ok := table.Column(entity)
		if !ok {
			return nil, &domain.DataGapError{Columns: []string{entity}}
		}
		growth := col.Returns().ToIndex(1)
		values := make([]float64, growth.Len())
		for i, g := range growth.Values {
			values[i] = f.Round((g - 1) * 100)
		}
		out.Series[entity] = values
	}
	return out, nil
}

// Pivot returns the entity's monthly returns by year with quarter, full-year and YTD columns.
// Periods are compounded from monthly returns; a full-year figure needs all twelve months.
func (f *Formatter) Pivot(table *domain.ValueTable, entity string) (*Pivot, error) {
	col, ok := table.Column(entity)
	if !ok {
		return nil, &domain.DataGapError{Columns: []string{entity}}
	}
	months := MonthlyReturns(col)

	pivot := &Pivot{Entity: entity}
	for _, year := range months.years() {
		row := PivotRow{Year: year}
		var ytd []float64
		complete := true
		for m := 0; m < 12; m++ {
			r, ok := months.get(year, time.Month(m+1))
			row.Months[m] = f.Round(r * 100)
			if !ok {
				complete = false
				continue
			}
			ytd = append(ytd, r)
		}
		for q := 0; q < 4; q++ {
			row.Quarters[q] = f.Round(months.compound(year, q*3+1, q*3+3) * 100)
		}
		row.Annual = math.NaN()
		if complete {
			row.Annual = f.Round(formulas.CompoundReturn(ytd) * 100)
		}
		row.YTD = f.Round(formulas.CompoundReturn(ytd) * 100)
		pivot.Rows = append(pivot.Rows, row)
	}

	f.log.Debug().
		Str("entity", entity).
		Int("years", len(pivot.Rows)).
		Msg("Built return pivot")
	return pivot, nil
}

// CurrentYear returns the month and quarter detail of the table's latest calendar year for each
// entity, merged with the entity's YTD statistic.
func (f *Formatter) CurrentYear(table *domain.ValueTable, entities []string, stats []domain.StatisticsRow) (*CurrentYear, error) {
	if table.Len() == 0 {
		return &CurrentYear{}, nil
	}
	dates := table.Dates()
	year := dates[len(dates)-1].Year()

	ytd := make(map[string]float64, len(stats))
	for _, row := range stats {
		ytd[row.Entity] = row.ReturnYTD
	}

	out := &CurrentYear{Year: year}
	for _, entity := range entities {
		col, ok := table.Column(entity)
		if !ok {
			return nil, &domain.DataGapError{Columns: []string{entity}}
		}
		months := MonthlyReturns(col)
		row := CurrentYearRow{Entity: entity, YTD: math.NaN()}
		for m := 0; m < 12; m++ {
			r, _ := months.get(year, time.Month(m+1))
			row.Months[m] = f.Round(r * 100)
		}
		for q := 0; q < 4; q++ {
			row.Quarters[q] = f.Round(months.compound(year, q*3+1, q*3+3) * 100)
		}
		if v, ok := ytd[entity]; ok {
			row.YTD = f.Round(v)
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

// Statistics returns a rounded copy of the statistics rows
func (f *Formatter) Statistics(rows []domain.StatisticsRow) []domain.StatisticsRow {
	out := make([]domain.StatisticsRow, len(rows))
	for i, r := range rows {
		out[i] = domain.StatisticsRow{
			Entity:               r.Entity,
			Return1M:             f.Round(r.Return1M),
			ReturnYTD:            f.Round(r.ReturnYTD),
			Return1Y:             f.Round(r.Return1Y),
			Return3Y:             f.Round(r.Return3Y),
			Return5Y:             f.Round(r.Return5Y),
			Return10Y:            f.Round(r.Return10Y),
			ReturnSI:             f.Round(r.ReturnSI),
			ReturnSIAnnualized:   f.Round(r.ReturnSIAnnualized),
			Volatility:           f.Round(r.Volatility),
			VolatilityAnnualized: f.Round(r.VolatilityAnnualized),
			Sharpe:               f.Round(r.Sharpe),
			SharpeAnnualized:     f.Round(r.SharpeAnnualized),
			MaxDrawdown:          f.Round(r.MaxDrawdown),
			TrackingError:        f.Round(r.TrackingError),
			Alpha:                f.Round(r.Alpha),
			Beta:                 f.Round(r.Beta),
		}
	}
	return out
}

type monthKey struct {
	year  int
	month time.Month
}

// Monthly holds calendar-month returns as fractions
type Monthly map[monthKey]float64

// MonthlyReturns compounds the row returns of an index series within each calendar month.
// The inception row carries no return and is skipped, so a partial first month only covers
// the rows after inception.
func MonthlyReturns(s domain.Series) Monthly {
	returns := s.Returns()
	first := returns.FirstValid()
	groups := make(map[monthKey][]float64)
	if first >= 0 {
		for i := first + 1; i < returns.Len(); i++ {
			d := returns.Dates[i]
			key := monthKey{year: d.Year(), month: d.Month()}
			groups[key] = append(groups[key], returns.Values[i])
		}
	}
	out := make(Monthly, len(groups))
	for key, rs := range groups {
		r := formulas.CompoundReturn(rs)
		if !math.IsNaN(r) {
			out[key] = r
		}
	}
	return out
}

func (m Monthly) get(year int, month time.Month) (float64, bool) {
	r, ok := m[monthKey{year: year, month: month}]
	if !ok {
		return math.NaN(), false
	}
	return r, true
}

// compound chains the available months in [fromMonth, toMonth] of year, NaN when none exist
func (m Monthly) compound(year, fromMonth, toMonth int) float64 {
	var rs []float64
	for month := fromMonth; month <= toMonth; month++ {
		if r, ok := m.get(year, time.Month(month)); ok {
			rs = append(rs, r)
		}
	}
	return formulas.CompoundReturn(rs)
}

func (m Monthly) years() []int {
	seen := make(map[int]bool)
	var years []int
	for key := range m {
		if !seen[key.year] {
			seen[key.year] = true
			years = append(years, key.year)
		}
	}
	sort.Ints(years)
	return years
}
