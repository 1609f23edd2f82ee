// Package hedging converts share class index series from their class currency into
// the reporting currency by adding the monthly-equivalent hedge cost to every return.
package hedging

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/aristath/navstats/internal/domain"
	"github.com/aristath/navstats/pkg/formulas"
	"github.com/rs/zerolog"
)

// Overlay applies hedge costs to share class series
type Overlay struct {
	source domain.HedgeCostSource
	log    zerolog.Logger
}

// NewOverlay creates a new hedging overlay
func NewOverlay(source domain.HedgeCostSource, log zerolog.Logger) *Overlay {
	return &Overlay{
		source: source,
		log:    log.With().Str("component", "hedging_overlay").Logger(),
	}
}

// Apply returns s expressed in the reporting currency. When both currencies match the
// series is returned unchanged. Missing hedge data for any required month is fatal and
// returned as a *domain.SourceFetchError wrapping domain.ErrNoHedgeCost.
func (o *Overlay) Apply(ctx context.Context, s domain.Series, classCurrency, reportingCurrency domain.Currency) (domain.Series, error) {
	from, err := domain.ParseCurrency(string(classCurrency))
	if err != nil {
		return domain.Series{}, err
	}
	to, err := domain.ParseCurrency(string(reportingCurrency))
	if err != nil {
		return domain.Series{}, err
	}
	if from == to {
		return s.Clone(s.Name), nil
	}

	first := s.FirstValid()
	if first < 0 {
		return s.Clone(s.Name), nil
	}
	pair := string(from) + "/" + string(to)

	costs, err := o.source.FetchHedgeCost(ctx, from, to, s.Dates[first])
	if err != nil {
		return domain.Series{}, &domain.SourceFetchError{EntityID: pair, Err: err}
	}

	monthly, err := ResampleMonthly(costs, s.Dates[first+1:])
	if err != nil {
		return domain.Series{}, &domain.SourceFetchError{EntityID: pair, Err: err}
	}

	returns := s.Returns()
	for i, annualPct := range monthly {
		row := first + 1 + i
		if math.IsNaN(returns.Values[row]) {
			continue
		}
		returns.Values[row] += formulas.MonthlyEquivalent(annualPct / 100)
	}
	returns.Values[first] = 0

	hedged := returns.ToIndex(domain.IndexBase)
	o.log.Debug().
		Str("series", s.Name).
		Str("pair", pair).
		Int("months", len(monthly)).
		Msg("Applied hedge overlay")
	return hedged, nil
}

// ResampleMonthly returns, for every date, the latest hedge cost observed on or before the
// end of that date's month. Observations are front-filled, so a month without its own
// quote inherits the previous one. A date with no prior observation yields ErrNoHedgeCost.
func ResampleMonthly(costs []domain.Observation, dates []time.Time) ([]float64, error) {
	sorted := make([]domain.Observation, 0, len(costs))
	for _, c := range costs {
		if math.IsNaN(c.Value) {
			continue
		}
		sorted = append(sorted, c)
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	out := make([]float64, len(dates))
	for i, d := range dates {
		cutoff := domain.MonthEnd(d)
		// first observation strictly after the cutoff
		k := sort.Search(len(sorted), func(j int) bool { return domain.Day(sorted[j].Date).After(cutoff) })
		if k == 0 {
			return nil, fmt.Errorf("%w for %s", domain.ErrNoHedgeCost, d.Format("2006-01"))
		}
		out[i] = sorted[k-1].Value
	}
	return out, nil
}
