package composites

import (
	"fmt"
	"math"
	"time"

	"github.com/aristath/navstats/internal/domain"
	"github.com/aristath/navstats/pkg/formulas"
	"github.com/rs/zerolog"
)

// Aggregator derives composite columns from constituent columns of a value table.
// Every composite starts at domain.IndexBase on the panel's earliest date.
type Aggregator struct {
	log zerolog.Logger
}

// NewAggregator creates a new composite aggregator
func NewAggregator(log zerolog.Logger) *Aggregator {
	return &Aggregator{
		log: log.With().Str("component", "composite_aggregator").Logger(),
	}
}

// ApplyAll applies the composites in order, so later composites may use earlier ones
func (a *Aggregator) ApplyAll(table *domain.ValueTable, specs []domain.CompositeSpec) error {
	for _, spec := range specs {
		if err := a.Apply(table, spec); err != nil {
			return err
		}
	}
	return nil
}

// Apply computes one composite and stores it under its name, replacing an existing column
func (a *Aggregator) Apply(table *domain.ValueTable, spec domain.CompositeSpec) error {
	returns, err := constituentReturns(table, spec)
	if err != nil {
		return err
	}

	var combined []float64
	switch s := spec.(type) {
	case domain.WeightedPair:
		combined = blend(returns[s.Index1], s.Weight1, returns[s.Index2], s.Weight2)
	case domain.RateOffset:
		combined = addOffset(returns[s.BaseIndex], formulas.MonthlyEquivalent(s.Offset))
	case domain.PeriodicSwitch:
		combined = stitch(table.Dates(), s.Legs, returns)
	default:
		return fmt.Errorf("unsupported composite type %T", spec)
	}

	if len(combined) > 0 {
		combined[0] = 0
	}
	levels := formulas.Compound(domain.IndexBase, combined)
	if err := table.SetColumn(spec.CompositeName(), levels); err != nil {
		return fmt.Errorf("failed to store composite %s: %w", spec.CompositeName(), err)
	}

	a.log.Debug().
		Str("composite", spec.CompositeName()).
		Str("kind", string(spec.Kind())).
		Int("rows", len(levels)).
		Msg("Composite applied")
	return nil
}

func constituentReturns(table *domain.ValueTable, spec domain.CompositeSpec) (map[string][]float64, error) {
	returns := make(map[string][]float64)
	var missing []string
	for _, id := range spec.Constituents() {
		col, ok := table.Column(id)
		if !ok {
			missing = append(missing, id)
			continue
		}
		returns[id] = col.Returns().Values
	}
	if len(missing) > 0 {
		return nil, &domain.DataGapError{Columns: missing}
	}
	return returns, nil
}

func blend(r1 []float64, w1 float64, r2 []float64, w2 float64) []float64 {
	out := make([]float64, len(r1))
	for i := range out {
		out[i] = w1*r1[i] + w2*r2[i]
	}
	return out
}

func addOffset(base []float64, monthly float64) []float64 {
	out := make([]float64, len(base))
	for i, r := range base {
		out[i] = r + monthly
	}
	return out
}

// stitch picks, per row, the return of the leg active on that date: active strictly after its
// From date, latest From wins, ties go to the leg registered last. Rows with no active leg are NaN.
func stitch(dates []time.Time, legs []domain.SwitchLeg, returns map[string][]float64) []float64 {
	out := make([]float64, len(dates))
	for i, d := range dates {
		active := activeLeg(d, legs)
		if active < 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = returns[legs[active].ID][i]
	}
	return out
}

func activeLeg(d time.Time, legs []domain.SwitchLeg) int {
	active := -1
	for j, leg := range legs {
		if !leg.From.IsZero() && !d.After(leg.From) {
			continue
		}
		if active < 0 || !leg.From.Before(legs[active].From) {
			active = j
		}
	}
	return active
}
