// Package series turns raw observations into gap-free monthly index series.
package series

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aristath/navstats/internal/domain"
	"github.com/rs/zerolog"
)

// Result is a built index series plus any non-fatal advisories raised while building it
type Result struct {
	Series     domain.Series
	From       time.Time // effective start after clamping
	Advisories []string
}

// Builder converts raw observations of one entity into a re-based monthly index series
type Builder struct {
	source      domain.SeriesSource
	adjustments *Registry
	log         zerolog.Logger
}

// NewBuilder creates a new series builder. adjustments may be nil.
func NewBuilder(source domain.SeriesSource, adjustments *Registry, log zerolog.Logger) *Builder {
	return &Builder{
		source:      source,
		adjustments: adjustments,
		log:         log.With().Str("component", "series_builder").Logger(),
	}
}

// Build fetches the entity's observations in [from, to] and returns a monthly index series
// starting at domain.IndexBase. Fetch failures are returned as *domain.SourceFetchError.
func (b *Builder) Build(ctx context.Context, entityID string, from, to time.Time) (*Result, error) {
	from, to = domain.Day(from), domain.Day(to)

	raw, err := b.source.FetchSeries(ctx, entityID, from, to)
	if err != nil {
		return nil, &domain.SourceFetchError{EntityID: entityID, Err: err}
	}
	obs := normalize(raw, from, to)
	if len(obs) == 0 {
		return nil, &domain.SourceFetchError{
			EntityID: entityID,
			Err:      fmt.Errorf("no observations between %s and %s", from.Format(time.DateOnly), to.Format(time.DateOnly)),
		}
	}

	result := &Result{From: from}
	if !domain.SameMonth(obs[0].Date, from) && obs[0].Date.After(from) {
		result.From = obs[0].Date
		result.Advisories = append(result.Advisories, fmt.Sprintf(
			"%s: from-date %s precedes the earliest available observation, using %s",
			entityID, from.Format(time.DateOnly), obs[0].Date.Format(time.DateOnly)))
	}

	monthly := SelectMonthly(obs)
	if !monthly[0].Date.Equal(result.From) {
		if pin, ok := findOn(obs, result.From); ok {
			monthly = append([]domain.Observation{pin}, monthly...)
		} else {
			result.Advisories = append(result.Advisories, fmt.Sprintf(
				"%s: no observation on %s, series starts on %s",
				entityID, result.From.Format(time.DateOnly), monthly[0].Date.Format(time.DateOnly)))
		}
	}
	monthly = fillMonths(monthly)

	s := domain.NewSeries(entityID, monthly)
	adjustments := b.adjustments.For(entityID)
	if len(adjustments) == 0 {
		s = s.Rebase(domain.IndexBase)
	} else {
		returns := s.Returns()
		for _, adj := range adjustments {
			returns = adj.Adjust(returns)
			b.log.Debug().
				Str("entity", entityID).
				Str("adjustment", adj.Name()).
				Msg("Applied return adjustment")
		}
		s = returns.ToIndex(domain.IndexBase)
	}
	result.Series = s

	for _, advisory := range result.Advisories {
		b.log.Warn().Str("entity", entityID).Msg(advisory)
	}
	b.log.Debug().
		Str("entity", entityID).
		Int("rows", s.Len()).
		Msg("Series built")
	return result, nil
}

// SelectMonthly keeps the latest observation of every calendar month.
// Input must be sorted ascending.
func SelectMonthly(obs []domain.Observation) []domain.Observation {
	var out []domain.Observation
	for _, o := range obs {
		if n := len(out); n > 0 && domain.SameMonth(out[n-1].Date, o.Date) {
			out[n-1] = o
			continue
		}
		out = append(out, o)
	}
	return out
}

// normalize truncates dates to days, drops rows outside [from, to] and sorts ascending.
// For duplicate dates the last delivered value wins.
func normalize(raw []domain.Observation, from, to time.Time) []domain.Observation {
	obs := make([]domain.Observation, 0, len(raw))
	for _, o := range raw {
		d := domain.Day(o.Date)
		if d.Before(from) || d.After(to) {
			continue
		}
		obs = append(obs, domain.Observation{Date: d, Value: o.Value})
	}
	sort.SliceStable(obs, func(i, j int) bool { return obs[i].Date.Before(obs[j].Date) })

	out := obs[:0]
	for _, o := range obs {
		if n := len(out); n > 0 && out[n-1].Date.Equal(o.Date) {
			out[n-1] = o
			continue
		}
		out = append(out, o)
	}
	return out
}

func findOn(obs []domain.Observation, d time.Time) (domain.Observation, bool) {
	for _, o := range obs {
		if o.Date.Equal(d) {
			return o, true
		}
	}
	return domain.Observation{}, false
}

// fillMonths inserts a calendar month-end row carrying the previous value for every
// month without an observation.
func fillMonths(monthly []domain.Observation) []domain.Observation {
	if len(monthly) < 2 {
		return monthly
	}
	out := []domain.Observation{monthly[0]}
	for _, o := range monthly[1:] {
		prev := out[len(out)-1]
		next := domain.MonthStart(prev.Date).AddDate(0, 1, 0)
		for next.Before(domain.MonthStart(o.Date)) {
			out = append(out, domain.Observation{Date: domain.MonthEnd(next), Value: prev.Value})
			next = next.AddDate(0, 1, 0)
		}
		out = append(out, o)
	}
	return out
}
