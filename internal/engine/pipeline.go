package engine

import (
	"context"

	"github.com/aristath/navstats/internal/domain"
	"github.com/aristath/navstats/internal/utils"
	"github.com/rs/zerolog"
)

// run carries the state of a single request through the pipeline
type run struct {
	engine *Engine
	req    Request
	log    zerolog.Logger
	table  *domain.ValueTable
	result *Result

	advisories []string
	built      map[string]bool
}

func (r *run) execute(ctx context.Context) error {
	e := r.engine
	r.built = make(map[string]bool)

	riskFreeIndex, err := e.riskFree.Select(r.req.ReportingCurrency)
	if err != nil {
		return err
	}
	reportingCurrency, err := domain.ParseCurrency(string(r.req.ReportingCurrency))
	if err != nil {
		return err
	}

	constituents, specs, err := e.parser.Expand(r.req.Indices)
	if err != nil {
		return err
	}

	if err := r.stage("share_classes", func() error { return r.buildShareClasses(ctx, reportingCurrency) }); err != nil {
		return err
	}
	if err := r.stage("indices", func() error {
		for _, id := range constituents {
			if err := r.buildIndex(ctx, id, id); err != nil {
				return err
			}
		}
		for _, sw := range r.req.Switches {
			for _, leg := range sw.Legs {
				if r.table.Has(leg.ID) || isComposite(leg.ID, specs, r.req.Switches) {
					continue
				}
				if err := r.buildIndex(ctx, leg.ID, leg.ID); err != nil {
					return err
				}
			}
		}
		return r.buildIndex(ctx, riskFreeIndex, domain.RiskFreeColumn)
	}); err != nil {
		return err
	}

	r.table.FrontFill()

	if err := r.stage("composites", func() error {
		if len(r.req.Fund.ShareClasses) > 1 {
			if err := e.aggregator.Apply(r.table, fundSwitch(r.req.Fund)); err != nil {
				return err
			}
		}
		if err := e.aggregator.ApplyAll(r.table, specs); err != nil {
			return err
		}
		switches := make([]domain.CompositeSpec, len(r.req.Switches))
		for i, sw := range r.req.Switches {
			switches[i] = sw
		}
		return e.aggregator.ApplyAll(r.table, switches)
	}); err != nil {
		return err
	}

	reportable := r.reportable(constituents)
	if err := r.table.Validate(append(reportable, domain.RiskFreeColumn)); err != nil {
		return err
	}

	return r.stage("statistics", func() error {
		stats, err := e.calculator.Calculate(r.table, r.req.Fund.Code, reportable)
		if err != nil {
			return err
		}
		return r.format(reportable, stats)
	})
}

// stage runs fn under a timer named after the pipeline stage
func (r *run) stage(name string, fn func() error) error {
	timer := utils.NewTimer(name, r.log)
	defer timer.Stop()
	return fn()
}

// buildShareClasses builds and hedges every share class. A single class becomes the fund
// column directly; several classes are stitched into it later by a periodic switch.
func (r *run) buildShareClasses(ctx context.Context, reportingCurrency domain.Currency) error {
	e := r.engine
	single := len(r.req.Fund.ShareClasses) == 1
	for _, class := range r.req.Fund.ShareClasses {
		built, err := e.builder.Build(ctx, class.ID, r.req.From, r.req.To)
		if err != nil {
			return err
		}
		r.advisories = append(r.advisories, built.Advisories...)

		hedged, err := e.overlay.Apply(ctx, built.Series, class.Currency, reportingCurrency)
		if err != nil {
			return err
		}
		if single {
			r.table.SetSeries(hedged.Clone(r.req.Fund.Code))
		}
		if !single || class.ID != r.req.Fund.Code {
			r.table.SetSeries(hedged.Clone(class.ID))
		}
		r.built[class.ID] = true
	}
	return nil
}

// buildIndex builds an unhedged series and stores it under column
func (r *run) buildIndex(ctx context.Context, entityID, column string) error {
	if r.built[column] {
		return nil
	}
	built, err := r.engine.builder.Build(ctx, entityID, r.req.From, r.req.To)
	if err != nil {
		return err
	}
	r.advisories = append(r.advisories, built.Advisories...)
	r.table.SetSeries(built.Series.Clone(column))
	r.built[column] = true
	return nil
}

// reportable lists the columns scored by the statistics calculator: the fund, then the
// requested indices and switches in order, then constituents when asked for
func (r *run) reportable(constituents []string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(id string) {
		if seen[id] || id == domain.RiskFreeColumn {
			return
		}
		seen[id] = true
		out = append(out, id)
	}

	add(r.req.Fund.Code)
	for _, id := range r.req.Indices {
		add(id)
	}
	for _, sw := range r.req.Switches {
		add(sw.Name)
	}
	if r.req.ReportConstituents {
		if len(r.req.Fund.ShareClasses) > 1 {
			for _, class := range r.req.Fund.ShareClasses {
				add(class.ID)
			}
		}
		for _, id := range constituents {
			add(id)
		}
	}
	return out
}

func (r *run) format(reportable []string, stats []domain.StatisticsRow) error {
	f := r.engine.formatter

	cumulative, err := f.Cumulative(r.table, reportable)
	if err != nil {
		return err
	}
	fundPivot, err := f.Pivot(r.table, r.req.Fund.Code)
	if err != nil {
		return err
	}
	current, err := f.CurrentYear(r.table, reportable, stats)
	if err != nil {
		return err
	}

	r.result = &Result{
		Table:       r.table,
		Statistics:  f.Statistics(stats),
		Cumulative:  cumulative,
		FundPivot:   fundPivot,
		CurrentYear: current,
		Advisories:  append([]string{}, r.advisories...),
	}
	if len(r.req.Indices) > 0 {
		benchmark, err := f.Pivot(r.table, r.req.Indices[0])
		if err != nil {
			return err
		}
		r.result.BenchmarkPivot = benchmark
	}
	return nil
}

// fundSwitch stitches the share classes into the fund-of-record column
func fundSwitch(fund Fund) domain.PeriodicSwitch {
	legs := make([]domain.SwitchLeg, len(fund.ShareClasses))
	for i, class := range fund.ShareClasses {
		legs[i] = domain.SwitchLeg{ID: class.ID, From: class.From}
	}
	return domain.PeriodicSwitch{Name: fund.Code, Legs: legs}
}

func isComposite(id string, specs []domain.CompositeSpec, switches []domain.PeriodicSwitch) bool {
	for _, spec := range specs {
		if spec.CompositeName() == id {
			return true
		}
	}
	for _, sw := range switches {
		if sw.Name == id {
			return true
		}
	}
	return false
}
