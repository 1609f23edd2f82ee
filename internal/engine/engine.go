// Package engine runs one statistics request end to end: composite expansion, series building,
// hedging, composite aggregation, statistics and presentation views. Every run owns its own
// value table, so an Engine can serve concurrent requests.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/navstats/internal/domain"
	"github.com/aristath/navstats/internal/modules/composites"
	"github.com/aristath/navstats/internal/modules/hedging"
	"github.com/aristath/navstats/internal/modules/navdata"
	"github.com/aristath/navstats/internal/modules/reporting"
	"github.com/aristath/navstats/internal/modules/series"
	"github.com/aristath/navstats/internal/modules/statistics"
	"github.com/aristath/navstats/internal/utils"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Config holds the engine settings passed at construction
type Config struct {
	RateCodes   []string                   // short-rate identifiers accepted by the rate-offset grammar
	RiskFree    map[domain.Currency]string // reporting currency -> risk-free index
	Adjustments *series.Registry           // per-entity return corrections, may be nil
	Precision   int                        // decimals kept in presentation output
}

// DefaultRateCodes are the short-rate identifiers known to the rate-offset grammar
var DefaultRateCodes = []string{"LEC3", "LEC1", "G0O1", "LUS3"}

// DefaultConfig returns the built-in engine settings
func DefaultConfig() Config {
	riskFree := make(map[domain.Currency]string, len(navdata.DefaultRiskFree))
	for c, id := range navdata.DefaultRiskFree {
		riskFree[c] = id
	}
	return Config{
		RateCodes:   append([]string(nil), DefaultRateCodes...),
		RiskFree:    riskFree,
		Adjustments: series.NewRegistry(),
		Precision:   reporting.DefaultPrecision,
	}
}

// Sources are the raw data collaborators
type Sources struct {
	Series    domain.SeriesSource
	HedgeCost domain.HedgeCostSource
}

// Fund is the portfolio being reported, made of one or more share classes
type Fund struct {
	Code         string
	ShareClasses []domain.ShareClass
}

// Request describes one statistics run
type Request struct {
	Fund               Fund
	Indices            []string // the first one is the primary benchmark
	Switches           []domain.PeriodicSwitch
	ReportingCurrency  domain.Currency
	From               time.Time
	To                 time.Time
	ReportConstituents bool // also report share classes and composite constituents
}

// Result is everything a run produces
type Result struct {
	RunID          string                 `json:"run_id"`
	Table          *domain.ValueTable     `json:"-"`
	Statistics     []domain.StatisticsRow `json:"statistics"`
	Cumulative     *reporting.Cumulative  `json:"cumulative"`
	FundPivot      *reporting.Pivot       `json:"fund_pivot"`
	BenchmarkPivot *reporting.Pivot       `json:"benchmark_pivot,omitempty"`
	CurrentYear    *reporting.CurrentYear `json:"current_year"`
	Advisories     []string               `json:"advisories"`
}

// Engine wires the pipeline stages together
type Engine struct {
	parser     *composites.Parser
	aggregator *composites.Aggregator
	builder    *series.Builder
	overlay    *hedging.Overlay
	calculator *statistics.Calculator
	formatter  *reporting.Formatter
	riskFree   *navdata.RiskFreeSelector
	log        zerolog.Logger
}

// New creates an engine. An invalid risk-free mapping is a *domain.ConfigurationError.
func New(cfg Config, sources Sources, log zerolog.Logger) (*Engine, error) {
	riskFree, err := navdata.NewRiskFreeSelector(cfg.RiskFree)
	if err != nil {
		return nil, err
	}
	return &Engine{
		parser:     composites.NewParser(cfg.RateCodes, log),
		aggregator: composites.NewAggregator(log),
		builder:    series.NewBuilder(sources.Series, cfg.Adjustments, log),
		overlay:    hedging.NewOverlay(sources.HedgeCost, log),
		calculator: statistics.NewCalculator(log),
		formatter:  reporting.NewFormatter(cfg.Precision, log),
		riskFree:   riskFree,
		log:        log.With().Str("component", "engine").Logger(),
	}, nil
}

// Parser exposes the composite parser
func (e *Engine) Parser() *composites.Parser {
	return e.parser
}

// Run executes the full pipeline. Any failure aborts the run; no partial result is returned.
func (e *Engine) Run(ctx context.Context, req Request) (*Result, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	log := e.log.With().Str("run_id", runID).Str("fund", req.Fund.Code).Logger()
	timer := utils.NewTimer("statistics_run", log)
	defer timer.Stop()

	run := &run{engine: e, req: req, log: log, table: domain.NewValueTable()}
	if err := run.execute(ctx); err != nil {
		log.Error().Err(err).Msg("Statistics run failed")
		return nil, err
	}

	run.result.RunID = runID
	log.Info().
		Int("entities", len(run.result.Statistics)).
		Int("rows", run.table.Len()).
		Int("advisories", len(run.result.Advisories)).
		Msg("Statistics run completed")
	return run.result, nil
}

func validate(req Request) error {
	if req.Fund.Code == "" {
		return fmt.Errorf("%w: fund code is required", domain.ErrInvalidRequest)
	}
	if len(req.Fund.ShareClasses) == 0 {
		return fmt.Errorf("%w: fund %s has no share classes", domain.ErrInvalidRequest, req.Fund.Code)
	}
	if len(req.Fund.ShareClasses) > 1 {
		for _, class := range req.Fund.ShareClasses {
			if class.ID == req.Fund.Code {
				return fmt.Errorf("%w: share class %s cannot share the fund code", domain.ErrInvalidRequest, class.ID)
			}
		}
	}
	if req.From.IsZero() || req.To.IsZero() {
		return fmt.Errorf("%w: from and to dates are required", domain.ErrInvalidRequest)
	}
	if req.To.Before(req.From) {
		return fmt.Errorf("%w: to date %s precedes from date %s", domain.ErrInvalidRequest,
			req.To.Format(time.DateOnly), req.From.Format(time.DateOnly))
	}
	return nil
}
