package engine

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/aristath/navstats/internal/domain"
	"github.com/aristath/navstats/internal/modules/series"
	testingpkg "github.com/aristath/navstats/internal/testing"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var silent = zerolog.New(nil).Level(zerolog.Disabled)

var (
	panelStart = testingpkg.Date(2020, 1, 1)
	from       = testingpkg.Date(2020, 1, 31)
	to         = testingpkg.Date(2021, 6, 30)
)

func testSource() testingpkg.StaticSeriesSource {
	return testingpkg.StaticSeriesSource{
		"FUNDA_A":  testingpkg.GrowingObservations(panelStart, 18, 10, 0.01),
		"FUNDA_B":  testingpkg.GrowingObservations(panelStart, 18, 20, 0.02),
		"HPC0":     testingpkg.GrowingObservations(panelStart, 18, 250, 0.005),
		"CSWELLIN": testingpkg.MonthlyObservations(panelStart, 100, 98, 103, 101, 104, 99, 102, 105, 107, 103, 108, 110, 109, 112, 111, 115, 114, 117),
		"LEC3":     testingpkg.GrowingObservations(panelStart, 18, 100, 0.001),
		"G0O1":     testingpkg.GrowingObservations(panelStart, 18, 100, 0.002),
	}
}

func newTestEngine(t *testing.T, cfg Config, hedge domain.HedgeCostSource) *Engine {
	t.Helper()
	if hedge == nil {
		hedge = &testingpkg.MockHedgeCostSource{}
	}
	e, err := New(cfg, Sources{Series: testSource(), HedgeCost: hedge}, silent)
	require.NoError(t, err)
	return e
}

func baseRequest() Request {
	return Request{
		Fund: Fund{
			Code:         "FUNDA",
			ShareClasses: []domain.ShareClass{{ID: "FUNDA_A", Currency: domain.CurrencyEUR}},
		},
		Indices:           []string{"HPC0", "50_HPC0_50_CSWELLIN"},
		ReportingCurrency: domain.CurrencyEUR,
		From:              from,
		To:                to,
	}
}

func findRow(t *testing.T, rows []domain.StatisticsRow, entity string) domain.StatisticsRow {
	t.Helper()
	for _, row := range rows {
		if row.Entity == entity {
			return row
		}
	}
	t.Fatalf("no statistics row for %s", entity)
	return domain.StatisticsRow{}
}

func TestEngine_Run(t *testing.T) {
	e := newTestEngine(t, DefaultConfig(), nil)

	result, err := e.Run(context.Background(), baseRequest())
	require.NoError(t, err)

	_, err = uuid.Parse(result.RunID)
	assert.NoError(t, err)

	entities := make([]string, len(result.Statistics))
	for i, row := range result.Statistics {
		entities[i] = row.Entity
	}
	assert.Equal(t, []string{"FUNDA", "HPC0", "50_HPC0_50_CSWELLIN"}, entities)

	fund := findRow(t, result.Statistics, "FUNDA")
	assert.InDelta(t, (math.Pow(1.01, 17)-1)*100, fund.ReturnSI, 1e-3)
	assert.InDelta(t, (math.Pow(1.01, 12)-1)*100, fund.Return1Y, 1e-3)
	assert.InDelta(t, (math.Pow(1.01, 6)-1)*100, fund.ReturnYTD, 1e-3)
	assert.True(t, math.IsNaN(fund.Beta))
	assert.True(t, math.IsNaN(fund.Return3Y))

	composite, ok := result.Table.Column("50_HPC0_50_CSWELLIN")
	require.True(t, ok)
	assert.Equal(t, 100.0, composite.Values[0])
	assert.True(t, result.Table.Has(domain.RiskFreeColumn))
	assert.True(t, result.Table.Has("FUNDA_A"))

	require.NotNil(t, result.FundPivot)
	assert.Equal(t, "FUNDA", result.FundPivot.Entity)
	require.NotNil(t, result.BenchmarkPivot)
	assert.Equal(t, "HPC0", result.BenchmarkPivot.Entity)
	assert.Equal(t, 2021, result.CurrentYear.Year)
	assert.Len(t, result.CurrentYear.Rows, 3)
	assert.Equal(t, []string{"FUNDA", "HPC0", "50_HPC0_50_CSWELLIN"}, result.Cumulative.Entities)
	assert.Empty(t, result.Advisories)
}

func TestEngine_ReportConstituents(t *testing.T) {
	e := newTestEngine(t, DefaultConfig(), nil)
	req := baseRequest()
	req.ReportConstituents = true

	result, err := e.Run(context.Background(), req)
	require.NoError(t, err)

	findRow(t, result.Statistics, "CSWELLIN")
	assert.Len(t, result.Statistics, 4)
}

func TestEngine_MultiClassFundWithHedging(t *testing.T) {
	hedge := &testingpkg.MockHedgeCostSource{}
	hedge.On("FetchHedgeCost", mock.Anything, domain.CurrencyUSD, domain.CurrencyEUR, mock.Anything).
		Return(testingpkg.ConstantObservations(testingpkg.Date(2019, 12, 1), 24, 0), nil)
	e := newTestEngine(t, DefaultConfig(), hedge)

	req := baseRequest()
	req.Fund.ShareClasses = []domain.ShareClass{
		{ID: "FUNDA_A", Currency: domain.CurrencyEUR},
		{ID: "FUNDA_B", Currency: domain.CurrencyUSD, From: testingpkg.Date(2020, 6, 30)},
	}

	result, err := e.Run(context.Background(), req)
	require.NoError(t, err)

	fund, ok := result.Table.Column("FUNDA")
	require.True(t, ok)
	dates := result.Table.Dates()
	for i, d := range dates {
		if d.Equal(testingpkg.Date(2020, 6, 30)) {
			assert.InDelta(t, 100*math.Pow(1.01, 5), fund.Values[i], 1e-9)
		}
		if d.Equal(testingpkg.Date(2020, 12, 31)) {
			assert.InDelta(t, 100*math.Pow(1.01, 5)*math.Pow(1.02, 6), fund.Values[i], 1e-9)
		}
	}
	hedge.AssertExpectations(t)
}

func TestEngine_FeeAdjustmentHook(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Adjustments = series.NewRegistry()
	cfg.Adjustments.Register("FUNDA_A", series.FeeAdjustment{ManagementFee: 0.012})
	e := newTestEngine(t, cfg, nil)

	result, err := e.Run(context.Background(), baseRequest())
	require.NoError(t, err)

	fund := findRow(t, result.Statistics, "FUNDA")
	assert.InDelta(t, (math.Pow(1.009, 17)-1)*100, fund.ReturnSI, 1e-3)
}

func TestEngine_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
		check  func(t *testing.T, err error)
	}{
		{
			name:   "unsupported reporting currency",
			mutate: func(r *Request) { r.ReportingCurrency = "GBP" },
			check: func(t *testing.T, err error) {
				var cfgErr *domain.ConfigurationError
				assert.ErrorAs(t, err, &cfgErr)
			},
		},
		{
			name:   "unknown composite format",
			mutate: func(r *Request) { r.Indices = []string{"HPC0_CSWELLIN_X"} },
			check: func(t *testing.T, err error) {
				var formatErr *domain.FormatError
				require.ErrorAs(t, err, &formatErr)
				assert.Equal(t, "HPC0_CSWELLIN_X", formatErr.Identifier)
			},
		},
		{
			name:   "unknown index",
			mutate: func(r *Request) { r.Indices = []string{"NOPE"} },
			check: func(t *testing.T, err error) {
				var fetchErr *domain.SourceFetchError
				require.ErrorAs(t, err, &fetchErr)
				assert.Equal(t, "NOPE", fetchErr.EntityID)
				assert.True(t, errors.Is(err, domain.ErrUnknownEntity))
			},
		},
		{
			name: "switch referencing a later composite",
			mutate: func(r *Request) {
				r.Switches = []domain.PeriodicSwitch{
					{Name: "BM", Legs: []domain.SwitchLeg{{ID: "LATER"}}},
					{Name: "LATER", Legs: []domain.SwitchLeg{{ID: "HPC0"}}},
				}
			},
			check: func(t *testing.T, err error) {
				var gapErr *domain.DataGapError
				require.ErrorAs(t, err, &gapErr)
				assert.Equal(t, []string{"LATER"}, gapErr.Columns)
			},
		},
		{
			name:   "missing share classes",
			mutate: func(r *Request) { r.Fund.ShareClasses = nil },
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, domain.ErrInvalidRequest))
			},
		},
		{
			name:   "inverted range",
			mutate: func(r *Request) { r.From, r.To = r.To, r.From },
			check: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, domain.ErrInvalidRequest))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, DefaultConfig(), nil)
			req := baseRequest()
			tt.mutate(&req)

			result, err := e.Run(context.Background(), req)

			require.Error(t, err)
			assert.Nil(t, result)
			tt.check(t, err)
		})
	}
}

func TestEngine_SwitchComposite(t *testing.T) {
	e := newTestEngine(t, DefaultConfig(), nil)
	req := baseRequest()
	req.Indices = []string{"HPC0"}
	req.Switches = []domain.PeriodicSwitch{{
		Name: "BM",
		Legs: []domain.SwitchLeg{
			{ID: "HPC0"},
			{ID: "LEC3", From: testingpkg.Date(2020, 12, 31)},
		},
	}}

	result, err := e.Run(context.Background(), req)
	require.NoError(t, err)

	bm, ok := result.Table.Column("BM")
	require.True(t, ok)
	_, last := bm.Last()
	assert.InDelta(t, 100*math.Pow(1.005, 11)*math.Pow(1.001, 6), last, 1e-9)
	findRow(t, result.Statistics, "BM")
}

func TestNew_RejectsInvalidRiskFreeMapping(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RiskFree = map[domain.Currency]string{"EURO": "LEC3"}

	_, err := New(cfg, Sources{Series: testSource()}, silent)

	var cfgErr *domain.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}
