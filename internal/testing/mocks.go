package testing

import (
	"context"
	"time"

	"github.com/aristath/navstats/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockSeriesSource is a mock implementation of domain.SeriesSource for testing
type MockSeriesSource struct {
	mock.Mock
}

// FetchSeries returns the observations configured with On("FetchSeries", ...)
func (m *MockSeriesSource) FetchSeries(ctx context.Context, entityID string, from, to time.Time) ([]domain.Observation, error) {
	args := m.Called(ctx, entityID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Observation), args.Error(1)
}

// MockHedgeCostSource is a mock implementation of domain.HedgeCostSource for testing
type MockHedgeCostSource struct {
	mock.Mock
}

// FetchHedgeCost returns the observations configured with On("FetchHedgeCost", ...)
func (m *MockHedgeCostSource) FetchHedgeCost(ctx context.Context, fromCurrency, toCurrency domain.Currency, start time.Time) ([]domain.Observation, error) {
	args := m.Called(ctx, fromCurrency, toCurrency, start)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Observation), args.Error(1)
}

// StaticSeriesSource serves fixed observations per entity and fails for unknown ones
type StaticSeriesSource map[string][]domain.Observation

// FetchSeries implements domain.SeriesSource
func (s StaticSeriesSource) FetchSeries(_ context.Context, entityID string, from, to time.Time) ([]domain.Observation, error) {
	obs, ok := s[entityID]
	if !ok {
		return nil, domain.ErrUnknownEntity
	}
	var out []domain.Observation
	for _, o := range obs {
		if o.Date.Before(from) || o.Date.After(to) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}
