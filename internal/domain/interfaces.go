package domain

import (
	"context"
	"time"
)

// SeriesSource delivers raw observations for a fund share class or an index.
// Implementations return observations in ascending date order.
type SeriesSource interface {
	FetchSeries(ctx context.Context, entityID string, from, to time.Time) ([]Observation, error)
}

// HedgeCostSource delivers annualized hedge cost observations (in percent) for a currency pair,
// starting with the latest observation on or before start.
type HedgeCostSource interface {
	FetchHedgeCost(ctx context.Context, fromCurrency, toCurrency Currency, start time.Time) ([]Observation, error)
}
