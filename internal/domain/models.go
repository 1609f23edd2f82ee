// Package domain provides core domain models and types.
package domain

import (
	"encoding/json"
	"math"
	"time"
)

// Currency represents a currency code
type Currency string

const (
	CurrencyEUR Currency = "EUR"
	CurrencyUSD Currency = "USD"
)

// RiskFreeColumn is the value table column holding the short-rate proxy
const RiskFreeColumn = "RiskFreeRate"

// Observation is a single dated value as delivered by a raw source
type Observation struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// ShareClass identifies one NAV stream of a fund
type ShareClass struct {
	ID       string    `json:"id"`
	Currency Currency  `json:"currency"`
	From     time.Time `json:"from"` // Authoritative strictly after this date; zero = from inception
}

// StatisticsRow is the fixed statistics panel of one entity.
// Returns, volatilities, drawdown, tracking error and alpha are percentages.
// Undefined fields hold NaN.
type StatisticsRow struct {
	Entity               string
	Return1M             float64
	ReturnYTD            float64
	Return1Y             float64
	Return3Y             float64
	Return5Y             float64
	Return10Y            float64
	ReturnSI             float64
	ReturnSIAnnualized   float64
	Volatility           float64
	VolatilityAnnualized float64
	Sharpe               float64
	SharpeAnnualized     float64
	MaxDrawdown          float64
	TrackingError        float64
	Alpha                float64
	Beta                 float64
}

// MarshalJSON encodes undefined (NaN) fields as null
func (r StatisticsRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Entity               string   `json:"entity"`
		Return1M             *float64 `json:"return_1m"`
		ReturnYTD            *float64 `json:"return_ytd"`
		Return1Y             *float64 `json:"return_1y"`
		Return3Y             *float64 `json:"return_3y"`
		Return5Y             *float64 `json:"return_5y"`
		Return10Y            *float64 `json:"return_10y"`
		ReturnSI             *float64 `json:"return_si"`
		ReturnSIAnnualized   *float64 `json:"return_si_annualized"`
		Volatility           *float64 `json:"volatility"`
		VolatilityAnnualized *float64 `json:"volatility_annualized"`
		Sharpe               *float64 `json:"sharpe"`
		SharpeAnnualized     *float64 `json:"sharpe_annualized"`
		MaxDrawdown          *float64 `json:"max_drawdown"`
		TrackingError        *float64 `json:"tracking_error"`
		Alpha                *float64 `json:"alpha"`
		Beta                 *float64 `json:"beta"`
	}{
		Entity:               r.Entity,
		Return1M:             Nullable(r.Return1M),
		ReturnYTD:            Nullable(r.ReturnYTD),
		Return1Y:             Nullable(r.Return1Y),
		Return3Y:             Nullable(r.Return3Y),
		Return5Y:             Nullable(r.Return5Y),
		Return10Y:            Nullable(r.Return10Y),
		ReturnSI:             Nullable(r.ReturnSI),
		ReturnSIAnnualized:   Nullable(r.ReturnSIAnnualized),
		Volatility:           Nullable(r.Volatility),
		VolatilityAnnualized: Nullable(r.VolatilityAnnualized),
		Sharpe:               Nullable(r.Sharpe),
		SharpeAnnualized:     Nullable(r.SharpeAnnualized),
		MaxDrawdown:          Nullable(r.MaxDrawdown),
		TrackingError:        Nullable(r.TrackingError),
		Alpha:                Nullable(r.Alpha),
		Beta:                 Nullable(r.Beta),
	})
}

// Nullable returns nil for NaN and infinities so the value can be JSON encoded
func Nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// NullableSlice applies Nullable to every element
func NullableSlice(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		out[i] = Nullable(v)
	}
	return out
}
