package navdata

import (
	"sort"

	"github.com/aristath/navstats/internal/domain"
)

// DefaultRiskFree maps reporting currencies to their short-rate proxy index
var DefaultRiskFree = map[domain.Currency]string{
	domain.CurrencyUSD: "G0O1",
	domain.CurrencyEUR: "LEC3",
}

// RiskFreeSelector picks the risk-free index for a reporting currency
type RiskFreeSelector struct {
	indices map[domain.Currency]string
}

// NewRiskFreeSelector creates a selector; keys are normalised to ISO codes.
// Unknown codes in the mapping are rejected with *domain.ConfigurationError.
func NewRiskFreeSelector(indices map[domain.Currency]string) (*RiskFreeSelector, error) {
	normalized := make(map[domain.Currency]string, len(indices))
	for code, index := range indices {
		currency, err := domain.ParseCurrency(string(code))
		if err != nil {
			return nil, err
		}
		if index == "" {
			return nil, &domain.ConfigurationError{Setting: "risk-free index for " + string(currency), Value: index}
		}
		normalized[currency] = index
	}
	return &RiskFreeSelector{indices: normalized}, nil
}

// Select returns the risk-free index identifier for currency.
// An unsupported currency is a *domain.ConfigurationError.
func (s *RiskFreeSelector) Select(currency domain.Currency) (string, error) {
	code, err := domain.ParseCurrency(string(currency))
	if err != nil {
		return "", &domain.ConfigurationError{Setting: "reporting currency", Value: string(currency)}
	}
	index, ok := s.indices[code]
	if !ok {
		return "", &domain.ConfigurationError{Setting: "reporting currency", Value: string(currency)}
	}
	return index, nil
}

// Currencies returns the supported reporting currencies, sorted
func (s *RiskFreeSelector) Currencies() []domain.Currency {
	out := make([]domain.Currency, 0, len(s.indices))
	for c := range s.indices {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
