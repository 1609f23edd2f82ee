package domain

import (
	"strings"

	"github.com/Rhymond/go-money"
)

// ParseCurrency upper-cases and trims code and checks it against the ISO 4217 table.
// Unknown codes return a *ConfigurationError for setting "currency".
func ParseCurrency(code string) (Currency, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	cur := money.GetCurrency(normalized)
	if cur == nil {
		return "", &ConfigurationError{Setting: "currency", Value: code}
	}
	return Currency(cur.Code), nil
}
