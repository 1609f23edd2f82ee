package navdata

import (
	"fmt"
	"strings"

	"github.com/aristath/navstats/internal/domain"
)

// ImportStats counts what an import wrote
type ImportStats struct {
	Entities     int
	Observations int
	HedgePairs   int
}

// Import copies every column of a table into the repository. Columns named "FROM/TO" are
// stored as hedge costs for that currency pair, all others as entity observations.
func (r *Repository) Import(t *TableSource) (ImportStats, error) {
	var stats ImportStats
	for _, name := range t.Entities() {
		obs := t.columns[name]
		if from, to, ok := strings.Cut(name, "/"); ok {
			fromCurrency, err := domain.ParseCurrency(from)
			if err != nil {
				return stats, fmt.Errorf("hedge cost column %s: %w", name, err)
			}
			toCurrency, err := domain.ParseCurrency(to)
			if err != nil {
				return stats, fmt.Errorf("hedge cost column %s: %w", name, err)
			}
			if err := r.SaveHedgeCosts(fromCurrency, toCurrency, obs); err != nil {
				return stats, err
			}
			stats.HedgePairs++
			continue
		}

		if err := r.SaveObservations(name, obs); err != nil {
			return stats, err
		}
		stats.Entities++
		stats.Observations += len(obs)
	}

	r.log.Info().
		Int("entities", stats.Entities).
		Int("observations", stats.Observations).
		Int("hedge_pairs", stats.HedgePairs).
		Msg("Imported table")
	return stats, nil
}
