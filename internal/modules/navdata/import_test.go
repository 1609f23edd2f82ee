package navdata

import (
	"context"
	"strings"
	"testing"

	"github.com/aristath/navstats/internal/domain"
	testingpkg "github.com/aristath/navstats/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_Import(t *testing.T) {
	repo := newRepository(t)
	ctx := context.Background()
	table, err := LoadCSV(strings.NewReader(`date,FUNDA,HPC0,USD/EUR
2020-01-31,10,250,1.2
2020-02-29,10.1,,1.3
2020-03-31,10.2,252,
`))
	require.NoError(t, err)

	stats, err := repo.Import(table)
	require.NoError(t, err)
	assert.Equal(t, ImportStats{Entities: 2, Observations: 5, HedgePairs: 1}, stats)

	entities, err := repo.Entities(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"FUNDA", "HPC0"}, entities)

	hpc0, err := repo.FetchSeries(ctx, "HPC0", testingpkg.Date(2020, 1, 1), testingpkg.Date(2020, 12, 31))
	require.NoError(t, err)
	assert.Equal(t, testingpkg.MonthlyObservations(testingpkg.Date(2020, 1, 1), 250), hpc0[:1])
	assert.Len(t, hpc0, 2)

	costs, err := repo.FetchHedgeCost(ctx, domain.CurrencyUSD, domain.CurrencyEUR, testingpkg.Date(2020, 2, 29))
	require.NoError(t, err)
	require.Len(t, costs, 1)
	assert.Equal(t, 1.3, costs[0].Value)
}

func TestRepository_ImportRejectsUnknownCurrencyPair(t *testing.T) {
	repo := newRepository(t)
	table := NewTableSource(map[string][]domain.Observation{
		"USD/XXY": testingpkg.ConstantObservations(testingpkg.Date(2020, 1, 1), 2, 1),
	})

	_, err := repo.Import(table)

	var cfgErr *domain.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}
