package navdata

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/navstats/internal/domain"
)

// TableSource serves an externally supplied wide table: one date column and one column per
// entity. Hedge costs live in columns named "FROM/TO" (e.g. "USD/EUR"), in annual percent.
// A loaded table is read-only and safe for concurrent use.
type TableSource struct {
	columns map[string][]domain.Observation
}

// NewTableSource creates a table source from per-entity observations
func NewTableSource(columns map[string][]domain.Observation) *TableSource {
	t := &TableSource{columns: make(map[string][]domain.Observation, len(columns))}
	for name, obs := range columns {
		sorted := append([]domain.Observation(nil), obs...)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })
		t.columns[name] = sorted
	}
	return t
}

// LoadCSV parses a wide CSV table. The first header cell names the date column, dates are
// YYYY-MM-DD and empty cells are missing observations.
func LoadCSV(r io.Reader) (*TableSource, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty table")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("table needs a date column and at least one entity column")
	}
	names := make([]string, len(header)-1)
	for i, h := range header[1:] {
		names[i] = strings.TrimSpace(h)
	}

	columns := make(map[string][]domain.Observation, len(names))
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}

		date, err := time.Parse(time.DateOnly, strings.TrimSpace(record[0]))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid date %q: %w", line, record[0], err)
		}
		for i, cell := range record[1:] {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			value, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d, column %s: invalid value %q: %w", line, names[i], cell, err)
			}
			columns[names[i]] = append(columns[names[i]], domain.Observation{Date: date, Value: value})
		}
	}

	return NewTableSource(columns), nil
}

// Entities returns the column names, sorted
func (t *TableSource) Entities() []string {
	names := make([]string, 0, len(t.columns))
	for name := range t.columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FetchSeries implements domain.SeriesSource
func (t *TableSource) FetchSeries(_ context.Context, entityID string, from, to time.Time) ([]domain.Observation, error) {
	obs, ok := t.columns[entityID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", entityID, domain.ErrUnknownEntity)
	}
	from, to = domain.Day(from), domain.Day(to)
	var out []domain.Observation
	for _, o := range obs {
		if o.Date.Before(from) || o.Date.After(to) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

// FetchHedgeCost implements domain.HedgeCostSource from the "FROM/TO" column, starting with
// the latest quote on or before start
func (t *TableSource) FetchHedgeCost(_ context.Context, fromCurrency, toCurrency domain.Currency, start time.Time) ([]domain.Observation, error) {
	obs := t.columns[string(fromCurrency)+"/"+string(toCurrency)]
	start = domain.Day(start)
	first := 0
	for i, o := range obs {
		if o.Date.After(start) {
			break
		}
		first = i
	}
	return append([]domain.Observation(nil), obs[first:]...), nil
}
