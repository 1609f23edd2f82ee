package domain

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// ValueTable is the per-request panel of named columns over one ascending date grid.
// A table instance is owned by a single request and is not safe for concurrent use.
type ValueTable struct {
	dates   []time.Time
	columns map[string][]float64
	order   []string
}

// NewValueTable creates an empty table
func NewValueTable() *ValueTable {
	return &ValueTable{columns: make(map[string][]float64)}
}

// Len returns the number of rows
func (t *ValueTable) Len() int {
	return len(t.dates)
}

// Dates returns a copy of the row dates
func (t *ValueTable) Dates() []time.Time {
	out := make([]time.Time, len(t.dates))
	copy(out, t.dates)
	return out
}

// MinDate returns the panel's earliest date
func (t *ValueTable) MinDate() time.Time {
	if len(t.dates) == 0 {
		return time.Time{}
	}
	return t.dates[0]
}

// Columns returns column names in insertion order
func (t *ValueTable) Columns() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Has reports whether a column exists
func (t *ValueTable) Has(name string) bool {
	_, ok := t.columns[name]
	return ok
}

// Column returns a copy of the named column as a series over the full date grid
func (t *ValueTable) Column(name string) (Series, bool) {
	values, ok := t.columns[name]
	if !ok {
		return Series{}, false
	}
	s := Series{Name: name, Dates: t.Dates(), Values: make([]float64, len(values))}
	copy(s.Values, values)
	return s, true
}

// SetSeries places a series into the table, replacing any column of the same name.
// Each value lands on the row with the same date; failing that, on the last row of the same
// calendar month; failing that, a new row is inserted.
func (t *ValueTable) SetSeries(s Series) {
	values := t.ensureColumn(s.Name)
	for i := range values {
		values[i] = math.NaN()
	}
	for i, d := range s.Dates {
		row := t.rowFor(Day(d))
		t.columns[s.Name][row] = s.Values[i]
	}
}

// SetColumn stores values that are already aligned to the table's date grid
func (t *ValueTable) SetColumn(name string, values []float64) error {
	if len(values) != len(t.dates) {
		return fmt.Errorf("column %s has %d values, table has %d rows", name, len(values), len(t.dates))
	}
	col := t.ensureColumn(name)
	copy(col, values)
	return nil
}

// FrontFill carries each column's last defined value forward over missing rows,
// starting at the column's first defined row.
func (t *ValueTable) FrontFill() {
	for _, name := range t.order {
		col := t.columns[name]
		last := math.NaN()
		for i, v := range col {
			if math.IsNaN(v) {
				col[i] = last
				continue
			}
			last = v
		}
	}
}

// Validate checks that every required column exists and has no missing value after its
// first defined row. All offending columns are reported together.
func (t *ValueTable) Validate(required []string) error {
	var gaps []string
	seen := make(map[string]bool)
	for _, name := range required {
		if seen[name] {
			continue
		}
		seen[name] = true

		col, ok := t.columns[name]
		if !ok {
			gaps = append(gaps, name)
			continue
		}
		started := false
		gap := false
		for _, v := range col {
			if !math.IsNaN(v) {
				started = true
				continue
			}
			if started {
				gap = true
				break
			}
		}
		if !started || gap {
			gaps = append(gaps, name)
		}
	}
	if len(gaps) > 0 {
		sort.Strings(gaps)
		return &DataGapError{Columns: gaps}
	}
	return nil
}

func (t *ValueTable) ensureColumn(name string) []float64 {
	if col, ok := t.columns[name]; ok {
		return col
	}
	col := make([]float64, len(t.dates))
	for i := range col {
		col[i] = math.NaN()
	}
	t.columns[name] = col
	t.order = append(t.order, name)
	return col
}

func (t *ValueTable) rowFor(d time.Time) int {
	idx := sort.Search(len(t.dates), func(i int) bool { return !t.dates[i].Before(d) })
	if idx < len(t.dates) && t.dates[idx].Equal(d) {
		return idx
	}

	monthStart := MonthStart(d)
	for i := len(t.dates) - 1; i >= 0 && !t.dates[i].Before(monthStart); i-- {
		if SameMonth(t.dates[i], d) {
			return i
		}
	}

	t.insertRow(idx, d)
	return idx
}

func (t *ValueTable) insertRow(idx int, d time.Time) {
	t.dates = append(t.dates, time.Time{})
	copy(t.dates[idx+1:], t.dates[idx:])
	t.dates[idx] = d
	for name, col := range t.columns {
		col = append(col, 0)
		copy(col[idx+1:], col[idx:])
		col[idx] = math.NaN()
		t.columns[name] = col
	}
}

// MonthStart returns the first calendar day of t's month (UTC midnight)
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
