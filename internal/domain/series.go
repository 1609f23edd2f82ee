package domain

import (
	"math"
	"time"

	"github.com/aristath/navstats/pkg/formulas"
)

// IndexBase is the level every re-based index series starts from
const IndexBase = 100.0

// Series is an ascending, date-keyed run of values, either index levels or period returns.
// Rows before the series' inception hold NaN.
type Series struct {
	Name   string
	Dates  []time.Time
	Values []float64
}

// NewSeries builds a series from observations that are already in ascending date order
func NewSeries(name string, obs []Observation) Series {
	s := Series{
		Name:   name,
		Dates:  make([]time.Time, len(obs)),
		Values: make([]float64, len(obs)),
	}
	for i, o := range obs {
		s.Dates[i] = o.Date
		s.Values[i] = o.Value
	}
	return s
}

// Len returns the number of rows
func (s Series) Len() int {
	return len(s.Values)
}

// Clone returns a deep copy under a new name
func (s Series) Clone(name string) Series {
	out := Series{
		Name:   name,
		Dates:  make([]time.Time, len(s.Dates)),
		Values: make([]float64, len(s.Values)),
	}
	copy(out.Dates, s.Dates)
	copy(out.Values, s.Values)
	return out
}

// FirstValid returns the index of the first non-NaN value, or -1
func (s Series) FirstValid() int {
	for i, v := range s.Values {
		if !math.IsNaN(v) {
			return i
		}
	}
	return -1
}

// Valid returns the series from its first defined value onwards
func (s Series) Valid() Series {
	first := s.FirstValid()
	if first < 0 {
		return Series{Name: s.Name}
	}
	return Series{Name: s.Name, Dates: s.Dates[first:], Values: s.Values[first:]}
}

// Tail returns the last n rows (or the whole series when shorter)
func (s Series) Tail(n int) Series {
	if n >= s.Len() {
		return s
	}
	start := s.Len() - n
	return Series{Name: s.Name, Dates: s.Dates[start:], Values: s.Values[start:]}
}

// Between returns the rows whose dates fall in [from, to]
func (s Series) Between(from, to time.Time) Series {
	out := Series{Name: s.Name}
	for i, d := range s.Dates {
		if d.Before(from) || d.After(to) {
			continue
		}
		out.Dates = append(out.Dates, d)
		out.Values = append(out.Values, s.Values[i])
	}
	return out
}

// Returns converts index form to return form. The first defined row gets a zero return
// (inception), rows before it stay NaN.
func (s Series) Returns() Series {
	out := Series{
		Name:   s.Name,
		Dates:  s.Dates,
		Values: make([]float64, s.Len()),
	}
	first := s.FirstValid()
	for i := range out.Values {
		switch {
		case first < 0 || i < first:
			out.Values[i] = math.NaN()
		case i == first:
			out.Values[i] = 0
		default:
			out.Values[i] = formulas.SimpleReturn(s.Values[i-1], s.Values[i])
		}
	}
	return out
}

// ToIndex converts return form to index form by compounding from base at the first defined row.
// The first defined return is applied as well, so callers pin inception by zeroing it.
func (s Series) ToIndex(base float64) Series {
	out := Series{
		Name:   s.Name,
		Dates:  s.Dates,
		Values: make([]float64, s.Len()),
	}
	first := s.FirstValid()
	if first < 0 {
		for i := range out.Values {
			out.Values[i] = math.NaN()
		}
		return out
	}
	for i := 0; i < first; i++ {
		out.Values[i] = math.NaN()
	}
	copy(out.Values[first:], formulas.Compound(base, s.Values[first:]))
	return out
}

// Rebase scales index levels so the first defined value equals base
func (s Series) Rebase(base float64) Series {
	first := s.FirstValid()
	out := s.Clone(s.Name)
	if first < 0 || s.Values[first] == 0 {
		return out
	}
	factor := base / s.Values[first]
	for i := first; i < out.Len(); i++ {
		out.Values[i] *= factor
	}
	return out
}

// Last returns the final row's date and value
func (s Series) Last() (time.Time, float64) {
	if s.Len() == 0 {
		return time.Time{}, math.NaN()
	}
	return s.Dates[s.Len()-1], s.Values[s.Len()-1]
}

// MonthEnd returns the last calendar day of t's month (UTC midnight)
func MonthEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC)
}

// SameMonth reports whether a and b fall in the same calendar month
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// Day truncates t to a UTC calendar date
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
