package reporting

import (
	"encoding/json"
	"time"

	"github.com/aristath/navstats/internal/domain"
)

// Cumulative holds cumulative return curves in percent over the value table's date grid
type Cumulative struct {
	Dates    []time.Time
	Entities []string
	Series   map[string][]float64
}

// MarshalJSON encodes dates as YYYY-MM-DD and undefined values as null
func (c Cumulative) MarshalJSON() ([]byte, error) {
	series := make(map[string][]*float64, len(c.Series))
	for name, values := range c.Series {
		series[name] = domain.NullableSlice(values)
	}
	return json.Marshal(struct {
		Dates    []string              `json:"dates"`
		Entities []string              `json:"entities"`
		Series   map[string][]*float64 `json:"series"`
	}{
		Dates:    formatDates(c.Dates),
		Entities: c.Entities,
		Series:   series,
	})
}

// PivotRow is one calendar year of period returns in percent
type PivotRow struct {
	Year     int
	Months   [12]float64
	Quarters [4]float64
	Annual   float64 // NaN unless all twelve months exist
	YTD      float64
}

// MarshalJSON encodes undefined values as null
func (r PivotRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Year     int        `json:"year"`
		Months   []*float64 `json:"months"`
		Quarters []*float64 `json:"quarters"`
		Annual   *float64   `json:"annual"`
		YTD      *float64   `json:"ytd"`
	}{
		Year:     r.Year,
		Months:   domain.NullableSlice(r.Months[:]),
		Quarters: domain.NullableSlice(r.Quarters[:]),
		Annual:   domain.Nullable(r.Annual),
		YTD:      domain.Nullable(r.YTD),
	})
}

// Pivot is an entity's return history by year
type Pivot struct {
	Entity string     `json:"entity"`
	Rows   []PivotRow `json:"rows"`
}

// CurrentYearRow is one entity's month and quarter returns for the current year plus its YTD statistic
type CurrentYearRow struct {
	Entity   string
	Months   [12]float64
	Quarters [4]float64
	YTD      float64
}

// MarshalJSON encodes undefined values as null
func (r CurrentYearRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Entity   string     `json:"entity"`
		Months   []*float64 `json:"months"`
		Quarters []*float64 `json:"quarters"`
		YTD      *float64   `json:"ytd"`
	}{
		Entity:   r.Entity,
		Months:   domain.NullableSlice(r.Months[:]),
		Quarters: domain.NullableSlice(r.Quarters[:]),
		YTD:      domain.Nullable(r.YTD),
	})
}

// CurrentYear is the detail table of the latest calendar year in the panel
type CurrentYear struct {
	Year int              `json:"year"`
	Rows []CurrentYearRow `json:"rows"`
}

func formatDates(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format(time.DateOnly)
	}
	return out
}
