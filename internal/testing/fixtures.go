package testing

import (
	"time"

	"github.com/aristath/navstats/internal/domain"
)

// Date returns a UTC calendar date
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MonthEnds returns n consecutive calendar month-ends starting with start's month
func MonthEnds(start time.Time, n int) []time.Time {
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = domain.MonthEnd(time.Date(start.Year(), start.Month()+time.Month(i), 1, 0, 0, 0, 0, time.UTC))
	}
	return dates
}

// MonthlyObservations pairs values with consecutive month-ends starting with start's month
func MonthlyObservations(start time.Time, values ...float64) []domain.Observation {
	dates := MonthEnds(start, len(values))
	obs := make([]domain.Observation, len(values))
	for i, v := range values {
		obs[i] = domain.Observation{Date: dates[i], Value: v}
	}
	return obs
}

// GrowingObservations returns n month-end observations compounding at a constant monthly rate
func GrowingObservations(start time.Time, n int, base, monthlyRate float64) []domain.Observation {
	values := make([]float64, n)
	level := base
	for i := range values {
		values[i] = level
		level *= 1 + monthlyRate
	}
	return MonthlyObservations(start, values...)
}

// ConstantObservations returns n month-end observations with the same value
func ConstantObservations(start time.Time, n int, value float64) []domain.Observation {
	return GrowingObservations(start, n, value, 0)
}
