package series

import (
	"math"
	"sync"
	"time"

	"github.com/aristath/navstats/internal/domain"
	"github.com/aristath/navstats/pkg/formulas"
)

// Adjustment rewrites an entity's return stream before it is compounded into index form.
// Used for historical data corrections tied to a single entity.
type Adjustment interface {
	Name() string
	Adjust(returns domain.Series) domain.Series
}

// FeeAdjustment deducts fees from a gross return stream: a performance fee on positive
// returns dated on or before the cutover, and a flat annual management fee pro-rated monthly.
// The inception row is left untouched.
type FeeAdjustment struct {
	PerformanceFee        float64   // fraction of a positive return, e.g. 0.20
	PerformanceFeeCutover time.Time // last date the performance fee applies
	ManagementFee         float64   // annual fraction, e.g. 0.01
}

// Name implements Adjustment
func (f FeeAdjustment) Name() string {
	return "fee_adjustment"
}

// Adjust implements Adjustment
func (f FeeAdjustment) Adjust(returns domain.Series) domain.Series {
	out := returns.Clone(returns.Name)
	first := out.FirstValid()
	if first < 0 {
		return out
	}
	monthlyFee := f.ManagementFee / formulas.MonthsPerYear
	for i := first + 1; i < out.Len(); i++ {
		r := out.Values[i]
		if math.IsNaN(r) {
			continue
		}
		if r > 0 && !out.Dates[i].After(f.PerformanceFeeCutover) {
			r -= f.PerformanceFee * r
		}
		out.Values[i] = r - monthlyFee
	}
	return out
}

// Registry maps entity identifiers to their adjustments
type Registry struct {
	mu    sync.RWMutex
	hooks map[string][]Adjustment
}

// NewRegistry creates an empty adjustment registry
func NewRegistry() *Registry {
	return &Registry{hooks: make(map[string][]Adjustment)}
}

// Register adds an adjustment for an entity; adjustments run in registration order
func (r *Registry) Register(entityID string, adj Adjustment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks[entityID] = append(r.hooks[entityID], adj)
}

// For returns the adjustments registered for an entity
func (r *Registry) For(entityID string) []Adjustment {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Adjustment, len(r.hooks[entityID]))
	copy(out, r.hooks[entityID])
	return out
}
