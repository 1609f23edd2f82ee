package domain

import "time"

// CompositeKind tags the CompositeSpec variants
type CompositeKind string

const (
	CompositeWeightedPair   CompositeKind = "weighted_pair"
	CompositeRateOffset     CompositeKind = "rate_offset"
	CompositePeriodicSwitch CompositeKind = "periodic_switch"
)

// CompositeSpec describes how a synthetic series is derived from its constituents.
// Implemented by WeightedPair, RateOffset and PeriodicSwitch only.
type CompositeSpec interface {
	CompositeName() string
	Kind() CompositeKind
	Constituents() []string
}

// WeightedPair blends the returns of two indices with fixed weights (fractions)
type WeightedPair struct {
	Name    string  `json:"name"`
	Index1  string  `json:"index_1"`
	Weight1 float64 `json:"weight_1"`
	Index2  string  `json:"index_2"`
	Weight2 float64 `json:"weight_2"`
}

func (w WeightedPair) CompositeName() string  { return w.Name }
func (w WeightedPair) Kind() CompositeKind    { return CompositeWeightedPair }
func (w WeightedPair) Constituents() []string { return []string{w.Index1, w.Index2} }

// RateOffset adds a fixed annualized offset to a short-rate index.
// Offset is a fraction (150bp -> 0.015); OffsetIsBps records the unit it was written in.
type RateOffset struct {
	Name        string  `json:"name"`
	BaseIndex   string  `json:"base_index"`
	Offset      float64 `json:"offset"`
	OffsetIsBps bool    `json:"offset_is_bps"`
}

func (r RateOffset) CompositeName() string  { return r.Name }
func (r RateOffset) Kind() CompositeKind    { return CompositeRateOffset }
func (r RateOffset) Constituents() []string { return []string{r.BaseIndex} }

// SwitchLeg is one constituent of a PeriodicSwitch, authoritative strictly after From.
// A zero From makes the leg active from the start of the panel.
type SwitchLeg struct {
	ID   string    `json:"id"`
	From time.Time `json:"from"`
}

// PeriodicSwitch stitches the returns of whichever leg is active on each date
type PeriodicSwitch struct {
	Name string      `json:"name"`
	Legs []SwitchLeg `json:"legs"`
}

func (p PeriodicSwitch) CompositeName() string { return p.Name }
func (p PeriodicSwitch) Kind() CompositeKind   { return CompositePeriodicSwitch }

func (p PeriodicSwitch) Constituents() []string {
	out := make([]string, len(p.Legs))
	for i, leg := range p.Legs {
		out[i] = leg.ID
	}
	return out
}
