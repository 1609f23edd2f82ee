// Package composites decodes composite index identifiers and folds composite series into the value table.
package composites

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/aristath/navstats/internal/domain"
	"github.com/rs/zerolog"
)

// FormatExamples are quoted in every FormatError
var FormatExamples = []string{
	"50_HPC0_50_CSWELLIN",
	"50_50_HPC0_CSWELLIN",
	"50_HPC0-50_CSWELLIN",
	"HPC0_50-CSWELLIN_50",
	"LEC3_150bp",
	"50HPC0_50CSWELLIN",
}

// grammar decodes one surface form. ok=false means "not this grammar", err means the
// form matched but its content is invalid.
type grammar struct {
	name   string
	decode func(id string) (spec domain.CompositeSpec, ok bool, err error)
}

// Parser tries the composite grammars in a fixed precedence order; the first match wins.
type Parser struct {
	grammars []grammar
	log      zerolog.Logger
}

var (
	weightIndexWeightIndex = regexp.MustCompile(`^(\d+)_([A-Za-z0-9]+)_(\d+)_([A-Za-z0-9]+)$`)
	weightWeightIndexIndex = regexp.MustCompile(`^(\d+)_(\d+)_([A-Za-z0-9]+)_([A-Za-z0-9]+)$`)
	weightIndexHyphen      = regexp.MustCompile(`^(\d+)_([A-Za-z0-9]+)-(\d+)_([A-Za-z0-9]+)$`)
	indexWeightHyphen      = regexp.MustCompile(`^([A-Za-z0-9]+)_(\d+)-([A-Za-z0-9]+)_(\d+)$`)
	gluedWeightIndex       = regexp.MustCompile(`^(\d+)([A-Za-z][A-Za-z0-9]*)_(\d+)([A-Za-z][A-Za-z0-9]*)$`)
)

// NewParser creates a parser that recognises rate-offset composites on the given short-rate codes
func NewParser(rateCodes []string, log zerolog.Logger) *Parser {
	p := &Parser{log: log.With().Str("component", "composite_parser").Logger()}

	rateOffset := rateOffsetPattern(rateCodes)

	p.grammars = []grammar{
		{"W1_IDX1_W2_IDX2", weightedPair(weightIndexWeightIndex, 1, 2, 3, 4)},
		{"W1_W2_IDX1_IDX2", weightedPair(weightWeightIndexIndex, 1, 3, 2, 4)},
		{"W1_IDX1-W2_IDX2", weightedPair(weightIndexHyphen, 1, 2, 3, 4)},
		{"IDX1_W1-IDX2_W2", weightedPair(indexWeightHyphen, 2, 1, 4, 3)},
		{"RATE_OFFSET", rateOffset},
		{"W1IDX1_W2IDX2", weightedPair(gluedWeightIndex, 1, 2, 3, 4)},
	}
	return p
}

// IsCandidate reports whether an identifier should be decoded as a composite.
// Plain index codes carry neither underscores nor hyphens.
func IsCandidate(id string) bool {
	return strings.ContainsAny(id, "_-")
}

// Parse decodes a composite identifier
func (p *Parser) Parse(id string) (domain.CompositeSpec, error) {
	for _, g := range p.grammars {
		spec, ok, err := g.decode(id)
		if err != nil {
			return nil, err
		}
		if ok {
			p.log.Debug().
				Str("identifier", id).
				Str("grammar", g.name).
				Msg("Decoded composite identifier")
			return spec, nil
		}
	}
	return nil, &domain.FormatError{Identifier: id, Examples: FormatExamples}
}

// Expand decodes every composite candidate in ids and returns the working list with each
// composite replaced by its constituents (first occurrence wins, duplicates dropped), plus
// the decoded composites in request order.
func (p *Parser) Expand(ids []string) ([]string, []domain.CompositeSpec, error) {
	var (
		working []string
		specs   []domain.CompositeSpec
		seen    = make(map[string]bool)
	)
	add := func(id string) {
		if seen[id] {
			return
		}
		seen[id] = true
		working = append(working, id)
	}

	for _, id := range ids {
		if !IsCandidate(id) {
			add(id)
			continue
		}
		spec, err := p.Parse(id)
		if err != nil {
			return nil, nil, err
		}
		specs = append(specs, spec)
		for _, c := range spec.Constituents() {
			add(c)
		}
	}
	return working, specs, nil
}

func weightedPair(re *regexp.Regexp, w1, i1, w2, i2 int) func(string) (domain.CompositeSpec, bool, error) {
	return func(id string) (domain.CompositeSpec, bool, error) {
		m := re.FindStringSubmatch(id)
		if m == nil {
			return nil, false, nil
		}
		weight1, err := percentWeight(m[w1])
		if err != nil {
			return nil, false, fmt.Errorf("composite %s: %w", id, err)
		}
		weight2, err := percentWeight(m[w2])
		if err != nil {
			return nil, false, fmt.Errorf("composite %s: %w", id, err)
		}
		return domain.WeightedPair{
			Name:    id,
			Index1:  m[i1],
			Weight1: weight1,
			Index2:  m[i2],
			Weight2: weight2,
		}, true, nil
	}
}

func rateOffsetPattern(rateCodes []string) func(string) (domain.CompositeSpec, bool, error) {
	if len(rateCodes) == 0 {
		return func(string) (domain.CompositeSpec, bool, error) { return nil, false, nil }
	}
	quoted := make([]string, len(rateCodes))
	for i, code := range rateCodes {
		quoted[i] = regexp.QuoteMeta(code)
	}
	re := regexp.MustCompile(`^(` + strings.Join(quoted, "|") + `)_(\d+)([a-zA-Z]+)$`)

	return func(id string) (domain.CompositeSpec, bool, error) {
		m := re.FindStringSubmatch(id)
		if m == nil {
			return nil, false, nil
		}
		magnitude, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return nil, false, fmt.Errorf("composite %s: invalid offset %q: %w", id, m[2], err)
		}

		spec := domain.RateOffset{Name: id, BaseIndex: m[1]}
		switch strings.ToLower(m[3]) {
		case "pct":
			spec.Offset = magnitude / 100
		case "bp", "bps":
			spec.Offset = magnitude / 100 / 100
			spec.OffsetIsBps = true
		default:
			return nil, false, &domain.FormatError{Identifier: id, Examples: FormatExamples}
		}
		return spec, true, nil
	}
}

func percentWeight(s string) (float64, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid weight %q: %w", s, err)
	}
	return float64(n) / 100, nil
}
