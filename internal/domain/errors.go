package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownEntity is returned by sources that hold no data at all for an identifier
	ErrUnknownEntity = errors.New("unknown entity")
	// ErrNoHedgeCost is returned when a currency pair has no hedge cost for a required month
	ErrNoHedgeCost = errors.New("no hedge cost data")
	// ErrInvalidRequest is returned for statistics requests missing mandatory fields
	ErrInvalidRequest = errors.New("invalid request")
)

// FormatError reports a composite identifier that matches none of the known grammars
type FormatError struct {
	Identifier string
	Examples   []string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unrecognised composite identifier %q, valid formats: %s",
		e.Identifier, strings.Join(e.Examples, ", "))
}

// DataGapError lists every required column that still has missing values after front-fill
type DataGapError struct {
	Columns []string
}

func (e *DataGapError) Error() string {
	return fmt.Sprintf("missing values in required columns: %s", strings.Join(e.Columns, ", "))
}

// SourceFetchError wraps a failure of the raw series collaborator
type SourceFetchError struct {
	EntityID string
	Err      error
}

func (e *SourceFetchError) Error() string {
	return fmt.Sprintf("failed to fetch series %s: %v", e.EntityID, e.Err)
}

func (e *SourceFetchError) Unwrap() error {
	return e.Err
}

// ConfigurationError reports a setting the engine cannot work with
type ConfigurationError struct {
	Setting string
	Value   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("unsupported %s: %q", e.Setting, e.Value)
}
