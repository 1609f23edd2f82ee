// Package handlers provides HTTP handlers for statistics runs.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aristath/navstats/internal/domain"
	"github.com/aristath/navstats/internal/engine"
	"github.com/aristath/navstats/internal/modules/composites"
	"github.com/rs/zerolog"
)

// EntityLister lists the identifiers a series source can serve
type EntityLister interface {
	Entities(ctx context.Context) ([]string, error)
}

// Handler handles statistics HTTP requests
type Handler struct {
	engine   *engine.Engine
	entities EntityLister
	log      zerolog.Logger
}

// NewHandler creates a new statistics handler. entities may be nil.
func NewHandler(
	engine *engine.Engine,
	entities EntityLister,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		engine:   engine,
		entities: entities,
		log:      log.With().Str("handler", "statistics").Logger(),
	}
}

type shareClassRequest struct {
	ID       string `json:"id"`
	Currency string `json:"currency"`
	From     string `json:"from,omitempty"`
}

type switchLegRequest struct {
	ID   string `json:"id"`
	From string `json:"from,omitempty"`
}

type switchRequest struct {
	Name string             `json:"name"`
	Legs []switchLegRequest `json:"legs"`
}

// RunRequest is the body of POST /api/statistics/run. Dates are YYYY-MM-DD.
type RunRequest struct {
	Fund               string              `json:"fund"`
	ShareClasses       []shareClassRequest `json:"share_classes"`
	Indices            []string            `json:"indices"`
	Switches           []switchRequest     `json:"switches,omitempty"`
	ReportingCurrency  string              `json:"reporting_currency"`
	From               string              `json:"from"`
	To                 string              `json:"to"`
	ReportConstituents bool                `json:"report_constituents"`
}

// HandleRun handles POST /api/statistics/run
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	var body RunRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req, err := body.toEngine()
	if err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.engine.Run(r.Context(), req)
	if err != nil {
		h.log.Error().Err(err).Str("fund", body.Fund).Msg("Statistics run failed")
		h.writeError(w, err)
		return
	}

	response := map[string]interface{}{
		"data": result,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"run_id":    result.RunID,
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleParseComposite handles GET /api/statistics/composites/parse
func (h *Handler) HandleParseComposite(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "id parameter is required", http.StatusBadRequest)
		return
	}

	data := map[string]interface{}{
		"identifier": id,
		"composite":  false,
	}
	if composites.IsCandidate(id) {
		spec, err := h.engine.Parser().Parse(id)
		if err != nil {
			h.writeError(w, err)
			return
		}
		data["composite"] = true
		data["kind"] = spec.Kind()
		data["spec"] = spec
		data["constituents"] = spec.Constituents()
	}

	response := map[string]interface{}{
		"data": data,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

// HandleListEntities handles GET /api/statistics/entities
func (h *Handler) HandleListEntities(w http.ResponseWriter, r *http.Request) {
	if h.entities == nil {
		http.Error(w, "Entity listing not available", http.StatusNotImplemented)
		return
	}

	entities, err := h.entities.Entities(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list entities")
		http.Error(w, "Failed to list entities", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"entities": entities,
			"count":    len(entities),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, http.StatusOK, response)
}

func (b RunRequest) toEngine() (engine.Request, error) {
	from, err := parseDate("from", b.From, true)
	if err != nil {
		return engine.Request{}, err
	}
	to, err := parseDate("to", b.To, true)
	if err != nil {
		return engine.Request{}, err
	}

	req := engine.Request{
		Fund:               engine.Fund{Code: b.Fund},
		Indices:            b.Indices,
		ReportingCurrency:  domain.Currency(b.ReportingCurrency),
		From:               from,
		To:                 to,
		ReportConstituents: b.ReportConstituents,
	}
	for _, class := range b.ShareClasses {
		classFrom, err := parseDate("share class from", class.From, false)
		if err != nil {
			return engine.Request{}, err
		}
		req.Fund.ShareClasses = append(req.Fund.ShareClasses, domain.ShareClass{
			ID:       class.ID,
			Currency: domain.Currency(class.Currency),
			From:     classFrom,
		})
	}
	for _, sw := range b.Switches {
		ps := domain.PeriodicSwitch{Name: sw.Name}
		for _, leg := range sw.Legs {
			legFrom, err := parseDate("switch leg from", leg.From, false)
			if err != nil {
				return engine.Request{}, err
			}
			ps.Legs = append(ps.Legs, domain.SwitchLeg{ID: leg.ID, From: legFrom})
		}
		req.Switches = append(req.Switches, ps)
	}
	return req, nil
}

func parseDate(field, value string, required bool) (time.Time, error) {
	if value == "" {
		if required {
			return time.Time{}, fmt.Errorf("%w: %s is required", domain.ErrInvalidRequest, field)
		}
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s %q is not a YYYY-MM-DD date", domain.ErrInvalidRequest, field, value)
	}
	return t, nil
}

// statusFor maps engine errors to HTTP status codes
func statusFor(err error) int {
	var (
		formatErr *domain.FormatError
		configErr *domain.ConfigurationError
		gapErr    *domain.DataGapError
		fetchErr  *domain.SourceFetchError
	)
	switch {
	case errors.Is(err, domain.ErrInvalidRequest),
		errors.As(err, &formatErr),
		errors.As(err, &configErr):
		return http.StatusBadRequest
	case errors.As(err, &gapErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "Statistics run failed"
	}
	h.writeJSON(w, status, map[string]interface{}{"error": message})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
