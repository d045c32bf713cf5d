package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/leaklens/leaklens/internal/application"
)

const version = "2.0.0"

// AnalyzerService is the application surface the handlers depend on.
type AnalyzerService interface {
	Analyze(ctx context.Context, req application.Request) (*application.Result, error)
}

// HealthChecker reports dependency health, typically the cache tier.
type HealthChecker func(ctx context.Context) error

// Handlers holds the endpoint implementations.
type Handlers struct {
	analyzer AnalyzerService
	checks   map[string]HealthChecker
}

// NewHandlers creates the handler set. checks may be nil.
func NewHandlers(analyzer AnalyzerService, checks map[string]HealthChecker) *Handlers {
	return &Handlers{analyzer: analyzer, checks: checks}
}

type errorResponse struct {
	Error string `json:"error"`
}

// AnalyzeWallet runs a full analysis for the wallet in the request body.
func (h *Handlers) AnalyzeWallet(w http.ResponseWriter, r *http.Request) {
	var req application.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.analyzer.Analyze(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, application.ErrNoTransactions):
			writeError(w, http.StatusNotFound, "no transactions found for wallet")
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			writeError(w, http.StatusGatewayTimeout, "analysis timed out")
		default:
			log.Error().
				Err(err).
				Str("request_id", RequestID(r.Context())).
				Str("wallet", req.Wallet).
				Msg("analysis failed")
			writeError(w, http.StatusInternalServerError, "analysis failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type healthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// Health reports service and dependency health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "healthy", Version: version}
	if len(h.checks) > 0 {
		resp.Checks = make(map[string]string, len(h.checks))
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		for name, check := range h.checks {
			if err := check(ctx); err != nil {
				resp.Checks[name] = "unavailable"
				resp.Status = "degraded"
			} else {
				resp.Checks[name] = "ok"
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// NotFound is the JSON 404 handler.
func (h *Handlers) NotFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, "not found")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
