package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/feanalyst/fe-analyst/internal/analysis"
	"github.com/feanalyst/fe-analyst/internal/domain"
	"github.com/feanalyst/fe-analyst/internal/marketdata"
	"github.com/feanalyst/fe-analyst/internal/scores"
	"github.com/feanalyst/fe-analyst/internal/universe"
)

// ScanTrigger starts a universe scan. Satisfied by scheduler.ScanJob.
type ScanTrigger interface {
	Run() error
}

// Handlers serves the analysis API endpoints
type Handlers struct {
	registry   *analysis.Registry
	aggregator *analysis.Aggregator
	builder    *marketdata.Builder
	securities *universe.SecurityRepository
	scores     *scores.Repository
	scan       ScanTrigger
	log        zerolog.Logger
}

// NewHandlers creates the analysis API handlers
func NewHandlers(
	registry *analysis.Registry,
	aggregator *analysis.Aggregator,
	builder *marketdata.Builder,
	securities *universe.SecurityRepository,
	scoreRepo *scores.Repository,
	scan ScanTrigger,
	log zerolog.Logger,
) *Handlers {
	return &Handlers{
		registry:   registry,
		aggregator: aggregator,
		builder:    builder,
		securities: securities,
		scores:     scoreRepo,
		scan:       scan,
		log:        log.With().Str("component", "handlers").Logger(),
	}
}

// RegisterRoutes registers all analysis routes
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Route("/analysis", func(r chi.Router) {
		r.Get("/{ticker}", h.HandleAnalyze)
		r.Get("/{ticker}/history", h.HandleHistory)
	})
	r.Get("/registry", h.HandleRegistry)
	r.Get("/scores", h.HandleScores)
	r.Post("/scan", h.HandleTriggerScan)
	r.Route("/universe", func(r chi.Router) {
		r.Get("/", h.HandleListUniverse)
		r.Post("/", h.HandleAddSecurity)
	})
}

// HandleAnalyze runs a composite analysis on demand
func (h *Handlers) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	if ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	snap, err := h.builder.Build(ticker)
	if err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to build snapshot")
		writeError(w, http.StatusInternalServerError, "failed to build analysis context")
		return
	}

	result, err := h.aggregator.Compute(r.Context(), ticker, snap)
	if err != nil {
		var cfgErr *domain.ConfigError
		if errors.As(err, &cfgErr) {
			writeError(w, http.StatusInternalServerError, cfgErr.Error())
			return
		}
		// Client went away or cancelled
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleHistory returns stored score history for a ticker
func (h *Handlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")

	limit := 30
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}

	history, err := h.scores.History(ticker, limit)
	if err != nil {
		h.log.Error().Err(err).Str("ticker", ticker).Msg("Failed to load score history")
		writeError(w, http.StatusInternalServerError, "failed to load score history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ticker":  ticker,
		"history": history,
	})
}

// HandleRegistry returns the analyzer specs plus effective weights
func (h *Handlers) HandleRegistry(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"analyzers":         h.registry.Specs(),
		"effective_weights": h.registry.EffectiveWeights(),
	})
}

// HandleScores returns the latest composite per universe ticker
func (h *Handlers) HandleScores(w http.ResponseWriter, _ *http.Request) {
	latest, err := h.scores.Latest()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load latest scores")
		writeError(w, http.StatusInternalServerError, "failed to load scores")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"scores": latest,
	})
}

// HandleTriggerScan kicks off a universe scan in the background
func (h *Handlers) HandleTriggerScan(w http.ResponseWriter, _ *http.Request) {
	go func() {
		if err := h.scan.Run(); err != nil {
			h.log.Error().Err(err).Msg("Triggered scan failed")
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "scan started",
	})
}

// HandleListUniverse returns all securities
func (h *Handlers) HandleListUniverse(w http.ResponseWriter, _ *http.Request) {
	securities, err := h.securities.ListAll()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list universe")
		writeError(w, http.StatusInternalServerError, "failed to list universe")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"securities": securities,
	})
}

// HandleAddSecurity adds or updates a security in the universe
func (h *Handlers) HandleAddSecurity(w http.ResponseWriter, r *http.Request) {
	var sec universe.Security
	if err := json.NewDecoder(r.Body).Decode(&sec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if sec.Ticker == "" {
		writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	if err := h.securities.Upsert(sec); err != nil {
		h.log.Error().Err(err).Str("ticker", sec.Ticker).Msg("Failed to upsert security")
		writeError(w, http.StatusInternalServerError, "failed to store security")
		return
	}

	writeJSON(w, http.StatusOK, sec)
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
