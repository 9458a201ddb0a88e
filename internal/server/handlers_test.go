package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feanalyst/fe-analyst/internal/analysis"
	"github.com/feanalyst/fe-analyst/internal/database"
	"github.com/feanalyst/fe-analyst/internal/domain"
	"github.com/feanalyst/fe-analyst/internal/marketdata"
	"github.com/feanalyst/fe-analyst/internal/scores"
	"github.com/feanalyst/fe-analyst/internal/universe"
)

// fixedAnalyzer always reports the same score.
type fixedAnalyzer struct {
	name  string
	score float64
}

func (a *fixedAnalyzer) Name() string { return a.name }

func (a *fixedAnalyzer) Analyze(context.Context, string, *domain.Snapshot) domain.AnalyzerResult {
	return domain.Scored(a.score, nil)
}

// stubScan records trigger calls.
type stubScan struct {
	runs chan struct{}
}

func (s *stubScan) Run() error {
	s.runs <- struct{}{}
	return nil
}

type handlersFixture struct {
	handlers   *Handlers
	router     *chi.Mux
	securities *universe.SecurityRepository
	scores     *scores.Repository
	scan       *stubScan
}

func newHandlersFixture(t *testing.T) *handlersFixture {
	t.Helper()

	dir := t.TempDir()
	openDB := func(name string) *database.DB {
		db, err := database.New(database.Config{
			Path: filepath.Join(dir, name+".db"),
			Name: name,
		})
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		return db
	}

	securityRepo := universe.NewSecurityRepository(openDB("universe").Conn(), zerolog.Nop())
	require.NoError(t, securityRepo.InitSchema())

	history := universe.NewHistoryDB(openDB("history").Conn(), zerolog.Nop())
	require.NoError(t, history.InitSchema())

	scoreRepo := scores.NewRepository(openDB("scores").Conn(), zerolog.Nop())
	require.NoError(t, scoreRepo.InitSchema())

	registry, err := analysis.NewRegistry(
		[]analysis.Spec{
			{Name: "alpha", Weight: 0.5, Enabled: true},
			{Name: "beta", Weight: 0.5, Enabled: true},
		},
		map[string]analysis.Factory{
			"alpha": func() domain.Analyzer { return &fixedAnalyzer{name: "alpha", score: 80} },
			"beta":  func() domain.Analyzer { return &fixedAnalyzer{name: "beta", score: 60} },
		},
	)
	require.NoError(t, err)

	aggregator := analysis.NewAggregator(registry, time.Second, zerolog.Nop())
	builder := marketdata.NewBuilder(history, nil, zerolog.Nop())
	scan := &stubScan{runs: make(chan struct{}, 1)}

	handlers := NewHandlers(registry, aggregator, builder, securityRepo, scoreRepo, scan, zerolog.Nop())

	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		handlers.RegisterRoutes(r)
	})

	return &handlersFixture{
		handlers:   handlers,
		router:     router,
		securities: securityRepo,
		scores:     scoreRepo,
		scan:       scan,
	}
}

func (f *handlersFixture) request(t *testing.T, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestHandleAnalyze(t *testing.T) {
	f := newHandlersFixture(t)

	rec := f.request(t, http.MethodGet, "/api/analysis/AAPL", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var result domain.CompositeResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))

	assert.Equal(t, "AAPL", result.Ticker)
	assert.InDelta(t, 70.0, result.CompositeScore, 1e-9)
	assert.Equal(t, domain.Buy, result.Recommendation)
	assert.Len(t, result.PerAnalyzer, 2)
}

func TestHandleHistory(t *testing.T) {
	f := newHandlersFixture(t)

	require.NoError(t, f.scores.Store("run-1", &domain.CompositeResult{
		Ticker:         "AAPL",
		CompositeScore: 70,
		Recommendation: domain.Buy,
		ComputedAt:     time.Now().UTC(),
	}))

	rec := f.request(t, http.MethodGet, "/api/analysis/AAPL/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Ticker  string          `json:"ticker"`
		History []scores.Record `json:"history"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "AAPL", payload.Ticker)
	require.Len(t, payload.History, 1)
	assert.InDelta(t, 70.0, payload.History[0].CompositeScore, 1e-9)
}

func TestHandleRegistry(t *testing.T) {
	f := newHandlersFixture(t)

	rec := f.request(t, http.MethodGet, "/api/registry", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Analyzers        []analysis.Spec    `json:"analyzers"`
		EffectiveWeights map[string]float64 `json:"effective_weights"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Len(t, payload.Analyzers, 2)
	assert.InDelta(t, 0.5, payload.EffectiveWeights["alpha"], 1e-9)
}

func TestHandleScores(t *testing.T) {
	f := newHandlersFixture(t)

	require.NoError(t, f.scores.Store("run-1", &domain.CompositeResult{
		Ticker:         "MSFT",
		CompositeScore: 62,
		Recommendation: domain.Buy,
		ComputedAt:     time.Now().UTC(),
	}))

	rec := f.request(t, http.MethodGet, "/api/scores", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Scores []scores.Record `json:"scores"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Scores, 1)
	assert.Equal(t, "MSFT", payload.Scores[0].Ticker)
}

func TestHandleTriggerScan(t *testing.T) {
	f := newHandlersFixture(t)

	rec := f.request(t, http.MethodPost, "/api/scan", nil)
	assert.Equal(t, http.StatusAccepted, rec.Code)

	select {
	case <-f.scan.runs:
	case <-time.After(time.Second):
		t.Fatal("scan was not triggered")
	}
}

func TestHandleUniverse(t *testing.T) {
	f := newHandlersFixture(t)

	body, err := json.Marshal(universe.Security{
		Ticker:  "AAPL",
		Name:    "Apple Inc",
		Enabled: true,
	})
	require.NoError(t, err)

	rec := f.request(t, http.MethodPost, "/api/universe/", body)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.request(t, http.MethodGet, "/api/universe/", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Securities []universe.Security `json:"securities"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Securities, 1)
	assert.Equal(t, "AAPL", payload.Securities[0].Ticker)
}

func TestHandleAddSecurityValidation(t *testing.T) {
	f := newHandlersFixture(t)

	rec := f.request(t, http.MethodPost, "/api/universe/", []byte(`{"name":"No Ticker"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.request(t, http.MethodPost, "/api/universe/", []byte(`not json`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
