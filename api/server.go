// Package api - Thin HTTP layer over the engines.
// The API is only responsible for input ingestion, engine orchestration,
// and output serialization. It never performs cost logic.
package api

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"cloudcost/core/aggregate"
	"cloudcost/core/budget"
	"cloudcost/core/compare"
	"cloudcost/core/normalize"
	"cloudcost/core/recommend"
	"cloudcost/core/selection"
	"cloudcost/internal/errors"
	"cloudcost/internal/logging"
)

// Deps wires the engines the server exposes. Nil engines disable their
// routes with a configuration error instead of a panic.
type Deps struct {
	Compare   *compare.Engine
	Selection *selection.Engine
	Normalize *normalize.Engine
	Aggregate *aggregate.Engine
	Budget    *budget.Engine
	Recommend *recommend.Engine
}

// Server is the API server
type Server struct {
	deps    Deps
	mux     *http.ServeMux
	version string
	log     *zap.Logger
}

// NewServer creates an API server over the given engines
func NewServer(version string, deps Deps) *Server {
	s := &Server{
		deps:    deps,
		mux:     http.NewServeMux(),
		version: version,
		log:     logging.Named("api"),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /v1/compare/vm", s.handleCompareVm)
	s.mux.HandleFunc("POST /v1/compare/storage", s.handleCompareStorage)
	s.mux.HandleFunc("POST /v1/compare/network", s.handleCompareNetwork)
	s.mux.HandleFunc("POST /v1/select", s.handleSelect)

	s.mux.HandleFunc("POST /v1/normalize", s.handleNormalize)
	s.mux.HandleFunc("POST /v1/aggregate", s.handleAggregate)

	s.mux.HandleFunc("POST /v1/budgets", s.handleCreateBudget)
	s.mux.HandleFunc("GET /v1/budgets", s.handleListBudgets)
	s.mux.HandleFunc("GET /v1/budgets/{id}", s.handleGetBudget)
	s.mux.HandleFunc("PUT /v1/budgets/{id}", s.handleUpdateBudget)
	s.mux.HandleFunc("DELETE /v1/budgets/{id}", s.handleDeleteBudget)
	s.mux.HandleFunc("POST /v1/budgets/{id}/evaluate", s.handleEvaluateBudget)
	s.mux.HandleFunc("GET /v1/budgets/{id}/alerts", s.handleListAlerts)
	s.mux.HandleFunc("POST /v1/budgets/{id}/forecast", s.handleForecast)
	s.mux.HandleFunc("POST /v1/alerts/{id}/acknowledge", s.handleAcknowledgeAlert)
	s.mux.HandleFunc("POST /v1/alerts/{id}/resolve", s.handleResolveAlert)

	s.mux.HandleFunc("POST /v1/recommendations/placement", s.handlePlacement)
	s.mux.HandleFunc("GET /v1/resources/{id}/recommendations", s.handleResourceRecommendations)

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /version", s.handleVersion)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]interface{}{
		"status":  "healthy",
		"version": s.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string]string{
		"version":     s.version,
		"engine":      "cloudcost",
		"api_version": "v1",
	}, http.StatusOK)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe starts the server
func (s *Server) ListenAndServe(addr string) error {
	s.log.Info("api listening", zap.String("addr", addr))
	return http.ListenAndServe(addr, s)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, into interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(into); err != nil {
		s.writeError(w, errors.Wrap(errors.TypeValidation, "decoding request body", err))
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError maps typed domain errors onto HTTP statuses
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	body := map[string]interface{}{
		"error": map[string]interface{}{
			"code":    string(errors.TypeInternal),
			"message": err.Error(),
		},
	}

	var typed *errors.Error
	if stderrors.As(err, &typed) {
		status = statusFor(typed.Type)
		body["error"] = typed
	}
	s.writeJSON(w, body, status)
}

func statusFor(t errors.Type) int {
	switch t {
	case errors.TypeValidation, errors.TypeParsing, errors.TypeNormalization:
		return http.StatusBadRequest
	case errors.TypeNotFound, errors.TypeNoMatchingOptions, errors.TypeResourceMapping:
		return http.StatusNotFound
	case errors.TypeBudget, errors.TypeInsufficientData, errors.TypeCompliance:
		return http.StatusUnprocessableEntity
	case errors.TypeConcurrency, errors.TypeThrottling:
		return http.StatusTooManyRequests
	case errors.TypeComparisonTimeout, errors.TypeSelectionTimeout:
		return http.StatusGatewayTimeout
	case errors.TypeAuthentication:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
