package api

import (
	"net/http"

	"cloudcost/core/normalize"
	"cloudcost/core/types"
	"cloudcost/internal/errors"
)

// CompareVmRequest is the POST /v1/compare/vm body
type CompareVmRequest struct {
	Requirements types.VmRequirements    `json:"requirements"`
	Filters      types.ComparisonFilters `json:"filters"`
}

// CompareStorageRequest is the POST /v1/compare/storage body
type CompareStorageRequest struct {
	Requirements types.StorageRequirements `json:"requirements"`
	Filters      types.ComparisonFilters   `json:"filters"`
}

// CompareNetworkRequest is the POST /v1/compare/network body
type CompareNetworkRequest struct {
	Requirements types.NetworkRequirements `json:"requirements"`
	Filters      types.ComparisonFilters   `json:"filters"`
}

// SelectRequest is the POST /v1/select body. Name keys the engine's
// concurrency cap.
type SelectRequest struct {
	Name         string                      `json:"name"`
	Requirements types.SelectionRequirements `json:"requirements"`
	Policy       *types.SelectionPolicy      `json:"policy,omitempty"`
}

// NormalizeRequest is the POST /v1/normalize body
type NormalizeRequest struct {
	Provider types.Provider        `json:"provider"`
	Window   normalize.Window      `json:"window"`
	Records  []normalize.RawRecord `json:"records"`
}

// AggregateRequest is the POST /v1/aggregate body
type AggregateRequest struct {
	Entries []types.NormalizedCostEntry `json:"entries"`
	GroupBy []string                    `json:"group_by"`
}

// EvaluateBudgetRequest is the POST /v1/budgets/{id}/evaluate body
type EvaluateBudgetRequest struct {
	Spend types.Money `json:"spend"`
}

// ForecastRequest is the POST /v1/budgets/{id}/forecast body
type ForecastRequest struct {
	History []types.ForecastPoint `json:"history"`
}

func (s *Server) handleCompareVm(w http.ResponseWriter, r *http.Request) {
	if s.deps.Compare == nil {
		s.writeError(w, errors.Configuration("comparison engine not configured"))
		return
	}
	var req CompareVmRequest
	if !s.decode(w, r, &req) {
		return
	}
	result, err := s.deps.Compare.CompareVm(r.Context(), req.Requirements, req.Filters)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, result, http.StatusOK)
}

func (s *Server) handleCompareStorage(w http.ResponseWriter, r *http.Request) {
	if s.deps.Compare == nil {
		s.writeError(w, errors.Configuration("comparison engine not configured"))
		return
	}
	var req CompareStorageRequest
	if !s.decode(w, r, &req) {
		return
	}
	result, err := s.deps.Compare.CompareStorage(r.Context(), req.Requirements, req.Filters)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, result, http.StatusOK)
}

func (s *Server) handleCompareNetwork(w http.ResponseWriter, r *http.Request) {
	if s.deps.Compare == nil {
		s.writeError(w, errors.Configuration("comparison engine not configured"))
		return
	}
	var req CompareNetworkRequest
	if !s.decode(w, r, &req) {
		return
	}
	result, err := s.deps.Compare.CompareNetwork(r.Context(), req.Requirements, req.Filters)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, result, http.StatusOK)
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	if s.deps.Selection == nil {
		s.writeError(w, errors.Configuration("selection engine not configured"))
		return
	}
	var req SelectRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		s.writeError(w, errors.Validation("name", req.Name, "must not be empty"))
		return
	}
	result, err := s.deps.Selection.Select(r.Context(), req.Name, req.Requirements, req.Policy)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, result, http.StatusOK)
}

func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	if s.deps.Normalize == nil {
		s.writeError(w, errors.Configuration("normalization engine not configured"))
		return
	}
	var req NormalizeRequest
	if !s.decode(w, r, &req) {
		return
	}
	result, err := s.deps.Normalize.Normalize(req.Provider, req.Window, req.Records)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, result, http.StatusOK)
}

func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	if s.deps.Aggregate == nil {
		s.writeError(w, errors.Configuration("aggregation engine not configured"))
		return
	}
	var req AggregateRequest
	if !s.decode(w, r, &req) {
		return
	}
	result, err := s.deps.Aggregate.Aggregate(req.Entries, req.GroupBy)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, result, http.StatusOK)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	if s.deps.Budget == nil {
		s.writeError(w, errors.Configuration("budget engine not configured"))
		return
	}
	var b types.Budget
	if !s.decode(w, r, &b) {
		return
	}
	created, err := s.deps.Budget.Create(r.Context(), b)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, created, http.StatusCreated)
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	if s.deps.Budget == nil {
		s.writeError(w, errors.Configuration("budget engine not configured"))
		return
	}
	budgets, err := s.deps.Budget.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]interface{}{"budgets": budgets, "count": len(budgets)}, http.StatusOK)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	if s.deps.Budget == nil {
		s.writeError(w, errors.Configuration("budget engine not configured"))
		return
	}
	b, err := s.deps.Budget.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, b, http.StatusOK)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	if s.deps.Budget == nil {
		s.writeError(w, errors.Configuration("budget engine not configured"))
		return
	}
	var b types.Budget
	if !s.decode(w, r, &b) {
		return
	}
	b.ID = r.PathValue("id")
	updated, err := s.deps.Budget.Update(r.Context(), b)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, updated, http.StatusOK)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	if s.deps.Budget == nil {
		s.writeError(w, errors.Configuration("budget engine not configured"))
		return
	}
	if err := s.deps.Budget.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEvaluateBudget(w http.ResponseWriter, r *http.Request) {
	if s.deps.Budget == nil {
		s.writeError(w, errors.Configuration("budget engine not configured"))
		return
	}
	var req EvaluateBudgetRequest
	if !s.decode(w, r, &req) {
		return
	}
	alerts, err := s.deps.Budget.Evaluate(r.Context(), r.PathValue("id"), req.Spend)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]interface{}{"alerts": alerts, "count": len(alerts)}, http.StatusOK)
}

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	if s.deps.Budget == nil {
		s.writeError(w, errors.Configuration("budget engine not configured"))
		return
	}
	alerts, err := s.deps.Budget.Alerts(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]interface{}{"alerts": alerts, "count": len(alerts)}, http.StatusOK)
}

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	if s.deps.Budget == nil {
		s.writeError(w, errors.Configuration("budget engine not configured"))
		return
	}
	var req ForecastRequest
	if !s.decode(w, r, &req) {
		return
	}
	forecast, err := s.deps.Budget.Forecast(r.Context(), r.PathValue("id"), req.History)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, forecast, http.StatusOK)
}

func (s *Server) handleAcknowledgeAlert(w http.ResponseWriter, r *http.Request) {
	if s.deps.Budget == nil {
		s.writeError(w, errors.Configuration("budget engine not configured"))
		return
	}
	alert, err := s.deps.Budget.Acknowledge(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, alert, http.StatusOK)
}

func (s *Server) handleResolveAlert(w http.ResponseWriter, r *http.Request) {
	if s.deps.Budget == nil {
		s.writeError(w, errors.Configuration("budget engine not configured"))
		return
	}
	alert, err := s.deps.Budget.Resolve(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, alert, http.StatusOK)
}

func (s *Server) handlePlacement(w http.ResponseWriter, r *http.Request) {
	if s.deps.Recommend == nil {
		s.writeError(w, errors.Configuration("recommendation engine not configured"))
		return
	}
	var req SelectRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		s.writeError(w, errors.Validation("name", req.Name, "must not be empty"))
		return
	}
	rec, err := s.deps.Recommend.Placement(r.Context(), req.Name, req.Requirements, req.Policy)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, rec, http.StatusOK)
}

func (s *Server) handleResourceRecommendations(w http.ResponseWriter, r *http.Request) {
	if s.deps.Recommend == nil {
		s.writeError(w, errors.Configuration("recommendation engine not configured"))
		return
	}
	recs, err := s.deps.Recommend.ForResource(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]interface{}{"recommendations": recs, "count": len(recs)}, http.StatusOK)
}
