package web

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/models"
	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/roster"
)

type historyResp struct {
	ProjectId       roster.ProjectID                `json:"project_id"`
	Reconciliations []*models.ReconciliationOutcome `json:"reconciliations"`
}

// projectIDParam достаёт идентификатор проекта из пути.
func projectIDParam(w http.ResponseWriter, r *http.Request) (roster.ProjectID, bool) {
	pid, err := roster.ParseProjectID(chi.URLParam(r, "projectID"))
	if err != nil {
		writeDomainError(w, err)
		return 0, false
	}
	return pid, true
}

// handleGetRoster возвращает текущий состав проекта.
func (s *Server) handleGetRoster(w http.ResponseWriter, r *http.Request) {
	pid, ok := projectIDParam(w, r)
	if !ok {
		return
	}

	res, err := s.rosterService.CurrentRoster(r.Context(), pid)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// handleAssignEvaluators назначает переданных оценщиков одним вызовом.
func (s *Server) handleAssignEvaluators(w http.ResponseWriter, r *http.Request) {
	pid, ok := projectIDParam(w, r)
	if !ok {
		return
	}
	var p models.PostProjectEvaluatorsJSONBody
	if !s.decodeBody(w, r, &p) {
		return
	}

	res, err := s.rosterService.Assign(r.Context(), pid, p.EvaluatorIds)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// handleUnassignEvaluator снимает одного оценщика с проекта.
func (s *Server) handleUnassignEvaluator(w http.ResponseWriter, r *http.Request) {
	pid, ok := projectIDParam(w, r)
	if !ok {
		return
	}
	eid, err := roster.ParseEvaluatorID(chi.URLParam(r, "evaluatorID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if err := s.rosterService.Unassign(r.Context(), pid, eid); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleReconcile приводит состав проекта к desired за одну попытку.
func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	pid, ok := projectIDParam(w, r)
	if !ok {
		return
	}
	var p models.PostReconcileJSONBody
	if !s.decodeBody(w, r, &p) {
		return
	}

	outcome, err := s.rosterService.Reconcile(r.Context(), pid, p.Desired)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, outcomeStatus(outcome), outcome)
}

// handleHistory отдаёт последние попытки согласования.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	pid, ok := projectIDParam(w, r)
	if !ok {
		return
	}
	limit := s.historyLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, models.CodeInvalidPayload, "limit must be a positive integer")
			return
		}
		limit = min(n, s.historyLimit)
	}

	records, err := s.rosterService.History(r.Context(), pid, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, historyResp{ProjectId: pid, Reconciliations: records})
}

// outcomeStatus: 200 если всё применено, 207 если частично, 502 если ничего.
func outcomeStatus(o *models.ReconciliationOutcome) int {
	switch o.State {
	case roster.StatePartialFailure:
		return http.StatusMultiStatus
	case roster.StateFailure:
		return http.StatusBadGateway
	default:
		return http.StatusOK
	}
}
