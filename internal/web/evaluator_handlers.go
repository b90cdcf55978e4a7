package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/models"
	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/roster"
)

type evaluatorsResp struct {
	Evaluators []*models.Evaluator `json:"evaluators"`
}

// handleListEvaluators возвращает кандидатов в оценщики с фильтром по роли и верификации.
func (s *Server) handleListEvaluators(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := models.GetEvaluatorsParams{
		Role:     q.Get("role"),
		Verified: q.Get("verified"),
	}
	if err := s.validate.Struct(params); err != nil {
		writeError(w, http.StatusBadRequest, models.CodeInvalidPayload, validationMessage(err))
		return
	}

	filter := models.CandidateFilter{Role: params.Role}
	if params.Verified != "" {
		verified := params.Verified == "true"
		filter.Verified = &verified
	}

	evaluators, err := s.evaluatorService.Candidates(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, evaluatorsResp{Evaluators: evaluators})
}

func (s *Server) handleGetEvaluator(w http.ResponseWriter, r *http.Request) {
	eid, err := roster.ParseEvaluatorID(chi.URLParam(r, "evaluatorID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	ev, err := s.evaluatorService.Lookup(r.Context(), eid)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ev)
}
