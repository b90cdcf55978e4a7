package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/domain"
	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/models"
)

func sessionIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "sessionID")
	id, err := uuid.Parse(raw)
	if err != nil {
		writeDomainError(w, domain.NewNotFoundError("roster editor "+raw))
		return uuid.Nil, false
	}
	return id, true
}

// handleOpenEditor открывает редактор со снимком текущего состава и списком кандидатов.
func (s *Server) handleOpenEditor(w http.ResponseWriter, r *http.Request) {
	pid, ok := projectIDParam(w, r)
	if !ok {
		return
	}

	sess, err := s.rosterService.OpenEditor(r.Context(), pid)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleGetEditor(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionIDParam(w, r)
	if !ok {
		return
	}

	sess, err := s.rosterService.Editor(r.Context(), sid)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

// handleToggleEditor включает или исключает оценщика из desired.
func (s *Server) handleToggleEditor(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionIDParam(w, r)
	if !ok {
		return
	}
	var p models.PostEditorToggleJSONBody
	if !s.decodeBody(w, r, &p) {
		return
	}

	sess, err := s.rosterService.Toggle(r.Context(), sid, p.EvaluatorId, p.Assigned)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

// handleCommitEditor применяет изменения редактора. Статус ответа такой же, как у reconcile.
func (s *Server) handleCommitEditor(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionIDParam(w, r)
	if !ok {
		return
	}

	res, err := s.rosterService.CommitEditor(r.Context(), sid)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, outcomeStatus(res.Outcome), res)
}

func (s *Server) handleCancelEditor(w http.ResponseWriter, r *http.Request) {
	sid, ok := sessionIDParam(w, r)
	if !ok {
		return
	}

	if err := s.rosterService.CancelEditor(r.Context(), sid); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
