package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/roster"
)

// EditorSession описывает открытый редактор: снимок initial и изменяемый desired.
type EditorSession struct {
	SessionId  uuid.UUID            `json:"session_id"`
	ProjectId  roster.ProjectID     `json:"project_id"`
	Initial    []roster.EvaluatorID `json:"initial"`
	Desired    []roster.EvaluatorID `json:"desired"`
	ToRemove   []roster.EvaluatorID `json:"to_remove"`
	ToAdd      []roster.EvaluatorID `json:"to_add"`
	Candidates []*Evaluator         `json:"candidates,omitempty"`
	OpenedAt   time.Time            `json:"opened_at"`
	ExpiresAt  time.Time            `json:"expires_at"`
}

// PostEditorToggleJSONBody переключает одного оценщика в desired.
type PostEditorToggleJSONBody struct {
	EvaluatorId roster.EvaluatorID `json:"evaluator_id" validate:"required"`
	Assigned    bool               `json:"assigned"`
}

// EditorCommitResult описывает результат коммита редактора.
// Session не nil, если редактор оставлен открытым для повторной попытки.
type EditorCommitResult struct {
	Outcome *ReconciliationOutcome `json:"outcome"`
	Session *EditorSession         `json:"session,omitempty"`
}
