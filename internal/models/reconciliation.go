package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/roster"
)

// PostReconcileJSONBody описывает запрос на согласование состава.
// Desired обязателен; пустой список снимает всех оценщиков.
type PostReconcileJSONBody struct {
	Desired []roster.EvaluatorID `json:"desired" validate:"required"`
}

// RemovalFailure описывает оценщика, которого не удалось снять с проекта.
type RemovalFailure struct {
	EvaluatorId roster.EvaluatorID `json:"evaluator_id"`
	Error       string             `json:"error"`
}

// ReconciliationOutcome описывает JSON-представление результата попытки.
type ReconciliationOutcome struct {
	AttemptId      uuid.UUID             `json:"attempt_id"`
	ProjectId      roster.ProjectID      `json:"project_id"`
	ToRemove       []roster.EvaluatorID  `json:"to_remove"`
	ToAdd          []roster.EvaluatorID  `json:"to_add"`
	Removed        []roster.EvaluatorID  `json:"removed"`
	FailedRemovals []RemovalFailure      `json:"failed_removals"`
	Addition       roster.AdditionStatus `json:"addition"`
	AdditionError  string                `json:"addition_error,omitempty"`
	Roster         []roster.EvaluatorID  `json:"roster"`
	State          roster.State          `json:"state"`
	Change         roster.Change         `json:"change"`
	Summary        string                `json:"summary"`
	Phases         []roster.Phase        `json:"phases,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
}

// ConvertOutcome преобразует результат согласователя в модель ответа и истории.
func ConvertOutcome(attemptID uuid.UUID, o *roster.Outcome, createdAt time.Time) *ReconciliationOutcome {
	failures := make([]RemovalFailure, 0, len(o.FailedRemovals))
	for _, f := range o.FailedRemovals {
		failures = append(failures, RemovalFailure{
			EvaluatorId: f.EvaluatorID,
			Error:       f.Err.Error(),
		})
	}
	res := &ReconciliationOutcome{
		AttemptId:      attemptID,
		ProjectId:      o.ProjectID,
		ToRemove:       o.Plan.ToRemove.Sorted(),
		ToAdd:          o.Plan.ToAdd.Sorted(),
		Removed:        append([]roster.EvaluatorID{}, o.Removed...),
		FailedRemovals: failures,
		Addition:       o.Addition,
		Roster:         o.Roster,
		State:          o.State,
		Change:         o.Change,
		Summary:        o.Summary,
		Phases:         o.Phases,
		CreatedAt:      createdAt,
	}
	if o.AdditionErr != nil {
		res.AdditionError = o.AdditionErr.Err.Error()
	}
	return res
}
