package web

import (
	"context"

	"github.com/google/uuid"

	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/models"
	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/roster"
)

// RosterService описывает операции над составом оценщиков, которые нужны HTTP-слою.
type RosterService interface {
	CurrentRoster(ctx context.Context, projectID roster.ProjectID) (*models.ProjectRoster, error)
	Assign(ctx context.Context, projectID roster.ProjectID, ids []roster.EvaluatorID) (*models.ProjectRoster, error)
	Unassign(ctx context.Context, projectID roster.ProjectID, evaluatorID roster.EvaluatorID) error
	Reconcile(ctx context.Context, projectID roster.ProjectID, desired []roster.EvaluatorID) (*models.ReconciliationOutcome, error)
	History(ctx context.Context, projectID roster.ProjectID, limit int) ([]*models.ReconciliationOutcome, error)
	EditorService
}

// EditorService управляет сессиями редактора состава.
type EditorService interface {
	OpenEditor(ctx context.Context, projectID roster.ProjectID) (*models.EditorSession, error)
	Editor(ctx context.Context, sessionID uuid.UUID) (*models.EditorSession, error)
	Toggle(ctx context.Context, sessionID uuid.UUID, evaluatorID roster.EvaluatorID, assigned bool) (*models.EditorSession, error)
	CommitEditor(ctx context.Context, sessionID uuid.UUID) (*models.EditorCommitResult, error)
	CancelEditor(ctx context.Context, sessionID uuid.UUID) error
}

// EvaluatorService отдаёт кандидатов в оценщики.
type EvaluatorService interface {
	Candidates(ctx context.Context, filter models.CandidateFilter) ([]*models.Evaluator, error)
	Lookup(ctx context.Context, id roster.EvaluatorID) (*models.Evaluator, error)
}
