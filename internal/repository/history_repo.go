package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/models"
	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/roster"
)

// SaveReconciliation сохраняет попытку согласования и её неудачные удаления в одной транзакции.
func (s *Storage) SaveReconciliation(ctx context.Context, rec *models.ReconciliationOutcome) (err error) {
	if rec == nil {
		return fmt.Errorf("reconciliation is nil")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				err = errors.Join(err, fmt.Errorf("rollback tx: %w", rollbackErr))
			}
		}
	}()

	const insertAttempt = `
	INSERT INTO roster_reconciliations (
		attempt_id, project_id, state, change, addition, addition_error, summary,
		to_remove, to_add, removed, final_roster, created_at
	) VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10, $11, $12)
	`
	_, err = tx.Exec(ctx, insertAttempt,
		rec.AttemptId,
		int64(rec.ProjectId),
		string(rec.State),
		string(rec.Change),
		string(rec.Addition),
		rec.AdditionError,
		rec.Summary,
		toInt64s(rec.ToRemove),
		toInt64s(rec.ToAdd),
		toInt64s(rec.Removed),
		toInt64s(rec.Roster),
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert roster_reconciliations: %w", err)
	}

	const insertFailure = `INSERT INTO roster_reconciliation_failures (attempt_id, user_id, error) VALUES ($1, $2, $3)`
	for _, f := range rec.FailedRemovals {
		if _, err := tx.Exec(ctx, insertFailure, rec.AttemptId, int64(f.EvaluatorId), f.Error); err != nil {
			return fmt.Errorf("insert roster_reconciliation_failure (%d): %w", f.EvaluatorId, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}

// ListReconciliations возвращает последние попытки согласования по проекту, новые первыми.
func (s *Storage) ListReconciliations(ctx context.Context, projectID roster.ProjectID, limit int) ([]*models.ReconciliationOutcome, error) {
	const q = `
SELECT
    attempt_id,
    project_id,
    state,
    change,
    addition,
    COALESCE(addition_error, ''),
    summary,
    to_remove,
    to_add,
    removed,
    final_roster,
    created_at
FROM roster_reconciliations
WHERE project_id = $1
ORDER BY created_at DESC
LIMIT $2
`
	rows, err := s.pool.Query(ctx, q, int64(projectID), limit)
	if err != nil {
		return nil, fmt.Errorf("query reconciliations: %w", err)
	}
	defer rows.Close()

	var (
		result []*models.ReconciliationOutcome
		byID   = make(map[uuid.UUID]*models.ReconciliationOutcome)
		ids    []uuid.UUID
	)
	for rows.Next() {
		var (
			attemptID   uuid.UUID
			pid         int64
			state       string
			change      string
			addition    string
			additionErr string
			summary     string
			toRemove    []int64
			toAdd       []int64
			removed     []int64
			final       []int64
			created     time.Time
		)
		if err := rows.Scan(&attemptID, &pid, &state, &change, &addition, &additionErr, &summary,
			&toRemove, &toAdd, &removed, &final, &created); err != nil {
			return nil, fmt.Errorf("scan reconciliations: %w", err)
		}
		rec := &models.ReconciliationOutcome{
			AttemptId:      attemptID,
			ProjectId:      roster.ProjectID(pid),
			ToRemove:       fromInt64s(toRemove),
			ToAdd:          fromInt64s(toAdd),
			Removed:        fromInt64s(removed),
			FailedRemovals: []models.RemovalFailure{},
			Addition:       roster.AdditionStatus(addition),
			AdditionError:  additionErr,
			Roster:         fromInt64s(final),
			State:          roster.State(state),
			Change:         roster.Change(change),
			Summary:        summary,
			CreatedAt:      created,
		}
		result = append(result, rec)
		byID[attemptID] = rec
		ids = append(ids, attemptID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reconciliations rows: %w", err)
	}

	if len(ids) == 0 {
		return result, nil
	}

	const qFailures = `
SELECT attempt_id, user_id, error
FROM roster_reconciliation_failures
WHERE attempt_id = ANY($1)
ORDER BY user_id
`
	frows, err := s.pool.Query(ctx, qFailures, ids)
	if err != nil {
		return nil, fmt.Errorf("query reconciliation failures: %w", err)
	}
	defer frows.Close()

	for frows.Next() {
		var (
			attemptID uuid.UUID
			userID    int64
			msg       string
		)
		if err := frows.Scan(&attemptID, &userID, &msg); err != nil {
			return nil, fmt.Errorf("scan reconciliation failure: %w", err)
		}
		if rec, ok := byID[attemptID]; ok {
			rec.FailedRemovals = append(rec.FailedRemovals, models.RemovalFailure{
				EvaluatorId: roster.EvaluatorID(userID),
				Error:       msg,
			})
		}
	}
	if err := frows.Err(); err != nil {
		return nil, fmt.Errorf("reconciliation failures rows: %w", err)
	}

	return result, nil
}
