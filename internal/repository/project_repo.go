package repository

import (
	"context"
	"fmt"

	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/domain"
	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/roster"
)

// ensureProject проверяет существование проекта через пул или внутри транзакции.
func ensureProject(ctx context.Context, q querier, projectID roster.ProjectID) error {
	const qProject = `SELECT 1 FROM projects WHERE project_id = $1`
	rows, err := q.Query(ctx, qProject, int64(projectID))
	if err != nil {
		return fmt.Errorf("query project %d: %w", projectID, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return fmt.Errorf("rows project %d: %w", projectID, err)
		}
		return domain.NewNotFoundError(fmt.Sprintf("project %d", projectID))
	}
	return nil
}
