package repository

import (
	"context"
	"fmt"

	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/models"
	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/roster"
)

// ListEvaluators возвращает всех пользователей-кандидатов. Фильтрует по роли сервис.
func (s *Storage) ListEvaluators(ctx context.Context) ([]*models.Evaluator, error) {
	const q = `
SELECT user_id, full_name, email, role, is_verified
FROM users
ORDER BY user_id
`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query ListEvaluators: %w", err)
	}
	defer rows.Close()

	var result []*models.Evaluator
	for rows.Next() {
		var (
			id         int64
			fullName   string
			email      *string // может быть NULL
			role       string
			isVerified bool
		)
		if err := rows.Scan(&id, &fullName, &email, &role, &isVerified); err != nil {
			return nil, fmt.Errorf("scan ListEvaluators: %w", err)
		}
		em := ""
		if email != nil {
			em = *email
		}
		result = append(result, &models.Evaluator{
			UserId:     roster.EvaluatorID(id),
			FullName:   fullName,
			Email:      em,
			Role:       role,
			IsVerified: isVerified,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error ListEvaluators: %w", err)
	}

	return result, nil
}

// ListProjectEvaluators возвращает текущий состав оценщиков проекта.
func (s *Storage) ListProjectEvaluators(ctx context.Context, projectID roster.ProjectID) ([]roster.EvaluatorID, error) {
	if err := ensureProject(ctx, s.pool, projectID); err != nil {
		return nil, err
	}

	const q = `
SELECT user_id
FROM project_evaluators
WHERE project_id = $1
ORDER BY user_id
`
	rows, err := s.pool.Query(ctx, q, int64(projectID))
	if err != nil {
		return nil, fmt.Errorf("query ListProjectEvaluators: %w", err)
	}
	defer rows.Close()

	ids := make([]roster.EvaluatorID, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan ListProjectEvaluators: %w", err)
		}
		ids = append(ids, roster.EvaluatorID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error ListProjectEvaluators: %w", err)
	}
	return ids, nil
}
