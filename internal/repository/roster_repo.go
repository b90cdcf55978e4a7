package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/domain"
	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/roster"
)

// RemoveEvaluator снимает одного оценщика с проекта. Отсутствующий участник не считается ошибкой.
func (s *Storage) RemoveEvaluator(ctx context.Context, projectID roster.ProjectID, evaluatorID roster.EvaluatorID) error {
	if err := ensureProject(ctx, s.pool, projectID); err != nil {
		return err
	}

	const deleteMember = `DELETE FROM project_evaluators WHERE project_id = $1 AND user_id = $2`
	if _, err := s.pool.Exec(ctx, deleteMember, int64(projectID), int64(evaluatorID)); err != nil {
		return fmt.Errorf("delete project_evaluator (%d): %w", evaluatorID, err)
	}
	return nil
}

// SetMembership принимает полный желаемый состав и добавляет недостающих участников.
// Отсутствующих в списке не удаляет. Если добавлять некого, возвращает ErrAlreadyAssigned.
func (s *Storage) SetMembership(ctx context.Context, projectID roster.ProjectID, evaluatorIDs []roster.EvaluatorID) (err error) {
	if len(evaluatorIDs) == 0 {
		return nil
	}

	// Дубли схлопываем.
	uniq := make(map[roster.EvaluatorID]struct{}, len(evaluatorIDs))
	ids := make([]int64, 0, len(evaluatorIDs))
	for _, id := range evaluatorIDs {
		if _, ok := uniq[id]; ok {
			continue
		}
		uniq[id] = struct{}{}
		ids = append(ids, int64(id))
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

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

	if err := ensureProject(ctx, tx, projectID); err != nil {
		return err
	}

	if err := ensureUsersExist(ctx, tx, ids); err != nil {
		return err
	}

	const insertMembers = `
	INSERT INTO project_evaluators (project_id, user_id, assigned_at)
	SELECT $1, u.user_id, now()
	FROM unnest($2::bigint[]) AS u(user_id)
	ON CONFLICT (project_id, user_id) DO NOTHING
	`
	tag, err := tx.Exec(ctx, insertMembers, int64(projectID), ids)
	if err != nil {
		return fmt.Errorf("insert project_evaluators: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewAlreadyAssignedError(int64(projectID))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	committed = true
	return nil
}

// ensureUsersExist проверяет, что все идентификаторы известны.
func ensureUsersExist(ctx context.Context, q querier, ids []int64) error {
	const qUsers = `SELECT user_id FROM users WHERE user_id = ANY($1)`
	rows, err := q.Query(ctx, qUsers, ids)
	if err != nil {
		return fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	found := make(map[int64]struct{}, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("scan users: %w", err)
		}
		found[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows users: %w", err)
	}

	var missing []string
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, strconv.FormatInt(id, 10))
		}
	}
	if len(missing) > 0 {
		return domain.NewNotFoundError("users " + strings.Join(missing, ", "))
	}
	return nil
}
