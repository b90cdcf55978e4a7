package roster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/domain"
)

// Remote описывает примитивные операции над составом проекта во внешней системе.
// Транзакционного diff-эндпоинта нет: только "удалить одного" и "задать полный состав".
type Remote interface {
	RemoveEvaluator(ctx context.Context, projectID ProjectID, id EvaluatorID) error
	SetMembership(ctx context.Context, projectID ProjectID, ids []EvaluatorID) error
}

// Reconciler применяет план к удалённому составу.
type Reconciler struct {
	remote Remote
	log    *slog.Logger
}

// NewReconciler создаёт согласователь поверх удалённых операций.
func NewReconciler(remote Remote, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{remote: remote, log: logger}
}

// Apply выполняет план: сначала все удаления по одному, затем (если есть кого добавлять)
// ровно один вызов полного состава. Ошибки не возвращаются, а собираются в Outcome.
func (r *Reconciler) Apply(ctx context.Context, projectID ProjectID, plan Plan) *Outcome {
	out := &Outcome{
		ProjectID: projectID,
		Plan:      plan,
		Removed:   []EvaluatorID{},
		Addition:  AdditionSkipped,
		Phases:    []Phase{PhaseIdle, PhasePlanComputed, PhaseRemovingMembers},
	}

	// Удаляем строго последовательно: операции над одним составом не коммутируют.
	for _, id := range plan.ToRemove.Sorted() {
		err := safeCall(func() error { return r.remote.RemoveEvaluator(ctx, projectID, id) })
		if err != nil {
			r.log.Warn("evaluator removal failed", "project_id", int64(projectID), "evaluator_id", int64(id), "error", err)
			out.FailedRemovals = append(out.FailedRemovals, &RemovalError{EvaluatorID: id, Err: err})
			continue
		}
		out.Removed = append(out.Removed, id)
	}

	// Пустой состав бэкенд трактует как очистку, поэтому без добавлений вызов пропускаем.
	if plan.ToAdd.Len() > 0 {
		out.Phases = append(out.Phases, PhaseAddingMembers)
		desired := plan.Desired.Sorted()
		err := safeCall(func() error { return r.remote.SetMembership(ctx, projectID, desired) })
		switch {
		case err == nil:
			out.Addition = AdditionSucceeded
		case IsAlreadyAssigned(err):
			r.log.Info("evaluators already assigned", "project_id", int64(projectID), "evaluators", desired)
			out.Addition = AdditionAlreadyAssigned
		default:
			r.log.Warn("evaluator assignment failed", "project_id", int64(projectID), "error", err)
			out.Addition = AdditionFailed
			out.AdditionErr = &AdditionError{Evaluators: plan.ToAdd.Sorted(), Err: err}
		}
	}

	out.Phases = append(out.Phases, PhaseOutcome)
	out.finalize()
	r.log.Info("roster reconciled",
		"project_id", int64(projectID),
		"state", out.State,
		"removed", len(out.Removed),
		"failed_removals", len(out.FailedRemovals),
		"addition", out.Addition,
	)
	return out
}

// Reconcile выполняет ComputePlan и Apply за один вызов.
func (r *Reconciler) Reconcile(ctx context.Context, projectID ProjectID, initial, desired Set) *Outcome {
	return r.Apply(ctx, projectID, ComputePlan(initial, desired))
}

// IsAlreadyAssigned распознаёт некритичный отказ "участники уже назначены".
func IsAlreadyAssigned(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, domain.ErrAlreadyAssigned) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "already assigned")
}

// safeCall не даёт панике из удалённой операции выйти за пределы Apply.
func safeCall(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("remote call panicked: %v", p)
		}
	}()
	return fn()
}
