package roster

import (
	"errors"
	"fmt"
	"strings"
)

// AdditionStatus описывает судьбу шага добавления.
type AdditionStatus string

const (
	AdditionSkipped         AdditionStatus = "skipped"
	AdditionSucceeded       AdditionStatus = "succeeded"
	AdditionAlreadyAssigned AdditionStatus = "already_assigned"
	AdditionFailed          AdditionStatus = "failed"
)

// State описывает итоговое состояние попытки.
type State string

const (
	StateSuccess        State = "success"
	StatePartialFailure State = "partial_failure"
	StateFailure        State = "failure"
)

// Change описывает, что фактически изменилось в составе.
type Change string

const (
	ChangeBoth        Change = "both"
	ChangeRemovedOnly Change = "removed_only"
	ChangeAddedOnly   Change = "added_only"
	ChangeNoop        Change = "noop"
)

// Phase описывает шаг конечного автомата попытки согласования.
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhasePlanComputed    Phase = "plan_computed"
	PhaseRemovingMembers Phase = "removing_members"
	PhaseAddingMembers   Phase = "adding_members"
	PhaseOutcome         Phase = "outcome"
)

// RemovalError описывает неудачное удаление одного оценщика. Попытку не прерывает.
type RemovalError struct {
	EvaluatorID EvaluatorID
	Err         error
}

func (e *RemovalError) Error() string {
	return fmt.Sprintf("remove evaluator %d: %v", e.EvaluatorID, e.Err)
}

func (e *RemovalError) Unwrap() error {
	return e.Err
}

// AdditionError возвращается, если вызов полного состава упал (кроме "already assigned").
type AdditionError struct {
	Evaluators []EvaluatorID
	Err        error
}

func (e *AdditionError) Error() string {
	return fmt.Sprintf("assign evaluators %s: %v", joinIDs(e.Evaluators), e.Err)
}

func (e *AdditionError) Unwrap() error {
	return e.Err
}

// Outcome содержит сводный результат попытки согласования.
type Outcome struct {
	ProjectID      ProjectID
	Plan           Plan
	Removed        []EvaluatorID
	FailedRemovals []*RemovalError
	Addition       AdditionStatus
	AdditionErr    *AdditionError
	Roster         []EvaluatorID
	State          State
	Change         Change
	Summary        string
	Phases         []Phase
}

// Err возвращает все ошибки попытки одной ошибкой либо nil.
func (o *Outcome) Err() error {
	errs := make([]error, 0, len(o.FailedRemovals)+1)
	for _, f := range o.FailedRemovals {
		errs = append(errs, f)
	}
	if o.AdditionErr != nil {
		errs = append(errs, o.AdditionErr)
	}
	return errors.Join(errs...)
}

// FailedRemovalIDs возвращает идентификаторы, которые не удалось удалить.
func (o *Outcome) FailedRemovalIDs() []EvaluatorID {
	ids := make([]EvaluatorID, 0, len(o.FailedRemovals))
	for _, f := range o.FailedRemovals {
		ids = append(ids, f.EvaluatorID)
	}
	return ids
}

// finalize вычисляет итоговый состав, состояние, вид изменения и сообщение.
func (o *Outcome) finalize() {
	added := o.Addition == AdditionSucceeded || o.Addition == AdditionAlreadyAssigned

	final := o.Plan.Initial.Minus(NewSet(o.Removed...))
	if added {
		final = final.Union(o.Plan.ToAdd)
	}
	o.Roster = final.Sorted()

	removedAny := len(o.Removed) > 0
	switch {
	case removedAny && added:
		o.Change = ChangeBoth
	case removedAny:
		o.Change = ChangeRemovedOnly
	case added:
		o.Change = ChangeAddedOnly
	default:
		o.Change = ChangeNoop
	}

	hasErrors := len(o.FailedRemovals) > 0 || o.AdditionErr != nil
	switch {
	case !hasErrors:
		o.State = StateSuccess
	case removedAny || added:
		o.State = StatePartialFailure
	default:
		o.State = StateFailure
	}

	o.Summary = o.summarize()
}

func (o *Outcome) summarize() string {
	if o.State == StateSuccess {
		switch o.Change {
		case ChangeBoth:
			return fmt.Sprintf("Evaluator assignments updated: %d removed, %d added", len(o.Removed), o.Plan.ToAdd.Len())
		case ChangeRemovedOnly:
			return fmt.Sprintf("%d evaluator(s) removed from the project", len(o.Removed))
		case ChangeAddedOnly:
			return fmt.Sprintf("%d evaluator(s) assigned to the project", o.Plan.ToAdd.Len())
		default:
			return "No changes to evaluator assignments"
		}
	}

	parts := []string{"Failed to update evaluator assignments"}
	if len(o.FailedRemovals) > 0 {
		parts = append(parts, "could not remove evaluators "+joinIDs(o.FailedRemovalIDs()))
	}
	if o.AdditionErr != nil {
		parts = append(parts, fmt.Sprintf("could not assign evaluators %s: %v", joinIDs(o.Plan.ToAdd.Sorted()), o.AdditionErr.Err))
	}
	return strings.Join(parts, "; ")
}

func joinIDs(ids []EvaluatorID) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, id.String())
	}
	return strings.Join(parts, ", ")
}
