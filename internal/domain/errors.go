package domain

import (
	"errors"
	"fmt"
)

// Сентинельные ошибки домена, используемые сервисами, репозиториями и веб-слоем.
var (
	ErrNotFound            = errors.New("NOT_FOUND")
	ErrAlreadyAssigned     = errors.New("ALREADY_ASSIGNED")
	ErrReconcileInProgress = errors.New("RECONCILE_IN_PROGRESS")
	ErrInvalidEvaluatorID  = errors.New("INVALID_EVALUATOR")
	ErrUnauthorized        = errors.New("UNAUTHORIZED")
	ErrEditorClosed        = errors.New("EDITOR_CLOSED")
)

// AlreadyAssignedMessage повторяет текст отказа бэкенда, когда все участники уже в составе.
const AlreadyAssignedMessage = "User(s) already assigned to this project"

// NewNotFoundError возвращает ошибку отсутствия переданного ресурса.
func NewNotFoundError(resource string) error {
	return fmt.Errorf("%w: %s not found", ErrNotFound, resource)
}

// NewAlreadyAssignedError сообщает, что новых участников для проекта нет.
func NewAlreadyAssignedError(projectID int64) error {
	return fmt.Errorf("%w: %s (project %d)", ErrAlreadyAssigned, AlreadyAssignedMessage, projectID)
}

// NewReconcileInProgressError сигнализирует, что по проекту уже идёт согласование состава.
func NewReconcileInProgressError(projectID int64) error {
	return fmt.Errorf("%w: roster reconciliation for project %d is already running", ErrReconcileInProgress, projectID)
}

// NewInvalidEvaluatorIDError описывает идентификатор, который не удалось нормализовать.
func NewInvalidEvaluatorIDError(raw any) error {
	return fmt.Errorf("%w: cannot normalize evaluator id %v", ErrInvalidEvaluatorID, raw)
}

// NewUnknownEvaluatorError сообщает, что такого оценщика нет среди кандидатов.
func NewUnknownEvaluatorError(id int64) error {
	return fmt.Errorf("%w: evaluator %d is not a candidate", ErrInvalidEvaluatorID, id)
}

// NewUnauthorizedError используется при попытке выполнить недоступное действие.
func NewUnauthorizedError(action string) error {
	return fmt.Errorf("%w: not authorized to %s", ErrUnauthorized, action)
}

// NewEditorClosedError сообщает, что сессия редактора закрыта или истекла.
func NewEditorClosedError(sessionID string) error {
	return fmt.Errorf("%w: roster editor %s is closed", ErrEditorClosed, sessionID)
}
