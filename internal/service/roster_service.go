package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/domain"
	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/models"
	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/roster"
)

// RosterRemote добавляет к примитивам над составом чтение текущего состава.
type RosterRemote interface {
	roster.Remote
	ListProjectEvaluators(ctx context.Context, projectID roster.ProjectID) ([]roster.EvaluatorID, error)
}

type HistoryRepository interface {
	SaveReconciliation(ctx context.Context, rec *models.ReconciliationOutcome) error
	ListReconciliations(ctx context.Context, projectID roster.ProjectID, limit int) ([]*models.ReconciliationOutcome, error)
}

type CandidateDirectory interface {
	Candidates(ctx context.Context, filter models.CandidateFilter) ([]*models.Evaluator, error)
	ValidateAssignable(ctx context.Context, ids []roster.EvaluatorID) error
}

// editorSession хранит снимок initial и изменяемый desired одного редактора.
type editorSession struct {
	id         uuid.UUID
	projectID  roster.ProjectID
	initial    roster.Set
	desired    roster.Set
	openedAt   time.Time
	expiresAt  time.Time
	committing bool
}

type RosterManager struct {
	remote     RosterRemote
	history    HistoryRepository
	directory  CandidateDirectory
	reconciler *roster.Reconciler
	editorTTL  time.Duration
	now        func() time.Time
	newID      func() uuid.UUID

	mu       sync.Mutex
	inflight map[roster.ProjectID]struct{}

	sessMu   sync.Mutex
	sessions map[uuid.UUID]*editorSession
}

// NewRosterManager связывает согласователь с удалённым составом, историей и справочником кандидатов.
func NewRosterManager(remote RosterRemote, history HistoryRepository, directory CandidateDirectory, editorTTL time.Duration) *RosterManager {
	return &RosterManager{
		remote:     remote,
		history:    history,
		directory:  directory,
		reconciler: roster.NewReconciler(remote, slog.Default()),
		editorTTL:  editorTTL,
		now:        time.Now,
		newID:      uuid.New,
		inflight:   make(map[roster.ProjectID]struct{}),
		sessions:   make(map[uuid.UUID]*editorSession),
	}
}

// CurrentRoster возвращает текущий состав проекта.
func (rm *RosterManager) CurrentRoster(ctx context.Context, projectID roster.ProjectID) (*models.ProjectRoster, error) {
	initial, err := rm.fetchInitial(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &models.ProjectRoster{ProjectId: projectID, Evaluators: initial.Sorted()}, nil
}

// Assign добавляет оценщиков в проект одним вызовом полного состава.
func (rm *RosterManager) Assign(ctx context.Context, projectID roster.ProjectID, ids []roster.EvaluatorID) (*models.ProjectRoster, error) {
	if err := rm.directory.ValidateAssignable(ctx, ids); err != nil {
		return nil, err
	}
	if err := rm.remote.SetMembership(ctx, projectID, ids); err != nil {
		// Внешний бэкенд сообщает об этом только текстом ответа.
		if roster.IsAlreadyAssigned(err) && !errors.Is(err, domain.ErrAlreadyAssigned) {
			return nil, domain.NewAlreadyAssignedError(int64(projectID))
		}
		return nil, fmt.Errorf("failed to assign evaluators to project %d: %w", projectID, err)
	}
	return rm.CurrentRoster(ctx, projectID)
}

// Unassign снимает одного оценщика с проекта.
func (rm *RosterManager) Unassign(ctx context.Context, projectID roster.ProjectID, evaluatorID roster.EvaluatorID) error {
	if err := rm.remote.RemoveEvaluator(ctx, projectID, evaluatorID); err != nil {
		return fmt.Errorf("failed to remove evaluator %d from project %d: %w", evaluatorID, projectID, err)
	}
	return nil
}

// Reconcile выполняет одну попытку согласования: свежий initial, план, применение, запись в историю.
func (rm *RosterManager) Reconcile(ctx context.Context, projectID roster.ProjectID, desired []roster.EvaluatorID) (*models.ReconciliationOutcome, error) {
	release, err := rm.acquire(projectID)
	if err != nil {
		return nil, err
	}
	defer release()

	initial, err := rm.fetchInitial(ctx, projectID)
	if err != nil {
		return nil, err
	}

	plan := roster.ComputePlan(initial, roster.NewSet(desired...))
	if err := rm.directory.ValidateAssignable(ctx, plan.ToAdd.Sorted()); err != nil {
		return nil, err
	}

	return rm.apply(ctx, projectID, plan), nil
}

// History возвращает последние попытки согласования по проекту.
func (rm *RosterManager) History(ctx context.Context, projectID roster.ProjectID, limit int) ([]*models.ReconciliationOutcome, error) {
	records, err := rm.history.ListReconciliations(ctx, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reconciliations for project %d: %w", projectID, err)
	}
	if records == nil {
		records = []*models.ReconciliationOutcome{}
	}
	return records, nil
}

// OpenEditor фиксирует initial и создаёт редактор, где desired равен копии initial.
func (rm *RosterManager) OpenEditor(ctx context.Context, projectID roster.ProjectID) (*models.EditorSession, error) {
	initial, err := rm.fetchInitial(ctx, projectID)
	if err != nil {
		return nil, err
	}
	candidates, err := rm.directory.Candidates(ctx, models.CandidateFilter{})
	if err != nil {
		return nil, err
	}

	now := rm.now()
	sess := &editorSession{
		id:        rm.newID(),
		projectID: projectID,
		initial:   initial,
		desired:   initial.Clone(),
		openedAt:  now,
		expiresAt: now.Add(rm.editorTTL),
	}

	rm.sessMu.Lock()
	rm.purgeExpiredLocked(now)
	rm.sessions[sess.id] = sess
	view := sessionView(sess)
	rm.sessMu.Unlock()

	view.Candidates = candidates
	slog.Info("roster editor opened", "session_id", sess.id, "project_id", int64(projectID), "initial", len(initial))
	return view, nil
}

// Editor возвращает состояние открытого редактора.
func (rm *RosterManager) Editor(_ context.Context, sessionID uuid.UUID) (*models.EditorSession, error) {
	rm.sessMu.Lock()
	defer rm.sessMu.Unlock()
	sess, err := rm.sessionLocked(sessionID)
	if err != nil {
		return nil, err
	}
	return sessionView(sess), nil
}

// Toggle включает или исключает оценщика из desired. initial не меняется.
func (rm *RosterManager) Toggle(ctx context.Context, sessionID uuid.UUID, evaluatorID roster.EvaluatorID, assigned bool) (*models.EditorSession, error) {
	rm.sessMu.Lock()
	sess, err := rm.sessionLocked(sessionID)
	if err != nil {
		rm.sessMu.Unlock()
		return nil, err
	}
	if sess.committing {
		rm.sessMu.Unlock()
		return nil, domain.NewReconcileInProgressError(int64(sess.projectID))
	}
	needsCheck := assigned && !sess.initial.Has(evaluatorID)
	rm.sessMu.Unlock()

	// Уже назначенных не перепроверяем: их роль могла смениться, но снять их всё равно можно.
	if needsCheck {
		if err := rm.directory.ValidateAssignable(ctx, []roster.EvaluatorID{evaluatorID}); err != nil {
			return nil, err
		}
	}

	rm.sessMu.Lock()
	defer rm.sessMu.Unlock()
	sess, err = rm.sessionLocked(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.committing {
		return nil, domain.NewReconcileInProgressError(int64(sess.projectID))
	}
	if assigned {
		sess.desired.Add(evaluatorID)
	} else {
		sess.desired.Remove(evaluatorID)
	}
	return sessionView(sess), nil
}

// CommitEditor запускает попытку согласования по снимку редактора.
// После успеха редактор закрывается; если добавление не удалось, редактор остаётся открытым
// со свежим initial, чтобы следующий коммит был новой попыткой.
func (rm *RosterManager) CommitEditor(ctx context.Context, sessionID uuid.UUID) (*models.EditorCommitResult, error) {
	rm.sessMu.Lock()
	sess, err := rm.sessionLocked(sessionID)
	if err != nil {
		rm.sessMu.Unlock()
		return nil, err
	}
	if sess.committing {
		rm.sessMu.Unlock()
		return nil, domain.NewReconcileInProgressError(int64(sess.projectID))
	}
	projectID := sess.projectID
	plan := roster.ComputePlan(sess.initial, sess.desired)
	// С этого момента toggle и cancel отклоняются, а сессия не истекает.
	sess.committing = true
	rm.sessMu.Unlock()

	release, err := rm.acquire(projectID)
	if err != nil {
		rm.sessMu.Lock()
		sess.committing = false
		rm.sessMu.Unlock()
		return nil, err
	}
	defer release()

	outcome := rm.apply(ctx, projectID, plan)
	result := &models.EditorCommitResult{Outcome: outcome}

	if outcome.Addition != roster.AdditionFailed {
		rm.closeSession(sessionID)
		slog.Info("roster editor committed", "session_id", sessionID, "state", outcome.State)
		return result, nil
	}

	fresh, err := rm.fetchInitial(ctx, projectID)
	if err != nil {
		slog.Warn("roster editor closed: cannot refresh initial after failed commit", "session_id", sessionID, "error", err)
		rm.closeSession(sessionID)
		return result, nil
	}

	rm.sessMu.Lock()
	defer rm.sessMu.Unlock()
	if rm.sessions[sessionID] != sess {
		return result, nil
	}
	sess.initial = fresh
	sess.committing = false
	sess.expiresAt = rm.now().Add(rm.editorTTL)
	result.Session = sessionView(sess)
	slog.Info("roster editor kept open for retry", "session_id", sessionID, "state", outcome.State)
	return result, nil
}

// CancelEditor закрывает редактор без изменений.
func (rm *RosterManager) CancelEditor(_ context.Context, sessionID uuid.UUID) error {
	rm.sessMu.Lock()
	defer rm.sessMu.Unlock()
	sess, err := rm.sessionLocked(sessionID)
	if err != nil {
		return err
	}
	if sess.committing {
		return domain.NewReconcileInProgressError(int64(sess.projectID))
	}
	delete(rm.sessions, sessionID)
	return nil
}

// apply применяет план и сохраняет результат в историю. Ошибка записи истории не отменяет попытку.
func (rm *RosterManager) apply(ctx context.Context, projectID roster.ProjectID, plan roster.Plan) *models.ReconciliationOutcome {
	outcome := rm.reconciler.Apply(ctx, projectID, plan)
	rec := models.ConvertOutcome(rm.newID(), outcome, rm.now().UTC())

	// Состав уже изменён: запись в историю не должна пропасть из-за отключившегося клиента.
	if err := rm.history.SaveReconciliation(context.WithoutCancel(ctx), rec); err != nil {
		slog.Error("failed to save reconciliation history", "attempt_id", rec.AttemptId, "project_id", int64(projectID), "error", err)
	}
	return rec
}

// fetchInitial читает текущий состав проекта один раз на попытку.
func (rm *RosterManager) fetchInitial(ctx context.Context, projectID roster.ProjectID) (roster.Set, error) {
	ids, err := rm.remote.ListProjectEvaluators(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch roster of project %d: %w", projectID, err)
	}
	return roster.NewSet(ids...), nil
}

// acquire не даёт запустить вторую попытку по тому же проекту, пока идёт первая.
func (rm *RosterManager) acquire(projectID roster.ProjectID) (func(), error) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if _, busy := rm.inflight[projectID]; busy {
		return nil, domain.NewReconcileInProgressError(int64(projectID))
	}
	rm.inflight[projectID] = struct{}{}
	return func() {
		rm.mu.Lock()
		delete(rm.inflight, projectID)
		rm.mu.Unlock()
	}, nil
}

func (rm *RosterManager) closeSession(sessionID uuid.UUID) {
	rm.sessMu.Lock()
	delete(rm.sessions, sessionID)
	rm.sessMu.Unlock()
}

// sessionLocked ищет сессию; вызывается под sessMu.
func (rm *RosterManager) sessionLocked(sessionID uuid.UUID) (*editorSession, error) {
	sess, ok := rm.sessions[sessionID]
	if !ok {
		return nil, domain.NewNotFoundError(fmt.Sprintf("roster editor %s", sessionID))
	}
	if !sess.committing && !rm.now().Before(sess.expiresAt) {
		delete(rm.sessions, sessionID)
		return nil, domain.NewEditorClosedError(sessionID.String())
	}
	return sess, nil
}

func (rm *RosterManager) purgeExpiredLocked(now time.Time) {
	for id, sess := range rm.sessions {
		if !sess.committing && !now.Before(sess.expiresAt) {
			delete(rm.sessions, id)
		}
	}
}

func sessionView(sess *editorSession) *models.EditorSession {
	plan := roster.ComputePlan(sess.initial, sess.desired)
	return &models.EditorSession{
		SessionId: sess.id,
		ProjectId: sess.projectID,
		Initial:   sess.initial.Sorted(),
		Desired:   sess.desired.Sorted(),
		ToRemove:  plan.ToRemove.Sorted(),
		ToAdd:     plan.ToAdd.Sorted(),
		OpenedAt:  sess.openedAt,
		ExpiresAt: sess.expiresAt,
	}
}
