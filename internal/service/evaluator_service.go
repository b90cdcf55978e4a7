package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/domain"
	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/models"
	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/roster"
)

// EvaluatorNumber задаёт начальную ёмкость кэша кандидатов.
const EvaluatorNumber = 200

// recheckAfter задаёт возраст кэша, после которого неизвестный id перечитывает источник.
const recheckAfter = 5 * time.Second

// refreshTimeout ограничивает общее чтение источника, которое не зависит от отмены отдельного запроса.
const refreshTimeout = 30 * time.Second

// CandidateSource отдаёт пул кандидатов (из БД или внешнего бэкенда).
type CandidateSource interface {
	ListEvaluators(ctx context.Context) ([]*models.Evaluator, error)
}

// EvaluatorDirectory держит кэш кандидатов в памяти и обновляет его не чаще раза в ttl.
type EvaluatorDirectory struct {
	source    CandidateSource
	ttl       time.Duration
	now       func() time.Time
	group     singleflight.Group
	mu        sync.RWMutex
	byID      map[roster.EvaluatorID]*models.Evaluator
	fetchedAt time.Time
}

// NewEvaluatorDirectory создаёт справочник кандидатов с кэшем в памяти.
func NewEvaluatorDirectory(source CandidateSource, ttl time.Duration) *EvaluatorDirectory {
	return &EvaluatorDirectory{
		source: source,
		ttl:    ttl,
		now:    time.Now,
		byID:   make(map[roster.EvaluatorID]*models.Evaluator, EvaluatorNumber),
	}
}

// Candidates возвращает кандидатов по фильтру, отсортированных по идентификатору.
func (d *EvaluatorDirectory) Candidates(ctx context.Context, filter models.CandidateFilter) ([]*models.Evaluator, error) {
	if err := d.ensureFresh(ctx); err != nil {
		return nil, err
	}

	role := filter.Role
	if role == "" {
		role = models.RoleEvaluator
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	result := make([]*models.Evaluator, 0, len(d.byID))
	for _, ev := range d.byID {
		if ev.Role != role {
			continue
		}
		if filter.Verified != nil && ev.IsVerified != *filter.Verified {
			continue
		}
		evCopy := *ev
		result = append(result, &evCopy)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserId < result[j].UserId })
	return result, nil
}

// Lookup ищет кандидата по идентификатору.
func (d *EvaluatorDirectory) Lookup(ctx context.Context, id roster.EvaluatorID) (*models.Evaluator, error) {
	if err := d.ensureFresh(ctx); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	ev, ok := d.byID[id]
	if !ok {
		return nil, domain.NewNotFoundError(fmt.Sprintf("evaluator %d", id))
	}
	evCopy := *ev
	return &evCopy, nil
}

// ValidateAssignable проверяет, что каждый идентификатор принадлежит пользователю с ролью evaluator.
// Если кого-то нет в кэше старше recheckAfter, источник перечитывается один раз.
func (d *EvaluatorDirectory) ValidateAssignable(ctx context.Context, ids []roster.EvaluatorID) error {
	if len(ids) == 0 {
		return nil
	}
	if err := d.ensureFresh(ctx); err != nil {
		return err
	}

	bad, known := d.firstUnassignable(ids)
	if bad == 0 {
		return nil
	}
	if !known && d.age() >= recheckAfter {
		d.Invalidate()
		if err := d.ensureFresh(ctx); err != nil {
			return err
		}
		bad, _ = d.firstUnassignable(ids)
		if bad == 0 {
			return nil
		}
	}
	return domain.NewUnknownEvaluatorError(int64(bad))
}

// firstUnassignable возвращает первый неподходящий id и признак того, что он вообще есть в кэше.
func (d *EvaluatorDirectory) firstUnassignable(ids []roster.EvaluatorID) (roster.EvaluatorID, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, id := range ids {
		ev, ok := d.byID[id]
		if !ok {
			return id, false
		}
		if ev.Role != models.RoleEvaluator {
			return id, true
		}
	}
	return 0, false
}

func (d *EvaluatorDirectory) age() time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.now().Sub(d.fetchedAt)
}

// Invalidate сбрасывает кэш: следующий запрос перечитает источник.
func (d *EvaluatorDirectory) Invalidate() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fetchedAt = time.Time{}
}

// ensureFresh перечитывает источник, если кэш устарел. Параллельные запросы схлопываются в один;
// отмена одного вызывающего не обрывает чтение для остальных.
func (d *EvaluatorDirectory) ensureFresh(ctx context.Context) error {
	d.mu.RLock()
	fresh := !d.fetchedAt.IsZero() && d.now().Sub(d.fetchedAt) < d.ttl
	d.mu.RUnlock()
	if fresh {
		return nil
	}

	ch := d.group.DoChan("candidates", func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()

		evaluators, err := d.source.ListEvaluators(fetchCtx)
		if err != nil {
			return nil, fmt.Errorf("failed to load candidate evaluators: %w", err)
		}

		byID := make(map[roster.EvaluatorID]*models.Evaluator, len(evaluators))
		for _, ev := range evaluators {
			if ev == nil {
				continue
			}
			evCopy := *ev
			byID[ev.UserId] = &evCopy
		}

		d.mu.Lock()
		d.byID = byID
		d.fetchedAt = d.now()
		d.mu.Unlock()

		slog.Debug("candidate evaluators refreshed", "count", len(byID))
		return nil, nil
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}
