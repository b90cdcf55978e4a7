package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/AlekseyZapadovnikov/evaluator-roster/conf"
	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/domain"
	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/models"
	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/roster"
)

func TestNewServerRegistersRoutes(t *testing.T) {
	cfg := conf.HttpServConf{Host: "127.0.0.1", Port: "9999"}

	srv := New(cfg, &fakeRosterService{}, &fakeEvaluatorService{}, 0)

	require.Equal(t, cfg.GetAddress(), srv.Address)
	require.NotNil(t, srv.router)
	require.NotNil(t, srv.server)
	require.Equal(t, srv.router, srv.server.Handler)
	require.Equal(t, defaultHistoryLimit, srv.historyLimit)

	rr := serve(srv, http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "ok", resp["status"])
}

func TestNewServerMountsBaseURL(t *testing.T) {
	cfg := conf.HttpServConf{Host: "127.0.0.1", Port: "9999", BaseURL: "/api/"}
	srv := New(cfg, &fakeRosterService{
		currentFn: func(ctx context.Context, pid roster.ProjectID) (*models.ProjectRoster, error) {
			return &models.ProjectRoster{ProjectId: pid, Evaluators: []roster.EvaluatorID{}}, nil
		},
	}, &fakeEvaluatorService{}, 10)

	require.Equal(t, http.StatusOK, serve(srv, http.MethodGet, "/api/projects/1/evaluators", nil).Code)
	require.Equal(t, http.StatusNotFound, serve(srv, http.MethodGet, "/projects/1/evaluators", nil).Code)
	require.Equal(t, http.StatusOK, serve(srv, http.MethodGet, "/health", nil).Code)
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	payload := map[string]string{"status": "ok", "message": "<tag>"}

	writeJSON(rr, http.StatusAccepted, payload)

	require.Equal(t, http.StatusAccepted, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	require.Contains(t, rr.Body.String(), "<tag>")

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &decoded))
	require.Equal(t, payload, decoded)
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()

	writeError(rr, http.StatusBadRequest, "CODE", "message")

	assertErrorResponse(t, rr, http.StatusBadRequest, "CODE", "message")
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   models.ErrorCode
	}{
		{name: "nil", err: nil, status: http.StatusOK, code: ""},
		{name: "already assigned", err: domain.NewAlreadyAssignedError(1), status: http.StatusConflict, code: "ALREADY_ASSIGNED"},
		{name: "in progress", err: domain.NewReconcileInProgressError(1), status: http.StatusConflict, code: "RECONCILE_IN_PROGRESS"},
		{name: "invalid evaluator", err: domain.NewUnknownEvaluatorError(7), status: http.StatusBadRequest, code: "INVALID_EVALUATOR"},
		{name: "editor closed", err: domain.NewEditorClosedError("abc"), status: http.StatusGone, code: "EDITOR_CLOSED"},
		{name: "not found", err: domain.ErrNotFound, status: http.StatusNotFound, code: "NOT_FOUND"},
		{name: "unauthorized", err: domain.ErrUnauthorized, status: http.StatusUnauthorized, code: "UNAUTHORIZED"},
		{name: "default", err: errors.New("boom"), status: http.StatusInternalServerError, code: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code, msg := mapDomainError(tt.err)
			require.Equal(t, tt.status, status)
			require.Equal(t, tt.code, code)
			if tt.err == nil {
				require.Empty(t, msg)
			} else {
				require.Equal(t, tt.err.Error(), msg)
			}
		})
	}
}

func TestHandleListEvaluators(t *testing.T) {
	t.Run("default filter", func(t *testing.T) {
		srv := newBareServer(nil, &fakeEvaluatorService{
			candidatesFn: func(ctx context.Context, filter models.CandidateFilter) ([]*models.Evaluator, error) {
				require.Empty(t, filter.Role)
				require.Nil(t, filter.Verified)
				return []*models.Evaluator{{UserId: 7, FullName: "Ada", Role: models.RoleEvaluator}}, nil
			},
		})

		rr := serve(srv, http.MethodGet, "/evaluators", nil)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp evaluatorsResp
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Len(t, resp.Evaluators, 1)
		require.Equal(t, roster.EvaluatorID(7), resp.Evaluators[0].UserId)
	})

	t.Run("role and verified", func(t *testing.T) {
		srv := newBareServer(nil, &fakeEvaluatorService{
			candidatesFn: func(ctx context.Context, filter models.CandidateFilter) ([]*models.Evaluator, error) {
				require.Equal(t, models.RoleAdmin, filter.Role)
				require.NotNil(t, filter.Verified)
				require.False(t, *filter.Verified)
				return []*models.Evaluator{}, nil
			},
		})

		rr := serve(srv, http.MethodGet, "/evaluators?role=admin&verified=false", nil)

		require.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("bad verified", func(t *testing.T) {
		srv := newBareServer(nil, &fakeEvaluatorService{})

		rr := serve(srv, http.MethodGet, "/evaluators?verified=maybe", nil)

		require.Equal(t, http.StatusBadRequest, rr.Code)
		requireErrorCode(t, rr, "INVALID_PAYLOAD")
	})

	t.Run("service error", func(t *testing.T) {
		srv := newBareServer(nil, &fakeEvaluatorService{
			candidatesFn: func(ctx context.Context, filter models.CandidateFilter) ([]*models.Evaluator, error) {
				return nil, domain.NewUnauthorizedError("list users")
			},
		})

		rr := serve(srv, http.MethodGet, "/evaluators", nil)

		require.Equal(t, http.StatusUnauthorized, rr.Code)
		requireErrorCode(t, rr, "UNAUTHORIZED")
	})
}

func TestHandleGetEvaluator(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv := newBareServer(nil, &fakeEvaluatorService{
			lookupFn: func(ctx context.Context, id roster.EvaluatorID) (*models.Evaluator, error) {
				require.Equal(t, roster.EvaluatorID(7), id)
				return &models.Evaluator{UserId: id, FullName: "Ada", Role: models.RoleEvaluator}, nil
			},
		})

		rr := serve(srv, http.MethodGet, "/evaluators/7", nil)

		require.Equal(t, http.StatusOK, rr.Code)
		var ev models.Evaluator
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ev))
		require.Equal(t, "Ada", ev.FullName)
	})

	t.Run("bad id", func(t *testing.T) {
		srv := newBareServer(nil, nil)

		rr := serve(srv, http.MethodGet, "/evaluators/abc", nil)

		require.Equal(t, http.StatusBadRequest, rr.Code)
		requireErrorCode(t, rr, "INVALID_EVALUATOR")
	})

	t.Run("unknown", func(t *testing.T) {
		srv := newBareServer(nil, nil)

		rr := serve(srv, http.MethodGet, "/evaluators/9", nil)

		require.Equal(t, http.StatusNotFound, rr.Code)
		requireErrorCode(t, rr, "NOT_FOUND")
	})
}

func TestHandleGetRoster(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		srv := newBareServer(&fakeRosterService{
			currentFn: func(ctx context.Context, pid roster.ProjectID) (*models.ProjectRoster, error) {
				require.Equal(t, roster.ProjectID(42), pid)
				return &models.ProjectRoster{ProjectId: pid, Evaluators: []roster.EvaluatorID{1, 2}}, nil
			},
		}, nil)

		rr := serve(srv, http.MethodGet, "/projects/42/evaluators", nil)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp models.ProjectRoster
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Equal(t, []roster.EvaluatorID{1, 2}, resp.Evaluators)
	})

	t.Run("bad project id", func(t *testing.T) {
		srv := newBareServer(&fakeRosterService{}, nil)

		rr := serve(srv, http.MethodGet, "/projects/abc/evaluators", nil)

		require.Equal(t, http.StatusNotFound, rr.Code)
		requireErrorCode(t, rr, "NOT_FOUND")
	})
}

func TestHandleAssignEvaluators(t *testing.T) {
	t.Run("mixed id shapes", func(t *testing.T) {
		srv := newBareServer(&fakeRosterService{
			assignFn: func(ctx context.Context, pid roster.ProjectID, ids []roster.EvaluatorID) (*models.ProjectRoster, error) {
				require.Equal(t, []roster.EvaluatorID{101, 202}, ids)
				return &models.ProjectRoster{ProjectId: pid, Evaluators: ids}, nil
			},
		}, nil)

		rr := serve(srv, http.MethodPost, "/projects/1/evaluators", strings.NewReader(`{"evaluator_ids":[101,"202"]}`))

		require.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("already assigned", func(t *testing.T) {
		srv := newBareServer(&fakeRosterService{
			assignFn: func(ctx context.Context, pid roster.ProjectID, ids []roster.EvaluatorID) (*models.ProjectRoster, error) {
				return nil, domain.NewAlreadyAssignedError(int64(pid))
			},
		}, nil)

		rr := serve(srv, http.MethodPost, "/projects/1/evaluators", mustJSONReader(t, map[string]any{"evaluator_ids": []int{5}}))

		require.Equal(t, http.StatusConflict, rr.Code)
		requireErrorCode(t, rr, "ALREADY_ASSIGNED")
	})

	t.Run("empty list", func(t *testing.T) {
		srv := newBareServer(&fakeRosterService{}, nil)

		rr := serve(srv, http.MethodPost, "/projects/1/evaluators", strings.NewReader(`{"evaluator_ids":[]}`))

		require.Equal(t, http.StatusBadRequest, rr.Code)
		requireErrorCode(t, rr, "MISSING_PARAM")
	})

	t.Run("invalid id", func(t *testing.T) {
		srv := newBareServer(&fakeRosterService{}, nil)

		rr := serve(srv, http.MethodPost, "/projects/1/evaluators", strings.NewReader(`{"evaluator_ids":["x"]}`))

		require.Equal(t, http.StatusBadRequest, rr.Code)
		requireErrorCode(t, rr, "INVALID_EVALUATOR")
	})

	t.Run("invalid payload", func(t *testing.T) {
		srv := newBareServer(&fakeRosterService{}, nil)

		rr := serve(srv, http.MethodPost, "/projects/1/evaluators", strings.NewReader("{bad json"))

		assertErrorResponse(t, rr, http.StatusBadRequest, "INVALID_PAYLOAD", "invalid json payload")
	})
}

func TestHandleUnassignEvaluator(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		called := false
		srv := newBareServer(&fakeRosterService{
			unassignFn: func(ctx context.Context, pid roster.ProjectID, eid roster.EvaluatorID) error {
				called = true
				require.Equal(t, roster.ProjectID(3), pid)
				require.Equal(t, roster.EvaluatorID(9), eid)
				return nil
			},
		}, nil)

		rr := serve(srv, http.MethodDelete, "/projects/3/evaluators/9", nil)

		require.Equal(t, http.StatusNoContent, rr.Code)
		require.True(t, called)
	})

	t.Run("bad evaluator id", func(t *testing.T) {
		srv := newBareServer(&fakeRosterService{}, nil)

		rr := serve(srv, http.MethodDelete, "/projects/3/evaluators/-1", nil)

		require.Equal(t, http.StatusBadRequest, rr.Code)
		requireErrorCode(t, rr, "INVALID_EVALUATOR")
	})
}

func TestHandleReconcile(t *testing.T) {
	tests := []struct {
		name   string
		state  roster.State
		status int
	}{
		{name: "success", state: roster.StateSuccess, status: http.StatusOK},
		{name: "partial", state: roster.StatePartialFailure, status: http.StatusMultiStatus},
		{name: "failure", state: roster.StateFailure, status: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newBareServer(&fakeRosterService{
				reconcileFn: func(ctx context.Context, pid roster.ProjectID, desired []roster.EvaluatorID) (*models.ReconciliationOutcome, error) {
					require.Equal(t, []roster.EvaluatorID{2, 3}, desired)
					return &models.ReconciliationOutcome{ProjectId: pid, State: tt.state}, nil
				},
			}, nil)

			rr := serve(srv, http.MethodPost, "/projects/1/roster/reconcile", strings.NewReader(`{"desired":[2,"3"]}`))

			require.Equal(t, tt.status, rr.Code)
			var resp models.ReconciliationOutcome
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			require.Equal(t, tt.state, resp.State)
		})
	}

	t.Run("empty desired is allowed", func(t *testing.T) {
		srv := newBareServer(&fakeRosterService{
			reconcileFn: func(ctx context.Context, pid roster.ProjectID, desired []roster.EvaluatorID) (*models.ReconciliationOutcome, error) {
				require.Empty(t, desired)
				return &models.ReconciliationOutcome{State: roster.StateSuccess}, nil
			},
		}, nil)

		rr := serve(srv, http.MethodPost, "/projects/1/roster/reconcile", strings.NewReader(`{"desired":[]}`))

		require.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("missing desired", func(t *testing.T) {
		srv := newBareServer(&fakeRosterService{}, nil)

		rr := serve(srv, http.MethodPost, "/projects/1/roster/reconcile", strings.NewReader(`{}`))

		require.Equal(t, http.StatusBadRequest, rr.Code)
		requireErrorCode(t, rr, "MISSING_PARAM")
	})

	t.Run("in progress", func(t *testing.T) {
		srv := newBareServer(&fakeRosterService{
			reconcileFn: func(ctx context.Context, pid roster.ProjectID, desired []roster.EvaluatorID) (*models.ReconciliationOutcome, error) {
				return nil, domain.NewReconcileInProgressError(int64(pid))
			},
		}, nil)

		rr := serve(srv, http.MethodPost, "/projects/1/roster/reconcile", strings.NewReader(`{"desired":[1]}`))

		require.Equal(t, http.StatusConflict, rr.Code)
		requireErrorCode(t, rr, "RECONCILE_IN_PROGRESS")
	})
}

func TestHandleHistory(t *testing.T) {
	t.Run("limit is capped", func(t *testing.T) {
		srv := newBareServer(&fakeRosterService{
			historyFn: func(ctx context.Context, pid roster.ProjectID, limit int) ([]*models.ReconciliationOutcome, error) {
				require.Equal(t, defaultHistoryLimit, limit)
				return []*models.ReconciliationOutcome{{ProjectId: pid, State: roster.StateSuccess}}, nil
			},
		}, nil)

		rr := serve(srv, http.MethodGet, "/projects/5/roster/history?limit=1000", nil)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp historyResp
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Equal(t, roster.ProjectID(5), resp.ProjectId)
		require.Len(t, resp.Reconciliations, 1)
	})

	t.Run("explicit limit", func(t *testing.T) {
		srv := newBareServer(&fakeRosterService{
			historyFn: func(ctx context.Context, pid roster.ProjectID, limit int) ([]*models.ReconciliationOutcome, error) {
				require.Equal(t, 3, limit)
				return []*models.ReconciliationOutcome{}, nil
			},
		}, nil)

		require.Equal(t, http.StatusOK, serve(srv, http.MethodGet, "/projects/5/roster/history?limit=3", nil).Code)
	})

	t.Run("bad limit", func(t *testing.T) {
		srv := newBareServer(&fakeRosterService{}, nil)

		rr := serve(srv, http.MethodGet, "/projects/5/roster/history?limit=zero", nil)

		require.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestEditorHandlers(t *testing.T) {
	sid := uuid.New()
	session := &models.EditorSession{SessionId: sid, ProjectId: 1, Initial: []roster.EvaluatorID{1}, Desired: []roster.EvaluatorID{1}}

	t.Run("open", func(t *testing.T) {
		srv := newBareServer(&fakeRosterService{
			openFn: func(ctx context.Context, pid roster.ProjectID) (*models.EditorSession, error) {
				require.Equal(t, roster.ProjectID(1), pid)
				return session, nil
			},
		}, nil)

		rr := serve(srv, http.MethodPost, "/projects/1/roster/editor", nil)

		require.Equal(t, http.StatusCreated, rr.Code)
		var resp models.EditorSession
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Equal(t, sid, resp.SessionId)
	})

	t.Run("get unknown id format", func(t *testing.T) {
		srv := newBareServer(&fakeRosterService{}, nil)

		rr := serve(srv, http.MethodGet, "/roster/editor/not-a-uuid", nil)

		require.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("get closed", func(t *testing.T) {
		srv := newBareServer(&fakeRosterService{
			editorFn: func(ctx context.Context, id uuid.UUID) (*models.EditorSession, error) {
				return nil, domain.NewEditorClosedError(id.String())
			},
		}, nil)

		rr := serve(srv, http.MethodGet, "/roster/editor/"+sid.String(), nil)

		require.Equal(t, http.StatusGone, rr.Code)
		requireErrorCode(t, rr, "EDITOR_CLOSED")
	})

	t.Run("toggle", func(t *testing.T) {
		srv := newBareServer(&fakeRosterService{
			toggleFn: func(ctx context.Context, id uuid.UUID, eid roster.EvaluatorID, assigned bool) (*models.EditorSession, error) {
				require.Equal(t, sid, id)
				require.Equal(t, roster.EvaluatorID(4), eid)
				require.True(t, assigned)
				return session, nil
			},
		}, nil)

		rr := serve(srv, http.MethodPost, "/roster/editor/"+sid.String()+"/toggle", strings.NewReader(`{"evaluator_id":"4","assigned":true}`))

		require.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("commit partial keeps status", func(t *testing.T) {
		srv := newBareServer(&fakeRosterService{
			commitFn: func(ctx context.Context, id uuid.UUID) (*models.EditorCommitResult, error) {
				return &models.EditorCommitResult{
					Outcome: &models.ReconciliationOutcome{State: roster.StatePartialFailure},
					Session: session,
				}, nil
			},
		}, nil)

		rr := serve(srv, http.MethodPost, "/roster/editor/"+sid.String()+"/commit", nil)

		require.Equal(t, http.StatusMultiStatus, rr.Code)
		var resp models.EditorCommitResult
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.NotNil(t, resp.Session)
	})

	t.Run("cancel", func(t *testing.T) {
		srv := newBareServer(&fakeRosterService{
			cancelFn: func(ctx context.Context, id uuid.UUID) error {
				require.Equal(t, sid, id)
				return nil
			},
		}, nil)

		rr := serve(srv, http.MethodDelete, "/roster/editor/"+sid.String(), nil)

		require.Equal(t, http.StatusNoContent, rr.Code)
	})
}

type fakeRosterService struct {
	currentFn   func(ctx context.Context, pid roster.ProjectID) (*models.ProjectRoster, error)
	assignFn    func(ctx context.Context, pid roster.ProjectID, ids []roster.EvaluatorID) (*models.ProjectRoster, error)
	unassignFn  func(ctx context.Context, pid roster.ProjectID, eid roster.EvaluatorID) error
	reconcileFn func(ctx context.Context, pid roster.ProjectID, desired []roster.EvaluatorID) (*models.ReconciliationOutcome, error)
	historyFn   func(ctx context.Context, pid roster.ProjectID, limit int) ([]*models.ReconciliationOutcome, error)
	openFn      func(ctx context.Context, pid roster.ProjectID) (*models.EditorSession, error)
	editorFn    func(ctx context.Context, id uuid.UUID) (*models.EditorSession, error)
	toggleFn    func(ctx context.Context, id uuid.UUID, eid roster.EvaluatorID, assigned bool) (*models.EditorSession, error)
	commitFn    func(ctx context.Context, id uuid.UUID) (*models.EditorCommitResult, error)
	cancelFn    func(ctx context.Context, id uuid.UUID) error
}

func (f *fakeRosterService) CurrentRoster(ctx context.Context, pid roster.ProjectID) (*models.ProjectRoster, error) {
	if f != nil && f.currentFn != nil {
		return f.currentFn(ctx, pid)
	}
	return nil, nil
}

func (f *fakeRosterService) Assign(ctx context.Context, pid roster.ProjectID, ids []roster.EvaluatorID) (*models.ProjectRoster, error) {
	if f != nil && f.assignFn != nil {
		return f.assignFn(ctx, pid, ids)
	}
	return nil, nil
}

func (f *fakeRosterService) Unassign(ctx context.Context, pid roster.ProjectID, eid roster.EvaluatorID) error {
	if f != nil && f.unassignFn != nil {
		return f.unassignFn(ctx, pid, eid)
	}
	return nil
}

func (f *fakeRosterService) Reconcile(ctx context.Context, pid roster.ProjectID, desired []roster.EvaluatorID) (*models.ReconciliationOutcome, error) {
	if f != nil && f.reconcileFn != nil {
		return f.reconcileFn(ctx, pid, desired)
	}
	return &models.ReconciliationOutcome{}, nil
}

func (f *fakeRosterService) History(ctx context.Context, pid roster.ProjectID, limit int) ([]*models.ReconciliationOutcome, error) {
	if f != nil && f.historyFn != nil {
		return f.historyFn(ctx, pid, limit)
	}
	return nil, nil
}

func (f *fakeRosterService) OpenEditor(ctx context.Context, pid roster.ProjectID) (*models.EditorSession, error) {
	if f != nil && f.openFn != nil {
		return f.openFn(ctx, pid)
	}
	return nil, nil
}

func (f *fakeRosterService) Editor(ctx context.Context, id uuid.UUID) (*models.EditorSession, error) {
	if f != nil && f.editorFn != nil {
		return f.editorFn(ctx, id)
	}
	return nil, nil
}

func (f *fakeRosterService) Toggle(ctx context.Context, id uuid.UUID, eid roster.EvaluatorID, assigned bool) (*models.EditorSession, error) {
	if f != nil && f.toggleFn != nil {
		return f.toggleFn(ctx, id, eid, assigned)
	}
	return nil, nil
}

func (f *fakeRosterService) CommitEditor(ctx context.Context, id uuid.UUID) (*models.EditorCommitResult, error) {
	if f != nil && f.commitFn != nil {
		return f.commitFn(ctx, id)
	}
	return &models.EditorCommitResult{Outcome: &models.ReconciliationOutcome{}}, nil
}

func (f *fakeRosterService) CancelEditor(ctx context.Context, id uuid.UUID) error {
	if f != nil && f.cancelFn != nil {
		return f.cancelFn(ctx, id)
	}
	return nil
}

type fakeEvaluatorService struct {
	candidatesFn func(ctx context.Context, filter models.CandidateFilter) ([]*models.Evaluator, error)
	lookupFn     func(ctx context.Context, id roster.EvaluatorID) (*models.Evaluator, error)
}

func (f *fakeEvaluatorService) Lookup(ctx context.Context, id roster.EvaluatorID) (*models.Evaluator, error) {
	if f != nil && f.lookupFn != nil {
		return f.lookupFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEvaluatorService) Candidates(ctx context.Context, filter models.CandidateFilter) ([]*models.Evaluator, error) {
	if f != nil && f.candidatesFn != nil {
		return f.candidatesFn(ctx, filter)
	}
	return nil, nil
}

func newBareServer(rs RosterService, es EvaluatorService) *Server {
	if rs == nil {
		rs = &fakeRosterService{}
	}
	if es == nil {
		es = &fakeEvaluatorService{}
	}
	return New(conf.HttpServConf{Host: "127.0.0.1", Port: "0"}, rs, es, 0)
}

func serve(srv *Server, method, target string, body *strings.Reader) *httptest.ResponseRecorder {
	var req *http.Request
	if body == nil {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, body)
	}
	rr := httptest.NewRecorder()
	srv.router.ServeHTTP(rr, req)
	return rr
}

func mustJSONReader(tb testing.TB, v interface{}) *strings.Reader {
	tb.Helper()
	data, err := json.Marshal(v)
	require.NoError(tb, err)
	return strings.NewReader(string(bytes.TrimSpace(data)))
}

func assertErrorResponse(t *testing.T, rr *httptest.ResponseRecorder, status int, code models.ErrorCode, message string) {
	t.Helper()
	require.Equal(t, status, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, code, resp.Error.Code)
	require.Equal(t, message, resp.Error.Message)
}

func requireErrorCode(t *testing.T, rr *httptest.ResponseRecorder, code models.ErrorCode) {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, code, resp.Error.Code)
}
