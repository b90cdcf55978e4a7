package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/AlekseyZapadovnikov/evaluator-roster/conf"
	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/domain"
	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
)

const defaultHistoryLimit = 50

type Server struct {
	Address string
	server  *http.Server

	router           *chi.Mux
	validate         *validator.Validate
	rosterService    RosterService
	evaluatorService EvaluatorService
	historyLimit     int
}

// New конструирует HTTP-сервер на базе chi и регистрирует все маршруты.
func New(cfg conf.HttpServConf, rs RosterService, es EvaluatorService, historyLimit int) *Server {
	servAdres := cfg.GetAddress()
	mux := chi.NewMux()
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	srv := &Server{
		Address:          servAdres,
		router:           mux,
		validate:         validator.New(),
		rosterService:    rs,
		evaluatorService: es,
		historyLimit:     historyLimit,
	}
	srv.server = &http.Server{
		Addr:              servAdres,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srv.setupRoutes(cfg.BaseURL)

	return srv
}

// Start запускает HTTP-сервер и блокирует поток до остановки.
func (s *Server) Start() error {
	slog.Info("server starting", "address", s.server.Addr)
	return s.server.ListenAndServe()
}

// setupRoutes настраивает middleware и HTTP-маршруты.
func (s *Server) setupRoutes(baseURL string) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	// Простейший health-check.
	s.router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		s.apiRoutes(s.router)
		return
	}
	s.router.Route(base, s.apiRoutes)
}

func (s *Server) apiRoutes(r chi.Router) {
	// Кандидаты в оценщики.
	r.Get("/evaluators", s.handleListEvaluators)
	r.Get("/evaluators/{evaluatorID}", s.handleGetEvaluator)

	// Состав проекта.
	r.Route("/projects/{projectID}", func(r chi.Router) {
		r.Get("/evaluators", s.handleGetRoster)
		r.Post("/evaluators", s.handleAssignEvaluators)
		r.Delete("/evaluators/{evaluatorID}", s.handleUnassignEvaluator)

		r.Post("/roster/reconcile", s.handleReconcile)
		r.Get("/roster/history", s.handleHistory)
		r.Post("/roster/editor", s.handleOpenEditor)
	})

	// Редактор состава.
	r.Route("/roster/editor/{sessionID}", func(r chi.Router) {
		r.Get("/", s.handleGetEditor)
		r.Delete("/", s.handleCancelEditor)
		r.Post("/toggle", s.handleToggleEditor)
		r.Post("/commit", s.handleCommitEditor)
	})
}

// Shutdown останавливает HTTP-сервер с таймаутом на корректное завершение.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// ---------- утилитарные функции ----------

// writeJSON сериализует структуру в JSON-ответ с нужным статусом.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// decodeBody читает JSON-тело и прогоняет его через валидатор.
// Возвращает false, если ответ с ошибкой уже записан.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, domain.ErrInvalidEvaluatorID) {
			writeError(w, http.StatusBadRequest, models.CodeInvalidEvaluator, err.Error())
			return false
		}
		writeError(w, http.StatusBadRequest, models.CodeInvalidPayload, "invalid json payload")
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, models.CodeMissingParam, validationMessage(err))
		return false
	}
	return true
}

// validationMessage сворачивает ошибки валидатора в короткое сообщение.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, strings.ToLower(fe.Field())+" is "+fe.Tag())
	}
	return strings.Join(parts, "; ")
}

// mapDomainError переводит доменные ошибки в HTTP-статусы и коды ответа.
func mapDomainError(err error) (status int, code models.ErrorCode, msg string) {
	if err == nil {
		return http.StatusOK, "", ""
	}

	switch {
	case errors.Is(err, domain.ErrAlreadyAssigned):
		return http.StatusConflict, models.CodeAlreadyAssigned, err.Error()
	case errors.Is(err, domain.ErrReconcileInProgress):
		return http.StatusConflict, models.CodeReconcileInProgress, err.Error()
	case errors.Is(err, domain.ErrInvalidEvaluatorID):
		return http.StatusBadRequest, models.CodeInvalidEvaluator, err.Error()
	case errors.Is(err, domain.ErrEditorClosed):
		return http.StatusGone, models.CodeEditorClosed, err.Error()
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, models.CodeNotFound, err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, models.CodeUnauthorized, err.Error()
	default:
		slog.Warn("unmapped domain error", "err", err.Error())
		return http.StatusInternalServerError, models.CodeInternalError, err.Error()
	}
}
