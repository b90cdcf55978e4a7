package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/AlekseyZapadovnikov/evaluator-roster/conf"
	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/domain"
	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/models"
	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/roster"
)

// максимальный размер тела ответа, который читаем целиком.
const maxBodySize = 1 << 20

// StatusError возвращается, когда внешний бэкенд ответил не-2xx статусом.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

// Client выполняет операции над составом через внешний REST-бэкенд.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient создаёт клиента по настройкам roster из конфигурации.
func NewClient(cfg conf.RosterConf) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.RemoteURL, "/"),
		token:   cfg.AuthToken,
		http:    &http.Client{Timeout: cfg.RequestTimeoutOrDefault()},
	}
}

// ListProjectEvaluators получает текущий состав проекта и нормализует идентификаторы.
func (c *Client) ListProjectEvaluators(ctx context.Context, projectID roster.ProjectID) ([]roster.EvaluatorID, error) {
	body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/projects/%d/evaluators", projectID), nil)
	if err != nil {
		return nil, err
	}
	items, err := decodeList(body)
	if err != nil {
		return nil, fmt.Errorf("project %d evaluators: %w", projectID, err)
	}
	set, err := normalizeRoster(items)
	if err != nil {
		return nil, fmt.Errorf("project %d evaluators: %w", projectID, err)
	}
	return set.Sorted(), nil
}

// ListEvaluators получает пул кандидатов.
func (c *Client) ListEvaluators(ctx context.Context) ([]*models.Evaluator, error) {
	body, err := c.do(ctx, http.MethodGet, "/evaluators", nil)
	if err != nil {
		return nil, err
	}
	items, err := decodeList(body)
	if err != nil {
		return nil, fmt.Errorf("evaluators: %w", err)
	}
	return normalizeEvaluators(items)
}

// RemoveEvaluator снимает одного оценщика с проекта.
func (c *Client) RemoveEvaluator(ctx context.Context, projectID roster.ProjectID, evaluatorID roster.EvaluatorID) error {
	_, err := c.do(ctx, http.MethodDelete, fmt.Sprintf("/projects/%d/evaluators/%d", projectID, evaluatorID), nil)
	return err
}

// SetMembership отправляет полный желаемый состав проекта.
func (c *Client) SetMembership(ctx context.Context, projectID roster.ProjectID, evaluatorIDs []roster.EvaluatorID) error {
	payload := models.PostProjectEvaluatorsJSONBody{EvaluatorIds: evaluatorIDs}
	_, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/projects/%d/evaluators", projectID), payload)
	return err
}

// do выполняет запрос и возвращает тело успешного ответа.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	slog.Debug("roster backend call", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	statusErr := &StatusError{
		Method: method,
		Path:   path,
		Status: resp.StatusCode,
		Body:   strings.TrimSpace(string(body)),
	}
	switch resp.StatusCode {
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %w", domain.ErrNotFound, statusErr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, statusErr)
	}
	return nil, statusErr
}
