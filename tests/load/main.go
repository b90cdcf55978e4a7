package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/models"
	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/roster"
)

type runConfig struct {
	BaseURL         string
	ProjectCount    int
	EvaluatorCount  int
	MaxRosterSize   int
	RPS             float64
	Duration        time.Duration
	RequestTimeout  time.Duration
	HealthTimeout   time.Duration
	ReportPath      string
	DatasetPrefix   string
	EditorShareRate float64

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
}

type datasetInfo struct {
	Prefix         string `json:"prefix"`
	ProjectCount   int    `json:"project_count"`
	EvaluatorCount int    `json:"evaluator_count"`
	MaxRosterSize  int    `json:"max_roster_size"`
	FirstProjectID int64  `json:"first_project_id"`
	FirstUserID    int64  `json:"first_user_id"`
}

type projectScenario struct {
	ID roster.ProjectID
}

type latencySummary struct {
	Samples   int     `json:"samples"`
	AverageMs float64 `json:"average_ms"`
	P95Ms     float64 `json:"p95_ms"`
	MaxMs     float64 `json:"max_ms"`
}

type totalsSummary struct {
	Requested  int `json:"requested"`
	Succeeded  int `json:"succeeded"`
	Partial    int `json:"partial"`
	Failed     int `json:"failed"`
	InProgress int `json:"in_progress"`
	Errors     int `json:"errors"`
}

type loadSummary struct {
	GeneratedAt      time.Time      `json:"generated_at"`
	BaseURL          string         `json:"base_url"`
	DurationSec      float64        `json:"duration_sec"`
	TargetRPS        float64        `json:"target_rps"`
	ActualRPS        float64        `json:"actual_rps"`
	Dataset          datasetInfo    `json:"dataset"`
	Totals           totalsSummary  `json:"totals"`
	ReconcileLatency latencySummary `json:"reconcile_latency_ms"`
	EditorLatency    latencySummary `json:"editor_commit_latency_ms"`
	Errors           []string       `json:"errors,omitempty"`
}

type requestResult struct {
	state      roster.State
	inProgress bool
	viaEditor  bool
}

type metricRecorder struct {
	mu              sync.Mutex
	total           int
	success         int
	partial         int
	failed          int
	inProgress      int
	errCount        int
	durations       []time.Duration
	editorDurations []time.Duration
	errors          []string
}

func (m *metricRecorder) record(duration time.Duration, res requestResult, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total++
	if err != nil {
		m.errCount++
		if len(m.errors) < 10 {
			m.errors = append(m.errors, err.Error())
		}
		return
	}
	if res.inProgress {
		m.inProgress++
		return
	}
	switch res.state {
	case roster.StateSuccess:
		m.success++
	case roster.StatePartialFailure:
		m.partial++
	default:
		m.failed++
	}
	if res.viaEditor {
		m.editorDurations = append(m.editorDurations, duration)
		return
	}
	m.durations = append(m.durations, duration)
}

func (m *metricRecorder) toSummary(elapsed time.Duration, cfg runConfig, data datasetInfo) loadSummary {
	summary := loadSummary{
		GeneratedAt: time.Now(),
		BaseURL:     cfg.BaseURL,
		DurationSec: elapsed.Seconds(),
		TargetRPS:   cfg.RPS,
		Dataset:     data,
		Totals: totalsSummary{
			Requested:  m.total,
			Succeeded:  m.success,
			Partial:    m.partial,
			Failed:     m.failed,
			InProgress: m.inProgress,
			Errors:     m.errCount,
		},
		Errors: append([]string(nil), m.errors...),
	}
	if elapsed > 0 {
		summary.ActualRPS = float64(m.success+m.partial+m.failed) / elapsed.Seconds()
	}
	summary.ReconcileLatency = calcLatency(m.durations)
	summary.EditorLatency = calcLatency(m.editorDurations)
	return summary
}

func calcLatency(data []time.Duration) latencySummary {
	if len(data) == 0 {
		return latencySummary{}
	}
	samples := append([]time.Duration(nil), data...)
	sort.Slice(samples, func(i, j int) bool {
		return samples[i] < samples[j]
	})

	var total time.Duration
	for _, d := range samples {
		total += d
	}
	avg := float64(total.Microseconds()) / float64(len(samples))
	maxDur := samples[len(samples)-1]
	p95 := samples[int(math.Ceil(0.95*float64(len(samples))))-1]
	return latencySummary{
		Samples:   len(samples),
		AverageMs: avg / 1000.0,
		P95Ms:     float64(p95.Microseconds()) / 1000.0,
		MaxMs:     float64(maxDur.Microseconds()) / 1000.0,
	}
}

func main() {
	cfg := parseFlags()
	if err := run(cfg); err != nil {
		log.Fatalf("load test failed: %v", err)
	}
}

func parseFlags() runConfig {
	var cfg runConfig
	flag.StringVar(&cfg.BaseURL, "base-url", "http://localhost:8080", "base URL of the running service")
	flag.IntVar(&cfg.ProjectCount, "projects", 10, "number of projects to seed (<=50)")
	flag.IntVar(&cfg.EvaluatorCount, "evaluators", 40, "number of evaluators to seed (<=200)")
	flag.IntVar(&cfg.MaxRosterSize, "max-roster", 6, "maximum size of a desired roster")
	flag.Float64Var(&cfg.RPS, "rps", 5, "target requests per second")
	flag.Float64Var(&cfg.EditorShareRate, "editor-share", 0.2, "share of requests that go through the roster editor")
	flag.DurationVar(&cfg.Duration, "duration", 30*time.Second, "load duration (e.g. 45s, 1m)")
	flag.DurationVar(&cfg.RequestTimeout, "request-timeout", 2*time.Second, "HTTP request timeout")
	flag.DurationVar(&cfg.HealthTimeout, "health-timeout", 30*time.Second, "maximum wait for /health readiness")
	flag.StringVar(&cfg.ReportPath, "report", "tests/load/results/latest.json", "path to store structured results")
	flag.StringVar(&cfg.DatasetPrefix, "dataset-prefix", "load", "prefix for generated projects and users")

	flag.StringVar(&cfg.DBHost, "db-host", "localhost", "PostgreSQL host")
	flag.StringVar(&cfg.DBPort, "db-port", "5432", "PostgreSQL port")
	flag.StringVar(&cfg.DBUser, "db-user", "postgres", "PostgreSQL user")
	flag.StringVar(&cfg.DBPassword, "db-password", "secret", "PostgreSQL password")
	flag.StringVar(&cfg.DBName, "db-name", "evaluatorRosterDb", "PostgreSQL database name")

	flag.Parse()
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.ProjectCount <= 0 || cfg.ProjectCount > 50 {
		log.Fatalf("projects must be within 1..50, got %d", cfg.ProjectCount)
	}
	if cfg.EvaluatorCount <= 0 || cfg.EvaluatorCount > 200 {
		log.Fatalf("evaluators must be within 1..200, got %d", cfg.EvaluatorCount)
	}
	if cfg.MaxRosterSize <= 0 || cfg.MaxRosterSize > cfg.EvaluatorCount {
		log.Fatalf("max-roster must be between 1 and evaluators")
	}
	if cfg.EditorShareRate < 0 || cfg.EditorShareRate > 1 {
		log.Fatalf("editor-share must be within 0..1")
	}
	if cfg.RPS <= 0 {
		log.Fatalf("rps must be positive")
	}
	return cfg
}

func run(cfg runConfig) error {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	ctx := context.Background()
	client := &http.Client{Timeout: cfg.RequestTimeout}

	if err := waitForHealthy(ctx, client, cfg.BaseURL, cfg.HealthTimeout); err != nil {
		return fmt.Errorf("service unhealthy: %w", err)
	}
	log.Printf("Service is healthy at %s", cfg.BaseURL)

	pool, err := pgxpool.New(ctx, cfg.dbConnString())
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer pool.Close()

	info, projects, evaluators, err := seedDataset(ctx, pool, cfg)
	if err != nil {
		return fmt.Errorf("seed dataset: %w", err)
	}
	log.Printf("Seeded %d projects and %d evaluators (%s)", len(projects), len(evaluators), info.Prefix)

	start := time.Now()
	recorder := &metricRecorder{}
	executeLoad(ctx, client, cfg, rng, projects, evaluators, recorder)
	elapsed := time.Since(start)
	summary := recorder.toSummary(elapsed, cfg, info)

	printSummary(summary)
	if err := writeReport(summary, cfg.ReportPath); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func (cfg runConfig) dbConnString() string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.DBUser, cfg.DBPassword),
		Host:   net.JoinHostPort(cfg.DBHost, cfg.DBPort),
		Path:   cfg.DBName,
	}
	q := u.Query()
	q.Set("sslmode", "disable")
	u.RawQuery = q.Encode()
	return u.String()
}

func waitForHealthy(ctx context.Context, client *http.Client, baseURL string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out waiting for health")
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil && resp.StatusCode == http.StatusOK {
			resp.Body.Close()
			return nil
		}
		if resp != nil {
			resp.Body.Close()
		}
		time.Sleep(1 * time.Second)
	}
}

// seedDataset пишет пользователей и проекты прямо в БД; идентификаторы сдвинуты на метку времени, чтобы прогоны не пересекались.
func seedDataset(ctx context.Context, pool *pgxpool.Pool, cfg runConfig) (datasetInfo, []*projectScenario, []roster.EvaluatorID, error) {
	stamp := time.Now().Unix()
	prefix := fmt.Sprintf("%s-%d", cfg.DatasetPrefix, stamp)
	firstUser := stamp * 1000
	firstProject := stamp * 100

	info := datasetInfo{
		Prefix:         prefix,
		ProjectCount:   cfg.ProjectCount,
		EvaluatorCount: cfg.EvaluatorCount,
		MaxRosterSize:  cfg.MaxRosterSize,
		FirstProjectID: firstProject,
		FirstUserID:    firstUser,
	}

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return info, nil, nil, err
	}
	defer tx.Rollback(ctx)

	userRows := make([][]any, 0, cfg.EvaluatorCount)
	evaluators := make([]roster.EvaluatorID, 0, cfg.EvaluatorCount)
	for i := 0; i < cfg.EvaluatorCount; i++ {
		id := firstUser + int64(i)
		userRows = append(userRows, []any{
			id,
			fmt.Sprintf("%s evaluator %03d", prefix, i+1),
			fmt.Sprintf("%s-%03d@load.local", prefix, i+1),
			models.RoleEvaluator,
			i%3 != 0,
		})
		evaluators = append(evaluators, roster.EvaluatorID(id))
	}
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"users"},
		[]string{"user_id", "full_name", "email", "role", "is_verified"},
		pgx.CopyFromRows(userRows),
	); err != nil {
		return info, nil, nil, fmt.Errorf("copy users: %w", err)
	}

	projects := make([]*projectScenario, 0, cfg.ProjectCount)
	for i := 0; i < cfg.ProjectCount; i++ {
		id := firstProject + int64(i)
		if _, err := tx.Exec(ctx, `
			INSERT INTO projects (project_id, name, status, created_at)
			VALUES ($1, $2, 'active', now())
		`, id, fmt.Sprintf("%s project %02d", prefix, i+1)); err != nil {
			return info, nil, nil, fmt.Errorf("insert project %d: %w", id, err)
		}
		projects = append(projects, &projectScenario{ID: roster.ProjectID(id)})
	}

	if err := tx.Commit(ctx); err != nil {
		return info, nil, nil, err
	}
	return info, projects, evaluators, nil
}

// randomDesired выбирает случайный состав, чтобы попытки содержали и удаления, и добавления.
func randomDesired(rng *rand.Rand, evaluators []roster.EvaluatorID, maxSize int) []roster.EvaluatorID {
	size := rng.Intn(maxSize + 1)
	perm := rng.Perm(len(evaluators))[:size]
	out := make([]roster.EvaluatorID, 0, size)
	for _, idx := range perm {
		out = append(out, evaluators[idx])
	}
	return out
}

func executeLoad(ctx context.Context, client *http.Client, cfg runConfig, rng *rand.Rand, projects []*projectScenario, evaluators []roster.EvaluatorID, recorder *metricRecorder) {
	interval := time.Duration(float64(time.Second) / cfg.RPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	totalRequests := int(math.Round(cfg.Duration.Seconds() * cfg.RPS))
	if totalRequests == 0 {
		totalRequests = int(cfg.Duration.Seconds()) + 1
	}

	var wg sync.WaitGroup
	for i := 0; i < totalRequests; i++ {
		<-ticker.C
		project := projects[rng.Intn(len(projects))]
		desired := randomDesired(rng, evaluators, cfg.MaxRosterSize)
		viaEditor := rng.Float64() < cfg.EditorShareRate
		wg.Add(1)
		go func(p *projectScenario, desired []roster.EvaluatorID, viaEditor bool) {
			defer wg.Done()
			var (
				duration time.Duration
				res      requestResult
				err      error
			)
			if viaEditor {
				duration, res, err = executeEditorCommit(ctx, client, cfg.BaseURL, p, desired)
			} else {
				duration, res, err = executeReconcile(ctx, client, cfg.BaseURL, p, desired)
			}
			recorder.record(duration, res, err)
		}(project, desired, viaEditor)
	}
	wg.Wait()
}

func executeReconcile(ctx context.Context, client *http.Client, baseURL string, p *projectScenario, desired []roster.EvaluatorID) (time.Duration, requestResult, error) {
	start := time.Now()
	status, body, err := doJSON(ctx, client, http.MethodPost,
		fmt.Sprintf("%s/projects/%d/roster/reconcile", baseURL, p.ID),
		models.PostReconcileJSONBody{Desired: desired})
	if err != nil {
		return 0, requestResult{}, err
	}
	return parseOutcome(time.Since(start), status, body, false)
}

// executeEditorCommit открывает редактор, переключает разницу с desired и коммитит.
func executeEditorCommit(ctx context.Context, client *http.Client, baseURL string, p *projectScenario, desired []roster.EvaluatorID) (time.Duration, requestResult, error) {
	start := time.Now()
	status, body, err := doJSON(ctx, client, http.MethodPost, fmt.Sprintf("%s/projects/%d/roster/editor", baseURL, p.ID), nil)
	if err != nil {
		return 0, requestResult{}, err
	}
	if status != http.StatusCreated {
		return 0, requestResult{}, fmt.Errorf("open editor: status %d: %s", status, strings.TrimSpace(string(body)))
	}
	var sess models.EditorSession
	if err := json.Unmarshal(body, &sess); err != nil {
		return 0, requestResult{}, fmt.Errorf("decode editor: %w", err)
	}

	plan := roster.ComputePlan(roster.NewSet(sess.Initial...), roster.NewSet(desired...))
	editorURL := fmt.Sprintf("%s/roster/editor/%s", baseURL, sess.SessionId)
	toggle := func(id roster.EvaluatorID, assigned bool) error {
		status, body, err := doJSON(ctx, client, http.MethodPost, editorURL+"/toggle",
			models.PostEditorToggleJSONBody{EvaluatorId: id, Assigned: assigned})
		if err != nil {
			return err
		}
		if status != http.StatusOK {
			return fmt.Errorf("toggle %d: status %d: %s", id, status, strings.TrimSpace(string(body)))
		}
		return nil
	}
	for _, id := range plan.ToRemove.Sorted() {
		if err := toggle(id, false); err != nil {
			return 0, requestResult{}, err
		}
	}
	for _, id := range plan.ToAdd.Sorted() {
		if err := toggle(id, true); err != nil {
			return 0, requestResult{}, err
		}
	}

	status, body, err = doJSON(ctx, client, http.MethodPost, editorURL+"/commit", nil)
	if err != nil {
		return 0, requestResult{}, err
	}
	if status == http.StatusOK || status == http.StatusMultiStatus || status == http.StatusBadGateway {
		var res models.EditorCommitResult
		if err := json.Unmarshal(body, &res); err != nil {
			return 0, requestResult{}, fmt.Errorf("decode commit: %w", err)
		}
		if res.Session != nil {
			// редактор оставлен открытым для повтора, закрываем его сами
			_, _, _ = doJSON(ctx, client, http.MethodDelete, editorURL, nil)
		}
		if res.Outcome == nil {
			return 0, requestResult{}, fmt.Errorf("commit without outcome")
		}
		return time.Since(start), requestResult{state: res.Outcome.State, viaEditor: true}, nil
	}
	return parseOutcome(time.Since(start), status, body, true)
}

func parseOutcome(duration time.Duration, status int, body []byte, viaEditor bool) (time.Duration, requestResult, error) {
	switch status {
	case http.StatusOK, http.StatusMultiStatus, http.StatusBadGateway:
		var out models.ReconciliationOutcome
		if err := json.Unmarshal(body, &out); err != nil {
			return 0, requestResult{}, fmt.Errorf("decode response: %w", err)
		}
		return duration, requestResult{state: out.State, viaEditor: viaEditor}, nil
	case http.StatusConflict:
		var errResp models.ErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Code == models.CodeReconcileInProgress {
			return duration, requestResult{inProgress: true, viaEditor: viaEditor}, nil
		}
	}
	return 0, requestResult{}, fmt.Errorf("status %d: %s", status, strings.TrimSpace(string(body)))
}

func doJSON(ctx context.Context, client *http.Client, method, url string, payload interface{}) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, data, nil
}

func printSummary(summary loadSummary) {
	fmt.Printf("\nLoad test summary:\n")
	fmt.Printf("  Target RPS: %.2f, Actual RPS: %.2f\n", summary.TargetRPS, summary.ActualRPS)
	fmt.Printf("  Requests: %d total, %d success, %d partial, %d failure, %d in progress, %d errors\n",
		summary.Totals.Requested, summary.Totals.Succeeded, summary.Totals.Partial, summary.Totals.Failed,
		summary.Totals.InProgress, summary.Totals.Errors)
	fmt.Printf("  Reconcile latency avg: %.2f ms, p95: %.2f ms, max: %.2f ms\n",
		summary.ReconcileLatency.AverageMs, summary.ReconcileLatency.P95Ms, summary.ReconcileLatency.MaxMs)
	fmt.Printf("  Editor commit latency avg: %.2f ms, p95: %.2f ms, max: %.2f ms\n",
		summary.EditorLatency.AverageMs, summary.EditorLatency.P95Ms, summary.EditorLatency.MaxMs)
	if len(summary.Errors) > 0 {
		fmt.Println("  Sample errors:")
		for _, err := range summary.Errors {
			fmt.Printf("   - %s\n", err)
		}
	}
}

func writeReport(summary loadSummary, path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
