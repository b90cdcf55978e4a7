package conf

import (
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

// Источники состава оценщиков.
const (
	BackendPostgres = "postgres"
	BackendHTTP     = "http"
)

var (
	configValidator = newConfigValidator()
	numberRegex     = regexp.MustCompile(`^\d+$`)
)

type Config struct {
	HTTPServConf HttpServConf `json:"httpServer" validate:"required"`
	DBConf       DbConf       `json:"dataBase" validate:"required"`
	RosterConf   RosterConf   `json:"roster"`
}

type HttpServConf struct {
	Host    string `json:"host" validate:"required"`
	Port    string `json:"port" validate:"required,is-number"`
	BaseURL string `json:"baseURL"`
}

// GetAddress возвращает строку host:port для запуска HTTP-сервера.
func (s *HttpServConf) GetAddress() string {
	return net.JoinHostPort(s.Host, s.Port)
}

type DbConf struct {
	Host     string `json:"host" validate:"required"`
	Port     string `json:"port" validate:"required,is-number"`
	User     string `json:"user" validate:"required"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required"`
	SSLMode  string `json:"sslMode" validate:"omitempty,oneof=disable require verify-ca verify-full"`
	MaxConns int32  `json:"maxConns" validate:"gte=0"`
}

// ConnString собирает DSN для pgxpool.
func (d *DbConf) ConnString() string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   net.JoinHostPort(d.Host, d.Port),
		Path:   d.Name,
	}
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	q := u.Query()
	q.Set("sslmode", sslMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// RosterConf настраивает согласование состава оценщиков.
type RosterConf struct {
	// Backend: "postgres" хранит состав в нашей БД, "http" ходит во внешний REST-бэкенд.
	Backend        string `json:"backend" validate:"omitempty,roster-backend"`
	RemoteURL      string `json:"remoteURL" validate:"omitempty,url"`
	AuthToken      string `json:"authToken"`
	RequestTimeout string `json:"requestTimeout" validate:"omitempty,duration"`
	CandidateTTL   string `json:"candidateTTL" validate:"omitempty,duration"`
	EditorTTL      string `json:"editorTTL" validate:"omitempty,duration"`
	HistoryLimit   int    `json:"historyLimit" validate:"gte=0,lte=500"`
}

// BackendOrDefault возвращает выбранный источник состава.
func (r *RosterConf) BackendOrDefault() string {
	if r.Backend == "" {
		return BackendPostgres
	}
	return r.Backend
}

// RequestTimeoutOrDefault возвращает таймаут одного запроса к внешнему бэкенду.
func (r *RosterConf) RequestTimeoutOrDefault() time.Duration {
	return parseDurationOr(r.RequestTimeout, 5*time.Second)
}

// CandidateTTLOrDefault возвращает время жизни кэша кандидатов.
func (r *RosterConf) CandidateTTLOrDefault() time.Duration {
	return parseDurationOr(r.CandidateTTL, time.Minute)
}

// EditorTTLOrDefault возвращает время жизни открытого редактора состава.
func (r *RosterConf) EditorTTLOrDefault() time.Duration {
	return parseDurationOr(r.EditorTTL, 30*time.Minute)
}

// HistoryLimitOrDefault возвращает, сколько попыток отдавать в истории по умолчанию.
func (r *RosterConf) HistoryLimitOrDefault() int {
	if r.HistoryLimit <= 0 {
		return 50
	}
	return r.HistoryLimit
}

// MustLoad читает файл конфигурации и паникует при любой ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err.Error())
	}
	return cfg
}

// Load читает файл конфигурации, применяет значения из окружения и валидирует структуру.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("could not parse config file: %w", err)
	}

	applyEnvOverrides(&cfg)

	if err := configValidator.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.RosterConf.BackendOrDefault() == BackendHTTP && cfg.RosterConf.RemoteURL == "" {
		return nil, fmt.Errorf("invalid config: roster.remoteURL is required for backend %q", BackendHTTP)
	}

	return &cfg, nil
}

// applyEnvOverrides подменяет поля конфигурации значениями из переменных окружения.
func applyEnvOverrides(cfg *Config) {
	override := func(key string, target *string) {
		if val := os.Getenv(key); val != "" {
			*target = val
		}
	}

	override("HTTP_HOST", &cfg.HTTPServConf.Host)
	override("HTTP_PORT", &cfg.HTTPServConf.Port)
	override("HTTP_BASE_URL", &cfg.HTTPServConf.BaseURL)

	override("DB_HOST", &cfg.DBConf.Host)
	override("DB_PORT", &cfg.DBConf.Port)
	override("DB_USER", &cfg.DBConf.User)
	override("DB_PASSWORD", &cfg.DBConf.Password)
	override("DB_NAME", &cfg.DBConf.Name)
	override("DB_SSLMODE", &cfg.DBConf.SSLMode)
	if val := os.Getenv("DB_MAX_CONNS"); val != "" {
		if n, err := strconv.ParseInt(val, 10, 32); err == nil {
			cfg.DBConf.MaxConns = int32(n)
		}
	}

	override("ROSTER_BACKEND", &cfg.RosterConf.Backend)
	override("ROSTER_REMOTE_URL", &cfg.RosterConf.RemoteURL)
	override("ROSTER_AUTH_TOKEN", &cfg.RosterConf.AuthToken)
	override("ROSTER_REQUEST_TIMEOUT", &cfg.RosterConf.RequestTimeout)
	override("ROSTER_CANDIDATE_TTL", &cfg.RosterConf.CandidateTTL)
	override("ROSTER_EDITOR_TTL", &cfg.RosterConf.EditorTTL)
}

// newConfigValidator настраивает валидатор и регистрирует пользовательские проверки.
func newConfigValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("is-number", func(fl validator.FieldLevel) bool {
		return numberRegex.MatchString(fl.Field().String())
	}); err != nil {
		panic("failed to register is-number validation: " + err.Error())
	}
	if err := v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		d, err := time.ParseDuration(fl.Field().String())
		return err == nil && d > 0
	}); err != nil {
		panic("failed to register duration validation: " + err.Error())
	}
	if err := v.RegisterValidation("roster-backend", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case BackendPostgres, BackendHTTP:
			return true
		}
		return false
	}); err != nil {
		panic("failed to register roster-backend validation: " + err.Error())
	}
	return v
}

func parseDurationOr(raw string, def time.Duration) time.Duration {
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
