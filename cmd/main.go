package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/AlekseyZapadovnikov/evaluator-roster/conf"
	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/remote"
	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/repository"
	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/service"
	"github.com/AlekseyZapadovnikov/evaluator-roster/internal/web"
)

// rosterBackend отдаёт и состав, и пул кандидатов.
type rosterBackend interface {
	service.RosterRemote
	service.CandidateSource
}

// main конфигурирует сервис, поднимает хранилище, сервисы и HTTP-сервер, а затем управляет их жизненным циклом.
func main() {
	// Берём путь до конфигурации из окружения либо используем значение по умолчанию.
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "./conf/config.json"
	}

	setupLogger(os.Getenv("LOG_LEVEL"))

	// Загружаем конфигурацию.
	config := conf.MustLoad(cfgPath)
	slog.Info("Configuration loaded successfully", "config_path", cfgPath)
	slog.Info("Database configuration", "host", config.DBConf.Host, "port", config.DBConf.Port, "user", config.DBConf.User, "database", config.DBConf.Name)

	// Хранилище нужно всегда: в нём лежит история согласований.
	ctx := context.Background()
	DBase, err := repository.NewStorage(ctx, &config.DBConf)
	if err != nil {
		slog.Error("Database initialization failed", "error", err)
		os.Exit(1)
	}
	defer DBase.Close()
	slog.Info("Database storage initialized successfully")

	var backend rosterBackend = DBase
	if config.RosterConf.BackendOrDefault() == conf.BackendHTTP {
		backend = remote.NewClient(config.RosterConf)
		slog.Info("Using remote roster backend", "url", config.RosterConf.RemoteURL)
	}

	directory := service.NewEvaluatorDirectory(backend, config.RosterConf.CandidateTTLOrDefault())
	rosterManager := service.NewRosterManager(backend, DBase, directory, config.RosterConf.EditorTTLOrDefault())
	slog.Info("Roster manager created successfully", "backend", config.RosterConf.BackendOrDefault())

	// Поднимаем HTTP-сервер.
	server := web.New(config.HTTPServConf, rosterManager, directory, config.RosterConf.HistoryLimitOrDefault())
	slog.Info("HTTP server created successfully", "address", server.Address)

	// Запускаем сервер в отдельной горутине.
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Evaluator roster service started successfully", "address", server.Address)

	// Ожидаем сигнал остановки для плавного завершения работы.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited properly")
}

func setupLogger(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})))
}
