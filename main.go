package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"task-tracker/adapters/auth"
	"task-tracker/adapters/memory"
	"task-tracker/adapters/rest"
	"task-tracker/adapters/rest/handlers"
	"task-tracker/config"
	"task-tracker/core"
)

func main() {
	var (
		configPath string
		issueFor   string
	)
	flag.StringVar(&configPath, "config", "config.yaml", "server configuration file")
	flag.StringVar(&issueFor, "issue-token", "", "print a signed token for this subject and exit")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "cannot load .env: %s\n", err)
		os.Exit(1)
	}

	cfg := config.MustLoad(configPath)
	log := mustMakeLogger(cfg.LogLevel)

	authn := auth.NewJWT(cfg.Auth.Secret)

	if issueFor != "" {
		token, err := authn.Issue(issueFor, 24*time.Hour)
		if err != nil {
			log.Error("cannot issue token", "error", err)
			os.Exit(1)
		}
		fmt.Println(token)
		return
	}

	if err := run(cfg, log, authn); err != nil {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger, authn auth.Authenticator) error {
	strategy, err := memory.ParseIDStrategy(cfg.Store.IDStrategy)
	if err != nil {
		return fmt.Errorf("store config: %w", err)
	}

	storage := memory.New(log, strategy)
	tasksService := core.NewService(storage)

	mux := http.NewServeMux()
	handlers.Register(mux, log, tasksService, authn, handlers.Options{
		Timeout:      cfg.HTTP.Timeout,
		Strict:       cfg.Auth.Strict,
		DefaultActor: cfg.Auth.DefaultActor,
	})

	server := http.Server{
		Addr:              cfg.HTTP.Address,
		ReadHeaderTimeout: cfg.HTTP.Timeout,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		Handler:           rest.Middleware(log, cfg.HTTP.MaxBodyBytes, mux),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("task tracker http server", "address", server.Addr, "id_strategy", strategy, "strict_auth", cfg.Auth.Strict)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown requested")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped unexpectedly: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func mustMakeLogger(logLevel string) *slog.Logger {
	var level slog.Level
	switch logLevel {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
