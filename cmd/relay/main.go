package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	configloader "github.com/airchat/globaltalk/external/config"
	"github.com/airchat/globaltalk/external/httpapi"
	repositoryimpl "github.com/airchat/globaltalk/external/repository"
	storageimpl "github.com/airchat/globaltalk/external/storage"
	translateimpl "github.com/airchat/globaltalk/external/translate"
	"github.com/airchat/globaltalk/external/ws"
	"github.com/airchat/globaltalk/internal/config"
	"github.com/airchat/globaltalk/internal/relay"
	"github.com/airchat/globaltalk/internal/sweeper"
	"github.com/samber/do/v2"
)

func main() {
	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env)

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	slog.Info("startup: launching relay")
	runRelay(injector)
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	repositoryimpl.RegisterDI(injector)
	storageimpl.RegisterDI(injector)
	translateimpl.RegisterDI(injector)
	relay.RegisterDI(injector)
	sweeper.RegisterDI(injector)
	ws.RegisterDI(injector)
	httpapi.RegisterDI(injector)

	return injector
}

func runRelay(injector do.Injector) {
	server, err := do.Invoke[*httpapi.Server](injector)
	if err != nil {
		slog.Error("failed to resolve http server", "error", err)
		os.Exit(1)
	}
	sw, err := do.Invoke[*sweeper.Sweeper](injector)
	if err != nil {
		slog.Error("failed to resolve sweeper", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go sw.Run(ctx)

	if err := server.Run(ctx); err != nil {
		slog.Error("http server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("shutdown complete")
}
