package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"

	"signature-service/internal/config"
	"signature-service/internal/http/server"
	"signature-service/internal/infra/logging"
	"signature-service/internal/infra/postgres"
	"signature-service/internal/tokens"
)

func main() {
	cfg := config.LoadFrom(configPath(os.Args[1:]))

	if err := ensureLogDir(cfg.Logger.File); err != nil {
		fmt.Fprintf(os.Stderr, "cannot create log directory: %v\n", err)
		os.Exit(1)
	}
	logging.InitLogger(
		cfg.Logger.File,
		cfg.Logger.MaxSizeMB,
		cfg.Logger.MaxBackups,
		cfg.Logger.MaxAgeDays,
		cfg.Logger.Compress,
		cfg.Logger.Level,
	)

	undoMaxprocs, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...any) {
		logging.Info(fmt.Sprintf(format, args...))
	}))
	if err != nil {
		logging.Warn("Failed to set GOMAXPROCS", "error", err)
	}
	defer undoMaxprocs()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var rdb *redis.Client
	if cfg.Cache.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr: cfg.Cache.RedisHost,
			DB:   cfg.Cache.PDFDB,
		})
		defer rdb.Close()
	}

	var tokenCache *tokens.Cache
	if cfg.Auth.Enabled {
		db := postgres.NewDB()
		defer db.Close()

		if sqlDB, err := db.Get(cfg.Auth.PostgresDSN); err != nil {
			logging.Error("Failed to open token database", "error", err)
		} else if err := postgres.VerifySchema(sqlDB); err != nil {
			logging.Warn("Token database not reachable yet", "error", err)
		}

		tokenCache = tokens.NewCache()
		reloader := tokens.NewReloader(postgres.NewTokenRepository(db, cfg.Auth.PostgresDSN), tokenCache, cfg.Auth.ReloadInterval)
		loadCtx, loadCancel := context.WithTimeout(ctx, 5*time.Second)
		if err := reloader.LoadOnce(loadCtx); err != nil {
			logging.Error("Failed to load API tokens", "error", err)
		}
		loadCancel()
		reloader.Start(ctx)
	}

	app := server.New(server.Deps{
		Config: cfg,
		Redis:  rdb,
		Tokens: tokenCache,
	})

	idleConnsClosed := make(chan struct{})
	logging.Info("Service starting",
		"addr", cfg.Addr(),
		"development", cfg.Server.Development,
		"health", "/health",
		"pdftk_check", "/check-pdftk",
	)
	startServer(app, cfg, idleConnsClosed)
	<-idleConnsClosed
}

// configPath resolves --config, then CONFIG_PATH, then config.yaml.
// Unknown flags are ignored.
func configPath(args []string) string {
	def := os.Getenv("CONFIG_PATH")
	if def == "" {
		def = "config.yaml"
	}
	fs := pflag.NewFlagSet("signature-service", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.SetOutput(os.Stderr)
	path := fs.String("config", def, "path to the YAML config file")
	if err := fs.Parse(args); err != nil {
		return def
	}
	return *path
}

// ensureLogDir creates the parent directory of the log file.
func ensureLogDir(path string) error {
	if path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// startServer starts the Fiber app and listens for shutdown signals
func startServer(app *fiber.App, cfg config.Config, idleConnsClosed chan struct{}) {
	go func() {
		if err := app.Listen(cfg.Addr()); err != nil {
			logging.Error("Server error", "error", err)
		}
	}()

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
	<-sigint
	signal.Stop(sigint)

	logging.Warn("Shutdown signal received, closing server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
	}

	close(idleConnsClosed)
	logging.Info("Server stopped cleanly")
}
