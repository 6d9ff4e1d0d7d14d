// Package server assembles the fiber application: middleware, routes and
// the pipeline dependencies behind them.
package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/healthcheck"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/redis/go-redis/v9"

	"signature-service/internal/config"
	"signature-service/internal/http/handlers"
	"signature-service/internal/http/middleware"
	"signature-service/internal/infra/cache"
	"signature-service/internal/infra/logging"
	"signature-service/internal/infra/pdftk"
	"signature-service/internal/infra/ratelimit"
	"signature-service/internal/infra/render"
	"signature-service/internal/infra/toolexec"
	"signature-service/internal/signing"
	"signature-service/internal/tokens"
)

const readinessTimeout = 3 * time.Second

// Deps are the process-wide collaborators. Only Config is required.
type Deps struct {
	Config config.Config
	// Redis backs the result cache when cache.enabled is set.
	Redis *redis.Client
	// Runner executes external tools. Nil means a toolexec.ExecRunner.
	Runner toolexec.Runner
	// Tokens enables API-key auth when auth.enabled is set.
	Tokens *tokens.Cache
	// LimiterStore overrides the limiter storage selection.
	LimiterStore fiber.Storage
}

// New builds the application.
func New(deps Deps) *fiber.App {
	cfg := deps.Config

	app := fiber.New(fiber.Config{
		Prefork:               cfg.Server.Prefork,
		BodyLimit:             cfg.BodyLimit(),
		DisableStartupMessage: true,
		AppName:               cfg.Server.ServiceName,
		ErrorHandler:          handlers.ErrorHandler(cfg.Server.Development),
	})

	runner := deps.Runner
	if runner == nil {
		runner = toolexec.NewExecRunner(cfg.Tools.Timeout)
	}
	pdf := pdftk.New(cfg.Tools.PdftkPath, runner, toolexec.StderrPolicy{
		SuccessMarker: cfg.Pdftk.SuccessMarker,
		Strict:        cfg.Pdftk.StrictStderr,
	})

	renderer, err := render.New(cfg, runner)
	if err != nil {
		// Requests to the render-first endpoint fail with a tool error.
		logging.Error("Render backend unavailable", "error", err)
	}

	var pdfCache *cache.PDFCache
	if cfg.Cache.Enabled {
		pdfCache = cache.New(deps.Redis, cfg.Cache.TTL)
	}

	svc := signing.NewService(signing.Options{
		ScratchDir:   cfg.Tools.ScratchDir,
		Filler:       pdf,
		Renderer:     renderer,
		Cache:        pdfCache,
		SanitizeHTML: cfg.Render.SanitizeHTML,
	})

	middleware.Register(app, cfg)

	app.Use(healthcheck.New(healthcheck.Config{
		ReadinessProbe: handlers.Ready(pdf, readinessTimeout),
	}))

	app.Get("/health", handlers.Health(cfg.Server.ServiceName))
	app.Get("/check-pdftk", handlers.CheckPdftk(pdf))

	registerLimits(app, cfg, deps)

	if cfg.Server.Development {
		app.Get("/monitor", monitor.New(monitor.Config{Title: cfg.Server.ServiceName}))
	}

	h := handlers.NewSignatureHandler(svc)
	app.Post("/add-signature-field", h.AddSignatureField)
	app.Post("/create-pdf-with-signature", h.CreatePDFWithSignature)

	app.Use(handlers.NotFound)

	logging.Info("Server configured",
		"renderer", rendererName(renderer),
		"cache", pdfCache != nil,
		"auth", cfg.Auth.Enabled && deps.Tokens != nil,
		"rate_limiter", cfg.RateLimiter.Enabled,
	)
	return app
}

// registerLimits installs key auth and the limiters in front of the signing
// routes. /health and /check-pdftk are registered earlier and stay public.
func registerLimits(app *fiber.App, cfg config.Config, deps Deps) {
	authEnabled := cfg.Auth.Enabled && deps.Tokens != nil
	if !authEnabled && !cfg.RateLimiter.Enabled {
		return
	}

	store := deps.LimiterStore
	if store == nil {
		rc := ratelimit.RedisConfig{DB: cfg.Cache.RateDB}
		if cfg.Cache.Enabled {
			rc.Addr = cfg.Cache.RedisHost
		}
		store = ratelimit.NewStore(rc)
	}
	rl := middleware.RateLimitConfig{
		RateInterval:           cfg.RateLimiter.Interval,
		EnableUserLimiter:      cfg.RateLimiter.Enabled,
		UserLimit:              cfg.RateLimiter.UserLimit,
		EnableTokenRateLimiter: authEnabled,
	}

	if authEnabled {
		app.Use(middleware.KeyAuth(deps.Tokens))
		app.Use(middleware.TokenRateLimit(rl, deps.Tokens, store, middleware.NewLimiterCache()))
	}
	app.Use(middleware.UserRateLimit(rl, store))
}

func rendererName(r render.Renderer) string {
	if r == nil {
		return "none"
	}
	return r.Name()
}
