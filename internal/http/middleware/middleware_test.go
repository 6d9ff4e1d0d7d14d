package middleware

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/storage/memory/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signature-service/internal/config"
	"signature-service/internal/infra/logging"
	"signature-service/internal/tokens"
)

func newApp(t *testing.T, handlers ...fiber.Handler) *fiber.App {
	t.Helper()
	app := fiber.New()
	for _, h := range handlers {
		app.Use(h)
	}
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })
	return app
}

func TestRegister_SetsSecurityAndCORSHeaders(t *testing.T) {
	app := fiber.New()
	Register(app, config.Default())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://example.com")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get(fiber.HeaderAccessControlAllowOrigin))
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
	assert.Equal(t, "nosniff", resp.Header.Get(fiber.HeaderXContentTypeOptions))
}

func TestRegister_PreflightAllowsPost(t *testing.T) {
	app := fiber.New()
	Register(app, config.Default())

	req := httptest.NewRequest(fiber.MethodOptions, "/add-signature-field", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set(fiber.HeaderAccessControlRequestMethod, fiber.MethodPost)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderAccessControlAllowMethods), "POST")
}

func TestRegister_RecoversFromPanic(t *testing.T) {
	app := fiber.New()
	Register(app, config.Default())
	app.Get("/boom", func(c *fiber.Ctx) error { panic("boom") })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestKeyAuth(t *testing.T) {
	cache := tokens.NewCache()
	app := newApp(t, KeyAuth(cache))

	get := func(key string) int {
		req := httptest.NewRequest(fiber.MethodGet, "/", nil)
		if key != "" {
			req.Header.Set("X-API-Key", key)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusServiceUnavailable, get("abc"))
	assert.Equal(t, fiber.StatusOK, get(""))

	cache.Replace(map[string]tokens.Entry{"abc": {RateLimit: 2}})
	assert.Equal(t, fiber.StatusOK, get("abc"))
	assert.Equal(t, fiber.StatusUnauthorized, get("nope"))
}

func TestTokenRateLimit_PerTokenBudget(t *testing.T) {
	cache := tokens.NewCache()
	cache.Replace(map[string]tokens.Entry{"abc": {RateLimit: 2}, "big": {RateLimit: 10}})
	cfg := RateLimitConfig{RateInterval: time.Minute, EnableTokenRateLimiter: true}
	app := newApp(t, KeyAuth(cache), TokenRateLimit(cfg, cache, memory.New(), NewLimiterCache()))

	get := func(key string) int {
		req := httptest.NewRequest(fiber.MethodGet, "/", nil)
		req.Header.Set("X-API-Key", key)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusOK, get("abc"))
	assert.Equal(t, fiber.StatusOK, get("abc"))
	assert.Equal(t, fiber.StatusTooManyRequests, get("abc"))
	assert.Equal(t, fiber.StatusOK, get("big"))
}

func TestUserRateLimit_AnonymousOnly(t *testing.T) {
	cfg := RateLimitConfig{RateInterval: time.Minute, EnableUserLimiter: true, UserLimit: 1}
	app := newApp(t, UserRateLimit(cfg, memory.New()))

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
}

func TestUserRateLimit_Disabled(t *testing.T) {
	app := newApp(t, UserRateLimit(RateLimitConfig{}, memory.New()))
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	}
}

func TestLimiterCache_ReusesHandlerPerLimit(t *testing.T) {
	lc := NewLimiterCache()
	builds := 0
	build := func() fiber.Handler {
		builds++
		return func(c *fiber.Ctx) error { return nil }
	}
	lc.get(5, build)
	lc.get(5, build)
	lc.get(7, build)
	assert.Equal(t, 2, builds)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// accessStatuses returns the status of every "Request handled" line.
func (b *syncBuffer) accessStatuses(t *testing.T) []int {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []int
	sc := bufio.NewScanner(bytes.NewReader(b.buf.Bytes()))
	for sc.Scan() {
		var line struct {
			Message string `json:"message"`
			Status  int    `json:"status"`
		}
		require.NoError(t, json.Unmarshal(sc.Bytes(), &line))
		if line.Message == "Request handled" {
			out = append(out, line.Status)
		}
	}
	return out
}

func captureLog(t *testing.T) *syncBuffer {
	t.Helper()
	buf := &syncBuffer{}
	logging.SetLoggerForTest(zerolog.New(buf))
	t.Cleanup(func() { logging.SetLoggerForTest(zerolog.New(os.Stdout)) })
	return buf
}

func TestAccessLog_LogsStatusProducedByErrorHandler(t *testing.T) {
	logs := captureLog(t)
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})
	Register(app, config.Default())
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/fail", func(c *fiber.Ctx) error { return errors.New("pipeline failed") })
	app.Get("/teapot", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "short and stout") })

	for path, want := range map[string]int{"/ok": 200, "/fail": 500, "/teapot": 418} {
		resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, path, nil))
		require.NoError(t, err)
		assert.Equal(t, want, resp.StatusCode, path)
	}

	statuses := logs.accessStatuses(t)
	assert.ElementsMatch(t, []int{200, 500, 418}, statuses)
}
