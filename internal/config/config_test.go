package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoadFrom_MissingFileYieldsDefaults(t *testing.T) {
	cfg := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Equal(t, ":3000", cfg.Server.Port)
	assert.Equal(t, 50*1024*1024, cfg.BodyLimit())
	assert.Equal(t, "pdftk", cfg.Tools.PdftkPath)
	assert.Equal(t, "Success", cfg.Pdftk.SuccessMarker)
	assert.Equal(t, BackendWkhtmltopdf, cfg.Render.Backend)
	assert.False(t, cfg.Server.Development)
}

func TestLoadFrom_Valid(t *testing.T) {
	p := writeConfig(t, `server:
  host: "127.0.0.1"
  port: ":9000"
  development: true
tools:
  pdftk_path: "/usr/local/bin/pdftk"
  timeout: 45s
pdftk:
  strict_stderr: true
render:
  backend: chrome
  timeout_secs: 5
cache:
  enabled: true
  redis_host: "redis:6379"
  redis_pdf_db: 4
  redis_rate_db: 5
  ttl: 2m
`)
	cfg := LoadFrom(p)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr())
	assert.True(t, cfg.Server.Development)
	assert.Equal(t, "/usr/local/bin/pdftk", cfg.Tools.PdftkPath)
	assert.Equal(t, 45*time.Second, cfg.Tools.Timeout)
	assert.True(t, cfg.Pdftk.StrictStderr)
	assert.Equal(t, "Success", cfg.Pdftk.SuccessMarker)
	assert.Equal(t, BackendChrome, cfg.Render.Backend)
	assert.Equal(t, 2*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 4, cfg.Cache.PDFDB)
	assert.Equal(t, 5, cfg.Cache.RateDB)
}

func TestLoadFrom_NodeEnvFallback(t *testing.T) {
	t.Setenv("APP_ENV", "")
	t.Setenv("NODE_ENV", "development")
	cfg := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.True(t, cfg.Server.Development)

	t.Setenv("APP_ENV", "production")
	cfg = LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.False(t, cfg.Server.Development)
}

func TestLoadFrom_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("APP_ENV", "development")
	t.Setenv("PDFTK_BIN", "/opt/pdftk")
	t.Setenv("CHROME_BIN", "/opt/chrome")
	cfg := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Equal(t, ":8081", cfg.Server.Port)
	assert.True(t, cfg.Server.Development)
	assert.Equal(t, "/opt/pdftk", cfg.Tools.PdftkPath)
	assert.Equal(t, "/opt/chrome", cfg.Render.ChromePath)
}

func TestLoadFrom_PanicsOnInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yml  string
	}{
		{name: "bad yaml", yml: "server: [\n"},
		{name: "unknown backend", yml: "render:\n  backend: prince\n"},
		{name: "negative timeout", yml: "tools:\n  timeout: -1s\n"},
		{name: "zero body limit", yml: "server:\n  body_limit_mb: 0\n"},
		{name: "auth without dsn", yml: "auth:\n  enabled: true\n"},
		{name: "limiter without limit", yml: "rate_limiter:\n  enabled: true\n  user_limit: 0\n"},
		{name: "cache without host", yml: "cache:\n  enabled: true\n  redis_host: \"\"\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := writeConfig(t, tc.yml)
			assert.Panics(t, func() { _ = LoadFrom(p) })
		})
	}
}

func TestLoad_UsesConfigPathEnv(t *testing.T) {
	p := writeConfig(t, "server:\n  port: \":7000\"\n")
	t.Setenv("CONFIG_PATH", p)
	cfg := Load()
	require.Equal(t, ":7000", cfg.Server.Port)
}
