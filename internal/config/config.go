package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the immutable service configuration. It is loaded once at
// startup and passed by value to every constructor.
type Config struct {
	Server struct {
		Host        string `yaml:"host"`
		Port        string `yaml:"port"`
		Prefork     bool   `yaml:"prefork"`
		Development bool   `yaml:"development"`
		BodyLimitMB int    `yaml:"body_limit_mb"`
		ServiceName string `yaml:"service_name"`
	} `yaml:"server"`

	Logger struct {
		File       string `yaml:"file"`
		Level      string `yaml:"level"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"logger"`

	Tools struct {
		PdftkPath       string        `yaml:"pdftk_path"`
		WkhtmltopdfPath string        `yaml:"wkhtmltopdf_path"`
		ScratchDir      string        `yaml:"scratch_dir"`
		Timeout         time.Duration `yaml:"timeout"`
	} `yaml:"tools"`

	Pdftk struct {
		SuccessMarker string `yaml:"success_marker"`
		StrictStderr  bool   `yaml:"strict_stderr"`
	} `yaml:"pdftk"`

	Render struct {
		Backend         string `yaml:"backend"`
		ChromePath      string `yaml:"chrome_path"`
		ChromeNoSandbox bool   `yaml:"chrome_no_sandbox"`
		SanitizeHTML    bool   `yaml:"sanitize_html"`
		TimeoutSecs     int    `yaml:"timeout_secs"`
	} `yaml:"render"`

	Cache struct {
		Enabled   bool          `yaml:"enabled"`
		RedisHost string        `yaml:"redis_host"`
		PDFDB     int           `yaml:"redis_pdf_db"`
		RateDB    int           `yaml:"redis_rate_db"`
		TTL       time.Duration `yaml:"ttl"`
	} `yaml:"cache"`

	RateLimiter struct {
		Enabled   bool          `yaml:"enabled"`
		UserLimit int           `yaml:"user_limit"`
		Interval  time.Duration `yaml:"interval"`
	} `yaml:"rate_limiter"`

	Auth struct {
		Enabled        bool          `yaml:"enabled"`
		PostgresDSN    string        `yaml:"postgres_dsn"`
		ReloadInterval time.Duration `yaml:"reload_interval"`
	} `yaml:"auth"`
}

// Render backends.
const (
	BackendWkhtmltopdf = "wkhtmltopdf"
	BackendChrome      = "chrome"
)

// Default returns the configuration used when no file is present.
func Default() Config {
	var cfg Config
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = ":3000"
	cfg.Server.BodyLimitMB = 50
	cfg.Server.ServiceName = "PDFtk Service"

	cfg.Logger.Level = "info"
	cfg.Logger.MaxSizeMB = 50
	cfg.Logger.MaxBackups = 3
	cfg.Logger.MaxAgeDays = 14

	cfg.Tools.PdftkPath = "pdftk"
	cfg.Tools.WkhtmltopdfPath = "wkhtmltopdf"

	cfg.Pdftk.SuccessMarker = "Success"

	cfg.Render.Backend = BackendWkhtmltopdf
	cfg.Render.ChromeNoSandbox = true
	cfg.Render.TimeoutSecs = 30

	cfg.Cache.RedisHost = "127.0.0.1:6379"
	cfg.Cache.PDFDB = 1
	cfg.Cache.TTL = 10 * time.Minute

	cfg.RateLimiter.UserLimit = 60
	cfg.RateLimiter.Interval = time.Minute

	cfg.Auth.ReloadInterval = time.Minute
	return cfg
}

// Load reads the file named by CONFIG_PATH (default config.yaml).
func Load() Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "config.yaml"
	}
	return LoadFrom(path)
}

// LoadFrom reads the YAML file at path on top of Default, applies
// environment overrides and validates the result. A missing file yields
// the defaults; an unreadable or invalid one panics.
func LoadFrom(path string) Config {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			panic(fmt.Sprintf("failed to parse config %s: %v", path, err))
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		panic(fmt.Sprintf("failed to read config %s: %v", path, err))
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("invalid config: %v", err))
	}
	return cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = ":" + strings.TrimPrefix(v, ":")
	}
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Server.Development = strings.EqualFold(v, "development")
	} else if v := os.Getenv("NODE_ENV"); v != "" {
		cfg.Server.Development = strings.EqualFold(v, "development")
	}
	if v := os.Getenv("PDFTK_BIN"); v != "" {
		cfg.Tools.PdftkPath = v
	}
	if v := os.Getenv("WKHTMLTOPDF_BIN"); v != "" {
		cfg.Tools.WkhtmltopdfPath = v
	}
	// Allow common container env var to override chrome_path.
	if cfg.Render.ChromePath == "" {
		if v := os.Getenv("CHROME_BIN"); v != "" {
			cfg.Render.ChromePath = v
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.RedisHost = v
	}
	if v := os.Getenv("AUTH_POSTGRES_DSN"); v != "" {
		cfg.Auth.PostgresDSN = v
	}
}

// Validate reports the first impossible value.
func (c Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("server.port is empty")
	}
	if c.Server.BodyLimitMB <= 0 {
		return errors.New("server.body_limit_mb must be positive")
	}
	if c.Tools.PdftkPath == "" {
		return errors.New("tools.pdftk_path is empty")
	}
	if c.Tools.Timeout < 0 {
		return errors.New("tools.timeout must not be negative")
	}
	switch c.Render.Backend {
	case BackendWkhtmltopdf:
		if c.Tools.WkhtmltopdfPath == "" {
			return errors.New("tools.wkhtmltopdf_path is empty")
		}
	case BackendChrome:
		if c.Render.TimeoutSecs <= 0 {
			return errors.New("render.timeout_secs must be positive for the chrome backend")
		}
	default:
		return fmt.Errorf("render.backend %q is not supported", c.Render.Backend)
	}
	if c.Cache.Enabled && c.Cache.RedisHost == "" {
		return errors.New("cache.redis_host is required when the cache is enabled")
	}
	if c.RateLimiter.Enabled {
		if c.RateLimiter.UserLimit <= 0 {
			return errors.New("rate_limiter.user_limit must be positive")
		}
		if c.RateLimiter.Interval <= 0 {
			return errors.New("rate_limiter.interval must be positive")
		}
	}
	if c.Auth.Enabled {
		if c.Auth.PostgresDSN == "" {
			return errors.New("auth.postgres_dsn is required when auth is enabled")
		}
		if c.Auth.ReloadInterval <= 0 {
			return errors.New("auth.reload_interval must be positive")
		}
	}
	return nil
}

// BodyLimit returns the request body ceiling in bytes.
func (c Config) BodyLimit() int {
	return c.Server.BodyLimitMB * 1024 * 1024
}

// Addr is the listen address.
func (c Config) Addr() string {
	return c.Server.Host + c.Server.Port
}
