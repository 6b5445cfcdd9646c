package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every setting the storefront reads from the environment.
// Variables are prefixed with STOREFRONT_, e.g. STOREFRONT_BACKEND_URL.
type Config struct {
	Addr string `envconfig:"ADDR" default:":8080"`

	BackendURL          string        `envconfig:"BACKEND_URL" required:"true"`
	SecurityTokenPath   string        `envconfig:"SECURITY_TOKEN_PATH" default:"/sanctum/csrf-cookie"`
	SecurityTokenCookie string        `envconfig:"SECURITY_TOKEN_COOKIE" default:"XSRF-TOKEN"`
	SecurityTokenHeader string        `envconfig:"SECURITY_TOKEN_HEADER" default:"X-XSRF-TOKEN"`
	Locale              string        `envconfig:"LOCALE" default:"en"`
	Currency            string        `envconfig:"CURRENCY" default:"USD"`
	RequestTimeout      time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`
	SessionIdleTimeout  time.Duration `envconfig:"SESSION_IDLE_TIMEOUT" default:"2h"`
	ScopedTokenTTL      time.Duration `envconfig:"SCOPED_TOKEN_TTL" default:"720h"`
	CatalogCacheTTL     time.Duration `envconfig:"CATALOG_CACHE_TTL" default:"5m"`

	JWTSecret    string `envconfig:"JWT_SECRET" required:"true"`
	CookieSecure bool   `envconfig:"COOKIE_SECURE" default:"false"`

	RedisURL    string `envconfig:"REDIS_URL"`
	DatabaseURL string `envconfig:"DATABASE_URL"`

	LogLevel     string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"LOG_FORMAT" default:"json"`
	AllowOrigins string `envconfig:"ALLOW_ORIGINS" default:"*"`
}

const envPrefix = "STOREFRONT"

// Load reads envFile when it exists and then the process environment.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		_ = godotenv.Load(envFile)
	}

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	u, err := url.Parse(c.BackendURL)
	if err != nil {
		return fmt.Errorf("invalid BACKEND_URL: %w", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("invalid BACKEND_URL %q: must be absolute", c.BackendURL)
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be positive")
	}
	if c.SessionIdleTimeout <= 0 {
		return errors.New("SESSION_IDLE_TIMEOUT must be positive")
	}
	if c.ScopedTokenTTL <= 0 {
		return errors.New("SCOPED_TOKEN_TTL must be positive")
	}
	return nil
}
