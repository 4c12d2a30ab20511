// Package config reads portal settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every setting the portal reads at startup.
type Config struct {
	BackendBaseURL       string
	CookieName           string
	LoginPath            string
	VerifyTimeout        time.Duration
	BackendTimeout       time.Duration
	RetryUnavailable     bool
	JWTSecret            string
	ListenAddr           string
	GRPCListenAddr       string
	CORSOrigins          []string
	RateLimitRPS         float64
	RateLimitBurst       int
	TrustForwardedPrefix bool
	TrustedProxies       []string
	LogLevel             string
	AppEnv               string
}

// Load reads the given .env files (".env" when none are named) into the
// process environment and builds a Config from it. Missing files are
// ignored; variables already set in the environment win.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, applying defaults for unset keys.
func FromEnv(getenv func(string) string) (*Config, error) {
	e := &env{getenv: getenv}

	cfg := &Config{
		BackendBaseURL:       e.str("BACKEND_BASE_URL", "http://localhost:8080"),
		CookieName:           e.str("SESSION_COOKIE_NAME", "access_token"),
		LoginPath:            e.str("LOGIN_PATH", "/login"),
		VerifyTimeout:        e.duration("VERIFY_TIMEOUT", 5*time.Second),
		BackendTimeout:       e.duration("BACKEND_TIMEOUT", 10*time.Second),
		RetryUnavailable:     e.boolean("VERIFY_RETRY_UNAVAILABLE", false),
		JWTSecret:            e.str("JWT_SECRET", ""),
		ListenAddr:           e.str("LISTEN_ADDR", ":3000"),
		GRPCListenAddr:       e.str("GRPC_LISTEN_ADDR", ""),
		CORSOrigins:          e.list("CORS_ORIGINS"),
		RateLimitRPS:         e.float("RATE_LIMIT_RPS", 5),
		RateLimitBurst:       e.integer("RATE_LIMIT_BURST", 10),
		TrustForwardedPrefix: e.boolean("TRUST_FORWARDED_PREFIX", false),
		TrustedProxies:       e.list("TRUSTED_PROXIES"),
		LogLevel:             e.str("LOG_LEVEL", ""),
		AppEnv:               e.str("APP_ENV", "development"),
	}

	if e.err != nil {
		return nil, e.err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.BackendBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("BACKEND_BASE_URL must be an absolute http(s) URL, got %q", c.BackendBaseURL)
	}
	if !strings.HasPrefix(c.LoginPath, "/") {
		return fmt.Errorf("LOGIN_PATH must start with /, got %q", c.LoginPath)
	}
	if c.VerifyTimeout <= 0 || c.BackendTimeout <= 0 {
		return errors.New("VERIFY_TIMEOUT and BACKEND_TIMEOUT must be positive")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// env collects the first parse error so FromEnv can read every key in one
// pass.
type env struct {
	getenv func(string) string
	err    error
}

func (e *env) str(key, fallback string) string {
	if v := strings.TrimSpace(e.getenv(key)); v != "" {
		return v
	}
	return fallback
}

func (e *env) list(key string) []string {
	var out []string
	for _, part := range strings.Split(e.getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (e *env) duration(key string, fallback time.Duration) time.Duration {
	v := e.str(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(key, v, err)
		return fallback
	}
	return d
}

func (e *env) boolean(key string, fallback bool) bool {
	v := e.str(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(key, v, err)
		return fallback
	}
	return b
}

func (e *env) integer(key string, fallback int) int {
	v := e.str(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(key, v, err)
		return fallback
	}
	return n
}

func (e *env) float(key string, fallback float64) float64 {
	v := e.str(key, "")
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		e.fail(key, v, err)
		return fallback
	}
	return f
}

func (e *env) fail(key, value string, err error) {
	if e.err == nil {
		e.err = fmt.Errorf("invalid %s=%q: %w", key, value, err)
	}
}
