// Package config loads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"

	HasherBcrypt   = "bcrypt"
	HasherArgon2id = "argon2id"
)

// Config holds every runtime setting of the service
type Config struct {
	Environment string
	HTTPAddr    string
	LogLevel    string
	LogFormat   string

	RedisURL         string
	ChallengeBackend string
	UserBackend      string
	DatabaseURL      string

	SigningKeyFile string
	ChallengeTTL   time.Duration
	AccessTTL      time.Duration
	RefreshTTL     time.Duration

	PasswordHasher string
	BcryptCost     int

	EventsEnabled bool
	EventsPrefix  string
}

// Load reads an optional .env file and then the process environment
func Load() (*Config, error) {
	_ = godotenv.Load() // .env is optional
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv and validates it
func FromEnv(getenv func(string) string) (*Config, error) {
	r := reader{getenv: getenv}

	cfg := &Config{
		Environment:      r.str("ENVIRONMENT", "development"),
		HTTPAddr:         r.str("HTTP_ADDR", ":9000"),
		LogLevel:         r.str("LOG_LEVEL", "info"),
		LogFormat:        r.str("LOG_FORMAT", ""),
		RedisURL:         r.str("REDIS_URL", ""),
		ChallengeBackend: strings.ToLower(r.str("CHALLENGE_BACKEND", BackendMemory)),
		UserBackend:      strings.ToLower(r.str("USER_BACKEND", BackendMemory)),
		DatabaseURL:      r.str("DATABASE_URL", ""),
		SigningKeyFile:   r.str("SIGNING_KEY_FILE", ""),
		ChallengeTTL:     r.duration("CHALLENGE_TTL", 5*time.Minute),
		AccessTTL:        r.duration("ACCESS_TTL", 5*time.Minute),
		RefreshTTL:       r.duration("REFRESH_TTL", 5*24*time.Hour),
		PasswordHasher:   strings.ToLower(r.str("PASSWORD_HASHER", HasherBcrypt)),
		BcryptCost:       r.integer("BCRYPT_COST", 12),
		EventsEnabled:    r.boolean("EVENTS_ENABLED", false),
		EventsPrefix:     r.str("EVENTS_PREFIX", ""),
	}

	if err := errors.Join(append(r.errs, cfg.validate())...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error

	switch c.ChallengeBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required when CHALLENGE_BACKEND=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("CHALLENGE_BACKEND must be %q or %q, got %q", BackendMemory, BackendRedis, c.ChallengeBackend))
	}

	switch c.UserBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when USER_BACKEND=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("USER_BACKEND must be %q or %q, got %q", BackendMemory, BackendPostgres, c.UserBackend))
	}

	switch c.PasswordHasher {
	case HasherBcrypt, HasherArgon2id:
	default:
		errs = append(errs, fmt.Errorf("PASSWORD_HASHER must be %q or %q, got %q", HasherBcrypt, HasherArgon2id, c.PasswordHasher))
	}

	if c.EventsEnabled && c.RedisURL == "" {
		errs = append(errs, errors.New("REDIS_URL is required when EVENTS_ENABLED=true"))
	}

	for name, ttl := range map[string]time.Duration{
		"CHALLENGE_TTL": c.ChallengeTTL,
		"ACCESS_TTL":    c.AccessTTL,
		"REFRESH_TTL":   c.RefreshTTL,
	} {
		if ttl <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}

	return errors.Join(errs...)
}

type reader struct {
	getenv func(string) string
	errs   []error
}

func (r *reader) str(key, def string) string {
	if v := strings.TrimSpace(r.getenv(key)); v != "" {
		return v
	}
	return def
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func (r *reader) integer(key string, def int) int {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func (r *reader) boolean(key string, def bool) bool {
	v := r.str(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}
