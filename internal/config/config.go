// Package config reads server settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Defaults
const (
	DefaultPort              = 8080
	DefaultVersion           = "1.0.0"
	DefaultReconcileSchedule = "0 4 * * *"
	DefaultSnapshotSchedule  = "0 * * * *"
	DefaultSnapshotPrefix    = "leaderboard"
	DefaultCacheTTL          = 30 * time.Second
)

// Config holds every environment-driven setting
type Config struct {
	Host     string
	Port     int
	LogLevel slog.Level
	Version  string

	StorageType string
	DatabaseURL string
	DBMaxConns  int32

	RedisURL string
	CacheTTL time.Duration

	NATSURL     string
	NATSToken   string
	NATSSubject string

	// RateLimit is requests per minute per client IP on write endpoints; 0 disables
	RateLimit int

	ReconcileSchedule string
	SnapshotSchedule  string

	S3 S3
}

// S3 describes the snapshot bucket
type S3 struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

// Enabled reports whether snapshot export has a bucket to write to
func (s S3) Enabled() bool {
	return s.Bucket != ""
}

// Addr returns the listen address
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadDotEnv loads a .env file into the process environment when present
func LoadDotEnv(logger *slog.Logger, paths ...string) {
	if err := godotenv.Load(paths...); err != nil {
		logger.Debug("no .env file loaded, using environment variables", slog.String("error", err.Error()))
	}
}

// Load reads the configuration from the process environment
func Load() (Config, error) {
	return FromLookup(os.Getenv)
}

// FromLookup reads the configuration through getenv
func FromLookup(getenv func(string) string) (Config, error) {
	env := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		Host:              env("HOST", ""),
		Version:           env("API_VERSION", DefaultVersion),
		StorageType:       env("STORAGE_TYPE", "memory"),
		DatabaseURL:       env("DATABASE_URL", ""),
		RedisURL:          env("REDIS_URL", ""),
		NATSURL:           env("NATS_URL", ""),
		NATSToken:         env("NATS_TOKEN", ""),
		NATSSubject:       env("NATS_SUBJECT", ""),
		ReconcileSchedule: env("RECONCILE_SCHEDULE", DefaultReconcileSchedule),
		S3: S3{
			Endpoint:        env("S3_ENDPOINT", ""),
			Region:          env("S3_REGION", "auto"),
			Bucket:          env("S3_BUCKET", ""),
			AccessKeyID:     env("S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: env("S3_SECRET_ACCESS_KEY", ""),
			Prefix:          env("S3_PREFIX", DefaultSnapshotPrefix),
		},
	}

	// "off" disables the reconcile job
	if strings.EqualFold(cfg.ReconcileSchedule, "off") {
		cfg.ReconcileSchedule = ""
	}
	if cfg.S3.Enabled() {
		cfg.SnapshotSchedule = env("SNAPSHOT_SCHEDULE", DefaultSnapshotSchedule)
	}

	var err error
	if cfg.Port, err = intEnv(getenv, "PORT", DefaultPort); err != nil {
		return Config{}, err
	}
	if cfg.RateLimit, err = intEnv(getenv, "RATE_LIMIT", 0); err != nil {
		return Config{}, err
	}
	maxConns, err := intEnv(getenv, "DB_MAX_CONNS", 10)
	if err != nil {
		return Config{}, err
	}
	cfg.DBMaxConns = int32(maxConns)

	cfg.CacheTTL = DefaultCacheTTL
	if raw := env("CACHE_TTL", ""); raw != "" {
		if cfg.CacheTTL, err = time.ParseDuration(raw); err != nil {
			return Config{}, fmt.Errorf("invalid CACHE_TTL %q: %w", raw, err)
		}
	}

	if cfg.LogLevel, err = parseLevel(env("LOG_LEVEL", "info")); err != nil {
		return Config{}, err
	}

	return cfg, cfg.validate()
}

func (c Config) validate() error {
	switch c.StorageType {
	case "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL required when STORAGE_TYPE=postgres")
		}
	default:
		return fmt.Errorf("invalid STORAGE_TYPE %q: must be 'memory' or 'postgres'", c.StorageType)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("invalid RATE_LIMIT %d", c.RateLimit)
	}
	return nil
}

func intEnv(getenv func(string) string, key string, def int) (int, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}

func parseLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return 0, fmt.Errorf("invalid LOG_LEVEL %q", raw)
	}
	return level, nil
}
