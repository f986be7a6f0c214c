package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load builds the configuration from, in increasing precedence: defaults,
// the YAML file at path (defaults to config.yaml, may be absent), a local
// .env file and the process environment.
func Load(path string) (App, error) {
	cfg := defaults()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	if path == "" {
		path = getenv("CONFIG_FILE", ConfigPath)
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = StoreMemory
		if cfg.DatabaseURL != "" {
			cfg.StoreBackend = StorePostgres
		}
	}
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *App) error {
	setString(&cfg.Port, "PORT")
	setString(&cfg.Port, "APP_PORT")
	setString(&cfg.Env, "APP_ENV")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.StoreBackend, "STORE_BACKEND")
	setString(&cfg.LockBackend, "LOCK_BACKEND")
	setString(&cfg.RedisAddr, "REDIS_ADDR")
	setString(&cfg.RedisPassword, "REDIS_PASSWORD")
	setString(&cfg.RentalMode, "RENTAL_MODE")
	setString(&cfg.JWTSecret, "JWT_SECRET")

	if v := os.Getenv("DB_MIGRATE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: DB_MIGRATE: %w", err)
		}
		cfg.Migrate = b
	}
	for _, d := range []struct {
		key string
		dst *time.Duration
	}{{"LOCK_TTL", &cfg.LockTTL}, {"LOCK_TIMEOUT", &cfg.LockTimeout}} {
		if v := os.Getenv(d.key); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("config: %s: %w", d.key, err)
			}
			*d.dst = parsed
		}
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config: RATE_LIMIT_RPS: %w", err)
		}
		cfg.RateLimitRPS = f
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: RATE_LIMIT_BURST: %w", err)
		}
		cfg.RateLimitBurst = n
	}
	return nil
}

func validate(cfg App) error {
	if strings.TrimSpace(cfg.Port) == "" {
		return errors.New("config: port is required")
	}
	switch cfg.StoreBackend {
	case StoreMemory:
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			return errors.New("config: databaseURL is required for the postgres store (set DATABASE_URL)")
		}
	default:
		return fmt.Errorf("config: unknown store backend %q", cfg.StoreBackend)
	}
	switch cfg.LockBackend {
	case LockNone, LockMemory:
	case LockRedis:
		if cfg.RedisAddr == "" {
			return errors.New("config: redisAddr is required for the redis locker (set REDIS_ADDR)")
		}
	default:
		return fmt.Errorf("config: unknown lock backend %q", cfg.LockBackend)
	}
	if cfg.LockTTL <= 0 || cfg.LockTimeout <= 0 {
		return errors.New("config: lockTTL and lockTimeout must be positive")
	}
	if cfg.RentalMode != "atomic" && cfg.RentalMode != "sequential" {
		return fmt.Errorf("config: unknown rental mode %q", cfg.RentalMode)
	}
	if cfg.RateLimitRPS < 0 || cfg.RateLimitBurst < 0 {
		return errors.New("config: rate limit values must not be negative")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
