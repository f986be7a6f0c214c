package config

import "time"

const ConfigPath = "config.yaml"

const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	LockNone   = "none"
	LockMemory = "memory"
	LockRedis  = "redis"
)

// App is the whole runtime configuration. Field tags name the YAML keys;
// environment variables listed in Load take precedence over the file.
type App struct {
	Port        string `yaml:"port"`
	Env         string `yaml:"env"`
	LogLevel    string `yaml:"logLevel"`
	DatabaseURL string `yaml:"databaseURL"`
	// StoreBackend is postgres or memory. Empty picks postgres when a
	// database URL is configured.
	StoreBackend string `yaml:"storeBackend"`
	Migrate      bool   `yaml:"migrate"`

	LockBackend   string        `yaml:"lockBackend"`
	RedisAddr     string        `yaml:"redisAddr"`
	RedisPassword string        `yaml:"redisPassword"`
	LockTTL       time.Duration `yaml:"lockTTL"`
	LockTimeout   time.Duration `yaml:"lockTimeout"`

	RentalMode string `yaml:"rentalMode"`

	// JWTSecret enables bearer auth on mutating routes when set.
	JWTSecret      string  `yaml:"jwtSecret"`
	RateLimitRPS   float64 `yaml:"rateLimitRPS"`
	RateLimitBurst int     `yaml:"rateLimitBurst"`
}

func defaults() App {
	return App{
		Port:        "8080",
		Env:         "dev",
		LogLevel:    "info",
		Migrate:     true,
		LockBackend: LockNone,
		LockTTL:     30 * time.Second,
		LockTimeout: 5 * time.Second,
		RentalMode:  "atomic",
	}
}
