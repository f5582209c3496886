package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env            string
	HTTPPort       string
	RequestTimeout time.Duration
	AutoMigrate    bool

	DatabaseURL     string
	DBMaxOpenConns  int
	DBMaxIdleConns  int
	DBConnMaxIdle   time.Duration
	DBConnMaxLife   time.Duration
	DBReadyDeadline time.Duration

	RedisURL       string
	CacheDriver    string
	CacheTTL       time.Duration
	CacheOpTimeout time.Duration

	JWTSecret      string
	AccessTokenTTL time.Duration

	UploadDir      string
	MaxUploadBytes int64

	ApplyRateLimit  int
	ApplyRateWindow time.Duration

	NotifyDriver string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	LogLevel  string
	LogFormat string
	LogFile   string
}

// Load reads an optional env file and then the process environment.
// A missing env file is not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		Env:             strings.ToLower(getEnv("APP_ENV", EnvProduction)),
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		RequestTimeout:  getDuration("REQUEST_TIMEOUT", 10*time.Second),
		AutoMigrate:     getBool("AUTO_MIGRATE", false),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		DBMaxOpenConns:  getInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns:  getInt("DB_MAX_IDLE_CONNS", 10),
		DBConnMaxIdle:   getDuration("DB_CONN_MAX_IDLE", 5*time.Minute),
		DBConnMaxLife:   getDuration("DB_CONN_MAX_LIFE", 30*time.Minute),
		DBReadyDeadline: getDuration("DB_READY_DEADLINE", 30*time.Second),
		RedisURL:        getEnv("REDIS_URL", ""),
		CacheDriver:     strings.ToLower(getEnv("CACHE_DRIVER", "")),
		CacheTTL:        getDuration("CACHE_TTL", 5*time.Minute),
		CacheOpTimeout:  getDuration("CACHE_OP_TIMEOUT", 250*time.Millisecond),
		JWTSecret:       getEnv("JWT_SECRET", ""),
		AccessTokenTTL:  getDuration("ACCESS_TOKEN_TTL", 24*time.Hour),
		UploadDir:       getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadBytes:  int64(getInt("MAX_UPLOAD_BYTES", 10<<20)),
		ApplyRateLimit:  getInt("APPLY_RATE_LIMIT", 3),
		ApplyRateWindow: getDuration("APPLY_RATE_WINDOW", time.Minute),
		NotifyDriver:    strings.ToLower(getEnv("NOTIFY_DRIVER", "")),
		SMTPHost:        getEnv("SMTP_HOST", ""),
		SMTPPort:        getInt("SMTP_PORT", 587),
		SMTPUsername:    getEnv("SMTP_USERNAME", ""),
		SMTPPassword:    getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:        getEnv("SMTP_FROM", "no-reply@jobportal.local"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "json"),
		LogFile:         getEnv("LOG_FILE", ""),
	}

	if cfg.CacheDriver == "" {
		if cfg.RedisURL != "" {
			cfg.CacheDriver = "redis"
		} else {
			cfg.CacheDriver = "memory"
		}
	}
	if cfg.NotifyDriver == "" {
		if cfg.RedisURL != "" {
			cfg.NotifyDriver = "asynq"
		} else {
			cfg.NotifyDriver = "log"
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

func (c *Config) validate() error {
	missing := make([]string, 0, 2)
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if (c.CacheDriver == "redis" || c.NotifyDriver == "asynq") && c.RedisURL == "" {
		missing = append(missing, "REDIS_URL")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}

	invalid := make([]string, 0, 4)
	switch c.CacheDriver {
	case "redis", "memory", "none":
	default:
		invalid = append(invalid, "CACHE_DRIVER")
	}
	switch c.NotifyDriver {
	case "asynq", "log":
	default:
		invalid = append(invalid, "NOTIFY_DRIVER")
	}
	if c.CacheTTL <= 0 {
		invalid = append(invalid, "CACHE_TTL")
	}
	if c.MaxUploadBytes <= 0 {
		invalid = append(invalid, "MAX_UPLOAD_BYTES")
	}
	if c.ApplyRateLimit < 0 {
		invalid = append(invalid, "APPLY_RATE_LIMIT")
	}
	if len(invalid) > 0 {
		return fmt.Errorf("invalid env values: %s", strings.Join(invalid, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := time.ParseDuration(strings.TrimSpace(value))
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.Atoi(strings.TrimSpace(value))
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	switch strings.ToLower(value) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
