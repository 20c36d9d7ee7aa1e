package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	AppEnv string
	Port   int

	// StoreDriver is "postgres" or "memory"
	StoreDriver string

	// Postgres (pgxpool DSN)
	DBDSN        string
	DBMaxConns   int32
	DBMinConns   int32
	DBRetries    int
	StoreTimeout time.Duration

	// Redis (rate limiting)
	RedisAddr string
	RedisPass string
	RedisDB   int

	// Rate limit on registration submissions
	RLEnabled bool
	RLLimit   int
	RLWindow  time.Duration

	// RabbitMQ; empty URL disables publishing
	RabbitURL      string
	RabbitExchange string

	// Logging
	LogLevel  string
	LogFormat string

	// Appointment visibility
	VisibilityFilter bool
	VisibilityOffset int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var err error
	cfg := &Config{}
	cfg.AppEnv = getEnv("APP_ENV", "dev")
	cfg.Port = getInt("PORT", 8080)
	cfg.StoreDriver = strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres))

	// --- Postgres: prefer DATABASE_URL if present, else build from POSTGRES_*
	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL != "" {
		cfg.DBDSN = dbURL
	} else {
		addr := getEnv("POSTGRES_ADDR", "")
		user := getEnv("POSTGRES_USER", "")
		pass := getEnv("POSTGRES_PASSWORD", "")
		db := getEnv("POSTGRES_DB", "")
		sslmode := getEnv("POSTGRES_SSLMODE", "disable")
		cfg.DBDSN = buildPostgresURL(addr, user, pass, db, sslmode)
	}
	cfg.DBMaxConns = int32(getInt("DB_MAX_CONNS", 20))
	cfg.DBMinConns = int32(getInt("DB_MIN_CONNS", 2))
	cfg.DBRetries = getInt("DB_CONNECT_RETRIES", 5)
	cfg.StoreTimeout = getDuration("STORE_TIMEOUT", 5*time.Second)

	// --- Redis
	cfg.RedisAddr = getEnv("REDIS_ADDR", "127.0.0.1:6379")
	cfg.RedisPass = getEnv("REDIS_PASSWORD", "")
	cfg.RedisDB = getInt("REDIS_DB", 0)

	// --- Rate limit
	if cfg.RLEnabled, err = getBool("RL_ENABLED", false); err != nil {
		return nil, err
	}
	cfg.RLLimit = getInt("RL_REQUESTS_LIMIT", 20)
	cfg.RLWindow = time.Duration(getInt("RL_WINDOW_SECONDS", 60)) * time.Second

	// --- RabbitMQ
	cfg.RabbitURL = getEnv("RABBITMQ_URL", "")
	cfg.RabbitExchange = getEnv("RABBITMQ_EXCHANGE", "registration.events")

	// --- Logging
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogFormat = getEnv("LOG_FORMAT", "console")

	// --- Visibility of past appointments
	if cfg.VisibilityFilter, err = getBool("VISIBILITY_FILTER", false); err != nil {
		return nil, err
	}
	cfg.VisibilityOffset = getInt("VISIBILITY_OFFSET_WORKDAYS", -2)

	switch cfg.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	if cfg.StoreDriver == StoreDriverPostgres && cfg.DBDSN == "" {
		return nil, fmt.Errorf("missing database config: provide DATABASE_URL or POSTGRES_ADDR/POSTGRES_USER/POSTGRES_PASSWORD/POSTGRES_DB")
	}
	if cfg.RLEnabled && cfg.RLLimit <= 0 {
		return nil, fmt.Errorf("RL_REQUESTS_LIMIT must be positive when RL_ENABLED is set")
	}

	return cfg, nil
}

// buildPostgresURL builds a safe postgres URL DSN (handles special characters).
func buildPostgresURL(addr, user, pass, db, sslmode string) string {
	if strings.TrimSpace(addr) == "" || strings.TrimSpace(user) == "" || strings.TrimSpace(db) == "" {
		return ""
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   strings.TrimSpace(addr),
		Path:   "/" + strings.TrimPrefix(strings.TrimSpace(db), "/"),
	}
	if pass != "" {
		u.User = url.UserPassword(user, pass)
	} else {
		u.User = url.User(user)
	}

	q := url.Values{}
	if strings.TrimSpace(sslmode) != "" {
		q.Set("sslmode", strings.TrimSpace(sslmode))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getBool(k string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def, nil
	}
	switch strings.ToLower(v) {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return def, fmt.Errorf("invalid boolean env %s=%q", k, v)
	}
}

func getDuration(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
