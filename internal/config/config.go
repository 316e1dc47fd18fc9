package config

import (
	"context"
	"errors"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Env  string
	Port int

	DBURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Signing secret for session tokens. Required outside dev.
	JWTSecret string

	GoogleClientID     string
	GoogleClientSecret string

	// Origin allowed to call with credentials (the PWA frontend).
	FrontendURL string

	AdminEmail    string
	AdminPassword string
	AdminName     string

	OTLPEndpoint string

	LoginRateLimit  int
	LoginRateWindow time.Duration
}

var ErrMissingJWTSecret = errors.New("JWT_SECRET is required outside dev")

func Load() (Config, error) {
	cfg := Config{
		Env:                getEnv("APP_ENV", "dev"),
		Port:               getEnvInt("PORT", 8080),
		DBURL:              buildDBURL(),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:5173"),
		AdminEmail:         getEnv("ADMIN_EMAIL", ""),
		AdminPassword:      getEnv("ADMIN_PASSWORD", ""),
		AdminName:          getEnv("ADMIN_NAME", "Admin"),
		OTLPEndpoint:       getEnv("OTLP_ENDPOINT", ""),
		LoginRateLimit:     getEnvInt("LOGIN_RATE_LIMIT", 5),
		LoginRateWindow:    time.Duration(getEnvInt("LOGIN_RATE_WINDOW_SECONDS", 60)) * time.Second,
	}

	if cfg.JWTSecret == "" {
		if cfg.Env != "dev" && cfg.Env != "test" {
			return Config{}, ErrMissingJWTSecret
		}

		cfg.JWTSecret = "dev-secret-do-not-use"
	}

	return cfg, nil
}

func buildDBURL() string {
	if url := getEnv("DB_URL", ""); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "stashhub")
	pass := getEnv("DB_PASSWORD", "stashhub")
	name := getEnv("DB_NAME", "stashhub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			return fallback
		}

		return num
	}
	return fallback
}
