package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	BackendURL     string
	RedisURL       string
	LogLevel       string
	Environment    string
	CredentialFile string
	RequestTimeout time.Duration

	// Stub server only.
	Port             string
	AccessTokenTTL   time.Duration
	AccessSecret     string
	CORSOrigins      string
}

func Load() *Config {
	// .env is optional; real env always wins.
	_ = godotenv.Load()

	return &Config{
		BackendURL:     getEnv("JILLE_BACKEND_URL", "http://localhost:9000"),
		RedisURL:       getEnv("JILLE_REDIS_URL", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		CredentialFile: getEnv("JILLE_CREDENTIAL_FILE", defaultCredentialFile()),
		RequestTimeout: getDuration("JILLE_REQUEST_TIMEOUT", 15*time.Second),

		Port:           getEnv("PORT", "9000"),
		AccessTokenTTL: getDuration("JILLE_ACCESS_TOKEN_TTL", 15*time.Minute),
		AccessSecret:   getEnv("JILLE_ACCESS_TOKEN_SECRET", "dev-secret-do-not-use"),
		CORSOrigins:    getEnv("CORS_ORIGINS", "*"),
	}
}

func defaultCredentialFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "jille", "session.json")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
