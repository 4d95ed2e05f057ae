package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

type Config struct {
	Addr           string
	LogDir         string
	RequestTimeout time.Duration
	// WSOrigins are extra browser origins (host patterns) allowed on /ws.
	WSOrigins []string

	DBDriver   Driver
	DBPath     string
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	LLMProvider Provider
	LLMBaseURL  string
	PersonaFile string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOSecure    bool
}

// LoadConfig reads .env (when present) and the process environment.
func LoadConfig() Config {
	// a missing .env is normal; real env vars still apply
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds the config from the environment only.
func FromEnv() Config {
	return Config{
		Addr:           getEnv("CARE_ADDR", ":8000"),
		LogDir:         getEnv("CARE_LOG_DIR", "./logs"),
		RequestTimeout: getDuration("CARE_REQUEST_TIMEOUT", 120*time.Second),
		WSOrigins:      getList("CARE_WS_ORIGINS"),

		DBDriver:   Driver(strings.ToLower(getEnv("DB_DRIVER", string(DriverSQLite)))),
		DBPath:     getEnv("DB_PATH", "./data/careassist.db"),
		DBUser:     getEnv("DB_USER", ""),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBName:     getEnv("DB_NAME", "careassist"),

		LLMProvider: Provider(strings.ToLower(getEnv("LLM_PROVIDER", string(ProviderGemini)))),
		LLMBaseURL:  getEnv("LLM_BASE_URL", ""),
		PersonaFile: getEnv("PERSONA_FILE", ""),

		MinIOEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinIOBucket:    getEnv("MINIO_BUCKET", "careassist-exports"),
		MinIOSecure:    getBool("MINIO_SECURE", false),
	}
}

// ArchiveEnabled reports whether exports should also go to MinIO.
func (c Config) ArchiveEnabled() bool {
	return c.MinIOEndpoint != ""
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return fallback
}

// getList splits a comma-separated variable, dropping blanks.
func getList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
