package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	Environment     string
	CORSOrigins     string
	SeedPath        string
	CurrentUserID   string
	TypingTick      time.Duration
	TypingThreshold float64
	TypingDuration  time.Duration
	MutationLimit   int64 // mutating requests allowed per client per minute
}

func Load() *Config {
	// Values already present in the environment win over the env file.
	if path := os.Getenv("HUDDLE_ENV_FILE"); path != "" {
		_ = godotenv.Load(path)
	} else {
		_ = godotenv.Load()
	}

	return &Config{
		Port:            getEnv("PORT", "8080"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		CORSOrigins:     getEnv("CORS_ORIGINS", "*"),
		SeedPath:        getEnv("SEED_PATH", ""),
		CurrentUserID:   getEnv("CURRENT_USER_ID", ""),
		TypingTick:      parseDuration(getEnv("TYPING_TICK", "5s"), 5*time.Second),
		TypingThreshold: parseFloat(getEnv("TYPING_THRESHOLD", "0.7"), 0.7),
		TypingDuration:  parseDuration(getEnv("TYPING_DURATION", "3s"), 3*time.Second),
		MutationLimit:   parseInt64(getEnv("MUTATION_RATE_LIMIT", "120"), 120),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, defaultValue time.Duration) time.Duration {
	val, err := time.ParseDuration(s)
	if err != nil || val <= 0 {
		return defaultValue
	}
	return val
}

func parseFloat(s string, defaultValue float64) float64 {
	val, err := strconv.ParseFloat(s, 64)
	if err != nil || val < 0 || val >= 1 {
		return defaultValue
	}
	return val
}

func parseInt64(s string, defaultValue int64) int64 {
	val, err := strconv.ParseInt(s, 10, 64)
	if err != nil || val <= 0 {
		return defaultValue
	}
	return val
}
