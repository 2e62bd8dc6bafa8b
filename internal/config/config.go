// Package config loads recomlite's runtime configuration from the
// environment, the same way the teacher gateway does: a best-effort
// .env load followed by typed os.Getenv helpers.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds every knob the server and CLI entry points need.
type Config struct {
	// Server
	Addr            string
	MetricsAddr     string
	Env             string
	GracefulTimeout time.Duration

	// Store
	RedisURL string

	// Interner
	InternerPrefix string
	StrictIntern   bool // use redislock to close the idOf race (spec §5)

	// TCR engine
	TCRPrefix           string
	NeighborCap         int
	InLoopCap           int
	AlreadyBoughtWeight float64

	// Rerankers
	EpsilonDefault      float64
	ImpressionW1        float64
	ImpressionW2        float64
	ImpressionExponent  float64
	LastSeenExponent    float64

	// HTTP
	APIKeyHeader     string
	RateLimitEnabled bool
	RateLimitRPM     int
	RateLimitBurst   int
	MaxBodyBytes     int64

	LogLevel string
}

// Load reads configuration from the environment. It never fails —
// constructors validate the slice of config they actually need and
// return recomerr.ErrInvalidConfig when a required field is missing.
func Load() *Config {
	loadDotEnv()

	gracefulSec := getEnvInt("RECOMLITE_GRACEFUL_TIMEOUT_SEC", 15)

	return &Config{
		Addr:            getEnv("RECOMLITE_ADDR", ":8080"),
		MetricsAddr:     getEnv("RECOMLITE_METRICS_ADDR", ":9090"),
		Env:             getEnv("ENV", "development"),
		GracefulTimeout: time.Duration(gracefulSec) * time.Second,

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379"),

		InternerPrefix: getEnv("RECOMLITE_INTERNER_PREFIX", "P"),
		StrictIntern:   getEnvBool("RECOMLITE_STRICT_INTERN", false),

		TCRPrefix:           getEnv("RECOMLITE_TCR_PREFIX", "Q"),
		NeighborCap:         getEnvInt("RECOMLITE_NEIGHBOR_CAP", 100),
		InLoopCap:           getEnvInt("RECOMLITE_IN_LOOP_CAP", 10),
		AlreadyBoughtWeight: getEnvFloat("RECOMLITE_ALREADY_BOUGHT_WEIGHT", 5.0),

		EpsilonDefault:     getEnvFloat("RECOMLITE_EPSILON", 1.25),
		ImpressionW1:       getEnvFloat("RECOMLITE_IMPRESSION_W1", 0.5),
		ImpressionW2:       getEnvFloat("RECOMLITE_IMPRESSION_W2", 0.5),
		ImpressionExponent: getEnvFloat("RECOMLITE_IMPRESSION_EXPONENT", 0.5),
		LastSeenExponent:   getEnvFloat("RECOMLITE_LAST_SEEN_EXPONENT", 0.5),

		APIKeyHeader:     getEnv("API_KEY_HEADER", "Authorization"),
		RateLimitEnabled: getEnvBool("RATE_LIMIT_ENABLED", true),
		RateLimitRPM:     getEnvInt("RATE_LIMIT_RPM", 600),
		RateLimitBurst:   getEnvInt("RATE_LIMIT_BURST", 50),
		MaxBodyBytes:     int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
