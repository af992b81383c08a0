package config

import (
	"os"
	"strconv"
	"strings"
)

// Defaults and limits for the due-scan worker.
const (
	DefaultScanIntervalSeconds = 15
	MinScanIntervalSeconds     = 5
	DefaultScanBatchSize       = 50
	MaxScanBatchSize           = 1000
)

type Config struct {
	HTTPPort            string
	GinMode             string
	DatabaseDSN         string
	RabbitMQHost        string
	RabbitMQUsername    string
	RabbitMQPassword    string
	ScanIntervalSeconds int
	ScanBatchSize       int
	CorsAllowedOrigins  []string
}

func Load() *Config {
	return &Config{
		HTTPPort:            getEnv("HTTP_PORT", "8080"),
		GinMode:             getEnv("GIN_MODE", "debug"),
		DatabaseDSN:         os.Getenv("DATABASE_DSN"),
		RabbitMQHost:        getEnv("RABBITMQ_HOST", "localhost"),
		RabbitMQUsername:    getEnv("RABBITMQ_USERNAME", "guest"),
		RabbitMQPassword:    getEnv("RABBITMQ_PASSWORD", "guest"),
		ScanIntervalSeconds: getIntEnv("DUE_SCAN_INTERVAL_SECONDS", DefaultScanIntervalSeconds),
		ScanBatchSize:       getIntEnv("DUE_SCAN_BATCH_SIZE", DefaultScanBatchSize),
		CorsAllowedOrigins:  getSliceEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getSliceEnv(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
