package config

import (
	"os"
	"strconv"
	"strings"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds runtime configuration loaded from environment variables.
type Config struct {
	StorageDriver string
	DatabaseURL   string
	SeedFile      string

	JWTSecret   string
	JWTIssuer   string
	Port        string
	CorsOrigins []string

	SweepIntervalMinutes int
	TimeZone             string
	Locale               string

	LineAPIBaseURL       string
	LiffBaseURL          string
	NotifyTimeoutSeconds int

	Redis              RedisConfig
	TenantCacheSeconds int

	MQTT MQTTConfig

	LogLevel         string
	LogFormat        string
	LogDir           string
	LogRetentionDays int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MQTTConfig configures the optional gateway subscriber. An empty Broker disables it.
type MQTTConfig struct {
	Broker   string
	ClientID string
	Username string
	Password string
	Topic    string
	QoS      byte
}

func Load() Config {
	cfg := Config{
		StorageDriver:        strings.ToLower(envOr("STORAGE_DRIVER", StoragePostgres)),
		SeedFile:             envOr("SEED_FILE", ""),
		JWTSecret:            mustEnv("JWT_SECRET"),
		JWTIssuer:            envOr("JWT_ISSUER", "beacon-guardian"),
		Port:                 envOr("PORT", "8080"),
		CorsOrigins:          parseCSV(envOr("CORS_ORIGINS", "")),
		SweepIntervalMinutes: envOrInt("SWEEP_INTERVAL_MINUTES", 60),
		TimeZone:             envOr("TIMEZONE", "Asia/Taipei"),
		Locale:               envOr("LOCALE", "zh-TW"),
		LineAPIBaseURL:       envOr("LINE_API_BASE_URL", "https://api.line.me"),
		LiffBaseURL:          envOr("LIFF_BASE_URL", "https://liff.line.me"),
		NotifyTimeoutSeconds: envOrInt("NOTIFY_TIMEOUT_SECONDS", 10),
		Redis: RedisConfig{
			Addr:     envOr("REDIS_ADDR", ""),
			Password: envOr("REDIS_PASSWORD", ""),
			DB:       envOrInt("REDIS_DB", 0),
		},
		TenantCacheSeconds: envOrInt("TENANT_CACHE_SECONDS", 60),
		MQTT: MQTTConfig{
			Broker:   envOr("MQTT_BROKER", ""),
			ClientID: envOr("MQTT_CLIENT_ID", "beacon-guardian"),
			Username: envOr("MQTT_USERNAME", ""),
			Password: envOr("MQTT_PASSWORD", ""),
			Topic:    envOr("MQTT_TOPIC", "gateways/+/signals"),
			QoS:      byte(clamp(envOrInt("MQTT_QOS", 1), 0, 2)),
		},
		LogLevel:         envOr("LOG_LEVEL", "info"),
		LogFormat:        envOr("LOG_FORMAT", "json"),
		LogDir:           envOr("LOG_DIR", "storage/logs"),
		LogRetentionDays: clamp(envOrInt("LOG_RETENTION_DAYS", 7), 1, 7),
	}
	if cfg.StorageDriver == StoragePostgres {
		cfg.DatabaseURL = mustEnv("DATABASE_URL")
	}
	if cfg.SweepIntervalMinutes <= 0 {
		cfg.SweepIntervalMinutes = 60
	}
	return cfg
}

func mustEnv(key string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		panic("missing env var: " + key)
	}
	return value
}

func envOr(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envOrInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func clamp(value, lo, hi int) int {
	if value < lo {
		return lo
	}
	if value > hi {
		return hi
	}
	return value
}

func parseCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		value := strings.TrimSpace(part)
		if value != "" {
			items = append(items, value)
		}
	}
	return items
}
