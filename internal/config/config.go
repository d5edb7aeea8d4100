package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration
type Config struct {
	ServerPort          string
	RedisURL            string
	AdminAPIKey         string
	AdminRate           string
	DatabaseURL         string
	RabbitMQURL         string
	AllowedOrigins      []string
	GlobalMaxRequests   int
	GlobalWindowSeconds int
	ExcludePaths        []string
	GatesFile           string
	StoreTimeoutMillis  int
	IdentityResolver    string
	EnableHSTS          bool
	ServerDebugMode     bool
	OTELEnabled         bool
	OTELEndpoint        string
}

// Load loads configuration from environment variables. Rate limit values are
// validated here: a gate that cannot be built correctly must stop the
// process rather than silently disable throttling.
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:          getEnv("SERVER_PORT", "8080"),
		RedisURL:            getEnv("REDIS_URL", "redis://localhost:6379/0"),
		AdminAPIKey:         getEnv("ADMIN_API_KEY", ""),
		AdminRate:           getEnv("ADMIN_RATE", "30-M"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		RabbitMQURL:         getEnv("RABBITMQ_URL", ""),
		AllowedOrigins:      getEnvList("ALLOWED_ORIGINS", nil),
		GlobalMaxRequests:   getEnvInt("GLOBAL_MAX_REQUESTS", 100),
		GlobalWindowSeconds: getEnvInt("GLOBAL_WINDOW_SECONDS", 60),
		ExcludePaths:        getEnvList("RATE_LIMIT_EXCLUDE_PATHS", []string{"/healthz", "/metrics", "/admin"}),
		GatesFile:           getEnv("ENDPOINT_GATES_FILE", ""),
		StoreTimeoutMillis:  getEnvInt("STORE_TIMEOUT_MS", 50),
		IdentityResolver:    getEnv("IDENTITY_RESOLVER", "ip"),
		EnableHSTS:          getEnvBool("ENABLE_HSTS", false),
		ServerDebugMode:     getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:         getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:        getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	if cfg.AdminAPIKey == "" {
		return nil, fmt.Errorf("ADMIN_API_KEY is required (guards the rate limiter admin surface)")
	}
	if cfg.GlobalMaxRequests <= 0 {
		return nil, fmt.Errorf("GLOBAL_MAX_REQUESTS must be positive, got %d", cfg.GlobalMaxRequests)
	}
	if cfg.GlobalWindowSeconds <= 0 {
		return nil, fmt.Errorf("GLOBAL_WINDOW_SECONDS must be positive, got %d", cfg.GlobalWindowSeconds)
	}
	switch cfg.IdentityResolver {
	case "ip", "principal":
	default:
		return nil, fmt.Errorf("IDENTITY_RESOLVER must be \"ip\" or \"principal\", got %q", cfg.IdentityResolver)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
