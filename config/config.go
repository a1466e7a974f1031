package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Server  ServerConfig
	Model   ModelConfig
	Redis   RedisConfig
	MQTT    MQTTConfig
	Outlook OutlookConfig
	CORS    CORSConfig
	Log     LogConfig
}

type ServerConfig struct {
	Port int
}

type ModelConfig struct {
	Path           string
	FloodThreshold float64
}

// RedisConfig is disabled when Host is empty.
type RedisConfig struct {
	Host            string
	Port            int
	Password        string
	DB              int
	ConnectAttempts int
	CacheTTLSeconds int
	AlertChannel    string
}

func (r RedisConfig) Enabled() bool { return r.Host != "" }

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// MQTTConfig is disabled when URL is empty.
type MQTTConfig struct {
	URL      string
	Topic    string
	ClientID string
}

func (m MQTTConfig) Enabled() bool { return m.URL != "" }

// OutlookConfig is disabled when Schedule is empty.
type OutlookConfig struct {
	Schedule string
	Days     int
}

func (o OutlookConfig) Enabled() bool { return o.Schedule != "" }

type CORSConfig struct {
	AllowedOrigins string
}

type LogConfig struct {
	Level  string
	Format string
}

func LoadConfig() (*Config, error) {
	serverPort, err := getIntEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	threshold, err := getFloatEnv("FLOOD_THRESHOLD", 500)
	if err != nil {
		return nil, fmt.Errorf("invalid FLOOD_THRESHOLD: %w", err)
	}

	redisPort, err := getIntEnv("REDIS_PORT", 6379)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}

	redisDB, err := getIntEnv("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	attempts, err := getIntEnv("REDIS_CONNECT_ATTEMPTS", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_CONNECT_ATTEMPTS: %w", err)
	}
	if attempts < 1 {
		return nil, fmt.Errorf("invalid REDIS_CONNECT_ATTEMPTS: must be at least 1, got %d", attempts)
	}

	cacheTTL, err := getIntEnv("CACHE_TTL_SECONDS", 3600)
	if err != nil {
		return nil, fmt.Errorf("invalid CACHE_TTL_SECONDS: %w", err)
	}

	outlookDays, err := getIntEnv("OUTLOOK_DAYS", 7)
	if err != nil {
		return nil, fmt.Errorf("invalid OUTLOOK_DAYS: %w", err)
	}
	if outlookDays < 1 || outlookDays > 30 {
		return nil, fmt.Errorf("invalid OUTLOOK_DAYS: must be between 1 and 30, got %d", outlookDays)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: serverPort,
		},
		Model: ModelConfig{
			Path:           getEnv("MODEL_PATH", "prophet_model_v1.json"),
			FloodThreshold: threshold,
		},
		Redis: RedisConfig{
			Host:            getEnv("REDIS_HOST", ""),
			Port:            redisPort,
			Password:        getEnv("REDIS_PASSWORD", ""),
			DB:              redisDB,
			ConnectAttempts: attempts,
			CacheTTLSeconds: cacheTTL,
			AlertChannel:    getEnv("ALERT_CHANNEL", "floodcast:alerts"),
		},
		MQTT: MQTTConfig{
			URL:      getEnv("MQTT_URL", ""),
			Topic:    getEnv("MQTT_TOPIC", "floodcast/alerts"),
			ClientID: getEnv("MQTT_CLIENT_ID", "floodcast-api"),
		},
		Outlook: OutlookConfig{
			Schedule: getEnv("OUTLOOK_SCHEDULE", ""),
			Days:     outlookDays,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getIntEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}

func getFloatEnv(key string, fallback float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}
