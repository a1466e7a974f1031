package config

import (
	"os"
	"testing"
)

var configKeys = []string{
	"SERVER_PORT", "MODEL_PATH", "FLOOD_THRESHOLD", "LOG_LEVEL", "LOG_FORMAT",
	"REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB", "REDIS_CONNECT_ATTEMPTS",
	"CACHE_TTL_SECONDS", "ALERT_CHANNEL", "MQTT_URL", "MQTT_TOPIC", "MQTT_CLIENT_ID",
	"OUTLOOK_SCHEDULE", "OUTLOOK_DAYS", "CORS_ALLOWED_ORIGINS",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestRedisAddr(t *testing.T) {
	r := RedisConfig{Host: "redis.internal", Port: 6380}
	if got := r.Addr(); got != "redis.internal:6380" {
		t.Errorf("Addr() = %q, want %q", got, "redis.internal:6380")
	}
}

func TestEnabledFlags(t *testing.T) {
	if (RedisConfig{}).Enabled() {
		t.Error("redis should be disabled without a host")
	}
	if !(RedisConfig{Host: "localhost"}).Enabled() {
		t.Error("redis should be enabled with a host")
	}
	if (MQTTConfig{}).Enabled() {
		t.Error("mqtt should be disabled without a URL")
	}
	if !(MQTTConfig{URL: "tcp://localhost:1883"}).Enabled() {
		t.Error("mqtt should be enabled with a URL")
	}
	if (OutlookConfig{Days: 7}).Enabled() {
		t.Error("outlook should be disabled without a schedule")
	}
}

func TestGetEnv(t *testing.T) {
	os.Unsetenv("TEST_CONFIG_VAR")
	if got := getEnv("TEST_CONFIG_VAR", "default"); got != "default" {
		t.Errorf("getEnv() = %q, want %q", got, "default")
	}

	os.Setenv("TEST_CONFIG_VAR", "custom")
	defer os.Unsetenv("TEST_CONFIG_VAR")
	if got := getEnv("TEST_CONFIG_VAR", "default"); got != "custom" {
		t.Errorf("getEnv() = %q, want %q", got, "custom")
	}
}

func TestGetIntEnv(t *testing.T) {
	t.Run("fallback when unset", func(t *testing.T) {
		os.Unsetenv("TEST_INT_VAR")
		got, err := getIntEnv("TEST_INT_VAR", 8080)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 8080 {
			t.Errorf("getIntEnv() = %d, want %d", got, 8080)
		}
	})

	t.Run("parses valid int", func(t *testing.T) {
		os.Setenv("TEST_INT_VAR", "9090")
		defer os.Unsetenv("TEST_INT_VAR")
		got, err := getIntEnv("TEST_INT_VAR", 8080)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 9090 {
			t.Errorf("getIntEnv() = %d, want %d", got, 9090)
		}
	})

	t.Run("error on invalid int", func(t *testing.T) {
		os.Setenv("TEST_INT_VAR", "not_int")
		defer os.Unsetenv("TEST_INT_VAR")
		_, err := getIntEnv("TEST_INT_VAR", 8080)
		if err == nil {
			t.Error("expected error for invalid int value")
		}
	})
}

func TestGetFloatEnv(t *testing.T) {
	t.Run("fallback when unset", func(t *testing.T) {
		os.Unsetenv("TEST_FLOAT_VAR")
		got, err := getFloatEnv("TEST_FLOAT_VAR", 500)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 500 {
			t.Errorf("getFloatEnv() = %v, want 500", got)
		}
	})

	t.Run("parses decimal", func(t *testing.T) {
		os.Setenv("TEST_FLOAT_VAR", "412.5")
		defer os.Unsetenv("TEST_FLOAT_VAR")
		got, err := getFloatEnv("TEST_FLOAT_VAR", 500)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 412.5 {
			t.Errorf("getFloatEnv() = %v, want 412.5", got)
		}
	})

	t.Run("error on invalid float", func(t *testing.T) {
		os.Setenv("TEST_FLOAT_VAR", "high")
		defer os.Unsetenv("TEST_FLOAT_VAR")
		if _, err := getFloatEnv("TEST_FLOAT_VAR", 500); err == nil {
			t.Error("expected error for invalid float value")
		}
	})
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Model.Path != "prophet_model_v1.json" {
		t.Errorf("Model.Path = %q, want %q", cfg.Model.Path, "prophet_model_v1.json")
	}
	if cfg.Model.FloodThreshold != 500 {
		t.Errorf("Model.FloodThreshold = %v, want 500", cfg.Model.FloodThreshold)
	}
	if cfg.Redis.Enabled() {
		t.Error("Redis should be disabled by default")
	}
	if cfg.Redis.Port != 6379 {
		t.Errorf("Redis.Port = %d, want 6379", cfg.Redis.Port)
	}
	if cfg.Redis.ConnectAttempts != 10 {
		t.Errorf("Redis.ConnectAttempts = %d, want 10", cfg.Redis.ConnectAttempts)
	}
	if cfg.Redis.AlertChannel != "floodcast:alerts" {
		t.Errorf("Redis.AlertChannel = %q", cfg.Redis.AlertChannel)
	}
	if cfg.MQTT.Enabled() {
		t.Error("MQTT should be disabled by default")
	}
	if cfg.Outlook.Enabled() {
		t.Error("Outlook should be disabled by default")
	}
	if cfg.Outlook.Days != 7 {
		t.Errorf("Outlook.Days = %d, want 7", cfg.Outlook.Days)
	}
	if cfg.CORS.AllowedOrigins != "*" {
		t.Errorf("CORS.AllowedOrigins = %q, want %q", cfg.CORS.AllowedOrigins, "*")
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v, want info/json", cfg.Log)
	}
}

func TestLoadConfigCustom(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "3000")
	t.Setenv("MODEL_PATH", "/models/jakarta.json")
	t.Setenv("FLOOD_THRESHOLD", "450")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("OUTLOOK_SCHEDULE", "0 6 * * *")
	t.Setenv("OUTLOOK_DAYS", "14")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.Server.Port != 3000 {
		t.Errorf("Server.Port = %d, want 3000", cfg.Server.Port)
	}
	if cfg.Model.Path != "/models/jakarta.json" {
		t.Errorf("Model.Path = %q", cfg.Model.Path)
	}
	if cfg.Model.FloodThreshold != 450 {
		t.Errorf("Model.FloodThreshold = %v, want 450", cfg.Model.FloodThreshold)
	}
	if !cfg.Redis.Enabled() {
		t.Error("Redis should be enabled")
	}
	if !cfg.Outlook.Enabled() || cfg.Outlook.Days != 14 {
		t.Errorf("Outlook = %+v, want enabled with 14 days", cfg.Outlook)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"SERVER_PORT", "invalid"},
		{"FLOOD_THRESHOLD", "lots"},
		{"REDIS_PORT", "x"},
		{"REDIS_CONNECT_ATTEMPTS", "0"},
		{"OUTLOOK_DAYS", "0"},
		{"OUTLOOK_DAYS", "31"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := LoadConfig(); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}
