package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("LANGUAGE", "")
	t.Setenv("GATEWAY_RETRIES", "")

	cfg := Load()

	if cfg.ServerPort != "8080" {
		t.Errorf("Expected port 8080, got %s", cfg.ServerPort)
	}
	if cfg.Language != "bn" {
		t.Errorf("Expected language bn, got %s", cfg.Language)
	}
	if cfg.GatewayRetries != 2 {
		t.Errorf("Expected 2 gateway retries, got %d", cfg.GatewayRetries)
	}
	if cfg.NATSEnabled {
		t.Error("Expected NATS to be disabled by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LANGUAGE", "en")
	t.Setenv("CONSULTATION_IDLE_TTL", "15m")
	t.Setenv("NATS_ENABLED", "true")
	t.Setenv("RATE_LIMIT_REQUESTS", "not-a-number")

	cfg := Load()

	if cfg.ServerPort != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.ServerPort)
	}
	if cfg.Language != "en" {
		t.Errorf("Expected language en, got %s", cfg.Language)
	}
	if cfg.ConsultationIdleTTL != 15*time.Minute {
		t.Errorf("Expected 15m idle TTL, got %v", cfg.ConsultationIdleTTL)
	}
	if !cfg.NATSEnabled {
		t.Error("Expected NATS to be enabled")
	}
	if cfg.RateLimitRequests != 60 {
		t.Errorf("Expected invalid int to fall back to 60, got %d", cfg.RateLimitRequests)
	}
}

func TestLoadCORSOrigins(t *testing.T) {
	t.Setenv("CORS_ORIGINS", " https://niramoy.app, ,http://localhost:3000 ")

	cfg := Load()

	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[0] != "https://niramoy.app" || cfg.CORSOrigins[1] != "http://localhost:3000" {
		t.Errorf("Expected two trimmed origins, got %q", cfg.CORSOrigins)
	}
}
