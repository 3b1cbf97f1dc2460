package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("SESSION_TTL", "")
	t.Setenv("SLOT_INTERVAL_MINUTES", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.SessionTTL != 30*24*time.Hour {
		t.Fatalf("expected 30 day session TTL, got %s", cfg.SessionTTL)
	}
	if cfg.VoiceActivityTTL != 24*time.Hour {
		t.Fatalf("expected 24h voice activity TTL, got %s", cfg.VoiceActivityTTL)
	}
	if cfg.SlotIntervalMinutes != 15 || cfg.SlotHeight != 60 || cfg.SlotGap != 4 {
		t.Fatalf("unexpected grid defaults: %d/%d/%d", cfg.SlotIntervalMinutes, cfg.SlotHeight, cfg.SlotGap)
	}
	if cfg.DayStart != "08:00" || cfg.DayEnd != "18:00" {
		t.Fatalf("unexpected day bounds: %s-%s", cfg.DayStart, cfg.DayEnd)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("SLOT_INTERVAL_MINUTES", "30")
	t.Setenv("REDIS_TLS", "true")
	cfg := Load()
	if cfg.Port != "9000" {
		t.Fatalf("expected port 9000, got %s", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected debug log level, got %s", cfg.LogLevel)
	}
	if cfg.SessionTTL != time.Hour {
		t.Fatalf("expected 1h session TTL, got %s", cfg.SessionTTL)
	}
	if cfg.SlotIntervalMinutes != 30 {
		t.Fatalf("expected 30 minute slots, got %d", cfg.SlotIntervalMinutes)
	}
	if !cfg.RedisTLS {
		t.Fatal("expected redis TLS enabled")
	}
}

func TestSplitList(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com ,")
	cfg := Load()
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.CORSOrigins)
	}
	if cfg.CORSOrigins[0] != "https://a.example.com" || cfg.CORSOrigins[1] != "https://b.example.com" {
		t.Fatalf("unexpected origins: %v", cfg.CORSOrigins)
	}
}
