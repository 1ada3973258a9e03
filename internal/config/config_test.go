package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.Port != "8081" {
		t.Fatalf("expected default port 8081, got %s", cfg.Port)
	}
	if cfg.RecurrenceInterval != 10*time.Second {
		t.Fatalf("expected default interval 10s, got %v", cfg.RecurrenceInterval)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Fatalf("expected default session TTL 24h, got %v", cfg.SessionTTL)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("RECURRENCE_INTERVAL", "1m")
	t.Setenv("BCRYPT_COST", "12")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected port 9090, got %s", cfg.Port)
	}
	if cfg.RecurrenceInterval != time.Minute {
		t.Fatalf("expected interval 1m, got %v", cfg.RecurrenceInterval)
	}
	if cfg.BcryptCost != 12 {
		t.Fatalf("expected bcrypt cost 12, got %d", cfg.BcryptCost)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad port", func(c *Config) { c.Port = "http" }, "invalid port"},
		{"port out of range", func(c *Config) { c.Port = "70000" }, "invalid port"},
		{"empty db path", func(c *Config) { c.SQLiteDBPath = "" }, "database path"},
		{"bad amqp scheme", func(c *Config) { c.AMQPURL = "http://localhost" }, "AMQP URL scheme"},
		{"empty exchange", func(c *Config) { c.AMQPExchange = "" }, "exchange"},
		{"interval too short", func(c *Config) { c.RecurrenceInterval = 100 * time.Millisecond }, "recurrence interval"},
		{"interval too long", func(c *Config) { c.RecurrenceInterval = 48 * time.Hour }, "recurrence interval"},
		{"session ttl too short", func(c *Config) { c.SessionTTL = time.Second }, "session TTL"},
		{"bcrypt cost out of range", func(c *Config) { c.BcryptCost = 50 }, "bcrypt cost"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Load()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q should mention %q", err, tc.wantErr)
			}
		})
	}
}
