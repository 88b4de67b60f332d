package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %q", cfg.Port)
	}
	if cfg.RefreshCron != "@hourly" {
		t.Errorf("Expected @hourly refresh, got %q", cfg.RefreshCron)
	}
	if cfg.ConversationTTL != 60*time.Minute {
		t.Errorf("Expected 60m conversation TTL, got %v", cfg.ConversationTTL)
	}
	if cfg.HasCredential() {
		t.Error("Expected no credential by default")
	}
	if cfg.ConversationLog.Enabled {
		t.Error("Expected conversation log disabled by default")
	}
	if !cfg.IsDevelopment() {
		t.Error("Expected development mode without FRONTEND_URL")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("API_KEY", "  key-123  ")
	t.Setenv("PORT", "9090")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("FRONTEND_URL", "https://sports.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.APIKey != "key-123" {
		t.Errorf("Expected trimmed key, got %q", cfg.APIKey)
	}
	if cfg.Port != "9090" {
		t.Errorf("Expected port 9090, got %q", cfg.Port)
	}
	if cfg.RateLimitWindow != 30*time.Second {
		t.Errorf("Expected 30s window, got %v", cfg.RateLimitWindow)
	}
	if cfg.IsDevelopment() {
		t.Error("Expected production mode for public frontend URL")
	}
}

func TestLoadGeminiKeyFallback(t *testing.T) {
	t.Setenv("API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "fallback")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.APIKey != "fallback" {
		t.Errorf("Expected fallback key, got %q", cfg.APIKey)
	}
}

func TestLoadRejectsBadCron(t *testing.T) {
	t.Setenv("REFRESH_CRON", "every now and then")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "REFRESH_CRON") {
		t.Fatalf("Expected REFRESH_CRON error, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sportsdesk.json")
	if err := os.WriteFile(path, []byte(`{"port":"7070","chat_model":"gemini-file"}`), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CHAT_MODEL", "gemini-env")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if cfg.Port != "7070" {
		t.Errorf("Expected port from file, got %q", cfg.Port)
	}
	if cfg.ChatModel != "gemini-env" {
		t.Errorf("Expected env to override file, got %q", cfg.ChatModel)
	}
}

func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("Expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Port:            "8080",
			TextModel:       "m",
			ChatModel:       "m",
			RefreshCron:     "@hourly",
			ConversationTTL: time.Minute,
			RateLimitCount:  1,
			RateLimitWindow: time.Second,
			SSEKeepalive:    time.Second,
			MaxRequestBody:  1,
			ConversationLog: ConversationLogConfig{Dir: "d", GlobalPath: "g", QueueSize: 1},
		}
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("Expected valid config, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty port", func(c *Config) { c.Port = "" }},
		{"empty chat model", func(c *Config) { c.ChatModel = "" }},
		{"zero ttl", func(c *Config) { c.ConversationTTL = 0 }},
		{"zero rate limit", func(c *Config) { c.RateLimitCount = 0 }},
		{"zero body", func(c *Config) { c.MaxRequestBody = 0 }},
		{"empty log dir", func(c *Config) { c.ConversationLog.Dir = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}
