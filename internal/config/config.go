// Package config provides application configuration.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Port            string
	FrontendURL     string
	APIKey          string
	ProviderBaseURL string
	TextModel       string
	ChatModel       string
	LogLevel        string

	RefreshCron     string
	RefreshOnStart  bool
	ConversationTTL time.Duration
	RateLimitCount  int
	RateLimitWindow time.Duration
	SSEKeepalive    time.Duration
	MaxRequestBody  int64
	ConversationLog ConversationLogConfig
}

// ConversationLogConfig controls JSON conversation logging.
type ConversationLogConfig struct {
	Enabled       bool
	Dir           string
	GlobalEnabled bool
	GlobalPath    string
	QueueSize     int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile reads configuration from an optional file, overridden by environment variables.
// An empty path skips the file.
func LoadFile(path string) (*Config, error) {
	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	queueSize := v.GetInt("conversation_log_queue_size")
	if queueSize <= 0 {
		queueSize = 1000
	}

	apiKey := strings.TrimSpace(v.GetString("api_key"))
	if apiKey == "" {
		apiKey = strings.TrimSpace(v.GetString("gemini_api_key"))
	}

	cfg := &Config{
		Port:            v.GetString("port"),
		FrontendURL:     v.GetString("frontend_url"),
		APIKey:          apiKey,
		ProviderBaseURL: v.GetString("provider_base_url"),
		TextModel:       v.GetString("text_model"),
		ChatModel:       v.GetString("chat_model"),
		LogLevel:        v.GetString("log_level"),
		RefreshCron:     v.GetString("refresh_cron"),
		RefreshOnStart:  v.GetBool("refresh_on_start"),
		ConversationTTL: v.GetDuration("conversation_ttl"),
		RateLimitCount:  v.GetInt("rate_limit_requests"),
		RateLimitWindow: v.GetDuration("rate_limit_window"),
		SSEKeepalive:    v.GetDuration("sse_keepalive"),
		MaxRequestBody:  v.GetInt64("max_request_body"),
		ConversationLog: ConversationLogConfig{
			Enabled:       v.GetBool("conversation_log_enabled"),
			Dir:           v.GetString("conversation_log_dir"),
			GlobalEnabled: v.GetBool("conversation_log_global_enabled"),
			GlobalPath:    v.GetString("conversation_log_global_path"),
			QueueSize:     queueSize,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", "8080")
	v.SetDefault("frontend_url", "")
	v.SetDefault("api_key", "")
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("provider_base_url", "")
	v.SetDefault("text_model", "gemini-2.5-flash")
	v.SetDefault("chat_model", "gemini-2.5-flash")
	v.SetDefault("log_level", "info")
	v.SetDefault("refresh_cron", "@hourly")
	v.SetDefault("refresh_on_start", true)
	v.SetDefault("conversation_ttl", 60*time.Minute)
	v.SetDefault("rate_limit_requests", 10)
	v.SetDefault("rate_limit_window", time.Minute)
	v.SetDefault("sse_keepalive", 15*time.Second)
	v.SetDefault("max_request_body", 64*1024)
	v.SetDefault("conversation_log_enabled", false)
	v.SetDefault("conversation_log_dir", "./data/logs/conversations")
	v.SetDefault("conversation_log_global_enabled", false)
	v.SetDefault("conversation_log_global_path", "./data/logs/conversations/all.ndjson")
	v.SetDefault("conversation_log_queue_size", 1000)
	return v
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT cannot be empty")
	}
	if c.TextModel == "" {
		return errors.New("TEXT_MODEL cannot be empty")
	}
	if c.ChatModel == "" {
		return errors.New("CHAT_MODEL cannot be empty")
	}
	if _, err := cronexpr.Parse(c.RefreshCron); err != nil {
		return fmt.Errorf("REFRESH_CRON is not a valid cron expression: %w", err)
	}
	if c.ConversationTTL <= 0 {
		return errors.New("CONVERSATION_TTL must be > 0")
	}
	if c.RateLimitCount <= 0 {
		return errors.New("RATE_LIMIT_REQUESTS must be > 0")
	}
	if c.RateLimitWindow <= 0 {
		return errors.New("RATE_LIMIT_WINDOW must be > 0")
	}
	if c.SSEKeepalive <= 0 {
		return errors.New("SSE_KEEPALIVE must be > 0")
	}
	if c.MaxRequestBody <= 0 {
		return errors.New("MAX_REQUEST_BODY must be > 0")
	}
	if c.ConversationLog.Dir == "" {
		return errors.New("CONVERSATION_LOG_DIR cannot be empty")
	}
	if c.ConversationLog.GlobalPath == "" {
		return errors.New("CONVERSATION_LOG_GLOBAL_PATH cannot be empty")
	}
	if c.ConversationLog.QueueSize <= 0 {
		return errors.New("CONVERSATION_LOG_QUEUE_SIZE must be > 0")
	}
	return nil
}

// HasCredential reports whether an API key was configured at startup.
func (c *Config) HasCredential() bool {
	return c.APIKey != ""
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}
