package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"concierge/internal/validation"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment
	Env string // "development", "production", etc.

	// Server
	ServerAddr string
	BaseURL    string

	// CORS
	CORSOrigins string // Comma-separated allowed origins, e.g. "https://example.com,https://www.example.com"

	// TLS
	TLSEnabled  bool
	TLSCertFile string
	TLSKeyFile  string
	TLSCAFile   string // Enables mTLS when set

	// Storage. Both are optional.
	DatabaseURL string
	RedisURL    string

	// Language model
	AnthropicAPIKey  string
	AnthropicBaseURL string
	AnthropicModel   string
	LLMMaxTokens     int
	LLMTemperature   float64
	LLMTimeout       time.Duration
	LLMWebSearches   int

	// Routing
	PreferCannedContent bool

	// Rate limits
	ChatRateLimit     int
	ResearchRateLimit int
	RateLimitWindow   time.Duration
	GlobalRateLimit   int // Requests per minute per IP across the API, 0 disables

	// Email
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string
	SMTPTLS      string // "none", "tls" or "starttls"

	ContactDefaultTo  string
	ContactAckEnabled bool

	// Reports
	ReportRecipients []string
	ReportInterval   time.Duration

	// Content
	ContentDir string // Overrides the embedded corpus when set
	SiteConfig string // Path to the site YAML file
}

// Load reads configuration from environment variables with sensible defaults.
// In development a .env file is loaded first when present.
func Load() (*Config, error) {
	if getEnv("ENV", "development") == "development" {
		_ = godotenv.Load()
	}

	cfg := &Config{
		Env:         getEnv("ENV", "development"),
		ServerAddr:  getEnv("SERVER_ADDR", ":3000"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:3000"),
		CORSOrigins: getEnv("CORS_ORIGINS", ""),
		TLSEnabled:  getEnvBool("TLS_ENABLED", false),
		TLSCertFile: getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:  getEnv("TLS_KEY_FILE", ""),
		TLSCAFile:   getEnv("TLS_CA_FILE", ""),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),

		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicBaseURL: getEnv("ANTHROPIC_BASE_URL", ""),
		AnthropicModel:   getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-5"),
		LLMMaxTokens:     getEnvInt("LLM_MAX_TOKENS", 1024),
		LLMTemperature:   getEnvFloat("LLM_TEMPERATURE", 0.7),
		LLMTimeout:       getEnvDuration("LLM_TIMEOUT", 25*time.Second),
		LLMWebSearches:   getEnvInt("LLM_WEB_SEARCHES", 3),

		PreferCannedContent: getEnvBool("PREFER_CANNED_CONTENT", false),

		ChatRateLimit:     getEnvInt("CHAT_RATE_LIMIT", 10),
		ResearchRateLimit: getEnvInt("RESEARCH_RATE_LIMIT", 5),
		RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", time.Hour),
		GlobalRateLimit:   getEnvInt("GLOBAL_RATE_LIMIT", 120),

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", ""),
		SMTPFromName: getEnv("SMTP_FROM_NAME", "Summit Labs"),
		SMTPTLS:      getEnv("SMTP_TLS", "starttls"),

		ContactDefaultTo:  getEnv("CONTACT_DEFAULT_TO", ""),
		ContactAckEnabled: getEnvBool("CONTACT_ACK_ENABLED", true),

		ReportRecipients: splitList(getEnv("REPORT_RECIPIENTS", "")),
		ReportInterval:   getEnvDuration("REPORT_INTERVAL", 24*time.Hour),

		ContentDir: getEnv("CONTENT_DIR", ""),
		SiteConfig: getEnv("SITE_CONFIG", "site.yaml"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	if c.ChatRateLimit <= 0 || c.ResearchRateLimit <= 0 {
		return fmt.Errorf("CHAT_RATE_LIMIT and RESEARCH_RATE_LIMIT must be positive")
	}
	if c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
	}
	if c.LLMTimeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be positive")
	}
	if err := validation.ValidateURL(c.BaseURL); err != nil {
		return fmt.Errorf("BASE_URL: %w", err)
	}
	if c.TLSEnabled && (c.TLSCertFile == "" || c.TLSKeyFile == "") {
		return fmt.Errorf("TLS_CERT_FILE and TLS_KEY_FILE are required when TLS_ENABLED is set")
	}
	switch c.SMTPTLS {
	case "none", "tls", "starttls":
	default:
		return fmt.Errorf("SMTP_TLS must be one of none, tls, starttls; got %q", c.SMTPTLS)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// IsEmailEnabled returns true when an SMTP host and sender are configured.
func (c *Config) IsEmailEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}

// IsLLMEnabled returns true when a language model API key is configured.
func (c *Config) IsLLMEnabled() bool {
	return c.AnthropicAPIKey != ""
}
