package config

import (
	"fmt"
	"net/url"
	"time"
)

type Config struct {
	Env           string
	ListenAddr    string
	PublicBaseURL string
	StaticDir     string
	UploadDir     string
	DatabaseURL   string

	MessageTTL    time.Duration
	HistoryWindow int

	SweepInterval     time.Duration
	SweepInitialDelay time.Duration
	SweepBatchSize    int

	TranslationCacheTTL time.Duration
	TranslationCacheMax int
	ProviderTimeout     time.Duration

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	GeminiAPIKey  string
	GeminiModel   string
	DeepLAPIKey   string
	DeepLAPIURL   string
}

func (c *Config) Validate() error {
	for _, req := range c.requiredFieldChecks() {
		if req.value == "" {
			return fmt.Errorf("%s is required", req.name)
		}
	}
	if _, err := url.Parse(c.PublicBaseURL); err != nil {
		return fmt.Errorf("PUBLIC_BASE_URL is invalid: %w", err)
	}
	if c.MessageTTL <= 0 {
		return fmt.Errorf("MESSAGE_TTL must be positive, got %s", c.MessageTTL)
	}
	if c.HistoryWindow <= 0 {
		return fmt.Errorf("HISTORY_WINDOW must be positive, got %d", c.HistoryWindow)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", c.SweepInterval)
	}
	if c.SweepInitialDelay < 0 {
		return fmt.Errorf("SWEEP_INITIAL_DELAY must not be negative, got %s", c.SweepInitialDelay)
	}
	if c.SweepBatchSize <= 0 {
		return fmt.Errorf("SWEEP_BATCH_SIZE must be positive, got %d", c.SweepBatchSize)
	}
	if c.TranslationCacheTTL <= 0 {
		return fmt.Errorf("TRANSLATION_CACHE_TTL must be positive, got %s", c.TranslationCacheTTL)
	}
	if c.TranslationCacheMax <= 0 {
		return fmt.Errorf("TRANSLATION_CACHE_MAX must be positive, got %d", c.TranslationCacheMax)
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT must be positive, got %s", c.ProviderTimeout)
	}
	return nil
}

type requiredEnvField struct {
	name  string
	value string
}

func (c *Config) requiredFieldChecks() []requiredEnvField {
	return []requiredEnvField{
		{name: "LISTEN_ADDR", value: c.ListenAddr},
		{name: "PUBLIC_BASE_URL", value: c.PublicBaseURL},
		{name: "UPLOAD_DIR", value: c.UploadDir},
		{name: "DATABASE_URL", value: c.DatabaseURL},
	}
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
