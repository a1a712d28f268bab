package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	internalconfig "github.com/airchat/globaltalk/internal/config"
)

type envConfig struct {
	Env           string `env:"ENV" envDefault:"production"`
	ListenAddr    string `env:"LISTEN_ADDR" envDefault:":3000"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:3000"`
	StaticDir     string `env:"STATIC_DIR"`
	UploadDir     string `env:"UPLOAD_DIR" envDefault:"./uploads"`
	DatabaseURL   string `env:"DATABASE_URL,required"`

	MessageTTL    time.Duration `env:"MESSAGE_TTL" envDefault:"24h"`
	HistoryWindow int           `env:"HISTORY_WINDOW" envDefault:"50"`

	SweepInterval     time.Duration `env:"SWEEP_INTERVAL" envDefault:"10m"`
	SweepInitialDelay time.Duration `env:"SWEEP_INITIAL_DELAY" envDefault:"1m"`
	SweepBatchSize    int           `env:"SWEEP_BATCH_SIZE" envDefault:"100"`

	TranslationCacheTTL time.Duration `env:"TRANSLATION_CACHE_TTL" envDefault:"168h"`
	TranslationCacheMax int           `env:"TRANSLATION_CACHE_MAX" envDefault:"2048"`
	ProviderTimeout     time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"15s"`

	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	OpenAIModel   string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	GeminiAPIKey  string `env:"GEMINI_API_KEY"`
	GeminiModel   string `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash"`
	DeepLAPIKey   string `env:"DEEPL_API_KEY"`
	DeepLAPIURL   string `env:"DEEPL_API_URL" envDefault:"https://api-free.deepl.com/v2/translate"`
}

func Load() (*internalconfig.Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}

	cfg := &internalconfig.Config{
		Env:                 raw.Env,
		ListenAddr:          raw.ListenAddr,
		PublicBaseURL:       raw.PublicBaseURL,
		StaticDir:           raw.StaticDir,
		UploadDir:           raw.UploadDir,
		DatabaseURL:         raw.DatabaseURL,
		MessageTTL:          raw.MessageTTL,
		HistoryWindow:       raw.HistoryWindow,
		SweepInterval:       raw.SweepInterval,
		SweepInitialDelay:   raw.SweepInitialDelay,
		SweepBatchSize:      raw.SweepBatchSize,
		TranslationCacheTTL: raw.TranslationCacheTTL,
		TranslationCacheMax: raw.TranslationCacheMax,
		ProviderTimeout:     raw.ProviderTimeout,
		OpenAIAPIKey:        raw.OpenAIAPIKey,
		OpenAIBaseURL:       raw.OpenAIBaseURL,
		OpenAIModel:         raw.OpenAIModel,
		GeminiAPIKey:        raw.GeminiAPIKey,
		GeminiModel:         raw.GeminiModel,
		DeepLAPIKey:         raw.DeepLAPIKey,
		DeepLAPIURL:         raw.DeepLAPIURL,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
