package translate

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/airchat/globaltalk/internal/config"
	"github.com/airchat/globaltalk/internal/repository"
	"github.com/airchat/globaltalk/internal/translate"
)

// RegisterDI wires the provider chain in fixed priority order: contextual LLM,
// secondary LLM, dedicated translation API. Providers without credentials are
// left out of the chain.
func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*translate.Gateway, error) {
		cfg := do.MustInvoke[*config.Config](i)
		repo := do.MustInvoke[repository.Repository](i)

		var providers []translate.Provider
		var classifier translate.ToneClassifier
		if cfg.OpenAIAPIKey != "" {
			p := NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.ProviderTimeout)
			providers = append(providers, p)
			classifier = p
		}
		if cfg.GeminiAPIKey != "" {
			providers = append(providers, NewGeminiProvider(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.ProviderTimeout))
		}
		if cfg.DeepLAPIKey != "" {
			providers = append(providers, NewDeepLProvider(cfg.DeepLAPIKey, cfg.DeepLAPIURL, cfg.ProviderTimeout))
		}
		if len(providers) == 0 {
			slog.Warn("no translation providers configured; translation requests will fail")
		}

		return translate.NewGateway(providers, classifier, repo, cfg.TranslationCacheMax, cfg.TranslationCacheTTL), nil
	})
}
