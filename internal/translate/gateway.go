// Package translate resolves translations through an ordered provider chain
// with a read-through cache. Translation is advisory: the original message is
// always delivered immediately and translation augments the view afterward.
package translate

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/airchat/globaltalk/internal/repository"
)

// ErrAllProvidersFailed is surfaced to the caller when every provider in the
// chain failed; the caller's policy is to display the original text.
var ErrAllProvidersFailed = errors.New("all translation providers failed")

var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "translate_cache_hits_total",
		Help: "Total number of translation cache hits.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "translate_cache_misses_total",
		Help: "Total number of translation cache misses.",
	})
	providerFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "translate_provider_failures_total",
		Help: "Total number of failed provider attempts.",
	}, []string{"provider"})
	translationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "translate_translations_total",
		Help: "Total number of successful translations by winning provider.",
	}, []string{"provider"})
)

type Result struct {
	Translation string
	Source      string
	Tone        string
}

type Gateway struct {
	providers  []Provider
	classifier ToneClassifier
	memCache   *expirable.LRU[string, repository.CachedTranslation]
	store      repository.TranslationCacheRepository
	cacheTTL   time.Duration
	now        func() time.Time
}

// NewGateway builds a gateway trying providers in the given order. classifier
// may be nil, in which case tone understanding is skipped.
func NewGateway(providers []Provider, classifier ToneClassifier, store repository.TranslationCacheRepository, maxCacheEntries int, cacheTTL time.Duration) *Gateway {
	return &Gateway{
		providers:  providers,
		classifier: classifier,
		memCache:   expirable.NewLRU[string, repository.CachedTranslation](maxCacheEntries, nil, cacheTTL),
		store:      store,
		cacheTTL:   cacheTTL,
		now:        time.Now,
	}
}

// Translate runs the gateway algorithm: validate, normalize, consult the
// cache, optionally classify tone, then try providers in priority order until
// one returns a well-formed non-empty translation.
func (g *Gateway) Translate(ctx context.Context, text, targetLang string, toneUnderstanding bool) (Result, error) {
	if strings.TrimSpace(text) == "" || strings.TrimSpace(targetLang) == "" {
		return Result{Translation: text}, nil
	}
	lang := NormalizeLang(targetLang)
	key := cacheKey(text, lang, toneUnderstanding)

	if cached, ok := g.cacheLookup(ctx, key); ok {
		cacheHitsTotal.Inc()
		return Result{Translation: cached.Translation, Source: cached.Provider, Tone: cached.Tone}, nil
	}
	cacheMissesTotal.Inc()

	var tone string
	if toneUnderstanding && g.classifier != nil {
		label, err := g.classifier.ClassifyTone(ctx, text)
		if err != nil {
			// Non-fatal: translation proceeds without tone context.
			slog.Warn("tone classification failed", "error", err)
		} else {
			tone = cleanToneLabel(label)
		}
	}

	for _, p := range g.providers {
		translated, err := p.Translate(ctx, text, lang, tone)
		if err != nil {
			providerFailuresTotal.WithLabelValues(p.Name()).Inc()
			slog.Warn("translation provider failed", "provider", p.Name(), "target_lang", lang, "error", err)
			continue
		}
		clean := cleanTranslation(translated)
		if clean == "" {
			providerFailuresTotal.WithLabelValues(p.Name()).Inc()
			slog.Warn("translation provider returned empty result", "provider", p.Name(), "target_lang", lang)
			continue
		}
		translationsTotal.WithLabelValues(p.Name()).Inc()
		g.cacheStore(ctx, key, repository.CachedTranslation{
			Translation: clean,
			Provider:    p.Name(),
			Tone:        tone,
			CachedAt:    g.now(),
		})
		return Result{Translation: clean, Source: p.Name(), Tone: tone}, nil
	}
	return Result{}, ErrAllProvidersFailed
}

func (g *Gateway) cacheLookup(ctx context.Context, key string) (repository.CachedTranslation, bool) {
	if entry, ok := g.memCache.Get(key); ok {
		return entry, true
	}
	if g.store == nil {
		return repository.CachedTranslation{}, false
	}
	entry, err := g.store.GetCachedTranslation(ctx, key)
	if err != nil {
		slog.Warn("translation cache read failed", "error", err)
		return repository.CachedTranslation{}, false
	}
	if entry == nil {
		return repository.CachedTranslation{}, false
	}
	g.memCache.Add(key, *entry)
	return *entry, true
}

func (g *Gateway) cacheStore(ctx context.Context, key string, entry repository.CachedTranslation) {
	g.memCache.Add(key, entry)
	if g.store == nil {
		return
	}
	if err := g.store.PutCachedTranslation(ctx, key, entry, entry.CachedAt.Add(g.cacheTTL)); err != nil {
		slog.Warn("translation cache write failed", "error", err)
	}
}

// cacheKey keys tone-aware and tone-unaware translations separately since
// they may differ. The text is hashed to bound key size.
func cacheKey(text, lang string, tone bool) string {
	mode := "plain"
	if tone {
		mode = "tone"
	}
	return fmt.Sprintf("%s|%s|%x", lang, mode, sha256.Sum256([]byte(text)))
}

var translationPrefixes = []string{
	"translation:",
	"translated text:",
	"translated:",
}

// cleanTranslation strips incidental wrapping providers add around the
// translated text.
func cleanTranslation(s string) string {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	for _, prefix := range translationPrefixes {
		if strings.HasPrefix(lower, prefix) {
			s = strings.TrimSpace(s[len(prefix):])
			break
		}
	}
	for _, pair := range [][2]string{{`"`, `"`}, {"'", "'"}, {"“", "”"}, {"«", "»"}} {
		if len(s) >= 2 && strings.HasPrefix(s, pair[0]) && strings.HasSuffix(s, pair[1]) {
			s = strings.TrimSpace(s[len(pair[0]) : len(s)-len(pair[1])])
			break
		}
	}
	return s
}

// cleanToneLabel reduces a classifier response to a single lowercase word.
func cleanToneLabel(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	for _, prefix := range []string{"tone:", "the tone is"} {
		if strings.HasPrefix(s, prefix) {
			s = strings.TrimSpace(s[len(prefix):])
		}
	}
	s = strings.Trim(s, `"'.,! `)
	if i := strings.IndexAny(s, " \t\n"); i > 0 {
		s = s[:i]
	}
	return s
}
