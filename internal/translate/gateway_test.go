package translate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/airchat/globaltalk/internal/repository"
)

type fakeProvider struct {
	name   string
	result string
	err    error
	calls  int
	lang   string
	tone   string
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Translate(_ context.Context, _ string, targetLang, tone string) (string, error) {
	p.calls++
	p.lang = targetLang
	p.tone = tone
	if p.err != nil {
		return "", p.err
	}
	return p.result, nil
}

type fakeClassifier struct {
	label string
	err   error
	calls int
}

func (c *fakeClassifier) ClassifyTone(_ context.Context, _ string) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return c.label, nil
}

type fakeCacheStore struct {
	entries map[string]repository.CachedTranslation
	gets    int
	puts    int
	getErr  error
}

func newFakeCacheStore() *fakeCacheStore {
	return &fakeCacheStore{entries: map[string]repository.CachedTranslation{}}
}

func (s *fakeCacheStore) GetCachedTranslation(_ context.Context, key string) (*repository.CachedTranslation, error) {
	s.gets++
	if s.getErr != nil {
		return nil, s.getErr
	}
	entry, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

func (s *fakeCacheStore) PutCachedTranslation(_ context.Context, key string, entry repository.CachedTranslation, _ time.Time) error {
	s.puts++
	s.entries[key] = entry
	return nil
}

func TestTranslate_UsesFirstHealthyProvider(t *testing.T) {
	first := &fakeProvider{name: "openai", result: "Hallo"}
	second := &fakeProvider{name: "deepl", result: "unexpected"}
	g := NewGateway([]Provider{first, second}, nil, newFakeCacheStore(), 16, time.Hour)

	res, err := g.Translate(context.Background(), "Hello", "de", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Translation != "Hallo" || res.Source != "openai" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if second.calls != 0 {
		t.Fatal("later providers must not be tried after a success")
	}
	if first.lang != "DE" {
		t.Fatalf("expected normalized target lang DE, got %q", first.lang)
	}
}

func TestTranslate_FallsThroughFailedProviders(t *testing.T) {
	first := &fakeProvider{name: "openai", err: errors.New("rate limited")}
	second := &fakeProvider{name: "gemini", result: ""}
	third := &fakeProvider{name: "deepl", result: "Bonjour"}
	g := NewGateway([]Provider{first, second, third}, nil, newFakeCacheStore(), 16, time.Hour)

	res, err := g.Translate(context.Background(), "Hello", "FR", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Translation != "Bonjour" || res.Source != "deepl" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if first.calls != 1 || second.calls != 1 || third.calls != 1 {
		t.Fatalf("expected each provider tried once, got %d/%d/%d", first.calls, second.calls, third.calls)
	}
}

func TestTranslate_AllProvidersFailed(t *testing.T) {
	p := &fakeProvider{name: "openai", err: errors.New("down")}
	g := NewGateway([]Provider{p}, nil, newFakeCacheStore(), 16, time.Hour)

	_, err := g.Translate(context.Background(), "Hello", "de", false)
	if !errors.Is(err, ErrAllProvidersFailed) {
		t.Fatalf("expected ErrAllProvidersFailed, got %v", err)
	}
}

func TestTranslate_EmptyTextShortCircuits(t *testing.T) {
	p := &fakeProvider{name: "openai", result: "unexpected"}
	g := NewGateway([]Provider{p}, nil, newFakeCacheStore(), 16, time.Hour)

	res, err := g.Translate(context.Background(), "   ", "de", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Translation != "   " {
		t.Fatalf("expected original text back, got %q", res.Translation)
	}
	if p.calls != 0 {
		t.Fatal("empty text must not reach a provider")
	}
}

func TestTranslate_CacheHitSkipsProviders(t *testing.T) {
	p := &fakeProvider{name: "openai", result: "Hola"}
	store := newFakeCacheStore()
	g := NewGateway([]Provider{p}, nil, store, 16, time.Hour)

	if _, err := g.Translate(context.Background(), "Hello", "es", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := g.Translate(context.Background(), "Hello", "es", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Translation != "Hola" || res.Source != "openai" {
		t.Fatalf("unexpected cached result: %+v", res)
	}
	if p.calls != 1 {
		t.Fatalf("expected a single provider call across both lookups, got %d", p.calls)
	}
	if store.puts != 1 {
		t.Fatalf("expected write-through on the miss only, got %d writes", store.puts)
	}
}

func TestTranslate_DurableCacheBacksMemoryCache(t *testing.T) {
	p := &fakeProvider{name: "openai", err: errors.New("must not be called")}
	store := newFakeCacheStore()
	store.entries[cacheKey("Hello", "ES", false)] = repository.CachedTranslation{
		Translation: "Hola",
		Provider:    "deepl",
	}
	g := NewGateway([]Provider{p}, nil, store, 16, time.Hour)

	res, err := g.Translate(context.Background(), "Hello", "es", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Translation != "Hola" || res.Source != "deepl" {
		t.Fatalf("unexpected result from durable cache: %+v", res)
	}
	if p.calls != 0 {
		t.Fatal("durable cache hit must not reach a provider")
	}

	// The entry is promoted to the memory cache on first read.
	if _, err := g.Translate(context.Background(), "Hello", "es", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if store.gets != 1 {
		t.Fatalf("expected a single durable read, got %d", store.gets)
	}
}

func TestTranslate_ToneKeyedSeparatelyFromPlain(t *testing.T) {
	if cacheKey("Hello", "DE", true) == cacheKey("Hello", "DE", false) {
		t.Fatal("tone-aware and plain translations must not share a cache entry")
	}
}

func TestTranslate_ToneClassificationFailureIsNonFatal(t *testing.T) {
	p := &fakeProvider{name: "openai", result: "Hallo"}
	cl := &fakeClassifier{err: errors.New("classifier down")}
	g := NewGateway([]Provider{p}, cl, newFakeCacheStore(), 16, time.Hour)

	res, err := g.Translate(context.Background(), "Hello", "de", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Translation != "Hallo" || res.Tone != "" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if p.tone != "" {
		t.Fatalf("expected no tone context after classifier failure, got %q", p.tone)
	}
}

func TestTranslate_TonePassedToProvider(t *testing.T) {
	p := &fakeProvider{name: "openai", result: "Hallo"}
	cl := &fakeClassifier{label: "Tone: Sarcastic."}
	g := NewGateway([]Provider{p}, cl, newFakeCacheStore(), 16, time.Hour)

	res, err := g.Translate(context.Background(), "Hello", "de", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Tone != "sarcastic" {
		t.Fatalf("expected cleaned tone label, got %q", res.Tone)
	}
	if p.tone != "sarcastic" {
		t.Fatalf("expected tone passed to provider, got %q", p.tone)
	}
	if cl.calls != 1 {
		t.Fatalf("expected one classification call, got %d", cl.calls)
	}
}

func TestCleanTranslation(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hallo", "Hallo"},
		{"  Hallo  ", "Hallo"},
		{`"Hallo"`, "Hallo"},
		{"Translation: Hallo", "Hallo"},
		{"translated text: Hallo", "Hallo"},
		{"“Hallo”", "Hallo"},
		{`Translation: "Hallo"`, "Hallo"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := cleanTranslation(tc.in); got != tc.want {
			t.Errorf("cleanTranslation(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeLang(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"de", "DE"},
		{" fr ", "FR"},
		{"EN", "EN"},
	}
	for _, tc := range cases {
		if got := NormalizeLang(tc.in); got != tc.want {
			t.Errorf("NormalizeLang(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
