package translate

import "context"

// Provider is one translation backend in the fallback chain. Implementations
// must bound each attempt with their own timeout so a hung provider cannot
// stall the chain.
type Provider interface {
	Name() string
	// Translate returns the translated text. tone is an optional single-word
	// tone label the translation should preserve; providers that cannot use
	// it ignore it.
	Translate(ctx context.Context, text, targetLang, tone string) (string, error)
}

// ToneClassifier labels the tone of a text with a single word.
type ToneClassifier interface {
	ClassifyTone(ctx context.Context, text string) (string, error)
}
