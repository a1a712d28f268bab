package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DeepLProvider is the dedicated translation-API provider, last in the
// fallback chain. Tone labels are ignored; the API has no tone parameter.
type DeepLProvider struct {
	apiKey string
	apiURL string
	client *http.Client
}

func NewDeepLProvider(apiKey, apiURL string, timeout time.Duration) *DeepLProvider {
	return &DeepLProvider{
		apiKey: apiKey,
		apiURL: apiURL,
		client: &http.Client{Timeout: timeout},
	}
}

func (p *DeepLProvider) Name() string { return "deepl" }

// deeplTargetCodes maps canonical codes to the regional variants DeepL
// requires; unmapped codes pass through unchanged.
var deeplTargetCodes = map[string]string{
	"EN": "EN-US",
	"PT": "PT-PT",
}

type deeplResponse struct {
	Translations []struct {
		DetectedSourceLanguage string `json:"detected_source_language"`
		Text                   string `json:"text"`
	} `json:"translations"`
}

func (p *DeepLProvider) Translate(ctx context.Context, text, targetLang, _ string) (string, error) {
	target := targetLang
	if mapped, ok := deeplTargetCodes[targetLang]; ok {
		target = mapped
	}

	form := url.Values{}
	form.Set("text", text)
	form.Set("target_lang", target)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "DeepL-Auth-Key "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("deepl returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	var parsed deeplResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("malformed deepl response: %w", err)
	}
	if len(parsed.Translations) == 0 {
		return "", fmt.Errorf("deepl response has no translations")
	}
	return parsed.Translations[0].Text, nil
}
