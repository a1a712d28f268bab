package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/airchat/globaltalk/internal/translate"
)

// OpenAIProvider translates through an OpenAI-compatible chat completions
// endpoint. It is the contextual-LLM provider, first in the fallback chain,
// and also serves as the tone classifier.
type OpenAIProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

func NewOpenAIProvider(apiKey, baseURL, model string, timeout time.Duration) *OpenAIProvider {
	return &OpenAIProvider{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *OpenAIProvider) Name() string { return "openai" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *OpenAIProvider) Translate(ctx context.Context, text, targetLang, tone string) (string, error) {
	prompt := fmt.Sprintf("Translate the following text to %s.", translate.LanguageName(targetLang))
	if tone != "" {
		prompt = fmt.Sprintf("Translate the following text to %s, preserving its %s tone.", translate.LanguageName(targetLang), tone)
	}
	prompt += " Respond with only the translated text.\n\n" + text
	return p.complete(ctx, prompt)
}

func (p *OpenAIProvider) ClassifyTone(ctx context.Context, text string) (string, error) {
	prompt := "Classify the tone of the following message with a single word (for example: friendly, sarcastic, formal, angry, playful). Respond with only that word.\n\n" + text
	return p.complete(ctx, prompt)
}

func (p *OpenAIProvider) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("chat completions returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("malformed chat completions response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("chat completions response has no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
