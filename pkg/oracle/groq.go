package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Groq generates text via Groq's OpenAI-compatible chat completions API.
type Groq struct {
	client  *http.Client
	baseURL string
	model   string
	apiKey  string
}

// NewGroq creates a Groq client. A zero timeout defaults to 30s.
func NewGroq(apiKey, model, baseURL string, timeout time.Duration) *Groq {
	if model == "" {
		model = "llama-3.3-70b-versatile"
	}
	if baseURL == "" {
		baseURL = "https://api.groq.com"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Groq{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		apiKey:  apiKey,
	}
}

func (g *Groq) Model() string { return g.model }

func (g *Groq) Generate(ctx context.Context, prompt string) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("groq: api key not set")
	}

	payload := map[string]any{
		"model": g.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": 0.2,
		"max_tokens":  500,
		"top_p":       0.9,
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/openai/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create groq request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call groq: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return "", fmt.Errorf("groq: invalid api key")
		case http.StatusNotFound:
			return "", fmt.Errorf("groq: model %q not found", g.model)
		case http.StatusTooManyRequests:
			return "", fmt.Errorf("groq: rate limit exceeded")
		}
		return "", fmt.Errorf("groq status %d: %s", resp.StatusCode, strings.TrimSpace(string(text)))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode groq response: %w", err)
	}

	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("groq: empty response")
	}
	return strings.TrimSpace(result.Choices[0].Message.Content), nil
}
