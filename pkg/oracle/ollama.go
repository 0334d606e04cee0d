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

// OllamaOptions are passed through to Ollama's generation endpoint.
// Conservative defaults keep the model usable on a laptop.
type OllamaOptions struct {
	NumCtx      int     `json:"num_ctx,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
}

// Ollama generates text via a local Ollama server.
type Ollama struct {
	client  *http.Client
	baseURL string
	model   string
	options OllamaOptions
}

// NewOllama creates an Ollama client. A zero timeout defaults to 60s.
func NewOllama(baseURL, model string, timeout time.Duration, options OllamaOptions) *Ollama {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3.2:latest"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Ollama{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		options: options,
	}
}

func (o *Ollama) Model() string { return o.model }

func (o *Ollama) Generate(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model":   o.model,
		"prompt":  prompt,
		"stream":  false,
		"options": o.options,
	}

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("call ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("ollama status %d: %s", resp.StatusCode, strings.TrimSpace(string(text)))
	}

	var result struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode ollama response: %w", err)
	}
	if result.Response == "" {
		return "", fmt.Errorf("ollama: empty response")
	}

	return strings.TrimSpace(result.Response), nil
}
