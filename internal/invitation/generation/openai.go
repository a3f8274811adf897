package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"irgate/internal/platform/config"
	"irgate/pkg/platform/sentinel"
)

// OpenAIClient calls an OpenAI-responses-shaped endpoint over plain HTTP.
type OpenAIClient struct {
	responsesURL string
	apiKey       string
	httpClient   *http.Client
}

// NewOpenAIClient builds a client from generation config. The request timeout
// is bounded so a hung provider cannot stall invitation sending.
func NewOpenAIClient(cfg config.GenerationConfig) *OpenAIClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &OpenAIClient{
		responsesURL: cfg.ResponsesURL,
		apiKey:       cfg.APIKey,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

// Generate submits the input to the given model and returns the output text.
// HTTP 429 maps to sentinel.ErrRateLimited so callers can fall back.
func (c *OpenAIClient) Generate(ctx context.Context, model, input string) (string, error) {
	requestBody, err := json.Marshal(map[string]any{
		"model": model,
		"input": input,
	})
	if err != nil {
		return "", fmt.Errorf("marshal generation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.responsesURL, bytes.NewReader(requestBody))
	if err != nil {
		return "", fmt.Errorf("build generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// Credential material travels only in the Authorization header and is
	// never echoed in errors.
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("model %s: %w", model, sentinel.ErrRateLimited)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return "", fmt.Errorf("generation request status %d: %s", res.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		OutputText string `json:"output_text"`
		Output     []struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"output"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode generation response: %w", err)
	}

	outputText := strings.TrimSpace(payload.OutputText)
	if outputText == "" {
		for _, item := range payload.Output {
			for _, content := range item.Content {
				if strings.TrimSpace(content.Text) != "" {
					outputText = strings.TrimSpace(content.Text)
					break
				}
			}
			if outputText != "" {
				break
			}
		}
	}
	if outputText == "" {
		return "", fmt.Errorf("generation response missing output text")
	}
	return outputText, nil
}
