// Package httpprovider implements ai.ModelProvider against any
// OpenAI-chat-completions-compatible HTTP endpoint, matching the shape a
// local, self-hosted model server exposes.
package httpprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/madspark-go/ideaflow/ai"
)

// Provider is a minimal OpenAI-compatible chat completions client.
type Provider struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// New builds a Provider pointed at baseURL (e.g. "http://localhost:11434/v1")
// using model for every request.
func New(baseURL, apiKey, model string) *Provider {
	return &Provider{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 0, // callers pass a context deadline instead
		},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatChoice struct {
	Message chatMessage `json:"message"`
}

type chatUsage struct {
	TotalTokens int `json:"total_tokens"`
}

type chatResponse struct {
	Choices []chatChoice `json:"choices"`
	Usage   chatUsage    `json:"usage"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate implements ai.ModelProvider.
func (p *Provider) Generate(ctx context.Context, prompt string, opts ai.Options) (string, int, error) {
	messages := []chatMessage{}
	if opts.SystemInstruction != "" {
		messages = append(messages, chatMessage{Role: "system", Content: opts.SystemInstruction})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	reqBody := chatRequest{
		Model:       p.model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", 0, fmt.Errorf("httpprovider: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", 0, fmt.Errorf("httpprovider: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("httpprovider: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, fmt.Errorf("httpprovider: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("httpprovider: status %d: %s", resp.StatusCode, string(body))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", 0, fmt.Errorf("httpprovider: decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", 0, fmt.Errorf("httpprovider: provider error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", 0, fmt.Errorf("httpprovider: empty choices")
	}

	return parsed.Choices[0].Message.Content, parsed.Usage.TotalTokens, nil
}

// Info implements ai.InfoProvider.
func (p *Provider) Info() ai.ProviderInfo {
	return ai.ProviderInfo{Name: "http", Model: p.model}
}

// WithTimeout is a convenience for tests that want a client-side timeout in
// addition to the caller's context deadline.
func (p *Provider) WithTimeout(d time.Duration) *Provider {
	p.httpClient.Timeout = d
	return p
}
