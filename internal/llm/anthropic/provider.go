package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/avilyaev/script-coach/internal/domain"
	"github.com/avilyaev/script-coach/internal/llm"
)

const (
	apiVersion      = "2023-06-01"
	defaultModel    = "claude-3-5-sonnet-20240620"
	titleModel      = "claude-3-haiku-20240307"
	maxTokens       = 1024
	titleMaxTokens  = 100
	titleSystemText = "You are a helpful assistant that generates concise, descriptive titles for chat conversations. Create a title that captures the main topic or intent of the conversation in 5-7 words."
)

// Provider implements llm.Provider for Anthropic
type Provider struct {
	apiKey  string
	model   string
	client  *http.Client
	baseURL string
	retry   llm.RetryPolicy
}

// NewProvider creates a new Anthropic provider
func NewProvider(apiKey, model string, retry llm.RetryPolicy) llm.Provider {
	if model == "" {
		model = defaultModel
	}
	return &Provider{
		apiKey:  apiKey,
		model:   model,
		client:  llm.StreamingClient(30 * time.Second),
		baseURL: "https://api.anthropic.com/v1",
		retry:   retry,
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return "anthropic"
}

// DefaultModel returns the default model
func (p *Provider) DefaultModel() string {
	return p.model
}

// IsConfigured checks if provider has valid credentials
func (p *Provider) IsConfigured() bool {
	return p.apiKey != ""
}

type anthropicRequest struct {
	Model     string            `json:"model"`
	MaxTokens int               `json:"max_tokens"`
	System    string            `json:"system,omitempty"`
	Stream    bool              `json:"stream,omitempty"`
	Messages  []llm.ChatMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// StreamChat relays the Anthropic event stream unmodified: the upstream
// already emits the content_block_delta framing the ingestor consumes
func (p *Provider) StreamChat(ctx context.Context, messages []domain.Message, system string) (io.ReadCloser, error) {
	payload, err := json.Marshal(anthropicRequest{
		Model:     p.model,
		MaxTokens: maxTokens,
		System:    system,
		Stream:    true,
		Messages:  llm.FormatAnthropic(messages),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := llm.DoWithRetry(ctx, p.client, p.retry, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/messages", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "text/event-stream")
		req.Header.Set("x-api-key", p.apiKey)
		req.Header.Set("anthropic-version", apiVersion)
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("anthropic returned status %d", resp.StatusCode)
	}

	return resp.Body, nil
}

// GenerateTitle asks a small model to summarize the conversation
func (p *Provider) GenerateTitle(ctx context.Context, messages []domain.Message) (string, error) {
	var transcript strings.Builder
	for _, m := range messages {
		fmt.Fprintf(&transcript, "%s: %s\n", m.Role, m.Content)
	}

	payload, err := json.Marshal(anthropicRequest{
		Model:     titleModel,
		MaxTokens: titleMaxTokens,
		System:    titleSystemText,
		Messages: []llm.ChatMessage{
			{
				Role:    string(domain.RoleUser),
				Content: "Generate a short title for this chat conversation:\n\n" + transcript.String(),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := llm.DoWithRetry(ctx, p.client, p.retry, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/messages", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-api-key", p.apiKey)
		req.Header.Set("anthropic-version", apiVersion)
		return req, nil
	})
	if err != nil {
		return "", fmt.Errorf("anthropic request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("anthropic returned status %d", resp.StatusCode)
	}

	var decoded anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(decoded.Content) == 0 || strings.TrimSpace(decoded.Content[0].Text) == "" {
		return "", fmt.Errorf("no title in response")
	}

	return strings.TrimSpace(decoded.Content[0].Text), nil
}
