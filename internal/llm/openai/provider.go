package openai

import (
	"bufio"
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
	"github.com/avilyaev/script-coach/internal/stream"
)

const (
	defaultModel    = "gpt-4o-mini"
	titleSystemText = "You are a helpful assistant that generates concise, descriptive titles for chat conversations. Create a title that captures the main topic or intent of the conversation in 5-7 words."

	outputTextDelta = "response.output_text.delta"
)

// Provider implements llm.Provider for OpenAI
type Provider struct {
	apiKey  string
	model   string
	client  *http.Client
	baseURL string
	retry   llm.RetryPolicy
}

// NewProvider creates a new OpenAI provider
func NewProvider(apiKey, model string, retry llm.RetryPolicy) llm.Provider {
	if model == "" {
		model = defaultModel
	}
	return &Provider{
		apiKey:  apiKey,
		model:   model,
		client:  llm.StreamingClient(30 * time.Second),
		baseURL: "https://api.openai.com/v1",
		retry:   retry,
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return "openai"
}

// DefaultModel returns the default model
func (p *Provider) DefaultModel() string {
	return p.model
}

// IsConfigured checks if provider has valid credentials
func (p *Provider) IsConfigured() bool {
	return p.apiKey != ""
}

type openaiRequest struct {
	Model        string             `json:"model"`
	Instructions string             `json:"instructions,omitempty"`
	Input        []llm.BlockMessage `json:"input"`
	Stream       bool               `json:"stream,omitempty"`
}

type openaiStreamChunk struct {
	Type  string `json:"type"`
	Delta string `json:"delta"`
}

type openaiResponse struct {
	Output []struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

// StreamChat issues a streaming responses-API call and re-frames the
// upstream chunks into the content_block_delta event format, so both
// providers present one wire format downstream
func (p *Provider) StreamChat(ctx context.Context, messages []domain.Message, system string) (io.ReadCloser, error) {
	payload, err := json.Marshal(openaiRequest{
		Model:        p.model,
		Instructions: system,
		Input:        llm.FormatOpenAI(messages),
		Stream:       true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := p.post(ctx, "/responses", payload, true)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("openai returned status %d", resp.StatusCode)
	}

	pr, pw := io.Pipe()
	go reframe(resp.Body, pw)
	return pr, nil
}

// GenerateTitle asks the model to summarize the conversation
func (p *Provider) GenerateTitle(ctx context.Context, messages []domain.Message) (string, error) {
	payload, err := json.Marshal(openaiRequest{
		Model:        p.model,
		Instructions: titleSystemText,
		Input:        llm.FormatOpenAI(messages),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := p.post(ctx, "/responses", payload, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai returned status %d", resp.StatusCode)
	}

	var decoded openaiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(decoded.Output) == 0 || len(decoded.Output[0].Content) == 0 {
		return "", fmt.Errorf("no title in response")
	}
	title := strings.TrimSpace(decoded.Output[0].Content[0].Text)
	if title == "" {
		return "", fmt.Errorf("no title in response")
	}

	return title, nil
}

func (p *Provider) post(ctx context.Context, path string, payload []byte, streaming bool) (*http.Response, error) {
	resp, err := llm.DoWithRetry(ctx, p.client, p.retry, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
		if streaming {
			req.Header.Set("Accept", "text/event-stream")
		}
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("openai request failed: %w", err)
	}
	return resp, nil
}

// reframe rewrites upstream output_text deltas into the application's
// event framing. The upstream body is drained line by line; anything
// that is not a text delta is dropped from the relayed stream.
func reframe(upstream io.ReadCloser, pw *io.PipeWriter) {
	defer upstream.Close()

	scanner := bufio.NewScanner(upstream)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimSpace(line[len("data: "):])
		if payload == "[DONE]" {
			break
		}

		var chunk openaiStreamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			continue
		}
		if chunk.Type != outputTextDelta || chunk.Delta == "" {
			continue
		}

		event, err := json.Marshal(stream.Event{
			Type:  stream.EventContentBlockDelta,
			Delta: &stream.Delta{Type: "text_delta", Text: chunk.Delta},
		})
		if err != nil {
			continue
		}
		if _, err := fmt.Fprintf(pw, "data: %s\n\n", event); err != nil {
			// reader side is gone
			return
		}
	}

	if err := scanner.Err(); err != nil {
		pw.CloseWithError(fmt.Errorf("openai stream read: %w", err))
		return
	}
	pw.Close()
}
