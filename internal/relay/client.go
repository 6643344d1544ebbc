package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/avilyaev/script-coach/internal/domain"
)

// ErrRelay marks a failed relay call: transport failure or non-success
// status. Callers roll back their optimistic message append on it.
var ErrRelay = errors.New("relay request failed")

// Client calls the chat relay endpoint and exposes its event stream
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a relay client for the given base URL
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
}

type chatRequest struct {
	Messages []domain.Message `json:"messages"`
	Training bool             `json:"training,omitempty"`
}

// Stream posts the conversation and returns the event-stream body once
// the status line confirms success. The caller owns closing the body.
func (c *Client) Stream(ctx context.Context, messages []domain.Message, training bool) (io.ReadCloser, error) {
	payload, err := json.Marshal(chatRequest{Messages: messages, Training: training})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/chat", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRelay, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d", ErrRelay, resp.StatusCode)
	}

	return resp.Body, nil
}
