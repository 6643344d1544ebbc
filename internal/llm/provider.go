package llm

import (
	"context"
	"io"
	"time"

	"github.com/avilyaev/script-coach/internal/domain"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// DefaultModel returns the default model
	DefaultModel() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool

	// StreamChat issues one upstream request with streaming enabled and
	// returns the response body framed as the application's event
	// stream (data: lines carrying content_block_delta payloads). A
	// non-success upstream status is detected before any byte is
	// handed to the caller.
	StreamChat(ctx context.Context, messages []domain.Message, system string) (io.ReadCloser, error)

	// GenerateTitle summarizes the conversation into a short title
	GenerateTitle(ctx context.Context, messages []domain.Message) (string, error)
}

// RetryPolicy bounds the retries around upstream request setup. Retries
// never apply mid-stream.
type RetryPolicy struct {
	MaxAttempts int
	Interval    time.Duration
	Multiplier  float64
}

// DefaultRetryPolicy returns the stock policy: three attempts with a
// short, exponentially growing delay between them
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Interval:    500 * time.Millisecond,
		Multiplier:  1.5,
	}
}
