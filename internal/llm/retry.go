package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

// DoWithRetry sends the request produced by build, retrying transport
// failures and 5xx upstream statuses per the policy. Retries cover
// request setup only: once a response is obtained its body is handed to
// the caller untouched, including streaming bodies. Non-retryable
// statuses (4xx) are returned to the caller for classification.
func DoWithRetry(ctx context.Context, client *http.Client, policy RetryPolicy, build func(context.Context) (*http.Request, error)) (*http.Response, error) {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = policy.Interval
	exp.Multiplier = policy.Multiplier
	exp.RandomizationFactor = 0
	exp.MaxElapsedTime = 0

	attempts := policy.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var resp *http.Response
	attempt := 0
	op := func() error {
		attempt++
		req, err := build(ctx)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		r, err := client.Do(req)
		if err != nil {
			log.Debug().Err(err).Int("attempt", attempt).Msg("upstream request failed")
			return err
		}
		if r.StatusCode >= http.StatusInternalServerError {
			r.Body.Close()
			log.Debug().Int("status", r.StatusCode).Int("attempt", attempt).Msg("upstream returned server error")
			return fmt.Errorf("upstream returned status %d", r.StatusCode)
		}
		resp = r
		return nil
	}

	policy64 := backoff.WithMaxRetries(exp, uint64(attempts-1))
	if err := backoff.Retry(op, backoff.WithContext(policy64, ctx)); err != nil {
		return nil, err
	}
	return resp, nil
}

// StreamingClient builds an http.Client suited for long-lived streaming
// responses: the header timeout bounds request setup while the body may
// stay open indefinitely
func StreamingClient(headerTimeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			ResponseHeaderTimeout: headerTimeout,
		},
	}
}
