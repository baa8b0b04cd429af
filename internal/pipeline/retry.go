package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/dgallion1/docreview/internal/critic"
	"github.com/dgallion1/docreview/internal/criteria"
	"github.com/dgallion1/docreview/internal/metrics"
)

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *critic.RetryableError
	return errors.As(err, &retryErr)
}

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

const MaxRetries = 3

// RetryingCritic retries transient critic failures with backoff before
// handing the error back to the evaluator, which then degrades to the
// skipped diagnostic.
type RetryingCritic struct {
	inner   criteria.Critic
	log     *slog.Logger
	metrics *metrics.Metrics
	backoff func(int) time.Duration
}

// NewRetryingCritic wraps inner. It returns nil when inner is nil so the
// engine keeps treating the critic as absent.
func NewRetryingCritic(inner criteria.Critic, m *metrics.Metrics, log *slog.Logger) criteria.Critic {
	if inner == nil {
		return nil
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &RetryingCritic{inner: inner, log: log, metrics: m, backoff: Backoff}
}

func (c *RetryingCritic) Critique(ctx context.Context, text string) (criteria.CritiqueResult, error) {
	var lastErr error
	for attempt := range MaxRetries {
		res, err := c.inner.Critique(ctx, text)
		if err == nil {
			c.metrics.CriticCall("ok")
			return res, nil
		}
		lastErr = err
		if !IsRetryable(err) || attempt == MaxRetries-1 {
			break
		}
		c.metrics.CriticCall("retry")
		c.log.Warn("retryable critic error", "attempt", attempt, "error", err)
		select {
		case <-time.After(c.backoff(attempt)):
		case <-ctx.Done():
			return criteria.CritiqueResult{}, ctx.Err()
		}
	}
	c.metrics.CriticCall("error")
	return criteria.CritiqueResult{}, lastErr
}
