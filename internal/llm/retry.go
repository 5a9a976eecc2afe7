package llm

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// RetryConfig controls exponential backoff for failed completions.
type RetryConfig struct {
	MaxRetries int           // 0 = no retry
	BaseDelay  time.Duration // initial backoff delay
	MaxDelay   time.Duration // maximum backoff delay
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 2,
		BaseDelay:  2 * time.Second,
		MaxDelay:   30 * time.Second,
	}
}

// Retrying wraps a Completer with bounded retries. Context cancellation and
// permanent provider errors (4xx other than 429) are returned immediately.
type Retrying struct {
	next   Completer
	cfg    RetryConfig
	logger *zap.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewRetrying(next Completer, cfg RetryConfig, logger *zap.Logger) *Retrying {
	return &Retrying{next: next, cfg: cfg, logger: logger, sleep: sleepCtx}
}

func (r *Retrying) Complete(ctx context.Context, req Request) (string, error) {
	var err error
	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		var out string
		out, err = r.next.Complete(ctx, req)
		if err == nil {
			return out, nil
		}
		if !retryable(ctx, err) || attempt == r.cfg.MaxRetries {
			break
		}

		delay := backoffWithJitter(r.cfg.BaseDelay, r.cfg.MaxDelay, attempt)
		r.logger.Warn("llm completion failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err))
		if serr := r.sleep(ctx, delay); serr != nil {
			return "", serr
		}
	}
	return "", err
}

func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return true
}

// backoffWithJitter computes delay = min(base * 2^attempt, max) + jitter(±25%).
func backoffWithJitter(base, max time.Duration, attempt int) time.Duration {
	delay := base << uint(attempt)
	if delay > max || delay <= 0 {
		delay = max
	}

	quarter := delay / 4
	if quarter > 0 {
		jitter := time.Duration(rand.Int64N(int64(quarter*2))) - quarter
		delay += jitter
	}

	return delay
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
