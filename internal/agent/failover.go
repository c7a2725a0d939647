package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/soyeahso/wawa/internal/llm"
	"github.com/soyeahso/wawa/internal/logging"
)

// FailoverChatter tries the primary chatter first, then each fallback in
// order, moving on only for errors another provider might not hit.
type FailoverChatter struct {
	chatters []llm.Chatter
	log      *logging.Logger
}

// NewFailoverChatter creates a chatter over primary and fallbacks.
func NewFailoverChatter(log *logging.Logger, primary llm.Chatter, fallbacks ...llm.Chatter) *FailoverChatter {
	if log == nil {
		log = logging.Nop()
	}
	return &FailoverChatter{
		chatters: append([]llm.Chatter{primary}, fallbacks...),
		log:      log.Sub("failover"),
	}
}

// Chat tries each chatter in turn, returning the first success or the last error.
func (f *FailoverChatter) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	var lastErr error
	for i, c := range f.chatters {
		resp, err := c.Chat(ctx, req)
		if err == nil {
			if i > 0 {
				f.log.Info().Str("provider", chatterName(c)).Msg("served by fallback provider")
			}
			return resp, nil
		}

		lastErr = err
		if !shouldFailover(err) || ctx.Err() != nil {
			return nil, err
		}
		if i < len(f.chatters)-1 {
			f.log.Warn().
				Str("provider", chatterName(c)).
				Str("category", string(llm.CategoryOf(err))).
				Err(err).
				Msg("provider failed, trying next provider")
		}
	}
	return nil, lastErr
}

// shouldFailover reports whether another provider might succeed where this
// one failed: rate limits, outages, and missing or rejected credentials.
func shouldFailover(err error) bool {
	switch llm.CategoryOf(err) {
	case llm.CategoryRateLimit, llm.CategoryUnavailable, llm.CategoryAuth:
		return true
	default:
		return false
	}
}

func chatterName(c llm.Chatter) string {
	if n, ok := c.(interface{ Name() string }); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", c)
}

// RetryPolicy is an exponential backoff for retryable provider errors.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// RetryingChatter re-issues a request after retryable failures.
type RetryingChatter struct {
	next   llm.Chatter
	policy RetryPolicy
	log    *logging.Logger
	sleep  func(ctx context.Context, d time.Duration) error
}

// WithRetry wraps next so rate-limit and unavailable errors are retried with
// backoff. MaxAttempts <= 1 disables retrying.
func WithRetry(next llm.Chatter, policy RetryPolicy, log *logging.Logger) *RetryingChatter {
	if log == nil {
		log = logging.Nop()
	}
	if policy.InitialBackoff <= 0 {
		policy.InitialBackoff = 500 * time.Millisecond
	}
	if policy.MaxBackoff < policy.InitialBackoff {
		policy.MaxBackoff = policy.InitialBackoff
	}
	return &RetryingChatter{next: next, policy: policy, log: log.Sub("retry"), sleep: sleepCtx}
}

// Name reports the wrapped chatter's name.
func (r *RetryingChatter) Name() string { return chatterName(r.next) }

// Chat calls the wrapped chatter, retrying retryable failures.
func (r *RetryingChatter) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	backoff := r.policy.InitialBackoff
	for attempt := 1; ; attempt++ {
		resp, err := r.next.Chat(ctx, req)
		if err == nil {
			return resp, nil
		}
		if attempt >= r.policy.MaxAttempts || !llm.IsRetryable(err) {
			return nil, err
		}

		r.log.Warn().
			Int("attempt", attempt).
			Dur("backoff", backoff).
			Str("category", string(llm.CategoryOf(err))).
			Err(err).
			Msg("retrying provider call")

		if serr := r.sleep(ctx, backoff); serr != nil {
			return nil, errors.Join(err, serr)
		}
		backoff = min(backoff*2, r.policy.MaxBackoff)
	}
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
