package ratelimit

import (
	"context"
	"sync"
	"time"
)

// TokenLimiter enforces a per-minute token budget for LLM providers whose
// limits are expressed in tokens rather than requests.
type TokenLimiter struct {
	mu                sync.Mutex
	maxTokenPerMinute int
	remaining         int
	windowStart       time.Time
}

// NewTokenLimiter creates a limiter allowing maxTokenPerMinute tokens per
// rolling one-minute window.
func NewTokenLimiter(maxTokenPerMinute int) *TokenLimiter {
	return &TokenLimiter{
		maxTokenPerMinute: maxTokenPerMinute,
		remaining:         maxTokenPerMinute,
		windowStart:       time.Now(),
	}
}

// Wait blocks until n tokens are available or the context is canceled.
func (l *TokenLimiter) Wait(ctx context.Context, n int) error {
	for {
		l.mu.Lock()
		l.refill()
		if n >= l.maxTokenPerMinute {
			// A single request larger than the budget would never proceed;
			// let it through once the window is fresh.
			n = l.maxTokenPerMinute
		}
		if l.remaining >= n {
			l.remaining -= n
			l.mu.Unlock()
			return nil
		}
		wait := time.Minute - time.Since(l.windowStart)
		l.mu.Unlock()

		if wait < time.Second {
			wait = time.Second
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// GetRemaining returns the tokens left in the current window.
func (l *TokenLimiter) GetRemaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refill()
	return l.remaining
}

func (l *TokenLimiter) refill() {
	if time.Since(l.windowStart) >= time.Minute {
		l.remaining = l.maxTokenPerMinute
		l.windowStart = time.Now()
	}
}
