package services

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/sred-drafter/internal/core/ports/driven"
)

// Ensure RateLimitedGenerator implements the interface.
var _ driven.TextGenerator = (*RateLimitedGenerator)(nil)

// RateLimitedGenerator throttles calls to a TextGenerator with a token bucket.
// Parallel section pipelines share one instance.
type RateLimitedGenerator struct {
	next    driven.TextGenerator
	limiter *rate.Limiter
}

// NewRateLimitedGenerator wraps next. A non-positive rate returns next
// unchanged; a non-positive burst is treated as one.
func NewRateLimitedGenerator(next driven.TextGenerator, requestsPerSecond float64, burst int) driven.TextGenerator {
	if next == nil || requestsPerSecond <= 0 {
		return next
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedGenerator{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Complete waits for a token, then delegates.
func (r *RateLimitedGenerator) Complete(ctx context.Context, system, user string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}
	return r.next.Complete(ctx, system, user)
}

// ModelName returns the wrapped model name.
func (r *RateLimitedGenerator) ModelName() string {
	return r.next.ModelName()
}

// Ping delegates without consuming a token.
func (r *RateLimitedGenerator) Ping(ctx context.Context) error {
	return r.next.Ping(ctx)
}

// Close closes the wrapped generator.
func (r *RateLimitedGenerator) Close() error {
	return r.next.Close()
}
