package ratelimit

import "context"

// RateLimiter paces outbound provider requests per named scope.
type RateLimiter interface {
	Allow(ctx context.Context, scope string) (bool, error)
	Wait(ctx context.Context, scope string) error
}
