package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Rate limited actions. Each action keeps its own counter per identifier.
const (
	ActionLogin         = "login"
	ActionPasswordReset = "password_reset"
)

// RateLimitRule pairs a maximum attempt count with the fixed window it
// applies over.
type RateLimitRule struct {
	MaxAttempts int
	Window      time.Duration
}

// RateLimitService tracks per-identifier attempt counters in Redis. The
// window is fixed: it starts at the first recorded attempt and the counter
// expires with the key. Redis being down never blocks a request; the
// limiter fails open and only logs the outage.
type RateLimitService struct {
	client *redis.Client
	rules  map[string]RateLimitRule
	logger *slog.Logger
}

// NewRateLimitService creates a new RateLimitService
func NewRateLimitService(client *redis.Client, rules map[string]RateLimitRule, logger *slog.Logger) *RateLimitService {
	return &RateLimitService{
		client: client,
		rules:  rules,
		logger: logger,
	}
}

func rateLimitKey(action, identifier string) string {
	return fmt.Sprintf("rate_limit:%s:%s", action, identifier)
}

// Allow reports whether another attempt is permitted for the identifier.
// It only reads the counter; recording the attempt is a separate step so
// that a blocked request never extends its own lockout.
func (s *RateLimitService) Allow(ctx context.Context, action, identifier string) bool {
	rule, ok := s.rules[action]
	if !ok {
		return true
	}
	if s.client == nil {
		return true
	}

	count, err := s.client.Get(ctx, rateLimitKey(action, identifier)).Int()
	if err != nil {
		if err != redis.Nil {
			s.logger.Error("rate limit check failed, allowing request",
				slog.String("action", action),
				slog.Any("error", err))
		}
		return true
	}

	if count >= rule.MaxAttempts {
		s.logger.Warn("rate limit exceeded",
			slog.String("action", action),
			slog.Int("attempts", count))
		return false
	}

	return true
}

// RecordAttempt increments the counter for the identifier. The first
// attempt in a window arms the key's expiry; later attempts leave it
// untouched so the window does not slide.
func (s *RateLimitService) RecordAttempt(ctx context.Context, action, identifier string) {
	rule, ok := s.rules[action]
	if !ok || s.client == nil {
		return
	}

	key := rateLimitKey(action, identifier)

	pipe := s.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, rule.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Error("failed to record rate limit attempt",
			slog.String("action", action),
			slog.Any("error", err))
	}
}

// Reset clears the counter for the identifier. Called after a successful
// login so earlier failures stop counting against the account.
func (s *RateLimitService) Reset(ctx context.Context, action, identifier string) {
	if s.client == nil {
		return
	}

	if err := s.client.Del(ctx, rateLimitKey(action, identifier)).Err(); err != nil {
		s.logger.Error("failed to reset rate limit counter",
			slog.String("action", action),
			slog.Any("error", err))
	}
}
