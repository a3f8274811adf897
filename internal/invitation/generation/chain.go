package generation

import (
	"context"
	"log/slog"
)

// Chain tries an ordered list of models sequentially and folds the tagged
// per-call results into the three-level rate-limit state. The fallback is a
// sequential retry, never a fan-out race.
type Chain struct {
	client   Client
	models   []string
	cooldown Cooldown
	logger   *slog.Logger
}

// ChainOption configures a Chain.
type ChainOption func(*Chain)

// WithCooldown lets the chain skip models known to be rate limited.
func WithCooldown(cooldown Cooldown) ChainOption {
	return func(c *Chain) { c.cooldown = cooldown }
}

// WithLogger sets the chain logger.
func WithLogger(logger *slog.Logger) ChainOption {
	return func(c *Chain) { c.logger = logger }
}

// NewChain builds a chain over the given models, primary first.
func NewChain(client Client, models []string, opts ...ChainOption) *Chain {
	c := &Chain{client: client, models: models, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate returns the first successful output and the folded degradation
// state: success on the primary is "none", success on any later model is
// "primaryDegraded", and no success at all is "bothUnavailable" with empty
// text.
func (c *Chain) Generate(ctx context.Context, input string) (string, RateLimitState) {
	degraded := false
	for i, model := range c.models {
		if c.cooldown != nil && c.cooldown.IsDegraded(ctx, model) {
			c.logger.DebugContext(ctx, "model in cooldown, skipping", "model", model)
			degraded = true
			continue
		}

		text, err := c.client.Generate(ctx, model, input)
		result := Classify(model, text, err)

		switch result.Status {
		case StatusOK:
			if i == 0 && !degraded {
				return result.Text, RateLimitNone
			}
			return result.Text, RateLimitPrimaryDegraded
		case StatusRateLimited:
			if c.cooldown != nil {
				c.cooldown.MarkDegraded(ctx, model)
			}
			c.logger.WarnContext(ctx, "generation model rate limited", "model", model)
		case StatusTransportError:
			c.logger.WarnContext(ctx, "generation model unavailable", "model", model, "error", result.Err)
		}
		degraded = true
	}
	return "", RateLimitBothUnavailable
}
