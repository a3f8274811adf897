package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"irgate/pkg/platform/sentinel"
)

type scriptedClient struct {
	responses map[string]Result
	calls     []string
}

func (c *scriptedClient) Generate(_ context.Context, model, _ string) (string, error) {
	c.calls = append(c.calls, model)
	r := c.responses[model]
	return r.Text, r.Err
}

func TestChainFoldsRateLimitState(t *testing.T) {
	models := []string{"primary", "fallback"}

	t.Run("primary ok yields none", func(t *testing.T) {
		client := &scriptedClient{responses: map[string]Result{
			"primary": {Text: "styled"},
		}}
		text, state := NewChain(client, models).Generate(context.Background(), "input")
		require.Equal(t, "styled", text)
		require.Equal(t, RateLimitNone, state)
		require.Equal(t, []string{"primary"}, client.calls)
	})

	t.Run("primary 429 fallback ok yields primaryDegraded", func(t *testing.T) {
		client := &scriptedClient{responses: map[string]Result{
			"primary":  {Err: sentinel.ErrRateLimited},
			"fallback": {Text: "styled"},
		}}
		text, state := NewChain(client, models).Generate(context.Background(), "input")
		require.Equal(t, "styled", text)
		require.Equal(t, RateLimitPrimaryDegraded, state)
		require.Equal(t, []string{"primary", "fallback"}, client.calls)
	})

	t.Run("both 429 yields bothUnavailable", func(t *testing.T) {
		client := &scriptedClient{responses: map[string]Result{
			"primary":  {Err: sentinel.ErrRateLimited},
			"fallback": {Err: sentinel.ErrRateLimited},
		}}
		text, state := NewChain(client, models).Generate(context.Background(), "input")
		require.Empty(t, text)
		require.Equal(t, RateLimitBothUnavailable, state)
	})

	t.Run("timeout treated like rate limit", func(t *testing.T) {
		client := &scriptedClient{responses: map[string]Result{
			"primary":  {Err: context.DeadlineExceeded},
			"fallback": {Text: "styled"},
		}}
		text, state := NewChain(client, models).Generate(context.Background(), "input")
		require.Equal(t, "styled", text)
		require.Equal(t, RateLimitPrimaryDegraded, state)
	})

	t.Run("transport error also falls back", func(t *testing.T) {
		client := &scriptedClient{responses: map[string]Result{
			"primary":  {Err: errors.New("connection refused")},
			"fallback": {Text: "styled"},
		}}
		_, state := NewChain(client, models).Generate(context.Background(), "input")
		require.Equal(t, RateLimitPrimaryDegraded, state)
	})
}

func TestChainCooldownSkipsPrimary(t *testing.T) {
	models := []string{"primary", "fallback"}
	cooldown := NewMemoryCooldown(time.Minute)
	client := &scriptedClient{responses: map[string]Result{
		"primary":  {Err: sentinel.ErrRateLimited},
		"fallback": {Text: "styled"},
	}}
	chain := NewChain(client, models, WithCooldown(cooldown))

	// First call burns a primary attempt and marks it degraded.
	_, state := chain.Generate(context.Background(), "input")
	require.Equal(t, RateLimitPrimaryDegraded, state)

	// Second call skips the primary entirely but still reports degradation.
	client.calls = nil
	text, state := chain.Generate(context.Background(), "input")
	require.Equal(t, "styled", text)
	require.Equal(t, RateLimitPrimaryDegraded, state)
	require.Equal(t, []string{"fallback"}, client.calls)
}

func TestClassify(t *testing.T) {
	require.Equal(t, StatusOK, Classify("m", "text", nil).Status)
	require.Equal(t, StatusRateLimited, Classify("m", "", sentinel.ErrRateLimited).Status)
	require.Equal(t, StatusRateLimited, Classify("m", "", context.DeadlineExceeded).Status)
	require.Equal(t, StatusTransportError, Classify("m", "", errors.New("boom")).Status)
}
