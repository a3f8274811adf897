// Package generation calls external text-generation models to restyle
// invitation content, with an explicit ordered fallback from a primary to a
// secondary model.
package generation

import (
	"context"
	"errors"

	"irgate/pkg/platform/sentinel"
)

// Client performs one generation call against a named model.
type Client interface {
	Generate(ctx context.Context, model, input string) (string, error)
}

// Status tags a single provider call outcome.
type Status int

const (
	StatusOK Status = iota
	StatusRateLimited
	StatusTransportError
)

// Result is the tagged outcome of one model attempt.
type Result struct {
	Model  string
	Status Status
	Text   string
	Err    error
}

// Classify folds an error into a tagged status. Timeouts and cancellations
// are treated like rate limits: both mean "stop waiting on this model and
// fall back".
func Classify(model, text string, err error) Result {
	switch {
	case err == nil:
		return Result{Model: model, Status: StatusOK, Text: text}
	case errors.Is(err, sentinel.ErrRateLimited),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return Result{Model: model, Status: StatusRateLimited, Err: err}
	default:
		return Result{Model: model, Status: StatusTransportError, Err: err}
	}
}

// RateLimitState is the three-level degradation signal surfaced to callers.
type RateLimitState string

const (
	RateLimitNone            RateLimitState = "none"
	RateLimitPrimaryDegraded RateLimitState = "primaryDegraded"
	RateLimitBothUnavailable RateLimitState = "bothUnavailable"
)
