// Package api talks to the chat models behind the medication assistant.
package api

import (
	"context"
	"errors"
)

// ErrNoAnswer is returned when a model response carries no message.
var ErrNoAnswer = errors.New("model returned no answer")

// Provider is a chat model backend.
type Provider interface {
	// Complete sends one exchange and waits for the full answer.
	Complete(ctx context.Context, ex Exchange) (*Answer, error)
	Name() string
	Close() error
}
