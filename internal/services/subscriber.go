package services

import (
	"context"
	"errors"
)

var (
	// ErrSubscriberNotConfigured means the CRM credentials are missing.
	ErrSubscriberNotConfigured = errors.New("subscriber not configured")

	// ErrUpstream means the CRM answered with a non-success status and a JSON error body.
	ErrUpstream = errors.New("upstream rejected subscription")
)

// Subscriber records an email lead in the CRM.
type Subscriber interface {
	Subscribe(ctx context.Context, email, source string) error
}
