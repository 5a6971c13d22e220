package model

import (
	"context"
	"strings"
	"time"
)

// PendingCode is an issued verification code awaiting use. Entries are
// keyed by normalized email; issuing again replaces the previous entry.
type PendingCode struct {
	Email    string
	Code     string
	IssuedAt time.Time
}

// CodeStore holds pending verification codes with a bounded lifetime.
type CodeStore interface {
	// Issue stores a code for the email, replacing any existing entry.
	Issue(ctx context.Context, email, code string) error
	// Lookup returns the pending code for the email or ErrNotFound.
	// Expired entries are never returned.
	Lookup(ctx context.Context, email string) (PendingCode, error)
	// Consume removes the entry for the email. Consuming an absent entry
	// is not an error.
	Consume(ctx context.Context, email string) error
	// Sweep removes all expired entries.
	Sweep(ctx context.Context) error
}

// Sender delivers a verification code to a participant.
type Sender interface {
	DeliverCode(ctx context.Context, email, code string) error
}

// NormalizeEmail lowercases and trims an email address. All store keys and
// response records use the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
