// Package store provides lead persistence interfaces and implementations.
package store

import (
	"context"

	"github.com/rentline/leadbot/internal/domain"
)

// Repository persists interview records as whole-record writes keyed by
// conversation id. A missing record is a valid "new conversation"
// signal, not an error.
type Repository interface {
	// Load retrieves the lead for a conversation. Returns (nil, nil)
	// when no record exists.
	Load(ctx context.Context, chatID int64) (*domain.Lead, error)

	// Save upserts the whole record, stamping its timestamps.
	Save(ctx context.Context, lead *domain.Lead) error

	// Reset discards the record entirely. Resetting an absent record is
	// not an error.
	Reset(ctx context.Context, chatID int64) error

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
