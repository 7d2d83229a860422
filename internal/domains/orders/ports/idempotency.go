package ports

import (
	"context"
	"errors"
	"time"
)

// ErrIdempotencyConflict indicates the key was already used by another identity.
var ErrIdempotencyConflict = errors.New("idempotency conflict")

// IdempotencyRecord links a client-supplied checkout key to the order it produced.
type IdempotencyRecord struct {
	Key       string
	TokenHash string
	OrderID   int64
	CreatedAt time.Time
}

// IdempotencyStore persists checkout keys so retries replay the first receipt.
type IdempotencyStore interface {
	// Get returns the stored record for the key, or nil when unknown.
	Get(ctx context.Context, key string) (*IdempotencyRecord, error)
	// Save persists the record. An existing identical record is returned as
	// is; a different one yields ErrIdempotencyConflict with the stored record.
	Save(ctx context.Context, record IdempotencyRecord) (*IdempotencyRecord, error)
	// PurgeOlderThan deletes records created before cutoff.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}
