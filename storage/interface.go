package storage

import (
	"context"
	"errors"

	"github.com/snapbin/snapbin/models"
)

// ErrRecordMissing is returned by IncrViews when the backend can tell the
// record vanished before the increment applied. Backends whose increment
// primitive materializes a counter on an absent key (Redis, DynamoDB) never
// return it; the negative result routes the caller into cleanup instead.
var ErrRecordMissing = errors.New("record missing")

// PasteStore defines the key-value contract paste backends must provide.
// Every mutation is a single store-side atomic operation; the lifecycle
// engine builds the whole consume protocol out of these four primitives plus
// a liveness probe.
type PasteStore interface {
	// Put writes the full record in one multi-field operation. Writing an
	// existing id overwrites it.
	Put(ctx context.Context, paste *models.Paste) error

	// Get reads the full record. It returns (nil, nil) when the id is
	// absent and performs no expiry logic of its own.
	Get(ctx context.Context, id string) (*models.Paste, error)

	// IncrViews atomically adds delta to the record's remaining-views
	// counter and returns the resulting value. Concurrent callers observe
	// a strict total order of results: no two callers see the same value
	// for the same logical decrement.
	IncrViews(ctx context.Context, id string, delta int64) (int64, error)

	// Delete removes the record. Deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error

	// Ping probes backend liveness for the health endpoint.
	Ping(ctx context.Context) error

	// Close releases the backend connection.
	Close() error
}
