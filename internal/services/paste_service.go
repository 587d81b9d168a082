package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/snapbin/snapbin/models"
	"github.com/snapbin/snapbin/storage"
	"github.com/snapbin/snapbin/utils"
)

// PasteService is the paste lifecycle engine. It owns record creation, the
// atomic consume-view protocol and expiry enforcement, built entirely out of
// the store's atomic primitives. There is no background sweeper: expired
// records are detected and deleted lazily by whichever consumer trips over
// them.
//
// Every operation takes the current instant as a parameter instead of
// reading a clock, so time expiry is deterministic under test.
type PasteService struct {
	store storage.PasteStore

	// NewID generates public ids; replaceable in tests.
	NewID func() (string, error)
}

// NewPasteService creates a new paste lifecycle engine on top of a store.
func NewPasteService(store storage.PasteStore) *PasteService {
	return &PasteService{
		store: store,
		NewID: utils.NewID,
	}
}

// PasteView is what a successful consume returns to the caller.
// RemainingViews is the post-decrement budget, nil for unlimited pastes.
type PasteView struct {
	Content        string
	CreatedAt      int64
	ExpiresAt      *int64
	RemainingViews *int64
}

// Create validates input and writes a new record under a fresh id in a
// single multi-field store operation. ttlSeconds and maxViews are optional;
// when present both must be strictly positive.
//
// The id is not probed for collisions before writing: at 8 chars over a
// 64-symbol alphabet the space is ~2^48 and a collision would overwrite.
// Known gap, kept so creation stays one atomic write.
func (s *PasteService) Create(ctx context.Context, content string, ttlSeconds, maxViews *int64, now int64) (string, error) {
	if content == "" {
		return "", &ValidationError{Reason: "content cannot be empty"}
	}
	if ttlSeconds != nil && *ttlSeconds <= 0 {
		return "", &ValidationError{Reason: "ttl_seconds must be a positive number"}
	}
	if maxViews != nil && *maxViews <= 0 {
		return "", &ValidationError{Reason: "max_views must be a positive integer"}
	}

	id, err := s.NewID()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}

	paste := &models.Paste{
		ID:        id,
		Content:   content,
		CreatedAt: now,
	}
	if ttlSeconds != nil {
		expiresAt := now + *ttlSeconds*1000
		paste.ExpiresAt = &expiresAt
	}
	if maxViews != nil {
		mv := *maxViews
		remaining := mv
		paste.MaxViews = &mv
		paste.RemainingViews = &remaining
	}

	if err := s.store.Put(ctx, paste); err != nil {
		return "", fmt.Errorf("store paste: %w", err)
	}

	return id, nil
}

// ConsumeView performs one read of a paste under the consume protocol:
// check existence, enforce time expiry, spend one unit of the view budget
// via the store's atomic decrement, and return the content or a terminal
// error. It is safe under any number of concurrent callers on the same id,
// in and across processes: a paste created with max_views=N delivers content
// to exactly N successful consumers.
func (s *PasteService) ConsumeView(ctx context.Context, id string, now int64) (*PasteView, error) {
	paste, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("read paste %s: %w", id, err)
	}
	if paste == nil {
		return nil, ErrNotFound
	}

	if paste.ExpiredAt(now) {
		s.cleanup(ctx, id, "expired")
		return nil, ErrExpired
	}

	// A record observed with a negative budget is logically dead: either a
	// peer drove it negative and has not finished cleanup, or a decrement
	// against a just-deleted key left a counter-only stub behind (Redis and
	// DynamoDB materialize those). Never serve it; delete it.
	if paste.RemainingViews != nil && *paste.RemainingViews < 0 {
		s.cleanup(ctx, id, "exhausted")
		return nil, ErrViewLimitExceeded
	}

	if paste.ViewLimited() {
		// The decremented value decides who gets content. Each concurrent
		// caller observes a distinct result; values >= 0 are the entitled
		// readers, values < 0 arrived after the budget was spent. The
		// counter goes transiently negative in storage, but no caller ever
		// sees it without decrementing first.
		remaining, err := s.store.IncrViews(ctx, id, -1)
		if err != nil {
			if errors.Is(err, storage.ErrRecordMissing) {
				// Deleted concurrently between Get and the decrement.
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("decrement views for paste %s: %w", id, err)
		}
		if remaining < 0 {
			s.cleanup(ctx, id, "view limit exceeded")
			return nil, ErrViewLimitExceeded
		}
		paste.RemainingViews = &remaining
	}

	return &PasteView{
		Content:        paste.Content,
		CreatedAt:      paste.CreatedAt,
		ExpiresAt:      paste.ExpiresAt,
		RemainingViews: paste.RemainingViews,
	}, nil
}

// Delete removes a paste regardless of its state.
func (s *PasteService) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// cleanup deletes a dead record best-effort. Deletion is idempotent, so
// concurrent consumers racing into the same terminal condition may all call
// it; a failure is only logged because the next read re-evaluates the
// terminal condition from scratch and retries the delete.
func (s *PasteService) cleanup(ctx context.Context, id, reason string) {
	if err := s.store.Delete(ctx, id); err != nil {
		log.Printf("[ERROR] failed to delete %s paste %s: %v", reason, id, err)
	}
}
