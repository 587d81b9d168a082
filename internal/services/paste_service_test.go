package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/snapbin/snapbin/models"
	"github.com/snapbin/snapbin/storage"
)

func int64p(v int64) *int64 { return &v }

func newTestService() (*PasteService, *storage.MemoryStore) {
	store := storage.NewMemoryStore()
	return NewPasteService(store), store
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		ttl      *int64
		maxViews *int64
	}{
		{"empty content", "", nil, nil},
		{"zero ttl", "hello", int64p(0), nil},
		{"negative ttl", "hello", int64p(-5), nil},
		{"zero max_views", "hello", nil, int64p(0)},
		{"negative max_views", "hello", nil, int64p(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, store := newTestService()

			_, err := service.Create(context.Background(), tt.content, tt.ttl, tt.maxViews, 1_000_000)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if store.Len() != 0 {
				t.Errorf("validation failure must not create a record, store has %d", store.Len())
			}
		})
	}
}

func TestCreateStampsRecord(t *testing.T) {
	service, store := newTestService()
	now := int64(1_700_000_000_000)

	id, err := service.Create(context.Background(), "hello", int64p(10), int64p(3), now)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(id) != 8 {
		t.Errorf("id length = %d, want 8", len(id))
	}

	paste, err := store.Get(context.Background(), id)
	if err != nil || paste == nil {
		t.Fatalf("stored paste not readable: %v", err)
	}
	if paste.CreatedAt != now {
		t.Errorf("CreatedAt = %d, want %d", paste.CreatedAt, now)
	}
	if paste.ExpiresAt == nil || *paste.ExpiresAt != now+10_000 {
		t.Errorf("ExpiresAt = %v, want %d", paste.ExpiresAt, now+10_000)
	}
	if paste.MaxViews == nil || *paste.MaxViews != 3 {
		t.Errorf("MaxViews = %v, want 3", paste.MaxViews)
	}
	if paste.RemainingViews == nil || *paste.RemainingViews != 3 {
		t.Errorf("RemainingViews = %v, want 3", paste.RemainingViews)
	}
}

func TestRoundTripUnlimited(t *testing.T) {
	service, _ := newTestService()
	now := int64(1_700_000_000_000)

	id, err := service.Create(context.Background(), "hello", nil, nil, now)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// An unlimited paste serves any number of reads unchanged.
	for i := 0; i < 2; i++ {
		view, err := service.ConsumeView(context.Background(), id, now+int64(i))
		if err != nil {
			t.Fatalf("ConsumeView #%d failed: %v", i+1, err)
		}
		if view.Content != "hello" {
			t.Errorf("Content = %q, want hello", view.Content)
		}
		if view.RemainingViews != nil {
			t.Errorf("RemainingViews = %v, want nil for unlimited paste", view.RemainingViews)
		}
		if view.ExpiresAt != nil {
			t.Errorf("ExpiresAt = %v, want nil for paste without ttl", view.ExpiresAt)
		}
	}
}

func TestConsumeNotFound(t *testing.T) {
	service, _ := newTestService()

	_, err := service.ConsumeView(context.Background(), "nosuchid", 1_000_000)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTimeExpiryIsExactAndLazy(t *testing.T) {
	service, store := newTestService()
	t0 := int64(1_700_000_000_000)

	id, err := service.Create(context.Background(), "ephemeral", int64p(10), nil, t0)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Any instant strictly before t0+10000 serves content.
	if _, err := service.ConsumeView(context.Background(), id, t0+9_999); err != nil {
		t.Fatalf("consume just before expiry failed: %v", err)
	}

	// The boundary instant and everything after fail, and the first such
	// read deletes the record.
	if _, err := service.ConsumeView(context.Background(), id, t0+10_000); !errors.Is(err, ErrExpired) {
		t.Errorf("consume at expiry: expected ErrExpired, got %v", err)
	}
	if store.Len() != 0 {
		t.Error("expired paste should have been deleted on read")
	}

	// Subsequent reads see plain absence.
	if _, err := service.ConsumeView(context.Background(), id, t0+20_000); !errors.Is(err, ErrNotFound) {
		t.Errorf("consume after deletion: expected ErrNotFound, got %v", err)
	}
}

func TestTimeExpiryBeatsViewBudget(t *testing.T) {
	service, store := newTestService()
	t0 := int64(1_700_000_000_000)

	id, err := service.Create(context.Background(), "both limits", int64p(10), int64p(100), t0)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Plenty of views left, but the clock wins.
	_, err = service.ConsumeView(context.Background(), id, t0+11_000)
	if !errors.Is(err, ErrExpired) {
		t.Errorf("expected ErrExpired, got %v", err)
	}
	if store.Len() != 0 {
		t.Error("expired paste should have been deleted despite remaining views")
	}
}

func TestViewLimitSequential(t *testing.T) {
	service, store := newTestService()
	now := int64(1_700_000_000_000)

	id, err := service.Create(context.Background(), "two reads only", nil, int64p(2), now)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	view, err := service.ConsumeView(context.Background(), id, now)
	if err != nil {
		t.Fatalf("first consume failed: %v", err)
	}
	if view.RemainingViews == nil || *view.RemainingViews != 1 {
		t.Errorf("first consume RemainingViews = %v, want 1", view.RemainingViews)
	}

	view, err = service.ConsumeView(context.Background(), id, now)
	if err != nil {
		t.Fatalf("second consume failed: %v", err)
	}
	if view.RemainingViews == nil || *view.RemainingViews != 0 {
		t.Errorf("second consume RemainingViews = %v, want 0", view.RemainingViews)
	}

	if _, err := service.ConsumeView(context.Background(), id, now); !errors.Is(err, ErrViewLimitExceeded) {
		t.Errorf("third consume: expected ErrViewLimitExceeded, got %v", err)
	}
	if store.Len() != 0 {
		t.Error("exhausted paste should have been deleted")
	}

	if _, err := service.ConsumeView(context.Background(), id, now); !errors.Is(err, ErrNotFound) {
		t.Errorf("fourth consume: expected ErrNotFound, got %v", err)
	}
}

func TestExactlyNConcurrentViews(t *testing.T) {
	service, store := newTestService()
	now := int64(1_700_000_000_000)

	id, err := service.Create(context.Background(), "contended", nil, int64p(2), now)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	const callers = 3
	results := make([]error, callers)
	remaining := make([]*int64, callers)

	var start, done sync.WaitGroup
	start.Add(1)
	done.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer done.Done()
			start.Wait()
			view, err := service.ConsumeView(context.Background(), id, now)
			results[i] = err
			if err == nil {
				remaining[i] = view.RemainingViews
			}
		}(i)
	}
	start.Done()
	done.Wait()

	var hits, exhausted int
	seen := make(map[int64]bool)
	for i := 0; i < callers; i++ {
		switch {
		case results[i] == nil:
			hits++
			if remaining[i] == nil {
				t.Errorf("caller %d got content without a remaining-views figure", i)
			} else {
				if seen[*remaining[i]] {
					t.Errorf("two callers observed the same remaining value %d", *remaining[i])
				}
				seen[*remaining[i]] = true
			}
		case errors.Is(results[i], ErrViewLimitExceeded):
			exhausted++
		default:
			t.Errorf("caller %d got unexpected error %v", i, results[i])
		}
	}

	if hits != 2 {
		t.Errorf("hits = %d, want exactly 2", hits)
	}
	if exhausted != 1 {
		t.Errorf("exhausted callers = %d, want 1", exhausted)
	}
	if !seen[0] || !seen[1] {
		t.Errorf("remaining values seen = %v, want {0, 1}", seen)
	}
	if store.Len() != 0 {
		t.Error("record should be absent after oversubscription")
	}
}

func TestManyConcurrentCallersExactBudget(t *testing.T) {
	service, _ := newTestService()
	now := int64(1_700_000_000_000)

	const budget = 5
	const callers = 50

	id, err := service.Create(context.Background(), "heavy contention", nil, int64p(budget), now)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	results := make([]error, callers)
	var start, done sync.WaitGroup
	start.Add(1)
	done.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer done.Done()
			start.Wait()
			_, results[i] = service.ConsumeView(context.Background(), id, now)
		}(i)
	}
	start.Done()
	done.Wait()

	var hits int
	for _, err := range results {
		if err == nil {
			hits++
		} else if !errors.Is(err, ErrViewLimitExceeded) && !errors.Is(err, ErrNotFound) {
			t.Errorf("unexpected error under contention: %v", err)
		}
	}
	if hits != budget {
		t.Errorf("hits = %d, want exactly %d", hits, budget)
	}
}

func TestUnlimitedViewsNeverExhaust(t *testing.T) {
	service, _ := newTestService()
	now := int64(1_700_000_000_000)

	id, err := service.Create(context.Background(), "forever", nil, nil, now)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	for i := 0; i < 200; i++ {
		if _, err := service.ConsumeView(context.Background(), id, now); err != nil {
			t.Fatalf("consume #%d failed: %v", i+1, err)
		}
	}
}

func TestDeleteIdempotent(t *testing.T) {
	service, store := newTestService()
	now := int64(1_700_000_000_000)

	id, err := service.Create(context.Background(), "survivor", nil, nil, now)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Deleting an id that never existed is not an error and leaves other
	// records alone.
	if err := service.Delete(context.Background(), "neverwas"); err != nil {
		t.Errorf("deleting absent id: %v", err)
	}
	if err := service.Delete(context.Background(), "neverwas"); err != nil {
		t.Errorf("double delete of absent id: %v", err)
	}
	if store.Len() != 1 {
		t.Errorf("unrelated record affected by deletes, store has %d", store.Len())
	}
	if _, err := service.ConsumeView(context.Background(), id, now); err != nil {
		t.Errorf("unrelated record unreadable after deletes: %v", err)
	}
}

// failingStore wraps MemoryStore and fails selected operations.
type failingStore struct {
	*storage.MemoryStore
	failGet    bool
	failDelete bool
	failIncr   bool
}

var errStoreDown = errors.New("store down")

func (f *failingStore) Get(ctx context.Context, id string) (*models.Paste, error) {
	if f.failGet {
		return nil, errStoreDown
	}
	return f.MemoryStore.Get(ctx, id)
}

func (f *failingStore) Delete(ctx context.Context, id string) error {
	if f.failDelete {
		return errStoreDown
	}
	return f.MemoryStore.Delete(ctx, id)
}

func (f *failingStore) IncrViews(ctx context.Context, id string, delta int64) (int64, error) {
	if f.failIncr {
		return 0, errStoreDown
	}
	return f.MemoryStore.IncrViews(ctx, id, delta)
}

func TestStoreFailureIsNotTerminal(t *testing.T) {
	fs := &failingStore{MemoryStore: storage.NewMemoryStore(), failGet: true}
	service := NewPasteService(fs)

	_, err := service.ConsumeView(context.Background(), "whatever", 1_000_000)
	if err == nil {
		t.Fatal("expected error from failing store")
	}
	if IsUnavailable(err) {
		t.Errorf("store failure must not masquerade as a terminal outcome: %v", err)
	}
	if !errors.Is(err, errStoreDown) {
		t.Errorf("store error not wrapped: %v", err)
	}
}

func TestCleanupFailureDoesNotMaskOutcome(t *testing.T) {
	fs := &failingStore{MemoryStore: storage.NewMemoryStore()}
	service := NewPasteService(fs)
	t0 := int64(1_700_000_000_000)

	id, err := service.Create(context.Background(), "sticky", int64p(1), nil, t0)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Deletion fails, but the caller still gets the expired outcome; the
	// record stays behind for a later read to clean up.
	fs.failDelete = true
	if _, err := service.ConsumeView(context.Background(), id, t0+5_000); !errors.Is(err, ErrExpired) {
		t.Errorf("expected ErrExpired despite delete failure, got %v", err)
	}
	if fs.MemoryStore.Len() != 1 {
		t.Error("record should still exist after failed cleanup")
	}

	// Next read retries the cleanup once the store recovers.
	fs.failDelete = false
	if _, err := service.ConsumeView(context.Background(), id, t0+5_000); !errors.Is(err, ErrExpired) {
		t.Errorf("expected ErrExpired on retry, got %v", err)
	}
	if fs.MemoryStore.Len() != 0 {
		t.Error("record should be deleted on the retried read")
	}
}

func TestConcurrentDeleteDuringDecrement(t *testing.T) {
	// A caller whose decrement lands on a record Mongo reports missing gets
	// NotFound, the same end state the deleting caller produced.
	fs := &missingOnIncrStore{MemoryStore: storage.NewMemoryStore()}
	service := NewPasteService(fs)
	now := int64(1_700_000_000_000)

	id, err := service.Create(context.Background(), "racy", nil, int64p(1), now)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := service.ConsumeView(context.Background(), id, now); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound when record vanishes mid-protocol, got %v", err)
	}
}

type missingOnIncrStore struct {
	*storage.MemoryStore
}

func (m *missingOnIncrStore) IncrViews(ctx context.Context, id string, delta int64) (int64, error) {
	return 0, storage.ErrRecordMissing
}

func TestNegativeBudgetRecordNeverServed(t *testing.T) {
	// A counter-only stub left behind by a decrement against a deleted key
	// (Redis HINCRBY semantics) must read as dead, not as an unlimited
	// paste, and the reader that finds it cleans it up.
	service, store := newTestService()
	now := int64(1_700_000_000_000)

	if _, err := store.IncrViews(context.Background(), "stubstub", -1); err != nil {
		t.Fatalf("IncrViews failed: %v", err)
	}

	if _, err := service.ConsumeView(context.Background(), "stubstub", now); !errors.Is(err, ErrViewLimitExceeded) {
		t.Errorf("expected ErrViewLimitExceeded for stub record, got %v", err)
	}
	if store.Len() != 0 {
		t.Error("stub record should have been deleted")
	}
}

func TestCreateIDGeneratorFailure(t *testing.T) {
	service, store := newTestService()
	service.NewID = func() (string, error) {
		return "", fmt.Errorf("entropy exhausted")
	}

	_, err := service.Create(context.Background(), "hello", nil, nil, 1_000_000)
	if err == nil {
		t.Fatal("expected error when id generation fails")
	}
	if store.Len() != 0 {
		t.Error("no record should be written when id generation fails")
	}
}
