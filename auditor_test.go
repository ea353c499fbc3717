package bastion

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/xraph/bastion/audit"
	"github.com/xraph/bastion/id"
)

// recordingAuditStore captures created entries for assertions.
type recordingAuditStore struct {
	mu      sync.Mutex
	entries []*audit.Entry
	fail    bool
}

func (s *recordingAuditStore) CreateAuditEntry(_ context.Context, e *audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errors.New("store down")
	}
	s.entries = append(s.entries, e)
	return nil
}

func (s *recordingAuditStore) GetAuditEntry(context.Context, id.AuditLogID) (*audit.Entry, error) {
	return nil, ErrAuditEntryNotFound
}

func (s *recordingAuditStore) ListAuditEntries(context.Context, *audit.QueryFilter) ([]*audit.Entry, error) {
	return nil, nil
}

func (s *recordingAuditStore) CountAuditEntries(context.Context, *audit.QueryFilter) (int64, error) {
	return 0, nil
}

func (s *recordingAuditStore) PurgeAuditEntries(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func (s *recordingAuditStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func TestAuditorFlushOnStop(t *testing.T) {
	store := &recordingAuditStore{}
	a := NewAuditor(store, slog.Default(), 16)
	a.Start()

	for i := 0; i < 5; i++ {
		a.Emit(&audit.Entry{UserID: "admin_1", Action: audit.ActionCreate, Resource: "role"})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := a.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if got := store.count(); got != 5 {
		t.Fatalf("expected 5 persisted entries, got %d", got)
	}
}

func TestAuditorFillsIDAndTimestamp(t *testing.T) {
	store := &recordingAuditStore{}
	a := NewAuditor(store, slog.Default(), 4)
	a.Start()

	a.Emit(&audit.Entry{UserID: "admin_1", Action: audit.ActionDelete, Resource: "permission"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := a.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if store.count() != 1 {
		t.Fatal("entry not persisted")
	}
	e := store.entries[0]
	if e.ID.IsNil() {
		t.Error("entry ID not populated")
	}
	if e.CreatedAt.IsZero() {
		t.Error("entry CreatedAt not populated")
	}
}

func TestAuditorStoreFailureDoesNotPanic(t *testing.T) {
	store := &recordingAuditStore{fail: true}
	a := NewAuditor(store, slog.Default(), 4)
	a.Start()

	a.Emit(&audit.Entry{UserID: "admin_1", Action: audit.ActionUpdate, Resource: "menu"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := a.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestAuditorDropsAfterStop(t *testing.T) {
	store := &recordingAuditStore{}
	a := NewAuditor(store, slog.Default(), 4)
	a.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := a.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	a.Emit(&audit.Entry{UserID: "admin_1", Action: audit.ActionCreate, Resource: "role"})
	if got := store.count(); got != 0 {
		t.Fatalf("entry emitted after Stop should be dropped, got %d persisted", got)
	}
}
