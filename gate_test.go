package bastion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestRequirePermissionNilPrincipal(t *testing.T) {
	eng, _ := newTestEngine(t)

	if err := eng.RequirePermission(context.Background(), nil, []string{"order:read"}); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestRequirePermissionAnyOf(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	p := &Principal{SubjectID: "u1", Permissions: []string{"order:read"}}

	if err := eng.RequirePermission(ctx, p, []string{"order:cancel", "order:read"}); err != nil {
		t.Errorf("any-of should pass with one held permission: %v", err)
	}
	if err := eng.RequirePermission(ctx, p, []string{"order:cancel", "order:export"}); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestRequirePermissionRequireAll(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	p := &Principal{SubjectID: "u1", Permissions: []string{"order:read", "order:cancel"}}

	if err := eng.RequirePermission(ctx, p, []string{"order:read", "order:cancel"}, RequireAll()); err != nil {
		t.Errorf("all held, should pass: %v", err)
	}
	if err := eng.RequirePermission(ctx, p, []string{"order:read", "order:export"}, RequireAll()); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestRequirePermissionWildcardSnapshot(t *testing.T) {
	eng, _ := newTestEngine(t)
	p := &Principal{SubjectID: "u1", Permissions: []string{"*:read"}}

	if err := eng.RequirePermission(context.Background(), p, []string{"order:read"}); err != nil {
		t.Errorf("*:read snapshot should grant order:read: %v", err)
	}
	if err := eng.RequirePermission(context.Background(), p, []string{"order:write"}); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden for order:write, got %v", err)
	}
}

func TestRequirePermissionLive(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	grantAndAssign(t, eng, "u1", "ops", "infra:restart")

	// The stale snapshot has nothing, but the store grants it.
	p := &Principal{SubjectID: "u1"}
	if err := eng.RequirePermission(ctx, p, []string{"infra:restart"}); !errors.Is(err, ErrForbidden) {
		t.Errorf("snapshot check should fail, got %v", err)
	}
	if err := eng.RequirePermission(ctx, p, []string{"infra:restart"}, Live()); err != nil {
		t.Errorf("live check should pass: %v", err)
	}
}

func TestRequirePermissionSuperuser(t *testing.T) {
	eng, _ := newTestEngine(t)
	p := &Principal{SubjectID: "root", IsSuperuser: true}

	if err := eng.RequirePermission(context.Background(), p, []string{"anything:at-all"}); err != nil {
		t.Errorf("superuser should pass: %v", err)
	}
	if err := eng.RequireRole(context.Background(), p, "whatever"); err != nil {
		t.Errorf("superuser should pass role gates: %v", err)
	}
}

func TestRequireRole(t *testing.T) {
	eng, _ := newTestEngine(t)
	p := &Principal{SubjectID: "u1", Roles: []string{"support", "viewer"}}

	if err := eng.RequireRole(context.Background(), p, "admin", "support"); err != nil {
		t.Errorf("intersection non-empty, should pass: %v", err)
	}
	if err := eng.RequireRole(context.Background(), p, "admin"); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if err := eng.RequireRole(context.Background(), nil, "admin"); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestRequireOwnershipOrPermission(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	owner := &Principal{SubjectID: "u1"}
	if err := eng.RequireOwnershipOrPermission(ctx, owner, "u1", "order:read-any"); err != nil {
		t.Errorf("owner should pass: %v", err)
	}

	other := &Principal{SubjectID: "u2", Permissions: []string{"order:read-any"}}
	if err := eng.RequireOwnershipOrPermission(ctx, other, "u1", "order:read-any"); err != nil {
		t.Errorf("fallback permission should pass: %v", err)
	}

	neither := &Principal{SubjectID: "u3"}
	if err := eng.RequireOwnershipOrPermission(ctx, neither, "u1", "order:read-any"); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}

	// Empty owner never matches, even for a subject with empty ID.
	anon := &Principal{SubjectID: ""}
	if err := eng.RequireOwnershipOrPermission(ctx, anon, ""); !errors.Is(err, ErrForbidden) {
		t.Errorf("empty owner must not match, got %v", err)
	}
}

func TestRequireResourcePermission(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	p := &Principal{SubjectID: "u1", Permissions: []string{"order:read", "order:update"}}

	tests := []struct {
		method string
		ok     bool
	}{
		{http.MethodGet, true},
		{http.MethodHead, true},
		{http.MethodPut, true},
		{http.MethodPatch, true},
		{http.MethodPost, false},
		{http.MethodDelete, false},
	}
	for _, tt := range tests {
		err := eng.RequireResourcePermission(ctx, p, "order", tt.method)
		if tt.ok && err != nil {
			t.Errorf("%s: expected pass, got %v", tt.method, err)
		}
		if !tt.ok && !errors.Is(err, ErrForbidden) {
			t.Errorf("%s: expected ErrForbidden, got %v", tt.method, err)
		}
	}

	if err := eng.RequireResourcePermission(ctx, p, "order", "TRACE"); !errors.Is(err, ErrMethodNotAllowed) {
		t.Errorf("expected ErrMethodNotAllowed, got %v", err)
	}
}

func TestRequireAny(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	p := &Principal{SubjectID: "u1", Roles: []string{"support"}}

	pass := func(_ context.Context, _ *Principal) error { return nil }
	fail := func(_ context.Context, _ *Principal) error { return ErrForbidden }

	if err := eng.RequireAny(ctx, p, fail, pass); err != nil {
		t.Errorf("one passing gate should suffice: %v", err)
	}
	if err := eng.RequireAny(ctx, p, fail, fail); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
	if err := eng.RequireAny(ctx, p); !errors.Is(err, ErrForbidden) {
		t.Errorf("no gates should reject, got %v", err)
	}
}

func TestRequireDynamicPermission(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	p := &Principal{SubjectID: "u1", Permissions: []string{"report:export"}}

	derive := func(_ context.Context) ([]string, error) { return []string{"report:export"}, nil }
	if err := eng.RequireDynamicPermission(ctx, p, derive); err != nil {
		t.Errorf("derived permission held, should pass: %v", err)
	}

	// Any one of several derived names suffices.
	many := func(_ context.Context) ([]string, error) {
		return []string{"report:delete", "report:export"}, nil
	}
	if err := eng.RequireDynamicPermission(ctx, p, many); err != nil {
		t.Errorf("one of the derived permissions held, should pass: %v", err)
	}

	failing := func(_ context.Context) ([]string, error) { return nil, fmt.Errorf("lookup broke") }
	err := eng.RequireDynamicPermission(ctx, p, failing)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err.Error() != ErrForbidden.Error() {
		t.Errorf("derivation error must not leak, got %q", err.Error())
	}
}

func TestRequireOwnershipOrPermissionFunc(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	fromRecord := func(_ context.Context) (string, error) { return "u1", nil }

	owner := &Principal{SubjectID: "u1"}
	if err := eng.RequireOwnershipOrPermissionFunc(ctx, owner, fromRecord, "order:read-any"); err != nil {
		t.Errorf("resolved owner should pass: %v", err)
	}

	other := &Principal{SubjectID: "u2", Permissions: []string{"order:read-any"}}
	if err := eng.RequireOwnershipOrPermissionFunc(ctx, other, fromRecord, "order:read-any"); err != nil {
		t.Errorf("fallback permission should pass: %v", err)
	}

	// A broken resolver forfeits the ownership half but the fallback
	// permission can still allow.
	broken := func(_ context.Context) (string, error) { return "", fmt.Errorf("record gone") }
	if err := eng.RequireOwnershipOrPermissionFunc(ctx, other, broken, "order:read-any"); err != nil {
		t.Errorf("fallback should survive a resolver failure: %v", err)
	}
	if err := eng.RequireOwnershipOrPermissionFunc(ctx, owner, broken, "order:read-any"); !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}

	if err := eng.RequireOwnershipOrPermissionFunc(ctx, nil, fromRecord, "order:read-any"); !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestRequirePermissionLiveEmptySubject(t *testing.T) {
	eng, _ := newTestEngine(t)

	p := &Principal{SubjectID: "", Permissions: []string{"order:read"}}
	err := eng.RequirePermission(context.Background(), p, []string{"order:read"}, Live())
	if !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
}
