package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/bastion/assignment"
	"github.com/xraph/bastion/audit"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/menu"
	"github.com/xraph/bastion/permission"
	"github.com/xraph/bastion/resource"
	"github.com/xraph/bastion/role"
	"github.com/xraph/bastion/store"
)

// Compile-time check that *Store implements store.Store.
var _ store.Store = (*Store)(nil)

func newRole(name string) *role.Role {
	now := time.Now().UTC()
	return &role.Role{
		ID:        id.NewRoleID(),
		Name:      name,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newPermission(res, action string) *permission.Permission {
	now := time.Now().UTC()
	return &permission.Permission{
		ID:        id.NewPermissionID(),
		Name:      permission.FormatName(res, action),
		Resource:  res,
		Action:    action,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestRoleCRUD(t *testing.T) {
	ctx := context.Background()
	s := New()

	r := newRole("admin")
	if err := s.CreateRole(ctx, r); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetRole(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "admin" {
		t.Errorf("expected name admin, got %s", got.Name)
	}

	byName, err := s.GetRoleByName(ctx, "admin")
	if err != nil {
		t.Fatal(err)
	}
	if byName.ID != r.ID {
		t.Error("GetRoleByName returned wrong role")
	}

	got.Description = "full access"
	if err := s.UpdateRole(ctx, got); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteRole(ctx, r.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetRole(ctx, r.ID); !errors.Is(err, role.ErrNotFound) {
		t.Errorf("expected role.ErrNotFound, got %v", err)
	}
}

func TestRoleDuplicateName(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.CreateRole(ctx, newRole("editor")); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateRole(ctx, newRole("editor")); !errors.Is(err, role.ErrDuplicate) {
		t.Errorf("expected role.ErrDuplicate, got %v", err)
	}
}

func TestGrantLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New()

	r := newRole("editor")
	if err := s.CreateRole(ctx, r); err != nil {
		t.Fatal(err)
	}
	p1 := newPermission("order", "read")
	p2 := newPermission("order", "update")
	for _, p := range []*permission.Permission{p1, p2} {
		if err := s.CreatePermission(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.AttachPermission(ctx, r.ID, p1.ID, "admin_1"); err != nil {
		t.Fatal(err)
	}
	// Re-attach is a no-op.
	if err := s.AttachPermission(ctx, r.ID, p1.ID, "admin_2"); err != nil {
		t.Fatal(err)
	}

	grants, err := s.ListRoleGrants(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(grants) != 1 || grants[0].GrantedBy != "admin_1" {
		t.Fatalf("expected 1 grant by admin_1, got %+v", grants)
	}

	if err := s.SetRolePermissions(ctx, r.ID, []id.PermissionID{p1.ID, p2.ID}, "admin_2"); err != nil {
		t.Fatal(err)
	}
	perms, err := s.ListPermissionsByRole(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(perms) != 2 {
		t.Fatalf("expected 2 permissions, got %d", len(perms))
	}

	n, err := s.CountRolesByPermission(ctx, p1.ID)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 role using p1, got %d", n)
	}

	if err := s.DetachPermission(ctx, r.ID, p1.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.DetachPermission(ctx, r.ID, p1.ID); !errors.Is(err, permission.ErrNotFound) {
		t.Errorf("expected permission.ErrNotFound on second detach, got %v", err)
	}
}

func TestSetRolePermissionsKeepsExistingGrantRows(t *testing.T) {
	ctx := context.Background()
	s := New()

	r := newRole("viewer")
	if err := s.CreateRole(ctx, r); err != nil {
		t.Fatal(err)
	}
	p := newPermission("report", "read")
	if err := s.CreatePermission(ctx, p); err != nil {
		t.Fatal(err)
	}
	if err := s.AttachPermission(ctx, r.ID, p.ID, "admin_1"); err != nil {
		t.Fatal(err)
	}

	if err := s.SetRolePermissions(ctx, r.ID, []id.PermissionID{p.ID}, "admin_2"); err != nil {
		t.Fatal(err)
	}
	grants, err := s.ListRoleGrants(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(grants) != 1 || grants[0].GrantedBy != "admin_1" {
		t.Fatalf("surviving grant should keep its original row, got %+v", grants)
	}
}

func TestListPermissionsForUserSkipsInactiveRoles(t *testing.T) {
	ctx := context.Background()
	s := New()

	active := newRole("support")
	inactive := newRole("legacy")
	inactive.IsActive = false
	for _, r := range []*role.Role{active, inactive} {
		if err := s.CreateRole(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	pActive := newPermission("ticket", "read")
	pInactive := newPermission("ticket", "delete")
	for _, p := range []*permission.Permission{pActive, pInactive} {
		if err := s.CreatePermission(ctx, p); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.AttachPermission(ctx, active.ID, pActive.ID, ""); err != nil {
		t.Fatal(err)
	}
	if err := s.AttachPermission(ctx, inactive.ID, pInactive.ID, ""); err != nil {
		t.Fatal(err)
	}

	for _, r := range []*role.Role{active, inactive} {
		a := &assignment.Assignment{ID: id.NewAssignmentID(), RoleID: r.ID, UserID: "u1", AssignedAt: time.Now()}
		if err := s.CreateAssignment(ctx, a); err != nil {
			t.Fatal(err)
		}
	}

	perms, err := s.ListPermissionsForUser(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(perms) != 1 || perms[0].Name != "ticket:read" {
		t.Fatalf("expected only ticket:read, got %+v", perms)
	}
}

func TestAssignmentDuplicate(t *testing.T) {
	ctx := context.Background()
	s := New()

	r := newRole("viewer")
	if err := s.CreateRole(ctx, r); err != nil {
		t.Fatal(err)
	}
	a := &assignment.Assignment{ID: id.NewAssignmentID(), RoleID: r.ID, UserID: "u1", AssignedAt: time.Now()}
	if err := s.CreateAssignment(ctx, a); err != nil {
		t.Fatal(err)
	}
	dup := &assignment.Assignment{ID: id.NewAssignmentID(), RoleID: r.ID, UserID: "u1", AssignedAt: time.Now()}
	if err := s.CreateAssignment(ctx, dup); !errors.Is(err, assignment.ErrDuplicate) {
		t.Errorf("expected assignment.ErrDuplicate, got %v", err)
	}

	removed, err := s.DeleteAssignmentByUserRole(ctx, "u1", r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if removed.ID != a.ID {
		t.Error("removed wrong assignment")
	}
	if _, err := s.DeleteAssignmentByUserRole(ctx, "u1", r.ID); !errors.Is(err, assignment.ErrNotFound) {
		t.Errorf("expected assignment.ErrNotFound, got %v", err)
	}
}

func TestMenuPermissionUpsert(t *testing.T) {
	ctx := context.Background()
	s := New()

	m := &menu.Menu{ID: "dashboard", Title: "Dashboard", IsActive: true}
	if err := s.CreateMenu(ctx, m); err != nil {
		t.Fatal(err)
	}
	r := newRole("viewer")
	if err := s.CreateRole(ctx, r); err != nil {
		t.Fatal(err)
	}

	if err := s.SetMenuPermission(ctx, &menu.Permission{MenuID: "dashboard", RoleID: r.ID, CanView: true}); err != nil {
		t.Fatal(err)
	}
	// Upsert flips flags in place.
	if err := s.SetMenuPermission(ctx, &menu.Permission{MenuID: "dashboard", RoleID: r.ID, CanView: true, CanEdit: true}); err != nil {
		t.Fatal(err)
	}

	perms, err := s.ListMenuPermissionsForRoles(ctx, []id.RoleID{r.ID})
	if err != nil {
		t.Fatal(err)
	}
	if len(perms) != 1 || !perms[0].CanEdit {
		t.Fatalf("expected single upserted binding with CanEdit, got %+v", perms)
	}

	if err := s.DeleteMenu(ctx, "dashboard"); err != nil {
		t.Fatal(err)
	}
	all, err := s.ListMenuPermissions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 0 {
		t.Errorf("bindings should be removed with their menu, got %+v", all)
	}
}

func TestResourceDuplicate(t *testing.T) {
	ctx := context.Background()
	s := New()

	r := &resource.Resource{ID: id.NewResourceID(), Name: "order"}
	if err := s.CreateResource(ctx, r); err != nil {
		t.Fatal(err)
	}
	dup := &resource.Resource{ID: id.NewResourceID(), Name: "order"}
	if err := s.CreateResource(ctx, dup); !errors.Is(err, resource.ErrDuplicate) {
		t.Errorf("expected resource.ErrDuplicate, got %v", err)
	}
}

func TestAuditPurge(t *testing.T) {
	ctx := context.Background()
	s := New()

	old := &audit.Entry{ID: id.NewAuditLogID(), UserID: "u1", Action: audit.ActionCreate, Resource: "role", CreatedAt: time.Now().Add(-48 * time.Hour)}
	recent := &audit.Entry{ID: id.NewAuditLogID(), UserID: "u1", Action: audit.ActionUpdate, Resource: "role", CreatedAt: time.Now()}
	for _, e := range []*audit.Entry{old, recent} {
		if err := s.CreateAuditEntry(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	n, err := s.PurgeAuditEntries(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("expected 1 purged entry, got %d", n)
	}
	remaining, err := s.ListAuditEntries(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 1 || remaining[0].ID != recent.ID {
		t.Errorf("expected only the recent entry to remain, got %+v", remaining)
	}
}

func TestListRolesPaginationAndCount(t *testing.T) {
	ctx := context.Background()
	s := New()

	for _, name := range []string{"alpha", "bravo", "charlie", "delta"} {
		if err := s.CreateRole(ctx, newRole(name)); err != nil {
			t.Fatal(err)
		}
	}

	page, err := s.ListRoles(ctx, &role.ListFilter{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 2 || page[0].Name != "bravo" || page[1].Name != "charlie" {
		t.Fatalf("unexpected page: %+v", page)
	}

	total, err := s.CountRoles(ctx, &role.ListFilter{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatal(err)
	}
	if total != 4 {
		t.Errorf("count must ignore pagination, got %d", total)
	}
}
