package bastion

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/menu"
	"github.com/xraph/bastion/role"
	"github.com/xraph/bastion/store/memory"
)

func newTestEngine(t *testing.T) (*Engine, *memory.Store) {
	t.Helper()
	s := memory.New()
	eng, err := NewEngine(WithStore(s))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return eng, s
}

func mustCreateRole(t *testing.T, eng *Engine, name string) *role.Role {
	t.Helper()
	r, err := eng.CreateRole(context.Background(), &CreateRoleInput{Name: name})
	if err != nil {
		t.Fatalf("CreateRole %s: %v", name, err)
	}
	return r
}

func mustCreatePermission(t *testing.T, eng *Engine, name string) id.PermissionID {
	t.Helper()
	p, err := eng.CreatePermission(context.Background(), &CreatePermissionInput{Name: name})
	if err != nil {
		t.Fatalf("CreatePermission %s: %v", name, err)
	}
	return p.ID
}

func grantAndAssign(t *testing.T, eng *Engine, userID, roleName string, permNames ...string) *role.Role {
	t.Helper()
	ctx := context.Background()
	r := mustCreateRole(t, eng, roleName)
	for _, name := range permNames {
		pid := mustCreatePermission(t, eng, name)
		if err := eng.AttachPermission(ctx, r.ID, pid); err != nil {
			t.Fatalf("AttachPermission %s: %v", name, err)
		}
	}
	if _, err := eng.AssignRole(ctx, userID, r.ID); err != nil {
		t.Fatalf("AssignRole: %v", err)
	}
	return r
}

func TestResolveEmptyForUnknownUser(t *testing.T) {
	eng, _ := newTestEngine(t)

	set, err := eng.Resolve(context.Background(), "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if len(set.Roles) != 0 || len(set.Permissions) != 0 || set.IsSuperuser {
		t.Errorf("unknown user should resolve to an empty set, got %+v", set)
	}
}

func TestCheckResourceWildcard(t *testing.T) {
	eng, _ := newTestEngine(t)
	grantAndAssign(t, eng, "u1", "user-admin", "user:*")

	result, err := eng.Check(context.Background(), &CheckRequest{UserID: "u1", Resource: "user", Action: "delete"})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Allowed {
		t.Fatalf("user:* should allow user:delete: %+v", result)
	}
	if result.MatchedGrant != "user:*" {
		t.Errorf("expected match via user:*, got %q", result.MatchedGrant)
	}
}

func TestCheckDeniesUngranted(t *testing.T) {
	eng, _ := newTestEngine(t)
	grantAndAssign(t, eng, "u1", "order-viewer", "order:read")

	allowed, err := eng.CanI(context.Background(), "u1", "order", "read")
	if err != nil {
		t.Fatal(err)
	}
	if !allowed {
		t.Error("order:read should be allowed")
	}

	allowed, err = eng.CanI(context.Background(), "u1", "order", "write")
	if err != nil {
		t.Fatal(err)
	}
	if allowed {
		t.Error("order:write should be denied")
	}
}

func TestSuperuserBypassesChecks(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	r := mustCreateRole(t, eng, "superuser")
	if _, err := eng.AssignRole(ctx, "root", r.ID); err != nil {
		t.Fatal(err)
	}

	set, err := eng.Resolve(ctx, "root")
	if err != nil {
		t.Fatal(err)
	}
	if !set.IsSuperuser {
		t.Fatal("superuser flag not set")
	}

	result, err := eng.Check(ctx, &CheckRequest{UserID: "root", Resource: "anything", Action: "purge"})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Allowed || result.MatchedGrant != "superuser" {
		t.Errorf("superuser should pass any check, got %+v", result)
	}
}

func TestEnforceReturnsForbidden(t *testing.T) {
	eng, _ := newTestEngine(t)

	err := eng.Enforce(context.Background(), &CheckRequest{UserID: "u1", Resource: "order", Action: "read"})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestSystemRoleImmutable(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	r, err := eng.CreateRole(ctx, &CreateRoleInput{Name: "platform-admin", IsSystem: true})
	if err != nil {
		t.Fatal(err)
	}
	pid := mustCreatePermission(t, eng, "platform:manage")

	desc := "x"
	if _, err := eng.UpdateRole(ctx, r.ID, &UpdateRoleInput{Description: &desc}); !errors.Is(err, ErrSystemRoleImmutable) {
		t.Errorf("update: expected ErrSystemRoleImmutable, got %v", err)
	}
	if err := eng.DeleteRole(ctx, r.ID); !errors.Is(err, ErrSystemRoleImmutable) {
		t.Errorf("delete: expected ErrSystemRoleImmutable, got %v", err)
	}
	if err := eng.AttachPermission(ctx, r.ID, pid); !errors.Is(err, ErrSystemRoleImmutable) {
		t.Errorf("attach: expected ErrSystemRoleImmutable, got %v", err)
	}
	if err := eng.SetRolePermissions(ctx, r.ID, []id.PermissionID{pid}); !errors.Is(err, ErrSystemRoleImmutable) {
		t.Errorf("replace: expected ErrSystemRoleImmutable, got %v", err)
	}
}

func TestCreatePermissionValidation(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	if _, err := eng.CreatePermission(ctx, &CreatePermissionInput{Name: "no-separator"}); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	// Wildcard resource is only storable as the global grant.
	if _, err := eng.CreatePermission(ctx, &CreatePermissionInput{Name: "*:read"}); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for *:read, got %v", err)
	}
	if _, err := eng.CreatePermission(ctx, &CreatePermissionInput{Name: "*:*"}); err != nil {
		t.Errorf("*:* should be storable, got %v", err)
	}

	mustCreatePermission(t, eng, "order:read")
	if _, err := eng.CreatePermission(ctx, &CreatePermissionInput{Name: "order:read"}); !errors.Is(err, ErrDuplicatePermission) {
		t.Errorf("expected ErrDuplicatePermission, got %v", err)
	}
}

func TestDeletePermissionInUse(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	r := mustCreateRole(t, eng, "viewer")
	pid := mustCreatePermission(t, eng, "report:read")
	if err := eng.AttachPermission(ctx, r.ID, pid); err != nil {
		t.Fatal(err)
	}

	if err := eng.DeletePermission(ctx, pid); !errors.Is(err, ErrPermissionInUse) {
		t.Fatalf("expected ErrPermissionInUse, got %v", err)
	}

	if err := eng.DetachPermission(ctx, r.ID, pid); err != nil {
		t.Fatal(err)
	}
	if err := eng.DeletePermission(ctx, pid); err != nil {
		t.Fatalf("delete after detach should succeed, got %v", err)
	}
}

func TestDeleteRoleCascades(t *testing.T) {
	eng, s := newTestEngine(t)
	ctx := context.Background()

	r := grantAndAssign(t, eng, "u1", "temp", "ticket:read")
	if err := s.CreateMenu(ctx, &menu.Menu{ID: "tickets", Title: "Tickets", IsActive: true}); err != nil {
		t.Fatal(err)
	}
	if _, err := eng.SetMenuPermission(ctx, &SetMenuPermissionInput{MenuID: "tickets", RoleID: r.ID, CanView: true}); err != nil {
		t.Fatal(err)
	}

	if err := eng.DeleteRole(ctx, r.ID); err != nil {
		t.Fatal(err)
	}

	set, err := eng.Resolve(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(set.Roles) != 0 || len(set.Permissions) != 0 {
		t.Errorf("assignments should be gone with the role, got %+v", set)
	}
	bindings, err := s.ListMenuPermissions(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(bindings) != 0 {
		t.Errorf("menu bindings should be gone with the role, got %+v", bindings)
	}
}

func TestBulkAssignPartialFailure(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	r := mustCreateRole(t, eng, "viewer")
	if _, err := eng.AssignRole(ctx, "u1", r.ID); err != nil {
		t.Fatal(err)
	}

	result, err := eng.BulkAssignRole(ctx, []string{"u1", "u2"}, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Succeeded) != 1 || result.Succeeded[0] != "u2" {
		t.Errorf("expected u2 to succeed, got %+v", result.Succeeded)
	}
	if len(result.Failed) != 1 || result.Failed[0].ID != "u1" {
		t.Errorf("expected u1 to fail as duplicate, got %+v", result.Failed)
	}
}

func TestBulkGrantPermissionsPartialFailure(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	r := mustCreateRole(t, eng, "editor")
	p1 := mustCreatePermission(t, eng, "article:read")
	p2 := mustCreatePermission(t, eng, "article:write")
	unknown := id.NewPermissionID()

	result, err := eng.BulkGrantPermissions(ctx, r.ID, []id.PermissionID{p1, unknown, p2})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Succeeded) != 2 {
		t.Errorf("expected 2 grants to succeed, got %+v", result.Succeeded)
	}
	if len(result.Failed) != 1 || result.Failed[0].ID != unknown.String() {
		t.Errorf("expected unknown permission to fail, got %+v", result.Failed)
	}

	perms, err := eng.ListRolePermissions(ctx, r.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(perms) != 2 {
		t.Errorf("expected 2 permissions on role, got %d", len(perms))
	}
}

func TestInactiveRoleDropsFromEffectiveSet(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()

	r := grantAndAssign(t, eng, "u1", "seasonal", "promo:manage")

	off := false
	if _, err := eng.UpdateRole(ctx, r.ID, &UpdateRoleInput{IsActive: &off}); err != nil {
		t.Fatal(err)
	}

	set, err := eng.Resolve(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(set.Roles) != 0 || len(set.Permissions) != 0 {
		t.Errorf("inactive role must not contribute, got %+v", set)
	}
}

func TestMenuTreeForUser(t *testing.T) {
	eng, s := newTestEngine(t)
	ctx := context.Background()

	for _, m := range []*menu.Menu{
		{ID: "dashboard", Title: "Dashboard", OrderIndex: 1, IsActive: true},
		{ID: "settings", Title: "Settings", OrderIndex: 2, IsActive: true},
		{ID: "settings-users", ParentID: "settings", Title: "Users", IsActive: true},
	} {
		if err := s.CreateMenu(ctx, m); err != nil {
			t.Fatal(err)
		}
	}

	r := grantAndAssign(t, eng, "u1", "ops", "ops:read")
	if _, err := eng.SetMenuPermission(ctx, &SetMenuPermissionInput{MenuID: "dashboard", RoleID: r.ID, CanView: true}); err != nil {
		t.Fatal(err)
	}
	// Visible child under an invisible parent stays hidden.
	if _, err := eng.SetMenuPermission(ctx, &SetMenuPermissionInput{MenuID: "settings-users", RoleID: r.ID, CanView: true}); err != nil {
		t.Fatal(err)
	}

	tree, err := eng.MenuTreeForUser(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(tree) != 1 || tree[0].ID != "dashboard" {
		t.Fatalf("expected only dashboard, got %+v", tree)
	}

	// Superuser sees everything with all flags.
	su := mustCreateRole(t, eng, "superuser")
	if _, err := eng.AssignRole(ctx, "root", su.ID); err != nil {
		t.Fatal(err)
	}
	full, err := eng.MenuTreeForUser(ctx, "root")
	if err != nil {
		t.Fatal(err)
	}
	if len(full) != 2 {
		t.Fatalf("superuser should see both roots, got %+v", full)
	}
	if !full[0].CanExport {
		t.Error("superuser nodes should carry all flags")
	}
}

func TestMenuDeleteGuards(t *testing.T) {
	eng, s := newTestEngine(t)
	ctx := context.Background()

	for _, m := range []*menu.Menu{
		{ID: "parent", Title: "Parent", IsActive: true},
		{ID: "child", ParentID: "parent", Title: "Child", IsActive: true},
	} {
		if err := s.CreateMenu(ctx, m); err != nil {
			t.Fatal(err)
		}
	}

	if err := eng.DeleteMenu(ctx, "parent"); !errors.Is(err, ErrMenuHasChildren) {
		t.Errorf("expected ErrMenuHasChildren, got %v", err)
	}
	if err := eng.DeleteMenu(ctx, "child"); err != nil {
		t.Fatal(err)
	}
	if err := eng.DeleteMenu(ctx, "parent"); err != nil {
		t.Fatal(err)
	}
}

func TestMenuReparentCycleRejected(t *testing.T) {
	eng, s := newTestEngine(t)
	ctx := context.Background()

	for _, m := range []*menu.Menu{
		{ID: "a", Title: "A", IsActive: true},
		{ID: "b", ParentID: "a", Title: "B", IsActive: true},
	} {
		if err := s.CreateMenu(ctx, m); err != nil {
			t.Fatal(err)
		}
	}

	child := "b"
	if _, err := eng.UpdateMenu(ctx, "a", &UpdateMenuInput{ParentID: &child}); !errors.Is(err, ErrValidation) {
		t.Errorf("reparenting under own descendant should fail, got %v", err)
	}
	self := "a"
	if _, err := eng.UpdateMenu(ctx, "a", &UpdateMenuInput{ParentID: &self}); !errors.Is(err, ErrValidation) {
		t.Errorf("self-parenting should fail, got %v", err)
	}
}

func TestListPermissionsGrouped(t *testing.T) {
	eng, _ := newTestEngine(t)

	for _, name := range []string{"user:read", "user:create", "order:read"} {
		mustCreatePermission(t, eng, name)
	}

	groups, err := eng.ListPermissionsGrouped(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 resource groups, got %d", len(groups))
	}
	if groups[0].Resource != "order" || groups[1].Resource != "user" {
		t.Errorf("groups not sorted by resource: %+v", groups)
	}
	if len(groups[1].Permissions) != 2 || groups[1].Permissions[0].Action != "create" {
		t.Errorf("permissions not sorted by action: %+v", groups[1].Permissions)
	}
}
