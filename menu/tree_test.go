package menu

import (
	"testing"

	"github.com/xraph/bastion/id"
)

func testMenus() []*Menu {
	return []*Menu{
		{ID: "dashboard", Title: "Dashboard", OrderIndex: 1, IsActive: true},
		{ID: "settings", Title: "Settings", OrderIndex: 3, IsActive: true},
		{ID: "reports", Title: "Reports", OrderIndex: 2, IsActive: true},
		{ID: "reports-sales", ParentID: "reports", Title: "Sales", OrderIndex: 2, IsActive: true},
		{ID: "reports-usage", ParentID: "reports", Title: "Usage", OrderIndex: 1, IsActive: true},
		{ID: "settings-users", ParentID: "settings", Title: "Users", OrderIndex: 1, IsActive: true},
		{ID: "settings-legacy", ParentID: "settings", Title: "Legacy", OrderIndex: 2, IsActive: false},
	}
}

func TestIndexOrdering(t *testing.T) {
	idx := NewIndex(testMenus())

	roots := idx.Roots()
	if len(roots) != 3 {
		t.Fatalf("expected 3 roots, got %d", len(roots))
	}
	want := []string{"dashboard", "reports", "settings"}
	for i, m := range roots {
		if m.ID != want[i] {
			t.Errorf("root %d: expected %s, got %s", i, want[i], m.ID)
		}
	}

	kids := idx.Children("reports")
	if len(kids) != 2 || kids[0].ID != "reports-usage" || kids[1].ID != "reports-sales" {
		t.Errorf("children of reports not ordered by OrderIndex: %+v", kids)
	}
}

func TestIndexOrphanBecomesRoot(t *testing.T) {
	idx := NewIndex([]*Menu{
		{ID: "orphan", ParentID: "gone", Title: "Orphan", IsActive: true},
	})
	if len(idx.Roots()) != 1 || idx.Roots()[0].ID != "orphan" {
		t.Fatalf("orphan with missing parent should be a root, got %+v", idx.Roots())
	}
}

func TestAggregateFlagsORAcrossRoles(t *testing.T) {
	viewer := id.NewRoleID()
	editor := id.NewRoleID()
	agg := AggregateFlags([]*Permission{
		{MenuID: "reports", RoleID: viewer, CanView: true},
		{MenuID: "reports", RoleID: editor, CanView: true, CanEdit: true, CanExport: true},
		{MenuID: "settings", RoleID: viewer, CanView: false, CanEdit: true},
	})

	f := agg["reports"]
	if !f.CanView || !f.CanEdit || f.CanDelete || !f.CanExport {
		t.Errorf("reports flags not OR-aggregated: %+v", f)
	}
	if agg["settings"].CanView {
		t.Error("settings CanView should stay false when no role grants it")
	}
}

func TestBuildVisibleTree(t *testing.T) {
	idx := NewIndex(testMenus())
	tree := BuildVisibleTree(idx, map[string]Flags{
		"dashboard":     {CanView: true},
		"reports":       {CanView: true, CanExport: true},
		"reports-sales": {CanView: true},
		// reports-usage has no binding: omitted.
		// settings-users is visible but its parent is not.
		"settings-users": {CanView: true},
	})

	if len(tree) != 2 {
		t.Fatalf("expected 2 visible roots, got %d", len(tree))
	}
	if tree[0].ID != "dashboard" || tree[1].ID != "reports" {
		t.Errorf("unexpected root order: %s, %s", tree[0].ID, tree[1].ID)
	}
	if !tree[1].CanExport {
		t.Error("reports should carry CanExport from its binding")
	}
	if len(tree[1].Children) != 1 || tree[1].Children[0].ID != "reports-sales" {
		t.Errorf("reports should have only sales visible, got %+v", tree[1].Children)
	}
}

func TestBuildVisibleTreeDoesNotReattachChildren(t *testing.T) {
	idx := NewIndex(testMenus())
	tree := BuildVisibleTree(idx, map[string]Flags{
		"settings-users": {CanView: true, CanEdit: true},
	})
	if len(tree) != 0 {
		t.Fatalf("child of an invisible parent must not surface, got %+v", tree)
	}
}

func TestBuildVisibleTreeCanViewFalseExcludes(t *testing.T) {
	idx := NewIndex(testMenus())
	tree := BuildVisibleTree(idx, map[string]Flags{
		"dashboard": {CanEdit: true, CanDelete: true},
	})
	if len(tree) != 0 {
		t.Fatalf("binding without CanView must not make a node visible, got %+v", tree)
	}
}

func TestBuildFullTree(t *testing.T) {
	idx := NewIndex(testMenus())
	tree := BuildFullTree(idx)

	if len(tree) != 3 {
		t.Fatalf("expected 3 roots, got %d", len(tree))
	}
	for _, n := range tree {
		if !n.CanView || !n.CanEdit || !n.CanDelete || !n.CanExport {
			t.Errorf("node %s should have all flags set", n.ID)
		}
	}
	// Inactive nodes stay hidden even for superusers.
	var settings *Node
	for _, n := range tree {
		if n.ID == "settings" {
			settings = n
		}
	}
	if settings == nil {
		t.Fatal("settings root missing")
	}
	if len(settings.Children) != 1 || settings.Children[0].ID != "settings-users" {
		t.Errorf("inactive settings-legacy leaked into full tree: %+v", settings.Children)
	}
}

func TestBuildMatrixDeterministic(t *testing.T) {
	r1 := id.NewRoleID()
	r2 := id.NewRoleID()
	entries := BuildMatrix([]*Permission{
		{MenuID: "settings", RoleID: r1, CanView: true},
		{MenuID: "dashboard", RoleID: r2, CanView: true, CanEdit: true},
		{MenuID: "dashboard", RoleID: r1, CanView: true},
	})
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].MenuID != "dashboard" || entries[2].MenuID != "settings" {
		t.Errorf("entries not ordered by menu code: %+v", entries)
	}
	if entries[0].RoleID.String() > entries[1].RoleID.String() {
		t.Error("entries for same menu not ordered by role id")
	}
}
