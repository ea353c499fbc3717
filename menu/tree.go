package menu

import "sort"

// Index is a flat arena of menu rows plus a children-by-parent index.
// Traversal and filtering operate over the index, never over live
// parent/child pointers, so the structure stays acyclic by construction.
type Index struct {
	nodes    map[string]*Menu
	children map[string][]*Menu
	roots    []*Menu
}

// NewIndex builds the arena and index from flat rows. Siblings are ordered
// by OrderIndex, ties broken by ID for a stable result. Rows whose ParentID
// names a missing node are treated as roots rather than dropped.
func NewIndex(menus []*Menu) *Index {
	idx := &Index{
		nodes:    make(map[string]*Menu, len(menus)),
		children: make(map[string][]*Menu),
	}
	for _, m := range menus {
		idx.nodes[m.ID] = m
	}
	for _, m := range menus {
		if m.ParentID == "" || idx.nodes[m.ParentID] == nil {
			idx.roots = append(idx.roots, m)
			continue
		}
		idx.children[m.ParentID] = append(idx.children[m.ParentID], m)
	}
	sortSiblings(idx.roots)
	for _, siblings := range idx.children {
		sortSiblings(siblings)
	}
	return idx
}

// Get returns the menu row for a code, or nil.
func (idx *Index) Get(menuID string) *Menu { return idx.nodes[menuID] }

// Children returns the ordered direct children of a node.
func (idx *Index) Children(menuID string) []*Menu { return idx.children[menuID] }

// Roots returns the ordered top-level nodes.
func (idx *Index) Roots() []*Menu { return idx.roots }

func sortSiblings(siblings []*Menu) {
	sort.SliceStable(siblings, func(i, j int) bool {
		if siblings[i].OrderIndex != siblings[j].OrderIndex {
			return siblings[i].OrderIndex < siblings[j].OrderIndex
		}
		return siblings[i].ID < siblings[j].ID
	})
}

// AggregateFlags ORs per-role bindings into one flag set per menu code.
func AggregateFlags(perms []*Permission) map[string]Flags {
	agg := make(map[string]Flags, len(perms))
	for _, p := range perms {
		agg[p.MenuID] = agg[p.MenuID].or(Flags{
			CanView:   p.CanView,
			CanEdit:   p.CanEdit,
			CanDelete: p.CanDelete,
			CanExport: p.CanExport,
		})
	}
	return agg
}

// BuildVisibleTree returns the filtered tree for a user whose aggregated
// flags are given per menu code. A node is included iff it is active and
// its aggregated CanView is true. Visibility is explicit-only: children of
// an excluded node are not re-attached higher up, so administrators must
// grant CanView on every ancestor of a node they want reachable.
func BuildVisibleTree(idx *Index, flags map[string]Flags) []*Node {
	return buildLevel(idx, idx.Roots(), func(m *Menu) (Flags, bool) {
		f, ok := flags[m.ID]
		return f, ok && f.CanView
	})
}

// BuildFullTree returns the unfiltered tree of all active nodes with every
// capability flag set. Used for superusers.
func BuildFullTree(idx *Index) []*Node {
	return buildLevel(idx, idx.Roots(), func(_ *Menu) (Flags, bool) {
		return AllFlags, true
	})
}

func buildLevel(idx *Index, siblings []*Menu, visible func(*Menu) (Flags, bool)) []*Node {
	out := make([]*Node, 0, len(siblings))
	for _, m := range siblings {
		if !m.IsActive {
			continue
		}
		f, ok := visible(m)
		if !ok {
			continue
		}
		n := &Node{
			ID:         m.ID,
			Title:      m.Title,
			Href:       m.Href,
			Icon:       m.Icon,
			Target:     m.Target,
			OrderIndex: m.OrderIndex,
			CanView:    f.CanView,
			CanEdit:    f.CanEdit,
			CanDelete:  f.CanDelete,
			CanExport:  f.CanExport,
			Children:   []*Node{},
		}
		n.Children = buildLevel(idx, idx.Children(m.ID), visible)
		out = append(out, n)
	}
	return out
}

// BuildMatrix flattens every (menu, role) binding into matrix entries,
// ordered by menu code then role ID for a deterministic grid.
func BuildMatrix(perms []*Permission) []*MatrixEntry {
	entries := make([]*MatrixEntry, 0, len(perms))
	for _, p := range perms {
		entries = append(entries, &MatrixEntry{
			MenuID: p.MenuID,
			RoleID: p.RoleID,
			Flags: Flags{
				CanView:   p.CanView,
				CanEdit:   p.CanEdit,
				CanDelete: p.CanDelete,
				CanExport: p.CanExport,
			},
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].MenuID != entries[j].MenuID {
			return entries[i].MenuID < entries[j].MenuID
		}
		return entries[i].RoleID.String() < entries[j].RoleID.String()
	})
	return entries
}
