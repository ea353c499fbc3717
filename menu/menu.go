// Package menu defines the hierarchical menu entities, per-role visibility
// flags, and the tree building and filtering algorithms.
package menu

import (
	"time"

	"github.com/xraph/bastion/id"
)

// Menu is a single node of the navigation hierarchy. IDs are short
// operator-chosen codes, not TypeIDs; ParentID is empty for root nodes.
type Menu struct {
	ID         string    `json:"id" db:"id"`
	ParentID   string    `json:"parent_id,omitempty" db:"parent_id"`
	Title      string    `json:"title" db:"title"`
	Href       string    `json:"href,omitempty" db:"href"`
	Icon       string    `json:"icon,omitempty" db:"icon"`
	Target     string    `json:"target,omitempty" db:"target"`
	OrderIndex int       `json:"order_index" db:"order_index"`
	IsActive   bool      `json:"is_active" db:"is_active"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// Permission holds the four independent capability flags a role has on a
// menu node. Composite key: (MenuID, RoleID).
type Permission struct {
	MenuID    string    `json:"menu_id" db:"menu_id"`
	RoleID    id.RoleID `json:"role_id" db:"role_id"`
	CanView   bool      `json:"can_view" db:"can_view"`
	CanEdit   bool      `json:"can_edit" db:"can_edit"`
	CanDelete bool      `json:"can_delete" db:"can_delete"`
	CanExport bool      `json:"can_export" db:"can_export"`
}

// Flags is the role-aggregated capability set for one node.
type Flags struct {
	CanView   bool `json:"can_view"`
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
	CanExport bool `json:"can_export"`
}

// or merges another flag set into this one (role aggregation is additive).
func (f Flags) or(other Flags) Flags {
	return Flags{
		CanView:   f.CanView || other.CanView,
		CanEdit:   f.CanEdit || other.CanEdit,
		CanDelete: f.CanDelete || other.CanDelete,
		CanExport: f.CanExport || other.CanExport,
	}
}

// AllFlags is the capability set superusers get on every node.
var AllFlags = Flags{CanView: true, CanEdit: true, CanDelete: true, CanExport: true}

// Node is the wire representation of a filtered menu tree node.
type Node struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Href       string  `json:"href,omitempty"`
	Icon       string  `json:"icon,omitempty"`
	Target     string  `json:"target,omitempty"`
	OrderIndex int     `json:"order_index"`
	CanView    bool    `json:"can_view"`
	CanEdit    bool    `json:"can_edit"`
	CanDelete  bool    `json:"can_delete"`
	CanExport  bool    `json:"can_export"`
	Children   []*Node `json:"children"`
}

// MatrixEntry is one cell of the admin-facing role×menu permission matrix.
type MatrixEntry struct {
	MenuID string    `json:"menu_id"`
	RoleID id.RoleID `json:"role_id"`
	Flags  Flags     `json:"flags"`
}

// ListFilter contains filters for listing menus.
type ListFilter struct {
	ParentID *string `json:"parent_id,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
	Search   string  `json:"search,omitempty"`
	Limit    int     `json:"limit,omitempty"`
	Offset   int     `json:"offset,omitempty"`
}
