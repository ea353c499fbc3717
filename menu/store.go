package menu

import (
	"context"
	"errors"

	"github.com/xraph/bastion/id"
)

var (
	// ErrNotFound is returned when a menu cannot be found.
	ErrNotFound = errors.New("menu: not found")

	// ErrDuplicate is returned when a menu code is already taken.
	ErrDuplicate = errors.New("menu: already exists")
)

// Store defines persistence operations for menus and menu-permission
// bindings.
type Store interface {
	// CreateMenu persists a new menu node.
	CreateMenu(ctx context.Context, m *Menu) error

	// GetMenu retrieves a menu node by its code.
	GetMenu(ctx context.Context, menuID string) (*Menu, error)

	// UpdateMenu persists changes to a menu node.
	UpdateMenu(ctx context.Context, m *Menu) error

	// DeleteMenu removes a menu node and its permission bindings.
	DeleteMenu(ctx context.Context, menuID string) error

	// ListMenus returns menu nodes matching the filter.
	ListMenus(ctx context.Context, filter *ListFilter) ([]*Menu, error)

	// CountMenus returns the number of menus matching the filter.
	CountMenus(ctx context.Context, filter *ListFilter) (int64, error)

	// CountChildMenus returns the number of direct children of a node.
	CountChildMenus(ctx context.Context, menuID string) (int64, error)

	// SetMenuPermission upserts the flag set for one (menu, role) pair.
	SetMenuPermission(ctx context.Context, p *Permission) error

	// DeleteMenuPermission removes the binding for one (menu, role) pair.
	DeleteMenuPermission(ctx context.Context, menuID string, roleID id.RoleID) error

	// ListMenuPermissionsForRoles returns all bindings held by any of the
	// given roles.
	ListMenuPermissionsForRoles(ctx context.Context, roleIDs []id.RoleID) ([]*Permission, error)

	// ListMenuPermissions returns every (menu, role) binding. Feeds the
	// admin permission matrix.
	ListMenuPermissions(ctx context.Context) ([]*Permission, error)

	// DeleteMenuPermissionsByRole removes all bindings for a role.
	DeleteMenuPermissionsByRole(ctx context.Context, roleID id.RoleID) error
}
