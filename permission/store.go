package permission

import (
	"context"
	"errors"

	"github.com/xraph/bastion/id"
)

var (
	// ErrNotFound is returned when a permission cannot be found.
	ErrNotFound = errors.New("permission: not found")

	// ErrDuplicate is returned when a permission name is already taken.
	ErrDuplicate = errors.New("permission: already exists")
)

// Store defines persistence operations for permissions.
type Store interface {
	// CreatePermission persists a new permission.
	CreatePermission(ctx context.Context, p *Permission) error

	// GetPermission retrieves a permission by ID.
	GetPermission(ctx context.Context, permID id.PermissionID) (*Permission, error)

	// GetPermissionByName retrieves a permission by its "resource:action" name.
	GetPermissionByName(ctx context.Context, name string) (*Permission, error)

	// UpdatePermission persists changes to a permission.
	UpdatePermission(ctx context.Context, p *Permission) error

	// DeletePermission removes a permission by ID.
	DeletePermission(ctx context.Context, permID id.PermissionID) error

	// ListPermissions returns permissions matching the filter.
	ListPermissions(ctx context.Context, filter *ListFilter) ([]*Permission, error)

	// CountPermissions returns the number of permissions matching the filter.
	CountPermissions(ctx context.Context, filter *ListFilter) (int64, error)

	// CountPermissionsByResource returns how many permissions reference the
	// named resource. Resource deletion is guarded by this count because the
	// reference is by name, not by foreign key.
	CountPermissionsByResource(ctx context.Context, resource string) (int64, error)

	// ListPermissionsByRole returns all permissions attached to a role.
	ListPermissionsByRole(ctx context.Context, roleID id.RoleID) ([]*Permission, error)

	// ListPermissionsForUser returns all permissions granted to a user
	// through active roles. This is the authoritative (live) effective set.
	ListPermissionsForUser(ctx context.Context, userID string) ([]*Permission, error)
}
