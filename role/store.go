package role

import (
	"context"
	"errors"

	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/permission"
)

var (
	// ErrNotFound is returned when a role cannot be found.
	ErrNotFound = errors.New("role: not found")

	// ErrDuplicate is returned when a role name is already taken.
	ErrDuplicate = errors.New("role: already exists")
)

// Store defines persistence operations for roles and their permission
// bindings.
type Store interface {
	// CreateRole persists a new role.
	CreateRole(ctx context.Context, r *Role) error

	// GetRole retrieves a role by ID.
	GetRole(ctx context.Context, roleID id.RoleID) (*Role, error)

	// GetRoleByName retrieves a role by its unique name.
	GetRoleByName(ctx context.Context, name string) (*Role, error)

	// UpdateRole persists changes to a role.
	UpdateRole(ctx context.Context, r *Role) error

	// DeleteRole removes a role by ID.
	DeleteRole(ctx context.Context, roleID id.RoleID) error

	// ListRoles returns roles matching the filter.
	ListRoles(ctx context.Context, filter *ListFilter) ([]*Role, error)

	// CountRoles returns the number of roles matching the filter.
	CountRoles(ctx context.Context, filter *ListFilter) (int64, error)

	// ListRoleGrants returns the permission bindings of a role with their
	// grant metadata.
	ListRoleGrants(ctx context.Context, roleID id.RoleID) ([]*permission.Grant, error)

	// AttachPermission links a permission to a role.
	AttachPermission(ctx context.Context, roleID id.RoleID, permID id.PermissionID, grantedBy string) error

	// DetachPermission removes a permission from a role.
	DetachPermission(ctx context.Context, roleID id.RoleID, permID id.PermissionID) error

	// SetRolePermissions replaces all permission bindings of a role in one
	// atomic operation where the backend supports transactions.
	SetRolePermissions(ctx context.Context, roleID id.RoleID, permIDs []id.PermissionID, grantedBy string) error

	// CountRolesByPermission returns how many roles hold a binding to the
	// permission. Permission deletion is guarded by this count.
	CountRolesByPermission(ctx context.Context, permID id.PermissionID) (int64, error)
}
