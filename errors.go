package bastion

import (
	"errors"

	"github.com/xraph/bastion/assignment"
	"github.com/xraph/bastion/audit"
	"github.com/xraph/bastion/menu"
	"github.com/xraph/bastion/permission"
	"github.com/xraph/bastion/resource"
	"github.com/xraph/bastion/role"
)

// Store-level sentinels re-exported for callers that only import the
// root package. errors.Is matches either spelling.
var (
	// ErrRoleNotFound is returned when a role cannot be found.
	ErrRoleNotFound = role.ErrNotFound

	// ErrPermissionNotFound is returned when a permission cannot be found.
	ErrPermissionNotFound = permission.ErrNotFound

	// ErrAssignmentNotFound is returned when an assignment cannot be found.
	ErrAssignmentNotFound = assignment.ErrNotFound

	// ErrResourceNotFound is returned when a resource cannot be found.
	ErrResourceNotFound = resource.ErrNotFound

	// ErrMenuNotFound is returned when a menu cannot be found.
	ErrMenuNotFound = menu.ErrNotFound

	// ErrAuditEntryNotFound is returned when an audit entry cannot be found.
	ErrAuditEntryNotFound = audit.ErrNotFound

	// ErrDuplicateRole is returned when a role name is already taken.
	ErrDuplicateRole = role.ErrDuplicate

	// ErrDuplicatePermission is returned when a permission name is already taken.
	ErrDuplicatePermission = permission.ErrDuplicate

	// ErrDuplicateAssignment is returned when a role is already assigned to a user.
	ErrDuplicateAssignment = assignment.ErrDuplicate

	// ErrDuplicateResource is returned when a resource name is already taken.
	ErrDuplicateResource = resource.ErrDuplicate

	// ErrDuplicateMenu is returned when a menu code is already taken.
	ErrDuplicateMenu = menu.ErrDuplicate
)

var (
	// ErrUnauthenticated is returned when no principal accompanies a request.
	ErrUnauthenticated = errors.New("bastion: unauthenticated")

	// ErrForbidden is returned when an authorization check fails.
	ErrForbidden = errors.New("bastion: forbidden")

	// ErrSystemRoleImmutable is returned when trying to modify or delete a
	// system role. Superusers are not exempt.
	ErrSystemRoleImmutable = errors.New("bastion: system role cannot be modified")

	// ErrSystemPermissionImmutable is returned when trying to modify a system permission.
	ErrSystemPermissionImmutable = errors.New("bastion: system permission cannot be modified")

	// ErrPermissionInUse is returned when deleting a permission still granted to roles.
	ErrPermissionInUse = errors.New("bastion: permission is granted to one or more roles")

	// ErrResourceInUse is returned when deleting a resource that still has permissions.
	ErrResourceInUse = errors.New("bastion: resource has registered permissions")

	// ErrMenuHasChildren is returned when deleting a menu with child entries.
	ErrMenuHasChildren = errors.New("bastion: menu has child entries")

	// ErrMethodNotAllowed is returned when an HTTP verb has no action mapping.
	ErrMethodNotAllowed = errors.New("bastion: method not allowed")

	// ErrValidation is returned for malformed input.
	ErrValidation = errors.New("bastion: validation failed")
)
