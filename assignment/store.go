package assignment

import (
	"context"
	"errors"

	"github.com/xraph/bastion/id"
)

var (
	// ErrNotFound is returned when an assignment cannot be found.
	ErrNotFound = errors.New("assignment: not found")

	// ErrDuplicate is returned when a role is already assigned to the user.
	ErrDuplicate = errors.New("assignment: already exists")
)

// Store defines persistence operations for user-role assignments.
type Store interface {
	// CreateAssignment persists a new assignment.
	CreateAssignment(ctx context.Context, a *Assignment) error

	// GetAssignment retrieves an assignment by ID.
	GetAssignment(ctx context.Context, asgnID id.AssignmentID) (*Assignment, error)

	// DeleteAssignment removes an assignment by ID.
	DeleteAssignment(ctx context.Context, asgnID id.AssignmentID) error

	// DeleteAssignmentByUserRole removes the assignment binding a specific
	// user to a specific role and returns the removed row.
	DeleteAssignmentByUserRole(ctx context.Context, userID string, roleID id.RoleID) (*Assignment, error)

	// ListAssignments returns assignments matching the filter.
	ListAssignments(ctx context.Context, filter *ListFilter) ([]*Assignment, error)

	// CountAssignments returns the number of assignments matching the filter.
	CountAssignments(ctx context.Context, filter *ListFilter) (int64, error)

	// ListRolesForUser returns role IDs assigned to a user.
	ListRolesForUser(ctx context.Context, userID string) ([]id.RoleID, error)

	// ListUsersForRole returns all assignments for a given role.
	ListUsersForRole(ctx context.Context, roleID id.RoleID) ([]*Assignment, error)

	// DeleteAssignmentsByRole removes all assignments for a role.
	DeleteAssignmentsByRole(ctx context.Context, roleID id.RoleID) error

	// DeleteAssignmentsByUser removes all assignments for a user.
	DeleteAssignmentsByUser(ctx context.Context, userID string) error
}
