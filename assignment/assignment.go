// Package assignment defines the Assignment entity (user→role binding).
package assignment

import (
	"time"

	"github.com/xraph/bastion/id"
)

// Assignment binds a role to a user, with metadata about who made the
// assignment and when.
type Assignment struct {
	ID         id.AssignmentID `json:"id" db:"id"`
	RoleID     id.RoleID       `json:"role_id" db:"role_id"`
	UserID     string          `json:"user_id" db:"user_id"`
	AssignedBy string          `json:"assigned_by,omitempty" db:"assigned_by"`
	AssignedAt time.Time       `json:"assigned_at" db:"assigned_at"`
}

// ListFilter contains filters for listing assignments.
type ListFilter struct {
	RoleID *id.RoleID `json:"role_id,omitempty"`
	UserID string     `json:"user_id,omitempty"`
	Limit  int        `json:"limit,omitempty"`
	Offset int        `json:"offset,omitempty"`
}
