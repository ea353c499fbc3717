// Package permission defines the Permission entity, the "resource:action"
// name grammar, and the permission store interface.
package permission

import (
	"time"

	"github.com/xraph/bastion/id"
)

// Permission represents a specific action allowed on a resource.
// Name is always Resource + ":" + Action; the action may be the literal
// wildcard "*", making "resource:*" a first-class grantable row.
type Permission struct {
	ID          id.PermissionID `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Resource    string          `json:"resource" db:"resource"`
	Action      string          `json:"action" db:"action"`
	Description string          `json:"description,omitempty" db:"description"`
	IsSystem    bool            `json:"is_system" db:"is_system"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// Grant records a role→permission binding with its audit metadata.
type Grant struct {
	RoleID       id.RoleID       `json:"role_id" db:"role_id"`
	PermissionID id.PermissionID `json:"permission_id" db:"permission_id"`
	GrantedBy    string          `json:"granted_by,omitempty" db:"granted_by"`
	GrantedAt    time.Time       `json:"granted_at" db:"granted_at"`
}

// ListFilter contains filters for listing permissions.
type ListFilter struct {
	Resource string `json:"resource,omitempty"`
	Action   string `json:"action,omitempty"`
	IsSystem *bool  `json:"is_system,omitempty"`
	Search   string `json:"search,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}
