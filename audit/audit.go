// Package audit defines the administrative audit log Entry entity.
package audit

import (
	"time"

	"github.com/xraph/bastion/id"
)

// Entry is a single administrative action audit record. Entries describe
// mutations to roles, permissions, assignments, and menu bindings; they are
// emitted best-effort and never participate in the mutation's transaction.
type Entry struct {
	ID         id.AuditLogID  `json:"id" db:"id"`
	UserID     string         `json:"user_id" db:"user_id"`
	Action     string         `json:"action" db:"action"`
	Resource   string         `json:"resource" db:"resource"`
	ResourceID string         `json:"resource_id,omitempty" db:"resource_id"`
	Details    map[string]any `json:"details,omitempty" db:"details"`
	RequestIP  string         `json:"request_ip,omitempty" db:"request_ip"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
}

// Well-known Action values.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionAssign = "assign"
	ActionRevoke = "revoke"
)

// QueryFilter contains filters for querying audit entries.
type QueryFilter struct {
	UserID   string     `json:"user_id,omitempty"`
	Action   string     `json:"action,omitempty"`
	Resource string     `json:"resource,omitempty"`
	After    *time.Time `json:"after,omitempty"`
	Before   *time.Time `json:"before,omitempty"`
	Limit    int        `json:"limit,omitempty"`
	Offset   int        `json:"offset,omitempty"`
}
