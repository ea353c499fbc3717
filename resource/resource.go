// Package resource defines the Resource catalog entity.
package resource

import (
	"time"

	"github.com/xraph/bastion/id"
)

// Resource is a loose catalog entry describing a protectable resource kind.
// Permissions reference it by Name string, not by foreign key, so deletion
// is guarded by an explicit count query rather than referential integrity.
type Resource struct {
	ID          id.ResourceID `json:"id" db:"id"`
	Name        string        `json:"name" db:"name"`
	Description string        `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

// ListFilter contains filters for listing resources.
type ListFilter struct {
	Search string `json:"search,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}
