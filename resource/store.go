package resource

import (
	"context"
	"errors"

	"github.com/xraph/bastion/id"
)

var (
	// ErrNotFound is returned when a resource cannot be found.
	ErrNotFound = errors.New("resource: not found")

	// ErrDuplicate is returned when a resource name is already taken.
	ErrDuplicate = errors.New("resource: already exists")
)

// Store defines persistence operations for resource catalog entries.
type Store interface {
	// CreateResource persists a new resource.
	CreateResource(ctx context.Context, r *Resource) error

	// GetResource retrieves a resource by ID.
	GetResource(ctx context.Context, resID id.ResourceID) (*Resource, error)

	// GetResourceByName retrieves a resource by its unique name.
	GetResourceByName(ctx context.Context, name string) (*Resource, error)

	// UpdateResource persists changes to a resource.
	UpdateResource(ctx context.Context, r *Resource) error

	// DeleteResource removes a resource by ID.
	DeleteResource(ctx context.Context, resID id.ResourceID) error

	// ListResources returns resources matching the filter.
	ListResources(ctx context.Context, filter *ListFilter) ([]*Resource, error)

	// CountResources returns the number of resources matching the filter.
	CountResources(ctx context.Context, filter *ListFilter) (int64, error)
}
