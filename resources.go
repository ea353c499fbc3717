package bastion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/bastion/audit"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/permission"
	"github.com/xraph/bastion/resource"
)

// CreateResourceInput carries the fields for registering a resource.
type CreateResourceInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// UpdateResourceInput carries the mutable fields of a resource. The name
// is fixed; permissions reference it.
type UpdateResourceInput struct {
	Description *string `json:"description,omitempty"`
}

// CreateResource registers a resource in the catalog. Resource names
// follow the same lowercase grammar as permission name segments.
func (e *Engine) CreateResource(ctx context.Context, in *CreateResourceInput) (*resource.Resource, error) {
	name := strings.TrimSpace(in.Name)
	if err := permission.ValidateSegment(name); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if _, err := e.store.GetResourceByName(ctx, name); err == nil {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateResource, name)
	} else if !errors.Is(err, ErrResourceNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	r := &resource.Resource{
		ID:          id.NewResourceID(),
		Name:        name,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.store.CreateResource(ctx, r); err != nil {
		return nil, err
	}
	e.recordAudit(ctx, audit.ActionCreate, "resource", r.ID.String(), map[string]any{"name": r.Name})
	return r, nil
}

// GetResource returns a resource by ID.
func (e *Engine) GetResource(ctx context.Context, resID id.ResourceID) (*resource.Resource, error) {
	return e.store.GetResource(ctx, resID)
}

// GetResourceByName returns a resource by its unique name.
func (e *Engine) GetResourceByName(ctx context.Context, name string) (*resource.Resource, error) {
	return e.store.GetResourceByName(ctx, name)
}

// UpdateResource updates a resource's description.
func (e *Engine) UpdateResource(ctx context.Context, resID id.ResourceID, in *UpdateResourceInput) (*resource.Resource, error) {
	r, err := e.store.GetResource(ctx, resID)
	if err != nil {
		return nil, err
	}
	if in.Description != nil {
		r.Description = *in.Description
	}
	r.UpdatedAt = time.Now().UTC()

	if err := e.store.UpdateResource(ctx, r); err != nil {
		return nil, err
	}
	e.recordAudit(ctx, audit.ActionUpdate, "resource", r.ID.String(), map[string]any{"name": r.Name})
	return r, nil
}

// DeleteResource removes a resource. Resources with registered
// permissions cannot be deleted.
func (e *Engine) DeleteResource(ctx context.Context, resID id.ResourceID) error {
	r, err := e.store.GetResource(ctx, resID)
	if err != nil {
		return err
	}
	n, err := e.store.CountPermissionsByResource(ctx, r.Name)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: %q has %d permission(s)", ErrResourceInUse, r.Name, n)
	}

	if err := e.store.DeleteResource(ctx, resID); err != nil {
		return err
	}
	e.recordAudit(ctx, audit.ActionDelete, "resource", resID.String(), map[string]any{"name": r.Name})
	return nil
}

// ListResources returns a page of resources plus the total match count.
func (e *Engine) ListResources(ctx context.Context, filter *resource.ListFilter) ([]*resource.Resource, int64, error) {
	if filter == nil {
		filter = &resource.ListFilter{}
	}
	filter.Limit = e.config.pageLimit(filter.Limit)
	out, err := e.store.ListResources(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := e.store.CountResources(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
