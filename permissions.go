package bastion

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/xraph/bastion/audit"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/permission"
)

// CreatePermissionInput carries the fields for registering a permission.
// Either Name or the Resource/Action pair must be given; when both are
// present they must agree.
type CreatePermissionInput struct {
	Name        string `json:"name,omitempty"`
	Resource    string `json:"resource,omitempty"`
	Action      string `json:"action,omitempty"`
	Description string `json:"description,omitempty"`
	IsSystem    bool   `json:"is_system,omitempty"`
}

// UpdatePermissionInput carries the mutable fields of a permission.
// Only the description can change; renaming a permission would silently
// alter the meaning of every existing grant.
type UpdatePermissionInput struct {
	Description *string `json:"description,omitempty"`
}

// ResourcePermissions groups a resource's permissions for catalog views.
type ResourcePermissions struct {
	Resource    string                   `json:"resource"`
	Permissions []*permission.Permission `json:"permissions"`
}

// CreatePermission registers a permission in the catalog. The name must
// satisfy the "resource:action" grammar; duplicates return
// ErrDuplicatePermission.
func (e *Engine) CreatePermission(ctx context.Context, in *CreatePermissionInput) (*permission.Permission, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = permission.FormatName(strings.TrimSpace(in.Resource), strings.TrimSpace(in.Action))
	}
	res, act, err := permission.ParseName(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if in.Resource != "" && in.Resource != res {
		return nil, fmt.Errorf("%w: resource %q does not match name %q", ErrValidation, in.Resource, name)
	}
	if in.Action != "" && in.Action != act {
		return nil, fmt.Errorf("%w: action %q does not match name %q", ErrValidation, in.Action, name)
	}

	if _, err := e.store.GetPermissionByName(ctx, name); err == nil {
		return nil, fmt.Errorf("%w: %q", ErrDuplicatePermission, name)
	} else if !errors.Is(err, ErrPermissionNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	p := &permission.Permission{
		ID:          id.NewPermissionID(),
		Name:        name,
		Resource:    res,
		Action:      act,
		Description: in.Description,
		IsSystem:    in.IsSystem,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.store.CreatePermission(ctx, p); err != nil {
		return nil, err
	}

	if e.plugins != nil {
		e.plugins.EmitPermissionCreated(ctx, p)
	}
	e.recordAudit(ctx, audit.ActionCreate, "permission", p.ID.String(), map[string]any{"name": p.Name})
	return p, nil
}

// GetPermission returns a permission by ID.
func (e *Engine) GetPermission(ctx context.Context, permID id.PermissionID) (*permission.Permission, error) {
	return e.store.GetPermission(ctx, permID)
}

// GetPermissionByName returns a permission by its canonical name.
func (e *Engine) GetPermissionByName(ctx context.Context, name string) (*permission.Permission, error) {
	return e.store.GetPermissionByName(ctx, name)
}

// UpdatePermission updates a permission's description. System
// permissions are immutable.
func (e *Engine) UpdatePermission(ctx context.Context, permID id.PermissionID, in *UpdatePermissionInput) (*permission.Permission, error) {
	p, err := e.store.GetPermission(ctx, permID)
	if err != nil {
		return nil, err
	}
	if p.IsSystem {
		return nil, fmt.Errorf("%w: %q", ErrSystemPermissionImmutable, p.Name)
	}
	if in.Description != nil {
		p.Description = *in.Description
	}
	p.UpdatedAt = time.Now().UTC()

	if err := e.store.UpdatePermission(ctx, p); err != nil {
		return nil, err
	}
	e.recordAudit(ctx, audit.ActionUpdate, "permission", p.ID.String(), map[string]any{"name": p.Name})
	return p, nil
}

// DeletePermission removes a permission from the catalog. Permissions
// still granted to any role, and system permissions, cannot be deleted.
func (e *Engine) DeletePermission(ctx context.Context, permID id.PermissionID) error {
	p, err := e.store.GetPermission(ctx, permID)
	if err != nil {
		return err
	}
	if p.IsSystem {
		return fmt.Errorf("%w: %q", ErrSystemPermissionImmutable, p.Name)
	}
	n, err := e.store.CountRolesByPermission(ctx, permID)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: %q is granted to %d role(s)", ErrPermissionInUse, p.Name, n)
	}

	if err := e.store.DeletePermission(ctx, permID); err != nil {
		return err
	}

	if e.plugins != nil {
		e.plugins.EmitPermissionDeleted(ctx, permID)
	}
	e.recordAudit(ctx, audit.ActionDelete, "permission", permID.String(), map[string]any{"name": p.Name})
	return nil
}

// ListPermissions returns a page of permissions plus the total match count.
func (e *Engine) ListPermissions(ctx context.Context, filter *permission.ListFilter) ([]*permission.Permission, int64, error) {
	if filter == nil {
		filter = &permission.ListFilter{}
	}
	filter.Limit = e.config.pageLimit(filter.Limit)
	perms, err := e.store.ListPermissions(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := e.store.CountPermissions(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return perms, total, nil
}

// ListPermissionsGrouped returns the whole catalog grouped by resource,
// resources sorted by name, permissions within a resource sorted by
// action. Intended for admin catalog screens.
func (e *Engine) ListPermissionsGrouped(ctx context.Context) ([]*ResourcePermissions, error) {
	perms, err := e.store.ListPermissions(ctx, &permission.ListFilter{Limit: e.config.MaxPageSize})
	if err != nil {
		return nil, err
	}

	byResource := make(map[string][]*permission.Permission)
	for _, p := range perms {
		byResource[p.Resource] = append(byResource[p.Resource], p)
	}
	out := make([]*ResourcePermissions, 0, len(byResource))
	for res, group := range byResource {
		sort.Slice(group, func(i, j int) bool { return group[i].Action < group[j].Action })
		out = append(out, &ResourcePermissions{Resource: res, Permissions: group})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Resource < out[j].Resource })
	return out, nil
}
