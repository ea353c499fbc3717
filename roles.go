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
	"github.com/xraph/bastion/role"
)

// CreateRoleInput carries the fields for creating a role.
type CreateRoleInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsSystem    bool   `json:"is_system,omitempty"`
}

// UpdateRoleInput carries the mutable fields of a role. Nil fields are
// left unchanged.
type UpdateRoleInput struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// CreateRole registers a new role. Names are unique; a clash returns
// ErrDuplicateRole.
func (e *Engine) CreateRole(ctx context.Context, in *CreateRoleInput) (*role.Role, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: role name is required", ErrValidation)
	}
	if _, err := e.store.GetRoleByName(ctx, name); err == nil {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateRole, name)
	} else if !errors.Is(err, ErrRoleNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	r := &role.Role{
		ID:          id.NewRoleID(),
		Name:        name,
		Description: in.Description,
		IsSystem:    in.IsSystem,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := e.store.CreateRole(ctx, r); err != nil {
		return nil, err
	}

	if e.plugins != nil {
		e.plugins.EmitRoleCreated(ctx, r)
	}
	e.recordAudit(ctx, audit.ActionCreate, "role", r.ID.String(), map[string]any{"name": r.Name})
	return r, nil
}

// GetRole returns a role by ID.
func (e *Engine) GetRole(ctx context.Context, roleID id.RoleID) (*role.Role, error) {
	return e.store.GetRole(ctx, roleID)
}

// GetRoleByName returns a role by its unique name.
func (e *Engine) GetRoleByName(ctx context.Context, name string) (*role.Role, error) {
	return e.store.GetRoleByName(ctx, name)
}

// UpdateRole applies the given changes to a role. System roles cannot be
// modified by anyone, superusers included.
func (e *Engine) UpdateRole(ctx context.Context, roleID id.RoleID, in *UpdateRoleInput) (*role.Role, error) {
	r, err := e.store.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if r.IsSystem {
		return nil, fmt.Errorf("%w: %q", ErrSystemRoleImmutable, r.Name)
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: role name is required", ErrValidation)
		}
		if name != r.Name {
			if _, err := e.store.GetRoleByName(ctx, name); err == nil {
				return nil, fmt.Errorf("%w: %q", ErrDuplicateRole, name)
			} else if !errors.Is(err, ErrRoleNotFound) {
				return nil, err
			}
			r.Name = name
		}
	}
	if in.Description != nil {
		r.Description = *in.Description
	}
	if in.IsActive != nil {
		r.IsActive = *in.IsActive
	}
	r.UpdatedAt = time.Now().UTC()

	if err := e.store.UpdateRole(ctx, r); err != nil {
		return nil, err
	}

	// Renames and deactivation change resolved sets for every holder.
	e.invalidateAll(ctx)
	if e.plugins != nil {
		e.plugins.EmitRoleUpdated(ctx, r)
	}
	e.recordAudit(ctx, audit.ActionUpdate, "role", r.ID.String(), map[string]any{"name": r.Name})
	return r, nil
}

// DeleteRole removes a role along with its grants, assignments, and menu
// bindings. System roles cannot be deleted.
func (e *Engine) DeleteRole(ctx context.Context, roleID id.RoleID) error {
	r, err := e.store.GetRole(ctx, roleID)
	if err != nil {
		return err
	}
	if r.IsSystem {
		return fmt.Errorf("%w: %q", ErrSystemRoleImmutable, r.Name)
	}

	if err := e.store.DeleteAssignmentsByRole(ctx, roleID); err != nil {
		return err
	}
	if err := e.store.DeleteMenuPermissionsByRole(ctx, roleID); err != nil {
		return err
	}
	if err := e.store.DeleteRole(ctx, roleID); err != nil {
		return err
	}

	e.invalidateAll(ctx)
	if e.plugins != nil {
		e.plugins.EmitRoleDeleted(ctx, roleID)
	}
	e.recordAudit(ctx, audit.ActionDelete, "role", roleID.String(), map[string]any{"name": r.Name})
	return nil
}

// ListRoles returns a page of roles plus the total match count.
func (e *Engine) ListRoles(ctx context.Context, filter *role.ListFilter) ([]*role.Role, int64, error) {
	if filter == nil {
		filter = &role.ListFilter{}
	}
	filter.Limit = e.config.pageLimit(filter.Limit)
	roles, err := e.store.ListRoles(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := e.store.CountRoles(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return roles, total, nil
}

// AttachPermission grants a permission to a role. Attaching an already
// granted permission is a no-op. Grant edits on system roles are
// rejected.
func (e *Engine) AttachPermission(ctx context.Context, roleID id.RoleID, permID id.PermissionID) error {
	r, err := e.store.GetRole(ctx, roleID)
	if err != nil {
		return err
	}
	if r.IsSystem {
		return fmt.Errorf("%w: %q", ErrSystemRoleImmutable, r.Name)
	}
	if _, err := e.store.GetPermission(ctx, permID); err != nil {
		return err
	}

	if err := e.store.AttachPermission(ctx, roleID, permID, e.actorID(ctx)); err != nil {
		return err
	}

	e.invalidateAll(ctx)
	if e.plugins != nil {
		e.plugins.EmitPermissionAttached(ctx, roleID, permID)
	}
	e.recordAudit(ctx, audit.ActionUpdate, "role", roleID.String(), map[string]any{
		"grant": "attach", "permission_id": permID.String(),
	})
	return nil
}

// DetachPermission revokes a permission from a role.
func (e *Engine) DetachPermission(ctx context.Context, roleID id.RoleID, permID id.PermissionID) error {
	r, err := e.store.GetRole(ctx, roleID)
	if err != nil {
		return err
	}
	if r.IsSystem {
		return fmt.Errorf("%w: %q", ErrSystemRoleImmutable, r.Name)
	}

	if err := e.store.DetachPermission(ctx, roleID, permID); err != nil {
		return err
	}

	e.invalidateAll(ctx)
	if e.plugins != nil {
		e.plugins.EmitPermissionDetached(ctx, roleID, permID)
	}
	e.recordAudit(ctx, audit.ActionUpdate, "role", roleID.String(), map[string]any{
		"grant": "detach", "permission_id": permID.String(),
	})
	return nil
}

// SetRolePermissions atomically replaces a role's grant set. All
// referenced permissions must exist; a missing one fails the whole call
// and leaves the previous grants intact.
func (e *Engine) SetRolePermissions(ctx context.Context, roleID id.RoleID, permIDs []id.PermissionID) error {
	r, err := e.store.GetRole(ctx, roleID)
	if err != nil {
		return err
	}
	if r.IsSystem {
		return fmt.Errorf("%w: %q", ErrSystemRoleImmutable, r.Name)
	}
	for _, pid := range permIDs {
		if _, err := e.store.GetPermission(ctx, pid); err != nil {
			return err
		}
	}

	if err := e.store.SetRolePermissions(ctx, roleID, permIDs, e.actorID(ctx)); err != nil {
		return err
	}

	e.invalidateAll(ctx)
	if e.plugins != nil {
		e.plugins.EmitGrantsReplaced(ctx, roleID, permIDs)
	}
	e.recordAudit(ctx, audit.ActionUpdate, "role", roleID.String(), map[string]any{
		"grant": "replace", "permission_count": len(permIDs),
	})
	return nil
}

// BulkGrantPermissions attaches many permissions to a role with
// per-permission failure reporting. Already granted permissions count
// as successes (attach is idempotent).
func (e *Engine) BulkGrantPermissions(ctx context.Context, roleID id.RoleID, permIDs []id.PermissionID) (*BulkResult, error) {
	r, err := e.store.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if r.IsSystem {
		return nil, fmt.Errorf("%w: %q", ErrSystemRoleImmutable, r.Name)
	}
	result := &BulkResult{Succeeded: []string{}, Failed: []BulkFailure{}}
	for _, pid := range permIDs {
		if err := e.AttachPermission(ctx, roleID, pid); err != nil {
			result.Failed = append(result.Failed, BulkFailure{ID: pid.String(), Error: err.Error()})
			continue
		}
		result.Succeeded = append(result.Succeeded, pid.String())
	}
	return result, nil
}

// ListRolePermissions returns the permissions granted to a role.
func (e *Engine) ListRolePermissions(ctx context.Context, roleID id.RoleID) ([]*permission.Permission, error) {
	if _, err := e.store.GetRole(ctx, roleID); err != nil {
		return nil, err
	}
	return e.store.ListPermissionsByRole(ctx, roleID)
}

func (e *Engine) actorID(ctx context.Context) string {
	if p, ok := PrincipalFrom(ctx); ok {
		return p.SubjectID
	}
	return ""
}
