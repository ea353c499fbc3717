package bastion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xraph/bastion/audit"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/menu"
)

// CreateMenuInput carries the fields for creating a menu entry. The ID
// is a caller-chosen stable code ("settings-users"), not a generated
// identifier, so front-ends can reference entries by name.
type CreateMenuInput struct {
	ID         string `json:"id"`
	ParentID   string `json:"parent_id,omitempty"`
	Title      string `json:"title"`
	Href       string `json:"href,omitempty"`
	Icon       string `json:"icon,omitempty"`
	Target     string `json:"target,omitempty"`
	OrderIndex int    `json:"order_index,omitempty"`
}

// UpdateMenuInput carries the mutable fields of a menu entry.
type UpdateMenuInput struct {
	ParentID   *string `json:"parent_id,omitempty"`
	Title      *string `json:"title,omitempty"`
	Href       *string `json:"href,omitempty"`
	Icon       *string `json:"icon,omitempty"`
	Target     *string `json:"target,omitempty"`
	OrderIndex *int    `json:"order_index,omitempty"`
	IsActive   *bool   `json:"is_active,omitempty"`
}

// SetMenuPermissionInput carries one role's capability flags on a menu.
type SetMenuPermissionInput struct {
	MenuID    string    `json:"menu_id"`
	RoleID    id.RoleID `json:"role_id"`
	CanView   bool      `json:"can_view"`
	CanEdit   bool      `json:"can_edit"`
	CanDelete bool      `json:"can_delete"`
	CanExport bool      `json:"can_export"`
}

// CreateMenu registers a menu entry. The parent, when given, must exist.
func (e *Engine) CreateMenu(ctx context.Context, in *CreateMenuInput) (*menu.Menu, error) {
	code := strings.TrimSpace(in.ID)
	if code == "" {
		return nil, fmt.Errorf("%w: menu id is required", ErrValidation)
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, fmt.Errorf("%w: menu title is required", ErrValidation)
	}
	if _, err := e.store.GetMenu(ctx, code); err == nil {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateMenu, code)
	} else if !errors.Is(err, ErrMenuNotFound) {
		return nil, err
	}
	if in.ParentID != "" {
		if _, err := e.store.GetMenu(ctx, in.ParentID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	m := &menu.Menu{
		ID:         code,
		ParentID:   in.ParentID,
		Title:      in.Title,
		Href:       in.Href,
		Icon:       in.Icon,
		Target:     in.Target,
		OrderIndex: in.OrderIndex,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := e.store.CreateMenu(ctx, m); err != nil {
		return nil, err
	}
	e.recordAudit(ctx, audit.ActionCreate, "menu", m.ID, map[string]any{"title": m.Title})
	return m, nil
}

// GetMenu returns a menu entry by code.
func (e *Engine) GetMenu(ctx context.Context, menuID string) (*menu.Menu, error) {
	return e.store.GetMenu(ctx, menuID)
}

// UpdateMenu applies the given changes to a menu entry. Reparenting a
// menu under itself or a missing parent is rejected.
func (e *Engine) UpdateMenu(ctx context.Context, menuID string, in *UpdateMenuInput) (*menu.Menu, error) {
	m, err := e.store.GetMenu(ctx, menuID)
	if err != nil {
		return nil, err
	}

	if in.ParentID != nil {
		parent := *in.ParentID
		if parent == m.ID {
			return nil, fmt.Errorf("%w: menu cannot be its own parent", ErrValidation)
		}
		if parent != "" {
			if err := e.ensureNotDescendant(ctx, m.ID, parent); err != nil {
				return nil, err
			}
			if _, err := e.store.GetMenu(ctx, parent); err != nil {
				return nil, err
			}
		}
		m.ParentID = parent
	}
	if in.Title != nil {
		if strings.TrimSpace(*in.Title) == "" {
			return nil, fmt.Errorf("%w: menu title is required", ErrValidation)
		}
		m.Title = *in.Title
	}
	if in.Href != nil {
		m.Href = *in.Href
	}
	if in.Icon != nil {
		m.Icon = *in.Icon
	}
	if in.Target != nil {
		m.Target = *in.Target
	}
	if in.OrderIndex != nil {
		m.OrderIndex = *in.OrderIndex
	}
	if in.IsActive != nil {
		m.IsActive = *in.IsActive
	}
	m.UpdatedAt = time.Now().UTC()

	if err := e.store.UpdateMenu(ctx, m); err != nil {
		return nil, err
	}
	e.recordAudit(ctx, audit.ActionUpdate, "menu", m.ID, map[string]any{"title": m.Title})
	return m, nil
}

// ensureNotDescendant walks up from candidate's ancestry and fails if it
// passes through menuID, which would create a cycle.
func (e *Engine) ensureNotDescendant(ctx context.Context, menuID, candidate string) error {
	cur := candidate
	for depth := 0; cur != "" && depth < 64; depth++ {
		if cur == menuID {
			return fmt.Errorf("%w: menu %q is a descendant of %q", ErrValidation, candidate, menuID)
		}
		m, err := e.store.GetMenu(ctx, cur)
		if err != nil {
			return nil
		}
		cur = m.ParentID
	}
	return nil
}

// DeleteMenu removes a menu entry and its role bindings. Entries with
// children cannot be deleted.
func (e *Engine) DeleteMenu(ctx context.Context, menuID string) error {
	m, err := e.store.GetMenu(ctx, menuID)
	if err != nil {
		return err
	}
	n, err := e.store.CountChildMenus(ctx, menuID)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: %q has %d child entries", ErrMenuHasChildren, menuID, n)
	}

	if err := e.store.DeleteMenu(ctx, menuID); err != nil {
		return err
	}
	e.recordAudit(ctx, audit.ActionDelete, "menu", menuID, map[string]any{"title": m.Title})
	return nil
}

// ListMenus returns a page of menu entries plus the total match count.
func (e *Engine) ListMenus(ctx context.Context, filter *menu.ListFilter) ([]*menu.Menu, int64, error) {
	if filter == nil {
		filter = &menu.ListFilter{}
	}
	filter.Limit = e.config.pageLimit(filter.Limit)
	out, err := e.store.ListMenus(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := e.store.CountMenus(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// SetMenuPermission upserts one role's capability flags on a menu.
func (e *Engine) SetMenuPermission(ctx context.Context, in *SetMenuPermissionInput) (*menu.Permission, error) {
	if _, err := e.store.GetMenu(ctx, in.MenuID); err != nil {
		return nil, err
	}
	if _, err := e.store.GetRole(ctx, in.RoleID); err != nil {
		return nil, err
	}

	mp := &menu.Permission{
		MenuID:    in.MenuID,
		RoleID:    in.RoleID,
		CanView:   in.CanView,
		CanEdit:   in.CanEdit,
		CanDelete: in.CanDelete,
		CanExport: in.CanExport,
	}
	if err := e.store.SetMenuPermission(ctx, mp); err != nil {
		return nil, err
	}

	if e.plugins != nil {
		e.plugins.EmitMenuBindingSet(ctx, mp)
	}
	e.recordAudit(ctx, audit.ActionUpdate, "menu", in.MenuID, map[string]any{
		"binding": "set", "role_id": in.RoleID.String(),
	})
	return mp, nil
}

// DeleteMenuPermission removes one role's capability flags on a menu.
func (e *Engine) DeleteMenuPermission(ctx context.Context, menuID string, roleID id.RoleID) error {
	if err := e.store.DeleteMenuPermission(ctx, menuID, roleID); err != nil {
		return err
	}
	if e.plugins != nil {
		e.plugins.EmitMenuBindingDeleted(ctx, menuID, roleID)
	}
	e.recordAudit(ctx, audit.ActionUpdate, "menu", menuID, map[string]any{
		"binding": "delete", "role_id": roleID.String(),
	})
	return nil
}

// MenuTreeForUser returns the menu tree a user may see: nodes whose
// OR-aggregated CanView across the user's active roles is true, ordered
// siblings, subtrees of invisible nodes pruned. Superusers get every
// active node with all flags set. Users with no roles get an empty tree.
func (e *Engine) MenuTreeForUser(ctx context.Context, userID string) ([]*menu.Node, error) {
	set, err := e.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}

	menus, err := e.store.ListMenus(ctx, &menu.ListFilter{Limit: e.config.MaxPageSize})
	if err != nil {
		return nil, err
	}
	idx := menu.NewIndex(menus)

	if set.IsSuperuser {
		return menu.BuildFullTree(idx), nil
	}
	if len(set.Roles) == 0 {
		return []*menu.Node{}, nil
	}

	roleIDs, err := e.activeRoleIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	perms, err := e.store.ListMenuPermissionsForRoles(ctx, roleIDs)
	if err != nil {
		return nil, err
	}
	return menu.BuildVisibleTree(idx, menu.AggregateFlags(perms)), nil
}

// MenuMatrix returns the full (menu, role) capability grid for admin
// screens.
func (e *Engine) MenuMatrix(ctx context.Context) ([]*menu.MatrixEntry, error) {
	perms, err := e.store.ListMenuPermissions(ctx)
	if err != nil {
		return nil, err
	}
	return menu.BuildMatrix(perms), nil
}

func (e *Engine) activeRoleIDs(ctx context.Context, userID string) ([]id.RoleID, error) {
	roleIDs, err := e.store.ListRolesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	active := make([]id.RoleID, 0, len(roleIDs))
	for _, rid := range roleIDs {
		r, err := e.store.GetRole(ctx, rid)
		if err != nil || !r.IsActive {
			continue
		}
		active = append(active, rid)
	}
	return active, nil
}
