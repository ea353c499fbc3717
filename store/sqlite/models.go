package sqlite

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/bastion/assignment"
	"github.com/xraph/bastion/audit"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/menu"
	"github.com/xraph/bastion/permission"
	"github.com/xraph/bastion/resource"
	"github.com/xraph/bastion/role"
)

// ──────────────────────────────────────────────────
// Role model
// ──────────────────────────────────────────────────

type roleModel struct {
	grove.BaseModel `grove:"table:bastion_roles"`
	ID              string    `grove:"id,pk"`
	Name            string    `grove:"name,notnull"`
	Description     string    `grove:"description"`
	IsSystem        bool      `grove:"is_system,notnull"`
	IsActive        bool      `grove:"is_active,notnull"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

func roleToModel(r *role.Role) *roleModel {
	return &roleModel{
		ID:          r.ID.String(),
		Name:        r.Name,
		Description: r.Description,
		IsSystem:    r.IsSystem,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func roleFromModel(m *roleModel) *role.Role {
	rid, _ := id.ParseRoleID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &role.Role{
		ID:          rid,
		Name:        m.Name,
		Description: m.Description,
		IsSystem:    m.IsSystem,
		IsActive:    m.IsActive,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Permission model
// ──────────────────────────────────────────────────

type permissionModel struct {
	grove.BaseModel `grove:"table:bastion_permissions"`
	ID              string    `grove:"id,pk"`
	Name            string    `grove:"name,notnull"`
	Resource        string    `grove:"resource,notnull"`
	Action          string    `grove:"action,notnull"`
	Description     string    `grove:"description"`
	IsSystem        bool      `grove:"is_system,notnull"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

func permissionToModel(p *permission.Permission) *permissionModel {
	return &permissionModel{
		ID:          p.ID.String(),
		Name:        p.Name,
		Resource:    p.Resource,
		Action:      p.Action,
		Description: p.Description,
		IsSystem:    p.IsSystem,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func permissionFromModel(m *permissionModel) *permission.Permission {
	pid, _ := id.ParsePermissionID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &permission.Permission{
		ID:          pid,
		Name:        m.Name,
		Resource:    m.Resource,
		Action:      m.Action,
		Description: m.Description,
		IsSystem:    m.IsSystem,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Role-Permission junction model
// ──────────────────────────────────────────────────

type rolePermissionModel struct {
	grove.BaseModel `grove:"table:bastion_role_permissions"`
	RoleID          string    `grove:"role_id,pk"`
	PermissionID    string    `grove:"permission_id,pk"`
	GrantedBy       string    `grove:"granted_by"`
	GrantedAt       time.Time `grove:"granted_at,notnull"`
}

func grantFromModel(m *rolePermissionModel) *permission.Grant {
	rid, _ := id.ParseRoleID(m.RoleID)             //nolint:errcheck // stored IDs are always valid
	pid, _ := id.ParsePermissionID(m.PermissionID) //nolint:errcheck // stored IDs are always valid
	return &permission.Grant{
		RoleID:       rid,
		PermissionID: pid,
		GrantedBy:    m.GrantedBy,
		GrantedAt:    m.GrantedAt,
	}
}

// ──────────────────────────────────────────────────
// Assignment model
// ──────────────────────────────────────────────────

type assignmentModel struct {
	grove.BaseModel `grove:"table:bastion_assignments"`
	ID              string    `grove:"id,pk"`
	RoleID          string    `grove:"role_id,notnull"`
	UserID          string    `grove:"user_id,notnull"`
	AssignedBy      string    `grove:"assigned_by"`
	AssignedAt      time.Time `grove:"assigned_at,notnull"`
}

func assignmentToModel(a *assignment.Assignment) *assignmentModel {
	return &assignmentModel{
		ID:         a.ID.String(),
		RoleID:     a.RoleID.String(),
		UserID:     a.UserID,
		AssignedBy: a.AssignedBy,
		AssignedAt: a.AssignedAt,
	}
}

func assignmentFromModel(m *assignmentModel) *assignment.Assignment {
	aid, _ := id.ParseAssignmentID(m.ID) //nolint:errcheck // stored IDs are always valid
	rid, _ := id.ParseRoleID(m.RoleID)   //nolint:errcheck // stored IDs are always valid
	return &assignment.Assignment{
		ID:         aid,
		RoleID:     rid,
		UserID:     m.UserID,
		AssignedBy: m.AssignedBy,
		AssignedAt: m.AssignedAt,
	}
}

// ──────────────────────────────────────────────────
// Resource model
// ──────────────────────────────────────────────────

type resourceModel struct {
	grove.BaseModel `grove:"table:bastion_resources"`
	ID              string    `grove:"id,pk"`
	Name            string    `grove:"name,notnull"`
	Description     string    `grove:"description"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

func resourceToModel(r *resource.Resource) *resourceModel {
	return &resourceModel{
		ID:          r.ID.String(),
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func resourceFromModel(m *resourceModel) *resource.Resource {
	rid, _ := id.ParseResourceID(m.ID) //nolint:errcheck // stored IDs are always valid
	return &resource.Resource{
		ID:          rid,
		Name:        m.Name,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// ──────────────────────────────────────────────────
// Menu models
// ──────────────────────────────────────────────────

type menuModel struct {
	grove.BaseModel `grove:"table:bastion_menus"`
	ID              string    `grove:"id,pk"`
	ParentID        string    `grove:"parent_id"`
	Title           string    `grove:"title,notnull"`
	Href            string    `grove:"href"`
	Icon            string    `grove:"icon"`
	Target          string    `grove:"target"`
	OrderIndex      int       `grove:"order_index,notnull"`
	IsActive        bool      `grove:"is_active,notnull"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
	UpdatedAt       time.Time `grove:"updated_at,notnull"`
}

func menuToModel(m *menu.Menu) *menuModel {
	return &menuModel{
		ID:         m.ID,
		ParentID:   m.ParentID,
		Title:      m.Title,
		Href:       m.Href,
		Icon:       m.Icon,
		Target:     m.Target,
		OrderIndex: m.OrderIndex,
		IsActive:   m.IsActive,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func menuFromModel(m *menuModel) *menu.Menu {
	return &menu.Menu{
		ID:         m.ID,
		ParentID:   m.ParentID,
		Title:      m.Title,
		Href:       m.Href,
		Icon:       m.Icon,
		Target:     m.Target,
		OrderIndex: m.OrderIndex,
		IsActive:   m.IsActive,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

type menuPermissionModel struct {
	grove.BaseModel `grove:"table:bastion_menu_permissions"`
	MenuID          string `grove:"menu_id,pk"`
	RoleID          string `grove:"role_id,pk"`
	CanView         bool   `grove:"can_view,notnull"`
	CanEdit         bool   `grove:"can_edit,notnull"`
	CanDelete       bool   `grove:"can_delete,notnull"`
	CanExport       bool   `grove:"can_export,notnull"`
}

func menuPermissionToModel(p *menu.Permission) *menuPermissionModel {
	return &menuPermissionModel{
		MenuID:    p.MenuID,
		RoleID:    p.RoleID.String(),
		CanView:   p.CanView,
		CanEdit:   p.CanEdit,
		CanDelete: p.CanDelete,
		CanExport: p.CanExport,
	}
}

func menuPermissionFromModel(m *menuPermissionModel) *menu.Permission {
	rid, _ := id.ParseRoleID(m.RoleID) //nolint:errcheck // stored IDs are always valid
	return &menu.Permission{
		MenuID:    m.MenuID,
		RoleID:    rid,
		CanView:   m.CanView,
		CanEdit:   m.CanEdit,
		CanDelete: m.CanDelete,
		CanExport: m.CanExport,
	}
}

// ──────────────────────────────────────────────────
// Audit log model
// ──────────────────────────────────────────────────

type auditLogModel struct {
	grove.BaseModel `grove:"table:bastion_audit_logs"`
	ID              string    `grove:"id,pk"`
	UserID          string    `grove:"user_id,notnull"`
	Action          string    `grove:"action,notnull"`
	Resource        string    `grove:"resource,notnull"`
	ResourceID      string    `grove:"resource_id"`
	Details         string    `grove:"details"` // JSON text
	RequestIP       string    `grove:"request_ip"`
	CreatedAt       time.Time `grove:"created_at,notnull"`
}

func auditLogToModel(e *audit.Entry) (*auditLogModel, error) {
	details, err := json.Marshal(e.Details)
	if err != nil {
		return nil, fmt.Errorf("marshal audit details: %w", err)
	}
	return &auditLogModel{
		ID:         e.ID.String(),
		UserID:     e.UserID,
		Action:     e.Action,
		Resource:   e.Resource,
		ResourceID: e.ResourceID,
		Details:    string(details),
		RequestIP:  e.RequestIP,
		CreatedAt:  e.CreatedAt,
	}, nil
}

func auditLogFromModel(m *auditLogModel) (*audit.Entry, error) {
	aid, _ := id.ParseAuditLogID(m.ID) //nolint:errcheck // stored IDs are always valid
	var details map[string]any
	if m.Details != "" && m.Details != "null" {
		if err := json.Unmarshal([]byte(m.Details), &details); err != nil {
			return nil, fmt.Errorf("unmarshal audit details: %w", err)
		}
	}
	return &audit.Entry{
		ID:         aid,
		UserID:     m.UserID,
		Action:     m.Action,
		Resource:   m.Resource,
		ResourceID: m.ResourceID,
		Details:    details,
		RequestIP:  m.RequestIP,
		CreatedAt:  m.CreatedAt,
	}, nil
}
