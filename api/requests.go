package api

// ──────────────────────────────────────────────────
// Check requests
// ──────────────────────────────────────────────────

// CheckRequest is the request body for an authorization check.
type CheckRequest struct {
	UserID   string `json:"user_id" description:"User identifier"`
	Resource string `json:"resource" description:"Resource name"`
	Action   string `json:"action" description:"Action name"`
}

// BatchCheckRequest contains multiple checks.
type BatchCheckRequest struct {
	Checks []CheckRequest `json:"checks" description:"List of authorization checks"`
}

// GetEffectiveRequest is the path parameter for resolving a user's
// effective permission set.
type GetEffectiveRequest struct {
	UserID string `path:"userId" description:"User identifier"`
}

// ──────────────────────────────────────────────────
// Role requests
// ──────────────────────────────────────────────────

// CreateRoleRequest is the body for creating a role.
type CreateRoleRequest struct {
	Name        string `json:"name" description:"Role name"`
	Description string `json:"description,omitempty" description:"Human-readable description"`
	IsSystem    bool   `json:"is_system,omitempty" description:"System role flag"`
}

// UpdateRoleRequest is the body for updating a role.
type UpdateRoleRequest struct {
	Name        *string `json:"name,omitempty" description:"Role name"`
	Description *string `json:"description,omitempty" description:"Human-readable description"`
	IsActive    *bool   `json:"is_active,omitempty" description:"Active flag"`
}

// GetRoleRequest is the path parameter for getting a role.
type GetRoleRequest struct {
	RoleID string `path:"roleId" description:"Role ID"`
}

// ListRolesRequest holds query parameters for listing roles.
type ListRolesRequest struct {
	System string `query:"system" description:"Filter by system flag (true/false)"`
	Active string `query:"active" description:"Filter by active status (true/false)"`
	Search string `query:"search" description:"Search by name"`
	Limit  int    `query:"limit" description:"Maximum results (default: 50)"`
	Offset int    `query:"offset" description:"Results to skip"`
}

// AttachPermissionRequest is the body for attaching a permission to a role.
type AttachPermissionRequest struct {
	PermissionID string `json:"permission_id" description:"Permission ID to attach"`
}

// SetRolePermissionsRequest replaces a role's full grant set.
type SetRolePermissionsRequest struct {
	PermissionIDs []string `json:"permission_ids" description:"Full set of permission IDs"`
}

// BulkGrantPermissionsRequest attaches many permissions to a role at once.
type BulkGrantPermissionsRequest struct {
	PermissionIDs []string `json:"permission_ids" description:"Permission IDs to attach"`
}

// ──────────────────────────────────────────────────
// Permission requests
// ──────────────────────────────────────────────────

// CreatePermissionRequest is the body for creating a permission. Either
// name or the resource/action pair must be given.
type CreatePermissionRequest struct {
	Name        string `json:"name,omitempty" description:"Permission name (e.g. document:read)"`
	Resource    string `json:"resource,omitempty" description:"Resource name"`
	Action      string `json:"action,omitempty" description:"Action name"`
	Description string `json:"description,omitempty" description:"Human-readable description"`
	IsSystem    bool   `json:"is_system,omitempty" description:"System permission flag"`
}

// UpdatePermissionRequest is the body for updating a permission.
type UpdatePermissionRequest struct {
	Description *string `json:"description,omitempty" description:"Human-readable description"`
}

// GetPermissionRequest is the path parameter for getting a permission.
type GetPermissionRequest struct {
	PermissionID string `path:"permissionId" description:"Permission ID"`
}

// ListPermissionsRequest holds query parameters.
type ListPermissionsRequest struct {
	Resource string `query:"resource" description:"Filter by resource"`
	Action   string `query:"action" description:"Filter by action"`
	Search   string `query:"search" description:"Search by name"`
	Limit    int    `query:"limit" description:"Maximum results"`
	Offset   int    `query:"offset" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Resource requests
// ──────────────────────────────────────────────────

// CreateResourceRequest is the body for registering a resource.
type CreateResourceRequest struct {
	Name        string `json:"name" description:"Resource name"`
	Description string `json:"description,omitempty" description:"Human-readable description"`
}

// UpdateResourceRequest is the body for updating a resource.
type UpdateResourceRequest struct {
	Description *string `json:"description,omitempty" description:"Human-readable description"`
}

// GetResourceRequest is the path parameter for getting a resource.
type GetResourceRequest struct {
	ResourceID string `path:"resourceId" description:"Resource ID"`
}

// ListResourcesRequest holds query parameters.
type ListResourcesRequest struct {
	Search string `query:"search" description:"Search by name"`
	Limit  int    `query:"limit" description:"Maximum results"`
	Offset int    `query:"offset" description:"Results to skip"`
}

// ──────────────────────────────────────────────────
// Assignment requests
// ──────────────────────────────────────────────────

// AssignRoleRequest is the body for assigning a role to a user.
type AssignRoleRequest struct {
	UserID string `json:"user_id" description:"User identifier"`
	RoleID string `json:"role_id" description:"Role ID to assign"`
}

// BulkAssignRequest assigns or removes one role for many users.
type BulkAssignRequest struct {
	UserIDs []string `json:"user_ids" description:"User identifiers"`
	RoleID  string   `json:"role_id" description:"Role ID"`
}

// ListAssignmentsRequest holds query parameters.
type ListAssignmentsRequest struct {
	UserID string `query:"user_id" description:"Filter by user ID"`
	RoleID string `query:"role_id" description:"Filter by role ID"`
	Limit  int    `query:"limit" description:"Maximum results"`
	Offset int    `query:"offset" description:"Results to skip"`
}

// UserRoleRequest addresses one (user, role) pair.
type UserRoleRequest struct {
	UserID string `path:"userId" description:"User identifier"`
	RoleID string `path:"roleId" description:"Role ID"`
}

// GetUserRequest is the path parameter for user-scoped listings.
type GetUserRequest struct {
	UserID string `path:"userId" description:"User identifier"`
}

// ──────────────────────────────────────────────────
// Menu requests
// ──────────────────────────────────────────────────

// CreateMenuRequest is the body for creating a menu entry.
type CreateMenuRequest struct {
	ID         string `json:"id" description:"Menu code (stable identifier)"`
	ParentID   string `json:"parent_id,omitempty" description:"Parent menu code"`
	Title      string `json:"title" description:"Display title"`
	Href       string `json:"href,omitempty" description:"Navigation target"`
	Icon       string `json:"icon,omitempty" description:"Icon identifier"`
	Target     string `json:"target,omitempty" description:"Link target"`
	OrderIndex int    `json:"order_index,omitempty" description:"Sibling sort order"`
}

// UpdateMenuRequest is the body for updating a menu entry.
type UpdateMenuRequest struct {
	ParentID   *string `json:"parent_id,omitempty" description:"Parent menu code"`
	Title      *string `json:"title,omitempty" description:"Display title"`
	Href       *string `json:"href,omitempty" description:"Navigation target"`
	Icon       *string `json:"icon,omitempty" description:"Icon identifier"`
	Target     *string `json:"target,omitempty" description:"Link target"`
	OrderIndex *int    `json:"order_index,omitempty" description:"Sibling sort order"`
	IsActive   *bool   `json:"is_active,omitempty" description:"Active flag"`
}

// GetMenuRequest is the path parameter for getting a menu.
type GetMenuRequest struct {
	MenuID string `path:"menuId" description:"Menu code"`
}

// ListMenusRequest holds query parameters.
type ListMenusRequest struct {
	ParentID string `query:"parent_id" description:"Filter by parent menu code"`
	Active   string `query:"active" description:"Filter by active status (true/false)"`
	Search   string `query:"search" description:"Search by title"`
	Limit    int    `query:"limit" description:"Maximum results"`
	Offset   int    `query:"offset" description:"Results to skip"`
}

// SetMenuPermissionRequest sets one role's capability flags on a menu.
type SetMenuPermissionRequest struct {
	RoleID    string `json:"role_id" description:"Role ID"`
	CanView   bool   `json:"can_view" description:"View capability"`
	CanEdit   bool   `json:"can_edit" description:"Edit capability"`
	CanDelete bool   `json:"can_delete" description:"Delete capability"`
	CanExport bool   `json:"can_export" description:"Export capability"`
}

// MenuRoleRequest addresses one (menu, role) binding.
type MenuRoleRequest struct {
	MenuID string `path:"menuId" description:"Menu code"`
	RoleID string `path:"roleId" description:"Role ID"`
}

// ──────────────────────────────────────────────────
// Audit requests
// ──────────────────────────────────────────────────

// ListAuditEntriesRequest holds query parameters for querying audit entries.
type ListAuditEntriesRequest struct {
	UserID   string `query:"user_id" description:"Filter by acting user"`
	Action   string `query:"action" description:"Filter by action"`
	Resource string `query:"resource" description:"Filter by resource kind"`
	After    string `query:"after" description:"After timestamp (RFC3339)"`
	Before   string `query:"before" description:"Before timestamp (RFC3339)"`
	Limit    int    `query:"limit" description:"Maximum results"`
	Offset   int    `query:"offset" description:"Results to skip"`
}

// GetAuditEntryRequest is the path parameter for getting an audit entry.
type GetAuditEntryRequest struct {
	EntryID string `path:"entryId" description:"Audit entry ID"`
}

// PurgeAuditEntriesRequest holds the retention cutoff.
type PurgeAuditEntriesRequest struct {
	Before string `query:"before" description:"Delete entries older than this timestamp (RFC3339)"`
}
