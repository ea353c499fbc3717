// Package memory provides an in-memory implementation of the Bastion
// composite store. It is intended for testing and development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/xraph/bastion/assignment"
	"github.com/xraph/bastion/audit"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/menu"
	"github.com/xraph/bastion/permission"
	"github.com/xraph/bastion/resource"
	"github.com/xraph/bastion/role"
)

// Compile-time interface checks.
var (
	_ role.Store       = (*Store)(nil)
	_ permission.Store = (*Store)(nil)
	_ assignment.Store = (*Store)(nil)
	_ resource.Store   = (*Store)(nil)
	_ menu.Store       = (*Store)(nil)
	_ audit.Store      = (*Store)(nil)
)

// Store is a thread-safe in-memory store for all Bastion entities.
type Store struct {
	mu sync.RWMutex

	roles       map[string]*role.Role
	permissions map[string]*permission.Permission
	grants      map[string]map[string]*permission.Grant // roleID -> permID -> grant
	assignments map[string]*assignment.Assignment
	resources   map[string]*resource.Resource
	menus       map[string]*menu.Menu
	menuPerms   map[string]*menu.Permission // menuID "/" roleID
	auditLogs   map[string]*audit.Entry
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		roles:       make(map[string]*role.Role),
		permissions: make(map[string]*permission.Permission),
		grants:      make(map[string]map[string]*permission.Grant),
		assignments: make(map[string]*assignment.Assignment),
		resources:   make(map[string]*resource.Resource),
		menus:       make(map[string]*menu.Menu),
		menuPerms:   make(map[string]*menu.Permission),
		auditLogs:   make(map[string]*audit.Entry),
	}
}

// Migrate is a no-op for the memory store.
func (s *Store) Migrate(_ context.Context) error { return nil }

// Ping is a no-op for the memory store.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (s *Store) Close() error { return nil }

// ──────────────────────────────────────────────────
// Role Store
// ──────────────────────────────────────────────────

func (s *Store) CreateRole(_ context.Context, r *role.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.roles {
		if existing.Name == r.Name {
			return fmt.Errorf("role %q: %w", r.Name, role.ErrDuplicate)
		}
	}
	s.roles[r.ID.String()] = copyRole(r)
	return nil
}

func (s *Store) GetRole(_ context.Context, roleID id.RoleID) (*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.roles[roleID.String()]
	if !ok {
		return nil, fmt.Errorf("role %s: %w", roleID, role.ErrNotFound)
	}
	return copyRole(r), nil
}

func (s *Store) GetRoleByName(_ context.Context, name string) (*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.roles {
		if r.Name == name {
			return copyRole(r), nil
		}
	}
	return nil, fmt.Errorf("role %q: %w", name, role.ErrNotFound)
}

func (s *Store) UpdateRole(_ context.Context, r *role.Role) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[r.ID.String()]; !ok {
		return fmt.Errorf("role %s: %w", r.ID, role.ErrNotFound)
	}
	for _, existing := range s.roles {
		if existing.Name == r.Name && existing.ID != r.ID {
			return fmt.Errorf("role %q: %w", r.Name, role.ErrDuplicate)
		}
	}
	s.roles[r.ID.String()] = copyRole(r)
	return nil
}

func (s *Store) DeleteRole(_ context.Context, roleID id.RoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roles[roleID.String()]; !ok {
		return fmt.Errorf("role %s: %w", roleID, role.ErrNotFound)
	}
	delete(s.roles, roleID.String())
	delete(s.grants, roleID.String())
	return nil
}

func (s *Store) listRolesLocked(filter *role.ListFilter) []*role.Role {
	result := make([]*role.Role, 0, len(s.roles))
	for _, r := range s.roles {
		if filter != nil {
			if filter.IsSystem != nil && r.IsSystem != *filter.IsSystem {
				continue
			}
			if filter.IsActive != nil && r.IsActive != *filter.IsActive {
				continue
			}
			if filter.Search != "" && !strings.Contains(strings.ToLower(r.Name), strings.ToLower(filter.Search)) {
				continue
			}
		}
		result = append(result, copyRole(r))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

func (s *Store) ListRoles(_ context.Context, filter *role.ListFilter) ([]*role.Role, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return paginate(s.listRolesLocked(filter), pageOf(filter)), nil
}

func (s *Store) CountRoles(_ context.Context, filter *role.ListFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.listRolesLocked(filter))), nil
}

func (s *Store) ListRoleGrants(_ context.Context, roleID id.RoleID) ([]*permission.Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*permission.Grant, 0, len(s.grants[roleID.String()]))
	for _, g := range s.grants[roleID.String()] {
		result = append(result, copyGrant(g))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].PermissionID.String() < result[j].PermissionID.String()
	})
	return result, nil
}

func (s *Store) AttachPermission(_ context.Context, roleID id.RoleID, permID id.PermissionID, grantedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rk := roleID.String()
	if s.grants[rk] == nil {
		s.grants[rk] = make(map[string]*permission.Grant)
	}
	// Re-attaching an existing grant keeps the original row.
	if _, ok := s.grants[rk][permID.String()]; ok {
		return nil
	}
	s.grants[rk][permID.String()] = &permission.Grant{
		RoleID:       roleID,
		PermissionID: permID,
		GrantedBy:    grantedBy,
		GrantedAt:    time.Now().UTC(),
	}
	return nil
}

func (s *Store) DetachPermission(_ context.Context, roleID id.RoleID, permID id.PermissionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.grants[roleID.String()][permID.String()]; !ok {
		return fmt.Errorf("grant %s on role %s: %w", permID, roleID, permission.ErrNotFound)
	}
	delete(s.grants[roleID.String()], permID.String())
	return nil
}

func (s *Store) SetRolePermissions(_ context.Context, roleID id.RoleID, permIDs []id.PermissionID, grantedBy string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	next := make(map[string]*permission.Grant, len(permIDs))
	prev := s.grants[roleID.String()]
	for _, pid := range permIDs {
		if g, ok := prev[pid.String()]; ok {
			next[pid.String()] = copyGrant(g)
			continue
		}
		next[pid.String()] = &permission.Grant{
			RoleID:       roleID,
			PermissionID: pid,
			GrantedBy:    grantedBy,
			GrantedAt:    now,
		}
	}
	s.grants[roleID.String()] = next
	return nil
}

func (s *Store) CountRolesByPermission(_ context.Context, permID id.PermissionID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, grants := range s.grants {
		if _, ok := grants[permID.String()]; ok {
			n++
		}
	}
	return n, nil
}

// ──────────────────────────────────────────────────
// Permission Store
// ──────────────────────────────────────────────────

func (s *Store) CreatePermission(_ context.Context, p *permission.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.permissions {
		if existing.Name == p.Name {
			return fmt.Errorf("permission %q: %w", p.Name, permission.ErrDuplicate)
		}
	}
	s.permissions[p.ID.String()] = copyPermission(p)
	return nil
}

func (s *Store) GetPermission(_ context.Context, permID id.PermissionID) (*permission.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.permissions[permID.String()]
	if !ok {
		return nil, fmt.Errorf("permission %s: %w", permID, permission.ErrNotFound)
	}
	return copyPermission(p), nil
}

func (s *Store) GetPermissionByName(_ context.Context, name string) (*permission.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.permissions {
		if p.Name == name {
			return copyPermission(p), nil
		}
	}
	return nil, fmt.Errorf("permission %q: %w", name, permission.ErrNotFound)
}

func (s *Store) UpdatePermission(_ context.Context, p *permission.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.permissions[p.ID.String()]; !ok {
		return fmt.Errorf("permission %s: %w", p.ID, permission.ErrNotFound)
	}
	s.permissions[p.ID.String()] = copyPermission(p)
	return nil
}

func (s *Store) DeletePermission(_ context.Context, permID id.PermissionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.permissions[permID.String()]; !ok {
		return fmt.Errorf("permission %s: %w", permID, permission.ErrNotFound)
	}
	delete(s.permissions, permID.String())
	for _, grants := range s.grants {
		delete(grants, permID.String())
	}
	return nil
}

func (s *Store) listPermissionsLocked(filter *permission.ListFilter) []*permission.Permission {
	result := make([]*permission.Permission, 0, len(s.permissions))
	for _, p := range s.permissions {
		if filter != nil {
			if filter.Resource != "" && p.Resource != filter.Resource {
				continue
			}
			if filter.Action != "" && p.Action != filter.Action {
				continue
			}
			if filter.IsSystem != nil && p.IsSystem != *filter.IsSystem {
				continue
			}
			if filter.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(filter.Search)) {
				continue
			}
		}
		result = append(result, copyPermission(p))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

func (s *Store) ListPermissions(_ context.Context, filter *permission.ListFilter) ([]*permission.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	page := pagOpts{}
	if filter != nil {
		page = pagOpts{limit: filter.Limit, offset: filter.Offset}
	}
	return paginate(s.listPermissionsLocked(filter), page), nil
}

func (s *Store) CountPermissions(_ context.Context, filter *permission.ListFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.listPermissionsLocked(filter))), nil
}

func (s *Store) CountPermissionsByResource(_ context.Context, res string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, p := range s.permissions {
		if p.Resource == res {
			n++
		}
	}
	return n, nil
}

func (s *Store) ListPermissionsByRole(_ context.Context, roleID id.RoleID) ([]*permission.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.permissionsByRoleLocked(roleID), nil
}

func (s *Store) permissionsByRoleLocked(roleID id.RoleID) []*permission.Permission {
	result := make([]*permission.Permission, 0, len(s.grants[roleID.String()]))
	for permKey := range s.grants[roleID.String()] {
		if p, ok := s.permissions[permKey]; ok {
			result = append(result, copyPermission(p))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// ListPermissionsForUser returns the distinct permissions granted via
// the user's active roles.
func (s *Store) ListPermissionsForUser(_ context.Context, userID string) ([]*permission.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	var result []*permission.Permission
	for _, a := range s.assignments {
		if a.UserID != userID {
			continue
		}
		r, ok := s.roles[a.RoleID.String()]
		if !ok || !r.IsActive {
			continue
		}
		for permKey := range s.grants[a.RoleID.String()] {
			if _, dup := seen[permKey]; dup {
				continue
			}
			if p, ok := s.permissions[permKey]; ok {
				seen[permKey] = struct{}{}
				result = append(result, copyPermission(p))
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// ──────────────────────────────────────────────────
// Assignment Store
// ──────────────────────────────────────────────────

func (s *Store) CreateAssignment(_ context.Context, a *assignment.Assignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.assignments {
		if existing.UserID == a.UserID && existing.RoleID == a.RoleID {
			return fmt.Errorf("user %s role %s: %w", a.UserID, a.RoleID, assignment.ErrDuplicate)
		}
	}
	s.assignments[a.ID.String()] = copyAssignment(a)
	return nil
}

func (s *Store) GetAssignment(_ context.Context, asgnID id.AssignmentID) (*assignment.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assignments[asgnID.String()]
	if !ok {
		return nil, fmt.Errorf("assignment %s: %w", asgnID, assignment.ErrNotFound)
	}
	return copyAssignment(a), nil
}

func (s *Store) DeleteAssignment(_ context.Context, asgnID id.AssignmentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.assignments[asgnID.String()]; !ok {
		return fmt.Errorf("assignment %s: %w", asgnID, assignment.ErrNotFound)
	}
	delete(s.assignments, asgnID.String())
	return nil
}

func (s *Store) DeleteAssignmentByUserRole(_ context.Context, userID string, roleID id.RoleID) (*assignment.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, a := range s.assignments {
		if a.UserID == userID && a.RoleID == roleID {
			delete(s.assignments, key)
			return copyAssignment(a), nil
		}
	}
	return nil, fmt.Errorf("user %s role %s: %w", userID, roleID, assignment.ErrNotFound)
}

func (s *Store) listAssignmentsLocked(filter *assignment.ListFilter) []*assignment.Assignment {
	result := make([]*assignment.Assignment, 0, len(s.assignments))
	for _, a := range s.assignments {
		if filter != nil {
			if filter.RoleID != nil && a.RoleID != *filter.RoleID {
				continue
			}
			if filter.UserID != "" && a.UserID != filter.UserID {
				continue
			}
		}
		result = append(result, copyAssignment(a))
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].AssignedAt.Equal(result[j].AssignedAt) {
			return result[i].AssignedAt.Before(result[j].AssignedAt)
		}
		return result[i].ID.String() < result[j].ID.String()
	})
	return result
}

func (s *Store) ListAssignments(_ context.Context, filter *assignment.ListFilter) ([]*assignment.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	page := pagOpts{}
	if filter != nil {
		page = pagOpts{limit: filter.Limit, offset: filter.Offset}
	}
	return paginate(s.listAssignmentsLocked(filter), page), nil
}

func (s *Store) CountAssignments(_ context.Context, filter *assignment.ListFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.listAssignmentsLocked(filter))), nil
}

func (s *Store) ListRolesForUser(_ context.Context, userID string) ([]id.RoleID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []id.RoleID
	for _, a := range s.assignments {
		if a.UserID == userID {
			result = append(result, a.RoleID)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].String() < result[j].String() })
	return result, nil
}

func (s *Store) ListUsersForRole(_ context.Context, roleID id.RoleID) ([]*assignment.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*assignment.Assignment
	for _, a := range s.assignments {
		if a.RoleID == roleID {
			result = append(result, copyAssignment(a))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result, nil
}

func (s *Store) DeleteAssignmentsByRole(_ context.Context, roleID id.RoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, a := range s.assignments {
		if a.RoleID == roleID {
			delete(s.assignments, key)
		}
	}
	return nil
}

func (s *Store) DeleteAssignmentsByUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, a := range s.assignments {
		if a.UserID == userID {
			delete(s.assignments, key)
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Resource Store
// ──────────────────────────────────────────────────

func (s *Store) CreateResource(_ context.Context, r *resource.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.resources {
		if existing.Name == r.Name {
			return fmt.Errorf("resource %q: %w", r.Name, resource.ErrDuplicate)
		}
	}
	s.resources[r.ID.String()] = copyResource(r)
	return nil
}

func (s *Store) GetResource(_ context.Context, resID id.ResourceID) (*resource.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.resources[resID.String()]
	if !ok {
		return nil, fmt.Errorf("resource %s: %w", resID, resource.ErrNotFound)
	}
	return copyResource(r), nil
}

func (s *Store) GetResourceByName(_ context.Context, name string) (*resource.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.resources {
		if r.Name == name {
			return copyResource(r), nil
		}
	}
	return nil, fmt.Errorf("resource %q: %w", name, resource.ErrNotFound)
}

func (s *Store) UpdateResource(_ context.Context, r *resource.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.resources[r.ID.String()]; !ok {
		return fmt.Errorf("resource %s: %w", r.ID, resource.ErrNotFound)
	}
	s.resources[r.ID.String()] = copyResource(r)
	return nil
}

func (s *Store) DeleteResource(_ context.Context, resID id.ResourceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.resources[resID.String()]; !ok {
		return fmt.Errorf("resource %s: %w", resID, resource.ErrNotFound)
	}
	delete(s.resources, resID.String())
	return nil
}

func (s *Store) listResourcesLocked(filter *resource.ListFilter) []*resource.Resource {
	result := make([]*resource.Resource, 0, len(s.resources))
	for _, r := range s.resources {
		if filter != nil && filter.Search != "" &&
			!strings.Contains(strings.ToLower(r.Name), strings.ToLower(filter.Search)) {
			continue
		}
		result = append(result, copyResource(r))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

func (s *Store) ListResources(_ context.Context, filter *resource.ListFilter) ([]*resource.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	page := pagOpts{}
	if filter != nil {
		page = pagOpts{limit: filter.Limit, offset: filter.Offset}
	}
	return paginate(s.listResourcesLocked(filter), page), nil
}

func (s *Store) CountResources(_ context.Context, filter *resource.ListFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.listResourcesLocked(filter))), nil
}

// ──────────────────────────────────────────────────
// Menu Store
// ──────────────────────────────────────────────────

func (s *Store) CreateMenu(_ context.Context, m *menu.Menu) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.menus[m.ID]; ok {
		return fmt.Errorf("menu %q: %w", m.ID, menu.ErrDuplicate)
	}
	s.menus[m.ID] = copyMenu(m)
	return nil
}

func (s *Store) GetMenu(_ context.Context, menuID string) (*menu.Menu, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.menus[menuID]
	if !ok {
		return nil, fmt.Errorf("menu %q: %w", menuID, menu.ErrNotFound)
	}
	return copyMenu(m), nil
}

func (s *Store) UpdateMenu(_ context.Context, m *menu.Menu) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.menus[m.ID]; !ok {
		return fmt.Errorf("menu %q: %w", m.ID, menu.ErrNotFound)
	}
	s.menus[m.ID] = copyMenu(m)
	return nil
}

func (s *Store) DeleteMenu(_ context.Context, menuID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.menus[menuID]; !ok {
		return fmt.Errorf("menu %q: %w", menuID, menu.ErrNotFound)
	}
	delete(s.menus, menuID)
	for key, mp := range s.menuPerms {
		if mp.MenuID == menuID {
			delete(s.menuPerms, key)
		}
	}
	return nil
}

func (s *Store) listMenusLocked(filter *menu.ListFilter) []*menu.Menu {
	result := make([]*menu.Menu, 0, len(s.menus))
	for _, m := range s.menus {
		if filter != nil {
			if filter.ParentID != nil && m.ParentID != *filter.ParentID {
				continue
			}
			if filter.IsActive != nil && m.IsActive != *filter.IsActive {
				continue
			}
			if filter.Search != "" && !strings.Contains(strings.ToLower(m.Title), strings.ToLower(filter.Search)) {
				continue
			}
		}
		result = append(result, copyMenu(m))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].OrderIndex != result[j].OrderIndex {
			return result[i].OrderIndex < result[j].OrderIndex
		}
		return result[i].ID < result[j].ID
	})
	return result
}

func (s *Store) ListMenus(_ context.Context, filter *menu.ListFilter) ([]*menu.Menu, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	page := pagOpts{}
	if filter != nil {
		page = pagOpts{limit: filter.Limit, offset: filter.Offset}
	}
	return paginate(s.listMenusLocked(filter), page), nil
}

func (s *Store) CountMenus(_ context.Context, filter *menu.ListFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.listMenusLocked(filter))), nil
}

func (s *Store) CountChildMenus(_ context.Context, menuID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int64
	for _, m := range s.menus {
		if m.ParentID == menuID {
			n++
		}
	}
	return n, nil
}

func (s *Store) SetMenuPermission(_ context.Context, p *menu.Permission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.menuPerms[menuPermKey(p.MenuID, p.RoleID)] = copyMenuPermission(p)
	return nil
}

func (s *Store) DeleteMenuPermission(_ context.Context, menuID string, roleID id.RoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.menuPerms, menuPermKey(menuID, roleID))
	return nil
}

func (s *Store) ListMenuPermissionsForRoles(_ context.Context, roleIDs []id.RoleID) ([]*menu.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := make(map[id.RoleID]struct{}, len(roleIDs))
	for _, rid := range roleIDs {
		want[rid] = struct{}{}
	}
	var result []*menu.Permission
	for _, mp := range s.menuPerms {
		if _, ok := want[mp.RoleID]; ok {
			result = append(result, copyMenuPermission(mp))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].MenuID < result[j].MenuID })
	return result, nil
}

func (s *Store) ListMenuPermissions(_ context.Context) ([]*menu.Permission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]*menu.Permission, 0, len(s.menuPerms))
	for _, mp := range s.menuPerms {
		result = append(result, copyMenuPermission(mp))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].MenuID < result[j].MenuID })
	return result, nil
}

func (s *Store) DeleteMenuPermissionsByRole(_ context.Context, roleID id.RoleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, mp := range s.menuPerms {
		if mp.RoleID == roleID {
			delete(s.menuPerms, key)
		}
	}
	return nil
}

// ──────────────────────────────────────────────────
// Audit Store
// ──────────────────────────────────────────────────

func (s *Store) CreateAuditEntry(_ context.Context, e *audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.auditLogs[e.ID.String()] = copyAuditEntry(e)
	return nil
}

func (s *Store) GetAuditEntry(_ context.Context, entryID id.AuditLogID) (*audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.auditLogs[entryID.String()]
	if !ok {
		return nil, fmt.Errorf("audit entry %s: %w", entryID, audit.ErrNotFound)
	}
	return copyAuditEntry(e), nil
}

func (s *Store) listAuditEntriesLocked(filter *audit.QueryFilter) []*audit.Entry {
	result := make([]*audit.Entry, 0, len(s.auditLogs))
	for _, e := range s.auditLogs {
		if filter != nil {
			if filter.UserID != "" && e.UserID != filter.UserID {
				continue
			}
			if filter.Action != "" && e.Action != filter.Action {
				continue
			}
			if filter.Resource != "" && e.Resource != filter.Resource {
				continue
			}
			if filter.After != nil && !e.CreatedAt.After(*filter.After) {
				continue
			}
			if filter.Before != nil && !e.CreatedAt.Before(*filter.Before) {
				continue
			}
		}
		result = append(result, copyAuditEntry(e))
	}
	// Newest first.
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID.String() < result[j].ID.String()
	})
	return result
}

func (s *Store) ListAuditEntries(_ context.Context, filter *audit.QueryFilter) ([]*audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	page := pagOpts{}
	if filter != nil {
		page = pagOpts{limit: filter.Limit, offset: filter.Offset}
	}
	return paginate(s.listAuditEntriesLocked(filter), page), nil
}

func (s *Store) CountAuditEntries(_ context.Context, filter *audit.QueryFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.listAuditEntriesLocked(filter))), nil
}

func (s *Store) PurgeAuditEntries(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for key, e := range s.auditLogs {
		if e.CreatedAt.Before(before) {
			delete(s.auditLogs, key)
			n++
		}
	}
	return n, nil
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func menuPermKey(menuID string, roleID id.RoleID) string {
	return menuID + "/" + roleID.String()
}

func copyRole(r *role.Role) *role.Role {
	c := *r
	return &c
}

func copyPermission(p *permission.Permission) *permission.Permission {
	c := *p
	return &c
}

func copyGrant(g *permission.Grant) *permission.Grant {
	c := *g
	return &c
}

func copyAssignment(a *assignment.Assignment) *assignment.Assignment {
	c := *a
	return &c
}

func copyResource(r *resource.Resource) *resource.Resource {
	c := *r
	return &c
}

func copyMenu(m *menu.Menu) *menu.Menu {
	c := *m
	return &c
}

func copyMenuPermission(p *menu.Permission) *menu.Permission {
	c := *p
	return &c
}

func copyAuditEntry(e *audit.Entry) *audit.Entry {
	c := *e
	if e.Details != nil {
		c.Details = make(map[string]any, len(e.Details))
		for k, v := range e.Details {
			c.Details[k] = v
		}
	}
	return &c
}

type pagOpts struct{ limit, offset int }

func pageOf(f *role.ListFilter) pagOpts {
	if f == nil {
		return pagOpts{}
	}
	return pagOpts{limit: f.Limit, offset: f.Offset}
}

func paginate[T any](items []*T, p pagOpts) []*T {
	if p.offset >= len(items) {
		if p.offset > 0 {
			return nil
		}
	} else if p.offset > 0 {
		items = items[p.offset:]
	}
	if p.limit > 0 && p.limit < len(items) {
		items = items[:p.limit]
	}
	return items
}
