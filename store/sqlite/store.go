// Package sqlite provides a SQLite implementation of the Bastion composite
// store using grove ORM with Go-based migrations.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/bastion/assignment"
	"github.com/xraph/bastion/audit"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/menu"
	"github.com/xraph/bastion/permission"
	"github.com/xraph/bastion/resource"
	"github.com/xraph/bastion/role"
	"github.com/xraph/bastion/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a SQLite implementation of the composite Bastion store.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// Migrate runs programmatic migrations via the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("bastion/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("bastion/sqlite: migration failed: %w", err)
	}
	return nil
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// ──────────────────────────────────────────────────
// Role operations
// ──────────────────────────────────────────────────

func (s *Store) CreateRole(ctx context.Context, r *role.Role) error {
	n, err := s.sdb.NewSelect((*roleModel)(nil)).
		Where("name = ?", r.Name).Count(ctx)
	if err != nil {
		return fmt.Errorf("bastion: create role: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("role %q: %w", r.Name, role.ErrDuplicate)
	}
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	if _, err := s.sdb.NewInsert(roleToModel(r)).Exec(ctx); err != nil {
		return fmt.Errorf("bastion: create role: %w", err)
	}
	return nil
}

func (s *Store) GetRole(ctx context.Context, roleID id.RoleID) (*role.Role, error) {
	m := new(roleModel)
	err := s.sdb.NewSelect(m).Where("id = ?", roleID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("role %s: %w", roleID, role.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get role: %w", err)
	}
	return roleFromModel(m), nil
}

func (s *Store) GetRoleByName(ctx context.Context, name string) (*role.Role, error) {
	m := new(roleModel)
	err := s.sdb.NewSelect(m).Where("name = ?", name).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("role %q: %w", name, role.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get role by name: %w", err)
	}
	return roleFromModel(m), nil
}

func (s *Store) UpdateRole(ctx context.Context, r *role.Role) error {
	r.UpdatedAt = time.Now().UTC()
	if _, err := s.sdb.NewUpdate(roleToModel(r)).WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("bastion: update role: %w", err)
	}
	return nil
}

func (s *Store) DeleteRole(ctx context.Context, roleID id.RoleID) error {
	_, err := s.sdb.NewDelete((*roleModel)(nil)).
		Where("id = ?", roleID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: delete role: %w", err)
	}
	return nil
}

func applyRoleFilter[Q interface {
	Where(string, ...any) Q
}](q Q, filter *role.ListFilter) Q {
	if filter == nil {
		return q
	}
	if filter.IsSystem != nil {
		q = q.Where("is_system = ?", *filter.IsSystem)
	}
	if filter.IsActive != nil {
		q = q.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Search != "" {
		q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Search+"%")
	}
	return q
}

func (s *Store) ListRoles(ctx context.Context, filter *role.ListFilter) ([]*role.Role, error) {
	var models []roleModel
	q := s.sdb.NewSelect(&models).OrderExpr("name ASC")
	q = applyRoleFilter(q, filter)
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("bastion: list roles: %w", err)
	}
	result := make([]*role.Role, len(models))
	for i := range models {
		result[i] = roleFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountRoles(ctx context.Context, filter *role.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*roleModel)(nil))
	q = applyRoleFilter(q, filter)
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("bastion: count roles: %w", err)
	}
	return count, nil
}

func (s *Store) ListRoleGrants(ctx context.Context, roleID id.RoleID) ([]*permission.Grant, error) {
	var models []rolePermissionModel
	err := s.sdb.NewSelect(&models).
		Where("role_id = ?", roleID.String()).
		OrderExpr("granted_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("bastion: list role grants: %w", err)
	}
	result := make([]*permission.Grant, len(models))
	for i := range models {
		result[i] = grantFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) AttachPermission(ctx context.Context, roleID id.RoleID, permID id.PermissionID, grantedBy string) error {
	m := &rolePermissionModel{
		RoleID:       roleID.String(),
		PermissionID: permID.String(),
		GrantedBy:    grantedBy,
		GrantedAt:    time.Now().UTC(),
	}
	_, err := s.sdb.NewInsert(m).
		OnConflict("(role_id, permission_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: attach permission: %w", err)
	}
	return nil
}

func (s *Store) DetachPermission(ctx context.Context, roleID id.RoleID, permID id.PermissionID) error {
	res, err := s.sdb.NewDelete((*rolePermissionModel)(nil)).
		Where("role_id = ?", roleID.String()).
		Where("permission_id = ?", permID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: detach permission: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("bastion: detach permission rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("grant %s on role %s: %w", permID, roleID, permission.ErrNotFound)
	}
	return nil
}

func (s *Store) SetRolePermissions(ctx context.Context, roleID id.RoleID, permIDs []id.PermissionID, grantedBy string) error {
	tx, err := s.sdb.BeginTxQuery(ctx, nil)
	if err != nil {
		return fmt.Errorf("bastion: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback on error is intentional

	// Surviving bindings keep their original grant metadata.
	var existing []rolePermissionModel
	err = tx.NewSelect(&existing).
		Where("role_id = ?", roleID.String()).
		Scan(ctx)
	if err != nil {
		return fmt.Errorf("bastion: set role permissions: %w", err)
	}
	keep := make(map[string]rolePermissionModel, len(existing))
	for _, m := range existing {
		keep[m.PermissionID] = m
	}

	_, err = tx.NewDelete((*rolePermissionModel)(nil)).
		Where("role_id = ?", roleID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: clear role permissions: %w", err)
	}

	if len(permIDs) > 0 {
		now := time.Now().UTC()
		models := make([]rolePermissionModel, len(permIDs))
		for i, pid := range permIDs {
			if m, ok := keep[pid.String()]; ok {
				models[i] = m
				continue
			}
			models[i] = rolePermissionModel{
				RoleID:       roleID.String(),
				PermissionID: pid.String(),
				GrantedBy:    grantedBy,
				GrantedAt:    now,
			}
		}
		if _, err := tx.NewInsert(&models).Exec(ctx); err != nil {
			return fmt.Errorf("bastion: set role permissions: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("bastion: commit tx: %w", err)
	}
	return nil
}

func (s *Store) CountRolesByPermission(ctx context.Context, permID id.PermissionID) (int64, error) {
	count, err := s.sdb.NewSelect((*rolePermissionModel)(nil)).
		Where("permission_id = ?", permID.String()).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("bastion: count roles by permission: %w", err)
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// Permission operations
// ──────────────────────────────────────────────────

func (s *Store) CreatePermission(ctx context.Context, p *permission.Permission) error {
	n, err := s.sdb.NewSelect((*permissionModel)(nil)).
		Where("name = ?", p.Name).Count(ctx)
	if err != nil {
		return fmt.Errorf("bastion: create permission: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("permission %q: %w", p.Name, permission.ErrDuplicate)
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := s.sdb.NewInsert(permissionToModel(p)).Exec(ctx); err != nil {
		return fmt.Errorf("bastion: create permission: %w", err)
	}
	return nil
}

func (s *Store) GetPermission(ctx context.Context, permID id.PermissionID) (*permission.Permission, error) {
	m := new(permissionModel)
	err := s.sdb.NewSelect(m).Where("id = ?", permID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("permission %s: %w", permID, permission.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get permission: %w", err)
	}
	return permissionFromModel(m), nil
}

func (s *Store) GetPermissionByName(ctx context.Context, name string) (*permission.Permission, error) {
	m := new(permissionModel)
	err := s.sdb.NewSelect(m).Where("name = ?", name).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("permission %q: %w", name, permission.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get permission by name: %w", err)
	}
	return permissionFromModel(m), nil
}

func (s *Store) UpdatePermission(ctx context.Context, p *permission.Permission) error {
	p.UpdatedAt = time.Now().UTC()
	if _, err := s.sdb.NewUpdate(permissionToModel(p)).WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("bastion: update permission: %w", err)
	}
	return nil
}

func (s *Store) DeletePermission(ctx context.Context, permID id.PermissionID) error {
	_, err := s.sdb.NewDelete((*permissionModel)(nil)).
		Where("id = ?", permID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: delete permission: %w", err)
	}
	return nil
}

func applyPermissionFilter[Q interface {
	Where(string, ...any) Q
}](q Q, filter *permission.ListFilter) Q {
	if filter == nil {
		return q
	}
	if filter.Resource != "" {
		q = q.Where("resource = ?", filter.Resource)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if filter.IsSystem != nil {
		q = q.Where("is_system = ?", *filter.IsSystem)
	}
	if filter.Search != "" {
		q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Search+"%")
	}
	return q
}

func (s *Store) ListPermissions(ctx context.Context, filter *permission.ListFilter) ([]*permission.Permission, error) {
	var models []permissionModel
	q := s.sdb.NewSelect(&models).OrderExpr("resource ASC, action ASC")
	q = applyPermissionFilter(q, filter)
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("bastion: list permissions: %w", err)
	}
	result := make([]*permission.Permission, len(models))
	for i := range models {
		result[i] = permissionFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountPermissions(ctx context.Context, filter *permission.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*permissionModel)(nil))
	q = applyPermissionFilter(q, filter)
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("bastion: count permissions: %w", err)
	}
	return count, nil
}

func (s *Store) CountPermissionsByResource(ctx context.Context, res string) (int64, error) {
	count, err := s.sdb.NewSelect((*permissionModel)(nil)).
		Where("resource = ?", res).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("bastion: count permissions by resource: %w", err)
	}
	return count, nil
}

func (s *Store) ListPermissionsByRole(ctx context.Context, roleID id.RoleID) ([]*permission.Permission, error) {
	var models []permissionModel
	err := s.sdb.NewSelect(&models).
		Join("JOIN", "bastion_role_permissions AS rp", "rp.permission_id = bastion_permissions.id").
		Where("rp.role_id = ?", roleID.String()).
		OrderExpr("resource ASC, action ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("bastion: list permissions by role: %w", err)
	}
	result := make([]*permission.Permission, len(models))
	for i := range models {
		result[i] = permissionFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) ListPermissionsForUser(ctx context.Context, userID string) ([]*permission.Permission, error) {
	// Assignments → active roles → role_permissions → distinct permissions.
	var assigns []assignmentModel
	err := s.sdb.NewSelect(&assigns).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("bastion: list permissions for user: %w", err)
	}
	if len(assigns) == 0 {
		return []*permission.Permission{}, nil
	}

	roleIDs := make([]string, len(assigns))
	for i, a := range assigns {
		roleIDs[i] = a.RoleID
	}

	var activeRoles []roleModel
	err = s.sdb.NewSelect(&activeRoles).
		Where("id IN (?)", roleIDs).
		Where("is_active = ?", true).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("bastion: list permissions for user: %w", err)
	}
	if len(activeRoles) == 0 {
		return []*permission.Permission{}, nil
	}

	activeIDs := make([]string, len(activeRoles))
	for i, r := range activeRoles {
		activeIDs[i] = r.ID
	}

	var rpModels []rolePermissionModel
	err = s.sdb.NewSelect(&rpModels).
		Where("role_id IN (?)", activeIDs).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("bastion: list permissions for user: %w", err)
	}
	if len(rpModels) == 0 {
		return []*permission.Permission{}, nil
	}

	seen := make(map[string]struct{}, len(rpModels))
	permIDs := make([]string, 0, len(rpModels))
	for _, rp := range rpModels {
		if _, ok := seen[rp.PermissionID]; !ok {
			seen[rp.PermissionID] = struct{}{}
			permIDs = append(permIDs, rp.PermissionID)
		}
	}

	var models []permissionModel
	err = s.sdb.NewSelect(&models).
		Where("id IN (?)", permIDs).
		OrderExpr("resource ASC, action ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("bastion: list permissions for user: %w", err)
	}
	result := make([]*permission.Permission, len(models))
	for i := range models {
		result[i] = permissionFromModel(&models[i])
	}
	return result, nil
}

// ──────────────────────────────────────────────────
// Assignment operations
// ──────────────────────────────────────────────────

func (s *Store) CreateAssignment(ctx context.Context, a *assignment.Assignment) error {
	n, err := s.sdb.NewSelect((*assignmentModel)(nil)).
		Where("user_id = ?", a.UserID).
		Where("role_id = ?", a.RoleID.String()).
		Count(ctx)
	if err != nil {
		return fmt.Errorf("bastion: create assignment: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("user %s role %s: %w", a.UserID, a.RoleID, assignment.ErrDuplicate)
	}
	a.AssignedAt = time.Now().UTC()
	if _, err := s.sdb.NewInsert(assignmentToModel(a)).Exec(ctx); err != nil {
		return fmt.Errorf("bastion: create assignment: %w", err)
	}
	return nil
}

func (s *Store) GetAssignment(ctx context.Context, asgnID id.AssignmentID) (*assignment.Assignment, error) {
	m := new(assignmentModel)
	err := s.sdb.NewSelect(m).Where("id = ?", asgnID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("assignment %s: %w", asgnID, assignment.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get assignment: %w", err)
	}
	return assignmentFromModel(m), nil
}

func (s *Store) DeleteAssignment(ctx context.Context, asgnID id.AssignmentID) error {
	_, err := s.sdb.NewDelete((*assignmentModel)(nil)).
		Where("id = ?", asgnID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: delete assignment: %w", err)
	}
	return nil
}

func (s *Store) DeleteAssignmentByUserRole(ctx context.Context, userID string, roleID id.RoleID) (*assignment.Assignment, error) {
	m := new(assignmentModel)
	err := s.sdb.NewSelect(m).
		Where("user_id = ?", userID).
		Where("role_id = ?", roleID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("user %s role %s: %w", userID, roleID, assignment.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: delete assignment by user role: %w", err)
	}
	_, err = s.sdb.NewDelete((*assignmentModel)(nil)).
		Where("id = ?", m.ID).Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("bastion: delete assignment by user role: %w", err)
	}
	return assignmentFromModel(m), nil
}

func applyAssignmentFilter[Q interface {
	Where(string, ...any) Q
}](q Q, filter *assignment.ListFilter) Q {
	if filter == nil {
		return q
	}
	if filter.RoleID != nil {
		q = q.Where("role_id = ?", filter.RoleID.String())
	}
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	return q
}

func (s *Store) ListAssignments(ctx context.Context, filter *assignment.ListFilter) ([]*assignment.Assignment, error) {
	var models []assignmentModel
	q := s.sdb.NewSelect(&models).OrderExpr("assigned_at ASC")
	q = applyAssignmentFilter(q, filter)
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("bastion: list assignments: %w", err)
	}
	result := make([]*assignment.Assignment, len(models))
	for i := range models {
		result[i] = assignmentFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountAssignments(ctx context.Context, filter *assignment.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*assignmentModel)(nil))
	q = applyAssignmentFilter(q, filter)
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("bastion: count assignments: %w", err)
	}
	return count, nil
}

func (s *Store) ListRolesForUser(ctx context.Context, userID string) ([]id.RoleID, error) {
	var models []assignmentModel
	err := s.sdb.NewSelect(&models).
		Where("user_id = ?", userID).
		OrderExpr("assigned_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("bastion: list roles for user: %w", err)
	}
	result := make([]id.RoleID, 0, len(models))
	for _, m := range models {
		rid, err := id.ParseRoleID(m.RoleID)
		if err == nil {
			result = append(result, rid)
		}
	}
	return result, nil
}

func (s *Store) ListUsersForRole(ctx context.Context, roleID id.RoleID) ([]*assignment.Assignment, error) {
	var models []assignmentModel
	err := s.sdb.NewSelect(&models).
		Where("role_id = ?", roleID.String()).
		OrderExpr("assigned_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("bastion: list users for role: %w", err)
	}
	result := make([]*assignment.Assignment, len(models))
	for i := range models {
		result[i] = assignmentFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) DeleteAssignmentsByRole(ctx context.Context, roleID id.RoleID) error {
	_, err := s.sdb.NewDelete((*assignmentModel)(nil)).
		Where("role_id = ?", roleID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: delete assignments by role: %w", err)
	}
	return nil
}

func (s *Store) DeleteAssignmentsByUser(ctx context.Context, userID string) error {
	_, err := s.sdb.NewDelete((*assignmentModel)(nil)).
		Where("user_id = ?", userID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: delete assignments by user: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Resource operations
// ──────────────────────────────────────────────────

func (s *Store) CreateResource(ctx context.Context, r *resource.Resource) error {
	n, err := s.sdb.NewSelect((*resourceModel)(nil)).
		Where("name = ?", r.Name).Count(ctx)
	if err != nil {
		return fmt.Errorf("bastion: create resource: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("resource %q: %w", r.Name, resource.ErrDuplicate)
	}
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	if _, err := s.sdb.NewInsert(resourceToModel(r)).Exec(ctx); err != nil {
		return fmt.Errorf("bastion: create resource: %w", err)
	}
	return nil
}

func (s *Store) GetResource(ctx context.Context, resID id.ResourceID) (*resource.Resource, error) {
	m := new(resourceModel)
	err := s.sdb.NewSelect(m).Where("id = ?", resID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("resource %s: %w", resID, resource.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get resource: %w", err)
	}
	return resourceFromModel(m), nil
}

func (s *Store) GetResourceByName(ctx context.Context, name string) (*resource.Resource, error) {
	m := new(resourceModel)
	err := s.sdb.NewSelect(m).Where("name = ?", name).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("resource %q: %w", name, resource.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get resource by name: %w", err)
	}
	return resourceFromModel(m), nil
}

func (s *Store) UpdateResource(ctx context.Context, r *resource.Resource) error {
	r.UpdatedAt = time.Now().UTC()
	if _, err := s.sdb.NewUpdate(resourceToModel(r)).WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("bastion: update resource: %w", err)
	}
	return nil
}

func (s *Store) DeleteResource(ctx context.Context, resID id.ResourceID) error {
	_, err := s.sdb.NewDelete((*resourceModel)(nil)).
		Where("id = ?", resID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: delete resource: %w", err)
	}
	return nil
}

func (s *Store) ListResources(ctx context.Context, filter *resource.ListFilter) ([]*resource.Resource, error) {
	var models []resourceModel
	q := s.sdb.NewSelect(&models).OrderExpr("name ASC")
	if filter != nil {
		if filter.Search != "" {
			q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Search+"%")
		}
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("bastion: list resources: %w", err)
	}
	result := make([]*resource.Resource, len(models))
	for i := range models {
		result[i] = resourceFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountResources(ctx context.Context, filter *resource.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*resourceModel)(nil))
	if filter != nil && filter.Search != "" {
		q = q.Where("LOWER(name) LIKE LOWER(?)", "%"+filter.Search+"%")
	}
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("bastion: count resources: %w", err)
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// Menu operations
// ──────────────────────────────────────────────────

func (s *Store) CreateMenu(ctx context.Context, m *menu.Menu) error {
	n, err := s.sdb.NewSelect((*menuModel)(nil)).
		Where("id = ?", m.ID).Count(ctx)
	if err != nil {
		return fmt.Errorf("bastion: create menu: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("menu %q: %w", m.ID, menu.ErrDuplicate)
	}
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	if _, err := s.sdb.NewInsert(menuToModel(m)).Exec(ctx); err != nil {
		return fmt.Errorf("bastion: create menu: %w", err)
	}
	return nil
}

func (s *Store) GetMenu(ctx context.Context, menuID string) (*menu.Menu, error) {
	m := new(menuModel)
	err := s.sdb.NewSelect(m).Where("id = ?", menuID).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("menu %q: %w", menuID, menu.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get menu: %w", err)
	}
	return menuFromModel(m), nil
}

func (s *Store) UpdateMenu(ctx context.Context, m *menu.Menu) error {
	m.UpdatedAt = time.Now().UTC()
	if _, err := s.sdb.NewUpdate(menuToModel(m)).WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("bastion: update menu: %w", err)
	}
	return nil
}

func (s *Store) DeleteMenu(ctx context.Context, menuID string) error {
	// Bindings are removed explicitly; not all deployments enforce FKs.
	_, err := s.sdb.NewDelete((*menuPermissionModel)(nil)).
		Where("menu_id = ?", menuID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: delete menu bindings: %w", err)
	}
	_, err = s.sdb.NewDelete((*menuModel)(nil)).
		Where("id = ?", menuID).Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: delete menu: %w", err)
	}
	return nil
}

func applyMenuFilter[Q interface {
	Where(string, ...any) Q
}](q Q, filter *menu.ListFilter) Q {
	if filter == nil {
		return q
	}
	if filter.ParentID != nil {
		q = q.Where("parent_id = ?", *filter.ParentID)
	}
	if filter.IsActive != nil {
		q = q.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Search != "" {
		q = q.Where("LOWER(title) LIKE LOWER(?)", "%"+filter.Search+"%")
	}
	return q
}

func (s *Store) ListMenus(ctx context.Context, filter *menu.ListFilter) ([]*menu.Menu, error) {
	var models []menuModel
	q := s.sdb.NewSelect(&models).OrderExpr("order_index ASC, id ASC")
	q = applyMenuFilter(q, filter)
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("bastion: list menus: %w", err)
	}
	result := make([]*menu.Menu, len(models))
	for i := range models {
		result[i] = menuFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountMenus(ctx context.Context, filter *menu.ListFilter) (int64, error) {
	q := s.sdb.NewSelect((*menuModel)(nil))
	q = applyMenuFilter(q, filter)
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("bastion: count menus: %w", err)
	}
	return count, nil
}

func (s *Store) CountChildMenus(ctx context.Context, menuID string) (int64, error) {
	count, err := s.sdb.NewSelect((*menuModel)(nil)).
		Where("parent_id = ?", menuID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("bastion: count child menus: %w", err)
	}
	return count, nil
}

func (s *Store) SetMenuPermission(ctx context.Context, p *menu.Permission) error {
	m := menuPermissionToModel(p)
	_, err := s.sdb.NewInsert(m).
		OnConflict("(menu_id, role_id) DO UPDATE SET can_view = EXCLUDED.can_view, can_edit = EXCLUDED.can_edit, can_delete = EXCLUDED.can_delete, can_export = EXCLUDED.can_export").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: set menu permission: %w", err)
	}
	return nil
}

func (s *Store) DeleteMenuPermission(ctx context.Context, menuID string, roleID id.RoleID) error {
	_, err := s.sdb.NewDelete((*menuPermissionModel)(nil)).
		Where("menu_id = ?", menuID).
		Where("role_id = ?", roleID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: delete menu permission: %w", err)
	}
	return nil
}

func (s *Store) ListMenuPermissionsForRoles(ctx context.Context, roleIDs []id.RoleID) ([]*menu.Permission, error) {
	if len(roleIDs) == 0 {
		return []*menu.Permission{}, nil
	}
	ids := make([]string, len(roleIDs))
	for i, rid := range roleIDs {
		ids[i] = rid.String()
	}
	var models []menuPermissionModel
	err := s.sdb.NewSelect(&models).
		Where("role_id IN (?)", ids).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("bastion: list menu permissions for roles: %w", err)
	}
	result := make([]*menu.Permission, len(models))
	for i := range models {
		result[i] = menuPermissionFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) ListMenuPermissions(ctx context.Context) ([]*menu.Permission, error) {
	var models []menuPermissionModel
	err := s.sdb.NewSelect(&models).
		OrderExpr("menu_id ASC, role_id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("bastion: list menu permissions: %w", err)
	}
	result := make([]*menu.Permission, len(models))
	for i := range models {
		result[i] = menuPermissionFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) DeleteMenuPermissionsByRole(ctx context.Context, roleID id.RoleID) error {
	_, err := s.sdb.NewDelete((*menuPermissionModel)(nil)).
		Where("role_id = ?", roleID.String()).Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: delete menu permissions by role: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Audit log operations
// ──────────────────────────────────────────────────

func (s *Store) CreateAuditEntry(ctx context.Context, e *audit.Entry) error {
	m, err := auditLogToModel(e)
	if err != nil {
		return fmt.Errorf("bastion: create audit entry: %w", err)
	}
	if _, err := s.sdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("bastion: create audit entry: %w", err)
	}
	return nil
}

func (s *Store) GetAuditEntry(ctx context.Context, entryID id.AuditLogID) (*audit.Entry, error) {
	m := new(auditLogModel)
	err := s.sdb.NewSelect(m).Where("id = ?", entryID.String()).Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("audit entry %s: %w", entryID, audit.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get audit entry: %w", err)
	}
	e, err := auditLogFromModel(m)
	if err != nil {
		return nil, fmt.Errorf("bastion: get audit entry: %w", err)
	}
	return e, nil
}

func applyAuditFilter[Q interface {
	Where(string, ...any) Q
}](q Q, filter *audit.QueryFilter) Q {
	if filter == nil {
		return q
	}
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if filter.Resource != "" {
		q = q.Where("resource = ?", filter.Resource)
	}
	if filter.After != nil {
		q = q.Where("created_at >= ?", *filter.After)
	}
	if filter.Before != nil {
		q = q.Where("created_at <= ?", *filter.Before)
	}
	return q
}

func (s *Store) ListAuditEntries(ctx context.Context, filter *audit.QueryFilter) ([]*audit.Entry, error) {
	var models []auditLogModel
	q := s.sdb.NewSelect(&models).OrderExpr("created_at DESC")
	q = applyAuditFilter(q, filter)
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(filter.Limit)
		}
		if filter.Offset > 0 {
			q = q.Offset(filter.Offset)
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("bastion: list audit entries: %w", err)
	}
	result := make([]*audit.Entry, len(models))
	for i := range models {
		e, err := auditLogFromModel(&models[i])
		if err != nil {
			return nil, fmt.Errorf("bastion: list audit entries: %w", err)
		}
		result[i] = e
	}
	return result, nil
}

func (s *Store) CountAuditEntries(ctx context.Context, filter *audit.QueryFilter) (int64, error) {
	q := s.sdb.NewSelect((*auditLogModel)(nil))
	q = applyAuditFilter(q, filter)
	count, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("bastion: count audit entries: %w", err)
	}
	return count, nil
}

func (s *Store) PurgeAuditEntries(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.sdb.NewDelete((*auditLogModel)(nil)).
		Where("created_at < ?", before).Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("bastion: purge audit entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("bastion: purge audit entries rows: %w", err)
	}
	return n, nil
}
