// Package mongo provides a MongoDB implementation of the Bastion composite
// store using grove ORM. Uniqueness is enforced by unique indexes created at
// migration time; SetRolePermissions is not transactional on this backend,
// so concurrent readers can observe an empty grant set during the replace.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/bastion/assignment"
	"github.com/xraph/bastion/audit"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/menu"
	"github.com/xraph/bastion/permission"
	"github.com/xraph/bastion/resource"
	"github.com/xraph/bastion/role"
	"github.com/xraph/bastion/store"
)

// Collection name constants.
const (
	colRoles           = "bastion_roles"
	colPermissions     = "bastion_permissions"
	colRolePermissions = "bastion_role_permissions"
	colAssignments     = "bastion_assignments"
	colResources       = "bastion_resources"
	colMenus           = "bastion_menus"
	colMenuPermissions = "bastion_menu_permissions"
	colAuditLogs       = "bastion_audit_logs"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is a MongoDB implementation of the composite Bastion store.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// Migrate creates indexes for all bastion collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()
	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("bastion/mongo: migrate %s indexes: %w", col, err)
		}
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

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongod.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all bastion collections.
func migrationIndexes() map[string][]mongod.IndexModel {
	return map[string][]mongod.IndexModel{
		colRoles: {
			{
				Keys:    bson.D{{Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "is_active", Value: 1}}},
		},
		colPermissions: {
			{
				Keys:    bson.D{{Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "resource", Value: 1}, {Key: "action", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colRolePermissions: {
			{
				Keys:    bson.D{{Key: "role_id", Value: 1}, {Key: "permission_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "role_id", Value: 1}}},
			{Keys: bson.D{{Key: "permission_id", Value: 1}}},
		},
		colAssignments: {
			{
				Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "role_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "role_id", Value: 1}}},
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
		},
		colResources: {
			{
				Keys:    bson.D{{Key: "name", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colMenus: {
			{Keys: bson.D{{Key: "parent_id", Value: 1}, {Key: "order_index", Value: 1}}},
		},
		colMenuPermissions: {
			{
				Keys:    bson.D{{Key: "menu_id", Value: 1}, {Key: "role_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "role_id", Value: 1}}},
		},
		colAuditLogs: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
			{Keys: bson.D{{Key: "resource", Value: 1}, {Key: "resource_id", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		},
	}
}

// ──────────────────────────────────────────────────
// Role operations
// ──────────────────────────────────────────────────

func (s *Store) CreateRole(ctx context.Context, r *role.Role) error {
	t := now()
	r.CreatedAt = t
	r.UpdatedAt = t
	if _, err := s.mdb.NewInsert(roleToModel(r)).Exec(ctx); err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return fmt.Errorf("role %q: %w", r.Name, role.ErrDuplicate)
		}
		return fmt.Errorf("bastion: create role: %w", err)
	}
	return nil
}

func (s *Store) GetRole(ctx context.Context, roleID id.RoleID) (*role.Role, error) {
	var m roleModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": roleID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("role %s: %w", roleID, role.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get role: %w", err)
	}
	return roleFromModel(&m), nil
}

func (s *Store) GetRoleByName(ctx context.Context, name string) (*role.Role, error) {
	var m roleModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"name": name}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("role %q: %w", name, role.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get role by name: %w", err)
	}
	return roleFromModel(&m), nil
}

func (s *Store) UpdateRole(ctx context.Context, r *role.Role) error {
	r.UpdatedAt = now()
	m := roleToModel(r)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: update role: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("role %s: %w", r.ID, role.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteRole(ctx context.Context, roleID id.RoleID) error {
	_, err := s.mdb.NewDelete((*roleModel)(nil)).
		Filter(bson.M{"_id": roleID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: delete role: %w", err)
	}
	return nil
}

func roleFilterDoc(filter *role.ListFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.IsSystem != nil {
		f["is_system"] = *filter.IsSystem
	}
	if filter.IsActive != nil {
		f["is_active"] = *filter.IsActive
	}
	if filter.Search != "" {
		f["name"] = bson.M{"$regex": filter.Search, "$options": "i"}
	}
	return f
}

func (s *Store) ListRoles(ctx context.Context, filter *role.ListFilter) ([]*role.Role, error) {
	var models []roleModel
	q := s.mdb.NewFind(&models).
		Filter(roleFilterDoc(filter)).
		Sort(bson.D{{Key: "name", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
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
	count, err := s.mdb.NewFind((*roleModel)(nil)).
		Filter(roleFilterDoc(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("bastion: count roles: %w", err)
	}
	return count, nil
}

func (s *Store) ListRoleGrants(ctx context.Context, roleID id.RoleID) ([]*permission.Grant, error) {
	var models []rolePermissionModel
	if err := s.mdb.NewFind(&models).
		Filter(bson.M{"role_id": roleID.String()}).
		Sort(bson.D{{Key: "granted_at", Value: 1}}).
		Scan(ctx); err != nil {
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
		GrantedAt:    now(),
	}
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return nil // already attached
		}
		return fmt.Errorf("bastion: attach permission: %w", err)
	}
	return nil
}

func (s *Store) DetachPermission(ctx context.Context, roleID id.RoleID, permID id.PermissionID) error {
	res, err := s.mdb.NewDelete((*rolePermissionModel)(nil)).
		Filter(bson.M{"role_id": roleID.String(), "permission_id": permID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: detach permission: %w", err)
	}
	if res.DeletedCount() == 0 {
		return fmt.Errorf("grant %s on role %s: %w", permID, roleID, permission.ErrNotFound)
	}
	return nil
}

func (s *Store) SetRolePermissions(ctx context.Context, roleID id.RoleID, permIDs []id.PermissionID, grantedBy string) error {
	// Load existing bindings so surviving grants keep their metadata.
	var existing []rolePermissionModel
	if err := s.mdb.NewFind(&existing).
		Filter(bson.M{"role_id": roleID.String()}).
		Scan(ctx); err != nil {
		return fmt.Errorf("bastion: set role permissions: %w", err)
	}
	keep := make(map[string]rolePermissionModel, len(existing))
	for _, m := range existing {
		keep[m.PermissionID] = m
	}

	_, err := s.mdb.NewDelete((*rolePermissionModel)(nil)).
		Many().
		Filter(bson.M{"role_id": roleID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: clear role permissions: %w", err)
	}

	if len(permIDs) > 0 {
		t := now()
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
				GrantedAt:    t,
			}
		}
		if _, err := s.mdb.NewInsert(&models).Exec(ctx); err != nil {
			return fmt.Errorf("bastion: set role permissions: %w", err)
		}
	}
	return nil
}

func (s *Store) CountRolesByPermission(ctx context.Context, permID id.PermissionID) (int64, error) {
	count, err := s.mdb.NewFind((*rolePermissionModel)(nil)).
		Filter(bson.M{"permission_id": permID.String()}).
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
	t := now()
	p.CreatedAt = t
	p.UpdatedAt = t
	if _, err := s.mdb.NewInsert(permissionToModel(p)).Exec(ctx); err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return fmt.Errorf("permission %q: %w", p.Name, permission.ErrDuplicate)
		}
		return fmt.Errorf("bastion: create permission: %w", err)
	}
	return nil
}

func (s *Store) GetPermission(ctx context.Context, permID id.PermissionID) (*permission.Permission, error) {
	var m permissionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": permID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("permission %s: %w", permID, permission.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get permission: %w", err)
	}
	return permissionFromModel(&m), nil
}

func (s *Store) GetPermissionByName(ctx context.Context, name string) (*permission.Permission, error) {
	var m permissionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"name": name}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("permission %q: %w", name, permission.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get permission by name: %w", err)
	}
	return permissionFromModel(&m), nil
}

func (s *Store) UpdatePermission(ctx context.Context, p *permission.Permission) error {
	p.UpdatedAt = now()
	m := permissionToModel(p)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: update permission: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("permission %s: %w", p.ID, permission.ErrNotFound)
	}
	return nil
}

func (s *Store) DeletePermission(ctx context.Context, permID id.PermissionID) error {
	_, err := s.mdb.NewDelete((*permissionModel)(nil)).
		Filter(bson.M{"_id": permID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: delete permission: %w", err)
	}
	// Grants referencing the permission go with it.
	_, err = s.mdb.NewDelete((*rolePermissionModel)(nil)).
		Many().
		Filter(bson.M{"permission_id": permID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: delete permission grants: %w", err)
	}
	return nil
}

func permissionFilterDoc(filter *permission.ListFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.Resource != "" {
		f["resource"] = filter.Resource
	}
	if filter.Action != "" {
		f["action"] = filter.Action
	}
	if filter.IsSystem != nil {
		f["is_system"] = *filter.IsSystem
	}
	if filter.Search != "" {
		f["name"] = bson.M{"$regex": filter.Search, "$options": "i"}
	}
	return f
}

func (s *Store) ListPermissions(ctx context.Context, filter *permission.ListFilter) ([]*permission.Permission, error) {
	var models []permissionModel
	q := s.mdb.NewFind(&models).
		Filter(permissionFilterDoc(filter)).
		Sort(bson.D{{Key: "resource", Value: 1}, {Key: "action", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
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
	count, err := s.mdb.NewFind((*permissionModel)(nil)).
		Filter(permissionFilterDoc(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("bastion: count permissions: %w", err)
	}
	return count, nil
}

func (s *Store) CountPermissionsByResource(ctx context.Context, res string) (int64, error) {
	count, err := s.mdb.NewFind((*permissionModel)(nil)).
		Filter(bson.M{"resource": res}).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("bastion: count permissions by resource: %w", err)
	}
	return count, nil
}

func (s *Store) ListPermissionsByRole(ctx context.Context, roleID id.RoleID) ([]*permission.Permission, error) {
	var rpModels []rolePermissionModel
	if err := s.mdb.NewFind(&rpModels).
		Filter(bson.M{"role_id": roleID.String()}).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("bastion: list permissions by role: %w", err)
	}
	if len(rpModels) == 0 {
		return []*permission.Permission{}, nil
	}
	permIDs := make([]string, len(rpModels))
	for i, rp := range rpModels {
		permIDs[i] = rp.PermissionID
	}

	var models []permissionModel
	if err := s.mdb.NewFind(&models).
		Filter(bson.M{"_id": bson.M{"$in": permIDs}}).
		Sort(bson.D{{Key: "resource", Value: 1}, {Key: "action", Value: 1}}).
		Scan(ctx); err != nil {
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
	if err := s.mdb.NewFind(&assigns).
		Filter(bson.M{"user_id": userID}).
		Scan(ctx); err != nil {
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
	if err := s.mdb.NewFind(&activeRoles).
		Filter(bson.M{"_id": bson.M{"$in": roleIDs}, "is_active": true}).
		Scan(ctx); err != nil {
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
	if err := s.mdb.NewFind(&rpModels).
		Filter(bson.M{"role_id": bson.M{"$in": activeIDs}}).
		Scan(ctx); err != nil {
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
	if err := s.mdb.NewFind(&models).
		Filter(bson.M{"_id": bson.M{"$in": permIDs}}).
		Sort(bson.D{{Key: "resource", Value: 1}, {Key: "action", Value: 1}}).
		Scan(ctx); err != nil {
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
	a.AssignedAt = now()
	if _, err := s.mdb.NewInsert(assignmentToModel(a)).Exec(ctx); err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return fmt.Errorf("user %s role %s: %w", a.UserID, a.RoleID, assignment.ErrDuplicate)
		}
		return fmt.Errorf("bastion: create assignment: %w", err)
	}
	return nil
}

func (s *Store) GetAssignment(ctx context.Context, asgnID id.AssignmentID) (*assignment.Assignment, error) {
	var m assignmentModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": asgnID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("assignment %s: %w", asgnID, assignment.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get assignment: %w", err)
	}
	return assignmentFromModel(&m), nil
}

func (s *Store) DeleteAssignment(ctx context.Context, asgnID id.AssignmentID) error {
	_, err := s.mdb.NewDelete((*assignmentModel)(nil)).
		Filter(bson.M{"_id": asgnID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: delete assignment: %w", err)
	}
	return nil
}

func (s *Store) DeleteAssignmentByUserRole(ctx context.Context, userID string, roleID id.RoleID) (*assignment.Assignment, error) {
	var m assignmentModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"user_id": userID, "role_id": roleID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("user %s role %s: %w", userID, roleID, assignment.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: delete assignment by user role: %w", err)
	}
	_, err = s.mdb.NewDelete((*assignmentModel)(nil)).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("bastion: delete assignment by user role: %w", err)
	}
	return assignmentFromModel(&m), nil
}

func assignmentFilterDoc(filter *assignment.ListFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.RoleID != nil {
		f["role_id"] = filter.RoleID.String()
	}
	if filter.UserID != "" {
		f["user_id"] = filter.UserID
	}
	return f
}

func (s *Store) ListAssignments(ctx context.Context, filter *assignment.ListFilter) ([]*assignment.Assignment, error) {
	var models []assignmentModel
	q := s.mdb.NewFind(&models).
		Filter(assignmentFilterDoc(filter)).
		Sort(bson.D{{Key: "assigned_at", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
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
	count, err := s.mdb.NewFind((*assignmentModel)(nil)).
		Filter(assignmentFilterDoc(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("bastion: count assignments: %w", err)
	}
	return count, nil
}

func (s *Store) ListRolesForUser(ctx context.Context, userID string) ([]id.RoleID, error) {
	var models []assignmentModel
	if err := s.mdb.NewFind(&models).
		Filter(bson.M{"user_id": userID}).
		Sort(bson.D{{Key: "assigned_at", Value: 1}}).
		Scan(ctx); err != nil {
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
	if err := s.mdb.NewFind(&models).
		Filter(bson.M{"role_id": roleID.String()}).
		Sort(bson.D{{Key: "assigned_at", Value: 1}}).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("bastion: list users for role: %w", err)
	}
	result := make([]*assignment.Assignment, len(models))
	for i := range models {
		result[i] = assignmentFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) DeleteAssignmentsByRole(ctx context.Context, roleID id.RoleID) error {
	_, err := s.mdb.NewDelete((*assignmentModel)(nil)).
		Many().
		Filter(bson.M{"role_id": roleID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: delete assignments by role: %w", err)
	}
	return nil
}

func (s *Store) DeleteAssignmentsByUser(ctx context.Context, userID string) error {
	_, err := s.mdb.NewDelete((*assignmentModel)(nil)).
		Many().
		Filter(bson.M{"user_id": userID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: delete assignments by user: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Resource operations
// ──────────────────────────────────────────────────

func (s *Store) CreateResource(ctx context.Context, r *resource.Resource) error {
	t := now()
	r.CreatedAt = t
	r.UpdatedAt = t
	if _, err := s.mdb.NewInsert(resourceToModel(r)).Exec(ctx); err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return fmt.Errorf("resource %q: %w", r.Name, resource.ErrDuplicate)
		}
		return fmt.Errorf("bastion: create resource: %w", err)
	}
	return nil
}

func (s *Store) GetResource(ctx context.Context, resID id.ResourceID) (*resource.Resource, error) {
	var m resourceModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": resID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("resource %s: %w", resID, resource.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get resource: %w", err)
	}
	return resourceFromModel(&m), nil
}

func (s *Store) GetResourceByName(ctx context.Context, name string) (*resource.Resource, error) {
	var m resourceModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"name": name}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("resource %q: %w", name, resource.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get resource by name: %w", err)
	}
	return resourceFromModel(&m), nil
}

func (s *Store) UpdateResource(ctx context.Context, r *resource.Resource) error {
	r.UpdatedAt = now()
	m := resourceToModel(r)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: update resource: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("resource %s: %w", r.ID, resource.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteResource(ctx context.Context, resID id.ResourceID) error {
	_, err := s.mdb.NewDelete((*resourceModel)(nil)).
		Filter(bson.M{"_id": resID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: delete resource: %w", err)
	}
	return nil
}

func resourceFilterDoc(filter *resource.ListFilter) bson.M {
	f := bson.M{}
	if filter != nil && filter.Search != "" {
		f["name"] = bson.M{"$regex": filter.Search, "$options": "i"}
	}
	return f
}

func (s *Store) ListResources(ctx context.Context, filter *resource.ListFilter) ([]*resource.Resource, error) {
	var models []resourceModel
	q := s.mdb.NewFind(&models).
		Filter(resourceFilterDoc(filter)).
		Sort(bson.D{{Key: "name", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
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
	count, err := s.mdb.NewFind((*resourceModel)(nil)).
		Filter(resourceFilterDoc(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("bastion: count resources: %w", err)
	}
	return count, nil
}

// ──────────────────────────────────────────────────
// Menu operations
// ──────────────────────────────────────────────────

func (s *Store) CreateMenu(ctx context.Context, m *menu.Menu) error {
	t := now()
	m.CreatedAt = t
	m.UpdatedAt = t
	if _, err := s.mdb.NewInsert(menuToModel(m)).Exec(ctx); err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return fmt.Errorf("menu %q: %w", m.ID, menu.ErrDuplicate)
		}
		return fmt.Errorf("bastion: create menu: %w", err)
	}
	return nil
}

func (s *Store) GetMenu(ctx context.Context, menuID string) (*menu.Menu, error) {
	var m menuModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": menuID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("menu %q: %w", menuID, menu.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get menu: %w", err)
	}
	return menuFromModel(&m), nil
}

func (s *Store) UpdateMenu(ctx context.Context, m *menu.Menu) error {
	m.UpdatedAt = now()
	mm := menuToModel(m)
	res, err := s.mdb.NewUpdate(mm).
		Filter(bson.M{"_id": mm.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: update menu: %w", err)
	}
	if res.MatchedCount() == 0 {
		return fmt.Errorf("menu %q: %w", m.ID, menu.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteMenu(ctx context.Context, menuID string) error {
	_, err := s.mdb.NewDelete((*menuPermissionModel)(nil)).
		Many().
		Filter(bson.M{"menu_id": menuID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: delete menu bindings: %w", err)
	}
	_, err = s.mdb.NewDelete((*menuModel)(nil)).
		Filter(bson.M{"_id": menuID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: delete menu: %w", err)
	}
	return nil
}

func menuFilterDoc(filter *menu.ListFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.ParentID != nil {
		f["parent_id"] = *filter.ParentID
	}
	if filter.IsActive != nil {
		f["is_active"] = *filter.IsActive
	}
	if filter.Search != "" {
		f["title"] = bson.M{"$regex": filter.Search, "$options": "i"}
	}
	return f
}

func (s *Store) ListMenus(ctx context.Context, filter *menu.ListFilter) ([]*menu.Menu, error) {
	var models []menuModel
	q := s.mdb.NewFind(&models).
		Filter(menuFilterDoc(filter)).
		Sort(bson.D{{Key: "order_index", Value: 1}, {Key: "_id", Value: 1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
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
	count, err := s.mdb.NewFind((*menuModel)(nil)).
		Filter(menuFilterDoc(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("bastion: count menus: %w", err)
	}
	return count, nil
}

func (s *Store) CountChildMenus(ctx context.Context, menuID string) (int64, error) {
	count, err := s.mdb.NewFind((*menuModel)(nil)).
		Filter(bson.M{"parent_id": menuID}).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("bastion: count child menus: %w", err)
	}
	return count, nil
}

func (s *Store) SetMenuPermission(ctx context.Context, p *menu.Permission) error {
	m := menuPermissionToModel(p)
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"menu_id": m.MenuID, "role_id": m.RoleID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: set menu permission: %w", err)
	}
	if res.MatchedCount() > 0 {
		return nil
	}
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		if mongod.IsDuplicateKeyError(err) {
			// Lost a race with a concurrent upsert; the binding exists.
			return nil
		}
		return fmt.Errorf("bastion: set menu permission: %w", err)
	}
	return nil
}

func (s *Store) DeleteMenuPermission(ctx context.Context, menuID string, roleID id.RoleID) error {
	_, err := s.mdb.NewDelete((*menuPermissionModel)(nil)).
		Filter(bson.M{"menu_id": menuID, "role_id": roleID.String()}).
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
	if err := s.mdb.NewFind(&models).
		Filter(bson.M{"role_id": bson.M{"$in": ids}}).
		Scan(ctx); err != nil {
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
	if err := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "menu_id", Value: 1}, {Key: "role_id", Value: 1}}).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("bastion: list menu permissions: %w", err)
	}
	result := make([]*menu.Permission, len(models))
	for i := range models {
		result[i] = menuPermissionFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) DeleteMenuPermissionsByRole(ctx context.Context, roleID id.RoleID) error {
	_, err := s.mdb.NewDelete((*menuPermissionModel)(nil)).
		Many().
		Filter(bson.M{"role_id": roleID.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("bastion: delete menu permissions by role: %w", err)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Audit log operations
// ──────────────────────────────────────────────────

func (s *Store) CreateAuditEntry(ctx context.Context, e *audit.Entry) error {
	if _, err := s.mdb.NewInsert(auditLogToModel(e)).Exec(ctx); err != nil {
		return fmt.Errorf("bastion: create audit entry: %w", err)
	}
	return nil
}

func (s *Store) GetAuditEntry(ctx context.Context, entryID id.AuditLogID) (*audit.Entry, error) {
	var m auditLogModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": entryID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("audit entry %s: %w", entryID, audit.ErrNotFound)
		}
		return nil, fmt.Errorf("bastion: get audit entry: %w", err)
	}
	return auditLogFromModel(&m), nil
}

func auditFilterDoc(filter *audit.QueryFilter) bson.M {
	f := bson.M{}
	if filter == nil {
		return f
	}
	if filter.UserID != "" {
		f["user_id"] = filter.UserID
	}
	if filter.Action != "" {
		f["action"] = filter.Action
	}
	if filter.Resource != "" {
		f["resource"] = filter.Resource
	}
	created := bson.M{}
	if filter.After != nil {
		created["$gte"] = *filter.After
	}
	if filter.Before != nil {
		created["$lte"] = *filter.Before
	}
	if len(created) > 0 {
		f["created_at"] = created
	}
	return f
}

func (s *Store) ListAuditEntries(ctx context.Context, filter *audit.QueryFilter) ([]*audit.Entry, error) {
	var models []auditLogModel
	q := s.mdb.NewFind(&models).
		Filter(auditFilterDoc(filter)).
		Sort(bson.D{{Key: "created_at", Value: -1}})
	if filter != nil {
		if filter.Limit > 0 {
			q = q.Limit(int64(filter.Limit))
		}
		if filter.Offset > 0 {
			q = q.Skip(int64(filter.Offset))
		}
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("bastion: list audit entries: %w", err)
	}
	result := make([]*audit.Entry, len(models))
	for i := range models {
		result[i] = auditLogFromModel(&models[i])
	}
	return result, nil
}

func (s *Store) CountAuditEntries(ctx context.Context, filter *audit.QueryFilter) (int64, error) {
	count, err := s.mdb.NewFind((*auditLogModel)(nil)).
		Filter(auditFilterDoc(filter)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("bastion: count audit entries: %w", err)
	}
	return count, nil
}

func (s *Store) PurgeAuditEntries(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.mdb.NewDelete((*auditLogModel)(nil)).
		Many().
		Filter(bson.M{"created_at": bson.M{"$lt": before}}).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("bastion: purge audit entries: %w", err)
	}
	return res.DeletedCount(), nil
}
