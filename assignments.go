package bastion

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/bastion/assignment"
	"github.com/xraph/bastion/audit"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/role"
)

// AssignRole grants a role to a user. Assigning an already held role
// returns ErrDuplicateAssignment.
func (e *Engine) AssignRole(ctx context.Context, userID string, roleID id.RoleID) (*assignment.Assignment, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if _, err := e.store.GetRole(ctx, roleID); err != nil {
		return nil, err
	}

	a := &assignment.Assignment{
		ID:         id.NewAssignmentID(),
		RoleID:     roleID,
		UserID:     userID,
		AssignedBy: e.actorID(ctx),
		AssignedAt: time.Now().UTC(),
	}
	if err := e.store.CreateAssignment(ctx, a); err != nil {
		return nil, err
	}

	e.invalidateUser(ctx, userID)
	if e.plugins != nil {
		e.plugins.EmitRoleAssigned(ctx, a)
	}
	e.recordAudit(ctx, audit.ActionAssign, "assignment", a.ID.String(), map[string]any{
		"user_id": userID, "role_id": roleID.String(),
	})
	return a, nil
}

// UnassignRole revokes a role from a user. Revoking a role the user does
// not hold returns ErrAssignmentNotFound.
func (e *Engine) UnassignRole(ctx context.Context, userID string, roleID id.RoleID) error {
	a, err := e.store.DeleteAssignmentByUserRole(ctx, userID, roleID)
	if err != nil {
		return err
	}

	e.invalidateUser(ctx, userID)
	if e.plugins != nil {
		e.plugins.EmitRoleUnassigned(ctx, a)
	}
	e.recordAudit(ctx, audit.ActionRevoke, "assignment", a.ID.String(), map[string]any{
		"user_id": userID, "role_id": roleID.String(),
	})
	return nil
}

// ListAssignments returns a page of assignments plus the total match count.
func (e *Engine) ListAssignments(ctx context.Context, filter *assignment.ListFilter) ([]*assignment.Assignment, int64, error) {
	if filter == nil {
		filter = &assignment.ListFilter{}
	}
	filter.Limit = e.config.pageLimit(filter.Limit)
	out, err := e.store.ListAssignments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := e.store.CountAssignments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListUserRoles returns the roles currently assigned to a user,
// including inactive ones.
func (e *Engine) ListUserRoles(ctx context.Context, userID string) ([]*role.Role, error) {
	roleIDs, err := e.store.ListRolesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	roles := make([]*role.Role, 0, len(roleIDs))
	for _, rid := range roleIDs {
		r, err := e.store.GetRole(ctx, rid)
		if err != nil {
			continue
		}
		roles = append(roles, r)
	}
	return roles, nil
}

// ListRoleUsers returns the user IDs holding a role.
func (e *Engine) ListRoleUsers(ctx context.Context, roleID id.RoleID) ([]string, error) {
	if _, err := e.store.GetRole(ctx, roleID); err != nil {
		return nil, err
	}
	assignments, err := e.store.ListUsersForRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	users := make([]string, 0, len(assignments))
	for _, a := range assignments {
		users = append(users, a.UserID)
	}
	return users, nil
}

// BulkAssignRole assigns one role to many users. Failures are collected
// per user rather than aborting the batch; duplicate assignments are
// reported as failures for their user only.
func (e *Engine) BulkAssignRole(ctx context.Context, userIDs []string, roleID id.RoleID) (*BulkResult, error) {
	if _, err := e.store.GetRole(ctx, roleID); err != nil {
		return nil, err
	}
	result := &BulkResult{Succeeded: []string{}, Failed: []BulkFailure{}}
	for _, uid := range userIDs {
		if _, err := e.AssignRole(ctx, uid, roleID); err != nil {
			result.Failed = append(result.Failed, BulkFailure{ID: uid, Error: err.Error()})
			continue
		}
		result.Succeeded = append(result.Succeeded, uid)
	}
	return result, nil
}

// BulkUnassignRole revokes one role from many users with per-user
// failure reporting.
func (e *Engine) BulkUnassignRole(ctx context.Context, userIDs []string, roleID id.RoleID) (*BulkResult, error) {
	if _, err := e.store.GetRole(ctx, roleID); err != nil {
		return nil, err
	}
	result := &BulkResult{Succeeded: []string{}, Failed: []BulkFailure{}}
	for _, uid := range userIDs {
		if err := e.UnassignRole(ctx, uid, roleID); err != nil {
			result.Failed = append(result.Failed, BulkFailure{ID: uid, Error: err.Error()})
			continue
		}
		result.Succeeded = append(result.Succeeded, uid)
	}
	return result, nil
}
