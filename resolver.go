package bastion

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Resolve computes the effective permission set of a user from the
// store: the names of the user's active roles, the deduplicated union
// of permission names granted through them, and the superuser flag.
// A user with no assignments resolves to an empty set, not an error.
// Results are cached when a cache is configured.
func (e *Engine) Resolve(ctx context.Context, userID string) (*EffectiveSet, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	if e.cache != nil {
		if cached, ok := e.cache.Get(ctx, userID); ok {
			return cached, nil
		}
	}

	roleIDs, err := e.store.ListRolesForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("bastion resolve roles: %w", err)
	}

	set := &EffectiveSet{
		UserID:      userID,
		Roles:       []string{},
		Permissions: []string{},
		ResolvedAt:  time.Now().UTC(),
	}
	for _, rid := range roleIDs {
		r, err := e.store.GetRole(ctx, rid)
		if err != nil {
			// Assignment pointing at a vanished role; skip it.
			continue
		}
		if !r.IsActive {
			continue
		}
		set.Roles = append(set.Roles, r.Name)
		if r.Name == e.config.SuperuserRole {
			set.IsSuperuser = true
		}
	}
	sort.Strings(set.Roles)

	perms, err := e.store.ListPermissionsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("bastion resolve permissions: %w", err)
	}
	seen := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		if _, ok := seen[p.Name]; ok {
			continue
		}
		seen[p.Name] = struct{}{}
		set.Permissions = append(set.Permissions, p.Name)
	}
	sort.Strings(set.Permissions)

	if e.cache != nil {
		e.cache.Set(ctx, userID, set)
	}
	return set, nil
}

// Check evaluates whether a user holds resource:action, resolving the
// user's effective set from the store. This is the hot path.
func (e *Engine) Check(ctx context.Context, req *CheckRequest) (*CheckResult, error) {
	start := time.Now()

	if e.plugins != nil {
		e.plugins.EmitBeforeCheck(ctx, req)
	}

	set, err := e.Resolve(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	result := &CheckResult{}
	switch {
	case set.IsSuperuser:
		result.Allowed = true
		result.MatchedGrant = "superuser"
	default:
		grant, ok := MatchGrant(set.Permissions, req.Resource, req.Action)
		if ok {
			result.Allowed = true
			result.MatchedGrant = grant
		} else {
			result.Reason = "no role grants the required permission"
		}
	}
	result.EvalTimeNs = time.Since(start).Nanoseconds()

	if e.plugins != nil {
		e.plugins.EmitAfterCheck(ctx, req, result)
	}
	return result, nil
}

// Enforce returns ErrForbidden if the check is denied.
func (e *Engine) Enforce(ctx context.Context, req *CheckRequest) error {
	result, err := e.Check(ctx, req)
	if err != nil {
		return fmt.Errorf("bastion check: %w", err)
	}
	if !result.Allowed {
		return fmt.Errorf("%w: %s:%s", ErrForbidden, req.Resource, req.Action)
	}
	return nil
}

// CanI is a shorthand for a simple authorization check.
func (e *Engine) CanI(ctx context.Context, userID, resource, action string) (bool, error) {
	result, err := e.Check(ctx, &CheckRequest{UserID: userID, Resource: resource, Action: action})
	if err != nil {
		return false, err
	}
	return result.Allowed, nil
}
