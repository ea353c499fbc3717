// Package bastion provides role-based access control management for Go
// backends: a permission catalog, role and assignment administration,
// effective permission resolution with wildcard grants, authorization
// gates, role-driven menu visibility, and best-effort audit logging.
//
//	eng, err := bastion.NewEngine(
//	    bastion.WithStore(memStore),
//	)
//	set, err := eng.Resolve(ctx, "user_123")
//	if set.Has("order", "read") { ... }
package bastion

import "time"

// Principal is the authenticated caller as seen by the authorization
// gates. Roles and Permissions are the snapshot embedded in the caller's
// session token at login; gates check this snapshot unless asked for a
// live resolution.
type Principal struct {
	SubjectID   string   `json:"subject_id"`
	Username    string   `json:"username,omitempty"`
	Email       string   `json:"email,omitempty"`
	Roles       []string `json:"roles,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	IsSuperuser bool     `json:"is_superuser,omitempty"`
}

// EffectiveSet is the resolved authorization state of one user: role
// names, the flat set of granted permission names across those roles,
// and the superuser flag.
type EffectiveSet struct {
	UserID      string    `json:"user_id"`
	Roles       []string  `json:"roles"`
	Permissions []string  `json:"permissions"`
	IsSuperuser bool      `json:"is_superuser"`
	ResolvedAt  time.Time `json:"resolved_at"`
}

// Has reports whether the set grants resource:action, honoring wildcard
// grants. Superusers hold every permission.
func (s *EffectiveSet) Has(resource, action string) bool {
	if s == nil {
		return false
	}
	if s.IsSuperuser {
		return true
	}
	_, ok := MatchGrant(s.Permissions, resource, action)
	return ok
}

// HasName is Has for an already-formatted "resource:action" name.
func (s *EffectiveSet) HasName(name string) bool {
	if s == nil {
		return false
	}
	if s.IsSuperuser {
		return true
	}
	_, ok := MatchGrantName(s.Permissions, name)
	return ok
}

// HasRole reports whether the set includes the named role.
func (s *EffectiveSet) HasRole(name string) bool {
	if s == nil {
		return false
	}
	for _, r := range s.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// CheckRequest is the input to a single authorization check.
type CheckRequest struct {
	UserID   string `json:"user_id"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

// CheckResult is the outcome of a single authorization check.
type CheckResult struct {
	Allowed      bool   `json:"allowed"`
	MatchedGrant string `json:"matched_grant,omitempty"`
	Reason       string `json:"reason,omitempty"`
	EvalTimeNs   int64  `json:"eval_time_ns"`
}

// BulkFailure records one failed item of a bulk operation.
type BulkFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// BulkResult reports the per-item outcome of a bulk operation. A bulk
// call succeeds overall even when some items fail; callers inspect
// Failed for the partial failures.
type BulkResult struct {
	Succeeded []string      `json:"succeeded"`
	Failed    []BulkFailure `json:"failed"`
}
