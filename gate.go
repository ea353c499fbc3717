package bastion

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// GateOption tunes a single gate evaluation.
type GateOption func(*gateOptions)

type gateOptions struct {
	requireAll bool
	live       bool
}

// RequireAll makes RequirePermission demand every listed permission
// instead of any one of them.
func RequireAll() GateOption { return func(o *gateOptions) { o.requireAll = true } }

// Live makes the gate resolve the caller's effective set from the store
// instead of trusting the snapshot embedded in the principal. Use it on
// sensitive operations where a stale session must not suffice.
func Live() GateOption { return func(o *gateOptions) { o.live = true } }

// Gate is a single authorization requirement, composable with RequireAny.
type Gate func(ctx context.Context, p *Principal) error

// RequirePermission checks that the principal holds at least one (or,
// with RequireAll, every one) of the named permissions. Wildcard grants
// held by the principal are honored. Superusers always pass.
func (e *Engine) RequirePermission(ctx context.Context, p *Principal, required []string, opts ...GateOption) error {
	var o gateOptions
	for _, opt := range opts {
		opt(&o)
	}
	if p == nil {
		return ErrUnauthenticated
	}
	if p.IsSuperuser {
		return nil
	}
	if len(required) == 0 {
		return fmt.Errorf("%w: gate with no required permissions", ErrValidation)
	}

	grants := p.Permissions
	if o.live {
		// A principal with no subject cannot be resolved against the
		// store; report it as missing authentication, not a lookup error.
		if p.SubjectID == "" {
			return ErrUnauthenticated
		}
		set, err := e.Resolve(ctx, p.SubjectID)
		if err != nil {
			return err
		}
		if set.IsSuperuser {
			return nil
		}
		grants = set.Permissions
	}

	matched := 0
	for _, name := range required {
		if _, ok := MatchGrantName(grants, name); ok {
			if !o.requireAll {
				return nil
			}
			matched++
		} else if o.requireAll {
			return fmt.Errorf("%w: missing %s", ErrForbidden, name)
		}
	}
	if o.requireAll && matched == len(required) {
		return nil
	}
	return fmt.Errorf("%w: requires one of %s", ErrForbidden, strings.Join(required, ", "))
}

// RequireRole checks that the principal holds at least one of the named
// roles. Superusers always pass.
func (e *Engine) RequireRole(ctx context.Context, p *Principal, required ...string) error {
	if p == nil {
		return ErrUnauthenticated
	}
	if p.IsSuperuser {
		return nil
	}
	for _, want := range required {
		for _, have := range p.Roles {
			if have == want {
				return nil
			}
		}
	}
	return fmt.Errorf("%w: requires role %s", ErrForbidden, strings.Join(required, " or "))
}

// RequireOwnershipOrPermission passes when the principal is the owner of
// the target (ownerID equals the principal's subject) or holds one of
// the fallback permissions. The empty owner ID never matches.
func (e *Engine) RequireOwnershipOrPermission(ctx context.Context, p *Principal, ownerID string, fallback ...string) error {
	if p == nil {
		return ErrUnauthenticated
	}
	if p.IsSuperuser {
		return nil
	}
	if ownerID != "" && ownerID == p.SubjectID {
		return nil
	}
	if len(fallback) == 0 {
		return fmt.Errorf("%w: not the owner", ErrForbidden)
	}
	return e.RequirePermission(ctx, p, fallback)
}

// OwnerResolver looks up the owner ID of the request's target, for
// example by loading the record named in a route parameter.
type OwnerResolver func(ctx context.Context) (string, error)

// RequireOwnershipOrPermissionFunc resolves the owner ID at check time
// and applies the same ownership-or-fallback rule. When resolution
// fails the ownership half cannot be proven, so only the fallback
// permissions can still allow; the resolver error goes to the log.
func (e *Engine) RequireOwnershipOrPermissionFunc(ctx context.Context, p *Principal, resolve OwnerResolver, fallback ...string) error {
	if p == nil {
		return ErrUnauthenticated
	}
	if p.IsSuperuser {
		return nil
	}
	ownerID, err := resolve(ctx)
	if err != nil {
		e.logger.Warn("owner resolution failed", "error", err)
		ownerID = ""
	}
	return e.RequireOwnershipOrPermission(ctx, p, ownerID, fallback...)
}

// RequireResourcePermission maps an HTTP verb onto a catalog action for
// the given resource and checks the resulting permission: GET and HEAD
// require read, POST create, PUT and PATCH update, DELETE delete. Verbs
// outside the mapping return ErrMethodNotAllowed.
func (e *Engine) RequireResourcePermission(ctx context.Context, p *Principal, resource, method string) error {
	action, err := ActionForMethod(method)
	if err != nil {
		return err
	}
	if p == nil {
		return ErrUnauthenticated
	}
	if p.IsSuperuser {
		return nil
	}
	if _, ok := MatchGrant(p.Permissions, resource, action); ok {
		return nil
	}
	return fmt.Errorf("%w: requires %s:%s", ErrForbidden, resource, action)
}

// ActionForMethod translates an HTTP verb into a catalog action.
func ActionForMethod(method string) (string, error) {
	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodHead:
		return "read", nil
	case http.MethodPost:
		return "create", nil
	case http.MethodPut, http.MethodPatch:
		return "update", nil
	case http.MethodDelete:
		return "delete", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrMethodNotAllowed, method)
	}
}

// RequireAny passes when any of the gates passes. The last gate's error
// is returned when all reject; an empty gate list rejects.
func (e *Engine) RequireAny(ctx context.Context, p *Principal, gates ...Gate) error {
	if p == nil {
		return ErrUnauthenticated
	}
	if len(gates) == 0 {
		return fmt.Errorf("%w: no gates to satisfy", ErrForbidden)
	}
	var last error
	for _, g := range gates {
		if err := g(ctx, p); err == nil {
			return nil
		} else {
			last = err
		}
	}
	return last
}

// RequireDynamicPermission derives the required permission names at
// request time; any one of them satisfies the gate, like
// RequirePermission. A derivation failure is reported as ErrForbidden
// so internal resolution details never reach the caller; the
// underlying error goes to the log.
func (e *Engine) RequireDynamicPermission(ctx context.Context, p *Principal, derive func(ctx context.Context) ([]string, error)) error {
	if p == nil {
		return ErrUnauthenticated
	}
	if p.IsSuperuser {
		return nil
	}
	names, err := derive(ctx)
	if err != nil {
		e.logger.Warn("dynamic permission derivation failed", "error", err)
		return ErrForbidden
	}
	return e.RequirePermission(ctx, p, names)
}
