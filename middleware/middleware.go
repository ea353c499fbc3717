// Package middleware provides HTTP authorization middleware for Bastion.
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/bastion"
)

// RequirePermission allows the request when the caller holds at least
// one of the named permissions (or all of them with bastion.RequireAll).
func RequirePermission(eng *bastion.Engine, required []string, opts ...bastion.GateOption) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			p, err := resolvePrincipal(ctx, eng)
			if err != nil {
				return denyResponse(ctx, err)
			}
			if err := eng.RequirePermission(ctx.Context(), p, required, opts...); err != nil {
				return denyResponse(ctx, err)
			}
			return next(ctx)
		}
	}
}

// RequireRole allows the request when the caller holds at least one of
// the named roles.
func RequireRole(eng *bastion.Engine, required ...string) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			p, err := resolvePrincipal(ctx, eng)
			if err != nil {
				return denyResponse(ctx, err)
			}
			if err := eng.RequireRole(ctx.Context(), p, required...); err != nil {
				return denyResponse(ctx, err)
			}
			return next(ctx)
		}
	}
}

// OwnerSource extracts the owner ID of the request's target resource.
// Custom sources can decode whatever the host keeps on the request,
// such as a body field read during session handling.
type OwnerSource func(ctx forge.Context) (string, error)

// OwnerFromParam resolves the owner ID from a route parameter.
func OwnerFromParam(name string) OwnerSource {
	return func(ctx forge.Context) (string, error) {
		v := ctx.Param(name)
		if v == "" {
			return "", fmt.Errorf("bastion: route parameter %q not set", name)
		}
		return v, nil
	}
}

// RequireOwnership allows the request when the caller owns the target
// resource (per source) or holds one of the fallback permissions.
func RequireOwnership(eng *bastion.Engine, source OwnerSource, fallback ...string) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			p, err := resolvePrincipal(ctx, eng)
			if err != nil {
				return denyResponse(ctx, err)
			}
			resolve := func(context.Context) (string, error) { return source(ctx) }
			if err := eng.RequireOwnershipOrPermissionFunc(ctx.Context(), p, resolve, fallback...); err != nil {
				return denyResponse(ctx, err)
			}
			return next(ctx)
		}
	}
}

// RequireResourcePermission maps an HTTP verb onto a catalog action for
// the given resource and checks the resulting permission: GET/HEAD read,
// POST create, PUT/PATCH update, DELETE delete. Wire it per route with
// the route's own verb.
func RequireResourcePermission(eng *bastion.Engine, resource, method string) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			p, err := resolvePrincipal(ctx, eng)
			if err != nil {
				return denyResponse(ctx, err)
			}
			if err := eng.RequireResourcePermission(ctx.Context(), p, resource, method); err != nil {
				return denyResponse(ctx, err)
			}
			return next(ctx)
		}
	}
}

// RequireAny allows the request when any of the gates passes.
func RequireAny(eng *bastion.Engine, gates ...bastion.Gate) forge.Middleware {
	return func(next forge.Handler) forge.Handler {
		return func(ctx forge.Context) error {
			p, err := resolvePrincipal(ctx, eng)
			if err != nil {
				return denyResponse(ctx, err)
			}
			if err := eng.RequireAny(ctx.Context(), p, gates...); err != nil {
				return denyResponse(ctx, err)
			}
			return next(ctx)
		}
	}
}

// resolvePrincipal builds the caller's principal. A principal already on
// the context (attached by the host application after session
// validation) wins; otherwise the Forge user ID is resolved against the
// store. Anonymous requests yield ErrUnauthenticated.
func resolvePrincipal(ctx forge.Context, eng *bastion.Engine) (*bastion.Principal, error) {
	if p, ok := bastion.PrincipalFrom(ctx.Context()); ok {
		return p, nil
	}
	userID := forge.UserIDFromContext(ctx.Context())
	if userID == "" {
		return nil, bastion.ErrUnauthenticated
	}
	set, err := eng.Resolve(ctx.Context(), userID)
	if err != nil {
		return nil, err
	}
	return &bastion.Principal{
		SubjectID:   set.UserID,
		Roles:       set.Roles,
		Permissions: set.Permissions,
		IsSuperuser: set.IsSuperuser,
	}, nil
}

// denyResponse writes the JSON denial: 401 for missing principals, 405
// for unmapped verbs, 403 for everything else.
func denyResponse(ctx forge.Context, err error) error {
	status := http.StatusForbidden
	msg := "access denied"
	switch {
	case errors.Is(err, bastion.ErrUnauthenticated):
		status = http.StatusUnauthorized
		msg = "authentication required"
	case errors.Is(err, bastion.ErrMethodNotAllowed):
		status = http.StatusMethodNotAllowed
		msg = "method not allowed"
	}
	ctx.SetHeader("Content-Type", "application/json")
	ctx.Response().WriteHeader(status)
	return json.NewEncoder(ctx.Response()).Encode(map[string]string{"error": msg})
}
