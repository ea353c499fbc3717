package bastion

import "context"

type contextKey int

const ctxKeyPrincipal contextKey = iota

// WithPrincipal returns a context carrying the authenticated principal.
// Transports attach the principal after session validation; gates and
// handlers read it back with PrincipalFrom.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxKeyPrincipal, p)
}

// PrincipalFrom extracts the principal from the context, if present.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(ctxKeyPrincipal).(*Principal)
	if !ok || p == nil {
		return nil, false
	}
	return p, true
}
