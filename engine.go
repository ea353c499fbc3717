package bastion

import (
	"context"
	"errors"
	"log/slog"

	"github.com/xraph/bastion/audit"
	"github.com/xraph/bastion/plugin"
	"github.com/xraph/bastion/store"
)

// Engine is the central access-control engine. It owns the permission
// catalog, role and assignment administration, effective permission
// resolution, menu visibility, and audit emission.
type Engine struct {
	store   store.Store
	cache   Cache
	auditor *Auditor
	plugins *plugin.Registry
	logger  *slog.Logger
	config  Config
}

// NewEngine creates a new Bastion engine with the given options.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		logger: slog.Default(),
		config: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		return nil, errors.New("bastion: store is required")
	}
	if e.config.SuperuserRole == "" {
		e.config.SuperuserRole = DefaultConfig().SuperuserRole
	}
	e.auditor = NewAuditor(e.store, e.logger, e.config.AuditBuffer)
	return e, nil
}

// Store returns the underlying composite store.
func (e *Engine) Store() store.Store { return e.store }

// Plugins returns the plugin registry (may be nil).
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Auditor returns the async audit emitter.
func (e *Engine) Auditor() *Auditor { return e.auditor }

// Start launches background workers.
func (e *Engine) Start(_ context.Context) error {
	e.auditor.Start()
	return nil
}

// Stop flushes the audit queue and notifies shutdown hooks.
func (e *Engine) Stop(ctx context.Context) error {
	if e.plugins != nil {
		e.plugins.EmitShutdown(ctx)
	}
	return e.auditor.Stop(ctx)
}

// recordAudit queues a best-effort audit entry for an administrative
// action. The acting user is taken from the context principal when one
// is attached.
func (e *Engine) recordAudit(ctx context.Context, action, resource, resourceID string, details map[string]any) {
	entry := &audit.Entry{
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Details:    details,
	}
	if p, ok := PrincipalFrom(ctx); ok {
		entry.UserID = p.SubjectID
	}
	e.auditor.Emit(entry)
}

func (e *Engine) invalidateUser(ctx context.Context, userID string) {
	if e.cache != nil {
		e.cache.InvalidateUser(ctx, userID)
	}
}

// invalidateAll drops every cached effective set. Used after role or
// grant mutations whose affected user population is unknown.
func (e *Engine) invalidateAll(ctx context.Context) {
	if e.cache != nil {
		e.cache.InvalidateAll(ctx)
	}
}
