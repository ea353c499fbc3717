package bastion

import (
	"context"
	"time"

	"github.com/xraph/bastion/audit"
	"github.com/xraph/bastion/id"
)

// GetAuditEntry returns an audit entry by ID.
func (e *Engine) GetAuditEntry(ctx context.Context, entryID id.AuditLogID) (*audit.Entry, error) {
	return e.store.GetAuditEntry(ctx, entryID)
}

// ListAuditEntries returns a page of audit entries plus the total match
// count, newest first.
func (e *Engine) ListAuditEntries(ctx context.Context, filter *audit.QueryFilter) ([]*audit.Entry, int64, error) {
	if filter == nil {
		filter = &audit.QueryFilter{}
	}
	filter.Limit = e.config.pageLimit(filter.Limit)
	out, err := e.store.ListAuditEntries(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	total, err := e.store.CountAuditEntries(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// PurgeAuditEntries removes entries older than the cutoff and reports
// how many were removed.
func (e *Engine) PurgeAuditEntries(ctx context.Context, before time.Time) (int64, error) {
	return e.store.PurgeAuditEntries(ctx, before)
}
