package api

import (
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/bastion/audit"
	"github.com/xraph/bastion/id"
)

func (a *API) registerAuditRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("audit"))

	if err := g.GET("/audit-logs", a.listAuditEntries,
		forge.WithSummary("List audit entries"),
		forge.WithDescription("Lists audit entries, newest first."),
		forge.WithOperationID("listAuditEntries"),
		forge.WithRequestSchema(ListAuditEntriesRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Audit entries", ListResponse[*audit.Entry]{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/audit-logs/:entryId", a.getAuditEntry,
		forge.WithSummary("Get audit entry"),
		forge.WithDescription("Returns a single audit entry."),
		forge.WithOperationID("getAuditEntry"),
		forge.WithResponseSchema(http.StatusOK, "Audit entry", &audit.Entry{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.DELETE("/audit-logs", a.purgeAuditEntries,
		forge.WithSummary("Purge audit entries"),
		forge.WithDescription("Deletes audit entries older than the given cutoff."),
		forge.WithOperationID("purgeAuditEntries"),
		forge.WithRequestSchema(PurgeAuditEntriesRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Purge outcome", PurgeResponse{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) listAuditEntries(ctx forge.Context, req *ListAuditEntriesRequest) (*ListResponse[*audit.Entry], error) {
	after, err := parseTimeFlag(req.After)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid after timestamp: %v", err))
	}
	before, err := parseTimeFlag(req.Before)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid before timestamp: %v", err))
	}

	filter := &audit.QueryFilter{
		UserID:   req.UserID,
		Action:   req.Action,
		Resource: req.Resource,
		After:    after,
		Before:   before,
		Limit:    defaultLimit(req.Limit),
		Offset:   req.Offset,
	}

	entries, total, err := a.eng.ListAuditEntries(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(ctx, err)
	}

	resp := &ListResponse[*audit.Entry]{
		Items:  entries,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) getAuditEntry(ctx forge.Context, _ *GetAuditEntryRequest) (*audit.Entry, error) {
	entryID, err := id.ParseAuditLogID(ctx.Param("entryId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid audit entry ID: %v", err))
	}

	entry, err := a.eng.GetAuditEntry(ctx.Context(), entryID)
	if err != nil {
		return nil, mapError(ctx, err)
	}

	return entry, ctx.JSON(http.StatusOK, entry)
}

func (a *API) purgeAuditEntries(ctx forge.Context, req *PurgeAuditEntriesRequest) (*PurgeResponse, error) {
	before, err := parseTimeFlag(req.Before)
	if err != nil || before == nil {
		return nil, forge.BadRequest("a valid before timestamp (RFC3339) is required")
	}

	purged, err := a.eng.PurgeAuditEntries(ctx.Context(), *before)
	if err != nil {
		return nil, mapError(ctx, err)
	}

	resp := &PurgeResponse{Purged: purged}
	return resp, ctx.JSON(http.StatusOK, resp)
}
