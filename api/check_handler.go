package api

import (
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/bastion"
)

func (a *API) registerCheckRoutes(router forge.Router) error {
	g := router.Group("/v1/authz", forge.WithGroupTags("authorization"))

	if err := g.POST("/check", a.check,
		forge.WithSummary("Authorization check"),
		forge.WithDescription("Evaluates whether the user can perform the action on the resource."),
		forge.WithOperationID("authzCheck"),
		forge.WithRequestSchema(CheckRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Check result", bastion.CheckResult{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/enforce", a.enforce,
		forge.WithSummary("Enforce authorization"),
		forge.WithDescription("Returns 200 if allowed, 403 if denied."),
		forge.WithOperationID("authzEnforce"),
		forge.WithRequestSchema(CheckRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Allowed", bastion.CheckResult{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/batch-check", a.batchCheck,
		forge.WithSummary("Batch authorization check"),
		forge.WithDescription("Evaluates multiple authorization checks in one request."),
		forge.WithOperationID("authzBatchCheck"),
		forge.WithRequestSchema(BatchCheckRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Batch results", BatchCheckResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/users/:userId/effective", a.getEffective,
		forge.WithSummary("Effective permissions"),
		forge.WithDescription("Resolves the user's effective role and permission set."),
		forge.WithOperationID("authzEffective"),
		forge.WithResponseSchema(http.StatusOK, "Effective set", bastion.EffectiveSet{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) check(ctx forge.Context, req *CheckRequest) (*bastion.CheckResult, error) {
	if req.UserID == "" || req.Resource == "" || req.Action == "" {
		return nil, forge.BadRequest("user_id, resource, and action are required")
	}

	result, err := a.eng.Check(ctx.Context(), toCheckRequest(req))
	if err != nil {
		return nil, mapError(ctx, err)
	}

	return result, ctx.JSON(http.StatusOK, result)
}

func (a *API) enforce(ctx forge.Context, req *CheckRequest) (*bastion.CheckResult, error) {
	if req.UserID == "" || req.Resource == "" || req.Action == "" {
		return nil, forge.BadRequest("user_id, resource, and action are required")
	}

	result, err := a.eng.Check(ctx.Context(), toCheckRequest(req))
	if err != nil {
		return nil, mapError(ctx, err)
	}

	if !result.Allowed {
		return result, ctx.JSON(http.StatusForbidden, result)
	}
	return result, ctx.JSON(http.StatusOK, result)
}

func (a *API) batchCheck(ctx forge.Context, req *BatchCheckRequest) (*BatchCheckResponse, error) {
	if len(req.Checks) == 0 {
		return nil, forge.BadRequest("checks cannot be empty")
	}

	results := make([]bastion.CheckResult, len(req.Checks))
	for i, c := range req.Checks {
		result, err := a.eng.Check(ctx.Context(), toCheckRequest(&c))
		if err != nil {
			return nil, mapError(ctx, err)
		}
		results[i] = *result
	}

	resp := &BatchCheckResponse{Results: results}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) getEffective(ctx forge.Context, _ *GetEffectiveRequest) (*bastion.EffectiveSet, error) {
	userID := ctx.Param("userId")
	if userID == "" {
		return nil, forge.BadRequest("user ID is required")
	}

	set, err := a.eng.Resolve(ctx.Context(), userID)
	if err != nil {
		return nil, mapError(ctx, err)
	}

	return set, ctx.JSON(http.StatusOK, set)
}

func toCheckRequest(r *CheckRequest) *bastion.CheckRequest {
	return &bastion.CheckRequest{
		UserID:   r.UserID,
		Resource: r.Resource,
		Action:   r.Action,
	}
}
