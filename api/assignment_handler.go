package api

import (
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/bastion/assignment"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/role"
)

func (a *API) registerAssignmentRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("assignments"))

	if err := g.POST("/assignments", a.assignRole,
		forge.WithSummary("Assign role"),
		forge.WithDescription("Assigns a role to a user."),
		forge.WithOperationID("assignRole"),
		forge.WithRequestSchema(AssignRoleRequest{}),
		forge.WithCreatedResponse(&assignment.Assignment{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/assignments", a.listAssignments,
		forge.WithSummary("List assignments"),
		forge.WithDescription("Lists role assignments with optional filters."),
		forge.WithOperationID("listAssignments"),
		forge.WithRequestSchema(ListAssignmentsRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Assignment list", ListResponse[*assignment.Assignment]{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/assignments/bulk", a.bulkAssign,
		forge.WithSummary("Bulk assign role"),
		forge.WithDescription("Assigns one role to many users. Individual failures do not abort the batch."),
		forge.WithOperationID("bulkAssignRole"),
		forge.WithRequestSchema(BulkAssignRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Per-user outcome", BulkResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.POST("/assignments/bulk-remove", a.bulkUnassign,
		forge.WithSummary("Bulk unassign role"),
		forge.WithDescription("Removes one role from many users. Individual failures do not abort the batch."),
		forge.WithOperationID("bulkUnassignRole"),
		forge.WithRequestSchema(BulkAssignRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Per-user outcome", BulkResponse{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/users/:userId/roles", a.listUserRoles,
		forge.WithSummary("List user roles"),
		forge.WithDescription("Lists the roles assigned to a user."),
		forge.WithOperationID("listUserRoles"),
		forge.WithResponseSchema(http.StatusOK, "Role list", []*role.Role{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.DELETE("/users/:userId/roles/:roleId", a.unassignRole,
		forge.WithSummary("Unassign role"),
		forge.WithDescription("Removes a role from a user."),
		forge.WithOperationID("unassignRole"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	)
}

func (a *API) assignRole(ctx forge.Context, req *AssignRoleRequest) (*assignment.Assignment, error) {
	if req.UserID == "" {
		return nil, forge.BadRequest("user_id is required")
	}
	roleID, err := id.ParseRoleID(req.RoleID)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid role ID: %v", err))
	}

	asgn, err := a.eng.AssignRole(ctx.Context(), req.UserID, roleID)
	if err != nil {
		return nil, mapError(ctx, err)
	}

	return asgn, ctx.JSON(http.StatusCreated, asgn)
}

func (a *API) unassignRole(ctx forge.Context, _ *UserRoleRequest) (*struct{}, error) {
	userID := ctx.Param("userId")
	roleID, err := id.ParseRoleID(ctx.Param("roleId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid role ID: %v", err))
	}

	if err := a.eng.UnassignRole(ctx.Context(), userID, roleID); err != nil {
		return nil, mapError(ctx, err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listAssignments(ctx forge.Context, req *ListAssignmentsRequest) (*ListResponse[*assignment.Assignment], error) {
	filter := &assignment.ListFilter{
		UserID: req.UserID,
		Limit:  defaultLimit(req.Limit),
		Offset: req.Offset,
	}
	if req.RoleID != "" {
		roleID, err := id.ParseRoleID(req.RoleID)
		if err != nil {
			return nil, forge.BadRequest(fmt.Sprintf("invalid role ID: %v", err))
		}
		filter.RoleID = &roleID
	}

	assignments, total, err := a.eng.ListAssignments(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(ctx, err)
	}

	resp := &ListResponse[*assignment.Assignment]{
		Items:  assignments,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) bulkAssign(ctx forge.Context, req *BulkAssignRequest) (*BulkResponse, error) {
	if len(req.UserIDs) == 0 {
		return nil, forge.BadRequest("user_ids cannot be empty")
	}
	roleID, err := id.ParseRoleID(req.RoleID)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid role ID: %v", err))
	}

	result, err := a.eng.BulkAssignRole(ctx.Context(), req.UserIDs, roleID)
	if err != nil {
		return nil, mapError(ctx, err)
	}

	resp := &BulkResponse{Succeeded: result.Succeeded, Failed: result.Failed}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) bulkUnassign(ctx forge.Context, req *BulkAssignRequest) (*BulkResponse, error) {
	if len(req.UserIDs) == 0 {
		return nil, forge.BadRequest("user_ids cannot be empty")
	}
	roleID, err := id.ParseRoleID(req.RoleID)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid role ID: %v", err))
	}

	result, err := a.eng.BulkUnassignRole(ctx.Context(), req.UserIDs, roleID)
	if err != nil {
		return nil, mapError(ctx, err)
	}

	resp := &BulkResponse{Succeeded: result.Succeeded, Failed: result.Failed}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) listUserRoles(ctx forge.Context, _ *GetUserRequest) ([]*role.Role, error) {
	userID := ctx.Param("userId")
	if userID == "" {
		return nil, forge.BadRequest("user ID is required")
	}

	roles, err := a.eng.ListUserRoles(ctx.Context(), userID)
	if err != nil {
		return nil, mapError(ctx, err)
	}

	return roles, ctx.JSON(http.StatusOK, roles)
}
