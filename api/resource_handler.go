package api

import (
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/bastion"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/resource"
)

func (a *API) registerResourceRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("resources"))

	if err := g.POST("/resources", a.createResource,
		forge.WithSummary("Register resource"),
		forge.WithDescription("Registers a resource in the catalog."),
		forge.WithOperationID("createResource"),
		forge.WithRequestSchema(CreateResourceRequest{}),
		forge.WithCreatedResponse(&resource.Resource{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/resources/:resourceId", a.getResource,
		forge.WithSummary("Get resource"),
		forge.WithDescription("Returns details of a specific resource."),
		forge.WithOperationID("getResource"),
		forge.WithResponseSchema(http.StatusOK, "Resource details", &resource.Resource{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/resources/:resourceId", a.updateResource,
		forge.WithSummary("Update resource"),
		forge.WithDescription("Updates a resource's description."),
		forge.WithOperationID("updateResource"),
		forge.WithRequestSchema(UpdateResourceRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated resource", &resource.Resource{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/resources/:resourceId", a.deleteResource,
		forge.WithSummary("Delete resource"),
		forge.WithDescription("Deletes a resource. Fails while permissions reference it."),
		forge.WithOperationID("deleteResource"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/resources", a.listResources,
		forge.WithSummary("List resources"),
		forge.WithDescription("Lists registered resources."),
		forge.WithOperationID("listResources"),
		forge.WithRequestSchema(ListResourcesRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Resource list", ListResponse[*resource.Resource]{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) createResource(ctx forge.Context, req *CreateResourceRequest) (*resource.Resource, error) {
	r, err := a.eng.CreateResource(ctx.Context(), &bastion.CreateResourceInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return r, ctx.JSON(http.StatusCreated, r)
}

func (a *API) getResource(ctx forge.Context, _ *GetResourceRequest) (*resource.Resource, error) {
	resID, err := id.ParseResourceID(ctx.Param("resourceId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid resource ID: %v", err))
	}

	r, err := a.eng.GetResource(ctx.Context(), resID)
	if err != nil {
		return nil, mapError(ctx, err)
	}

	return r, ctx.JSON(http.StatusOK, r)
}

func (a *API) updateResource(ctx forge.Context, req *UpdateResourceRequest) (*resource.Resource, error) {
	resID, err := id.ParseResourceID(ctx.Param("resourceId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid resource ID: %v", err))
	}

	r, err := a.eng.UpdateResource(ctx.Context(), resID, &bastion.UpdateResourceInput{
		Description: req.Description,
	})
	if err != nil {
		return nil, mapError(ctx, err)
	}

	return r, ctx.JSON(http.StatusOK, r)
}

func (a *API) deleteResource(ctx forge.Context, _ *GetResourceRequest) (*struct{}, error) {
	resID, err := id.ParseResourceID(ctx.Param("resourceId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid resource ID: %v", err))
	}

	if err := a.eng.DeleteResource(ctx.Context(), resID); err != nil {
		return nil, mapError(ctx, err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listResources(ctx forge.Context, req *ListResourcesRequest) (*ListResponse[*resource.Resource], error) {
	filter := &resource.ListFilter{
		Search: req.Search,
		Limit:  defaultLimit(req.Limit),
		Offset: req.Offset,
	}

	resources, total, err := a.eng.ListResources(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(ctx, err)
	}

	resp := &ListResponse[*resource.Resource]{
		Items:  resources,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}
