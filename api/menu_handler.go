package api

import (
	"fmt"
	"net/http"

	"github.com/xraph/forge"

	"github.com/xraph/bastion"
	"github.com/xraph/bastion/id"
	"github.com/xraph/bastion/menu"
)

func (a *API) registerMenuRoutes(router forge.Router) error {
	g := router.Group("/v1", forge.WithGroupTags("menus"))

	if err := g.POST("/menus", a.createMenu,
		forge.WithSummary("Create menu"),
		forge.WithDescription("Creates a navigation menu entry."),
		forge.WithOperationID("createMenu"),
		forge.WithRequestSchema(CreateMenuRequest{}),
		forge.WithCreatedResponse(&menu.Menu{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/menus", a.listMenus,
		forge.WithSummary("List menus"),
		forge.WithDescription("Lists menu entries with optional filters."),
		forge.WithOperationID("listMenus"),
		forge.WithRequestSchema(ListMenusRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Menu list", ListResponse[*menu.Menu]{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/menus/matrix", a.menuMatrix,
		forge.WithSummary("Menu permission matrix"),
		forge.WithDescription("Returns every (menu, role) capability binding for admin screens."),
		forge.WithOperationID("menuMatrix"),
		forge.WithResponseSchema(http.StatusOK, "Matrix entries", []*menu.MatrixEntry{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.GET("/menus/:menuId", a.getMenu,
		forge.WithSummary("Get menu"),
		forge.WithDescription("Returns details of a specific menu entry."),
		forge.WithOperationID("getMenu"),
		forge.WithResponseSchema(http.StatusOK, "Menu details", &menu.Menu{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/menus/:menuId", a.updateMenu,
		forge.WithSummary("Update menu"),
		forge.WithDescription("Updates a menu entry."),
		forge.WithOperationID("updateMenu"),
		forge.WithRequestSchema(UpdateMenuRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Updated menu", &menu.Menu{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/menus/:menuId", a.deleteMenu,
		forge.WithSummary("Delete menu"),
		forge.WithDescription("Deletes a menu entry. Fails while child entries exist."),
		forge.WithOperationID("deleteMenu"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.PUT("/menus/:menuId/permissions", a.setMenuPermission,
		forge.WithSummary("Set menu permission"),
		forge.WithDescription("Sets one role's capability flags on a menu."),
		forge.WithOperationID("setMenuPermission"),
		forge.WithRequestSchema(SetMenuPermissionRequest{}),
		forge.WithResponseSchema(http.StatusOK, "Stored binding", &menu.Permission{}),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	if err := g.DELETE("/menus/:menuId/permissions/:roleId", a.deleteMenuPermission,
		forge.WithSummary("Delete menu permission"),
		forge.WithDescription("Removes a role's capability binding from a menu."),
		forge.WithOperationID("deleteMenuPermission"),
		forge.WithNoContentResponse(),
		forge.WithErrorResponses(),
	); err != nil {
		return err
	}

	return g.GET("/users/:userId/menu", a.menuTreeForUser,
		forge.WithSummary("User menu tree"),
		forge.WithDescription("Returns the navigation tree visible to the user."),
		forge.WithOperationID("userMenuTree"),
		forge.WithResponseSchema(http.StatusOK, "Menu tree", []*menu.Node{}),
		forge.WithErrorResponses(),
	)
}

func (a *API) createMenu(ctx forge.Context, req *CreateMenuRequest) (*menu.Menu, error) {
	m, err := a.eng.CreateMenu(ctx.Context(), &bastion.CreateMenuInput{
		ID:         req.ID,
		ParentID:   req.ParentID,
		Title:      req.Title,
		Href:       req.Href,
		Icon:       req.Icon,
		Target:     req.Target,
		OrderIndex: req.OrderIndex,
	})
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return m, ctx.JSON(http.StatusCreated, m)
}

func (a *API) getMenu(ctx forge.Context, _ *GetMenuRequest) (*menu.Menu, error) {
	m, err := a.eng.GetMenu(ctx.Context(), ctx.Param("menuId"))
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return m, ctx.JSON(http.StatusOK, m)
}

func (a *API) updateMenu(ctx forge.Context, req *UpdateMenuRequest) (*menu.Menu, error) {
	m, err := a.eng.UpdateMenu(ctx.Context(), ctx.Param("menuId"), &bastion.UpdateMenuInput{
		ParentID:   req.ParentID,
		Title:      req.Title,
		Href:       req.Href,
		Icon:       req.Icon,
		Target:     req.Target,
		OrderIndex: req.OrderIndex,
		IsActive:   req.IsActive,
	})
	if err != nil {
		return nil, mapError(ctx, err)
	}
	return m, ctx.JSON(http.StatusOK, m)
}

func (a *API) deleteMenu(ctx forge.Context, _ *GetMenuRequest) (*struct{}, error) {
	if err := a.eng.DeleteMenu(ctx.Context(), ctx.Param("menuId")); err != nil {
		return nil, mapError(ctx, err)
	}
	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) listMenus(ctx forge.Context, req *ListMenusRequest) (*ListResponse[*menu.Menu], error) {
	filter := &menu.ListFilter{
		IsActive: parseBoolFlag(req.Active),
		Search:   req.Search,
		Limit:    defaultLimit(req.Limit),
		Offset:   req.Offset,
	}
	if req.ParentID != "" {
		filter.ParentID = &req.ParentID
	}

	menus, total, err := a.eng.ListMenus(ctx.Context(), filter)
	if err != nil {
		return nil, mapError(ctx, err)
	}

	resp := &ListResponse[*menu.Menu]{
		Items:  menus,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	return resp, ctx.JSON(http.StatusOK, resp)
}

func (a *API) setMenuPermission(ctx forge.Context, req *SetMenuPermissionRequest) (*menu.Permission, error) {
	roleID, err := id.ParseRoleID(req.RoleID)
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid role ID: %v", err))
	}

	p, err := a.eng.SetMenuPermission(ctx.Context(), &bastion.SetMenuPermissionInput{
		MenuID:    ctx.Param("menuId"),
		RoleID:    roleID,
		CanView:   req.CanView,
		CanEdit:   req.CanEdit,
		CanDelete: req.CanDelete,
		CanExport: req.CanExport,
	})
	if err != nil {
		return nil, mapError(ctx, err)
	}

	return p, ctx.JSON(http.StatusOK, p)
}

func (a *API) deleteMenuPermission(ctx forge.Context, _ *MenuRoleRequest) (*struct{}, error) {
	roleID, err := id.ParseRoleID(ctx.Param("roleId"))
	if err != nil {
		return nil, forge.BadRequest(fmt.Sprintf("invalid role ID: %v", err))
	}

	if err := a.eng.DeleteMenuPermission(ctx.Context(), ctx.Param("menuId"), roleID); err != nil {
		return nil, mapError(ctx, err)
	}

	return nil, ctx.NoContent(http.StatusNoContent)
}

func (a *API) menuTreeForUser(ctx forge.Context, _ *GetUserRequest) ([]*menu.Node, error) {
	userID := ctx.Param("userId")
	if userID == "" {
		return nil, forge.BadRequest("user ID is required")
	}

	tree, err := a.eng.MenuTreeForUser(ctx.Context(), userID)
	if err != nil {
		return nil, mapError(ctx, err)
	}

	return tree, ctx.JSON(http.StatusOK, tree)
}

func (a *API) menuMatrix(ctx forge.Context, _ *struct{}) ([]*menu.MatrixEntry, error) {
	matrix, err := a.eng.MenuMatrix(ctx.Context())
	if err != nil {
		return nil, mapError(ctx, err)
	}

	return matrix, ctx.JSON(http.StatusOK, matrix)
}
