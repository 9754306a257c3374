package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/saas-dashboard/internal/application/dto"
	"github.com/jhoicas/saas-dashboard/internal/domain/entity"
)

// catalogAdmin lo implementa *catalog.UseCase.
type catalogAdmin interface {
	ListApps(ctx context.Context) ([]*entity.App, error)
	CreateApp(ctx context.Context, in dto.CreateAppRequest) (*entity.App, error)
	UpdateApp(ctx context.Context, slug string, in dto.UpdateAppRequest) (*entity.App, error)
	DeleteApp(ctx context.Context, slug string) error
	SetPlanApp(ctx context.Context, planID, appID string, included bool) error
	RotateAPIKey(ctx context.Context, slug string) (string, error)
}

// AdminHandler administración del catálogo (rol admin).
type AdminHandler struct {
	uc catalogAdmin
}

// NewAdminHandler construye el handler.
func NewAdminHandler(uc catalogAdmin) *AdminHandler {
	return &AdminHandler{uc: uc}
}

// ListApps godoc
// @Summary      Listar todas las apps
// @Tags         admin
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.AppResponse
// @Router       /api/admin/apps [get]
func (h *AdminHandler) ListApps(c *fiber.Ctx) error {
	apps, err := h.uc.ListApps(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.AppResponse, 0, len(apps))
	for _, a := range apps {
		out = append(out, toAppResponse(a))
	}
	return c.JSON(out)
}

// CreateApp godoc
// @Summary      Crear app
// @Tags         admin
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateAppRequest  true  "Datos de la app"
// @Success      201   {object}  dto.AppResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/admin/apps [post]
func (h *AdminHandler) CreateApp(c *fiber.Ctx) error {
	var in dto.CreateAppRequest
	if err := bind(c, &in); err != nil {
		return err
	}
	app, err := h.uc.CreateApp(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toAppResponse(app))
}

// UpdateApp godoc
// @Summary      Modificar app
// @Tags         admin
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        slug  path  string                true  "Slug"
// @Param        body  body  dto.UpdateAppRequest  true  "Campos a modificar"
// @Success      200   {object}  dto.AppResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/admin/apps/{slug} [put]
func (h *AdminHandler) UpdateApp(c *fiber.Ctx) error {
	var in dto.UpdateAppRequest
	if err := bind(c, &in); err != nil {
		return err
	}
	app, err := h.uc.UpdateApp(c.UserContext(), c.Params("slug"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toAppResponse(app))
}

// DeleteApp godoc
// @Summary      Eliminar app (y sus vínculos con planes)
// @Tags         admin
// @Security     Bearer
// @Param        slug  path  string  true  "Slug"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/admin/apps/{slug} [delete]
func (h *AdminHandler) DeleteApp(c *fiber.Ctx) error {
	if err := h.uc.DeleteApp(c.UserContext(), c.Params("slug")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RotateAPIKey godoc
// @Summary      Generar nueva API key de la app
// @Description  La clave se muestra una sola vez; solo se guarda su hash.
// @Tags         admin
// @Security     Bearer
// @Produce      json
// @Param        slug  path  string  true  "Slug"
// @Success      200   {object}  dto.APIKeyResponse
// @Router       /api/admin/apps/{slug}/api-key [post]
func (h *AdminHandler) RotateAPIKey(c *fiber.Ctx) error {
	slug := c.Params("slug")
	key, err := h.uc.RotateAPIKey(c.UserContext(), slug)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.APIKeyResponse{Slug: slug, APIKey: key})
}

// SetPlanApp godoc
// @Summary      Incluir o excluir una app de un plan
// @Tags         admin
// @Security     Bearer
// @Accept       json
// @Param        planId  path  string                 true  "ID del plan"
// @Param        appId   path  string                 true  "ID de la app"
// @Param        body    body  dto.SetPlanAppRequest  true  "Inclusión"
// @Success      204
// @Router       /api/admin/plans/{planId}/apps/{appId} [put]
func (h *AdminHandler) SetPlanApp(c *fiber.Ctx) error {
	var in dto.SetPlanAppRequest
	if err := bind(c, &in); err != nil {
		return err
	}
	if err := h.uc.SetPlanApp(c.UserContext(), c.Params("planId"), c.Params("appId"), in.IsIncluded); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
