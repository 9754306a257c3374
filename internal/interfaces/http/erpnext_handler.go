package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/saas-dashboard/internal/application/dto"
	"github.com/jhoicas/saas-dashboard/internal/application/provisioning"
	"github.com/jhoicas/saas-dashboard/internal/domain/entity"
)

// siteProvisioning lo implementa *provisioning.UseCase.
type siteProvisioning interface {
	CreateSite(ctx context.Context, req provisioning.CreateSiteRequest) (*entity.ERPSite, bool, error)
	GetSite(ctx context.Context, userID string) (*entity.ERPSite, error)
	DeleteSite(ctx context.Context, userID string) error
}

// ERPNextHandler instancia ERPNext del usuario.
type ERPNextHandler struct {
	uc siteProvisioning
}

// NewERPNextHandler construye el handler.
func NewERPNextHandler(uc siteProvisioning) *ERPNextHandler {
	return &ERPNextHandler{uc: uc}
}

// CreateSite godoc
// @Summary      Aprovisionar instancia ERPNext
// @Description  Si ya existe una instancia vigente la devuelve (200); si no, la crea (201).
// @Tags         erpnext
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.SiteResponse
// @Success      201  {object}  dto.SiteResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/erpnext/create-site [post]
func (h *ERPNextHandler) CreateSite(c *fiber.Ctx) error {
	id := GetIdentity(c)
	site, created, err := h.uc.CreateSite(c.UserContext(), provisioning.CreateSiteRequest{UserID: id.Subject, Email: id.Email})
	if err != nil {
		return respondError(c, err)
	}
	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(toSiteResponse(site, created))
}

// GetSite godoc
// @Summary      Estado de la instancia ERPNext
// @Tags         erpnext
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.SiteResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/erpnext/create-site [get]
func (h *ERPNextHandler) GetSite(c *fiber.Ctx) error {
	site, err := h.uc.GetSite(c.UserContext(), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toSiteResponse(site, false))
}

// DeleteSite godoc
// @Summary      Eliminar la instancia ERPNext
// @Tags         erpnext
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.OperationResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      502  {object}  dto.ErrorResponse
// @Router       /api/erpnext/site [delete]
func (h *ERPNextHandler) DeleteSite(c *fiber.Ctx) error {
	if err := h.uc.DeleteSite(c.UserContext(), GetUserID(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.OperationResponse{Success: true, Message: "Site deleted successfully"})
}
