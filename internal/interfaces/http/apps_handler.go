package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/saas-dashboard/internal/application/access"
	"github.com/jhoicas/saas-dashboard/internal/application/dto"
	domainaccess "github.com/jhoicas/saas-dashboard/internal/domain/access"
)

// accessResolver lo implementa *access.Resolver.
type accessResolver interface {
	accessGate
	CheckAppAccess(ctx context.Context, userID, appSlug string) domainaccess.Decision
	GetUserAppAccess(ctx context.Context, userID string) (*access.UserAppAccess, error)
}

// AppsHandler catálogo de apps anotado con el acceso del usuario.
type AppsHandler struct {
	resolver accessResolver
}

// NewAppsHandler construye el handler.
func NewAppsHandler(resolver accessResolver) *AppsHandler {
	return &AppsHandler{resolver: resolver}
}

// Catalog godoc
// @Summary      Catálogo de apps con acceso
// @Tags         apps
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.CatalogResponse
// @Failure      401  {object}  dto.ErrorResponse
// @Router       /api/apps/catalog [get]
func (h *AppsHandler) Catalog(c *fiber.Ctx) error {
	out, err := h.resolver.GetUserAppAccess(c.UserContext(), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(toCatalogResponse(out))
}

// Access godoc
// @Summary      Decisión de acceso a una app
// @Tags         apps
// @Security     Bearer
// @Produce      json
// @Param        slug  path  string  true  "Slug de la app"
// @Success      200   {object}  dto.AccessResponse
// @Router       /api/apps/{slug}/access [get]
func (h *AppsHandler) Access(c *fiber.Ctx) error {
	d := h.resolver.CheckAppAccess(c.UserContext(), GetUserID(c), c.Params("slug"))
	return c.JSON(toAccessResponse(d))
}

func toCatalogResponse(in *access.UserAppAccess) dto.CatalogResponse {
	apps := make([]dto.AppResponse, 0, len(in.Apps))
	for _, a := range in.Apps {
		resp := toAppResponse(a.App)
		resp.AccessResponse = toAccessResponse(a.Decision)
		apps = append(apps, resp)
	}
	return dto.CatalogResponse{Apps: apps, Subscription: toSubscriptionResponse(in.Subscription)}
}
