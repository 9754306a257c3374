package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/saas-dashboard/internal/application/access"
	"github.com/jhoicas/saas-dashboard/internal/application/dto"
)

const localAccessDecision = "access_decision"

// accessGate es el contrato mínimo del middleware; lo implementa *access.Resolver.
type accessGate interface {
	RequireAppAccess(ctx context.Context, userID, appSlug string) access.AccessCheck
}

// RequireAppAccess verifica que el usuario autenticado pueda usar la app cuyo slug devuelve slugOf.
// Debe usarse DESPUÉS de AuthMiddleware.
//
//   - 404 → la app no existe o está inactiva.
//   - 402 → la suscripción venció.
//   - 403 → falta plan o nivel.
func RequireAppAccess(slugOf func(c *fiber.Ctx) string, gate accessGate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := GetUserID(c)
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "usuario no autenticado"})
		}
		slug := slugOf(c)
		if slug == "" {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "appSlug es requerido"})
		}

		check := gate.RequireAppAccess(c.UserContext(), userID, slug)
		if !check.Success {
			return c.Status(check.StatusCode).JSON(accessDenied(check))
		}
		c.Locals(localAccessDecision, check.Decision)
		return c.Next()
	}
}

// SlugParam lee el slug del parámetro de ruta :slug.
func SlugParam(c *fiber.Ctx) string { return c.Params("slug") }

// SlugFromBody lee appSlug del cuerpo JSON (el handler vuelve a parsearlo después).
func SlugFromBody(c *fiber.Ctx) string {
	var in struct {
		AppSlug string `json:"appSlug"`
	}
	if err := c.BodyParser(&in); err != nil {
		return ""
	}
	return in.AppSlug
}

func accessDenied(check access.AccessCheck) dto.AccessDeniedResponse {
	out := dto.AccessDeniedResponse{Code: "ACCESS_DENIED", Message: check.Error}
	if check.Decision == nil {
		return out
	}
	resp := toAccessResponse(check.Decision)
	out.Reason = resp.AccessReason
	out.UpgradeURL = resp.UpgradeURL
	if resp.RequiredPlanLevel != nil {
		out.RequiredPlanLevel = *resp.RequiredPlanLevel
	}
	if resp.UserPlanLevel != nil {
		out.UserPlanLevel = *resp.UserPlanLevel
	}
	switch check.StatusCode {
	case fiber.StatusNotFound:
		out.Code = "APP_NOT_FOUND"
	case fiber.StatusPaymentRequired:
		out.Code = "SUBSCRIPTION_EXPIRED"
	case fiber.StatusForbidden:
		out.Code = "UPGRADE_REQUIRED"
	}
	return out
}
