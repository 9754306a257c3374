package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/saas-dashboard/internal/application/dto"
	"github.com/jhoicas/saas-dashboard/internal/domain"
	"github.com/jhoicas/saas-dashboard/internal/domain/entity"
)

// Cabeceras con las que una app destino se autentica ante el dashboard.
const (
	HeaderAppSlug = "X-App-Slug"
	HeaderAPIKey  = "X-API-Key"
)

// apiKeyVerifier lo implementa *catalog.UseCase.
type apiKeyVerifier interface {
	VerifyAPIKey(ctx context.Context, slug, key string) (*entity.App, error)
}

// AppKeyMiddleware autentica a la app destino con X-App-Slug + X-API-Key (hash bcrypt).
func AppKeyMiddleware(verifier apiKeyVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		slug, key := c.Get(HeaderAppSlug), c.Get(HeaderAPIKey)
		if slug == "" || key == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_API_KEY", Message: "X-App-Slug y X-API-Key son requeridos"})
		}
		app, err := verifier.VerifyAPIKey(c.UserContext(), slug, key)
		if err != nil {
			if errors.Is(err, domain.ErrUnauthorized) {
				return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_API_KEY", Message: "credenciales de app inválidas"})
			}
			return err
		}
		c.Locals(LocalAppSlug, app.Slug)
		return c.Next()
	}
}
