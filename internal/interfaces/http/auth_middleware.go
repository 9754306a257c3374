package http

import (
	"context"
	"slices"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/saas-dashboard/internal/application/dto"
	"github.com/jhoicas/saas-dashboard/internal/infrastructure/identity"
	"github.com/jhoicas/saas-dashboard/pkg/logger"
)

// Locals keys de la identidad autenticada en Fiber.
const (
	LocalUserID    = "user_id"
	LocalUserEmail = "user_email"
	LocalUserName  = "user_name"
	LocalRole      = "role"
	LocalAppSlug   = "app_slug"
)

// userEnsurer sincroniza la fila de users con la identidad verificada.
// Lo implementa *identity.UserSync.
type userEnsurer interface {
	Ensure(ctx context.Context, id *identity.Identity) error
}

// AuthMiddleware valida el Bearer Token contra el proveedor de identidad, sincroniza el usuario
// y deja UserID, email, nombre y rol en c.Locals.
func AuthMiddleware(verifier identity.Verifier, users userEnsurer, log *logger.Logger) fiber.Handler {
	log = log.Component("auth")
	return func(c *fiber.Ctx) error {
		tokenString, errResp := bearerToken(c)
		if errResp != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(errResp)
		}
		id, err := verifier.Verify(c.UserContext(), tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		if id.Role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_ROLE", Message: "el token no contiene rol"})
		}
		if users != nil {
			if err := users.Ensure(c.UserContext(), id); err != nil {
				log.Error().Err(err).Str("user_id", id.Subject).Msg("sincronizar usuario")
				return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "USER_SYNC_FAILED", Message: "no se pudo registrar el usuario, intente más tarde"})
			}
		}
		c.Locals(LocalUserID, id.Subject)
		c.Locals(LocalUserEmail, id.Email)
		c.Locals(LocalUserName, id.Name)
		c.Locals(LocalRole, id.Role)
		return c.Next()
	}
}

// bearerToken extrae el token de "Authorization: Bearer <token>".
func bearerToken(c *fiber.Ctx) (string, *dto.ErrorResponse) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", &dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"}
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", &dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"}
	}
	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		return "", &dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"}
	}
	return tokenString, nil
}

// RequireRole permite el paso solo si el rol del usuario está entre los indicados.
// Debe usarse DESPUÉS de AuthMiddleware.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := GetRole(c)
		if role == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_ROLE", Message: "rol no encontrado en el token"})
		}
		if !slices.Contains(roles, role) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "el rol '" + role + "' no tiene permiso para este recurso"})
		}
		return c.Next()
	}
}

// GetUserID devuelve el UserID del contexto (después del middleware de auth).
func GetUserID(c *fiber.Ctx) string { return localString(c, LocalUserID) }

// GetRole devuelve el rol del usuario autenticado.
func GetRole(c *fiber.Ctx) string { return localString(c, LocalRole) }

// GetIdentity reconstruye la identidad guardada por AuthMiddleware.
func GetIdentity(c *fiber.Ctx) identity.Identity {
	return identity.Identity{
		Subject: GetUserID(c),
		Email:   localString(c, LocalUserEmail),
		Name:    localString(c, LocalUserName),
		Role:    GetRole(c),
	}
}

// GetAppSlug slug de la app autenticada por AppKeyMiddleware.
func GetAppSlug(c *fiber.Ctx) string { return localString(c, LocalAppSlug) }

func localString(c *fiber.Ctx, key string) string {
	s, _ := c.Locals(key).(string)
	return s
}
