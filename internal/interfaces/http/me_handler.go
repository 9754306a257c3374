package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/saas-dashboard/internal/domain"
	"github.com/jhoicas/saas-dashboard/internal/domain/entity"
)

type userReader interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
}

// MeHandler datos del usuario autenticado.
type MeHandler struct {
	users userReader
}

// NewMeHandler construye el handler.
func NewMeHandler(users userReader) *MeHandler {
	return &MeHandler{users: users}
}

// Get godoc
// @Summary      Usuario autenticado
// @Tags         users
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.UserResponse
// @Router       /api/me [get]
func (h *MeHandler) Get(c *fiber.Ctx) error {
	user, err := h.users.GetByID(c.UserContext(), GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	if user == nil {
		return respondError(c, domain.ErrUserNotFound)
	}
	return c.JSON(toUserResponse(user))
}
