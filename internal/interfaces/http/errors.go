package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/saas-dashboard/internal/application/dto"
	"github.com/jhoicas/saas-dashboard/internal/domain"
	"github.com/jhoicas/saas-dashboard/pkg/logger"
)

// apiError error ya clasificado por el handler (status y código explícitos).
type apiError struct {
	Status  int
	Code    string
	Message string
}

func (e *apiError) Error() string { return e.Message }

func badRequest(code, msg string) error {
	return &apiError{Status: fiber.StatusBadRequest, Code: code, Message: msg}
}

// ErrorHandler handler de errores de Fiber: renderiza dto.ErrorResponse y registra los 5xx.
func ErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	log = log.Component("http")
	return func(c *fiber.Ctx, err error) error {
		var ae *apiError
		if errors.As(err, &ae) {
			return c.Status(ae.Status).JSON(dto.ErrorResponse{Code: ae.Code, Message: ae.Message})
		}
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(dto.ErrorResponse{Code: codeForStatus(fe.Code), Message: fe.Message})
		}
		status, code := statusFor(err)
		if status >= fiber.StatusInternalServerError {
			log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error no controlado")
		}
		return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: publicMessage(status, err)})
	}
}

// respondError traduce un error de caso de uso a status + dto.ErrorResponse.
func respondError(c *fiber.Ctx, err error) error {
	status, code := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		// Lo registra el ErrorHandler.
		return err
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: publicMessage(status, err)})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrPlanNotFound),
		errors.Is(err, domain.ErrAppNotFound),
		errors.Is(err, domain.ErrNoActiveSubscription),
		errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrAlreadySubscribed):
		return fiber.StatusConflict, "ALREADY_SUBSCRIBED"
	case errors.Is(err, domain.ErrDuplicate), errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrProviderFailure):
		return fiber.StatusBadGateway, "PROVIDER_ERROR"
	default:
		return fiber.StatusInternalServerError, "INTERNAL"
	}
}

// publicMessage evita filtrar detalles internos en los 500.
func publicMessage(status int, err error) string {
	if status >= fiber.StatusInternalServerError && status != fiber.StatusBadGateway {
		return "error interno del servidor"
	}
	return err.Error()
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusNotFound:
		return "NOT_FOUND"
	case fiber.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case fiber.StatusTooManyRequests:
		return "RATE_LIMITED"
	case fiber.StatusBadRequest:
		return "BAD_REQUEST"
	case fiber.StatusRequestEntityTooLarge:
		return "BODY_TOO_LARGE"
	default:
		if status >= fiber.StatusInternalServerError {
			return "INTERNAL"
		}
		return "ERROR"
	}
}
