package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound             = errors.New("recurso no encontrado")
	ErrUserNotFound         = errors.New("usuario no encontrado")
	ErrPlanNotFound         = errors.New("plan no encontrado")
	ErrAppNotFound          = errors.New("app no encontrada")
	ErrInvalidInput         = errors.New("entrada inválida")
	ErrDuplicate            = errors.New("recurso duplicado")
	ErrUnauthorized         = errors.New("no autorizado")
	ErrForbidden            = errors.New("acceso denegado")
	ErrConflict             = errors.New("conflicto con el estado actual")
	ErrAlreadySubscribed    = errors.New("el usuario ya está suscrito a este plan")
	ErrNoActiveSubscription = errors.New("no hay una suscripción activa")
	ErrProviderFailure      = errors.New("fallo del proveedor externo")
)
