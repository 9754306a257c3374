// Package identity verifica el bearer token del usuario contra el proveedor de identidad
// (OIDC) o, en desarrollo, contra un token de sesión HS256.
package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/jhoicas/saas-dashboard/internal/domain/entity"
)

// ErrInvalidToken el token no pudo verificarse (firma, emisor, audiencia o vencimiento).
var ErrInvalidToken = errors.New("identity: token inválido o expirado")

// Identity usuario autenticado tal como lo describe el proveedor.
type Identity struct {
	Subject string
	Email   string
	Name    string
	Role    string
}

// Verifier valida un bearer token y devuelve la identidad.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (*Identity, error)
}

// normalizeRole solo reconoce admin; cualquier otro valor es user.
func normalizeRole(role string) string {
	if strings.EqualFold(strings.TrimSpace(role), entity.RoleAdmin) {
		return entity.RoleAdmin
	}
	return entity.RoleUser
}
