package identity

import (
	"context"
	"fmt"
	"slices"

	"github.com/coreos/go-oidc/v3/oidc"
)

var _ Verifier = (*OIDCVerifier)(nil)

// OIDCVerifier valida ID tokens emitidos por el proveedor OIDC (firma vía JWKS, iss, aud, exp).
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier descubre la configuración del emisor (.well-known) y prepara el verificador.
func NewOIDCVerifier(ctx context.Context, issuerURL, clientID string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("descubrir proveedor OIDC: %w", err)
	}
	return &OIDCVerifier{verifier: provider.Verifier(&oidc.Config{ClientID: clientID})}, nil
}

// newOIDCVerifierFrom permite inyectar un IDTokenVerifier (tests con StaticKeySet).
func newOIDCVerifierFrom(v *oidc.IDTokenVerifier) *OIDCVerifier {
	return &OIDCVerifier{verifier: v}
}

type oidcClaims struct {
	Email             string   `json:"email"`
	Name              string   `json:"name"`
	PreferredUsername string   `json:"preferred_username"`
	Role              string   `json:"role"`
	Roles             []string `json:"roles"`
}

// Verify valida el token y mapea los claims estándar. El rol sale del claim "role" o de "roles".
func (o *OIDCVerifier) Verify(ctx context.Context, rawToken string) (*Identity, error) {
	tok, err := o.verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	var claims oidcClaims
	if err := tok.Claims(&claims); err != nil {
		return nil, fmt.Errorf("%w: claims: %v", ErrInvalidToken, err)
	}

	name := claims.Name
	if name == "" {
		name = claims.PreferredUsername
	}
	role := claims.Role
	if role == "" && slices.Contains(claims.Roles, "admin") {
		role = "admin"
	}
	return &Identity{
		Subject: tok.Subject,
		Email:   claims.Email,
		Name:    name,
		Role:    normalizeRole(role),
	}, nil
}
