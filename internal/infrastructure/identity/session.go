package identity

import (
	"context"
	"fmt"

	"github.com/jhoicas/saas-dashboard/pkg/jwt"
)

var _ Verifier = (*SessionVerifier)(nil)

// SessionVerifier valida tokens de sesión HS256 firmados con JWT_SECRET (modo desarrollo).
type SessionVerifier struct {
	secret string
}

// NewSessionVerifier construye el verificador de sesión.
func NewSessionVerifier(secret string) *SessionVerifier {
	return &SessionVerifier{secret: secret}
}

// Verify parsea el token con pkg/jwt.
func (s *SessionVerifier) Verify(_ context.Context, rawToken string) (*Identity, error) {
	claims, err := jwt.Parse(s.secret, rawToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	subject := claims.UserID
	if subject == "" {
		subject = claims.Subject
	}
	if subject == "" {
		return nil, fmt.Errorf("%w: sin subject", ErrInvalidToken)
	}
	return &Identity{Subject: subject, Email: claims.Email, Name: claims.Name, Role: normalizeRole(claims.Role)}, nil
}
