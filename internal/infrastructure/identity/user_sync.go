package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/saas-dashboard/internal/domain/entity"
	"github.com/jhoicas/saas-dashboard/internal/domain/repository"
)

// UserSync mantiene la fila de users alineada con la identidad verificada.
type UserSync struct {
	users repository.UserRepository
	now   func() time.Time
}

// NewUserSync construye el sincronizador.
func NewUserSync(users repository.UserRepository) *UserSync {
	return &UserSync{users: users, now: func() time.Time { return time.Now().UTC() }}
}

// Ensure hace upsert del usuario (crea en el primer acceso, refresca email/nombre/rol después).
func (s *UserSync) Ensure(ctx context.Context, id *Identity) error {
	now := s.now()
	user := &entity.User{
		ID:        id.Subject,
		Email:     id.Email,
		Name:      id.Name,
		Role:      normalizeRole(id.Role),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		return fmt.Errorf("sincronizar usuario %s: %w", id.Subject, err)
	}
	return nil
}
