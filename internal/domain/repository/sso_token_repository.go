package repository

import (
	"context"
	"time"

	"github.com/jhoicas/saas-dashboard/internal/domain/entity"
)

// SSOTokenRepository define el puerto de persistencia de tokens SSO (Postgres o Mongo).
type SSOTokenRepository interface {
	Create(ctx context.Context, token *entity.SSOToken) error
	FindByHash(ctx context.Context, tokenHash string) (*entity.SSOToken, error)
	// ConsumeUnused marca used_at = now de forma atómica solo si el token existe,
	// no fue usado y no venció. Devuelve nil (sin error) si ninguna fila cumplió.
	ConsumeUnused(ctx context.Context, tokenHash string, now time.Time) (*entity.SSOToken, error)
	// DeleteExpiredBefore purga tokens vencidos antes de cutoff y devuelve cuántos.
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
