package repository

import (
	"context"

	"github.com/jhoicas/saas-dashboard/internal/domain/entity"
)

// AppRepository define el puerto de persistencia para el catálogo de apps (DIP).
type AppRepository interface {
	Create(ctx context.Context, app *entity.App) error
	GetByID(ctx context.Context, id string) (*entity.App, error)
	GetBySlug(ctx context.Context, slug string) (*entity.App, error)
	// GetActiveBySlug devuelve nil si la app no existe o está inactiva.
	GetActiveBySlug(ctx context.Context, slug string) (*entity.App, error)
	ListActive(ctx context.Context) ([]*entity.App, error)
	List(ctx context.Context) ([]*entity.App, error)
	Update(ctx context.Context, app *entity.App) error
	// Delete elimina la app y sus vínculos PlanApp.
	Delete(ctx context.Context, id string) error
	SetAPIKeyHash(ctx context.Context, id, hash string) error
}
