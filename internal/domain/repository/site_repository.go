package repository

import (
	"context"

	"github.com/jhoicas/saas-dashboard/internal/domain/entity"
)

// SiteRepository define el puerto de persistencia para las instancias ERPNext.
type SiteRepository interface {
	// Create devuelve domain.ErrDuplicate si el usuario ya tiene una instancia creating/active
	// o si el username ya existe.
	Create(ctx context.Context, site *entity.ERPSite) error
	// FindCurrentByUser instancia en {creating, active}; nil si no hay.
	FindCurrentByUser(ctx context.Context, userID string) (*entity.ERPSite, error)
	UpdateStatus(ctx context.Context, id, status string) error
}
