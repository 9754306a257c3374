package repository

import (
	"context"
	"time"

	"github.com/jhoicas/saas-dashboard/internal/domain/entity"
)

// SubscriptionRepository define el puerto de persistencia para UserSubscription.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *entity.UserSubscription) error
	// FindActiveByUser solo status = active, con Plan poblado. nil si no hay.
	FindActiveByUser(ctx context.Context, userID string) (*entity.UserSubscription, error)
	// FindCurrentByUser status en {active, trialing}, con Plan poblado.
	FindCurrentByUser(ctx context.Context, userID string) (*entity.UserSubscription, error)
	// FindLatestByUser la más reciente en {active, trialing, cancelled}, con Plan poblado.
	FindLatestByUser(ctx context.Context, userID string) (*entity.UserSubscription, error)
	MarkCancelled(ctx context.Context, id string, at time.Time) error
}
