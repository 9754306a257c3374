package subscription

import (
	"context"

	"github.com/jhoicas/saas-dashboard/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción con repos atados a esa tx.
// Si fn devuelve error se hace Rollback.
type TxRunner interface {
	RunSubscription(ctx context.Context, fn func(
		subs repository.SubscriptionRepository,
		users repository.UserRepository,
	) error) error
}
