package ports

import (
	"context"
	"time"
)

// CustomerRequest datos para dar de alta al usuario en el proveedor de pagos.
type CustomerRequest struct {
	UserID string
	Email  string
	Name   string
}

// SubscriptionRequest datos para crear la suscripción externa.
// PriceRef sigue la convención price_<slug>_<monthly|yearly>.
type SubscriptionRequest struct {
	CustomerID string
	PriceRef   string
	TrialDays  int
	Metadata   map[string]string
}

// ExternalSubscription lo que devuelve el proveedor tras crear la suscripción.
type ExternalSubscription struct {
	ID          string
	Status      string
	TrialEndsAt *time.Time
}

// PaymentsProvider define el puerto de salida hacia el proveedor de pagos.
// Hay un adaptador en memoria para desarrollo y otro para Stripe; se elige por configuración.
type PaymentsProvider interface {
	CreateCustomer(ctx context.Context, req CustomerRequest) (string, error)
	CreateSubscription(ctx context.Context, req SubscriptionRequest) (*ExternalSubscription, error)
	CancelSubscription(ctx context.Context, externalID string) error
}
