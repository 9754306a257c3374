package repository

import (
	"context"

	"github.com/jhoicas/saas-dashboard/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User (DIP).
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
	// Upsert crea el usuario o actualiza email/nombre/rol desde el proveedor de identidad.
	Upsert(ctx context.Context, user *entity.User) error
	SetExternalCustomerID(ctx context.Context, userID, customerID string) error
	// UpdateSubscriptionState actualiza los campos desnormalizados current_plan_id y subscription_status.
	UpdateSubscriptionState(ctx context.Context, userID, planID, status string) error
}
