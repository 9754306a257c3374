package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/saas-dashboard/internal/domain"
	"github.com/jhoicas/saas-dashboard/internal/domain/entity"
	"github.com/jhoicas/saas-dashboard/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo implementación del puerto UserRepository sobre PostgreSQL (usable con pool o tx).
type UserRepo struct {
	q Querier
}

// NewUserRepository construye el adaptador de persistencia para usuarios.
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

// GetByID obtiene un usuario por ID (subject del proveedor de identidad).
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	query := `
		SELECT id, email, name, role, external_customer_id, current_plan_id::text, subscription_status,
			created_at, updated_at
		FROM users WHERE id = $1`
	var u entity.User
	var customerID, planID, status *string
	err := r.q.QueryRow(ctx, query, id).Scan(
		&u.ID, &u.Email, &u.Name, &u.Role, &customerID, &planID, &status, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	u.ExternalCustomerID = derefString(customerID)
	u.CurrentPlanID = derefString(planID)
	u.SubscriptionStatus = derefString(status)
	return &u, nil
}

// Upsert crea el usuario o refresca email, nombre y rol desde la identidad verificada.
func (r *UserRepo) Upsert(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (id, email, name, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email, name = EXCLUDED.name, role = EXCLUDED.role, updated_at = EXCLUDED.updated_at
		WHERE users.email IS DISTINCT FROM EXCLUDED.email
			OR users.name IS DISTINCT FROM EXCLUDED.name
			OR users.role IS DISTINCT FROM EXCLUDED.role`
	if _, err := r.q.Exec(ctx, query, user.ID, user.Email, user.Name, user.Role, user.UpdatedAt); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// SetExternalCustomerID guarda el ID de cliente del proveedor de pagos.
func (r *UserRepo) SetExternalCustomerID(ctx context.Context, userID, customerID string) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE users SET external_customer_id = $2, updated_at = now() WHERE id = $1`, userID, customerID)
	if err != nil {
		return fmt.Errorf("set external customer id: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// UpdateSubscriptionState actualiza current_plan_id y subscription_status.
func (r *UserRepo) UpdateSubscriptionState(ctx context.Context, userID, planID, status string) error {
	query := `
		UPDATE users SET current_plan_id = $2::uuid, subscription_status = $3, updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, userID, nullIfEmpty(planID), status)
	if err != nil {
		return fmt.Errorf("update subscription state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
