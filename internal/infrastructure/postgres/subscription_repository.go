package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/saas-dashboard/internal/domain/entity"
	"github.com/jhoicas/saas-dashboard/internal/domain/repository"
)

var _ repository.SubscriptionRepository = (*SubscriptionRepo)(nil)

// Columnas de la suscripción seguidas de las del plan (JOIN), para poblar sub.Plan.
const subscriptionWithPlan = `
	SELECT s.id, s.user_id, s.plan_id, s.status, s.start_date, s.expires_at, s.cancelled_at,
		s.trial_ends_at, s.is_yearly, s.external_subscription_id, s.created_at, s.updated_at,
		p.id, p.slug, p.name, p.description, p.position, p.price_monthly, p.price_yearly,
		p.max_users, p.storage_quota_gb, p.features, p.is_active, p.created_at, p.updated_at
	FROM user_subscriptions s
	JOIN subscription_plans p ON p.id = s.plan_id`

// SubscriptionRepo implementación de SubscriptionRepository (usable con pool o tx).
type SubscriptionRepo struct {
	q Querier
}

// NewSubscriptionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSubscriptionRepository(q Querier) *SubscriptionRepo {
	return &SubscriptionRepo{q: q}
}

// Create persiste una suscripción nueva.
func (r *SubscriptionRepo) Create(ctx context.Context, sub *entity.UserSubscription) error {
	query := `
		INSERT INTO user_subscriptions (id, user_id, plan_id, status, start_date, expires_at, cancelled_at,
			trial_ends_at, is_yearly, external_subscription_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := r.q.Exec(ctx, query,
		sub.ID, sub.UserID, sub.PlanID, sub.Status, sub.StartDate, sub.ExpiresAt, sub.CancelledAt,
		sub.TrialEndsAt, sub.IsYearly, nullIfEmpty(sub.ExternalSubscriptionID), sub.CreatedAt, sub.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

// FindActiveByUser suscripción con status active.
func (r *SubscriptionRepo) FindActiveByUser(ctx context.Context, userID string) (*entity.UserSubscription, error) {
	return r.findOne(ctx, subscriptionWithPlan+`
		WHERE s.user_id = $1 AND s.status = 'active'
		ORDER BY s.created_at DESC LIMIT 1`, userID)
}

// FindCurrentByUser suscripción active o trialing.
func (r *SubscriptionRepo) FindCurrentByUser(ctx context.Context, userID string) (*entity.UserSubscription, error) {
	return r.findOne(ctx, subscriptionWithPlan+`
		WHERE s.user_id = $1 AND s.status IN ('active', 'trialing')
		ORDER BY s.created_at DESC LIMIT 1`, userID)
}

// FindLatestByUser la más reciente en active, trialing o cancelled.
func (r *SubscriptionRepo) FindLatestByUser(ctx context.Context, userID string) (*entity.UserSubscription, error) {
	return r.findOne(ctx, subscriptionWithPlan+`
		WHERE s.user_id = $1 AND s.status IN ('active', 'trialing', 'cancelled')
		ORDER BY s.created_at DESC LIMIT 1`, userID)
}

func (r *SubscriptionRepo) findOne(ctx context.Context, query, userID string) (*entity.UserSubscription, error) {
	sub, err := scanSubscription(r.q.QueryRow(ctx, query, userID))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return sub, nil
}

// MarkCancelled pasa la suscripción a cancelled con cancelled_at.
func (r *SubscriptionRepo) MarkCancelled(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE user_subscriptions SET status = 'cancelled', cancelled_at = $2, updated_at = $2
		WHERE id = $1`
	if _, err := r.q.Exec(ctx, query, id, at); err != nil {
		return fmt.Errorf("cancel subscription: %w", err)
	}
	return nil
}

func scanSubscription(row pgxScanner) (*entity.UserSubscription, error) {
	var s entity.UserSubscription
	var p entity.SubscriptionPlan
	var externalID *string
	err := row.Scan(
		&s.ID, &s.UserID, &s.PlanID, &s.Status, &s.StartDate, &s.ExpiresAt, &s.CancelledAt,
		&s.TrialEndsAt, &s.IsYearly, &externalID, &s.CreatedAt, &s.UpdatedAt,
		&p.ID, &p.Slug, &p.Name, &p.Description, &p.Position, &p.PriceMonthly, &p.PriceYearly,
		&p.MaxUsers, &p.StorageQuotaGB, &p.Features, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.ExternalSubscriptionID = derefString(externalID)
	s.Plan = &p
	return &s, nil
}
