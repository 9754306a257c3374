package entity

import "time"

// Estados de UserSubscription.
const (
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
	SubscriptionExpired   = "expired"
	SubscriptionPastDue   = "past_due"
	SubscriptionTrialing  = "trialing"
)

// UserSubscription instancia de suscripción de un usuario.
// Como máximo una en {active, trialing} por usuario (lo garantiza el SubscriptionManager).
type UserSubscription struct {
	ID                     string
	UserID                 string
	PlanID                 string
	Status                 string
	StartDate              time.Time
	ExpiresAt              *time.Time // nil = sin vencimiento
	CancelledAt            *time.Time
	TrialEndsAt            *time.Time
	IsYearly               bool
	ExternalSubscriptionID string // ID en el proveedor de pagos
	CreatedAt              time.Time
	UpdatedAt              time.Time

	Plan *SubscriptionPlan // poblado por las consultas que lo requieren
}

// IsActive solo "active"; trialing no concede acceso a apps.
func (s *UserSubscription) IsActive() bool {
	return s != nil && s.Status == SubscriptionActive
}

// IsCurrent indica si la suscripción ocupa el cupo activo del usuario (active o trialing).
func (s *UserSubscription) IsCurrent() bool {
	return s != nil && (s.Status == SubscriptionActive || s.Status == SubscriptionTrialing)
}

// IsExpiredAt indica si tiene vencimiento y ya pasó.
func (s *UserSubscription) IsExpiredAt(now time.Time) bool {
	return s != nil && s.ExpiresAt != nil && s.ExpiresAt.Before(now)
}
