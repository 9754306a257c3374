package entity

import "time"

// Unlimited marca una cuota sin límite (max_users, storage_quota_gb).
const Unlimited = -1

// SubscriptionPlan es un nivel de suscripción (Free, Starter, Professional, Enterprise).
// Position define un orden total y es el "nivel" que se compara con App.MinimumPlanLevel.
type SubscriptionPlan struct {
	ID             string
	Slug           string
	Name           string
	Description    string
	Position       int
	PriceMonthly   int64 // centavos
	PriceYearly    int64 // centavos
	MaxUsers       int   // -1 = ilimitado
	StorageQuotaGB int   // -1 = ilimitado
	Features       []string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsFree indica si el plan no tiene costo en ningún ciclo de facturación.
func (p *SubscriptionPlan) IsFree() bool {
	return p != nil && p.PriceMonthly == 0 && p.PriceYearly == 0
}

// PriceFor devuelve el precio en centavos según el ciclo.
func (p *SubscriptionPlan) PriceFor(yearly bool) int64 {
	if yearly {
		return p.PriceYearly
	}
	return p.PriceMonthly
}

// PlanApp vincula explícitamente una App a un plan. Único por (PlanID, AppID).
// IsIncluded=true concede la app sin comparar niveles.
type PlanApp struct {
	ID         string
	PlanID     string
	AppID      string
	IsIncluded bool
	CreatedAt  time.Time
}
