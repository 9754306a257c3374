// Package access contiene las reglas puras de acceso a apps del marketplace.
// No depende de infraestructura: recibe la app, la suscripción vigente (con su plan)
// y si existe inclusión explícita PlanApp, y devuelve una Decision.
package access

import (
	"time"

	"github.com/jhoicas/saas-dashboard/internal/domain/entity"
)

// Reason código legible por máquina que explica una decisión de acceso.
type Reason string

const (
	ReasonFree                Reason = "free"
	ReasonIncludedInPlan      Reason = "included_in_plan"
	ReasonPlanLevelAccess     Reason = "plan_level_access"
	ReasonUpgradeRequired     Reason = "upgrade_required"
	ReasonAppInactive         Reason = "app_inactive"
	ReasonSubscriptionExpired Reason = "subscription_expired"
)

// UpgradeURL página a la que se envía al usuario cuando le falta plan.
const UpgradeURL = "/pricing"

// Decision es una de las variantes Free, IncludedInPlan, PlanLevelAccess,
// UpgradeRequired, AppInactive o SubscriptionExpired. Cada variante lleva solo
// los campos que tienen sentido para su motivo.
type Decision interface {
	Reason() Reason
	Granted() bool
}

// Free la app no requiere plan.
type Free struct{}

// IncludedInPlan el plan del usuario incluye la app explícitamente.
type IncludedInPlan struct {
	UserPlanLevel int
}

// PlanLevelAccess el nivel del plan alcanza el mínimo de la app.
type PlanLevelAccess struct {
	UserPlanLevel     int
	RequiredPlanLevel int
}

// UpgradeRequired falta suscripción o el nivel no alcanza.
type UpgradeRequired struct {
	RequiredPlanLevel int
	UserPlanLevel     int
	UpgradeURL        string
}

// AppInactive la app no existe o está desactivada.
type AppInactive struct{}

// SubscriptionExpired la suscripción activa tiene vencimiento pasado.
type SubscriptionExpired struct {
	UpgradeURL string
}

func (Free) Reason() Reason                { return ReasonFree }
func (Free) Granted() bool                 { return true }
func (IncludedInPlan) Reason() Reason      { return ReasonIncludedInPlan }
func (IncludedInPlan) Granted() bool       { return true }
func (PlanLevelAccess) Reason() Reason     { return ReasonPlanLevelAccess }
func (PlanLevelAccess) Granted() bool      { return true }
func (UpgradeRequired) Reason() Reason     { return ReasonUpgradeRequired }
func (UpgradeRequired) Granted() bool      { return false }
func (AppInactive) Reason() Reason         { return ReasonAppInactive }
func (AppInactive) Granted() bool          { return false }
func (SubscriptionExpired) Reason() Reason { return ReasonSubscriptionExpired }
func (SubscriptionExpired) Granted() bool  { return false }

// Denied es la decisión conservadora ante fallos de infraestructura (fail closed).
func Denied() Decision {
	return UpgradeRequired{}
}

// Decide aplica la precedencia en orden fijo:
// app inactiva > app gratuita > sin suscripción > suscripción vencida >
// inclusión explícita > nivel de plan > mejora requerida.
//
// sub debe ser la suscripción con status active (o nil) y traer Plan poblado.
func Decide(app *entity.App, sub *entity.UserSubscription, included bool, now time.Time) Decision {
	if !app.IsActive() {
		return AppInactive{}
	}
	if !app.RequiresPlan {
		return Free{}
	}

	required := app.RequiredLevel()
	if sub == nil {
		return UpgradeRequired{RequiredPlanLevel: required, UserPlanLevel: 0, UpgradeURL: UpgradeURL}
	}
	if sub.IsExpiredAt(now) {
		return SubscriptionExpired{UpgradeURL: UpgradeURL}
	}

	level := PlanLevel(sub)
	if included {
		return IncludedInPlan{UserPlanLevel: level}
	}
	if app.MinimumPlanLevel != nil && level >= required {
		return PlanLevelAccess{UserPlanLevel: level, RequiredPlanLevel: required}
	}
	return UpgradeRequired{RequiredPlanLevel: required, UserPlanLevel: level, UpgradeURL: UpgradeURL}
}

// PlanLevel nivel (position) del plan de la suscripción; 0 sin suscripción o sin plan.
func PlanLevel(sub *entity.UserSubscription) int {
	if sub == nil || sub.Plan == nil {
		return 0
	}
	return sub.Plan.Position
}

// MeetsLevel reglas de CheckPlanLevelAccess: sin suscripción solo pasa el nivel 0.
func MeetsLevel(sub *entity.UserSubscription, requiredLevel int) bool {
	if sub == nil {
		return requiredLevel == 0
	}
	return PlanLevel(sub) >= requiredLevel
}
