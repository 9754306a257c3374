package repository

import (
	"context"

	"github.com/jhoicas/saas-dashboard/internal/domain/entity"
)

// PlanRepository define el puerto de persistencia para SubscriptionPlan y PlanApp.
type PlanRepository interface {
	GetByID(ctx context.Context, id string) (*entity.SubscriptionPlan, error)
	ListActive(ctx context.Context) ([]*entity.SubscriptionPlan, error)

	// IsAppIncluded informa si existe PlanApp(plan, app) con is_included = true.
	IsAppIncluded(ctx context.Context, planID, appID string) (bool, error)
	// IncludedAppIDs carga de una vez el conjunto de apps incluidas en el plan.
	IncludedAppIDs(ctx context.Context, planID string) (map[string]struct{}, error)
	// UpsertPlanApp crea o actualiza el vínculo (plan_id, app_id).
	UpsertPlanApp(ctx context.Context, link *entity.PlanApp) error
}
