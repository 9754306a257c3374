package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/saas-dashboard/internal/domain/entity"
	"github.com/jhoicas/saas-dashboard/internal/domain/repository"
)

var _ repository.PlanRepository = (*PlanRepo)(nil)

const planColumns = `
	id, slug, name, description, position, price_monthly, price_yearly, max_users,
	storage_quota_gb, features, is_active, created_at, updated_at`

// PlanRepo implementación de PlanRepository (planes y vínculos PlanApp) sobre PostgreSQL.
type PlanRepo struct {
	db Querier
}

// NewPlanRepository construye el adaptador de planes.
func NewPlanRepository(db Querier) *PlanRepo {
	return &PlanRepo{db: db}
}

// GetByID obtiene un plan por ID (activo o no).
func (r *PlanRepo) GetByID(ctx context.Context, id string) (*entity.SubscriptionPlan, error) {
	plan, err := scanPlan(r.db.QueryRow(ctx, `SELECT `+planColumns+` FROM subscription_plans WHERE id = $1`, id))
	if err != nil {
		if isMissing(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return plan, nil
}

// ListActive planes activos ordenados por posición.
func (r *PlanRepo) ListActive(ctx context.Context) ([]*entity.SubscriptionPlan, error) {
	rows, err := r.db.Query(ctx, `SELECT `+planColumns+` FROM subscription_plans WHERE is_active ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()
	var list []*entity.SubscriptionPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// IsAppIncluded consulta la inclusión explícita (plan, app).
func (r *PlanRepo) IsAppIncluded(ctx context.Context, planID, appID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM plan_apps WHERE plan_id = $1 AND app_id = $2 AND is_included
		)`
	var included bool
	if err := r.db.QueryRow(ctx, query, planID, appID).Scan(&included); err != nil {
		return false, fmt.Errorf("check plan app: %w", err)
	}
	return included, nil
}

// IncludedAppIDs conjunto de apps incluidas en el plan.
func (r *PlanRepo) IncludedAppIDs(ctx context.Context, planID string) (map[string]struct{}, error) {
	rows, err := r.db.Query(ctx, `SELECT app_id FROM plan_apps WHERE plan_id = $1 AND is_included`, planID)
	if err != nil {
		return nil, fmt.Errorf("list plan apps: %w", err)
	}
	defer rows.Close()
	set := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan plan app: %w", err)
		}
		set[id] = struct{}{}
	}
	return set, rows.Err()
}

// UpsertPlanApp crea o actualiza el vínculo único (plan_id, app_id).
func (r *PlanRepo) UpsertPlanApp(ctx context.Context, link *entity.PlanApp) error {
	query := `
		INSERT INTO plan_apps (id, plan_id, app_id, is_included, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (plan_id, app_id) DO UPDATE SET is_included = EXCLUDED.is_included`
	if _, err := r.db.Exec(ctx, query, link.ID, link.PlanID, link.AppID, link.IsIncluded, link.CreatedAt); err != nil {
		return fmt.Errorf("upsert plan app: %w", err)
	}
	return nil
}

func scanPlan(row pgxScanner) (*entity.SubscriptionPlan, error) {
	var p entity.SubscriptionPlan
	err := row.Scan(
		&p.ID, &p.Slug, &p.Name, &p.Description, &p.Position, &p.PriceMonthly, &p.PriceYearly,
		&p.MaxUsers, &p.StorageQuotaGB, &p.Features, &p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
