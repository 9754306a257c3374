package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/saas-dashboard/internal/domain"
	"github.com/jhoicas/saas-dashboard/internal/domain/entity"
	"github.com/jhoicas/saas-dashboard/internal/domain/repository"
)

var _ repository.AppRepository = (*AppRepo)(nil)

const appColumns = `
	id, slug, name, description, long_description, sso_url, status, requires_plan,
	minimum_plan_level, category, tags, features, popularity, rating, is_popular,
	is_featured, icon_url, api_key_hash, created_at, updated_at`

// AppRepo implementación del puerto AppRepository sobre PostgreSQL.
type AppRepo struct {
	pool *pgxpool.Pool
}

// NewAppRepository construye el adaptador del catálogo de apps.
func NewAppRepository(pool *pgxpool.Pool) *AppRepo {
	return &AppRepo{pool: pool}
}

// Create persiste una app nueva. Slug duplicado devuelve domain.ErrDuplicate.
func (r *AppRepo) Create(ctx context.Context, app *entity.App) error {
	query := `
		INSERT INTO apps (` + appColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`
	_, err := r.pool.Exec(ctx, query,
		app.ID, app.Slug, app.Name, app.Description, app.LongDescription, app.SSOURL, app.Status,
		app.RequiresPlan, app.MinimumPlanLevel, app.Category, app.Tags, app.Features, app.Popularity,
		app.Rating, app.IsPopular, app.IsFeatured, app.IconURL, nullIfEmpty(app.APIKeyHash),
		app.CreatedAt, app.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert app: %w", err)
	}
	return nil
}

// GetByID obtiene una app por ID (activa o no).
func (r *AppRepo) GetByID(ctx context.Context, id string) (*entity.App, error) {
	return r.getOne(ctx, `SELECT `+appColumns+` FROM apps WHERE id = $1`, id)
}

// GetBySlug obtiene una app por slug (activa o no).
func (r *AppRepo) GetBySlug(ctx context.Context, slug string) (*entity.App, error) {
	return r.getOne(ctx, `SELECT `+appColumns+` FROM apps WHERE slug = $1`, slug)
}

// GetActiveBySlug obtiene la app solo si está activa.
func (r *AppRepo) GetActiveBySlug(ctx context.Context, slug string) (*entity.App, error) {
	return r.getOne(ctx, `SELECT `+appColumns+` FROM apps WHERE slug = $1 AND status = 'active'`, slug)
}

func (r *AppRepo) getOne(ctx context.Context, query string, arg string) (*entity.App, error) {
	app, err := scanApp(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if isMissing(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get app: %w", err)
	}
	return app, nil
}

// ListActive apps activas, en el orden del catálogo.
func (r *AppRepo) ListActive(ctx context.Context) ([]*entity.App, error) {
	return r.list(ctx, `SELECT `+appColumns+` FROM apps WHERE status = 'active'
		ORDER BY is_featured DESC, is_popular DESC, popularity DESC, name ASC`)
}

// List todas las apps (administración).
func (r *AppRepo) List(ctx context.Context) ([]*entity.App, error) {
	return r.list(ctx, `SELECT `+appColumns+` FROM apps ORDER BY name ASC`)
}

func (r *AppRepo) list(ctx context.Context, query string) ([]*entity.App, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list apps: %w", err)
	}
	defer rows.Close()
	var list []*entity.App
	for rows.Next() {
		app, err := scanApp(rows)
		if err != nil {
			return nil, fmt.Errorf("scan app: %w", err)
		}
		list = append(list, app)
	}
	return list, rows.Err()
}

// Update actualiza los campos editables de la app (slug y clave no cambian aquí).
func (r *AppRepo) Update(ctx context.Context, app *entity.App) error {
	query := `
		UPDATE apps SET name = $2, description = $3, long_description = $4, sso_url = $5, status = $6,
			requires_plan = $7, minimum_plan_level = $8, category = $9, tags = $10, features = $11,
			popularity = $12, rating = $13, is_popular = $14, is_featured = $15, icon_url = $16, updated_at = $17
		WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query,
		app.ID, app.Name, app.Description, app.LongDescription, app.SSOURL, app.Status,
		app.RequiresPlan, app.MinimumPlanLevel, app.Category, app.Tags, app.Features,
		app.Popularity, app.Rating, app.IsPopular, app.IsFeatured, app.IconURL, app.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update app: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAppNotFound
	}
	return nil
}

// Delete elimina la app y sus PlanApp en una transacción.
func (r *AppRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM plan_apps WHERE app_id = $1`, id); err != nil {
		return fmt.Errorf("delete plan_apps: %w", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM apps WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete app: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAppNotFound
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// SetAPIKeyHash reemplaza el hash bcrypt de la clave de la app.
func (r *AppRepo) SetAPIKeyHash(ctx context.Context, id, hash string) error {
	_, err := r.pool.Exec(ctx, `UPDATE apps SET api_key_hash = $2, updated_at = now() WHERE id = $1`, id, hash)
	if err != nil {
		return fmt.Errorf("set api key hash: %w", err)
	}
	return nil
}

func scanApp(row pgxScanner) (*entity.App, error) {
	var a entity.App
	var apiKeyHash *string
	err := row.Scan(
		&a.ID, &a.Slug, &a.Name, &a.Description, &a.LongDescription, &a.SSOURL, &a.Status,
		&a.RequiresPlan, &a.MinimumPlanLevel, &a.Category, &a.Tags, &a.Features, &a.Popularity,
		&a.Rating, &a.IsPopular, &a.IsFeatured, &a.IconURL, &apiKeyHash, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.APIKeyHash = derefString(apiKeyHash)
	return &a, nil
}
