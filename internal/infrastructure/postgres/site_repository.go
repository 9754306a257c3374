package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/saas-dashboard/internal/domain"
	"github.com/jhoicas/saas-dashboard/internal/domain/entity"
	"github.com/jhoicas/saas-dashboard/internal/domain/repository"
)

var _ repository.SiteRepository = (*SiteRepo)(nil)

// SiteRepo instancias ERPNext sobre PostgreSQL.
type SiteRepo struct {
	pool *pgxpool.Pool
}

// NewSiteRepository construye el adaptador de instancias ERPNext.
func NewSiteRepository(pool *pgxpool.Pool) *SiteRepo {
	return &SiteRepo{pool: pool}
}

// Create inserta la instancia. El índice único parcial sobre user_id (creating/active)
// y el único sobre username se traducen a domain.ErrDuplicate.
func (r *SiteRepo) Create(ctx context.Context, site *entity.ERPSite) error {
	query := `
		INSERT INTO user_erpnext_sites (id, user_id, username, site_url, admin_password, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.pool.Exec(ctx, query,
		site.ID, site.UserID, site.Username, site.SiteURL, site.AdminPassword, site.Status, site.CreatedAt, site.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert erpnext site: %w", err)
	}
	return nil
}

// FindCurrentByUser instancia creating/active del usuario.
func (r *SiteRepo) FindCurrentByUser(ctx context.Context, userID string) (*entity.ERPSite, error) {
	query := `
		SELECT id, user_id, username, site_url, admin_password, status, created_at, updated_at
		FROM user_erpnext_sites
		WHERE user_id = $1 AND status IN ('creating', 'active')
		ORDER BY created_at DESC LIMIT 1`
	var s entity.ERPSite
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&s.ID, &s.UserID, &s.Username, &s.SiteURL, &s.AdminPassword, &s.Status, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get erpnext site: %w", err)
	}
	return &s, nil
}

// UpdateStatus cambia el estado de la instancia.
func (r *SiteRepo) UpdateStatus(ctx context.Context, id, status string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE user_erpnext_sites SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update erpnext site status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
