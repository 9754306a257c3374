package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/saas-dashboard/internal/domain"
	"github.com/jhoicas/saas-dashboard/internal/domain/entity"
	"github.com/jhoicas/saas-dashboard/internal/domain/repository"
)

var _ repository.SSOTokenRepository = (*SSOTokenRepo)(nil)

const ssoTokenColumns = `id, user_id, target_app, token_hash, nonce, expires_at, used_at, ip_address, user_agent, created_at`

// SSOTokenRepo almacén de tokens SSO sobre PostgreSQL.
type SSOTokenRepo struct {
	db Querier
}

// NewSSOTokenRepository construye el almacén de tokens.
func NewSSOTokenRepository(db Querier) *SSOTokenRepo {
	return &SSOTokenRepo{db: db}
}

// Create persiste el registro del token (solo el hash).
func (r *SSOTokenRepo) Create(ctx context.Context, t *entity.SSOToken) error {
	query := `INSERT INTO sso_tokens (` + ssoTokenColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.Exec(ctx, query,
		t.ID, t.UserID, t.TargetApp, t.TokenHash, t.Nonce, t.ExpiresAt, t.UsedAt, t.IPAddress, t.UserAgent, t.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert sso token: %w", err)
	}
	return nil
}

// FindByHash obtiene el registro por hash; nil si no existe.
func (r *SSOTokenRepo) FindByHash(ctx context.Context, tokenHash string) (*entity.SSOToken, error) {
	t, err := scanSSOToken(r.db.QueryRow(ctx, `SELECT `+ssoTokenColumns+` FROM sso_tokens WHERE token_hash = $1`, tokenHash))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sso token: %w", err)
	}
	return t, nil
}

// ConsumeUnused marca el token como usado en una sola sentencia condicional.
// Dos validaciones concurrentes no pueden ambas ver used_at IS NULL: la segunda no encuentra fila.
func (r *SSOTokenRepo) ConsumeUnused(ctx context.Context, tokenHash string, now time.Time) (*entity.SSOToken, error) {
	query := `
		UPDATE sso_tokens SET used_at = $2
		WHERE token_hash = $1 AND used_at IS NULL AND expires_at > $2
		RETURNING ` + ssoTokenColumns
	t, err := scanSSOToken(r.db.QueryRow(ctx, query, tokenHash, now))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("consume sso token: %w", err)
	}
	return t, nil
}

// DeleteExpiredBefore purga tokens vencidos antes de cutoff.
func (r *SSOTokenRepo) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM sso_tokens WHERE expires_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired sso tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanSSOToken(row pgxScanner) (*entity.SSOToken, error) {
	var t entity.SSOToken
	err := row.Scan(&t.ID, &t.UserID, &t.TargetApp, &t.TokenHash, &t.Nonce, &t.ExpiresAt, &t.UsedAt, &t.IPAddress, &t.UserAgent, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
