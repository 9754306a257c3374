package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── fakes ──

// fakeRow devuelve err o copia values en dest, en orden.
type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: %d destinos, %d valores", len(dest), len(r.values))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = r.values[i].(string)
		case *time.Time:
			*p = r.values[i].(time.Time)
		case **time.Time:
			*p = r.values[i].(*time.Time)
		default:
			return fmt.Errorf("scan: destino %T no soportado", d)
		}
	}
	return nil
}

// fakeQuerier registra la última sentencia y responde con row.
type fakeQuerier struct {
	sql  string
	args []any
	row  fakeRow
}

func (q *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.sql, q.args = sql, args
	return pgconn.NewCommandTag("UPDATE 0"), nil
}

func (q *fakeQuerier) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.sql, q.args = sql, args
	return nil, errors.New("query no soportada en el fake")
}

func (q *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.sql, q.args = sql, args
	return q.row
}

func compact(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}

// ── errores de búsqueda ──

func TestIsMissing(t *testing.T) {
	assert.True(t, isMissing(pgx.ErrNoRows))
	assert.True(t, isMissing(fmt.Errorf("envuelto: %w", pgx.ErrNoRows)))
	assert.True(t, isMissing(&pgconn.PgError{Code: "22P02"}))
	assert.False(t, isMissing(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isMissing(errors.New("conexión rechazada")))
}

// ── planes ──

func TestPlanRepo_GetByID_IDMalFormado(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{err: &pgconn.PgError{
		Code:    "22P02",
		Message: `invalid input syntax for type uuid: "pro"`,
	}}}
	repo := NewPlanRepository(q)

	plan, err := repo.GetByID(context.Background(), "pro")
	require.NoError(t, err)
	assert.Nil(t, plan)
	assert.Equal(t, []any{"pro"}, q.args)
}

func TestPlanRepo_GetByID_Inexistente(t *testing.T) {
	repo := NewPlanRepository(&fakeQuerier{row: fakeRow{err: pgx.ErrNoRows}})

	plan, err := repo.GetByID(context.Background(), "7f1b2c3d-0000-4000-8000-000000000000")
	require.NoError(t, err)
	assert.Nil(t, plan)
}

func TestPlanRepo_GetByID_ErrorDeBaseDeDatos(t *testing.T) {
	repo := NewPlanRepository(&fakeQuerier{row: fakeRow{err: &pgconn.PgError{Code: "57P01"}}})

	plan, err := repo.GetByID(context.Background(), "7f1b2c3d-0000-4000-8000-000000000000")
	assert.Error(t, err)
	assert.Nil(t, plan)
}

// ── tokens sso ──

func TestSSOTokenRepo_ConsumeUnused_SentenciaCondicional(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	q := &fakeQuerier{row: fakeRow{err: pgx.ErrNoRows}}
	repo := NewSSOTokenRepository(q)

	_, err := repo.ConsumeUnused(context.Background(), "abc123", now)
	require.NoError(t, err)

	sql := compact(q.sql)
	assert.True(t, strings.HasPrefix(sql, "UPDATE sso_tokens SET used_at = $2 WHERE"), sql)
	assert.Contains(t, sql, "token_hash = $1")
	assert.Contains(t, sql, "used_at IS NULL")
	assert.Contains(t, sql, "expires_at > $2")
	assert.Contains(t, sql, "RETURNING "+ssoTokenColumns)
	assert.Equal(t, []any{"abc123", now}, q.args)
}

func TestSSOTokenRepo_ConsumeUnused_YaUsadoOVencido(t *testing.T) {
	repo := NewSSOTokenRepository(&fakeQuerier{row: fakeRow{err: pgx.ErrNoRows}})

	tok, err := repo.ConsumeUnused(context.Background(), "abc123", time.Now())
	require.NoError(t, err)
	assert.Nil(t, tok, "sin fila actualizada no hay token que devolver")
}

func TestSSOTokenRepo_ConsumeUnused_DevuelveRegistroMarcado(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	q := &fakeQuerier{row: fakeRow{values: []any{
		"tok-1", "user-1", "crm", "abc123", "nonce-1",
		now.Add(5 * time.Minute), &now, "10.0.0.1", "curl/8", now.Add(-time.Minute),
	}}}
	repo := NewSSOTokenRepository(q)

	tok, err := repo.ConsumeUnused(context.Background(), "abc123", now)
	require.NoError(t, err)
	require.NotNil(t, tok)
	assert.Equal(t, "crm", tok.TargetApp)
	require.NotNil(t, tok.UsedAt)
	assert.True(t, tok.UsedAt.Equal(now))
}

func TestSSOTokenRepo_ConsumeUnused_ErrorDeBaseDeDatos(t *testing.T) {
	repo := NewSSOTokenRepository(&fakeQuerier{row: fakeRow{err: errors.New("conexión perdida")}})

	tok, err := repo.ConsumeUnused(context.Background(), "abc123", time.Now())
	assert.ErrorContains(t, err, "consume sso token")
	assert.Nil(t, tok)
}
