package sso

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/saas-dashboard/internal/domain"
	"github.com/jhoicas/saas-dashboard/internal/domain/entity"
	"github.com/jhoicas/saas-dashboard/internal/domain/repository"
	"github.com/jhoicas/saas-dashboard/pkg/logger"
)

const testSecret = "sso-secret-de-prueba"

// memStore almacén en memoria con la misma semántica atómica que el UPDATE ... RETURNING.
type memStore struct {
	mu      sync.Mutex
	byHash  map[string]*entity.SSOToken
	failErr error
}

var _ repository.SSOTokenRepository = (*memStore)(nil)

func newMemStore() *memStore { return &memStore{byHash: map[string]*entity.SSOToken{}} }

func (m *memStore) Create(_ context.Context, t *entity.SSOToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byHash[t.TokenHash]; ok {
		return domain.ErrDuplicate
	}
	cp := *t
	m.byHash[t.TokenHash] = &cp
	return nil
}

func (m *memStore) FindByHash(_ context.Context, hash string) (*entity.SSOToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	t, ok := m.byHash[hash]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (m *memStore) ConsumeUnused(_ context.Context, hash string, now time.Time) (*entity.SSOToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return nil, m.failErr
	}
	t, ok := m.byHash[hash]
	if !ok || t.UsedAt != nil || !t.ExpiresAt.After(now) {
		return nil, nil
	}
	used := now
	t.UsedAt = &used
	cp := *t
	return &cp, nil
}

func (m *memStore) DeleteExpiredBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for h, t := range m.byHash {
		if t.ExpiresAt.Before(cutoff) {
			delete(m.byHash, h)
			n++
		}
	}
	return n, nil
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestService(t *testing.T) (*Service, *memStore, *clock) {
	t.Helper()
	store := newMemStore()
	clk := &clock{t: time.Now().UTC().Truncate(time.Second)}
	svc := NewService(store, Options{Secret: testSecret, Issuer: "saas-dashboard"}, logger.Nop())
	svc.now = clk.Now
	return svc, store, clk
}

func issueReq() IssueRequest {
	return IssueRequest{
		GenerateRequest: GenerateRequest{
			UserID:      "user_1",
			Email:       "ana@example.com",
			Name:        "Ana",
			Role:        "user",
			TargetApp:   "crm",
			Permissions: []string{"read", "write"},
		},
		IPAddress: "10.0.0.1",
		UserAgent: "test",
	}
}

func TestGenerate_Payload(t *testing.T) {
	svc, _, clk := newTestService(t)

	gen, err := svc.Generate(issueReq().GenerateRequest)
	require.NoError(t, err)

	assert.Equal(t, "crm", gen.TargetApp)
	assert.Equal(t, clk.Now().Add(5*time.Minute).UnixMilli(), gen.ExpiresAt)
	assert.Len(t, strings.Split(gen.Token, "."), 3)

	claims, err := svc.parse(gen.Token)
	require.NoError(t, err)
	p := claims.Payload()
	assert.Equal(t, "user_1", p.UserID)
	assert.Equal(t, []string{"read", "write"}, p.Permissions)
	assert.Equal(t, gen.Nonce, p.Nonce)
	assert.Equal(t, gen.Nonce, claims.ID)
	assert.Equal(t, clk.Now().UnixMilli(), p.IssuedAt)
}

func TestGenerate_NonceUnico(t *testing.T) {
	svc, _, _ := newTestService(t)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		gen, err := svc.Generate(issueReq().GenerateRequest)
		require.NoError(t, err)
		assert.False(t, seen[gen.Nonce], "nonce repetido")
		seen[gen.Nonce] = true
	}
}

func TestGenerate_Validaciones(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Generate(GenerateRequest{UserID: "u1"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	noSecret := NewService(newMemStore(), Options{}, logger.Nop())
	_, err = noSecret.Generate(issueReq().GenerateRequest)
	assert.Error(t, err)
}

func TestIssue_PersisteSoloElHash(t *testing.T) {
	svc, store, _ := newTestService(t)

	gen, err := svc.Issue(context.Background(), issueReq())
	require.NoError(t, err)

	rec, _ := store.FindByHash(context.Background(), HashToken(gen.Token))
	require.NotNil(t, rec)
	assert.Equal(t, "user_1", rec.UserID)
	assert.Equal(t, "crm", rec.TargetApp)
	assert.Equal(t, gen.Nonce, rec.Nonce)
	assert.Equal(t, "10.0.0.1", rec.IPAddress)
	assert.Equal(t, gen.ExpiresAt, rec.ExpiresAt.UnixMilli())
	assert.NotContains(t, rec.TokenHash, gen.Token)
	assert.Len(t, rec.TokenHash, 64)
}

// Un token se valida una vez; la segunda validación informa que ya fue usado.
func TestValidate_UnSoloUso(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	gen, err := svc.Issue(ctx, issueReq())
	require.NoError(t, err)

	first := svc.ValidateAndMarkTokenUsed(ctx, gen.Token)
	require.True(t, first.Valid, first.Error)
	assert.Equal(t, "user_1", first.Payload.UserID)
	assert.Equal(t, "crm", first.Payload.TargetApp)

	second := svc.ValidateAndMarkTokenUsed(ctx, gen.Token)
	assert.False(t, second.Valid)
	assert.Equal(t, "Token has already been used", second.Error)
	assert.True(t, IsTokenError(second.Err))
}

// Solo la app destino consume el token; el intento de otra app no lo gasta.
func TestValidateForApp_OtraAppNoConsume(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	gen, err := svc.Issue(ctx, issueReq())
	require.NoError(t, err)

	wrong := svc.ValidateForApp(ctx, gen.Token, "billing")
	assert.False(t, wrong.Valid)
	assert.ErrorIs(t, wrong.Err, ErrWrongApp)
	assert.Equal(t, "Token was not issued for this app", wrong.Error)
	assert.True(t, IsTokenError(wrong.Err))
	assert.Equal(t, "wrong_app", resultLabel(wrong.Err))

	rec, err := store.FindByHash(ctx, HashToken(gen.Token))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.False(t, rec.IsUsed())

	right := svc.ValidateForApp(ctx, gen.Token, "crm")
	require.True(t, right.Valid, right.Error)
	assert.Equal(t, "crm", right.Payload.TargetApp)
}

func TestValidate_Concurrente(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	gen, err := svc.Issue(ctx, issueReq())
	require.NoError(t, err)

	var valid, used atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := svc.ValidateAndMarkTokenUsed(ctx, gen.Token)
			if res.Valid {
				valid.Add(1)
			} else if errors.Is(res.Err, ErrTokenUsed) {
				used.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), valid.Load())
	assert.Equal(t, int32(31), used.Load())
}

func TestValidate_VencidoPorClaim(t *testing.T) {
	svc, _, clk := newTestService(t)
	ctx := context.Background()
	gen, err := svc.Issue(ctx, issueReq())
	require.NoError(t, err)

	clk.Advance(6 * time.Minute)

	res := svc.ValidateAndMarkTokenUsed(ctx, gen.Token)
	assert.False(t, res.Valid)
	assert.Equal(t, "Invalid or expired token", res.Error)
}

// El registro guardado puede vencer antes que el claim (p. ej. revocación manual).
func TestValidate_VencidoPorRegistro(t *testing.T) {
	svc, store, clk := newTestService(t)
	ctx := context.Background()
	gen, err := svc.Issue(ctx, issueReq())
	require.NoError(t, err)

	store.mu.Lock()
	store.byHash[HashToken(gen.Token)].ExpiresAt = clk.Now().Add(-time.Second)
	store.mu.Unlock()

	res := svc.ValidateAndMarkTokenUsed(ctx, gen.Token)
	assert.Equal(t, "Token has expired", res.Error)
}

func TestValidate_NoPersistido(t *testing.T) {
	svc, _, _ := newTestService(t)
	gen, err := svc.Generate(issueReq().GenerateRequest)
	require.NoError(t, err)

	res := svc.ValidateAndMarkTokenUsed(context.Background(), gen.Token)
	assert.Equal(t, "Token not found in database", res.Error)
}

func TestValidate_FirmaInvalida(t *testing.T) {
	svc, _, _ := newTestService(t)
	other := NewService(newMemStore(), Options{Secret: "otro-secreto", Issuer: "saas-dashboard"}, logger.Nop())
	gen, err := other.Generate(issueReq().GenerateRequest)
	require.NoError(t, err)

	for _, tok := range []string{gen.Token, "no-es-un-jwt", ""} {
		res := svc.ValidateAndMarkTokenUsed(context.Background(), tok)
		assert.Equal(t, "Invalid or expired token", res.Error)
	}
}

func TestValidate_ErrorDelAlmacen(t *testing.T) {
	svc, store, _ := newTestService(t)
	gen, err := svc.Issue(context.Background(), issueReq())
	require.NoError(t, err)
	store.failErr = errors.New("conexión perdida")

	res := svc.ValidateAndMarkTokenUsed(context.Background(), gen.Token)
	assert.False(t, res.Valid)
	assert.False(t, IsTokenError(res.Err))
}

func TestGetTokenInfo_NoConsume(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	gen, err := svc.Issue(ctx, issueReq())
	require.NoError(t, err)

	info, err := svc.GetTokenInfo(ctx, gen.Token)
	require.NoError(t, err)
	assert.False(t, info.Used)
	assert.Nil(t, info.UsedAt)
	assert.Equal(t, "ana@example.com", info.Payload.Email)

	// Consultar no consume: la validación sigue funcionando.
	require.True(t, svc.ValidateAndMarkTokenUsed(ctx, gen.Token).Valid)

	info, err = svc.GetTokenInfo(ctx, gen.Token)
	require.NoError(t, err)
	assert.True(t, info.Used)
	assert.NotNil(t, info.UsedAt)
}

func TestGetTokenInfo_Errores(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.GetTokenInfo(context.Background(), "basura")
	assert.ErrorIs(t, err, ErrInvalidToken)

	gen, _ := svc.Generate(issueReq().GenerateRequest)
	_, err = svc.GetTokenInfo(context.Background(), gen.Token)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestSweepExpired(t *testing.T) {
	svc, store, clk := newTestService(t)
	ctx := context.Background()
	_, err := svc.Issue(ctx, issueReq())
	require.NoError(t, err)

	n, err := svc.SweepExpired(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)

	clk.Advance(2 * time.Hour)
	n, err = svc.SweepExpired(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Empty(t, store.byHash)
}

func TestSweeper_SeDetieneConElContexto(t *testing.T) {
	svc, _, _ := newTestService(t)
	w := NewSweeper(svc, 5*time.Millisecond, time.Hour, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("el barrido no se detuvo")
	}
}
