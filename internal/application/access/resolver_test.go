package access

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	domainaccess "github.com/jhoicas/saas-dashboard/internal/domain/access"
	"github.com/jhoicas/saas-dashboard/internal/domain/entity"
	"github.com/jhoicas/saas-dashboard/internal/domain/repository/mocks"
	"github.com/jhoicas/saas-dashboard/pkg/logger"
)

const testUserID = "user_1"

var fixedNow = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	apps     *mocks.AppRepository
	plans    *mocks.PlanRepository
	subs     *mocks.SubscriptionRepository
	resolver *Resolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		apps:  &mocks.AppRepository{},
		plans: &mocks.PlanRepository{},
		subs:  &mocks.SubscriptionRepository{},
	}
	f.resolver = NewResolver(f.apps, f.plans, f.subs, logger.Nop())
	f.resolver.now = func() time.Time { return fixedNow }
	t.Cleanup(func() {
		f.apps.AssertExpectations(t)
		f.plans.AssertExpectations(t)
		f.subs.AssertExpectations(t)
	})
	return f
}

func lvl(n int) *int { return &n }

func app(id, slug string, requiresPlan bool, min *int) *entity.App {
	return &entity.App{ID: id, Slug: slug, Name: slug, Status: entity.AppStatusActive, RequiresPlan: requiresPlan, MinimumPlanLevel: min}
}

func subscriptionAt(position int) *entity.UserSubscription {
	return &entity.UserSubscription{
		ID:     "sub-1",
		UserID: testUserID,
		PlanID: "plan-pro",
		Status: entity.SubscriptionActive,
		Plan:   &entity.SubscriptionPlan{ID: "plan-pro", Position: position},
	}
}

func TestCheckAppAccess_AppGratuitaNoConsultaSuscripcion(t *testing.T) {
	f := newFixture(t)
	f.apps.On("GetActiveBySlug", mock.Anything, "crm").Return(app("a1", "crm", false, nil), nil)

	d := f.resolver.CheckAppAccess(context.Background(), testUserID, "crm")

	assert.Equal(t, domainaccess.Free{}, d)
	f.subs.AssertNotCalled(t, "FindActiveByUser", mock.Anything, mock.Anything)
}

func TestCheckAppAccess_AppInexistente(t *testing.T) {
	f := newFixture(t)
	f.apps.On("GetActiveBySlug", mock.Anything, "nope").Return(nil, nil)

	assert.Equal(t, domainaccess.AppInactive{}, f.resolver.CheckAppAccess(context.Background(), testUserID, "nope"))
}

func TestCheckAppAccess_InclusionSobreNivel(t *testing.T) {
	f := newFixture(t)
	f.apps.On("GetActiveBySlug", mock.Anything, "erp").Return(app("a2", "erp", true, lvl(3)), nil)
	f.subs.On("FindActiveByUser", mock.Anything, testUserID).Return(subscriptionAt(1), nil)
	f.plans.On("IsAppIncluded", mock.Anything, "plan-pro", "a2").Return(true, nil)

	d := f.resolver.CheckAppAccess(context.Background(), testUserID, "erp")

	assert.Equal(t, domainaccess.IncludedInPlan{UserPlanLevel: 1}, d)
}

func TestCheckAppAccess_SuscripcionVencidaNoConsultaInclusion(t *testing.T) {
	f := newFixture(t)
	sub := subscriptionAt(3)
	past := fixedNow.Add(-24 * time.Hour)
	sub.ExpiresAt = &past
	f.apps.On("GetActiveBySlug", mock.Anything, "erp").Return(app("a2", "erp", true, lvl(1)), nil)
	f.subs.On("FindActiveByUser", mock.Anything, testUserID).Return(sub, nil)

	d := f.resolver.CheckAppAccess(context.Background(), testUserID, "erp")

	assert.Equal(t, domainaccess.SubscriptionExpired{UpgradeURL: "/pricing"}, d)
	f.plans.AssertNotCalled(t, "IsAppIncluded", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckAppAccess_ErrorDePersistenciaFallaCerrado(t *testing.T) {
	f := newFixture(t)
	f.apps.On("GetActiveBySlug", mock.Anything, "erp").Return(app("a2", "erp", true, lvl(0)), nil)
	f.subs.On("FindActiveByUser", mock.Anything, testUserID).Return(nil, errors.New("conexión rechazada"))

	d := f.resolver.CheckAppAccess(context.Background(), testUserID, "erp")

	assert.False(t, d.Granted())
	assert.Equal(t, domainaccess.ReasonUpgradeRequired, d.Reason())
}

func TestGetUserAppAccess_OrdenYDecisiones(t *testing.T) {
	f := newFixture(t)
	apps := []*entity.App{
		{ID: "1", Slug: "zeta", Name: "Zeta", Status: entity.AppStatusActive, Popularity: 5},
		{ID: "2", Slug: "alfa", Name: "Alfa", Status: entity.AppStatusActive, Popularity: 5},
		{ID: "3", Slug: "pop", Name: "Pop", Status: entity.AppStatusActive, IsPopular: true, Popularity: 1},
		{ID: "4", Slug: "feat", Name: "Feat", Status: entity.AppStatusActive, IsFeatured: true, RequiresPlan: true, MinimumPlanLevel: lvl(3)},
		{ID: "5", Slug: "hot", Name: "Hot", Status: entity.AppStatusActive, Popularity: 90, RequiresPlan: true, MinimumPlanLevel: lvl(2)},
	}
	f.subs.On("FindActiveByUser", mock.Anything, testUserID).Return(subscriptionAt(2), nil)
	f.plans.On("IncludedAppIDs", mock.Anything, "plan-pro").Return(map[string]struct{}{"4": {}}, nil)
	f.apps.On("ListActive", mock.Anything).Return(apps, nil)

	out, err := f.resolver.GetUserAppAccess(context.Background(), testUserID)
	require.NoError(t, err)

	var slugs []string
	for _, a := range out.Apps {
		slugs = append(slugs, a.App.Slug)
	}
	assert.Equal(t, []string{"feat", "pop", "hot", "alfa", "zeta"}, slugs)
	assert.Equal(t, domainaccess.IncludedInPlan{UserPlanLevel: 2}, out.Apps[0].Decision)
	assert.Equal(t, domainaccess.PlanLevelAccess{UserPlanLevel: 2, RequiredPlanLevel: 2}, out.Apps[2].Decision)
	assert.Equal(t, domainaccess.Free{}, out.Apps[3].Decision)
	assert.NotNil(t, out.Subscription)
}

func TestGetUserAppAccess_SinSuscripcionSoloGratuitas(t *testing.T) {
	f := newFixture(t)
	f.subs.On("FindActiveByUser", mock.Anything, testUserID).Return(nil, nil)
	f.apps.On("ListActive", mock.Anything).Return([]*entity.App{
		app("1", "crm", false, nil),
		app("2", "erp", true, lvl(0)),
	}, nil)

	out, err := f.resolver.GetUserAppAccess(context.Background(), testUserID)
	require.NoError(t, err)

	granted := map[string]bool{}
	for _, a := range out.Apps {
		granted[a.App.Slug] = a.Decision.Granted()
	}
	assert.Equal(t, map[string]bool{"crm": true, "erp": false}, granted)
	assert.Nil(t, out.Subscription)
	f.plans.AssertNotCalled(t, "IncludedAppIDs", mock.Anything, mock.Anything)
}

func TestGetUserAppAccess_PropagaError(t *testing.T) {
	f := newFixture(t)
	f.subs.On("FindActiveByUser", mock.Anything, testUserID).Return(nil, nil)
	f.apps.On("ListActive", mock.Anything).Return(nil, errors.New("timeout"))

	_, err := f.resolver.GetUserAppAccess(context.Background(), testUserID)
	assert.ErrorContains(t, err, "timeout")
}

func TestRequireAppAccess_CodigosHTTP(t *testing.T) {
	t.Run("inactiva 404", func(t *testing.T) {
		f := newFixture(t)
		f.apps.On("GetActiveBySlug", mock.Anything, "x").Return(nil, nil)
		res := f.resolver.RequireAppAccess(context.Background(), testUserID, "x")
		assert.False(t, res.Success)
		assert.Equal(t, http.StatusNotFound, res.StatusCode)
	})
	t.Run("vencida 402", func(t *testing.T) {
		f := newFixture(t)
		sub := subscriptionAt(2)
		past := fixedNow.Add(-time.Second)
		sub.ExpiresAt = &past
		f.apps.On("GetActiveBySlug", mock.Anything, "erp").Return(app("a2", "erp", true, lvl(1)), nil)
		f.subs.On("FindActiveByUser", mock.Anything, testUserID).Return(sub, nil)
		res := f.resolver.RequireAppAccess(context.Background(), testUserID, "erp")
		assert.Equal(t, http.StatusPaymentRequired, res.StatusCode)
	})
	t.Run("sin plan 403", func(t *testing.T) {
		f := newFixture(t)
		f.apps.On("GetActiveBySlug", mock.Anything, "erp").Return(app("a2", "erp", true, lvl(2)), nil)
		f.subs.On("FindActiveByUser", mock.Anything, testUserID).Return(nil, nil)
		res := f.resolver.RequireAppAccess(context.Background(), testUserID, "erp")
		assert.Equal(t, http.StatusForbidden, res.StatusCode)
		assert.Equal(t, domainaccess.UpgradeRequired{RequiredPlanLevel: 2, UpgradeURL: "/pricing"}, res.Decision)
	})
	t.Run("concedido 200", func(t *testing.T) {
		f := newFixture(t)
		f.apps.On("GetActiveBySlug", mock.Anything, "crm").Return(app("a1", "crm", false, nil), nil)
		res := f.resolver.RequireAppAccess(context.Background(), testUserID, "crm")
		assert.True(t, res.Success)
		assert.Equal(t, http.StatusOK, res.StatusCode)
		assert.Empty(t, res.Error)
	})
}

func TestCheckPlanLevelAccess(t *testing.T) {
	f := newFixture(t)
	f.subs.On("FindActiveByUser", mock.Anything, "sin-plan").Return(nil, nil)
	f.subs.On("FindActiveByUser", mock.Anything, testUserID).Return(subscriptionAt(2), nil)
	f.subs.On("FindActiveByUser", mock.Anything, "roto").Return(nil, errors.New("db caída"))

	ctx := context.Background()
	assert.True(t, f.resolver.CheckPlanLevelAccess(ctx, "sin-plan", 0))
	assert.False(t, f.resolver.CheckPlanLevelAccess(ctx, "sin-plan", 1))
	assert.True(t, f.resolver.CheckPlanLevelAccess(ctx, testUserID, 2))
	assert.False(t, f.resolver.CheckPlanLevelAccess(ctx, testUserID, 3))
	assert.False(t, f.resolver.CheckPlanLevelAccess(ctx, "roto", 0))
}
