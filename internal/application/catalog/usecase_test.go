package catalog

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/saas-dashboard/internal/application/dto"
	"github.com/jhoicas/saas-dashboard/internal/domain"
	"github.com/jhoicas/saas-dashboard/internal/domain/entity"
	"github.com/jhoicas/saas-dashboard/internal/domain/repository/mocks"
	"github.com/jhoicas/saas-dashboard/pkg/logger"
)

func newUseCase() (*UseCase, *mocks.AppRepository, *mocks.PlanRepository) {
	apps := &mocks.AppRepository{}
	plans := &mocks.PlanRepository{}
	return NewUseCase(apps, plans, logger.Nop()), apps, plans
}

func TestCreateApp(t *testing.T) {
	uc, apps, _ := newUseCase()
	apps.On("GetBySlug", mock.Anything, "crm").Return(nil, nil)
	apps.On("Create", mock.Anything, mock.MatchedBy(func(a *entity.App) bool {
		return a.Slug == "crm" && a.Status == entity.AppStatusActive && a.Tags != nil && a.ID != ""
	})).Return(nil)

	app, err := uc.CreateApp(context.Background(), dto.CreateAppRequest{
		Slug:   "crm",
		Name:   "CRM",
		SSOURL: "https://crm.example.com/sso",
		Rating: decimal.RequireFromString("4.5"),
	})

	require.NoError(t, err)
	assert.Equal(t, "CRM", app.Name)
	apps.AssertExpectations(t)
}

func TestCreateApp_Duplicada(t *testing.T) {
	uc, apps, _ := newUseCase()
	apps.On("GetBySlug", mock.Anything, "crm").Return(&entity.App{ID: "a1", Slug: "crm"}, nil)

	_, err := uc.CreateApp(context.Background(), dto.CreateAppRequest{Slug: "crm", Name: "CRM"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestCreateApp_RatingFueraDeRango(t *testing.T) {
	uc, _, _ := newUseCase()
	_, err := uc.CreateApp(context.Background(), dto.CreateAppRequest{Slug: "x", Rating: decimal.NewFromInt(6)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdateApp_Parcial(t *testing.T) {
	uc, apps, _ := newUseCase()
	lvl := 2
	current := &entity.App{ID: "a1", Slug: "erp", Name: "ERP", Status: entity.AppStatusActive, MinimumPlanLevel: &lvl, Tags: []string{"erp"}}
	apps.On("GetBySlug", mock.Anything, "erp").Return(current, nil)
	apps.On("Update", mock.Anything, mock.Anything).Return(nil)

	inactive := "inactive"
	updated, err := uc.UpdateApp(context.Background(), "erp", dto.UpdateAppRequest{Status: &inactive, ClearMinimum: true})

	require.NoError(t, err)
	assert.Equal(t, "ERP", updated.Name)
	assert.Equal(t, entity.AppStatusInactive, updated.Status)
	assert.Nil(t, updated.MinimumPlanLevel)
	assert.Equal(t, []string{"erp"}, updated.Tags)
}

func TestDeleteApp_NoExiste(t *testing.T) {
	uc, apps, _ := newUseCase()
	apps.On("GetBySlug", mock.Anything, "nope").Return(nil, nil)

	assert.ErrorIs(t, uc.DeleteApp(context.Background(), "nope"), domain.ErrAppNotFound)
	apps.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestSetPlanApp(t *testing.T) {
	uc, apps, plans := newUseCase()
	plans.On("GetByID", mock.Anything, "p1").Return(&entity.SubscriptionPlan{ID: "p1"}, nil)
	apps.On("GetByID", mock.Anything, "a1").Return(&entity.App{ID: "a1"}, nil)
	plans.On("UpsertPlanApp", mock.Anything, mock.MatchedBy(func(l *entity.PlanApp) bool {
		return l.PlanID == "p1" && l.AppID == "a1" && l.IsIncluded
	})).Return(nil)

	require.NoError(t, uc.SetPlanApp(context.Background(), "p1", "a1", true))
	plans.AssertExpectations(t)

	plans.On("GetByID", mock.Anything, "ghost").Return(nil, nil)
	assert.ErrorIs(t, uc.SetPlanApp(context.Background(), "ghost", "a1", true), domain.ErrPlanNotFound)
}

func TestRotateYVerifyAPIKey(t *testing.T) {
	uc, apps, _ := newUseCase()
	app := &entity.App{ID: "a1", Slug: "crm", Status: entity.AppStatusActive}
	apps.On("GetBySlug", mock.Anything, "crm").Return(app, nil)
	apps.On("SetAPIKeyHash", mock.Anything, "a1", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { app.APIKeyHash = args.String(2) }).
		Return(nil)
	apps.On("GetActiveBySlug", mock.Anything, "crm").Return(app, nil)

	key, err := uc.RotateAPIKey(context.Background(), "crm")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "dsk_"))
	assert.Len(t, key, 68)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(app.APIKeyHash), []byte(key)))

	got, err := uc.VerifyAPIKey(context.Background(), "crm", key)
	require.NoError(t, err)
	assert.Equal(t, "a1", got.ID)

	_, err = uc.VerifyAPIKey(context.Background(), "crm", "dsk_incorrecta")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestVerifyAPIKey_SinClave(t *testing.T) {
	uc, apps, _ := newUseCase()
	apps.On("GetActiveBySlug", mock.Anything, "bi").Return(&entity.App{ID: "a2", Slug: "bi", Status: entity.AppStatusActive}, nil)
	apps.On("GetActiveBySlug", mock.Anything, "nope").Return(nil, nil)

	_, err := uc.VerifyAPIKey(context.Background(), "bi", "cualquiera")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = uc.VerifyAPIKey(context.Background(), "nope", "cualquiera")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = uc.VerifyAPIKey(context.Background(), "", "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
