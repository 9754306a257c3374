// Package mocks implementaciones testify/mock de los puertos de repositorio.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/jhoicas/saas-dashboard/internal/domain/entity"
	"github.com/jhoicas/saas-dashboard/internal/domain/repository"
)

var (
	_ repository.AppRepository          = (*AppRepository)(nil)
	_ repository.PlanRepository         = (*PlanRepository)(nil)
	_ repository.SubscriptionRepository = (*SubscriptionRepository)(nil)
	_ repository.UserRepository         = (*UserRepository)(nil)
	_ repository.SiteRepository         = (*SiteRepository)(nil)
	_ repository.SSOTokenRepository     = (*SSOTokenRepository)(nil)
)

// AppRepository mock de repository.AppRepository.
type AppRepository struct{ mock.Mock }

func (m *AppRepository) Create(ctx context.Context, app *entity.App) error {
	return m.Called(ctx, app).Error(0)
}

func (m *AppRepository) GetByID(ctx context.Context, id string) (*entity.App, error) {
	args := m.Called(ctx, id)
	return appOrNil(args.Get(0)), args.Error(1)
}

func (m *AppRepository) GetBySlug(ctx context.Context, slug string) (*entity.App, error) {
	args := m.Called(ctx, slug)
	return appOrNil(args.Get(0)), args.Error(1)
}

func (m *AppRepository) GetActiveBySlug(ctx context.Context, slug string) (*entity.App, error) {
	args := m.Called(ctx, slug)
	return appOrNil(args.Get(0)), args.Error(1)
}

func (m *AppRepository) ListActive(ctx context.Context) ([]*entity.App, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]*entity.App)
	return list, args.Error(1)
}

func (m *AppRepository) List(ctx context.Context) ([]*entity.App, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]*entity.App)
	return list, args.Error(1)
}

func (m *AppRepository) Update(ctx context.Context, app *entity.App) error {
	return m.Called(ctx, app).Error(0)
}

func (m *AppRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *AppRepository) SetAPIKeyHash(ctx context.Context, id, hash string) error {
	return m.Called(ctx, id, hash).Error(0)
}

func appOrNil(v any) *entity.App {
	app, _ := v.(*entity.App)
	return app
}

// PlanRepository mock de repository.PlanRepository.
type PlanRepository struct{ mock.Mock }

func (m *PlanRepository) GetByID(ctx context.Context, id string) (*entity.SubscriptionPlan, error) {
	args := m.Called(ctx, id)
	plan, _ := args.Get(0).(*entity.SubscriptionPlan)
	return plan, args.Error(1)
}

func (m *PlanRepository) ListActive(ctx context.Context) ([]*entity.SubscriptionPlan, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]*entity.SubscriptionPlan)
	return list, args.Error(1)
}

func (m *PlanRepository) IsAppIncluded(ctx context.Context, planID, appID string) (bool, error) {
	args := m.Called(ctx, planID, appID)
	return args.Bool(0), args.Error(1)
}

func (m *PlanRepository) IncludedAppIDs(ctx context.Context, planID string) (map[string]struct{}, error) {
	args := m.Called(ctx, planID)
	set, _ := args.Get(0).(map[string]struct{})
	return set, args.Error(1)
}

func (m *PlanRepository) UpsertPlanApp(ctx context.Context, link *entity.PlanApp) error {
	return m.Called(ctx, link).Error(0)
}

// SubscriptionRepository mock de repository.SubscriptionRepository.
type SubscriptionRepository struct{ mock.Mock }

func (m *SubscriptionRepository) Create(ctx context.Context, sub *entity.UserSubscription) error {
	return m.Called(ctx, sub).Error(0)
}

func (m *SubscriptionRepository) FindActiveByUser(ctx context.Context, userID string) (*entity.UserSubscription, error) {
	args := m.Called(ctx, userID)
	return subOrNil(args.Get(0)), args.Error(1)
}

func (m *SubscriptionRepository) FindCurrentByUser(ctx context.Context, userID string) (*entity.UserSubscription, error) {
	args := m.Called(ctx, userID)
	return subOrNil(args.Get(0)), args.Error(1)
}

func (m *SubscriptionRepository) FindLatestByUser(ctx context.Context, userID string) (*entity.UserSubscription, error) {
	args := m.Called(ctx, userID)
	return subOrNil(args.Get(0)), args.Error(1)
}

func (m *SubscriptionRepository) MarkCancelled(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func subOrNil(v any) *entity.UserSubscription {
	sub, _ := v.(*entity.UserSubscription)
	return sub
}

// UserRepository mock de repository.UserRepository.
type UserRepository struct{ mock.Mock }

func (m *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*entity.User)
	return user, args.Error(1)
}

func (m *UserRepository) Upsert(ctx context.Context, user *entity.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepository) SetExternalCustomerID(ctx context.Context, userID, customerID string) error {
	return m.Called(ctx, userID, customerID).Error(0)
}

func (m *UserRepository) UpdateSubscriptionState(ctx context.Context, userID, planID, status string) error {
	return m.Called(ctx, userID, planID, status).Error(0)
}

// SiteRepository mock de repository.SiteRepository.
type SiteRepository struct{ mock.Mock }

func (m *SiteRepository) Create(ctx context.Context, site *entity.ERPSite) error {
	return m.Called(ctx, site).Error(0)
}

func (m *SiteRepository) FindCurrentByUser(ctx context.Context, userID string) (*entity.ERPSite, error) {
	args := m.Called(ctx, userID)
	site, _ := args.Get(0).(*entity.ERPSite)
	return site, args.Error(1)
}

func (m *SiteRepository) UpdateStatus(ctx context.Context, id, status string) error {
	return m.Called(ctx, id, status).Error(0)
}

// SSOTokenRepository mock de repository.SSOTokenRepository.
type SSOTokenRepository struct{ mock.Mock }

func (m *SSOTokenRepository) Create(ctx context.Context, token *entity.SSOToken) error {
	return m.Called(ctx, token).Error(0)
}

func (m *SSOTokenRepository) FindByHash(ctx context.Context, tokenHash string) (*entity.SSOToken, error) {
	args := m.Called(ctx, tokenHash)
	tok, _ := args.Get(0).(*entity.SSOToken)
	return tok, args.Error(1)
}

func (m *SSOTokenRepository) ConsumeUnused(ctx context.Context, tokenHash string, now time.Time) (*entity.SSOToken, error) {
	args := m.Called(ctx, tokenHash, now)
	tok, _ := args.Get(0).(*entity.SSOToken)
	return tok, args.Error(1)
}

func (m *SSOTokenRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	n, _ := args.Get(0).(int64)
	return n, args.Error(1)
}
