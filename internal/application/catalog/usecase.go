// Package catalog administra las apps del marketplace, su inclusión en planes y sus claves de API.
package catalog

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/saas-dashboard/internal/application/dto"
	"github.com/jhoicas/saas-dashboard/internal/domain"
	"github.com/jhoicas/saas-dashboard/internal/domain/entity"
	"github.com/jhoicas/saas-dashboard/internal/domain/repository"
	"github.com/jhoicas/saas-dashboard/pkg/logger"
)

const apiKeyPrefix = "dsk_"

var maxRating = decimal.NewFromInt(5)

// UseCase casos de uso de administración del catálogo.
type UseCase struct {
	apps  repository.AppRepository
	plans repository.PlanRepository
	log   *logger.Logger
	now   func() time.Time
}

// NewUseCase construye el caso de uso de catálogo.
func NewUseCase(apps repository.AppRepository, plans repository.PlanRepository, log *logger.Logger) *UseCase {
	return &UseCase{apps: apps, plans: plans, log: log.Component("catalog"), now: func() time.Time { return time.Now().UTC() }}
}

// ListApps todas las apps, activas o no.
func (uc *UseCase) ListApps(ctx context.Context) ([]*entity.App, error) {
	return uc.apps.List(ctx)
}

// CreateApp da de alta una app. Slug duplicado devuelve domain.ErrDuplicate.
func (uc *UseCase) CreateApp(ctx context.Context, in dto.CreateAppRequest) (*entity.App, error) {
	if err := validateRating(in.Rating); err != nil {
		return nil, err
	}
	existing, err := uc.apps.GetBySlug(ctx, in.Slug)
	if err != nil {
		return nil, fmt.Errorf("buscar app: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}

	status := in.Status
	if status == "" {
		status = entity.AppStatusActive
	}
	now := uc.now()
	app := &entity.App{
		ID:               uuid.New().String(),
		Slug:             strings.TrimSpace(in.Slug),
		Name:             in.Name,
		Description:      in.Description,
		LongDescription:  in.LongDescription,
		SSOURL:           in.SSOURL,
		Status:           status,
		RequiresPlan:     in.RequiresPlan,
		MinimumPlanLevel: in.MinimumPlanLevel,
		Category:         in.Category,
		Tags:             nonNil(in.Tags),
		Features:         nonNil(in.Features),
		Popularity:       in.Popularity,
		Rating:           in.Rating,
		IsPopular:        in.IsPopular,
		IsFeatured:       in.IsFeatured,
		IconURL:          in.IconURL,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := uc.apps.Create(ctx, app); err != nil {
		return nil, err
	}
	uc.log.Info().Str("app", app.Slug).Msg("app creada")
	return app, nil
}

// UpdateApp aplica los campos presentes en in.
func (uc *UseCase) UpdateApp(ctx context.Context, slug string, in dto.UpdateAppRequest) (*entity.App, error) {
	app, err := uc.getBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if in.Rating != nil {
		if err := validateRating(*in.Rating); err != nil {
			return nil, err
		}
		app.Rating = *in.Rating
	}
	setIf(&app.Name, in.Name)
	setIf(&app.Description, in.Description)
	setIf(&app.LongDescription, in.LongDescription)
	setIf(&app.SSOURL, in.SSOURL)
	setIf(&app.Status, in.Status)
	setIf(&app.RequiresPlan, in.RequiresPlan)
	setIf(&app.Category, in.Category)
	setIf(&app.Popularity, in.Popularity)
	setIf(&app.IsPopular, in.IsPopular)
	setIf(&app.IsFeatured, in.IsFeatured)
	setIf(&app.IconURL, in.IconURL)
	if in.ClearMinimum {
		app.MinimumPlanLevel = nil
	} else if in.MinimumPlanLevel != nil {
		app.MinimumPlanLevel = in.MinimumPlanLevel
	}
	if in.Tags != nil {
		app.Tags = in.Tags
	}
	if in.Features != nil {
		app.Features = in.Features
	}
	app.UpdatedAt = uc.now()

	if err := uc.apps.Update(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// DeleteApp elimina la app y sus vínculos PlanApp.
func (uc *UseCase) DeleteApp(ctx context.Context, slug string) error {
	app, err := uc.getBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if err := uc.apps.Delete(ctx, app.ID); err != nil {
		return err
	}
	uc.log.Info().Str("app", slug).Msg("app eliminada")
	return nil
}

// SetPlanApp crea o actualiza la inclusión explícita (plan, app).
func (uc *UseCase) SetPlanApp(ctx context.Context, planID, appID string, included bool) error {
	plan, err := uc.plans.GetByID(ctx, planID)
	if err != nil {
		return fmt.Errorf("buscar plan: %w", err)
	}
	if plan == nil {
		return domain.ErrPlanNotFound
	}
	app, err := uc.apps.GetByID(ctx, appID)
	if err != nil {
		return fmt.Errorf("buscar app: %w", err)
	}
	if app == nil {
		return domain.ErrAppNotFound
	}
	return uc.plans.UpsertPlanApp(ctx, &entity.PlanApp{
		ID:         uuid.New().String(),
		PlanID:     plan.ID,
		AppID:      app.ID,
		IsIncluded: included,
		CreatedAt:  uc.now(),
	})
}

// RotateAPIKey genera una clave nueva para la app; se devuelve en claro una sola vez.
func (uc *UseCase) RotateAPIKey(ctx context.Context, slug string) (string, error) {
	app, err := uc.getBySlug(ctx, slug)
	if err != nil {
		return "", err
	}
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generar clave: %w", err)
	}
	key := apiKeyPrefix + hex.EncodeToString(raw)
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	if err := uc.apps.SetAPIKeyHash(ctx, app.ID, string(hash)); err != nil {
		return "", err
	}
	uc.log.Info().Str("app", slug).Msg("clave de API rotada")
	return key, nil
}

// VerifyAPIKey autentica a una app destino. Devuelve domain.ErrUnauthorized si la app
// no existe, está inactiva, no tiene clave o la clave no coincide.
func (uc *UseCase) VerifyAPIKey(ctx context.Context, slug, key string) (*entity.App, error) {
	if slug == "" || key == "" {
		return nil, domain.ErrUnauthorized
	}
	app, err := uc.apps.GetActiveBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("buscar app: %w", err)
	}
	if app == nil || app.APIKeyHash == "" {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(app.APIKeyHash), []byte(key)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	return app, nil
}

func (uc *UseCase) getBySlug(ctx context.Context, slug string) (*entity.App, error) {
	app, err := uc.apps.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("buscar app: %w", err)
	}
	if app == nil {
		return nil, domain.ErrAppNotFound
	}
	return app, nil
}

func validateRating(r decimal.Decimal) error {
	if r.IsNegative() || r.GreaterThan(maxRating) {
		return fmt.Errorf("%w: rating debe estar entre 0 y 5", domain.ErrInvalidInput)
	}
	return nil
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
