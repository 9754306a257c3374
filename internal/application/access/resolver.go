package access

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	domainaccess "github.com/jhoicas/saas-dashboard/internal/domain/access"
	"github.com/jhoicas/saas-dashboard/internal/domain/entity"
	"github.com/jhoicas/saas-dashboard/internal/domain/repository"
	"github.com/jhoicas/saas-dashboard/internal/infrastructure/metrics"
	"github.com/jhoicas/saas-dashboard/pkg/logger"
)

// AppAccess una app del catálogo anotada con la decisión para el usuario.
type AppAccess struct {
	App      *entity.App
	Decision domainaccess.Decision
}

// UserAppAccess catálogo completo anotado más la suscripción activa (puede ser nil).
type UserAppAccess struct {
	Apps         []AppAccess
	Subscription *entity.UserSubscription
}

// AccessCheck traducción de una decisión a un resultado apto para handlers HTTP.
type AccessCheck struct {
	Success    bool
	Error      string
	StatusCode int
	Decision   domainaccess.Decision
}

// Resolver resuelve el acceso de usuarios a apps según su plan.
// Solo lectura: nunca modifica estado.
type Resolver struct {
	apps  repository.AppRepository
	plans repository.PlanRepository
	subs  repository.SubscriptionRepository
	log   *logger.Logger
	now   func() time.Time
}

// NewResolver construye el resolvedor de acceso.
func NewResolver(apps repository.AppRepository, plans repository.PlanRepository, subs repository.SubscriptionRepository, log *logger.Logger) *Resolver {
	return &Resolver{apps: apps, plans: plans, subs: subs, log: log.Component("access"), now: time.Now}
}

// CheckAppAccess decide si el usuario puede usar la app identificada por slug.
// Cualquier error de persistencia se registra y se responde UpgradeRequired (fail closed).
func (r *Resolver) CheckAppAccess(ctx context.Context, userID, appSlug string) domainaccess.Decision {
	d, err := r.checkAppAccess(ctx, userID, appSlug)
	if err != nil {
		r.log.Error().Err(err).Str("user_id", userID).Str("app", appSlug).Msg("verificación de acceso fallida")
		d = domainaccess.Denied()
	}
	metrics.AccessDecisions.WithLabelValues(string(d.Reason())).Inc()
	return d
}

func (r *Resolver) checkAppAccess(ctx context.Context, userID, appSlug string) (domainaccess.Decision, error) {
	app, err := r.apps.GetActiveBySlug(ctx, appSlug)
	if err != nil {
		return nil, fmt.Errorf("buscar app %s: %w", appSlug, err)
	}
	if app == nil || !app.RequiresPlan {
		return domainaccess.Decide(app, nil, false, r.now()), nil
	}

	sub, err := r.subs.FindActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("buscar suscripción: %w", err)
	}

	now := r.now()
	included := false
	if sub != nil && !sub.IsExpiredAt(now) {
		included, err = r.plans.IsAppIncluded(ctx, sub.PlanID, app.ID)
		if err != nil {
			return nil, fmt.Errorf("buscar inclusión plan/app: %w", err)
		}
	}
	return domainaccess.Decide(app, sub, included, now), nil
}

// GetUserAppAccess calcula la decisión para todas las apps activas en una sola pasada:
// una consulta de suscripción, una del conjunto PlanApp y una del catálogo.
func (r *Resolver) GetUserAppAccess(ctx context.Context, userID string) (*UserAppAccess, error) {
	sub, err := r.subs.FindActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("buscar suscripción: %w", err)
	}

	included := map[string]struct{}{}
	if sub != nil {
		included, err = r.plans.IncludedAppIDs(ctx, sub.PlanID)
		if err != nil {
			return nil, fmt.Errorf("cargar apps del plan: %w", err)
		}
	}

	apps, err := r.apps.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("listar apps activas: %w", err)
	}

	now := r.now()
	out := make([]AppAccess, 0, len(apps))
	for _, app := range apps {
		_, inc := included[app.ID]
		out = append(out, AppAccess{App: app, Decision: domainaccess.Decide(app, sub, inc, now)})
	}
	SortCatalog(out)

	return &UserAppAccess{Apps: out, Subscription: sub}, nil
}

// SortCatalog ordena por destacada, popular, popularidad (desc) y nombre (asc).
func SortCatalog(apps []AppAccess) {
	slices.SortStableFunc(apps, func(a, b AppAccess) int {
		if c := compareBoolDesc(a.App.IsFeatured, b.App.IsFeatured); c != 0 {
			return c
		}
		if c := compareBoolDesc(a.App.IsPopular, b.App.IsPopular); c != 0 {
			return c
		}
		if a.App.Popularity != b.App.Popularity {
			return b.App.Popularity - a.App.Popularity
		}
		return strings.Compare(a.App.Name, b.App.Name)
	})
}

func compareBoolDesc(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return -1
	default:
		return 1
	}
}

// RequireAppAccess adapta CheckAppAccess al formato {success, error, statusCode} de los handlers.
func (r *Resolver) RequireAppAccess(ctx context.Context, userID, appSlug string) AccessCheck {
	d := r.CheckAppAccess(ctx, userID, appSlug)
	if d.Granted() {
		return AccessCheck{Success: true, StatusCode: http.StatusOK, Decision: d}
	}
	switch d.Reason() {
	case domainaccess.ReasonAppInactive:
		return AccessCheck{StatusCode: http.StatusNotFound, Error: "la app no existe o está inactiva", Decision: d}
	case domainaccess.ReasonSubscriptionExpired:
		return AccessCheck{StatusCode: http.StatusPaymentRequired, Error: "la suscripción ha vencido", Decision: d}
	default:
		return AccessCheck{StatusCode: http.StatusForbidden, Error: "se requiere un plan superior para acceder a esta app", Decision: d}
	}
}

// CheckPlanLevelAccess informa si el plan activo del usuario alcanza requiredLevel.
// Sin suscripción solo pasa el nivel 0; ante error responde false.
func (r *Resolver) CheckPlanLevelAccess(ctx context.Context, userID string, requiredLevel int) bool {
	sub, err := r.subs.FindActiveByUser(ctx, userID)
	if err != nil {
		r.log.Error().Err(err).Str("user_id", userID).Msg("verificación de nivel de plan fallida")
		return false
	}
	return domainaccess.MeetsLevel(sub, requiredLevel)
}
