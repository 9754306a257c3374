package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/saas-dashboard/internal/application/ports"
	"github.com/jhoicas/saas-dashboard/internal/domain"
	"github.com/jhoicas/saas-dashboard/internal/domain/entity"
	"github.com/jhoicas/saas-dashboard/internal/domain/repository"
	"github.com/jhoicas/saas-dashboard/internal/infrastructure/metrics"
	"github.com/jhoicas/saas-dashboard/pkg/logger"
)

// Result forma común de respuesta: ninguna operación devuelve un error suelto.
// Err envuelve un centinela de domain para que el handler elija el código HTTP.
type Result struct {
	Success      bool
	Message      string
	Subscription *entity.UserSubscription
	Err          error
}

// SubscribeRequest entrada de SubscribeToPlan.
type SubscribeRequest struct {
	UserID    string
	PlanID    string
	IsYearly  bool
	TrialDays int
}

// Manager orquesta el ciclo de vida de las suscripciones contra el proveedor de pagos.
type Manager struct {
	users    repository.UserRepository
	plans    repository.PlanRepository
	subs     repository.SubscriptionRepository
	apps     repository.AppRepository
	payments ports.PaymentsProvider
	tx       TxRunner
	log      *logger.Logger
	now      func() time.Time
}

// NewManager construye el gestor de suscripciones.
func NewManager(
	users repository.UserRepository,
	plans repository.PlanRepository,
	subs repository.SubscriptionRepository,
	apps repository.AppRepository,
	payments ports.PaymentsProvider,
	tx TxRunner,
	log *logger.Logger,
) *Manager {
	return &Manager{
		users:    users,
		plans:    plans,
		subs:     subs,
		apps:     apps,
		payments: payments,
		tx:       tx,
		log:      log.Component("subscription"),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// PriceRef referencia de precio en el proveedor: price_<slug>_<monthly|yearly>.
func PriceRef(planSlug string, yearly bool) string {
	cycle := "monthly"
	if yearly {
		cycle = "yearly"
	}
	return fmt.Sprintf("price_%s_%s", planSlug, cycle)
}

// SubscribeToPlan suscribe al usuario al plan, cancelando la suscripción vigente si la hay.
// Desde un plan gratuito la anterior se cancela solo en local, sin llamar al proveedor.
func (m *Manager) SubscribeToPlan(ctx context.Context, req SubscribeRequest) Result {
	res := m.subscribe(ctx, req)
	m.record("subscribe", res, req.UserID)
	return res
}

func (m *Manager) subscribe(ctx context.Context, req SubscribeRequest) Result {
	user, err := m.users.GetByID(ctx, req.UserID)
	if err != nil {
		return failure("Failed to load user", fmt.Errorf("buscar usuario: %w", err))
	}
	if user == nil {
		return failure("User not found", domain.ErrUserNotFound)
	}
	plan, err := m.plans.GetByID(ctx, req.PlanID)
	if err != nil {
		return failure("Failed to load plan", fmt.Errorf("buscar plan: %w", err))
	}
	if plan == nil || !plan.IsActive {
		return failure("Plan not found", domain.ErrPlanNotFound)
	}

	existing, err := m.subs.FindCurrentByUser(ctx, req.UserID)
	if err != nil {
		return failure("Failed to load current subscription", fmt.Errorf("buscar suscripción vigente: %w", err))
	}
	upgradedFromFree := false
	if existing != nil {
		switch {
		case existing.PlanID == plan.ID:
			return failure("User is already subscribed to this plan", domain.ErrAlreadySubscribed)
		case existing.Plan.IsFree():
			if err := m.subs.MarkCancelled(ctx, existing.ID, m.now()); err != nil {
				return failure("Failed to cancel free plan", fmt.Errorf("cancelar plan gratuito: %w", err))
			}
			upgradedFromFree = true
		default:
			if err := m.cancelExternal(ctx, existing); err != nil {
				return failure("Failed to cancel previous subscription", err)
			}
			if err := m.subs.MarkCancelled(ctx, existing.ID, m.now()); err != nil {
				return failure("Failed to cancel previous subscription", fmt.Errorf("marcar cancelada: %w", err))
			}
		}
	}

	customerID, err := m.ensureCustomer(ctx, user)
	if err != nil {
		return failure("Failed to create payment customer", err)
	}

	ext, err := m.payments.CreateSubscription(ctx, ports.SubscriptionRequest{
		CustomerID: customerID,
		PriceRef:   PriceRef(plan.Slug, req.IsYearly),
		TrialDays:  req.TrialDays,
		Metadata:   map[string]string{"user_id": user.ID, "plan_id": plan.ID},
	})
	if err != nil {
		return failure("Payment provider rejected the subscription", fmt.Errorf("%w: %v", domain.ErrProviderFailure, err))
	}

	now := m.now()
	sub := &entity.UserSubscription{
		ID:                     uuid.New().String(),
		UserID:                 user.ID,
		PlanID:                 plan.ID,
		Status:                 entity.SubscriptionActive,
		StartDate:              now,
		IsYearly:               req.IsYearly,
		ExternalSubscriptionID: ext.ID,
		CreatedAt:              now,
		UpdatedAt:              now,
		Plan:                   plan,
	}
	if req.TrialDays > 0 {
		trialEnd := now.AddDate(0, 0, req.TrialDays)
		sub.Status = entity.SubscriptionTrialing
		sub.TrialEndsAt = &trialEnd
		sub.ExpiresAt = &trialEnd
	}

	err = m.tx.RunSubscription(ctx, func(subs repository.SubscriptionRepository, users repository.UserRepository) error {
		if err := subs.Create(ctx, sub); err != nil {
			return fmt.Errorf("guardar suscripción: %w", err)
		}
		if err := users.UpdateSubscriptionState(ctx, user.ID, plan.ID, sub.Status); err != nil {
			return fmt.Errorf("actualizar estado del usuario: %w", err)
		}
		return nil
	})
	if err != nil {
		// La suscripción externa queda huérfana; se registra para conciliación manual.
		m.log.Error().Err(err).Str("user_id", user.ID).Str("external_subscription_id", ext.ID).
			Msg("suscripción creada en el proveedor pero no persistida")
		return failure("Failed to save subscription", err)
	}

	msg := "Successfully subscribed to " + plan.Name
	if upgradedFromFree {
		msg = "Successfully upgraded from free plan to " + plan.Name
	}
	return Result{Success: true, Message: msg, Subscription: sub}
}

func (m *Manager) ensureCustomer(ctx context.Context, user *entity.User) (string, error) {
	if user.ExternalCustomerID != "" {
		return user.ExternalCustomerID, nil
	}
	id, err := m.payments.CreateCustomer(ctx, ports.CustomerRequest{UserID: user.ID, Email: user.Email, Name: user.Name})
	if err != nil {
		return "", fmt.Errorf("%w: crear cliente: %v", domain.ErrProviderFailure, err)
	}
	if err := m.users.SetExternalCustomerID(ctx, user.ID, id); err != nil {
		return "", fmt.Errorf("guardar customer id: %w", err)
	}
	user.ExternalCustomerID = id
	return id, nil
}

func (m *Manager) cancelExternal(ctx context.Context, sub *entity.UserSubscription) error {
	if sub.ExternalSubscriptionID == "" {
		return nil
	}
	if err := m.payments.CancelSubscription(ctx, sub.ExternalSubscriptionID); err != nil {
		return fmt.Errorf("%w: cancelar %s: %v", domain.ErrProviderFailure, sub.ExternalSubscriptionID, err)
	}
	return nil
}

// CancelSubscription cancela la suscripción active/trialing del usuario.
func (m *Manager) CancelSubscription(ctx context.Context, userID string) Result {
	res := m.cancel(ctx, userID)
	m.record("cancel", res, userID)
	return res
}

func (m *Manager) cancel(ctx context.Context, userID string) Result {
	existing, err := m.subs.FindCurrentByUser(ctx, userID)
	if err != nil {
		return failure("Failed to load current subscription", fmt.Errorf("buscar suscripción vigente: %w", err))
	}
	if existing == nil {
		return failure("No active subscription found", domain.ErrNoActiveSubscription)
	}
	if err := m.cancelExternal(ctx, existing); err != nil {
		return failure("Payment provider failed to cancel the subscription", err)
	}

	now := m.now()
	err = m.tx.RunSubscription(ctx, func(subs repository.SubscriptionRepository, users repository.UserRepository) error {
		if err := subs.MarkCancelled(ctx, existing.ID, now); err != nil {
			return fmt.Errorf("marcar cancelada: %w", err)
		}
		if err := users.UpdateSubscriptionState(ctx, userID, existing.PlanID, entity.SubscriptionCancelled); err != nil {
			return fmt.Errorf("actualizar estado del usuario: %w", err)
		}
		return nil
	})
	if err != nil {
		return failure("Failed to cancel subscription", err)
	}

	existing.Status = entity.SubscriptionCancelled
	existing.CancelledAt = &now
	return Result{Success: true, Message: "Subscription cancelled successfully", Subscription: existing}
}

// ChangePlan delega en SubscribeToPlan, que ya cancela la suscripción vigente.
func (m *Manager) ChangePlan(ctx context.Context, userID, newPlanID string, isYearly bool) Result {
	res := m.subscribe(ctx, SubscribeRequest{UserID: userID, PlanID: newPlanID, IsYearly: isYearly})
	m.record("change_plan", res, userID)
	return res
}

// GetUserSubscription la más reciente en {active, trialing, cancelled}, con plan; nil si no hay.
func (m *Manager) GetUserSubscription(ctx context.Context, userID string) (*entity.UserSubscription, error) {
	sub, err := m.subs.FindLatestByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("buscar suscripción: %w", err)
	}
	return sub, nil
}

// HasAppAccess true solo con suscripción active (no trialing) y PlanApp incluida.
func (m *Manager) HasAppAccess(ctx context.Context, userID, appID string) bool {
	sub, err := m.subs.FindActiveByUser(ctx, userID)
	if err != nil {
		m.log.Error().Err(err).Str("user_id", userID).Msg("consulta de acceso fallida")
		return false
	}
	if sub == nil {
		return false
	}
	ok, err := m.plans.IsAppIncluded(ctx, sub.PlanID, appID)
	if err != nil {
		m.log.Error().Err(err).Str("user_id", userID).Str("app_id", appID).Msg("consulta de inclusión fallida")
		return false
	}
	return ok
}

// GetUserApps apps activas incluidas explícitamente en el plan de la suscripción active.
func (m *Manager) GetUserApps(ctx context.Context, userID string) ([]*entity.App, error) {
	sub, err := m.subs.FindActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("buscar suscripción: %w", err)
	}
	if sub == nil {
		return []*entity.App{}, nil
	}
	included, err := m.plans.IncludedAppIDs(ctx, sub.PlanID)
	if err != nil {
		return nil, fmt.Errorf("cargar apps del plan: %w", err)
	}
	apps, err := m.apps.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("listar apps activas: %w", err)
	}
	out := make([]*entity.App, 0, len(included))
	for _, app := range apps {
		if _, ok := included[app.ID]; ok {
			out = append(out, app)
		}
	}
	return out, nil
}

// ListPlans planes activos ordenados por posición.
func (m *Manager) ListPlans(ctx context.Context) ([]*entity.SubscriptionPlan, error) {
	plans, err := m.plans.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("listar planes: %w", err)
	}
	return plans, nil
}

func (m *Manager) record(op string, res Result, userID string) {
	metrics.SubscriptionOperations.WithLabelValues(op, metrics.Result(res.Success)).Inc()
	if res.Success {
		m.log.Info().Str("operation", op).Str("user_id", userID).Msg(res.Message)
		return
	}
	ev := m.log.Warn()
	if !isExpected(res.Err) {
		ev = m.log.Error()
	}
	ev.Err(res.Err).Str("operation", op).Str("user_id", userID).Msg(res.Message)
}

func isExpected(err error) bool {
	return errors.Is(err, domain.ErrAlreadySubscribed) ||
		errors.Is(err, domain.ErrNoActiveSubscription) ||
		errors.Is(err, domain.ErrUserNotFound) ||
		errors.Is(err, domain.ErrPlanNotFound)
}

func failure(msg string, err error) Result {
	return Result{Success: false, Message: msg, Err: err}
}
