package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/saas-dashboard/internal/application/dto"
	"github.com/jhoicas/saas-dashboard/internal/application/subscription"
	"github.com/jhoicas/saas-dashboard/internal/domain/entity"
)

// subscriptionManager lo implementa *subscription.Manager.
type subscriptionManager interface {
	SubscribeToPlan(ctx context.Context, req subscription.SubscribeRequest) subscription.Result
	CancelSubscription(ctx context.Context, userID string) subscription.Result
	ChangePlan(ctx context.Context, userID, newPlanID string, isYearly bool) subscription.Result
	GetUserSubscription(ctx context.Context, userID string) (*entity.UserSubscription, error)
	GetUserApps(ctx context.Context, userID string) ([]*entity.App, error)
	ListPlans(ctx context.Context) ([]*entity.SubscriptionPlan, error)
}

// SubscriptionHandler suscripciones del usuario autenticado.
type SubscriptionHandler struct {
	manager subscriptionManager
}

// NewSubscriptionHandler construye el handler.
func NewSubscriptionHandler(manager subscriptionManager) *SubscriptionHandler {
	return &SubscriptionHandler{manager: manager}
}

// Plans godoc
// @Summary      Planes activos (página de precios)
// @Tags         plans
// @Produce      json
// @Success      200  {array}  dto.PlanResponse
// @Router       /api/plans [get]
func (h *SubscriptionHandler) Plans(c *fiber.Ctx) error {
	plans, err := h.manager.ListPlans(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	out := make([]*dto.PlanResponse, 0, len(plans))
	for _, p := range plans {
		out = append(out, toPlanResponse(p))
	}
	return c.JSON(out)
}

// Status godoc
// @Summary      Suscripción vigente y apps accesibles
// @Tags         subscriptions
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.SubscriptionStatusResponse
// @Router       /api/subscriptions/status [get]
func (h *SubscriptionHandler) Status(c *fiber.Ctx) error {
	userID := GetUserID(c)
	sub, err := h.manager.GetUserSubscription(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	apps, err := h.manager.GetUserApps(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	out := dto.SubscriptionStatusResponse{Subscription: toSubscriptionResponse(sub), Apps: make([]dto.AppResponse, 0, len(apps))}
	for _, a := range apps {
		out.Apps = append(out.Apps, toAppResponse(a))
	}
	return c.JSON(out)
}

// Subscribe godoc
// @Summary      Suscribirse a un plan
// @Tags         subscriptions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SubscribeRequest  true  "Plan"
// @Success      200   {object}  dto.SubscriptionOperationResponse
// @Failure      404   {object}  dto.SubscriptionOperationResponse
// @Failure      409   {object}  dto.SubscriptionOperationResponse
// @Failure      502   {object}  dto.SubscriptionOperationResponse
// @Router       /api/subscriptions/subscribe [post]
func (h *SubscriptionHandler) Subscribe(c *fiber.Ctx) error {
	var in dto.SubscribeRequest
	if err := bind(c, &in); err != nil {
		return err
	}
	res := h.manager.SubscribeToPlan(c.UserContext(), subscription.SubscribeRequest{
		UserID:    GetUserID(c),
		PlanID:    in.PlanID,
		IsYearly:  in.IsYearly,
		TrialDays: in.TrialDays,
	})
	return writeResult(c, res)
}

// ChangePlan godoc
// @Summary      Cambiar de plan
// @Tags         subscriptions
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ChangePlanRequest  true  "Nuevo plan"
// @Success      200   {object}  dto.SubscriptionOperationResponse
// @Router       /api/subscriptions/change-plan [post]
func (h *SubscriptionHandler) ChangePlan(c *fiber.Ctx) error {
	var in dto.ChangePlanRequest
	if err := bind(c, &in); err != nil {
		return err
	}
	return writeResult(c, h.manager.ChangePlan(c.UserContext(), GetUserID(c), in.NewPlanID, in.IsYearly))
}

// Cancel godoc
// @Summary      Cancelar la suscripción
// @Tags         subscriptions
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.SubscriptionOperationResponse
// @Failure      404  {object}  dto.SubscriptionOperationResponse
// @Router       /api/subscriptions/cancel [post]
func (h *SubscriptionHandler) Cancel(c *fiber.Ctx) error {
	return writeResult(c, h.manager.CancelSubscription(c.UserContext(), GetUserID(c)))
}

func writeResult(c *fiber.Ctx, res subscription.Result) error {
	out := dto.SubscriptionOperationResponse{
		Success:      res.Success,
		Message:      res.Message,
		Subscription: toSubscriptionResponse(res.Subscription),
	}
	if res.Success {
		return c.JSON(out)
	}
	status, _ := statusFor(res.Err)
	return c.Status(status).JSON(out)
}
