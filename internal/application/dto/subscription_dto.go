package dto

import "time"

// SubscribeRequest entrada de POST /api/subscriptions/subscribe.
type SubscribeRequest struct {
	PlanID    string `json:"planId" validate:"required"`
	IsYearly  bool   `json:"isYearly"`
	TrialDays int    `json:"trialDays" validate:"min=0,max=90"`
}

// ChangePlanRequest entrada de POST /api/subscriptions/change-plan.
type ChangePlanRequest struct {
	NewPlanID string `json:"newPlanId" validate:"required"`
	IsYearly  bool   `json:"isYearly"`
}

// SubscriptionResponse suscripción con su plan.
type SubscriptionResponse struct {
	ID          string        `json:"id"`
	PlanID      string        `json:"planId"`
	Status      string        `json:"status"`
	StartDate   time.Time     `json:"startDate"`
	ExpiresAt   *time.Time    `json:"expiresAt"`
	CancelledAt *time.Time    `json:"cancelledAt,omitempty"`
	TrialEndsAt *time.Time    `json:"trialEndsAt,omitempty"`
	IsYearly    bool          `json:"isYearly"`
	Plan        *PlanResponse `json:"plan,omitempty"`
}

// SubscriptionStatusResponse estado de GET /api/subscriptions/status.
type SubscriptionStatusResponse struct {
	Subscription *SubscriptionResponse `json:"subscription"`
	Apps         []AppResponse         `json:"apps"`
}

// SubscriptionOperationResponse resultado de subscribe/change-plan/cancel.
type SubscriptionOperationResponse struct {
	Success      bool                  `json:"success"`
	Message      string                `json:"message"`
	Subscription *SubscriptionResponse `json:"subscription,omitempty"`
}
