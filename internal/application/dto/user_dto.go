package dto

import "time"

// UserResponse usuario autenticado (GET /api/me).
type UserResponse struct {
	ID                 string    `json:"id"`
	Email              string    `json:"email"`
	Name               string    `json:"name"`
	Role               string    `json:"role"`
	CurrentPlanID      string    `json:"currentPlanId,omitempty"`
	SubscriptionStatus string    `json:"subscriptionStatus,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
}
