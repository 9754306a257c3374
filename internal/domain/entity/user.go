package entity

import "time"

// Roles válidos para User (vienen del proveedor de identidad).
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User usuario del dashboard. ID es el subject del proveedor de identidad.
// CurrentPlanID y SubscriptionStatus son copias desnormalizadas de la suscripción vigente.
type User struct {
	ID                 string
	Email              string
	Name               string
	Role               string
	ExternalCustomerID string // ID de cliente en el proveedor de pagos
	CurrentPlanID      string
	SubscriptionStatus string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
