package entity

import "time"

// Estados de la instancia ERPNext de un usuario.
const (
	SiteStatusCreating  = "creating"
	SiteStatusActive    = "active"
	SiteStatusSuspended = "suspended"
)

// ERPSite instancia ERPNext aprovisionada para un usuario.
// Como máximo una en {creating, active} por usuario (índice único parcial).
// AdminPassword se guarda en claro porque el dashboard se la muestra al usuario.
type ERPSite struct {
	ID            string
	UserID        string
	Username      string
	SiteURL       string
	AdminPassword string
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
