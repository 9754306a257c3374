package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una App del catálogo.
const (
	AppStatusActive   = "active"
	AppStatusInactive = "inactive"
)

// App representa una aplicación integrable del marketplace.
// Slug es único globalmente; los vínculos PlanApp se borran en cascada con la App.
type App struct {
	ID               string
	Slug             string
	Name             string
	Description      string
	LongDescription  string
	SSOURL           string // destino del traspaso SSO (?token=...)
	Status           string // active, inactive
	RequiresPlan     bool
	MinimumPlanLevel *int // 0..3; nil = sin nivel mínimo definido
	Category         string
	Tags             []string
	Features         []string
	Popularity       int
	Rating           decimal.Decimal // 0.0 - 5.0
	IsPopular        bool
	IsFeatured       bool
	IconURL          string
	APIKeyHash       string // bcrypt; vacío = la app aún no puede validar tokens
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsActive indica si la app es visible y utilizable.
func (a *App) IsActive() bool {
	return a != nil && a.Status == AppStatusActive
}

// RequiredLevel devuelve el nivel mínimo o 0 si no está definido.
func (a *App) RequiredLevel() int {
	if a == nil || a.MinimumPlanLevel == nil {
		return 0
	}
	return *a.MinimumPlanLevel
}
