package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AppResponse app del catálogo; los campos de acceso solo aparecen en el catálogo del usuario.
type AppResponse struct {
	ID               string          `json:"id"`
	Slug             string          `json:"slug"`
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	LongDescription  string          `json:"longDescription,omitempty"`
	SSOURL           string          `json:"ssoUrl"`
	Status           string          `json:"status"`
	RequiresPlan     bool            `json:"requiresPlan"`
	MinimumPlanLevel *int            `json:"minimumPlanLevel"`
	Category         string          `json:"category"`
	Tags             []string        `json:"tags"`
	Features         []string        `json:"features"`
	Popularity       int             `json:"popularity"`
	Rating           decimal.Decimal `json:"rating"`
	IsPopular        bool            `json:"isPopular"`
	IsFeatured       bool            `json:"isFeatured"`
	IconURL          string          `json:"iconUrl,omitempty"`
	HasAPIKey        bool            `json:"hasApiKey"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`

	*AccessResponse
}

// AccessResponse decisión de acceso serializada.
type AccessResponse struct {
	HasAccess         bool   `json:"hasAccess"`
	AccessReason      string `json:"accessReason"`
	RequiredPlanLevel *int   `json:"requiredPlanLevel,omitempty"`
	UserPlanLevel     *int   `json:"userPlanLevel,omitempty"`
	UpgradeURL        string `json:"upgradeUrl,omitempty"`
}

// CatalogResponse catálogo anotado más la suscripción vigente.
type CatalogResponse struct {
	Apps         []AppResponse         `json:"apps"`
	Subscription *SubscriptionResponse `json:"subscription"`
}

// CreateAppRequest alta de una app (admin).
type CreateAppRequest struct {
	Slug             string          `json:"slug" validate:"required,min=2,max=60,lowercase"`
	Name             string          `json:"name" validate:"required,min=1,max=120"`
	Description      string          `json:"description" validate:"max=500"`
	LongDescription  string          `json:"longDescription" validate:"max=5000"`
	SSOURL           string          `json:"ssoUrl" validate:"required,url"`
	Status           string          `json:"status" validate:"omitempty,oneof=active inactive"`
	RequiresPlan     bool            `json:"requiresPlan"`
	MinimumPlanLevel *int            `json:"minimumPlanLevel" validate:"omitempty,min=0,max=3"`
	Category         string          `json:"category" validate:"max=60"`
	Tags             []string        `json:"tags" validate:"dive,max=40"`
	Features         []string        `json:"features" validate:"dive,max=200"`
	Popularity       int             `json:"popularity" validate:"min=0"`
	Rating           decimal.Decimal `json:"rating"`
	IsPopular        bool            `json:"isPopular"`
	IsFeatured       bool            `json:"isFeatured"`
	IconURL          string          `json:"iconUrl" validate:"omitempty,url"`
}

// UpdateAppRequest modificación parcial: solo se aplican los campos presentes.
type UpdateAppRequest struct {
	Name             *string          `json:"name" validate:"omitempty,min=1,max=120"`
	Description      *string          `json:"description" validate:"omitempty,max=500"`
	LongDescription  *string          `json:"longDescription" validate:"omitempty,max=5000"`
	SSOURL           *string          `json:"ssoUrl" validate:"omitempty,url"`
	Status           *string          `json:"status" validate:"omitempty,oneof=active inactive"`
	RequiresPlan     *bool            `json:"requiresPlan"`
	MinimumPlanLevel *int             `json:"minimumPlanLevel" validate:"omitempty,min=0,max=3"`
	ClearMinimum     bool             `json:"clearMinimumPlanLevel"`
	Category         *string          `json:"category" validate:"omitempty,max=60"`
	Tags             []string         `json:"tags" validate:"omitempty,dive,max=40"`
	Features         []string         `json:"features" validate:"omitempty,dive,max=200"`
	Popularity       *int             `json:"popularity" validate:"omitempty,min=0"`
	Rating           *decimal.Decimal `json:"rating"`
	IsPopular        *bool            `json:"isPopular"`
	IsFeatured       *bool            `json:"isFeatured"`
	IconURL          *string          `json:"iconUrl" validate:"omitempty,url"`
}

// SetPlanAppRequest inclusión explícita de una app en un plan.
type SetPlanAppRequest struct {
	IsIncluded bool `json:"isIncluded"`
}

// APIKeyResponse clave de app recién generada; solo se muestra una vez.
type APIKeyResponse struct {
	Slug   string `json:"slug"`
	APIKey string `json:"apiKey"`
}
