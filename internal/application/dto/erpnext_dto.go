package dto

import "time"

// SiteResponse instancia ERPNext del usuario con las credenciales de administrador.
type SiteResponse struct {
	Username      string    `json:"username"`
	SiteURL       string    `json:"siteUrl"`
	AdminPassword string    `json:"adminPassword"`
	Status        string    `json:"status"`
	Created       bool      `json:"created"`
	CreatedAt     time.Time `json:"createdAt"`
}
