package dto

import "time"

// GenerateTokenRequest entrada de POST /api/sso/generate.
type GenerateTokenRequest struct {
	AppSlug           string `json:"appSlug" validate:"required"`
	ExpirationMinutes int    `json:"expirationMinutes" validate:"min=0,max=60"`
}

// GenerateTokenResponse token emitido y URL de redirección a la app.
type GenerateTokenResponse struct {
	Token       string `json:"token"`
	ExpiresAt   int64  `json:"expiresAt"`
	TargetApp   string `json:"targetApp"`
	RedirectURL string `json:"redirectUrl"`
}

// SSOPayload datos del usuario que recibe la app destino.
type SSOPayload struct {
	UserID      string   `json:"userId"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	TargetApp   string   `json:"targetApp"`
	Permissions []string `json:"permissions"`
	IssuedAt    int64    `json:"issuedAt"`
	ExpiresAt   int64    `json:"expiresAt"`
	Nonce       string   `json:"nonce"`
}

// ValidateTokenResponse resultado de POST /api/sso/validate.
type ValidateTokenResponse struct {
	Valid   bool        `json:"valid"`
	Payload *SSOPayload `json:"payload,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// TokenInfoResponse estado de un token sin consumirlo.
type TokenInfoResponse struct {
	Payload   *SSOPayload `json:"payload"`
	Used      bool        `json:"used"`
	UsedAt    *time.Time  `json:"usedAt"`
	ExpiresAt time.Time   `json:"expiresAt"`
}
