package entity

import "time"

// SSOToken registro persistido de un token de traspaso. Nunca se guarda el token,
// solo su SHA-256. Se consume una única vez (UsedAt).
type SSOToken struct {
	ID        string
	UserID    string
	TargetApp string
	TokenHash string // hex(SHA-256(token))
	Nonce     string
	ExpiresAt time.Time
	UsedAt    *time.Time
	IPAddress string
	UserAgent string
	CreatedAt time.Time
}

// IsUsed indica si ya fue consumido.
func (t *SSOToken) IsUsed() bool {
	return t != nil && t.UsedAt != nil
}
