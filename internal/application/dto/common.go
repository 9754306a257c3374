package dto

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// AccessDeniedResponse error de acceso a una app con el detalle de la decisión.
type AccessDeniedResponse struct {
	Code              string `json:"code"`
	Message           string `json:"message"`
	Reason            string `json:"reason"`
	RequiredPlanLevel int    `json:"requiredPlanLevel,omitempty"`
	UserPlanLevel     int    `json:"userPlanLevel"`
	UpgradeURL        string `json:"upgradeUrl,omitempty"`
}

// OperationResponse forma {success, message} de las operaciones que mutan estado.
type OperationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
