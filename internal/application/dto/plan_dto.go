package dto

import "github.com/shopspring/decimal"

// PlanResponse plan para la página de precios. Precios en centavos y en unidades monetarias.
type PlanResponse struct {
	ID                string          `json:"id"`
	Slug              string          `json:"slug"`
	Name              string          `json:"name"`
	Description       string          `json:"description"`
	Position          int             `json:"position"`
	PriceMonthlyCents int64           `json:"priceMonthlyCents"`
	PriceYearlyCents  int64           `json:"priceYearlyCents"`
	PriceMonthly      decimal.Decimal `json:"priceMonthly"`
	PriceYearly       decimal.Decimal `json:"priceYearly"`
	MaxUsers          int             `json:"maxUsers"`
	StorageQuotaGB    int             `json:"storageQuotaGb"`
	Features          []string        `json:"features"`
}
