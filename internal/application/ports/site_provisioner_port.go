package ports

import "context"

// ProvisionedSite respuesta del backend de aprovisionamiento al crear una instancia.
type ProvisionedSite struct {
	SiteURL string
}

// SiteProvisioner define el puerto de salida hacia el backend que aloja las instancias ERPNext.
// Cada operación aplica su propio timeout; un timeout se devuelve como error.
type SiteProvisioner interface {
	CreateCustomerSite(ctx context.Context, username, email, password string) (*ProvisionedSite, error)
	CheckSiteExists(ctx context.Context, username string) (bool, error)
	DeleteCustomerSite(ctx context.Context, username string) error
}
