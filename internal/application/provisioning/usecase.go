// Package provisioning crea y elimina la instancia ERPNext de cada usuario.
package provisioning

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/saas-dashboard/internal/application/ports"
	"github.com/jhoicas/saas-dashboard/internal/domain"
	"github.com/jhoicas/saas-dashboard/internal/domain/entity"
	"github.com/jhoicas/saas-dashboard/internal/domain/repository"
	"github.com/jhoicas/saas-dashboard/internal/infrastructure/metrics"
	"github.com/jhoicas/saas-dashboard/pkg/logger"
)

// ErrSiteNotConfirmed el backend aceptó la creación pero la verificación posterior no encontró el sitio.
var ErrSiteNotConfirmed = errors.New("el sitio ERPNext no pudo confirmarse")

const maxUsernameBase = 20

// CreateSiteRequest datos del usuario autenticado que solicita su instancia.
type CreateSiteRequest struct {
	UserID string
	Email  string
}

// UseCase aprovisiona instancias ERPNext con doble confirmación y borrado compensatorio.
type UseCase struct {
	sites       repository.SiteRepository
	provisioner ports.SiteProvisioner
	log         *logger.Logger
	now         func() time.Time
	newUsername func(email string) string
	newPassword func() string
}

// NewUseCase construye el caso de uso.
func NewUseCase(sites repository.SiteRepository, provisioner ports.SiteProvisioner, log *logger.Logger) *UseCase {
	return &UseCase{
		sites:       sites,
		provisioner: provisioner,
		log:         log.Component("provisioning"),
		now:         func() time.Time { return time.Now().UTC() },
		newUsername: GenerateUsername,
		newPassword: rand.Text,
	}
}

// CreateSite devuelve la instancia vigente si existe (created=false); si no, la crea en remoto,
// confirma que existe y solo entonces la registra. Si la confirmación o el registro local fallan se borra el sitio remoto.
func (uc *UseCase) CreateSite(ctx context.Context, req CreateSiteRequest) (*entity.ERPSite, bool, error) {
	existing, err := uc.sites.FindCurrentByUser(ctx, req.UserID)
	if err != nil {
		return nil, false, fmt.Errorf("buscar instancia: %w", err)
	}
	if existing != nil {
		metrics.ProvisioningTotal.WithLabelValues("existing").Inc()
		return existing, false, nil
	}
	if strings.TrimSpace(req.Email) == "" {
		return nil, false, fmt.Errorf("%w: el usuario no tiene email", domain.ErrInvalidInput)
	}

	username := uc.newUsername(req.Email)
	password := uc.newPassword()
	log := uc.log.With().Str("user_id", req.UserID).Str("username", username).Logger()

	created, err := uc.provisioner.CreateCustomerSite(ctx, username, req.Email, password)
	if err != nil {
		metrics.ProvisioningTotal.WithLabelValues("create_failed").Inc()
		log.Error().Err(err).Msg("creación remota fallida")
		return nil, false, fmt.Errorf("%w: crear sitio: %v", domain.ErrProviderFailure, err)
	}

	exists, err := uc.provisioner.CheckSiteExists(ctx, username)
	if err != nil || !exists {
		metrics.ProvisioningTotal.WithLabelValues("unconfirmed").Inc()
		log.Error().Err(err).Bool("exists", exists).Msg("el sitio no pudo confirmarse")
		// El reintento genera otro username; lo creado a medias no se reutiliza.
		uc.compensate(ctx, &log, username, "sitio sin confirmar eliminado")
		if err != nil {
			return nil, false, fmt.Errorf("%w: verificar sitio: %v", domain.ErrProviderFailure, err)
		}
		return nil, false, fmt.Errorf("%w: %w", domain.ErrProviderFailure, ErrSiteNotConfirmed)
	}

	now := uc.now()
	site := &entity.ERPSite{
		ID:            uuid.NewString(),
		UserID:        req.UserID,
		Username:      username,
		SiteURL:       created.SiteURL,
		AdminPassword: password,
		Status:        entity.SiteStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := uc.sites.Create(ctx, site); err != nil {
		log.Error().Err(err).Msg("registro local fallido")
		uc.compensate(ctx, &log, username, "registro local fallido; sitio remoto eliminado")
		return nil, false, fmt.Errorf("guardar instancia: %w", err)
	}

	metrics.ProvisioningTotal.WithLabelValues("created").Inc()
	log.Info().Str("site_url", site.SiteURL).Msg("instancia ERPNext creada")
	return site, true, nil
}

// compensate borra el sitio remoto que no llegó a registrarse; sin registro local quedaría huérfano.
// Usa un contexto no cancelable: la petición pudo haberse abortado.
func (uc *UseCase) compensate(ctx context.Context, log *zerolog.Logger, username, msg string) {
	if err := uc.provisioner.DeleteCustomerSite(context.WithoutCancel(ctx), username); err != nil {
		metrics.ProvisioningTotal.WithLabelValues("orphaned").Inc()
		log.Error().Err(err).Msg("no se pudo borrar el sitio remoto")
		return
	}
	metrics.ProvisioningTotal.WithLabelValues("compensated").Inc()
	log.Warn().Msg(msg)
}

// GetSite instancia creating/active del usuario o domain.ErrNotFound.
func (uc *UseCase) GetSite(ctx context.Context, userID string) (*entity.ERPSite, error) {
	site, err := uc.sites.FindCurrentByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("buscar instancia: %w", err)
	}
	if site == nil {
		return nil, domain.ErrNotFound
	}
	return site, nil
}

// DeleteSite borra el sitio remoto y deja el registro local como suspended.
func (uc *UseCase) DeleteSite(ctx context.Context, userID string) error {
	site, err := uc.GetSite(ctx, userID)
	if err != nil {
		return err
	}
	if err := uc.provisioner.DeleteCustomerSite(ctx, site.Username); err != nil {
		metrics.ProvisioningTotal.WithLabelValues("delete_failed").Inc()
		return fmt.Errorf("%w: borrar sitio: %v", domain.ErrProviderFailure, err)
	}
	if err := uc.sites.UpdateStatus(ctx, site.ID, entity.SiteStatusSuspended); err != nil {
		return fmt.Errorf("suspender instancia: %w", err)
	}
	metrics.ProvisioningTotal.WithLabelValues("deleted").Inc()
	uc.log.Info().Str("user_id", userID).Str("username", site.Username).Msg("instancia ERPNext eliminada")
	return nil
}

// GenerateUsername parte local del email saneada (a-z, 0-9) más 6 caracteres hex aleatorios.
func GenerateUsername(email string) string {
	local, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(email)), "@")
	var b strings.Builder
	for _, r := range local {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
		if b.Len() == maxUsernameBase {
			break
		}
	}
	base := b.String()
	if base == "" {
		base = "user"
	}
	suffix := make([]byte, 3)
	_, _ = rand.Read(suffix)
	return base + hex.EncodeToString(suffix)
}
