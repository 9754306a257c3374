// Package payments contiene los adaptadores del puerto ports.PaymentsProvider.
package payments

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/saas-dashboard/internal/application/ports"
	"github.com/jhoicas/saas-dashboard/pkg/logger"
)

var _ ports.PaymentsProvider = (*Mock)(nil)

// Mock proveedor de pagos en memoria para desarrollo. Genera IDs deterministas
// (cus_mock_N, sub_mock_N) y registra las cancelaciones.
type Mock struct {
	mu            sync.Mutex
	log           *logger.Logger
	now           func() time.Time
	customerSeq   int
	subSeq        int
	subscriptions map[string]string // id -> status
	cancelled     []string
}

// NewMock construye el proveedor simulado.
func NewMock(log *logger.Logger) *Mock {
	return &Mock{
		log:           log.Component("payments_mock"),
		now:           time.Now,
		subscriptions: make(map[string]string),
	}
}

func (m *Mock) CreateCustomer(_ context.Context, req ports.CustomerRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.customerSeq++
	id := fmt.Sprintf("cus_mock_%d", m.customerSeq)
	m.log.Info().Str("customer_id", id).Str("email", req.Email).Msg("cliente simulado creado")
	return id, nil
}

func (m *Mock) CreateSubscription(_ context.Context, req ports.SubscriptionRequest) (*ports.ExternalSubscription, error) {
	if req.CustomerID == "" || req.PriceRef == "" {
		return nil, fmt.Errorf("suscripción simulada: customer y price son obligatorios")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subSeq++
	out := &ports.ExternalSubscription{ID: fmt.Sprintf("sub_mock_%d", m.subSeq), Status: "active"}
	if req.TrialDays > 0 {
		end := m.now().AddDate(0, 0, req.TrialDays)
		out.Status = "trialing"
		out.TrialEndsAt = &end
	}
	m.subscriptions[out.ID] = out.Status
	m.log.Info().Str("subscription_id", out.ID).Str("price", req.PriceRef).Msg("suscripción simulada creada")
	return out, nil
}

func (m *Mock) CancelSubscription(_ context.Context, externalID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subscriptions[externalID]; !ok {
		return fmt.Errorf("suscripción simulada %s no existe", externalID)
	}
	m.subscriptions[externalID] = "canceled"
	m.cancelled = append(m.cancelled, externalID)
	return nil
}

// Cancelled IDs cancelados en orden.
func (m *Mock) Cancelled() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.cancelled...)
}
