package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
	stripecustomer "github.com/stripe/stripe-go/v82/customer"
	stripeprice "github.com/stripe/stripe-go/v82/price"
	stripesub "github.com/stripe/stripe-go/v82/subscription"

	"github.com/jhoicas/saas-dashboard/internal/application/ports"
	"github.com/jhoicas/saas-dashboard/pkg/logger"
)

var _ ports.PaymentsProvider = (*Stripe)(nil)

// Stripe adaptador real. PriceRef se interpreta como lookup_key del precio en Stripe.
type Stripe struct {
	log                *logger.Logger
	createCustomer     func(params *stripe.CustomerParams) (*stripe.Customer, error)
	createSubscription func(params *stripe.SubscriptionParams) (*stripe.Subscription, error)
	cancelSubscription func(id string, params *stripe.SubscriptionCancelParams) (*stripe.Subscription, error)
	findPrice          func(ctx context.Context, lookupKey string) (string, error)
}

// NewStripe configura la clave global de stripe-go y devuelve el adaptador.
func NewStripe(secretKey string, log *logger.Logger) *Stripe {
	stripe.Key = strings.TrimSpace(secretKey)
	return &Stripe{
		log:                log.Component("payments_stripe"),
		createCustomer:     stripecustomer.New,
		createSubscription: stripesub.New,
		cancelSubscription: stripesub.Cancel,
		findPrice:          priceIDByLookupKey,
	}
}

// CreateCustomer da de alta el cliente en Stripe con el user_id en metadata.
func (s *Stripe) CreateCustomer(ctx context.Context, req ports.CustomerRequest) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(req.Email),
		Name:  stripe.String(req.Name),
	}
	params.Context = ctx
	params.AddMetadata("user_id", req.UserID)

	c, err := s.createCustomer(params)
	if err != nil {
		return "", fmt.Errorf("stripe crear cliente: %w", err)
	}
	return c.ID, nil
}

// CreateSubscription resuelve el precio por lookup_key y crea la suscripción, con trial si se pide.
func (s *Stripe) CreateSubscription(ctx context.Context, req ports.SubscriptionRequest) (*ports.ExternalSubscription, error) {
	priceID, err := s.findPrice(ctx, req.PriceRef)
	if err != nil {
		return nil, err
	}

	params := &stripe.SubscriptionParams{
		Customer: stripe.String(req.CustomerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(priceID)},
		},
	}
	params.Context = ctx
	if req.TrialDays > 0 {
		params.TrialPeriodDays = stripe.Int64(int64(req.TrialDays))
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	sub, err := s.createSubscription(params)
	if err != nil {
		return nil, fmt.Errorf("stripe crear suscripción: %w", err)
	}
	out := &ports.ExternalSubscription{ID: sub.ID, Status: string(sub.Status)}
	if sub.TrialEnd > 0 {
		end := time.Unix(sub.TrialEnd, 0).UTC()
		out.TrialEndsAt = &end
	}
	s.log.Info().Str("subscription_id", sub.ID).Str("price", req.PriceRef).Msg("suscripción stripe creada")
	return out, nil
}

// CancelSubscription cancela de inmediato la suscripción externa.
func (s *Stripe) CancelSubscription(ctx context.Context, externalID string) error {
	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx
	if _, err := s.cancelSubscription(externalID, params); err != nil {
		return fmt.Errorf("stripe cancelar suscripción %s: %w", externalID, err)
	}
	return nil
}

func priceIDByLookupKey(ctx context.Context, lookupKey string) (string, error) {
	it := stripeprice.List(priceListParams(ctx, lookupKey))
	if it.Next() {
		return it.Price().ID, nil
	}
	if err := it.Err(); err != nil {
		return "", fmt.Errorf("stripe buscar precio %s: %w", lookupKey, err)
	}
	return "", fmt.Errorf("stripe: no hay precio activo con lookup_key %s", lookupKey)
}

func priceListParams(ctx context.Context, lookupKey string) *stripe.PriceListParams {
	params := &stripe.PriceListParams{
		LookupKeys: stripe.StringSlice([]string{lookupKey}),
		Active:     stripe.Bool(true),
	}
	params.Context = ctx
	return params
}
