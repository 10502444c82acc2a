package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v81"
	checkoutsession "github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/customer"
	"github.com/stripe/stripe-go/v81/subscription"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

// CustomerInput describes the tenant a Stripe customer is created for
type CustomerInput struct {
	TenantID uuid.UUID
	Email    string
	Name     string
	// ExistingID short-circuits creation when the tenant is already linked
	ExistingID string
}

// CheckoutInput describes a hosted subscription checkout
type CheckoutInput struct {
	TenantID   uuid.UUID
	CustomerID string
	Plan       string
}

// CheckoutSession is the hosted checkout page created by Stripe
type CheckoutSession struct {
	ID  string
	URL string
}

// StripeAdapter implements Stripe billing operations for subscription management
type StripeAdapter struct {
	config *StripeConfig
	logger *zap.Logger
}

// NewStripeAdapter creates a new Stripe adapter
func NewStripeAdapter(config *StripeConfig, logger *zap.Logger) (*StripeAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	config.InitStripeClient()

	return &StripeAdapter{
		config: config,
		logger: logger,
	}, nil
}

// Config returns the adapter configuration
func (a *StripeAdapter) Config() *StripeConfig {
	return a.config
}

// EnsureCustomer returns the tenant's Stripe customer, creating it on first checkout
func (a *StripeAdapter) EnsureCustomer(ctx context.Context, input CustomerInput) (string, error) {
	if input.ExistingID != "" {
		return input.ExistingID, nil
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(input.Email),
		Name:  stripe.String(input.Name),
	}
	params.Context = ctx
	params.AddMetadata("tenant_id", input.TenantID.String())

	cust, err := customer.New(params)
	if err != nil {
		a.logger.Error("Failed to create Stripe customer",
			zap.String("tenant_id", input.TenantID.String()),
			zap.Error(err))
		return "", fmt.Errorf("stripe: failed to create customer: %w", err)
	}

	a.logger.Info("Created Stripe customer",
		zap.String("tenant_id", input.TenantID.String()),
		zap.String("customer_id", cust.ID))
	return cust.ID, nil
}

// CreateCheckoutSession creates a subscription-mode checkout session for a plan
func (a *StripeAdapter) CreateCheckoutSession(ctx context.Context, input CheckoutInput) (*CheckoutSession, error) {
	priceID, err := a.config.GetPriceID(input.Plan)
	if err != nil {
		return nil, err
	}

	metadata := map[string]string{
		"tenant_id": input.TenantID.String(),
		"plan":      input.Plan,
	}
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer:          stripe.String(input.CustomerID),
		ClientReferenceID: stripe.String(input.TenantID.String()),
		SuccessURL:        stripe.String(a.config.SuccessURL),
		CancelURL:         stripe.String(a.config.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	sess, err := checkoutsession.New(params)
	if err != nil {
		a.logger.Error("Failed to create Stripe checkout session",
			zap.String("tenant_id", input.TenantID.String()),
			zap.String("plan", input.Plan),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to create checkout session: %w", err)
	}

	a.logger.Info("Created Stripe checkout session",
		zap.String("tenant_id", input.TenantID.String()),
		zap.String("session_id", sess.ID))
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// CancelSubscription cancels a subscription now or at the end of the billing period
func (a *StripeAdapter) CancelSubscription(ctx context.Context, subscriptionID string, atPeriodEnd bool) error {
	var err error
	if atPeriodEnd {
		params := &stripe.SubscriptionParams{CancelAtPeriodEnd: stripe.Bool(true)}
		params.Context = ctx
		_, err = subscription.Update(subscriptionID, params)
	} else {
		params := &stripe.SubscriptionCancelParams{}
		params.Context = ctx
		_, err = subscription.Cancel(subscriptionID, params)
	}
	if err != nil {
		a.logger.Error("Failed to cancel Stripe subscription",
			zap.String("subscription_id", subscriptionID),
			zap.Error(err))
		return fmt.Errorf("stripe: failed to cancel subscription: %w", err)
	}

	a.logger.Info("Canceled Stripe subscription",
		zap.String("subscription_id", subscriptionID),
		zap.Bool("cancel_at_period_end", atPeriodEnd))
	return nil
}

// ConstructEvent verifies the Stripe-Signature header and decodes the event.
// Events pinned to another API version are accepted; handlers only read stable fields.
func (a *StripeAdapter) ConstructEvent(payload []byte, signature string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, signature, a.config.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
}
