package main

import (
	"fmt"
	"strings"

	billingapp "github.com/coretrack/backend/internal/application/billing"
	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/domain/payment"
	"github.com/coretrack/backend/internal/domain/pos"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/infrastructure/billing"
	"github.com/coretrack/backend/internal/infrastructure/config"
	"github.com/coretrack/backend/internal/interfaces/http/handler"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// paymentGateways holds the configured payment providers. Disabled providers
// stay nil so the services and handlers report them as switched off.
type paymentGateways struct {
	stripe *billing.StripeAdapter
	paypal *billing.PayPalClient
	xendit *billing.XenditClient

	// invoices is nil unless Xendit is enabled
	invoices payment.InvoiceIssuer
	checkout billingapp.CheckoutOptions
}

func newGateways(cfg *config.Config, log *zap.Logger) (*paymentGateways, error) {
	gw := &paymentGateways{
		checkout: billingapp.CheckoutOptions{
			SuccessURL: cfg.Stripe.SuccessURL,
			FailureURL: cfg.Stripe.CancelURL,
		},
	}

	if cfg.Stripe.Enabled {
		adapter, err := billing.NewStripeAdapter(&billing.StripeConfig{
			SecretKey:     cfg.Stripe.SecretKey,
			WebhookSecret: cfg.Stripe.WebhookSecret,
			PriceIDs:      cfg.Stripe.PriceIDs,
			SuccessURL:    cfg.Stripe.SuccessURL,
			CancelURL:     cfg.Stripe.CancelURL,
		}, log.Named("stripe"))
		if err != nil {
			return nil, fmt.Errorf("failed to configure stripe: %w", err)
		}
		gw.stripe = adapter
	}

	if cfg.PayPal.Enabled {
		client, err := billing.NewPayPalClient(&billing.PayPalConfig{
			ClientID:     cfg.PayPal.ClientID,
			ClientSecret: cfg.PayPal.ClientSecret,
			WebhookID:    cfg.PayPal.WebhookID,
			BaseURL:      cfg.PayPal.BaseURL,
			PlanIDs:      cfg.PayPal.PlanIDs,
		}, log.Named("paypal"))
		if err != nil {
			return nil, fmt.Errorf("failed to configure paypal: %w", err)
		}
		gw.paypal = client
	}

	if cfg.Xendit.Enabled {
		client, err := billing.NewXenditClient(&billing.XenditConfig{
			SecretKey:     cfg.Xendit.SecretKey,
			CallbackToken: cfg.Xendit.CallbackToken,
			BaseURL:       cfg.Xendit.BaseURL,
			InvoiceExpiry: cfg.Xendit.InvoiceExpiry,
		}, log.Named("xendit"))
		if err != nil {
			return nil, fmt.Errorf("failed to configure xendit: %w", err)
		}
		prices, err := planPrices(cfg.Xendit.Prices)
		if err != nil {
			return nil, err
		}
		gw.xendit = client
		gw.invoices = client
		gw.checkout.XenditCurrencies = cfg.Xendit.Currencies
		gw.checkout.XenditPrices = prices
	}
	return gw, nil
}

// stripeGateway avoids handing a typed nil to the subscription service
func (gw *paymentGateways) stripeGateway() billingapp.StripeGateway {
	if gw.stripe == nil {
		return nil
	}
	return gw.stripe
}

func planPrices(raw map[string]string) (map[identity.TenantPlan]decimal.Decimal, error) {
	prices := make(map[identity.TenantPlan]decimal.Decimal, len(raw))
	for plan, value := range raw {
		price, err := decimal.NewFromString(value)
		if err != nil {
			return nil, fmt.Errorf("xendit price for plan %q: %w", plan, err)
		}
		prices[identity.TenantPlan(strings.ToLower(plan))] = price
	}
	return prices, nil
}

type webhookDeps struct {
	subscriptions *billingapp.SubscriptionService
	tenants       identity.TenantRepository
	subRepo       identity.SubscriptionRepository
	payments      payment.Repository
	sales         pos.Repository
	tx            shared.TransactionScope
	idempotency   shared.IdempotencyStore
	metrics       billingapp.WebhookRecorder
	logger        *zap.Logger
}

// webhookServices are nil for disabled providers, which the handler answers with 503
type webhookServices struct {
	stripe handler.StripeWebhooks
	paypal handler.PayPalWebhooks
	xendit handler.XenditCallbacks
}

func newWebhooks(gw *paymentGateways, deps webhookDeps) webhookServices {
	var ws webhookServices
	if gw.stripe != nil {
		ws.stripe = billingapp.NewStripeWebhookService(billingapp.StripeWebhookServiceConfig{
			Verifier:      gw.stripe,
			Prices:        gw.stripe.Config(),
			Subscriptions: deps.subscriptions,
			TenantRepo:    deps.tenants,
			Payments:      deps.payments,
			TX:            deps.tx,
			Idempotency:   deps.idempotency,
			Metrics:       deps.metrics,
			Logger:        deps.logger,
		})
	}
	if gw.paypal != nil {
		ws.paypal = billingapp.NewPayPalWebhookService(billingapp.PayPalWebhookServiceConfig{
			Verifier:      gw.paypal,
			Subscriptions: deps.subscriptions,
			SubRepo:       deps.subRepo,
			Payments:      deps.payments,
			TX:            deps.tx,
			Idempotency:   deps.idempotency,
			Metrics:       deps.metrics,
			Logger:        deps.logger,
		})
	}
	if gw.xendit != nil {
		ws.xendit = billingapp.NewXenditWebhookService(billingapp.XenditWebhookServiceConfig{
			Verifier:      gw.xendit,
			Subscriptions: deps.subscriptions,
			Payments:      deps.payments,
			Sales:         deps.sales,
			TX:            deps.tx,
			Idempotency:   deps.idempotency,
			Metrics:       deps.metrics,
			Logger:        deps.logger,
		})
	}
	return ws
}
