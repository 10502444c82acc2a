package billing

import (
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v81"
)

// StripeConfig holds configuration for Stripe integration
type StripeConfig struct {
	// SecretKey is the Stripe secret API key (sk_test_xxx or sk_live_xxx)
	SecretKey string `json:"secret_key" mapstructure:"secret_key"`

	// WebhookSecret is the secret for verifying webhook signatures
	WebhookSecret string `json:"webhook_secret" mapstructure:"webhook_secret"`

	// PriceIDs maps plan names to Stripe Price IDs
	PriceIDs map[string]string `json:"price_ids" mapstructure:"price_ids"`

	// SuccessURL is the URL to redirect after successful checkout
	SuccessURL string `json:"success_url" mapstructure:"success_url"`

	// CancelURL is the URL to redirect after cancelled checkout
	CancelURL string `json:"cancel_url" mapstructure:"cancel_url"`
}

// Validate validates the Stripe configuration
func (c *StripeConfig) Validate() error {
	if c.SecretKey == "" {
		return fmt.Errorf("stripe: secret key is required")
	}
	if !strings.HasPrefix(c.SecretKey, "sk_") && !strings.HasPrefix(c.SecretKey, "rk_") {
		return fmt.Errorf("stripe: secret key must start with sk_ or rk_")
	}
	if c.WebhookSecret == "" {
		return fmt.Errorf("stripe: webhook secret is required")
	}
	if c.SuccessURL == "" || c.CancelURL == "" {
		return fmt.Errorf("stripe: success and cancel URLs are required")
	}
	return nil
}

// GetPriceID returns the Stripe Price ID for a given plan
func (c *StripeConfig) GetPriceID(plan string) (string, error) {
	priceID, exists := c.PriceIDs[plan]
	if !exists || priceID == "" {
		return "", fmt.Errorf("stripe: no price configured for plan %q", plan)
	}
	return priceID, nil
}

// PlanForPrice maps a Stripe Price ID back to its plan name
func (c *StripeConfig) PlanForPrice(priceID string) (string, bool) {
	for plan, id := range c.PriceIDs {
		if id != "" && id == priceID {
			return plan, true
		}
	}
	return "", false
}

// InitStripeClient sets the global Stripe API key
func (c *StripeConfig) InitStripeClient() {
	stripe.Key = c.SecretKey
}
