package billing

import (
	"time"

	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/google/uuid"
)

// UpdateSettingsRequest changes tenant display and locale settings
type UpdateSettingsRequest struct {
	Name     string `json:"name" binding:"omitempty,max=200"`
	Currency string `json:"currency" binding:"omitempty,len=3"`
	Timezone string `json:"timezone" binding:"omitempty,max=64"`
	Locale   string `json:"locale" binding:"omitempty,max=35"`
}

// CheckoutRequest asks for a hosted payment page for a plan
type CheckoutRequest struct {
	Plan string `json:"plan" binding:"required,oneof=starter pro enterprise"`
}

// CheckoutResponse points the client at the provider's payment page
type CheckoutResponse struct {
	Provider  string `json:"provider"`
	URL       string `json:"url"`
	Reference string `json:"reference"`
}

// SubscriptionResponse is a provider subscription as returned by the API
type SubscriptionResponse struct {
	ID                uuid.UUID  `json:"id"`
	Provider          string     `json:"provider"`
	ExternalID        string     `json:"external_id"`
	Plan              string     `json:"plan"`
	Status            string     `json:"status"`
	CurrentPeriodEnd  *time.Time `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd bool       `json:"cancel_at_period_end"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// ToSubscriptionResponse maps a subscription
func ToSubscriptionResponse(s *identity.Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:                s.ID,
		Provider:          string(s.Provider),
		ExternalID:        s.ExternalID,
		Plan:              string(s.Plan),
		Status:            string(s.Status),
		CurrentPeriodEnd:  s.CurrentPeriodEnd,
		CancelAtPeriodEnd: s.CancelAtPeriodEnd,
		UpdatedAt:         s.UpdatedAt,
	}
}

// SubscriptionChange is a provider's report about a tenant subscription
type SubscriptionChange struct {
	TenantID          uuid.UUID
	Provider          identity.PaymentProvider
	ExternalID        string
	Plan              identity.TenantPlan
	Status            identity.SubscriptionStatus
	PeriodEnd         *time.Time
	CancelAtPeriodEnd bool
	// CustomerID is the Stripe customer, when known
	CustomerID string
}

// WebhookResult contains the result of processing a webhook
type WebhookResult struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Processed bool   `json:"processed"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Message   string `json:"message,omitempty"`
}
