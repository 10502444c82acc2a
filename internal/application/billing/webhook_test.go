package billing

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/domain/payment"
	"github.com/coretrack/backend/internal/domain/pos"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/domain/shift"
	"github.com/coretrack/backend/internal/infrastructure/billing"
	"github.com/coretrack/backend/internal/infrastructure/cache"
	"github.com/coretrack/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testWebhookSecret = "whsec_test_secret"

type countingRecorder struct {
	outcomes []string
}

func (r *countingRecorder) RecordWebhook(_ context.Context, provider, eventType, outcome string) {
	r.outcomes = append(r.outcomes, provider+"/"+eventType+"/"+outcome)
}

func signStripe(payload string) string {
	ts := time.Now().Unix()
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	fmt.Fprintf(mac, "%d.%s", ts, payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func newIdempotencyStore(t *testing.T) shared.IdempotencyStore {
	t.Helper()
	store := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newStripeWebhookService(t *testing.T, f *billingFixture, metrics WebhookRecorder) *StripeWebhookService {
	t.Helper()
	cfg := &billing.StripeConfig{
		SecretKey:     "sk_test_123",
		WebhookSecret: testWebhookSecret,
		PriceIDs:      map[string]string{"starter": "price_starter", "pro": "price_pro"},
		SuccessURL:    "https://app.coretrack.example/ok",
		CancelURL:     "https://app.coretrack.example/cancel",
	}
	adapter, err := billing.NewStripeAdapter(cfg, zap.NewNop())
	require.NoError(t, err)
	return NewStripeWebhookService(StripeWebhookServiceConfig{
		Verifier:      adapter,
		Prices:        cfg,
		Subscriptions: f.svc,
		TenantRepo:    f.tenants,
		Payments:      f.payments,
		TX:            shared.NoOpTransactionScope{},
		Idempotency:   newIdempotencyStore(t),
		Metrics:       metrics,
		Logger:        zap.NewNop(),
	})
}

func TestStripeWebhookService_CheckoutAndRenewals(t *testing.T) {
	ctx := context.Background()
	f := newBillingFixture(t, "USD")
	metrics := &countingRecorder{}
	svc := newStripeWebhookService(t, f, metrics)
	f.tenants.On("FindByStripeCustomerID", mock.Anything, "cus_1").Return(f.tenant, nil).Maybe()

	checkout := fmt.Sprintf(`{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_1","object":"checkout.session","mode":"subscription","customer":"cus_1","subscription":"sub_1","client_reference_id":"%s","metadata":{"plan":"pro"}}}}`, f.tenant.ID)

	result, err := svc.ProcessWebhook(ctx, []byte(checkout), signStripe(checkout))
	require.NoError(t, err)
	assert.True(t, result.Processed)
	assert.False(t, result.Duplicate)
	assert.Equal(t, identity.TenantPlanPro, f.tenant.Plan)
	assert.Equal(t, identity.TenantStatusActive, f.tenant.Status)
	assert.Equal(t, "cus_1", f.tenant.StripeCustomerID)

	t.Run("redelivery is a duplicate", func(t *testing.T) {
		result, err := svc.ProcessWebhook(ctx, []byte(checkout), signStripe(checkout))
		require.NoError(t, err)
		assert.True(t, result.Duplicate)
		assert.Contains(t, metrics.outcomes, "stripe/checkout.session.completed/duplicate")
	})

	t.Run("subscription update resolves tenant by customer and plan by price", func(t *testing.T) {
		update := `{"id":"evt_2","object":"event","type":"customer.subscription.updated","data":{"object":{"id":"sub_1","object":"subscription","customer":"cus_1","status":"past_due","current_period_end":1893456000,"items":{"object":"list","data":[{"id":"si_1","price":{"id":"price_starter"}}]}}}}`
		_, err := svc.ProcessWebhook(ctx, []byte(update), signStripe(update))
		require.NoError(t, err)
		assert.Equal(t, identity.TenantStatusPastDue, f.tenant.Status)

		sub, err := f.subs.FindByExternalID(ctx, identity.ProviderStripe, "sub_1")
		require.NoError(t, err)
		assert.Equal(t, identity.TenantPlanStarter, sub.Plan)
		require.NotNil(t, sub.CurrentPeriodEnd)
		assert.Equal(t, int64(1893456000), sub.CurrentPeriodEnd.Unix())
	})

	t.Run("invoice paid records payment and reactivates", func(t *testing.T) {
		paid := `{"id":"evt_3","object":"event","type":"invoice.paid","data":{"object":{"id":"in_1","object":"invoice","customer":"cus_1","subscription":"sub_1","amount_paid":4900,"amount_due":4900,"currency":"usd"}}}`
		_, err := svc.ProcessWebhook(ctx, []byte(paid), signStripe(paid))
		require.NoError(t, err)
		assert.Equal(t, identity.TenantStatusActive, f.tenant.Status)

		rec, err := f.payments.FindByExternalID(ctx, identity.ProviderStripe, "in_1")
		require.NoError(t, err)
		assert.Equal(t, payment.StatusPaid, rec.Status)
		assert.True(t, decimal.RequireFromString("49").Equal(rec.Amount))
		assert.Equal(t, "USD", rec.Currency)
		assert.Equal(t, "sub_1", rec.ReferenceID)
	})

	t.Run("subscription deleted drops to free", func(t *testing.T) {
		deleted := `{"id":"evt_4","object":"event","type":"customer.subscription.deleted","data":{"object":{"id":"sub_1","object":"subscription","customer":"cus_1","status":"canceled"}}}`
		_, err := svc.ProcessWebhook(ctx, []byte(deleted), signStripe(deleted))
		require.NoError(t, err)
		assert.Equal(t, identity.TenantPlanFree, f.tenant.Plan)
	})
}

func TestStripeWebhookService_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newBillingFixture(t, "USD")
	svc := newStripeWebhookService(t, f, nil)

	body := `{"id":"evt_9","object":"event","type":"invoice.paid","data":{"object":{"id":"in_9"}}}`
	_, err := svc.ProcessWebhook(ctx, []byte(body), "t=1,v1=deadbeef")
	assert.True(t, errors.Is(err, shared.ErrUnauthorized))

	f.tenants.On("FindByStripeCustomerID", mock.Anything, "cus_unknown").Return(nil, shared.ErrNotFound)
	f.tenants.On("FindByStripeSubscriptionID", mock.Anything, "sub_unknown").Return(nil, shared.ErrNotFound)
	unknown := `{"id":"evt_10","object":"event","type":"customer.subscription.updated","data":{"object":{"id":"sub_unknown","object":"subscription","customer":"cus_unknown","status":"active"}}}`
	result, err := svc.ProcessWebhook(ctx, []byte(unknown), signStripe(unknown))
	require.NoError(t, err, "events for unknown customers are acknowledged")
	assert.True(t, result.Processed)

	other := `{"id":"evt_11","object":"event","type":"charge.refunded","data":{"object":{"id":"ch_1"}}}`
	result, err = svc.ProcessWebhook(ctx, []byte(other), signStripe(other))
	require.NoError(t, err)
	assert.True(t, result.Processed)
}

type fakePayPalVerifier struct {
	config *billing.PayPalConfig
}

func (v *fakePayPalVerifier) VerifyWebhook(_ context.Context, headers billing.PayPalHeaders, payload []byte) (*billing.PayPalEvent, error) {
	if headers.TransmissionSig != "valid" {
		return nil, billing.ErrInvalidSignature
	}
	var event billing.PayPalEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

func (v *fakePayPalVerifier) Config() *billing.PayPalConfig { return v.config }

func TestPayPalWebhookService(t *testing.T) {
	ctx := context.Background()
	f := newBillingFixture(t, "USD")
	svc := NewPayPalWebhookService(PayPalWebhookServiceConfig{
		Verifier:      &fakePayPalVerifier{config: &billing.PayPalConfig{PlanIDs: map[string]string{"P-PRO": "pro"}}},
		Subscriptions: f.svc,
		SubRepo:       f.subs,
		Payments:      f.payments,
		TX:            shared.NoOpTransactionScope{},
		Idempotency:   newIdempotencyStore(t),
		Logger:        zap.NewNop(),
	})
	headers := billing.PayPalHeaders{TransmissionID: "tx", TransmissionSig: "valid"}

	activated := fmt.Sprintf(`{"id":"WH-1","event_type":"BILLING.SUBSCRIPTION.ACTIVATED","resource":{"id":"I-SUB","plan_id":"P-PRO","status":"ACTIVE","custom_id":"%s","billing_info":{"next_billing_time":"2026-11-16T10:00:00Z"}}}`, f.tenant.ID)
	_, err := svc.ProcessWebhook(ctx, headers, []byte(activated))
	require.NoError(t, err)
	assert.Equal(t, identity.TenantPlanPro, f.tenant.Plan)
	require.NotNil(t, f.tenant.PlanExpiresAt)
	assert.Equal(t, 2026, f.tenant.PlanExpiresAt.Year())

	sale := `{"id":"WH-2","event_type":"PAYMENT.SALE.COMPLETED","resource":{"id":"SALE-1","billing_agreement_id":"I-SUB","state":"completed","amount":{"total":"29.00","currency":"USD"}}}`
	_, err = svc.ProcessWebhook(ctx, headers, []byte(sale))
	require.NoError(t, err)
	rec, err := f.payments.FindByExternalID(ctx, identity.ProviderPayPal, "SALE-1")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPaid, rec.Status)
	assert.True(t, decimal.NewFromInt(29).Equal(rec.Amount))

	suspended := `{"id":"WH-3","event_type":"BILLING.SUBSCRIPTION.SUSPENDED","resource":{"id":"I-SUB","plan_id":"P-PRO","status":"SUSPENDED"}}`
	_, err = svc.ProcessWebhook(ctx, headers, []byte(suspended))
	require.NoError(t, err)
	assert.Equal(t, identity.TenantStatusSuspended, f.tenant.Status)

	_, err = svc.ProcessWebhook(ctx, billing.PayPalHeaders{TransmissionSig: "forged"}, []byte(suspended))
	assert.True(t, errors.Is(err, shared.ErrUnauthorized))
}

type xenditFixture struct {
	*billingFixture
	sales *testutil.MockSaleOrderRepository
	order *pos.SaleOrder
	svc   *XenditWebhookService
}

func newXenditFixture(t *testing.T) *xenditFixture {
	t.Helper()
	f := newBillingFixture(t, "IDR")
	client, err := billing.NewXenditClient(&billing.XenditConfig{SecretKey: "xnd", CallbackToken: "cb-token"}, zap.NewNop())
	require.NoError(t, err)

	sh, err := shift.Open(f.tenant.ID, shared.NewLocationID(uuid.New()), uuid.New(), decimal.Zero)
	require.NoError(t, err)
	order, err := pos.NewSaleOrder(f.tenant.ID, sh, "S-20261016-0001", []pos.LineInput{
		{MenuItemID: uuid.New(), Name: "Es Teh", Quantity: 2, UnitPrice: decimal.NewFromInt(5000)},
	}, decimal.Zero, decimal.Zero, pos.PaymentXendit)
	require.NoError(t, err)
	require.NoError(t, order.AttachPaymentReference("inv_sale"))

	rec, err := payment.NewRecord(f.tenant.ID, identity.ProviderXendit, "inv_sale", payment.PurposeSale,
		order.ID.String(), order.Total, "IDR")
	require.NoError(t, err)
	require.NoError(t, f.payments.Save(context.Background(), rec))

	sales := new(testutil.MockSaleOrderRepository)
	sales.On("FindByPaymentRef", mock.Anything, f.tenant.ID, "inv_sale").Return(order, nil).Maybe()
	sales.On("Save", mock.Anything, order).Return(nil).Maybe()

	return &xenditFixture{
		billingFixture: f,
		sales:          sales,
		order:          order,
		svc: NewXenditWebhookService(XenditWebhookServiceConfig{
			Verifier:      client,
			Subscriptions: f.svc,
			Payments:      f.payments,
			Sales:         sales,
			TX:            shared.NoOpTransactionScope{},
			Idempotency:   newIdempotencyStore(t),
			Logger:        zap.NewNop(),
		}),
	}
}

func TestXenditWebhookService_SalePaid(t *testing.T) {
	ctx := context.Background()
	f := newXenditFixture(t)
	body := []byte(`{"id":"inv_sale","external_id":"sale-x","status":"PAID","paid_amount":10000,"currency":"IDR"}`)

	result, err := f.svc.ProcessCallback(ctx, body, "cb-token")
	require.NoError(t, err)
	assert.True(t, result.Processed)
	assert.Equal(t, pos.PaymentPaid, f.order.PaymentStatus)

	rec, err := f.payments.FindByExternalID(ctx, identity.ProviderXendit, "inv_sale")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusPaid, rec.Status)
	assert.NotNil(t, rec.PaidAt)

	settled := []byte(strings.Replace(string(body), "PAID", "SETTLED", 1))
	result, err = f.svc.ProcessCallback(ctx, settled, "cb-token")
	require.NoError(t, err)
	assert.False(t, result.Duplicate, "settlement is a distinct status")
	f.sales.AssertNumberOfCalls(t, "Save", 1)

	result, err = f.svc.ProcessCallback(ctx, body, "cb-token")
	require.NoError(t, err)
	assert.True(t, result.Duplicate)
}

func TestXenditWebhookService_SaleExpired(t *testing.T) {
	f := newXenditFixture(t)
	body := []byte(`{"id":"inv_sale","external_id":"sale-x","status":"EXPIRED"}`)

	_, err := f.svc.ProcessCallback(context.Background(), body, "cb-token")
	require.NoError(t, err)
	assert.Equal(t, pos.PaymentFailed, f.order.PaymentStatus)
}

func TestXenditWebhookService_Subscription(t *testing.T) {
	ctx := context.Background()
	f := newXenditFixture(t)
	rec, err := payment.NewRecord(f.tenant.ID, identity.ProviderXendit, "inv_sub", payment.PurposeSubscription,
		"pro", decimal.NewFromInt(299000), "IDR")
	require.NoError(t, err)
	require.NoError(t, f.payments.Save(ctx, rec))

	_, err = f.svc.ProcessCallback(ctx, []byte(`{"id":"inv_sub","external_id":"sub-x","status":"PAID"}`), "cb-token")
	require.NoError(t, err)
	assert.Equal(t, identity.TenantPlanPro, f.tenant.Plan)
	assert.Equal(t, identity.TenantStatusActive, f.tenant.Status)
	require.NotNil(t, f.tenant.PlanExpiresAt)
	assert.True(t, f.tenant.PlanExpiresAt.After(time.Now().Add(29*24*time.Hour)))
}

func TestXenditWebhookService_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newXenditFixture(t)

	_, err := f.svc.ProcessCallback(ctx, []byte(`{"id":"inv_sale","external_id":"x","status":"PAID"}`), "wrong")
	assert.True(t, errors.Is(err, shared.ErrUnauthorized))

	_, err = f.svc.ProcessCallback(ctx, []byte(`not json`), "cb-token")
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))

	result, err := f.svc.ProcessCallback(ctx, []byte(`{"id":"inv_unknown","external_id":"x","status":"PAID"}`), "cb-token")
	require.NoError(t, err, "unknown invoices are acknowledged")
	assert.True(t, result.Processed)

	result, err = f.svc.ProcessCallback(ctx, []byte(`{"id":"inv_sale","external_id":"x","status":"PENDING"}`), "cb-token")
	require.NoError(t, err)
	assert.Equal(t, "Status not handled", result.Message)
	assert.Equal(t, pos.PaymentPending, f.order.PaymentStatus)
}

func TestWebhookGuard_ConcurrentDeliveriesRunOnce(t *testing.T) {
	guard := webhookGuard{store: newIdempotencyStore(t), logger: zap.NewNop()}
	ctx := context.Background()

	var calls atomic.Int32
	release := make(chan struct{})
	var wg sync.WaitGroup
	results := make([]*WebhookResult, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := guard.run(ctx, "stripe", "evt_concurrent", "invoice.paid", func(context.Context) error {
				calls.Add(1)
				<-release
				return nil
			})
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, calls.Load())
	duplicates := 0
	for _, res := range results {
		require.NotNil(t, res)
		assert.True(t, res.Processed)
		if res.Duplicate {
			duplicates++
		}
	}
	assert.Equal(t, len(results)-1, duplicates)
}

func TestWebhookGuard_FailureReleasesKey(t *testing.T) {
	rec := &countingRecorder{}
	guard := webhookGuard{store: newIdempotencyStore(t), metrics: rec, logger: zap.NewNop()}
	ctx := context.Background()

	boom := errors.New("db down")
	res, err := guard.run(ctx, "xendit", "inv_9", "PAID", func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, res.Processed)

	calls := 0
	res, err = guard.run(ctx, "xendit", "inv_9", "PAID", func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "the retried delivery is processed")
	assert.False(t, res.Duplicate)

	res, err = guard.run(ctx, "xendit", "inv_9", "PAID", func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"xendit/PAID/failed", "xendit/PAID/processed", "xendit/PAID/duplicate"}, rec.outcomes)
}
