package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/coretrack/backend/internal/domain/assistant"
	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/domain/report"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/infrastructure/gemini"
	"github.com/coretrack/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeModel struct {
	prompt gemini.Prompt
	reply  string
	err    error
}

func (m *fakeModel) Complete(_ context.Context, p gemini.Prompt) (*gemini.Completion, error) {
	m.prompt = p
	if m.err != nil {
		return nil, m.err
	}
	return &gemini.Completion{Text: m.reply, TokensIn: 120, TokensOut: 30}, nil
}

type assistantFixture struct {
	conversations *testutil.MockConversationRepository
	reports       *testutil.MockReportRepository
	tenants       *testutil.MockTenantRepository
	model         *fakeModel
	svc           *AssistantService
	tenant        *identity.Tenant
	owner         identity.Actor
}

func newAssistantFixture(t *testing.T) *assistantFixture {
	t.Helper()
	tenant, err := identity.NewTrialTenant("Kopi Kita", "owner@kopikita.example", 14)
	require.NoError(t, err)

	f := &assistantFixture{
		conversations: new(testutil.MockConversationRepository),
		reports:       new(testutil.MockReportRepository),
		tenants:       new(testutil.MockTenantRepository),
		model:         &fakeModel{reply: "Beans are running low, reorder 8 kg."},
		tenant:        tenant,
		owner:         identity.Actor{TenantID: tenant.ID, UserID: uuid.New(), Role: identity.RoleOwner},
	}
	f.svc = NewAssistantService(AssistantServiceConfig{
		Conversations: f.conversations,
		Reports:       f.reports,
		Tenants:       f.tenants,
		Model:         f.model,
		TX:            shared.NoOpTransactionScope{},
		History:       10,
		Logger:        zap.NewNop(),
	})
	f.svc.now = func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) }
	return f
}

func (f *assistantFixture) expectSnapshot() {
	f.tenants.On("FindByID", mock.Anything, f.tenant.ID).Return(f.tenant, nil)
	f.reports.On("SalesSummary", mock.Anything, mock.Anything).Return(&report.SalesSummary{
		OrderCount:    4,
		NetSales:      decimal.NewFromInt(48),
		AverageTicket: decimal.NewFromInt(12),
	}, nil)
	f.reports.On("LowStock", mock.Anything, mock.Anything).Return([]report.LowStockRow{{
		Name:             "Beans",
		Unit:             "kg",
		Quantity:         decimal.NewFromInt(2),
		MinStock:         decimal.NewFromInt(5),
		SuggestedReorder: decimal.NewFromInt(8),
	}}, nil)
	f.reports.On("OpenPurchaseOrders", mock.Anything, mock.Anything).Return([]report.OpenPurchaseOrder{}, nil)
}

func TestAssistantService_Ask(t *testing.T) {
	ctx := context.Background()

	t.Run("starts a conversation and stores both messages", func(t *testing.T) {
		f := newAssistantFixture(t)
		f.expectSnapshot()
		f.conversations.On("Save", ctx, mock.AnythingOfType("*assistant.Conversation")).Return(nil)
		f.conversations.On("AppendMessages", ctx, mock.MatchedBy(func(msgs []*assistant.Message) bool {
			return len(msgs) == 2 &&
				msgs[0].Role == assistant.RoleUser &&
				msgs[1].Role == assistant.RoleAssistant &&
				msgs[1].TokensOut == 30
		})).Return(nil)

		resp, err := f.svc.Ask(ctx, f.owner, AskRequest{Question: "What should I reorder?"})
		require.NoError(t, err)
		assert.Equal(t, "What should I reorder?", resp.Title)
		assert.Equal(t, "Beans are running low, reorder 8 kg.", resp.Answer.Content)
		assert.True(t, resp.Answer.CreatedAt.After(resp.Question.CreatedAt))

		assert.Empty(t, f.model.prompt.History)
		assert.Contains(t, f.model.prompt.System, "Kopi Kita")
		assert.Contains(t, f.model.prompt.System, "Beans: 2 kg left (min 5), reorder 8")
		assert.Contains(t, f.model.prompt.System, "orders: 4, net sales: 48.00")
		f.conversations.AssertExpectations(t)
	})

	t.Run("continues an existing conversation with its history", func(t *testing.T) {
		f := newAssistantFixture(t)
		f.expectSnapshot()
		conv := assistant.NewConversation(f.tenant.ID, f.owner.UserID, "Sales today?")
		conv.MarkPersisted()
		q, _ := assistant.NewMessage(f.tenant.ID, conv.ID, assistant.RoleUser, "Sales today?")
		a, _ := assistant.NewMessage(f.tenant.ID, conv.ID, assistant.RoleAssistant, "4 orders so far.")

		f.conversations.On("FindByID", ctx, f.tenant.ID, conv.ID).Return(conv, nil)
		f.conversations.On("Messages", ctx, f.tenant.ID, conv.ID, 10).Return([]assistant.Message{*q, *a}, nil)
		f.conversations.On("Save", ctx, conv).Return(nil)
		f.conversations.On("AppendMessages", ctx, mock.Anything).Return(nil)

		resp, err := f.svc.Ask(ctx, f.owner, AskRequest{ConversationID: &conv.ID, Question: "And stock?"})
		require.NoError(t, err)
		assert.Equal(t, conv.ID, resp.ConversationID)
		require.Len(t, f.model.prompt.History, 2)
		assert.True(t, f.model.prompt.History[0].FromUser)
		assert.False(t, f.model.prompt.History[1].FromUser)
		assert.Equal(t, "And stock?", f.model.prompt.Question)
	})

	t.Run("another user's conversation is not found", func(t *testing.T) {
		f := newAssistantFixture(t)
		conv := assistant.NewConversation(f.tenant.ID, uuid.New(), "Private")
		f.conversations.On("FindByID", ctx, f.tenant.ID, conv.ID).Return(conv, nil)

		_, err := f.svc.Ask(ctx, f.owner, AskRequest{ConversationID: &conv.ID, Question: "Hi"})
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("disabled assistant", func(t *testing.T) {
		f := newAssistantFixture(t)
		f.svc.model = nil
		_, err := f.svc.Ask(ctx, f.owner, AskRequest{Question: "Hi"})
		assert.True(t, errors.Is(err, shared.ErrFeatureDisabled))
		assert.False(t, f.svc.Enabled())
	})

	t.Run("model failure stores nothing", func(t *testing.T) {
		f := newAssistantFixture(t)
		f.expectSnapshot()
		f.model.err = errors.New("quota exhausted")

		_, err := f.svc.Ask(ctx, f.owner, AskRequest{Question: "Hi"})
		assert.Equal(t, ErrAssistantUnavailable.Code, shared.ErrorCode(err))
		f.conversations.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("staff without a location are forbidden", func(t *testing.T) {
		f := newAssistantFixture(t)
		staff := identity.Actor{TenantID: f.tenant.ID, UserID: uuid.New(), Role: identity.RoleStaff}
		_, err := f.svc.Ask(ctx, staff, AskRequest{Question: "Hi"})
		assert.True(t, errors.Is(err, shared.ErrForbidden))
	})

	t.Run("staff default to their location", func(t *testing.T) {
		f := newAssistantFixture(t)
		f.expectSnapshot()
		loc := shared.NewLocationID(uuid.New())
		staff := identity.Actor{TenantID: f.tenant.ID, UserID: uuid.New(), Role: identity.RoleStaff,
			LocationIDs: []shared.LocationID{loc}}
		f.conversations.On("Save", ctx, mock.Anything).Return(nil)
		f.conversations.On("AppendMessages", ctx, mock.Anything).Return(nil)

		_, err := f.svc.Ask(ctx, staff, AskRequest{Question: "How are we doing?"})
		require.NoError(t, err)
		assert.Contains(t, f.model.prompt.System, "Scope: location "+loc.String())
		f.reports.AssertCalled(t, "LowStock", mock.Anything, mock.MatchedBy(func(flt report.Filter) bool {
			return flt.LocationID == loc
		}))
	})
}

func TestAssistantService_GetConversation(t *testing.T) {
	ctx := context.Background()
	f := newAssistantFixture(t)
	conv := assistant.NewConversation(f.tenant.ID, f.owner.UserID, "Sales today?")
	q, _ := assistant.NewMessage(f.tenant.ID, conv.ID, assistant.RoleUser, "Sales today?")
	f.conversations.On("FindByID", ctx, f.tenant.ID, conv.ID).Return(conv, nil)
	f.conversations.On("Messages", ctx, f.tenant.ID, conv.ID, maxThreadMessages).Return([]assistant.Message{*q}, nil)

	resp, err := f.svc.GetConversation(ctx, f.owner, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sales today?", resp.Title)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "user", resp.Messages[0].Role)
}

func TestAssistantService_ListConversations(t *testing.T) {
	ctx := context.Background()
	f := newAssistantFixture(t)
	convs := []assistant.Conversation{
		*assistant.NewConversation(f.tenant.ID, f.owner.UserID, "One"),
		*assistant.NewConversation(f.tenant.ID, f.owner.UserID, "Two"),
	}
	f.conversations.On("FindByUser", ctx, f.tenant.ID, f.owner.UserID, mock.MatchedBy(func(flt shared.Filter) bool {
		return flt.Page == 2 && flt.PageSize == 5
	})).Return(convs, int64(7), nil)

	out, total, err := f.svc.ListConversations(ctx, f.owner, ConversationListFilter{Page: 2, PageSize: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(7), total)
	require.Len(t, out, 2)
	assert.Equal(t, "Two", out[1].Title)
}

func TestBuildInstruction_TruncatesLists(t *testing.T) {
	tenant, err := identity.NewTrialTenant("Kopi Kita", "owner@kopikita.example", 14)
	require.NoError(t, err)
	rows := make([]report.LowStockRow, maxLowStockLines+3)
	for i := range rows {
		rows[i] = report.LowStockRow{Name: "Item", Unit: "pcs"}
	}

	text := BuildInstruction(tenant, "", time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), nil, rows, nil)
	assert.Contains(t, text, "Scope: all locations.")
	assert.Contains(t, text, "no completed sales yet")
	assert.Contains(t, text, "- and 3 more")
	assert.Contains(t, text, "Open purchase orders:\n- none")
	assert.Equal(t, maxLowStockLines, strings.Count(text, "- Item:"))
}
