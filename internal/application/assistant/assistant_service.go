package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coretrack/backend/internal/domain/assistant"
	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/domain/report"
	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/coretrack/backend/internal/infrastructure/gemini"
	"github.com/coretrack/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultHistory    = 20
	maxThreadMessages = 200
	maxLowStockLines  = 20
	maxOpenOrderLines = 10
)

// ErrAssistantUnavailable is returned when the model call fails
var ErrAssistantUnavailable = shared.NewDomainError("ASSISTANT_UNAVAILABLE", "Assistant is unavailable, try again later")

// Model completes chat prompts
type Model interface {
	Complete(ctx context.Context, p gemini.Prompt) (*gemini.Completion, error)
}

// AssistantService answers business questions with live store data as context
type AssistantService struct {
	conversations assistant.ConversationRepository
	reports       report.Repository
	tenants       identity.TenantRepository
	model         Model
	tx            shared.TransactionScope
	history       int
	logger        *zap.Logger
	now           func() time.Time
}

// AssistantServiceConfig contains configuration for AssistantService
type AssistantServiceConfig struct {
	Conversations assistant.ConversationRepository
	Reports       report.Repository
	Tenants       identity.TenantRepository
	// Model is nil when the assistant is disabled
	Model   Model
	TX      shared.TransactionScope
	History int
	Logger  *zap.Logger
}

// NewAssistantService creates a new AssistantService
func NewAssistantService(cfg AssistantServiceConfig) *AssistantService {
	history := cfg.History
	if history <= 0 {
		history = defaultHistory
	}
	return &AssistantService{
		conversations: cfg.Conversations,
		reports:       cfg.Reports,
		tenants:       cfg.Tenants,
		model:         cfg.Model,
		tx:            cfg.TX,
		history:       history,
		logger:        cfg.Logger,
		now:           time.Now,
	}
}

// Enabled reports whether a model is configured
func (s *AssistantService) Enabled() bool {
	return s.model != nil
}

// Ask answers a question, starting a new conversation when none is given
func (s *AssistantService) Ask(ctx context.Context, actor identity.Actor, req AskRequest) (*AskResponse, error) {
	if s.model == nil {
		return nil, shared.WrapDomainError(shared.ErrFeatureDisabled.Code, "The assistant is not enabled", shared.ErrFeatureDisabled)
	}
	loc, err := s.scope(actor, req.LocationID)
	if err != nil {
		return nil, err
	}

	var (
		conv    *assistant.Conversation
		history []assistant.Message
	)
	if req.ConversationID != nil {
		conv, err = s.ownConversation(ctx, actor, *req.ConversationID)
		if err != nil {
			return nil, err
		}
		history, err = s.conversations.Messages(ctx, actor.TenantID, conv.ID, s.history)
		if err != nil {
			return nil, err
		}
	} else {
		conv = assistant.NewConversation(actor.TenantID, actor.UserID, req.Question)
	}

	question, err := assistant.NewMessage(actor.TenantID, conv.ID, assistant.RoleUser, req.Question)
	if err != nil {
		return nil, err
	}

	system, err := s.systemInstruction(ctx, actor, loc)
	if err != nil {
		return nil, err
	}

	prompt := gemini.Prompt{System: system, Question: question.Content}
	for _, m := range history {
		prompt.History = append(prompt.History, gemini.Turn{FromUser: m.Role == assistant.RoleUser, Text: m.Content})
	}

	completion, err := s.model.Complete(ctx, prompt)
	if err != nil {
		logger.L(ctx).Error("assistant completion failed",
			zap.String("conversation_id", conv.ID.String()),
			zap.Error(err))
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, shared.WrapDomainError(ErrAssistantUnavailable.Code, ErrAssistantUnavailable.Message, err)
	}

	answer, err := assistant.NewMessage(actor.TenantID, conv.ID, assistant.RoleAssistant, completion.Text)
	if err != nil {
		return nil, err
	}
	answer.TokensIn = completion.TokensIn
	answer.TokensOut = completion.TokensOut
	// Keep the answer strictly after the question in chronological listings.
	if !answer.CreatedAt.After(question.CreatedAt) {
		answer.CreatedAt = question.CreatedAt.Add(time.Millisecond)
		answer.UpdatedAt = answer.CreatedAt
	}

	err = s.tx.Execute(ctx, func(ctx context.Context) error {
		if !conv.IsNew() {
			conv.Touch()
		}
		if err := s.conversations.Save(ctx, conv); err != nil {
			return err
		}
		return s.conversations.AppendMessages(ctx, question, answer)
	})
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("assistant answered",
		zap.String("conversation_id", conv.ID.String()),
		zap.Int32("tokens_in", answer.TokensIn),
		zap.Int32("tokens_out", answer.TokensOut))

	return &AskResponse{
		ConversationID: conv.ID,
		Title:          conv.Title,
		Question:       ToMessageResponse(question),
		Answer:         ToMessageResponse(answer),
	}, nil
}

// ListConversations lists the caller's own conversations, newest first
func (s *AssistantService) ListConversations(ctx context.Context, actor identity.Actor, f ConversationListFilter) ([]ConversationResponse, int64, error) {
	filter := shared.DefaultFilter()
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = f.PageSize
	}
	convs, total, err := s.conversations.FindByUser(ctx, actor.TenantID, actor.UserID, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]ConversationResponse, len(convs))
	for i := range convs {
		out[i] = ToConversationResponse(&convs[i])
	}
	return out, total, nil
}

// GetConversation returns one of the caller's conversations with its messages
func (s *AssistantService) GetConversation(ctx context.Context, actor identity.Actor, id uuid.UUID) (*ConversationDetailResponse, error) {
	conv, err := s.ownConversation(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	msgs, err := s.conversations.Messages(ctx, actor.TenantID, conv.ID, maxThreadMessages)
	if err != nil {
		return nil, err
	}
	resp := ConversationDetailResponse{
		ConversationResponse: ToConversationResponse(conv),
		Messages:             make([]MessageResponse, len(msgs)),
	}
	for i := range msgs {
		resp.Messages[i] = ToMessageResponse(&msgs[i])
	}
	return &resp, nil
}

// ownConversation hides other users' threads behind NOT_FOUND
func (s *AssistantService) ownConversation(ctx context.Context, actor identity.Actor, id uuid.UUID) (*assistant.Conversation, error) {
	conv, err := s.conversations.FindByID(ctx, actor.TenantID, id)
	if err != nil {
		return nil, err
	}
	if conv.UserID != actor.UserID {
		return nil, shared.ErrNotFound
	}
	return conv, nil
}

// scope picks the location the context snapshot covers
func (s *AssistantService) scope(actor identity.Actor, location string) (shared.LocationID, error) {
	if location != "" {
		loc, err := shared.ParseLocationID(location)
		if err != nil {
			return "", err
		}
		if err := actor.RequireLocation(loc); err != nil {
			return "", err
		}
		return loc, nil
	}
	if actor.Role.CanManage() {
		return "", nil
	}
	if len(actor.LocationIDs) == 0 {
		return "", shared.WrapDomainError(shared.ErrForbidden.Code, "No location assigned", shared.ErrForbidden)
	}
	return actor.LocationIDs[0], nil
}

type snapshot struct {
	sales    *report.SalesSummary
	lowStock []report.LowStockRow
	orders   []report.OpenPurchaseOrder
}

// systemInstruction describes the business and today's numbers
func (s *AssistantService) systemInstruction(ctx context.Context, actor identity.Actor, loc shared.LocationID) (string, error) {
	tenant, err := s.tenants.FindByID(ctx, actor.TenantID)
	if err != nil {
		return "", err
	}
	now := s.now().UTC()
	f, err := report.NewFilter(actor.TenantID, loc.String(), time.Time{}, now, now)
	if err != nil {
		return "", err
	}

	var snap snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		snap.sales, err = s.reports.SalesSummary(gctx, f)
		return err
	})
	g.Go(func() (err error) {
		snap.lowStock, err = s.reports.LowStock(gctx, f)
		return err
	})
	g.Go(func() (err error) {
		snap.orders, err = s.reports.OpenPurchaseOrders(gctx, f)
		return err
	})
	if err := g.Wait(); err != nil {
		return "", err
	}
	return BuildInstruction(tenant, loc, now, snap.sales, snap.lowStock, snap.orders), nil
}

// BuildInstruction renders the system instruction for a business snapshot
func BuildInstruction(tenant *identity.Tenant, loc shared.LocationID, now time.Time,
	sales *report.SalesSummary, lowStock []report.LowStockRow, orders []report.OpenPurchaseOrder) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are the business assistant of %s, a store using CoreTrack.\n", tenant.Name)
	b.WriteString("Answer questions about sales, stock, purchasing and staff using the data below. ")
	b.WriteString("Be brief and practical. If the data does not answer the question, say so.\n")
	fmt.Fprintf(&b, "Currency: %s. Today (UTC): %s.\n", tenant.Currency, now.Format(time.DateOnly))
	if loc.IsZero() {
		b.WriteString("Scope: all locations.\n")
	} else {
		fmt.Fprintf(&b, "Scope: location %s.\n", loc)
	}

	b.WriteString("\nToday's sales:\n")
	if sales == nil || sales.OrderCount == 0 {
		b.WriteString("- no completed sales yet\n")
	} else {
		fmt.Fprintf(&b, "- orders: %d, net sales: %s, average ticket: %s, voided: %d\n",
			sales.OrderCount, sales.NetSales.StringFixed(2), sales.AverageTicket.StringFixed(2), sales.VoidedCount)
		for _, item := range sales.TopItems {
			fmt.Fprintf(&b, "- top #%d %s: %d sold, %s revenue\n", item.Rank, item.Name, item.Quantity, item.Revenue.StringFixed(2))
		}
	}

	b.WriteString("\nLow stock:\n")
	if len(lowStock) == 0 {
		b.WriteString("- nothing below minimum\n")
	}
	for i, row := range lowStock {
		if i == maxLowStockLines {
			fmt.Fprintf(&b, "- and %d more\n", len(lowStock)-i)
			break
		}
		fmt.Fprintf(&b, "- %s: %s %s left (min %s), reorder %s\n",
			row.Name, row.Quantity.String(), row.Unit, row.MinStock.String(), row.SuggestedReorder.String())
	}

	b.WriteString("\nOpen purchase orders:\n")
	if len(orders) == 0 {
		b.WriteString("- none\n")
	}
	for i, po := range orders {
		if i == maxOpenOrderLines {
			fmt.Fprintf(&b, "- and %d more\n", len(orders)-i)
			break
		}
		line := fmt.Sprintf("- %s from %s, %s, total %s", po.Number, po.SupplierName, po.Status, po.Total.StringFixed(2))
		if po.ExpectedAt != nil {
			line += ", expected " + po.ExpectedAt.Format(time.DateOnly)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}
