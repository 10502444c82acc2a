// Package assistant holds the chat history of the business assistant.
package assistant

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/coretrack/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// MaxQuestionLength bounds a single user question in runes
const MaxQuestionLength = 4000

const titleLength = 60

// Role is the author of a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Conversation groups the messages of one user thread
type Conversation struct {
	shared.TenantAggregateRoot
	UserID uuid.UUID
	Title  string
}

// NewConversation starts a thread titled after the first question
func NewConversation(tenantID, userID uuid.UUID, firstQuestion string) *Conversation {
	c := &Conversation{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		UserID:              userID,
		Title:               titleFrom(firstQuestion),
	}
	c.SetCreatedBy(userID)
	return c
}

func titleFrom(q string) string {
	q = strings.Join(strings.Fields(q), " ")
	if utf8.RuneCountInString(q) <= titleLength {
		return q
	}
	r := []rune(q)
	return strings.TrimSpace(string(r[:titleLength])) + "..."
}

// Message is one turn in a conversation
type Message struct {
	shared.BaseEntity
	TenantID       uuid.UUID
	ConversationID uuid.UUID
	Role           Role
	Content        string
	TokensIn       int32
	TokensOut      int32
}

// NewMessage creates a message; content is trimmed and must not be empty
func NewMessage(tenantID, conversationID uuid.UUID, role Role, content string) (*Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Message cannot be empty")
	}
	if role == RoleUser && utf8.RuneCountInString(content) > MaxQuestionLength {
		return nil, shared.NewDomainError("INVALID_INPUT", "Question is too long")
	}
	return &Message{
		BaseEntity:     shared.NewBaseEntity(),
		TenantID:       tenantID,
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
	}, nil
}

// ConversationRepository persists conversations and their messages
type ConversationRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Conversation, error)
	FindByUser(ctx context.Context, tenantID, userID uuid.UUID, filter shared.Filter) ([]Conversation, int64, error)
	Save(ctx context.Context, c *Conversation) error
	AppendMessages(ctx context.Context, msgs ...*Message) error
	// Messages returns the latest limit messages in chronological order
	Messages(ctx context.Context, tenantID, conversationID uuid.UUID, limit int) ([]Message, error)
}
