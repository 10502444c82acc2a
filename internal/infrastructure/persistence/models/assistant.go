package models

import (
	"time"

	"github.com/coretrack/backend/internal/domain/assistant"
	"github.com/google/uuid"
)

// ConversationModel is the persistence model for assistant conversations.
type ConversationModel struct {
	TenantAggregateModel
	UserID uuid.UUID `gorm:"type:uuid;not null;index"`
	Title  string    `gorm:"type:varchar(100);not null"`
}

// TableName returns the table name for GORM
func (ConversationModel) TableName() string {
	return "assistant_conversations"
}

// ToDomain converts the persistence model to a domain Conversation.
func (m *ConversationModel) ToDomain() *assistant.Conversation {
	return &assistant.Conversation{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(),
		UserID:              m.UserID,
		Title:               m.Title,
	}
}

// ConversationModelFromDomain creates a persistence model from a domain Conversation.
func ConversationModelFromDomain(c *assistant.Conversation) *ConversationModel {
	m := &ConversationModel{
		UserID: c.UserID,
		Title:  c.Title,
	}
	m.FromDomainTenantAggregateRoot(c.TenantAggregateRoot)
	return m
}

// MessageModel is one message of an assistant conversation.
type MessageModel struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey"`
	TenantID       uuid.UUID      `gorm:"type:uuid;not null;index"`
	ConversationID uuid.UUID      `gorm:"type:uuid;not null;index:idx_message_conversation,priority:1"`
	Role           assistant.Role `gorm:"type:varchar(20);not null"`
	Content        string         `gorm:"type:text;not null"`
	TokensIn       int32          `gorm:"not null;default:0"`
	TokensOut      int32          `gorm:"not null;default:0"`
	CreatedAt      time.Time      `gorm:"not null;index:idx_message_conversation,priority:2"`
}

// TableName returns the table name for GORM
func (MessageModel) TableName() string {
	return "assistant_messages"
}

// ToDomain converts the persistence model to a domain Message.
func (m *MessageModel) ToDomain() *assistant.Message {
	msg := &assistant.Message{
		TenantID:       m.TenantID,
		ConversationID: m.ConversationID,
		Role:           m.Role,
		Content:        m.Content,
		TokensIn:       m.TokensIn,
		TokensOut:      m.TokensOut,
	}
	msg.ID = m.ID
	msg.CreatedAt = m.CreatedAt
	msg.UpdatedAt = m.CreatedAt
	return msg
}

// MessageModelFromDomain creates a persistence model from a domain Message.
func MessageModelFromDomain(msg *assistant.Message) *MessageModel {
	return &MessageModel{
		ID:             msg.ID,
		TenantID:       msg.TenantID,
		ConversationID: msg.ConversationID,
		Role:           msg.Role,
		Content:        msg.Content,
		TokensIn:       msg.TokensIn,
		TokensOut:      msg.TokensOut,
		CreatedAt:      msg.CreatedAt,
	}
}
