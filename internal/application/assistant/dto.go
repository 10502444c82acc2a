package assistant

import (
	"time"

	"github.com/coretrack/backend/internal/domain/assistant"
	"github.com/google/uuid"
)

// AskRequest is a question for the assistant
type AskRequest struct {
	ConversationID *uuid.UUID `json:"conversation_id"`
	Question       string     `json:"question" binding:"required,max=4000"`
	LocationID     string     `json:"location_id" binding:"omitempty,location_id"`
}

// ConversationListFilter is bound from list query parameters
type ConversationListFilter struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// MessageResponse is one chat message
type MessageResponse struct {
	ID        uuid.UUID `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	TokensIn  int32     `json:"tokens_in,omitempty"`
	TokensOut int32     `json:"tokens_out,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversationResponse summarises a thread
type ConversationResponse struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConversationDetailResponse is a thread with its messages
type ConversationDetailResponse struct {
	ConversationResponse
	Messages []MessageResponse `json:"messages"`
}

// AskResponse is the assistant's answer
type AskResponse struct {
	ConversationID uuid.UUID       `json:"conversation_id"`
	Title          string          `json:"title"`
	Question       MessageResponse `json:"question"`
	Answer         MessageResponse `json:"answer"`
}

// ToMessageResponse converts a domain message
func ToMessageResponse(m *assistant.Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		Role:      string(m.Role),
		Content:   m.Content,
		TokensIn:  m.TokensIn,
		TokensOut: m.TokensOut,
		CreatedAt: m.CreatedAt,
	}
}

// ToConversationResponse converts a domain conversation
func ToConversationResponse(c *assistant.Conversation) ConversationResponse {
	return ConversationResponse{
		ID:        c.ID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
