package handler

import (
	"context"

	assistantapp "github.com/coretrack/backend/internal/application/assistant"
	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AssistantService is the AI assistant API used by AssistantHandler
type AssistantService interface {
	Ask(ctx context.Context, actor identity.Actor, req assistantapp.AskRequest) (*assistantapp.AskResponse, error)
	ListConversations(ctx context.Context, actor identity.Actor, f assistantapp.ConversationListFilter) ([]assistantapp.ConversationResponse, int64, error)
	GetConversation(ctx context.Context, actor identity.Actor, id uuid.UUID) (*assistantapp.ConversationDetailResponse, error)
}

// AssistantHandler serves /assistant
type AssistantHandler struct {
	BaseHandler
	service AssistantService
}

// NewAssistantHandler creates an AssistantHandler
func NewAssistantHandler(service AssistantService) *AssistantHandler {
	return &AssistantHandler{service: service}
}

// Ask handles POST /assistant/ask
// @ID           assistantAsk
// @Summary      Ask the business assistant
// @Tags         assistant
// @Accept       json
// @Produce      json
// @Param        request body assistantapp.AskRequest true "Request body"
// @Success      200 {object} dto.Response{data=assistantapp.AskResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /assistant/ask [post]
func (h *AssistantHandler) Ask(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req assistantapp.AskRequest
	if !h.BindJSON(c, &req) {
		return
	}
	answer, err := h.service.Ask(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, answer)
}

// ListConversations handles GET /assistant/conversations
// @ID           assistantListConversations
// @Summary      List conversations
// @Tags         assistant
// @Produce      json
// @Param        filter query assistantapp.ConversationListFilter false "Filters"
// @Success      200 {object} dto.Response{data=[]assistantapp.ConversationResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /assistant/conversations [get]
func (h *AssistantHandler) ListConversations(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var f assistantapp.ConversationListFilter
	if !h.BindQuery(c, &f) {
		return
	}
	f.Page, f.PageSize = paging(f.Page, f.PageSize)
	conversations, total, err := h.service.ListConversations(c.Request.Context(), actor, f)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, conversations, total, f.Page, f.PageSize)
}

// GetConversation handles GET /assistant/conversations/:id
// @ID           assistantGetConversation
// @Summary      Get conversation
// @Tags         assistant
// @Produce      json
// @Param        id path string true "ID of the assistant" format(uuid)
// @Success      200 {object} dto.Response{data=assistantapp.ConversationDetailResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /assistant/conversations/{id} [get]
func (h *AssistantHandler) GetConversation(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	conversation, err := h.service.GetConversation(c.Request.Context(), actor, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, conversation)
}
