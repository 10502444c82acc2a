package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	syncapp "github.com/coretrack/backend/internal/application/datasync"
	"github.com/coretrack/backend/internal/domain/identity"
	"github.com/coretrack/backend/internal/infrastructure/logger"
	"github.com/coretrack/backend/internal/infrastructure/realtime"
	"github.com/coretrack/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SyncService is the offline sync API used by SyncHandler
type SyncService interface {
	Push(ctx context.Context, actor identity.Actor, req syncapp.PushRequest) (*syncapp.PushResponse, error)
	Pull(ctx context.Context, actor identity.Actor, req syncapp.PullRequest) (*syncapp.PullResponse, error)
	ListConflicts(ctx context.Context, actor identity.Actor, page, pageSize int) ([]syncapp.ConflictResponse, int64, error)
	ResolveConflict(ctx context.Context, actor identity.Actor, id uuid.UUID, req syncapp.ResolveConflictRequest) (*syncapp.ResolveConflictResponse, error)
	Heartbeat(ctx context.Context, actor identity.Actor, req syncapp.HeartbeatRequest) (*syncapp.SessionResponse, error)
	Sessions(ctx context.Context, actor identity.Actor) ([]syncapp.SessionResponse, error)
}

// ChangeStreamer serves the tenant change feed
type ChangeStreamer interface {
	SSE(w http.ResponseWriter, r *http.Request, tenantID, userID uuid.UUID) error
	WebSocket(w http.ResponseWriter, r *http.Request, tenantID, userID uuid.UUID, onMessage func(context.Context, []byte)) error
}

// SyncHandler serves /sync
type SyncHandler struct {
	BaseHandler
	service  SyncService
	streamer ChangeStreamer
}

// NewSyncHandler creates a SyncHandler
func NewSyncHandler(service SyncService, streamer ChangeStreamer) *SyncHandler {
	return &SyncHandler{service: service, streamer: streamer}
}

// Push handles POST /sync/push
// @ID           syncPush
// @Summary      Push local changes
// @Tags         sync
// @Accept       json
// @Produce      json
// @Param        request body syncapp.PushRequest true "Request body"
// @Success      200 {object} dto.Response{data=syncapp.PushResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /sync/push [post]
func (h *SyncHandler) Push(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req syncapp.PushRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.service.Push(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Pull handles GET /sync/pull?collection=&since=
// @ID           syncPull
// @Summary      Pull changed documents
// @Tags         sync
// @Produce      json
// @Param        filter query syncapp.PullRequest false "Filters"
// @Success      200 {object} dto.Response{data=syncapp.PullResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /sync/pull [get]
func (h *SyncHandler) Pull(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req syncapp.PullRequest
	if !h.BindQuery(c, &req) {
		return
	}
	result, err := h.service.Pull(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ListConflicts handles GET /sync/conflicts
// @ID           syncListConflicts
// @Summary      List conflicts
// @Tags         sync
// @Produce      json
// @Param        filter query dto.ListRequest false "Filters"
// @Success      200 {object} dto.Response{data=[]syncapp.ConflictResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /sync/conflicts [get]
func (h *SyncHandler) ListConflicts(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req dto.ListRequest
	if !h.BindQuery(c, &req) {
		return
	}
	req.Normalize()
	conflicts, total, err := h.service.ListConflicts(c.Request.Context(), actor, req.Page, req.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, conflicts, total, req.Page, req.PageSize)
}

// ResolveConflict handles POST /sync/conflicts/:id/resolve
// @ID           syncResolveConflict
// @Summary      Resolve conflict
// @Tags         sync
// @Accept       json
// @Produce      json
// @Param        id path string true "ID of the sync" format(uuid)
// @Param        request body syncapp.ResolveConflictRequest true "Request body"
// @Success      200 {object} dto.Response{data=syncapp.ResolveConflictResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /sync/conflicts/{id}/resolve [post]
func (h *SyncHandler) ResolveConflict(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	id, ok := h.PathID(c, "id")
	if !ok {
		return
	}
	var req syncapp.ResolveConflictRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.service.ResolveConflict(c.Request.Context(), actor, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Heartbeat handles POST /sync/heartbeat
// @ID           syncHeartbeat
// @Summary      Client heartbeat
// @Tags         sync
// @Accept       json
// @Produce      json
// @Param        request body syncapp.HeartbeatRequest true "Request body"
// @Success      200 {object} dto.Response{data=syncapp.SessionResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /sync/heartbeat [post]
func (h *SyncHandler) Heartbeat(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	var req syncapp.HeartbeatRequest
	if !h.BindJSON(c, &req) {
		return
	}
	session, err := h.service.Heartbeat(c.Request.Context(), actor, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}

// Sessions handles GET /sync/sessions
// @ID           syncSessions
// @Summary      List client sessions
// @Tags         sync
// @Produce      json
// @Success      200 {object} dto.Response{data=[]syncapp.SessionResponse}
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /sync/sessions [get]
func (h *SyncHandler) Sessions(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	sessions, err := h.service.Sessions(c.Request.Context(), actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sessions)
}

// Stream handles GET /sync/stream as server-sent events
// @ID           syncStream
// @Summary      Change feed (server-sent events)
// @Tags         sync
// @Produce      text/event-stream
// @Success      200 {string} string "Server-sent events"
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /sync/stream [get]
func (h *SyncHandler) Stream(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	err := h.streamer.SSE(c.Writer, c.Request, actor.TenantID, actor.UserID)
	h.streamError(c, err)
}

// WebSocket handles GET /sync/ws. Text frames from the client are treated
// as heartbeats.
// @ID           syncWebSocket
// @Summary      Change feed (websocket)
// @Tags         sync
// @Success      101
// @Failure      400 {object} dto.Response
// @Failure      401 {object} dto.Response
// @Failure      403 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Security     BearerAuth
// @Router       /sync/ws [get]
func (h *SyncHandler) WebSocket(c *gin.Context) {
	actor, ok := h.Actor(c)
	if !ok {
		return
	}
	onMessage := func(ctx context.Context, data []byte) {
		var req syncapp.HeartbeatRequest
		if err := json.Unmarshal(data, &req); err != nil || req.ClientID == "" {
			return
		}
		if _, err := h.service.Heartbeat(ctx, actor, req); err != nil {
			logger.L(ctx).Debug("Websocket heartbeat rejected", zap.Error(err))
		}
	}
	err := h.streamer.WebSocket(c.Writer, c.Request, actor.TenantID, actor.UserID, onMessage)
	h.streamError(c, err)
}

func (h *SyncHandler) streamError(c *gin.Context, err error) {
	switch {
	case err == nil:
	case errors.Is(err, realtime.ErrTooManyClients):
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeTooManyStream, "Too many live connections")
	case c.Writer.Written():
		logger.L(c.Request.Context()).Debug("Stream ended with error", zap.Error(err))
	default:
		h.HandleError(c, err)
	}
}
