package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"cemas.ai/backend/common/id"
	"cemas.ai/backend/internal/http/dto"
	"cemas.ai/backend/internal/http/middleware"
	"cemas.ai/backend/internal/model"
	"cemas.ai/backend/internal/service"
)

type ConversationHandler struct {
	conversationService service.ConversationService
}

func NewConversationHandler(conversationService service.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversationService: conversationService}
}

func (h *ConversationHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req dto.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conv, err := h.conversationService.Create(ctx, user.ID, req.Title)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create conversation"})
		return
	}

	c.JSON(http.StatusCreated, dto.ToConversationResponse(conv, nil))
}

func (h *ConversationHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	user, ok := requireUser(c)
	if !ok {
		return
	}

	convs, err := h.conversationService.List(ctx, user.ID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list conversations", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list conversations"})
		return
	}

	c.JSON(http.StatusOK, dto.ToConversationResponses(convs))
}

func (h *ConversationHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	user, ok := requireUser(c)
	if !ok {
		return
	}
	convID, ok := conversationIDParam(c)
	if !ok {
		return
	}

	detail, err := h.conversationService.Get(ctx, user.ID, convID)
	if err != nil {
		writeConversationError(c, err, "failed to get conversation")
		return
	}

	c.JSON(http.StatusOK, dto.ToConversationResponse(detail.Conversation, detail.Messages))
}

func (h *ConversationHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	user, ok := requireUser(c)
	if !ok {
		return
	}
	convID, ok := conversationIDParam(c)
	if !ok {
		return
	}

	var req dto.UpdateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	conv, err := h.conversationService.Update(ctx, user.ID, convID, req.Title)
	if err != nil {
		writeConversationError(c, err, "failed to update conversation")
		return
	}

	c.JSON(http.StatusOK, dto.ToConversationResponse(conv, nil))
}

func (h *ConversationHandler) Delete(c *gin.Context) {
	ctx := c.Request.Context()
	user, ok := requireUser(c)
	if !ok {
		return
	}
	convID, ok := conversationIDParam(c)
	if !ok {
		return
	}

	if err := h.conversationService.Delete(ctx, user.ID, convID); err != nil {
		writeConversationError(c, err, "failed to delete conversation")
		return
	}

	c.Status(http.StatusNoContent)
}

func requireUser(c *gin.Context) (*model.User, bool) {
	user := middleware.GetUser(c.Request.Context())
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return nil, false
	}
	return user, true
}

func conversationIDParam(c *gin.Context) (int64, bool) {
	convID, err := id.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return 0, false
	}
	return convID, true
}

// writeConversationError maps ownership failures to 404 and everything else to 500 with msg.
func writeConversationError(c *gin.Context, err error, msg string) {
	if errors.Is(err, service.ErrConversationNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
		return
	}
	slog.ErrorContext(c.Request.Context(), msg, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}
