package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"cemas.ai/backend/common/llm"
	"cemas.ai/backend/common/retry"
	"cemas.ai/backend/internal/assistant"
	"cemas.ai/backend/internal/http/dto"
	"cemas.ai/backend/internal/model"
	"cemas.ai/backend/internal/service"
)

type MessageHandler struct {
	chatService service.ChatService
}

func NewMessageHandler(chatService service.ChatService) *MessageHandler {
	return &MessageHandler{chatService: chatService}
}

// Send stores the message and, for user messages, the assistant reply. A failed
// reply is reported in the body next to the stored message rather than as an
// error status.
func (h *MessageHandler) Send(c *gin.Context) {
	ctx := c.Request.Context()
	user, ok := requireUser(c)
	if !ok {
		return
	}
	convID, ok := conversationIDParam(c)
	if !ok {
		return
	}

	var req dto.CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	turn, err := h.chatService.SendMessage(ctx, user.ID, convID, model.Role(req.Role), req.Content)
	if err != nil {
		if turn != nil && turn.UserMessage != nil {
			slog.ErrorContext(ctx, "message stored but reply could not be completed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "failed to store assistant reply",
				"message": dto.ToMessageResponse(turn.UserMessage),
			})
			return
		}
		writeConversationError(c, err, "failed to send message")
		return
	}

	c.JSON(http.StatusCreated, dto.ToSendMessageResponse(turn))
}

func (h *MessageHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	user, ok := requireUser(c)
	if !ok {
		return
	}
	convID, ok := conversationIDParam(c)
	if !ok {
		return
	}

	msgs, err := h.chatService.ListMessages(ctx, user.ID, convID)
	if err != nil {
		writeConversationError(c, err, "failed to list messages")
		return
	}

	c.JSON(http.StatusOK, dto.ToMessageResponses(msgs))
}

func (h *MessageHandler) Insights(c *gin.Context) {
	ctx := c.Request.Context()
	user, ok := requireUser(c)
	if !ok {
		return
	}
	convID, ok := conversationIDParam(c)
	if !ok {
		return
	}

	insights, err := h.chatService.Insights(ctx, user.ID, convID)
	if err != nil {
		if errors.Is(err, retry.ErrExhausted) || llm.KindOf(err) != "" {
			slog.WarnContext(ctx, "insight synthesis failed", "error", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": assistant.FailureReason(err)})
			return
		}
		writeConversationError(c, err, "failed to generate insights")
		return
	}

	c.JSON(http.StatusOK, dto.InsightsResponse{Insights: insights})
}
