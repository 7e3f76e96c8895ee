package dto

import (
	"time"

	"cemas.ai/backend/internal/assistant"
	"cemas.ai/backend/internal/model"
)

type CreateMessageRequest struct {
	Role    string `json:"role" binding:"required,oneof=user assistant" jsonschema:"enum=user,enum=assistant"`
	Content string `json:"content" binding:"required,notblank,max=20000" jsonschema:"minLength=1,maxLength=20000"`
}

type MessageResponse struct {
	ID             int64     `json:"id,string"`
	ConversationID int64     `json:"conversation_id,string"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// SendMessageResponse always carries the stored message. Reply is null unless
// ReplyStatus is "generated".
type SendMessageResponse struct {
	Message     MessageResponse  `json:"message"`
	Reply       *MessageResponse `json:"reply"`
	ReplyStatus string           `json:"reply_status"`
	ReplyError  string           `json:"reply_error,omitempty"`
}

func ToMessageResponse(m *model.Message) *MessageResponse {
	return &MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Role:           string(m.Role),
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	}
}

func ToMessageResponses(msgs []model.Message) []MessageResponse {
	out := make([]MessageResponse, len(msgs))
	for i := range msgs {
		out[i] = *ToMessageResponse(&msgs[i])
	}
	return out
}

func ToSendMessageResponse(turn *assistant.Turn) *SendMessageResponse {
	resp := &SendMessageResponse{
		Message:     *ToMessageResponse(turn.UserMessage),
		ReplyStatus: string(turn.Status()),
	}
	if turn.Reply != nil {
		resp.Reply = ToMessageResponse(turn.Reply)
	}
	if turn.ReplyErr != nil {
		resp.ReplyError = assistant.FailureReason(turn.ReplyErr)
	}
	return resp
}
