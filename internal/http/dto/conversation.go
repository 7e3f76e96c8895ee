package dto

import (
	"time"

	"cemas.ai/backend/internal/model"
)

type CreateConversationRequest struct {
	Title string `json:"title" binding:"required,notblank,max=255" jsonschema:"minLength=1,maxLength=255"`
}

// UpdateConversationRequest is partial: absent fields are left unchanged.
type UpdateConversationRequest struct {
	Title *string `json:"title,omitempty" binding:"omitempty,notblank,max=255" jsonschema:"minLength=1,maxLength=255"`
}

type ConversationResponse struct {
	ID        int64             `json:"id,string"`
	UserID    int64             `json:"user_id,string"`
	Title     string            `json:"title"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt *time.Time        `json:"updated_at"`
	Messages  []MessageResponse `json:"messages"`
}

func ToConversationResponse(c *model.Conversation, msgs []model.Message) *ConversationResponse {
	return &ConversationResponse{
		ID:        c.ID,
		UserID:    c.UserID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
		Messages:  ToMessageResponses(msgs),
	}
}

func ToConversationResponses(convs []model.Conversation) []ConversationResponse {
	out := make([]ConversationResponse, len(convs))
	for i := range convs {
		out[i] = *ToConversationResponse(&convs[i], nil)
	}
	return out
}

type InsightsResponse struct {
	Insights string `json:"insights"`
}
