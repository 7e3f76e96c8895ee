package service

import (
	"context"
	"fmt"

	"cemas.ai/backend/common/logger"
	"cemas.ai/backend/internal/assistant"
	"cemas.ai/backend/internal/model"
	"cemas.ai/backend/internal/store"
)

// ChatService checks conversation ownership and then hands off to the assistant core.
type ChatService interface {
	SendMessage(ctx context.Context, userID, conversationID int64, role model.Role, content string) (*assistant.Turn, error)
	ListMessages(ctx context.Context, userID, conversationID int64) ([]model.Message, error)
	Insights(ctx context.Context, userID, conversationID int64) (string, error)
}

type chatService struct {
	convStore    store.ConversationStore
	messageStore store.MessageStore
	orchestrator assistant.Orchestrator
	synthesizer  assistant.Synthesizer
}

func NewChatService(
	convStore store.ConversationStore,
	messageStore store.MessageStore,
	orchestrator assistant.Orchestrator,
	synthesizer assistant.Synthesizer,
) ChatService {
	return &chatService{
		convStore:    convStore,
		messageStore: messageStore,
		orchestrator: orchestrator,
		synthesizer:  synthesizer,
	}
}

func (s *chatService) SendMessage(ctx context.Context, userID, conversationID int64, role model.Role, content string) (*assistant.Turn, error) {
	if _, err := authorize(ctx, s.convStore, userID, conversationID); err != nil {
		return nil, err
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		UserID:         logger.Ptr(userID),
		ConversationID: logger.Ptr(conversationID),
	})
	return s.orchestrator.HandleUserMessage(ctx, conversationID, role, content)
}

func (s *chatService) ListMessages(ctx context.Context, userID, conversationID int64) ([]model.Message, error) {
	if _, err := authorize(ctx, s.convStore, userID, conversationID); err != nil {
		return nil, err
	}

	msgs, err := s.messageStore.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	return msgs, nil
}

func (s *chatService) Insights(ctx context.Context, userID, conversationID int64) (string, error) {
	if _, err := authorize(ctx, s.convStore, userID, conversationID); err != nil {
		return "", err
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		UserID:         logger.Ptr(userID),
		ConversationID: logger.Ptr(conversationID),
	})

	history, err := s.messageStore.ListByConversation(ctx, conversationID)
	if err != nil {
		return "", fmt.Errorf("listing messages: %w", err)
	}
	return s.synthesizer.Synthesize(ctx, history)
}
