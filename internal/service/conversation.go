package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cemas.ai/backend/common/id"
	"cemas.ai/backend/internal/model"
	"cemas.ai/backend/internal/store"
)

// ErrConversationNotFound covers both missing conversations and ones owned by another user.
var ErrConversationNotFound = errors.New("conversation not found")

type ConversationDetail struct {
	Conversation *model.Conversation
	Messages     []model.Message
}

type ConversationService interface {
	Create(ctx context.Context, userID int64, title string) (*model.Conversation, error)
	List(ctx context.Context, userID int64) ([]model.Conversation, error)
	Get(ctx context.Context, userID, conversationID int64) (*ConversationDetail, error)
	// Update applies only the fields that are set.
	Update(ctx context.Context, userID, conversationID int64, title *string) (*model.Conversation, error)
	Delete(ctx context.Context, userID, conversationID int64) error
	// Authorize returns ErrConversationNotFound unless userID owns the conversation.
	Authorize(ctx context.Context, userID, conversationID int64) error
}

type conversationService struct {
	convStore    store.ConversationStore
	messageStore store.MessageStore
}

func NewConversationService(convStore store.ConversationStore, messageStore store.MessageStore) ConversationService {
	return &conversationService{
		convStore:    convStore,
		messageStore: messageStore,
	}
}

func (s *conversationService) Create(ctx context.Context, userID int64, title string) (*model.Conversation, error) {
	conv := &model.Conversation{
		ID:     id.New(),
		UserID: userID,
		Title:  title,
	}

	if err := s.convStore.Create(ctx, conv); err != nil {
		slog.ErrorContext(ctx, "failed to create conversation", "error", err, "user_id", userID)
		return nil, fmt.Errorf("creating conversation: %w", err)
	}

	slog.InfoContext(ctx, "conversation created", "conversation_id", conv.ID, "user_id", userID)
	return conv, nil
}

func (s *conversationService) List(ctx context.Context, userID int64) ([]model.Conversation, error) {
	convs, err := s.convStore.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	return convs, nil
}

func (s *conversationService) Get(ctx context.Context, userID, conversationID int64) (*ConversationDetail, error) {
	conv, err := authorize(ctx, s.convStore, userID, conversationID)
	if err != nil {
		return nil, err
	}

	msgs, err := s.messageStore.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}

	return &ConversationDetail{Conversation: conv, Messages: msgs}, nil
}

func (s *conversationService) Update(ctx context.Context, userID, conversationID int64, title *string) (*model.Conversation, error) {
	if title == nil {
		return authorize(ctx, s.convStore, userID, conversationID)
	}

	conv, err := s.convStore.UpdateTitle(ctx, conversationID, userID, *title)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("updating conversation: %w", err)
	}
	return conv, nil
}

func (s *conversationService) Delete(ctx context.Context, userID, conversationID int64) error {
	if err := s.convStore.DeleteForUser(ctx, conversationID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrConversationNotFound
		}
		return fmt.Errorf("deleting conversation: %w", err)
	}

	slog.InfoContext(ctx, "conversation deleted", "conversation_id", conversationID, "user_id", userID)
	return nil
}

func (s *conversationService) Authorize(ctx context.Context, userID, conversationID int64) error {
	_, err := authorize(ctx, s.convStore, userID, conversationID)
	return err
}

// authorize loads the conversation only if userID owns it.
func authorize(ctx context.Context, convStore store.ConversationStore, userID, conversationID int64) (*model.Conversation, error) {
	conv, err := convStore.GetForUser(ctx, conversationID, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("getting conversation: %w", err)
	}
	return conv, nil
}
