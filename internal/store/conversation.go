package store

import (
	"context"
	"errors"

	"cemas.ai/backend/core/db/sqlc"
	"cemas.ai/backend/internal/model"
	"github.com/jackc/pgx/v5"
)

type conversationStore struct {
	queries *sqlc.Queries
}

func newConversationStore(queries *sqlc.Queries) ConversationStore {
	return &conversationStore{queries: queries}
}

func (s *conversationStore) Create(ctx context.Context, conv *model.Conversation) error {
	row, err := s.queries.CreateConversation(ctx, sqlc.CreateConversationParams{
		ID:     conv.ID,
		UserID: conv.UserID,
		Title:  conv.Title,
	})
	if err != nil {
		return err
	}
	*conv = *toConversationModel(row)
	return nil
}

func (s *conversationStore) GetForUser(ctx context.Context, id, userID int64) (*model.Conversation, error) {
	row, err := s.queries.GetConversationForUser(ctx, sqlc.GetConversationForUserParams{
		ID:     id,
		UserID: userID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toConversationModel(row), nil
}

func (s *conversationStore) ListByUser(ctx context.Context, userID int64) ([]model.Conversation, error) {
	rows, err := s.queries.ListConversationsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	convs := make([]model.Conversation, len(rows))
	for i, row := range rows {
		convs[i] = *toConversationModel(row)
	}
	return convs, nil
}

func (s *conversationStore) UpdateTitle(ctx context.Context, id, userID int64, title string) (*model.Conversation, error) {
	row, err := s.queries.UpdateConversationTitle(ctx, sqlc.UpdateConversationTitleParams{
		ID:     id,
		UserID: userID,
		Title:  title,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toConversationModel(row), nil
}

func (s *conversationStore) DeleteForUser(ctx context.Context, id, userID int64) error {
	n, err := s.queries.DeleteConversationForUser(ctx, sqlc.DeleteConversationForUserParams{
		ID:     id,
		UserID: userID,
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func toConversationModel(row sqlc.Conversation) *model.Conversation {
	conv := &model.Conversation{
		ID:        row.ID,
		UserID:    row.UserID,
		Title:     row.Title,
		CreatedAt: row.CreatedAt.Time,
	}
	if row.UpdatedAt.Valid {
		t := row.UpdatedAt.Time
		conv.UpdatedAt = &t
	}
	return conv
}
