package store

import (
	"context"

	"cemas.ai/backend/common/id"
	"cemas.ai/backend/core/db/sqlc"
	"cemas.ai/backend/internal/model"
)

type messageStore struct {
	queries *sqlc.Queries
}

func newMessageStore(queries *sqlc.Queries) MessageStore {
	return &messageStore{queries: queries}
}

func (s *messageStore) Append(ctx context.Context, conversationID int64, role model.Role, content string) (*model.Message, error) {
	row, err := s.queries.InsertMessage(ctx, sqlc.InsertMessageParams{
		ID:             id.New(),
		ConversationID: conversationID,
		Role:           string(role),
		Content:        content,
	})
	if err != nil {
		return nil, err
	}
	return toMessageModel(row), nil
}

func (s *messageStore) ListByConversation(ctx context.Context, conversationID int64) ([]model.Message, error) {
	rows, err := s.queries.ListMessagesByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	msgs := make([]model.Message, len(rows))
	for i, row := range rows {
		msgs[i] = *toMessageModel(row)
	}
	return msgs, nil
}

func toMessageModel(row sqlc.Message) *model.Message {
	return &model.Message{
		ID:             row.ID,
		ConversationID: row.ConversationID,
		Role:           model.Role(row.Role),
		Content:        row.Content,
		CreatedAt:      row.CreatedAt.Time,
	}
}
