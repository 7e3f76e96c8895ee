package store

import (
	"context"
	"errors"

	"cemas.ai/backend/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// UserStore defines the contract for user data access
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Create(ctx context.Context, user *model.User) error
	UpsertByWorkOSID(ctx context.Context, user *model.User) error
}

// SessionStore defines the contract for session data access
type SessionStore interface {
	GetValid(ctx context.Context, id int64) (*model.Session, error) // checks expiry
	Create(ctx context.Context, session *model.Session) error
	Delete(ctx context.Context, id int64) error
	DeleteExpired(ctx context.Context) error
}

// ConversationStore scopes every read and write to the owning user, so a
// conversation that belongs to someone else is indistinguishable from one
// that does not exist.
type ConversationStore interface {
	Create(ctx context.Context, conv *model.Conversation) error
	GetForUser(ctx context.Context, id, userID int64) (*model.Conversation, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Conversation, error)
	UpdateTitle(ctx context.Context, id, userID int64, title string) (*model.Conversation, error)
	DeleteForUser(ctx context.Context, id, userID int64) error
}

// MessageStore is append-only. Append assigns identity and a creation
// timestamp strictly later than every earlier message in the conversation.
type MessageStore interface {
	Append(ctx context.Context, conversationID int64, role model.Role, content string) (*model.Message, error)
	ListByConversation(ctx context.Context, conversationID int64) ([]model.Message, error)
}
