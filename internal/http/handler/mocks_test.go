package handler_test

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"cemas.ai/backend/internal/assistant"
	"cemas.ai/backend/internal/events"
	"cemas.ai/backend/internal/http/middleware"
	"cemas.ai/backend/internal/model"
	"cemas.ai/backend/internal/service"
)

type mockUserService struct {
	createFn func(ctx context.Context, name, email string, avatarURL *string) (*model.User, error)
	listFn   func(ctx context.Context) ([]model.User, error)
}

func (m *mockUserService) Create(ctx context.Context, name, email string, avatarURL *string) (*model.User, error) {
	if m.createFn != nil {
		return m.createFn(ctx, name, email, avatarURL)
	}
	return nil, nil
}

func (m *mockUserService) List(ctx context.Context) ([]model.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

type mockAuthService struct {
	getAuthorizationURLFn func(state string) (string, error)
	handleCallbackFn      func(ctx context.Context, code string) (*model.User, *model.Session, error)
	validateSessionFn     func(ctx context.Context, sessionID int64) (*model.User, error)
	logoutFn              func(ctx context.Context, sessionID int64) error
}

func (m *mockAuthService) PurgeExpiredSessions(context.Context) error {
	return nil
}

func (m *mockAuthService) GetAuthorizationURL(state string) (string, error) {
	if m.getAuthorizationURLFn != nil {
		return m.getAuthorizationURLFn(state)
	}
	return "", nil
}

func (m *mockAuthService) HandleCallback(ctx context.Context, code string) (*model.User, *model.Session, error) {
	if m.handleCallbackFn != nil {
		return m.handleCallbackFn(ctx, code)
	}
	return nil, nil, nil
}

func (m *mockAuthService) ValidateSession(ctx context.Context, sessionID int64) (*model.User, error) {
	if m.validateSessionFn != nil {
		return m.validateSessionFn(ctx, sessionID)
	}
	return nil, service.ErrSessionExpired
}

func (m *mockAuthService) Logout(ctx context.Context, sessionID int64) error {
	if m.logoutFn != nil {
		return m.logoutFn(ctx, sessionID)
	}
	return nil
}

type mockConversationService struct {
	createFn    func(ctx context.Context, userID int64, title string) (*model.Conversation, error)
	listFn      func(ctx context.Context, userID int64) ([]model.Conversation, error)
	getFn       func(ctx context.Context, userID, conversationID int64) (*service.ConversationDetail, error)
	updateFn    func(ctx context.Context, userID, conversationID int64, title *string) (*model.Conversation, error)
	deleteFn    func(ctx context.Context, userID, conversationID int64) error
	authorizeFn func(ctx context.Context, userID, conversationID int64) error
}

func (m *mockConversationService) Create(ctx context.Context, userID int64, title string) (*model.Conversation, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, title)
	}
	return nil, nil
}

func (m *mockConversationService) List(ctx context.Context, userID int64) ([]model.Conversation, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockConversationService) Get(ctx context.Context, userID, conversationID int64) (*service.ConversationDetail, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, conversationID)
	}
	return nil, service.ErrConversationNotFound
}

func (m *mockConversationService) Update(ctx context.Context, userID, conversationID int64, title *string) (*model.Conversation, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, conversationID, title)
	}
	return nil, service.ErrConversationNotFound
}

func (m *mockConversationService) Delete(ctx context.Context, userID, conversationID int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, conversationID)
	}
	return nil
}

func (m *mockConversationService) Authorize(ctx context.Context, userID, conversationID int64) error {
	if m.authorizeFn != nil {
		return m.authorizeFn(ctx, userID, conversationID)
	}
	return nil
}

type mockChatService struct {
	sendMessageFn  func(ctx context.Context, userID, conversationID int64, role model.Role, content string) (*assistant.Turn, error)
	listMessagesFn func(ctx context.Context, userID, conversationID int64) ([]model.Message, error)
	insightsFn     func(ctx context.Context, userID, conversationID int64) (string, error)
}

func (m *mockChatService) SendMessage(ctx context.Context, userID, conversationID int64, role model.Role, content string) (*assistant.Turn, error) {
	if m.sendMessageFn != nil {
		return m.sendMessageFn(ctx, userID, conversationID, role, content)
	}
	return nil, nil
}

func (m *mockChatService) ListMessages(ctx context.Context, userID, conversationID int64) ([]model.Message, error) {
	if m.listMessagesFn != nil {
		return m.listMessagesFn(ctx, userID, conversationID)
	}
	return nil, nil
}

func (m *mockChatService) Insights(ctx context.Context, userID, conversationID int64) (string, error) {
	if m.insightsFn != nil {
		return m.insightsFn(ctx, userID, conversationID)
	}
	return "", nil
}

type mockEventReader struct {
	readFn func(ctx context.Context, conversationID int64, lastID string, block time.Duration) ([]events.Event, string, error)
	tailFn func(ctx context.Context, conversationID int64) (string, error)
}

func (m *mockEventReader) Read(ctx context.Context, conversationID int64, lastID string, block time.Duration) ([]events.Event, string, error) {
	if m.readFn != nil {
		return m.readFn(ctx, conversationID, lastID, block)
	}
	<-ctx.Done()
	return nil, lastID, ctx.Err()
}

func (m *mockEventReader) Tail(ctx context.Context, conversationID int64) (string, error) {
	if m.tailFn != nil {
		return m.tailFn(ctx, conversationID)
	}
	return events.StreamStart, nil
}

// authenticatedAs stands in for RequireSession.
func authenticatedAs(user *model.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(middleware.WithUser(c.Request.Context(), user))
		c.Next()
	}
}
