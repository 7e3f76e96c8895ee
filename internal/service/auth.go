package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/workos/workos-go/v6/pkg/usermanagement"

	"cemas.ai/backend/common/id"
	"cemas.ai/backend/core/config"
	"cemas.ai/backend/internal/model"
	"cemas.ai/backend/internal/store"
)

var (
	ErrInvalidCode    = errors.New("invalid authorization code")
	ErrUserNotFound   = errors.New("user not found")
	ErrSessionExpired = errors.New("session expired")
)

const sessionTTL = 7 * 24 * time.Hour

// IdentityProvider is the slice of WorkOS user management the auth flow needs.
type IdentityProvider interface {
	AuthorizationURL(state string) (string, error)
	Authenticate(ctx context.Context, code string) (usermanagement.User, error)
}

type AuthService interface {
	GetAuthorizationURL(state string) (string, error)
	HandleCallback(ctx context.Context, code string) (*model.User, *model.Session, error)
	ValidateSession(ctx context.Context, sessionID int64) (*model.User, error)
	Logout(ctx context.Context, sessionID int64) error
	PurgeExpiredSessions(ctx context.Context) error
}

type authService struct {
	userStore    store.UserStore
	sessionStore store.SessionStore
	txRunner     TxRunner
	identity     IdentityProvider
}

func NewAuthService(
	userStore store.UserStore,
	sessionStore store.SessionStore,
	txRunner TxRunner,
	identity IdentityProvider,
) AuthService {
	return &authService{
		userStore:    userStore,
		sessionStore: sessionStore,
		txRunner:     txRunner,
		identity:     identity,
	}
}

func (s *authService) GetAuthorizationURL(state string) (string, error) {
	url, err := s.identity.AuthorizationURL(state)
	if err != nil {
		return "", fmt.Errorf("generating authorization URL: %w", err)
	}
	return url, nil
}

// HandleCallback exchanges the code for a WorkOS user. The user upsert and the
// new session share one transaction.
func (s *authService) HandleCallback(ctx context.Context, code string) (*model.User, *model.Session, error) {
	workosUser, err := s.identity.Authenticate(ctx, code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to authenticate with code", "error", err)
		return nil, nil, ErrInvalidCode
	}

	var avatarURL *string
	if workosUser.ProfilePictureURL != "" {
		avatarURL = &workosUser.ProfilePictureURL
	}

	user := &model.User{
		ID:        id.New(),
		Name:      buildUserName(workosUser),
		Email:     workosUser.Email,
		AvatarURL: avatarURL,
		WorkOSID:  &workosUser.ID,
	}
	session := &model.Session{
		ID:        id.New(),
		ExpiresAt: time.Now().Add(sessionTTL),
	}

	err = s.txRunner.WithTx(ctx, func(stores StoreProvider) error {
		if err := stores.Users().UpsertByWorkOSID(ctx, user); err != nil {
			return fmt.Errorf("upserting user: %w", err)
		}
		session.UserID = user.ID
		if err := stores.Sessions().Create(ctx, session); err != nil {
			return fmt.Errorf("creating session: %w", err)
		}
		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to complete login",
			"error", err,
			"email", user.Email,
			"workos_id", workosUser.ID,
		)
		return nil, nil, err
	}

	slog.InfoContext(ctx, "user authenticated",
		"user_id", user.ID,
		"session_id", session.ID,
	)

	return user, session, nil
}

func (s *authService) ValidateSession(ctx context.Context, sessionID int64) (*model.User, error) {
	session, err := s.sessionStore.GetValid(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionExpired
		}
		return nil, fmt.Errorf("getting session: %w", err)
	}

	user, err := s.userStore.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}

	return user, nil
}

func (s *authService) Logout(ctx context.Context, sessionID int64) error {
	if err := s.sessionStore.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

func (s *authService) PurgeExpiredSessions(ctx context.Context) error {
	if err := s.sessionStore.DeleteExpired(ctx); err != nil {
		return fmt.Errorf("deleting expired sessions: %w", err)
	}
	return nil
}

func buildUserName(user usermanagement.User) string {
	if user.FirstName != "" && user.LastName != "" {
		return user.FirstName + " " + user.LastName
	}
	if user.FirstName != "" {
		return user.FirstName
	}
	if user.LastName != "" {
		return user.LastName
	}
	return user.Email
}

type workOSIdentity struct {
	cfg config.WorkOSConfig
}

// NewWorkOSIdentity configures the WorkOS SDK with cfg's API key.
func NewWorkOSIdentity(cfg config.WorkOSConfig) IdentityProvider {
	usermanagement.SetAPIKey(cfg.APIKey)
	return &workOSIdentity{cfg: cfg}
}

func (w *workOSIdentity) AuthorizationURL(state string) (string, error) {
	url, err := usermanagement.GetAuthorizationURL(usermanagement.GetAuthorizationURLOpts{
		ClientID:    w.cfg.ClientID,
		RedirectURI: w.cfg.RedirectURI,
		State:       state,
		Provider:    "authkit",
	})
	if err != nil {
		return "", err
	}
	return url.String(), nil
}

func (w *workOSIdentity) Authenticate(ctx context.Context, code string) (usermanagement.User, error) {
	resp, err := usermanagement.AuthenticateWithCode(ctx, usermanagement.AuthenticateWithCodeOpts{
		ClientID: w.cfg.ClientID,
		Code:     code,
	})
	if err != nil {
		return usermanagement.User{}, err
	}
	return resp.User, nil
}
