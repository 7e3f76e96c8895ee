package store

import (
	"context"
	"errors"

	"cemas.ai/backend/core/db/sqlc"
	"cemas.ai/backend/internal/model"
	"github.com/jackc/pgx/v5"
)

type userStore struct {
	queries *sqlc.Queries
}

func newUserStore(queries *sqlc.Queries) UserStore {
	return &userStore{queries: queries}
}

func (s *userStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	row, err := s.queries.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toUserModel(row), nil
}

func (s *userStore) List(ctx context.Context) ([]model.User, error) {
	rows, err := s.queries.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	users := make([]model.User, len(rows))
	for i, row := range rows {
		users[i] = *toUserModel(row)
	}
	return users, nil
}

func (s *userStore) Create(ctx context.Context, user *model.User) error {
	row, err := s.queries.CreateUser(ctx, sqlc.CreateUserParams{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		AvatarUrl: user.AvatarURL,
	})
	if err != nil {
		return err
	}
	*user = *toUserModel(row)
	return nil
}

// UpsertByWorkOSID refreshes the row already linked to user.WorkOSID. Without
// one it links the row with the same email, or inserts. An existing row keeps its ID.
func (s *userStore) UpsertByWorkOSID(ctx context.Context, user *model.User) error {
	if user.WorkOSID != nil {
		row, err := s.queries.UpdateUserByWorkOSID(ctx, sqlc.UpdateUserByWorkOSIDParams{
			WorkosID:  user.WorkOSID,
			Name:      user.Name,
			Email:     user.Email,
			AvatarUrl: user.AvatarURL,
		})
		if err == nil {
			*user = *toUserModel(row)
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
	}

	row, err := s.queries.UpsertUserByEmail(ctx, sqlc.UpsertUserByEmailParams{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		AvatarUrl: user.AvatarURL,
		WorkosID:  user.WorkOSID,
	})
	if err != nil {
		return err
	}
	*user = *toUserModel(row)
	return nil
}

func toUserModel(row sqlc.User) *model.User {
	return &model.User{
		ID:        row.ID,
		Name:      row.Name,
		Email:     row.Email,
		AvatarURL: row.AvatarUrl,
		WorkOSID:  row.WorkosID,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}
