package service

import (
	"context"
	"fmt"
	"log/slog"

	"pathwise.app/audit/internal/model"
	"pathwise.app/audit/internal/store"
)

type UserService interface {
	Get(ctx context.Context, userID int64) (*model.User, error)
	UpdateProfile(ctx context.Context, userID int64, name string, avatarURL *string) (*model.User, error)
	Delete(ctx context.Context, userID int64) error
}

type userService struct {
	userStore store.UserStore
}

func NewUserService(userStore store.UserStore) UserService {
	return &userService{userStore: userStore}
}

func (s *userService) Get(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if err == store.ErrNotFound {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID int64, name string, avatarURL *string) (*model.User, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Name = name
	user.AvatarURL = avatarURL

	if err := s.userStore.Update(ctx, user); err != nil {
		slog.ErrorContext(ctx, "failed to update user",
			"error", err,
			"user_id", userID,
		)
		return nil, fmt.Errorf("updating user: %w", err)
	}

	return user, nil
}

// Delete removes the account. Sessions and plans go with it through the
// foreign key cascades.
func (s *userService) Delete(ctx context.Context, userID int64) error {
	if err := s.userStore.Delete(ctx, userID); err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	slog.InfoContext(ctx, "user deleted", "user_id", userID)
	return nil
}
