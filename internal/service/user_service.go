package service

import (
	"context"
	"errors"

	"app/internal/model"
	"app/internal/repository"

	"github.com/rs/zerolog"
)

// UserService defines user profile operations.
type UserService interface {
	Create(ctx context.Context, u *model.User) (*model.User, error)
	Get(ctx context.Context, userID string) (*model.User, error)
}

type userService struct {
	repo   repository.UserRepository
	logger zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(repo repository.UserRepository, logger zerolog.Logger) UserService {
	return &userService{
		repo:   repo,
		logger: logger.With().Str("service", "UserService").Logger(),
	}
}

// Create provisions the profile row. Provisioning is idempotent: a
// replayed request returns the existing profile instead of failing on
// the primary key.
func (s *userService) Create(ctx context.Context, u *model.User) (*model.User, error) {
	if err := s.repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			existing, gerr := s.repo.GetUserByID(ctx, u.UserID)
			if gerr != nil {
				s.logger.Error().Err(gerr).Str("user_id", u.UserID).Msg("Failed to fetch existing user")
				return nil, gerr
			}
			if existing != nil {
				return existing, nil
			}
		}
		s.logger.Error().Err(err).Str("user_id", u.UserID).Msg("Failed to create user")
		return nil, err
	}
	return u, nil
}

func (s *userService) Get(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to fetch user")
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
