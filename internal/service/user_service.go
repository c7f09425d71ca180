package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/revisehq/revise-api/internal/domain"
	"github.com/revisehq/revise-api/internal/store"
)

// UserService provides user account operations. Password hashing lives
// in the store layer; this service only handles plaintext in transit.
type UserService interface {
	// Register creates a new account. Returns store.ErrEmailExists when
	// the email is taken and domain validation errors for bad input.
	Register(ctx context.Context, email, password string) (*domain.User, error)

	// GetByID retrieves a user. Returns store.ErrUserNotFound if absent.
	GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by email address.
	// Returns store.ErrUserNotFound if absent.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// UpdatePassword replaces the user's password. The store re-hashes.
	UpdatePassword(ctx context.Context, userID uuid.UUID, newPassword string) error

	// Delete removes the user and everything they own.
	Delete(ctx context.Context, userID uuid.UUID) error
}

type userService struct {
	users  store.UserStore
	logger *slog.Logger
}

// NewUserService creates a UserService over the given store.
func NewUserService(users store.UserStore, logger *slog.Logger) UserService {
	return &userService{
		users:  users,
		logger: logger.With(slog.String("component", "user_service")),
	}
}

func (s *userService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := domain.NewUser(email, password)
	if err != nil {
		s.logger.Debug("rejected invalid registration",
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("creating user: %w", err)
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			s.logger.Debug("registration with existing email",
				slog.String("email", user.Email))
			return nil, err
		}
		s.logger.Error("failed to save user",
			slog.String("error", err.Error()))
		return nil, opError("user", "register", err)
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID.String()))
	return user, nil
}

func (s *userService) GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, err
		}
		s.logger.Error("failed to retrieve user",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, opError("user", "get", err)
	}
	return user, nil
}

func (s *userService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, err
		}
		s.logger.Error("failed to retrieve user by email",
			slog.String("error", err.Error()))
		return nil, opError("user", "get_by_email", err)
	}
	return user, nil
}

func (s *userService) UpdatePassword(ctx context.Context, userID uuid.UUID, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	user.Password = newPassword
	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Error("failed to update password",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return opError("user", "update_password", err)
	}

	s.logger.Info("user password updated", slog.String("user_id", userID.String()))
	return nil
}

func (s *userService) Delete(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return err
		}
		s.logger.Error("failed to delete user",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return opError("user", "delete", err)
	}

	s.logger.Info("user deleted", slog.String("user_id", userID.String()))
	return nil
}
