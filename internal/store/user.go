package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/revisehq/revise-api/internal/domain"
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	// Create saves a new user, hashing the plaintext password first.
	// Returns ErrEmailExists if the email is already registered.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	// Returns ErrUserNotFound if no user exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by email address.
	// Returns ErrUserNotFound if no user exists.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update modifies an existing user. A non-empty plaintext Password is
	// re-hashed; otherwise the stored hash is kept.
	// Returns ErrUserNotFound if the user does not exist.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes a user and, via cascading constraints, everything
	// they own. Returns ErrUserNotFound if the user does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}
