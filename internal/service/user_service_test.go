package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revisehq/revise-api/internal/mocks"
	"github.com/revisehq/revise-api/internal/store"
)

func TestUserServiceRegister(t *testing.T) {
	ctx := context.Background()
	users := mocks.NewMockUserStore()
	svc := NewUserService(users, testLogger())

	user, err := svc.Register(ctx, "learner@example.com", "a-long-enough-password")
	require.NoError(t, err)
	assert.Equal(t, "learner@example.com", user.Email)
	assert.Empty(t, user.Password, "plaintext must not survive registration")

	// Same email again is rejected with the store sentinel.
	_, err = svc.Register(ctx, "learner@example.com", "another-long-password")
	assert.ErrorIs(t, err, store.ErrEmailExists)
}

func TestUserServiceRegisterInvalidInput(t *testing.T) {
	ctx := context.Background()
	users := mocks.NewMockUserStore()
	svc := NewUserService(users, testLogger())

	_, err := svc.Register(ctx, "not-an-email", "a-long-enough-password")
	require.Error(t, err)
	assert.Empty(t, users.Users)

	_, err = svc.Register(ctx, "learner@example.com", "short")
	require.Error(t, err)
	assert.Empty(t, users.Users)
}

func TestUserServiceLookups(t *testing.T) {
	ctx := context.Background()
	users := mocks.NewMockUserStore()
	svc := NewUserService(users, testLogger())

	user, err := svc.Register(ctx, "learner@example.com", "a-long-enough-password")
	require.NoError(t, err)

	byID, err := svc.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, byID.ID)

	byEmail, err := svc.GetByEmail(ctx, "learner@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = svc.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrUserNotFound)

	_, err = svc.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestUserServiceDelete(t *testing.T) {
	ctx := context.Background()
	users := mocks.NewMockUserStore()
	svc := NewUserService(users, testLogger())

	user, err := svc.Register(ctx, "learner@example.com", "a-long-enough-password")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, user.ID))
	_, err = svc.GetByID(ctx, user.ID)
	assert.ErrorIs(t, err, store.ErrUserNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, user.ID), store.ErrUserNotFound)
}
