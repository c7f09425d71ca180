package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/revisehq/revise-api/internal/domain"
	"github.com/revisehq/revise-api/internal/service/auth"
	"github.com/revisehq/revise-api/internal/store"
)

type mockUserService struct {
	registerFn       func(ctx context.Context, email, password string) (*domain.User, error)
	getByIDFn        func(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	getByEmailFn     func(ctx context.Context, email string) (*domain.User, error)
	updatePasswordFn func(ctx context.Context, userID uuid.UUID, newPassword string) error
	deleteFn         func(ctx context.Context, userID uuid.UUID) error
}

func (m *mockUserService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, email, password)
	}
	return nil, errors.New("registerFn not set")
}

func (m *mockUserService) GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, userID)
	}
	return nil, store.ErrUserNotFound
}

func (m *mockUserService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.getByEmailFn != nil {
		return m.getByEmailFn(ctx, email)
	}
	return nil, store.ErrUserNotFound
}

func (m *mockUserService) UpdatePassword(ctx context.Context, userID uuid.UUID, newPassword string) error {
	if m.updatePasswordFn != nil {
		return m.updatePasswordFn(ctx, userID, newPassword)
	}
	return nil
}

func (m *mockUserService) Delete(ctx context.Context, userID uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID)
	}
	return nil
}

type mockJWTService struct {
	generateTokenFn        func(ctx context.Context, userID uuid.UUID) (string, error)
	validateTokenFn        func(ctx context.Context, token string) (*auth.Claims, error)
	generateRefreshTokenFn func(ctx context.Context, userID uuid.UUID) (string, error)
	validateRefreshTokenFn func(ctx context.Context, token string) (*auth.Claims, error)
}

func (m *mockJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	if m.generateTokenFn != nil {
		return m.generateTokenFn(ctx, userID)
	}
	return "test-access-token", nil
}

func (m *mockJWTService) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	if m.validateTokenFn != nil {
		return m.validateTokenFn(ctx, token)
	}
	return nil, auth.ErrInvalidToken
}

func (m *mockJWTService) GenerateRefreshToken(ctx context.Context, userID uuid.UUID) (string, error) {
	if m.generateRefreshTokenFn != nil {
		return m.generateRefreshTokenFn(ctx, userID)
	}
	return "test-refresh-token", nil
}

func (m *mockJWTService) ValidateRefreshToken(ctx context.Context, token string) (*auth.Claims, error) {
	if m.validateRefreshTokenFn != nil {
		return m.validateRefreshTokenFn(ctx, token)
	}
	return nil, auth.ErrInvalidRefreshToken
}

type mockPasswordVerifier struct {
	compareFn func(hashedPassword, password string) error
}

func (m *mockPasswordVerifier) Compare(hashedPassword, password string) error {
	if m.compareFn != nil {
		return m.compareFn(hashedPassword, password)
	}
	return nil
}

func TestAuthHandler_Register(t *testing.T) {
	t.Parallel()

	fixedUserID := uuid.MustParse("11111111-1111-1111-1111-111111111111")

	tests := []struct {
		name           string
		requestBody    interface{}
		registerFn     func(ctx context.Context, email, password string) (*domain.User, error)
		tokenFn        func(ctx context.Context, userID uuid.UUID) (string, error)
		expectedStatus int
		expectedErrMsg string
	}{
		{
			name: "successful_registration",
			requestBody: RegisterRequest{
				Email:    "new@example.com",
				Password: "correct horse battery",
			},
			registerFn: func(ctx context.Context, email, password string) (*domain.User, error) {
				return &domain.User{ID: fixedUserID, Email: email}, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "duplicate_email",
			requestBody: RegisterRequest{
				Email:    "taken@example.com",
				Password: "correct horse battery",
			},
			registerFn: func(ctx context.Context, email, password string) (*domain.User, error) {
				return nil, store.ErrEmailExists
			},
			expectedStatus: http.StatusConflict,
			expectedErrMsg: "Email already exists",
		},
		{
			name: "invalid_email",
			requestBody: RegisterRequest{
				Email:    "not-an-email",
				Password: "correct horse battery",
			},
			expectedStatus: http.StatusBadRequest,
			expectedErrMsg: "Invalid Email",
		},
		{
			name: "password_too_short",
			requestBody: RegisterRequest{
				Email:    "new@example.com",
				Password: "short",
			},
			expectedStatus: http.StatusBadRequest,
			expectedErrMsg: "Invalid Password: too short",
		},
		{
			name:           "malformed_json",
			requestBody:    `{"email": }`,
			expectedStatus: http.StatusBadRequest,
			expectedErrMsg: "Invalid request format",
		},
		{
			name: "token_generation_failure",
			requestBody: RegisterRequest{
				Email:    "new@example.com",
				Password: "correct horse battery",
			},
			registerFn: func(ctx context.Context, email, password string) (*domain.User, error) {
				return &domain.User{ID: fixedUserID, Email: email}, nil
			},
			tokenFn: func(ctx context.Context, userID uuid.UUID) (string, error) {
				return "", errors.New("signing key unavailable")
			},
			expectedStatus: http.StatusInternalServerError,
			expectedErrMsg: "Failed to generate authentication token",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := NewAuthHandler(
				&mockUserService{registerFn: tt.registerFn},
				&mockJWTService{generateTokenFn: tt.tokenFn},
				&mockPasswordVerifier{},
			)

			req := newTestRequest(t, http.MethodPost, "/api/auth/register", tt.requestBody, uuid.Nil, nil)
			rr := httptest.NewRecorder()
			handler.Register(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)

			if tt.expectedErrMsg != "" {
				assert.Contains(t, errorMessage(t, rr), tt.expectedErrMsg)
				return
			}

			var resp AuthResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, fixedUserID, resp.UserID)
			assert.Equal(t, "test-access-token", resp.AccessToken)
			assert.Equal(t, "test-refresh-token", resp.RefreshToken)
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	t.Parallel()

	fixedUserID := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	storedUser := &domain.User{
		ID:             fixedUserID,
		Email:          "user@example.com",
		HashedPassword: "$2a$10$stored-hash",
	}

	tests := []struct {
		name           string
		requestBody    interface{}
		getByEmailFn   func(ctx context.Context, email string) (*domain.User, error)
		compareFn      func(hashedPassword, password string) error
		expectedStatus int
		expectedErrMsg string
	}{
		{
			name: "successful_login",
			requestBody: LoginRequest{
				Email:    "user@example.com",
				Password: "correct horse battery",
			},
			getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
				return storedUser, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "unknown_email",
			requestBody: LoginRequest{
				Email:    "nobody@example.com",
				Password: "correct horse battery",
			},
			getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
				return nil, store.ErrUserNotFound
			},
			expectedStatus: http.StatusUnauthorized,
			expectedErrMsg: "Invalid credentials",
		},
		{
			name: "wrong_password",
			requestBody: LoginRequest{
				Email:    "user@example.com",
				Password: "wrong password!",
			},
			getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
				return storedUser, nil
			},
			compareFn: func(hashedPassword, password string) error {
				return errors.New("password mismatch")
			},
			expectedStatus: http.StatusUnauthorized,
			expectedErrMsg: "Invalid credentials",
		},
		{
			name: "missing_password",
			requestBody: LoginRequest{
				Email: "user@example.com",
			},
			expectedStatus: http.StatusBadRequest,
			expectedErrMsg: "Invalid Password",
		},
		{
			name: "store_failure",
			requestBody: LoginRequest{
				Email:    "user@example.com",
				Password: "correct horse battery",
			},
			getByEmailFn: func(ctx context.Context, email string) (*domain.User, error) {
				return nil, errors.New("connection refused")
			},
			expectedStatus: http.StatusInternalServerError,
			expectedErrMsg: "Failed to authenticate user",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := NewAuthHandler(
				&mockUserService{getByEmailFn: tt.getByEmailFn},
				&mockJWTService{},
				&mockPasswordVerifier{compareFn: tt.compareFn},
			)

			req := newTestRequest(t, http.MethodPost, "/api/auth/login", tt.requestBody, uuid.Nil, nil)
			rr := httptest.NewRecorder()
			handler.Login(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)

			if tt.expectedErrMsg != "" {
				assert.Contains(t, errorMessage(t, rr), tt.expectedErrMsg)
				return
			}

			var resp AuthResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, fixedUserID, resp.UserID)
			assert.NotEmpty(t, resp.AccessToken)
			assert.NotEmpty(t, resp.RefreshToken)
		})
	}
}

func TestAuthHandler_RefreshToken(t *testing.T) {
	t.Parallel()

	fixedUserID := uuid.MustParse("33333333-3333-3333-3333-333333333333")

	tests := []struct {
		name           string
		requestBody    interface{}
		validateFn     func(ctx context.Context, token string) (*auth.Claims, error)
		expectedStatus int
		expectedErrMsg string
	}{
		{
			name:        "successful_refresh",
			requestBody: RefreshTokenRequest{RefreshToken: "valid-refresh-token"},
			validateFn: func(ctx context.Context, token string) (*auth.Claims, error) {
				return &auth.Claims{
					UserID:    fixedUserID,
					TokenType: "refresh",
					ExpiresAt: time.Now().Add(time.Hour),
				}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "expired_refresh_token",
			requestBody: RefreshTokenRequest{RefreshToken: "expired-token"},
			validateFn: func(ctx context.Context, token string) (*auth.Claims, error) {
				return nil, auth.ErrExpiredRefreshToken
			},
			expectedStatus: http.StatusUnauthorized,
			expectedErrMsg: "Invalid refresh token",
		},
		{
			name:        "access_token_presented",
			requestBody: RefreshTokenRequest{RefreshToken: "an-access-token"},
			validateFn: func(ctx context.Context, token string) (*auth.Claims, error) {
				return nil, auth.ErrWrongTokenType
			},
			expectedStatus: http.StatusUnauthorized,
			expectedErrMsg: "Invalid refresh token",
		},
		{
			name:           "missing_refresh_token",
			requestBody:    map[string]string{},
			expectedStatus: http.StatusBadRequest,
			expectedErrMsg: "Invalid RefreshToken",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			handler := NewAuthHandler(
				&mockUserService{},
				&mockJWTService{validateRefreshTokenFn: tt.validateFn},
				&mockPasswordVerifier{},
			)

			req := newTestRequest(t, http.MethodPost, "/api/auth/refresh", tt.requestBody, uuid.Nil, nil)
			rr := httptest.NewRecorder()
			handler.RefreshToken(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)

			if tt.expectedErrMsg != "" {
				assert.Contains(t, errorMessage(t, rr), tt.expectedErrMsg)
				return
			}

			var resp AuthResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, fixedUserID, resp.UserID)
			assert.Equal(t, "test-access-token", resp.AccessToken)
			assert.Equal(t, "test-refresh-token", resp.RefreshToken)
		})
	}
}
