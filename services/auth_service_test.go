package services

import (
	"context"
	"log/slog"
	"nextext/auth"
	"nextext/domain"
	"nextext/errors"
	"nextext/mocks"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestAuthService_Register(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRepo := mocks.NewMockIUserRepository(ctrl)
	svc := NewAuthService(slog.Default(), mockRepo, auth.NewTokenService("secret", time.Hour))
	ctx := context.Background()

	t.Run("should register successfully when input is valid", func(t *testing.T) {
		req := require.New(t)
		created := domain.User{ID: 1, Username: "alice", Email: "alice@example.com", IsActive: true}

		// Expect Create to be called with a hashed password, never the plain one
		mockRepo.EXPECT().
			Create(ctx, gomock.Any()).
			DoAndReturn(func(_ context.Context, u domain.NewUser) (domain.User, error) {
				req.Equal("alice", u.Username)
				req.NotEqual("ComplexPass123!", u.PasswordHash)
				ok, err := auth.ComparePassword("ComplexPass123!", u.PasswordHash)
				req.NoError(err)
				req.True(ok)
				return created, nil
			}).
			Times(1)

		user, err := svc.Register(ctx, auth.RegisterRequest{Username: " alice ", Email: "alice@example.com", Password: "ComplexPass123!"})

		req.NoError(err)
		req.Equal(created, user)
	})

	t.Run("should fail when password is too short", func(t *testing.T) {
		req := require.New(t)
		mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

		_, err := svc.Register(ctx, auth.RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "short"})

		req.ErrorIs(err, errors.ErrInvalidPassword)
	})

	t.Run("should fail when email is malformed", func(t *testing.T) {
		req := require.New(t)
		mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

		_, err := svc.Register(ctx, auth.RegisterRequest{Username: "alice", Email: "nope", Password: "ComplexPass123!"})

		req.ErrorIs(err, errors.ErrInvalidUser)
	})

	t.Run("should fail when user already exists in repository", func(t *testing.T) {
		req := require.New(t)
		mockRepo.EXPECT().
			Create(ctx, gomock.Any()).
			Return(domain.User{}, errors.ErrUserAlreadyExists).
			Times(1)

		_, err := svc.Register(ctx, auth.RegisterRequest{Username: "bob", Email: "bob@example.com", Password: "ComplexPass123!"})

		req.ErrorIs(err, errors.ErrUserAlreadyExists)
	})
}

func TestAuthService_Login(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockRepo := mocks.NewMockIUserRepository(ctrl)
	tokens := auth.NewTokenService("secret", time.Hour)
	svc := NewAuthService(slog.Default(), mockRepo, tokens)
	ctx := context.Background()

	hash, err := auth.HashPassword("Secret123456!")
	require.NoError(t, err)

	t.Run("should login successfully with correct credentials", func(t *testing.T) {
		req := require.New(t)
		mockRepo.EXPECT().
			GetByUsername(ctx, "alice").
			Return(domain.User{ID: 1, Username: "alice", PasswordHash: hash, IsActive: true}, nil).
			Times(1)

		token, err := svc.Login(ctx, "alice", "Secret123456!")

		req.NoError(err)
		claims, err := tokens.ValidateToken(token.String())
		req.NoError(err)
		req.Equal("alice", claims.Subject)
	})

	t.Run("should return invalid credentials on wrong password", func(t *testing.T) {
		req := require.New(t)
		mockRepo.EXPECT().
			GetByUsername(ctx, "alice").
			Return(domain.User{ID: 1, Username: "alice", PasswordHash: hash, IsActive: true}, nil).
			Times(1)

		token, err := svc.Login(ctx, "alice", "WrongPassword!")

		req.ErrorIs(err, errors.ErrInvalidCredentials)
		req.Empty(token)
	})

	t.Run("should return invalid credentials on unknown user", func(t *testing.T) {
		mockRepo.EXPECT().
			GetByUsername(ctx, "ghost").
			Return(domain.User{}, errors.ErrUserNotFound).
			Times(1)

		_, err := svc.Login(ctx, "ghost", "Secret123456!")

		require.ErrorIs(t, err, errors.ErrInvalidCredentials)
	})

	t.Run("should refuse an inactive account", func(t *testing.T) {
		mockRepo.EXPECT().
			GetByUsername(ctx, "carol").
			Return(domain.User{ID: 3, Username: "carol", PasswordHash: hash, IsActive: false}, nil).
			Times(1)

		_, err := svc.Login(ctx, "carol", "Secret123456!")

		require.ErrorIs(t, err, errors.ErrInactiveUser)
	})
}
