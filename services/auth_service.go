package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"nextext/auth"
	"nextext/contract"
	"nextext/domain"
	"nextext/errors"
	"strings"
)

type IAuthService interface {
	Register(ctx context.Context, req auth.RegisterRequest) (domain.User, error)
	Login(ctx context.Context, username, password string) (Token, error)
	Me(ctx context.Context, id domain.UserID) (domain.User, error)
}

type AuthService struct {
	log    *slog.Logger
	users  contract.IUserRepository
	tokens *auth.TokenService
}

type Token string

func (t Token) String() string {
	return string(t)
}

func NewAuthService(log *slog.Logger, users contract.IUserRepository, tokens *auth.TokenService) *AuthService {
	return &AuthService{log: log, users: users, tokens: tokens}
}

func (s *AuthService) Register(ctx context.Context, req auth.RegisterRequest) (domain.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	// 1. Validate business rules before any expensive cryptographic operation
	if err := auth.ValidateRegister(req); err != nil {
		return domain.User{}, err
	}

	// 2. Hash the password so the repository never sees it in clear
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hashing failed: %w", err)
	}

	// 3. Persist, ErrUserAlreadyExists propagates when username or email is taken
	user, err := s.users.Create(ctx, domain.NewUser{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
	})
	if err != nil {
		return domain.User{}, err
	}
	s.log.Info("User registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, username, password string) (Token, error) {
	// 1. Retrieve the account, a generic error prevents user enumeration
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if !stderrors.Is(err, errors.ErrUserNotFound) {
			s.log.Warn("Login lookup failed", "username", username, "error", err)
		}
		return "", errors.ErrInvalidCredentials
	}

	// 2. Compare with the stored hash
	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", errors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", errors.ErrInactiveUser
	}

	// 3. Issue the access token
	token, err := s.tokens.GenerateToken(user.Username)
	if err != nil {
		return "", err
	}
	return Token(token), nil
}

func (s *AuthService) Me(ctx context.Context, id domain.UserID) (domain.User, error) {
	return s.users.GetByID(ctx, id)
}
