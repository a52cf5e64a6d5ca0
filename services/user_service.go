package services

import (
	"context"
	"fmt"
	"nextext/contract"
	"nextext/domain"
	"nextext/errors"
	"strings"
)

const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 100
)

type IUserService interface {
	Search(ctx context.Context, query domain.UserQuery) ([]domain.User, error)
}

type UserService struct {
	users contract.IUserRepository
}

func NewUserService(users contract.IUserRepository) *UserService {
	return &UserService{users: users}
}

// Search lists users whose username or email contains query.Q.
// Limit must lie in 1..MaxSearchLimit and Skip must not be negative.
func (s *UserService) Search(ctx context.Context, query domain.UserQuery) ([]domain.User, error) {
	if query.Skip < 0 {
		return nil, fmt.Errorf("%w: skip must be >= 0", errors.ErrInvalidPagination)
	}
	if query.Limit < 1 || query.Limit > MaxSearchLimit {
		return nil, fmt.Errorf("%w: limit must be in 1..%d", errors.ErrInvalidPagination, MaxSearchLimit)
	}
	query.Q = strings.TrimSpace(query.Q)
	return s.users.Search(ctx, query)
}
