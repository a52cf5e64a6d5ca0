package repositories

import (
	"context"
	"fmt"
	"nextext/domain"
	"nextext/errors"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_Create_And_Get(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	_, users := newTestRepositories(t)

	created, err := users.Create(ctx, domain.NewUser{Username: "alice", Email: "Alice@Example.com", PasswordHash: "h"})
	req.NoError(err)
	req.NotZero(created.ID)
	req.True(created.IsActive)
	req.Equal("alice@example.com", created.Email)

	byID, err := users.GetByID(ctx, created.ID)
	req.NoError(err)
	req.Equal(created, byID)

	byName, err := users.GetByUsername(ctx, "alice")
	req.NoError(err)
	req.Equal(created, byName)
}

func TestUserRepository_Duplicates(t *testing.T) {
	ctx := context.Background()
	_, users := newTestRepositories(t)
	createUser(t, users, "alice")

	t.Run("should refuse a taken username", func(t *testing.T) {
		_, err := users.Create(ctx, domain.NewUser{Username: "alice", Email: "other@example.com"})
		require.ErrorIs(t, err, errors.ErrUserAlreadyExists)
	})

	t.Run("should refuse a taken email whatever its case", func(t *testing.T) {
		_, err := users.Create(ctx, domain.NewUser{Username: "alice2", Email: "ALICE@example.com"})
		require.ErrorIs(t, err, errors.ErrUserAlreadyExists)
	})
}

func TestUserRepository_Not_Found(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	_, users := newTestRepositories(t)

	_, err := users.GetByID(ctx, 12)
	req.ErrorIs(err, errors.ErrUserNotFound)

	_, err = users.GetByUsername(ctx, "ghost")
	req.ErrorIs(err, errors.ErrUserNotFound)
}

func TestUserRepository_Search(t *testing.T) {
	ctx := context.Background()
	_, users := newTestRepositories(t)
	for i := 1; i <= 5; i++ {
		createUser(t, users, fmt.Sprintf("bob%d", i))
	}
	createUser(t, users, "alice")

	usernames := func(list []domain.User) []string {
		return lo.Map(list, func(u domain.User, _ int) string { return u.Username })
	}

	t.Run("should match username case-insensitively", func(t *testing.T) {
		found, err := users.Search(ctx, domain.UserQuery{Q: "BOB", Limit: 10})
		require.NoError(t, err)
		require.Equal(t, []string{"bob1", "bob2", "bob3", "bob4", "bob5"}, usernames(found))
	})

	t.Run("should match email", func(t *testing.T) {
		found, err := users.Search(ctx, domain.UserQuery{Q: "alice@", Limit: 10})
		require.NoError(t, err)
		require.Equal(t, []string{"alice"}, usernames(found))
	})

	t.Run("should apply skip and limit after filtering", func(t *testing.T) {
		found, err := users.Search(ctx, domain.UserQuery{Q: "bob", Skip: 1, Limit: 2})
		require.NoError(t, err)
		require.Equal(t, []string{"bob2", "bob3"}, usernames(found))
	})

	t.Run("should list everyone with an empty query", func(t *testing.T) {
		found, err := users.Search(ctx, domain.UserQuery{Limit: 100})
		require.NoError(t, err)
		require.Len(t, found, 6)
	})
}
