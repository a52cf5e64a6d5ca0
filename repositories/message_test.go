package repositories

import (
	"context"
	"log/slog"
	"nextext/domain"
	"nextext/errors"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t testing.TB) *badger.DB {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestRepositories(t testing.TB) (*MessageRepository, *UserRepository) {
	t.Helper()
	db := openTestDB(t)
	messages, err := NewMessageRepository(db, slog.Default())
	require.NoError(t, err)
	users, err := NewUserRepository(db, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = messages.Close()
		_ = users.Close()
	})
	return messages, users
}

func createUser(t testing.TB, users *UserRepository, username string) domain.User {
	t.Helper()
	user, err := users.Create(context.Background(), domain.NewUser{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	return user
}

func Test_Create_Assigns_Increasing_Ids_And_Timestamps(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	messages, users := newTestRepositories(t)
	alice, bob := createUser(t, users, "alice"), createUser(t, users, "bob")

	var created []domain.Message
	for _, content := range []string{"hello", "how are you?", "fine"} {
		msg, err := messages.Create(ctx, alice.ID, bob.ID, content)
		req.NoError(err)
		req.Equal(alice.ID, msg.SenderID)
		req.Equal(bob.ID, msg.RecipientID)
		req.Equal(content, msg.Content)
		created = append(created, msg)
	}

	for i := 1; i < len(created); i++ {
		req.Greater(created[i].ID, created[i-1].ID)
		req.False(created[i].Timestamp.Before(created[i-1].Timestamp))
	}
}

func Test_Create_Clamps_Clock_Going_Backwards(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	messages, users := newTestRepositories(t)
	alice, bob := createUser(t, users, "alice"), createUser(t, users, "bob")

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := []time.Time{base, base.Add(-time.Hour)}
	messages.now = func() time.Time {
		at := clock[0]
		clock = clock[1:]
		return at
	}

	first, err := messages.Create(ctx, alice.ID, bob.ID, "first")
	req.NoError(err)
	second, err := messages.Create(ctx, bob.ID, alice.ID, "second")
	req.NoError(err)

	req.Greater(second.ID, first.ID)
	req.Equal(first.Timestamp, second.Timestamp)
}

func Test_Create_Unknown_Recipient_Is_Rejected(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	messages, users := newTestRepositories(t)
	alice := createUser(t, users, "alice")

	_, err := messages.Create(ctx, alice.ID, 4242, "anyone there?")

	req.ErrorIs(err, errors.ErrPersistence)
	req.ErrorIs(err, errors.ErrUserNotFound)

	history, err := messages.ListBetween(ctx, alice.ID, 4242)
	req.NoError(err)
	req.Empty(history)
}

func Test_Create_Canceled_Context(t *testing.T) {
	req := require.New(t)
	messages, users := newTestRepositories(t)
	alice, bob := createUser(t, users, "alice"), createUser(t, users, "bob")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := messages.Create(ctx, alice.ID, bob.ID, "too late")

	req.ErrorIs(err, errors.ErrPersistence)
	req.ErrorIs(err, context.Canceled)
}

func Test_ListBetween_Both_Directions_Oldest_First(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	messages, users := newTestRepositories(t)
	alice, bob, carol := createUser(t, users, "alice"), createUser(t, users, "bob"), createUser(t, users, "carol")

	m1, err := messages.Create(ctx, alice.ID, bob.ID, "ping")
	req.NoError(err)
	_, err = messages.Create(ctx, alice.ID, carol.ID, "other conversation")
	req.NoError(err)
	m2, err := messages.Create(ctx, bob.ID, alice.ID, "pong")
	req.NoError(err)

	fromAlice, err := messages.ListBetween(ctx, alice.ID, bob.ID)
	req.NoError(err)
	fromBob, err := messages.ListBetween(ctx, bob.ID, alice.ID)
	req.NoError(err)

	req.Equal([]domain.Message{m1, m2}, fromAlice)
	req.Equal(fromAlice, fromBob)
}

func Test_Ids_Survive_Reopening_The_Store(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	dir := t.TempDir()

	open := func() (*badger.DB, *MessageRepository, *UserRepository) {
		db, err := badger.Open(badger.DefaultOptions(dir).WithLoggingLevel(badger.ERROR))
		req.NoError(err)
		messages, err := NewMessageRepository(db, slog.Default())
		req.NoError(err)
		users, err := NewUserRepository(db, slog.Default())
		req.NoError(err)
		return db, messages, users
	}

	db, messages, users := open()
	alice := createUser(t, users, "alice")
	bob := createUser(t, users, "bob")
	first, err := messages.Create(ctx, alice.ID, bob.ID, "before restart")
	req.NoError(err)
	req.NoError(messages.Close())
	req.NoError(users.Close())
	req.NoError(db.Close())

	db, messages, users = open()
	defer db.Close()
	defer users.Close()
	defer messages.Close()
	second, err := messages.Create(ctx, bob.ID, alice.ID, "after restart")
	req.NoError(err)

	req.Greater(second.ID, first.ID)
	history, err := messages.ListBetween(ctx, alice.ID, bob.ID)
	req.NoError(err)
	req.Len(history, 2)
}

func Test_Concurrent_Create_Keeps_Order(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	messages, users := newTestRepositories(t)
	alice, bob := createUser(t, users, "alice"), createUser(t, users, "bob")

	const writers = 8
	const perWriter = 25
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				_, err := messages.Create(ctx, alice.ID, bob.ID, "burst")
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	history, err := messages.ListBetween(ctx, alice.ID, bob.ID)
	req.NoError(err)
	req.Len(history, writers*perWriter)
	for i := 1; i < len(history); i++ {
		req.Greater(history[i].ID, history[i-1].ID)
		req.False(history[i].Timestamp.Before(history[i-1].Timestamp))
	}
}
