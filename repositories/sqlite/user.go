package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"nextext/domain"
	"nextext/errors"
	"strings"
	"time"
)

const userColumns = "id, username, email, password_hash, is_active, created_at"

type UserRepository struct {
	store *Store
}

func (u *UserRepository) Create(ctx context.Context, newUser domain.NewUser) (domain.User, error) {
	user := domain.User{
		Username:     newUser.Username,
		Email:        strings.ToLower(newUser.Email),
		PasswordHash: newUser.PasswordHash,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	res, err := u.store.db.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, is_active, created_at) VALUES (?, ?, ?, 1, ?)",
		user.Username, user.Email, user.PasswordHash, user.CreatedAt.UnixNano())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return domain.User{}, errors.ErrUserAlreadyExists
		}
		return domain.User{}, fmt.Errorf("%w: %w", errors.ErrPersistence, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %w", errors.ErrPersistence, err)
	}
	user.ID = domain.UserID(id)
	return user, nil
}

func (u *UserRepository) GetByID(ctx context.Context, id domain.UserID) (domain.User, error) {
	row := u.store.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", int64(id))
	return scanUser(row)
}

func (u *UserRepository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	row := u.store.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE username = ?", username)
	return scanUser(row)
}

// Search matches query.Q as a case-insensitive substring of username or email, in id order.
func (u *UserRepository) Search(ctx context.Context, query domain.UserQuery) ([]domain.User, error) {
	pattern := "%" + escapeLike(strings.ToLower(query.Q)) + "%"
	limit := query.Limit
	if limit <= 0 {
		limit = -1
	}
	rows, err := u.store.db.QueryContext(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE lower(username) LIKE ? ESCAPE '\' OR lower(email) LIKE ? ESCAPE '\'
		ORDER BY id LIMIT ? OFFSET ?`,
		pattern, pattern, limit, query.Skip)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrPersistence, err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrPersistence, err)
	}
	return users, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (domain.User, error) {
	var user domain.User
	var createdAt int64
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.IsActive, &createdAt)
	if err == sql.ErrNoRows {
		return domain.User{}, errors.ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %w", errors.ErrPersistence, err)
	}
	user.CreatedAt = time.Unix(0, createdAt).UTC()
	return user, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
