package store

import (
	"context"
	"errors"
	"strings"
	"time"

	resumeforgeErrors "resumeforge/internal/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// User is a registered account
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// NormalizeEmail lowercases and trims an address so lookups are case-insensitive
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser inserts a new account. A taken username or email is a conflict.
func (db *Postgres) CreateUser(ctx context.Context, username, email, passwordHash string) (*User, error) {
	user := &User{
		ID:           uuid.New(),
		Username:     strings.TrimSpace(username),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
	}

	query, args, err := insertUserQuery(user.ID, user.Username, user.Email, user.PasswordHash)
	if err != nil {
		return nil, storageError("failed to build user insert", err)
	}

	if err := db.pool.QueryRow(ctx, query, args...).Scan(&user.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, resumeforgeErrors.NewStorageError(resumeforgeErrors.ErrCodeConflict,
				"username or email already exists", err)
		}
		return nil, storageError("failed to create user", err)
	}

	db.logger.Info("Created user", "user_id", user.ID.String())
	return user, nil
}

// UserByEmail looks up an account. A missing account is ErrCodeNotFound.
func (db *Postgres) UserByEmail(ctx context.Context, email string) (*User, error) {
	query, args, err := userByEmailQuery(NormalizeEmail(email))
	if err != nil {
		return nil, storageError("failed to build user query", err)
	}

	var user User
	err = db.pool.QueryRow(ctx, query, args...).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, resumeforgeErrors.NewStorageError(resumeforgeErrors.ErrCodeNotFound,
				"user not found", nil)
		}
		return nil, storageError("failed to get user", err)
	}
	return &user, nil
}
