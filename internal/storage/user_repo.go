// internal/storage/user_repo.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/orderkaro/orderkaro-backend/internal/domain"
)

// Specific errors for user operations
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// --- User Operations ---

// CreateUser inserts a new user into the store database.
func CreateUser(ctx context.Context, db *sql.DB, userId, name, email, passwordHash string) (string, error) {
	sqlStatement := `INSERT INTO users (user_id, name, email, password_hash) VALUES (?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, sqlStatement, userId, name, email, passwordHash)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			if strings.Contains(sqliteErr.Error(), "users.email") {
				return "", ErrEmailExists
			}
		}
		customLog.Warnf("Storage: Failed to insert user %s: %v", email, err)
		return "", fmt.Errorf("database error during user creation: %w", err)
	}

	return userId, nil
}

// FindUserByEmail retrieves a user by their email address.
func FindUserByEmail(ctx context.Context, db *sql.DB, email string) (*domain.User, error) {
	sqlStatement := `SELECT user_id, name, email, password_hash, is_admin, created_at FROM users WHERE email = ? LIMIT 1`
	row := db.QueryRowContext(ctx, sqlStatement, email)

	var user domain.User
	err := row.Scan(&user.UserId, &user.Name, &user.Email, &user.PasswordHash, &user.IsAdmin, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		customLog.Warnf("Storage: Failed to find user by email %s: %v", email, err)
		return nil, fmt.Errorf("database error finding user: %w", err)
	}
	return &user, nil
}

// FindUserByUserId retrieves a user by their ID.
func FindUserByUserId(ctx context.Context, db *sql.DB, userId string) (*domain.User, error) {
	sqlStatement := `SELECT user_id, name, email, password_hash, is_admin, created_at FROM users WHERE user_id = ? LIMIT 1`
	row := db.QueryRowContext(ctx, sqlStatement, userId)

	var user domain.User
	err := row.Scan(&user.UserId, &user.Name, &user.Email, &user.PasswordHash, &user.IsAdmin, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		customLog.Warnf("Storage: Failed to find user %s: %v", userId, err)
		return nil, fmt.Errorf("database error finding user: %w", err)
	}
	return &user, nil
}

// UpdateUserName changes the user's display name.
func UpdateUserName(ctx context.Context, db *sql.DB, userId, name string) error {
	result, err := db.ExecContext(ctx, `UPDATE users SET name = ? WHERE user_id = ?`, name, userId)
	if err != nil {
		customLog.Warnf("Storage: Failed to update name for user %s: %v", userId, err)
		return fmt.Errorf("database error updating user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateUserPassword replaces the stored password hash.
func UpdateUserPassword(ctx context.Context, db *sql.DB, userId, passwordHash string) error {
	result, err := db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE user_id = ?`, passwordHash, userId)
	if err != nil {
		customLog.Warnf("Storage: Failed to update password for user %s: %v", userId, err)
		return fmt.Errorf("database error updating password: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}
