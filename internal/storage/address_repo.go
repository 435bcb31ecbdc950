// internal/storage/address_repo.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/orderkaro/orderkaro-backend/internal/domain"
)

// Specific errors for address operations
var (
	ErrAddressNotFound = errors.New("address not found")
)

const addressColumns = `id, user_id, line, city, state, pincode, type, is_default, created_at`

func scanAddress(row interface{ Scan(...any) error }) (*domain.Address, error) {
	var a domain.Address
	err := row.Scan(&a.ID, &a.UserId, &a.Line, &a.City, &a.State, &a.Pincode, &a.Type, &a.IsDefault, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAddress inserts a new address-book entry. When isDefault is set, the
// unset-others and set-this steps run in one transaction so there is never a
// window with zero or two defaults.
func CreateAddress(ctx context.Context, db *sql.DB, a *domain.Address) (int64, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if a.IsDefault {
		if _, err := tx.ExecContext(ctx, `UPDATE addresses SET is_default = 0 WHERE user_id = ?`, a.UserId); err != nil {
			return 0, fmt.Errorf("database error unsetting default address: %w", err)
		}
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO addresses (user_id, line, city, state, pincode, type, is_default) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.UserId, a.Line, a.City, a.State, a.Pincode, a.Type, a.IsDefault)
	if err != nil {
		customLog.Warnf("Storage: Failed to insert address for user %s: %v", a.UserId, err)
		return 0, fmt.Errorf("database error during address creation: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to retrieve address ID: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit address creation: %w", err)
	}
	return id, nil
}

// GetAddress retrieves one address owned by the user.
func GetAddress(ctx context.Context, db *sql.DB, userId string, addressID int64) (*domain.Address, error) {
	sqlStatement := `SELECT ` + addressColumns + ` FROM addresses WHERE id = ? AND user_id = ? LIMIT 1`
	a, err := scanAddress(db.QueryRowContext(ctx, sqlStatement, addressID, userId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAddressNotFound
		}
		customLog.Warnf("Storage: Failed to get address %d for user %s: %v", addressID, userId, err)
		return nil, fmt.Errorf("database error finding address: %w", err)
	}
	return a, nil
}

// ListAddresses retrieves the user's address book, default first.
func ListAddresses(ctx context.Context, db *sql.DB, userId string) ([]domain.Address, error) {
	sqlStatement := `SELECT ` + addressColumns + ` FROM addresses WHERE user_id = ? ORDER BY is_default DESC, created_at, id`
	rows, err := db.QueryContext(ctx, sqlStatement, userId)
	if err != nil {
		customLog.Warnf("Storage: Failed to list addresses for user %s: %v", userId, err)
		return nil, fmt.Errorf("database error listing addresses: %w", err)
	}
	defer rows.Close()

	addresses := make([]domain.Address, 0)
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan address row: %w", err)
		}
		addresses = append(addresses, *a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading address rows: %w", err)
	}
	return addresses, nil
}

// UpdateAddress replaces the fields of an existing entry, transactionally
// moving the default flag when requested.
func UpdateAddress(ctx context.Context, db *sql.DB, a *domain.Address) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if a.IsDefault {
		if _, err := tx.ExecContext(ctx,
			`UPDATE addresses SET is_default = 0 WHERE user_id = ? AND id != ?`, a.UserId, a.ID); err != nil {
			return fmt.Errorf("database error unsetting default address: %w", err)
		}
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE addresses SET line = ?, city = ?, state = ?, pincode = ?, type = ?, is_default = ? WHERE id = ? AND user_id = ?`,
		a.Line, a.City, a.State, a.Pincode, a.Type, a.IsDefault, a.ID, a.UserId)
	if err != nil {
		customLog.Warnf("Storage: Failed to update address %d: %v", a.ID, err)
		return fmt.Errorf("database error updating address: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return ErrAddressNotFound
	}

	return tx.Commit()
}

// SetDefaultAddress marks one entry as the default. Both steps run in a single
// transaction, so the "at most one default per user" invariant holds even if
// the process dies mid-operation.
func SetDefaultAddress(ctx context.Context, db *sql.DB, userId string, addressID int64) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE addresses SET is_default = 1 WHERE id = ? AND user_id = ?`, addressID, userId)
	if err != nil {
		return fmt.Errorf("database error setting default address: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return ErrAddressNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE addresses SET is_default = 0 WHERE user_id = ? AND id != ?`, userId, addressID); err != nil {
		return fmt.Errorf("database error unsetting previous default: %w", err)
	}

	return tx.Commit()
}

// DeleteAddress removes an entry owned by the user.
func DeleteAddress(ctx context.Context, db *sql.DB, userId string, addressID int64) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM addresses WHERE id = ? AND user_id = ?`, addressID, userId)
	if err != nil {
		customLog.Warnf("Storage: Failed to delete address %d: %v", addressID, err)
		return fmt.Errorf("database error deleting address: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return ErrAddressNotFound
	}
	return nil
}
