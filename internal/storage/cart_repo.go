// internal/storage/cart_repo.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"

	"github.com/orderkaro/orderkaro-backend/internal/domain"
)

// Specific errors for cart operations
var (
	ErrCartItemNotFound  = errors.New("cart item not found")
	ErrCartEmpty         = errors.New("cart is empty")
	ErrInsufficientStock = errors.New("insufficient stock for product")
)

// AddCartItem adds quantity of a product to the user's cart in one atomic
// statement: the UNIQUE(user_id, product_id) constraint turns a second add of
// the same product into a quantity increment. No check-then-insert window.
func AddCartItem(ctx context.Context, db *sql.DB, userId string, productID int64, quantity int) error {
	sqlStatement := `
	INSERT INTO cart_items (user_id, product_id, quantity)
	VALUES (?, ?, ?)
	ON CONFLICT (user_id, product_id)
	DO UPDATE SET quantity = quantity + excluded.quantity, added_at = CURRENT_TIMESTAMP`

	_, err := db.ExecContext(ctx, sqlStatement, userId, productID, quantity)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			if sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
				return ErrProductNotFound
			}
			return ErrConstraintViolation
		}
		customLog.Warnf("Storage: Failed to add cart item (user %s, product %d): %v", userId, productID, err)
		return fmt.Errorf("database error adding cart item: %w", err)
	}
	return nil
}

// SetCartItemQuantity overwrites the quantity of an existing line.
func SetCartItemQuantity(ctx context.Context, db *sql.DB, userId string, productID int64, quantity int) error {
	result, err := db.ExecContext(ctx,
		`UPDATE cart_items SET quantity = ?, added_at = CURRENT_TIMESTAMP WHERE user_id = ? AND product_id = ?`,
		quantity, userId, productID)
	if err != nil {
		customLog.Warnf("Storage: Failed to update cart item (user %s, product %d): %v", userId, productID, err)
		return fmt.Errorf("database error updating cart item: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

// RemoveCartItem deletes one line from the user's cart.
func RemoveCartItem(ctx context.Context, db *sql.DB, userId string, productID int64) error {
	result, err := db.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = ? AND product_id = ?`, userId, productID)
	if err != nil {
		customLog.Warnf("Storage: Failed to remove cart item (user %s, product %d): %v", userId, productID, err)
		return fmt.Errorf("database error removing cart item: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

// ClearCart removes every line of the user's cart.
func ClearCart(ctx context.Context, db *sql.DB, userId string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = ?`, userId); err != nil {
		customLog.Warnf("Storage: Failed to clear cart for user %s: %v", userId, err)
		return fmt.Errorf("database error clearing cart: %w", err)
	}
	return nil
}

// ListCartLines retrieves the user's cart joined with current product data.
func ListCartLines(ctx context.Context, db *sql.DB, userId string) ([]domain.CartLine, error) {
	sqlStatement := `
	SELECT ci.id, ci.user_id, ci.product_id, ci.quantity, ci.added_at,
	       p.name, p.price, p.image_url, p.stock
	FROM cart_items ci
	JOIN products p ON p.id = ci.product_id
	WHERE ci.user_id = ?
	ORDER BY ci.added_at, ci.id`

	rows, err := db.QueryContext(ctx, sqlStatement, userId)
	if err != nil {
		customLog.Warnf("Storage: Failed to list cart for user %s: %v", userId, err)
		return nil, fmt.Errorf("database error listing cart: %w", err)
	}
	defer rows.Close()

	lines := make([]domain.CartLine, 0)
	for rows.Next() {
		var l domain.CartLine
		err := rows.Scan(&l.ID, &l.UserId, &l.ProductID, &l.Quantity, &l.AddedAt,
			&l.ProductName, &l.ProductPrice, &l.ImageURL, &l.Stock)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart row: %w", err)
		}
		lines = append(lines, l)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading cart rows: %w", err)
	}
	return lines, nil
}
