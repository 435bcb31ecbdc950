// internal/storage/order_repo.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/orderkaro/orderkaro-backend/internal/domain"
)

// Specific errors for order operations
var (
	ErrOrderNotFound = errors.New("order not found")
)

// CreateOrderFromCart places an order for everything in the user's cart:
// snapshot the lines with current product name/price, debit stock, clear the
// cart. One transaction end to end; a stock shortage rolls the whole thing
// back with ErrInsufficientStock.
func CreateOrderFromCart(ctx context.Context, db *sql.DB, userId string, addressID int64) (*domain.Order, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Verify the delivery address belongs to the user.
	var addrOwner string
	err = tx.QueryRowContext(ctx, `SELECT user_id FROM addresses WHERE id = ?`, addressID).Scan(&addrOwner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAddressNotFound
		}
		return nil, fmt.Errorf("database error checking address: %w", err)
	}
	if addrOwner != userId {
		return nil, ErrAddressNotFound
	}

	// Snapshot the cart joined with current product data.
	rows, err := tx.QueryContext(ctx, `
	SELECT ci.product_id, ci.quantity, p.name, p.price, p.stock
	FROM cart_items ci
	JOIN products p ON p.id = ci.product_id
	WHERE ci.user_id = ?
	ORDER BY ci.id`, userId)
	if err != nil {
		return nil, fmt.Errorf("database error reading cart: %w", err)
	}

	type line struct {
		productID int64
		quantity  int
		name      string
		price     float64
		stock     int
	}
	var lines []line
	for rows.Next() {
		var l line
		if err := rows.Scan(&l.productID, &l.quantity, &l.name, &l.price, &l.stock); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan cart row: %w", err)
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed reading cart rows: %w", err)
	}
	rows.Close()

	if len(lines) == 0 {
		return nil, ErrCartEmpty
	}

	// Debit stock. The conditional UPDATE makes oversell impossible even under
	// concurrent checkouts: zero rows affected means someone else got there
	// first.
	var total float64
	for _, l := range lines {
		result, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock - ? WHERE id = ? AND stock >= ?`,
			l.quantity, l.productID, l.quantity)
		if err != nil {
			return nil, fmt.Errorf("database error debiting stock: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("failed to check stock debit: %w", err)
		}
		if affected == 0 {
			customLog.Warnf("Storage: Insufficient stock for product %d (wanted %d, have %d)", l.productID, l.quantity, l.stock)
			return nil, fmt.Errorf("%w: %s", ErrInsufficientStock, l.name)
		}
		total += l.price * float64(l.quantity)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO orders (user_id, address_id, total_price) VALUES (?, ?, ?)`,
		userId, addressID, total)
	if err != nil {
		return nil, fmt.Errorf("database error creating order: %w", err)
	}
	orderID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve order ID: %w", err)
	}

	order := &domain.Order{
		ID:            orderID,
		UserId:        userId,
		AddressID:     addressID,
		TotalPrice:    total,
		Status:        domain.OrderStatusPending,
		PaymentStatus: domain.PaymentStatusPending,
	}
	for _, l := range lines {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, product_id, product_name, product_price, quantity) VALUES (?, ?, ?, ?, ?)`,
			orderID, l.productID, l.name, l.price, l.quantity); err != nil {
			return nil, fmt.Errorf("database error creating order item: %w", err)
		}
		order.Items = append(order.Items, domain.OrderItem{
			OrderID:      orderID,
			ProductID:    l.productID,
			ProductName:  l.name,
			ProductPrice: l.price,
			Quantity:     l.quantity,
		})
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = ?`, userId); err != nil {
		return nil, fmt.Errorf("database error clearing cart: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}
	customLog.Printf("Storage: Order %d placed for user %s (%d lines, total %.2f)", orderID, userId, len(lines), total)
	return order, nil
}

const orderColumns = `id, user_id, address_id, total_price, status, payment_status, payment_id, created_at`

func scanOrder(row interface{ Scan(...any) error }) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.UserId, &o.AddressID, &o.TotalPrice, &o.Status, &o.PaymentStatus, &o.PaymentID, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ListOrders retrieves the user's order history, newest first, without items.
func ListOrders(ctx context.Context, db *sql.DB, userId string) ([]domain.Order, error) {
	sqlStatement := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = ? ORDER BY created_at DESC, id DESC`
	rows, err := db.QueryContext(ctx, sqlStatement, userId)
	if err != nil {
		customLog.Warnf("Storage: Failed to list orders for user %s: %v", userId, err)
		return nil, fmt.Errorf("database error listing orders: %w", err)
	}
	defer rows.Close()

	orders := make([]domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order row: %w", err)
		}
		orders = append(orders, *o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading order rows: %w", err)
	}
	return orders, nil
}

// GetOrder retrieves one order owned by the user, including its line items.
func GetOrder(ctx context.Context, db *sql.DB, userId string, orderID int64) (*domain.Order, error) {
	sqlStatement := `SELECT ` + orderColumns + ` FROM orders WHERE id = ? AND user_id = ? LIMIT 1`
	o, err := scanOrder(db.QueryRowContext(ctx, sqlStatement, orderID, userId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		customLog.Warnf("Storage: Failed to get order %d for user %s: %v", orderID, userId, err)
		return nil, fmt.Errorf("database error finding order: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, order_id, product_id, product_name, product_price, quantity FROM order_items WHERE order_id = ? ORDER BY id`,
		orderID)
	if err != nil {
		return nil, fmt.Errorf("database error listing order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.ProductPrice, &item.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan order item row: %w", err)
		}
		o.Items = append(o.Items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading order item rows: %w", err)
	}
	return o, nil
}
