// internal/storage/product_repo.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/orderkaro/orderkaro-backend/internal/core"
	"github.com/orderkaro/orderkaro-backend/internal/domain"
)

// Specific errors for catalog operations
var (
	ErrProductNotFound     = errors.New("product not found")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrConstraintViolation = errors.New("constraint violation")
)

const productColumns = `id, name, description, price, image_url, stock, category_id, created_at`

func scanProduct(row interface{ Scan(...any) error }) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.ImageURL, &p.Stock, &p.CategoryID, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProduct inserts a catalog item and returns its ID.
func CreateProduct(ctx context.Context, db *sql.DB, p *domain.Product) (int64, error) {
	sqlStatement := `INSERT INTO products (name, description, price, image_url, stock, category_id) VALUES (?, ?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, sqlStatement, p.Name, p.Description, p.Price, p.ImageURL, p.Stock, p.CategoryID)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			if sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
				return 0, ErrCategoryNotFound
			}
			return 0, ErrConstraintViolation
		}
		customLog.Warnf("Storage: Failed to insert product '%s': %v", p.Name, err)
		return 0, fmt.Errorf("database error during product creation: %w", err)
	}
	return result.LastInsertId()
}

// GetProduct retrieves one product by ID.
func GetProduct(ctx context.Context, db *sql.DB, productID int64) (*domain.Product, error) {
	sqlStatement := `SELECT ` + productColumns + ` FROM products WHERE id = ? LIMIT 1`
	p, err := scanProduct(db.QueryRowContext(ctx, sqlStatement, productID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		customLog.Warnf("Storage: Failed to get product %d: %v", productID, err)
		return nil, fmt.Errorf("database error finding product: %w", err)
	}
	return p, nil
}

// ListProducts retrieves products matching the parsed query. Filters compose
// conditionally; absent ones are not present in the WHERE clause at all.
func ListProducts(ctx context.Context, db *sql.DB, q *core.ProductQuery) ([]domain.Product, error) {
	var whereClauses []string
	var args []any

	if q.CategoryID != nil {
		whereClauses = append(whereClauses, "category_id = ?")
		args = append(args, *q.CategoryID)
	}
	if q.MinPrice != nil {
		whereClauses = append(whereClauses, "price >= ?")
		args = append(args, *q.MinPrice)
	}
	if q.MaxPrice != nil {
		whereClauses = append(whereClauses, "price <= ?")
		args = append(args, *q.MaxPrice)
	}
	if q.Search != "" {
		whereClauses = append(whereClauses, "name LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLike(q.Search)+"%")
	}

	querySQL := `SELECT ` + productColumns + ` FROM products`
	if len(whereClauses) > 0 {
		querySQL += " WHERE " + strings.Join(whereClauses, " AND ")
	}

	// Sort column comes from the whitelist in core, never from raw input.
	if q.SortBy != "" {
		querySQL += fmt.Sprintf(" ORDER BY %s %s", q.SortBy, strings.ToUpper(q.SortOrder))
	} else {
		querySQL += " ORDER BY id ASC"
	}
	querySQL += " LIMIT ? OFFSET ?"
	args = append(args, q.Limit, q.Offset)

	rows, err := db.QueryContext(ctx, querySQL, args...)
	if err != nil {
		customLog.Warnf("Storage: Failed to list products: %v\nSQL: %s", err, querySQL)
		return nil, fmt.Errorf("database error listing products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		products = append(products, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading product rows: %w", err)
	}
	return products, nil
}

// UpdateProduct applies non-nil fields. Returns ErrProductNotFound when the ID
// doesn't exist.
func UpdateProduct(ctx context.Context, db *sql.DB, productID int64, setClauses []string, args []any) error {
	if len(setClauses) == 0 {
		return nil
	}
	args = append(args, productID)
	updateSQL := fmt.Sprintf("UPDATE products SET %s WHERE id = ?", strings.Join(setClauses, ", "))

	result, err := db.ExecContext(ctx, updateSQL, args...)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return ErrConstraintViolation
		}
		customLog.Warnf("Storage: Failed to update product %d: %v", productID, err)
		return fmt.Errorf("database error updating product: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return ErrProductNotFound
	}
	return nil
}

// DeleteProduct removes a catalog item.
func DeleteProduct(ctx context.Context, db *sql.DB, productID int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, productID)
	if err != nil {
		customLog.Warnf("Storage: Failed to delete product %d: %v", productID, err)
		return fmt.Errorf("database error deleting product: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return ErrProductNotFound
	}
	return nil
}

// ListCategories retrieves all categories ordered by name.
func ListCategories(ctx context.Context, db *sql.DB) ([]domain.Category, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		customLog.Warnf("Storage: Failed to list categories: %v", err)
		return nil, fmt.Errorf("database error listing categories: %w", err)
	}
	defer rows.Close()

	categories := make([]domain.Category, 0)
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		categories = append(categories, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed reading category rows: %w", err)
	}
	return categories, nil
}

// CreateCategory inserts a category, returning the existing ID when the name
// is already present.
func CreateCategory(ctx context.Context, db *sql.DB, name string) (int64, error) {
	result, err := db.ExecContext(ctx, `INSERT INTO categories (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name)
	if err != nil {
		customLog.Warnf("Storage: Failed to insert category '%s': %v", name, err)
		return 0, fmt.Errorf("database error during category creation: %w", err)
	}
	if id, err := result.LastInsertId(); err == nil && id > 0 {
		rows, raErr := result.RowsAffected()
		if raErr == nil && rows > 0 {
			return id, nil
		}
	}

	var id int64
	err = db.QueryRowContext(ctx, `SELECT id FROM categories WHERE name = ?`, name).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("database error finding category: %w", err)
	}
	return id, nil
}

// escapeLike escapes LIKE wildcards in user-supplied search text.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
