// internal/domain/models.go
package domain

import "time"

// User defines the structure for user data in the DB
type User struct {
	UserId       string    `json:"user_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// Category groups products on the storefront.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Product is a storefront item.
type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	ImageURL    string    `json:"image_url"`
	Stock       int       `json:"stock"`
	CategoryID  int64     `json:"category_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// AddressType distinguishes the entries of a user's address book.
type AddressType string

const (
	AddressTypeHome  AddressType = "home"
	AddressTypeWork  AddressType = "work"
	AddressTypeOther AddressType = "other"
)

// Address is one entry of a user's address book. At most one address per user
// carries IsDefault; the storage layer flips the flag transactionally.
type Address struct {
	ID        int64       `json:"id"`
	UserId    string      `json:"user_id"`
	Line      string      `json:"line"`
	City      string      `json:"city"`
	State     string      `json:"state"`
	Pincode   string      `json:"pincode"`
	Type      AddressType `json:"type"`
	IsDefault bool        `json:"is_default"`
	CreatedAt time.Time   `json:"created_at"`
}

// CartItem is one line of a user's cart. (user_id, product_id) is unique,
// enforced by the schema rather than check-then-insert logic.
type CartItem struct {
	ID        int64     `json:"id"`
	UserId    string    `json:"user_id"`
	ProductID int64     `json:"product_id"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
}

// CartLine is a cart item joined with its product for display.
type CartLine struct {
	CartItem
	ProductName  string  `json:"product_name"`
	ProductPrice float64 `json:"product_price"`
	ImageURL     string  `json:"image_url"`
	Stock        int     `json:"stock"`
}

// OrderStatus and PaymentStatus follow the usual e-commerce flow.
type OrderStatus string
type PaymentStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"

	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Order is a placed order. Line items snapshot product name/price at purchase
// time so later catalog edits don't rewrite history.
type Order struct {
	ID            int64         `json:"id"`
	UserId        string        `json:"user_id"`
	AddressID     int64         `json:"address_id"`
	TotalPrice    float64       `json:"total_price"`
	Status        OrderStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	PaymentID     string        `json:"payment_id,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
	Items         []OrderItem   `json:"items,omitempty"`
}

// OrderItem is one snapshotted line of an order.
type OrderItem struct {
	ID           int64   `json:"id"`
	OrderID      int64   `json:"order_id"`
	ProductID    int64   `json:"product_id"`
	ProductName  string  `json:"product_name"`
	ProductPrice float64 `json:"product_price"`
	Quantity     int     `json:"quantity"`
}
