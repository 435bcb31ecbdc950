// api/models/store_models.go
package models

// --- Product Request Structs ---

// CreateProductRequest defines the structure for adding a catalog item (admin).
type CreateProductRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	ImageURL    string  `json:"image_url"`
	Stock       int     `json:"stock" binding:"gte=0"`
	CategoryID  int64   `json:"category_id" binding:"required"`
}

// UpdateProductRequest is a partial product update; nil fields are left alone.
type UpdateProductRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" binding:"omitempty,gt=0"`
	ImageURL    *string  `json:"image_url"`
	Stock       *int     `json:"stock" binding:"omitempty,gte=0"`
	CategoryID  *int64   `json:"category_id"`
}

// --- Cart Request Structs ---

// AddCartItemRequest adds quantity of a product to the caller's cart. Adding a
// product already in the cart increments the existing line.
type AddCartItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

// UpdateCartItemRequest sets the absolute quantity of an existing line.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// --- Address Request Structs ---

// AddressRequest creates or replaces an address-book entry. Pincode format
// and the type enum are checked in the handler via internal/core, which also
// normalizes case ("Home" -> "home").
type AddressRequest struct {
	Line      string `json:"line" binding:"required"`
	City      string `json:"city" binding:"required"`
	State     string `json:"state" binding:"required"`
	Pincode   string `json:"pincode" binding:"required"`
	Type      string `json:"type" binding:"required"`
	IsDefault bool   `json:"is_default"`
}

// --- Order Request Structs ---

// CheckoutRequest places an order from the caller's current cart.
type CheckoutRequest struct {
	AddressID int64 `json:"address_id" binding:"required"`
}
