// api/handlers/cart_handler.go
package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orderkaro/orderkaro-backend/api/models"
	"github.com/orderkaro/orderkaro-backend/config"
	"github.com/orderkaro/orderkaro-backend/internal/monitor"
	"github.com/orderkaro/orderkaro-backend/internal/storage"
)

// CartHandler holds dependencies for cart handlers. Cart reads are not
// cached: the cart is per-user and every mutation would invalidate it.
type CartHandler struct {
	DB      *sql.DB
	Cfg     *config.Config
	Monitor *monitor.Monitor
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(db *sql.DB, cfg *config.Config, mon *monitor.Monitor) *CartHandler {
	return &CartHandler{
		DB:      db,
		Cfg:     cfg,
		Monitor: mon,
	}
}

func (h *CartHandler) logQuery(operation string, start time.Time, err error) {
	if h.Monitor == nil {
		return
	}
	h.Monitor.LogQuery("cart_items", operation, start, time.Now(), err == nil, err)
}

// GetCart lists the caller's cart joined with live product data.
func (h *CartHandler) GetCart(c *gin.Context) {
	userId := c.GetString("userId")

	start := time.Now()
	lines, err := storage.ListCartLines(c.Request.Context(), h.DB, userId)
	h.logQuery("list", start, err)
	if err != nil {
		_ = c.Error(err)
		return
	}

	var total float64
	for _, l := range lines {
		total += l.ProductPrice * float64(l.Quantity)
	}

	c.JSON(http.StatusOK, gin.H{
		"items": lines,
		"count": len(lines),
		"total": total,
	})
}

// AddItem adds quantity of a product to the cart. Adding a product already
// present increments the existing line in a single statement.
func (h *CartHandler) AddItem(c *gin.Context) {
	userId := c.GetString("userId")

	var req models.AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		customLog.Warnf("AddItem binding error: %v", err)
		_ = c.Error(err)
		return
	}

	start := time.Now()
	err := storage.AddCartItem(c.Request.Context(), h.DB, userId, req.ProductID, req.Quantity)
	h.logQuery("add", start, err)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Item added to cart"})
}

// UpdateItem sets the absolute quantity of an existing cart line.
func (h *CartHandler) UpdateItem(c *gin.Context) {
	userId := c.GetString("userId")

	productID, err := pathID(c, "product_id")
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req models.UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		customLog.Warnf("UpdateItem binding error: %v", err)
		_ = c.Error(err)
		return
	}

	start := time.Now()
	err = storage.SetCartItemQuantity(c.Request.Context(), h.DB, userId, productID, req.Quantity)
	h.logQuery("update", start, err)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart item updated"})
}

// RemoveItem deletes one cart line.
func (h *CartHandler) RemoveItem(c *gin.Context) {
	userId := c.GetString("userId")

	productID, err := pathID(c, "product_id")
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	err = storage.RemoveCartItem(c.Request.Context(), h.DB, userId, productID)
	h.logQuery("remove", start, err)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart"})
}

// Clear empties the caller's cart.
func (h *CartHandler) Clear(c *gin.Context) {
	userId := c.GetString("userId")

	start := time.Now()
	err := storage.ClearCart(c.Request.Context(), h.DB, userId)
	h.logQuery("clear", start, err)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}
