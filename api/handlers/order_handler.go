// api/handlers/order_handler.go
package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orderkaro/orderkaro-backend/api/models"
	"github.com/orderkaro/orderkaro-backend/config"
	"github.com/orderkaro/orderkaro-backend/internal/monitor"
	"github.com/orderkaro/orderkaro-backend/internal/notify"
	"github.com/orderkaro/orderkaro-backend/internal/storage"
)

// OrderHandler holds dependencies for checkout and order history.
type OrderHandler struct {
	DB       *sql.DB
	Cfg      *config.Config
	Monitor  *monitor.Monitor
	Notifier *notify.Notifier
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(db *sql.DB, cfg *config.Config, mon *monitor.Monitor, nf *notify.Notifier) *OrderHandler {
	return &OrderHandler{
		DB:       db,
		Cfg:      cfg,
		Monitor:  mon,
		Notifier: nf,
	}
}

func (h *OrderHandler) logQuery(operation string, start time.Time, err error) {
	if h.Monitor == nil {
		return
	}
	h.Monitor.LogQuery("orders", operation, start, time.Now(), err == nil, err)
}

// Checkout places an order from the caller's cart in one transaction: the
// cart is snapshotted, stock is debited, and the cart is emptied. Any
// failure rolls the whole thing back.
func (h *OrderHandler) Checkout(c *gin.Context) {
	userId := c.GetString("userId")

	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		customLog.Warnf("Checkout binding error: %v", err)
		_ = c.Error(err)
		return
	}

	start := time.Now()
	order, err := storage.CreateOrderFromCart(c.Request.Context(), h.DB, userId, req.AddressID)
	h.logQuery("checkout", start, err)
	if err != nil {
		customLog.Warnf("Checkout failed for user %s: %v", userId, err)
		_ = c.Error(err)
		return
	}

	if h.Notifier != nil {
		h.Notifier.Show("Order placed successfully", notify.KindSuccess)
	}
	customLog.Printf("Order %d placed by user %s, total %.2f", order.ID, userId, order.TotalPrice)
	c.JSON(http.StatusCreated, order)
}

// ListOrders returns the caller's order history, newest first. Line items
// are omitted here and returned by GetOrder.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	userId := c.GetString("userId")

	start := time.Now()
	orders, err := storage.ListOrders(c.Request.Context(), h.DB, userId)
	h.logQuery("list", start, err)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

// GetOrder returns one order with its line items.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userId := c.GetString("userId")

	orderID, err := pathID(c, "order_id")
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	order, err := storage.GetOrder(c.Request.Context(), h.DB, userId, orderID)
	h.logQuery("get", start, err)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, order)
}
