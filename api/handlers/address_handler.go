// api/handlers/address_handler.go
package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orderkaro/orderkaro-backend/api/models"
	"github.com/orderkaro/orderkaro-backend/config"
	"github.com/orderkaro/orderkaro-backend/internal/core"
	"github.com/orderkaro/orderkaro-backend/internal/domain"
	"github.com/orderkaro/orderkaro-backend/internal/monitor"
	"github.com/orderkaro/orderkaro-backend/internal/storage"
)

// AddressHandler holds dependencies for address-book handlers.
type AddressHandler struct {
	DB      *sql.DB
	Cfg     *config.Config
	Monitor *monitor.Monitor
}

// NewAddressHandler creates a new AddressHandler.
func NewAddressHandler(db *sql.DB, cfg *config.Config, mon *monitor.Monitor) *AddressHandler {
	return &AddressHandler{
		DB:      db,
		Cfg:     cfg,
		Monitor: mon,
	}
}

func (h *AddressHandler) logQuery(operation string, start time.Time, err error) {
	if h.Monitor == nil {
		return
	}
	h.Monitor.LogQuery("addresses", operation, start, time.Now(), err == nil, err)
}

// bindAddress binds and validates an address payload. Pincode and type checks
// live in internal/core rather than binding tags: the type is normalized
// ("Home" -> "home") and pincodes with a leading zero are rejected, which
// plain len/numeric tags would let through. Responds and returns false on
// invalid input.
func (h *AddressHandler) bindAddress(c *gin.Context, userId string) (*domain.Address, bool) {
	var req models.AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		customLog.Warnf("Address binding error: %v", err)
		_ = c.Error(err)
		return nil, false
	}

	if !core.IsValidPincode(req.Pincode) {
		err := errors.New("invalid 'pincode': must be six digits with no leading zero")
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	addrType, ok := core.NormalizeAddressType(req.Type)
	if !ok {
		err := errors.New("invalid 'type': must be one of home, work, other")
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	return &domain.Address{
		UserId:    userId,
		Line:      req.Line,
		City:      req.City,
		State:     req.State,
		Pincode:   req.Pincode,
		Type:      domain.AddressType(addrType),
		IsDefault: req.IsDefault,
	}, true
}

// ListAddresses returns the caller's address book, default entry first.
func (h *AddressHandler) ListAddresses(c *gin.Context) {
	userId := c.GetString("userId")

	start := time.Now()
	addresses, err := storage.ListAddresses(c.Request.Context(), h.DB, userId)
	h.logQuery("list", start, err)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"addresses": addresses})
}

// GetAddress returns one address owned by the caller.
func (h *AddressHandler) GetAddress(c *gin.Context) {
	userId := c.GetString("userId")

	addressID, err := pathID(c, "address_id")
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	address, err := storage.GetAddress(c.Request.Context(), h.DB, userId, addressID)
	h.logQuery("get", start, err)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, address)
}

// CreateAddress adds an address-book entry. Marking it default atomically
// clears the flag on every other entry for the user.
func (h *AddressHandler) CreateAddress(c *gin.Context) {
	userId := c.GetString("userId")

	a, ok := h.bindAddress(c, userId)
	if !ok {
		return
	}

	start := time.Now()
	id, err := storage.CreateAddress(c.Request.Context(), h.DB, a)
	h.logQuery("create", start, err)
	if err != nil {
		_ = c.Error(err)
		return
	}
	a.ID = id

	c.JSON(http.StatusCreated, a)
}

// UpdateAddress replaces an address-book entry owned by the caller.
func (h *AddressHandler) UpdateAddress(c *gin.Context) {
	userId := c.GetString("userId")

	addressID, err := pathID(c, "address_id")
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	a, ok := h.bindAddress(c, userId)
	if !ok {
		return
	}
	a.ID = addressID

	start := time.Now()
	err = storage.UpdateAddress(c.Request.Context(), h.DB, a)
	h.logQuery("update", start, err)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, a)
}

// SetDefault marks one address as the default delivery address. The previous
// default is cleared in the same transaction.
func (h *AddressHandler) SetDefault(c *gin.Context) {
	userId := c.GetString("userId")

	addressID, err := pathID(c, "address_id")
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	err = storage.SetDefaultAddress(c.Request.Context(), h.DB, userId, addressID)
	h.logQuery("set_default", start, err)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Default address updated"})
}

// DeleteAddress removes an address-book entry owned by the caller.
func (h *AddressHandler) DeleteAddress(c *gin.Context) {
	userId := c.GetString("userId")

	addressID, err := pathID(c, "address_id")
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	err = storage.DeleteAddress(c.Request.Context(), h.DB, userId, addressID)
	h.logQuery("delete", start, err)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Address deleted successfully"})
}
