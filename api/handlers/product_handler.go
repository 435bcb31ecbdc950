// api/handlers/product_handler.go
package handlers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/orderkaro/orderkaro-backend/api/models"
	"github.com/orderkaro/orderkaro-backend/config"
	"github.com/orderkaro/orderkaro-backend/internal/cache"
	"github.com/orderkaro/orderkaro-backend/internal/core"
	"github.com/orderkaro/orderkaro-backend/internal/domain"
	"github.com/orderkaro/orderkaro-backend/internal/monitor"
	"github.com/orderkaro/orderkaro-backend/internal/storage"
)

// ProductHandler holds dependencies for catalog handlers.
type ProductHandler struct {
	DB      *sql.DB
	Cfg     *config.Config
	Cache   *cache.QueryCache
	Monitor *monitor.Monitor
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(db *sql.DB, cfg *config.Config, qc *cache.QueryCache, mon *monitor.Monitor) *ProductHandler {
	return &ProductHandler{
		DB:      db,
		Cfg:     cfg,
		Cache:   qc,
		Monitor: mon,
	}
}

// logQuery records the outcome of a storage call in the diagnostics window.
func (h *ProductHandler) logQuery(table, operation string, start time.Time, err error) {
	if h.Monitor == nil {
		return
	}
	h.Monitor.LogQuery(table, operation, start, time.Now(), err == nil, err)
}

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s in URL path", name)
	}
	return id, nil
}

// ListProducts serves the catalog with filtering, sorting and pagination.
// Results are cached per query-parameter set; writes invalidate the table.
func (h *ProductHandler) ListProducts(c *gin.Context) {
	q, err := core.ParseProductQuery(c.Request.URL.Query())
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var products []domain.Product
	start := time.Now()
	err = h.Cache.GetOrLoad(c.Request.Context(), "products", q.CacheParams(), &products,
		func(ctx context.Context) (any, error) {
			return storage.ListProducts(ctx, h.DB, q)
		})
	h.logQuery("products", "list", start, err)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
		"limit":    q.Limit,
		"offset":   q.Offset,
	})
}

// GetProduct serves a single catalog item.
func (h *ProductHandler) GetProduct(c *gin.Context) {
	productID, err := pathID(c, "product_id")
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var product *domain.Product
	start := time.Now()
	err = h.Cache.GetOrLoad(c.Request.Context(), "products",
		map[string]string{"id": strconv.FormatInt(productID, 10)}, &product,
		func(ctx context.Context) (any, error) {
			return storage.GetProduct(ctx, h.DB, productID)
		})
	h.logQuery("products", "get", start, err)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// ListCategories serves all catalog categories.
func (h *ProductHandler) ListCategories(c *gin.Context) {
	var categories []domain.Category
	start := time.Now()
	err := h.Cache.GetOrLoad(c.Request.Context(), "categories", nil, &categories,
		func(ctx context.Context) (any, error) {
			return storage.ListCategories(ctx, h.DB)
		})
	h.logQuery("categories", "list", start, err)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// CreateCategory adds a category (admin only). Creating an existing name
// returns the existing row.
func (h *ProductHandler) CreateCategory(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(err)
		return
	}

	start := time.Now()
	id, err := storage.CreateCategory(c.Request.Context(), h.DB, req.Name)
	h.logQuery("categories", "create", start, err)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.Cache.Clear(c.Request.Context(), "categories"); err != nil {
		customLog.Warnf("CreateCategory: cache clear failed: %v", err)
	}

	c.JSON(http.StatusCreated, gin.H{"id": id, "name": req.Name})
}

// CreateProduct adds a catalog item (admin only).
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		customLog.Warnf("CreateProduct binding error: %v", err)
		_ = c.Error(err)
		return
	}

	p := &domain.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
	}

	start := time.Now()
	id, err := storage.CreateProduct(c.Request.Context(), h.DB, p)
	h.logQuery("products", "create", start, err)
	if err != nil {
		_ = c.Error(err)
		return
	}
	p.ID = id

	if err := h.Cache.Clear(c.Request.Context(), "products"); err != nil {
		customLog.Warnf("CreateProduct: cache clear failed: %v", err)
	}

	customLog.Printf("Product %d (%s) created", id, p.Name)
	c.JSON(http.StatusCreated, p)
}

// UpdateProduct applies a partial update to a catalog item (admin only).
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	productID, err := pathID(c, "product_id")
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		customLog.Warnf("UpdateProduct binding error: %v", err)
		_ = c.Error(err)
		return
	}

	var setClauses []string
	var args []any
	if req.Name != nil {
		setClauses, args = append(setClauses, "name = ?"), append(args, *req.Name)
	}
	if req.Description != nil {
		setClauses, args = append(setClauses, "description = ?"), append(args, *req.Description)
	}
	if req.Price != nil {
		setClauses, args = append(setClauses, "price = ?"), append(args, *req.Price)
	}
	if req.ImageURL != nil {
		setClauses, args = append(setClauses, "image_url = ?"), append(args, *req.ImageURL)
	}
	if req.Stock != nil {
		setClauses, args = append(setClauses, "stock = ?"), append(args, *req.Stock)
	}
	if req.CategoryID != nil {
		setClauses, args = append(setClauses, "category_id = ?"), append(args, *req.CategoryID)
	}
	if len(setClauses) == 0 {
		err := errors.New("request body must include at least one updatable field")
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	err = storage.UpdateProduct(c.Request.Context(), h.DB, productID, setClauses, args)
	h.logQuery("products", "update", start, err)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.Cache.Clear(c.Request.Context(), "products"); err != nil {
		customLog.Warnf("UpdateProduct: cache clear failed: %v", err)
	}

	product, err := storage.GetProduct(c.Request.Context(), h.DB, productID)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// DeleteProduct removes a catalog item (admin only).
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	productID, err := pathID(c, "product_id")
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	err = storage.DeleteProduct(c.Request.Context(), h.DB, productID)
	h.logQuery("products", "delete", start, err)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.Cache.Clear(c.Request.Context(), "products"); err != nil {
		customLog.Warnf("DeleteProduct: cache clear failed: %v", err)
	}

	customLog.Printf("Product %d deleted", productID)
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}
