// api/router.go
package api

import (
	"database/sql"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/orderkaro/orderkaro-backend/api/handlers"
	"github.com/orderkaro/orderkaro-backend/api/middleware" // Import middleware package
	"github.com/orderkaro/orderkaro-backend/config"
	"github.com/orderkaro/orderkaro-backend/internal/cache"
	"github.com/orderkaro/orderkaro-backend/internal/monitor"
	"github.com/orderkaro/orderkaro-backend/internal/notify"
)

// SetupRouter initializes the Gin router and sets up all routes.
func SetupRouter(db *sql.DB, cfg *config.Config, qc *cache.QueryCache, mon *monitor.Monitor, nf *notify.Notifier) *gin.Engine {
	// Consider gin.New() for more control over default middleware
	router := gin.Default() // Includes Logger and Recovery

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	// Setting up a rate-limiter for the auth routes only; authenticated
	// traffic is already bounded by the JWT requirement.
	ratelimiter := middleware.NewRateLimiter(10, time.Minute)
	// It should run after basic middleware like Logger/Recovery
	// but before the routing happens, so it wraps the handlers.
	router.Use(middleware.ErrorHandler())

	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(db, cfg)
	productHandler := handlers.NewProductHandler(db, cfg, qc, mon)
	cartHandler := handlers.NewCartHandler(db, cfg, mon)
	addressHandler := handlers.NewAddressHandler(db, cfg, mon)
	orderHandler := handlers.NewOrderHandler(db, cfg, mon, nf)
	healthHandler := handlers.NewHealthHandler(db, cfg, qc, mon)

	// --- Public Routes ---
	router.GET("/health", healthHandler.Health)
	router.GET("/health/diagnostics", healthHandler.Diagnostics)

	authRoutes := router.Group("/auth")
	authRoutes.Use(middleware.RateLimitMiddleware(ratelimiter))
	{ /* Routes using authHandler */
		authRoutes.POST("/signup", authHandler.Signup)
		authRoutes.POST("/login", authHandler.Login)
	}

	// --- Protected Routes ---
	apiRoutes := router.Group("/api/v1")
	// Apply AuthMiddleware first for protected routes
	apiRoutes.Use(middleware.AuthMiddleware(cfg))
	{
		apiRoutes.GET("/me", authHandler.Me)
		apiRoutes.PUT("/me", authHandler.UpdateProfile)
		apiRoutes.PUT("/me/password", authHandler.UpdatePassword)

		apiRoutes.GET("/products", productHandler.ListProducts)
		apiRoutes.GET("/products/:product_id", productHandler.GetProduct)
		apiRoutes.GET("/categories", productHandler.ListCategories)

		apiRoutes.GET("/cart", cartHandler.GetCart)
		apiRoutes.POST("/cart/items", cartHandler.AddItem)
		apiRoutes.PUT("/cart/items/:product_id", cartHandler.UpdateItem)
		apiRoutes.DELETE("/cart/items/:product_id", cartHandler.RemoveItem)
		apiRoutes.DELETE("/cart", cartHandler.Clear)

		apiRoutes.GET("/addresses", addressHandler.ListAddresses)
		apiRoutes.POST("/addresses", addressHandler.CreateAddress)
		apiRoutes.GET("/addresses/:address_id", addressHandler.GetAddress)
		apiRoutes.PUT("/addresses/:address_id", addressHandler.UpdateAddress)
		apiRoutes.PUT("/addresses/:address_id/default", addressHandler.SetDefault)
		apiRoutes.DELETE("/addresses/:address_id", addressHandler.DeleteAddress)

		apiRoutes.POST("/orders", orderHandler.Checkout)
		apiRoutes.GET("/orders", orderHandler.ListOrders)
		apiRoutes.GET("/orders/:order_id", orderHandler.GetOrder)
	}

	// --- Admin Routes ---
	adminRoutes := apiRoutes.Group("/admin")
	adminRoutes.Use(middleware.AdminMiddleware())
	{
		adminRoutes.POST("/products", productHandler.CreateProduct)
		adminRoutes.PUT("/products/:product_id", productHandler.UpdateProduct)
		adminRoutes.DELETE("/products/:product_id", productHandler.DeleteProduct)
		adminRoutes.POST("/categories", productHandler.CreateCategory)
	}

	return router
}
