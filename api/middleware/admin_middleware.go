package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/orderkaro/orderkaro-backend/internal/auth"
	"github.com/orderkaro/orderkaro-backend/internal/logger"
)

var (
	customLog = logger.NewLogger()
)

// AdminMiddleware gates catalog-management routes. It runs after
// AuthMiddleware, which stores the validated claims in the context.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		isAdmin, ok := c.Get("isAdmin")
		if !ok || !isAdmin.(bool) {
			customLog.Warnf("AdminMiddleware: user %v denied admin access", c.GetString("userId"))
			_ = c.Error(auth.ErrForbidden)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required."})
			return
		}
		c.Next()
	}
}
