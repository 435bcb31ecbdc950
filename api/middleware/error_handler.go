// api/middleware/error_handler.go
package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10" // Import validator for binding errors

	"github.com/orderkaro/orderkaro-backend/internal/auth"    // Import internal auth errors
	"github.com/orderkaro/orderkaro-backend/internal/storage" // Import internal storage errors
)

// ErrorHandler creates a Gin middleware for centralized error handling.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Process request using subsequent handlers
		c.Next()

		// Check if any errors were attached during handler execution
		if len(c.Errors) == 0 {
			return // No errors, nothing to do
		}

		// We only handle the last error for the response.
		// Gin stores errors in c.Errors []*gin.Error.
		err := c.Errors.Last().Err

		customLog.Printf("[ErrorHandler] Detected error: %v | Type: %T", err, err)

		// --- Map error to HTTP status code and user message ---
		var statusCode int
		var userMessage string

		// Check for specific error types we defined
		if errors.Is(err, storage.ErrUserNotFound) ||
			errors.Is(err, storage.ErrProductNotFound) ||
			errors.Is(err, storage.ErrCategoryNotFound) ||
			errors.Is(err, storage.ErrCartItemNotFound) ||
			errors.Is(err, storage.ErrAddressNotFound) ||
			errors.Is(err, storage.ErrOrderNotFound) {
			statusCode = http.StatusNotFound
			userMessage = err.Error() // Use the error message directly for "Not Found" types
		} else if errors.Is(err, storage.ErrEmailExists) ||
			errors.Is(err, storage.ErrConstraintViolation) {
			statusCode = http.StatusConflict
			userMessage = err.Error() // Use the error message directly for conflicts
		} else if errors.Is(err, storage.ErrInsufficientStock) ||
			errors.Is(err, storage.ErrCartEmpty) {
			// Checkout preconditions failed: the request was well-formed but
			// cannot be satisfied against current state.
			statusCode = http.StatusUnprocessableEntity
			userMessage = err.Error()
		} else if errors.Is(err, storage.ErrInvalidCredentials) {
			statusCode = http.StatusUnauthorized
			userMessage = "Invalid email or password."
		} else if errors.Is(err, auth.ErrTokenMalformed) ||
			errors.Is(err, auth.ErrTokenInvalid) ||
			errors.Is(err, auth.ErrTokenClaimsInvalid) ||
			errors.Is(err, auth.ErrUnexpectedSigningMethod) {
			statusCode = http.StatusUnauthorized
			userMessage = "Invalid or malformed authentication token." // Generic message
		} else if errors.Is(err, auth.ErrTokenExpired) {
			statusCode = http.StatusUnauthorized
			userMessage = "Authentication token has expired."
		} else if errors.Is(err, auth.ErrForbidden) {
			statusCode = http.StatusForbidden
			userMessage = err.Error()
		} else if validationErrs, ok := err.(validator.ValidationErrors); ok {
			// Handle validation errors from c.ShouldBindJSON
			statusCode = http.StatusBadRequest
			userMessage = "Validation failed. Please check your input."
			for _, fe := range validationErrs {
				customLog.Printf("Validation Error: Field %s failed on %s", fe.Field(), fe.Tag())
			}
		} else {
			// --- Default/Fallback for unhandled errors ---
			// Assume internal server error for unexpected types
			statusCode = http.StatusInternalServerError
			userMessage = "An unexpected internal server error occurred."
			customLog.Printf("Unhandled error type: %T, Error: %v", err, err)
		}

		// Abort execution and send JSON response
		// Ensure response hasn't already been sent (Gin usually handles this with Abort)
		if !c.Writer.Written() {
			c.AbortWithStatusJSON(statusCode, gin.H{"error": userMessage})
		} else {
			customLog.Printf("[ErrorHandler] Warning: Response already written before handling error.")
		}
	}
}
