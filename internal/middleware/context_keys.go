package middleware

import (
	"context"

	"github.com/SscSPs/securities_registry/internal/core/domain"
	"github.com/gin-gonic/gin"
)

// userIDKey and roleKey store the authenticated caller in the Gin and request contexts.
const (
	userIDKey = contextKey("userID")
	roleKey   = contextKey("role")
)

// GetUserIDFromContext retrieves the authenticated user ID from the Gin context.
// It returns the user ID and a boolean indicating if it was found.
func GetUserIDFromContext(c *gin.Context) (string, bool) {
	userIDVal, exists := c.Get(string(userIDKey))
	if !exists {
		// check in the request context as well
		if userID, ok := c.Request.Context().Value(userIDKey).(string); ok {
			return userID, true
		}
		return "", false
	}

	userID, ok := userIDVal.(string)
	return userID, ok
}

// GetRoleFromContext retrieves the caller's role set by AuthMiddleware.
func GetRoleFromContext(c *gin.Context) (domain.Role, bool) {
	if roleVal, exists := c.Get(string(roleKey)); exists {
		role, ok := roleVal.(domain.Role)
		return role, ok
	}
	role, ok := c.Request.Context().Value(roleKey).(domain.Role)
	return role, ok
}

// withCaller stores the caller's identity in a standard context.
func withCaller(ctx context.Context, userID string, role domain.Role) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, roleKey, role)
}
