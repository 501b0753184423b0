package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/SscSPs/securities_registry/internal/core/domain"
	"github.com/SscSPs/securities_registry/internal/dto"
	"github.com/SscSPs/securities_registry/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AuthMiddleware creates a Gin middleware handler that validates JWT tokens and records
// the caller's user ID and role.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := GetLoggerFromCtx(c.Request.Context())

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			logger.Warn("Authorization header missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Fail("unauthorized", "Authorization header required", nil))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			logger.Warn("Authorization header format invalid")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Fail("unauthorized", "Authorization header format must be Bearer {token}", nil))
			return
		}

		claims, err := utils.ParseAndValidateJWT(parts[1], jwtSecret)
		if err != nil {
			logger.Warn("Invalid token", slog.String("error", err.Error()))
			msg := "Invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "Token has expired"
			} else if errors.Is(err, jwt.ErrTokenNotValidYet) {
				msg = "Token not valid yet"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Fail("unauthorized", msg, nil))
			return
		}

		userID := claims.Subject
		if userID == "" || !claims.Role.Satisfies(domain.RoleViewer) {
			logger.Error("Token is missing a subject or a known role", slog.String("role", string(claims.Role)))
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Fail("unauthorized", "Invalid token claims", nil))
			return
		}

		enrichedLogger := logger.With(slog.String("user_id", userID), slog.String("role", string(claims.Role)))
		ctx := withCaller(c.Request.Context(), userID, claims.Role)
		c.Request = c.Request.WithContext(WithLogger(ctx, enrichedLogger))
		c.Set(string(userIDKey), userID)
		c.Set(string(roleKey), claims.Role)
		c.Set(string(loggerKey), enrichedLogger)

		c.Next()
	}
}

// RequireRole rejects callers whose role is below required. It must run after AuthMiddleware.
func RequireRole(required domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := GetRoleFromContext(c)
		if !ok || !role.Satisfies(required) {
			GetLoggerFromContext(c).Warn("Role check failed",
				slog.String("role", string(role)), slog.String("required", string(required)))
			c.AbortWithStatusJSON(http.StatusForbidden, dto.Fail("forbidden",
				"This action requires the "+string(required)+" role", nil))
			return
		}
		c.Next()
	}
}
