// internal/middleware/auth_middleware.go
package middleware

import (
	"net/http"
	"strings"

	"fitcoach-service/internal/pkg/jwt"
	"fitcoach-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthMiddleware struct {
	verifier *jwt.Verifier
}

func NewAuthMiddleware(verifier *jwt.Verifier) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
	}
}

// Auth validates the bearer credential and resolves the caller's identity.
// It performs no storage access; entitlement checks are a separate layer.
func (m *AuthMiddleware) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Denied(c, http.StatusUnauthorized, response.AccessDenial{Error: "missing authorization token"})
			return
		}

		claims, err := m.verifier.Verify(token)
		if err != nil {
			response.Denied(c, http.StatusUnauthorized, response.AccessDenial{Error: "invalid or expired token"})
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)

		c.Next()
	}
}

// extractToken extracts Bearer token from Authorization header
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}

	return ""
}
