// internal/middleware/entitlement_middleware.go
package middleware

import (
	"errors"
	"net/http"

	"fitcoach-service/internal/domain/entitlement"
	"fitcoach-service/internal/pkg/jwt"
	"fitcoach-service/internal/pkg/response"
	billingsvc "fitcoach-service/internal/service/billing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// EntitlementMiddleware is the single choke point every protected feature
// passes through: bearer validation, subscription load, entitlement decision.
type EntitlementMiddleware struct {
	verifier *jwt.Verifier
	access   *billingsvc.AccessService
	logger   *zap.Logger
}

func NewEntitlementMiddleware(verifier *jwt.Verifier, access *billingsvc.AccessService, logger *zap.Logger) *EntitlementMiddleware {
	return &EntitlementMiddleware{
		verifier: verifier,
		access:   access,
		logger:   logger,
	}
}

// RequireFeature gates a route group on one feature. The credential is
// rejected before any storage access. Denials carry required_tier and
// current_tier so the client can render an upgrade prompt; allowed requests
// proceed with user_id and subscription in the request context.
func (m *EntitlementMiddleware) RequireFeature(feature entitlement.Feature) gin.HandlerFunc {
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

		access, err := m.access.Authorize(c.Request.Context(), claims.UserID, feature)
		if err != nil {
			var denied *billingsvc.DeniedError
			if errors.As(err, &denied) {
				response.Denied(c, http.StatusForbidden, response.AccessDenial{
					Error:        denied.Reason,
					RequiredTier: string(denied.RequiredTier),
					CurrentTier:  string(denied.CurrentTier),
				})
				return
			}

			m.logger.Error("entitlement evaluation failed",
				zap.Int64("user_id", claims.UserID),
				zap.String("feature", string(feature)),
				zap.Error(err),
			)
			response.Error(c, http.StatusInternalServerError, "failed to evaluate feature access", nil)
			return
		}

		c.Set("user_id", access.UserID)
		c.Set("email", claims.Email)
		c.Set("subscription", access.Subscription)

		c.Next()
	}
}
