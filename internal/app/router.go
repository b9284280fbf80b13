// internal/app/router.go
package app

import (
	"fitcoach-service/internal/domain/entitlement"
	billingHandler "fitcoach-service/internal/handlers/billing"
	"fitcoach-service/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	BillingHandler        *billingHandler.BillingHandler
	AuthMiddleware        *middleware.AuthMiddleware
	EntitlementMiddleware *middleware.EntitlementMiddleware
}

func SetupRouter(r *gin.Engine, logger *zap.Logger, h *Handlers) {
	api := r.Group("/api/v1")

	// ==================== Health Check ====================
	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== Billing ====================
	billing := api.Group("/billing")
	{
		// Processor deliveries authenticate with the signature header,
		// never with a bearer token.
		billing.POST("/webhook", h.BillingHandler.Webhook)

		billingAuth := billing.Group("")
		billingAuth.Use(h.AuthMiddleware.Auth())
		{
			billingAuth.POST("/checkout", h.BillingHandler.StartCheckout)
			billingAuth.GET("/subscription", h.BillingHandler.GetSubscription)
			billingAuth.GET("/access/:feature", h.BillingHandler.CheckAccess)
		}
	}

	// ==================== Gated Feature Surfaces ====================
	// Coaching surfaces mount behind RequireFeature so access control stays
	// in one place. The dashboard summary is served by this process; heavier
	// surfaces live in their own services and call /billing/access.
	dashboard := api.Group("/dashboard")
	dashboard.Use(h.EntitlementMiddleware.RequireFeature(entitlement.FeatureCoachDashboard))
	{
		dashboard.GET("/summary", h.BillingHandler.DashboardSummary)
	}
}
