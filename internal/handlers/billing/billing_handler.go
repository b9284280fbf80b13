// internal/handlers/billing/billing_handler.go
package billing

import (
	"errors"
	"io"
	"net/http"

	"fitcoach-service/internal/domain/billing"
	"fitcoach-service/internal/domain/entitlement"
	"fitcoach-service/internal/middleware"
	xerrors "fitcoach-service/internal/pkg/errors"
	"fitcoach-service/internal/pkg/response"
	billingsvc "fitcoach-service/internal/service/billing"

	"github.com/gin-gonic/gin"
)

const webhookBodyLimit = 1024 * 1024 // 1 MiB

type BillingHandler struct {
	checkoutService *billingsvc.CheckoutService
	webhookService  *billingsvc.WebhookService
	accessService   *billingsvc.AccessService
}

func NewBillingHandler(
	checkoutService *billingsvc.CheckoutService,
	webhookService *billingsvc.WebhookService,
	accessService *billingsvc.AccessService,
) *BillingHandler {
	return &BillingHandler{
		checkoutService: checkoutService,
		webhookService:  webhookService,
		accessService:   accessService,
	}
}

// StartCheckout opens a hosted checkout session for the requested tier.
func (h *BillingHandler) StartCheckout(c *gin.Context) {
	userID := middleware.MustGetUserID(c)
	email := middleware.GetEmail(c)

	var req billing.StartCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	url, err := h.checkoutService.StartCheckout(c.Request.Context(), userID, email, req.Tier)
	if err != nil {
		switch {
		case xerrors.Is(err, xerrors.ErrInvalidTier):
			response.Error(c, http.StatusBadRequest, "unknown subscription tier", err)
		case xerrors.Is(err, xerrors.ErrUpstreamProcessor):
			response.Error(c, http.StatusBadGateway, "payment processor unavailable", err)
		default:
			response.Error(c, http.StatusInternalServerError, "failed to start checkout", err)
		}
		return
	}

	response.Success(c, http.StatusOK, "checkout session created", billing.CheckoutSessionResponse{URL: url})
}

// GetSubscription returns the caller's current subscription record.
func (h *BillingHandler) GetSubscription(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	sub, err := h.accessService.CurrentSubscription(c.Request.Context(), userID)
	if err != nil {
		if xerrors.Is(err, xerrors.ErrNotFound) {
			response.NotFound(c, "no subscription on file")
			return
		}
		response.Error(c, http.StatusInternalServerError, "failed to load subscription", err)
		return
	}

	response.Success(c, http.StatusOK, "subscription retrieved", sub)
}

// CheckAccess reports whether the caller may use a named feature. Other
// backend services consult this before serving gated functionality, so a
// denial is a 200 with allowed=false rather than a 403.
func (h *BillingHandler) CheckAccess(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	feature, ok := entitlement.ParseFeature(c.Param("feature"))
	if !ok {
		response.Error(c, http.StatusBadRequest, "unknown feature", nil)
		return
	}

	access, err := h.accessService.Authorize(c.Request.Context(), userID, feature)
	if err != nil {
		var denied *billingsvc.DeniedError
		if errors.As(err, &denied) {
			response.Success(c, http.StatusOK, "access checked", gin.H{
				"feature":       feature,
				"allowed":       false,
				"reason":        denied.Reason,
				"required_tier": denied.RequiredTier,
				"current_tier":  denied.CurrentTier,
			})
			return
		}
		response.Error(c, http.StatusInternalServerError, "failed to check access", err)
		return
	}

	response.Success(c, http.StatusOK, "access checked", gin.H{
		"feature": feature,
		"allowed": true,
		"tier":    access.Subscription.Tier,
	})
}

// DashboardSummary returns the billing view shown on the coach dashboard.
// The route sits behind the coach_dashboard feature gate, so the
// subscription is already on the request context by the time we run.
func (h *BillingHandler) DashboardSummary(c *gin.Context) {
	sub := middleware.GetSubscription(c)
	if sub == nil {
		response.Error(c, http.StatusInternalServerError, "subscription missing from context", nil)
		return
	}

	response.Success(c, http.StatusOK, "dashboard summary", gin.H{
		"tier":                 sub.Tier,
		"status":               sub.Status,
		"cancel_at_period_end": sub.CancelAtPeriodEnd,
		"current_period_end":   sub.CurrentPeriodEnd,
		"trial_end":            sub.TrialEnd,
	})
}

// Webhook receives processor event deliveries. Authenticity comes from the
// signature header, never from a bearer credential. A 400 tells the processor
// the delivery can never succeed; any post-verification failure is a 500 so
// the processor redelivers.
func (h *BillingHandler) Webhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, webhookBodyLimit)
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "failed to read request body", err)
		return
	}

	sigHeader := c.GetHeader("Stripe-Signature")
	if sigHeader == "" {
		response.Error(c, http.StatusBadRequest, "missing signature header", nil)
		return
	}

	if err := h.webhookService.ProcessWebhook(c.Request.Context(), payload, sigHeader); err != nil {
		if xerrors.Is(err, xerrors.ErrVerification) {
			response.Error(c, http.StatusBadRequest, "webhook verification failed", err)
			return
		}
		response.Error(c, http.StatusInternalServerError, "webhook processing failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
