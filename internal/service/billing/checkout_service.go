// internal/service/billing/checkout_service.go
package billing

import (
	"context"
	"errors"
	"fmt"

	"fitcoach-service/internal/domain/billing"
	xerrors "fitcoach-service/internal/pkg/errors"
	"fitcoach-service/internal/service/processor"

	"go.uber.org/zap"
)

// CheckoutConfig carries the processor-side configuration for checkouts.
type CheckoutConfig struct {
	// PriceIDs maps each tier to the processor price identifier.
	PriceIDs map[billing.Tier]string
	// TrialDays is the fixed trial length applied to every new subscription.
	TrialDays int64
	// SuccessURL and CancelURL are where hosted checkout sends the user back.
	SuccessURL string
	CancelURL  string
}

// CheckoutService translates "subscribe me to tier T" into a hosted checkout
// URL. It never writes the subscription record; the webhook round-trip owns
// all durable state.
type CheckoutService struct {
	store  SubscriptionStore
	client processor.Client
	cfg    CheckoutConfig
	logger *zap.Logger
}

func NewCheckoutService(store SubscriptionStore, client processor.Client, cfg CheckoutConfig, logger *zap.Logger) *CheckoutService {
	return &CheckoutService{
		store:  store,
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// StartCheckout validates the requested tier, reuses the user's processor
// customer when one is on file, and opens a checkout session.
func (s *CheckoutService) StartCheckout(ctx context.Context, userID int64, email, requestedTier string) (string, error) {
	tier, ok := billing.ParseTier(requestedTier)
	if !ok {
		return "", fmt.Errorf("%w: %q", xerrors.ErrInvalidTier, requestedTier)
	}

	priceID, ok := s.cfg.PriceIDs[tier]
	if !ok || priceID == "" {
		return "", fmt.Errorf("no price configured for tier %q", tier)
	}

	// Read-only lookup: an existing record means the user already has a
	// processor customer we must reuse instead of creating a duplicate.
	customerID := ""
	existing, err := s.store.FindByUserID(ctx, userID)
	switch {
	case err == nil:
		customerID = existing.StripeCustomerID
	case errors.Is(err, xerrors.ErrNotFound):
		// First checkout for this user.
	default:
		return "", fmt.Errorf("failed to look up subscription: %w", err)
	}

	pctx, cancel := context.WithTimeout(ctx, processorTimeout)
	defer cancel()

	if customerID == "" {
		customerID, err = s.client.CreateCustomer(pctx, userID, email)
		if err != nil {
			return "", err
		}
		// The customer id is not persisted here; it reaches the record via
		// the checkout-completed webhook.
		s.logger.Info("processor customer created",
			zap.Int64("user_id", userID),
			zap.String("customer_id", customerID),
		)
	}

	url, err := s.client.CreateCheckoutSession(pctx, processor.CheckoutSessionParams{
		CustomerID: customerID,
		UserID:     userID,
		Tier:       tier,
		PriceID:    priceID,
		TrialDays:  s.cfg.TrialDays,
		SuccessURL: s.cfg.SuccessURL,
		CancelURL:  s.cfg.CancelURL,
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("checkout session created",
		zap.Int64("user_id", userID),
		zap.String("tier", string(tier)),
		zap.String("customer_id", customerID),
	)

	return url, nil
}
