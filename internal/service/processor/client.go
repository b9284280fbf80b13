// internal/service/processor/client.go
package processor

import (
	"context"

	"fitcoach-service/internal/domain/billing"
)

// Client abstracts the payment processor. The billing services depend on this
// interface only; the Stripe implementation lives in stripe.go and the test
// double in mock.go.
type Client interface {
	// CreateCustomer registers a processor customer tagged with the user's
	// id and email, returning the processor customer id.
	CreateCustomer(ctx context.Context, userID int64, email string) (string, error)

	// CreateCheckoutSession opens a hosted checkout session and returns its URL.
	CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (string, error)

	// GetSubscription retrieves the authoritative subscription detail. Used as
	// the follow-up fetch during checkout-completed handling.
	GetSubscription(ctx context.Context, subscriptionID string) (*billing.ProcessorSubscription, error)

	// VerifyEvent checks the webhook signature and interprets the payload into
	// the closed event union. Any verification failure is reported as
	// xerrors.ErrVerification.
	VerifyEvent(payload []byte, sigHeader string) (*billing.Event, error)
}

// CheckoutSessionParams describes one checkout for one user and tier.
type CheckoutSessionParams struct {
	CustomerID string
	UserID     int64
	Tier       billing.Tier
	PriceID    string
	TrialDays  int64
	SuccessURL string
	CancelURL  string
}
