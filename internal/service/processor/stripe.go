// internal/service/processor/stripe.go
package processor

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"fitcoach-service/internal/domain/billing"
	xerrors "fitcoach-service/internal/pkg/errors"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/subscription"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeClient implements Client against the Stripe API.
type StripeClient struct {
	webhookSecret string
}

// NewStripeClient configures the Stripe SDK with the given API key and
// returns a client that verifies webhooks with the given signing secret.
func NewStripeClient(apiKey, webhookSecret string) *StripeClient {
	stripe.Key = apiKey
	return &StripeClient{webhookSecret: webhookSecret}
}

// CreateCustomer creates a new Stripe customer for the given user.
func (c *StripeClient) CreateCustomer(ctx context.Context, userID int64, email string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Metadata: map[string]string{
			"user_id": strconv.FormatInt(userID, 10),
		},
	}
	params.Context = ctx

	cust, err := customer.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: create customer: %v", xerrors.ErrUpstreamProcessor, err)
	}
	return cust.ID, nil
}

// CreateCheckoutSession opens a subscription-mode hosted checkout. The user id
// and tier ride along as metadata on both the session and the subscription it
// creates, so every later webhook can be attributed to the user.
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, p CheckoutSessionParams) (string, error) {
	meta := map[string]string{
		"user_id": strconv.FormatInt(p.UserID, 10),
		"tier":    string(p.Tier),
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer:   stripe.String(p.CustomerID),
		SuccessURL: stripe.String(p.SuccessURL),
		CancelURL:  stripe.String(p.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			TrialPeriodDays: stripe.Int64(p.TrialDays),
			Metadata:        meta,
		},
	}
	params.Context = ctx
	params.Metadata = meta

	sess, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: create checkout session: %v", xerrors.ErrUpstreamProcessor, err)
	}
	if sess.URL == "" {
		return "", fmt.Errorf("%w: checkout session has no URL", xerrors.ErrUpstreamProcessor)
	}
	return sess.URL, nil
}

// GetSubscription fetches the full subscription object from Stripe.
func (c *StripeClient) GetSubscription(ctx context.Context, subscriptionID string) (*billing.ProcessorSubscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := subscription.Get(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("%w: retrieve subscription %s: %v", xerrors.ErrUpstreamProcessor, subscriptionID, err)
	}

	// Billing-period bounds live on the subscription items.
	var periodStart, periodEnd int64
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		periodStart = sub.Items.Data[0].CurrentPeriodStart
		periodEnd = sub.Items.Data[0].CurrentPeriodEnd
	}

	customerID := ""
	if sub.Customer != nil {
		customerID = sub.Customer.ID
	}

	return &billing.ProcessorSubscription{
		ID:                 sub.ID,
		CustomerID:         customerID,
		Status:             billing.MapProcessorStatus(string(sub.Status)),
		TrialStart:         unixTime(sub.TrialStart),
		TrialEnd:           unixTime(sub.TrialEnd),
		CurrentPeriodStart: unixTime(periodStart),
		CurrentPeriodEnd:   unixTime(periodEnd),
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
	}, nil
}

// checkoutSessionPayload is a minimal view of a checkout.session.completed
// event body.
type checkoutSessionPayload struct {
	ID           string            `json:"id"`
	Customer     string            `json:"customer"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

// subscriptionPayload is a minimal view of a customer.subscription.* event body.
type subscriptionPayload struct {
	ID                 string            `json:"id"`
	Customer           string            `json:"customer"`
	Status             string            `json:"status"`
	CancelAtPeriodEnd  bool              `json:"cancel_at_period_end"`
	TrialStart         int64             `json:"trial_start"`
	TrialEnd           int64             `json:"trial_end"`
	CurrentPeriodStart int64             `json:"current_period_start"`
	CurrentPeriodEnd   int64             `json:"current_period_end"`
	Metadata           map[string]string `json:"metadata"`
}

// VerifyEvent checks the Stripe signature and folds the raw event into the
// closed event union. Fails closed: bad signature, unparseable payload, or a
// handled event missing its user attribution all yield ErrVerification.
func (c *StripeClient) VerifyEvent(payload []byte, sigHeader string) (*billing.Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, c.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", xerrors.ErrVerification, err)
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess checkoutSessionPayload
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("%w: decode checkout session: %v", xerrors.ErrVerification, err)
		}

		userID, tier, err := userAttribution(sess.Metadata)
		if err != nil {
			return nil, err
		}
		if sess.Customer == "" || sess.Subscription == "" {
			return nil, fmt.Errorf("%w: checkout session missing customer or subscription id", xerrors.ErrVerification)
		}

		return &billing.Event{
			Kind: billing.EventCheckoutCompleted,
			ID:   event.ID,
			Type: string(event.Type),
			Checkout: &billing.CheckoutCompleted{
				UserID:         userID,
				Tier:           tier,
				CustomerID:     sess.Customer,
				SubscriptionID: sess.Subscription,
			},
		}, nil

	case "customer.subscription.updated", "customer.subscription.deleted":
		var sub subscriptionPayload
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("%w: decode subscription: %v", xerrors.ErrVerification, err)
		}

		userID, tier, err := userAttribution(sub.Metadata)
		if err != nil {
			return nil, err
		}

		kind := billing.EventSubscriptionUpdated
		if event.Type == "customer.subscription.deleted" {
			kind = billing.EventSubscriptionDeleted
		}

		return &billing.Event{
			Kind: kind,
			ID:   event.ID,
			Type: string(event.Type),
			Subscription: &billing.SubscriptionChange{
				UserID:             userID,
				Tier:               tier,
				CustomerID:         sub.Customer,
				SubscriptionID:     sub.ID,
				Status:             billing.MapProcessorStatus(sub.Status),
				TrialStart:         unixTime(sub.TrialStart),
				TrialEnd:           unixTime(sub.TrialEnd),
				CurrentPeriodStart: unixTime(sub.CurrentPeriodStart),
				CurrentPeriodEnd:   unixTime(sub.CurrentPeriodEnd),
				CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
			},
		}, nil

	default:
		return &billing.Event{
			Kind: billing.EventIgnored,
			ID:   event.ID,
			Type: string(event.Type),
		}, nil
	}
}

// userAttribution extracts the user id and tier a handled event must carry.
// Absence is structurally permanent: a redelivery of the same payload can
// never succeed, so this is a verification failure rather than a retryable one.
func userAttribution(metadata map[string]string) (int64, billing.Tier, error) {
	userID, err := strconv.ParseInt(metadata["user_id"], 10, 64)
	if err != nil || userID <= 0 {
		return 0, "", fmt.Errorf("%w: event missing user_id metadata", xerrors.ErrVerification)
	}

	tier, ok := billing.ParseTier(metadata["tier"])
	if !ok {
		return 0, "", fmt.Errorf("%w: event missing tier metadata", xerrors.ErrVerification)
	}

	return userID, tier, nil
}

func unixTime(v int64) billing.NullTime {
	if v <= 0 {
		return billing.NullTime{}
	}
	return billing.NullTime{NullTime: sql.NullTime{Time: time.Unix(v, 0).UTC(), Valid: true}}
}
