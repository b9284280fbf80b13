// internal/service/billing/webhook_service.go
package billing

import (
	"context"
	"fmt"

	"fitcoach-service/internal/domain/billing"
	"fitcoach-service/internal/service/processor"

	"go.uber.org/zap"
)

// WebhookService folds the processor's at-least-once, possibly out-of-order
// event stream into the local subscription record.
//
// Each event's payload is applied as "the truth as of this event" through a
// single atomic upsert; the service never diffs against prior local state and
// never promises ordering across deliveries for the same user.
type WebhookService struct {
	store  SubscriptionStore
	client processor.Client
	cache  SubscriptionCache // may be nil
	logger *zap.Logger
}

func NewWebhookService(store SubscriptionStore, client processor.Client, cache SubscriptionCache, logger *zap.Logger) *WebhookService {
	return &WebhookService{
		store:  store,
		client: client,
		cache:  cache,
		logger: logger,
	}
}

// ProcessWebhook verifies and applies one webhook delivery.
//
// Verification failures surface as xerrors.ErrVerification and must be
// answered with a 400 so the processor does not redeliver the broken payload.
// Every failure after verification (follow-up retrieval, storage) must be
// answered with a 5xx so the processor's retry machinery redelivers the
// event; the idempotent upsert makes that safe.
func (s *WebhookService) ProcessWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := s.client.VerifyEvent(payload, sigHeader)
	if err != nil {
		return err
	}

	switch event.Kind {
	case billing.EventCheckoutCompleted:
		return s.applyCheckoutCompleted(ctx, event)

	case billing.EventSubscriptionUpdated:
		return s.applySubscriptionChange(ctx, event, event.Subscription.Status, event.Subscription.CancelAtPeriodEnd)

	case billing.EventSubscriptionDeleted:
		// Terminal: the record is fully inactive from here on.
		return s.applySubscriptionChange(ctx, event, billing.StatusCanceled, true)

	case billing.EventIgnored:
		s.logger.Debug("webhook event ignored",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.Type),
		)
		return nil

	default:
		return fmt.Errorf("unhandled event kind %q", event.Kind)
	}
}

// applyCheckoutCompleted handles the one event whose payload cannot be
// trusted for trial/period fields: the authoritative detail is fetched from
// the processor first, and nothing is written if that fetch fails.
func (s *WebhookService) applyCheckoutCompleted(ctx context.Context, event *billing.Event) error {
	ev := event.Checkout

	pctx, cancel := context.WithTimeout(ctx, processorTimeout)
	defer cancel()

	detail, err := s.client.GetSubscription(pctx, ev.SubscriptionID)
	if err != nil {
		return err
	}

	customerID := ev.CustomerID
	if detail.CustomerID != "" {
		customerID = detail.CustomerID
	}

	return s.upsert(ctx, event, &billing.Subscription{
		UserID:               ev.UserID,
		Tier:                 ev.Tier,
		Status:               detail.Status,
		StripeCustomerID:     customerID,
		StripeSubscriptionID: ev.SubscriptionID,
		TrialStart:           detail.TrialStart,
		TrialEnd:             detail.TrialEnd,
		CurrentPeriodStart:   detail.CurrentPeriodStart,
		CurrentPeriodEnd:     detail.CurrentPeriodEnd,
		CancelAtPeriodEnd:    detail.CancelAtPeriodEnd,
	})
}

func (s *WebhookService) applySubscriptionChange(ctx context.Context, event *billing.Event, status billing.SubscriptionStatus, cancelAtPeriodEnd bool) error {
	ev := event.Subscription

	return s.upsert(ctx, event, &billing.Subscription{
		UserID:               ev.UserID,
		Tier:                 ev.Tier,
		Status:               status,
		StripeCustomerID:     ev.CustomerID,
		StripeSubscriptionID: ev.SubscriptionID,
		TrialStart:           ev.TrialStart,
		TrialEnd:             ev.TrialEnd,
		CurrentPeriodStart:   ev.CurrentPeriodStart,
		CurrentPeriodEnd:     ev.CurrentPeriodEnd,
		CancelAtPeriodEnd:    cancelAtPeriodEnd,
	})
}

func (s *WebhookService) upsert(ctx context.Context, event *billing.Event, sub *billing.Subscription) error {
	if err := s.store.Upsert(ctx, sub); err != nil {
		return err
	}

	// The cached copy is stale the instant the upsert lands.
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, sub.UserID); err != nil {
			s.logger.Warn("failed to invalidate subscription cache",
				zap.Int64("user_id", sub.UserID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("subscription state applied",
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
		zap.Int64("user_id", sub.UserID),
		zap.String("tier", string(sub.Tier)),
		zap.String("status", string(sub.Status)),
		zap.Bool("cancel_at_period_end", sub.CancelAtPeriodEnd),
	)

	return nil
}
