// internal/service/billing/access_service.go
package billing

import (
	"context"
	"errors"
	"fmt"

	"fitcoach-service/internal/domain/billing"
	"fitcoach-service/internal/domain/entitlement"
	xerrors "fitcoach-service/internal/pkg/errors"

	"go.uber.org/zap"
)

// DeniedError reports an entitlement denial with enough structure to drive an
// upgrade prompt. RequiredTier and CurrentTier are empty when the caller has
// no subscription at all.
type DeniedError struct {
	Reason       string
	RequiredTier billing.Tier
	CurrentTier  billing.Tier
}

func (e *DeniedError) Error() string {
	return e.Reason
}

// Access is the authorized context handed to protected handlers.
type Access struct {
	UserID       int64
	Subscription *billing.Subscription
}

// AccessService answers "may this user use this feature right now" from the
// stored subscription record. Reads go through the cache when one is wired.
type AccessService struct {
	store  SubscriptionStore
	cache  SubscriptionCache // may be nil
	logger *zap.Logger
}

func NewAccessService(store SubscriptionStore, cache SubscriptionCache, logger *zap.Logger) *AccessService {
	return &AccessService{
		store:  store,
		cache:  cache,
		logger: logger,
	}
}

// Authorize loads the caller's subscription and evaluates the entitlement.
// The error is either a *DeniedError (branch with errors.As) or an
// infrastructure failure; callers must handle both — there is no panic path.
func (s *AccessService) Authorize(ctx context.Context, userID int64, feature entitlement.Feature) (*Access, error) {
	sub, err := s.loadSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}

	if entitlement.HasFeatureAccess(sub, feature) {
		return &Access{UserID: userID, Subscription: sub}, nil
	}

	if sub == nil {
		return nil, &DeniedError{Reason: "subscription required"}
	}

	return nil, &DeniedError{
		Reason:       fmt.Sprintf("feature %q is not available on the current subscription", feature),
		RequiredTier: entitlement.RequiredTier(feature),
		CurrentTier:  sub.Tier,
	}
}

// CurrentSubscription returns the user's record, or xerrors.ErrNotFound.
func (s *AccessService) CurrentSubscription(ctx context.Context, userID int64) (*billing.Subscription, error) {
	sub, err := s.loadSubscription(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, xerrors.ErrNotFound
	}
	return sub, nil
}

// loadSubscription reads through the cache. A missing record comes back as
// (nil, nil): absence is a valid, common state, not an error.
func (s *AccessService) loadSubscription(ctx context.Context, userID int64) (*billing.Subscription, error) {
	if s.cache != nil {
		cached, hit, err := s.cache.Get(ctx, userID)
		if err != nil {
			s.logger.Warn("subscription cache read failed", zap.Int64("user_id", userID), zap.Error(err))
		} else if hit {
			return cached, nil
		}
	}

	sub, err := s.store.FindByUserID(ctx, userID)
	if errors.Is(err, xerrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, sub); err != nil {
			s.logger.Warn("subscription cache write failed", zap.Int64("user_id", userID), zap.Error(err))
		}
	}

	return sub, nil
}
