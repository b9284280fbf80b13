// internal/domain/entitlement/resolver.go
package entitlement

import (
	"time"

	"fitcoach-service/internal/domain/billing"
)

// HasFeatureAccessAt decides whether the subscription grants the feature at
// the given evaluation time. Pure: no I/O, safe on every request.
//
// Access requires status active, or status trialing with a trial_end strictly
// in the future. A trial ending exactly at the evaluation instant is expired.
// Every other status denies regardless of tier; there is no implicit grace
// period.
func HasFeatureAccessAt(sub *billing.Subscription, feature Feature, now time.Time) bool {
	if sub == nil {
		return false
	}

	switch sub.Status {
	case billing.StatusActive:
	case billing.StatusTrialing:
		if !sub.TrialEnd.Valid || !sub.TrialEnd.Time.After(now) {
			return false
		}
	default:
		return false
	}

	return TierGrants(sub.Tier, feature)
}

// HasFeatureAccess is HasFeatureAccessAt evaluated at the current time.
func HasFeatureAccess(sub *billing.Subscription, feature Feature) bool {
	return HasFeatureAccessAt(sub, feature, time.Now())
}

// RequiredTier returns the lowest tier whose entitlement row enables the
// feature. Used only to build actionable deny payloads, never for the access
// decision itself. Features no tier grants report the highest tier.
func RequiredTier(feature Feature) billing.Tier {
	for _, tier := range TierOrder {
		if TierGrants(tier, feature) {
			return tier
		}
	}
	return TierOrder[len(TierOrder)-1]
}
