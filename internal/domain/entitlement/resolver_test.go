// internal/domain/entitlement/resolver_test.go
package entitlement

import (
	"database/sql"
	"testing"
	"time"

	"fitcoach-service/internal/domain/billing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nullTime(t time.Time) billing.NullTime {
	return billing.NullTime{NullTime: sql.NullTime{Time: t, Valid: true}}
}

// Every tier must grant a superset of the tier below it. A feature available
// on starter that disappears on pro would be a table bug, not a product
// decision.
func TestTierMatrixIsMonotonic(t *testing.T) {
	for i := 1; i < len(TierOrder); i++ {
		lower, higher := TierOrder[i-1], TierOrder[i]
		for _, f := range AllFeatures {
			if TierGrants(lower, f) {
				assert.True(t, TierGrants(higher, f),
					"tier %s grants %s but tier %s does not", lower, f, higher)
			}
		}
	}
}

func TestTierGrants(t *testing.T) {
	assert.True(t, TierGrants(billing.TierStarter, FeatureWorkoutPlans))
	assert.False(t, TierGrants(billing.TierStarter, FeatureAICoach))
	assert.True(t, TierGrants(billing.TierPro, FeatureDietitian))
	assert.False(t, TierGrants(billing.TierPro, FeatureCoachDashboard))
	assert.True(t, TierGrants(billing.TierElite, FeaturePrioritySupport))

	// Unknown tier grants nothing.
	assert.False(t, TierGrants(billing.Tier("enterprise"), FeatureWorkoutPlans))
}

func TestHasFeatureAccessAt(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		sub     *billing.Subscription
		feature Feature
		want    bool
	}{
		{
			name:    "nil subscription",
			sub:     nil,
			feature: FeatureWorkoutPlans,
			want:    false,
		},
		{
			name:    "active grants tier feature",
			sub:     &billing.Subscription{Tier: billing.TierStarter, Status: billing.StatusActive},
			feature: FeatureWorkoutPlans,
			want:    true,
		},
		{
			name:    "active denies feature above tier",
			sub:     &billing.Subscription{Tier: billing.TierStarter, Status: billing.StatusActive},
			feature: FeatureAICoach,
			want:    false,
		},
		{
			name: "trialing with future trial end",
			sub: &billing.Subscription{
				Tier:     billing.TierPro,
				Status:   billing.StatusTrialing,
				TrialEnd: nullTime(now.Add(time.Hour)),
			},
			feature: FeatureAICoach,
			want:    true,
		},
		{
			name: "trialing one second before expiry",
			sub: &billing.Subscription{
				Tier:     billing.TierPro,
				Status:   billing.StatusTrialing,
				TrialEnd: nullTime(now.Add(time.Second)),
			},
			feature: FeatureAICoach,
			want:    true,
		},
		{
			name: "trial ending exactly now is expired",
			sub: &billing.Subscription{
				Tier:     billing.TierPro,
				Status:   billing.StatusTrialing,
				TrialEnd: nullTime(now),
			},
			feature: FeatureAICoach,
			want:    false,
		},
		{
			name: "trialing one second after expiry",
			sub: &billing.Subscription{
				Tier:     billing.TierPro,
				Status:   billing.StatusTrialing,
				TrialEnd: nullTime(now.Add(-time.Second)),
			},
			feature: FeatureAICoach,
			want:    false,
		},
		{
			name: "trialing without a trial end",
			sub: &billing.Subscription{
				Tier:   billing.TierPro,
				Status: billing.StatusTrialing,
			},
			feature: FeatureAICoach,
			want:    false,
		},
		{
			name:    "past_due denies even on elite",
			sub:     &billing.Subscription{Tier: billing.TierElite, Status: billing.StatusPastDue},
			feature: FeatureWorkoutPlans,
			want:    false,
		},
		{
			name:    "canceled denies",
			sub:     &billing.Subscription{Tier: billing.TierElite, Status: billing.StatusCanceled},
			feature: FeatureWorkoutPlans,
			want:    false,
		},
		{
			name:    "incomplete denies",
			sub:     &billing.Subscription{Tier: billing.TierElite, Status: billing.StatusIncomplete},
			feature: FeatureWorkoutPlans,
			want:    false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HasFeatureAccessAt(tc.sub, tc.feature, now))
		})
	}
}

// Status gates before tier: an elite subscription in a bad status gets
// nothing, while a healthy starter gets its own features.
func TestStatusDominatesTier(t *testing.T) {
	now := time.Now()

	badElite := &billing.Subscription{Tier: billing.TierElite, Status: billing.StatusPastDue}
	goodStarter := &billing.Subscription{Tier: billing.TierStarter, Status: billing.StatusActive}

	for _, f := range AllFeatures {
		assert.False(t, HasFeatureAccessAt(badElite, f, now), string(f))
	}
	assert.True(t, HasFeatureAccessAt(goodStarter, FeatureProgressTracking, now))
}

func TestRequiredTier(t *testing.T) {
	assert.Equal(t, billing.TierStarter, RequiredTier(FeatureWorkoutPlans))
	assert.Equal(t, billing.TierPro, RequiredTier(FeatureDietitian))
	assert.Equal(t, billing.TierElite, RequiredTier(FeatureCoachDashboard))

	// A feature no tier grants reports the top tier.
	assert.Equal(t, billing.TierElite, RequiredTier(Feature("time_travel")))
}

func TestParseFeature(t *testing.T) {
	f, ok := ParseFeature("ai_coach")
	require.True(t, ok)
	assert.Equal(t, FeatureAICoach, f)

	_, ok = ParseFeature("jetpack")
	assert.False(t, ok)
}
