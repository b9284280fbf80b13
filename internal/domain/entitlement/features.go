// internal/domain/entitlement/features.go
package entitlement

import "fitcoach-service/internal/domain/billing"

// Feature is a named capability gated behind a subscription tier.
type Feature string

const (
	FeatureWorkoutPlans     Feature = "workout_plans"
	FeatureProgressTracking Feature = "progress_tracking"
	FeatureAICoach          Feature = "ai_coach"
	FeatureDietitian        Feature = "dietitian"
	FeatureHabitInsights    Feature = "habit_insights"
	FeatureCoachDashboard   Feature = "coach_dashboard"
	FeatureVideoReview      Feature = "video_review"
	FeaturePrioritySupport  Feature = "priority_support"
)

// AllFeatures is the complete gated feature set, used by the monotonicity
// checks in tests.
var AllFeatures = []Feature{
	FeatureWorkoutPlans,
	FeatureProgressTracking,
	FeatureAICoach,
	FeatureDietitian,
	FeatureHabitInsights,
	FeatureCoachDashboard,
	FeatureVideoReview,
	FeaturePrioritySupport,
}

// ParseFeature validates a feature name coming off the wire.
func ParseFeature(s string) (Feature, bool) {
	f := Feature(s)
	for _, known := range AllFeatures {
		if f == known {
			return f, true
		}
	}
	return "", false
}

// TierOrder lists tiers from lowest to highest coverage.
var TierOrder = []billing.Tier{billing.TierStarter, billing.TierPro, billing.TierElite}

var tierRank = map[billing.Tier]int{
	billing.TierStarter: 0,
	billing.TierPro:     1,
	billing.TierElite:   2,
}

// TierRank returns the position of a tier in the fixed ordering, or -1 for an
// unknown tier.
func TierRank(t billing.Tier) int {
	if r, ok := tierRank[t]; ok {
		return r
	}
	return -1
}

// tierFeatures is the static entitlement table, versioned with deploys.
// Each higher tier must be a superset of the tier below it; the resolver
// tests enforce that invariant.
var tierFeatures = map[billing.Tier]map[Feature]bool{
	billing.TierStarter: {
		FeatureWorkoutPlans:     true,
		FeatureProgressTracking: true,
	},
	billing.TierPro: {
		FeatureWorkoutPlans:     true,
		FeatureProgressTracking: true,
		FeatureAICoach:          true,
		FeatureDietitian:        true,
		FeatureHabitInsights:    true,
	},
	billing.TierElite: {
		FeatureWorkoutPlans:     true,
		FeatureProgressTracking: true,
		FeatureAICoach:          true,
		FeatureDietitian:        true,
		FeatureHabitInsights:    true,
		FeatureCoachDashboard:   true,
		FeatureVideoReview:      true,
		FeaturePrioritySupport:  true,
	},
}

// TierGrants reports whether the entitlement table enables the feature for
// the given tier, ignoring subscription status.
func TierGrants(tier billing.Tier, feature Feature) bool {
	return tierFeatures[tier][feature]
}
