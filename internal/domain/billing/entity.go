// internal/domain/billing/entity.go
package billing

import (
	"database/sql"
	"encoding/json"
	"time"
)

// NullTime is sql.NullTime with a flat wire format: an RFC 3339 timestamp
// when set, JSON null otherwise. Scanning and valuing come from the embedded
// type, so it drops into query arguments and row scans unchanged.
type NullTime struct {
	sql.NullTime
}

func (t NullTime) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time)
}

func (t *NullTime) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		t.Time, t.Valid = time.Time{}, false
		return nil
	}
	if err := json.Unmarshal(b, &t.Time); err != nil {
		return err
	}
	t.Valid = true
	return nil
}

type Tier string

const (
	TierStarter Tier = "starter"
	TierPro     Tier = "pro"
	TierElite   Tier = "elite"
)

// ParseTier validates a tier name supplied by a client.
func ParseTier(s string) (Tier, bool) {
	switch Tier(s) {
	case TierStarter, TierPro, TierElite:
		return Tier(s), true
	}
	return "", false
}

type SubscriptionStatus string

const (
	StatusIncomplete SubscriptionStatus = "incomplete"
	StatusTrialing   SubscriptionStatus = "trialing"
	StatusActive     SubscriptionStatus = "active"
	StatusPastDue    SubscriptionStatus = "past_due"
	StatusCanceled   SubscriptionStatus = "canceled"
)

// MapProcessorStatus converts a raw processor status string to the internal
// status set. Unknown statuses fail closed to canceled so a new processor
// state can never grant access by accident.
func MapProcessorStatus(s string) SubscriptionStatus {
	switch SubscriptionStatus(s) {
	case StatusIncomplete, StatusTrialing, StatusActive, StatusPastDue, StatusCanceled:
		return SubscriptionStatus(s)
	case "incomplete_expired":
		return StatusIncomplete
	case "unpaid", "paused":
		return StatusPastDue
	}
	return StatusCanceled
}

// Subscription is the single authoritative billing record per user. It is
// written exclusively by the webhook synchronizer and read everywhere else.
type Subscription struct {
	UserID int64 `json:"user_id" db:"user_id"`

	Tier   Tier               `json:"tier" db:"tier"`
	Status SubscriptionStatus `json:"status" db:"status"`

	// Processor references
	StripeCustomerID     string `json:"stripe_customer_id" db:"stripe_customer_id"`
	StripeSubscriptionID string `json:"stripe_subscription_id" db:"stripe_subscription_id"`

	// Trial window
	TrialStart NullTime `json:"trial_start" db:"trial_start"`
	TrialEnd   NullTime `json:"trial_end" db:"trial_end"`

	// Billing cycle bounds (informational)
	CurrentPeriodStart NullTime `json:"current_period_start" db:"current_period_start"`
	CurrentPeriodEnd   NullTime `json:"current_period_end" db:"current_period_end"`

	CancelAtPeriodEnd bool `json:"cancel_at_period_end" db:"cancel_at_period_end"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ProcessorSubscription is the authoritative subscription detail fetched from
// the payment processor during checkout-completed handling.
type ProcessorSubscription struct {
	ID                 string
	CustomerID         string
	Status             SubscriptionStatus
	TrialStart         NullTime
	TrialEnd           NullTime
	CurrentPeriodStart NullTime
	CurrentPeriodEnd   NullTime
	CancelAtPeriodEnd  bool
}
