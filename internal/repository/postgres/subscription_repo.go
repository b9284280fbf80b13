// internal/repository/postgres/subscription_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"fitcoach-service/internal/domain/billing"
	xerrors "fitcoach-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SubscriptionRepository persists the one-row-per-user subscription record.
//
// Upsert is the only write path and is a single conflict-resolving statement:
// concurrent webhook deliveries for the same user must never be folded
// through a read-then-write sequence.
type SubscriptionRepository struct {
	db *pgxpool.Pool
}

func NewSubscriptionRepository(db *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// FindByUserID retrieves the subscription record for a user. Absence of a
// record is a common, valid state and is reported as xerrors.ErrNotFound.
func (r *SubscriptionRepository) FindByUserID(ctx context.Context, userID int64) (*billing.Subscription, error) {
	query := `
		SELECT user_id, tier, status,
		       stripe_customer_id, stripe_subscription_id,
		       trial_start, trial_end,
		       current_period_start, current_period_end,
		       cancel_at_period_end, created_at, updated_at
		FROM subscriptions
		WHERE user_id = $1
	`

	var sub billing.Subscription

	err := r.db.QueryRow(ctx, query, userID).Scan(
		&sub.UserID, &sub.Tier, &sub.Status,
		&sub.StripeCustomerID, &sub.StripeSubscriptionID,
		&sub.TrialStart, &sub.TrialEnd,
		&sub.CurrentPeriodStart, &sub.CurrentPeriodEnd,
		&sub.CancelAtPeriodEnd, &sub.CreatedAt, &sub.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find subscription: %w", err)
	}

	return &sub, nil
}

// Upsert inserts the record or replaces every synchronizer-owned field if a
// row already exists for the user. Last write wins at the storage layer.
func (r *SubscriptionRepository) Upsert(ctx context.Context, sub *billing.Subscription) error {
	query := `
		INSERT INTO subscriptions (
			user_id, tier, status,
			stripe_customer_id, stripe_subscription_id,
			trial_start, trial_end,
			current_period_start, current_period_end,
			cancel_at_period_end, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			tier                   = EXCLUDED.tier,
			status                 = EXCLUDED.status,
			stripe_customer_id     = EXCLUDED.stripe_customer_id,
			stripe_subscription_id = EXCLUDED.stripe_subscription_id,
			trial_start            = EXCLUDED.trial_start,
			trial_end              = EXCLUDED.trial_end,
			current_period_start   = EXCLUDED.current_period_start,
			current_period_end     = EXCLUDED.current_period_end,
			cancel_at_period_end   = EXCLUDED.cancel_at_period_end,
			updated_at             = NOW()
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(
		ctx, query,
		sub.UserID, sub.Tier, sub.Status,
		sub.StripeCustomerID, sub.StripeSubscriptionID,
		sub.TrialStart, sub.TrialEnd,
		sub.CurrentPeriodStart, sub.CurrentPeriodEnd,
		sub.CancelAtPeriodEnd,
	).Scan(&sub.CreatedAt, &sub.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}

	return nil
}
