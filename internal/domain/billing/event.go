// internal/domain/billing/event.go
package billing

// EventKind is the closed set of webhook event interpretations. Every event
// the processor delivers resolves to exactly one kind; anything the service
// does not act on becomes EventIgnored rather than a silent fallthrough.
type EventKind string

const (
	EventCheckoutCompleted   EventKind = "checkout_completed"
	EventSubscriptionUpdated EventKind = "subscription_updated"
	EventSubscriptionDeleted EventKind = "subscription_deleted"
	EventIgnored             EventKind = "ignored"
)

// Event is a verified, interpreted webhook event. Exactly one of the payload
// pointers is non-nil for the handled kinds; both are nil for EventIgnored.
type Event struct {
	Kind EventKind
	ID   string // processor event id, for log correlation
	Type string // raw processor event type

	Checkout     *CheckoutCompleted
	Subscription *SubscriptionChange
}

// CheckoutCompleted carries what a checkout.session.completed event reliably
// provides. Trial and period fields are NOT trusted from this event; the
// synchronizer performs a follow-up retrieval for those.
type CheckoutCompleted struct {
	UserID         int64
	Tier           Tier
	CustomerID     string
	SubscriptionID string
}

// SubscriptionChange carries the full current state from a subscription
// updated/deleted event payload.
type SubscriptionChange struct {
	UserID             int64
	Tier               Tier
	CustomerID         string
	SubscriptionID     string
	Status             SubscriptionStatus
	TrialStart         NullTime
	TrialEnd           NullTime
	CurrentPeriodStart NullTime
	CurrentPeriodEnd   NullTime
	CancelAtPeriodEnd  bool
}
