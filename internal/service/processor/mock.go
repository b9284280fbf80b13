// internal/service/processor/mock.go
package processor

import (
	"context"
	"fmt"
	"sync"

	"fitcoach-service/internal/domain/billing"
)

// Mock is a test double that records calls and returns configurable results.
type Mock struct {
	mu sync.Mutex

	// Customers maps userID -> customerID for customers created through the mock.
	Customers map[int64]string
	// Sessions collects the params of every checkout session created.
	Sessions []CheckoutSessionParams
	// Subscriptions maps subscriptionID -> the detail GetSubscription returns.
	Subscriptions map[string]*billing.ProcessorSubscription
	// Events maps signature header -> the event VerifyEvent returns, letting
	// tests hand-craft deliveries without real signatures.
	Events map[string]*billing.Event

	// Error fields allow tests to inject failures.
	CreateCustomerErr  error
	CreateSessionErr   error
	GetSubscriptionErr error
	VerifyEventErr     error

	CheckoutURL     string
	nextCustomerSeq int
}

// NewMock creates a Mock ready for use.
func NewMock() *Mock {
	return &Mock{
		Customers:     make(map[int64]string),
		Subscriptions: make(map[string]*billing.ProcessorSubscription),
		Events:        make(map[string]*billing.Event),
		CheckoutURL:   "https://checkout.example.com/c/session_mock",
	}
}

func (m *Mock) CreateCustomer(_ context.Context, userID int64, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateCustomerErr != nil {
		return "", m.CreateCustomerErr
	}

	m.nextCustomerSeq++
	id := fmt.Sprintf("cus_mock_%d", m.nextCustomerSeq)
	m.Customers[userID] = id
	return id, nil
}

func (m *Mock) CreateCheckoutSession(_ context.Context, params CheckoutSessionParams) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateSessionErr != nil {
		return "", m.CreateSessionErr
	}

	m.Sessions = append(m.Sessions, params)
	return m.CheckoutURL, nil
}

func (m *Mock) GetSubscription(_ context.Context, subscriptionID string) (*billing.ProcessorSubscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetSubscriptionErr != nil {
		return nil, m.GetSubscriptionErr
	}

	sub, ok := m.Subscriptions[subscriptionID]
	if !ok {
		return nil, fmt.Errorf("processor: subscription %s not found", subscriptionID)
	}
	return sub, nil
}

func (m *Mock) VerifyEvent(_ []byte, sigHeader string) (*billing.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.VerifyEventErr != nil {
		return nil, m.VerifyEventErr
	}

	event, ok := m.Events[sigHeader]
	if !ok {
		return nil, fmt.Errorf("processor: no event registered for signature %q", sigHeader)
	}
	return event, nil
}
