// internal/handlers/billing/billing_handler_test.go
package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	domain "fitcoach-service/internal/domain/billing"
	xerrors "fitcoach-service/internal/pkg/errors"
	billingsvc "fitcoach-service/internal/service/billing"
	"fitcoach-service/internal/service/processor"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubStore struct {
	mu        sync.Mutex
	subs      map[int64]*domain.Subscription
	upsertErr error
}

func newStubStore() *stubStore {
	return &stubStore{subs: make(map[int64]*domain.Subscription)}
}

func (s *stubStore) FindByUserID(_ context.Context, userID int64) (*domain.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[userID]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return sub, nil
}

func (s *stubStore) Upsert(_ context.Context, sub *domain.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.subs[sub.UserID] = sub
	return nil
}

// asUser mimics the auth middleware for routes that expect a resolved caller.
func asUser(userID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("email", "user@example.com")
		c.Next()
	}
}

func newHandlerFixture(t *testing.T) (*gin.Engine, *stubStore, *processor.Mock) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := newStubStore()
	mock := processor.NewMock()
	logger := zap.NewNop()

	checkoutCfg := billingsvc.CheckoutConfig{
		PriceIDs: map[domain.Tier]string{
			domain.TierStarter: "price_starter",
			domain.TierPro:     "price_pro",
			domain.TierElite:   "price_elite",
		},
		TrialDays:  14,
		SuccessURL: "https://app.example.com/success",
		CancelURL:  "https://app.example.com/cancel",
	}

	h := NewBillingHandler(
		billingsvc.NewCheckoutService(store, mock, checkoutCfg, logger),
		billingsvc.NewWebhookService(store, mock, nil, logger),
		billingsvc.NewAccessService(store, nil, logger),
	)

	r := gin.New()
	r.POST("/billing/webhook", h.Webhook)
	r.POST("/billing/checkout", asUser(42), h.StartCheckout)
	r.GET("/billing/subscription", asUser(42), h.GetSubscription)
	r.GET("/billing/access/:feature", asUser(42), h.CheckAccess)
	return r, store, mock
}

func postWebhook(r *gin.Engine, sig string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/billing/webhook", bytes.NewBufferString(`{}`))
	if sig != "" {
		req.Header.Set("Stripe-Signature", sig)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookMissingSignature(t *testing.T) {
	r, _, _ := newHandlerFixture(t)

	w := postWebhook(r, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookVerificationFailure(t *testing.T) {
	r, _, mock := newHandlerFixture(t)
	mock.VerifyEventErr = fmt.Errorf("%w: bad signature", xerrors.ErrVerification)

	w := postWebhook(r, "t=1,v1=bogus")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestWebhookProcessingFailureIsRetriable(t *testing.T) {
	r, store, mock := newHandlerFixture(t)
	store.upsertErr = xerrors.ErrStorage
	mock.Events["sig"] = &domain.Event{
		Kind: domain.EventSubscriptionUpdated,
		ID:   "evt_1",
		Type: "customer.subscription.updated",
		Subscription: &domain.SubscriptionChange{
			UserID:         42,
			Tier:           domain.TierPro,
			CustomerID:     "cus_42",
			SubscriptionID: "sub_42",
			Status:         domain.StatusActive,
		},
	}

	w := postWebhook(r, "sig")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestWebhookSuccess(t *testing.T) {
	r, store, mock := newHandlerFixture(t)
	mock.Events["sig"] = &domain.Event{
		Kind: domain.EventSubscriptionUpdated,
		ID:   "evt_1",
		Type: "customer.subscription.updated",
		Subscription: &domain.SubscriptionChange{
			UserID:         42,
			Tier:           domain.TierPro,
			CustomerID:     "cus_42",
			SubscriptionID: "sub_42",
			Status:         domain.StatusActive,
		},
	}

	w := postWebhook(r, "sig")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]bool
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body["received"])

	sub, err := store.FindByUserID(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, sub.Status)
}

func TestStartCheckoutUnknownTier(t *testing.T) {
	r, _, _ := newHandlerFixture(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/billing/checkout", bytes.NewBufferString(`{"tier":"platinum"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStartCheckoutProcessorDown(t *testing.T) {
	r, _, mock := newHandlerFixture(t)
	mock.CreateSessionErr = fmt.Errorf("%w: stripe 503", xerrors.ErrUpstreamProcessor)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/billing/checkout", bytes.NewBufferString(`{"tier":"pro"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestStartCheckoutReturnsURL(t *testing.T) {
	r, _, mock := newHandlerFixture(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/billing/checkout", bytes.NewBufferString(`{"tier":"pro"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, mock.CheckoutURL, body.Data.URL)
}

func TestGetSubscription(t *testing.T) {
	r, store, _ := newHandlerFixture(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/billing/subscription", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	store.subs[42] = &domain.Subscription{UserID: 42, Tier: domain.TierPro, Status: domain.StatusActive}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/billing/subscription", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data domain.Subscription `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, domain.TierPro, body.Data.Tier)
}

func TestCheckAccess(t *testing.T) {
	r, store, _ := newHandlerFixture(t)
	store.subs[42] = &domain.Subscription{UserID: 42, Tier: domain.TierStarter, Status: domain.StatusActive}

	// Unknown feature names are rejected outright.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/billing/access/jetpack", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// A denial is still a successful check.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/billing/access/dietitian", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data struct {
			Allowed      bool   `json:"allowed"`
			RequiredTier string `json:"required_tier"`
			CurrentTier  string `json:"current_tier"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Data.Allowed)
	assert.Equal(t, "pro", body.Data.RequiredTier)
	assert.Equal(t, "starter", body.Data.CurrentTier)

	// Granted features report the tier serving them.
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/billing/access/workout_plans", nil)
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Data.Allowed)
}
