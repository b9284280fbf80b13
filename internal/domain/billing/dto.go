// internal/domain/billing/dto.go
package billing

type StartCheckoutRequest struct {
	Tier string `json:"tier" binding:"required"`
}

type CheckoutSessionResponse struct {
	URL string `json:"url"`
}
