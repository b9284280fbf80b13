// internal/middleware/helpers.go
package middleware

import (
	"fitcoach-service/internal/domain/billing"

	"github.com/gin-gonic/gin"
)

// GetUserID gets the resolved user ID from context
func GetUserID(c *gin.Context) (int64, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}

	id, ok := userID.(int64)
	return id, ok
}

// MustGetUserID gets the user ID from context or panics
func MustGetUserID(c *gin.Context) int64 {
	userID, exists := GetUserID(c)
	if !exists {
		panic("user_id not found in context")
	}
	return userID
}

// GetEmail gets the caller's email from context
func GetEmail(c *gin.Context) string {
	email, exists := c.Get("email")
	if !exists {
		return ""
	}

	s, ok := email.(string)
	if !ok {
		return ""
	}
	return s
}

// GetSubscription gets the loaded subscription from context, nil when the
// gate allowed the request without one.
func GetSubscription(c *gin.Context) *billing.Subscription {
	sub, exists := c.Get("subscription")
	if !exists {
		return nil
	}

	s, ok := sub.(*billing.Subscription)
	if !ok {
		return nil
	}
	return s
}
