package models

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus is the state of a newsletter subscription.
type SubscriptionStatus string

const (
	SubscriptionActive       SubscriptionStatus = "active"
	SubscriptionUnsubscribed SubscriptionStatus = "unsubscribed"
)

// Subscription is a newsletter signup. Email addresses are stored
// lowercased and unique; unsubscribing keeps the row so a later signup
// reactivates it instead of creating a duplicate.
type Subscription struct {
	ID             uuid.UUID          `json:"id"`
	Email          string             `json:"email"`
	Status         SubscriptionStatus `json:"status"`
	SubscribedAt   time.Time          `json:"subscribed_at"`
	UnsubscribedAt *time.Time         `json:"unsubscribed_at,omitempty"`
	IPAddress      *string            `json:"-"`
	UserAgent      *string            `json:"-"`
	Source         string             `json:"source"`
	CreatedAt      time.Time          `json:"created_at"`
}
