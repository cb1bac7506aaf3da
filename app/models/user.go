// Package models defines the user and story records persisted by the service.
package models

import "time"

type SubscriptionStatus string

const (
	StatusFree     SubscriptionStatus = "free"
	StatusPremium  SubscriptionStatus = "premium"
	StatusTrialing SubscriptionStatus = "trialing"
	StatusCanceled SubscriptionStatus = "canceled"
	StatusPastDue  SubscriptionStatus = "past_due"
	StatusAdmin    SubscriptionStatus = "admin"
)

// PremiumEquivalent reports whether the status grants unlimited generation
// regardless of credit balance.
func (s SubscriptionStatus) PremiumEquivalent() bool {
	switch s {
	case StatusPremium, StatusTrialing, StatusAdmin:
		return true
	}
	return false
}

type User struct {
	UID                string             `db:"uid"`
	Email              string             `db:"email"`
	Name               string             `db:"name"`
	SubscriptionStatus SubscriptionStatus `db:"subscription_status"`
	Credits            int                `db:"credits"`
	CustomVoiceID      string             `db:"custom_voice_id"`
	StripeCustomerID   string             `db:"stripe_customer_id"`
	SubscriptionID     string             `db:"subscription_id"`
	CreatedAt          time.Time          `db:"created_at"`
}
