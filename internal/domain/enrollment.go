package domain

import "time"

// PendingEnrollment stages a completed checkout for an email that has
// no student account yet. The onboarding flow promotes it to a full
// Student record once the student sets a password. Keyed by email:
// a repeated checkout for the same email overwrites the staged record.
type PendingEnrollment struct {
	Email                 string    `json:"email"`
	Name                  string    `json:"name"`
	Tier                  Tier      `json:"tier"`
	BillingCustomerID     string    `json:"billing_customer_id"`
	BillingSubscriptionID string    `json:"billing_subscription_id"`
	CreatedAt             time.Time `json:"created_at"`
}
