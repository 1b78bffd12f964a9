package domain

import (
	"strings"
	"time"
)

// Tier is the course package a student purchased, independent of
// subscription status.
type Tier string

const (
	TierSelfPaced  Tier = "self-paced"
	TierMentorship Tier = "mentorship"
)

// Valid reports whether the tier is a known value
func (t Tier) Valid() bool {
	return t == TierSelfPaced || t == TierMentorship
}

// SubscriptionStatus is the billing-derived enum gating course access.
type SubscriptionStatus string

const (
	SubscriptionPending  SubscriptionStatus = "pending"
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

// Valid reports whether the status is a known value
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubscriptionPending, SubscriptionActive, SubscriptionPastDue, SubscriptionCanceled:
		return true
	}
	return false
}

// Student represents a student account. Students are never hard-deleted;
// revoking access sets subscription status to canceled.
type Student struct {
	ID                    string             `json:"id"`
	Email                 string             `json:"email"`
	PasswordHash          string             `json:"-"` // Never serialize password
	Name                  string             `json:"name"`
	Tier                  Tier               `json:"tier"`
	SubscriptionStatus    SubscriptionStatus `json:"subscription_status"`
	BillingCustomerID     string             `json:"billing_customer_id,omitempty"`
	BillingSubscriptionID string             `json:"billing_subscription_id,omitempty"`
	CreatedAt             time.Time          `json:"created_at"`
	UpdatedAt             time.Time          `json:"updated_at"`
	LastLoginAt           *time.Time         `json:"last_login_at,omitempty"`
}

// NormalizeEmail lower-cases an email address. Student emails are
// unique case-insensitively; every lookup and write goes through this.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
