package service

import (
	"errors"
	"fmt"

	"github.com/Moe-hub814/Academy/internal/domain"
)

// ErrSubscriptionCanceled means the student's subscription was
// canceled and course access is gone until they re-subscribe.
var ErrSubscriptionCanceled = errors.New("subscription canceled")

// PastDueError means payment failed and access is suspended until the
// student settles the invoice. It carries the billing customer
// reference so the caller can point the student at the payment portal.
type PastDueError struct {
	BillingCustomerID string
}

func (e *PastDueError) Error() string {
	return fmt.Sprintf("subscription past due (customer %s)", e.BillingCustomerID)
}

// CheckAccess is the single authority on whether a subscription status
// grants course access. Pending passes: a staged account whose first
// invoice has not settled yet should not be locked out.
func CheckAccess(student *domain.Student) error {
	switch student.SubscriptionStatus {
	case domain.SubscriptionCanceled:
		return ErrSubscriptionCanceled
	case domain.SubscriptionPastDue:
		return &PastDueError{BillingCustomerID: student.BillingCustomerID}
	default:
		return nil
	}
}
