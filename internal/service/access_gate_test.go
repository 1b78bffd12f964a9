package service

import (
	"errors"
	"testing"

	"github.com/Moe-hub814/Academy/internal/domain"
)

func TestCheckAccess(t *testing.T) {
	tests := []struct {
		name   string
		status domain.SubscriptionStatus
	}{
		{"active passes", domain.SubscriptionActive},
		{"pending passes", domain.SubscriptionPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckAccess(&domain.Student{SubscriptionStatus: tt.status})
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}

	t.Run("canceled denied", func(t *testing.T) {
		err := CheckAccess(&domain.Student{SubscriptionStatus: domain.SubscriptionCanceled})
		if !errors.Is(err, ErrSubscriptionCanceled) {
			t.Errorf("expected ErrSubscriptionCanceled, got %v", err)
		}
	})

	t.Run("past due carries billing reference", func(t *testing.T) {
		err := CheckAccess(&domain.Student{
			SubscriptionStatus: domain.SubscriptionPastDue,
			BillingCustomerID:  "cus_123",
		})
		var pastDue *PastDueError
		if !errors.As(err, &pastDue) {
			t.Fatalf("expected PastDueError, got %v", err)
		}
		if pastDue.BillingCustomerID != "cus_123" {
			t.Errorf("expected customer cus_123, got %q", pastDue.BillingCustomerID)
		}
	})
}
