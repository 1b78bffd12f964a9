package gateway

import (
	"context"
	"time"
)

// Invoice is a processor invoice, amounts in major currency units
type Invoice struct {
	ID          string    `json:"id"`
	Amount      float64   `json:"amount"`
	Status      string    `json:"status"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// BillingGateway abstracts the payment processor. The webhook path is
// push-based and does not need it; the gateway covers the calls the
// platform makes outbound, cancelling a subscription when an admin
// revokes access, resolving which price a checkout session was for,
// and pulling a customer's invoice history for the admin detail view.
type BillingGateway interface {
	// CancelSubscription cancels a subscription at the processor
	CancelSubscription(ctx context.Context, subscriptionID string) error

	// CheckoutPriceID resolves the price ID a checkout session purchased
	CheckoutPriceID(ctx context.Context, sessionID string) (string, error)

	// ListInvoices returns a customer's recent invoices, newest first
	ListInvoices(ctx context.Context, customerID string) ([]*Invoice, error)

	// Name returns the gateway name
	Name() string
}
