package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v82"
	checkoutsession "github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/invoice"
	"github.com/stripe/stripe-go/v82/subscription"
)

// StripeGateway implements BillingGateway using Stripe
type StripeGateway struct {
	config *StripeGatewayConfig
}

// StripeGatewayConfig holds configuration for Stripe gateway
type StripeGatewayConfig struct {
	SecretKey     string
	WebhookSecret string
}

// NewStripeGateway creates a new Stripe gateway
func NewStripeGateway(config *StripeGatewayConfig) (*StripeGateway, error) {
	if config == nil {
		return nil, fmt.Errorf("stripe config is required")
	}
	if config.SecretKey == "" {
		return nil, fmt.Errorf("stripe secret key is required")
	}

	// Set Stripe API key globally
	stripe.Key = config.SecretKey

	return &StripeGateway{
		config: config,
	}, nil
}

// CancelSubscription cancels a subscription immediately
func (g *StripeGateway) CancelSubscription(ctx context.Context, subscriptionID string) error {
	if subscriptionID == "" {
		return fmt.Errorf("subscription ID is required")
	}

	if _, err := subscription.Cancel(subscriptionID, nil); err != nil {
		return fmt.Errorf("failed to cancel subscription: %w", err)
	}
	return nil
}

// CheckoutPriceID retrieves the price ID of the first line item of a
// checkout session. Checkout webhook payloads omit line items, so the
// ingestion path calls back to the processor to map price to tier.
func (g *StripeGateway) CheckoutPriceID(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("session ID is required")
	}

	params := &stripe.CheckoutSessionParams{}
	params.AddExpand("line_items")

	sess, err := checkoutsession.Get(sessionID, params)
	if err != nil {
		return "", fmt.Errorf("failed to get checkout session: %w", err)
	}

	if sess.LineItems == nil || len(sess.LineItems.Data) == 0 {
		return "", nil
	}
	item := sess.LineItems.Data[0]
	if item.Price == nil {
		return "", nil
	}
	return item.Price.ID, nil
}

// invoiceHistoryLimit caps how many invoices the admin detail pulls
const invoiceHistoryLimit = 10

// ListInvoices returns the customer's most recent invoices
func (g *StripeGateway) ListInvoices(ctx context.Context, customerID string) ([]*Invoice, error) {
	if customerID == "" {
		return nil, fmt.Errorf("customer ID is required")
	}

	params := &stripe.InvoiceListParams{
		Customer: stripe.String(customerID),
	}
	params.Limit = stripe.Int64(invoiceHistoryLimit)

	invoices := make([]*Invoice, 0, invoiceHistoryLimit)
	it := invoice.List(params)
	for it.Next() {
		inv := it.Invoice()
		invoices = append(invoices, &Invoice{
			ID:          inv.ID,
			Amount:      float64(inv.AmountPaid) / 100,
			Status:      string(inv.Status),
			Description: inv.Description,
			CreatedAt:   time.Unix(inv.Created, 0).UTC(),
		})
	}
	if err := it.Err(); err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	return invoices, nil
}

// Name returns the gateway name
func (g *StripeGateway) Name() string {
	return "stripe"
}
