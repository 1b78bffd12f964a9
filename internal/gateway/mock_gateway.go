package gateway

import (
	"context"
	"fmt"
	"sync"
)

// MockGateway implements BillingGateway for testing and local
// development without processor credentials
type MockGateway struct {
	mu            sync.RWMutex
	canceled      map[string]bool
	sessionPrices map[string]string
	invoices      map[string][]*Invoice
	cancelErr     error
	listErr       error
}

// NewMockGateway creates a new mock gateway
func NewMockGateway() *MockGateway {
	return &MockGateway{
		canceled:      make(map[string]bool),
		sessionPrices: make(map[string]string),
		invoices:      make(map[string][]*Invoice),
	}
}

// CancelSubscription records the cancellation
func (g *MockGateway) CancelSubscription(ctx context.Context, subscriptionID string) error {
	if subscriptionID == "" {
		return fmt.Errorf("subscription ID is required")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cancelErr != nil {
		return g.cancelErr
	}
	g.canceled[subscriptionID] = true
	return nil
}

// CheckoutPriceID returns the price registered for a session, or empty
// when unknown
func (g *MockGateway) CheckoutPriceID(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("session ID is required")
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.sessionPrices[sessionID], nil
}

// ListInvoices returns the invoices registered for a customer
func (g *MockGateway) ListInvoices(ctx context.Context, customerID string) ([]*Invoice, error) {
	if customerID == "" {
		return nil, fmt.Errorf("customer ID is required")
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.listErr != nil {
		return nil, g.listErr
	}
	invoices := make([]*Invoice, len(g.invoices[customerID]))
	copy(invoices, g.invoices[customerID])
	return invoices, nil
}

// Name returns the gateway name
func (g *MockGateway) Name() string {
	return "mock"
}

// SetSessionPrice registers a price for a checkout session (for testing)
func (g *MockGateway) SetSessionPrice(sessionID, priceID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessionPrices[sessionID] = priceID
}

// SetInvoices registers a customer's invoice history (for testing)
func (g *MockGateway) SetInvoices(customerID string, invoices []*Invoice) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.invoices[customerID] = invoices
}

// SetListInvoicesError forces ListInvoices to fail (for testing)
func (g *MockGateway) SetListInvoicesError(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listErr = err
}

// SetCancelError forces CancelSubscription to fail (for testing)
func (g *MockGateway) SetCancelError(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelErr = err
}

// Canceled reports whether a subscription has been canceled
func (g *MockGateway) Canceled(subscriptionID string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.canceled[subscriptionID]
}
