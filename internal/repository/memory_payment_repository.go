package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/Moe-hub814/Academy/internal/domain"
)

// MemoryPaymentRepository implements PaymentRepository using in-memory
// storage
type MemoryPaymentRepository struct {
	payments   map[string]*domain.Payment
	byExternal map[string]string
	mu         sync.RWMutex
}

// NewMemoryPaymentRepository creates a new in-memory payment repository
func NewMemoryPaymentRepository() *MemoryPaymentRepository {
	return &MemoryPaymentRepository{
		payments:   make(map[string]*domain.Payment),
		byExternal: make(map[string]string),
	}
}

// Create appends a payment log entry, rejecting duplicate external
// references
func (r *MemoryPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byExternal[payment.ExternalPaymentID]; exists {
		return domain.ErrPaymentAlreadyExists
	}
	p := *payment
	r.payments[payment.ID] = &p
	r.byExternal[payment.ExternalPaymentID] = payment.ID
	return nil
}

// ExistsByExternalID checks whether a processor payment reference has
// already been recorded
func (r *MemoryPaymentRepository) ExistsByExternalID(ctx context.Context, externalPaymentID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.byExternal[externalPaymentID]
	return exists, nil
}

// ListByStudent retrieves a student's payment history, newest first
func (r *MemoryPaymentRepository) ListByStudent(ctx context.Context, studentID string) ([]*domain.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var payments []*domain.Payment
	for _, payment := range r.payments {
		if payment.StudentID == studentID {
			p := *payment
			payments = append(payments, &p)
		}
	}
	sort.Slice(payments, func(i, j int) bool {
		return payments[i].CreatedAt.After(payments[j].CreatedAt)
	})
	return payments, nil
}
