package repository

import (
	"context"
	"sync"

	"github.com/Moe-hub814/Academy/internal/domain"
)

// MemoryEnrollmentRepository implements EnrollmentRepository using
// in-memory storage
type MemoryEnrollmentRepository struct {
	enrollments map[string]*domain.PendingEnrollment
	mu          sync.RWMutex
}

// NewMemoryEnrollmentRepository creates a new in-memory enrollment
// repository
func NewMemoryEnrollmentRepository() *MemoryEnrollmentRepository {
	return &MemoryEnrollmentRepository{
		enrollments: make(map[string]*domain.PendingEnrollment),
	}
}

// Upsert stages a pending enrollment, overwriting any previous record
// for the same email
func (r *MemoryEnrollmentRepository) Upsert(ctx context.Context, enrollment *domain.PendingEnrollment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := *enrollment
	e.Email = domain.NormalizeEmail(e.Email)
	r.enrollments[e.Email] = &e
	return nil
}

// GetByEmail retrieves a staged enrollment by email
func (r *MemoryEnrollmentRepository) GetByEmail(ctx context.Context, email string) (*domain.PendingEnrollment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	enrollment, ok := r.enrollments[domain.NormalizeEmail(email)]
	if !ok {
		return nil, nil
	}
	e := *enrollment
	return &e, nil
}

// DeleteByEmail removes a staged enrollment
func (r *MemoryEnrollmentRepository) DeleteByEmail(ctx context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.enrollments, domain.NormalizeEmail(email))
	return nil
}
