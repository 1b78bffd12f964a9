package repository

import (
	"context"

	"github.com/Moe-hub814/Academy/internal/domain"
)

// EnrollmentRepository defines the interface for pending enrollment
// staging. Upsert is keyed by email so a repeated checkout for the same
// address overwrites the staged record.
type EnrollmentRepository interface {
	Upsert(ctx context.Context, enrollment *domain.PendingEnrollment) error
	GetByEmail(ctx context.Context, email string) (*domain.PendingEnrollment, error)
	DeleteByEmail(ctx context.Context, email string) error
}
