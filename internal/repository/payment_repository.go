package repository

import (
	"context"

	"github.com/Moe-hub814/Academy/internal/domain"
)

// PaymentRepository defines the interface for payment log data access.
// Create enforces uniqueness on the external payment reference and
// returns domain.ErrPaymentAlreadyExists on a duplicate, which is how
// repeated webhook deliveries stay idempotent.
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	ExistsByExternalID(ctx context.Context, externalPaymentID string) (bool, error)
	ListByStudent(ctx context.Context, studentID string) ([]*domain.Payment, error)
}
