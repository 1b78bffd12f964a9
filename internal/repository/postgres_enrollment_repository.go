package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/Moe-hub814/Academy/internal/domain"
	"github.com/Moe-hub814/Academy/pkg/database"
)

// PostgresEnrollmentRepository implements EnrollmentRepository using
// PostgreSQL
type PostgresEnrollmentRepository struct {
	db *database.PostgresDB
}

// NewPostgresEnrollmentRepository creates a new PostgresEnrollmentRepository
func NewPostgresEnrollmentRepository(db *database.PostgresDB) *PostgresEnrollmentRepository {
	return &PostgresEnrollmentRepository{db: db}
}

// Upsert stages a pending enrollment, overwriting any previous record
// for the same email
func (r *PostgresEnrollmentRepository) Upsert(ctx context.Context, enrollment *domain.PendingEnrollment) error {
	query := `
		INSERT INTO pending_enrollments (email, name, tier, billing_customer_id, billing_subscription_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email) DO UPDATE SET
			name = EXCLUDED.name,
			tier = EXCLUDED.tier,
			billing_customer_id = EXCLUDED.billing_customer_id,
			billing_subscription_id = EXCLUDED.billing_subscription_id,
			created_at = EXCLUDED.created_at
	`
	_, err := r.db.Pool().Exec(ctx, query,
		domain.NormalizeEmail(enrollment.Email),
		enrollment.Name,
		enrollment.Tier,
		enrollment.BillingCustomerID,
		enrollment.BillingSubscriptionID,
		enrollment.CreatedAt,
	)
	return err
}

// GetByEmail retrieves a staged enrollment by email
func (r *PostgresEnrollmentRepository) GetByEmail(ctx context.Context, email string) (*domain.PendingEnrollment, error) {
	query := `
		SELECT email, name, tier, billing_customer_id, billing_subscription_id, created_at
		FROM pending_enrollments
		WHERE email = $1
	`
	e := &domain.PendingEnrollment{}
	err := r.db.Pool().QueryRow(ctx, query, domain.NormalizeEmail(email)).Scan(
		&e.Email,
		&e.Name,
		&e.Tier,
		&e.BillingCustomerID,
		&e.BillingSubscriptionID,
		&e.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// DeleteByEmail removes a staged enrollment once it has been promoted
// to a student account
func (r *PostgresEnrollmentRepository) DeleteByEmail(ctx context.Context, email string) error {
	_, err := r.db.Pool().Exec(ctx,
		`DELETE FROM pending_enrollments WHERE email = $1`,
		domain.NormalizeEmail(email),
	)
	return err
}
