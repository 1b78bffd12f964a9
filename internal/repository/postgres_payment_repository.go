package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Moe-hub814/Academy/internal/domain"
	"github.com/Moe-hub814/Academy/pkg/database"
)

const paymentColumns = `id, student_id, external_payment_id, amount, status, description, created_at`

// PostgresPaymentRepository implements PaymentRepository using PostgreSQL
type PostgresPaymentRepository struct {
	db *database.PostgresDB
}

// NewPostgresPaymentRepository creates a new PostgresPaymentRepository
func NewPostgresPaymentRepository(db *database.PostgresDB) *PostgresPaymentRepository {
	return &PostgresPaymentRepository{db: db}
}

// Create appends a payment log entry. A unique index on
// external_payment_id turns duplicate webhook deliveries into
// domain.ErrPaymentAlreadyExists.
func (r *PostgresPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Pool().Exec(ctx, query,
		payment.ID,
		payment.StudentID,
		payment.ExternalPaymentID,
		payment.Amount,
		payment.Status,
		payment.Description,
		payment.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrPaymentAlreadyExists
		}
		return err
	}
	return nil
}

// ExistsByExternalID checks whether a processor payment reference has
// already been recorded
func (r *PostgresPaymentRepository) ExistsByExternalID(ctx context.Context, externalPaymentID string) (bool, error) {
	var exists bool
	err := r.db.Pool().QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM payments WHERE external_payment_id = $1)`,
		externalPaymentID,
	).Scan(&exists)
	return exists, err
}

// ListByStudent retrieves a student's payment history, newest first
func (r *PostgresPaymentRepository) ListByStudent(ctx context.Context, studentID string) ([]*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE student_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Pool().Query(ctx, query, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*domain.Payment
	for rows.Next() {
		p := &domain.Payment{}
		if err := rows.Scan(
			&p.ID,
			&p.StudentID,
			&p.ExternalPaymentID,
			&p.Amount,
			&p.Status,
			&p.Description,
			&p.CreatedAt,
		); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
