package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Moe-hub814/Academy/internal/domain"
	"github.com/Moe-hub814/Academy/pkg/database"
)

const studentColumns = `id, email, password_hash, name, tier, subscription_status,
	billing_customer_id, billing_subscription_id, created_at, updated_at, last_login_at`

// PostgresStudentRepository implements StudentRepository using PostgreSQL
type PostgresStudentRepository struct {
	db *database.PostgresDB
}

// NewPostgresStudentRepository creates a new PostgresStudentRepository
func NewPostgresStudentRepository(db *database.PostgresDB) *PostgresStudentRepository {
	return &PostgresStudentRepository{db: db}
}

// Create creates a new student record
func (r *PostgresStudentRepository) Create(ctx context.Context, student *domain.Student) error {
	query := `
		INSERT INTO students (` + studentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.Pool().Exec(ctx, query,
		student.ID,
		domain.NormalizeEmail(student.Email),
		student.PasswordHash,
		student.Name,
		student.Tier,
		student.SubscriptionStatus,
		nullString(student.BillingCustomerID),
		nullString(student.BillingSubscriptionID),
		student.CreatedAt,
		student.UpdatedAt,
		student.LastLoginAt,
	)
	return err
}

// GetByID retrieves a student by ID
func (r *PostgresStudentRepository) GetByID(ctx context.Context, id string) (*domain.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`
	return r.scanOne(r.db.Pool().QueryRow(ctx, query, id))
}

// GetByEmail retrieves a student by email, case-insensitively
func (r *PostgresStudentRepository) GetByEmail(ctx context.Context, email string) (*domain.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE email = $1`
	return r.scanOne(r.db.Pool().QueryRow(ctx, query, domain.NormalizeEmail(email)))
}

// GetByBillingCustomerID retrieves a student by the billing processor's
// customer reference
func (r *PostgresStudentRepository) GetByBillingCustomerID(ctx context.Context, customerID string) (*domain.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE billing_customer_id = $1`
	return r.scanOne(r.db.Pool().QueryRow(ctx, query, customerID))
}

// ExistsByEmail checks if a student exists with the given email
func (r *PostgresStudentRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM students WHERE email = $1)`
	var exists bool
	err := r.db.Pool().QueryRow(ctx, query, domain.NormalizeEmail(email)).Scan(&exists)
	return exists, err
}

// Update updates a student record
func (r *PostgresStudentRepository) Update(ctx context.Context, student *domain.Student) error {
	query := `
		UPDATE students
		SET email = $2, password_hash = $3, name = $4, tier = $5, subscription_status = $6,
			billing_customer_id = $7, billing_subscription_id = $8, updated_at = $9
		WHERE id = $1
	`
	student.UpdatedAt = time.Now().UTC()
	_, err := r.db.Pool().Exec(ctx, query,
		student.ID,
		domain.NormalizeEmail(student.Email),
		student.PasswordHash,
		student.Name,
		student.Tier,
		student.SubscriptionStatus,
		nullString(student.BillingCustomerID),
		nullString(student.BillingSubscriptionID),
		student.UpdatedAt,
	)
	return err
}

// UpdateStatus overwrites the subscription status field
func (r *PostgresStudentRepository) UpdateStatus(ctx context.Context, id string, status domain.SubscriptionStatus) error {
	query := `UPDATE students SET subscription_status = $2, updated_at = $3 WHERE id = $1`
	_, err := r.db.Pool().Exec(ctx, query, id, status, time.Now().UTC())
	return err
}

// UpdateLastLogin records a successful login
func (r *PostgresStudentRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE students SET last_login_at = $2 WHERE id = $1`
	_, err := r.db.Pool().Exec(ctx, query, id, at)
	return err
}

// List returns a page of students matching the filter plus the total count
func (r *PostgresStudentRepository) List(ctx context.Context, filter StudentFilter) ([]*domain.Student, int, error) {
	where := make([]string, 0, 3)
	args := make([]interface{}, 0, 3)

	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		where = append(where, fmt.Sprintf("(email ILIKE $%d OR name ILIKE $%d)", len(args), len(args)))
	}
	if filter.Tier != "" {
		args = append(args, filter.Tier)
		where = append(where, fmt.Sprintf("tier = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("subscription_status = $%d", len(args)))
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM students` + whereClause
	if err := r.db.Pool().QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}

	args = append(args, limit, (page-1)*limit)
	query := fmt.Sprintf(
		`SELECT `+studentColumns+` FROM students%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		whereClause, len(args)-1, len(args),
	)

	rows, err := r.db.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	students := make([]*domain.Student, 0, limit)
	for rows.Next() {
		student, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		students = append(students, student)
	}
	return students, total, rows.Err()
}

// Stats computes the admin dashboard aggregates in one round trip
func (r *PostgresStudentRepository) Stats(ctx context.Context, recentSince time.Time) (*StudentStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE subscription_status = 'active'),
			COUNT(*) FILTER (WHERE subscription_status = 'past_due'),
			COUNT(*) FILTER (WHERE tier = 'self-paced' AND subscription_status <> 'canceled'),
			COUNT(*) FILTER (WHERE tier = 'mentorship' AND subscription_status <> 'canceled'),
			COUNT(*) FILTER (WHERE created_at >= $1)
		FROM students
	`
	stats := &StudentStats{}
	err := r.db.Pool().QueryRow(ctx, query, recentSince).Scan(
		&stats.Total,
		&stats.Active,
		&stats.PastDue,
		&stats.SelfPaced,
		&stats.Mentorship,
		&stats.RecentSignups,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *PostgresStudentRepository) scanOne(row pgx.Row) (*domain.Student, error) {
	student, err := r.scanRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return student, nil
}

func (r *PostgresStudentRepository) scanRow(row pgx.Row) (*domain.Student, error) {
	student := &domain.Student{}
	var billingCustomerID, billingSubscriptionID *string
	err := row.Scan(
		&student.ID,
		&student.Email,
		&student.PasswordHash,
		&student.Name,
		&student.Tier,
		&student.SubscriptionStatus,
		&billingCustomerID,
		&billingSubscriptionID,
		&student.CreatedAt,
		&student.UpdatedAt,
		&student.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}
	if billingCustomerID != nil {
		student.BillingCustomerID = *billingCustomerID
	}
	if billingSubscriptionID != nil {
		student.BillingSubscriptionID = *billingSubscriptionID
	}
	return student, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
