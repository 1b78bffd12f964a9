package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/Moe-hub814/Academy/internal/domain"
	"github.com/Moe-hub814/Academy/pkg/database"
)

const progressColumns = `id, student_id, module_number, completed, completed_at,
	time_spent_minutes, updated_at`

// PostgresProgressRepository implements ProgressRepository using PostgreSQL
type PostgresProgressRepository struct {
	db *database.PostgresDB
}

// NewPostgresProgressRepository creates a new PostgresProgressRepository
func NewPostgresProgressRepository(db *database.PostgresDB) *PostgresProgressRepository {
	return &PostgresProgressRepository{db: db}
}

// CreateBatch inserts the full progress set for a student in one batch
func (r *PostgresProgressRepository) CreateBatch(ctx context.Context, modules []*domain.Progress) error {
	batch := &pgx.Batch{}
	query := `
		INSERT INTO progress (` + progressColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (student_id, module_number) DO NOTHING
	`
	for _, m := range modules {
		batch.Queue(query,
			m.ID,
			m.StudentID,
			m.ModuleNumber,
			m.Completed,
			m.CompletedAt,
			m.TimeSpentMinutes,
			m.UpdatedAt,
		)
	}

	results := r.db.Pool().SendBatch(ctx, batch)
	defer results.Close()

	for range modules {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// GetByStudent retrieves all progress rows for a student ordered by
// module number
func (r *PostgresProgressRepository) GetByStudent(ctx context.Context, studentID string) ([]*domain.Progress, error) {
	query := `
		SELECT ` + progressColumns + `
		FROM progress
		WHERE student_id = $1
		ORDER BY module_number ASC
	`
	rows, err := r.db.Pool().Query(ctx, query, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var modules []*domain.Progress
	for rows.Next() {
		p := &domain.Progress{}
		if err := rows.Scan(
			&p.ID,
			&p.StudentID,
			&p.ModuleNumber,
			&p.Completed,
			&p.CompletedAt,
			&p.TimeSpentMinutes,
			&p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		modules = append(modules, p)
	}
	return modules, rows.Err()
}

// Get retrieves a single progress row
func (r *PostgresProgressRepository) Get(ctx context.Context, studentID string, moduleNumber int) (*domain.Progress, error) {
	query := `
		SELECT ` + progressColumns + `
		FROM progress
		WHERE student_id = $1 AND module_number = $2
	`
	p := &domain.Progress{}
	err := r.db.Pool().QueryRow(ctx, query, studentID, moduleNumber).Scan(
		&p.ID,
		&p.StudentID,
		&p.ModuleNumber,
		&p.Completed,
		&p.CompletedAt,
		&p.TimeSpentMinutes,
		&p.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Update overwrites the mutable fields of a progress row
func (r *PostgresProgressRepository) Update(ctx context.Context, progress *domain.Progress) error {
	query := `
		UPDATE progress
		SET completed = $1, completed_at = $2, time_spent_minutes = $3, updated_at = $4
		WHERE student_id = $5 AND module_number = $6
	`
	_, err := r.db.Pool().Exec(ctx, query,
		progress.Completed,
		progress.CompletedAt,
		progress.TimeSpentMinutes,
		progress.UpdatedAt,
		progress.StudentID,
		progress.ModuleNumber,
	)
	return err
}

// DeleteByStudent removes all progress rows for a student
func (r *PostgresProgressRepository) DeleteByStudent(ctx context.Context, studentID string) error {
	_, err := r.db.Pool().Exec(ctx, `DELETE FROM progress WHERE student_id = $1`, studentID)
	return err
}

// CompletionStats aggregates module completion across all students
func (r *PostgresProgressRepository) CompletionStats(ctx context.Context) (*CompletionStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE completed),
			COALESCE((
				SELECT AVG(completed_count) FROM (
					SELECT COUNT(*) FILTER (WHERE completed) AS completed_count
					FROM progress
					GROUP BY student_id
				) per_student
			), 0)
		FROM progress
	`
	stats := &CompletionStats{}
	err := r.db.Pool().QueryRow(ctx, query).Scan(
		&stats.TotalModules,
		&stats.CompletedModules,
		&stats.AverageCompleted,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
