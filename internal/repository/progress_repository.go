package repository

import (
	"context"

	"github.com/Moe-hub814/Academy/internal/domain"
)

// CompletionStats aggregates progress across all students for the
// admin dashboard.
type CompletionStats struct {
	TotalModules     int     `json:"total_modules"`
	CompletedModules int     `json:"completed_modules"`
	AverageCompleted float64 `json:"average_completed"`
}

// ProgressRepository defines the interface for progress data access
type ProgressRepository interface {
	CreateBatch(ctx context.Context, modules []*domain.Progress) error
	GetByStudent(ctx context.Context, studentID string) ([]*domain.Progress, error)
	Get(ctx context.Context, studentID string, moduleNumber int) (*domain.Progress, error)
	Update(ctx context.Context, progress *domain.Progress) error
	DeleteByStudent(ctx context.Context, studentID string) error
	CompletionStats(ctx context.Context) (*CompletionStats, error)
}
