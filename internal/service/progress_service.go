package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Moe-hub814/Academy/internal/domain"
	"github.com/Moe-hub814/Academy/internal/metrics"
	"github.com/Moe-hub814/Academy/internal/repository"
	"github.com/Moe-hub814/Academy/pkg/telemetry"
)

var (
	ErrModuleOutOfRange = errors.New("module number out of range")
	ErrProgressNotFound = errors.New("progress not found")
)

// UpdateProgressRequest carries a partial progress update. Nil fields
// are left untouched; TimeSpentMinutes is an increment, not an
// overwrite.
type UpdateProgressRequest struct {
	Completed        *bool
	TimeSpentMinutes *int
}

// ProgressService tracks per-module course progress
type ProgressService struct {
	progressRepo repository.ProgressRepository
	moduleCount  int
}

// NewProgressService creates a new ProgressService
func NewProgressService(progressRepo repository.ProgressRepository, moduleCount int) *ProgressService {
	if moduleCount <= 0 {
		moduleCount = 8
	}
	return &ProgressService{
		progressRepo: progressRepo,
		moduleCount:  moduleCount,
	}
}

// GetSummary returns a student's full progress set with completion
// totals
func (s *ProgressService) GetSummary(ctx context.Context, studentID string) (*domain.ProgressSummary, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.progress.get_summary")
	defer span.End()

	modules, err := s.progressRepo.GetByStudent(ctx, studentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return domain.Summarize(modules, s.moduleCount), nil
}

// Update applies a partial update to one module's progress. Marking a
// module complete stamps the completion time; unmarking clears it.
func (s *ProgressService) Update(ctx context.Context, studentID string, moduleNumber int, req *UpdateProgressRequest) (*domain.Progress, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.progress.update")
	defer span.End()

	span.SetAttributes(
		attribute.String("student_id", studentID),
		attribute.Int("module_number", moduleNumber),
	)

	if moduleNumber < 1 || moduleNumber > s.moduleCount {
		span.SetStatus(codes.Error, "module out of range")
		return nil, ErrModuleOutOfRange
	}

	progress, err := s.progressRepo.Get(ctx, studentID, moduleNumber)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if progress == nil {
		span.SetStatus(codes.Error, "progress not found")
		return nil, ErrProgressNotFound
	}

	now := time.Now().UTC()
	if req.Completed != nil && *req.Completed != progress.Completed {
		progress.Completed = *req.Completed
		if progress.Completed {
			progress.CompletedAt = &now
		} else {
			progress.CompletedAt = nil
		}
	}
	if req.TimeSpentMinutes != nil && *req.TimeSpentMinutes > 0 {
		progress.TimeSpentMinutes += *req.TimeSpentMinutes
	}
	progress.UpdatedAt = now

	if err := s.progressRepo.Update(ctx, progress); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	metrics.RecordProgressUpdate(ctx, req.Completed != nil && *req.Completed)
	return progress, nil
}
