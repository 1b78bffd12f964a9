package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/Moe-hub814/Academy/internal/domain"
	"github.com/Moe-hub814/Academy/internal/gateway"
	"github.com/Moe-hub814/Academy/internal/repository"
	"github.com/Moe-hub814/Academy/pkg/logger"
	"github.com/Moe-hub814/Academy/pkg/telemetry"
)

// recentSignupWindow bounds the "recent signups" stat
const recentSignupWindow = 30 * 24 * time.Hour

// StudentDetail is the admin view of one student: the account plus
// progress and payment history
type StudentDetail struct {
	Student  *domain.Student         `json:"student"`
	Progress *domain.ProgressSummary `json:"progress"`
	Payments []*domain.Payment       `json:"payments"`
	// BillingHistory is the processor's invoice list, fetched live.
	// Empty when the student has no billing customer or the processor
	// call fails; the local payment log above is the durable record.
	BillingHistory []*gateway.Invoice `json:"billing_history"`
}

// PlatformStats is the admin dashboard aggregate
type PlatformStats struct {
	Students   *repository.StudentStats    `json:"students"`
	Completion *repository.CompletionStats `json:"completion"`
}

// UpdateStudentRequest carries the admin-editable student fields. Nil
// fields are left untouched.
type UpdateStudentRequest struct {
	Name               *string
	Tier               *domain.Tier
	SubscriptionStatus *domain.SubscriptionStatus
}

// StudentService covers the admin-facing student operations
type StudentService struct {
	studentRepo  repository.StudentRepository
	progressRepo repository.ProgressRepository
	paymentRepo  repository.PaymentRepository
	gateway      gateway.BillingGateway
	moduleCount  int
}

// NewStudentService creates a new StudentService
func NewStudentService(
	studentRepo repository.StudentRepository,
	progressRepo repository.ProgressRepository,
	paymentRepo repository.PaymentRepository,
	gw gateway.BillingGateway,
	moduleCount int,
) *StudentService {
	if moduleCount <= 0 {
		moduleCount = 8
	}
	return &StudentService{
		studentRepo:  studentRepo,
		progressRepo: progressRepo,
		paymentRepo:  paymentRepo,
		gateway:      gw,
		moduleCount:  moduleCount,
	}
}

// List returns a page of students plus the total match count
func (s *StudentService) List(ctx context.Context, filter repository.StudentFilter) ([]*domain.Student, int, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.student.list")
	defer span.End()

	students, total, err := s.studentRepo.List(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, 0, err
	}

	span.SetAttributes(attribute.Int("total", total))
	span.SetStatus(codes.Ok, "")
	return students, total, nil
}

// GetDetail returns one student with progress and payment history
func (s *StudentService) GetDetail(ctx context.Context, id string) (*StudentDetail, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.student.get_detail")
	defer span.End()

	span.SetAttributes(attribute.String("student_id", id))

	student, err := s.studentRepo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if student == nil {
		span.SetStatus(codes.Error, "student not found")
		return nil, ErrStudentNotFound
	}

	modules, err := s.progressRepo.GetByStudent(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	payments, err := s.paymentRepo.ListByStudent(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var history []*gateway.Invoice
	if s.gateway != nil && student.BillingCustomerID != "" {
		history, err = s.gateway.ListInvoices(ctx, student.BillingCustomerID)
		if err != nil {
			// The detail view still renders from the local log
			logger.Get().Warn("failed to list processor invoices",
				zap.String("student_id", id),
				zap.String("customer_id", student.BillingCustomerID),
				zap.Error(err))
			span.RecordError(err)
			history = nil
		}
	}

	span.SetStatus(codes.Ok, "")
	return &StudentDetail{
		Student:        student,
		Progress:       domain.Summarize(modules, s.moduleCount),
		Payments:       payments,
		BillingHistory: history,
	}, nil
}

// Update applies admin edits to a student. A status override is
// unconditional: any status may be set over any other, including
// reactivating a canceled account.
func (s *StudentService) Update(ctx context.Context, id string, req *UpdateStudentRequest) (*domain.Student, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.student.update")
	defer span.End()

	span.SetAttributes(attribute.String("student_id", id))

	student, err := s.studentRepo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if student == nil {
		span.SetStatus(codes.Error, "student not found")
		return nil, ErrStudentNotFound
	}

	if req.Name != nil && *req.Name != "" {
		student.Name = *req.Name
	}
	if req.Tier != nil && req.Tier.Valid() {
		student.Tier = *req.Tier
	}
	if req.SubscriptionStatus != nil && req.SubscriptionStatus.Valid() {
		student.SubscriptionStatus = *req.SubscriptionStatus
	}

	if err := s.studentRepo.Update(ctx, student); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return student, nil
}

// Revoke cancels a student's access. The account row stays; the status
// flips to canceled so the access gate rejects them. With cancelBilling
// set, a live processor subscription is canceled too, best-effort.
func (s *StudentService) Revoke(ctx context.Context, id string, cancelBilling bool) error {
	ctx, span := telemetry.StartSpan(ctx, "service.student.revoke")
	defer span.End()

	span.SetAttributes(attribute.String("student_id", id))

	student, err := s.studentRepo.GetByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if student == nil {
		span.SetStatus(codes.Error, "student not found")
		return ErrStudentNotFound
	}

	if err := s.studentRepo.UpdateStatus(ctx, id, domain.SubscriptionCanceled); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if cancelBilling && s.gateway != nil && student.BillingSubscriptionID != "" {
		if err := s.gateway.CancelSubscription(ctx, student.BillingSubscriptionID); err != nil {
			// Access is already revoked locally; the processor
			// cancellation can be retried by hand
			logger.Get().Error("failed to cancel processor subscription",
				zap.String("student_id", id),
				zap.String("subscription_id", student.BillingSubscriptionID),
				zap.Error(err))
			span.RecordError(err)
		}
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// Stats computes the admin dashboard aggregates
func (s *StudentService) Stats(ctx context.Context) (*PlatformStats, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.student.stats")
	defer span.End()

	studentStats, err := s.studentRepo.Stats(ctx, time.Now().UTC().Add(-recentSignupWindow))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	completion, err := s.progressRepo.CompletionStats(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetStatus(codes.Ok, "")
	return &PlatformStats{
		Students:   studentStats,
		Completion: completion,
	}, nil
}
