package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/Moe-hub814/Academy/internal/domain"
	"github.com/Moe-hub814/Academy/internal/gateway"
	"github.com/Moe-hub814/Academy/internal/metrics"
	"github.com/Moe-hub814/Academy/internal/repository"
	"github.com/Moe-hub814/Academy/pkg/logger"
	"github.com/Moe-hub814/Academy/pkg/telemetry"
)

// BillingServiceConfig holds configuration for BillingService
type BillingServiceConfig struct {
	// SelfPacedPriceIDs are the processor prices that map to the
	// self-paced tier. Any other price resolves to mentorship.
	SelfPacedPriceIDs []string
}

// CheckoutCompleted carries the fields of a completed checkout event
type CheckoutCompleted struct {
	SessionID      string
	CustomerID     string
	SubscriptionID string
	Email          string
	Name           string
}

// InvoiceEvent carries the fields of an invoice payment event. Amount
// is in minor currency units as transmitted by the processor.
type InvoiceEvent struct {
	InvoiceID   string
	CustomerID  string
	AmountMinor int64
	Description string
}

// BillingService ingests billing processor webhook events and applies
// them to student subscription state. Events for unknown customers are
// acknowledged and dropped; returning an error would make the
// processor retry forever.
type BillingService struct {
	studentRepo    repository.StudentRepository
	paymentRepo    repository.PaymentRepository
	enrollmentRepo repository.EnrollmentRepository
	gateway        gateway.BillingGateway
	config         *BillingServiceConfig
}

// NewBillingService creates a new BillingService
func NewBillingService(
	studentRepo repository.StudentRepository,
	paymentRepo repository.PaymentRepository,
	enrollmentRepo repository.EnrollmentRepository,
	gw gateway.BillingGateway,
	config *BillingServiceConfig,
) *BillingService {
	if config == nil {
		config = &BillingServiceConfig{}
	}
	return &BillingService{
		studentRepo:    studentRepo,
		paymentRepo:    paymentRepo,
		enrollmentRepo: enrollmentRepo,
		gateway:        gw,
		config:         config,
	}
}

// HandleCheckoutCompleted processes a completed checkout. An existing
// student gets the billing references attached and their subscription
// reactivated; an unknown email is staged as a pending enrollment for
// the onboarding flow to promote later.
func (s *BillingService) HandleCheckoutCompleted(ctx context.Context, evt *CheckoutCompleted) error {
	ctx, span := telemetry.StartSpan(ctx, "service.billing.checkout_completed")
	defer span.End()
	log := logger.Get()

	if evt.Email == "" {
		log.Warn("checkout completed without customer email", zap.String("session_id", evt.SessionID))
		span.SetStatus(codes.Ok, "")
		return nil
	}

	tier := s.resolveTier(ctx, evt.SessionID)
	span.SetAttributes(attribute.String("tier", string(tier)))

	student, err := s.studentRepo.GetByEmail(ctx, evt.Email)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if student != nil {
		student.Tier = tier
		student.SubscriptionStatus = domain.SubscriptionActive
		student.BillingCustomerID = evt.CustomerID
		student.BillingSubscriptionID = evt.SubscriptionID
		if err := s.studentRepo.Update(ctx, student); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		log.Info("checkout attached to existing student",
			zap.String("student_id", student.ID),
			zap.String("tier", string(tier)))
		span.SetStatus(codes.Ok, "")
		return nil
	}

	enrollment := &domain.PendingEnrollment{
		Email:                 domain.NormalizeEmail(evt.Email),
		Name:                  evt.Name,
		Tier:                  tier,
		BillingCustomerID:     evt.CustomerID,
		BillingSubscriptionID: evt.SubscriptionID,
		CreatedAt:             time.Now().UTC(),
	}
	if err := s.enrollmentRepo.Upsert(ctx, enrollment); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	log.Info("checkout staged as pending enrollment",
		zap.String("email", enrollment.Email),
		zap.String("tier", string(tier)))
	span.SetStatus(codes.Ok, "")
	return nil
}

// HandleInvoicePaymentFailed suspends the student and records the
// failed payment
func (s *BillingService) HandleInvoicePaymentFailed(ctx context.Context, evt *InvoiceEvent) error {
	ctx, span := telemetry.StartSpan(ctx, "service.billing.invoice_payment_failed")
	defer span.End()

	student, err := s.lookupByCustomer(ctx, evt.CustomerID, "invoice.payment_failed")
	if err != nil || student == nil {
		return err
	}

	if err := s.studentRepo.UpdateStatus(ctx, student.ID, domain.SubscriptionPastDue); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := s.recordPayment(ctx, student.ID, evt, domain.PaymentStatusFailed); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetAttributes(attribute.String("student_id", student.ID))
	span.SetStatus(codes.Ok, "")
	return nil
}

// HandleInvoicePaymentSucceeded reactivates the student and records
// the payment
func (s *BillingService) HandleInvoicePaymentSucceeded(ctx context.Context, evt *InvoiceEvent) error {
	ctx, span := telemetry.StartSpan(ctx, "service.billing.invoice_payment_succeeded")
	defer span.End()

	student, err := s.lookupByCustomer(ctx, evt.CustomerID, "invoice.payment_succeeded")
	if err != nil || student == nil {
		return err
	}

	if err := s.studentRepo.UpdateStatus(ctx, student.ID, domain.SubscriptionActive); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := s.recordPayment(ctx, student.ID, evt, domain.PaymentStatusSucceeded); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetAttributes(attribute.String("student_id", student.ID))
	span.SetStatus(codes.Ok, "")
	return nil
}

// HandleSubscriptionDeleted cancels the student's access
func (s *BillingService) HandleSubscriptionDeleted(ctx context.Context, customerID string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.billing.subscription_deleted")
	defer span.End()

	student, err := s.lookupByCustomer(ctx, customerID, "customer.subscription.deleted")
	if err != nil || student == nil {
		return err
	}

	if err := s.studentRepo.UpdateStatus(ctx, student.ID, domain.SubscriptionCanceled); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetAttributes(attribute.String("student_id", student.ID))
	span.SetStatus(codes.Ok, "")
	return nil
}

// HandleSubscriptionUpdated maps the processor's subscription status
// onto the student's. Last write wins; the processor's view of the
// subscription is authoritative.
func (s *BillingService) HandleSubscriptionUpdated(ctx context.Context, customerID, processorStatus string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.billing.subscription_updated")
	defer span.End()

	student, err := s.lookupByCustomer(ctx, customerID, "customer.subscription.updated")
	if err != nil || student == nil {
		return err
	}
	if processorStatus == "" {
		logger.Get().Warn("subscription update without a status",
			zap.String("student_id", student.ID))
		span.SetStatus(codes.Ok, "")
		return nil
	}

	status := mapSubscriptionStatus(processorStatus)
	if err := s.studentRepo.UpdateStatus(ctx, student.ID, status); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetAttributes(
		attribute.String("student_id", student.ID),
		attribute.String("status", string(status)),
	)
	span.SetStatus(codes.Ok, "")
	return nil
}

func (s *BillingService) lookupByCustomer(ctx context.Context, customerID, eventType string) (*domain.Student, error) {
	if customerID == "" {
		logger.Get().Warn("billing event without customer reference", zap.String("event", eventType))
		return nil, nil
	}
	student, err := s.studentRepo.GetByBillingCustomerID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if student == nil {
		logger.Get().Warn("billing event for unknown customer",
			zap.String("event", eventType),
			zap.String("customer_id", customerID))
	}
	return student, nil
}

// recordPayment appends to the payment log, converting minor units to
// major. A duplicate external reference means the event was already
// ingested and is silently dropped.
func (s *BillingService) recordPayment(ctx context.Context, studentID string, evt *InvoiceEvent, status domain.PaymentStatus) error {
	payment, err := domain.NewPayment(studentID, evt.InvoiceID, float64(evt.AmountMinor)/100, status, paymentDescription(evt, status))
	if err != nil {
		return err
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		if errors.Is(err, domain.ErrPaymentAlreadyExists) {
			logger.Get().Info("duplicate payment event dropped",
				zap.String("external_payment_id", evt.InvoiceID))
			return nil
		}
		return err
	}
	metrics.RecordPaymentLogged(ctx, string(status), payment.Amount)
	return nil
}

// paymentDescription labels a log entry. Failed payments get a fixed
// label; succeeded payments keep the invoice's own description when
// the processor sent one.
func paymentDescription(evt *InvoiceEvent, status domain.PaymentStatus) string {
	if status == domain.PaymentStatusFailed {
		return "Subscription payment failed"
	}
	if evt.Description != "" {
		return evt.Description
	}
	return "Subscription payment"
}

// resolveTier asks the processor which price the checkout purchased.
// Resolution failure defaults to mentorship rather than failing the
// event.
func (s *BillingService) resolveTier(ctx context.Context, sessionID string) domain.Tier {
	if s.gateway == nil || sessionID == "" {
		return domain.TierMentorship
	}
	priceID, err := s.gateway.CheckoutPriceID(ctx, sessionID)
	if err != nil {
		logger.Get().Warn("failed to resolve checkout price",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return domain.TierMentorship
	}
	for _, id := range s.config.SelfPacedPriceIDs {
		if id != "" && id == priceID {
			return domain.TierSelfPaced
		}
	}
	return domain.TierMentorship
}

// mapSubscriptionStatus folds the processor's subscription statuses
// into the three the platform acts on. Delinquency that the processor
// has given up on (unpaid) revokes access like a cancellation; every
// status that is not a delinquency or cancellation grants access.
func mapSubscriptionStatus(processorStatus string) domain.SubscriptionStatus {
	switch processorStatus {
	case "past_due":
		return domain.SubscriptionPastDue
	case "canceled", "unpaid":
		return domain.SubscriptionCanceled
	default:
		return domain.SubscriptionActive
	}
}
