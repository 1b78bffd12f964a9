package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// PaymentStatus represents the status of a recorded payment
type PaymentStatus string

const (
	PaymentStatusSucceeded PaymentStatus = "succeeded"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

var (
	ErrPaymentAlreadyExists = errors.New("payment already exists")
)

// Payment is an append-only log entry for a billing event. Amounts are
// stored in major currency units; the processor transmits minor units
// and the conversion happens at the ingestion boundary.
type Payment struct {
	ID                string        `json:"id"`
	StudentID         string        `json:"student_id"`
	ExternalPaymentID string        `json:"external_payment_id"`
	Amount            float64       `json:"amount"`
	Status            PaymentStatus `json:"status"`
	Description       string        `json:"description"`
	CreatedAt         time.Time     `json:"created_at"`
}

// NewPayment creates a payment log entry
func NewPayment(studentID, externalPaymentID string, amount float64, status PaymentStatus, description string) (*Payment, error) {
	if studentID == "" {
		return nil, errors.New("student_id is required")
	}
	if externalPaymentID == "" {
		return nil, errors.New("external_payment_id is required")
	}
	if amount < 0 {
		return nil, errors.New("amount must not be negative")
	}

	return &Payment{
		ID:                uuid.New().String(),
		StudentID:         studentID,
		ExternalPaymentID: externalPaymentID,
		Amount:            amount,
		Status:            status,
		Description:       description,
		CreatedAt:         time.Now().UTC(),
	}, nil
}
