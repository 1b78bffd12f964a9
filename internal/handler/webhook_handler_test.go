package handler

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"

	"github.com/Moe-hub814/Academy/internal/domain"
	"github.com/Moe-hub814/Academy/internal/gateway"
	"github.com/Moe-hub814/Academy/internal/repository"
	"github.com/Moe-hub814/Academy/internal/service"
)

const testWebhookSecret = "whsec_test"

type webhookTestEnv struct {
	router      *gin.Engine
	studentRepo *repository.MemoryStudentRepository
	paymentRepo *repository.MemoryPaymentRepository
	enrollments *repository.MemoryEnrollmentRepository
	gateway     *gateway.MockGateway
}

func newWebhookTestEnv(t *testing.T) *webhookTestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	studentRepo := repository.NewMemoryStudentRepository()
	paymentRepo := repository.NewMemoryPaymentRepository()
	enrollmentRepo := repository.NewMemoryEnrollmentRepository()
	gw := gateway.NewMockGateway()

	billingService := service.NewBillingService(studentRepo, paymentRepo, enrollmentRepo, gw, &service.BillingServiceConfig{
		SelfPacedPriceIDs: []string{"price_self_paced"},
	})

	h := NewWebhookHandler(billingService, testWebhookSecret)

	router := gin.New()
	router.POST("/api/v1/webhooks/billing", h.HandleBillingWebhook)

	return &webhookTestEnv{
		router:      router,
		studentRepo: studentRepo,
		paymentRepo: paymentRepo,
		enrollments: enrollmentRepo,
		gateway:     gw,
	}
}

func (e *webhookTestEnv) seedStudent(t *testing.T, status domain.SubscriptionStatus) *domain.Student {
	t.Helper()

	now := time.Now().UTC()
	student := &domain.Student{
		ID:                 "student-1",
		Email:              "alice@example.com",
		Name:               "Alice",
		Tier:               domain.TierMentorship,
		SubscriptionStatus: status,
		BillingCustomerID:  "cus_123",
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := e.studentRepo.Create(context.Background(), student); err != nil {
		t.Fatalf("failed to seed student: %v", err)
	}
	return student
}

// signPayload computes a Stripe-Signature header the way the processor
// does: HMAC-SHA256 over "{timestamp}.{payload}"
func signPayload(payload []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", at.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func eventPayload(t *testing.T, eventType string, object map[string]interface{}) []byte {
	t.Helper()

	raw, err := json.Marshal(map[string]interface{}{
		"id":          "evt_test",
		"type":        eventType,
		"api_version": stripe.APIVersion,
		"data":        map[string]interface{}{"object": object},
	})
	if err != nil {
		t.Fatalf("failed to marshal event: %v", err)
	}
	return raw
}

func (e *webhookTestEnv) deliver(payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/billing", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestWebhookHandler_SignatureVerification(t *testing.T) {
	payload := eventPayload(t, "invoice.payment_failed", map[string]interface{}{
		"id":         "in_1",
		"customer":   map[string]interface{}{"id": "cus_123"},
		"amount_due": 4999,
	})

	t.Run("missing header is 400", func(t *testing.T) {
		env := newWebhookTestEnv(t)
		if w := env.deliver(payload, ""); w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})

	t.Run("wrong secret is 400", func(t *testing.T) {
		env := newWebhookTestEnv(t)
		sig := signPayload(payload, "whsec_other", time.Now())
		if w := env.deliver(payload, sig); w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})

	t.Run("tampered payload is 400", func(t *testing.T) {
		env := newWebhookTestEnv(t)
		sig := signPayload(payload, testWebhookSecret, time.Now())
		tampered := bytes.Replace(payload, []byte("4999"), []byte("1"), 1)
		if w := env.deliver(tampered, sig); w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})

	t.Run("stale timestamp is 400", func(t *testing.T) {
		env := newWebhookTestEnv(t)
		sig := signPayload(payload, testWebhookSecret, time.Now().Add(-time.Hour))
		if w := env.deliver(payload, sig); w.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", w.Code)
		}
	})
}

func TestWebhookHandler_InvoicePaymentFailed(t *testing.T) {
	env := newWebhookTestEnv(t)
	env.seedStudent(t, domain.SubscriptionActive)
	ctx := context.Background()

	payload := eventPayload(t, "invoice.payment_failed", map[string]interface{}{
		"id":         "in_1",
		"customer":   map[string]interface{}{"id": "cus_123"},
		"amount_due": 4999,
	})
	sig := signPayload(payload, testWebhookSecret, time.Now())

	if w := env.deliver(payload, sig); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	stored, _ := env.studentRepo.GetByID(ctx, "student-1")
	if stored.SubscriptionStatus != domain.SubscriptionPastDue {
		t.Errorf("expected past_due, got %q", stored.SubscriptionStatus)
	}

	payments, _ := env.paymentRepo.ListByStudent(ctx, "student-1")
	if len(payments) != 1 {
		t.Fatalf("expected 1 payment, got %d", len(payments))
	}
	if payments[0].Amount != 49.99 {
		t.Errorf("expected 49.99, got %v", payments[0].Amount)
	}

	// Redelivery of the same event is acknowledged without a second row
	if w := env.deliver(payload, signPayload(payload, testWebhookSecret, time.Now())); w.Code != http.StatusOK {
		t.Fatalf("redelivery must be 200, got %d", w.Code)
	}
	payments, _ = env.paymentRepo.ListByStudent(ctx, "student-1")
	if len(payments) != 1 {
		t.Errorf("expected 1 payment after redelivery, got %d", len(payments))
	}
}

func TestWebhookHandler_CheckoutCompleted(t *testing.T) {
	env := newWebhookTestEnv(t)
	env.gateway.SetSessionPrice("cs_1", "price_self_paced")

	payload := eventPayload(t, "checkout.session.completed", map[string]interface{}{
		"id":           "cs_1",
		"customer":     map[string]interface{}{"id": "cus_new"},
		"subscription": map[string]interface{}{"id": "sub_new"},
		"customer_details": map[string]interface{}{
			"email": "new@example.com",
			"name":  "New Student",
		},
	})
	sig := signPayload(payload, testWebhookSecret, time.Now())

	if w := env.deliver(payload, sig); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	staged, _ := env.enrollments.GetByEmail(context.Background(), "new@example.com")
	if staged == nil {
		t.Fatal("expected staged enrollment")
	}
	if staged.Tier != domain.TierSelfPaced {
		t.Errorf("expected self-paced, got %q", staged.Tier)
	}
}

func TestWebhookHandler_SubscriptionDeleted(t *testing.T) {
	env := newWebhookTestEnv(t)
	env.seedStudent(t, domain.SubscriptionActive)

	payload := eventPayload(t, "customer.subscription.deleted", map[string]interface{}{
		"id":       "sub_1",
		"customer": map[string]interface{}{"id": "cus_123"},
		"status":   "canceled",
	})
	sig := signPayload(payload, testWebhookSecret, time.Now())

	if w := env.deliver(payload, sig); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	stored, _ := env.studentRepo.GetByID(context.Background(), "student-1")
	if stored.SubscriptionStatus != domain.SubscriptionCanceled {
		t.Errorf("expected canceled, got %q", stored.SubscriptionStatus)
	}
}

func TestWebhookHandler_UnhandledEventType(t *testing.T) {
	env := newWebhookTestEnv(t)

	payload := eventPayload(t, "customer.created", map[string]interface{}{"id": "cus_1"})
	sig := signPayload(payload, testWebhookSecret, time.Now())

	if w := env.deliver(payload, sig); w.Code != http.StatusOK {
		t.Errorf("unhandled types must be acknowledged, got %d", w.Code)
	}
}
