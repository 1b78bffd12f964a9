package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Moe-hub814/Academy/internal/domain"
)

func newTestTokenService() *TokenService {
	return NewTokenService(&TokenServiceConfig{
		JWTSecret:       "test-secret",
		StudentTokenTTL: 7 * 24 * time.Hour,
		AdminTokenTTL:   24 * time.Hour,
	})
}

func testStudent() *domain.Student {
	return &domain.Student{
		ID:                 "student-1",
		Email:              "alice@example.com",
		Name:               "Alice",
		Tier:               domain.TierMentorship,
		SubscriptionStatus: domain.SubscriptionActive,
	}
}

func TestTokenService_StudentRoundTrip(t *testing.T) {
	svc := newTestTokenService()
	student := testStudent()

	token, err := svc.IssueStudentToken(student)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	principal, err := svc.VerifyStudentToken(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if principal.ID != student.ID {
		t.Errorf("expected ID %q, got %q", student.ID, principal.ID)
	}
	if principal.Email != student.Email {
		t.Errorf("expected email %q, got %q", student.Email, principal.Email)
	}
	if principal.Name != student.Name {
		t.Errorf("expected name %q, got %q", student.Name, principal.Name)
	}
	if principal.Tier != student.Tier {
		t.Errorf("expected tier %q, got %q", student.Tier, principal.Tier)
	}
}

func TestTokenService_AdminRoundTrip(t *testing.T) {
	svc := newTestTokenService()

	token, err := svc.IssueAdminToken(&domain.AdminPrincipal{Role: "admin"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	principal, err := svc.VerifyAdminToken(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if principal.Role != "admin" {
		t.Errorf("expected role admin, got %q", principal.Role)
	}
}

func TestTokenService_KindIsolation(t *testing.T) {
	svc := newTestTokenService()

	studentToken, err := svc.IssueStudentToken(testStudent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	adminToken, err := svc.IssueAdminToken(&domain.AdminPrincipal{Role: "admin"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.VerifyAdminToken(studentToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("student token verified as admin: %v", err)
	}
	if _, err := svc.VerifyStudentToken(adminToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("admin token verified as student: %v", err)
	}
}

func TestTokenService_VerifyFailures(t *testing.T) {
	svc := newTestTokenService()
	other := NewTokenService(&TokenServiceConfig{JWTSecret: "other-secret"})

	valid, err := svc.IssueStudentToken(testStudent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	foreign, err := other.IssueStudentToken(testStudent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Flip a character in the signature segment
	tampered := valid[:len(valid)-2] + "xx"

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not-a-token"},
		{"wrong secret", foreign},
		{"tampered signature", tampered},
		{"missing segments", strings.Join(strings.Split(valid, ".")[:2], ".")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.VerifyStudentToken(tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}

func TestTokenService_Expiry(t *testing.T) {
	svc := newTestTokenService()

	issuedAt := time.Now()
	svc.now = func() time.Time { return issuedAt }

	token, err := svc.IssueStudentToken(testStudent())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Just before expiry
	svc.now = func() time.Time { return issuedAt.Add(7*24*time.Hour - time.Second) }
	if _, err := svc.VerifyStudentToken(token); err != nil {
		t.Errorf("token rejected before expiry: %v", err)
	}

	// Just after expiry
	svc.now = func() time.Time { return issuedAt.Add(7*24*time.Hour + time.Second) }
	if _, err := svc.VerifyStudentToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken after expiry, got %v", err)
	}
}
