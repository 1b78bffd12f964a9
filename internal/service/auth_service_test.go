package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Moe-hub814/Academy/internal/domain"
	"github.com/Moe-hub814/Academy/internal/repository"
)

const testAdminPassword = "admin-password"

func newTestAuthService(t *testing.T) (*AuthService, *repository.MemoryStudentRepository, *repository.MemoryProgressRepository, *repository.MemoryEnrollmentRepository) {
	t.Helper()

	studentRepo := repository.NewMemoryStudentRepository()
	progressRepo := repository.NewMemoryProgressRepository()
	enrollmentRepo := repository.NewMemoryEnrollmentRepository()
	tokens := newTestTokenService()

	adminHash, err := bcrypt.GenerateFromPassword([]byte(testAdminPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash admin password: %v", err)
	}

	svc := NewAuthService(studentRepo, progressRepo, enrollmentRepo, tokens, &AuthServiceConfig{
		AdminEmail:        "admin@example.com",
		AdminPasswordHash: string(adminHash),
		BcryptCost:        bcrypt.MinCost,
		ModuleCount:       8,
	})
	return svc, studentRepo, progressRepo, enrollmentRepo
}

func seedStudent(t *testing.T, repo *repository.MemoryStudentRepository, status domain.SubscriptionStatus) *domain.Student {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	now := time.Now().UTC()
	student := &domain.Student{
		ID:                 "student-1",
		Email:              "alice@example.com",
		PasswordHash:       string(hash),
		Name:               "Alice",
		Tier:               domain.TierMentorship,
		SubscriptionStatus: status,
		BillingCustomerID:  "cus_123",
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := repo.Create(context.Background(), student); err != nil {
		t.Fatalf("failed to seed student: %v", err)
	}
	return student
}

func TestAuthService_AuthenticateStudent(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		svc, studentRepo, _, _ := newTestAuthService(t)
		seedStudent(t, studentRepo, domain.SubscriptionActive)

		student, token, err := svc.AuthenticateStudent(ctx, "alice@example.com", "password123")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if student.ID != "student-1" {
			t.Errorf("expected student-1, got %q", student.ID)
		}
		if _, err := svc.tokens.VerifyStudentToken(token); err != nil {
			t.Errorf("issued token does not verify: %v", err)
		}

		stored, _ := studentRepo.GetByID(ctx, "student-1")
		if stored.LastLoginAt == nil {
			t.Error("expected last login to be recorded")
		}
	})

	t.Run("email is case-insensitive", func(t *testing.T) {
		svc, studentRepo, _, _ := newTestAuthService(t)
		seedStudent(t, studentRepo, domain.SubscriptionActive)

		if _, _, err := svc.AuthenticateStudent(ctx, "ALICE@Example.COM", "password123"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, studentRepo, _, _ := newTestAuthService(t)
		seedStudent(t, studentRepo, domain.SubscriptionActive)

		_, _, err := svc.AuthenticateStudent(ctx, "alice@example.com", "wrong")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		svc, _, _, _ := newTestAuthService(t)

		_, _, err := svc.AuthenticateStudent(ctx, "nobody@example.com", "password123")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("pending subscription passes", func(t *testing.T) {
		svc, studentRepo, _, _ := newTestAuthService(t)
		seedStudent(t, studentRepo, domain.SubscriptionPending)

		if _, _, err := svc.AuthenticateStudent(ctx, "alice@example.com", "password123"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("canceled subscription denied", func(t *testing.T) {
		svc, studentRepo, _, _ := newTestAuthService(t)
		seedStudent(t, studentRepo, domain.SubscriptionCanceled)

		_, _, err := svc.AuthenticateStudent(ctx, "alice@example.com", "password123")
		if !errors.Is(err, ErrSubscriptionCanceled) {
			t.Errorf("expected ErrSubscriptionCanceled, got %v", err)
		}
	})

	t.Run("past due denied without status change", func(t *testing.T) {
		svc, studentRepo, _, _ := newTestAuthService(t)
		seedStudent(t, studentRepo, domain.SubscriptionPastDue)

		_, _, err := svc.AuthenticateStudent(ctx, "alice@example.com", "password123")
		var pastDue *PastDueError
		if !errors.As(err, &pastDue) {
			t.Fatalf("expected PastDueError, got %v", err)
		}
		if pastDue.BillingCustomerID != "cus_123" {
			t.Errorf("expected customer cus_123, got %q", pastDue.BillingCustomerID)
		}

		stored, _ := studentRepo.GetByID(ctx, "student-1")
		if stored.SubscriptionStatus != domain.SubscriptionPastDue {
			t.Errorf("login must not change status, got %q", stored.SubscriptionStatus)
		}
	})
}

func TestAuthService_AuthenticateAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		svc, _, _, _ := newTestAuthService(t)

		token, err := svc.AuthenticateAdmin(ctx, "admin@example.com", testAdminPassword)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		principal, err := svc.tokens.VerifyAdminToken(token)
		if err != nil {
			t.Fatalf("issued token does not verify: %v", err)
		}
		if principal.Role != "admin" {
			t.Errorf("expected role admin, got %q", principal.Role)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, _, _, _ := newTestAuthService(t)

		if _, err := svc.AuthenticateAdmin(ctx, "admin@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("wrong email", func(t *testing.T) {
		svc, _, _, _ := newTestAuthService(t)

		if _, err := svc.AuthenticateAdmin(ctx, "other@example.com", testAdminPassword); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})

	t.Run("unconfigured admin fails closed", func(t *testing.T) {
		svc := NewAuthService(
			repository.NewMemoryStudentRepository(),
			repository.NewMemoryProgressRepository(),
			repository.NewMemoryEnrollmentRepository(),
			newTestTokenService(),
			&AuthServiceConfig{BcryptCost: bcrypt.MinCost},
		)

		if _, err := svc.AuthenticateAdmin(ctx, "", ""); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("expected ErrInvalidCredentials, got %v", err)
		}
	})
}

func TestAuthService_CreateStudent(t *testing.T) {
	ctx := context.Background()

	t.Run("creates account with full progress set", func(t *testing.T) {
		svc, _, progressRepo, _ := newTestAuthService(t)

		student, _, err := svc.CreateStudent(ctx, &CreateStudentRequest{
			Email:    "Bob@Example.com",
			Name:     "Bob",
			Password: "secret-password",
			Tier:     domain.TierSelfPaced,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if student.Email != "bob@example.com" {
			t.Errorf("expected normalized email, got %q", student.Email)
		}
		if student.SubscriptionStatus != domain.SubscriptionActive {
			t.Errorf("expected active status, got %q", student.SubscriptionStatus)
		}

		modules, err := progressRepo.GetByStudent(ctx, student.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(modules) != 8 {
			t.Fatalf("expected 8 progress rows, got %d", len(modules))
		}
		for i, m := range modules {
			if m.ModuleNumber != i+1 {
				t.Errorf("expected module %d at position %d, got %d", i+1, i, m.ModuleNumber)
			}
			if m.Completed {
				t.Errorf("module %d should start incomplete", m.ModuleNumber)
			}
		}
	})

	t.Run("generates password when none supplied", func(t *testing.T) {
		svc, studentRepo, _, _ := newTestAuthService(t)

		student, generated, err := svc.CreateStudent(ctx, &CreateStudentRequest{
			Email: "carol@example.com",
			Name:  "Carol",
			Tier:  domain.TierMentorship,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(generated) != passwordLength {
			t.Fatalf("expected %d-char generated password, got %d", passwordLength, len(generated))
		}

		stored, _ := studentRepo.GetByID(ctx, student.ID)
		if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(generated)); err != nil {
			t.Errorf("generated password does not match stored hash: %v", err)
		}
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		svc, studentRepo, _, _ := newTestAuthService(t)
		seedStudent(t, studentRepo, domain.SubscriptionActive)

		_, _, err := svc.CreateStudent(ctx, &CreateStudentRequest{
			Email: "ALICE@example.com",
			Name:  "Alice Again",
		})
		if !errors.Is(err, ErrStudentAlreadyExists) {
			t.Errorf("expected ErrStudentAlreadyExists, got %v", err)
		}
	})

	t.Run("adopts staged enrollment", func(t *testing.T) {
		svc, _, _, enrollmentRepo := newTestAuthService(t)

		staged := &domain.PendingEnrollment{
			Email:                 "dave@example.com",
			Name:                  "Dave",
			Tier:                  domain.TierSelfPaced,
			BillingCustomerID:     "cus_staged",
			BillingSubscriptionID: "sub_staged",
			CreatedAt:             time.Now().UTC(),
		}
		if err := enrollmentRepo.Upsert(ctx, staged); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		student, _, err := svc.CreateStudent(ctx, &CreateStudentRequest{
			Email:    "dave@example.com",
			Password: "secret-password",
			Tier:     domain.TierMentorship, // staged tier wins
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if student.Tier != domain.TierSelfPaced {
			t.Errorf("expected staged tier self-paced, got %q", student.Tier)
		}
		if student.BillingCustomerID != "cus_staged" {
			t.Errorf("expected staged customer ID, got %q", student.BillingCustomerID)
		}
		if student.BillingSubscriptionID != "sub_staged" {
			t.Errorf("expected staged subscription ID, got %q", student.BillingSubscriptionID)
		}
		if student.Name != "Dave" {
			t.Errorf("expected staged name, got %q", student.Name)
		}

		remaining, _ := enrollmentRepo.GetByEmail(ctx, "dave@example.com")
		if remaining != nil {
			t.Error("expected staged enrollment to be consumed")
		}
	})
}
