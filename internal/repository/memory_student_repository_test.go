package repository

import (
	"context"
	"testing"
	"time"

	"github.com/Moe-hub814/Academy/internal/domain"
)

func seedMemoryStudent(t *testing.T, repo *MemoryStudentRepository, id, email, name string, tier domain.Tier, status domain.SubscriptionStatus, createdAt time.Time) *domain.Student {
	t.Helper()
	student := &domain.Student{
		ID:                 id,
		Email:              email,
		PasswordHash:       "hash",
		Name:               name,
		Tier:               tier,
		SubscriptionStatus: status,
		CreatedAt:          createdAt,
		UpdatedAt:          createdAt,
	}
	if err := repo.Create(context.Background(), student); err != nil {
		t.Fatalf("failed to seed student %s: %v", email, err)
	}
	return student
}

func TestMemoryStudentRepository_List(t *testing.T) {
	repo := NewMemoryStudentRepository()
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	seedMemoryStudent(t, repo, "s1", "alice@example.com", "Alice", domain.TierSelfPaced, domain.SubscriptionActive, base)
	seedMemoryStudent(t, repo, "s2", "bob@example.com", "Bob", domain.TierMentorship, domain.SubscriptionActive, base.Add(time.Hour))
	seedMemoryStudent(t, repo, "s3", "carol@example.com", "Carol Smith", domain.TierMentorship, domain.SubscriptionPastDue, base.Add(2*time.Hour))

	t.Run("no filter returns all newest first", func(t *testing.T) {
		students, total, err := repo.List(ctx, StudentFilter{Page: 1, Limit: 10})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if total != 3 || len(students) != 3 {
			t.Fatalf("expected 3 students, got total=%d len=%d", total, len(students))
		}
		if students[0].ID != "s3" || students[2].ID != "s1" {
			t.Errorf("expected newest first ordering, got %s..%s", students[0].ID, students[2].ID)
		}
	})

	t.Run("search matches email and name", func(t *testing.T) {
		students, total, err := repo.List(ctx, StudentFilter{Search: "smith", Page: 1, Limit: 10})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if total != 1 || students[0].ID != "s3" {
			t.Errorf("expected only carol, got total=%d", total)
		}
	})

	t.Run("tier and status filters combine", func(t *testing.T) {
		_, total, err := repo.List(ctx, StudentFilter{
			Tier:   domain.TierMentorship,
			Status: domain.SubscriptionActive,
			Page:   1,
			Limit:  10,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if total != 1 {
			t.Errorf("expected 1 match, got %d", total)
		}
	})

	t.Run("pagination clips the page", func(t *testing.T) {
		students, total, err := repo.List(ctx, StudentFilter{Page: 2, Limit: 2})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if total != 3 {
			t.Errorf("expected total 3, got %d", total)
		}
		if len(students) != 1 || students[0].ID != "s1" {
			t.Errorf("expected last page to hold s1, got %d rows", len(students))
		}
	})

	t.Run("page past the end is empty", func(t *testing.T) {
		students, total, err := repo.List(ctx, StudentFilter{Page: 5, Limit: 10})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if total != 3 || len(students) != 0 {
			t.Errorf("expected empty page with total 3, got total=%d len=%d", total, len(students))
		}
	})
}

func TestMemoryStudentRepository_Stats(t *testing.T) {
	repo := NewMemoryStudentRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	seedMemoryStudent(t, repo, "s1", "a@example.com", "A", domain.TierSelfPaced, domain.SubscriptionActive, now.Add(-40*24*time.Hour))
	seedMemoryStudent(t, repo, "s2", "b@example.com", "B", domain.TierMentorship, domain.SubscriptionActive, now.Add(-time.Hour))
	seedMemoryStudent(t, repo, "s3", "c@example.com", "C", domain.TierMentorship, domain.SubscriptionPastDue, now.Add(-time.Hour))
	seedMemoryStudent(t, repo, "s4", "d@example.com", "D", domain.TierSelfPaced, domain.SubscriptionCanceled, now.Add(-time.Hour))

	stats, err := repo.Stats(ctx, now.Add(-30*24*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stats.Total != 4 {
		t.Errorf("expected total 4, got %d", stats.Total)
	}
	if stats.Active != 2 {
		t.Errorf("expected 2 active, got %d", stats.Active)
	}
	if stats.PastDue != 1 {
		t.Errorf("expected 1 past due, got %d", stats.PastDue)
	}
	// Canceled accounts drop out of the tier split
	if stats.SelfPaced != 1 || stats.Mentorship != 2 {
		t.Errorf("expected tier split 1/2, got %d/%d", stats.SelfPaced, stats.Mentorship)
	}
	if stats.RecentSignups != 3 {
		t.Errorf("expected 3 recent signups, got %d", stats.RecentSignups)
	}
}

func TestMemoryStudentRepository_DuplicateEmail(t *testing.T) {
	repo := NewMemoryStudentRepository()
	seedMemoryStudent(t, repo, "s1", "dup@example.com", "First", domain.TierSelfPaced, domain.SubscriptionActive, time.Now().UTC())

	err := repo.Create(context.Background(), &domain.Student{
		ID:    "s2",
		Email: "dup@example.com",
		Tier:  domain.TierSelfPaced,
	})
	if err == nil {
		t.Error("expected duplicate email to error")
	}
}
