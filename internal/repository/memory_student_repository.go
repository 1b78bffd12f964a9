package repository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Moe-hub814/Academy/internal/domain"
)

// MemoryStudentRepository implements StudentRepository using in-memory
// storage. Used in tests and for degraded startup without a database.
type MemoryStudentRepository struct {
	students map[string]*domain.Student
	mu       sync.RWMutex
}

// NewMemoryStudentRepository creates a new in-memory student repository
func NewMemoryStudentRepository() *MemoryStudentRepository {
	return &MemoryStudentRepository{
		students: make(map[string]*domain.Student),
	}
}

// Create creates a new student record
func (r *MemoryStudentRepository) Create(ctx context.Context, student *domain.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	email := domain.NormalizeEmail(student.Email)
	for _, existing := range r.students {
		if domain.NormalizeEmail(existing.Email) == email {
			return errors.New("student already exists")
		}
	}

	s := *student
	s.Email = email
	r.students[student.ID] = &s
	return nil
}

// GetByID retrieves a student by ID
func (r *MemoryStudentRepository) GetByID(ctx context.Context, id string) (*domain.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	student, ok := r.students[id]
	if !ok {
		return nil, nil
	}
	s := *student
	return &s, nil
}

// GetByEmail retrieves a student by email, case-insensitively
func (r *MemoryStudentRepository) GetByEmail(ctx context.Context, email string) (*domain.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	normalized := domain.NormalizeEmail(email)
	for _, student := range r.students {
		if domain.NormalizeEmail(student.Email) == normalized {
			s := *student
			return &s, nil
		}
	}
	return nil, nil
}

// GetByBillingCustomerID retrieves a student by billing customer reference
func (r *MemoryStudentRepository) GetByBillingCustomerID(ctx context.Context, customerID string) (*domain.Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if customerID == "" {
		return nil, nil
	}
	for _, student := range r.students {
		if student.BillingCustomerID == customerID {
			s := *student
			return &s, nil
		}
	}
	return nil, nil
}

// ExistsByEmail checks if a student exists with the given email
func (r *MemoryStudentRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	student, err := r.GetByEmail(ctx, email)
	return student != nil, err
}

// Update updates a student record
func (r *MemoryStudentRepository) Update(ctx context.Context, student *domain.Student) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.students[student.ID]; !ok {
		return errors.New("student not found")
	}

	s := *student
	s.Email = domain.NormalizeEmail(s.Email)
	s.UpdatedAt = time.Now().UTC()
	r.students[student.ID] = &s
	return nil
}

// UpdateStatus overwrites the subscription status field
func (r *MemoryStudentRepository) UpdateStatus(ctx context.Context, id string, status domain.SubscriptionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	student, ok := r.students[id]
	if !ok {
		return errors.New("student not found")
	}
	student.SubscriptionStatus = status
	student.UpdatedAt = time.Now().UTC()
	return nil
}

// UpdateLastLogin records a successful login
func (r *MemoryStudentRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	student, ok := r.students[id]
	if !ok {
		return errors.New("student not found")
	}
	student.LastLoginAt = &at
	return nil
}

// List returns a page of students matching the filter plus the total count
func (r *MemoryStudentRepository) List(ctx context.Context, filter StudentFilter) ([]*domain.Student, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]*domain.Student, 0, len(r.students))
	search := strings.ToLower(filter.Search)
	for _, student := range r.students {
		if search != "" &&
			!strings.Contains(strings.ToLower(student.Email), search) &&
			!strings.Contains(strings.ToLower(student.Name), search) {
			continue
		}
		if filter.Tier != "" && student.Tier != filter.Tier {
			continue
		}
		if filter.Status != "" && student.SubscriptionStatus != filter.Status {
			continue
		}
		s := *student
		matched = append(matched, &s)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := len(matched)

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 20
	}

	start := (page - 1) * limit
	if start >= total {
		return []*domain.Student{}, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// Stats computes the admin dashboard aggregates
func (r *MemoryStudentRepository) Stats(ctx context.Context, recentSince time.Time) (*StudentStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &StudentStats{}
	for _, student := range r.students {
		stats.Total++
		switch student.SubscriptionStatus {
		case domain.SubscriptionActive:
			stats.Active++
		case domain.SubscriptionPastDue:
			stats.PastDue++
		}
		if student.SubscriptionStatus != domain.SubscriptionCanceled {
			switch student.Tier {
			case domain.TierSelfPaced:
				stats.SelfPaced++
			case domain.TierMentorship:
				stats.Mentorship++
			}
		}
		if !student.CreatedAt.Before(recentSince) {
			stats.RecentSignups++
		}
	}
	return stats, nil
}
