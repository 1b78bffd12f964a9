package repository

import (
	"context"
	"time"

	"github.com/Moe-hub814/Academy/internal/domain"
)

// StudentFilter narrows a student listing. Zero values mean "no filter".
type StudentFilter struct {
	Search string
	Tier   domain.Tier
	Status domain.SubscriptionStatus
	Page   int
	Limit  int
}

// StudentStats holds the aggregate numbers for the admin dashboard
type StudentStats struct {
	Total         int `json:"total"`
	Active        int `json:"active"`
	PastDue       int `json:"past_due"`
	SelfPaced     int `json:"self_paced"`
	Mentorship    int `json:"mentorship"`
	RecentSignups int `json:"recent_signups"`
}

// StudentRepository defines data access for student records. Lookups
// return (nil, nil) when no record matches.
type StudentRepository interface {
	Create(ctx context.Context, student *domain.Student) error
	GetByID(ctx context.Context, id string) (*domain.Student, error)
	GetByEmail(ctx context.Context, email string) (*domain.Student, error)
	GetByBillingCustomerID(ctx context.Context, customerID string) (*domain.Student, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, student *domain.Student) error
	// UpdateStatus overwrites the subscription status field only.
	// Last write wins; no transition check happens at this layer.
	UpdateStatus(ctx context.Context, id string, status domain.SubscriptionStatus) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	// List returns a page of students plus the unpaged total count
	List(ctx context.Context, filter StudentFilter) ([]*domain.Student, int, error)
	Stats(ctx context.Context, recentSince time.Time) (*StudentStats, error)
}
