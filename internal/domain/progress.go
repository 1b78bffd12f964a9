package domain

import (
	"time"

	"github.com/google/uuid"
)

// Progress tracks a student's state for a single course module. One row
// exists per (student, module number) pair; the full 1..N range is
// created in a single batch when the account is created.
type Progress struct {
	ID               string     `json:"id"`
	StudentID        string     `json:"student_id"`
	ModuleNumber     int        `json:"module_number"`
	Completed        bool       `json:"completed"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	TimeSpentMinutes int        `json:"time_spent_minutes"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// NewProgressSet builds the complete set of progress rows for a new
// student: module numbers 1..moduleCount, nothing completed, zero time.
func NewProgressSet(studentID string, moduleCount int) []*Progress {
	now := time.Now().UTC()
	set := make([]*Progress, 0, moduleCount)
	for i := 1; i <= moduleCount; i++ {
		set = append(set, &Progress{
			ID:           uuid.New().String(),
			StudentID:    studentID,
			ModuleNumber: i,
			UpdatedAt:    now,
		})
	}
	return set
}

// ProgressSummary aggregates a student's progress across the course
type ProgressSummary struct {
	Modules   []*Progress `json:"modules"`
	Completed int         `json:"completed"`
	Total     int         `json:"total"`
	Percent   int         `json:"percent"`
}

// Summarize computes completion counts for a full progress set
func Summarize(modules []*Progress, total int) *ProgressSummary {
	completed := 0
	for _, m := range modules {
		if m.Completed {
			completed++
		}
	}
	percent := 0
	if total > 0 {
		percent = int(float64(completed)/float64(total)*100 + 0.5)
	}
	return &ProgressSummary{
		Modules:   modules,
		Completed: completed,
		Total:     total,
		Percent:   percent,
	}
}
