package repository

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/Moe-hub814/Academy/internal/domain"
)

type progressKey struct {
	studentID    string
	moduleNumber int
}

// MemoryProgressRepository implements ProgressRepository using in-memory
// storage
type MemoryProgressRepository struct {
	modules map[progressKey]*domain.Progress
	mu      sync.RWMutex
}

// NewMemoryProgressRepository creates a new in-memory progress repository
func NewMemoryProgressRepository() *MemoryProgressRepository {
	return &MemoryProgressRepository{
		modules: make(map[progressKey]*domain.Progress),
	}
}

// CreateBatch inserts the full progress set for a student
func (r *MemoryProgressRepository) CreateBatch(ctx context.Context, modules []*domain.Progress) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range modules {
		key := progressKey{studentID: m.StudentID, moduleNumber: m.ModuleNumber}
		if _, exists := r.modules[key]; exists {
			continue
		}
		p := *m
		r.modules[key] = &p
	}
	return nil
}

// GetByStudent retrieves all progress rows for a student ordered by
// module number
func (r *MemoryProgressRepository) GetByStudent(ctx context.Context, studentID string) ([]*domain.Progress, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var modules []*domain.Progress
	for key, m := range r.modules {
		if key.studentID == studentID {
			p := *m
			modules = append(modules, &p)
		}
	}
	sort.Slice(modules, func(i, j int) bool {
		return modules[i].ModuleNumber < modules[j].ModuleNumber
	})
	return modules, nil
}

// Get retrieves a single progress row
func (r *MemoryProgressRepository) Get(ctx context.Context, studentID string, moduleNumber int) (*domain.Progress, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.modules[progressKey{studentID: studentID, moduleNumber: moduleNumber}]
	if !ok {
		return nil, nil
	}
	p := *m
	return &p, nil
}

// Update overwrites the mutable fields of a progress row
func (r *MemoryProgressRepository) Update(ctx context.Context, progress *domain.Progress) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := progressKey{studentID: progress.StudentID, moduleNumber: progress.ModuleNumber}
	if _, ok := r.modules[key]; !ok {
		return errors.New("progress not found")
	}
	p := *progress
	r.modules[key] = &p
	return nil
}

// DeleteByStudent removes all progress rows for a student
func (r *MemoryProgressRepository) DeleteByStudent(ctx context.Context, studentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key := range r.modules {
		if key.studentID == studentID {
			delete(r.modules, key)
		}
	}
	return nil
}

// CompletionStats aggregates module completion across all students
func (r *MemoryProgressRepository) CompletionStats(ctx context.Context) (*CompletionStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &CompletionStats{}
	perStudent := make(map[string]int)
	for key, m := range r.modules {
		stats.TotalModules++
		if _, ok := perStudent[key.studentID]; !ok {
			perStudent[key.studentID] = 0
		}
		if m.Completed {
			stats.CompletedModules++
			perStudent[key.studentID]++
		}
	}
	if len(perStudent) > 0 {
		stats.AverageCompleted = float64(stats.CompletedModules) / float64(len(perStudent))
	}
	return stats, nil
}
