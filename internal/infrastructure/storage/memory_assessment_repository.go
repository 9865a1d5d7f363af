package storage

import (
	"context"
	"errors"
	"sync"

	"damage-vision/internal/domain/entity"
	"damage-vision/internal/domain/port"
)

// ErrAssessmentNotFound результат анализа с таким ID не сохранён.
var ErrAssessmentNotFound = errors.New("assessment not found")

// MemoryAssessmentRepository in-memory хранилище результатов анализа
type MemoryAssessmentRepository struct {
	mu          sync.RWMutex
	assessments map[string]*entity.Assessment
}

// NewMemoryAssessmentRepository создаёт новое in-memory хранилище
func NewMemoryAssessmentRepository() *MemoryAssessmentRepository {
	return &MemoryAssessmentRepository{
		assessments: make(map[string]*entity.Assessment),
	}
}

// Save сохраняет результат анализа
func (r *MemoryAssessmentRepository) Save(ctx context.Context, a *entity.Assessment) error {
	if a == nil || a.ID == "" {
		return errors.New("assessment must have an ID")
	}

	r.mu.Lock()
	r.assessments[a.ID] = a
	r.mu.Unlock()

	return nil
}

// Get возвращает результат по ID
func (r *MemoryAssessmentRepository) Get(ctx context.Context, id string) (*entity.Assessment, error) {
	r.mu.RLock()
	a, exists := r.assessments[id]
	r.mu.RUnlock()

	if !exists {
		return nil, ErrAssessmentNotFound
	}
	return a, nil
}

// Проверка реализации интерфейса
var _ port.AssessmentRepository = (*MemoryAssessmentRepository)(nil)
