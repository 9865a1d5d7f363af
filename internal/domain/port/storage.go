package port

import (
	"context"

	"damage-vision/internal/domain/entity"
)

// CostQuery параметры поиска стоимости ремонта
type CostQuery struct {
	Make       string
	Model      string
	Year       int
	Variant    string
	DamageType string
}

// CostRepository интерфейс базы стоимостей ремонта
type CostRepository interface {
	// Lookup возвращает оценку стоимости или nil, если совпадения нет
	Lookup(ctx context.Context, q CostQuery) (*entity.RepairEstimate, error)
}

// AssessmentRepository интерфейс хранилища результатов анализа
type AssessmentRepository interface {
	// Save сохраняет результат анализа
	Save(ctx context.Context, a *entity.Assessment) error

	// Get возвращает результат по ID
	Get(ctx context.Context, id string) (*entity.Assessment, error)
}

// ArchiveStore интерфейс внешнего архива файлов (загрузки, отчёты)
type ArchiveStore interface {
	// Put сохраняет объект в архив
	Put(ctx context.Context, key string, data []byte, contentType string) error
}
