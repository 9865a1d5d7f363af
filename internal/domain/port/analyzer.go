package port

import (
	"context"

	"damage-vision/internal/domain/entity"
)

// DamageAnalyzer интерфейс провайдера анализа повреждений
type DamageAnalyzer interface {
	// Name возвращает имя провайдера
	Name() string

	// DetectDamages находит повреждения с координатами рамок
	DetectDamages(ctx context.Context, imageData []byte, mimeType string) ([]entity.Damage, error)

	// DescribeDamages генерирует текстовый отчёт о повреждениях
	DescribeDamages(ctx context.Context, imageData []byte, mimeType string) (string, error)
}
