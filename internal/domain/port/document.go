package port

import (
	"context"

	"damage-vision/internal/domain/entity"
)

// DocumentProcessor интерфейс одношаговой обработки документа
// (мультимодальная модель переводит и извлекает данные сама)
type DocumentProcessor interface {
	// ProcessDocument переводит документ и извлекает структурированные данные
	ProcessDocument(ctx context.Context, imageData []byte, mimeType string, docType entity.DocumentType) (*entity.DocumentResult, error)
}

// TextExtractor интерфейс OCR-провайдера
type TextExtractor interface {
	// ExtractText извлекает текст и пословные аннотации из изображения
	ExtractText(ctx context.Context, imageData []byte) (*entity.ExtractedText, error)
}

// Translator интерфейс переводчика текста
type Translator interface {
	// Translate переводит текст на целевой язык, возвращая также
	// название исходного языка
	Translate(ctx context.Context, text, targetLanguage string) (translated, sourceLanguage string, err error)
}
