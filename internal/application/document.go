package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"damage-vision/internal/docparse"
	"damage-vision/internal/domain/entity"
	"damage-vision/internal/domain/port"
)

// Названия провайдеров в ответе API.
const (
	googleOCRName        = "Google Cloud Vision API"
	googleTranslatorName = "Google Translate API"
)

// DocumentService обрабатывает документы через выбранного провайдера:
// мультимодальная модель делает всё одним запросом, связка Google Vision +
// Translate работает по шагам с разбором текста паттернами.
type DocumentService struct {
	provider   string
	processor  port.DocumentProcessor
	extractor  port.TextExtractor
	translator port.Translator
	log        *zap.Logger
}

// NewDocumentService создаёт сервис обработки документов. Ненужные для
// выбранного провайдера зависимости могут быть nil.
func NewDocumentService(
	provider string,
	processor port.DocumentProcessor,
	extractor port.TextExtractor,
	translator port.Translator,
	log *zap.Logger,
) *DocumentService {
	return &DocumentService{
		provider:   provider,
		processor:  processor,
		extractor:  extractor,
		translator: translator,
		log:        log,
	}
}

// Provider возвращает имя активного провайдера.
func (s *DocumentService) Provider() string { return s.provider }

// Process переводит документ и извлекает структурированные данные.
// Провайдер можно переопределить на вызов; пустая строка означает
// провайдера по умолчанию из конфигурации.
func (s *DocumentService) Process(ctx context.Context, data []byte, mimeType string, docType entity.DocumentType, provider string) (*entity.DocumentResult, error) {
	if provider == "" {
		provider = s.provider
	}

	switch provider {
	case "openai":
		if s.processor == nil {
			return nil, fmt.Errorf("openai provider is not configured")
		}
		return s.processor.ProcessDocument(ctx, data, mimeType, docType)
	case "google":
		return s.processWithGoogle(ctx, data, docType)
	}
	return nil, fmt.Errorf("unknown OCR provider %q", provider)
}

// processWithGoogle выполняет пошаговую обработку: OCR, перевод, разбор
// текста регулярными выражениями.
func (s *DocumentService) processWithGoogle(ctx context.Context, data []byte, docType entity.DocumentType) (*entity.DocumentResult, error) {
	if s.extractor == nil {
		return nil, fmt.Errorf("google provider is not configured")
	}

	extracted, err := s.extractor.ExtractText(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("text extraction: %w", err)
	}

	translated := extracted.FullText
	sourceLanguage := "English"
	if s.translator != nil {
		translated, sourceLanguage, err = s.translator.Translate(ctx, extracted.FullText, "en")
		if err != nil {
			s.log.Warn("translation failed, using raw OCR text", zap.Error(err))
			translated = extracted.FullText
			sourceLanguage = "Unknown (translation failed)"
		}
	}

	result := &entity.DocumentResult{
		OCRProvider:    googleOCRName,
		Translator:     googleTranslatorName,
		RawOCRText:     extracted.FullText,
		TranslatedText: translated,
		SourceLanguage: sourceLanguage,
		DocumentInfo:   docparse.ExtractDocumentInfo(translated),
	}

	if docType == entity.DocumentEstimation {
		result.TableData = docparse.ParseEstimationTable(translated)
		result.Totals = docparse.CalculateTotals(result.TableData)
	}

	s.log.Info("document processed",
		zap.String("provider", "google"),
		zap.String("type", string(docType)),
		zap.Int("table_rows", len(result.TableData)))
	return result, nil
}
