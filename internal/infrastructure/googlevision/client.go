package googlevision

import (
	"context"
	"errors"
	"fmt"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"damage-vision/internal/domain/entity"
	"damage-vision/internal/domain/port"
)

// Пороговые значения фильтрации объектов, найденных Google Vision.
const (
	// Минимальная уверенность, с которой любой объект считается
	// потенциальным повреждением даже без ключевых слов.
	scoreThreshold = 0.7
	// Порог, выше которого степень повреждения оценивается как Moderate.
	moderateScoreThreshold = 0.6
)

// Ключевые слова, по которым объект относится к автомобилю или повреждению.
var damageKeywords = []string{
	"damage", "dent", "scratch", "car", "vehicle",
	"bumper", "fender", "hood", "door",
}

// ErrNoText текст на изображении не обнаружен.
var ErrNoText = errors.New("no text detected in image")

// Client адаптер Google Cloud Vision: OCR документов и локализация
// повреждений.
type Client struct {
	api *vision.ImageAnnotatorClient
	log *zap.Logger
}

var (
	_ port.DamageAnalyzer = (*Client)(nil)
	_ port.TextExtractor  = (*Client)(nil)
)

// NewClient создаёт клиента Vision API по файлу сервисного аккаунта.
// Пустой путь означает Application Default Credentials.
func NewClient(ctx context.Context, credentialsFile string, log *zap.Logger) (*Client, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	api, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create vision client: %w", err)
	}
	return &Client{api: api, log: log}, nil
}

// Name возвращает имя провайдера.
func (c *Client) Name() string { return "google" }

// Close освобождает соединение с API.
func (c *Client) Close() error { return c.api.Close() }

// ExtractText выполняет OCR документа: полный текст и пословные аннотации.
func (c *Client) ExtractText(ctx context.Context, imageData []byte) (*entity.ExtractedText, error) {
	img := &visionpb.Image{Content: imageData}

	annotation, err := c.api.DetectDocumentText(ctx, img, nil)
	if err != nil {
		return nil, fmt.Errorf("document text detection: %w", err)
	}
	if annotation == nil || strings.TrimSpace(annotation.GetText()) == "" {
		return nil, ErrNoText
	}

	result := &entity.ExtractedText{FullText: annotation.GetText()}
	for _, page := range annotation.GetPages() {
		for _, block := range page.GetBlocks() {
			for _, paragraph := range block.GetParagraphs() {
				for _, word := range paragraph.GetWords() {
					if wa, ok := wordAnnotation(word); ok {
						result.Words = append(result.Words, wa)
					}
				}
			}
		}
	}
	return result, nil
}

// DetectDamages локализует объекты на фото и отбирает относящиеся
// к повреждениям автомобиля.
func (c *Client) DetectDamages(ctx context.Context, imageData []byte, mimeType string) ([]entity.Damage, error) {
	_ = mimeType

	img := &visionpb.Image{Content: imageData}
	objects, err := c.api.LocalizeObjects(ctx, img, nil)
	if err != nil {
		return nil, fmt.Errorf("object localization: %w", err)
	}

	damages := make([]entity.Damage, 0, len(objects))
	for _, obj := range objects {
		if d, ok := damageFromObject(obj); ok {
			damages = append(damages, d)
		}
	}

	c.log.Debug("google vision objects filtered",
		zap.Int("objects", len(objects)),
		zap.Int("damages", len(damages)))
	return damages, nil
}

// DescribeDamages строит краткий отчёт по меткам изображения. Vision API
// не пишет связный текст, поэтому отчёт собирается из найденных меток.
func (c *Client) DescribeDamages(ctx context.Context, imageData []byte, mimeType string) (string, error) {
	_ = mimeType

	img := &visionpb.Image{Content: imageData}
	labels, err := c.api.DetectLabels(ctx, img, nil, 15)
	if err != nil {
		return "", fmt.Errorf("label detection: %w", err)
	}

	var relevant []string
	for _, label := range labels {
		if isDamageRelated(label.GetDescription()) {
			relevant = append(relevant, fmt.Sprintf("- %s (%.0f%%)", label.GetDescription(), label.GetScore()*100))
		}
	}

	if len(relevant) == 0 {
		return "NO DAMAGE DETECTED - Vehicle appears to be in good condition.", nil
	}

	var sb strings.Builder
	sb.WriteString("DAMAGE FOUND: Yes\n\nDetected vehicle-related labels:\n")
	sb.WriteString(strings.Join(relevant, "\n"))
	return sb.String(), nil
}

// damageFromObject превращает найденный объект в повреждение, если он
// относится к автомобилю либо обнаружен с высокой уверенностью.
func damageFromObject(obj *visionpb.LocalizedObjectAnnotation) (entity.Damage, bool) {
	name := obj.GetName()
	score := float64(obj.GetScore())

	if !isDamageRelated(name) && score <= scoreThreshold {
		return entity.Damage{}, false
	}

	box, ok := boxFromVertices(obj.GetBoundingPoly().GetNormalizedVertices())
	if !ok {
		return entity.Damage{}, false
	}

	severity := entity.SeverityMinor
	if score > moderateScoreThreshold {
		severity = entity.SeverityModerate
	}

	return entity.Damage{
		Label:      name,
		Location:   "Detected by object localization",
		Severity:   severity,
		Confidence: score * 100,
		Box:        box,
	}, true
}

// boxFromVertices переводит нормализованные вершины (0..1) в рамку
// в процентах.
func boxFromVertices(vertices []*visionpb.NormalizedVertex) (entity.Box, bool) {
	if len(vertices) == 0 {
		return entity.Box{}, false
	}

	minX, minY := float64(vertices[0].GetX()), float64(vertices[0].GetY())
	maxX, maxY := minX, minY
	for _, v := range vertices[1:] {
		minX = minFloat(minX, float64(v.GetX()))
		minY = minFloat(minY, float64(v.GetY()))
		maxX = maxFloat(maxX, float64(v.GetX()))
		maxY = maxFloat(maxY, float64(v.GetY()))
	}

	if maxX <= minX || maxY <= minY {
		return entity.Box{}, false
	}

	return entity.Box{
		XPercent:      minX * 100,
		YPercent:      minY * 100,
		WidthPercent:  (maxX - minX) * 100,
		HeightPercent: (maxY - minY) * 100,
	}, true
}

func isDamageRelated(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range damageKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// wordAnnotation собирает слово из символов и берёт его пиксельную рамку.
func wordAnnotation(word *visionpb.Word) (entity.WordAnnotation, bool) {
	var sb strings.Builder
	for _, symbol := range word.GetSymbols() {
		sb.WriteString(symbol.GetText())
	}
	text := sb.String()
	if text == "" {
		return entity.WordAnnotation{}, false
	}

	vertices := word.GetBoundingBox().GetVertices()
	if len(vertices) == 0 {
		return entity.WordAnnotation{Text: text}, true
	}

	minX, minY := int(vertices[0].GetX()), int(vertices[0].GetY())
	maxX, maxY := minX, minY
	for _, v := range vertices[1:] {
		minX = minInt(minX, int(v.GetX()))
		minY = minInt(minY, int(v.GetY()))
		maxX = maxInt(maxX, int(v.GetX()))
		maxY = maxInt(maxY, int(v.GetY()))
	}

	return entity.WordAnnotation{
		Text:   text,
		X:      minX,
		Y:      minY,
		Width:  maxX - minX,
		Height: maxY - minY,
	}, true
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
