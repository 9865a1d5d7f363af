package gpt

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"damage-vision/internal/domain/entity"
	"damage-vision/internal/domain/port"
)

// Параметры модели из практики эксплуатации: низкая температура ради
// воспроизводимости, увеличенный лимит токенов для множественных повреждений.
const (
	maxTokensReport   = 2000
	maxTokensBoxes    = 4000
	maxTokensDocument = 4000
	temperature       = 0.1
	topP              = 0.95

	maxRetries   = 3
	initialDelay = 1 * time.Second
)

// Ошибки, в которые разворачиваются типовые сбои OpenAI API.
var (
	ErrInvalidAPIKey = errors.New("invalid API key: check the OPENAI_API_KEY environment variable")
	ErrRateLimited   = errors.New("rate limit exceeded: wait a moment and try again")
	ErrQuotaExceeded = errors.New("insufficient API quota: check the OpenAI account billing")
	ErrNoText        = errors.New("no text detected in image")
)

var (
	_ port.DamageAnalyzer    = (*Client)(nil)
	_ port.DocumentProcessor = (*Client)(nil)
	_ port.TextExtractor     = (*Client)(nil)
)

// Client обёртка GPT-4o vision для анализа повреждений и документов.
type Client struct {
	api     *openai.Client
	model   string
	limiter *rate.Limiter
	log     *zap.Logger
}

type clientOptions struct {
	baseURL string
	rps     float64
}

type Option func(*clientOptions)

// WithBaseURL переопределяет адрес API (для тестов и совместимых шлюзов).
func WithBaseURL(url string) Option {
	return func(o *clientOptions) { o.baseURL = url }
}

// WithRateLimit задаёт предел запросов в секунду.
func WithRateLimit(rps float64) Option {
	return func(o *clientOptions) { o.rps = rps }
}

// NewClient создаёт клиента GPT-4o vision.
func NewClient(apiKey, model string, log *zap.Logger, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}
	if model == "" {
		model = openai.GPT4o
	}

	o := clientOptions{rps: 2}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := openai.DefaultConfig(strings.TrimSpace(apiKey))
	if o.baseURL != "" {
		cfg.BaseURL = o.baseURL
	}

	return &Client{
		api:     openai.NewClientWithConfig(cfg),
		model:   model,
		limiter: rate.NewLimiter(rate.Limit(o.rps), 2),
		log:     log,
	}, nil
}

// Name возвращает имя провайдера.
func (c *Client) Name() string { return "openai" }

// DescribeDamages запрашивает текстовый отчёт о повреждениях.
func (c *Client) DescribeDamages(ctx context.Context, imageData []byte, mimeType string) (string, error) {
	return c.visionRequest(ctx, damageReportPrompt, imageData, mimeType, maxTokensReport)
}

// DetectDamages запрашивает координаты рамок повреждений и нормализует их.
func (c *Client) DetectDamages(ctx context.Context, imageData []byte, mimeType string) ([]entity.Damage, error) {
	raw, err := c.visionRequest(ctx, boundingBoxPrompt, imageData, mimeType, maxTokensBoxes)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Damages []damageDTO `json:"damages"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &payload); err != nil {
		return nil, fmt.Errorf("could not parse damage coordinates: %w", err)
	}

	damages := make([]entity.Damage, 0, len(payload.Damages))
	for _, d := range payload.Damages {
		damages = append(damages, entity.Damage{
			Label:    d.Label,
			Location: d.Location,
			Severity: parseSeverity(d.Extent),
			Box: entity.Box{
				XPercent:      d.Box.XPercent,
				YPercent:      d.Box.YPercent,
				WidthPercent:  d.Box.WidthPercent,
				HeightPercent: d.Box.HeightPercent,
			}.Normalize(),
		})
	}
	return damages, nil
}

// ExtractText выполняет OCR через vision-модель.
func (c *Client) ExtractText(ctx context.Context, imageData []byte) (*entity.ExtractedText, error) {
	text, err := c.visionRequest(ctx, ocrPrompt, imageData, "image/png", maxTokensReport)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" || text == "NO_TEXT_FOUND" {
		return nil, ErrNoText
	}
	return &entity.ExtractedText{FullText: text}, nil
}

// ProcessDocument переводит документ и извлекает структурированные данные
// одним vision-запросом.
func (c *Client) ProcessDocument(ctx context.Context, imageData []byte, mimeType string, docType entity.DocumentType) (*entity.DocumentResult, error) {
	prompt := estimationDocumentPrompt
	if docType == entity.DocumentVehicleInfo {
		prompt = vehicleInfoDocumentPrompt
	}

	raw, err := c.visionRequest(ctx, prompt, imageData, mimeType, maxTokensDocument)
	if err != nil {
		return nil, err
	}

	var dto documentDTO
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &dto); err != nil {
		return nil, fmt.Errorf("could not parse document response: %w", err)
	}

	result := &entity.DocumentResult{
		OCRProvider:    "OpenAI GPT-4o",
		TranslatedText: dto.TranslatedText,
		SourceLanguage: dto.SourceLanguage,
		DocumentInfo: entity.DocumentInfo{
			CompanyName:     dto.DocumentInfo.CompanyName,
			ReferenceNumber: dto.DocumentInfo.ReferenceNumber,
			DocumentDate:    dto.DocumentInfo.DocumentDate,
			VehicleInfo:     dto.DocumentInfo.VehicleInfo,
		},
	}
	for _, row := range dto.TableData {
		result.TableData = append(result.TableData, entity.TableRow{
			Description: row.Description,
			Estimate:    row.Estimate,
			Approved:    row.Approved,
		})
	}
	result.Totals = entity.Totals{
		EstimateTotal: dto.Totals.EstimateTotal,
		ApprovedTotal: dto.Totals.ApprovedTotal,
		GrandTotal:    dto.Totals.GrandTotal,
	}
	return result, nil
}

// visionRequest отправляет запрос с изображением, повторяя при временных
// сбоях с нарастающей задержкой.
func (c *Client) visionRequest(ctx context.Context, prompt string, imageData []byte, mimeType string, maxTokens int) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(imageData))

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
		TopP:        topP,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(attempt) * initialDelay
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		resp, err := c.api.CreateChatCompletion(ctx, req)
		if err != nil {
			lastErr = mapAPIError(err)
			if !isRetryable(lastErr) {
				return "", lastErr
			}
			c.log.Warn("OpenAI request failed, retrying",
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			continue
		}

		if len(resp.Choices) == 0 {
			lastErr = errors.New("no choices in API response")
			continue
		}
		return resp.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("request failed after %d attempts: %w", maxRetries, lastErr)
}

// mapAPIError переводит ошибки SDK в доменные.
func mapAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case 401:
			return fmt.Errorf("%w: %s", ErrInvalidAPIKey, apiErr.Message)
		case 429:
			if code, ok := apiErr.Code.(string); ok && code == "insufficient_quota" {
				return fmt.Errorf("%w: %s", ErrQuotaExceeded, apiErr.Message)
			}
			return fmt.Errorf("%w: %s", ErrRateLimited, apiErr.Message)
		}
		return fmt.Errorf("OpenAI API error: %s", apiErr.Message)
	}
	return fmt.Errorf("OpenAI request failed: %w", err)
}

func isRetryable(err error) bool {
	return !errors.Is(err, ErrInvalidAPIKey) && !errors.Is(err, ErrQuotaExceeded)
}

// stripCodeFence убирает markdown-ограждение вокруг JSON-ответа модели.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

func parseSeverity(s string) entity.Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "severe":
		return entity.SeveritySevere
	case "moderate":
		return entity.SeverityModerate
	case "minor":
		return entity.SeverityMinor
	}
	return entity.SeverityMinor
}

type boxDTO struct {
	XPercent      float64 `json:"x_percent"`
	YPercent      float64 `json:"y_percent"`
	WidthPercent  float64 `json:"width_percent"`
	HeightPercent float64 `json:"height_percent"`
}

type damageDTO struct {
	Label    string `json:"label"`
	Location string `json:"location"`
	Extent   string `json:"extent"`
	Box      boxDTO `json:"box"`
}

type documentDTO struct {
	TranslatedText string `json:"translated_text"`
	SourceLanguage string `json:"source_language"`
	TableData      []struct {
		Description string `json:"description"`
		Estimate    string `json:"estimate"`
		Approved    string `json:"approved"`
	} `json:"table_data"`
	DocumentInfo struct {
		CompanyName     string `json:"company_name"`
		ReferenceNumber string `json:"reference_number"`
		DocumentDate    string `json:"document_date"`
		VehicleInfo     string `json:"vehicle_info"`
	} `json:"document_info"`
	Totals struct {
		EstimateTotal string `json:"estimate_total"`
		ApprovedTotal string `json:"approved_total"`
		GrandTotal    string `json:"grand_total"`
	} `json:"totals"`
}
