package roboflow

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"damage-vision/internal/domain/entity"
	"damage-vision/internal/domain/port"
)

const (
	defaultBaseURL = "https://detect.roboflow.com"
	defaultModelID = "car-damage-detection"

	// Пороги уверенности, по которым детекция получает степень повреждения.
	severeConfidence   = 0.8
	moderateConfidence = 0.6
)

var _ port.DamageAnalyzer = (*Client)(nil)

// Client обёртка hosted inference API Roboflow: готовые модели детекции
// повреждений автомобиля.
type Client struct {
	apiKey  string
	modelID string
	version int
	baseURL string
	httpc   *http.Client
	log     *zap.Logger
}

type Option func(*Client)

// WithBaseURL переопределяет адрес API (для тестов).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// NewClient создаёт клиента Roboflow.
func NewClient(apiKey, modelID string, version int, log *zap.Logger, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("Roboflow API key is required")
	}
	if modelID == "" {
		modelID = defaultModelID
	}
	if version <= 0 {
		version = 1
	}

	c := &Client{
		apiKey:  apiKey,
		modelID: modelID,
		version: version,
		baseURL: defaultBaseURL,
		httpc:   &http.Client{Timeout: 60 * time.Second},
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Name возвращает имя провайдера.
func (c *Client) Name() string { return "roboflow" }

// DetectDamages запускает модель детекции и переводит предсказания в
// процентные рамки.
func (c *Client) DetectDamages(ctx context.Context, imageData []byte, mimeType string) ([]entity.Damage, error) {
	resp, err := c.infer(ctx, imageData)
	if err != nil {
		return nil, err
	}

	// Центр и размеры предсказаний приходят в пикселях исходного
	// изображения.
	imgW, imgH := resp.Image.Width, resp.Image.Height
	if imgW <= 0 {
		imgW = 1
	}
	if imgH <= 0 {
		imgH = 1
	}

	damages := make([]entity.Damage, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		label := p.Class
		if label == "" {
			label = "Damage"
		}
		damages = append(damages, entity.Damage{
			Label:      label,
			Location:   fmt.Sprintf("x:%.0f, y:%.0f", p.X, p.Y),
			Severity:   classifySeverity(p.Confidence),
			Confidence: p.Confidence * 100,
			Box: entity.Box{
				XPercent:      (p.X - p.Width/2) / imgW * 100,
				YPercent:      (p.Y - p.Height/2) / imgH * 100,
				WidthPercent:  p.Width / imgW * 100,
				HeightPercent: p.Height / imgH * 100,
			}.Normalize(),
		})
	}
	return damages, nil
}

// DescribeDamages формирует текстовую сводку из детекций: своей языковой
// модели у Roboflow нет.
func (c *Client) DescribeDamages(ctx context.Context, imageData []byte, mimeType string) (string, error) {
	damages, err := c.DetectDamages(ctx, imageData, mimeType)
	if err != nil {
		return "", err
	}
	if len(damages) == 0 {
		return "NO DAMAGE DETECTED - Vehicle appears to be in good condition.", nil
	}

	var b strings.Builder
	b.WriteString("DAMAGE FOUND: Yes\n\nDetected damages:\n")
	for _, d := range damages {
		fmt.Fprintf(&b, "- %s (%s, confidence %.0f%%) at %s\n",
			d.Label, d.Severity, d.Confidence, d.Location)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

type prediction struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Confidence float64 `json:"confidence"`
	Class      string  `json:"class"`
}

type inferenceResponse struct {
	Predictions []prediction `json:"predictions"`
	Image       struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	} `json:"image"`
}

// infer отправляет изображение в hosted inference API: base64 в теле
// запроса, ключ в query-параметре.
func (c *Client) infer(ctx context.Context, imageData []byte) (*inferenceResponse, error) {
	endpoint := fmt.Sprintf("%s/%s/%d?api_key=%s",
		c.baseURL, c.modelID, c.version, url.QueryEscape(c.apiKey))
	body := strings.NewReader(base64.StdEncoding.EncodeToString(imageData))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Roboflow request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("Roboflow API error: %d - %s",
			resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out inferenceResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("could not parse Roboflow response: %w", err)
	}

	c.log.Debug("roboflow inference complete",
		zap.String("model", c.modelID),
		zap.Int("predictions", len(out.Predictions)))
	return &out, nil
}

func classifySeverity(confidence float64) entity.Severity {
	switch {
	case confidence > severeConfidence:
		return entity.SeveritySevere
	case confidence > moderateConfidence:
		return entity.SeverityModerate
	}
	return entity.SeverityMinor
}
