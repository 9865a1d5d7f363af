package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/iotest"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	app "damage-vision/internal/application"
	"damage-vision/internal/domain/entity"
	"damage-vision/internal/domain/port"
	"damage-vision/internal/infrastructure/storage"
)

type stubAnalyzer struct {
	damages []entity.Damage
	report  string
}

func (s *stubAnalyzer) Name() string { return "openai" }

func (s *stubAnalyzer) DetectDamages(ctx context.Context, data []byte, mimeType string) ([]entity.Damage, error) {
	return s.damages, nil
}

func (s *stubAnalyzer) DescribeDamages(ctx context.Context, data []byte, mimeType string) (string, error) {
	return s.report, nil
}

type stubProcessor struct{}

func (s *stubProcessor) ProcessDocument(ctx context.Context, data []byte, mimeType string, docType entity.DocumentType) (*entity.DocumentResult, error) {
	return &entity.DocumentResult{
		OCRProvider:    "OpenAI GPT-4o",
		TranslatedText: "Front Bumper 12500",
		SourceLanguage: "Sinhala",
	}, nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	analyzer := &stubAnalyzer{
		report: "DAMAGE FOUND: Yes",
		damages: []entity.Damage{{
			Label:    "Dent",
			Severity: entity.SeverityModerate,
			Box:      entity.Box{XPercent: 10, YPercent: 10, WidthPercent: 20, HeightPercent: 20},
		}},
	}

	assessments := app.NewAssessmentService(
		[]port.DamageAnalyzer{analyzer}, nil, nil, nil,
		storage.NewMemoryAssessmentRepository(), nil, 5, "", zap.NewNop())
	documents := app.NewDocumentService("openai", &stubProcessor{}, nil, nil, zap.NewNop())

	h := NewHandler(assessments, documents, 1024*1024, zap.NewNop())

	router := gin.New()
	router.GET("/health", h.HealthCheck)
	api := router.Group("/api")
	{
		api.POST("/analyze-damage", h.AnalyzeDamage)
		api.POST("/translate-document", h.TranslateDocument)
		api.POST("/extract-vehicle-info", h.ExtractVehicleInfo)
		api.GET("/assessments/:id", h.GetAssessment)
	}
	return router
}

func multipartBody(t *testing.T, field, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fw, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)

	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"ocr_provider":"openai"`)
}

func TestAnalyzeDamage(t *testing.T) {
	router := newTestRouter(t)

	body, contentType := multipartBody(t, "file", "car.jpg", []byte("image-bytes"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/analyze-damage", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Assessment entity.Assessment `json:"assessment"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "car.jpg", resp.Assessment.SourceName)
	require.Len(t, resp.Assessment.Damages, 1)
	require.NotEmpty(t, resp.Assessment.ID)
}

func TestAnalyzeDamage_UnsupportedType(t *testing.T) {
	router := newTestRouter(t)

	body, contentType := multipartBody(t, "file", "report.pdf", []byte("pdf"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/analyze-damage", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Unsupported file type")
}

func TestAnalyzeDamage_NoFile(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/analyze-damage", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTranslateDocument(t *testing.T) {
	router := newTestRouter(t)

	body, contentType := multipartBody(t, "document", "estimate.png", []byte("doc"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/translate-document", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Front Bumper 12500")
}

func TestExtractVehicleInfo_AcceptsFileField(t *testing.T) {
	router := newTestRouter(t)

	// Поле "file" принимается наравне с "document".
	body, contentType := multipartBody(t, "file", "reg.jpg", []byte("doc"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/extract-vehicle-info", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestTranslateDocument_UnknownProvider(t *testing.T) {
	router := newTestRouter(t)

	body, contentType := multipartBody(t, "document", "estimate.png", []byte("doc"),
		map[string]string{"provider": "azure"})
	req := httptest.NewRequest(http.MethodPost, "/api/translate-document", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "unknown OCR provider")
}

func TestGetAssessment(t *testing.T) {
	router := newTestRouter(t)

	// Сначала создаём результат через анализ.
	body, contentType := multipartBody(t, "file", "car.jpg", []byte("image-bytes"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/analyze-damage", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Assessment entity.Assessment `json:"assessment"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/assessments/"+resp.Assessment.ID, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/assessments/missing", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAnalyzeDamage_FileTooLarge(t *testing.T) {
	gin.SetMode(gin.TestMode)
	assessments := app.NewAssessmentService(
		[]port.DamageAnalyzer{&stubAnalyzer{report: "r"}}, nil, nil, nil,
		storage.NewMemoryAssessmentRepository(), nil, 5, "", zap.NewNop())
	documents := app.NewDocumentService("openai", &stubProcessor{}, nil, nil, zap.NewNop())
	h := NewHandler(assessments, documents, 10, zap.NewNop())

	router := gin.New()
	router.POST("/api/analyze-damage", h.AnalyzeDamage)

	body, contentType := multipartBody(t, "file", "car.jpg", make([]byte, 100), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/analyze-damage", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "File too large")
}

func TestReadExactly_PartialReads(t *testing.T) {
	content := []byte("frame-by-frame video payload")

	// Источник отдаёт по одному байту за чтение.
	got, err := readExactly(iotest.OneByteReader(bytes.NewReader(content)), int64(len(content)))
	require.NoError(t, err)
	require.Equal(t, content, got)

	// Источник короче заявленного размера.
	_, err = readExactly(bytes.NewReader(content[:5]), int64(len(content)))
	require.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
