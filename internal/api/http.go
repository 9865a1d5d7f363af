package api

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	app "damage-vision/internal/application"
	"damage-vision/internal/domain/entity"
	"damage-vision/internal/infrastructure/googlevision"
	"damage-vision/internal/infrastructure/gpt"
	"damage-vision/internal/infrastructure/storage"
)

// Handler HTTP-обработчики анализа повреждений и документов.
type Handler struct {
	assessments   *app.AssessmentService
	documents     *app.DocumentService
	maxUploadSize int64
	log           *zap.Logger
}

// NewHandler создаёт HTTP-обработчики.
func NewHandler(assessments *app.AssessmentService, documents *app.DocumentService, maxUploadSize int64, log *zap.Logger) *Handler {
	if maxUploadSize <= 0 {
		maxUploadSize = 20 * 1024 * 1024
	}
	return &Handler{
		assessments:   assessments,
		documents:     documents,
		maxUploadSize: maxUploadSize,
		log:           log,
	}
}

// AnalyzeDamage обрабатывает загрузку изображения или видео автомобиля.
func (h *Handler) AnalyzeDamage(c *gin.Context) {
	data, filename, ok := h.readUpload(c, "file")
	if !ok {
		return
	}

	if !app.IsImageFile(filename) && !app.IsVideoFile(filename) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported file type"})
		return
	}

	year, _ := strconv.Atoi(c.PostForm("year"))
	opts := app.AnalyzeOptions{
		MultiFrame: c.PostForm("multi_frame") == "true",
		SaveReport: c.PostForm("save_report") == "true",
		Annotate:   c.PostForm("annotate") != "false",
		Vehicle: app.VehicleInfo{
			Make:    c.PostForm("make"),
			Model:   c.PostForm("model"),
			Year:    year,
			Variant: c.PostForm("variant"),
		},
	}

	var (
		a   *entity.Assessment
		err error
	)
	if app.IsVideoFile(filename) {
		// Видео декодируется с диска, загрузка сохраняется во временный файл.
		opts.SourceName = filename
		var tmpPath string
		tmpPath, err = h.saveTemp(data, filename)
		if err == nil {
			defer os.Remove(tmpPath)
			a, err = h.assessments.AnalyzeFile(c.Request.Context(), tmpPath, opts)
		}
	} else {
		a, err = h.assessments.AnalyzeImage(c.Request.Context(), filename, data, opts)
	}
	if err != nil {
		h.log.Error("damage analysis failed", zap.Error(err))
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{"assessment": a}
	if len(a.Annotated) > 0 {
		resp["annotated_image"] = base64.StdEncoding.EncodeToString(a.Annotated)
	}
	c.JSON(http.StatusOK, resp)
}

// TranslateDocument переводит сметный документ и извлекает таблицу.
func (h *Handler) TranslateDocument(c *gin.Context) {
	h.processDocument(c, entity.DocumentEstimation)
}

// ExtractVehicleInfo извлекает данные автомобиля из документа.
func (h *Handler) ExtractVehicleInfo(c *gin.Context) {
	h.processDocument(c, entity.DocumentVehicleInfo)
}

func (h *Handler) processDocument(c *gin.Context, docType entity.DocumentType) {
	data, filename, ok := h.readUpload(c, "document")
	if !ok {
		return
	}

	if !app.IsImageFile(filename) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported file type"})
		return
	}

	provider := c.PostForm("provider")
	if provider == "" {
		provider = c.Query("provider")
	}

	result, err := h.documents.Process(c.Request.Context(), data, app.MimeType(filename), docType, provider)
	if err != nil {
		h.log.Error("document processing failed",
			zap.String("type", string(docType)),
			zap.Error(err))
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

// GetAssessment возвращает сохранённый результат анализа по ID.
func (h *Handler) GetAssessment(c *gin.Context) {
	a, err := h.assessments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrAssessmentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Assessment not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"assessment": a})
}

// HealthCheck подтверждает работоспособность сервиса.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "OK",
		"ocr_provider": h.documents.Provider(),
	})
}

// statusFor сбои провайдеров отдаются как 502, непригодные изображения
// как 422, остальное как 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, gpt.ErrInvalidAPIKey),
		errors.Is(err, gpt.ErrRateLimited),
		errors.Is(err, gpt.ErrQuotaExceeded):
		return http.StatusBadGateway
	case errors.Is(err, gpt.ErrNoText),
		errors.Is(err, googlevision.ErrNoText):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// readUpload читает файл из multipart-формы с проверкой размера.
func (h *Handler) readUpload(c *gin.Context, field string) ([]byte, string, bool) {
	file, err := c.FormFile(field)
	if err != nil {
		// Принимаем также поле "file" для совместимости.
		if field != "file" {
			if file, err = c.FormFile("file"); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
				return nil, "", false
			}
		} else {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
			return nil, "", false
		}
	}

	if file.Size > h.maxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File too large"})
		return nil, "", false
	}

	src, err := file.Open()
	if err != nil {
		h.log.Error("failed to open upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process file"})
		return nil, "", false
	}
	defer src.Close()

	buf, err := readExactly(src, file.Size)
	if err != nil {
		h.log.Error("failed to read upload", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read file"})
		return nil, "", false
	}

	return buf, filepath.Base(file.Filename), true
}

// readExactly вычитывает ровно size байт, учитывая частичные чтения.
func readExactly(src io.Reader, size int64) ([]byte, error) {
	buf := make([]byte, size)
	if _, err := io.ReadFull(src, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// saveTemp сохраняет загрузку во временный файл, сохраняя расширение.
func (h *Handler) saveTemp(data []byte, filename string) (string, error) {
	tmp, err := os.CreateTemp("", "upload-*"+filepath.Ext(filename))
	if err != nil {
		return "", err
	}
	defer tmp.Close()

	if _, err := tmp.Write(data); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}
