package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"damage-vision/internal/domain/entity"
	"damage-vision/internal/domain/port"
)

// Порог IoU, при котором детекции разных провайдеров считаются одним
// повреждением.
const mergeIoUThreshold = 0.3

var imageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
}

var videoExtensions = map[string]bool{
	".mp4": true, ".avi": true, ".mov": true, ".mkv": true,
	".wmv": true, ".flv": true, ".webm": true, ".m4v": true,
}

// IsImageFile сообщает, поддерживается ли файл как изображение.
func IsImageFile(name string) bool {
	_, ok := imageExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// IsVideoFile сообщает, поддерживается ли файл как видео.
func IsVideoFile(name string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(name))]
}

// MimeType возвращает MIME-тип изображения по расширению файла.
func MimeType(name string) string {
	if mt, ok := imageExtensions[strings.ToLower(filepath.Ext(name))]; ok {
		return mt
	}
	return "image/jpeg"
}

// VehicleInfo данные автомобиля для оценки стоимости ремонта.
type VehicleInfo struct {
	Make    string
	Model   string
	Year    int
	Variant string
}

// AnalyzeOptions параметры запуска анализа.
type AnalyzeOptions struct {
	// MultiFrame анализировать несколько кадров видео вместо одного.
	MultiFrame bool
	// SaveReport сохранить текстовый отчёт в каталог отчётов.
	SaveReport bool
	// Annotate рисовать рамки повреждений на изображении.
	Annotate bool
	// SourceName имя исходного файла, если путь указывает на временную
	// копию (загрузка по HTTP).
	SourceName string
	// Vehicle данные автомобиля для подбора стоимости ремонта.
	Vehicle VehicleInfo
}

// AssessmentService оркестрирует полный цикл анализа повреждений:
// извлечение кадров, детекция, объединение результатов провайдеров,
// аннотация, оценка стоимости и сохранение отчёта.
type AssessmentService struct {
	analyzers  []port.DamageAnalyzer
	frames     port.FrameExtractor
	annotator  port.Annotator
	costs      port.CostRepository
	repo       port.AssessmentRepository
	archive    port.ArchiveStore
	log        *zap.Logger
	frameCount int
	reportDir  string
}

// NewAssessmentService создаёт сервис анализа. Archive и costs могут быть
// nil, тогда соответствующие шаги пропускаются.
func NewAssessmentService(
	analyzers []port.DamageAnalyzer,
	frames port.FrameExtractor,
	annotator port.Annotator,
	costs port.CostRepository,
	repo port.AssessmentRepository,
	archive port.ArchiveStore,
	frameCount int,
	reportDir string,
	log *zap.Logger,
) *AssessmentService {
	if frameCount <= 0 {
		frameCount = 5
	}
	return &AssessmentService{
		analyzers:  analyzers,
		frames:     frames,
		annotator:  annotator,
		costs:      costs,
		repo:       repo,
		archive:    archive,
		log:        log,
		frameCount: frameCount,
		reportDir:  reportDir,
	}
}

// AnalyzeFile анализирует файл с диска, сам определяя изображение это
// или видео.
func (s *AssessmentService) AnalyzeFile(ctx context.Context, path string, opts AnalyzeOptions) (*entity.Assessment, error) {
	name := filepath.Base(path)
	if opts.SourceName != "" {
		name = opts.SourceName
	}

	switch {
	case IsVideoFile(name):
		return s.analyzeVideo(ctx, path, name, opts)
	case IsImageFile(name):
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read image: %w", err)
		}
		return s.AnalyzeImage(ctx, name, data, opts)
	}
	return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(name))
}

// AnalyzeImage анализирует изображение в памяти.
func (s *AssessmentService) AnalyzeImage(ctx context.Context, name string, data []byte, opts AnalyzeOptions) (*entity.Assessment, error) {
	if len(s.analyzers) == 0 {
		return nil, fmt.Errorf("no damage analyzers configured")
	}

	mimeType := MimeType(name)

	damages, err := s.detect(ctx, data, mimeType)
	if err != nil {
		return nil, err
	}

	report, err := s.analyzers[0].DescribeDamages(ctx, data, mimeType)
	if err != nil {
		return nil, err
	}

	a := &entity.Assessment{
		ID:         uuid.NewString(),
		SourceName: name,
		MediaType:  entity.MediaImage,
		Provider:   s.providerNames(),
		Report:     report,
		Damages:    damages,
		CreatedAt:  time.Now(),
	}

	if opts.Annotate && len(damages) > 0 && s.annotator != nil {
		annotated, err := s.annotator.DrawDamageBoxes(data, damages)
		if err != nil {
			s.log.Warn("failed to annotate image", zap.Error(err))
		} else {
			a.Annotated = annotated
		}
	}

	s.estimateCosts(ctx, a, opts.Vehicle)
	return s.finish(ctx, a, opts)
}

// analyzeVideo анализирует видео: один кадр либо несколько равномерно
// распределённых по длительности.
func (s *AssessmentService) analyzeVideo(ctx context.Context, path, name string, opts AnalyzeOptions) (*entity.Assessment, error) {
	if s.frames == nil {
		return nil, fmt.Errorf("video analysis is not available")
	}

	if !opts.MultiFrame {
		frame, err := s.frames.ExtractFrame(path, 0)
		if err != nil {
			return nil, fmt.Errorf("extract frame: %w", err)
		}
		a, err := s.AnalyzeImage(ctx, name, frame, opts)
		if err != nil {
			return nil, err
		}
		a.MediaType = entity.MediaVideo
		return a, nil
	}

	frames, err := s.frames.ExtractFrames(path, s.frameCount)
	if err != nil {
		return nil, fmt.Errorf("extract frames: %w", err)
	}
	s.log.Info("video frames extracted",
		zap.String("file", name),
		zap.Int("frames", len(frames)))

	analyses := make([]entity.FrameAnalysis, len(frames))
	var allDamages []entity.Damage

	for i, frame := range frames {
		report, err := s.analyzers[0].DescribeDamages(ctx, frame, "image/jpeg")
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i+1, err)
		}
		analyses[i] = entity.FrameAnalysis{Index: i, Report: report}

		damages, err := s.detect(ctx, frame, "image/jpeg")
		if err != nil {
			s.log.Warn("frame damage detection failed",
				zap.Int("frame", i+1),
				zap.Error(err))
			continue
		}
		allDamages = append(allDamages, damages...)
	}

	a := &entity.Assessment{
		ID:         uuid.NewString(),
		SourceName: name,
		MediaType:  entity.MediaVideo,
		Provider:   s.providerNames(),
		Report:     entity.CombineFrameReports(analyses),
		Damages:    entity.MergeOverlapping(allDamages, mergeIoUThreshold),
		Frames:     analyses,
		CreatedAt:  time.Now(),
		MultiFrame: true,
	}

	s.estimateCosts(ctx, a, opts.Vehicle)
	return s.finish(ctx, a, opts)
}

// Get возвращает сохранённый результат анализа.
func (s *AssessmentService) Get(ctx context.Context, id string) (*entity.Assessment, error) {
	return s.repo.Get(ctx, id)
}

// detect запускает все провайдеры и объединяет пересекающиеся детекции.
func (s *AssessmentService) detect(ctx context.Context, data []byte, mimeType string) ([]entity.Damage, error) {
	damages, err := s.runAnalyzers(ctx, data, mimeType)
	if err != nil {
		return nil, err
	}
	return entity.MergeOverlapping(damages, mergeIoUThreshold), nil
}

// estimateCosts подбирает стоимость ремонта для каждого повреждения.
func (s *AssessmentService) estimateCosts(ctx context.Context, a *entity.Assessment, v VehicleInfo) {
	if s.costs == nil || v.Make == "" || v.Model == "" {
		return
	}

	for _, d := range a.Damages {
		est, err := s.costs.Lookup(ctx, port.CostQuery{
			Make:       v.Make,
			Model:      v.Model,
			Year:       v.Year,
			Variant:    v.Variant,
			DamageType: d.Label,
		})
		if err != nil {
			s.log.Warn("cost lookup failed", zap.Error(err))
			continue
		}
		if est != nil {
			a.Estimates = append(a.Estimates, *est)
		}
	}
}

// finish сохраняет отчёт на диск, архивирует артефакты и кладёт результат
// в хранилище.
func (s *AssessmentService) finish(ctx context.Context, a *entity.Assessment, opts AnalyzeOptions) (*entity.Assessment, error) {
	if opts.SaveReport && s.reportDir != "" {
		if err := s.saveReport(a); err != nil {
			s.log.Warn("failed to save report", zap.Error(err))
		}
	}

	if s.archive != nil {
		key := fmt.Sprintf("reports/%s.txt", a.ID)
		if err := s.archive.Put(ctx, key, []byte(a.FullReport()), "text/plain"); err != nil {
			s.log.Warn("failed to archive report", zap.Error(err))
		}
		if len(a.Annotated) > 0 {
			key = fmt.Sprintf("annotated/%s.jpg", a.ID)
			if err := s.archive.Put(ctx, key, a.Annotated, "image/jpeg"); err != nil {
				s.log.Warn("failed to archive annotated image", zap.Error(err))
			}
		}
	}

	if err := s.repo.Save(ctx, a); err != nil {
		return nil, fmt.Errorf("save assessment: %w", err)
	}

	s.log.Info("assessment complete",
		zap.String("id", a.ID),
		zap.String("file", a.SourceName),
		zap.Int("damages", len(a.Damages)))
	return a, nil
}

// saveReport пишет текстовый отчёт и аннотированное изображение в каталог
// отчётов.
func (s *AssessmentService) saveReport(a *entity.Assessment) error {
	stamp := a.CreatedAt.Format("20060102_150405")
	base := strings.TrimSuffix(a.SourceName, filepath.Ext(a.SourceName))

	reportPath := filepath.Join(s.reportDir, fmt.Sprintf("%s_%s_report.txt", base, stamp))
	if err := os.WriteFile(reportPath, []byte(a.FullReport()), 0644); err != nil {
		return err
	}
	a.ReportFilePath = reportPath

	if len(a.Annotated) > 0 {
		annotatedPath := filepath.Join(s.reportDir, fmt.Sprintf("%s_%s_annotated.jpg", base, stamp))
		if err := os.WriteFile(annotatedPath, a.Annotated, 0644); err != nil {
			return err
		}
		a.AnnotatedPath = annotatedPath
	}
	return nil
}

func (s *AssessmentService) providerNames() string {
	names := make([]string, len(s.analyzers))
	for i, a := range s.analyzers {
		names[i] = a.Name()
	}
	return strings.Join(names, "+")
}
