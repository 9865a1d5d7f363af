package container

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"damage-vision/config"
	app "damage-vision/internal/application"
	"damage-vision/internal/domain/port"
	"damage-vision/internal/infrastructure/costdb"
	"damage-vision/internal/infrastructure/googlevision"
	"damage-vision/internal/infrastructure/gpt"
	"damage-vision/internal/infrastructure/media"
	"damage-vision/internal/infrastructure/roboflow"
	"damage-vision/internal/infrastructure/storage"
)

// Container собирает инфраструктуру и сервисы приложения по конфигурации.
type Container struct {
	UserService       *app.UserService
	AssessmentService *app.AssessmentService
	DocumentService   *app.DocumentService

	closers []io.Closer
}

// New создаёт контейнер. Провайдеры подключаются по наличию ключей:
// OpenAI при заданном OPENAI_API_KEY, Roboflow при заданном
// ROBOFLOW_API_KEY, Google при выборе провайдера google либо при заданных
// учётных данных сервисного аккаунта.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Container, error) {
	c := &Container{}

	var (
		analyzers  []port.DamageAnalyzer
		processor  port.DocumentProcessor
		extractor  port.TextExtractor
		translator port.Translator
	)

	if cfg.OpenAI.APIKey != "" {
		gptClient, err := gpt.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model, log)
		if err != nil {
			return nil, fmt.Errorf("openai client: %w", err)
		}
		analyzers = append(analyzers, gptClient)
		processor = gptClient
	}

	if cfg.Roboflow.APIKey != "" {
		rfClient, err := roboflow.NewClient(cfg.Roboflow.APIKey, cfg.Roboflow.Model, cfg.Roboflow.ModelVersion, log)
		if err != nil {
			return nil, fmt.Errorf("roboflow client: %w", err)
		}
		analyzers = append(analyzers, rfClient)
	}

	needGoogle := cfg.App.OCRProvider == config.ProviderGoogle || cfg.Google.CredentialsFile != ""
	if needGoogle {
		visionClient, err := googlevision.NewClient(ctx, cfg.Google.CredentialsFile, log)
		if err != nil {
			return nil, fmt.Errorf("google vision client: %w", err)
		}
		c.closers = append(c.closers, visionClient)
		analyzers = append(analyzers, visionClient)
		extractor = visionClient

		translateClient, err := googlevision.NewTranslateClient(ctx, cfg.Google.CredentialsFile, log)
		if err != nil {
			return nil, fmt.Errorf("google translate client: %w", err)
		}
		c.closers = append(c.closers, translateClient)
		translator = translateClient
	}

	if len(analyzers) == 0 {
		return nil, fmt.Errorf("no vision providers configured: set OPENAI_API_KEY, ROBOFLOW_API_KEY or GOOGLE_APPLICATION_CREDENTIALS")
	}

	var costs port.CostRepository
	if cfg.App.CostDBPath != "" {
		repo, err := costdb.Load(cfg.App.CostDBPath, log)
		if err != nil {
			log.Warn("repair cost database unavailable", zap.Error(err))
		} else {
			costs = repo
		}
	}

	var archive port.ArchiveStore
	if cfg.Archive.Enabled {
		s3, err := storage.NewS3Archive(cfg.Archive, log)
		if err != nil {
			return nil, fmt.Errorf("s3 archive: %w", err)
		}
		archive = s3
	}

	mediaAdapter := media.NewGoCVMedia()

	userService := app.NewUserService(storage.NewMemoryUserRepository())
	assessmentService := app.NewAssessmentService(
		analyzers,
		mediaAdapter,
		mediaAdapter,
		costs,
		storage.NewMemoryAssessmentRepository(),
		archive,
		cfg.App.FrameCount,
		cfg.App.ReportDir,
		log,
	)
	documentService := app.NewDocumentService(cfg.App.OCRProvider, processor, extractor, translator, log)

	c.UserService = userService
	c.AssessmentService = assessmentService
	c.DocumentService = documentService
	return c, nil
}

// Close освобождает внешние соединения.
func (c *Container) Close() {
	for _, closer := range c.closers {
		_ = closer.Close()
	}
}
