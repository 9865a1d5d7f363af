package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Провайдеры OCR/анализа документов.
const (
	ProviderOpenAI = "openai"
	ProviderGoogle = "google"
)

type Config struct {
	Server   ServerConfig
	OpenAI   OpenAIConfig
	Google   GoogleConfig
	Roboflow RoboflowConfig
	App      AppConfig
	Telegram TelegramConfig
	Archive  ArchiveConfig
}

type ServerConfig struct {
	Host string
	Port string
}

type OpenAIConfig struct {
	APIKey string
	Model  string
}

type GoogleConfig struct {
	CredentialsFile string
}

type RoboflowConfig struct {
	APIKey       string
	Model        string
	ModelVersion int
}

type AppConfig struct {
	OCRProvider   string
	Debug         bool
	MaxUploadSize int64
	ReportDir     string
	CostDBPath    string
	FrameCount    int
}

type TelegramConfig struct {
	Token string
}

type ArchiveConfig struct {
	Enabled         bool
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	BucketName      string
	Region          string
}

// Load читает конфигурацию из окружения (.env поддерживается).
func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	viper.SetDefault("HOST", "0.0.0.0")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("OPENAI_MODEL", "gpt-4o")
	viper.SetDefault("ROBOFLOW_MODEL", "car-damage-detection")
	viper.SetDefault("ROBOFLOW_MODEL_VERSION", 1)
	viper.SetDefault("OCR_PROVIDER", ProviderOpenAI)
	viper.SetDefault("DEBUG_MODE", false)
	viper.SetDefault("MAX_UPLOAD_SIZE", 20*1024*1024) // 20MB
	viper.SetDefault("REPORT_DIR", "./reports")
	viper.SetDefault("COST_DB_PATH", "./data/repair_estimates.json")
	viper.SetDefault("FRAME_COUNT", 5)
	viper.SetDefault("ARCHIVE_ENABLED", false)
	viper.SetDefault("S3_ENDPOINT", "")
	viper.SetDefault("S3_ACCESS_KEY_ID", "")
	viper.SetDefault("S3_SECRET_ACCESS_KEY", "")
	viper.SetDefault("S3_USE_SSL", false)
	viper.SetDefault("S3_BUCKET_NAME", "damage-reports")
	viper.SetDefault("S3_REGION", "us-east-1")

	viper.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("HOST"),
			Port: viper.GetString("PORT"),
		},
		OpenAI: OpenAIConfig{
			APIKey: viper.GetString("OPENAI_API_KEY"),
			Model:  viper.GetString("OPENAI_MODEL"),
		},
		Google: GoogleConfig{
			CredentialsFile: viper.GetString("GOOGLE_APPLICATION_CREDENTIALS"),
		},
		Roboflow: RoboflowConfig{
			APIKey:       viper.GetString("ROBOFLOW_API_KEY"),
			Model:        viper.GetString("ROBOFLOW_MODEL"),
			ModelVersion: viper.GetInt("ROBOFLOW_MODEL_VERSION"),
		},
		App: AppConfig{
			OCRProvider:   viper.GetString("OCR_PROVIDER"),
			Debug:         viper.GetBool("DEBUG_MODE"),
			MaxUploadSize: viper.GetInt64("MAX_UPLOAD_SIZE"),
			ReportDir:     viper.GetString("REPORT_DIR"),
			CostDBPath:    viper.GetString("COST_DB_PATH"),
			FrameCount:    viper.GetInt("FRAME_COUNT"),
		},
		Telegram: TelegramConfig{
			Token: viper.GetString("TELEGRAM_TOKEN"),
		},
		Archive: ArchiveConfig{
			Enabled:         viper.GetBool("ARCHIVE_ENABLED"),
			Endpoint:        viper.GetString("S3_ENDPOINT"),
			AccessKeyID:     viper.GetString("S3_ACCESS_KEY_ID"),
			SecretAccessKey: viper.GetString("S3_SECRET_ACCESS_KEY"),
			UseSSL:          viper.GetBool("S3_USE_SSL"),
			BucketName:      viper.GetString("S3_BUCKET_NAME"),
			Region:          viper.GetString("S3_REGION"),
		},
	}

	if cfg.App.OCRProvider != ProviderOpenAI && cfg.App.OCRProvider != ProviderGoogle {
		return nil, fmt.Errorf("invalid OCR_PROVIDER %q: must be %q or %q",
			cfg.App.OCRProvider, ProviderOpenAI, ProviderGoogle)
	}

	if err := os.MkdirAll(cfg.App.ReportDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	return cfg, nil
}
