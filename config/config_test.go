package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("OCR_PROVIDER", "")
	t.Setenv("REPORT_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Server.Port)
	require.Equal(t, "gpt-4o", cfg.OpenAI.Model)
	require.Equal(t, ProviderOpenAI, cfg.App.OCRProvider)
	require.Equal(t, 5, cfg.App.FrameCount)
	require.Equal(t, "car-damage-detection", cfg.Roboflow.Model)
	require.Equal(t, 1, cfg.Roboflow.ModelVersion)
	require.False(t, cfg.Archive.Enabled)
}

func TestLoad_GoogleProvider(t *testing.T) {
	t.Setenv("OCR_PROVIDER", "google")
	t.Setenv("REPORT_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ProviderGoogle, cfg.App.OCRProvider)
}

func TestLoad_InvalidProvider(t *testing.T) {
	t.Setenv("OCR_PROVIDER", "tesseract")
	t.Setenv("REPORT_DIR", t.TempDir())

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "OCR_PROVIDER")
}
