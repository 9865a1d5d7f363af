package app

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"damage-vision/internal/domain/entity"
	"damage-vision/internal/domain/port"
	"damage-vision/internal/infrastructure/storage"
)

type fakeAnalyzer struct {
	name    string
	damages []entity.Damage
	report  string
	err     error
}

func (f *fakeAnalyzer) Name() string { return f.name }

func (f *fakeAnalyzer) DetectDamages(ctx context.Context, data []byte, mimeType string) ([]entity.Damage, error) {
	return f.damages, f.err
}

func (f *fakeAnalyzer) DescribeDamages(ctx context.Context, data []byte, mimeType string) (string, error) {
	return f.report, f.err
}

type fakeFrames struct {
	frames [][]byte
}

func (f *fakeFrames) ExtractFrames(videoPath string, count int) ([][]byte, error) {
	return f.frames, nil
}

func (f *fakeFrames) ExtractFrame(videoPath string, frameNumber int) ([]byte, error) {
	if len(f.frames) == 0 {
		return nil, errors.New("no frames")
	}
	return f.frames[0], nil
}

type fakeAnnotator struct{ called bool }

func (f *fakeAnnotator) DrawDamageBoxes(data []byte, damages []entity.Damage) ([]byte, error) {
	f.called = true
	return append([]byte("annotated:"), data...), nil
}

type fakeCosts struct{}

func (f *fakeCosts) Lookup(ctx context.Context, q port.CostQuery) (*entity.RepairEstimate, error) {
	if q.Make == "Hyundai" {
		return &entity.RepairEstimate{DamageType: q.DamageType, EstimatedCost: 5500, Currency: "INR"}, nil
	}
	return nil, nil
}

func damageAt(x, y float64, label string) entity.Damage {
	return entity.Damage{
		Label:    label,
		Severity: entity.SeverityModerate,
		Box:      entity.Box{XPercent: x, YPercent: y, WidthPercent: 20, HeightPercent: 20},
	}
}

func newService(analyzers []port.DamageAnalyzer, frames port.FrameExtractor, annotator port.Annotator, costs port.CostRepository) *AssessmentService {
	return NewAssessmentService(analyzers, frames, annotator, costs,
		storage.NewMemoryAssessmentRepository(), nil, 5, "", zap.NewNop())
}

func TestAnalyzeImage_SingleProvider(t *testing.T) {
	analyzer := &fakeAnalyzer{
		name:    "openai",
		damages: []entity.Damage{damageAt(10, 10, "Dent")},
		report:  "DAMAGE FOUND: Yes",
	}
	annotator := &fakeAnnotator{}
	svc := newService([]port.DamageAnalyzer{analyzer}, nil, annotator, nil)

	a, err := svc.AnalyzeImage(context.Background(), "car.jpg", []byte("img"), AnalyzeOptions{Annotate: true})
	require.NoError(t, err)
	require.Equal(t, entity.MediaImage, a.MediaType)
	require.Equal(t, "openai", a.Provider)
	require.Len(t, a.Damages, 1)
	require.Equal(t, []string{"openai"}, a.Damages[0].DetectedBy)
	require.True(t, annotator.called)
	require.NotEmpty(t, a.Annotated)

	// Результат сохранён и доступен по ID.
	got, err := svc.Get(context.Background(), a.ID)
	require.NoError(t, err)
	require.Equal(t, a.SourceName, got.SourceName)
}

func TestAnalyzeImage_MergesProviders(t *testing.T) {
	// Оба провайдера видят одно и то же повреждение.
	openaiA := &fakeAnalyzer{name: "openai", damages: []entity.Damage{damageAt(10, 10, "Dent")}, report: "r"}
	googleA := &fakeAnalyzer{name: "google", damages: []entity.Damage{damageAt(12, 12, "Car dent")}, report: "r"}
	svc := newService([]port.DamageAnalyzer{openaiA, googleA}, nil, nil, nil)

	a, err := svc.AnalyzeImage(context.Background(), "car.jpg", []byte("img"), AnalyzeOptions{})
	require.NoError(t, err)
	require.Len(t, a.Damages, 1)
	require.Equal(t, []string{"google", "openai"}, a.Damages[0].DetectedBy)
	require.Equal(t, 2, a.Damages[0].DetectionCount)
	require.True(t, a.Damages[0].HighConfidence)
	require.Equal(t, "openai+google", a.Provider)
}

func TestAnalyzeImage_OneProviderFails(t *testing.T) {
	good := &fakeAnalyzer{name: "openai", damages: []entity.Damage{damageAt(10, 10, "Dent")}, report: "r"}
	bad := &fakeAnalyzer{name: "google", err: errors.New("quota")}
	svc := newService([]port.DamageAnalyzer{good, bad}, nil, nil, nil)

	a, err := svc.AnalyzeImage(context.Background(), "car.jpg", []byte("img"), AnalyzeOptions{})
	require.NoError(t, err)
	require.Len(t, a.Damages, 1)
}

func TestAnalyzeImage_AllProvidersFail(t *testing.T) {
	bad := &fakeAnalyzer{name: "openai", err: errors.New("quota")}
	svc := newService([]port.DamageAnalyzer{bad}, nil, nil, nil)

	_, err := svc.AnalyzeImage(context.Background(), "car.jpg", []byte("img"), AnalyzeOptions{})
	require.Error(t, err)
}

func TestAnalyzeImage_CostEstimates(t *testing.T) {
	analyzer := &fakeAnalyzer{name: "openai", damages: []entity.Damage{damageAt(10, 10, "Dent")}, report: "r"}
	svc := newService([]port.DamageAnalyzer{analyzer}, nil, nil, &fakeCosts{})

	a, err := svc.AnalyzeImage(context.Background(), "car.jpg", []byte("img"), AnalyzeOptions{
		Vehicle: VehicleInfo{Make: "Hyundai", Model: "i20", Year: 2021},
	})
	require.NoError(t, err)
	require.Len(t, a.Estimates, 1)
	require.Equal(t, 5500.0, a.Estimates[0].EstimatedCost)
}

func TestAnalyzeFile_MultiFrameVideo(t *testing.T) {
	analyzer := &fakeAnalyzer{name: "openai", report: "frame report"}
	frames := &fakeFrames{frames: [][]byte{[]byte("f1"), []byte("f2"), []byte("f3")}}
	svc := newService([]port.DamageAnalyzer{analyzer}, frames, nil, nil)

	a, err := svc.AnalyzeFile(context.Background(), "/tmp/crash.mp4", AnalyzeOptions{MultiFrame: true})
	require.NoError(t, err)
	require.Equal(t, entity.MediaVideo, a.MediaType)
	require.True(t, a.MultiFrame)
	require.Len(t, a.Frames, 3)
	require.Contains(t, a.Report, "MULTI-FRAME VIDEO ANALYSIS")
	require.Contains(t, a.Report, "### Frame 3 Analysis:")
}

func TestAnalyzeFile_SingleFrameVideo(t *testing.T) {
	analyzer := &fakeAnalyzer{name: "openai", report: "frame report"}
	frames := &fakeFrames{frames: [][]byte{[]byte("f1")}}
	svc := newService([]port.DamageAnalyzer{analyzer}, frames, nil, nil)

	a, err := svc.AnalyzeFile(context.Background(), "/tmp/crash.mov", AnalyzeOptions{})
	require.NoError(t, err)
	require.Equal(t, entity.MediaVideo, a.MediaType)
	require.False(t, a.MultiFrame)
}

func TestAnalyzeFile_UnsupportedExtension(t *testing.T) {
	svc := newService([]port.DamageAnalyzer{&fakeAnalyzer{name: "openai"}}, nil, nil, nil)

	_, err := svc.AnalyzeFile(context.Background(), "/tmp/report.pdf", AnalyzeOptions{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported file type")
}

func TestFileTypeHelpers(t *testing.T) {
	require.True(t, IsImageFile("photo.JPG"))
	require.True(t, IsImageFile("photo.webp"))
	require.False(t, IsImageFile("clip.mp4"))
	require.True(t, IsVideoFile("clip.MKV"))
	require.False(t, IsVideoFile("photo.png"))
	require.Equal(t, "image/png", MimeType("shot.png"))
	require.Equal(t, "image/jpeg", MimeType("unknown.bin"))
}

func TestSaveReport(t *testing.T) {
	dir := t.TempDir()
	analyzer := &fakeAnalyzer{name: "openai", report: "DAMAGE FOUND: Yes"}
	svc := NewAssessmentService([]port.DamageAnalyzer{analyzer}, nil, nil, nil,
		storage.NewMemoryAssessmentRepository(), nil, 5, dir, zap.NewNop())

	a, err := svc.AnalyzeImage(context.Background(), "car.jpg", []byte("img"), AnalyzeOptions{SaveReport: true})
	require.NoError(t, err)
	require.NotEmpty(t, a.ReportFilePath)
	require.FileExists(t, a.ReportFilePath)
}

type fakeArchive struct {
	keys []string
}

func (f *fakeArchive) Put(ctx context.Context, key string, data []byte, contentType string) error {
	f.keys = append(f.keys, key)
	return nil
}

func TestArchiveUploads(t *testing.T) {
	analyzer := &fakeAnalyzer{name: "openai", report: "r"}
	archive := &fakeArchive{}
	svc := NewAssessmentService([]port.DamageAnalyzer{analyzer}, nil, nil, nil,
		storage.NewMemoryAssessmentRepository(), archive, 5, "", zap.NewNop())

	a, err := svc.AnalyzeImage(context.Background(), "car.jpg", []byte("img"), AnalyzeOptions{})
	require.NoError(t, err)
	require.Contains(t, archive.keys, fmt.Sprintf("reports/%s.txt", a.ID))
}

func TestAnalyzeFile_SourceNameOverride(t *testing.T) {
	dir := t.TempDir()
	analyzer := &fakeAnalyzer{name: "openai", report: "frame report"}
	frames := &fakeFrames{frames: [][]byte{[]byte("f1")}}
	svc := NewAssessmentService([]port.DamageAnalyzer{analyzer}, frames, nil, nil,
		storage.NewMemoryAssessmentRepository(), nil, 5, dir, zap.NewNop())

	// Видео анализируется из временной копии, но в отчёте остаётся
	// исходное имя файла.
	a, err := svc.AnalyzeFile(context.Background(), "/tmp/upload-42.mp4", AnalyzeOptions{
		SaveReport: true,
		SourceName: "dashcam.mp4",
	})
	require.NoError(t, err)
	require.Equal(t, "dashcam.mp4", a.SourceName)
	require.Contains(t, a.ReportFilePath, "dashcam_")
	require.NotContains(t, a.ReportFilePath, "upload-42")
}
