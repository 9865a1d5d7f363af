//go:build gocv
// +build gocv

package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"

	"gocv.io/x/gocv"

	"damage-vision/internal/domain/entity"
)

// GoCVMedia извлекает кадры из видео и рисует рамки повреждений через OpenCV.
type GoCVMedia struct {
	JPEGQuality int
}

// NewGoCVMedia создаёт медиа-адаптер с качеством JPEG для сохраняемых кадров.
func NewGoCVMedia() *GoCVMedia {
	return &GoCVMedia{JPEGQuality: 95}
}

// ExtractFrames извлекает до count равномерно распределённых кадров видео.
func (m *GoCVMedia) ExtractFrames(videoPath string, count int) ([][]byte, error) {
	if count <= 0 {
		count = 1
	}

	capture, err := gocv.VideoCaptureFile(videoPath)
	if err != nil {
		return nil, fmt.Errorf("open video: %w", err)
	}
	defer capture.Close()

	if !capture.IsOpened() {
		return nil, errors.New("failed to open video file")
	}

	total := int(capture.Get(gocv.VideoCaptureFrameCount))
	if total == 0 {
		return nil, errors.New("video contains no frames")
	}

	interval := total / count
	if interval < 1 {
		interval = 1
	}

	frames := make([][]byte, 0, count)
	mat := gocv.NewMat()
	defer mat.Close()

	for i := 0; i < count; i++ {
		pos := i * interval
		if pos >= total {
			break
		}
		capture.Set(gocv.VideoCapturePosFrames, float64(pos))
		if !capture.Read(&mat) || mat.Empty() {
			continue
		}
		data, err := m.encodeJPEG(mat)
		if err != nil {
			continue
		}
		frames = append(frames, data)
	}

	if len(frames) == 0 {
		return nil, errors.New("could not extract frames from video")
	}
	return frames, nil
}

// ExtractFrame извлекает один кадр по номеру (0 — первый).
func (m *GoCVMedia) ExtractFrame(videoPath string, frameNumber int) ([]byte, error) {
	capture, err := gocv.VideoCaptureFile(videoPath)
	if err != nil {
		return nil, fmt.Errorf("open video: %w", err)
	}
	defer capture.Close()

	if !capture.IsOpened() {
		return nil, errors.New("failed to open video file")
	}

	total := int(capture.Get(gocv.VideoCaptureFrameCount))
	if frameNumber >= total {
		frameNumber = 0
	}

	capture.Set(gocv.VideoCapturePosFrames, float64(frameNumber))

	mat := gocv.NewMat()
	defer mat.Close()
	if !capture.Read(&mat) || mat.Empty() {
		return nil, errors.New("could not read frame from video")
	}

	return m.encodeJPEG(mat)
}

// DrawDamageBoxes рисует рамки повреждений с цветом по степени серьёзности.
func (m *GoCVMedia) DrawDamageBoxes(imageData []byte, damages []entity.Damage) ([]byte, error) {
	mat, err := decodeToMat(imageData)
	if err != nil {
		return nil, err
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, errors.New("empty image")
	}

	width := mat.Cols()
	height := mat.Rows()

	// Толщина рамки масштабируется с размером изображения.
	thickness := minInt(width, height) / 200
	if thickness < 2 {
		thickness = 2
	}

	fontScale := float64(minInt(width, height)) / 1500
	if fontScale < 0.5 {
		fontScale = 0.5
	}

	for i, damage := range damages {
		x, y, w, h := damage.Box.ToPixels(width, height)
		rect := image.Rect(x, y, x+w, y+h)
		c := severityColor(damage.Severity)

		gocv.Rectangle(&mat, rect, c, thickness)

		label := damage.Label
		if label == "" {
			label = fmt.Sprintf("Damage %d", i+1)
		}
		text := fmt.Sprintf("%d. %s (%s)", i+1, label, damage.Severity)
		textY := y - 8
		if textY < 20 {
			textY = y + h + 20
		}
		gocv.PutText(&mat, text, image.Pt(x+2, textY), gocv.FontHersheySimplex, fontScale, c, thickness)
	}

	return m.encodeJPEG(mat)
}

func (m *GoCVMedia) encodeJPEG(mat gocv.Mat) ([]byte, error) {
	img, err := mat.ToImage()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: m.JPEGQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// severityColor цвета степеней: Severe — красный, Moderate — оранжевый,
// Minor — жёлтый, неизвестная степень — зелёный.
func severityColor(s entity.Severity) color.RGBA {
	switch s {
	case entity.SeveritySevere:
		return color.RGBA{R: 255, A: 255}
	case entity.SeverityModerate:
		return color.RGBA{R: 255, G: 165, A: 255}
	case entity.SeverityMinor:
		return color.RGBA{R: 255, G: 255, A: 255}
	}
	return color.RGBA{G: 255, A: 255}
}

// decodeToMat превращает байты изображения в gocv.Mat.
func decodeToMat(imageData []byte) (gocv.Mat, error) {
	mat, err := gocv.IMDecode(imageData, gocv.IMReadColor)
	if err == nil && !mat.Empty() {
		return mat, nil
	}
	if !mat.Empty() {
		mat.Close()
	}
	return gocv.NewMat(), errors.New("failed to decode image")
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
