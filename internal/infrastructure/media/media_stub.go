//go:build !gocv
// +build !gocv

package media

import (
	"errors"

	"damage-vision/internal/domain/entity"
)

// GoCVMedia заглушка без OpenCV: видео и аннотация недоступны.
type GoCVMedia struct {
	JPEGQuality int
}

// NewGoCVMedia создаёт медиа-адаптер-заглушку (без OpenCV).
func NewGoCVMedia() *GoCVMedia {
	return &GoCVMedia{JPEGQuality: 95}
}

var errNoGoCV = errors.New("video support is not available: build with the gocv tag")

// ExtractFrames возвращает ошибку, если сборка без тега gocv.
func (m *GoCVMedia) ExtractFrames(videoPath string, count int) ([][]byte, error) {
	_ = videoPath
	_ = count
	return nil, errNoGoCV
}

// ExtractFrame возвращает ошибку, если сборка без тега gocv.
func (m *GoCVMedia) ExtractFrame(videoPath string, frameNumber int) ([]byte, error) {
	_ = videoPath
	_ = frameNumber
	return nil, errNoGoCV
}

// DrawDamageBoxes возвращает ошибку, если сборка без тега gocv.
func (m *GoCVMedia) DrawDamageBoxes(imageData []byte, damages []entity.Damage) ([]byte, error) {
	_ = imageData
	_ = damages
	return nil, errNoGoCV
}
