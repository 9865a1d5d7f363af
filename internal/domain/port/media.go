package port

import "damage-vision/internal/domain/entity"

// FrameExtractor интерфейс извлечения кадров из видео
type FrameExtractor interface {
	// ExtractFrames извлекает до count равномерно распределённых кадров
	ExtractFrames(videoPath string, count int) ([][]byte, error)

	// ExtractFrame извлекает один кадр по номеру
	ExtractFrame(videoPath string, frameNumber int) ([]byte, error)
}

// Annotator интерфейс отрисовки рамок повреждений на изображении
type Annotator interface {
	// DrawDamageBoxes возвращает копию изображения с подсветкой повреждений
	DrawDamageBoxes(imageData []byte, damages []entity.Damage) ([]byte, error)
}
