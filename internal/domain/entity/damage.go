package entity

import "sort"

// Severity степень серьёзности повреждения.
type Severity string

const (
	SeverityMinor    Severity = "Minor"
	SeverityModerate Severity = "Moderate"
	SeveritySevere   Severity = "Severe"
)

// Rank возвращает числовой ранг для сравнения степеней.
func (s Severity) Rank() int {
	switch s {
	case SeverityMinor:
		return 1
	case SeverityModerate:
		return 2
	case SeveritySevere:
		return 3
	}
	return 0
}

// MaxSeverity выбирает более серьёзную из двух степеней.
func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// Box прямоугольник повреждения в процентах от размеров изображения.
// (0,0) — левый верхний угол, (100,100) — правый нижний.
type Box struct {
	XPercent      float64 `json:"x_percent"`
	YPercent      float64 `json:"y_percent"`
	WidthPercent  float64 `json:"width_percent"`
	HeightPercent float64 `json:"height_percent"`
}

const (
	// Минимальный размер стороны рамки в процентах.
	minBoxSizePercent = 3.0
	// Дополнительный отступ вокруг рамки с каждой стороны.
	boxMarginPercent = 2.0
	// Минимальный размер стороны рамки в пикселях при отрисовке.
	MinBoxPixels = 30
)

// Normalize расширяет слишком маленькие рамки до минимального размера,
// добавляет защитный отступ и обрезает рамку по границам изображения.
func (b Box) Normalize() Box {
	x, y, w, h := b.XPercent, b.YPercent, b.WidthPercent, b.HeightPercent

	if w < minBoxSizePercent {
		expansion := (minBoxSizePercent - w) / 2
		x = maxFloat(0, x-expansion)
		w = minFloat(100-x, minBoxSizePercent)
	}
	if h < minBoxSizePercent {
		expansion := (minBoxSizePercent - h) / 2
		y = maxFloat(0, y-expansion)
		h = minFloat(100-y, minBoxSizePercent)
	}

	x = maxFloat(0, x-boxMarginPercent)
	y = maxFloat(0, y-boxMarginPercent)
	w = minFloat(100-x, w+boxMarginPercent*2)
	h = minFloat(100-y, h+boxMarginPercent*2)

	if x+w > 100 {
		w = 100 - x
	}
	if y+h > 100 {
		h = 100 - y
	}

	return Box{XPercent: x, YPercent: y, WidthPercent: w, HeightPercent: h}
}

// ToPixels переводит рамку в пиксельные координаты изображения width x height.
// Слишком маленькие рамки расширяются до MinBoxPixels с сохранением центра.
func (b Box) ToPixels(width, height int) (x, y, w, h int) {
	fx := b.XPercent * float64(width) / 100
	fy := b.YPercent * float64(height) / 100
	fw := b.WidthPercent * float64(width) / 100
	fh := b.HeightPercent * float64(height) / 100

	if fw < MinBoxPixels {
		expansion := (MinBoxPixels - fw) / 2
		fx = maxFloat(0, fx-expansion)
		fw = minFloat(float64(width)-fx, MinBoxPixels)
	}
	if fh < MinBoxPixels {
		expansion := (MinBoxPixels - fh) / 2
		fy = maxFloat(0, fy-expansion)
		fh = minFloat(float64(height)-fy, MinBoxPixels)
	}

	x = clampInt(int(fx), 0, width-1)
	y = clampInt(int(fy), 0, height-1)
	w = minInt(int(fw), width-x)
	h = minInt(int(fh), height-y)
	return x, y, w, h
}

// IoU считает отношение пересечения к объединению двух рамок.
func (b Box) IoU(other Box) float64 {
	x1 := maxFloat(b.XPercent, other.XPercent)
	y1 := maxFloat(b.YPercent, other.YPercent)
	x2 := minFloat(b.XPercent+b.WidthPercent, other.XPercent+other.WidthPercent)
	y2 := minFloat(b.YPercent+b.HeightPercent, other.YPercent+other.HeightPercent)

	if x2 < x1 || y2 < y1 {
		return 0
	}

	intersection := (x2 - x1) * (y2 - y1)
	union := b.WidthPercent*b.HeightPercent + other.WidthPercent*other.HeightPercent - intersection
	if union <= 0 {
		return 0
	}
	return intersection / union
}

// Overlaps проверяет, что две рамки существенно пересекаются.
func (b Box) Overlaps(other Box, iouThreshold float64) bool {
	return b.IoU(other) > iouThreshold
}

// Damage одно обнаруженное повреждение автомобиля.
type Damage struct {
	Label      string   `json:"label"`
	Location   string   `json:"location"`
	Severity   Severity `json:"extent"`
	Confidence float64  `json:"confidence,omitempty"`
	Box        Box      `json:"box"`

	// Заполняются при объединении результатов нескольких провайдеров.
	DetectedBy     []string `json:"detected_by,omitempty"`
	DetectionCount int      `json:"detection_count,omitempty"`
	HighConfidence bool     `json:"high_confidence,omitempty"`
}

// MergeOverlapping объединяет пересекающиеся повреждения от разных
// провайдеров: совпавшие по месту детекции схлопываются в одну запись с
// максимальной уверенностью и степенью. Результат отсортирован по
// уверенности.
func MergeOverlapping(damages []Damage, iouThreshold float64) []Damage {
	if len(damages) == 0 {
		return nil
	}

	merged := make([]Damage, 0, len(damages))
	used := make(map[int]bool)

	for i, d1 := range damages {
		if used[i] {
			continue
		}

		similar := []Damage{d1}
		for j := i + 1; j < len(damages); j++ {
			if used[j] {
				continue
			}
			if d1.Box.Overlaps(damages[j].Box, iouThreshold) {
				similar = append(similar, damages[j])
				used[j] = true
			}
		}

		merged = append(merged, mergeGroup(similar))
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Confidence > merged[j].Confidence
	})

	return merged
}

func mergeGroup(similar []Damage) Damage {
	out := similar[0]
	providers := make(map[string]bool)

	for _, d := range similar {
		if d.Confidence > out.Confidence {
			out.Confidence = d.Confidence
		}
		out.Severity = MaxSeverity(out.Severity, d.Severity)
		for _, p := range d.DetectedBy {
			providers[p] = true
		}
	}

	out.DetectedBy = make([]string, 0, len(providers))
	for p := range providers {
		out.DetectedBy = append(out.DetectedBy, p)
	}
	sort.Strings(out.DetectedBy)
	out.DetectionCount = len(similar)
	out.HighConfidence = len(similar) > 1

	return out
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
