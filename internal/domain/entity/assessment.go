package entity

import (
	"fmt"
	"strings"
	"time"
)

// MediaType тип входного файла.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// FrameAnalysis результат анализа одного кадра видео.
type FrameAnalysis struct {
	Index  int    `json:"index"`
	Report string `json:"report"`
}

// RepairEstimate оценка стоимости ремонта одного повреждения.
type RepairEstimate struct {
	DamageType    string  `json:"damage_type"`
	EstimatedCost float64 `json:"estimated_cost"`
	Currency      string  `json:"currency"`
	Vehicle       string  `json:"vehicle,omitempty"`
}

// Assessment итог анализа изображения или видео автомобиля.
type Assessment struct {
	ID             string           `json:"id"`
	SourceName     string           `json:"source_name"`
	MediaType      MediaType        `json:"media_type"`
	Provider       string           `json:"provider"`
	Report         string           `json:"report"`
	Damages        []Damage         `json:"damages"`
	Frames         []FrameAnalysis  `json:"frames,omitempty"`
	Annotated      []byte           `json:"-"`
	AnnotatedPath  string           `json:"annotated_path,omitempty"`
	Estimates      []RepairEstimate `json:"estimates,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	MultiFrame     bool             `json:"multi_frame"`
	ReportFilePath string           `json:"report_path,omitempty"`
}

// HasDamages сообщает, найдено ли хоть одно повреждение.
func (a *Assessment) HasDamages() bool {
	return len(a.Damages) > 0
}

const reportRule = "============================================================"

// ReportHeader формирует шапку текстового отчёта.
func ReportHeader(now time.Time) string {
	var b strings.Builder
	b.WriteString(reportRule + "\n")
	b.WriteString("  VEHICLE DAMAGE DETECTION\n")
	b.WriteString(reportRule + "\n")
	fmt.Fprintf(&b, "  Time: %s\n", now.Format("2006-01-02 15:04:05"))
	b.WriteString(reportRule + "\n")
	return b.String()
}

// FullReport собирает полный отчёт: шапка, имя файла, тело.
func (a *Assessment) FullReport() string {
	var b strings.Builder
	b.WriteString(ReportHeader(a.CreatedAt))
	fmt.Fprintf(&b, "\nFile: %s\n\n", a.SourceName)
	b.WriteString(a.Report)
	if a.AnnotatedPath != "" {
		fmt.Fprintf(&b, "\n\nAnnotated image: %s", a.AnnotatedPath)
	}
	return b.String()
}

// CombineFrameReports склеивает отчёты по кадрам в единый многокадровый отчёт.
func CombineFrameReports(frames []FrameAnalysis) string {
	var b strings.Builder
	b.WriteString("MULTI-FRAME VIDEO ANALYSIS\n")
	b.WriteString(strings.Repeat("=", 70) + "\n")
	for i, f := range frames {
		if i > 0 {
			b.WriteString("\n\n" + strings.Repeat("=", 70) + "\n\n")
		}
		fmt.Fprintf(&b, "### Frame %d Analysis:\n%s", f.Index+1, f.Report)
	}
	return b.String()
}
