package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReportHeader(t *testing.T) {
	now := time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)
	header := ReportHeader(now)

	require.Contains(t, header, "VEHICLE DAMAGE DETECTION")
	require.Contains(t, header, "2025-03-14 15:09:26")
}

func TestFullReport(t *testing.T) {
	a := &Assessment{
		SourceName:    "car.jpg",
		Report:        "DAMAGE FOUND: Yes",
		AnnotatedPath: "car_annotated.jpg",
		CreatedAt:     time.Now(),
	}

	full := a.FullReport()
	require.Contains(t, full, "File: car.jpg")
	require.Contains(t, full, "DAMAGE FOUND: Yes")
	require.Contains(t, full, "Annotated image: car_annotated.jpg")
}

func TestCombineFrameReports(t *testing.T) {
	frames := []FrameAnalysis{
		{Index: 0, Report: "no damage"},
		{Index: 1, Report: "dent on door"},
	}

	combined := CombineFrameReports(frames)
	require.Contains(t, combined, "MULTI-FRAME VIDEO ANALYSIS")
	require.Contains(t, combined, "### Frame 1 Analysis:\nno damage")
	require.Contains(t, combined, "### Frame 2 Analysis:\ndent on door")
}

func TestAssessmentHasDamages(t *testing.T) {
	a := &Assessment{}
	require.False(t, a.HasDamages())

	a.Damages = []Damage{{Label: "Dent"}}
	require.True(t, a.HasDamages())
}
