package googlevision

import (
	"testing"

	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/stretchr/testify/require"

	"damage-vision/internal/domain/entity"
)

func localizedObject(name string, score float32, verts ...*visionpb.NormalizedVertex) *visionpb.LocalizedObjectAnnotation {
	return &visionpb.LocalizedObjectAnnotation{
		Name:         name,
		Score:        score,
		BoundingPoly: &visionpb.BoundingPoly{NormalizedVertices: verts},
	}
}

func quad(x1, y1, x2, y2 float32) []*visionpb.NormalizedVertex {
	return []*visionpb.NormalizedVertex{
		{X: x1, Y: y1},
		{X: x2, Y: y1},
		{X: x2, Y: y2},
		{X: x1, Y: y2},
	}
}

func TestDamageFromObject_Keyword(t *testing.T) {
	obj := localizedObject("Car bumper", 0.55, quad(0.1, 0.2, 0.5, 0.6)...)

	d, ok := damageFromObject(obj)
	require.True(t, ok)
	require.Equal(t, "Car bumper", d.Label)
	require.Equal(t, entity.SeverityMinor, d.Severity)
	require.InDelta(t, 55.0, d.Confidence, 0.01)
	require.InDelta(t, 10.0, d.Box.XPercent, 0.01)
	require.InDelta(t, 40.0, d.Box.WidthPercent, 0.01)
}

func TestDamageFromObject_HighScoreWithoutKeyword(t *testing.T) {
	obj := localizedObject("Tire", 0.85, quad(0, 0, 0.3, 0.3)...)

	d, ok := damageFromObject(obj)
	require.True(t, ok)
	require.Equal(t, entity.SeverityModerate, d.Severity)
}

func TestDamageFromObject_Filtered(t *testing.T) {
	obj := localizedObject("Tree", 0.4, quad(0, 0, 0.3, 0.3)...)

	_, ok := damageFromObject(obj)
	require.False(t, ok)
}

func TestDamageFromObject_DegenerateBox(t *testing.T) {
	obj := localizedObject("Dent", 0.9, &visionpb.NormalizedVertex{X: 0.5, Y: 0.5})

	_, ok := damageFromObject(obj)
	require.False(t, ok)
}

func TestIsDamageRelated(t *testing.T) {
	require.True(t, isDamageRelated("Front Bumper"))
	require.True(t, isDamageRelated("scratch mark"))
	require.False(t, isDamageRelated("Building"))
}

func TestWordAnnotation(t *testing.T) {
	word := &visionpb.Word{
		Symbols: []*visionpb.Symbol{
			{Text: "T"}, {Text: "o"}, {Text: "t"}, {Text: "a"}, {Text: "l"},
		},
		BoundingBox: &visionpb.BoundingPoly{
			Vertices: []*visionpb.Vertex{
				{X: 10, Y: 20}, {X: 60, Y: 20}, {X: 60, Y: 35}, {X: 10, Y: 35},
			},
		},
	}

	wa, ok := wordAnnotation(word)
	require.True(t, ok)
	require.Equal(t, "Total", wa.Text)
	require.Equal(t, 10, wa.X)
	require.Equal(t, 50, wa.Width)
	require.Equal(t, 15, wa.Height)
}

func TestLanguageName(t *testing.T) {
	require.Equal(t, "Sinhala", LanguageName("si"))
	require.Equal(t, "Tamil", LanguageName("ta"))
	require.Equal(t, "Hindi", LanguageName("hi-IN"))
	require.Equal(t, "fr", LanguageName("fr"))
}
