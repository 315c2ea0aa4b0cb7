package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKind_Presentation(t *testing.T) {
	tests := []struct {
		kind          Kind
		name          string
		shape         string
		visualization VisualizationType
		timeSensitive bool
	}{
		{KindRaster, "raster", "raster", VisualizationRaster, true},
		{KindVectorPoint, "vector_point", "point", VisualizationVector, false},
		{KindVectorLine, "vector_line", "line", VisualizationVector, false},
		{KindVectorPolygon, "vector_polygon", "polygon", VisualizationVector, false},
		{KindVectorWindSwath, "vector_wind_swath", "polygon", VisualizationVector, true},
		{KindVectorWindVector, "vector_wind_vector", "line", VisualizationVector, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.kind.String())
			assert.Equal(t, tt.shape, tt.kind.Shape())
			assert.Equal(t, tt.visualization, tt.kind.Visualization())
			assert.Equal(t, tt.timeSensitive, tt.kind.TimeSensitive())

			text, err := tt.kind.MarshalText()
			assert.NoError(t, err)
			assert.Equal(t, tt.name, string(text))
		})
	}

	assert.Equal(t, "unknown", Kind(99).String())
}
