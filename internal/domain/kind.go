package domain

import "strings"

// Kind identifies a dataset's resolution policy. It is fixed at construction.
type Kind int

const (
	KindRaster Kind = iota
	KindVectorPoint
	KindVectorLine
	KindVectorPolygon
	KindVectorWindSwath
	KindVectorWindVector
)

var kindNames = [...]string{
	KindRaster:           "raster",
	KindVectorPoint:      "vector_point",
	KindVectorLine:       "vector_line",
	KindVectorPolygon:    "vector_polygon",
	KindVectorWindSwath:  "vector_wind_swath",
	KindVectorWindVector: "vector_wind_vector",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// MarshalText lets Kind serialize as its name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// TimeSensitive reports whether the query time affects the resolved assets.
func (k Kind) TimeSensitive() bool {
	switch k {
	case KindRaster, KindVectorWindSwath, KindVectorWindVector:
		return true
	default:
		return false
	}
}

// Shape is the geometry the presentation layer draws for the kind. Wind
// vectors render as lines and swaths as polygons.
func (k Kind) Shape() string {
	switch k {
	case KindRaster:
		return "raster"
	case KindVectorLine, KindVectorWindVector:
		return "line"
	case KindVectorPolygon, KindVectorWindSwath:
		return "polygon"
	default:
		return "point"
	}
}

// VisualizationType groups kinds into raster and vector products.
type VisualizationType string

const (
	VisualizationRaster VisualizationType = "raster"
	VisualizationVector VisualizationType = "vector"
)

// Visualization returns the product type for the kind.
func (k Kind) Visualization() VisualizationType {
	if k == KindRaster {
		return VisualizationRaster
	}
	return VisualizationVector
}

// vectorKindRules are checked in order against the collection ID.
var vectorKindRules = []struct {
	substr string
	kind   Kind
}{
	{"point", KindVectorPoint},
	{"line", KindVectorLine},
	{"polygon", KindVectorPolygon},
	{"wind_vectors", KindVectorWindVector},
	{"swath", KindVectorWindSwath},
}

// vectorKind derives the kind of a vector collection from its ID. IDs matching
// no rule fall back to points.
func vectorKind(collectionID string) Kind {
	for _, rule := range vectorKindRules {
		if strings.Contains(collectionID, rule.substr) {
			return rule.kind
		}
	}
	return KindVectorPoint
}
