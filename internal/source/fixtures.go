package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/couchcryptid/cyclone-catalog/internal/config"
	"github.com/couchcryptid/cyclone-catalog/internal/domain"
)

// FixtureSpec describes a synthetic storm track.
type FixtureSpec struct {
	Storm string
	Start time.Time
	Hours int
}

// Fixtures is a generated fixture tree keyed by blob key, plus the manifest
// that lists its collections.
type Fixtures struct {
	Manifest config.Manifest
	Blobs    map[string][]byte
}

// Putter stores a blob under a key. DirStore and ObjectStore implement it.
type Putter interface {
	Put(ctx context.Context, key string, data []byte) error
}

const swathEveryHours = 3

// GenerateFixtures builds a deterministic storm: an hourly raster, a track of
// points and a line, hourly wind vectors, and a swath every three hours.
func GenerateFixtures(spec FixtureSpec) (*Fixtures, error) {
	storm := strings.ToLower(strings.TrimSpace(spec.Storm))
	if storm == "" || strings.ContainsAny(storm, "-_ ") {
		return nil, fmt.Errorf("invalid storm name %q", spec.Storm)
	}
	if spec.Hours < 1 {
		return nil, errors.New("hours must be positive")
	}
	start := spec.Start.UTC()
	if start.IsZero() {
		return nil, errors.New("start time is required")
	}

	g := &generator{storm: storm, start: start, hours: spec.Hours, f: &Fixtures{Blobs: map[string][]byte{}}}
	steps := []func() error{g.raster, g.points, g.line, g.windVectors, g.swaths}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return g.f, nil
}

// WriteTo stores every blob and the manifest (as manifest.yaml) through p.
func (f *Fixtures) WriteTo(ctx context.Context, p Putter) error {
	keys := make([]string, 0, len(f.Blobs))
	for k := range f.Blobs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := p.Put(ctx, k, f.Blobs[k]); err != nil {
			return fmt.Errorf("write %s: %w", k, err)
		}
	}
	manifest, err := f.Manifest.Marshal()
	if err != nil {
		return err
	}
	return p.Put(ctx, "manifest.yaml", manifest)
}

type generator struct {
	storm string
	start time.Time
	hours int
	f     *Fixtures
}

func (g *generator) at(h int) time.Time { return g.start.Add(time.Duration(h) * time.Hour) }

// position moves the storm west-north-west from 12N 60W.
func (g *generator) position(h int) (lon, lat float64) {
	lon = -60 - 0.5*float64(h)
	lat = 12 + 0.2*float64(h)
	return round(lon), round(lat)
}

func round(v float64) float64 { return math.Round(v*1000) / 1000 }

func (g *generator) put(key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	g.f.Blobs[key] = data
	return nil
}

func (g *generator) collection(family domain.VisualizationType, col domain.Collection, items []domain.Item) error {
	if family == domain.VisualizationRaster {
		g.f.Manifest.Raster = append(g.f.Manifest.Raster, col.ID)
	} else {
		g.f.Manifest.Vector = append(g.f.Manifest.Vector, col.ID)
	}
	if err := g.put(CollectionKey(col.ID), col); err != nil {
		return err
	}
	return g.put(ItemsKey(col.ID), domain.FeatureCollection{Type: "FeatureCollection", Features: items})
}

func (g *generator) box(h int, half float64) *domain.Geometry {
	lon, lat := g.position(h)
	coords := [][][2]float64{{
		{lon - half, lat - half}, {lon + half, lat - half}, {lon + half, lat + half}, {lon - half, lat + half}, {lon - half, lat - half},
	}}
	raw, _ := json.Marshal(coords)
	return &domain.Geometry{Type: "Polygon", Coordinates: raw}
}

func (g *generator) point(h int) *domain.Geometry {
	lon, lat := g.position(h)
	raw, _ := json.Marshal([2]float64{lon, lat})
	return &domain.Geometry{Type: "Point", Coordinates: raw}
}

func (g *generator) raster() error {
	id := "goes-02-ir-cyclone-" + g.storm
	items := make([]domain.Item, 0, g.hours)
	for h := 0; h < g.hours; h++ {
		itemID := fmt.Sprintf("%s-%s", id, g.at(h).Format("20060102T1504"))
		items = append(items, domain.Item{
			ID:         itemID,
			Type:       "Feature",
			Collection: id,
			Geometry:   g.box(h, 5),
			Properties: domain.Properties{Datetime: g.at(h).Format(time.RFC3339)},
			Assets: map[string]domain.AssetLink{
				"cog_default": {Href: "s3://fixtures/" + itemID + ".tif", Type: "image/tiff; application=geotiff; profile=cloud-optimized"},
			},
		})
	}
	col := domain.Collection{
		ID:          id,
		Title:       "GOES-16 infrared",
		Description: "GOES-16 ABI channel 13 brightness temperature",
		Units:       "K",
		Renders: domain.Renders{Dashboard: domain.RenderPreset{
			Assets:       []string{"cog_default"},
			Rescale:      [][]float64{{180, 320}},
			ColormapName: "turbo",
		}},
		Summaries: &domain.Summaries{Datetime: []string{
			g.at(0).Format(time.RFC3339), g.at(g.hours - 1).Format(time.RFC3339),
		}},
	}
	return g.collection(domain.VisualizationRaster, col, items)
}

func (g *generator) points() error {
	id := "public.path_point_cyclone_" + g.storm
	items := make([]domain.Item, 0, g.hours)
	for h := 0; h < g.hours; h++ {
		knots := round(35 + 90*math.Sin(math.Pi*float64(h)/float64(g.hours)))
		items = append(items, domain.Item{
			ID:         fmt.Sprintf("%s.%d", id, h),
			Type:       "Feature",
			Collection: id,
			Geometry:   g.point(h),
			Properties: domain.Properties{
				Datetime:       g.at(h).Format(time.RFC3339),
				Category:       saffirSimpson(knots),
				WindSpeedKnots: &knots,
			},
		})
	}
	return g.collection(domain.VisualizationVector, domain.Collection{ID: id, Description: "Best track positions"}, items)
}

func (g *generator) line() error {
	id := "public.path_line_cyclone_" + g.storm
	coords := make([][2]float64, 0, g.hours)
	for h := 0; h < g.hours; h++ {
		lon, lat := g.position(h)
		coords = append(coords, [2]float64{lon, lat})
	}
	raw, err := json.Marshal(coords)
	if err != nil {
		return err
	}
	item := domain.Item{
		ID:         id + ".0",
		Type:       "Feature",
		Collection: id,
		Geometry:   &domain.Geometry{Type: "LineString", Coordinates: raw},
	}
	return g.collection(domain.VisualizationVector, domain.Collection{ID: id, Description: "Best track line"}, []domain.Item{item})
}

func (g *generator) windVectors() error {
	id := "public.wind_vectors_cyclone_" + g.storm
	items := make([]domain.Item, 0, g.hours)
	for h := 0; h < g.hours; h++ {
		speed := round(20 + float64(h%12))
		items = append(items, domain.Item{
			ID:         fmt.Sprintf("%s.%d", id, h),
			Type:       "Feature",
			Collection: id,
			Geometry:   g.point(h),
			Properties: domain.Properties{Datetime: g.at(h).Format(time.RFC3339), WindSpeedKnots: &speed},
		})
	}
	return g.collection(domain.VisualizationVector, domain.Collection{ID: id, Description: "Surface wind vectors"}, items)
}

func (g *generator) swaths() error {
	id := "public.modis_swath_cyclone_" + g.storm
	var items []domain.Item
	for h := 0; h < g.hours; h += swathEveryHours {
		items = append(items, domain.Item{
			ID:         fmt.Sprintf("%s.%d", id, h),
			Type:       "Feature",
			Collection: id,
			Geometry:   g.box(h, 8),
			Properties: domain.Properties{
				TimeStart: g.at(h).Format(time.RFC3339),
				TimeEnd:   g.at(h).Add(5 * time.Minute).Format(time.RFC3339),
			},
		})
	}
	return g.collection(domain.VisualizationVector, domain.Collection{ID: id, Description: "MODIS swath footprints"}, items)
}

func saffirSimpson(knots float64) string {
	switch {
	case knots >= 137:
		return "5"
	case knots >= 113:
		return "4"
	case knots >= 96:
		return "3"
	case knots >= 83:
		return "2"
	case knots >= 64:
		return "1"
	case knots >= 34:
		return "TS"
	default:
		return "TD"
	}
}
