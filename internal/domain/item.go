package domain

import (
	"encoding/json"
	"time"
)

// Geometry is a GeoJSON geometry. Coordinates are kept raw since their shape
// depends on Type.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates,omitempty"`
}

// Properties holds the item fields this package reads. Every other property
// of the source payload is kept verbatim in Extra and written back out on
// marshal, so items pass through the service unchanged.
type Properties struct {
	Datetime       string   `json:"datetime,omitempty"`
	TimeStart      string   `json:"time_start,omitempty"`
	TimeEnd        string   `json:"time_end,omitempty"`
	Category       string   `json:"category,omitempty"`
	WindSpeedKnots *float64 `json:"wind_speed_knots,omitempty"`
	Radii          *float64 `json:"radii,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// knownProperties are the keys decoded into typed Properties fields.
var knownProperties = []string{"datetime", "time_start", "time_end", "category", "wind_speed_knots", "radii"}

// typedProperties has the same fields as Properties without its methods.
type typedProperties Properties

func (p *Properties) UnmarshalJSON(data []byte) error {
	var typed typedProperties
	if err := json.Unmarshal(data, &typed); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, k := range knownProperties {
		delete(all, k)
	}
	*p = Properties(typed)
	p.Extra = nil
	if len(all) > 0 {
		p.Extra = all
	}
	return nil
}

func (p Properties) MarshalJSON() ([]byte, error) {
	typed, err := json.Marshal(typedProperties(p))
	if err != nil || len(p.Extra) == 0 {
		return typed, err
	}
	merged := make(map[string]json.RawMessage, len(p.Extra)+len(knownProperties))
	for k, v := range p.Extra {
		merged[k] = v
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(typed, &fields); err != nil {
		return nil, err
	}
	// Typed fields win over a stale Extra entry with the same key.
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// Link is a STAC/OGC hypermedia link.
type Link struct {
	Rel  string `json:"rel"`
	Href string `json:"href"`
	Type string `json:"type,omitempty"`
}

// AssetLink points at a file belonging to a STAC item (e.g. "cog_default").
type AssetLink struct {
	Href  string   `json:"href"`
	Type  string   `json:"type,omitempty"`
	Title string   `json:"title,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// Item is a STAC item or a GeoJSON feature. Both share the same envelope.
type Item struct {
	ID         string               `json:"id"`
	Type       string               `json:"type,omitempty"`
	Collection string               `json:"collection"`
	BBox       []float64            `json:"bbox,omitempty"`
	Geometry   *Geometry            `json:"geometry,omitempty"`
	Properties Properties           `json:"properties"`
	Assets     map[string]AssetLink `json:"assets,omitempty"`
}

// FeatureCollection is the page envelope returned by STAC item searches and
// OGC feature queries.
type FeatureCollection struct {
	Type     string `json:"type"`
	Features []Item `json:"features"`
	Links    []Link `json:"links,omitempty"`
}

// Collection is collection-level metadata. Raster collections carry render
// defaults; vector collections usually only carry an id and description.
type Collection struct {
	ID          string     `json:"id"`
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	Units       string     `json:"units,omitempty"`
	Renders     Renders    `json:"renders,omitempty"`
	Summaries   *Summaries `json:"summaries,omitempty"`
}

// Renders holds named render presets. Only the dashboard preset is used.
type Renders struct {
	Dashboard RenderPreset `json:"dashboard,omitempty"`
}

// RenderPreset is the default visualisation for a raster collection.
type RenderPreset struct {
	Assets       []string    `json:"assets,omitempty"`
	Rescale      [][]float64 `json:"rescale,omitempty"`
	ColormapName string      `json:"colormap_name,omitempty"`
}

// Summaries lists the datetimes available in a raster collection.
type Summaries struct {
	Datetime []string `json:"datetime,omitempty"`
}

// Batch is one ingestion pass worth of already-fetched input.
type Batch struct {
	RasterCollections []Collection `json:"raster_collections"`
	VectorCollections []Collection `json:"vector_collections"`
	RasterItems       [][]Item     `json:"raster_items"`
	VectorItems       [][]Item     `json:"vector_items"`
}

// Instant returns the item's datetime normalized to UTC.
func (it Item) Instant() (time.Time, error) {
	return parseRequired(it.ID, "datetime", it.Properties.Datetime)
}

// IntervalStart returns the item's time_start normalized to UTC.
func (it Item) IntervalStart() (time.Time, error) {
	return parseRequired(it.ID, "time_start", it.Properties.TimeStart)
}
