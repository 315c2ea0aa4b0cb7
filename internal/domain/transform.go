package domain

import (
	"fmt"
	"strings"
)

const (
	rasterSeparator = "-"
	vectorSeparator = "_"
	cycloneInfix    = "cyclone"
)

// BuildCatalog ingests one batch of fetched collections and item groups and
// returns a new Catalog. Any malformed group fails the whole call.
func BuildCatalog(b Batch) (*Catalog, error) {
	builder := NewBuilder()
	builder.AddRasterCollections(b.RasterCollections)
	builder.AddVectorCollections(b.VectorCollections)
	for _, group := range b.RasterItems {
		if err := builder.AddRasterGroup(group); err != nil {
			return nil, err
		}
	}
	for _, group := range b.VectorItems {
		if err := builder.AddVectorGroup(group); err != nil {
			return nil, err
		}
	}
	return builder.Build()
}

// Builder accumulates collections and item groups for one ingestion pass.
// Groups sharing a collection ID are merged; items are de-duplicated by ID.
// A Builder is not safe for concurrent use.
type Builder struct {
	rasterMeta map[string]Collection
	vectorMeta map[string]Collection
	groups     map[string]*pendingGroup
	order      []string
}

type pendingGroup struct {
	collectionID string
	vector       bool
	items        []Item
	byID         map[string]int
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		rasterMeta: make(map[string]Collection),
		vectorMeta: make(map[string]Collection),
		groups:     make(map[string]*pendingGroup),
	}
}

// AddRasterCollections registers raster collection metadata. The first entry
// for an ID wins.
func (b *Builder) AddRasterCollections(cols []Collection) {
	addCollections(b.rasterMeta, cols)
}

// AddVectorCollections registers vector collection metadata. The first entry
// for an ID wins.
func (b *Builder) AddVectorCollections(cols []Collection) {
	addCollections(b.vectorMeta, cols)
}

func addCollections(dst map[string]Collection, cols []Collection) {
	for _, c := range cols {
		if _, ok := dst[c.ID]; !ok {
			dst[c.ID] = c
		}
	}
}

// AddRasterGroup adds STAC items sharing one collection ID.
func (b *Builder) AddRasterGroup(items []Item) error {
	return b.addGroup(items, false)
}

// AddVectorGroup adds features sharing one collection ID.
func (b *Builder) AddVectorGroup(items []Item) error {
	return b.addGroup(items, true)
}

func (b *Builder) addGroup(items []Item, vector bool) error {
	if len(items) == 0 {
		return nil
	}
	collectionID := items[0].Collection
	for _, it := range items[1:] {
		if it.Collection != collectionID {
			return fmt.Errorf("%w: %q and %q", ErrMixedGroup, collectionID, it.Collection)
		}
	}
	if _, _, err := splitCollectionID(collectionID, separatorFor(vector)); err != nil {
		return err
	}

	key := "raster:" + collectionID
	if vector {
		key = "vector:" + collectionID
	}
	g, ok := b.groups[key]
	if !ok {
		g = &pendingGroup{collectionID: collectionID, vector: vector, byID: make(map[string]int)}
		b.groups[key] = g
		b.order = append(b.order, key)
	}
	for _, it := range items {
		if it.ID != "" {
			if idx, seen := g.byID[it.ID]; seen {
				g.items[idx] = it
				continue
			}
			g.byID[it.ID] = len(g.items)
		}
		g.items = append(g.items, it)
	}
	return nil
}

// Build constructs the Catalog from everything added so far.
func (b *Builder) Build() (*Catalog, error) {
	cat := &Catalog{
		ID:       newSnapshotID(),
		BuiltAt:  clock.Now().UTC(),
		Cyclones: make(map[string]*Cyclone),
	}
	for _, key := range b.order {
		g := b.groups[key]
		var (
			product *DataProduct
			storm   string
			err     error
		)
		if g.vector {
			product, storm, err = b.vectorProduct(g)
		} else {
			product, storm, err = b.rasterProduct(g)
		}
		if err != nil {
			return nil, fmt.Errorf("ingest collection %q: %w", g.collectionID, err)
		}

		cy, ok := cat.Cyclones[storm]
		if !ok {
			cy = &Cyclone{
				ID:       cycloneInfix + "-" + storm,
				Name:     storm,
				Products: make(map[string]*DataProduct),
			}
			cat.Cyclones[storm] = cy
		}
		cy.Products[product.Name] = product
	}
	return cat, nil
}

func (b *Builder) rasterProduct(g *pendingGroup) (*DataProduct, string, error) {
	meta, ok := b.rasterMeta[g.collectionID]
	if !ok {
		return nil, "", ErrUnknownCollection
	}
	name, storm, err := splitCollectionID(g.collectionID, rasterSeparator)
	if err != nil {
		return nil, "", err
	}
	id := name + rasterSeparator + cycloneInfix + rasterSeparator + storm
	ds, err := NewDataset(id, KindRaster, g.items)
	if err != nil {
		return nil, "", err
	}

	p := &DataProduct{
		ID:          id,
		Name:        name,
		Type:        KindRaster.Visualization(),
		Dataset:     ds,
		Description: meta.Description,
		Units:       meta.Units,
		Rescale:     meta.Renders.Dashboard.Rescale,
		Colormap:    meta.Renders.Dashboard.ColormapName,
	}
	if len(meta.Renders.Dashboard.Assets) > 0 {
		p.AssetKey = meta.Renders.Dashboard.Assets[0]
	}
	if meta.Summaries != nil {
		p.Datetimes = append([]string(nil), meta.Summaries.Datetime...)
	}
	return p, storm, nil
}

func (b *Builder) vectorProduct(g *pendingGroup) (*DataProduct, string, error) {
	meta, ok := b.vectorMeta[g.collectionID]
	if !ok {
		return nil, "", ErrUnknownCollection
	}
	name, storm, err := splitCollectionID(g.collectionID, vectorSeparator)
	if err != nil {
		return nil, "", err
	}
	id := name + vectorSeparator + cycloneInfix + vectorSeparator + storm
	kind := vectorKind(g.collectionID)
	ds, err := NewDataset(id, kind, g.items)
	if err != nil {
		return nil, "", err
	}

	description := meta.Description
	if description == "" {
		description = meta.ID
	}
	return &DataProduct{
		ID:          id,
		Name:        name,
		Type:        kind.Visualization(),
		Dataset:     ds,
		Description: description,
		Datetimes:   rawDatetimes(ds),
	}, storm, nil
}

// rawDatetimes returns the source timestamp strings of a time-sensitive
// vector dataset, in sorted order.
func rawDatetimes(ds *Dataset) []string {
	if !ds.TimeSensitive {
		return nil
	}
	out := make([]string, 0, ds.Len())
	for _, it := range ds.items {
		if ds.Kind == KindVectorWindSwath {
			out = append(out, it.Properties.TimeStart)
		} else {
			out = append(out, it.Properties.Datetime)
		}
	}
	return out
}

// splitCollectionID derives (product, storm) from a collection ID: the last
// token is the storm, the rest form the product with a trailing "cyclone"
// infix dropped.
func splitCollectionID(id, sep string) (string, string, error) {
	tokens := strings.Split(id, sep)
	if len(tokens) < 2 {
		return "", "", fmt.Errorf("%w: %q has no %q separator", ErrInvalidCollectionID, id, sep)
	}
	storm := tokens[len(tokens)-1]
	rest := tokens[:len(tokens)-1]
	if len(rest) > 1 && rest[len(rest)-1] == cycloneInfix {
		rest = rest[:len(rest)-1]
	}
	product := strings.Join(rest, sep)
	if storm == "" || product == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidCollectionID, id)
	}
	return product, storm, nil
}

func separatorFor(vector bool) string {
	if vector {
		return vectorSeparator
	}
	return rasterSeparator
}
