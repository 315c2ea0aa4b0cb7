package domain

import (
	"sort"
	"time"
)

// DataProduct wraps one Dataset with display metadata taken from the
// collection, never from individual items.
type DataProduct struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Type        VisualizationType `json:"type"`
	Dataset     *Dataset          `json:"-"`
	Description string            `json:"description,omitempty"`
	Units       string            `json:"units,omitempty"`
	Rescale     [][]float64       `json:"rescale,omitempty"`
	Colormap    string            `json:"colormap,omitempty"`
	AssetKey    string            `json:"asset,omitempty"`
	Datetimes   []string          `json:"datetimes,omitempty"`
}

// RescaleBounds returns the first (min, max) pair of the default rescale.
func (p *DataProduct) RescaleBounds() (float64, float64, bool) {
	if len(p.Rescale) == 0 || len(p.Rescale[0]) < 2 {
		return 0, 0, false
	}
	return p.Rescale[0][0], p.Rescale[0][1], true
}

// Cyclone is a storm and the data products observed for it.
type Cyclone struct {
	ID       string                  `json:"id"`
	Name     string                  `json:"name"`
	Products map[string]*DataProduct `json:"products"`
}

// ProductNames returns the product names in sorted order.
func (c *Cyclone) ProductNames() []string {
	names := make([]string, 0, len(c.Products))
	for name := range c.Products {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Catalog is an immutable snapshot mapping storm names to cyclones.
type Catalog struct {
	ID       string              `json:"id"`
	BuiltAt  time.Time           `json:"built_at"`
	Cyclones map[string]*Cyclone `json:"cyclones"`
}

// CatalogStats summarizes a snapshot.
type CatalogStats struct {
	Storms   int `json:"storms"`
	Products int `json:"products"`
	Items    int `json:"items"`
}

// Cyclone looks up a storm by name.
func (c *Catalog) Cyclone(name string) (*Cyclone, bool) {
	cy, ok := c.Cyclones[name]
	return cy, ok
}

// Product looks up a storm's data product by name.
func (c *Catalog) Product(storm, product string) (*DataProduct, bool) {
	cy, ok := c.Cyclones[storm]
	if !ok {
		return nil, false
	}
	p, ok := cy.Products[product]
	return p, ok
}

// StormNames returns the storm names in sorted order.
func (c *Catalog) StormNames() []string {
	names := make([]string, 0, len(c.Cyclones))
	for name := range c.Cyclones {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stats counts storms, products and items in the snapshot.
func (c *Catalog) Stats() CatalogStats {
	var s CatalogStats
	s.Storms = len(c.Cyclones)
	for _, cy := range c.Cyclones {
		s.Products += len(cy.Products)
		for _, p := range cy.Products {
			if p.Dataset != nil {
				s.Items += p.Dataset.Len()
			}
		}
	}
	return s
}
