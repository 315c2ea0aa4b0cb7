package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/couchcryptid/cyclone-catalog/internal/domain"
	"github.com/couchcryptid/cyclone-catalog/internal/observability"
)

// CatalogProvider returns the current snapshot, or nil before the first one
// is built.
type CatalogProvider interface {
	Catalog() *domain.Catalog
}

type handler struct {
	catalogs  CatalogProvider
	rasterAPI string
	metrics   *observability.Metrics
}

func newHandler(catalogs CatalogProvider, rasterAPI string, metrics *observability.Metrics) *handler {
	return &handler{catalogs: catalogs, rasterAPI: rasterAPI, metrics: metrics}
}

type stormSummary struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Products []string `json:"products"`
}

type productView struct {
	*domain.DataProduct
	Kind          domain.Kind `json:"kind"`
	Shape         string      `json:"shape"`
	TimeSensitive bool        `json:"time_sensitive"`
	Items         int         `json:"items"`
	Start         *time.Time  `json:"start,omitempty"`
	End           *time.Time  `json:"end,omitempty"`
	Location      *[2]float64 `json:"location,omitempty"`
}

type stormView struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Products []productView `json:"products"`
}

type assetsResponse struct {
	Product       string        `json:"product"`
	Kind          domain.Kind   `json:"kind"`
	Shape         string        `json:"shape"`
	TimeSensitive bool          `json:"time_sensitive"`
	Count         int           `json:"count"`
	Items         []domain.Item `json:"items"`
}

func (h *handler) snapshot(c *gin.Context) (*domain.Catalog, bool) {
	cat := h.catalogs.Catalog()
	if cat == nil {
		abortWithError(c, newAPIError(http.StatusServiceUnavailable, "not_ready", "catalog has not been built yet"))
		return nil, false
	}
	return cat, true
}

func (h *handler) product(c *gin.Context) (*domain.DataProduct, bool) {
	cat, ok := h.snapshot(c)
	if !ok {
		return nil, false
	}
	storm, name := c.Param("storm"), c.Param("product")
	if _, ok := cat.Cyclone(storm); !ok {
		abortWithError(c, newAPIError(http.StatusNotFound, "storm_not_found", "unknown storm "+strconv.Quote(storm)))
		return nil, false
	}
	p, ok := cat.Product(storm, name)
	if !ok {
		abortWithError(c, newAPIError(http.StatusNotFound, "product_not_found", "unknown product "+strconv.Quote(name)))
		return nil, false
	}
	return p, true
}

// queryTime parses ?datetime=. A missing value yields the zero time.
func queryTime(c *gin.Context) (time.Time, bool) {
	raw := strings.TrimSpace(c.Query("datetime"))
	if raw == "" {
		return time.Time{}, true
	}
	t, err := domain.ParseTimestamp(raw)
	if err != nil {
		abortWithError(c, newAPIError(http.StatusBadRequest, "invalid_datetime", err.Error()))
		return time.Time{}, false
	}
	return t, true
}

func queryFloat(c *gin.Context, key string) (*float64, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		abortWithError(c, newAPIError(http.StatusBadRequest, "invalid_"+key, key+" must be a number"))
		return nil, false
	}
	return &v, true
}

func (h *handler) listStorms(c *gin.Context) {
	cat, ok := h.snapshot(c)
	if !ok {
		return
	}
	out := make([]stormSummary, 0, len(cat.Cyclones))
	for _, name := range cat.StormNames() {
		cy, _ := cat.Cyclone(name)
		out = append(out, stormSummary{ID: cy.ID, Name: cy.Name, Products: cy.ProductNames()})
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) getStorm(c *gin.Context) {
	cat, ok := h.snapshot(c)
	if !ok {
		return
	}
	cy, ok := cat.Cyclone(c.Param("storm"))
	if !ok {
		abortWithError(c, newAPIError(http.StatusNotFound, "storm_not_found", "unknown storm "+strconv.Quote(c.Param("storm"))))
		return
	}

	view := stormView{ID: cy.ID, Name: cy.Name, Products: make([]productView, 0, len(cy.Products))}
	for _, name := range cy.ProductNames() {
		view.Products = append(view.Products, newProductView(cy.Products[name]))
	}
	c.JSON(http.StatusOK, view)
}

func newProductView(p *domain.DataProduct) productView {
	v := productView{DataProduct: p}
	ds := p.Dataset
	if ds == nil {
		return v
	}
	v.Kind = ds.Kind
	v.Shape = ds.Kind.Shape()
	v.TimeSensitive = ds.TimeSensitive
	v.Items = ds.Len()
	if start, end := ds.StartDate(), ds.EndDate(); !start.IsZero() {
		v.Start, v.End = &start, &end
	}
	if loc, ok := ds.Location(); ok {
		v.Location = &loc
	}
	return v
}

func (h *handler) assets(c *gin.Context) {
	p, ok := h.product(c)
	if !ok {
		return
	}
	at, ok := queryTime(c)
	if !ok {
		return
	}

	items := p.Dataset.Assets(at)
	h.metrics.AssetQueries.WithLabelValues(p.Dataset.Kind.String()).Inc()

	c.JSON(http.StatusOK, assetsResponse{
		Product:       p.ID,
		Kind:          p.Dataset.Kind,
		Shape:         p.Dataset.Kind.Shape(),
		TimeSensitive: p.Dataset.TimeSensitive,
		Count:         len(items),
		Items:         items,
	})
}

func (h *handler) nearest(c *gin.Context) {
	p, ok := h.product(c)
	if !ok {
		return
	}
	raw := strings.TrimSpace(c.Query("datetime"))
	if raw == "" {
		abortWithError(c, newAPIError(http.StatusBadRequest, "invalid_datetime", "datetime is required"))
		return
	}
	if _, ok := queryTime(c); !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"datetime": p.Dataset.NearestDateTime(raw)})
}

func (h *handler) tiles(c *gin.Context) {
	p, ok := h.product(c)
	if !ok {
		return
	}
	if p.Type != domain.VisualizationRaster {
		abortWithError(c, newAPIError(http.StatusBadRequest, "not_raster", "tiles are only available for raster products"))
		return
	}
	if h.rasterAPI == "" {
		abortWithError(c, newAPIError(http.StatusServiceUnavailable, "raster_api_unset", "raster api url is not configured"))
		return
	}
	at, ok := queryTime(c)
	if !ok {
		return
	}
	vmin, ok := queryFloat(c, "vmin")
	if !ok {
		return
	}
	vmax, ok := queryFloat(c, "vmax")
	if !ok {
		return
	}

	item, found := p.Dataset.Asset(at)
	if !found {
		abortWithError(c, newAPIError(http.StatusNotFound, "no_items", "product has no items"))
		return
	}
	h.metrics.AssetQueries.WithLabelValues(p.Dataset.Kind.String()).Inc()

	u, err := p.TileURL(h.rasterAPI, item, domain.TileOptions{VMin: vmin, VMax: vmax, Colormap: c.Query("colormap")})
	if err != nil {
		abortWithError(c, newAPIError(http.StatusInternalServerError, "tile_url", err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": u, "item": item.ID})
}
