package domain

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Fallback render settings when neither the request nor the collection
// provides them.
const (
	defaultVMin     = 250
	defaultVMax     = 300
	defaultColormap = "magma"
	defaultAssetKey = "cog_default"
)

// TileOptions overrides the collection's render defaults. Nil/empty fields
// fall back to the product metadata.
type TileOptions struct {
	VMin     *float64
	VMax     *float64
	Colormap string
}

// TileURL builds the XYZ tile template for a raster item served by a
// titiler-style raster API. Placeholders {z}/{x}/{y} are left unescaped for
// the map widget to fill in.
func (p *DataProduct) TileURL(rasterAPI string, item Item, opts TileOptions) (string, error) {
	if p.Type != VisualizationRaster {
		return "", fmt.Errorf("tile url: product %q is not a raster", p.ID)
	}
	if strings.TrimSpace(rasterAPI) == "" {
		return "", errors.New("tile url: raster api url is empty")
	}

	vmin, vmax, ok := p.RescaleBounds()
	if !ok {
		vmin, vmax = defaultVMin, defaultVMax
	}
	if opts.VMin != nil {
		vmin = *opts.VMin
	}
	if opts.VMax != nil {
		vmax = *opts.VMax
	}
	colormap := p.Colormap
	if opts.Colormap != "" {
		colormap = opts.Colormap
	}
	if colormap == "" {
		colormap = defaultColormap
	}
	asset := p.AssetKey
	if asset == "" {
		asset = defaultAssetKey
	}

	params := url.Values{
		"assets":        {asset},
		"bidx":          {"1"},
		"colormap_name": {colormap},
		"rescale":       {formatFloat(vmin) + "," + formatFloat(vmax)},
	}
	return fmt.Sprintf("%s/collections/%s/items/%s/tiles/WebMercatorQuad/{z}/{x}/{y}@1x?%s",
		strings.TrimRight(rasterAPI, "/"),
		url.PathEscape(item.Collection),
		url.PathEscape(item.ID),
		params.Encode(),
	), nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
