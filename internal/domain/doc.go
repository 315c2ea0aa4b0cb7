// Package domain models tropical-cyclone satellite data products and resolves
// which asset(s) should be displayed for a point in time.
//
// # Data Sources
//
// Raster scenes come from a STAC API: one collection per (product, storm)
// pairing, each item a scene with a single instant timestamp. Vector features
// come from an OGC Features API (pg_featureserv style): one collection per
// (product, storm) pairing, each item a GeoJSON feature.
//
// # Collection Naming
//
// Raster collection IDs are dash-separated:
//
//	"<product>-cyclone-<storm>"  →  e.g. "goes-02-ir-cyclone-beryl"
//	product "goes-02-ir", storm "beryl".
//
// Vector collection IDs are underscore-separated:
//
//	"<product>_cyclone_<storm>"  →  e.g. "public.path_point_cyclone_beryl"
//	product "public.path_point", storm "beryl".
//
// The last token is always the storm name. The "cyclone" infix is dropped from
// the product name when present; without it all preceding tokens form the
// product name.
//
// # Time Conventions
//
// Two timestamp fields exist in the source data:
//
//	properties.datetime    instant (raster scenes, path points, wind vectors)
//	properties.time_start  interval start, paired with time_end (swaths)
//
// All timestamps, item and query alike, are normalized to UTC by
// [ParseTimestamp] before comparison. A value without a zone designator is
// read as UTC.
//
// # Vector Kinds
//
// The vector kind is derived once from the collection ID by substring match,
// first match wins:
//
//	point         path points, all items, time ignored
//	line          path lines, all items, time ignored
//	polygon       wind radii polygons, all items, time ignored
//	wind_vectors  instant-stamped, windowed around the query time
//	swath         interval-stamped, nearest item ±5 neighbours
//
// # Snapshots
//
// A [Catalog] is built in one pass by [BuildCatalog] and never mutated
// afterwards. A re-fetch produces a new Catalog; readers holding the old one
// keep a complete, consistent view.
package domain
