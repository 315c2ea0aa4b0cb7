// Package source loads the raw collection metadata and item groups that
// feed a catalog build.
package source

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/cyclone-catalog/internal/config"
	"github.com/couchcryptid/cyclone-catalog/internal/domain"
)

// Source produces one complete batch per call.
type Source interface {
	Fetch(ctx context.Context) (domain.Batch, error)
}

// Reader resolves collection metadata and the items of one collection.
// family is domain.VisualizationRaster or domain.VisualizationVector.
type Reader interface {
	Collection(ctx context.Context, family domain.VisualizationType, id string) (domain.Collection, error)
	Items(ctx context.Context, family domain.VisualizationType, id string) ([]domain.Item, error)
}

// Purger drops cached upstream state.
type Purger interface {
	Purge()
}

// Loader fans out over every collection in a manifest and assembles a Batch.
type Loader struct {
	reader      Reader
	manifest    *config.Manifest
	concurrency int
	logger      *slog.Logger
}

// NewLoader creates a Loader. concurrency below 1 is treated as 1.
func NewLoader(reader Reader, manifest *config.Manifest, concurrency int, logger *slog.Logger) *Loader {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Loader{reader: reader, manifest: manifest, concurrency: concurrency, logger: logger}
}

// Fetch loads every manifest collection. Results keep manifest order
// regardless of completion order; the first failure cancels the rest.
func (l *Loader) Fetch(ctx context.Context) (domain.Batch, error) {
	raster := l.manifest.Raster
	vector := l.manifest.Vector

	b := domain.Batch{
		RasterCollections: make([]domain.Collection, len(raster)),
		VectorCollections: make([]domain.Collection, len(vector)),
		RasterItems:       make([][]domain.Item, len(raster)),
		VectorItems:       make([][]domain.Item, len(vector)),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)

	for i, id := range raster {
		g.Go(func() error {
			return l.load(ctx, domain.VisualizationRaster, id, &b.RasterCollections[i], &b.RasterItems[i])
		})
	}
	for i, id := range vector {
		g.Go(func() error {
			return l.load(ctx, domain.VisualizationVector, id, &b.VectorCollections[i], &b.VectorItems[i])
		})
	}

	if err := g.Wait(); err != nil {
		return domain.Batch{}, err
	}
	return b, nil
}

// Purge drops the reader's cached collection metadata, if it keeps any.
func (l *Loader) Purge() {
	if p, ok := l.reader.(Purger); ok {
		p.Purge()
	}
}

func (l *Loader) load(ctx context.Context, family domain.VisualizationType, id string, col *domain.Collection, items *[]domain.Item) error {
	c, err := l.reader.Collection(ctx, family, id)
	if err != nil {
		return fmt.Errorf("%s collection %q: %w", family, id, err)
	}
	its, err := l.reader.Items(ctx, family, id)
	if err != nil {
		return fmt.Errorf("%s items %q: %w", family, id, err)
	}
	*col = c
	*items = its
	l.logger.Debug("collection loaded", "family", family, "collection", id, "items", len(its))
	return nil
}
