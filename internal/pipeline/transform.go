package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/cyclone-catalog/internal/domain"
)

// CatalogTransformer implements Transformer using domain.BuildCatalog and
// logs a per-storm summary of every snapshot it builds.
type CatalogTransformer struct {
	logger *slog.Logger
}

// NewTransformer creates a CatalogTransformer.
func NewTransformer(logger *slog.Logger) *CatalogTransformer {
	return &CatalogTransformer{logger: logger}
}

func (t *CatalogTransformer) Transform(ctx context.Context, batch domain.Batch) (*domain.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cat, err := domain.BuildCatalog(batch)
	if err != nil {
		return nil, err
	}

	for _, name := range cat.StormNames() {
		cy, _ := cat.Cyclone(name)
		t.logger.Debug("storm indexed", "storm", name, "products", len(cy.Products))
	}
	return cat, nil
}
