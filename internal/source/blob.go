package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"

	"github.com/couchcryptid/cyclone-catalog/internal/domain"
)

// BlobStore opens named objects from a fixture tree.
//
// Layout under the store root:
//
//	collections/<collection-id>.json   Collection document
//	items/<collection-id>.json         FeatureCollection of the collection's items
type BlobStore interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// BlobReader implements Reader on top of a BlobStore. Raster and vector
// collections share one layout.
type BlobReader struct {
	store BlobStore
}

// NewBlobReader creates a Reader over store.
func NewBlobReader(store BlobStore) *BlobReader {
	return &BlobReader{store: store}
}

// CollectionKey is the blob key of a collection document.
func CollectionKey(id string) string { return path.Join("collections", id+".json") }

// ItemsKey is the blob key of a collection's items.
func ItemsKey(id string) string { return path.Join("items", id+".json") }

func (r *BlobReader) Collection(ctx context.Context, _ domain.VisualizationType, id string) (domain.Collection, error) {
	var c domain.Collection
	if err := r.decode(ctx, CollectionKey(id), &c); err != nil {
		return domain.Collection{}, err
	}
	if c.ID == "" {
		c.ID = id
	}
	return c, nil
}

func (r *BlobReader) Items(ctx context.Context, _ domain.VisualizationType, id string) ([]domain.Item, error) {
	var fc domain.FeatureCollection
	if err := r.decode(ctx, ItemsKey(id), &fc); err != nil {
		return nil, err
	}
	return fc.Features, nil
}

func (r *BlobReader) decode(ctx context.Context, key string, v any) error {
	rc, err := r.store.Open(ctx, key)
	if err != nil {
		return fmt.Errorf("open %s: %w", key, err)
	}
	defer rc.Close()

	if err := json.NewDecoder(rc).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}
