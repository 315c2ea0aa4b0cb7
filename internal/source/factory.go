package source

import (
	"fmt"
	"log/slog"

	"github.com/couchcryptid/cyclone-catalog/internal/adapter/stac"
	"github.com/couchcryptid/cyclone-catalog/internal/config"
	"github.com/couchcryptid/cyclone-catalog/internal/observability"
)

// New builds the Source selected by cfg.SourceType.
func New(cfg *config.Config, manifest *config.Manifest, logger *slog.Logger, metrics *observability.Metrics) (*Loader, error) {
	var reader Reader
	switch cfg.SourceType {
	case config.SourceSTAC:
		client := stac.NewClient(cfg.STACAPIURL, cfg.FeaturesAPIURL, cfg.ItemsPageLimit, cfg.FetchTimeout, logger)
		reader = stac.NewCachedCollections(client, cfg.CollectionCacheSize, metrics)
	case config.SourceS3:
		store, err := NewObjectStore(ObjectStoreOptions{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Prefix:    cfg.S3Prefix,
		}, logger)
		if err != nil {
			return nil, err
		}
		reader = NewBlobReader(store)
	case config.SourceDir:
		reader = NewBlobReader(NewDirStore(cfg.SourceDir))
	default:
		return nil, fmt.Errorf("unknown source type %q", cfg.SourceType)
	}

	logger.Info("source configured",
		"type", cfg.SourceType,
		"raster_collections", len(manifest.Raster),
		"vector_collections", len(manifest.Vector),
	)
	return NewLoader(reader, manifest, cfg.FetchConcurrency, logger), nil
}
