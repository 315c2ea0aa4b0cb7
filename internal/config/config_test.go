package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSTACURL = "https://stac.example.test/api/stac"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STAC_API_URL", testSTACURL)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "configs/manifest.yaml", cfg.ManifestPath)
	assert.Equal(t, SourceSTAC, cfg.SourceType)
	assert.Equal(t, testSTACURL, cfg.STACAPIURL)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 4, cfg.FetchConcurrency)
	assert.Equal(t, 1000, cfg.ItemsPageLimit)
	assert.Equal(t, 256, cfg.CollectionCacheSize)
	assert.Equal(t, 15*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, "cyclone-catalog:last-batch", cfg.RedisKey)
	assert.Equal(t, "catalog-snapshots", cfg.KafkaSnapshotTopic)
	assert.False(t, cfg.RedisEnabled())
	assert.False(t, cfg.KafkaEnabled())
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("SOURCE_TYPE", "S3")
	t.Setenv("S3_ENDPOINT", "localhost:9000")
	t.Setenv("S3_BUCKET", "cyclones")
	t.Setenv("S3_PREFIX", "fixtures/")
	t.Setenv("FETCH_CONCURRENCY", "8")
	t.Setenv("REFRESH_INTERVAL", "1m")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SNAPSHOT_TOPIC", "custom-snapshots")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, SourceS3, cfg.SourceType)
	assert.Equal(t, "localhost:9000", cfg.S3Endpoint)
	assert.Equal(t, "cyclones", cfg.S3Bucket)
	assert.Equal(t, "fixtures/", cfg.S3Prefix)
	assert.Equal(t, 8, cfg.FetchConcurrency)
	assert.Equal(t, time.Minute, cfg.RefreshInterval)
	assert.True(t, cfg.RedisEnabled())
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-snapshots", cfg.KafkaSnapshotTopic)
}

func TestLoad_DirSource(t *testing.T) {
	t.Setenv("SOURCE_TYPE", "dir")
	t.Setenv("SOURCE_DIR", "testdata")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, SourceDir, cfg.SourceType)
	assert.Equal(t, "testdata", cfg.SourceDir)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"shutdown timeout", map[string]string{"STAC_API_URL": testSTACURL, "SHUTDOWN_TIMEOUT": "not-a-duration"}, "SHUTDOWN_TIMEOUT"},
		{"negative shutdown timeout", map[string]string{"STAC_API_URL": testSTACURL, "SHUTDOWN_TIMEOUT": "-1s"}, "SHUTDOWN_TIMEOUT"},
		{"fetch timeout", map[string]string{"STAC_API_URL": testSTACURL, "FETCH_TIMEOUT": "bad"}, "FETCH_TIMEOUT"},
		{"refresh interval", map[string]string{"STAC_API_URL": testSTACURL, "REFRESH_INTERVAL": "0s"}, "REFRESH_INTERVAL"},
		{"concurrency", map[string]string{"STAC_API_URL": testSTACURL, "FETCH_CONCURRENCY": "0"}, "FETCH_CONCURRENCY"},
		{"page limit", map[string]string{"STAC_API_URL": testSTACURL, "ITEMS_PAGE_LIMIT": "lots"}, "ITEMS_PAGE_LIMIT"},
		{"cache size", map[string]string{"STAC_API_URL": testSTACURL, "COLLECTION_CACHE_SIZE": "-3"}, "COLLECTION_CACHE_SIZE"},
		{"unknown source", map[string]string{"SOURCE_TYPE": "ftp"}, "SOURCE_TYPE"},
		{"stac without urls", map[string]string{}, "STAC_API_URL"},
		{"s3 without bucket", map[string]string{"SOURCE_TYPE": "s3", "S3_ENDPOINT": "localhost:9000"}, "S3_BUCKET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseManifest(t *testing.T) {
	data := []byte(`
raster:
  - goes-02-ir-cyclone-beryl
  - " imerg-cyclone-beryl "
  - goes-02-ir-cyclone-beryl
vector:
  - public.path_point_cyclone_beryl
  - ""
`)
	m, err := ParseManifest(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"goes-02-ir-cyclone-beryl", "imerg-cyclone-beryl"}, m.Raster)
	assert.Equal(t, []string{"public.path_point_cyclone_beryl"}, m.Vector)
}

func TestParseManifest_Errors(t *testing.T) {
	_, err := ParseManifest([]byte("raster: [\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse manifest")

	_, err = ParseManifest([]byte("raster: []\nvector: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no collections")
}

func TestLoadManifest_RoundTripsFile(t *testing.T) {
	want := &Manifest{Raster: []string{"goes-02-ir-cyclone-beryl"}, Vector: []string{"public.wind_vectors_cyclone_beryl"}}
	data, err := want.Marshal()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	got, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadManifest_MissingFile(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read manifest")
}
