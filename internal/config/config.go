package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Source types.
const (
	SourceSTAC = "stac"
	SourceS3   = "s3"
	SourceDir  = "dir"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	ManifestPath string
	SourceType   string

	// STAC / OGC Features source.
	STACAPIURL          string
	FeaturesAPIURL      string
	RasterAPIURL        string
	FetchTimeout        time.Duration
	FetchConcurrency    int
	ItemsPageLimit      int
	CollectionCacheSize int

	// Local directory source.
	SourceDir string

	// S3-compatible object store source.
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3Region    string
	S3Prefix    string

	RefreshInterval time.Duration

	// Optional last-good batch persistence.
	RedisAddr     string
	RedisPassword string
	RedisKey      string

	// Optional snapshot event publishing.
	KafkaBrokers       []string
	KafkaSnapshotTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parsePositiveDuration("FETCH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	refreshInterval, err := parsePositiveDuration("REFRESH_INTERVAL", "15m")
	if err != nil {
		return nil, err
	}
	concurrency, err := parsePositiveInt("FETCH_CONCURRENCY", 4)
	if err != nil {
		return nil, err
	}
	pageLimit, err := parsePositiveInt("ITEMS_PAGE_LIMIT", 1000)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parsePositiveInt("COLLECTION_CACHE_SIZE", 256)
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		ManifestPath: sharedcfg.EnvOrDefault("MANIFEST_PATH", "configs/manifest.yaml"),
		SourceType:   strings.ToLower(sharedcfg.EnvOrDefault("SOURCE_TYPE", SourceSTAC)),

		STACAPIURL:          os.Getenv("STAC_API_URL"),
		FeaturesAPIURL:      os.Getenv("FEATURES_API_URL"),
		RasterAPIURL:        os.Getenv("RASTER_API_URL"),
		FetchTimeout:        fetchTimeout,
		FetchConcurrency:    concurrency,
		ItemsPageLimit:      pageLimit,
		CollectionCacheSize: cacheSize,

		SourceDir: sharedcfg.EnvOrDefault("SOURCE_DIR", "data/fixtures"),

		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    os.Getenv("S3_BUCKET"),
		S3Region:    os.Getenv("S3_REGION"),
		S3Prefix:    os.Getenv("S3_PREFIX"),

		RefreshInterval: refreshInterval,

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisKey:      sharedcfg.EnvOrDefault("REDIS_KEY", "cyclone-catalog:last-batch"),

		KafkaBrokers:       brokers,
		KafkaSnapshotTopic: sharedcfg.EnvOrDefault("KAFKA_SNAPSHOT_TOPIC", "catalog-snapshots"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// KafkaEnabled reports whether snapshot events should be published.
func (c *Config) KafkaEnabled() bool { return len(c.KafkaBrokers) > 0 }

// RedisEnabled reports whether the last-good batch should be persisted.
func (c *Config) RedisEnabled() bool { return c.RedisAddr != "" }

func (c *Config) validate() error {
	switch c.SourceType {
	case SourceSTAC:
		if c.STACAPIURL == "" && c.FeaturesAPIURL == "" {
			return errors.New("STAC_API_URL or FEATURES_API_URL is required when SOURCE_TYPE=stac")
		}
	case SourceS3:
		if c.S3Endpoint == "" || c.S3Bucket == "" {
			return errors.New("S3_ENDPOINT and S3_BUCKET are required when SOURCE_TYPE=s3")
		}
	case SourceDir:
		if c.SourceDir == "" {
			return errors.New("SOURCE_DIR is required when SOURCE_TYPE=dir")
		}
	default:
		return fmt.Errorf("invalid SOURCE_TYPE %q", c.SourceType)
	}
	if c.KafkaEnabled() && c.KafkaSnapshotTopic == "" {
		return errors.New("KAFKA_SNAPSHOT_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}
