// Command genmock writes a synthetic storm fixture tree (collections, item
// groups and a manifest) that the catalog service can load with
// SOURCE_TYPE=dir, or uploads it to a bucket for SOURCE_TYPE=s3.
//
// Usage:
//
//	go run ./cmd/genmock -out data/fixtures -storm beryl -start 2024-06-28T00:00:00Z -hours 72
//
//	S3_ENDPOINT=localhost:9000 S3_BUCKET=fixtures \
//	  go run ./cmd/genmock -s3 -storm milton -start 2024-10-05T00:00:00Z -hours 120
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/cyclone-catalog/internal/domain"
	"github.com/couchcryptid/cyclone-catalog/internal/source"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/fixtures", "output directory for the fixture tree")
	storm := flag.String("storm", "beryl", "storm name (no dashes or underscores)")
	start := flag.String("start", "2024-06-28T00:00:00Z", "first observation time")
	hours := flag.Int("hours", 72, "number of hourly observations")
	toS3 := flag.Bool("s3", false, "upload to the S3_* bucket instead of writing to -out")
	flag.Parse()

	startAt, err := domain.ParseTimestamp(*start)
	if err != nil {
		flag.Usage()
		return fmt.Errorf("invalid -start: %w", err)
	}

	fixtures, err := source.GenerateFixtures(source.FixtureSpec{Storm: *storm, Start: startAt, Hours: *hours})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var dest source.Putter
	where := *out
	if *toS3 {
		_ = godotenv.Load()
		store, err := source.NewObjectStore(source.ObjectStoreOptions{
			Endpoint:  os.Getenv("S3_ENDPOINT"),
			AccessKey: os.Getenv("S3_ACCESS_KEY"),
			SecretKey: os.Getenv("S3_SECRET_KEY"),
			Bucket:    sharedcfg.EnvOrDefault("S3_BUCKET", "fixtures"),
			Region:    os.Getenv("S3_REGION"),
			Prefix:    os.Getenv("S3_PREFIX"),
		}, slog.Default())
		if err != nil {
			return err
		}
		dest = store
		where = "s3://" + sharedcfg.EnvOrDefault("S3_BUCKET", "fixtures")
	} else {
		dest = source.NewDirStore(*out)
	}

	if err := fixtures.WriteTo(ctx, dest); err != nil {
		return err
	}

	fmt.Printf("Wrote %d blobs for storm %q (%d raster, %d vector collections) to %s\n",
		len(fixtures.Blobs), *storm, len(fixtures.Manifest.Raster), len(fixtures.Manifest.Vector), where)
	return nil
}
