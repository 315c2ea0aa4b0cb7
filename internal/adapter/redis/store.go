package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/couchcryptid/cyclone-catalog/internal/domain"
)

// KeyValue is the subset of the go-redis client BatchStore needs.
type KeyValue interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd
}

// BatchStore keeps the last batch that built a catalog successfully, so a
// restart can serve a snapshot while the upstream source is unavailable.
// It implements pipeline.BatchStore.
type BatchStore struct {
	client KeyValue
	key    string
	logger *slog.Logger
}

// NewClient connects to addr. A blank password disables AUTH.
func NewClient(addr, password string) *goredis.Client {
	return goredis.NewClient(&goredis.Options{Addr: addr, Password: password})
}

// NewBatchStore creates a store writing to key.
func NewBatchStore(client KeyValue, key string, logger *slog.Logger) *BatchStore {
	return &BatchStore{client: client, key: key, logger: logger}
}

// Save overwrites the stored batch.
func (s *BatchStore) Save(ctx context.Context, batch domain.Batch) error {
	data, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	s.logger.Debug("batch persisted", "key", s.key, "bytes", len(data))
	return nil
}

// Load returns the stored batch. ok is false when nothing has been saved yet.
func (s *BatchStore) Load(ctx context.Context) (domain.Batch, bool, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return domain.Batch{}, false, nil
	}
	if err != nil {
		return domain.Batch{}, false, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	var batch domain.Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		return domain.Batch{}, false, fmt.Errorf("decode batch: %w", err)
	}
	return batch, true, nil
}
