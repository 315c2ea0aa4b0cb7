package redis

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/cyclone-catalog/internal/domain"
)

const testKey = "cyclone-catalog:last-batch"

// fakeKV keeps values in memory and returns canned go-redis commands.
type fakeKV struct {
	values map[string]string
	err    error
}

func newFakeKV() *fakeKV { return &fakeKV{values: map[string]string{}} }

func (f *fakeKV) Get(_ context.Context, key string) *goredis.StringCmd {
	if f.err != nil {
		return goredis.NewStringResult("", f.err)
	}
	v, ok := f.values[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(v, nil)
}

func (f *fakeKV) Set(_ context.Context, key string, value any, _ time.Duration) *goredis.StatusCmd {
	if f.err != nil {
		return goredis.NewStatusResult("", f.err)
	}
	f.values[key] = string(value.([]byte))
	return goredis.NewStatusResult("OK", nil)
}

func newTestStore(kv KeyValue) *BatchStore {
	return NewBatchStore(kv, testKey, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBatchStore_SaveLoad(t *testing.T) {
	kv := newFakeKV()
	store := newTestStore(kv)

	want := domain.Batch{
		RasterCollections: []domain.Collection{{ID: "goes-02-ir-cyclone-beryl", Units: "K"}},
		RasterItems: [][]domain.Item{{
			{ID: "r0", Collection: "goes-02-ir-cyclone-beryl", Properties: domain.Properties{Datetime: "2024-07-10T00:00:00Z"}},
		}},
	}
	require.NoError(t, store.Save(context.Background(), want))
	assert.Contains(t, kv.values, testKey)

	got, ok, err := store.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want.RasterCollections, got.RasterCollections)
	assert.Equal(t, "r0", got.RasterItems[0][0].ID)

	_, err = domain.BuildCatalog(got)
	require.NoError(t, err)
}

func TestBatchStore_KeepsUnknownItemProperties(t *testing.T) {
	var item domain.Item
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": "s0",
		"collection": "public.modis_swath_cyclone_beryl",
		"properties": {"time_start": "2024-07-10T00:00:00Z", "producer_granule_id": "MOD021KM.A2024"}
	}`), &item))

	store := newTestStore(newFakeKV())
	require.NoError(t, store.Save(context.Background(), domain.Batch{VectorItems: [][]domain.Item{{item}}}))

	got, ok, err := store.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `"MOD021KM.A2024"`, string(got.VectorItems[0][0].Properties.Extra["producer_granule_id"]))
}

func TestBatchStore_LoadEmpty(t *testing.T) {
	_, ok, err := newTestStore(newFakeKV()).Load(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBatchStore_Errors(t *testing.T) {
	kv := newFakeKV()
	kv.err = errors.New("connection refused")
	store := newTestStore(kv)

	err := store.Save(context.Background(), domain.Batch{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis set "+testKey)

	_, ok, err := store.Load(context.Background())
	require.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "redis get "+testKey)
}

func TestBatchStore_CorruptValue(t *testing.T) {
	kv := newFakeKV()
	kv.values[testKey] = "{truncated"

	_, ok, err := newTestStore(kv).Load(context.Background())
	require.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "decode batch")
}

func TestNewClient(t *testing.T) {
	c := NewClient("localhost:6379", "")
	defer c.Close()
	assert.Equal(t, "localhost:6379", c.Options().Addr)
}
