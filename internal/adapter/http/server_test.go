package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/cyclone-catalog/internal/adapter/http"
	"github.com/couchcryptid/cyclone-catalog/internal/domain"
	"github.com/couchcryptid/cyclone-catalog/internal/observability"
)

const (
	testRasterAPI = "https://raster.example.test/api/raster"
	rasterID      = "goes-02-ir-cyclone-beryl"
	pointID       = "public.path_point_cyclone_beryl"
	windID        = "public.wind_vectors_cyclone_beryl"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type staticCatalog struct {
	cat *domain.Catalog
}

func (s staticCatalog) Catalog() *domain.Catalog { return s.cat }

func testCatalog(t *testing.T) *domain.Catalog {
	t.Helper()
	cat, err := domain.BuildCatalog(domain.Batch{
		RasterCollections: []domain.Collection{{
			ID:      rasterID,
			Units:   "K",
			Renders: domain.Renders{Dashboard: domain.RenderPreset{Rescale: [][]float64{{180, 320}}, ColormapName: "turbo"}},
		}},
		VectorCollections: []domain.Collection{{ID: pointID}, {ID: windID}},
		RasterItems: [][]domain.Item{{
			{ID: "r0", Collection: rasterID, Properties: domain.Properties{Datetime: "2024-07-10T00:00:00Z"}},
			{ID: "r1", Collection: rasterID, Properties: domain.Properties{Datetime: "2024-07-11T00:00:00Z"}},
			{ID: "r2", Collection: rasterID, Properties: domain.Properties{Datetime: "2024-07-12T00:00:00Z"}},
		}},
		VectorItems: [][]domain.Item{
			{{ID: "p0", Collection: pointID}, {ID: "p1", Collection: pointID}},
			{
				{ID: "w0", Collection: windID, Properties: domain.Properties{Datetime: "2024-07-10T00:00:00Z"}},
				{ID: "w1", Collection: windID, Properties: domain.Properties{Datetime: "2024-07-12T00:00:00Z"}},
			},
		},
	})
	require.NoError(t, err)
	return cat
}

type testEnv struct {
	srv     *httpadapter.Server
	metrics *observability.Metrics
}

func newTestServer(t *testing.T, cat *domain.Catalog, readyErr error) testEnv {
	t.Helper()
	metrics := observability.NewMetricsForTesting()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httpadapter.NewServer(":0", staticCatalog{cat: cat}, &mockReadiness{err: readyErr}, testRasterAPI, metrics, logger)
	return testEnv{srv: srv, metrics: metrics}
}

func get(t *testing.T, srv http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// --- health ---

func TestHealthzReturns200(t *testing.T) {
	env := newTestServer(t, nil, nil)
	assert.Equal(t, http.StatusOK, get(t, env.srv, "/healthz").Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	env := newTestServer(t, testCatalog(t), nil)
	assert.Equal(t, http.StatusOK, get(t, env.srv, "/readyz").Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	env := newTestServer(t, nil, errors.New("catalog has not been built yet"))
	assert.Equal(t, http.StatusServiceUnavailable, get(t, env.srv, "/readyz").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestServer(t, nil, nil)
	rec := get(t, env.srv, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

// --- catalog API ---

func TestCatalogAPI_NotReady(t *testing.T) {
	env := newTestServer(t, nil, nil)
	for _, target := range []string{
		"/api/v1/storms",
		"/api/v1/storms/beryl",
		"/api/v1/storms/beryl/products/goes-02-ir/assets",
	} {
		rec := get(t, env.srv, target)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, target)
		body := decode[map[string]map[string]string](t, rec)
		assert.Equal(t, "not_ready", body["error"]["code"])
	}
}

func TestListStorms(t *testing.T) {
	env := newTestServer(t, testCatalog(t), nil)

	rec := get(t, env.srv, "/api/v1/storms")
	require.Equal(t, http.StatusOK, rec.Code)

	var storms []struct {
		ID       string   `json:"id"`
		Name     string   `json:"name"`
		Products []string `json:"products"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &storms))
	require.Len(t, storms, 1)
	assert.Equal(t, "cyclone-beryl", storms[0].ID)
	assert.Equal(t, "beryl", storms[0].Name)
	assert.Equal(t, []string{"goes-02-ir", "public.path_point", "public.wind_vectors"}, storms[0].Products)
}

func TestGetStorm(t *testing.T) {
	env := newTestServer(t, testCatalog(t), nil)

	rec := get(t, env.srv, "/api/v1/storms/beryl")
	require.Equal(t, http.StatusOK, rec.Code)

	var storm struct {
		Name     string           `json:"name"`
		Products []map[string]any `json:"products"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &storm))
	assert.Equal(t, "beryl", storm.Name)
	require.Len(t, storm.Products, 3)

	raster := storm.Products[0]
	assert.Equal(t, "goes-02-ir-cyclone-beryl", raster["id"])
	assert.Equal(t, "raster", raster["type"])
	assert.Equal(t, "raster", raster["kind"])
	assert.Equal(t, "raster", raster["shape"])
	assert.Equal(t, true, raster["time_sensitive"])
	assert.InDelta(t, 3, raster["items"], 0)
	assert.Equal(t, "2024-07-10T00:00:00Z", raster["start"])
	assert.Equal(t, "2024-07-12T00:00:00Z", raster["end"])

	point := storm.Products[1]
	assert.Equal(t, "vector_point", point["kind"])
	assert.Equal(t, "point", point["shape"])
	assert.Equal(t, "vector", point["type"])
	assert.NotContains(t, point, "start")

	assert.Equal(t, http.StatusNotFound, get(t, env.srv, "/api/v1/storms/debby").Code)
}

func TestAssets(t *testing.T) {
	env := newTestServer(t, testCatalog(t), nil)

	type response struct {
		Product       string        `json:"product"`
		Kind          string        `json:"kind"`
		Shape         string        `json:"shape"`
		TimeSensitive bool          `json:"time_sensitive"`
		Count         int           `json:"count"`
		Items         []domain.Item `json:"items"`
	}

	tests := []struct {
		name    string
		product string
		query   string
		kind    string
		shape   string
		wantIDs []string
	}{
		{"raster nearest", "goes-02-ir", "2024-07-11T18:00:00Z", "raster", "raster", []string{"r2"}},
		{"raster offset normalized", "goes-02-ir", "2024-07-11T02:00:00+03:00", "raster", "raster", []string{"r1"}},
		{"raster without datetime", "goes-02-ir", "", "raster", "raster", []string{"r0"}},
		{"static vector ignores time", "public.path_point", "2030-01-01T00:00:00Z", "vector_point", "point", []string{"p0", "p1"}},
		{"wind vector window", "public.wind_vectors", "2024-07-10T00:00:00Z", "vector_wind_vector", "line", []string{"w0", "w1"}},
		{"wind vector before range", "public.wind_vectors", "2024-07-01T00:00:00Z", "vector_wind_vector", "line", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/api/v1/storms/beryl/products/" + tt.product + "/assets"
			if tt.query != "" {
				target += "?datetime=" + url.QueryEscape(tt.query)
			}
			rec := get(t, env.srv, target)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			body := decode[response](t, rec)
			assert.Equal(t, tt.kind, body.Kind)
			assert.Equal(t, tt.shape, body.Shape)
			assert.Equal(t, len(tt.wantIDs), body.Count)
			ids := make([]string, 0, len(body.Items))
			for _, it := range body.Items {
				ids = append(ids, it.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}

	assert.InDelta(t, 3, testutil.ToFloat64(env.metrics.AssetQueries.WithLabelValues("raster")), 0)
}

func TestAssets_Errors(t *testing.T) {
	env := newTestServer(t, testCatalog(t), nil)

	tests := []struct {
		target string
		status int
		code   string
	}{
		{"/api/v1/storms/debby/products/goes-02-ir/assets", http.StatusNotFound, "storm_not_found"},
		{"/api/v1/storms/beryl/products/imerg/assets", http.StatusNotFound, "product_not_found"},
		{"/api/v1/storms/beryl/products/goes-02-ir/assets?datetime=yesterday", http.StatusBadRequest, "invalid_datetime"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := get(t, env.srv, tt.target)
			assert.Equal(t, tt.status, rec.Code)
			body := decode[map[string]map[string]string](t, rec)
			assert.Equal(t, tt.code, body["error"]["code"])
		})
	}
}

func TestNearest(t *testing.T) {
	env := newTestServer(t, testCatalog(t), nil)

	rec := get(t, env.srv, "/api/v1/storms/beryl/products/goes-02-ir/nearest?datetime=2024-07-11T10:00:00Z")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024-07-11 12:00:00 AM", decode[map[string]string](t, rec)["datetime"])

	assert.Equal(t, http.StatusBadRequest, get(t, env.srv, "/api/v1/storms/beryl/products/goes-02-ir/nearest").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, env.srv, "/api/v1/storms/beryl/products/goes-02-ir/nearest?datetime=soon").Code)
}

func TestTiles(t *testing.T) {
	env := newTestServer(t, testCatalog(t), nil)

	rec := get(t, env.srv, "/api/v1/storms/beryl/products/goes-02-ir/tiles?datetime=2024-07-12T01:00:00Z&vmin=200&colormap=viridis")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode[map[string]string](t, rec)
	assert.Equal(t, "r2", body["item"])
	assert.Contains(t, body["url"], testRasterAPI+"/collections/goes-02-ir-cyclone-beryl/items/r2/tiles/WebMercatorQuad/{z}/{x}/{y}@1x?")
	assert.Contains(t, body["url"], "colormap_name=viridis")
	assert.Contains(t, body["url"], "rescale=200%2C320")
}

func TestTiles_Errors(t *testing.T) {
	env := newTestServer(t, testCatalog(t), nil)

	assert.Equal(t, http.StatusBadRequest, get(t, env.srv, "/api/v1/storms/beryl/products/public.path_point/tiles").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, env.srv, "/api/v1/storms/beryl/products/goes-02-ir/tiles?vmax=hot").Code)

	noAPI := httpadapter.NewServer(":0", staticCatalog{cat: testCatalog(t)}, &mockReadiness{}, "", observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Equal(t, http.StatusServiceUnavailable, get(t, noAPI, "/api/v1/storms/beryl/products/goes-02-ir/tiles").Code)
}
