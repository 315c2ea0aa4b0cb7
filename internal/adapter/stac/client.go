package stac

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/cyclone-catalog/internal/domain"
)

// maxPages bounds pagination so a server that loops its "next" links cannot
// stall a refresh.
const maxPages = 100

// Client reads collections and items from a STAC API (raster) and an OGC
// API - Features server (vector).
type Client struct {
	stacURL     string
	featuresURL string
	pageLimit   int
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewClient creates a client. Either base URL may be empty when the manifest
// lists no collections of that family.
func NewClient(stacURL, featuresURL string, pageLimit int, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		stacURL:     strings.TrimRight(stacURL, "/"),
		featuresURL: strings.TrimRight(featuresURL, "/"),
		pageLimit:   pageLimit,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

// Collection fetches a collection document.
func (c *Client) Collection(ctx context.Context, family domain.VisualizationType, id string) (domain.Collection, error) {
	base, err := c.baseURL(family)
	if err != nil {
		return domain.Collection{}, err
	}
	var col domain.Collection
	if err := c.getJSON(ctx, base+"/collections/"+url.PathEscape(id), &col); err != nil {
		return domain.Collection{}, err
	}
	if col.ID == "" {
		col.ID = id
	}
	return col, nil
}

// Items fetches every item of a collection, following "next" links.
func (c *Client) Items(ctx context.Context, family domain.VisualizationType, id string) ([]domain.Item, error) {
	base, err := c.baseURL(family)
	if err != nil {
		return nil, err
	}
	params := url.Values{"limit": {strconv.Itoa(c.pageLimit)}}
	next := base + "/collections/" + url.PathEscape(id) + "/items?" + params.Encode()

	var items []domain.Item
	for page := 0; next != ""; page++ {
		if page == maxPages {
			return nil, fmt.Errorf("items %q: more than %d pages", id, maxPages)
		}
		var fc domain.FeatureCollection
		if err := c.getJSON(ctx, next, &fc); err != nil {
			return nil, err
		}
		items = append(items, fc.Features...)
		next = nextLink(fc.Links)
	}
	c.logger.Debug("items fetched", "collection", id, "count", len(items))
	return items, nil
}

func (c *Client) baseURL(family domain.VisualizationType) (string, error) {
	base := c.stacURL
	if family == domain.VisualizationVector {
		base = c.featuresURL
	}
	if base == "" {
		return "", fmt.Errorf("no API url configured for %s collections", family)
	}
	return base, nil
}

func (c *Client) getJSON(ctx context.Context, fullURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", fullURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{Status: resp.StatusCode, URL: fullURL, Body: string(body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func nextLink(links []domain.Link) string {
	for _, l := range links {
		if l.Rel == "next" && l.Href != "" {
			return l.Href
		}
	}
	return ""
}

// APIError is a non-200 response.
type APIError struct {
	Status int
	URL    string
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d from %s: %s", e.Status, e.URL, e.Body)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
