package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"cornerstone/internal/registration/models"
)

// Fetcher is the external catalog service boundary. The engine consumes one
// fetch per registration and feeds the response into the cache; the fetch
// itself happens outside any mutation.
type Fetcher interface {
	FetchCatalog(ctx context.Context, eventID string) (models.RawCatalog, error)
}

// HTTPFetcher fetches the catalog from a JSON endpoint:
// GET {base}/events/{eventID}/catalog.
type HTTPFetcher struct {
	base   string
	client *http.Client
}

func NewHTTPFetcher(base string, client *http.Client) *HTTPFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{base: base, client: client}
}

func (f *HTTPFetcher) FetchCatalog(ctx context.Context, eventID string) (models.RawCatalog, error) {
	u := fmt.Sprintf("%s/events/%s/catalog", f.base, url.PathEscape(eventID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return models.RawCatalog{}, fmt.Errorf("build catalog request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return models.RawCatalog{}, fmt.Errorf("fetch catalog: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return models.RawCatalog{}, fmt.Errorf("fetch catalog: unexpected status %d", resp.StatusCode)
	}
	var raw models.RawCatalog
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return models.RawCatalog{}, fmt.Errorf("decode catalog: %w", err)
	}
	return raw, nil
}
