// Package lookup talks to the external reference services: web search,
// directory search, the medical dictionary and the local knowledge base.
package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/niramoy/health-assistant/internal/model"
)

// ErrNotConfigured is returned when a service has no API key.
var ErrNotConfigured = errors.New("lookup service not configured")

// Searcher runs a free-text search.
type Searcher interface {
	Search(ctx context.Context, query string) ([]model.SearchResult, error)
}

// Dictionary resolves a medical term.
type Dictionary interface {
	Define(ctx context.Context, term string) (*model.DictionaryResponse, error)
}

const defaultTimeout = 20 * time.Second

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}

func doJSON(client *http.Client, req *http.Request, service string, out any) error {
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute %s request: %w", service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s API error: %d - %s", service, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", service, err)
	}
	return nil
}
